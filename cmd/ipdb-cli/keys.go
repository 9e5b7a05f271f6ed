package main

import (
	"errors"
	"flag"
	"fmt"

	"github.com/Klingon-tech/ipdb-go/internal/wallet"
	"github.com/Klingon-tech/ipdb-go/pkg/crypto"
)

func (a *app) cmdKeys(args []string) error {
	if len(args) < 1 {
		return errors.New("usage: ipdb-cli keys <generate|import|list|show|delete> [flags]")
	}

	switch args[0] {
	case "generate":
		return a.cmdKeysGenerate(args[1:])
	case "import":
		return a.cmdKeysImport(args[1:])
	case "list":
		return a.cmdKeysList()
	case "show":
		return a.cmdKeysShow(args[1:])
	case "delete":
		return a.cmdKeysDelete(args[1:])
	default:
		return fmt.Errorf("unknown keys command: %s", args[0])
	}
}

func (a *app) cmdKeysGenerate(args []string) error {
	fs := flag.NewFlagSet("keys generate", flag.ContinueOnError)
	name := fs.String("name", "", "Key name")
	withMnemonic := fs.Bool("mnemonic", false, "Derive the key from a new BIP-39 mnemonic")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" {
		return errors.New("usage: ipdb-cli keys generate --name <name> [--mnemonic]")
	}

	var (
		kp  crypto.KeyPair
		err error
	)
	if *withMnemonic {
		mnemonic, err := wallet.GenerateMnemonic()
		if err != nil {
			return fmt.Errorf("generate mnemonic: %w", err)
		}
		fmt.Println("Mnemonic (write this down!):")
		fmt.Printf("  %s\n\n", mnemonic)
		kp, err = wallet.KeyPairFromMnemonic(mnemonic, "")
		if err != nil {
			return fmt.Errorf("derive key: %w", err)
		}
	} else {
		kp, err = a.signer.GenerateKeyPair()
		if err != nil {
			return fmt.Errorf("generate key: %w", err)
		}
	}

	return a.saveKey(*name, kp)
}

func (a *app) cmdKeysImport(args []string) error {
	fs := flag.NewFlagSet("keys import", flag.ContinueOnError)
	name := fs.String("name", "", "Key name")
	mnemonic := fs.String("mnemonic", "", "BIP-39 mnemonic")
	private := fs.String("private", "", "Base58 Ed25519 private key")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" || (*mnemonic == "") == (*private == "") {
		return errors.New("usage: ipdb-cli keys import --name <name> (--mnemonic \"...\" | --private <base58>)")
	}

	var kp crypto.KeyPair
	if *mnemonic != "" {
		if !wallet.ValidateMnemonic(*mnemonic) {
			return errors.New("invalid mnemonic")
		}
		var err error
		kp, err = wallet.KeyPairFromMnemonic(*mnemonic, "")
		if err != nil {
			return fmt.Errorf("derive key: %w", err)
		}
	} else {
		key, err := crypto.ParsePrivateKey(*private)
		if err != nil {
			return fmt.Errorf("invalid private key: %w", err)
		}
		kp = key.KeyPair()
		key.Zero()
	}

	return a.saveKey(*name, kp)
}

func (a *app) saveKey(name string, kp crypto.KeyPair) error {
	password, err := readNewPassword()
	if err != nil {
		return err
	}
	if err := a.keystore.Save(name, kp, password, wallet.DefaultParams()); err != nil {
		return fmt.Errorf("save key: %w", err)
	}
	fmt.Printf("Key saved: %s\n", name)
	fmt.Printf("Public key: %s\n", kp.PublicKey)
	return nil
}

func (a *app) cmdKeysList() error {
	entries, err := a.keystore.List()
	if err != nil {
		return fmt.Errorf("list keys: %w", err)
	}
	if len(entries) == 0 {
		fmt.Println("No keys found.")
		return nil
	}
	for _, e := range entries {
		fmt.Printf("%-20s %s  %s\n", e.Name, e.PublicKey, e.CreatedAt.Format("2006-01-02"))
	}
	return nil
}

func (a *app) cmdKeysShow(args []string) error {
	if len(args) < 1 {
		return errors.New("usage: ipdb-cli keys show <name> [--private]")
	}
	name := args[0]
	fs := flag.NewFlagSet("keys show", flag.ContinueOnError)
	showPrivate := fs.Bool("private", false, "Decrypt and print the private key")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	if !*showPrivate {
		pub, err := a.keystore.PublicKey(name)
		if err != nil {
			return err
		}
		fmt.Printf("Public key: %s\n", pub)
		return nil
	}

	kp, err := a.unlockKey(name)
	if err != nil {
		return err
	}
	return printJSON(kp)
}

func (a *app) cmdKeysDelete(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: ipdb-cli keys delete <name>")
	}
	if err := a.keystore.Delete(args[0]); err != nil {
		return err
	}
	fmt.Printf("Key deleted: %s\n", args[0])
	return nil
}

// unlockKey prompts for the password of a stored keypair and decrypts it.
func (a *app) unlockKey(name string) (crypto.KeyPair, error) {
	if _, err := a.keystore.PublicKey(name); err != nil {
		return crypto.KeyPair{}, err
	}
	password, err := readPassword(fmt.Sprintf("Password for %s: ", name))
	if err != nil {
		return crypto.KeyPair{}, fmt.Errorf("read password: %w", err)
	}
	kp, err := a.keystore.Load(name, password)
	if err != nil {
		return crypto.KeyPair{}, fmt.Errorf("unlock %s: %w", name, err)
	}
	return kp, nil
}

// publicKeyArg resolves a public key from a positional argument or a
// stored key name.
func (a *app) publicKeyArg(positional []string, keyName string) (string, error) {
	switch {
	case keyName != "":
		return a.keystore.PublicKey(keyName)
	case len(positional) > 0:
		if _, err := crypto.ParsePublicKey(positional[0]); err != nil {
			return "", fmt.Errorf("invalid public key: %w", err)
		}
		return positional[0], nil
	default:
		return "", errors.New("a public key or --key is required")
	}
}
