// derive_key.go prints the Base58 keypair for a hex-encoded Ed25519 seed
// file, or for a BIP-39 mnemonic when the file holds words.
// Usage: go run scripts/derive_key.go <keyfile>
package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/Klingon-tech/ipdb-go/internal/wallet"
	"github.com/Klingon-tech/ipdb-go/pkg/crypto"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: derive_key <keyfile>")
		os.Exit(1)
	}
	data, err := os.ReadFile(os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	text := strings.TrimSpace(string(data))

	var kp crypto.KeyPair
	if wallet.ValidateMnemonic(text) {
		kp, err = wallet.KeyPairFromMnemonic(text, "")
	} else {
		var seed []byte
		seed, err = hex.DecodeString(text)
		if err == nil {
			var key *crypto.PrivateKey
			key, err = crypto.PrivateKeyFromSeed(seed)
			if err == nil {
				kp = key.KeyPair()
			}
		}
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("public=%s\n", kp.PublicKey)
	fmt.Printf("private=%s\n", kp.PrivateKey)
}
