package wallet

import (
	"crypto/hmac"
	"crypto/sha512"
	"fmt"

	"github.com/tyler-smith/go-bip39"

	"github.com/Klingon-tech/ipdb-go/pkg/crypto"
)

// SeedSize is the length of a BIP-39 seed in bytes.
const SeedSize = 64

// slip10Curve is the HMAC key of the SLIP-10 Ed25519 master node.
var slip10Curve = []byte("ed25519 seed")

// SeedFromMnemonic derives the BIP-39 seed (PBKDF2-SHA512) from a mnemonic
// and optional passphrase.
func SeedFromMnemonic(mnemonic, passphrase string) ([]byte, error) {
	if !ValidateMnemonic(mnemonic) {
		return nil, fmt.Errorf("invalid mnemonic")
	}
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, passphrase)
	if err != nil {
		return nil, fmt.Errorf("derive seed: %w", err)
	}
	return seed, nil
}

// MasterKey returns the SLIP-10 Ed25519 master private key for a seed.
func MasterKey(seed []byte) (*crypto.PrivateKey, error) {
	if len(seed) < 16 || len(seed) > 64 {
		return nil, fmt.Errorf("seed must be 16-64 bytes, got %d", len(seed))
	}
	mac := hmac.New(sha512.New, slip10Curve)
	mac.Write(seed)
	sum := mac.Sum(nil)
	defer zero(sum)
	return crypto.PrivateKeyFromSeed(sum[:32])
}

// KeyPairFromMnemonic derives the Base58 keypair of a mnemonic's SLIP-10
// master node. The same mnemonic and passphrase always give the same pair.
func KeyPairFromMnemonic(mnemonic, passphrase string) (crypto.KeyPair, error) {
	seed, err := SeedFromMnemonic(mnemonic, passphrase)
	if err != nil {
		return crypto.KeyPair{}, err
	}
	defer zero(seed)

	key, err := MasterKey(seed)
	if err != nil {
		return crypto.KeyPair{}, err
	}
	defer key.Zero()
	return key.KeyPair(), nil
}
