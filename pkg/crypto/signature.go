package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"

	"github.com/btcsuite/btcutil/base58"
)

// KeySize is the length of an encoded key before Base58 (public key or seed).
const KeySize = 32

// KeyPair is a Base58-encoded Ed25519 keypair. The private half is the
// 32-byte seed, not the expanded 64-byte key.
type KeyPair struct {
	PublicKey  string `json:"public"`
	PrivateKey string `json:"private"`
}

// PrivateKey wraps an Ed25519 private key.
type PrivateKey struct {
	key ed25519.PrivateKey
}

// GenerateKey creates a new random Ed25519 private key.
func GenerateKey() (*PrivateKey, error) {
	_, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return &PrivateKey{key: key}, nil
}

// PrivateKeyFromSeed creates a PrivateKey from a 32-byte seed.
func PrivateKeyFromSeed(seed []byte) (*PrivateKey, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("private key seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	return &PrivateKey{key: ed25519.NewKeyFromSeed(seed)}, nil
}

// ParsePrivateKey decodes a Base58 private key seed.
func ParsePrivateKey(s string) (*PrivateKey, error) {
	seed := base58.Decode(s)
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("invalid base58 private key: decoded %d bytes, want %d", len(seed), ed25519.SeedSize)
	}
	return PrivateKeyFromSeed(seed)
}

// ParsePublicKey decodes a Base58 public key.
func ParsePublicKey(s string) (ed25519.PublicKey, error) {
	b := base58.Decode(s)
	if len(b) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("invalid base58 public key: decoded %d bytes, want %d", len(b), ed25519.PublicKeySize)
	}
	return ed25519.PublicKey(b), nil
}

// Sign produces an Ed25519 signature over msg.
func (pk *PrivateKey) Sign(msg []byte) []byte {
	return ed25519.Sign(pk.key, msg)
}

// PublicKey returns the raw 32-byte public key.
func (pk *PrivateKey) PublicKey() []byte {
	pub := pk.key.Public().(ed25519.PublicKey)
	out := make([]byte, len(pub))
	copy(out, pub)
	return out
}

// PublicKeyBase58 returns the Base58-encoded public key.
func (pk *PrivateKey) PublicKeyBase58() string {
	return base58.Encode(pk.PublicKey())
}

// Seed returns the 32-byte seed the key was derived from.
func (pk *PrivateKey) Seed() []byte {
	return pk.key.Seed()
}

// KeyPair returns the Base58 keypair for this key.
func (pk *PrivateKey) KeyPair() KeyPair {
	return KeyPair{
		PublicKey:  pk.PublicKeyBase58(),
		PrivateKey: base58.Encode(pk.key.Seed()),
	}
}

// Zero clears the private key memory.
func (pk *PrivateKey) Zero() {
	for i := range pk.key {
		pk.key[i] = 0
	}
}

// VerifySignature checks an Ed25519 signature. Returns false on a
// malformed public key.
func VerifySignature(msg, signature, publicKey []byte) bool {
	if len(publicKey) != ed25519.PublicKeySize || len(signature) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(publicKey), msg, signature)
}

// GenerateKeyPair returns a fresh Base58 keypair.
func GenerateKeyPair() (KeyPair, error) {
	key, err := GenerateKey()
	if err != nil {
		return KeyPair{}, err
	}
	defer key.Zero()
	return key.KeyPair(), nil
}
