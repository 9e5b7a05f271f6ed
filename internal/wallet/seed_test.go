package wallet

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/Klingon-tech/ipdb-go/pkg/crypto"
)

func TestSeedFromMnemonic_KnownVector(t *testing.T) {
	seed, err := SeedFromMnemonic(testMnemonic12, "TREZOR")
	if err != nil {
		t.Fatalf("SeedFromMnemonic() error: %v", err)
	}
	want, _ := hex.DecodeString("c55257c360c07c72029aebc1b53c05ed0362ada38ead3e3e9efa3708e53495531f09a6987599d18264c1e1c92f2cf141630c7a3c4ab7c81b2f001698e7463b04")
	if !bytes.Equal(seed, want) {
		t.Errorf("seed = %x, want %x", seed, want)
	}
	if len(seed) != SeedSize {
		t.Errorf("seed length = %d, want %d", len(seed), SeedSize)
	}
}

func TestSeedFromMnemonic_Invalid(t *testing.T) {
	for _, m := range []string{"", "not valid words here"} {
		if _, err := SeedFromMnemonic(m, ""); err == nil {
			t.Errorf("SeedFromMnemonic(%q) should fail", m)
		}
	}
}

func TestMasterKey_SLIP10Vector(t *testing.T) {
	seed, _ := hex.DecodeString("000102030405060708090a0b0c0d0e0f")
	key, err := MasterKey(seed)
	if err != nil {
		t.Fatalf("MasterKey() error: %v", err)
	}

	if got := hex.EncodeToString(key.Seed()); got != "2b4be7f19ee27bbf30c667b642d5f4aa69fd169872f8fc3059c08ebae2eb19e7" {
		t.Errorf("private key = %s", got)
	}
	if got := hex.EncodeToString(key.PublicKey()); got != "a4b2856bfec510abab89753fac1ac0e1112364e7d250545963f135f2a33188ed" {
		t.Errorf("public key = %s", got)
	}
}

func TestMasterKey_SeedLength(t *testing.T) {
	if _, err := MasterKey(make([]byte, 8)); err == nil {
		t.Error("MasterKey should reject an 8-byte seed")
	}
	if _, err := MasterKey(make([]byte, 65)); err == nil {
		t.Error("MasterKey should reject a 65-byte seed")
	}
}

func TestKeyPairFromMnemonic(t *testing.T) {
	kp1, err := KeyPairFromMnemonic(testMnemonic12, "")
	if err != nil {
		t.Fatalf("KeyPairFromMnemonic() error: %v", err)
	}
	kp2, err := KeyPairFromMnemonic(testMnemonic12, "")
	if err != nil {
		t.Fatalf("KeyPairFromMnemonic() error: %v", err)
	}
	if kp1 != kp2 {
		t.Error("same mnemonic should give the same keypair")
	}

	other, err := KeyPairFromMnemonic(testMnemonic12, "passphrase")
	if err != nil {
		t.Fatalf("KeyPairFromMnemonic() error: %v", err)
	}
	if other.PublicKey == kp1.PublicKey {
		t.Error("different passphrases should give different keypairs")
	}

	key, err := crypto.ParsePrivateKey(kp1.PrivateKey)
	if err != nil {
		t.Fatalf("ParsePrivateKey() error: %v", err)
	}
	if key.PublicKeyBase58() != kp1.PublicKey {
		t.Error("derived public key does not match private key")
	}
}
