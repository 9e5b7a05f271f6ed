package crypto

import (
	"bytes"
	"strings"
	"testing"
)

func TestEd25519ConditionURI(t *testing.T) {
	key, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() error: %v", err)
	}
	uri := Ed25519ConditionURI(key.PublicKey())

	if !strings.HasPrefix(uri, "ni:///sha-256;") {
		t.Errorf("uri = %q, want ni:///sha-256; prefix", uri)
	}
	if !strings.HasSuffix(uri, "?fpt=ed25519-sha-256&cost=131072") {
		t.Errorf("uri = %q, want fpt/cost suffix", uri)
	}
	if uri != Ed25519ConditionURI(key.PublicKey()) {
		t.Error("uri is not deterministic")
	}
}

func TestEd25519Fulfillment_Roundtrip(t *testing.T) {
	key, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() error: %v", err)
	}
	msg := Hash([]byte("tx"))
	sig := key.Sign(msg[:])

	f, err := EncodeEd25519Fulfillment(key.PublicKey(), sig)
	if err != nil {
		t.Fatalf("EncodeEd25519Fulfillment() error: %v", err)
	}
	if strings.ContainsAny(f, "+/=") {
		t.Errorf("fulfillment %q is not unpadded base64url", f)
	}

	pub, gotSig, err := DecodeEd25519Fulfillment(f)
	if err != nil {
		t.Fatalf("DecodeEd25519Fulfillment() error: %v", err)
	}
	if !bytes.Equal(pub, key.PublicKey()) {
		t.Error("public key mismatch")
	}
	if !bytes.Equal(gotSig, sig) {
		t.Error("signature mismatch")
	}
}

func TestEncodeEd25519Fulfillment_BadLengths(t *testing.T) {
	if _, err := EncodeEd25519Fulfillment(make([]byte, 31), make([]byte, 64)); err == nil {
		t.Error("expected error for short public key")
	}
	if _, err := EncodeEd25519Fulfillment(make([]byte, 32), make([]byte, 10)); err == nil {
		t.Error("expected error for short signature")
	}
}

func TestDecodeEd25519Fulfillment_Garbage(t *testing.T) {
	if _, _, err := DecodeEd25519Fulfillment("pGSAIA"); err == nil {
		t.Error("expected error for truncated fulfillment")
	}
	if _, _, err := DecodeEd25519Fulfillment("!!!"); err == nil {
		t.Error("expected error for invalid base64")
	}
}
