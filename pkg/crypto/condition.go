package crypto

import (
	"bytes"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// Crypto-condition type names as they appear in condition details.
const (
	ConditionEd25519   = "ed25519-sha-256"
	ConditionThreshold = "threshold-sha-256"
)

// Ed25519Cost is the fixed cost of an ed25519-sha-256 condition.
const Ed25519Cost = 131072

// DER tags for the ed25519-sha-256 encodings.
const (
	tagFulfillmentEd25519 = 0xa4 // [4] constructed
	tagFingerprintSeq     = 0x30 // SEQUENCE
	tagPublicKey          = 0x80 // [0] primitive
	tagSignature          = 0x81 // [1] primitive
)

// fulfillmentLen is the DER body length of an ed25519 fulfillment.
const fulfillmentLen = 2 + ed25519.PublicKeySize + 2 + ed25519.SignatureSize

// Ed25519Fingerprint returns the SHA-256 fingerprint of an ed25519 condition.
func Ed25519Fingerprint(publicKey []byte) [sha256.Size]byte {
	content := make([]byte, 0, 4+len(publicKey))
	content = append(content, tagFingerprintSeq, byte(2+len(publicKey)))
	content = append(content, tagPublicKey, byte(len(publicKey)))
	content = append(content, publicKey...)
	return sha256.Sum256(content)
}

// Ed25519ConditionURI returns the ni:/// URI for an ed25519 condition.
func Ed25519ConditionURI(publicKey []byte) string {
	fp := Ed25519Fingerprint(publicKey)
	return fmt.Sprintf("ni:///sha-256;%s?fpt=%s&cost=%d",
		base64.RawURLEncoding.EncodeToString(fp[:]), ConditionEd25519, Ed25519Cost)
}

// EncodeEd25519Fulfillment serializes a public key and signature into the
// base64url fulfillment string carried by a transaction input.
func EncodeEd25519Fulfillment(publicKey, signature []byte) (string, error) {
	if len(publicKey) != ed25519.PublicKeySize {
		return "", fmt.Errorf("public key must be %d bytes, got %d", ed25519.PublicKeySize, len(publicKey))
	}
	if len(signature) != ed25519.SignatureSize {
		return "", fmt.Errorf("signature must be %d bytes, got %d", ed25519.SignatureSize, len(signature))
	}
	buf := make([]byte, 0, 2+fulfillmentLen)
	buf = append(buf, tagFulfillmentEd25519, fulfillmentLen)
	buf = append(buf, tagPublicKey, ed25519.PublicKeySize)
	buf = append(buf, publicKey...)
	buf = append(buf, tagSignature, ed25519.SignatureSize)
	buf = append(buf, signature...)
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// DecodeEd25519Fulfillment parses a fulfillment produced by
// EncodeEd25519Fulfillment.
func DecodeEd25519Fulfillment(s string) (publicKey, signature []byte, err error) {
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, nil, fmt.Errorf("decode fulfillment: %w", err)
	}
	if len(raw) != 2+fulfillmentLen || raw[0] != tagFulfillmentEd25519 || raw[1] != fulfillmentLen {
		return nil, nil, fmt.Errorf("not an ed25519-sha-256 fulfillment")
	}
	body := raw[2:]
	if !bytes.Equal(body[:2], []byte{tagPublicKey, ed25519.PublicKeySize}) {
		return nil, nil, fmt.Errorf("malformed fulfillment public key")
	}
	publicKey = body[2 : 2+ed25519.PublicKeySize]
	rest := body[2+ed25519.PublicKeySize:]
	if !bytes.Equal(rest[:2], []byte{tagSignature, ed25519.SignatureSize}) {
		return nil, nil, fmt.Errorf("malformed fulfillment signature")
	}
	return publicKey, rest[2:], nil
}
