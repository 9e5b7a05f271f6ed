// Package crypto provides the cryptographic primitives used to sign ledger
// transactions: Ed25519 keys in Base58, SHA3-256 hashing and the
// crypto-condition encodings the ledger expects.
package crypto

import (
	"encoding/hex"

	"golang.org/x/crypto/sha3"
)

// HashSize is the length of a SHA3-256 digest in bytes.
const HashSize = 32

// Hash computes a SHA3-256 hash of the input data.
func Hash(data []byte) [HashSize]byte {
	return sha3.Sum256(data)
}

// HashHex computes SHA3-256 of data and returns it hex-encoded.
// Transaction ids use this form.
func HashHex(data []byte) string {
	h := Hash(data)
	return hex.EncodeToString(h[:])
}

// HashParts hashes the concatenation of all parts without allocating
// an intermediate buffer.
func HashParts(parts ...[]byte) [HashSize]byte {
	h := sha3.New256()
	for _, p := range parts {
		h.Write(p)
	}
	var out [HashSize]byte
	copy(out[:], h.Sum(nil))
	return out
}
