// Package signer provides the Signer collaborator: key generation,
// condition construction, spend-reference conversion and transaction
// signing, either in-process or through an external binary.
package signer

import (
	"errors"

	"github.com/Klingon-tech/ipdb-go/pkg/crypto"
	"github.com/Klingon-tech/ipdb-go/pkg/tx"
)

// ErrSignerFailure is returned when the signer fails or produces a
// malformed result.
var ErrSignerFailure = errors.New("signer failure")

// Signer creates keys, conditions and signatures for ledger transactions.
// It also satisfies tx.Conditions so a tx.Builder can delegate to it.
type Signer interface {
	GenerateKeyPair() (crypto.KeyPair, error)
	Sign(t *tx.Transaction, privateKey string) (*tx.Transaction, error)
	BuildCondition(ownerAfter string, amount uint64) (tx.Output, error)
	SpendReferences(t *tx.Transaction, outputIndices []int) ([]tx.Input, error)
}
