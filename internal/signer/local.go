package signer

import (
	"fmt"

	"github.com/Klingon-tech/ipdb-go/pkg/crypto"
	"github.com/Klingon-tech/ipdb-go/pkg/tx"
)

// Local signs in-process with Ed25519.
type Local struct {
	conds tx.Ed25519Conditions
}

// NewLocal returns an in-process signer.
func NewLocal() *Local {
	return &Local{}
}

// GenerateKeyPair returns a fresh Base58 keypair.
func (l *Local) GenerateKeyPair() (crypto.KeyPair, error) {
	kp, err := crypto.GenerateKeyPair()
	if err != nil {
		return crypto.KeyPair{}, fmt.Errorf("%w: %v", ErrSignerFailure, err)
	}
	return kp, nil
}

// Sign returns a signed copy of t with its id set.
func (l *Local) Sign(t *tx.Transaction, privateKey string) (*tx.Transaction, error) {
	key, err := crypto.ParsePrivateKey(privateKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSignerFailure, err)
	}
	defer key.Zero()

	signed, err := tx.Sign(t, key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSignerFailure, err)
	}
	return signed, nil
}

// BuildCondition returns an ed25519 output locked to ownerAfter.
func (l *Local) BuildCondition(ownerAfter string, amount uint64) (tx.Output, error) {
	out, err := l.conds.BuildCondition(ownerAfter, amount)
	if err != nil {
		return tx.Output{}, fmt.Errorf("%w: %v", ErrSignerFailure, err)
	}
	return out, nil
}

// SpendReferences converts the listed outputs of t into unsigned inputs.
func (l *Local) SpendReferences(t *tx.Transaction, outputIndices []int) ([]tx.Input, error) {
	inputs, err := l.conds.SpendReferences(t, outputIndices)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSignerFailure, err)
	}
	return inputs, nil
}
