package tx

import (
	"fmt"

	"github.com/Klingon-tech/ipdb-go/pkg/crypto"
)

// Sign returns a signed copy of t. Every input must be owned solely by the
// key's public key. The copy's ID is set to its content id.
func Sign(t *Transaction, key *crypto.PrivateKey) (*Transaction, error) {
	signed := t.Clone()
	pub := key.PublicKeyBase58()

	msgBytes, err := signed.SigningBytes()
	if err != nil {
		return nil, fmt.Errorf("serialize tx: %w", err)
	}

	for i, in := range signed.Inputs {
		if len(in.OwnersBefore) != 1 || in.OwnersBefore[0] != pub {
			return nil, fmt.Errorf("input %d: owners %v cannot be signed by %s", i, in.OwnersBefore, pub)
		}
		msg := signed.InputMessage(msgBytes, i)
		f, err := crypto.EncodeEd25519Fulfillment(key.PublicKey(), key.Sign(msg[:]))
		if err != nil {
			return nil, fmt.Errorf("input %d: %w", i, err)
		}
		signed.Inputs[i].Fulfillment = &f
	}

	id, err := signed.ComputeID()
	if err != nil {
		return nil, fmt.Errorf("compute id: %w", err)
	}
	signed.ID = id
	return signed, nil
}

// VerifySignatures checks every input fulfillment against its owner and
// the transaction content, and that ID matches the content.
func (t *Transaction) VerifySignatures() error {
	msgBytes, err := t.SigningBytes()
	if err != nil {
		return fmt.Errorf("serialize tx: %w", err)
	}
	for i, in := range t.Inputs {
		if !in.IsSigned() {
			return fmt.Errorf("input %d: %w", i, ErrMissingFulfillment)
		}
		pub, sig, err := crypto.DecodeEd25519Fulfillment(*in.Fulfillment)
		if err != nil {
			return fmt.Errorf("input %d: %w", i, err)
		}
		if len(in.OwnersBefore) != 1 {
			return fmt.Errorf("input %d: %w: expected one owner", i, ErrInvalidFulfillment)
		}
		owner, err := crypto.ParsePublicKey(in.OwnersBefore[0])
		if err != nil {
			return fmt.Errorf("input %d: %w", i, err)
		}
		if string(owner) != string(pub) {
			return fmt.Errorf("input %d: %w: key mismatch", i, ErrInvalidFulfillment)
		}
		msg := t.InputMessage(msgBytes, i)
		if !crypto.VerifySignature(msg[:], sig, pub) {
			return fmt.Errorf("input %d: %w", i, ErrInvalidFulfillment)
		}
	}
	id, err := t.ComputeID()
	if err != nil {
		return err
	}
	if id != t.ID {
		return fmt.Errorf("%w: have %s, content hashes to %s", ErrIDMismatch, t.ID, id)
	}
	return nil
}
