package tx

import (
	"fmt"

	"github.com/Klingon-tech/ipdb-go/pkg/crypto"
)

// Condition is an output's spending condition.
type Condition struct {
	Details ConditionDetails `json:"details"`
	URI     string           `json:"uri"`
}

// ConditionDetails is the decoded condition tree: a single ed25519 key or
// an m-of-n threshold over subconditions.
type ConditionDetails struct {
	Type          string             `json:"type"`
	PublicKey     string             `json:"public_key,omitempty"`
	Threshold     int                `json:"threshold,omitempty"`
	Subconditions []ConditionDetails `json:"subconditions,omitempty"`
}

// IsEd25519 reports whether the details are a single ed25519 condition on
// publicKey.
func (d ConditionDetails) IsEd25519(publicKey string) bool {
	return d.Type == crypto.ConditionEd25519 && d.PublicKey == publicKey
}

func (d ConditionDetails) clone() ConditionDetails {
	c := d
	if d.Subconditions != nil {
		c.Subconditions = make([]ConditionDetails, len(d.Subconditions))
		for i, sub := range d.Subconditions {
			c.Subconditions[i] = sub.clone()
		}
	}
	return c
}

// Ed25519Conditions builds single-key ed25519 outputs and spend references
// in-process.
type Ed25519Conditions struct{}

// BuildCondition returns an output of amount locked to ownerAfter.
func (Ed25519Conditions) BuildCondition(ownerAfter string, amount uint64) (Output, error) {
	pub, err := crypto.ParsePublicKey(ownerAfter)
	if err != nil {
		return Output{}, fmt.Errorf("owner %q: %w", ownerAfter, err)
	}
	return Output{
		PublicKeys: []string{ownerAfter},
		Condition: Condition{
			Details: ConditionDetails{Type: crypto.ConditionEd25519, PublicKey: ownerAfter},
			URI:     crypto.Ed25519ConditionURI(pub),
		},
		Amount: Amount(amount),
	}, nil
}

// SpendReferences converts the listed outputs of t into unsigned inputs.
// The caller supplies the exact index list.
func (Ed25519Conditions) SpendReferences(t *Transaction, outputIndices []int) ([]Input, error) {
	if t.ID == "" {
		return nil, fmt.Errorf("transaction has no id (unsigned?)")
	}
	inputs := make([]Input, 0, len(outputIndices))
	for _, idx := range outputIndices {
		if idx < 0 || idx >= len(t.Outputs) {
			return nil, fmt.Errorf("output index %d out of range (have %d outputs)", idx, len(t.Outputs))
		}
		inputs = append(inputs, Input{
			OwnersBefore: append([]string(nil), t.Outputs[idx].PublicKeys...),
			Fulfills:     &OutputRef{TransactionID: t.ID, OutputIndex: idx},
		})
	}
	return inputs, nil
}
