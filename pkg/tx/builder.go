package tx

import (
	"encoding/json"
	"fmt"
)

// Conditions is the condition layer the builder delegates to. It turns
// owners into locked outputs and outputs into spend references.
// SpendReferences always receives an explicit, non-empty index list.
type Conditions interface {
	BuildCondition(ownerAfter string, amount uint64) (Output, error)
	SpendReferences(t *Transaction, outputIndices []int) ([]Input, error)
}

// Builder assembles unsigned CREATE and TRANSFER transactions.
type Builder struct {
	conds Conditions
}

// NewBuilder creates a builder. A nil Conditions uses Ed25519Conditions.
func NewBuilder(conds Conditions) *Builder {
	if conds == nil {
		conds = Ed25519Conditions{}
	}
	return &Builder{conds: conds}
}

// Output builds an output of amount locked to ownerAfter.
// Fails with ErrInvalidAmount when amount <= 0.
func (b *Builder) Output(ownerAfter string, amount int64) (Output, error) {
	if amount <= 0 {
		return Output{}, &AmountError{Owner: ownerAfter, Amount: amount}
	}
	return b.conds.BuildCondition(ownerAfter, uint64(amount))
}

// Create builds an unsigned CREATE issued by ownerBefore that mints output.
func (b *Builder) Create(ownerBefore string, output Output, assetData, metadata json.RawMessage) *Transaction {
	return &Transaction{
		Version:   Version,
		Operation: OpCreate,
		Inputs:    []Input{{OwnersBefore: []string{ownerBefore}}},
		Outputs:   []Output{output},
		Asset:     Asset{Data: assetData},
		Metadata:  metadata,
	}
}

// Transfer builds an unsigned TRANSFER of assetID. Amount conservation is
// the caller's responsibility.
func (b *Builder) Transfer(inputs []Input, outputs []Output, assetID string, metadata json.RawMessage) *Transaction {
	return &Transaction{
		Version:   Version,
		Operation: OpTransfer,
		Inputs:    inputs,
		Outputs:   outputs,
		Asset:     Asset{ID: assetID},
		Metadata:  metadata,
	}
}

// SpendReferences converts outputs of t into spendable inputs. An empty
// outputIndices converts every output of t, in order; otherwise exactly the
// listed indices are converted.
func (b *Builder) SpendReferences(t *Transaction, outputIndices []int) ([]Input, error) {
	if len(outputIndices) == 0 {
		outputIndices = make([]int, len(t.Outputs))
		for i := range t.Outputs {
			outputIndices[i] = i
		}
	}
	for _, idx := range outputIndices {
		if idx < 0 || idx >= len(t.Outputs) {
			return nil, fmt.Errorf("output index %d out of range (have %d outputs)", idx, len(t.Outputs))
		}
	}
	if len(outputIndices) == 0 {
		return []Input{}, nil
	}
	return b.conds.SpendReferences(t, outputIndices)
}
