package tx

import (
	"errors"
	"fmt"
)

// Validation errors.
var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrNoInputs           = errors.New("transaction has no inputs")
	ErrNoOutputs          = errors.New("transaction has no outputs")
	ErrDuplicateInput     = errors.New("duplicate input")
	ErrUnknownOperation   = errors.New("unknown operation")
	ErrMissingAssetID     = errors.New("transfer missing asset id")
	ErrCreateFulfills     = errors.New("create input references a prior output")
	ErrTransferFulfills   = errors.New("transfer input does not reference an output")
	ErrMissingFulfillment = errors.New("input missing fulfillment")
	ErrInvalidFulfillment = errors.New("invalid fulfillment")
	ErrIDMismatch         = errors.New("transaction id does not match content")
)

// AmountError reports a non-positive amount for an owner.
type AmountError struct {
	Owner  string
	Amount int64
}

func (e *AmountError) Error() string {
	return fmt.Sprintf("%v (<=0) for %s: %d", ErrInvalidAmount, e.Owner, e.Amount)
}

// Unwrap returns ErrInvalidAmount.
func (e *AmountError) Unwrap() error { return ErrInvalidAmount }

// Validate checks transaction structure before submission. It does not
// check signatures or whether referenced outputs are unspent; the ledger
// does that.
func (t *Transaction) Validate() error {
	if len(t.Inputs) == 0 {
		return ErrNoInputs
	}
	if len(t.Outputs) == 0 {
		return ErrNoOutputs
	}
	for i, out := range t.Outputs {
		if out.Amount == 0 {
			return fmt.Errorf("output %d: %w", i, ErrInvalidAmount)
		}
	}
	if _, err := t.TotalOutputValue(); err != nil {
		return err
	}

	switch t.Operation {
	case OpCreate:
		for i, in := range t.Inputs {
			if in.Fulfills != nil {
				return fmt.Errorf("input %d: %w", i, ErrCreateFulfills)
			}
		}
	case OpTransfer:
		if t.Asset.ID == "" {
			return ErrMissingAssetID
		}
		seen := make(map[OutputRef]bool, len(t.Inputs))
		for i, in := range t.Inputs {
			if in.Fulfills == nil {
				return fmt.Errorf("input %d: %w", i, ErrTransferFulfills)
			}
			if seen[*in.Fulfills] {
				return fmt.Errorf("input %d: %w", i, ErrDuplicateInput)
			}
			seen[*in.Fulfills] = true
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOperation, t.Operation)
	}
	return nil
}
