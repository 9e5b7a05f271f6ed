package wallet

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/Klingon-tech/ipdb-go/internal/ledger"
	klog "github.com/Klingon-tech/ipdb-go/internal/log"
	"github.com/Klingon-tech/ipdb-go/pkg/tx"
)

// Input resolution errors.
var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNoUnspentOutputs  = errors.New("no unspent outputs")
)

// InsufficientFundsError reports the resolved total and the requested amount.
type InsufficientFundsError struct {
	Have uint64
	Need uint64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("%v: have %d, need %d", ErrInsufficientFunds, e.Have, e.Need)
}

// Unwrap returns ErrInsufficientFunds.
func (e *InsufficientFundsError) Unwrap() error { return ErrInsufficientFunds }

// Source is the read side of the ledger used for input resolution and
// balances. *ledger.Client satisfies it.
type Source interface {
	GetOutputs(ctx context.Context, ep ledger.Endpoint, publicKey string, spent ledger.SpentFilter) ([]ledger.OutputRecord, error)
	GetTransaction(ctx context.Context, ep ledger.Endpoint, id string) (*tx.Transaction, error)
}

// Spender turns outputs of a transaction into spend references.
// signer.Signer and *tx.Builder satisfy it.
type Spender interface {
	SpendReferences(t *tx.Transaction, outputIndices []int) ([]tx.Input, error)
}

// Resolution holds the inputs funding a transfer.
type Resolution struct {
	Inputs []tx.Input
	Total  uint64
}

// ResolveInputs selects the outputs of sender that fund a transfer of assetID.
//
// With explicit transactions, every output spendable by sender is used and
// the ledger is not contacted; the caller vouches that those outputs are
// unspent. Explicit transactions of another asset contribute nothing.
// Without them, the ledger's unspent outputs for sender are
// fetched and those belonging to other assets are skipped.
func ResolveInputs(ctx context.Context, src Source, ep ledger.Endpoint, spender Spender, sender, assetID string, explicit []*tx.Transaction) (*Resolution, error) {
	if len(explicit) > 0 {
		return resolveExplicit(spender, sender, assetID, explicit)
	}

	records, err := src.GetOutputs(ctx, ep, sender, ledger.UnspentOnly)
	if err != nil {
		return nil, fmt.Errorf("list unspent outputs: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrNoUnspentOutputs, sender)
	}

	fetch := memoFetch(ctx, src, ep)
	res := &Resolution{}
	skipped := 0
	for _, rec := range records {
		t, err := fetch(rec.TransactionID)
		if err != nil {
			return nil, err
		}
		if t.AssetID() != assetID {
			skipped++
			continue
		}
		out, err := outputAt(t, rec.OutputIndex)
		if err != nil {
			return nil, err
		}
		inputs, err := spender.SpendReferences(t, []int{rec.OutputIndex})
		if err != nil {
			return nil, fmt.Errorf("spend %s: %w", rec.OutputRef, err)
		}
		if err := res.add(uint64(out.Amount), inputs); err != nil {
			return nil, err
		}
	}

	klog.Wallet.Debug().
		Str("asset", assetID).
		Int("unspent", len(records)).
		Int("other_assets", skipped).
		Int("inputs", len(res.Inputs)).
		Uint64("total", res.Total).
		Msg("Inputs resolved from ledger")
	return res, nil
}

func resolveExplicit(spender Spender, sender, assetID string, explicit []*tx.Transaction) (*Resolution, error) {
	res := &Resolution{}
	for _, t := range explicit {
		if t == nil || t.AssetID() != assetID {
			continue
		}
		var (
			indices []int
			sum     uint64
		)
		for i, out := range t.Outputs {
			if !out.SpendableBy(sender) {
				continue
			}
			if sum > math.MaxUint64-uint64(out.Amount) {
				return nil, fmt.Errorf("input amount overflow in %s", t.ID)
			}
			sum += uint64(out.Amount)
			indices = append(indices, i)
		}
		// An empty list would mean every output.
		if len(indices) == 0 {
			continue
		}
		inputs, err := spender.SpendReferences(t, indices)
		if err != nil {
			return nil, fmt.Errorf("spend %s: %w", t.ID, err)
		}
		if err := res.add(sum, inputs); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func (r *Resolution) add(amount uint64, inputs []tx.Input) error {
	if r.Total > math.MaxUint64-amount {
		return fmt.Errorf("input amount overflow")
	}
	r.Total += amount
	r.Inputs = append(r.Inputs, inputs...)
	return nil
}

// memoFetch returns a transaction fetcher that asks the ledger at most once
// per id. The memo lives only as long as the returned function.
func memoFetch(ctx context.Context, src Source, ep ledger.Endpoint) func(id string) (*tx.Transaction, error) {
	seen := make(map[string]*tx.Transaction)
	return func(id string) (*tx.Transaction, error) {
		if t, ok := seen[id]; ok {
			return t, nil
		}
		t, err := src.GetTransaction(ctx, ep, id)
		if err != nil {
			return nil, fmt.Errorf("fetch transaction %s: %w", id, err)
		}
		seen[id] = t
		return t, nil
	}
}

func outputAt(t *tx.Transaction, index int) (tx.Output, error) {
	if index < 0 || index >= len(t.Outputs) {
		return tx.Output{}, fmt.Errorf("%w: output %d out of range in %s (%d outputs)",
			ledger.ErrTransport, index, t.ID, len(t.Outputs))
	}
	return t.Outputs[index], nil
}
