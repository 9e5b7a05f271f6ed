package wallet

import (
	"context"
	"fmt"
	"math"

	"github.com/Klingon-tech/ipdb-go/internal/ledger"
)

// Balance sums the unspent outputs of publicKey that belong to assetID.
// No qualifying outputs is a zero balance, not an error.
func Balance(ctx context.Context, src Source, ep ledger.Endpoint, publicKey, assetID string) (uint64, error) {
	records, err := src.GetOutputs(ctx, ep, publicKey, ledger.UnspentOnly)
	if err != nil {
		return 0, fmt.Errorf("list unspent outputs: %w", err)
	}

	fetch := memoFetch(ctx, src, ep)
	var total uint64
	for _, rec := range records {
		t, err := fetch(rec.TransactionID)
		if err != nil {
			return 0, err
		}
		// AssetID covers both a CREATE whose id is the asset and a TRANSFER of it.
		if t.AssetID() != assetID {
			continue
		}
		out, err := outputAt(t, rec.OutputIndex)
		if err != nil {
			return 0, err
		}
		if total > math.MaxUint64-uint64(out.Amount) {
			return 0, fmt.Errorf("balance overflow for %s", publicKey)
		}
		total += uint64(out.Amount)
	}
	return total, nil
}
