package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	klog "github.com/Klingon-tech/ipdb-go/internal/log"
	"github.com/Klingon-tech/ipdb-go/pkg/tx"
)

// StatusValid is the status reported for a committed transaction.
const StatusValid = "valid"

// SpentFilter selects which outputs GetOutputs returns.
type SpentFilter int

const (
	SpentAny    SpentFilter = iota // no filter
	SpentOnly                      // spent=true
	UnspentOnly                    // spent=false
)

// OutputRecord is one entry of the ledger's output index.
type OutputRecord struct {
	tx.OutputRef
	PublicKey string `json:"-"`
}

// Status is one observation of a transaction's status. Code and Body are
// kept for every response; Status is set only for a decodable 200.
type Status struct {
	Code   int
	Body   string
	Status string
}

// Valid reports whether the observation confirms the transaction.
func (s *Status) Valid() bool {
	return s.Code == http.StatusOK && s.Status == StatusValid
}

// AssetRecord is an asset descriptor returned by asset search.
type AssetRecord struct {
	ID   string          `json:"id"`
	Data json.RawMessage `json:"data"`
}

// PostTransaction submits a signed transaction. Only 202 Accepted is a
// success; any other status is returned as *HTTPError carrying the body.
// An accepted answer whose body does not decode yields t itself.
func (c *Client) PostTransaction(ctx context.Context, ep Endpoint, t *tx.Transaction) (*tx.Transaction, error) {
	payload, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("encode transaction: %w", err)
	}
	resp, err := c.do(ctx, ep, http.MethodPost, "/transactions/", nil, payload)
	if err != nil {
		return nil, err
	}
	if resp.code != http.StatusAccepted {
		return nil, &HTTPError{Op: "post transaction", StatusCode: resp.code, Body: string(resp.body)}
	}

	// The submission is accepted whatever the body looks like.
	var accepted tx.Transaction
	if err := json.Unmarshal(resp.body, &accepted); err != nil {
		klog.Ledger.Warn().
			Str("tx", t.ID).
			Err(err).
			Msg("Accepted transaction echo could not be decoded")
		return t, nil
	}
	if accepted.ID == "" {
		accepted.ID = t.ID
	}
	return &accepted, nil
}

// GetTransaction fetches a transaction by id.
func (c *Client) GetTransaction(ctx context.Context, ep Endpoint, id string) (*tx.Transaction, error) {
	var t tx.Transaction
	if err := c.get(ctx, ep, "get transaction "+id, "/transactions/"+url.PathEscape(id), nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// GetTransactionsByAsset lists every transaction of an asset.
func (c *Client) GetTransactionsByAsset(ctx context.Context, ep Endpoint, assetID string) ([]tx.Transaction, error) {
	var txs []tx.Transaction
	q := url.Values{"asset_id": {assetID}}
	if err := c.get(ctx, ep, "get transactions by asset", "/transactions", q, &txs); err != nil {
		return nil, err
	}
	return txs, nil
}

// GetOutputs lists outputs owned by publicKey.
func (c *Client) GetOutputs(ctx context.Context, ep Endpoint, publicKey string, spent SpentFilter) ([]OutputRecord, error) {
	q := url.Values{"public_key": {publicKey}}
	switch spent {
	case SpentOnly:
		q.Set("spent", strconv.FormatBool(true))
	case UnspentOnly:
		q.Set("spent", strconv.FormatBool(false))
	}

	var records []OutputRecord
	if err := c.get(ctx, ep, "get outputs", "/outputs", q, &records); err != nil {
		return nil, err
	}
	for i := range records {
		records[i].PublicKey = publicKey
	}
	return records, nil
}

// GetStatus checks a transaction's status. A non-200 answer is returned
// as an observation, not an error; only network and decode failures are.
func (c *Client) GetStatus(ctx context.Context, ep Endpoint, id string) (*Status, error) {
	resp, err := c.do(ctx, ep, http.MethodGet, "/statuses", url.Values{"transaction_id": {id}}, nil)
	if err != nil {
		return nil, err
	}
	st := &Status{Code: resp.code, Body: string(resp.body)}
	if resp.code != http.StatusOK {
		return st, nil
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(resp.body, &body); err != nil {
		return nil, fmt.Errorf("%w: get status: decode response: %v", ErrTransport, err)
	}
	st.Status = body.Status
	return st, nil
}

// SearchAssets runs a text search over asset data.
func (c *Client) SearchAssets(ctx context.Context, ep Endpoint, query string, limit int) ([]AssetRecord, error) {
	q := url.Values{"search": {query}}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var assets []AssetRecord
	if err := c.get(ctx, ep, "search assets", "/assets", q, &assets); err != nil {
		return nil, err
	}
	return assets, nil
}
