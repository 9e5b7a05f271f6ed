// Package settlement drives CREATE and TRANSFER operations end to end:
// build, sign, submit, then poll the ledger until the transaction is valid
// or the poll budget is spent.
package settlement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Klingon-tech/ipdb-go/internal/ledger"
	"github.com/Klingon-tech/ipdb-go/internal/signer"
	"github.com/Klingon-tech/ipdb-go/internal/wallet"
	"github.com/Klingon-tech/ipdb-go/pkg/tx"
)

// Ledger is the part of the ledger API the engine uses.
// *ledger.Client satisfies it.
type Ledger interface {
	wallet.Source
	PostTransaction(ctx context.Context, ep ledger.Endpoint, t *tx.Transaction) (*tx.Transaction, error)
	GetStatus(ctx context.Context, ep ledger.Endpoint, id string) (*ledger.Status, error)
}

// Engine runs settlement operations. It holds no per-call state and the
// endpoint is supplied with every call.
type Engine struct {
	ledger   Ledger
	signer   signer.Signer
	builder  *tx.Builder
	poll     PollPolicy
	observer Observer
	now      func() time.Time
}

// New creates an engine with the default poll policy and no observer.
func New(l Ledger, s signer.Signer) *Engine {
	return &Engine{
		ledger:  l,
		signer:  s,
		builder: tx.NewBuilder(s),
		poll:    DefaultPollPolicy(),
		now:     time.Now,
	}
}

// SetPollPolicy replaces the confirmation poll policy.
func (e *Engine) SetPollPolicy(p PollPolicy) {
	e.poll = p.normalize()
}

// SetObserver attaches an observer. Nil detaches.
func (e *Engine) SetObserver(o Observer) {
	e.observer = o
}

// SetClock replaces the time source used for event times and default metadata.
func (e *Engine) SetClock(now func() time.Time) {
	if now != nil {
		e.now = now
	}
}

// CreateRequest describes an asset to mint.
type CreateRequest struct {
	IssuerPublicKey  string
	IssuerPrivateKey string
	AssetData        json.RawMessage
	Amount           int64
	Metadata         json.RawMessage
}

// ConfirmedCreate is a committed CREATE.
type ConfirmedCreate struct {
	OpID        string
	Transaction *tx.Transaction
	AssetID     string
	Attempts    int
}

// Recipient is one receiver of a transfer.
type Recipient struct {
	PublicKey string `json:"public_key" yaml:"public_key"`
	Amount    int64  `json:"amount" yaml:"amount"`
}

// TransferRequest describes a transfer of an asset to one or more recipients.
// With Inputs set, those transactions fund the transfer and the ledger's
// output index is not consulted.
type TransferRequest struct {
	Recipients       []Recipient
	SenderPublicKey  string
	SenderPrivateKey string
	Inputs           []*tx.Transaction
	AssetID          string
	Metadata         json.RawMessage
}

// ConfirmedTransfer is a committed TRANSFER.
type ConfirmedTransfer struct {
	OpID          string
	Transaction   *tx.Transaction
	ResolvedTotal uint64
	Outgoing      uint64
	Change        uint64
	Attempts      int
}

// CreateAsset mints Amount units of a new asset owned by the issuer and
// waits for the ledger to confirm it.
func (e *Engine) CreateAsset(ctx context.Context, ep ledger.Endpoint, req CreateRequest) (*ConfirmedCreate, error) {
	out, err := e.builder.Output(req.IssuerPublicKey, req.Amount)
	if err != nil {
		return nil, err
	}

	op := e.newOp(tx.OpCreate)
	unsigned := e.builder.Create(req.IssuerPublicKey, out, req.AssetData, req.Metadata)
	op.emit(Event{Kind: EventBuilt})

	signed, attempts, err := e.settle(ctx, ep, op, unsigned, req.IssuerPrivateKey)
	if err != nil {
		return nil, err
	}
	return &ConfirmedCreate{
		OpID:        op.id,
		Transaction: signed,
		AssetID:     signed.ID,
		Attempts:    attempts,
	}, nil
}

// TransferAsset moves units of AssetID from the sender to the recipients,
// returning any surplus of the resolved inputs to the sender as change.
// Recipient amounts are checked before the ledger is contacted.
func (e *Engine) TransferAsset(ctx context.Context, ep ledger.Endpoint, req TransferRequest) (*ConfirmedTransfer, error) {
	if len(req.Recipients) == 0 {
		return nil, ErrNoRecipients
	}
	outgoing, err := sumRecipients(req.Recipients)
	if err != nil {
		return nil, err
	}

	res, err := wallet.ResolveInputs(ctx, e.ledger, ep, e.signer, req.SenderPublicKey, req.AssetID, req.Inputs)
	if err != nil {
		return nil, err
	}
	if outgoing > res.Total {
		return nil, &wallet.InsufficientFundsError{Have: res.Total, Need: outgoing}
	}

	outputs := make([]tx.Output, 0, len(req.Recipients)+1)
	for _, r := range req.Recipients {
		out, err := e.builder.Output(r.PublicKey, r.Amount)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, out)
	}
	change := res.Total - outgoing
	if change > 0 {
		out, err := e.signer.BuildCondition(req.SenderPublicKey, change)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, out)
	}

	metadata := req.Metadata
	if metadata == nil {
		metadata = e.defaultMetadata()
	}

	op := e.newOp(tx.OpTransfer)
	op.assetID = req.AssetID
	unsigned := e.builder.Transfer(res.Inputs, outputs, req.AssetID, metadata)
	op.emit(Event{Kind: EventBuilt})

	signed, attempts, err := e.settle(ctx, ep, op, unsigned, req.SenderPrivateKey)
	if err != nil {
		return nil, err
	}
	return &ConfirmedTransfer{
		OpID:          op.id,
		Transaction:   signed,
		ResolvedTotal: res.Total,
		Outgoing:      outgoing,
		Change:        change,
		Attempts:      attempts,
	}, nil
}

// Balance returns the unspent amount of assetID owned by publicKey.
func (e *Engine) Balance(ctx context.Context, ep ledger.Endpoint, publicKey, assetID string) (uint64, error) {
	return wallet.Balance(ctx, e.ledger, ep, publicKey, assetID)
}

// sumRecipients validates every amount and returns their total.
func sumRecipients(recipients []Recipient) (uint64, error) {
	var total uint64
	for _, r := range recipients {
		if r.Amount <= 0 {
			return 0, &tx.AmountError{Owner: r.PublicKey, Amount: r.Amount}
		}
		if total+uint64(r.Amount) < total {
			return 0, fmt.Errorf("%w: recipient amounts overflow", tx.ErrInvalidAmount)
		}
		total += uint64(r.Amount)
	}
	return total, nil
}

func (e *Engine) defaultMetadata() json.RawMessage {
	data, _ := json.Marshal(map[string]string{"ts": e.now().UTC().Format(time.RFC3339)})
	return data
}

// settle checks, signs, submits and confirms t, returning the signed
// transaction and the number of status checks made. A structurally invalid
// transaction never reaches the signer or the ledger.
func (e *Engine) settle(ctx context.Context, ep ledger.Endpoint, op *operation, t *tx.Transaction, privateKey string) (*tx.Transaction, int, error) {
	if err := t.Validate(); err != nil {
		err = fmt.Errorf("%w: %w", ErrInvalidTransaction, err)
		op.emit(Event{Kind: EventRejected, Err: err})
		return nil, 0, err
	}

	signed, err := e.signer.Sign(t, privateKey)
	if err != nil {
		if !errors.Is(err, signer.ErrSignerFailure) {
			err = fmt.Errorf("%w: %v", signer.ErrSignerFailure, err)
		}
		return nil, 0, err
	}
	if signed == nil || signed.ID == "" {
		return nil, 0, fmt.Errorf("%w: signed transaction has no id", signer.ErrSignerFailure)
	}
	if err := signed.VerifySignatures(); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", signer.ErrSignerFailure, err)
	}
	op.txID = signed.ID
	if op.assetID == "" {
		op.assetID = signed.AssetID()
	}
	op.emit(Event{Kind: EventSigned})

	if _, err := e.ledger.PostTransaction(ctx, ep, signed); err != nil {
		var httpErr *ledger.HTTPError
		if errors.As(err, &httpErr) {
			rej := &RejectedError{TxID: signed.ID, StatusCode: httpErr.StatusCode, Body: httpErr.Body}
			op.emit(Event{Kind: EventRejected, StatusCode: rej.StatusCode, Body: rej.Body, Err: rej})
			return nil, 0, rej
		}
		op.emit(Event{Kind: EventUnknown, Err: err})
		return nil, 0, fmt.Errorf("post transaction %s: %w", signed.ID, err)
	}
	op.emit(Event{Kind: EventSubmitted})

	attempts, err := e.confirm(ctx, ep, op)
	if err != nil {
		return nil, attempts, err
	}
	return signed, attempts, nil
}

// operation carries the identity of one settlement call into its events.
type operation struct {
	id        string
	operation tx.Operation
	txID      string
	assetID   string
	engine    *Engine
}

func (e *Engine) newOp(kind tx.Operation) *operation {
	return &operation{id: uuid.NewString(), operation: kind, engine: e}
}

func (op *operation) emit(ev Event) {
	if op.engine.observer == nil {
		return
	}
	ev.OpID = op.id
	ev.Operation = op.operation
	ev.TxID = op.txID
	ev.AssetID = op.assetID
	ev.Time = op.engine.now()
	op.engine.observer.Observe(ev)
}
