// Package tx defines ledger transaction types, their canonical encoding,
// and the builder used to assemble CREATE and TRANSFER payloads.
package tx

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Version is the transaction model version emitted by the builder.
const Version = "2.0"

// Operation is the transaction kind.
type Operation string

const (
	OpCreate   Operation = "CREATE"
	OpTransfer Operation = "TRANSFER"
)

// Transaction is a ledger transaction. ID is empty until the transaction
// is signed.
type Transaction struct {
	ID        string          `json:"id"`
	Version   string          `json:"version"`
	Operation Operation       `json:"operation"`
	Inputs    []Input         `json:"inputs"`
	Outputs   []Output        `json:"outputs"`
	Asset     Asset           `json:"asset"`
	Metadata  json.RawMessage `json:"metadata"`
}

// transactionJSON mirrors Transaction but encodes an empty id as null.
type transactionJSON struct {
	ID        *string         `json:"id"`
	Version   string          `json:"version"`
	Operation Operation       `json:"operation"`
	Inputs    []Input         `json:"inputs"`
	Outputs   []Output        `json:"outputs"`
	Asset     Asset           `json:"asset"`
	Metadata  json.RawMessage `json:"metadata"`
}

// MarshalJSON encodes the transaction with null id/metadata when unset and
// empty (never null) input/output arrays.
func (t Transaction) MarshalJSON() ([]byte, error) {
	j := transactionJSON{
		Version:   t.Version,
		Operation: t.Operation,
		Inputs:    t.Inputs,
		Outputs:   t.Outputs,
		Asset:     t.Asset,
		Metadata:  t.Metadata,
	}
	if t.ID != "" {
		id := t.ID
		j.ID = &id
	}
	if j.Inputs == nil {
		j.Inputs = []Input{}
	}
	if j.Outputs == nil {
		j.Outputs = []Output{}
	}
	if len(j.Metadata) == 0 {
		j.Metadata = nil
	}
	return json.Marshal(j)
}

// UnmarshalJSON decodes a transaction; a null id becomes "".
func (t *Transaction) UnmarshalJSON(data []byte) error {
	var j transactionJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	*t = Transaction{
		Version:   j.Version,
		Operation: j.Operation,
		Inputs:    j.Inputs,
		Outputs:   j.Outputs,
		Asset:     j.Asset,
		Metadata:  j.Metadata,
	}
	if j.ID != nil {
		t.ID = *j.ID
	}
	if string(t.Metadata) == "null" {
		t.Metadata = nil
	}
	return nil
}

// AssetID returns the id of the asset this transaction moves: its own id
// for CREATE, the referenced asset id for TRANSFER.
func (t *Transaction) AssetID() string {
	if t.Operation == OpCreate {
		return t.ID
	}
	return t.Asset.ID
}

// TotalOutputValue returns the sum of all output amounts.
// Returns an error if the sum overflows uint64.
func (t *Transaction) TotalOutputValue() (uint64, error) {
	var total uint64
	for _, out := range t.Outputs {
		if total > math.MaxUint64-uint64(out.Amount) {
			return 0, fmt.Errorf("output amount overflow")
		}
		total += uint64(out.Amount)
	}
	return total, nil
}

// Clone returns a deep copy of the transaction.
func (t *Transaction) Clone() *Transaction {
	c := *t
	if t.Inputs != nil {
		c.Inputs = make([]Input, len(t.Inputs))
		for i, in := range t.Inputs {
			c.Inputs[i] = in.clone()
		}
	}
	if t.Outputs != nil {
		c.Outputs = make([]Output, len(t.Outputs))
		for i, out := range t.Outputs {
			c.Outputs[i] = out.clone()
		}
	}
	c.Asset.Data = cloneRaw(t.Asset.Data)
	c.Metadata = cloneRaw(t.Metadata)
	return &c
}

// OutputRef points at one output of a prior transaction.
type OutputRef struct {
	TransactionID string `json:"transaction_id"`
	OutputIndex   int    `json:"output_index"`
}

// String formats the reference as txid:index.
func (r OutputRef) String() string {
	return r.TransactionID + ":" + strconv.Itoa(r.OutputIndex)
}

// Input spends a prior output (TRANSFER) or names the issuer (CREATE).
// Fulfillment is nil until the transaction is signed.
type Input struct {
	OwnersBefore []string   `json:"owners_before"`
	Fulfills     *OutputRef `json:"fulfills"`
	Fulfillment  *string    `json:"fulfillment"`
}

// UnmarshalJSON accepts a fulfillment that is null, a serialized string, or
// an unsigned details object (treated as unsigned).
func (in *Input) UnmarshalJSON(data []byte) error {
	var j struct {
		OwnersBefore []string        `json:"owners_before"`
		Fulfills     *OutputRef      `json:"fulfills"`
		Fulfillment  json.RawMessage `json:"fulfillment"`
	}
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	in.OwnersBefore = j.OwnersBefore
	in.Fulfills = j.Fulfills
	in.Fulfillment = nil
	if len(j.Fulfillment) > 0 && j.Fulfillment[0] == '"' {
		var s string
		if err := json.Unmarshal(j.Fulfillment, &s); err != nil {
			return err
		}
		in.Fulfillment = &s
	}
	return nil
}

// IsSigned reports whether the input carries a fulfillment.
func (in Input) IsSigned() bool {
	return in.Fulfillment != nil && *in.Fulfillment != ""
}

func (in Input) clone() Input {
	c := Input{OwnersBefore: append([]string(nil), in.OwnersBefore...)}
	if in.Fulfills != nil {
		f := *in.Fulfills
		c.Fulfills = &f
	}
	if in.Fulfillment != nil {
		f := *in.Fulfillment
		c.Fulfillment = &f
	}
	return c
}

// Output is a spendable amount locked by a condition.
type Output struct {
	PublicKeys []string  `json:"public_keys"`
	Condition  Condition `json:"condition"`
	Amount     Amount    `json:"amount"`
}

// SpendableBy reports whether publicKey alone satisfies the output's
// condition (a single ed25519 condition on that key).
func (o Output) SpendableBy(publicKey string) bool {
	return o.Condition.Details.IsEd25519(publicKey)
}

func (o Output) clone() Output {
	c := o
	c.PublicKeys = append([]string(nil), o.PublicKeys...)
	c.Condition.Details = o.Condition.Details.clone()
	return c
}

// Amount is an output amount. It is encoded as a decimal string and
// decoded from either a string or a JSON number.
type Amount uint64

// MarshalJSON encodes the amount as a decimal string.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.FormatUint(uint64(a), 10))
}

// UnmarshalJSON decodes a decimal string or number.
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid amount %s: %w", data, err)
	}
	*a = Amount(v)
	return nil
}

// Asset identifies the asset a transaction moves. CREATE transactions carry
// Data; TRANSFER transactions carry ID.
type Asset struct {
	ID   string          `json:"id,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

// MarshalJSON emits {"id": ...} for a reference and {"data": ...} otherwise.
func (a Asset) MarshalJSON() ([]byte, error) {
	if a.ID != "" {
		return json.Marshal(struct {
			ID string `json:"id"`
		}{a.ID})
	}
	data := a.Data
	if len(data) == 0 {
		data = json.RawMessage("null")
	}
	return json.Marshal(struct {
		Data json.RawMessage `json:"data"`
	}{data})
}

func cloneRaw(r json.RawMessage) json.RawMessage {
	if r == nil {
		return nil
	}
	return append(json.RawMessage(nil), r...)
}
