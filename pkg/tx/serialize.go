package tx

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/Klingon-tech/ipdb-go/pkg/crypto"
)

// Canonical returns the canonical encoding of v: JSON with object keys
// sorted, no insignificant whitespace and no HTML escaping.
func Canonical(v interface{}) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic interface{}
	if err := dec.Decode(&generic); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(generic); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// SigningBytes returns the canonical encoding signed by every input:
// the transaction with a null id and all fulfillments removed.
func (t *Transaction) SigningBytes() ([]byte, error) {
	c := t.Clone()
	c.ID = ""
	for i := range c.Inputs {
		c.Inputs[i].Fulfillment = nil
	}
	return Canonical(c)
}

// InputMessage returns the 32-byte digest signed for input i.
// Inputs that spend a prior output bind its transaction id and index.
func (t *Transaction) InputMessage(signingBytes []byte, i int) [crypto.HashSize]byte {
	in := t.Inputs[i]
	if in.Fulfills == nil {
		return crypto.Hash(signingBytes)
	}
	return crypto.HashParts(signingBytes,
		[]byte(in.Fulfills.TransactionID),
		[]byte(strconv.Itoa(in.Fulfills.OutputIndex)))
}

// ComputeID returns the content id: SHA3-256 of the canonical transaction
// with a null id.
func (t *Transaction) ComputeID() (string, error) {
	c := t.Clone()
	c.ID = ""
	b, err := Canonical(c)
	if err != nil {
		return "", err
	}
	return crypto.HashHex(b), nil
}
