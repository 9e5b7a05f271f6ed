package tx

import (
	"encoding/json"
	"testing"
)

// FuzzTxUnmarshal tests that arbitrary JSON input does not panic
// when unmarshaled into a Transaction struct.
func FuzzTxUnmarshal(f *testing.F) {
	f.Add([]byte(`{"id":null,"version":"2.0","operation":"CREATE","inputs":[{"owners_before":["pk"],"fulfills":null,"fulfillment":null}],"outputs":[{"public_keys":["pk"],"condition":{"details":{"type":"ed25519-sha-256","public_key":"pk"},"uri":"ni:///"},"amount":"1"}],"asset":{"data":null},"metadata":null}`))
	f.Add([]byte(`{}`))
	f.Add([]byte(`null`))
	f.Add([]byte(`{"inputs":null,"outputs":null}`))
	f.Add([]byte(`{"inputs":[{"fulfills":{"transaction_id":"","output_index":-1},"fulfillment":"x"}],"outputs":[{"amount":0}]}`))

	f.Fuzz(func(t *testing.T, data []byte) {
		var tx Transaction
		if err := json.Unmarshal(data, &tx); err != nil {
			return
		}
		// If unmarshal succeeded, these must not panic.
		tx.ComputeID()
		tx.SigningBytes()
		tx.Validate()
		tx.VerifySignatures() // May fail but must not panic.
		NewBuilder(nil).SpendReferences(&tx, nil)
	})
}
