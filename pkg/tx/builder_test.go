package tx

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestBuilder_Output_InvalidAmount(t *testing.T) {
	key := mustKey(t)
	b := NewBuilder(nil)
	for _, amt := range []int64{0, -1, -100} {
		if _, err := b.Output(key.PublicKeyBase58(), amt); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("Output(%d) error = %v, want ErrInvalidAmount", amt, err)
		}
	}
}

func TestBuilder_Output_InvalidOwner(t *testing.T) {
	if _, err := NewBuilder(nil).Output("not-a-key", 1); err == nil {
		t.Fatal("expected error for malformed owner key")
	}
}

func TestBuilder_Output(t *testing.T) {
	key := mustKey(t)
	out := mustOutput(t, key.PublicKeyBase58(), 7)

	if out.Amount != 7 {
		t.Errorf("amount = %d, want 7", out.Amount)
	}
	if len(out.PublicKeys) != 1 || out.PublicKeys[0] != key.PublicKeyBase58() {
		t.Errorf("public_keys = %v", out.PublicKeys)
	}
	if !out.SpendableBy(key.PublicKeyBase58()) {
		t.Error("output should be spendable by its owner")
	}
	if out.Condition.URI == "" {
		t.Error("condition uri is empty")
	}
}

func TestBuilder_Create(t *testing.T) {
	key := mustKey(t)
	pub := key.PublicKeyBase58()
	create := NewBuilder(nil).Create(pub, mustOutput(t, pub, 100), json.RawMessage(`{"symbol":"MC"}`), json.RawMessage(`{"msg":"hi"}`))

	if create.Operation != OpCreate {
		t.Errorf("operation = %s, want CREATE", create.Operation)
	}
	if len(create.Inputs) != 1 || create.Inputs[0].Fulfills != nil {
		t.Errorf("create inputs = %+v, want one issuer input", create.Inputs)
	}
	if create.Inputs[0].OwnersBefore[0] != pub {
		t.Errorf("owners_before = %v, want [%s]", create.Inputs[0].OwnersBefore, pub)
	}
	if create.ID != "" {
		t.Error("unsigned create should have no id")
	}
	if err := create.Validate(); err != nil {
		t.Errorf("Validate() error: %v", err)
	}
}

func TestBuilder_Transfer(t *testing.T) {
	key := mustKey(t)
	pub := key.PublicKeyBase58()
	in := []Input{{OwnersBefore: []string{pub}, Fulfills: &OutputRef{TransactionID: "c1", OutputIndex: 0}}}
	transfer := NewBuilder(nil).Transfer(in, []Output{mustOutput(t, pub, 3)}, "c1", nil)

	if transfer.Operation != OpTransfer {
		t.Errorf("operation = %s, want TRANSFER", transfer.Operation)
	}
	if transfer.Asset.ID != "c1" || transfer.Asset.Data != nil {
		t.Errorf("asset = %+v, want id-only reference", transfer.Asset)
	}
	if err := transfer.Validate(); err != nil {
		t.Errorf("Validate() error: %v", err)
	}
}

func signedCreate(t *testing.T, outputs ...Output) *Transaction {
	t.Helper()
	key := mustKey(t)
	create := NewBuilder(nil).Create(key.PublicKeyBase58(), outputs[0], nil, nil)
	create.Outputs = outputs
	signed, err := Sign(create, key)
	if err != nil {
		t.Fatalf("Sign() error: %v", err)
	}
	return signed
}

func TestBuilder_SpendReferences_EmptyMeansAll(t *testing.T) {
	a, b := mustKey(t).PublicKeyBase58(), mustKey(t).PublicKeyBase58()
	src := signedCreate(t, mustOutput(t, a, 5), mustOutput(t, b, 10), mustOutput(t, a, 1))

	for _, indices := range [][]int{nil, {}} {
		refs, err := NewBuilder(nil).SpendReferences(src, indices)
		if err != nil {
			t.Fatalf("SpendReferences(%v) error: %v", indices, err)
		}
		if len(refs) != 3 {
			t.Fatalf("SpendReferences(%v) = %d refs, want 3", indices, len(refs))
		}
		for i, ref := range refs {
			if ref.Fulfills.TransactionID != src.ID || ref.Fulfills.OutputIndex != i {
				t.Errorf("ref %d fulfills = %s, want %s:%d", i, ref.Fulfills, src.ID, i)
			}
			if ref.IsSigned() {
				t.Errorf("ref %d should be unsigned", i)
			}
		}
	}
}

func TestBuilder_SpendReferences_Subset(t *testing.T) {
	a, b := mustKey(t).PublicKeyBase58(), mustKey(t).PublicKeyBase58()
	src := signedCreate(t, mustOutput(t, a, 5), mustOutput(t, b, 10))

	refs, err := NewBuilder(nil).SpendReferences(src, []int{1})
	if err != nil {
		t.Fatalf("SpendReferences error: %v", err)
	}
	if len(refs) != 1 || refs[0].Fulfills.OutputIndex != 1 {
		t.Fatalf("refs = %+v, want only index 1", refs)
	}
	if refs[0].OwnersBefore[0] != b {
		t.Errorf("owners_before = %v, want [%s]", refs[0].OwnersBefore, b)
	}
}

func TestBuilder_SpendReferences_OutOfRange(t *testing.T) {
	src := signedCreate(t, mustOutput(t, mustKey(t).PublicKeyBase58(), 5))
	if _, err := NewBuilder(nil).SpendReferences(src, []int{1}); err == nil {
		t.Fatal("expected out of range error")
	}
}

func TestBuilder_SpendReferences_Unsigned(t *testing.T) {
	pub := mustKey(t).PublicKeyBase58()
	create := NewBuilder(nil).Create(pub, mustOutput(t, pub, 5), nil, nil)
	if _, err := NewBuilder(nil).SpendReferences(create, nil); err == nil {
		t.Fatal("expected error spending a transaction without id")
	}
}

type recordingConditions struct {
	Ed25519Conditions
	gotIndices []int
}

func (r *recordingConditions) SpendReferences(t *Transaction, idx []int) ([]Input, error) {
	r.gotIndices = idx
	return r.Ed25519Conditions.SpendReferences(t, idx)
}

func TestBuilder_SpendReferences_DelegatesExplicitList(t *testing.T) {
	pub := mustKey(t).PublicKeyBase58()
	src := signedCreate(t, mustOutput(t, pub, 1), mustOutput(t, pub, 2))

	rec := &recordingConditions{}
	if _, err := NewBuilder(rec).SpendReferences(src, nil); err != nil {
		t.Fatalf("SpendReferences error: %v", err)
	}
	if len(rec.gotIndices) != 2 || rec.gotIndices[0] != 0 || rec.gotIndices[1] != 1 {
		t.Errorf("condition layer got %v, want [0 1]", rec.gotIndices)
	}
}
