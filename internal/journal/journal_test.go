package journal

import (
	"errors"
	"testing"
	"time"

	"github.com/Klingon-tech/ipdb-go/internal/settlement"
	"github.com/Klingon-tech/ipdb-go/internal/storage"
	"github.com/Klingon-tech/ipdb-go/pkg/tx"
)

var t0 = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func event(op string, kind settlement.EventKind, at time.Duration) settlement.Event {
	return settlement.Event{OpID: op, Kind: kind, Operation: tx.OpTransfer, Time: t0.Add(at)}
}

func TestStore_RecordLifecycle(t *testing.T) {
	s := New(storage.NewMemory())

	s.Observe(event("op1", settlement.EventBuilt, 0))
	signed := event("op1", settlement.EventSigned, time.Second)
	signed.TxID, signed.AssetID = "tx1", "asset1"
	s.Observe(signed)
	s.Observe(event("op1", settlement.EventSubmitted, 2*time.Second))

	check := event("op1", settlement.EventStatusChecked, 3*time.Second)
	check.Attempt, check.StatusCode = 1, 404
	s.Observe(check)

	e, err := s.Get("op1")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if e.State != "submitted" {
		t.Errorf("state = %s, want submitted (status checks keep state)", e.State)
	}
	if e.TxID != "tx1" || e.AssetID != "asset1" || e.Attempts != 1 || e.StatusCode != 404 {
		t.Errorf("entry = %+v", e)
	}

	done := event("op1", settlement.EventConfirmed, 4*time.Second)
	done.Attempt, done.StatusCode, done.Status = 2, 200, "valid"
	s.Observe(done)

	e, _ = s.Get("op1")
	if e.State != "confirmed" || e.Attempts != 2 || e.Status != "valid" {
		t.Errorf("entry = %+v", e)
	}
	if !e.Started.Equal(t0) || !e.Updated.Equal(t0.Add(4*time.Second)) {
		t.Errorf("started %v updated %v", e.Started, e.Updated)
	}
}

func TestStore_RecordError(t *testing.T) {
	s := New(storage.NewMemory())
	ev := event("op1", settlement.EventRejected, 0)
	ev.Err = errors.New("submission rejected: http 400")
	if err := s.Record(ev); err != nil {
		t.Fatalf("Record() error: %v", err)
	}
	e, _ := s.Get("op1")
	if e.State != "rejected" || e.Error != "submission rejected: http 400" {
		t.Errorf("entry = %+v", e)
	}

	if err := s.Record(settlement.Event{}); err == nil {
		t.Error("Record() without op id should fail")
	}
}

func TestStore_ListNewestFirst(t *testing.T) {
	s := New(storage.NewMemory())
	s.Observe(event("a", settlement.EventBuilt, 0))
	s.Observe(event("b", settlement.EventBuilt, time.Minute))
	s.Observe(event("c", settlement.EventBuilt, 2*time.Minute))
	s.Observe(event("a", settlement.EventConfirmed, 3*time.Minute))

	all, err := s.List(0)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(all) != 3 || all[0].OpID != "c" || all[1].OpID != "b" || all[2].OpID != "a" {
		t.Fatalf("List() order = %v", ids(all))
	}
	if all[2].State != "confirmed" {
		t.Errorf("a state = %s, want confirmed", all[2].State)
	}

	two, _ := s.List(2)
	if len(two) != 2 || two[0].OpID != "c" {
		t.Errorf("List(2) = %v", ids(two))
	}
}

func TestStore_FindByTxAndClear(t *testing.T) {
	inner := storage.NewMemory()
	inner.Put([]byte("unrelated"), []byte("x"))
	s := New(inner)

	ev := event("op1", settlement.EventSigned, 0)
	ev.TxID = "tx1"
	s.Observe(ev)

	e, err := s.FindByTx("tx1")
	if err != nil || e.OpID != "op1" {
		t.Fatalf("FindByTx() = %+v, %v", e, err)
	}
	if _, err := s.FindByTx("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("FindByTx(nope) error = %v, want ErrNotFound", err)
	}

	if err := s.Clear(); err != nil {
		t.Fatalf("Clear() error: %v", err)
	}
	if all, _ := s.List(0); len(all) != 0 {
		t.Errorf("List() after Clear = %v", ids(all))
	}
	if ok, _ := inner.Has([]byte("unrelated")); !ok {
		t.Error("Clear() removed a key outside the journal")
	}
}

func TestStore_Badger(t *testing.T) {
	db, err := storage.NewBadger(t.TempDir())
	if err != nil {
		t.Fatalf("NewBadger() error: %v", err)
	}
	defer db.Close()

	s := New(db)
	s.Observe(event("op1", settlement.EventBuilt, 0))
	s.Observe(event("op1", settlement.EventUnknown, time.Second))

	all, err := s.List(0)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(all) != 1 || all[0].State != "unknown" {
		t.Errorf("List() = %+v", all)
	}
}

// failingDB hands out batches whose second Put fails.
type failingDB struct {
	*storage.MemoryDB
	batches []*failingBatch
}

func (f *failingDB) NewBatch() storage.Batch {
	b := &failingBatch{inner: f.MemoryDB.NewBatch()}
	f.batches = append(f.batches, b)
	return b
}

type failingBatch struct {
	inner     storage.Batch
	puts      int
	discarded bool
}

func (b *failingBatch) Put(key, value []byte) error {
	b.puts++
	if b.puts > 1 {
		return errors.New("disk full")
	}
	return b.inner.Put(key, value)
}

func (b *failingBatch) Delete(key []byte) error { return b.inner.Delete(key) }
func (b *failingBatch) Commit() error           { return b.inner.Commit() }

func (b *failingBatch) Discard() {
	b.discarded = true
	b.inner.Discard()
}

func TestStore_RecordFailedBatchIsDiscarded(t *testing.T) {
	db := &failingDB{MemoryDB: storage.NewMemory()}
	s := New(db)

	if err := s.Record(event("op1", settlement.EventBuilt, 0)); err == nil {
		t.Fatal("Record() should fail when the index write fails")
	}
	if len(db.batches) != 1 || !db.batches[0].discarded {
		t.Fatalf("batch not discarded: %+v", db.batches)
	}
	if _, err := s.Get("op1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound (nothing committed)", err)
	}
}

func TestStore_ObservesEngine(t *testing.T) {
	var _ settlement.Observer = (*Store)(nil)
}

func ids(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.OpID
	}
	return out
}
