package storage

import (
	"errors"
	"testing"
)

func TestPrefixDB_Isolation(t *testing.T) {
	inner := NewMemory()
	a := NewPrefixDB(inner, []byte("a/"))
	b := NewPrefixDB(inner, []byte("b/"))

	a.Put([]byte("k"), []byte("from-a"))
	b.Put([]byte("k"), []byte("from-b"))

	if v, _ := a.Get([]byte("k")); string(v) != "from-a" {
		t.Errorf("a.Get() = %q, want from-a", v)
	}
	if v, _ := inner.Get([]byte("b/k")); string(v) != "from-b" {
		t.Errorf("inner b/k = %q, want from-b", v)
	}
	if _, err := a.Get([]byte("missing")); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}

	a.Delete([]byte("k"))
	if ok, _ := b.Has([]byte("k")); !ok {
		t.Error("deleting in a removed b's key")
	}
}

func TestPrefixDB_ForEachStripsPrefix(t *testing.T) {
	inner := NewMemory()
	p := NewPrefixDB(inner, []byte("ns/"))
	p.Put([]byte("x/1"), []byte("1"))
	p.Put([]byte("x/2"), []byte("2"))
	p.Put([]byte("y/1"), []byte("3"))
	inner.Put([]byte("x/9"), []byte("outside"))

	var keys []string
	p.ForEach([]byte("x/"), func(key, _ []byte) error {
		keys = append(keys, string(key))
		return nil
	})
	if len(keys) != 2 || keys[0] != "x/1" || keys[1] != "x/2" {
		t.Errorf("keys = %v, want [x/1 x/2]", keys)
	}
}

func TestPrefixDB_DeleteAll(t *testing.T) {
	inner := NewMemory()
	p := NewPrefixDB(inner, []byte("ns/"))
	p.Put([]byte("a"), []byte("1"))
	p.Put([]byte("b"), []byte("2"))
	inner.Put([]byte("keep"), []byte("3"))

	if err := p.DeleteAll(); err != nil {
		t.Fatalf("DeleteAll() error: %v", err)
	}
	n := 0
	inner.ForEach(nil, func(_, _ []byte) error { n++; return nil })
	if n != 1 {
		t.Errorf("inner has %d keys after DeleteAll, want 1", n)
	}
}

// plainDB hides MemoryDB's Batcher implementation.
type plainDB struct{ DB }

func TestPrefixDB_BatchWithoutBatcher(t *testing.T) {
	inner := NewMemory()
	p := NewPrefixDB(plainDB{inner}, []byte("ns/"))

	b := p.NewBatch()
	if _, ok := b.(*sequentialBatch); !ok {
		t.Fatalf("NewBatch() = %T, want *sequentialBatch", b)
	}
	b.Put([]byte("k"), []byte("v"))
	if err := b.Commit(); err != nil {
		t.Fatalf("Commit() error: %v", err)
	}
	if v, _ := inner.Get([]byte("ns/k")); string(v) != "v" {
		t.Errorf("ns/k = %q, want v", v)
	}
}

func TestPrefixDB_BatchAtomic(t *testing.T) {
	inner := NewMemory()
	p := NewPrefixDB(inner, []byte("ns/"))

	b := p.NewBatch()
	if _, ok := b.(*prefixBatch); !ok {
		t.Fatalf("NewBatch() = %T, want *prefixBatch", b)
	}
	b.Put([]byte("k"), []byte("v"))
	if ok, _ := inner.Has([]byte("ns/k")); ok {
		t.Error("write visible before Commit()")
	}
	b.Commit()
	if ok, _ := inner.Has([]byte("ns/k")); !ok {
		t.Error("write missing after Commit()")
	}
}
