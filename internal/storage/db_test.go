package storage

import (
	"bytes"
	"errors"
	"testing"
)

// testDB runs the shared suite against a DB implementation.
func testDB(t *testing.T, db DB) {
	t.Helper()

	t.Run("PutAndGet", func(t *testing.T) {
		if err := db.Put([]byte("key1"), []byte("value1")); err != nil {
			t.Fatalf("Put() error: %v", err)
		}
		val, err := db.Get([]byte("key1"))
		if err != nil {
			t.Fatalf("Get() error: %v", err)
		}
		if !bytes.Equal(val, []byte("value1")) {
			t.Errorf("Get() = %q, want %q", val, "value1")
		}
	})

	t.Run("GetNonexistent", func(t *testing.T) {
		if _, err := db.Get([]byte("nonexistent")); !errors.Is(err, ErrNotFound) {
			t.Errorf("Get() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("Has", func(t *testing.T) {
		db.Put([]byte("exists"), []byte("yes"))
		if ok, err := db.Has([]byte("exists")); err != nil || !ok {
			t.Errorf("Has(exists) = %v, %v", ok, err)
		}
		if ok, err := db.Has([]byte("missing")); err != nil || ok {
			t.Errorf("Has(missing) = %v, %v", ok, err)
		}
	})

	t.Run("Overwrite", func(t *testing.T) {
		db.Put([]byte("ow"), []byte("first"))
		db.Put([]byte("ow"), []byte("second"))
		val, _ := db.Get([]byte("ow"))
		if !bytes.Equal(val, []byte("second")) {
			t.Errorf("Get() = %q, want %q", val, "second")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		db.Put([]byte("del"), []byte("x"))
		if err := db.Delete([]byte("del")); err != nil {
			t.Fatalf("Delete() error: %v", err)
		}
		if ok, _ := db.Has([]byte("del")); ok {
			t.Error("key still present after Delete()")
		}
	})

	t.Run("ForEachOrdered", func(t *testing.T) {
		for _, k := range []string{"fe/c", "fe/a", "fe/b", "other"} {
			db.Put([]byte(k), []byte("v-"+k))
		}
		var got []string
		err := db.ForEach([]byte("fe/"), func(key, value []byte) error {
			if string(value) != "v-"+string(key) {
				t.Errorf("value for %s = %s", key, value)
			}
			got = append(got, string(key))
			return nil
		})
		if err != nil {
			t.Fatalf("ForEach() error: %v", err)
		}
		want := []string{"fe/a", "fe/b", "fe/c"}
		if len(got) != len(want) {
			t.Fatalf("ForEach() keys = %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("key[%d] = %s, want %s", i, got[i], want[i])
			}
		}
	})

	t.Run("ForEachStop", func(t *testing.T) {
		stop := errors.New("stop")
		n := 0
		err := db.ForEach([]byte("fe/"), func(_, _ []byte) error {
			n++
			return stop
		})
		if !errors.Is(err, stop) || n != 1 {
			t.Errorf("ForEach() = %v after %d calls, want stop after 1", err, n)
		}
	})

	t.Run("Batch", func(t *testing.T) {
		b, ok := db.(Batcher)
		if !ok {
			t.Skip("not a Batcher")
		}
		db.Put([]byte("b/old"), []byte("x"))
		batch := b.NewBatch()
		batch.Put([]byte("b/1"), []byte("one"))
		batch.Put([]byte("b/2"), []byte("two"))
		batch.Delete([]byte("b/old"))
		if ok, _ := db.Has([]byte("b/1")); ok {
			t.Error("batch write visible before Commit()")
		}
		if err := batch.Commit(); err != nil {
			t.Fatalf("Commit() error: %v", err)
		}
		if val, _ := db.Get([]byte("b/2")); string(val) != "two" {
			t.Errorf("b/2 = %q, want two", val)
		}
		if ok, _ := db.Has([]byte("b/old")); ok {
			t.Error("b/old should be deleted")
		}
		batch.Discard()
		if val, _ := db.Get([]byte("b/1")); string(val) != "one" {
			t.Errorf("Discard() after Commit() changed b/1 to %q", val)
		}
	})

	t.Run("BatchDiscard", func(t *testing.T) {
		b, ok := db.(Batcher)
		if !ok {
			t.Skip("not a Batcher")
		}
		db.Put([]byte("d/keep"), []byte("x"))
		batch := b.NewBatch()
		batch.Put([]byte("d/new"), []byte("new"))
		batch.Delete([]byte("d/keep"))
		batch.Discard()
		if ok, _ := db.Has([]byte("d/new")); ok {
			t.Error("discarded write is visible")
		}
		if ok, _ := db.Has([]byte("d/keep")); !ok {
			t.Error("discarded delete was applied")
		}
	})
}

func TestMemoryDB(t *testing.T) {
	db := NewMemory()
	defer db.Close()
	testDB(t, db)
}

func TestMemoryDB_ValuesAreCopied(t *testing.T) {
	db := NewMemory()
	v := []byte("abc")
	db.Put([]byte("k"), v)
	v[0] = 'X'

	got, _ := db.Get([]byte("k"))
	if string(got) != "abc" {
		t.Errorf("stored value changed to %q", got)
	}
}

func TestBadgerDB(t *testing.T) {
	db, err := NewBadger(t.TempDir())
	if err != nil {
		t.Fatalf("NewBadger() error: %v", err)
	}
	defer db.Close()
	testDB(t, db)
}

func TestBadgerDB_InMemory(t *testing.T) {
	db, err := NewBadgerInMemory()
	if err != nil {
		t.Fatalf("NewBadgerInMemory() error: %v", err)
	}
	defer db.Close()
	testDB(t, db)
}

func TestBadgerDB_Persistence(t *testing.T) {
	dir := t.TempDir()

	db1, err := NewBadger(dir)
	if err != nil {
		t.Fatalf("NewBadger() error: %v", err)
	}
	db1.Put([]byte("persist"), []byte("data"))
	db1.Close()

	db2, err := NewBadger(dir)
	if err != nil {
		t.Fatalf("NewBadger() reopen error: %v", err)
	}
	defer db2.Close()

	val, err := db2.Get([]byte("persist"))
	if err != nil {
		t.Fatalf("Get() after reopen error: %v", err)
	}
	if !bytes.Equal(val, []byte("data")) {
		t.Errorf("persisted value = %q, want %q", val, "data")
	}
}
