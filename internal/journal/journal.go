// Package journal keeps a local record of settlement operations.
package journal

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	klog "github.com/Klingon-tech/ipdb-go/internal/log"
	"github.com/Klingon-tech/ipdb-go/internal/settlement"
	"github.com/Klingon-tech/ipdb-go/internal/storage"
	"github.com/Klingon-tech/ipdb-go/pkg/tx"
)

// Key layout inside the journal namespace:
//
//	op/<opID>                   -> Entry JSON
//	ts/<started nanos BE><opID> -> opID
var (
	namespace = []byte("journal/")
	prefixOp  = []byte("op/")
	prefixTS  = []byte("ts/")
)

// ErrNotFound is returned when no entry exists for an operation id.
var ErrNotFound = errors.New("journal entry not found")

// Entry is the latest known state of one operation.
type Entry struct {
	OpID       string       `json:"op_id"`
	Operation  tx.Operation `json:"operation"`
	TxID       string       `json:"tx_id,omitempty"`
	AssetID    string       `json:"asset_id,omitempty"`
	State      string       `json:"state"`
	Attempts   int          `json:"attempts,omitempty"`
	StatusCode int          `json:"status_code,omitempty"`
	Status     string       `json:"status,omitempty"`
	Error      string       `json:"error,omitempty"`
	Started    time.Time    `json:"started"`
	Updated    time.Time    `json:"updated"`
}

// Store records settlement events. It implements settlement.Observer.
type Store struct {
	db *storage.PrefixDB
	mu sync.Mutex
}

// New returns a journal kept in its own namespace of db.
func New(db storage.DB) *Store {
	return &Store{db: storage.NewPrefixDB(db, namespace)}
}

// Observe records ev. Write failures are logged; they never fail the
// operation being observed.
func (s *Store) Observe(ev settlement.Event) {
	if err := s.Record(ev); err != nil {
		klog.Journal.Warn().Err(err).Str("op", ev.OpID).Msg("Failed to record journal entry")
	}
}

// Record applies ev to the entry of its operation.
func (s *Store) Record(ev settlement.Event) error {
	if ev.OpID == "" {
		return fmt.Errorf("event has no operation id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.Get(ev.OpID)
	isNew := errors.Is(err, ErrNotFound)
	if err != nil && !isNew {
		return err
	}
	if isNew {
		e = &Entry{OpID: ev.OpID, Operation: ev.Operation, Started: ev.Time}
	}
	apply(e, ev)

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("journal marshal: %w", err)
	}
	b := s.db.NewBatch()
	defer b.Discard()
	if err := b.Put(opKey(e.OpID), data); err != nil {
		return err
	}
	if isNew {
		if err := b.Put(tsKey(e.Started, e.OpID), []byte(e.OpID)); err != nil {
			return err
		}
	}
	if err := b.Commit(); err != nil {
		return fmt.Errorf("journal write: %w", err)
	}
	return nil
}

func apply(e *Entry, ev settlement.Event) {
	e.Updated = ev.Time
	if ev.TxID != "" {
		e.TxID = ev.TxID
	}
	if ev.AssetID != "" {
		e.AssetID = ev.AssetID
	}
	if ev.Attempt > 0 {
		e.Attempts = ev.Attempt
	}
	if ev.StatusCode != 0 {
		e.StatusCode = ev.StatusCode
		e.Status = ev.Status
	}
	if ev.Err != nil {
		e.Error = ev.Err.Error()
	}
	if ev.Kind != settlement.EventStatusChecked {
		e.State = ev.Kind.String()
	}
}

// Get returns the entry of an operation.
func (s *Store) Get(opID string) (*Entry, error) {
	data, err := s.db.Get(opKey(opID))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, opID)
	}
	if err != nil {
		return nil, fmt.Errorf("journal get: %w", err)
	}
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("journal unmarshal %s: %w", opID, err)
	}
	return &e, nil
}

// List returns up to limit entries, newest first. A limit <= 0 returns all.
func (s *Store) List(limit int) ([]Entry, error) {
	var ids []string
	if err := s.db.ForEach(prefixTS, func(_, value []byte) error {
		ids = append(ids, string(value))
		return nil
	}); err != nil {
		return nil, fmt.Errorf("journal scan: %w", err)
	}

	entries := make([]Entry, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		if limit > 0 && len(entries) == limit {
			break
		}
		e, err := s.Get(ids[i])
		if err != nil {
			// Index without a record; skip it.
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, nil
}

// FindByTx returns the newest entry for a transaction id.
func (s *Store) FindByTx(txID string) (*Entry, error) {
	entries, err := s.List(0)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].TxID == txID {
			return &entries[i], nil
		}
	}
	return nil, fmt.Errorf("%w: tx %s", ErrNotFound, txID)
}

// Clear removes every entry.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.DeleteAll()
}

func opKey(opID string) []byte {
	return append(append([]byte{}, prefixOp...), opID...)
}

func tsKey(t time.Time, opID string) []byte {
	key := make([]byte, 0, len(prefixTS)+8+len(opID))
	key = append(key, prefixTS...)
	key = binary.BigEndian.AppendUint64(key, uint64(t.UnixNano()))
	return append(key, opID...)
}
