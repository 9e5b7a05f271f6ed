package settlement

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/Klingon-tech/ipdb-go/internal/ledger"
	"github.com/Klingon-tech/ipdb-go/pkg/tx"
)

// EventKind is a step of a settlement operation.
type EventKind int

const (
	EventBuilt EventKind = iota
	EventSigned
	EventSubmitted
	EventStatusChecked
	EventConfirmed
	EventRejected
	EventUnknown // outcome unknown: poll budget spent, polling failed, or canceled
)

var eventNames = [...]string{
	EventBuilt:         "built",
	EventSigned:        "signed",
	EventSubmitted:     "submitted",
	EventStatusChecked: "status_checked",
	EventConfirmed:     "confirmed",
	EventRejected:      "rejected",
	EventUnknown:       "unknown",
}

func (k EventKind) String() string {
	if k < 0 || int(k) >= len(eventNames) {
		return "invalid"
	}
	return eventNames[k]
}

// Terminal reports whether no further events follow for the operation.
func (k EventKind) Terminal() bool {
	return k == EventConfirmed || k == EventRejected || k == EventUnknown
}

// Event describes one step of a CreateAsset or TransferAsset call.
type Event struct {
	OpID      string
	Kind      EventKind
	Operation tx.Operation
	TxID      string
	AssetID   string
	Time      time.Time

	// Set on status checks and terminal events.
	Attempt     int
	MaxAttempts int
	StatusCode  int
	Status      string
	Body        string
	Err         error
}

// Observer receives settlement events. Observe is called synchronously on
// the caller's goroutine and must not block.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// Observe calls f(ev).
func (f ObserverFunc) Observe(ev Event) { f(ev) }

type multiObserver []Observer

func (m multiObserver) Observe(ev Event) {
	for _, o := range m {
		o.Observe(ev)
	}
}

// Observers fans events out to every non-nil observer, in order.
func Observers(obs ...Observer) Observer {
	var m multiObserver
	for _, o := range obs {
		if o != nil {
			m = append(m, o)
		}
	}
	return m
}

// LogObserver writes events to logger.
func LogObserver(logger zerolog.Logger) Observer {
	return ObserverFunc(func(ev Event) {
		var e *zerolog.Event
		switch ev.Kind {
		case EventRejected, EventUnknown:
			e = logger.Warn()
		case EventStatusChecked, EventBuilt, EventSigned:
			e = logger.Debug()
		default:
			e = logger.Info()
		}
		e = e.Str("op", ev.OpID).
			Str("operation", string(ev.Operation)).
			Str("tx", ev.TxID)
		if ev.AssetID != "" {
			e = e.Str("asset", ev.AssetID)
		}
		if ev.Attempt > 0 {
			e = e.Int("attempt", ev.Attempt).Int("max_attempts", ev.MaxAttempts)
		}
		if ev.StatusCode != 0 {
			e = e.Int("http_status", ev.StatusCode)
		}
		if ev.Status != "" {
			e = e.Str("status", ev.Status)
		}
		if ev.Err != nil {
			e = e.Err(ev.Err)
		}

		switch ev.Kind {
		case EventBuilt:
			e.Msg("Transaction built")
		case EventSigned:
			e.Msg("Transaction signed")
		case EventSubmitted:
			e.Msg("Transaction posted")
		case EventStatusChecked:
			if ev.Attempt < ev.MaxAttempts && ev.Status != ledger.StatusValid {
				e.Msg("Transaction not valid yet, trying again")
				return
			}
			e.Msg("Transaction status checked")
		case EventConfirmed:
			e.Msg("Transaction confirmed")
		case EventRejected:
			e.Str("body", ev.Body).Msg("Transaction rejected")
		case EventUnknown:
			e.Str("body", ev.Body).Msg("Transaction outcome unknown")
		}
	})
}
