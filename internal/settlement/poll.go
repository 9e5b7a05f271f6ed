package settlement

import (
	"context"
	"fmt"
	"time"

	"github.com/Klingon-tech/ipdb-go/internal/ledger"
)

// Default confirmation poll: three checks, each preceded by five seconds.
const (
	DefaultPollAttempts = 3
	DefaultPollDelay    = 5 * time.Second
)

// PollPolicy bounds confirmation polling.
type PollPolicy struct {
	Attempts int           // total status checks
	Delay    time.Duration // wait before each check
}

// DefaultPollPolicy returns the standard policy.
func DefaultPollPolicy() PollPolicy {
	return PollPolicy{Attempts: DefaultPollAttempts, Delay: DefaultPollDelay}
}

func (p PollPolicy) normalize() PollPolicy {
	if p.Attempts <= 0 {
		p.Attempts = DefaultPollAttempts
	}
	if p.Delay < 0 {
		p.Delay = 0
	}
	return p
}

// confirm polls the status of op's transaction until it is valid or the
// policy's attempts are exhausted. A non-200 answer counts as "not yet";
// a transport failure or cancellation stops polling.
func (e *Engine) confirm(ctx context.Context, ep ledger.Endpoint, op *operation) (int, error) {
	var last ledger.Status
	for attempt := 1; attempt <= e.poll.Attempts; attempt++ {
		if err := wait(ctx, e.poll.Delay); err != nil {
			op.emit(Event{Kind: EventUnknown, Attempt: attempt - 1, MaxAttempts: e.poll.Attempts, Err: err})
			return attempt - 1, fmt.Errorf("confirm %s: %w", op.txID, err)
		}

		st, err := e.ledger.GetStatus(ctx, ep, op.txID)
		if err != nil {
			op.emit(Event{Kind: EventUnknown, Attempt: attempt, MaxAttempts: e.poll.Attempts, Err: err})
			return attempt, fmt.Errorf("check status of %s: %w", op.txID, err)
		}
		last = *st
		op.emit(Event{
			Kind:        EventStatusChecked,
			Attempt:     attempt,
			MaxAttempts: e.poll.Attempts,
			StatusCode:  st.Code,
			Status:      st.Status,
			Body:        st.Body,
		})
		if st.Valid() {
			op.emit(Event{Kind: EventConfirmed, Attempt: attempt, MaxAttempts: e.poll.Attempts, StatusCode: st.Code, Status: st.Status})
			return attempt, nil
		}
	}

	terr := &TimeoutError{
		TxID:       op.txID,
		Attempts:   e.poll.Attempts,
		LastCode:   last.Code,
		LastStatus: last.Status,
		LastBody:   last.Body,
	}
	op.emit(Event{
		Kind:        EventUnknown,
		Attempt:     e.poll.Attempts,
		MaxAttempts: e.poll.Attempts,
		StatusCode:  last.Code,
		Status:      last.Status,
		Body:        last.Body,
		Err:         terr,
	})
	return e.poll.Attempts, terr
}

// wait sleeps for d unless ctx ends first.
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
