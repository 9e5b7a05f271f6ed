package settlement

import (
	"errors"
	"fmt"
)

// Settlement errors.
var (
	ErrSubmissionRejected  = errors.New("submission rejected")
	ErrConfirmationTimeout = errors.New("confirmation timeout")
	ErrNoRecipients        = errors.New("no recipients")
	ErrInvalidTransaction  = errors.New("invalid transaction")
)

// RejectedError carries the ledger's answer to a submission it did not accept.
type RejectedError struct {
	TxID       string
	StatusCode int
	Body       string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("%v: tx %s: http %d: %s", ErrSubmissionRejected, e.TxID, e.StatusCode, e.Body)
}

// Unwrap returns ErrSubmissionRejected.
func (e *RejectedError) Unwrap() error { return ErrSubmissionRejected }

// TimeoutError reports the last status observed before the poll budget ran
// out. The transaction may still be committed later.
type TimeoutError struct {
	TxID       string
	Attempts   int
	LastCode   int
	LastStatus string
	LastBody   string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%v: tx %s not valid after %d checks (last: http %d, status %q, body %q)",
		ErrConfirmationTimeout, e.TxID, e.Attempts, e.LastCode, e.LastStatus, e.LastBody)
}

// Unwrap returns ErrConfirmationTimeout.
func (e *TimeoutError) Unwrap() error { return ErrConfirmationTimeout }
