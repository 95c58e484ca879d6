package txn

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SubmissionExpiredError is returned when the blockhash a transaction was
// built on is no longer valid, either at send time or before confirmation.
type SubmissionExpiredError struct {
	Signature            string // empty when rejected at send
	LastValidBlockHeight uint64
	Err                  error
}

func (e *SubmissionExpiredError) Error() string {
	msg := fmt.Sprintf("transaction expired: blockhash no longer valid after block height %d", e.LastValidBlockHeight)
	if e.Signature != "" {
		msg += " (signature " + e.Signature + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SubmissionExpiredError) Unwrap() error {
	return e.Err
}

// SubmissionError is returned when the endpoint or the program rejects a
// transaction. Reason is the endpoint's message, unmodified.
type SubmissionError struct {
	Signature string
	Reason    string
	Logs      []string
	Err       error
}

func (e *SubmissionError) Error() string {
	var b strings.Builder
	b.WriteString("transaction rejected: ")
	b.WriteString(e.Reason)
	if e.Signature != "" {
		b.WriteString(" (signature ")
		b.WriteString(e.Signature)
		b.WriteString(")")
	}
	for _, l := range e.Logs {
		b.WriteString("\n    ")
		b.WriteString(l)
	}
	return b.String()
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// txErrReason renders the err field of a signature status as the endpoint sent it.
func txErrReason(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
