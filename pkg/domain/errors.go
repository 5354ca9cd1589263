package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrChannelUnavailable is returned when the evaluator channel cannot be opened.
	ErrChannelUnavailable = errors.New("channel unavailable")

	// ErrWriteFailed is returned when the channel rejects the request bytes.
	ErrWriteFailed = errors.New("write failed")

	// ErrSyntax is returned when the device reports the "nan" sentinel.
	ErrSyntax = errors.New("syntax error")

	// ErrTimeout marks a read that ended on the channel timeout.
	// Evaluate never returns it: a short read is the normal end of a reply.
	ErrTimeout = errors.New("read timeout")

	// ErrCaretOutOfRange is logged when a negative caret position is requested.
	ErrCaretOutOfRange = errors.New("caret out of range")

	// ErrEvaluationInFlight is returned when an evaluation is requested while another one runs.
	ErrEvaluationInFlight = errors.New("evaluation already in flight")

	// ErrHistoryOutOfRange is returned when a history index does not exist.
	ErrHistoryOutOfRange = errors.New("history index out of range")

	// ErrUnknownToken is returned when a label does not name a keypad token.
	ErrUnknownToken = errors.New("unknown token")

	// ErrUnknownScheme is returned when a channel name uses an unsupported scheme.
	ErrUnknownScheme = errors.New("unknown channel scheme")

	// ErrSessionNotFound is returned when a session ID is not registered.
	ErrSessionNotFound = errors.New("session not found")
)

// EvalError is a typed evaluation failure.
// Kind is one of the sentinel errors above, so errors.Is(err, ErrSyntax) works.
type EvalError struct {
	Kind   error
	Detail string
	Cause  error
}

// NewEvalError builds an EvalError of the given kind.
func NewEvalError(kind error, detail string, cause error) *EvalError {
	return &EvalError{Kind: kind, Detail: detail, Cause: cause}
}

func (e *EvalError) Error() string {
	switch {
	case e.Detail != "" && e.Cause != nil:
		return fmt.Sprintf("%v: %s: %v", e.Kind, e.Detail, e.Cause)
	case e.Detail != "":
		return fmt.Sprintf("%v: %s", e.Kind, e.Detail)
	case e.Cause != nil:
		return fmt.Sprintf("%v: %v", e.Kind, e.Cause)
	}
	return e.Kind.Error()
}

// Is matches the error kind.
func (e *EvalError) Is(target error) bool {
	return target == e.Kind
}

func (e *EvalError) Unwrap() error {
	return e.Cause
}

// ErrorKind returns a short label for err suitable for metrics and logs.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrChannelUnavailable):
		return "channel_unavailable"
	case errors.Is(err, ErrWriteFailed):
		return "write_failed"
	case errors.Is(err, ErrSyntax):
		return "syntax_error"
	case errors.Is(err, ErrEvaluationInFlight):
		return "in_flight"
	case errors.Is(err, ErrHistoryOutOfRange):
		return "history_out_of_range"
	case errors.Is(err, ErrUnknownToken):
		return "unknown_token"
	case errors.Is(err, ErrSessionNotFound):
		return "session_not_found"
	}
	return "other"
}
