package drill

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors.
var (
	// ErrPreconditionFailed is returned when an operation is invalid for the
	// current state: drilling past the deepest level, drilling on a key that is
	// not among the displayed rows, or drilling before any rows are loaded.
	ErrPreconditionFailed = errors.New("drill precondition failed")

	// ErrSchemaMismatch marks a restored path that no longer fits the schema.
	// Restore truncates instead of failing; the error is only logged.
	ErrSchemaMismatch = errors.New("drill path does not match schema")

	// ErrStaleResponse marks a response superseded by a newer request.
	// It is never surfaced to users.
	ErrStaleResponse = errors.New("stale response discarded")

	ErrInvalidSchema = errors.New("invalid drill schema")
	ErrUnknownModule = errors.New("unknown module")
)

// GatewayError is a failed level fetch. It carries the server's message so
// the UI can show it verbatim.
type GatewayError struct {
	Module  string
	View    string
	Level   int
	Status  int
	Message string
	Err     error
}

func (e *GatewayError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s %s level %d: %d %s", e.Module, e.View, e.Level, e.Status, msg)
	}
	return fmt.Sprintf("%s %s level %d: %s", e.Module, e.View, e.Level, msg)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// Retryable reports whether re-invoking the same operation may succeed.
// Client errors other than timeouts and rate limiting are not retryable.
func (e *GatewayError) Retryable() bool {
	if errors.Is(e.Err, context.Canceled) {
		return false
	}
	switch {
	case e.Status == 0:
		return true
	case e.Status == http.StatusRequestTimeout, e.Status == http.StatusTooManyRequests:
		return true
	case e.Status >= 400 && e.Status < 500:
		return false
	default:
		return true
	}
}

// asGatewayError wraps err for q unless it already is a *GatewayError.
func asGatewayError(err error, q Query) *GatewayError {
	var ge *GatewayError
	if errors.As(err, &ge) {
		if ge.Module == "" {
			ge.Module = q.ModuleID
		}
		if ge.View == "" {
			ge.View = q.View
		}
		return ge
	}
	return &GatewayError{
		Module: q.ModuleID,
		View:   q.View,
		Level:  q.Level,
		Err:    err,
	}
}
