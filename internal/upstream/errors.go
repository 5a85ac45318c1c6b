package upstream

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnreachable wraps network failures: refused connections, DNS
	// errors and timeouts.
	ErrUnreachable = errors.New("upstream unreachable")
	// ErrInvalidResponse is returned when the body is not the JSON envelope.
	ErrInvalidResponse = errors.New("invalid upstream response")
)

// Error is a response the upstream did send: a non-2xx status or an
// envelope with success=false.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("upstream returned %d", e.Status)
	}
	return fmt.Sprintf("upstream returned %d: %s", e.Status, e.Message)
}

// Message returns the best-effort text to show a user for err.
func Message(err error) string {
	var ue *Error
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ue) && ue.Message != "":
		return ue.Message
	case errors.As(err, &ue):
		return http.StatusText(ue.Status)
	case errors.Is(err, ErrUnreachable), errors.Is(err, context.DeadlineExceeded):
		return "service unavailable"
	default:
		return err.Error()
	}
}

// StatusOf returns the upstream status carried by err, or 0.
func StatusOf(err error) int {
	var ue *Error
	if errors.As(err, &ue) {
		return ue.Status
	}
	return 0
}

// IsUnauthorized reports whether the upstream refused the caller's
// credentials, meaning the local session should end.
func IsUnauthorized(err error) bool {
	return StatusOf(err) == http.StatusUnauthorized
}
