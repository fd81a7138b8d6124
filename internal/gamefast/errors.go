package gamefast

import (
	"errors"
	"fmt"
)

// ErrUnreachable wraps transport-level failures: no response from the server.
var ErrUnreachable = errors.New("game server unreachable")

// HTTPError is a non-success status without a JSON error body.
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("game server error: status=%d body=%s", e.Status, e.Body)
}

// RejectedError is an explicit `error` field in an otherwise well-formed
// JSON body (e.g. unknown_player, room_full, bad_password).
type RejectedError struct {
	Reason string
}

func (e *RejectedError) Error() string {
	return "server rejected request: " + e.Reason
}

// MalformedError is a body that could not be decoded as the expected shape.
type MalformedError struct {
	Cause error
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed server response: %v", e.Cause)
}

func (e *MalformedError) Unwrap() error { return e.Cause }
