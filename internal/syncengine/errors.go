package syncengine

import "errors"

// ErrResponseHashMismatch means the response_hash did not recompute to the
// transmitted value — an integrity error, fatal for this sync cycle.
var ErrResponseHashMismatch = errors.New("syncengine: response hash mismatch")

// ErrMalformedOperation is returned when an incoming operation fails
// per-variant validation (spec §4.3 step 3). It always wraps the underlying
// cause: wire.ErrMalformed for a failed shape check, or
// crdt.ErrInvalidOperation when crdt.Apply rejects the operation.
var ErrMalformedOperation = errors.New("syncengine: malformed remote operation")

// ServerError is returned by Client implementations to surface a
// structured server-side error code (spec §6/§7) instead of a bare
// transport failure.
type ServerError struct {
	Code    string
	Message string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return "syncengine: server error " + e.Code
	}
	return "syncengine: server error " + e.Code + ": " + e.Message
}
