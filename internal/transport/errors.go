package transport

import "crdtkv/internal/wire"

// TransportError wraps a network-layer failure: no HTTP response was ever
// successfully classified. Retryable is true for anything a caller should
// simply try again later (timeouts, connection refused, 5xx).
type TransportError struct {
	Retryable bool
	Cause     error
}

func (e *TransportError) Error() string { return "transport: " + e.Cause.Error() }
func (e *TransportError) Unwrap() error { return e.Cause }

// ServerError is a structured error the sequencer returned alongside a
// non-2xx status, per spec §6/§7's error taxonomy.
type ServerError struct {
	Code    wire.ServerErrorCode
	Message string
	Status  int
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return "transport: server returned " + string(e.Code)
	}
	return "transport: server returned " + string(e.Code) + ": " + e.Message
}

// RetryableError reports whether err is safe to retry on the next sync
// tick: transport failures and CLIENT_STATE_OUT_OF_SYNC are (the latter
// only after the caller resets its checkpoint); integrity and malformed
// errors are not, since retrying identical bad input reproduces them.
func RetryableError(err error) bool {
	switch e := err.(type) {
	case *TransportError:
		return e.Retryable
	case *ServerError:
		return e.Code == wire.ErrClientStateOutOfSync
	default:
		return false
	}
}
