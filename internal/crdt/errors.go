package crdt

import "errors"

// ErrInvalidOperation is wrapped by apply when it is handed an operation
// that could never have come from a correctly functioning clock or facade:
// a missing dot, a missing field name, a nil context, or an unserializable
// value. These are programmer errors per spec — they are never expected to
// happen in normal operation and must never be silently swallowed.
var ErrInvalidOperation = errors.New("crdt: invalid operation")
