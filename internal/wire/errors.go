package wire

import "errors"

// ErrMalformed marks an incoming operation that fails the per-variant
// shape check of spec §4.3 step 3 — a fatal, non-retryable problem with
// the payload itself, distinct from a hash mismatch or a stale response.
var ErrMalformed = errors.New("wire: malformed operation")
