package crdt

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Value is a field's payload stored as canonical JSON bytes rather than as
// a Go any. Keeping it pre-serialized means every component that needs a
// byte-for-byte stable encoding — the LWW value tiebreak, the request/
// response hash in package wire, the bbolt-backed repository — shares the
// exact same bytes instead of risking re-marshaling drift.
type Value = json.RawMessage

// Canonicalize marshals an arbitrary Go value into the canonical JSON form
// used throughout this package. encoding/json already sorts object keys
// when marshaling a map, which is what gives us determinism for free: two
// equal values always marshal to the same bytes regardless of how they
// were built in memory.
func Canonicalize(v any) (Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: value is not serializable: %v", ErrInvalidOperation, err)
	}
	return Value(b), nil
}

// validValue reports whether raw is non-empty, well-formed JSON.
func validValue(raw Value) bool {
	return len(raw) > 0 && json.Valid(raw)
}

// compareValues gives a deterministic total order over two canonical JSON
// payloads, used only to break a genuine dot tie (same client, same
// version — i.e. the exact same write replayed). Plain byte comparison is
// sufficient because both sides were produced by the same Canonicalize.
func compareValues(a, b Value) int {
	return bytes.Compare(a, b)
}
