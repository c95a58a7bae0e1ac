package crdt

import (
	"fmt"
	"slices"
)

// Apply is the one pure function at the center of the whole system. Given
// a row (nil means "row does not exist yet") and an operation, it returns
// the row's new state. It never mutates its argument — callers that want
// to fold many operations into one row should chain the returned rows
// (see storage.Tx.SaveRow callers), which also makes the function trivial
// to property-test for convergence and idempotence.
//
// Apply never blocks and never fails except on a malformed operation —
// those are programmer errors (missing dot, missing field name, a
// non-serializable or absent value, a negative version) and are surfaced
// immediately rather than swallowed.
func Apply(row *ORMapRow, op Operation) (*ORMapRow, error) {
	if err := validate(op); err != nil {
		return nil, err
	}
	out := row.Copy()

	switch o := op.(type) {
	case *Set:
		applySet(out, o.Field, o.Val, o.D)
	case *SetRow:
		for _, field := range sortedKeys(o.Values) {
			applySet(out, field, o.Values[field], o.D)
		}
	case *Remove:
		applyRemove(out, o.Context, o.D)
	default:
		return nil, fmt.Errorf("%w: unknown operation type %T", ErrInvalidOperation, op)
	}
	return out, nil
}

// applySet implements §4.1 Set: suppress-if-removed, install-if-absent,
// otherwise LWW-compare dots and break ties on the serialized value.
func applySet(row *ORMapRow, field string, val Value, d Dot) {
	if suppressedBy(row.Tombstone, d) {
		return
	}

	existing, ok := row.Fields[field]
	if !ok {
		row.Fields[field] = LWWField{Value: val, Dot: d}
		return
	}

	switch d.Compare(existing.Dot) {
	case 1:
		row.Fields[field] = LWWField{Value: val, Dot: d}
	case 0:
		if compareValues(val, existing.Value) > 0 {
			row.Fields[field] = LWWField{Value: val, Dot: d}
		}
	}
	// d.Compare < 0: existing dominates, keep it.
}

// applyRemove implements §4.1 Remove: merge with any existing tombstone by
// taking the LWW-greater dot and the pointwise-max context, then drop every
// field the merged context now suppresses.
func applyRemove(row *ORMapRow, ctx map[string]int64, d Dot) {
	newDot := d
	mergedCtx := ctx
	if row.Tombstone != nil {
		if row.Tombstone.Dot.Compare(d) > 0 {
			newDot = row.Tombstone.Dot
		}
		mergedCtx = mergeContext(row.Tombstone.Context, ctx)
	}
	row.Tombstone = &Tombstone{Dot: newDot, Context: mergedCtx}

	for field, lww := range row.Fields {
		if watermark, ok := mergedCtx[lww.Dot.ClientID]; ok && lww.Dot.Version <= watermark {
			delete(row.Fields, field)
		}
	}
}

func validate(op Operation) error {
	d := op.Dot()
	if !d.Valid() {
		return fmt.Errorf("%w: missing or negative dot %+v", ErrInvalidOperation, d)
	}

	switch o := op.(type) {
	case *Set:
		if o.Field == "" {
			return fmt.Errorf("%w: set requires a non-empty field name", ErrInvalidOperation)
		}
		if !validValue(o.Val) {
			return fmt.Errorf("%w: set requires a serializable value", ErrInvalidOperation)
		}
	case *SetRow:
		if o.Values == nil {
			return fmt.Errorf("%w: setRow requires a value object", ErrInvalidOperation)
		}
		for field, v := range o.Values {
			if field == "" {
				return fmt.Errorf("%w: setRow field name must not be empty", ErrInvalidOperation)
			}
			if !validValue(v) {
				return fmt.Errorf("%w: setRow value for field %q is not serializable", ErrInvalidOperation, field)
			}
		}
	case *Remove:
		if o.Context == nil {
			return fmt.Errorf("%w: remove requires a context object", ErrInvalidOperation)
		}
		for client, v := range o.Context {
			if v < 0 {
				return fmt.Errorf("%w: remove context for %q has negative version %d", ErrInvalidOperation, client, v)
			}
		}
	default:
		return fmt.Errorf("%w: unknown operation type %T", ErrInvalidOperation, op)
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
