package wire

import (
	"encoding/json"
	"fmt"

	"crdtkv/internal/crdt"
)

// FromDot / ToDot translate between the wire and crdt representations of a
// dot — they are identical in shape, but keeping the conversion explicit
// avoids a silent cross-package type alias that would make a later
// divergence (e.g. a wire-only field) a breaking change instead of a
// compile error here.
func FromDot(d Dot) crdt.Dot { return crdt.Dot{ClientID: d.ClientID, Version: d.Version} }
func ToDot(d crdt.Dot) Dot   { return Dot{ClientID: d.ClientID, Version: d.Version} }

// ToOperation converts a crdt.Operation into its wire form.
func ToOperation(op crdt.Operation) (Operation, error) {
	d := ToDot(op.Dot())
	base := Operation{Table: op.Table(), RowKey: op.RowKey(), Dot: d}

	switch o := op.(type) {
	case *crdt.Set:
		base.Type = TypeSet
		base.Field = o.Field
		base.Value = json.RawMessage(o.Val)
		return base, nil
	case *crdt.SetRow:
		base.Type = TypeSetRow
		raw, err := json.Marshal(o.Values)
		if err != nil {
			return Operation{}, fmt.Errorf("wire: marshal setRow values: %w", err)
		}
		base.Value = raw
		return base, nil
	case *crdt.Remove:
		base.Type = TypeRemove
		base.Context = o.Context
		return base, nil
	default:
		return Operation{}, fmt.Errorf("wire: unknown operation type %T", op)
	}
}

// FromOperation converts a wire Operation back into a crdt.Operation,
// rejecting anything that doesn't carry the fields its variant requires —
// this is spec §4.3 step 3's "operation-validation" check.
func FromOperation(w Operation) (crdt.Operation, error) {
	d := FromDot(w.Dot)

	switch w.Type {
	case TypeSet:
		if w.Field == "" || len(w.Value) == 0 {
			return nil, fmt.Errorf("%w: set operation missing field or value", ErrMalformed)
		}
		return &crdt.Set{TableName: w.Table, Key: w.RowKey, Field: w.Field, Val: crdt.Value(w.Value), D: d}, nil
	case TypeSetRow:
		if len(w.Value) == 0 {
			return nil, fmt.Errorf("%w: setRow operation missing value object", ErrMalformed)
		}
		var values map[string]crdt.Value
		if err := json.Unmarshal(w.Value, &values); err != nil {
			return nil, fmt.Errorf("%w: setRow value is not a JSON object: %v", ErrMalformed, err)
		}
		return &crdt.SetRow{TableName: w.Table, Key: w.RowKey, Values: values, D: d}, nil
	case TypeRemove:
		if w.Context == nil {
			return nil, fmt.Errorf("%w: remove operation missing context object", ErrMalformed)
		}
		return &crdt.Remove{TableName: w.Table, Key: w.RowKey, Context: w.Context, D: d}, nil
	default:
		return nil, fmt.Errorf("%w: unknown operation type %q", ErrMalformed, w.Type)
	}
}
