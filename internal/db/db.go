// Package db is the user-facing facade (C4): setCell, setRow, get,
// deleteRow, getAllRows. Each mutating method stamps a fresh dot from the
// logical clock, folds it through crdt.Apply, and persists the result and
// the log entry in one readwrite transaction, mirroring spec §4.5.
package db

import (
	"fmt"

	"crdtkv/internal/clock"
	"crdtkv/internal/crdt"
	"crdtkv/internal/rlog"
	"crdtkv/internal/storage"
)

// DB wraps a Repository with the CRDT-aware operations applications call.
type DB struct {
	repo *storage.Repository
}

// Open opens (creating if necessary) the bbolt file at path and wraps it.
func Open(path string) (*DB, error) {
	repo, err := storage.Open(path)
	if err != nil {
		return nil, err
	}
	return &DB{repo: repo}, nil
}

// Close releases the underlying storage handle.
func (d *DB) Close() error {
	return d.repo.Close()
}

var facadeStores = []storage.Store{storage.StoreClientState, storage.StoreRows, storage.StoreOperations}

// SetCell writes a single field of one row, stamping a fresh dot.
func (d *DB) SetCell(table, key, field string, value any) error {
	val, err := crdt.Canonicalize(value)
	if err != nil {
		return fmt.Errorf("db: setCell: %w", err)
	}
	return d.repo.Transaction(facadeStores, storage.ReadWrite, func(tx *storage.Tx) error {
		row, err := tx.GetRow(table, key)
		if err != nil {
			return err
		}
		clientID, err := tx.ClientID()
		if err != nil {
			return err
		}
		v, err := clock.Tick(tx)
		if err != nil {
			return err
		}
		op := &crdt.Set{TableName: table, Key: key, Field: field, Val: val, D: crdt.Dot{ClientID: clientID, Version: v}}
		return applyAndPersist(tx, table, key, row, op)
	})
}

// SetRow writes every field in values with one shared dot.
func (d *DB) SetRow(table, key string, values map[string]any) error {
	vals := make(map[string]crdt.Value, len(values))
	for field, raw := range values {
		v, err := crdt.Canonicalize(raw)
		if err != nil {
			return fmt.Errorf("db: setRow: %w", err)
		}
		vals[field] = v
	}
	return d.repo.Transaction(facadeStores, storage.ReadWrite, func(tx *storage.Tx) error {
		row, err := tx.GetRow(table, key)
		if err != nil {
			return err
		}
		clientID, err := tx.ClientID()
		if err != nil {
			return err
		}
		v, err := clock.Tick(tx)
		if err != nil {
			return err
		}
		op := &crdt.SetRow{TableName: table, Key: key, Values: vals, D: crdt.Dot{ClientID: clientID, Version: v}}
		return applyAndPersist(tx, table, key, row, op)
	})
}

// DeleteRow tombstones a row. The tombstone's context is the pointwise
// maximum of the dots currently present in the row's fields — spec §4.5
// step 3 — so it suppresses exactly the writes this replica has already
// observed and nothing more.
func (d *DB) DeleteRow(table, key string) error {
	return d.repo.Transaction(facadeStores, storage.ReadWrite, func(tx *storage.Tx) error {
		row, err := tx.GetRow(table, key)
		if err != nil {
			return err
		}
		clientID, err := tx.ClientID()
		if err != nil {
			return err
		}
		v, err := clock.Tick(tx)
		if err != nil {
			return err
		}
		ctx := observedContext(row)
		op := &crdt.Remove{TableName: table, Key: key, Context: ctx, D: crdt.Dot{ClientID: clientID, Version: v}}
		return applyAndPersist(tx, table, key, row, op)
	})
}

// Get returns the live fields of a row, or nil if the row has no live
// fields (tombstoned or never written).
func (d *DB) Get(table, key string) (map[string]crdt.Value, error) {
	var out map[string]crdt.Value
	err := d.repo.Transaction([]storage.Store{storage.StoreRows}, storage.ReadOnly, func(tx *storage.Tx) error {
		row, err := tx.GetRow(table, key)
		if err != nil {
			return err
		}
		if row == nil || len(row.Fields) == 0 {
			return nil
		}
		out = make(map[string]crdt.Value, len(row.Fields))
		for field, lww := range row.Fields {
			out[field] = lww.Value
		}
		return nil
	})
	return out, err
}

// RowView pairs a row key with its live fields, for GetAllRows results.
type RowView struct {
	Key    string
	Fields map[string]crdt.Value
}

// GetAllRows returns every row of table that has at least one live field,
// using the by_table index and skipping fully-tombstoned rows.
func (d *DB) GetAllRows(table string) ([]RowView, error) {
	var out []RowView
	err := d.repo.Transaction([]storage.Store{storage.StoreRows}, storage.ReadOnly, func(tx *storage.Tx) error {
		entries, err := tx.GetAllRows(table)
		if err != nil {
			return err
		}
		for _, e := range entries {
			if len(e.Row.Fields) == 0 {
				continue
			}
			fields := make(map[string]crdt.Value, len(e.Row.Fields))
			for field, lww := range e.Row.Fields {
				fields[field] = lww.Value
			}
			out = append(out, RowView{Key: e.Key, Fields: fields})
		}
		return nil
	})
	return out, err
}

func applyAndPersist(tx *storage.Tx, table, key string, row *crdt.ORMapRow, op crdt.Operation) error {
	next, err := crdt.Apply(row, op)
	if err != nil {
		return err
	}
	if err := tx.SaveRow(table, key, next); err != nil {
		return err
	}
	if err := tx.AppendOperation(op, false); err != nil {
		return err
	}
	rlog.Logger.Debug().Str("table", table).Str("key", key).Str("kind", string(op.Kind())).Msg("applied local operation")
	return nil
}

// observedContext computes the pointwise maximum version this replica has
// observed per client, across every live field of row. It is an empty,
// non-nil map (not nil) for a row with no fields: "nothing observed yet",
// while still giving crdt.Remove the context object Apply requires.
func observedContext(row *crdt.ORMapRow) map[string]int64 {
	if row == nil || len(row.Fields) == 0 {
		return map[string]int64{}
	}
	ctx := make(map[string]int64, len(row.Fields))
	for _, lww := range row.Fields {
		if v, ok := ctx[lww.Dot.ClientID]; !ok || lww.Dot.Version > v {
			ctx[lww.Dot.ClientID] = lww.Dot.Version
		}
	}
	return ctx
}
