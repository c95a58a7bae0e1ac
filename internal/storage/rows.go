package storage

import (
	"fmt"

	"crdtkv/internal/crdt"
)

// GetRow returns the row at (table, key), or nil if it does not exist.
func (t *Tx) GetRow(table, key string) (*crdt.ORMapRow, error) {
	if err := t.require(StoreRows, false); err != nil {
		return nil, err
	}
	b := t.btx.Bucket(bucketRows)
	raw := b.Get(rowKey(table, key))
	if raw == nil {
		return nil, nil
	}
	return decodeRow(raw)
}

// SaveRow persists row at (table, key). A row with no fields and no
// tombstone is deleted rather than stored, per invariant 1 — this is the
// "behavior-critical rule" of spec §4.2 that keeps GetAllRows free of
// ghost entries.
func (t *Tx) SaveRow(table, key string, row *crdt.ORMapRow) error {
	if err := t.require(StoreRows, true); err != nil {
		return err
	}
	b := t.btx.Bucket(bucketRows)
	k := rowKey(table, key)

	if row.IsEmpty() {
		return b.Delete(k)
	}
	enc, err := encodeRow(row)
	if err != nil {
		return err
	}
	return b.Put(k, enc)
}

// RowEntry pairs a row with its key for range-scan results.
type RowEntry struct {
	Key string
	Row *crdt.ORMapRow
}

// GetAllRows range-scans every row stored under table using the table
// prefix baked into the row key (see encoding.go) — the by_table index of
// spec §4.2, implemented as a contiguous bbolt key range instead of a
// separate bucket to keep in sync.
func (t *Tx) GetAllRows(table string) ([]RowEntry, error) {
	if err := t.require(StoreRows, false); err != nil {
		return nil, err
	}
	b := t.btx.Bucket(bucketRows)
	prefix := rowTablePrefix(table)

	var out []RowEntry
	c := b.Cursor()
	for k, v := c.Seek(prefix); k != nil && hasPrefix(k, prefix); k, v = c.Next() {
		row, err := decodeRow(v)
		if err != nil {
			return nil, fmt.Errorf("storage: GetAllRows(%q): %w", table, err)
		}
		out = append(out, RowEntry{Key: string(k[len(prefix):]), Row: row})
	}
	return out, nil
}

func hasPrefix(b, prefix []byte) bool {
	if len(b) < len(prefix) {
		return false
	}
	for i := range prefix {
		if b[i] != prefix[i] {
			return false
		}
	}
	return true
}
