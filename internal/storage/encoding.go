package storage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"crdtkv/internal/crdt"
	"crdtkv/internal/wire"
)

// rowKey packs (table, rowKey) into one bbolt key so a cursor prefix-scan
// on a table name is a contiguous range — the bbolt equivalent of the
// spec's by_table index, without a second bucket to keep in sync.
func rowKey(table, key string) []byte {
	return []byte(table + "\x00" + key)
}

func rowTablePrefix(table string) []byte {
	return []byte(table + "\x00")
}

// operationKey packs (client_id, version) so that, for one client, keys
// sort by version — the natural encoding of a per-client compound index.
func operationKey(clientID string, version int64) []byte {
	var vbuf [8]byte
	binary.BigEndian.PutUint64(vbuf[:], uint64(version))
	return append([]byte(clientID+"\x00"), vbuf[:]...)
}

func operationClientPrefix(clientID string) []byte {
	return []byte(clientID + "\x00")
}

// rowRecord is the JSON form an ORMapRow takes inside the rows bucket.
type rowRecord struct {
	Fields    map[string]fieldRecord `json:"fields"`
	Tombstone *tombstoneRecord       `json:"tombstone,omitempty"`
}

type fieldRecord struct {
	Value json.RawMessage `json:"value"`
	Dot   wire.Dot        `json:"dot"`
}

type tombstoneRecord struct {
	Dot     wire.Dot         `json:"dot"`
	Context map[string]int64 `json:"context"`
}

func encodeRow(row *crdt.ORMapRow) ([]byte, error) {
	rec := rowRecord{Fields: make(map[string]fieldRecord, len(row.Fields))}
	for name, f := range row.Fields {
		rec.Fields[name] = fieldRecord{Value: json.RawMessage(f.Value), Dot: wire.ToDot(f.Dot)}
	}
	if row.Tombstone != nil {
		rec.Tombstone = &tombstoneRecord{Dot: wire.ToDot(row.Tombstone.Dot), Context: row.Tombstone.Context}
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("storage: encode row: %w", err)
	}
	return b, nil
}

func decodeRow(b []byte) (*crdt.ORMapRow, error) {
	var rec rowRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, fmt.Errorf("storage: decode row: %w", err)
	}
	row := crdt.NewRow()
	for name, f := range rec.Fields {
		row.Fields[name] = crdt.LWWField{Value: crdt.Value(f.Value), Dot: wire.FromDot(f.Dot)}
	}
	if rec.Tombstone != nil {
		row.Tombstone = &crdt.Tombstone{Dot: wire.FromDot(rec.Tombstone.Dot), Context: rec.Tombstone.Context}
	}
	return row, nil
}

// StoredOperation is an operation plus its position in the log.
type StoredOperation struct {
	Op     crdt.Operation
	Synced bool
}

type operationRecord struct {
	Op     wire.Operation `json:"op"`
	Synced bool           `json:"synced"`
}

func encodeOperation(so StoredOperation) ([]byte, error) {
	w, err := wire.ToOperation(so.Op)
	if err != nil {
		return nil, fmt.Errorf("storage: encode operation: %w", err)
	}
	b, err := json.Marshal(operationRecord{Op: w, Synced: so.Synced})
	if err != nil {
		return nil, fmt.Errorf("storage: encode operation: %w", err)
	}
	return b, nil
}

func decodeOperation(b []byte) (StoredOperation, error) {
	var rec operationRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return StoredOperation{}, fmt.Errorf("storage: decode operation: %w", err)
	}
	op, err := wire.FromOperation(rec.Op)
	if err != nil {
		return StoredOperation{}, fmt.Errorf("storage: decode operation: %w", err)
	}
	return StoredOperation{Op: op, Synced: rec.Synced}, nil
}

func encodeInt64(v int64) []byte {
	return []byte(strconv.FormatInt(v, 10))
}

func decodeInt64(b []byte) (int64, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(string(b)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("storage: decode int64: %w", err)
	}
	return v, nil
}
