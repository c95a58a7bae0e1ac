package wire

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"
)

// join is the exact "|"-joining the spec's hash definitions describe.
func join(parts []string) string {
	return strings.Join(parts, "|")
}

func hexSHA256(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// valueOrNull returns the raw JSON bytes for a set/setRow value, or the
// literal string "null" for a remove — the encoding spec §6 calls
// "JSON.stringify(value)" for the former and a literal for the latter.
// Because Operation.Value already holds canonical JSON bytes (crdt.Value
// is produced once, at the write boundary, and never re-marshaled) this is
// just a byte-for-byte passthrough.
func valueOrNull(op Operation) string {
	if op.Type == TypeRemove || len(op.Value) == 0 {
		return "null"
	}
	return string(op.Value)
}

// RequestHash computes the request_hash of spec §6 over
// (clientId, lastSeenServerVersion, operations*).
func RequestHash(clientID string, lastSeenServerVersion int64, ops []Operation) string {
	parts := []string{clientID, strconv.FormatInt(lastSeenServerVersion, 10)}
	for _, op := range ops {
		valueKey := "null"
		if op.Type == TypeSet {
			valueKey = op.Field
		}
		parts = append(parts,
			op.RowKey,
			op.Table,
			op.Type,
			valueOrNull(op),
			valueKey,
			strconv.FormatInt(op.Dot.Version, 10),
			op.Dot.ClientID,
		)
	}
	return hexSHA256(join(parts))
}

// ResponseHash computes the response_hash of spec §6 over
// (baseServerVersion, latestServerVersion, operations*, syncedOperations*).
func ResponseHash(baseServerVersion, latestServerVersion int64, ops []Operation, synced []Dot) string {
	parts := []string{
		strconv.FormatInt(baseServerVersion, 10),
		strconv.FormatInt(latestServerVersion, 10),
	}
	for _, op := range ops {
		parts = append(parts, op.Type, op.Table, op.RowKey, op.Dot.ClientID, strconv.FormatInt(op.Dot.Version, 10))

		switch op.Type {
		case TypeSet:
			parts = append(parts, op.Field, valueOrNull(op))
		case TypeSetRow:
			parts = append(parts, "null", valueOrNull(op))
		case TypeRemove:
			parts = append(parts, "null", "null")
			keys := make([]string, 0, len(op.Context))
			for k := range op.Context {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				parts = append(parts, k, strconv.FormatInt(op.Context[k], 10))
			}
		}
	}
	for _, d := range synced {
		parts = append(parts, d.ClientID, strconv.FormatInt(d.Version, 10))
	}
	return hexSHA256(join(parts))
}
