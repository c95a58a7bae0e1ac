package wire

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestHash_StableAndSensitiveToMutation(t *testing.T) {
	ops := []Operation{
		{Type: TypeSet, Table: "t", RowKey: "r1", Field: "n", Value: json.RawMessage(`"A"`), Dot: Dot{"c1", 1}},
		{Type: TypeRemove, Table: "t", RowKey: "r2", Context: map[string]int64{"c1": 2}, Dot: Dot{"c2", 3}},
	}

	h1 := RequestHash("client-a", 5, ops)
	h2 := RequestHash("client-a", 5, ops)
	assert.Equal(t, h1, h2, "hashing the same request twice must be stable")

	mutated := append([]Operation{}, ops...)
	mutated[0].Value = json.RawMessage(`"B"`)
	h3 := RequestHash("client-a", 5, mutated)
	assert.NotEqual(t, h1, h3, "mutating a field must change the hash")
}

func TestResponseHash_StableAndSensitiveToMutation(t *testing.T) {
	ops := []Operation{
		{Type: TypeSetRow, Table: "t", RowKey: "r1", Value: json.RawMessage(`{"a":1,"b":2}`), Dot: Dot{"c1", 1}},
	}
	synced := []Dot{{"c1", 3}, {"c2", 1}}

	h1 := ResponseHash(10, 15, ops, synced)
	h2 := ResponseHash(10, 15, ops, synced)
	assert.Equal(t, h1, h2)

	h3 := ResponseHash(10, 16, ops, synced)
	assert.NotEqual(t, h1, h3, "mutating latestServerVersion must change the hash")

	mutatedSynced := append([]Dot{}, synced...)
	mutatedSynced[0].Version = 4
	h4 := ResponseHash(10, 15, ops, mutatedSynced)
	assert.NotEqual(t, h1, h4, "mutating syncedOperations must change the hash")
}

func TestContextOrderingDoesNotAffectHash(t *testing.T) {
	opA := Operation{Type: TypeRemove, Table: "t", RowKey: "r", Context: map[string]int64{"a": 1, "b": 2, "c": 3}, Dot: Dot{"c1", 1}}
	opB := Operation{Type: TypeRemove, Table: "t", RowKey: "r", Context: map[string]int64{"c": 3, "a": 1, "b": 2}, Dot: Dot{"c1", 1}}

	assert.Equal(t, ResponseHash(1, 2, []Operation{opA}, nil), ResponseHash(1, 2, []Operation{opB}, nil))
}
