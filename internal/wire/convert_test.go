package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crdtkv/internal/crdt"
)

func TestOperationRoundTrip(t *testing.T) {
	ops := []crdt.Operation{
		&crdt.Set{TableName: "t", Key: "r", Field: "n", Val: crdt.Value(`"A"`), D: crdt.Dot{ClientID: "c1", Version: 1}},
		&crdt.SetRow{TableName: "t", Key: "r", Values: map[string]crdt.Value{"x": crdt.Value(`1`), "y": crdt.Value(`2`)}, D: crdt.Dot{ClientID: "c1", Version: 2}},
		&crdt.Remove{TableName: "t", Key: "r", Context: map[string]int64{"c1": 2}, D: crdt.Dot{ClientID: "c2", Version: 3}},
	}

	for _, op := range ops {
		w, err := ToOperation(op)
		require.NoError(t, err)
		back, err := FromOperation(w)
		require.NoError(t, err)
		assert.Equal(t, op, back)
	}
}

func TestFromOperation_RejectsMalformed(t *testing.T) {
	cases := []Operation{
		{Type: TypeSet, Table: "t", RowKey: "r", Dot: Dot{"c1", 1}},
		{Type: TypeSetRow, Table: "t", RowKey: "r", Dot: Dot{"c1", 1}},
		{Type: TypeRemove, Table: "t", RowKey: "r", Dot: Dot{"c1", 1}},
		{Type: "bogus", Table: "t", RowKey: "r", Dot: Dot{"c1", 1}},
	}
	for _, w := range cases {
		_, err := FromOperation(w)
		assert.ErrorIs(t, err, ErrMalformed)
	}
}
