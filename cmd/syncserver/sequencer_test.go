package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crdtkv/internal/wire"
)

func TestSequencer_EchoesBaseAndAssignsServerVersions(t *testing.T) {
	seq := NewSequencer()

	op := wire.Operation{Type: wire.TypeSet, Table: "t", RowKey: "r", Field: "n", Dot: wire.Dot{ClientID: "c1", Version: 0}}
	req := &wire.SyncRequest{ClientID: "c1", LastSeenServerVersion: -1, Operations: []wire.Operation{op}}

	resp := seq.HandleSyncRequest(req)
	assert.Equal(t, int64(-1), resp.BaseServerVersion)
	assert.Equal(t, int64(0), resp.LatestServerVersion)
	assert.Equal(t, []wire.Dot{op.Dot}, resp.SyncedOperations)
	assert.Empty(t, resp.Operations, "the submitting client should not get its own operation echoed back")
	assert.Equal(t, wire.ResponseHash(resp.BaseServerVersion, resp.LatestServerVersion, resp.Operations, resp.SyncedOperations), resp.ResponseHash)
}

func TestSequencer_DeliversOtherClientsOperations(t *testing.T) {
	seq := NewSequencer()

	op1 := wire.Operation{Type: wire.TypeSet, Table: "t", RowKey: "r", Field: "n", Dot: wire.Dot{ClientID: "c1", Version: 0}}
	first := seq.HandleSyncRequest(&wire.SyncRequest{ClientID: "c1", LastSeenServerVersion: -1, Operations: []wire.Operation{op1}})
	require.Equal(t, int64(0), first.LatestServerVersion)

	second := seq.HandleSyncRequest(&wire.SyncRequest{ClientID: "c2", LastSeenServerVersion: -1})
	require.Len(t, second.Operations, 1)
	assert.Equal(t, op1, second.Operations[0])
	assert.Equal(t, int64(0), second.LatestServerVersion)
}
