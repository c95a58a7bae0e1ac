package syncengine

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crdtkv/internal/storage"
	"crdtkv/internal/wire"
)

func openRepo(t *testing.T) *storage.Repository {
	t.Helper()
	repo, err := storage.Open(filepath.Join(t.TempDir(), "repl.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func setLastSeen(t *testing.T, repo *storage.Repository, v int64) {
	t.Helper()
	require.NoError(t, repo.Transaction([]storage.Store{storage.StoreClientState}, storage.ReadWrite, func(tx *storage.Tx) error {
		return tx.SetLastSeenServerVersion(v)
	}))
}

func sign(resp *wire.SyncResponse) {
	resp.ResponseHash = wire.ResponseHash(resp.BaseServerVersion, resp.LatestServerVersion, resp.Operations, resp.SyncedOperations)
}

// S6: stale sync drop.
func TestApplyResponse_S6_StaleBaseVersionIsDropped(t *testing.T) {
	repo := openRepo(t)
	setLastSeen(t, repo, 42)

	resp := &wire.SyncResponse{BaseServerVersion: 17, LatestServerVersion: 99}
	sign(resp)

	applied, err := ApplyResponse(repo, resp)
	require.NoError(t, err)
	assert.False(t, applied)

	require.NoError(t, repo.Transaction([]storage.Store{storage.StoreClientState}, storage.ReadOnly, func(tx *storage.Tx) error {
		v, err := tx.LastSeenServerVersion()
		require.NoError(t, err)
		assert.Equal(t, int64(42), v)
		clk, err := tx.LogicalClock()
		require.NoError(t, err)
		assert.Equal(t, int64(-1), clk)
		return nil
	}))
}

// S7: successful sync.
func TestApplyResponse_S7_SuccessfulSyncMergesAndAdvancesCheckpoints(t *testing.T) {
	repo := openRepo(t)
	setLastSeen(t, repo, 10)

	localDot := wire.Dot{ClientID: "c1", Version: 3}
	require.NoError(t, repo.Transaction([]storage.Store{storage.StoreOperations}, storage.ReadWrite, func(tx *storage.Tx) error {
		op, err := wire.FromOperation(wire.Operation{
			Type: wire.TypeSet, Table: "t", RowKey: "r", Field: "m", Value: json.RawMessage(`"old"`), Dot: localDot,
		})
		require.NoError(t, err)
		return tx.AppendOperation(op, false)
	}))

	remoteOp := wire.Operation{
		Type: wire.TypeSet, Table: "t", RowKey: "r", Field: "n", Value: json.RawMessage(`"X"`),
		Dot: wire.Dot{ClientID: "c2", Version: 1},
	}
	resp := &wire.SyncResponse{
		BaseServerVersion:   10,
		LatestServerVersion: 15,
		Operations:          []wire.Operation{remoteOp},
		SyncedOperations:    []wire.Dot{localDot},
	}
	sign(resp)

	applied, err := ApplyResponse(repo, resp)
	require.NoError(t, err)
	assert.True(t, applied)

	require.NoError(t, repo.Transaction([]storage.Store{storage.StoreRows, storage.StoreOperations, storage.StoreClientState}, storage.ReadOnly, func(tx *storage.Tx) error {
		row, err := tx.GetRow("t", "r")
		require.NoError(t, err)
		require.NotNil(t, row)
		assert.JSONEq(t, `"X"`, string(row.Fields["n"].Value))

		remoteStored, ok, err := tx.GetOperation(wire.FromDot(remoteOp.Dot))
		require.NoError(t, err)
		require.True(t, ok)
		assert.True(t, remoteStored.Synced)

		localStored, ok, err := tx.GetOperation(wire.FromDot(localDot))
		require.NoError(t, err)
		require.True(t, ok)
		assert.True(t, localStored.Synced)

		lsv, err := tx.LastSeenServerVersion()
		require.NoError(t, err)
		assert.Equal(t, int64(15), lsv)

		clk, err := tx.LogicalClock()
		require.NoError(t, err)
		assert.GreaterOrEqual(t, clk, int64(1))
		return nil
	}))
}

func TestApplyResponse_HashMismatchLeavesStateUntouched(t *testing.T) {
	repo := openRepo(t)
	setLastSeen(t, repo, 10)

	resp := &wire.SyncResponse{BaseServerVersion: 10, LatestServerVersion: 20, ResponseHash: "not-a-real-hash"}

	_, err := ApplyResponse(repo, resp)
	assert.ErrorIs(t, err, ErrResponseHashMismatch)

	require.NoError(t, repo.Transaction([]storage.Store{storage.StoreClientState}, storage.ReadOnly, func(tx *storage.Tx) error {
		v, err := tx.LastSeenServerVersion()
		require.NoError(t, err)
		assert.Equal(t, int64(10), v)
		return nil
	}))
}

func TestApplyResponse_MalformedOperationAbortsWholeTransaction(t *testing.T) {
	repo := openRepo(t)
	setLastSeen(t, repo, 10)

	good := wire.Operation{Type: wire.TypeSet, Table: "t", RowKey: "r1", Field: "n", Value: json.RawMessage(`1`), Dot: wire.Dot{ClientID: "c2", Version: 1}}
	bad := wire.Operation{Type: wire.TypeSet, Table: "t", RowKey: "r2", Dot: wire.Dot{ClientID: "c2", Version: 2}} // missing field+value

	resp := &wire.SyncResponse{BaseServerVersion: 10, LatestServerVersion: 20, Operations: []wire.Operation{good, bad}}
	sign(resp)

	_, err := ApplyResponse(repo, resp)
	assert.ErrorIs(t, err, ErrMalformedOperation)

	require.NoError(t, repo.Transaction([]storage.Store{storage.StoreRows, storage.StoreClientState}, storage.ReadOnly, func(tx *storage.Tx) error {
		row, err := tx.GetRow("t", "r1")
		require.NoError(t, err)
		assert.Nil(t, row, "no partial writes should survive an aborted response")

		v, err := tx.LastSeenServerVersion()
		require.NoError(t, err)
		assert.Equal(t, int64(10), v)
		return nil
	}))
}

func TestApplyResponse_IsIdempotentUnderRedelivery(t *testing.T) {
	repo := openRepo(t)
	setLastSeen(t, repo, 0)

	resp := &wire.SyncResponse{
		BaseServerVersion:   0,
		LatestServerVersion: 5,
		Operations: []wire.Operation{
			{Type: wire.TypeSet, Table: "t", RowKey: "r", Field: "n", Value: json.RawMessage(`"X"`), Dot: wire.Dot{ClientID: "c2", Version: 1}},
		},
	}
	sign(resp)

	_, err := ApplyResponse(repo, resp)
	require.NoError(t, err)

	// Re-delivering the identical response after the checkpoint already
	// advanced is stale and must be dropped, not reapplied.
	applied, err := ApplyResponse(repo, resp)
	require.NoError(t, err)
	assert.False(t, applied)
}
