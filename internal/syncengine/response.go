package syncengine

import (
	"fmt"

	"crdtkv/internal/clock"
	"crdtkv/internal/crdt"
	"crdtkv/internal/rlog"
	"crdtkv/internal/storage"
	"crdtkv/internal/wire"
)

var responseStores = []storage.Store{storage.StoreClientState, storage.StoreOperations, storage.StoreRows}

// ApplyResponse runs spec §4.3 "Applying a response" end to end, inside one
// readwrite transaction over client_state, operations, and rows.
//
//   - A hash mismatch aborts the transaction and returns
//     ErrResponseHashMismatch: no state changes.
//   - A stale baseServerVersion is a silent drop: the transaction still
//     commits, but it does nothing, and ApplyResponse returns (false, nil)
//     so the caller can log a warning without treating it as failure.
//   - A malformed incoming operation aborts the transaction and returns an
//     error wrapping ErrMalformedOperation.
//   - Any other persistence fault aborts the transaction, is logged, and is
//     returned to the caller without panicking — callers retry on their own
//     schedule.
//
// The returned bool reports whether the response was actually applied
// (true) or dropped as stale (false).
func ApplyResponse(repo *storage.Repository, resp *wire.SyncResponse) (bool, error) {
	if resp.ResponseHash != wire.ResponseHash(resp.BaseServerVersion, resp.LatestServerVersion, resp.Operations, resp.SyncedOperations) {
		return false, ErrResponseHashMismatch
	}

	var applied bool
	err := repo.Transaction(responseStores, storage.ReadWrite, func(tx *storage.Tx) error {
		lastSeen, err := tx.LastSeenServerVersion()
		if err != nil {
			return err
		}
		if resp.BaseServerVersion != lastSeen {
			rlog.Logger.Warn().
				Int64("expected", lastSeen).
				Int64("got", resp.BaseServerVersion).
				Msg("dropping stale sync response")
			return nil
		}

		remoteOps, err := decodeAndValidate(resp.Operations)
		if err != nil {
			return err
		}

		if err := mergeBatched(tx, remoteOps); err != nil {
			return err
		}

		for _, d := range resp.SyncedOperations {
			if err := tx.MarkSynced(wire.FromDot(d)); err != nil {
				return err
			}
		}

		if err := tx.SetLastSeenServerVersion(resp.LatestServerVersion); err != nil {
			return err
		}

		if len(remoteOps) > 0 {
			maxVersion := remoteOps[0].Dot().Version
			for _, op := range remoteOps[1:] {
				if v := op.Dot().Version; v > maxVersion {
					maxVersion = v
				}
			}
			if _, err := clock.Sync(tx, maxVersion); err != nil {
				return err
			}
		}

		applied = true
		return nil
	})
	if err != nil {
		rlog.Logger.Error().Err(err).Msg("sync response application failed; transaction rolled back")
		return false, err
	}
	return applied, nil
}

func decodeAndValidate(ops []wire.Operation) ([]crdt.Operation, error) {
	out := make([]crdt.Operation, 0, len(ops))
	for _, w := range ops {
		op, err := wire.FromOperation(w)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedOperation, err)
		}
		out = append(out, op)
	}
	return out, nil
}

type rowIdent struct {
	table string
	key   string
}

// mergeBatched groups remote operations by (table, row_key), loads each row
// once, folds every operation in arrival order through crdt.Apply, and
// saves once per row — spec §4.3 step 4. Every remote operation is appended
// to the log as already synced, regardless of which row it touched.
func mergeBatched(tx *storage.Tx, ops []crdt.Operation) error {
	order := make([]rowIdent, 0)
	grouped := make(map[rowIdent][]crdt.Operation)
	for _, op := range ops {
		id := rowIdent{table: op.Table(), key: op.RowKey()}
		if _, seen := grouped[id]; !seen {
			order = append(order, id)
		}
		grouped[id] = append(grouped[id], op)
	}

	for _, id := range order {
		row, err := tx.GetRow(id.table, id.key)
		if err != nil {
			return err
		}
		for _, op := range grouped[id] {
			row, err = crdt.Apply(row, op)
			if err != nil {
				return fmt.Errorf("%w: %w", ErrMalformedOperation, err)
			}
		}
		if err := tx.SaveRow(id.table, id.key, row); err != nil {
			return err
		}
	}

	for _, op := range ops {
		if err := tx.AppendOperation(op, true); err != nil {
			return err
		}
	}
	return nil
}
