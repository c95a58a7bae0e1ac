// Package clock implements the per-replica logical clock (spec §4.4): the
// strictly increasing version a replica stamps its own writes with, and the
// max-merge it performs with the highest dot version among the remote
// operations it receives.
package clock

import (
	"fmt"

	"crdtkv/internal/storage"
)

// Tick advances the local clock by one and returns the new value. It must
// only ever be called inside a transaction that also holds client_state for
// write, and only after Open has durably assigned a client_id — storage.Open
// guarantees the latter by construction.
func Tick(tx *storage.Tx) (int64, error) {
	v, err := tx.LogicalClock()
	if err != nil {
		return 0, fmt.Errorf("clock: tick: %w", err)
	}
	next := v + 1
	if err := tx.SetLogicalClock(next); err != nil {
		return 0, fmt.Errorf("clock: tick: %w", err)
	}
	return next, nil
}

// Sync folds a remote version into the local clock by taking the max. A
// replica's own clock never regresses, even if the remote version is lower
// than what the replica has already produced locally.
func Sync(tx *storage.Tx, remote int64) (int64, error) {
	v, err := tx.LogicalClock()
	if err != nil {
		return 0, fmt.Errorf("clock: sync: %w", err)
	}
	next := v
	if remote > next {
		next = remote
	}
	if next != v {
		if err := tx.SetLogicalClock(next); err != nil {
			return 0, fmt.Errorf("clock: sync: %w", err)
		}
	}
	return next, nil
}
