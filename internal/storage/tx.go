package storage

import (
	"fmt"

	bolt "go.etcd.io/bbolt"
)

// Store names one of the three logical stores a transaction may touch; the
// operations index is reached through StoreOperations.
type Store string

const (
	StoreRows         Store = "rows"
	StoreOperations   Store = "operations"
	StoreClientState  Store = "client_state"
)

// Mode is whether a transaction may mutate its stores.
type Mode int

const (
	ReadOnly Mode = iota
	ReadWrite
)

// Tx is a scoped handle onto the stores a caller asked for. Every mutating
// method on Tx re-checks that its store was granted and that the
// transaction is ReadWrite — violating either fails fast with an error
// naming exactly what was missing, per spec §4.2's transaction contract.
type Tx struct {
	btx    *bolt.Tx
	mode   Mode
	stores map[Store]bool
}

func (t *Tx) require(s Store, needWrite bool) error {
	if !t.stores[s] {
		return fmt.Errorf("%w: transaction did not request store %q", ErrMissingStore, s)
	}
	if needWrite && t.mode != ReadWrite {
		return fmt.Errorf("%w: store %q requires a readwrite transaction", ErrWrongMode, s)
	}
	return nil
}

// Transaction opens one bbolt transaction scoped to stores, in the given
// mode, and runs fn with a *Tx that only grants access to those stores.
// This is the spec's transaction(stores, mode) primitive: every component
// above storage names exactly what it touches, and any mismatch between
// what it names and what it actually calls is caught here rather than
// corrupting state silently.
func (r *Repository) Transaction(stores []Store, mode Mode, fn func(tx *Tx) error) error {
	granted := make(map[Store]bool, len(stores))
	for _, s := range stores {
		granted[s] = true
	}

	run := func(btx *bolt.Tx) error {
		return fn(&Tx{btx: btx, mode: mode, stores: granted})
	}

	if mode == ReadWrite {
		return r.db.Update(run)
	}
	return r.db.View(run)
}
