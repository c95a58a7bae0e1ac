package storage

import (
	"crdtkv/internal/crdt"
)

// AppendOperation appends op to the durable log, keyed by its dot. The
// log is append-only: spec §3 says operations are never deleted, only
// transitioned from unsynced to synced exactly once.
func (t *Tx) AppendOperation(op crdt.Operation, synced bool) error {
	if err := t.require(StoreOperations, true); err != nil {
		return err
	}
	d := op.Dot()
	key := operationKey(d.ClientID, d.Version)

	enc, err := encodeOperation(StoredOperation{Op: op, Synced: synced})
	if err != nil {
		return err
	}
	if err := t.btx.Bucket(bucketOperations).Put(key, enc); err != nil {
		return err
	}

	if synced {
		return t.btx.Bucket(bucketOperationsUnsynced).Delete(key)
	}
	return t.btx.Bucket(bucketOperationsUnsynced).Put(key, []byte{})
}

// GetOperation looks up a single operation by dot.
func (t *Tx) GetOperation(d crdt.Dot) (StoredOperation, bool, error) {
	if err := t.require(StoreOperations, false); err != nil {
		return StoredOperation{}, false, err
	}
	raw := t.btx.Bucket(bucketOperations).Get(operationKey(d.ClientID, d.Version))
	if raw == nil {
		return StoredOperation{}, false, nil
	}
	so, err := decodeOperation(raw)
	if err != nil {
		return StoredOperation{}, false, err
	}
	return so, true, nil
}

// MarkSynced flips an operation's status to synced. Unknown dots and
// already-synced dots are both a no-op — spec §4.2 requires this
// idempotence, and there is no path back to unsynced.
func (t *Tx) MarkSynced(d crdt.Dot) error {
	if err := t.require(StoreOperations, true); err != nil {
		return err
	}
	key := operationKey(d.ClientID, d.Version)
	ops := t.btx.Bucket(bucketOperations)

	raw := ops.Get(key)
	if raw == nil {
		return nil // unknown operation: no-op
	}
	so, err := decodeOperation(raw)
	if err != nil {
		return err
	}
	if so.Synced {
		return nil // already synced: no-op
	}
	so.Synced = true

	enc, err := encodeOperation(so)
	if err != nil {
		return err
	}
	if err := ops.Put(key, enc); err != nil {
		return err
	}
	return t.btx.Bucket(bucketOperationsUnsynced).Delete(key)
}

// GetUnsyncedOperations returns every unsynced operation authored by
// clientID, using the operations_unsynced index so this never scans the
// full log — spec §4.2's requirement for the compound (client_id, synced)
// index.
func (t *Tx) GetUnsyncedOperations(clientID string) ([]crdt.Operation, error) {
	if err := t.require(StoreOperations, false); err != nil {
		return nil, err
	}
	idx := t.btx.Bucket(bucketOperationsUnsynced)
	ops := t.btx.Bucket(bucketOperations)
	prefix := operationClientPrefix(clientID)

	var out []crdt.Operation
	c := idx.Cursor()
	for k, _ := c.Seek(prefix); k != nil && hasPrefix(k, prefix); k, _ = c.Next() {
		raw := ops.Get(k)
		if raw == nil {
			continue // defensive: index and log should never disagree
		}
		so, err := decodeOperation(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, so.Op)
	}
	return out, nil
}

// AllOperations returns every operation ever logged, across all clients,
// in key order. It exists for tests that check log retention (spec
// property 8) and is not on any hot path.
func (t *Tx) AllOperations() ([]StoredOperation, error) {
	if err := t.require(StoreOperations, false); err != nil {
		return nil, err
	}
	var out []StoredOperation
	c := t.btx.Bucket(bucketOperations).Cursor()
	for k, v := c.First(); k != nil; k, v = c.Next() {
		so, err := decodeOperation(v)
		if err != nil {
			return nil, err
		}
		out = append(out, so)
	}
	return out, nil
}
