package syncengine

import (
	"crdtkv/internal/storage"
	"crdtkv/internal/wire"
)

var requestStores = []storage.Store{storage.StoreClientState, storage.StoreOperations}

// BuildRequest composes a SyncRequest from this replica's unsynced
// operations, in a single readonly transaction over client_state and
// operations (spec §4.3 "Composing a request"). It always returns a
// request, even with zero operations — polling with an empty batch is how
// a replica learns about other replicas' writes.
func BuildRequest(repo *storage.Repository) (*wire.SyncRequest, error) {
	var req *wire.SyncRequest
	err := repo.Transaction(requestStores, storage.ReadOnly, func(tx *storage.Tx) error {
		clientID, err := tx.ClientID()
		if err != nil {
			return err
		}
		lastSeen, err := tx.LastSeenServerVersion()
		if err != nil {
			return err
		}
		localOps, err := tx.GetUnsyncedOperations(clientID)
		if err != nil {
			return err
		}

		ops := make([]wire.Operation, 0, len(localOps))
		for _, op := range localOps {
			w, err := wire.ToOperation(op)
			if err != nil {
				return err
			}
			ops = append(ops, w)
		}

		req = &wire.SyncRequest{
			ClientID:              clientID,
			LastSeenServerVersion: lastSeen,
			Operations:            ops,
			RequestHash:           wire.RequestHash(clientID, lastSeen, ops),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}
