package main

import (
	"sync"

	"crdtkv/internal/wire"
)

// Sequencer is a minimal, in-memory implementation of the "central
// sequencing server" spec §1 treats as an external collaborator. It exists
// so the sync engine can be exercised end to end in tests and local
// development; it is a reference fixture, not a production sequencer —
// there is no persistence, no authentication, and no horizontal scaling
// story here.
//
// Every accepted operation, from any client, is appended to one global
// log and assigned a server version equal to its index. A client's
// lastSeenServerVersion is simply echoed back as baseServerVersion: this
// fixture trusts the client's claim rather than tracking per-client
// checkpoints server-side, which is the one place a production sequencer
// would need to do more work.
type Sequencer struct {
	mu  sync.Mutex
	log []logEntry
}

type logEntry struct {
	op             wire.Operation
	serverVersion  int64
	originClientID string
}

// NewSequencer returns an empty in-memory sequencer.
func NewSequencer() *Sequencer {
	return &Sequencer{}
}

// HandleSyncRequest applies one SyncRequest: appends its operations to the
// global log and returns everything other clients have committed since
// base. It never returns an error for a request that parsed and hashed
// correctly — malformed or tampered requests are the caller's job to
// reject before calling this.
func (s *Sequencer) HandleSyncRequest(req *wire.SyncRequest) *wire.SyncResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	base := req.LastSeenServerVersion
	synced := make([]wire.Dot, 0, len(req.Operations))
	for _, op := range req.Operations {
		s.log = append(s.log, logEntry{
			op:             op,
			serverVersion:  int64(len(s.log)),
			originClientID: req.ClientID,
		})
		synced = append(synced, op.Dot)
	}

	latest := int64(len(s.log) - 1)
	if latest < base {
		latest = base
	}

	var outOps []wire.Operation
	for _, e := range s.log {
		if e.serverVersion > base && e.originClientID != req.ClientID {
			outOps = append(outOps, e.op)
		}
	}

	resp := &wire.SyncResponse{
		BaseServerVersion:   base,
		LatestServerVersion: latest,
		Operations:          outOps,
		SyncedOperations:    synced,
	}
	resp.ResponseHash = wire.ResponseHash(resp.BaseServerVersion, resp.LatestServerVersion, resp.Operations, resp.SyncedOperations)
	return resp
}
