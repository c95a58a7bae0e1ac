package syncengine

import (
	"context"
	"sync"

	"crdtkv/internal/rlog"
	"crdtkv/internal/storage"
	"crdtkv/internal/wire"
)

// Client is the transport collaborator the engine needs: send one
// SyncRequest, get back one SyncResponse or an error. The concrete
// implementation (internal/transport) is an external collaborator per
// spec §1 — the engine only depends on this interface, never on net/http.
type Client interface {
	Send(ctx context.Context, req *wire.SyncRequest) (*wire.SyncResponse, error)
}

// Engine drives one sync cycle at a time against a Repository and a
// transport Client. Spec §5 requires at most one sync transaction in
// flight per replica; Go's scheduler offers real concurrency where the
// spec's assumed single-threaded cooperative runtime did not, so this
// mutex is the part of the ambient concurrency model Go needs that the
// spec's source environment got for free.
type Engine struct {
	repo *storage.Repository
	tp   Client

	mu sync.Mutex
}

// New returns an Engine ready to drive sync cycles.
func New(repo *storage.Repository, tp Client) *Engine {
	return &Engine{repo: repo, tp: tp}
}

// RunCycle executes exactly one Idle -> RequestReady -> AwaitingResponse ->
// Idle transition of the state machine in spec §4.3. A cancelled context
// leaves the replica unchanged: BuildRequest is read-only and the
// transport call is the only suspension point that can be interrupted
// before any write happens.
func (e *Engine) RunCycle(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	req, err := BuildRequest(e.repo)
	if err != nil {
		return err
	}

	resp, err := e.tp.Send(ctx, req)
	if err != nil {
		return err
	}

	applied, err := ApplyResponse(e.repo, resp)
	if err != nil {
		return err
	}
	if !applied {
		rlog.Logger.Info().Msg("sync cycle completed with a dropped stale response")
	}
	return nil
}
