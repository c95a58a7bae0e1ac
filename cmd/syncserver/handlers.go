package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"crdtkv/internal/wire"
)

// Handler wires the Sequencer up to Gin routes.
type Handler struct {
	seq *Sequencer
}

// NewHandler creates a Handler backed by seq.
func NewHandler(seq *Sequencer) *Handler {
	return &Handler{seq: seq}
}

// Register mounts the sync endpoint and a health check.
func (h *Handler) Register(r *gin.Engine) {
	r.GET("/healthz", h.Health)
	r.POST("/sync", h.Sync)
}

// Health handles GET /healthz.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Sync handles POST /sync: validate the request's integrity hash and
// client id, then hand it to the Sequencer.
func (h *Handler) Sync(c *gin.Context) {
	var req wire.SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, wire.ServerError{
			Code:    wire.ErrInvalidOperationCode,
			Message: err.Error(),
		})
		return
	}

	if req.ClientID == "" {
		c.JSON(http.StatusBadRequest, wire.ServerError{Code: wire.ErrInvalidClientID, Message: "clientId is required"})
		return
	}

	if wire.RequestHash(req.ClientID, req.LastSeenServerVersion, req.Operations) != req.RequestHash {
		c.JSON(http.StatusBadRequest, wire.ServerError{Code: wire.ErrRequestIntegrityFailed, Message: "request hash mismatch"})
		return
	}

	resp := h.seq.HandleSyncRequest(&req)
	c.JSON(http.StatusOK, resp)
}
