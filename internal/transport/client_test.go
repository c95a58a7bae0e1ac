package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crdtkv/internal/wire"
)

func TestSend_DecodesSuccessfulResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sync", r.URL.Path)
		var req wire.SyncRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "c1", req.ClientID)

		_ = json.NewEncoder(w).Encode(wire.SyncResponse{BaseServerVersion: -1, LatestServerVersion: 3})
	}))
	defer srv.Close()

	c := New(srv.URL, 0)
	resp, err := c.Send(context.Background(), &wire.SyncRequest{ClientID: "c1", LastSeenServerVersion: -1})
	require.NoError(t, err)
	assert.Equal(t, int64(3), resp.LatestServerVersion)
}

func TestSend_ClassifiesStructuredServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(wire.ServerError{Code: wire.ErrClientStateOutOfSync, Message: "checkpoint diverged"})
	}))
	defer srv.Close()

	c := New(srv.URL, 0)
	_, err := c.Send(context.Background(), &wire.SyncRequest{})

	var serverErr *ServerError
	require.ErrorAs(t, err, &serverErr)
	assert.Equal(t, wire.ErrClientStateOutOfSync, serverErr.Code)
	assert.True(t, RetryableError(err))
}

func TestSend_ClassifiesBareStatusCodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer srv.Close()

	c := New(srv.URL, 0)
	_, err := c.Send(context.Background(), &wire.SyncRequest{})

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.True(t, transportErr.Retryable)
	assert.True(t, RetryableError(err))
}

func TestSend_NetworkFailureIsRetryable(t *testing.T) {
	c := New("http://127.0.0.1:0", 0)
	_, err := c.Send(context.Background(), &wire.SyncRequest{})

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.True(t, transportErr.Retryable)
}
