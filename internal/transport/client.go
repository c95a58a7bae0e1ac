// Package transport is the HTTP collaborator the sync engine talks to
// through the syncengine.Client interface. It knows nothing about CRDTs or
// storage; it marshals a wire.SyncRequest, posts it, and unmarshals a
// wire.SyncResponse or a structured server error — the transport layer
// spec §1 explicitly leaves as an external collaborator.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"crdtkv/internal/wire"
)

// HTTPClient talks to one sync server over HTTP. It implements
// syncengine.Client.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// New returns an HTTPClient for the sequencer at baseURL. A zero timeout
// defaults to 10s — a sync call must never hang a replica forever.
func New(baseURL string, timeout time.Duration) *HTTPClient {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Send posts req to POST {baseURL}/sync and decodes a SyncResponse.
//
// Errors are classified per spec §7: a non-2xx response carrying a
// structured error body becomes a *ServerError (the caller can inspect
// Code and decide, e.g., to reset its checkpoint on
// CLIENT_STATE_OUT_OF_SYNC); anything else — a network failure, a 5xx with
// no body, a context cancellation — becomes a *TransportError, which
// RetryableError reports as safe to retry unless it came from a 4xx with no
// structured body.
func (c *HTTPClient) Send(ctx context.Context, req *wire.SyncRequest) (*wire.SyncResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("transport: marshal sync request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/sync", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("transport: build sync request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Retryable: true, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, classifyErrorResponse(resp)
	}

	var out wire.SyncResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &TransportError{Retryable: true, Cause: fmt.Errorf("decode sync response: %w", err)}
	}
	return &out, nil
}

func classifyErrorResponse(resp *http.Response) error {
	raw, _ := io.ReadAll(resp.Body)

	var body wire.ServerError
	if err := json.Unmarshal(raw, &body); err == nil && body.Code != "" {
		return &ServerError{Code: body.Code, Message: body.Message, Status: resp.StatusCode}
	}

	// No structured body: a bare 5xx is worth retrying, a bare 4xx is a
	// client-side bug and is not.
	return &TransportError{
		Retryable: resp.StatusCode >= 500,
		Cause:     fmt.Errorf("transport: unexpected status %d: %s", resp.StatusCode, string(raw)),
	}
}
