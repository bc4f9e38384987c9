package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"github.com/procflow/engine/pkg/api"
	"github.com/procflow/engine/pkg/log"
)

type (
	// HTTPBridge reaches a native engine host process over its JSON bridge.
	// The host wraps the foreign-function boundary to the numerical engine;
	// this client depends only on the four-operation contract.
	HTTPBridge struct {
		httpClient *http.Client
		base       string
	}

	registerResponse struct {
		Handle  string `json:"handle"`
		Success bool   `json:"success"`
		Error   string `json:"error,omitempty"`
	}

	executeResponse struct {
		Success bool   `json:"success"`
		Error   string `json:"error,omitempty"`
	}
)

var (
	ErrBridgeHTTP     = errors.New("engine bridge returned HTTP error")
	ErrBridgeRejected = errors.New("engine rejected request")
	ErrNotConverged   = errors.New("engine failed to converge")
)

var _ Adapter = (*HTTPBridge)(nil)

// NewHTTPBridge creates a bridge client for the engine host at base
func NewHTTPBridge(base string, timeout time.Duration) *HTTPBridge {
	return &HTTPBridge{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		base: base,
	}
}

// Register creates backing state for the equipment in the engine host and
// returns the handle it assigned
func (b *HTTPBridge) Register(
	ctx context.Context, eq *api.Equipment,
) (Handle, error) {
	body, err := json.Marshal(eq)
	if err != nil {
		return "", err
	}

	respBody, err := b.post(ctx, "/equipment", body)
	if err != nil {
		slog.Error("Equipment registration failed",
			log.Equipment(eq.Name),
			log.Error(err))
		return "", err
	}

	var response registerResponse
	if err := json.Unmarshal(respBody, &response); err != nil {
		return "", err
	}
	if !response.Success {
		return "", fmt.Errorf("%w: %s", ErrBridgeRejected, response.Error)
	}
	return Handle(response.Handle), nil
}

// Execute runs the registered flowsheet to convergence
func (b *HTTPBridge) Execute(ctx context.Context) error {
	respBody, err := b.post(ctx, "/execute", nil)
	if err != nil {
		return err
	}

	var response executeResponse
	if err := json.Unmarshal(respBody, &response); err != nil {
		return err
	}
	if !response.Success {
		if response.Error == "" {
			return ErrNotConverged
		}
		return fmt.Errorf("%w: %s", ErrNotConverged, response.Error)
	}
	return nil
}

// Result reads back the raw result document for a handle. The document
// schema belongs to the engine; callers access fields through gjson paths.
func (b *HTTPBridge) Result(
	ctx context.Context, h Handle,
) (*api.ResultRecord, error) {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, b.base+"/result/"+string(h), nil,
	)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	raw, err := b.do(req)
	if err != nil {
		return nil, err
	}

	return &api.ResultRecord{
		Equipment: api.Name(gjson.GetBytes(raw, "equipment").String()),
		Raw:       raw,
	}, nil
}

// Clear releases all backing state held by the engine host
func (b *HTTPBridge) Clear(ctx context.Context) error {
	_, err := b.post(ctx, "/clear", nil)
	return err
}

func (b *HTTPBridge) post(
	ctx context.Context, path string, body []byte,
) ([]byte, error) {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, b.base+path, bytes.NewReader(body),
	)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	return b.do(req)
}

func (b *HTTPBridge) do(req *http.Request) ([]byte, error) {
	start := time.Now()
	resp, err := b.httpClient.Do(req)
	if err != nil {
		slog.Error("Engine bridge request failed",
			slog.String("path", req.URL.Path),
			slog.Duration("duration", time.Since(start)),
			log.Error(err))
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		slog.Error("Engine bridge HTTP error",
			slog.String("path", req.URL.Path),
			slog.Int("status_code", resp.StatusCode),
			slog.String("response_body", string(respBody)))
		return nil, fmt.Errorf("%w: HTTP %d", ErrBridgeHTTP, resp.StatusCode)
	}
	return respBody, nil
}
