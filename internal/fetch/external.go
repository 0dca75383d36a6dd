package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"fragnav/internal/logging"

	"go.uber.org/zap"
)

// Result is the two-shape answer of FetchData: {success, data} or {success:false, error}.
type Result struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// External fetches JSON from the configured API for page-specific logic.
type External struct {
	client  *http.Client
	baseURL string
	maxBody int64
	logger  *zap.Logger
}

// NewExternal creates an External client rooted at baseURL.
func NewExternal(baseURL string, client *http.Client, logger *zap.Logger) *External {
	if client == nil {
		client = http.DefaultClient
	}
	return &External{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		maxBody: defaultMaxBody,
		logger:  logging.OrNop(logger),
	}
}

// FetchData GETs <base>/<endpoint> and decodes the JSON body. Failures are reported
// in the Result, never as a Go error.
func (e *External) FetchData(ctx context.Context, endpoint string) Result {
	data, err := e.get(ctx, endpoint)
	if err != nil {
		e.logger.Warn("external data fetch failed", zap.String("endpoint", endpoint), zap.Error(err))
		return Result{Success: false, Error: err.Error()}
	}
	return Result{Success: true, Data: data}
}

func (e *External) get(ctx context.Context, endpoint string) (json.RawMessage, error) {
	target := e.baseURL + "/" + strings.TrimLeft(endpoint, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, e.maxBody))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("invalid JSON from %s", target)
	}
	return json.RawMessage(body), nil
}
