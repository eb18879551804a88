package testevents

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	service "github.com/okian/cuju/internal/app"
	types "github.com/okian/cuju/internal/domain/types"
)

// HTTPClient wraps http.Client with a fixed timeout.
type HTTPClient struct {
	client *http.Client
}

func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{client: &http.Client{Timeout: timeout}}
}

func (c *HTTPClient) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// wireRecord mirrors the NDJSON envelope produced by the engine's HTTP
// solve handler (one of progress/complete/error per line).
type wireRecord struct {
	Type     string                `json:"type"`
	Progress *types.ProgressRecord `json:"progress,omitempty"`
	Complete *types.CompleteRecord `json:"complete,omitempty"`
	Error    *types.ErrorRecord    `json:"error,omitempty"`
}

// checkServiceHealth verifies the engine is reachable before generating
// load against it.
func checkServiceHealth(ctx context.Context, cfg *Config) error {
	client := newHTTPClient(cfg.Timeout)
	resp, err := client.get(ctx, cfg.BaseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to engine: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != StatusOK {
		return fmt.Errorf("engine health check failed with status: %d", resp.StatusCode)
	}
	return nil
}

// streamSolve submits req to /solve and decodes its NDJSON response one
// record at a time, invoking onRecord for each. It returns once the stream
// closes (the terminal record has been delivered) or ctx is cancelled.
func streamSolve(ctx context.Context, cfg *Config, req service.Request, onRecord func(wireRecord)) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal solve request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.BaseURL+"/solve", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create solve request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	client := &http.Client{}
	resp, err := client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to submit solve request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("solve request rejected with status %d", resp.StatusCode)
	}

	dec := json.NewDecoder(resp.Body)
	for dec.More() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		var rec wireRecord
		if err := dec.Decode(&rec); err != nil {
			return fmt.Errorf("failed to decode solve record: %w", err)
		}
		onRecord(rec)
	}
	return nil
}
