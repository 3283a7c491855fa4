package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/okian/rally/internal/domain/features"
)

const (
	defaultRemoteTimeout = 2 * time.Second
	maxResponseBytes     = 1 << 20
)

// RemoteOption applies a configuration option to the RemotePredictor.
type RemoteOption func(*RemotePredictor)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) RemoteOption {
	return func(r *RemotePredictor) {
		if d > 0 {
			r.client.Timeout = d
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) RemoteOption {
	return func(r *RemotePredictor) {
		if c != nil {
			r.client = c
		}
	}
}

// RemotePredictor calls an external model server. It posts
// {"inputs":[[age, elo1, elo2, grad1, grad2]]} and expects {"outputs":[code]}.
type RemotePredictor struct {
	url    string
	client *http.Client
}

type remoteRequest struct {
	Inputs [][]float64 `json:"inputs"`
}

type remoteResponse struct {
	Outputs []json.Number `json:"outputs"`
}

// NewRemotePredictor creates a predictor for the model server at url.
func NewRemotePredictor(url string, opts ...RemoteOption) *RemotePredictor {
	r := &RemotePredictor{
		url:    url,
		client: &http.Client{Timeout: defaultRemoteTimeout},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Predict implements Predictor.
func (r *RemotePredictor) Predict(ctx context.Context, v features.Vector) (int, error) {
	body, err := json.Marshal(remoteRequest{Inputs: [][]float64{v.Slice()}})
	if err != nil {
		return 0, fmt.Errorf("%w: marshal request: %w", ErrPredictor, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("%w: create request: %w", ErrPredictor, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrPredictor, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return 0, fmt.Errorf("%w: read response: %w", ErrPredictor, err)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: status %d: %s", ErrPredictor, resp.StatusCode, bytes.TrimSpace(data))
	}

	var out remoteResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return 0, fmt.Errorf("%w: decode response: %w", ErrPredictor, err)
	}
	if len(out.Outputs) != 1 {
		return 0, fmt.Errorf("%w: expected one output, got %d", ErrPredictor, len(out.Outputs))
	}
	code, err := out.Outputs[0].Float64()
	if err != nil || code != math.Trunc(code) {
		return 0, fmt.Errorf("%w: non-integer output %q", ErrUnknownOutcome, out.Outputs[0])
	}
	return int(code), nil
}
