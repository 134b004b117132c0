package subagent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// HTTPSubagent dispatches assignments to a worker runtime reachable over
// HTTP: POST endpoint with a JSON Assignment body, expecting a JSON Result
// back. It rate-limits outbound requests so a large ready-task batch cannot
// overrun a worker pool sized for steady-state load.
type HTTPSubagent struct {
	Endpoint string
	Client   *http.Client
	Limiter  *rate.Limiter
}

// NewHTTPSubagent returns an HTTPSubagent posting to endpoint, limited to
// requestsPerSecond with a burst of the same size. A zero or negative
// requestsPerSecond disables limiting.
func NewHTTPSubagent(endpoint string, requestsPerSecond float64) *HTTPSubagent {
	var limiter *rate.Limiter
	if requestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), int(requestsPerSecond))
	}
	return &HTTPSubagent{
		Endpoint: endpoint,
		Client:   &http.Client{},
		Limiter:  limiter,
	}
}

func (h *HTTPSubagent) Spawn(ctx context.Context, assignment Assignment) (Result, error) {
	if h.Limiter != nil {
		if err := h.Limiter.Wait(ctx); err != nil {
			return Result{}, fmt.Errorf("subagent: rate limit wait: %w", err)
		}
	}

	body, err := json.Marshal(assignment)
	if err != nil {
		return Result{}, fmt.Errorf("subagent: marshal assignment: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.Endpoint, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("subagent: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.Client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("subagent: request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("subagent: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return Result{}, fmt.Errorf("subagent: worker returned status %d: %s", resp.StatusCode, string(data))
	}

	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		return Result{}, fmt.Errorf("subagent: unmarshal result: %w", err)
	}
	return result, nil
}

// SpawnParallel runs each assignment in its own goroutine under an
// errgroup.Group (no concurrency limit is set), collecting exactly one
// Result per input in input order.
// A transport-level failure (as opposed to a per-task Result.Success=false)
// aborts the whole batch once every goroutine has returned.
func (h *HTTPSubagent) SpawnParallel(ctx context.Context, assignments []Assignment) ([]Result, error) {
	results := make([]Result, len(assignments))
	group, gctx := errgroup.WithContext(ctx)
	for i, a := range assignments {
		i, a := i, a
		group.Go(func() error {
			result, err := h.Spawn(gctx, a)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
