package graph

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/flowforge/agentgraph/graph/emit"
)

// maxParallelBranches bounds how many fan-out children a single Runner will
// execute concurrently, independent of how many targets a node's Route.Many
// names. golang.org/x/sync/semaphore provides the weighted gate; unlike the
// scheduler's sequential path this is the only place a run holds more than
// one in-flight node.
const maxParallelBranches = 8

// Runner walks a CompiledGraph from a start node (or a checkpointed resume
// point) to completion, applying state deltas under MergeState, persisting
// snapshots through a Checkpointer, and emitting progress events.
//
// A Runner is safe for concurrent use across distinct executionIds; the
// checkpointer is responsible for serializing writes to a single id.
type Runner[S Stateful[S]] struct {
	graph        *CompiledGraph[S]
	checkpointer Checkpointer[S]
	emitter      emit.Emitter
	metrics      *PrometheusMetrics
	sem          *semaphore.Weighted
}

// NewRunner builds a Runner for the given compiled graph. checkpointer and
// emitter may be nil (checkpointing and event emission are skipped), though
// in practice callers pass at least a NullEmitter.
func NewRunner[S Stateful[S]](g *CompiledGraph[S], checkpointer Checkpointer[S], emitter emit.Emitter) *Runner[S] {
	if emitter == nil {
		emitter = emit.NewNullEmitter()
	}
	return &Runner[S]{
		graph:        g,
		checkpointer: checkpointer,
		emitter:      emitter,
		sem:          semaphore.NewWeighted(maxParallelBranches),
	}
}

// WithMetrics attaches a PrometheusMetrics collector, returning the Runner
// for chaining at construction time.
func (r *Runner[S]) WithMetrics(m *PrometheusMetrics) *Runner[S] {
	r.metrics = m
	return r
}

// Run starts a fresh execution at the graph's start node.
func (r *Runner[S]) Run(ctx context.Context, executionID string, initial S, opts ...RunOption) (ExecutionSnapshot[S], error) {
	cfg := defaultRunConfig()
	for _, o := range opts {
		o(cfg)
	}

	now := time.Now().UTC()
	meta := initial.Meta()
	meta.ExecutionID = executionID
	meta.LastUpdated = now
	if meta.Outputs == nil {
		meta.Outputs = map[string]any{}
	}
	state := initial.WithMeta(meta)

	snap := ExecutionSnapshot[S]{
		ExecutionID:   executionID,
		State:         state,
		Status:        StatusRunning,
		CurrentNodeID: r.graph.StartNodeID,
		StartedAt:     now,
		UpdatedAt:     now,
	}
	return r.loop(ctx, snap, cfg)
}

// Resume loads the latest checkpoint for executionID and continues from its
// CurrentNodeID. A checkpoint load failure aborts resume with an explicit
// error, per the error-handling taxonomy (CheckpointError on load failure
// is not recoverable the way a save failure is). A running, paused or failed
// snapshot continues from its CurrentNodeID; a completed or cancelled one is
// returned unchanged.
func (r *Runner[S]) Resume(ctx context.Context, executionID string, opts ...RunOption) (ExecutionSnapshot[S], error) {
	cfg := defaultRunConfig()
	for _, o := range opts {
		o(cfg)
	}
	if r.checkpointer == nil {
		return ExecutionSnapshot[S]{}, ErrNoSuchCheckpoint
	}
	snap, ok, err := r.checkpointer.Load(ctx, executionID, "")
	if err != nil {
		return ExecutionSnapshot[S]{}, &GraphError{Code: CodeCheckpointError, Message: "load failed", Cause: err}
	}
	if !ok {
		return ExecutionSnapshot[S]{}, ErrNoSuchCheckpoint
	}
	if snap.Status != StatusRunning && snap.Status != StatusPaused && snap.Status != StatusFailed {
		return snap, nil
	}
	snap.Status = StatusRunning
	return r.loop(ctx, snap, cfg)
}

func (r *Runner[S]) loop(ctx context.Context, snap ExecutionSnapshot[S], cfg *runConfig) (ExecutionSnapshot[S], error) {
	runCtx := ctx
	if cfg.runWallClockBudget > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, cfg.runWallClockBudget)
		defer cancel()
	}

	for snap.Status == StatusRunning && snap.CurrentNodeID != "" {
		if cfg.maxSteps > 0 && snap.NodeExecutionCount >= cfg.maxSteps {
			return r.finish(ctx, snap, StatusFailed, ErrMaxStepsExceeded)
		}
		if stopped, err := r.checkStop(runCtx, cfg); stopped {
			return r.finish(ctx, snap, statusFor(err), err)
		}

		nodeID := snap.CurrentNodeID
		def, ok := r.graph.Nodes[nodeID]
		if !ok {
			return r.finish(ctx, snap, StatusFailed, &GraphError{Code: CodeNodeNotFound, NodeID: nodeID, Message: "unknown node"})
		}

		r.emitEvent(snap.ExecutionID, nodeID, emit.MsgNodeStarted, nil)
		start := time.Now()

		result, execErr := r.executeWithRetry(runCtx, def, snap.State, cfg, snap.ExecutionID)
		if execErr != nil {
			snap.Errors = append(snap.Errors, execErr.Error())
			r.emitEvent(snap.ExecutionID, nodeID, emit.MsgNodeFailed, map[string]any{"error": execErr.Error()})
			return r.finish(ctx, snap, StatusFailed, execErr)
		}

		if len(result.Route.Many) > 0 {
			merged, perr := r.runParallel(runCtx, result.Route.Many, snap, cfg)
			snap.State = merged
			if perr != nil {
				snap.Errors = append(snap.Errors, perr.Error())
				r.emitEvent(snap.ExecutionID, nodeID, emit.MsgNodeFailed, map[string]any{"error": perr.Error()})
				return r.finish(ctx, snap, StatusFailed, perr)
			}
		} else {
			snap.State = MergeState(snap.State, result.Delta, time.Now().UTC())
		}
		snap.Signals = append(snap.Signals, result.Signals...)
		snap.VisitedNodes = append(snap.VisitedNodes, nodeID)
		snap.NodeExecutionCount++
		snap.UpdatedAt = time.Now().UTC()

		if cfg.autoCheckpoint && r.checkpointer != nil {
			label := "auto"
			if cfg.checkpointLabel != nil {
				label = cfg.checkpointLabel()
			}
			if saveErr := r.checkpointer.Save(ctx, snap.ExecutionID, snap, label); saveErr != nil {
				// CheckpointError on save is a best-effort warning, not a
				// run failure: record the signal and keep going.
				snap.Signals = append(snap.Signals, Signal{
					Kind:    SignalCheckpoint,
					Message: fmt.Sprintf("checkpoint save failed: %v", saveErr),
				})
			} else {
				r.emitEvent(snap.ExecutionID, nodeID, emit.MsgCheckpointSaved, map[string]any{"label": label})
				if r.metrics != nil {
					r.metrics.IncrementCheckpointsSaved(snap.ExecutionID, label)
				}
			}
		}

		r.emitEvent(snap.ExecutionID, nodeID, emit.MsgNodeCompleted, map[string]any{
			"duration_ms": time.Since(start).Milliseconds(),
		})
		if r.metrics != nil {
			r.metrics.RecordStepLatency(snap.ExecutionID, nodeID, time.Since(start), "success")
		}

		next, terminal, err := r.nextNode(nodeID, result, snap.State)
		if err != nil {
			return r.finish(ctx, snap, StatusFailed, err)
		}
		if terminal {
			snap.CurrentNodeID = ""
			break
		}
		snap.CurrentNodeID = next
	}

	if snap.Status == StatusRunning {
		snap.Status = StatusCompleted
	}
	return r.finish(ctx, snap, snap.Status, nil)
}

func (r *Runner[S]) nextNode(nodeID string, result NodeResult[S], state S) (next string, terminal bool, err error) {
	if result.Route.Terminal {
		return "", true, nil
	}
	if result.Route.To != "" {
		if _, ok := r.graph.Nodes[result.Route.To]; !ok {
			return "", false, &GraphError{Code: CodeNodeNotFound, NodeID: result.Route.To, Message: "goto target not defined"}
		}
		return result.Route.To, false, nil
	}
	if len(result.Route.Many) > 0 {
		if dn, ok := r.graph.DefaultNext[nodeID]; ok {
			return dn, false, nil
		}
		return "", true, nil
	}
	if to, matched := evaluateEdges(r.graph.Edges[nodeID], state); matched {
		return to, false, nil
	}
	if dn, ok := r.graph.DefaultNext[nodeID]; ok {
		return dn, false, nil
	}
	return "", true, nil
}

func (r *Runner[S]) checkStop(ctx context.Context, cfg *runConfig) (bool, error) {
	select {
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return true, ErrExecutionTimeout
		}
		return true, ErrCancelled
	default:
	}
	if cfg.cancel != nil {
		select {
		case <-cfg.cancel:
			return true, ErrCancelled
		default:
		}
	}
	return false, nil
}

func statusFor(err error) Status {
	if err == ErrCancelled {
		return StatusCancelled
	}
	return StatusFailed
}

func (r *Runner[S]) finish(ctx context.Context, snap ExecutionSnapshot[S], status Status, err error) (ExecutionSnapshot[S], error) {
	snap.Status = status
	snap.UpdatedAt = time.Now().UTC()
	if r.checkpointer != nil {
		_ = r.checkpointer.Save(ctx, snap.ExecutionID, snap, "latest")
	}
	r.emitEvent(snap.ExecutionID, "", "execution_"+string(status), nil) // status-derived name kept literal; see emit.Msg* for the fixed subset
	return snap, err
}

func (r *Runner[S]) emitEvent(executionID, nodeID, msg string, meta map[string]any) {
	if r.emitter == nil {
		return
	}
	r.emitter.Emit(emit.Event{RunID: executionID, NodeID: nodeID, Msg: msg, Meta: meta})
}

// executeWithRetry runs def.Node.Run, honoring def.Retry: on a retryable
// error with attempts remaining, it sleeps the computed backoff (checking
// cancellation first) and retries, emitting node_retried before each retry.
func (r *Runner[S]) executeWithRetry(ctx context.Context, def NodeDef[S], state S, cfg *runConfig, executionID string) (NodeResult[S], error) {
	nodeCtx := ctx
	timeout := cfg.defaultNodeTimeout
	if def.Retry != nil {
		// Node-level policies may still want the default timeout; a future
		// NodePolicy.Timeout field would override it here.
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		nodeCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	policy := def.Retry
	maxAttempts := 1
	if policy != nil {
		maxAttempts = policy.MaxAttempts
		if maxAttempts < 1 {
			maxAttempts = DefaultRetryPolicy().MaxAttempts
		}
	}

	var result NodeResult[S]
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result = def.Node.Run(nodeCtx, state)
		if result.Err == nil {
			return result, nil
		}
		if policy == nil || attempt >= maxAttempts || !policy.retryable(result.Err) {
			return result, &GraphError{Code: CodeNodeExecutionErr, NodeID: def.ID, Message: result.Err.Error(), Cause: result.Err}
		}
		r.emitEvent(executionID, def.ID, emit.MsgNodeRetried, map[string]any{"attempt": attempt})
		if r.metrics != nil {
			r.metrics.IncrementRetries(executionID, def.ID)
		}
		delay := computeBackoff(policy, attempt)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return result, ctx.Err()
		case <-cfg.cancel:
			timer.Stop()
			return result, ErrCancelled
		case <-timer.C:
		}
	}
	return result, &GraphError{Code: CodeNodeExecutionErr, NodeID: def.ID, Message: "retries exhausted"}
}

// runParallel executes targets as fan-out children of the current node:
// each sees a copy of the pre-fan-out state, runs independently (bounded by
// the runner's semaphore), and the parent waits for every child before
// merging. A child failure propagates only after all siblings finish
// (collect-then-fail); deltas merge in deterministic child-order via
// MergeParallelDeltas (first target wins on field conflicts, lists concat).
func (r *Runner[S]) runParallel(ctx context.Context, targets []string, snap ExecutionSnapshot[S], cfg *runConfig) (S, error) {
	deltas := make([]S, len(targets))
	errs := make([]error, len(targets))

	var wg sync.WaitGroup
	for i, id := range targets {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			if err := r.sem.Acquire(ctx, 1); err != nil {
				errs[i] = err
				return
			}
			defer r.sem.Release(1)

			def, ok := r.graph.Nodes[id]
			if !ok {
				errs[i] = &GraphError{Code: CodeNodeNotFound, NodeID: id, Message: "fan-out target not defined"}
				return
			}
			res, err := r.executeWithRetry(ctx, def, snap.State, cfg, snap.ExecutionID)
			if err != nil {
				errs[i] = err
				return
			}
			deltas[i] = res.Delta
		}(i, id)
	}
	wg.Wait()

	merged := MergeParallelDeltas(snap.State, deltas)
	for _, err := range errs {
		if err != nil {
			return merged, err
		}
	}
	return merged, nil
}
