package telemetry

// WithExecutionTracking brackets fn with graph.execution.started/completed
// events tracked through collector, tagged by executionID. fn's error (if
// any) is recorded on the failed event and then returned to the caller
// unchanged — tracking never swallows the underlying error, only its own
// I/O failures.
func WithExecutionTracking(collector *Collector, executionID string, fn func() error) error {
	collector.Track("graph.execution.started", nil, "", executionID)

	if err := fn(); err != nil {
		collector.Track("graph.execution.failed", map[string]interface{}{"error": err.Error()}, "", executionID)
		return err
	}

	collector.Track("graph.execution.completed", nil, "", executionID)
	return nil
}

// WithWorkflowTelemetry is WithExecutionTracking's counterpart for
// user-level phases not tied to a single graph execution (e.g. "decompose
// spec into tasks", "publish results"), identified by an opaque id plus a
// human-readable name.
func WithWorkflowTelemetry(collector *Collector, id, name string, fn func() error) error {
	properties := map[string]interface{}{"workflowName": name}
	collector.Track("graph.workflow.started", properties, "", id)

	if err := fn(); err != nil {
		collector.Track("graph.workflow.failed", map[string]interface{}{
			"workflowName": name,
			"error":        err.Error(),
		}, "", id)
		return err
	}

	collector.Track("graph.workflow.completed", properties, "", id)
	return nil
}
