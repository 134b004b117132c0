package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/flowforge/agentgraph/graph"
	"github.com/flowforge/agentgraph/graph/checkpoint"
	"github.com/flowforge/agentgraph/graph/model"
	"github.com/flowforge/agentgraph/graph/model/anthropic"
	"github.com/flowforge/agentgraph/graph/model/google"
	"github.com/flowforge/agentgraph/graph/model/openai"
	"github.com/flowforge/agentgraph/graph/store"
	"github.com/flowforge/agentgraph/subagent"
	"github.com/flowforge/agentgraph/telemetry"

	"github.com/flowforge/agentgraph/cmd/agentgraphd/internal/workflow"
)

var runCmd = &cobra.Command{
	Use:   "run [spec-file]",
	Short: "Decompose a spec into tasks and run the demo workflow to completion",
	Args:  cobra.ExactArgs(1),
	RunE:  runWorkflow,
}

func runWorkflow(cmd *cobra.Command, args []string) error {
	specBytes, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read spec file: %w", err)
	}

	worker := buildWorker()

	compiled, err := workflow.Build(worker)
	if err != nil {
		return fmt.Errorf("compile workflow graph: %w", err)
	}

	sessionsRoot := viper.GetString("sessions_root")
	checkpointer, err := checkpoint.NewFSCheckpointer[workflow.State](sessionsRoot)
	if err != nil {
		return fmt.Errorf("open checkpointer: %w", err)
	}

	auditMirror, closeAudit, err := buildAuditMirror(sessionsRoot)
	if err != nil {
		return fmt.Errorf("open audit store: %w", err)
	}
	defer closeAudit()

	collector, err := telemetry.NewCollector(sessionsRoot)
	if err != nil {
		return fmt.Errorf("open telemetry collector: %w", err)
	}
	defer collector.Shutdown(context.Background())

	executionID := uuid.NewString()
	progress := telemetry.NewProgressHandler(collector, executionID)

	runner := graph.NewRunner[workflow.State](compiled, checkpointer, progress)

	renderer := newProgressRenderer()
	err = telemetry.WithExecutionTracking(collector, executionID, func() error {
		snap, runErr := runner.Run(context.Background(), executionID, workflow.State{Spec: string(specBytes)})
		if mirrorErr := auditMirror.Mirror(context.Background(), snap); mirrorErr != nil {
			fmt.Fprintf(os.Stderr, "agentgraphd: audit mirror: %v\n", mirrorErr)
		}
		renderer.render(snap)
		return runErr
	})
	if err != nil {
		return fmt.Errorf("run workflow: %w", err)
	}
	return nil
}

// buildAuditMirror opens a SQLite-backed Store[workflow.State] under the
// session root and wraps it as an AuditMirror, so every run snapshot is also
// queryable via SQL independent of the FSCheckpointer used for resume.
func buildAuditMirror(sessionsRoot string) (*store.AuditMirror[workflow.State], func(), error) {
	dbPath := filepath.Join(sessionsRoot, "audit.db")
	s, err := store.NewSQLiteStore[workflow.State](dbPath)
	if err != nil {
		return nil, nil, err
	}
	return store.NewAuditMirror[workflow.State](s), func() { _ = s.Close() }, nil
}

func buildWorker() subagent.Subagent {
	if provider := viper.GetString("subagent_provider"); provider != "" {
		return subagent.NewChatModelSubagent(buildChatModel(provider))
	}
	if endpoint := viper.GetString("subagent_endpoint"); endpoint != "" {
		return subagent.NewHTTPSubagent(endpoint, viper.GetFloat64("subagent_rate"))
	}
	return &subagent.MockSubagent{
		Default: subagent.Result{Success: true, Output: "completed by the demo mock worker"},
	}
}

// buildChatModel wires the --subagent-provider flag to a concrete
// graph/model adapter, reading the matching API key from the environment
// the way each provider's own constructor expects callers to.
func buildChatModel(provider string) model.ChatModel {
	modelName := viper.GetString("subagent_model")
	switch provider {
	case "anthropic":
		return anthropic.NewChatModel(os.Getenv("ANTHROPIC_API_KEY"), modelName)
	case "google":
		return google.NewChatModel(os.Getenv("GOOGLE_API_KEY"), modelName)
	default:
		return openai.NewChatModel(os.Getenv("OPENAI_API_KEY"), modelName)
	}
}

// resumeCmd reconstructs a run by executionID and continues it from its
// last checkpoint.
var resumeCmd = &cobra.Command{
	Use:   "resume [execution-id]",
	Short: "Resume a previously checkpointed workflow execution",
	Args:  cobra.ExactArgs(1),
	RunE:  resumeWorkflow,
}

func resumeWorkflow(cmd *cobra.Command, args []string) error {
	executionID := args[0]
	worker := buildWorker()

	compiled, err := workflow.Build(worker)
	if err != nil {
		return fmt.Errorf("compile workflow graph: %w", err)
	}

	sessionsRoot := viper.GetString("sessions_root")
	checkpointer, err := checkpoint.NewFSCheckpointer[workflow.State](sessionsRoot)
	if err != nil {
		return fmt.Errorf("open checkpointer: %w", err)
	}

	auditMirror, closeAudit, err := buildAuditMirror(sessionsRoot)
	if err != nil {
		return fmt.Errorf("open audit store: %w", err)
	}
	defer closeAudit()

	collector, err := telemetry.NewCollector(sessionsRoot)
	if err != nil {
		return fmt.Errorf("open telemetry collector: %w", err)
	}
	defer collector.Shutdown(context.Background())

	progress := telemetry.NewProgressHandler(collector, executionID)
	runner := graph.NewRunner[workflow.State](compiled, checkpointer, progress)

	renderer := newProgressRenderer()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	snap, err := runner.Resume(ctx, executionID)
	if mirrorErr := auditMirror.Mirror(context.Background(), snap); mirrorErr != nil {
		fmt.Fprintf(os.Stderr, "agentgraphd: audit mirror: %v\n", mirrorErr)
	}
	renderer.render(snap)
	if err != nil {
		return fmt.Errorf("resume workflow: %w", err)
	}
	return nil
}
