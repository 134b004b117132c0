package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/flowforge/agentgraph/graph"
	"github.com/flowforge/agentgraph/cmd/agentgraphd/internal/workflow"
)

var (
	statusStyles = map[graph.Status]lipgloss.Style{
		graph.StatusCompleted: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		graph.StatusFailed:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		graph.StatusCancelled: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
		graph.StatusRunning:   lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
	}
	dimStyle = lipgloss.NewStyle().Faint(true)
)

// progressRenderer prints a one-shot summary of a run's final snapshot.
// There is no live TUI here — the engine's own event stream already covers
// live progress via the emit package; this renders the terminal outcome a
// human reads after the process exits.
type progressRenderer struct{}

func newProgressRenderer() *progressRenderer { return &progressRenderer{} }

func (r *progressRenderer) render(snap graph.ExecutionSnapshot[workflow.State]) {
	style, ok := statusStyles[snap.Status]
	if !ok {
		style = lipgloss.NewStyle()
	}

	fmt.Println(style.Render(fmt.Sprintf("execution %s: %s", snap.ExecutionID, snap.Status)))
	fmt.Println(dimStyle.Render(fmt.Sprintf("  nodes visited: %v", snap.VisitedNodes)))
	if len(snap.Errors) > 0 {
		fmt.Println(dimStyle.Render(fmt.Sprintf("  errors: %v", snap.Errors)))
	}
	if snap.State.Result != "" {
		fmt.Println(dimStyle.Render("  result: " + snap.State.Result))
	}
}
