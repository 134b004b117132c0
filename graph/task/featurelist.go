package task

import "fmt"

// FeatureListItem is the other task-list shape the source material uses
// (research/feature-list.json): {category, description, steps, passes}. It
// has no dependency or status concept of its own — every feature is
// considered independent and not-yet-attempted.
type FeatureListItem struct {
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Steps       []string `json:"steps,omitempty"`
	Passes      bool     `json:"passes"`
}

// FromFeatureList converts a feature list into the canonical List shape
// (tasks.json's {id, content, activeForm, status, blockedBy}). The
// conversion is one-way: ids are assigned sequentially in input order,
// Passes=true maps to StatusCompleted and Passes=false to StatusPending,
// and no blockedBy relationships are inferred — feature lists carry no
// dependency information, so every converted task starts unblocked.
func FromFeatureList(items []FeatureListItem) List {
	tasks := make([]Task, len(items))
	for i, item := range items {
		status := StatusPending
		if item.Passes {
			status = StatusCompleted
		}
		content := item.Description
		if item.Category != "" {
			content = fmt.Sprintf("[%s] %s", item.Category, item.Description)
		}
		tasks[i] = Task{
			ID:         fmt.Sprintf("#%d", i+1),
			Content:    content,
			ActiveForm: activeFormFor(item),
			Status:     status,
		}
	}
	return NewList(tasks)
}

func activeFormFor(item FeatureListItem) string {
	if len(item.Steps) > 0 {
		return item.Steps[0]
	}
	return item.Description
}
