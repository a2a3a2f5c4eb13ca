// Package pipeline sequences one backlog task from selection to a
// terminal outcome, owning the failure-compensation logic.
package pipeline

import "autodev/internal/task"

// Status is the terminal result of one orchestration run.
type Status string

const (
	// StatusCompleted means the task was implemented, published, and its
	// review record finalized.
	StatusCompleted Status = "completed"
	// StatusCompletedWithWarning means the work landed but the final
	// record title update failed.
	StatusCompletedWithWarning Status = "completed-with-warning"
	// StatusFailed means a pipeline step failed and cleanup ran.
	StatusFailed Status = "failed"
	// StatusNoEligibleTask means nothing in the catalog was claimable.
	StatusNoEligibleTask Status = "no-eligible-task"
	// StatusNoProjectConfig means the requested project is not configured.
	StatusNoProjectConfig Status = "no-project-config"
	// StatusNoConfiguration means no configuration file exists.
	StatusNoConfiguration Status = "no-configuration"
	// StatusError means a fault escaped a collaborator and was caught at
	// the pipeline boundary.
	StatusError Status = "error"
)

// Outcome is the immutable terminal result of one invocation.
type Outcome struct {
	Status       Status
	Task         task.Task
	RecordNumber int
	Message      string
}

// Success reports whether the run's work product is intact.
func (o Outcome) Success() bool {
	return o.Status == StatusCompleted || o.Status == StatusCompletedWithWarning
}
