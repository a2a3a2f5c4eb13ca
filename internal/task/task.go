// Package task defines the normalized backlog work item model.
package task

// Origin labels the backlog source a task was read from.
type Origin string

const (
	// OriginDocument marks tasks read from a structured backlog document.
	OriginDocument Origin = "document"
	// OriginTracker marks tasks read from an issue tracker.
	OriginTracker Origin = "issue-tracker"
)

// Status labels the lifecycle state of a backlog item at read time.
type Status string

const (
	// StatusPending marks an item nobody has started.
	StatusPending Status = "pending"
	// StatusDone marks a finished item.
	StatusDone Status = "done"
	// StatusInProgress marks an item currently being worked.
	StatusInProgress Status = "in-progress"
)

// Task is a normalized unit of backlog work from any origin.
//
// The catalog reader constructs tasks and never mutates them afterward;
// once a run begins the pipeline is the only writer, and the only fields
// it writes are the review record annotations.
type Task struct {
	ID          string
	Title       string
	Description string
	Origin      Origin
	OriginRef   string
	Status      Status
	Project     string

	// RecordNumber and RecordURL are set once the pipeline claims the
	// task by opening a review record.
	RecordNumber int
	RecordURL    string
}

// WorkspaceContext binds a task to a concrete isolated workspace for
// the lifetime of one attempt. It is never reused across tasks or runs.
type WorkspaceContext struct {
	Branch   string
	Path     string
	RepoPath string
	Remote   string
}
