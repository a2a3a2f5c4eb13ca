package publish

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"autodev/internal/review"
	"autodev/internal/task"
	"autodev/internal/vcs"
)

// RecordClient is the review surface the publisher drives.
type RecordClient interface {
	Create(branch string, title string, body string) (review.Record, error)
	UpdateTitle(number int, title string) error
}

// CommitResult reports what the commit-and-push step found.
type CommitResult struct {
	// Clean means the delegate left no changes to publish.
	Clean bool
}

// Publisher commits delegate output and opens review records for it.
type Publisher struct {
	records RecordClient
	now     func() time.Time
}

// NewPublisher builds a Publisher over the review surface.
func NewPublisher(records RecordClient) (*Publisher, error) {
	if records == nil {
		return nil, errors.New("record client is required")
	}
	return &Publisher{records: records, now: time.Now}, nil
}

// CommitAndPush stages, commits, and pushes everything the delegate left
// in the workspace. A clean tree is reported, not committed.
func (p *Publisher) CommitAndPush(ws task.WorkspaceContext, message string) (CommitResult, error) {
	if strings.TrimSpace(ws.Path) == "" {
		return CommitResult{}, errors.New("workspace path is required")
	}
	if strings.TrimSpace(message) == "" {
		return CommitResult{}, errors.New("commit message is required")
	}

	if err := vcs.StageAll(ws.Path); err != nil {
		return CommitResult{}, err
	}
	clean, err := vcs.IsClean(ws.Path)
	if err != nil {
		return CommitResult{}, err
	}
	if clean {
		return CommitResult{Clean: true}, nil
	}
	if err := vcs.Commit(ws.Path, message); err != nil {
		return CommitResult{}, err
	}
	if err := vcs.Push(ws.Path, ws.Remote, ws.Branch); err != nil {
		return CommitResult{}, err
	}
	return CommitResult{}, nil
}

// CommitMessage renders the conventional commit subject for a task.
func CommitMessage(t task.Task) string {
	return fmt.Sprintf("[ai-task] %s", t.Title)
}

// OpenRecord creates the review record for a freshly pushed branch in the
// STARTED phase.
func (p *Publisher) OpenRecord(t task.Task, ws task.WorkspaceContext) (review.Record, error) {
	title := Title(t.Title, PhaseStarted, p.now())
	return p.records.Create(ws.Branch, title, recordBody(t))
}

// UpdateTitle advances an existing record to a new phase.
func (p *Publisher) UpdateTitle(number int, taskTitle string, phase Phase) error {
	return p.records.UpdateTitle(number, Title(taskTitle, phase, p.now()))
}

// recordBody renders the review record description from the task.
func recordBody(t task.Task) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Automated implementation of backlog task **%s**.\n\n", t.Title)
	fmt.Fprintf(&b, "- Task ID: `%s`\n", t.ID)
	fmt.Fprintf(&b, "- Origin: %s", t.Origin)
	if t.OriginRef != "" && t.Origin == task.OriginTracker {
		fmt.Fprintf(&b, " #%s", t.OriginRef)
	}
	b.WriteString("\n")
	if t.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", t.Description)
	}
	return b.String()
}
