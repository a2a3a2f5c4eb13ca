package pipeline

import (
	"errors"
	"fmt"
	"time"

	"autodev/internal/delegate"
	"autodev/internal/publish"
	"autodev/internal/review"
	"autodev/internal/task"
	"autodev/internal/vcs"
)

// Catalog supplies candidate tasks for one project.
type Catalog interface {
	Read() ([]task.Task, error)
}

// Records is the review-record surface the pipeline observes.
type Records interface {
	ListOpen() ([]review.Record, error)
}

// Workspaces provisions and tears down per-task workspaces.
type Workspaces interface {
	Create(t task.Task) (task.WorkspaceContext, error)
	Cleanup(ctx task.WorkspaceContext) error
	ListActive() ([]vcs.Worktree, error)
}

// Delegate runs the external agent inside a workspace.
type Delegate interface {
	Execute(ws task.WorkspaceContext, t task.Task, contextFiles []string) (delegate.Result, error)
	Agent() string
	Timeout(t task.Task) time.Duration
}

// Publisher commits delegate output and drives review record titles.
type Publisher interface {
	CommitAndPush(ws task.WorkspaceContext, message string) (publish.CommitResult, error)
	OpenRecord(t task.Task, ws task.WorkspaceContext) (review.Record, error)
	UpdateTitle(number int, taskTitle string, phase publish.Phase) error
}

// Auditor receives the pipeline's audit trail. Optional; a nil Auditor
// disables auditing.
type Auditor interface {
	LogTaskSelected(taskID string, title string, origin string) error
	LogWorkspaceCreate(taskID string, path string, branch string) error
	LogWorkspaceCleanup(taskID string, path string, branch string) error
	LogDelegateInvoke(taskID string, agent string, timeoutSecs int) error
	LogDelegateOutcome(taskID string, agent string, exitCode int, timedOut bool, duration time.Duration) error
	LogPublishCommit(taskID string, branch string, clean bool) error
	LogRecordOpen(taskID string, number int, url string) error
	LogRecordTitle(taskID string, number int, phase string) error
	LogRunOutcome(taskID string, status string, message string) error
}

// Pipeline processes exactly one eligible task per Run.
type Pipeline struct {
	catalog      Catalog
	records      Records
	workspaces   Workspaces
	delegate     Delegate
	publisher    Publisher
	auditor      Auditor
	warn         func(string)
	contextFiles []string
}

// New wires a Pipeline from its collaborators.
func New(catalog Catalog, records Records, workspaces Workspaces, del Delegate, publisher Publisher) (*Pipeline, error) {
	if catalog == nil {
		return nil, errors.New("catalog is required")
	}
	if records == nil {
		return nil, errors.New("records collaborator is required")
	}
	if workspaces == nil {
		return nil, errors.New("workspaces collaborator is required")
	}
	if del == nil {
		return nil, errors.New("delegate is required")
	}
	if publisher == nil {
		return nil, errors.New("publisher is required")
	}
	return &Pipeline{
		catalog:    catalog,
		records:    records,
		workspaces: workspaces,
		delegate:   del,
		publisher:  publisher,
	}, nil
}

// WithAuditor attaches the audit trail sink.
func (p *Pipeline) WithAuditor(auditor Auditor) *Pipeline {
	p.auditor = auditor
	return p
}

// WithWarnings attaches the warning sink.
func (p *Pipeline) WithWarnings(warn func(string)) *Pipeline {
	p.warn = warn
	return p
}

// WithContextFiles names files the delegate should read before working.
func (p *Pipeline) WithContextFiles(files []string) *Pipeline {
	p.contextFiles = files
	return p
}

// Run drives one task from selection to a terminal outcome.
//
// Any fault escaping a collaborator is caught here and converted to the
// error outcome; nothing propagates past the pipeline boundary.
func (p *Pipeline) Run() (outcome Outcome) {
	defer func() {
		if r := recover(); r != nil {
			outcome = Outcome{
				Status:  StatusError,
				Message: fmt.Sprintf("pipeline fault: %v", r),
			}
			p.auditOutcome(outcome)
		}
	}()

	outcome = p.run()
	p.auditOutcome(outcome)
	return outcome
}

// run holds the state machine body so Run's recover stays small.
func (p *Pipeline) run() Outcome {
	// selecting
	tasks, err := p.catalog.Read()
	if err != nil {
		return Outcome{Status: StatusError, Message: fmt.Sprintf("catalog: %v", err)}
	}
	records, err := p.records.ListOpen()
	if err != nil {
		return Outcome{Status: StatusError, Message: fmt.Sprintf("records: %v", err)}
	}
	worktrees, err := p.workspaces.ListActive()
	if err != nil {
		return Outcome{Status: StatusError, Message: fmt.Sprintf("workspaces: %v", err)}
	}

	selected, ok := Select(Eligible(tasks, records, worktrees))
	if !ok {
		return Outcome{Status: StatusNoEligibleTask, Message: "no eligible task in the backlog"}
	}
	p.audit(func(a Auditor) error {
		return a.LogTaskSelected(selected.ID, selected.Title, string(selected.Origin))
	})

	// workspace-pending
	ws, err := p.workspaces.Create(selected)
	if err != nil {
		return p.fail(selected, ws, "workspace", err)
	}
	p.audit(func(a Auditor) error {
		return a.LogWorkspaceCreate(selected.ID, ws.Path, ws.Branch)
	})

	// executing
	p.audit(func(a Auditor) error {
		return a.LogDelegateInvoke(selected.ID, p.delegate.Agent(), int(p.delegate.Timeout(selected).Seconds()))
	})
	result, err := p.delegate.Execute(ws, selected, p.contextFiles)
	if err != nil {
		return p.fail(selected, ws, "execute", err)
	}
	p.audit(func(a Auditor) error {
		return a.LogDelegateOutcome(selected.ID, p.delegate.Agent(), result.ExitCode, result.TimedOut, result.Duration)
	})
	if !result.Success {
		if result.TimedOut {
			return p.fail(selected, ws, "execute", fmt.Errorf("agent timed out after %s", result.Duration.Round(time.Second)))
		}
		return p.fail(selected, ws, "execute", fmt.Errorf("agent exited with code %d", result.ExitCode))
	}

	// publishing-changes
	commit, err := p.publisher.CommitAndPush(ws, publish.CommitMessage(selected))
	if err != nil {
		return p.fail(selected, ws, "publish", err)
	}
	p.audit(func(a Auditor) error {
		return a.LogPublishCommit(selected.ID, ws.Branch, commit.Clean)
	})
	if commit.Clean {
		// An empty contribution cannot be finalized as complete.
		return p.fail(selected, ws, "publish", errors.New("agent produced no changes"))
	}

	// record-opening
	record, err := p.publisher.OpenRecord(selected, ws)
	if err != nil {
		return p.fail(selected, ws, "record", err)
	}
	selected.RecordNumber = record.Number
	selected.RecordURL = record.URL
	p.audit(func(a Auditor) error {
		return a.LogRecordOpen(selected.ID, record.Number, record.URL)
	})

	// finalizing: the work already landed, so a title failure is a
	// warning, never a cleanup trigger.
	if err := p.publisher.UpdateTitle(record.Number, selected.Title, publish.PhaseComplete); err != nil {
		p.warnf("record %d title update failed: %v", record.Number, err)
		return Outcome{
			Status:       StatusCompletedWithWarning,
			Task:         selected,
			RecordNumber: record.Number,
			Message:      fmt.Sprintf("record: title update failed: %v", err),
		}
	}
	p.audit(func(a Auditor) error {
		return a.LogRecordTitle(selected.ID, record.Number, string(publish.PhaseComplete))
	})

	return Outcome{
		Status:       StatusCompleted,
		Task:         selected,
		RecordNumber: record.Number,
		Message:      fmt.Sprintf("task %s published on %s", selected.ID, ws.Branch),
	}
}

// fail converts a step failure into the failed outcome after running
// cleanup against whatever partial state exists.
func (p *Pipeline) fail(t task.Task, ws task.WorkspaceContext, step string, cause error) Outcome {
	if err := p.workspaces.Cleanup(ws); err != nil {
		p.warnf("cleanup after %s failure: %v", step, err)
	} else {
		p.audit(func(a Auditor) error {
			return a.LogWorkspaceCleanup(t.ID, ws.Path, ws.Branch)
		})
	}
	return Outcome{
		Status:  StatusFailed,
		Task:    t,
		Message: fmt.Sprintf("%s: %v", step, cause),
	}
}

// audit invokes one audit call, downgrading failures to warnings.
func (p *Pipeline) audit(log func(Auditor) error) {
	if p.auditor == nil {
		return
	}
	if err := log(p.auditor); err != nil {
		p.warnf("audit entry failed: %v", err)
	}
}

// auditOutcome records the terminal outcome.
func (p *Pipeline) auditOutcome(outcome Outcome) {
	p.audit(func(a Auditor) error {
		return a.LogRunOutcome(outcome.Task.ID, string(outcome.Status), outcome.Message)
	})
}

// warnf sends a formatted warning to the configured sink.
func (p *Pipeline) warnf(format string, args ...any) {
	if p.warn == nil {
		return
	}
	p.warn(fmt.Sprintf(format, args...))
}
