package pipeline

import (
	"errors"
	"strings"
	"testing"
	"time"

	"autodev/internal/delegate"
	"autodev/internal/publish"
	"autodev/internal/review"
	"autodev/internal/task"
	"autodev/internal/vcs"
)

type fakeCatalog struct {
	tasks []task.Task
	err   error
}

func (f *fakeCatalog) Read() ([]task.Task, error) { return f.tasks, f.err }

type fakeRecordList struct {
	open []review.Record
	err  error
}

func (f *fakeRecordList) ListOpen() ([]review.Record, error) { return f.open, f.err }

type fakeWorkspaces struct {
	ws           task.WorkspaceContext
	createErr    error
	created      int
	cleanupCalls int
	cleanedUp    []task.WorkspaceContext
	active       []vcs.Worktree
	panicOnList  bool
}

func (f *fakeWorkspaces) Create(t task.Task) (task.WorkspaceContext, error) {
	f.created++
	if f.createErr != nil {
		// Partial state: the branch name was derived before the failure.
		return task.WorkspaceContext{Branch: task.BranchName(t)}, f.createErr
	}
	if f.ws.Branch == "" {
		f.ws.Branch = task.BranchName(t)
	}
	return f.ws, nil
}

func (f *fakeWorkspaces) Cleanup(ctx task.WorkspaceContext) error {
	f.cleanupCalls++
	f.cleanedUp = append(f.cleanedUp, ctx)
	return nil
}

func (f *fakeWorkspaces) ListActive() ([]vcs.Worktree, error) {
	if f.panicOnList {
		panic("workspace provider exploded")
	}
	return f.active, nil
}

type fakeDelegate struct {
	result   delegate.Result
	err      error
	executed int
}

func (f *fakeDelegate) Execute(ws task.WorkspaceContext, t task.Task, contextFiles []string) (delegate.Result, error) {
	f.executed++
	return f.result, f.err
}

func (f *fakeDelegate) Agent() string { return "fake-agent" }

func (f *fakeDelegate) Timeout(t task.Task) time.Duration { return time.Minute }

type fakePublisher struct {
	commit    publish.CommitResult
	commitErr error
	record    review.Record
	openErr   error
	updateErr error
	opened    int
	updated   int
}

func (f *fakePublisher) CommitAndPush(ws task.WorkspaceContext, message string) (publish.CommitResult, error) {
	return f.commit, f.commitErr
}

func (f *fakePublisher) OpenRecord(t task.Task, ws task.WorkspaceContext) (review.Record, error) {
	if f.openErr != nil {
		return review.Record{}, f.openErr
	}
	f.opened++
	return f.record, nil
}

func (f *fakePublisher) UpdateTitle(number int, taskTitle string, phase publish.Phase) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updated++
	return nil
}

func pendingTask(id string, title string) task.Task {
	return task.Task{ID: id, Title: title, Status: task.StatusPending, Origin: task.OriginDocument}
}

func newTestPipeline(t *testing.T, catalog *fakeCatalog, records *fakeRecordList, workspaces *fakeWorkspaces, del *fakeDelegate, publisher *fakePublisher) *Pipeline {
	t.Helper()
	p, err := New(catalog, records, workspaces, del, publisher)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}

// TestRunNoEligibleTask terminates without side effects on an empty catalog.
func TestRunNoEligibleTask(t *testing.T) {
	t.Parallel()
	workspaces := &fakeWorkspaces{}
	publisher := &fakePublisher{}
	p := newTestPipeline(t, &fakeCatalog{}, &fakeRecordList{}, workspaces, &fakeDelegate{}, publisher)

	outcome := p.Run()
	if outcome.Status != StatusNoEligibleTask {
		t.Fatalf("status = %q", outcome.Status)
	}
	if workspaces.created != 0 || publisher.opened != 0 {
		t.Fatal("no-eligible-task run had side effects")
	}
}

// TestRunWorkspaceFailure cleans up partial state exactly once.
func TestRunWorkspaceFailure(t *testing.T) {
	t.Parallel()
	workspaces := &fakeWorkspaces{createErr: errors.New("worktree add failed")}
	publisher := &fakePublisher{}
	del := &fakeDelegate{}
	p := newTestPipeline(t, &fakeCatalog{tasks: []task.Task{pendingTask("abc123", "Add login page")}}, &fakeRecordList{}, workspaces, del, publisher)

	outcome := p.Run()
	if outcome.Status != StatusFailed {
		t.Fatalf("status = %q", outcome.Status)
	}
	if !strings.HasPrefix(outcome.Message, "workspace: ") {
		t.Fatalf("message = %q", outcome.Message)
	}
	if workspaces.cleanupCalls != 1 {
		t.Fatalf("cleanup calls = %d, want 1", workspaces.cleanupCalls)
	}
	// Cleanup receives whatever partial context exists.
	if workspaces.cleanedUp[0].Branch == "" {
		t.Fatal("cleanup lost the derived branch")
	}
	if del.executed != 0 || publisher.opened != 0 {
		t.Fatal("later steps ran after workspace failure")
	}
}

// TestRunDelegateExitFailure fails with cleanup and never opens a record.
func TestRunDelegateExitFailure(t *testing.T) {
	t.Parallel()
	workspaces := &fakeWorkspaces{ws: task.WorkspaceContext{Path: "/tmp/ws"}}
	publisher := &fakePublisher{}
	del := &fakeDelegate{result: delegate.Result{ExitCode: 1}}
	p := newTestPipeline(t, &fakeCatalog{tasks: []task.Task{pendingTask("abc123", "Add login page")}}, &fakeRecordList{}, workspaces, del, publisher)

	outcome := p.Run()
	if outcome.Status != StatusFailed {
		t.Fatalf("status = %q", outcome.Status)
	}
	if !strings.Contains(outcome.Message, "execute: agent exited with code 1") {
		t.Fatalf("message = %q", outcome.Message)
	}
	if workspaces.cleanupCalls != 1 {
		t.Fatalf("cleanup calls = %d, want 1", workspaces.cleanupCalls)
	}
	if publisher.opened != 0 {
		t.Fatal("record opened despite delegate failure")
	}
}

// TestRunDelegateTimeout reports the timeout distinctly from plain failure.
func TestRunDelegateTimeout(t *testing.T) {
	t.Parallel()
	workspaces := &fakeWorkspaces{}
	del := &fakeDelegate{result: delegate.Result{ExitCode: -1, TimedOut: true, Duration: 90 * time.Second}}
	p := newTestPipeline(t, &fakeCatalog{tasks: []task.Task{pendingTask("abc123", "Slow task")}}, &fakeRecordList{}, workspaces, del, &fakePublisher{})

	outcome := p.Run()
	if outcome.Status != StatusFailed {
		t.Fatalf("status = %q", outcome.Status)
	}
	if !strings.Contains(outcome.Message, "timed out") {
		t.Fatalf("message = %q", outcome.Message)
	}
	if workspaces.cleanupCalls != 1 {
		t.Fatalf("cleanup calls = %d, want 1", workspaces.cleanupCalls)
	}
}

// TestRunCleanTreeIsPublishFailure treats "no changes" as a publish failure.
func TestRunCleanTreeIsPublishFailure(t *testing.T) {
	t.Parallel()
	workspaces := &fakeWorkspaces{}
	publisher := &fakePublisher{commit: publish.CommitResult{Clean: true}}
	del := &fakeDelegate{result: delegate.Result{Success: true}}
	p := newTestPipeline(t, &fakeCatalog{tasks: []task.Task{pendingTask("abc123", "No-op task")}}, &fakeRecordList{}, workspaces, del, publisher)

	outcome := p.Run()
	if outcome.Status != StatusFailed {
		t.Fatalf("status = %q", outcome.Status)
	}
	if !strings.HasPrefix(outcome.Message, "publish: ") {
		t.Fatalf("message = %q", outcome.Message)
	}
	if workspaces.cleanupCalls != 1 {
		t.Fatalf("cleanup calls = %d, want 1", workspaces.cleanupCalls)
	}
	if publisher.opened != 0 {
		t.Fatal("record opened for an empty contribution")
	}
}

// TestRunTitleUpdateFailureIsWarning keeps the work and skips cleanup.
func TestRunTitleUpdateFailureIsWarning(t *testing.T) {
	t.Parallel()
	workspaces := &fakeWorkspaces{}
	publisher := &fakePublisher{
		record:    review.Record{Number: 47, URL: "https://example.com/repo/pull/47"},
		updateErr: errors.New("record locked"),
	}
	del := &fakeDelegate{result: delegate.Result{Success: true}}
	p := newTestPipeline(t, &fakeCatalog{tasks: []task.Task{pendingTask("abc123", "Add login page")}}, &fakeRecordList{}, workspaces, del, publisher)

	outcome := p.Run()
	if outcome.Status != StatusCompletedWithWarning {
		t.Fatalf("status = %q", outcome.Status)
	}
	if outcome.RecordNumber != 47 {
		t.Fatalf("record number = %d, want 47", outcome.RecordNumber)
	}
	if workspaces.cleanupCalls != 0 {
		t.Fatal("cleanup ran after real work landed")
	}
	if !outcome.Success() {
		t.Fatal("completed-with-warning must count as success")
	}
}

// TestRunFullSuccess walks every state to completed.
func TestRunFullSuccess(t *testing.T) {
	t.Parallel()
	workspaces := &fakeWorkspaces{ws: task.WorkspaceContext{Path: "/tmp/ws", Remote: "origin"}}
	publisher := &fakePublisher{record: review.Record{Number: 47, URL: "https://example.com/repo/pull/47"}}
	del := &fakeDelegate{result: delegate.Result{Success: true}}
	p := newTestPipeline(t, &fakeCatalog{tasks: []task.Task{pendingTask("abc123", "Add login page")}}, &fakeRecordList{}, workspaces, del, publisher)

	outcome := p.Run()
	if outcome.Status != StatusCompleted {
		t.Fatalf("status = %q: %s", outcome.Status, outcome.Message)
	}
	if outcome.RecordNumber != 47 {
		t.Fatalf("record number = %d", outcome.RecordNumber)
	}
	if outcome.Task.RecordURL != "https://example.com/repo/pull/47" {
		t.Fatalf("record url = %q", outcome.Task.RecordURL)
	}
	if workspaces.cleanupCalls != 0 {
		t.Fatal("cleanup ran on success")
	}
	if publisher.updated != 1 {
		t.Fatalf("title updates = %d, want 1", publisher.updated)
	}
}

// TestRunRecordOpenFailure cleans up after the branch was pushed.
func TestRunRecordOpenFailure(t *testing.T) {
	t.Parallel()
	workspaces := &fakeWorkspaces{}
	publisher := &fakePublisher{openErr: errors.New("gh unreachable")}
	del := &fakeDelegate{result: delegate.Result{Success: true}}
	p := newTestPipeline(t, &fakeCatalog{tasks: []task.Task{pendingTask("abc123", "Add login page")}}, &fakeRecordList{}, workspaces, del, publisher)

	outcome := p.Run()
	if outcome.Status != StatusFailed {
		t.Fatalf("status = %q", outcome.Status)
	}
	if !strings.HasPrefix(outcome.Message, "record: ") {
		t.Fatalf("message = %q", outcome.Message)
	}
	if workspaces.cleanupCalls != 1 {
		t.Fatalf("cleanup calls = %d, want 1", workspaces.cleanupCalls)
	}
}

// TestRunCatchesCollaboratorPanic converts escaped faults to the error outcome.
func TestRunCatchesCollaboratorPanic(t *testing.T) {
	t.Parallel()
	workspaces := &fakeWorkspaces{panicOnList: true}
	p := newTestPipeline(t, &fakeCatalog{tasks: []task.Task{pendingTask("abc123", "Add login page")}}, &fakeRecordList{}, workspaces, &fakeDelegate{}, &fakePublisher{})

	outcome := p.Run()
	if outcome.Status != StatusError {
		t.Fatalf("status = %q", outcome.Status)
	}
	if !strings.Contains(outcome.Message, "workspace provider exploded") {
		t.Fatalf("message = %q", outcome.Message)
	}
}

// TestRunCatalogError surfaces the failing collaborator in the message.
func TestRunCatalogError(t *testing.T) {
	t.Parallel()
	p := newTestPipeline(t, &fakeCatalog{err: errors.New("source gone")}, &fakeRecordList{}, &fakeWorkspaces{}, &fakeDelegate{}, &fakePublisher{})

	outcome := p.Run()
	if outcome.Status != StatusError {
		t.Fatalf("status = %q", outcome.Status)
	}
	if !strings.HasPrefix(outcome.Message, "catalog: ") {
		t.Fatalf("message = %q", outcome.Message)
	}
}
