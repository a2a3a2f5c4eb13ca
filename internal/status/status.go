// Package status summarizes backlog, record, and workspace state.
package status

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"autodev/internal/pipeline"
	"autodev/internal/review"
	"autodev/internal/task"
	"autodev/internal/vcs"
)

// Row is one backlog task annotated with its observed external state.
type Row struct {
	ID       string
	Title    string
	Status   task.Status
	Branch   string
	Eligible bool
	Record   string
}

// Summary is a point-in-time snapshot for one project.
type Summary struct {
	Project          string
	Rows             []Row
	Pending          int
	Done             int
	InProgress       int
	OpenRecords      int
	ActiveWorkspaces int
	CollectedAt      time.Time
}

// Workspaces is the slice of the workspace manager the collector needs.
type Workspaces interface {
	ListActive() ([]vcs.Worktree, error)
}

// Sources are the collaborators a snapshot is assembled from.
type Sources struct {
	Catalog    pipeline.Catalog
	Records    pipeline.Records
	Workspaces Workspaces
}

// Collect assembles one snapshot. It observes the same collaborator state
// the pipeline's eligibility filter does, so the Eligible column predicts
// what the next run would pick from.
func Collect(project string, sources Sources) (Summary, error) {
	tasks, err := sources.Catalog.Read()
	if err != nil {
		return Summary{}, fmt.Errorf("catalog: %w", err)
	}
	records, err := sources.Records.ListOpen()
	if err != nil {
		return Summary{}, fmt.Errorf("records: %w", err)
	}
	worktrees, err := sources.Workspaces.ListActive()
	if err != nil {
		return Summary{}, fmt.Errorf("workspaces: %w", err)
	}

	eligible := map[string]bool{}
	for _, t := range pipeline.Eligible(tasks, records, worktrees) {
		eligible[t.ID] = true
	}
	recordByBranch := map[string]review.Record{}
	for _, record := range records {
		recordByBranch[record.Branch] = record
	}

	summary := Summary{
		Project:          project,
		OpenRecords:      len(records),
		ActiveWorkspaces: len(worktrees),
		CollectedAt:      time.Now(),
	}
	for _, t := range tasks {
		switch t.Status {
		case task.StatusDone:
			summary.Done++
		case task.StatusInProgress:
			summary.InProgress++
		default:
			summary.Pending++
		}
		branch := task.BranchName(t)
		row := Row{
			ID:       t.ID,
			Title:    t.Title,
			Status:   t.Status,
			Branch:   branch,
			Eligible: eligible[t.ID],
			Record:   "-",
		}
		if record, ok := recordByBranch[branch]; ok {
			row.Record = fmt.Sprintf("#%d %s", record.Number, record.State)
		}
		summary.Rows = append(summary.Rows, row)
	}
	sort.SliceStable(summary.Rows, func(i, j int) bool {
		return summary.Rows[i].Eligible && !summary.Rows[j].Eligible
	})
	return summary, nil
}

// String renders the snapshot as plain text for non-interactive output.
func (s Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "project %s: pending=%d done=%d in-progress=%d open-records=%d workspaces=%d\n",
		s.Project, s.Pending, s.Done, s.InProgress, s.OpenRecords, s.ActiveWorkspaces)
	for _, row := range s.Rows {
		marker := " "
		if row.Eligible {
			marker = "*"
		}
		fmt.Fprintf(&b, "%s %-12s %-12s %-8s %s\n", marker, row.ID, row.Status, row.Record, row.Title)
	}
	return b.String()
}
