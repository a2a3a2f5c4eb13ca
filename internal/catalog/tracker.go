package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"autodev/internal/task"
)

// trackerIssue mirrors the fields requested from `gh issue list --json`.
type trackerIssue struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

// TrackerReader reads open issues from the hosted tracker via the gh CLI.
type TrackerReader struct {
	project string
	repo    string
	tracker string
	warn    func(string)
	run     func(dir string, args ...string) ([]byte, error)
}

// NewTrackerReader builds a reader over the project's issue tracker.
// tracker optionally names an owner/name slug; when empty, gh resolves
// the tracker from the repository checkout.
func NewTrackerReader(project string, repo string, tracker string, warn func(string)) *TrackerReader {
	return &TrackerReader{
		project: project,
		repo:    repo,
		tracker: tracker,
		warn:    warn,
		run:     runGH,
	}
}

// Read lists open issues as pending tasks. Tracker failures degrade to an
// empty sequence with the cause logged, matching the document reader.
func (r *TrackerReader) Read() ([]task.Task, error) {
	args := []string{"issue", "list", "--state", "open", "--json", "number,title,body"}
	if strings.TrimSpace(r.tracker) != "" {
		args = append(args, "--repo", r.tracker)
	}
	output, err := r.run(r.repo, args...)
	if err != nil {
		emitWarning(r.warn, fmt.Sprintf("issue tracker unavailable: %v", err))
		return nil, nil
	}
	return r.decode(output)
}

// decode converts the gh JSON payload into normalized tasks.
func (r *TrackerReader) decode(payload []byte) ([]task.Task, error) {
	var issues []trackerIssue
	if err := json.Unmarshal(payload, &issues); err != nil {
		return nil, fmt.Errorf("decode tracker issues: %w", err)
	}
	tasks := make([]task.Task, 0, len(issues))
	for _, issue := range issues {
		ref := strconv.Itoa(issue.Number)
		tasks = append(tasks, task.Task{
			ID:          ref,
			Title:       strings.TrimSpace(issue.Title),
			Description: strings.TrimSpace(issue.Body),
			Origin:      task.OriginTracker,
			OriginRef:   ref,
			Status:      task.StatusPending,
			Project:     r.project,
		})
	}
	return tasks, nil
}

// runGH executes a gh command, folding stderr into the returned error.
func runGH(dir string, args ...string) ([]byte, error) {
	cmd := exec.Command("gh", args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("gh %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}
