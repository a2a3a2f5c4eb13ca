package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dlclark/regexp2"

	"autodev/internal/task"
)

const (
	// documentIDWidth bounds the content-hash identifier for document tasks.
	documentIDWidth = 12
	// descriptionIndent marks continuation lines belonging to the item above.
	descriptionIndent = "  "
)

// statusLinePattern matches one backlog status line: a list marker, a
// bracketed status glyph, and the task title. This is deliberately a
// status-line scanner, not a markdown grammar.
var statusLinePattern = regexp2.MustCompile(`^- \[( |x|~)\] (\S.*)$`, regexp2.RE2)

// DocumentReader scans a structured backlog document for status lines.
type DocumentReader struct {
	project string
	path    string
	warn    func(string)
}

// NewDocumentReader builds a reader over the backlog document. A path
// relative to the project repository is resolved against it.
func NewDocumentReader(project string, repo string, path string, warn func(string)) (*DocumentReader, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("backlog document path is required")
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(repo, path)
	}
	return &DocumentReader{project: project, path: path, warn: warn}, nil
}

// Read scans the document into normalized tasks. A missing or unreadable
// document yields an empty sequence with the cause logged.
func (r *DocumentReader) Read() ([]task.Task, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		emitWarning(r.warn, fmt.Sprintf("backlog document unreadable at %s: %v", r.path, err))
		return nil, nil
	}
	return r.scan(string(data)), nil
}

// scan walks the document lines, collecting items and their indented
// description blocks.
func (r *DocumentReader) scan(content string) []task.Task {
	var tasks []task.Task
	var current *task.Task
	var description []string

	flush := func() {
		if current == nil {
			return
		}
		current.Description = strings.TrimSpace(strings.Join(description, "\n"))
		tasks = append(tasks, *current)
		current = nil
		description = nil
	}

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimRight(line, "\r")
		if match, err := statusLinePattern.FindStringMatch(line); err == nil && match != nil {
			flush()
			groups := match.Groups()
			title := strings.TrimSpace(groups[2].Capture.String())
			item := task.Task{
				ID:        DocumentTaskID(title),
				Title:     title,
				Origin:    task.OriginDocument,
				OriginRef: title,
				Status:    statusForMarker(groups[1].Capture.String()),
				Project:   r.project,
			}
			current = &item
			continue
		}
		if current != nil && strings.HasPrefix(line, descriptionIndent) && strings.TrimSpace(line) != "" {
			description = append(description, strings.TrimSpace(line))
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		// Any other content ends the current item's description block.
		flush()
	}
	flush()
	return tasks
}

// statusForMarker maps a checkbox marker to a lifecycle status.
func statusForMarker(marker string) task.Status {
	switch marker {
	case "x":
		return task.StatusDone
	case "~":
		return task.StatusInProgress
	default:
		return task.StatusPending
	}
}

// DocumentTaskID derives the stable identifier for a document task from
// its title content.
func DocumentTaskID(title string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(title)))
	return hex.EncodeToString(sum[:])[:documentIDWidth]
}
