// Package catalog reads normalized candidate tasks from backlog sources.
package catalog

import (
	"fmt"
	"strings"

	"autodev/internal/config"
	"autodev/internal/task"
)

// Reader produces the normalized sequence of candidate tasks for one
// project. Readers return an empty sequence, never an error, when the
// backlog source is absent or unreadable; the cause is logged via warn.
type Reader interface {
	Read() ([]task.Task, error)
}

// NewReader builds the reader matching the project's backlog source.
func NewReader(project string, cfg config.ProjectConfig, warn func(string)) (Reader, error) {
	switch strings.TrimSpace(cfg.Backlog.Type) {
	case config.BacklogDocument, "":
		return NewDocumentReader(project, cfg.Repo, cfg.Backlog.Path, warn)
	case config.BacklogTracker:
		return NewTrackerReader(project, cfg.Repo, cfg.Backlog.Tracker, warn), nil
	default:
		return nil, fmt.Errorf("unsupported backlog type %q", cfg.Backlog.Type)
	}
}

// emitWarning sends a warning to the configured sink.
func emitWarning(warn func(string), message string) {
	if warn == nil {
		return
	}
	warn(message)
}
