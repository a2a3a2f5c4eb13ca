// Package audit provides append-only audit logging for autodev runs.
package audit

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// localStateDirName is the relative path for transient autodev state.
	localStateDirName = ".autodev/state"
	// auditLogFileName is the filename used for audit logging.
	auditLogFileName = "audit.log"
	// auditLogFileMode defines the permissions for the audit log file.
	auditLogFileMode = 0o644
	// auditLogDirMode defines the permissions for the audit log directory.
	auditLogDirMode = 0o755
)

const (
	// EventTaskSelected records the task chosen for the run.
	EventTaskSelected = "task.selected"
	// EventWorkspaceCreate records workspace creation.
	EventWorkspaceCreate = "workspace.create"
	// EventWorkspaceCleanup records workspace teardown after a failure.
	EventWorkspaceCleanup = "workspace.cleanup"
	// EventDelegateInvoke records delegate invocation.
	EventDelegateInvoke = "delegate.invoke"
	// EventDelegateOutcome records delegate completion.
	EventDelegateOutcome = "delegate.outcome"
	// EventPublishCommit records the commit-and-push step.
	EventPublishCommit = "publish.commit"
	// EventRecordOpen records review record creation.
	EventRecordOpen = "record.open"
	// EventRecordTitle records a review record title update.
	EventRecordTitle = "record.title"
	// EventRunOutcome records the terminal outcome of the run.
	EventRunOutcome = "run.outcome"
)

// Logger appends audit entries to a log file. Every entry carries the
// run correlation id assigned at construction.
type Logger struct {
	path     string
	runID    string
	warnings io.Writer
	now      func() time.Time
	mu       sync.Mutex
}

// Field represents a logfmt key/value pair.
type Field struct {
	Key   string
	Value string
}

// Entry captures the required audit log fields and any optional fields.
// TaskID is optional; run-level events carry none.
type Entry struct {
	TaskID string
	Event  string
	Fields []Field
}

// NewLogger builds an audit logger rooted at the provided repo with a
// fresh run correlation id.
func NewLogger(repoRoot string, warnings io.Writer) (*Logger, error) {
	if repoRoot == "" {
		return nil, errors.New("repo root is required")
	}
	if warnings == nil {
		warnings = os.Stderr
	}
	return &Logger{
		path:     filepath.Join(repoRoot, localStateDirName, auditLogFileName),
		runID:    uuid.NewString(),
		warnings: warnings,
		now:      time.Now,
	}, nil
}

// RunID returns the correlation id stamped on every entry.
func (logger *Logger) RunID() string {
	if logger == nil {
		return ""
	}
	return logger.runID
}

// Log writes a generic audit entry to the log file.
func (logger *Logger) Log(entry Entry) error {
	if logger == nil {
		return errors.New("audit logger is nil")
	}
	logger.mu.Lock()
	defer logger.mu.Unlock()

	line, err := logger.formatEntry(entry)
	if err != nil {
		logger.warnf("audit log entry rejected: %v", err)
		return err
	}

	exists, err := fileExists(logger.path)
	if err != nil {
		logger.warnf("audit log check failed for %s: %v", logger.path, err)
		return err
	}
	if !exists {
		logger.warnf("audit log missing at %s; creating new file", logger.path)
	}

	if err := logger.appendLine(line); err != nil {
		logger.warnf("audit log write failed for %s: %v", logger.path, err)
		return err
	}
	return nil
}

// LogTaskSelected records the task chosen for this run.
func (logger *Logger) LogTaskSelected(taskID string, title string, origin string) error {
	return logger.Log(Entry{
		TaskID: taskID,
		Event:  EventTaskSelected,
		Fields: []Field{
			{Key: "title", Value: title},
			{Key: "origin", Value: origin},
		},
	})
}

// LogWorkspaceCreate records a workspace creation event.
func (logger *Logger) LogWorkspaceCreate(taskID string, path string, branch string) error {
	return logger.Log(Entry{
		TaskID: taskID,
		Event:  EventWorkspaceCreate,
		Fields: []Field{
			{Key: "path", Value: path},
			{Key: "branch", Value: branch},
		},
	})
}

// LogWorkspaceCleanup records a workspace teardown event.
func (logger *Logger) LogWorkspaceCleanup(taskID string, path string, branch string) error {
	return logger.Log(Entry{
		TaskID: taskID,
		Event:  EventWorkspaceCleanup,
		Fields: []Field{
			{Key: "path", Value: path},
			{Key: "branch", Value: branch},
		},
	})
}

// LogDelegateInvoke records a delegate invocation event.
func (logger *Logger) LogDelegateInvoke(taskID string, agent string, timeoutSecs int) error {
	return logger.Log(Entry{
		TaskID: taskID,
		Event:  EventDelegateInvoke,
		Fields: []Field{
			{Key: "agent", Value: agent},
			{Key: "timeout_seconds", Value: strconv.Itoa(timeoutSecs)},
		},
	})
}

// LogDelegateOutcome records a delegate completion event.
func (logger *Logger) LogDelegateOutcome(taskID string, agent string, exitCode int, timedOut bool, duration time.Duration) error {
	return logger.Log(Entry{
		TaskID: taskID,
		Event:  EventDelegateOutcome,
		Fields: []Field{
			{Key: "agent", Value: agent},
			{Key: "exit_code", Value: strconv.Itoa(exitCode)},
			{Key: "timed_out", Value: strconv.FormatBool(timedOut)},
			{Key: "duration_seconds", Value: strconv.Itoa(int(duration.Seconds()))},
		},
	})
}

// LogPublishCommit records the commit-and-push step.
func (logger *Logger) LogPublishCommit(taskID string, branch string, clean bool) error {
	return logger.Log(Entry{
		TaskID: taskID,
		Event:  EventPublishCommit,
		Fields: []Field{
			{Key: "branch", Value: branch},
			{Key: "clean", Value: strconv.FormatBool(clean)},
		},
	})
}

// LogRecordOpen records a review record creation event.
func (logger *Logger) LogRecordOpen(taskID string, number int, url string) error {
	return logger.Log(Entry{
		TaskID: taskID,
		Event:  EventRecordOpen,
		Fields: []Field{
			{Key: "number", Value: strconv.Itoa(number)},
			{Key: "url", Value: url},
		},
	})
}

// LogRecordTitle records a review record title update.
func (logger *Logger) LogRecordTitle(taskID string, number int, phase string) error {
	return logger.Log(Entry{
		TaskID: taskID,
		Event:  EventRecordTitle,
		Fields: []Field{
			{Key: "number", Value: strconv.Itoa(number)},
			{Key: "phase", Value: phase},
		},
	})
}

// LogRunOutcome records the terminal outcome of the run.
func (logger *Logger) LogRunOutcome(taskID string, status string, message string) error {
	return logger.Log(Entry{
		TaskID: taskID,
		Event:  EventRunOutcome,
		Fields: []Field{
			{Key: "status", Value: status},
			{Key: "message", Value: message},
		},
	})
}

// formatEntry renders an audit entry in logfmt-style order.
func (logger *Logger) formatEntry(entry Entry) (string, error) {
	if entry.Event == "" {
		return "", errors.New("event is required")
	}
	now := logger.now
	if now == nil {
		now = time.Now
	}

	ts := now().UTC().Format(time.RFC3339)
	fields := []string{
		formatField("ts", ts),
		formatField("run_id", logger.runID),
	}
	if entry.TaskID != "" {
		fields = append(fields, formatField("task_id", entry.TaskID))
	}
	fields = append(fields, formatField("event", entry.Event))

	for _, field := range entry.Fields {
		if field.Value == "" {
			continue
		}
		if field.Key == "" {
			return "", errors.New("field key is required")
		}
		fields = append(fields, formatField(field.Key, field.Value))
	}
	return strings.Join(fields, " "), nil
}

// formatField encodes a logfmt key/value pair.
func formatField(key string, value string) string {
	encoded := sanitizeValue(value)
	if needsQuoting(encoded) {
		return fmt.Sprintf(`%s="%s"`, key, escapeLogfmt(encoded))
	}
	return fmt.Sprintf("%s=%s", key, encoded)
}

// sanitizeValue ensures values stay single-line.
func sanitizeValue(value string) string {
	value = strings.ReplaceAll(value, "\n", `\n`)
	return strings.ReplaceAll(value, "\r", `\r`)
}

// needsQuoting reports whether the value needs logfmt quoting.
func needsQuoting(value string) bool {
	if value == "" {
		return true
	}
	for _, r := range value {
		if r == ' ' || r == '\t' || r == '\n' || r == '=' || r == '"' {
			return true
		}
	}
	return false
}

// escapeLogfmt escapes characters that must be quoted in logfmt values.
func escapeLogfmt(value string) string {
	value = strings.ReplaceAll(value, `\`, `\\`)
	return strings.ReplaceAll(value, `"`, `\"`)
}

// appendLine writes the log entry to the audit log file.
func (logger *Logger) appendLine(line string) error {
	if logger.path == "" {
		return errors.New("audit log path is required")
	}
	if err := os.MkdirAll(filepath.Dir(logger.path), auditLogDirMode); err != nil {
		return fmt.Errorf("create audit log directory %s: %w", filepath.Dir(logger.path), err)
	}
	file, err := os.OpenFile(logger.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, auditLogFileMode)
	if err != nil {
		return fmt.Errorf("open audit log %s: %w", logger.path, err)
	}
	if _, err := file.WriteString(line + "\n"); err != nil {
		_ = file.Close()
		return fmt.Errorf("write audit log %s: %w", logger.path, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close audit log %s: %w", logger.path, err)
	}
	return nil
}

// warnf writes a warning message to the configured warnings writer.
func (logger *Logger) warnf(format string, args ...any) {
	if logger == nil || logger.warnings == nil {
		return
	}
	_, _ = fmt.Fprintf(logger.warnings, format+"\n", args...)
}

// fileExists reports whether the file exists at the path.
func fileExists(path string) (bool, error) {
	if path == "" {
		return false, errors.New("path is required")
	}
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}
