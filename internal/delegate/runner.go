// Package delegate runs the external coding agent inside a task workspace.
package delegate

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"autodev/internal/task"
)

const (
	// probeTimeout bounds the agent version probe.
	probeTimeout = 30 * time.Second
	// scanBufferSize allows for long single-line agent output.
	scanBufferSize = 1 << 20
	// logFileMode is the file mode for delegate log files.
	logFileMode = 0o644
	// logDirMode is the directory mode for delegate log directories.
	logDirMode = 0o755
)

// Result captures one delegate execution.
//
// Success means the delegate exited zero within its budget. A non-zero
// exit or a timeout is an unsuccessful Result, not an error; errors are
// reserved for failures to launch at all.
type Result struct {
	ExitCode int
	TimedOut bool
	Success  bool
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// Runner invokes the configured agent command with an adaptive timeout.
type Runner struct {
	command []string
	probe   []string
	tiers   TimeoutTiers
	warn    func(string)
	onLine  func(stream string, line string)
	logDir  string
}

// NewRunner builds a Runner for the agent command. probe is the cheap
// invocation used to verify the agent binary before each execution.
func NewRunner(command []string, probe []string, tiers TimeoutTiers, warn func(string)) (*Runner, error) {
	if len(command) == 0 {
		return nil, errors.New("agent command is required")
	}
	if len(probe) == 0 {
		return nil, errors.New("agent probe command is required")
	}
	return &Runner{command: command, probe: probe, tiers: tiers, warn: warn}, nil
}

// WithLineSink streams delegate output lines as they arrive. stream is
// "stdout" or "stderr".
func (r *Runner) WithLineSink(onLine func(stream string, line string)) *Runner {
	r.onLine = onLine
	return r
}

// WithLogDir captures per-execution stdout/stderr log files under dir.
func (r *Runner) WithLogDir(dir string) *Runner {
	r.logDir = dir
	return r
}

// Agent returns the agent binary name for audit entries.
func (r *Runner) Agent() string {
	return r.command[0]
}

// Probe verifies the agent binary responds before delegation starts.
func (r *Runner) Probe() error {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.probe[0], r.probe[1:]...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("agent probe %s: %w: %s", strings.Join(r.probe, " "), err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Timeout returns the wall-clock budget the task will be granted.
func (r *Runner) Timeout(t task.Task) time.Duration {
	return r.tiers.For(Estimate(t))
}

// Execute runs the agent against the task inside its workspace.
//
// The prompt is appended as the command's final argument. Precondition
// failures (missing workspace, failing probe) return an error; the
// delegate's own exit status is reported through the Result.
func (r *Runner) Execute(ws task.WorkspaceContext, t task.Task, contextFiles []string) (Result, error) {
	if strings.TrimSpace(ws.Path) == "" {
		return Result{}, errors.New("workspace path is required")
	}
	info, err := os.Stat(ws.Path)
	if err != nil || !info.IsDir() {
		return Result{}, fmt.Errorf("workspace %s is not accessible", ws.Path)
	}
	if err := r.Probe(); err != nil {
		return Result{}, err
	}

	timeout := r.Timeout(t)
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	prompt := BuildPrompt(t, contextFiles)
	args := append(append([]string{}, r.command[1:]...), prompt)
	cmd := exec.CommandContext(ctx, r.command[0], args...)
	cmd.Dir = ws.Path

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return Result{}, fmt.Errorf("open agent stdout: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return Result{}, fmt.Errorf("open agent stderr: %w", err)
	}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return Result{}, fmt.Errorf("start agent %s: %w", r.command[0], err)
	}

	var wg sync.WaitGroup
	var outBuf, errBuf strings.Builder
	wg.Add(2)
	go r.drain("stdout", stdout, &outBuf, &wg)
	go r.drain("stderr", stderr, &errBuf, &wg)
	wg.Wait()

	waitErr := cmd.Wait()
	result := Result{
		Stdout:   outBuf.String(),
		Stderr:   errBuf.String(),
		Duration: time.Since(start),
	}

	switch {
	case ctx.Err() == context.DeadlineExceeded:
		result.TimedOut = true
		result.ExitCode = -1
		r.warnf("task %s timed out after %s", t.ID, timeout)
	case waitErr == nil:
		result.ExitCode = 0
		result.Success = true
	default:
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		} else {
			return result, fmt.Errorf("agent execution failed: %w", waitErr)
		}
	}

	r.captureLogs(t.ID, result)
	return result, nil
}

// drain scans one output stream line by line, surfacing lines live and
// accumulating them for the Result.
func (r *Runner) drain(stream string, pipe io.Reader, buf *strings.Builder, wg *sync.WaitGroup) {
	defer wg.Done()
	scanner := bufio.NewScanner(pipe)
	scanner.Buffer(make([]byte, 0, 64*1024), scanBufferSize)
	for scanner.Scan() {
		line := scanner.Text()
		buf.WriteString(line)
		buf.WriteByte('\n')
		if r.onLine != nil {
			r.onLine(stream, line)
		}
	}
	if err := scanner.Err(); err != nil {
		r.warnf("read agent %s: %v", stream, err)
	}
}

// captureLogs writes per-execution log files. Failures are warnings; the
// execution already happened.
func (r *Runner) captureLogs(taskID string, result Result) {
	if r.logDir == "" {
		return
	}
	if err := os.MkdirAll(r.logDir, logDirMode); err != nil {
		r.warnf("create delegate log directory %s: %v", r.logDir, err)
		return
	}
	stamp := time.Now().Format("20060102-150405")
	for name, content := range map[string]string{
		fmt.Sprintf("%s-%s-stdout.log", taskID, stamp): result.Stdout,
		fmt.Sprintf("%s-%s-stderr.log", taskID, stamp): result.Stderr,
	} {
		path := filepath.Join(r.logDir, name)
		if err := os.WriteFile(path, []byte(content), logFileMode); err != nil {
			r.warnf("write delegate log %s: %v", path, err)
		}
	}
}

// warnf sends a formatted warning to the configured sink.
func (r *Runner) warnf(format string, args ...any) {
	if r.warn == nil {
		return
	}
	r.warn(fmt.Sprintf(format, args...))
}
