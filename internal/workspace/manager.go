// Package workspace manages task-scoped git worktrees for delegate execution.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"autodev/internal/task"
	"autodev/internal/vcs"
)

const (
	// taskDirPrefix prefixes per-task workspace directories.
	taskDirPrefix = "task-"
	// workspaceDirMode defines permissions for workspace parent directories.
	workspaceDirMode = 0o755
	// defaultSettleDelay allows the filesystem to catch up after worktree
	// creation before the existence check runs.
	defaultSettleDelay = 200 * time.Millisecond
)

// Manager coordinates creation and teardown of per-task workspaces.
type Manager struct {
	git     vcs.Git
	root    string
	project string
	remote  string
	warn    func(string)
	settle  time.Duration
}

// NewManager constructs a Manager for one project.
//
// root is the base directory under which workspaces are created; remote
// names the git remote used for fetch and branch cleanup.
func NewManager(git vcs.Git, root string, project string, remote string, warn func(string)) (Manager, error) {
	if strings.TrimSpace(root) == "" {
		return Manager{}, errors.New("workspace root is required")
	}
	if strings.TrimSpace(project) == "" {
		return Manager{}, errors.New("project is required")
	}
	if strings.TrimSpace(remote) == "" {
		return Manager{}, errors.New("remote is required")
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return Manager{}, fmt.Errorf("resolve workspace root %s: %w", root, err)
	}
	return Manager{
		git:     git,
		root:    absRoot,
		project: project,
		remote:  remote,
		warn:    warn,
		settle:  defaultSettleDelay,
	}, nil
}

// WithSettleDelay overrides the post-creation settle delay.
func (m Manager) WithSettleDelay(d time.Duration) Manager {
	m.settle = d
	return m
}

// Path returns the deterministic workspace path for a task.
func (m Manager) Path(taskID string) (string, error) {
	if err := validateTaskID(taskID); err != nil {
		return "", err
	}
	return filepath.Join(m.root, m.project, taskDirPrefix+taskID), nil
}

// Create provisions an isolated workspace for the task.
//
// The returned context carries whatever partial state exists even when
// creation fails, so cleanup can run against it.
func (m Manager) Create(t task.Task) (task.WorkspaceContext, error) {
	branch := task.BranchName(t)
	ctx := task.WorkspaceContext{
		Branch:   branch,
		RepoPath: m.git.Root(),
		Remote:   m.remote,
	}
	path, err := m.Path(t.ID)
	if err != nil {
		return ctx, err
	}
	ctx.Path = path

	// Stale history is preferable to aborting the attempt.
	if err := m.git.Fetch(m.remote); err != nil {
		m.warnf("fetch %s failed; continuing with local history: %v", m.remote, err)
	}

	base, err := m.git.DefaultBranch()
	if err != nil {
		return ctx, fmt.Errorf("resolve integration branch: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), workspaceDirMode); err != nil {
		return ctx, fmt.Errorf("create workspace parent %s: %w", filepath.Dir(path), err)
	}
	if err := m.git.WorktreeAdd(path, branch, base); err != nil {
		return ctx, err
	}

	// The creation call can report success before the directory is
	// visible; settle briefly, then verify.
	if m.settle > 0 {
		time.Sleep(m.settle)
	}
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return ctx, fmt.Errorf("workspace %s is not accessible after creation", path)
	}
	return ctx, nil
}

// Remove detaches the workspace worktree. The branch survives.
func (m Manager) Remove(path string) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("workspace path is required")
	}
	return m.git.WorktreeRemove(path)
}

// Cleanup tears down whatever partial state one attempt left behind.
//
// It tolerates a workspace that was never created. The remote branch
// delete is best-effort: workspace removal is the operation that must
// succeed for cleanup to be considered complete.
func (m Manager) Cleanup(ctx task.WorkspaceContext) error {
	if strings.TrimSpace(ctx.Path) != "" {
		exists, err := pathExists(ctx.Path)
		if err != nil {
			return err
		}
		if exists {
			if err := m.Remove(ctx.Path); err != nil {
				return err
			}
		}
	}
	if strings.TrimSpace(ctx.Branch) != "" {
		if err := m.git.DeleteRemoteBranch(m.remote, ctx.Branch); err != nil {
			m.warnf("delete remote branch %s failed: %v", ctx.Branch, err)
		}
	}
	return nil
}

// ListActive enumerates worktrees currently attached to the repository.
func (m Manager) ListActive() ([]vcs.Worktree, error) {
	return m.git.WorktreeList()
}

// warnf sends a formatted warning to the configured sink.
func (m Manager) warnf(format string, args ...any) {
	if m.warn == nil {
		return
	}
	m.warn(fmt.Sprintf(format, args...))
}

// pathExists reports whether the path exists on disk.
func pathExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("stat path %s: %w", path, err)
}

// validateTaskID ensures the task id is safe for filesystem use.
func validateTaskID(taskID string) error {
	if strings.TrimSpace(taskID) == "" {
		return errors.New("task id is required")
	}
	if strings.ContainsAny(taskID, "/\\") {
		return fmt.Errorf("task id %q must not contain path separators", taskID)
	}
	if strings.Contains(taskID, "..") {
		return fmt.Errorf("task id %q must not contain '..'", taskID)
	}
	return nil
}
