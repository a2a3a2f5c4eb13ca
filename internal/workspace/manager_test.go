package workspace

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"autodev/internal/task"
	"autodev/internal/vcs"
)

// initTestRepo creates a git repository with one commit on branch main.
func initTestRepo(t *testing.T) vcs.Git {
	t.Helper()
	dir := t.TempDir()
	mustGit(t, dir, "init", "--initial-branch=main")
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("test repo\n"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	mustGit(t, dir, "add", "-A")
	mustGit(t, dir,
		"-c", "user.name=test", "-c", "user.email=test@localhost",
		"commit", "-m", "initial commit",
	)
	git, err := vcs.New(dir)
	if err != nil {
		t.Fatalf("vcs.New: %v", err)
	}
	return git
}

// mustGit runs a git command or fails the test.
func mustGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git %s: %v: %s", strings.Join(args, " "), err, out)
	}
}

func newTestManager(t *testing.T, git vcs.Git, warn func(string)) Manager {
	t.Helper()
	manager, err := NewManager(git, t.TempDir(), "demo", "origin", warn)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return manager.WithSettleDelay(0)
}

// TestPathValidation guards the deterministic workspace path derivation.
func TestPathValidation(t *testing.T) {
	t.Parallel()
	manager := newTestManager(t, initTestRepo(t), nil)

	path, err := manager.Path("abc123")
	if err != nil {
		t.Fatalf("Path: %v", err)
	}
	if filepath.Base(path) != "task-abc123" {
		t.Fatalf("path base = %q, want task-abc123", filepath.Base(path))
	}

	for _, bad := range []string{"", "a/b", "a\\b", "a..b"} {
		if _, err := manager.Path(bad); err == nil {
			t.Fatalf("Path accepted unsafe id %q", bad)
		}
	}
}

// TestCreateAndCleanup exercises the full workspace lifecycle.
// The repo has no real remote, so fetch and remote branch deletion fall
// back to warnings, which is exactly the best-effort contract.
func TestCreateAndCleanup(t *testing.T) {
	t.Parallel()
	var warnings []string
	manager := newTestManager(t, initTestRepo(t), func(msg string) {
		warnings = append(warnings, msg)
	})

	item := task.Task{ID: "abc123", Title: "Add caching layer"}
	ctx, err := manager.Create(item)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if ctx.Branch != task.BranchName(item) {
		t.Fatalf("branch = %q, want %q", ctx.Branch, task.BranchName(item))
	}
	info, err := os.Stat(ctx.Path)
	if err != nil || !info.IsDir() {
		t.Fatalf("workspace missing after create: %v", err)
	}
	if len(warnings) == 0 {
		t.Fatal("expected a fetch warning for the missing remote")
	}

	if err := manager.Cleanup(ctx); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if _, err := os.Stat(ctx.Path); err == nil {
		t.Fatal("workspace still present after cleanup")
	}
}

// TestCleanupToleratesNothingToRemove covers the partial-state contract.
func TestCleanupToleratesNothingToRemove(t *testing.T) {
	t.Parallel()
	var warnings []string
	manager := newTestManager(t, initTestRepo(t), func(msg string) {
		warnings = append(warnings, msg)
	})

	// A context whose workspace was never created must clean up quietly;
	// the remote branch delete failure is downgraded to a warning.
	ctx := task.WorkspaceContext{
		Branch: "ai-task-never-created-ff00",
		Path:   filepath.Join(t.TempDir(), "task-never"),
	}
	if err := manager.Cleanup(ctx); err != nil {
		t.Fatalf("Cleanup of absent workspace: %v", err)
	}
	if err := manager.Cleanup(task.WorkspaceContext{}); err != nil {
		t.Fatalf("Cleanup of empty context: %v", err)
	}
	_ = warnings
}

// TestCreateFailsOnDuplicateBranch reports the underlying git error text.
func TestCreateFailsOnDuplicateBranch(t *testing.T) {
	t.Parallel()
	git := initTestRepo(t)
	manager := newTestManager(t, git, nil)

	item := task.Task{ID: "dup001", Title: "Duplicate branch case"}
	if _, err := manager.Create(item); err != nil {
		t.Fatalf("first Create: %v", err)
	}

	// Same branch, different workspace directory: worktree add must fail.
	second := newTestManager(t, git, nil)
	if _, err := second.Create(item); err == nil {
		t.Fatal("second Create on the same branch succeeded")
	}
}
