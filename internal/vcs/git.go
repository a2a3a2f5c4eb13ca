// Package vcs wraps the git primitives used for workspace management
// and change publishing.
package vcs

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// defaultBranchCandidates is the probe order for integration branches.
var defaultBranchCandidates = []string{"main", "master", "trunk"}

// commitIdentity pins the author/committer for autodev-owned commits so
// commits succeed without user-level git configuration.
var commitIdentity = []string{
	"GIT_AUTHOR_NAME=autodev",
	"GIT_AUTHOR_EMAIL=autodev@localhost",
	"GIT_COMMITTER_NAME=autodev",
	"GIT_COMMITTER_EMAIL=autodev@localhost",
}

// Git executes git commands rooted at one repository.
type Git struct {
	repoRoot string
}

// Worktree describes one active worktree attached to the repository.
type Worktree struct {
	Path   string
	Branch string
}

// New constructs a Git handle rooted at the provided repository path.
func New(repoRoot string) (Git, error) {
	if strings.TrimSpace(repoRoot) == "" {
		return Git{}, errors.New("repo root is required")
	}
	absRoot, err := filepath.Abs(repoRoot)
	if err != nil {
		return Git{}, fmt.Errorf("resolve absolute repo root %s: %w", repoRoot, err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return Git{}, fmt.Errorf("stat repo root %s: %w", absRoot, err)
	}
	if !info.IsDir() {
		return Git{}, fmt.Errorf("repo root %s is not a directory", absRoot)
	}
	return Git{repoRoot: absRoot}, nil
}

// Root returns the absolute repository root.
func (g Git) Root() string {
	return g.repoRoot
}

// Fetch updates remote-tracking refs from the named remote.
func (g Git) Fetch(remote string) error {
	if strings.TrimSpace(remote) == "" {
		return errors.New("remote is required")
	}
	_, err := g.run("fetch", "--prune", remote)
	return err
}

// DefaultBranch probes known default-branch names in priority order and
// falls back to the current head when none resolve.
func (g Git) DefaultBranch() (string, error) {
	for _, candidate := range defaultBranchCandidates {
		exists, err := g.BranchExists(candidate)
		if err != nil {
			return "", err
		}
		if exists {
			return candidate, nil
		}
	}
	return g.CurrentBranch()
}

// CurrentBranch resolves the branch the repository head is on.
func (g Git) CurrentBranch() (string, error) {
	output, err := g.run("rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", fmt.Errorf("resolve current branch: %w", err)
	}
	return strings.TrimSpace(output), nil
}

// BranchExists reports whether a local branch exists in the repository.
func (g Git) BranchExists(branch string) (bool, error) {
	if strings.TrimSpace(branch) == "" {
		return false, errors.New("branch is required")
	}
	_, err := g.run("show-ref", "--verify", "--quiet", "refs/heads/"+branch)
	if err == nil {
		return true, nil
	}
	if isExitStatus(err, 1) {
		return false, nil
	}
	return false, err
}

// WorktreeAdd creates a worktree at path on a new branch rooted at base.
func (g Git) WorktreeAdd(path string, branch string, base string) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("worktree path is required")
	}
	if strings.TrimSpace(branch) == "" {
		return errors.New("branch is required")
	}
	if strings.TrimSpace(base) == "" {
		return errors.New("base branch is required")
	}
	_, err := g.run("worktree", "add", "-b", branch, path, base)
	return err
}

// WorktreeRemove detaches the worktree at path. The branch survives.
func (g Git) WorktreeRemove(path string) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("worktree path is required")
	}
	_, err := g.run("worktree", "remove", "--force", path)
	return err
}

// WorktreeList enumerates active worktrees with their branches.
func (g Git) WorktreeList() ([]Worktree, error) {
	output, err := g.run("worktree", "list", "--porcelain")
	if err != nil {
		return nil, err
	}
	return parseWorktreeList(output), nil
}

// DeleteRemoteBranch removes the remote copy of a branch.
func (g Git) DeleteRemoteBranch(remote string, branch string) error {
	if strings.TrimSpace(remote) == "" {
		return errors.New("remote is required")
	}
	if strings.TrimSpace(branch) == "" {
		return errors.New("branch is required")
	}
	_, err := g.run("push", remote, "--delete", branch)
	return err
}

// parseWorktreeList decodes `git worktree list --porcelain` output.
func parseWorktreeList(output string) []Worktree {
	var worktrees []Worktree
	var current Worktree
	flush := func() {
		if current.Path != "" {
			worktrees = append(worktrees, current)
		}
		current = Worktree{}
	}
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimRight(line, "\r")
		switch {
		case strings.HasPrefix(line, "worktree "):
			flush()
			current.Path = strings.TrimPrefix(line, "worktree ")
		case strings.HasPrefix(line, "branch "):
			ref := strings.TrimPrefix(line, "branch ")
			current.Branch = strings.TrimPrefix(ref, "refs/heads/")
		}
	}
	flush()
	return worktrees
}

// StageAll stages every change in the working directory.
func StageAll(dir string) error {
	_, err := runGit(dir, nil, "add", "-A")
	return err
}

// IsClean reports whether the working tree has no staged, modified, or
// untracked files.
func IsClean(dir string) (bool, error) {
	output, err := runGit(dir, nil, "status", "--porcelain", "--untracked-files=all")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(output) == "", nil
}

// Commit records staged changes with the autodev identity.
func Commit(dir string, message string) error {
	if strings.TrimSpace(message) == "" {
		return errors.New("commit message is required")
	}
	_, err := runGit(dir, commitIdentity, "commit", "-m", message)
	return err
}

// Push publishes the branch to the remote, setting the upstream.
func Push(dir string, remote string, branch string) error {
	if strings.TrimSpace(remote) == "" {
		return errors.New("remote is required")
	}
	if strings.TrimSpace(branch) == "" {
		return errors.New("branch is required")
	}
	_, err := runGit(dir, nil, "push", "--set-upstream", remote, branch)
	return err
}

// run executes git in the repository root.
func (g Git) run(args ...string) (string, error) {
	return runGit(g.repoRoot, nil, args...)
}

// runGit executes a git command in dir, folding stderr into the error.
func runGit(dir string, env []string, args ...string) (string, error) {
	if strings.TrimSpace(dir) == "" {
		return "", errors.New("git directory is required")
	}
	if len(args) == 0 {
		return "", errors.New("git arguments are required")
	}
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %s failed: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// isExitStatus reports whether the error is an exec.ExitError with the given status.
func isExitStatus(err error, status int) bool {
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return false
	}
	return exitErr.ExitCode() == status
}
