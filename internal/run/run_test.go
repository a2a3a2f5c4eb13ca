package run

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"autodev/internal/pipeline"
)

// TestExecuteWithoutConfiguration exits early with guidance.
func TestExecuteWithoutConfiguration(t *testing.T) {
	t.Parallel()
	var stderr bytes.Buffer
	outcome := Execute(Options{
		ConfigPath: filepath.Join(t.TempDir(), "config.yaml"),
		Stderr:     &stderr,
	})
	if outcome.Status != pipeline.StatusNoConfiguration {
		t.Fatalf("status = %q", outcome.Status)
	}
	if !strings.Contains(outcome.Message, "autodev config init") {
		t.Fatalf("message = %q", outcome.Message)
	}
}

// TestExecuteUnknownProject resolves to the no-project-config outcome.
func TestExecuteUnknownProject(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
workspace_root: /tmp/worktrees
projects:
  demo:
    repo: /tmp/demo
    backlog:
      path: BACKLOG.md
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	var stderr bytes.Buffer
	outcome := Execute(Options{ConfigPath: path, Project: "nope", Stderr: &stderr})
	if outcome.Status != pipeline.StatusNoProjectConfig {
		t.Fatalf("status = %q", outcome.Status)
	}
	if !strings.Contains(outcome.Message, `"nope"`) {
		t.Fatalf("message = %q", outcome.Message)
	}
}

// TestExecuteAmbiguousProject requires --project with several configured.
func TestExecuteAmbiguousProject(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
workspace_root: /tmp/worktrees
projects:
  one:
    repo: /tmp/one
  two:
    repo: /tmp/two
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	var stderr bytes.Buffer
	outcome := Execute(Options{ConfigPath: path, Stderr: &stderr})
	if outcome.Status != pipeline.StatusNoProjectConfig {
		t.Fatalf("status = %q", outcome.Status)
	}
	if !strings.Contains(outcome.Message, "--project") {
		t.Fatalf("message = %q", outcome.Message)
	}
}
