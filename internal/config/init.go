package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	configDirMode  = 0o755
	configFileMode = 0o644
)

// defaultConfigTemplate is written by `autodev config init`.
const defaultConfigTemplate = `# autodev configuration
#
# workspace_root holds per-task git worktrees, grouped by project.
workspace_root: ~/.autodev/worktrees
remote: origin

agent:
  # argv for the coding agent; the generated prompt is appended last.
  command: ["claude", "--print", "--permission-mode", "acceptEdits"]
  probe_command: ["claude", "--version"]

timeouts:
  short_seconds: 600
  medium_seconds: 1500
  long_seconds: 2700

projects:
  example:
    repo: /path/to/repo
    backlog:
      type: document     # document | issue-tracker
      path: BACKLOG.md
      # tracker: owner/name
`

// Init writes a commented default settings file. It refuses to clobber
// an existing file.
func Init(path string) (string, error) {
	if path == "" {
		resolved, err := DefaultPath()
		if err != nil {
			return "", err
		}
		path = resolved
	}
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("config already exists at %s", path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("stat config %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), configDirMode); err != nil {
		return "", fmt.Errorf("create config directory %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(defaultConfigTemplate), configFileMode); err != nil {
		return "", fmt.Errorf("write config %s: %w", path, err)
	}
	return path, nil
}

// Render encodes the resolved configuration as YAML for `config show`.
func Render(cfg Config) (string, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	return string(data), nil
}
