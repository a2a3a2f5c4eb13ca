package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Default values applied when the settings file omits a field.
const (
	// DefaultRemote is the git remote used when none is configured.
	DefaultRemote = "origin"
	// DefaultShortTimeoutSeconds bounds low-complexity delegate runs.
	DefaultShortTimeoutSeconds = 600
	// DefaultMediumTimeoutSeconds bounds medium-complexity delegate runs.
	DefaultMediumTimeoutSeconds = 1500
	// DefaultLongTimeoutSeconds bounds high-complexity delegate runs.
	DefaultLongTimeoutSeconds = 2700
)

// defaultAgentCommand invokes the claude CLI in non-interactive mode.
var defaultAgentCommand = []string{"claude", "--print", "--permission-mode", "acceptEdits"}

// ApplyDefaults fills omitted configuration fields and reports each
// substitution through warn.
func ApplyDefaults(cfg Config, warn func(string)) Config {
	if strings.TrimSpace(cfg.Remote) == "" {
		cfg.Remote = DefaultRemote
	}
	if strings.TrimSpace(cfg.WorkspaceRoot) == "" {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.WorkspaceRoot = filepath.Join(home, ".autodev", "workspaces")
			emitDefaultWarning(warn, fmt.Sprintf("workspace_root not set; using %s", cfg.WorkspaceRoot))
		}
	}
	cfg.WorkspaceRoot = expandHome(cfg.WorkspaceRoot)
	if len(cfg.Agent.Command) == 0 {
		emitDefaultWarning(warn, fmt.Sprintf("agent.command not set; using %q", strings.Join(defaultAgentCommand, " ")))
		cfg.Agent.Command = append([]string(nil), defaultAgentCommand...)
	}
	if len(cfg.Agent.ProbeCommand) == 0 {
		cfg.Agent.ProbeCommand = []string{cfg.Agent.Command[0], "--version"}
	}
	if cfg.Timeouts.ShortSeconds <= 0 {
		cfg.Timeouts.ShortSeconds = DefaultShortTimeoutSeconds
	}
	if cfg.Timeouts.MediumSeconds <= 0 {
		cfg.Timeouts.MediumSeconds = DefaultMediumTimeoutSeconds
	}
	if cfg.Timeouts.LongSeconds <= 0 {
		cfg.Timeouts.LongSeconds = DefaultLongTimeoutSeconds
	}
	for name, project := range cfg.Projects {
		project.Repo = expandHome(project.Repo)
		if strings.TrimSpace(project.Backlog.Type) == "" {
			project.Backlog.Type = BacklogDocument
		}
		cfg.Projects[name] = project
	}
	return cfg
}

// expandHome resolves a leading ~/ against the user home directory.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

// emitDefaultWarning sends a warning to the configured sink.
func emitDefaultWarning(warn func(string), message string) {
	if warn == nil {
		return
	}
	warn(message)
}
