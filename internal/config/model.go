// Package config defines the configuration model for autodev.
package config

import "strings"

// Config defines the full configuration surface for autodev.
//
// The file is read once at process start; the loaded value is passed
// explicitly into the pipeline wiring, never looked up globally.
type Config struct {
	WorkspaceRoot string                   `yaml:"workspace_root"`
	Remote        string                   `yaml:"remote"`
	Agent         AgentConfig              `yaml:"agent"`
	Timeouts      TimeoutsConfig           `yaml:"timeouts"`
	Projects      map[string]ProjectConfig `yaml:"projects"`
}

// AgentConfig captures how the external coding agent is invoked.
type AgentConfig struct {
	// Command is the agent argv; the generated prompt is appended as the
	// final argument.
	Command []string `yaml:"command"`
	// ProbeCommand verifies the agent tool is reachable before a run.
	ProbeCommand []string `yaml:"probe_command"`
}

// TimeoutsConfig defines the three delegate timeout tiers in seconds.
type TimeoutsConfig struct {
	ShortSeconds  int `yaml:"short_seconds"`
	MediumSeconds int `yaml:"medium_seconds"`
	LongSeconds   int `yaml:"long_seconds"`
}

// BacklogConfig selects and locates a project's backlog source.
type BacklogConfig struct {
	// Type is "document" or "issue-tracker".
	Type string `yaml:"type"`
	// Path locates the backlog document, relative to the project repo.
	Path string `yaml:"path"`
	// Tracker is the owner/name slug for the issue tracker source.
	Tracker string `yaml:"tracker"`
}

// ProjectConfig describes one orchestrated repository.
type ProjectConfig struct {
	Repo    string        `yaml:"repo"`
	Remote  string        `yaml:"remote"`
	Backlog BacklogConfig `yaml:"backlog"`
}

// Backlog source type names.
const (
	BacklogDocument = "document"
	BacklogTracker  = "issue-tracker"
)

// Project resolves a project by name. An empty name resolves only when
// exactly one project is configured.
func (cfg Config) Project(name string) (string, ProjectConfig, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		if len(cfg.Projects) != 1 {
			return "", ProjectConfig{}, false
		}
		for only, project := range cfg.Projects {
			return only, project, true
		}
	}
	project, ok := cfg.Projects[name]
	if !ok {
		return "", ProjectConfig{}, false
	}
	return name, project, true
}

// RemoteFor returns the project's remote, falling back to the global one.
func (cfg Config) RemoteFor(project ProjectConfig) string {
	if remote := strings.TrimSpace(project.Remote); remote != "" {
		return remote
	}
	return cfg.Remote
}
