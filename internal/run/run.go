// Package run wires configuration and collaborators into one invocation.
package run

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"autodev/internal/audit"
	"autodev/internal/catalog"
	"autodev/internal/config"
	"autodev/internal/delegate"
	"autodev/internal/pipeline"
	"autodev/internal/publish"
	"autodev/internal/repo"
	"autodev/internal/review"
	"autodev/internal/status"
	"autodev/internal/vcs"
	"autodev/internal/workspace"
)

// delegateLogDirName is the relative path for captured delegate output.
const delegateLogDirName = ".autodev/state/logs"

// Options configure one orchestration invocation.
type Options struct {
	// ConfigPath overrides the default settings file location.
	ConfigPath string
	// Project names the configured project to operate on; empty resolves
	// only when exactly one project is configured.
	Project string
	// ContextFiles are handed to the delegate as required reading.
	ContextFiles []string
	Stdout       io.Writer
	Stderr       io.Writer
}

// Execute runs the pipeline once and returns its terminal outcome.
//
// Configuration absence and project-resolution failures terminate before
// the pipeline starts, as their own outcome statuses.
func Execute(opts Options) pipeline.Outcome {
	stdout, stderr := opts.Stdout, opts.Stderr
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	warn := func(msg string) {
		fmt.Fprintf(stderr, "warning: %s\n", msg)
	}

	cfg, err := config.Load(opts.ConfigPath, warn)
	if err != nil {
		if errors.Is(err, config.ErrNotFound) {
			return pipeline.Outcome{
				Status:  pipeline.StatusNoConfiguration,
				Message: fmt.Sprintf("%v; run `autodev config init` to create one", err),
			}
		}
		return pipeline.Outcome{Status: pipeline.StatusError, Message: err.Error()}
	}

	name, project, ok := cfg.Project(opts.Project)
	if !ok {
		return pipeline.Outcome{
			Status:  pipeline.StatusNoProjectConfig,
			Message: projectResolutionMessage(opts.Project, cfg),
		}
	}

	repoPath, err := resolveRepo(project)
	if err != nil {
		return pipeline.Outcome{Status: pipeline.StatusError, Message: err.Error()}
	}
	git, err := vcs.New(repoPath)
	if err != nil {
		return pipeline.Outcome{Status: pipeline.StatusError, Message: err.Error()}
	}

	reader, err := catalog.NewReader(name, project, warn)
	if err != nil {
		return pipeline.Outcome{Status: pipeline.StatusError, Message: err.Error()}
	}
	records, err := review.NewClient(repoPath)
	if err != nil {
		return pipeline.Outcome{Status: pipeline.StatusError, Message: err.Error()}
	}
	workspaces, err := workspace.NewManager(git, cfg.WorkspaceRoot, name, cfg.RemoteFor(project), warn)
	if err != nil {
		return pipeline.Outcome{Status: pipeline.StatusError, Message: err.Error()}
	}

	runner, err := delegate.NewRunner(cfg.Agent.Command, cfg.Agent.ProbeCommand, delegate.TiersFromConfig(cfg.Timeouts), warn)
	if err != nil {
		return pipeline.Outcome{Status: pipeline.StatusError, Message: err.Error()}
	}
	runner.WithLineSink(func(stream string, line string) {
		fmt.Fprintf(stdout, "[agent %s] %s\n", stream, line)
	}).WithLogDir(filepath.Join(repoPath, delegateLogDirName))

	publisher, err := publish.NewPublisher(records)
	if err != nil {
		return pipeline.Outcome{Status: pipeline.StatusError, Message: err.Error()}
	}

	p, err := pipeline.New(reader, records, workspaces, runner, publisher)
	if err != nil {
		return pipeline.Outcome{Status: pipeline.StatusError, Message: err.Error()}
	}
	p.WithWarnings(warn).WithContextFiles(opts.ContextFiles)

	if logger, err := audit.NewLogger(repoPath, stderr); err != nil {
		warn(fmt.Sprintf("audit logging disabled: %v", err))
	} else {
		p.WithAuditor(logger)
	}

	return p.Run()
}

// CollectStatus assembles the status snapshot for one project.
func CollectStatus(opts Options) (status.Summary, error) {
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	warn := func(msg string) {
		fmt.Fprintf(stderr, "warning: %s\n", msg)
	}

	cfg, err := config.Load(opts.ConfigPath, warn)
	if err != nil {
		return status.Summary{}, err
	}
	name, project, ok := cfg.Project(opts.Project)
	if !ok {
		return status.Summary{}, fmt.Errorf("%s", projectResolutionMessage(opts.Project, cfg))
	}

	repoPath, err := resolveRepo(project)
	if err != nil {
		return status.Summary{}, err
	}
	git, err := vcs.New(repoPath)
	if err != nil {
		return status.Summary{}, err
	}
	reader, err := catalog.NewReader(name, project, warn)
	if err != nil {
		return status.Summary{}, err
	}
	records, err := review.NewClient(repoPath)
	if err != nil {
		return status.Summary{}, err
	}
	workspaces, err := workspace.NewManager(git, cfg.WorkspaceRoot, name, cfg.RemoteFor(project), warn)
	if err != nil {
		return status.Summary{}, err
	}

	return status.Collect(name, status.Sources{
		Catalog:    reader,
		Records:    records,
		Workspaces: workspaces,
	})
}

// resolveRepo uses the configured repository path, falling back to
// discovery from the working directory.
func resolveRepo(project config.ProjectConfig) (string, error) {
	if project.Repo != "" {
		return project.Repo, nil
	}
	return repo.DiscoverRootFromCWD()
}

// projectResolutionMessage explains why no project could be resolved.
func projectResolutionMessage(requested string, cfg config.Config) string {
	if requested == "" {
		return fmt.Sprintf("no project selected and %d projects are configured; pass --project", len(cfg.Projects))
	}
	return fmt.Sprintf("project %q is not configured", requested)
}
