// Command autodev selects one backlog task per invocation and delegates
// its implementation to an external AI coding agent.
package main

import (
	"flag"
	"fmt"
	"os"

	"autodev/internal/buildinfo"
	"autodev/internal/config"
	"autodev/internal/pipeline"
	"autodev/internal/run"
	"autodev/internal/status"
	"autodev/internal/tui"
)

const usage = `autodev - backlog task orchestrator for AI coding agents

USAGE:
    autodev <command> [command options]

COMMANDS:
    run              Select one eligible backlog task and delegate it
    status           Display backlog, review record, and workspace state
    config init      Write a starter configuration file
    config show      Print the effective configuration
    version          Print version and build information

Run 'autodev <command> -h' for command-specific help.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "run":
		runRun(args)
	case "status":
		runStatus(args)
	case "config":
		runConfig(args)
	case "version":
		fmt.Println(buildinfo.String())
	case "-h", "--help", "help":
		fmt.Fprint(os.Stderr, usage)
	default:
		fmt.Fprintf(os.Stderr, "autodev: unknown command %q\n\n", command)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
}

// runRun executes the orchestration pipeline once.
func runRun(args []string) {
	flags := flag.NewFlagSet("run", flag.ExitOnError)
	configPath := flags.String("config", "", "path to the configuration file")
	project := flags.String("project", "", "configured project to operate on")
	_ = flags.Parse(args)

	outcome := run.Execute(run.Options{
		ConfigPath:   *configPath,
		Project:      *project,
		ContextFiles: flags.Args(),
		Stdout:       os.Stdout,
		Stderr:       os.Stderr,
	})

	fmt.Printf("%s: %s\n", outcome.Status, outcome.Message)
	if outcome.RecordNumber > 0 && outcome.Task.RecordURL != "" {
		fmt.Printf("review record: %s\n", outcome.Task.RecordURL)
	}
	os.Exit(exitCode(outcome.Status))
}

// runStatus prints a snapshot, or watches it interactively with --watch.
func runStatus(args []string) {
	flags := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := flags.String("config", "", "path to the configuration file")
	project := flags.String("project", "", "configured project to operate on")
	watch := flags.Bool("watch", false, "refresh interactively")
	_ = flags.Parse(args)

	opts := run.Options{ConfigPath: *configPath, Project: *project, Stderr: os.Stderr}

	if *watch {
		collect := func() (status.Summary, error) {
			return run.CollectStatus(opts)
		}
		if err := tui.Run(*project, collect); err != nil {
			fmt.Fprintf(os.Stderr, "autodev: %v\n", err)
			os.Exit(1)
		}
		return
	}

	summary, err := run.CollectStatus(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "autodev: %v\n", err)
		os.Exit(1)
	}
	fmt.Print(summary.String())
}

// runConfig handles the init and show subcommands.
func runConfig(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "autodev: config requires a subcommand: init or show")
		os.Exit(2)
	}
	sub := args[0]
	flags := flag.NewFlagSet("config "+sub, flag.ExitOnError)
	configPath := flags.String("config", "", "path to the configuration file")
	_ = flags.Parse(args[1:])

	path := *configPath
	if path == "" {
		resolved, err := config.DefaultPath()
		if err != nil {
			fmt.Fprintf(os.Stderr, "autodev: %v\n", err)
			os.Exit(1)
		}
		path = resolved
	}

	switch sub {
	case "init":
		written, err := config.Init(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "autodev: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("wrote %s\n", written)
	case "show":
		warn := func(msg string) { fmt.Fprintf(os.Stderr, "warning: %s\n", msg) }
		cfg, err := config.Load(path, warn)
		if err != nil {
			fmt.Fprintf(os.Stderr, "autodev: %v\n", err)
			os.Exit(1)
		}
		rendered, err := config.Render(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "autodev: %v\n", err)
			os.Exit(1)
		}
		fmt.Print(rendered)
	default:
		fmt.Fprintf(os.Stderr, "autodev: unknown config subcommand %q\n", sub)
		os.Exit(2)
	}
}

// exitCode maps outcomes onto process exit codes. Configuration absence
// exits 2 so wrappers can distinguish setup problems from task failures.
func exitCode(s pipeline.Status) int {
	switch s {
	case pipeline.StatusCompleted, pipeline.StatusCompletedWithWarning, pipeline.StatusNoEligibleTask:
		return 0
	case pipeline.StatusNoConfiguration, pipeline.StatusNoProjectConfig:
		return 2
	default:
		return 1
	}
}
