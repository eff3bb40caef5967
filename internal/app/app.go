// Package app wires configuration, database and services into the CLI
// commands and maps each command to a process exit code.
package app

import (
	"fmt"
	"os"
	"strings"
)

// Run executes the CLI command and returns a process exit code.
func Run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return 2
	}

	switch strings.ToLower(strings.TrimSpace(args[0])) {
	case "help", "--help", "-h":
		printUsage()
		return 0
	case "health":
		return runHealth(args[1:])
	case "ingest":
		return runIngest(args[1:])
	case "validate":
		return runValidate(args[1:])
	case "process", "run-once":
		return runProcess(args[1:])
	case "stories":
		return runStories(args[1:])
	case "story":
		return runStoryDetail(args[1:])
	case "briefing":
		return runBriefing(args[1:])
	case "stats":
		return runStats(args[1:])
	case "serve":
		return runServe(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", args[0])
		printUsage()
		return 2
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "gaffer CLI")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  gaffer <command> [flags]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  health    Verify database connectivity")
	fmt.Fprintln(os.Stderr, "  ingest    Insert one report into the ingest ledger")
	fmt.Fprintln(os.Stderr, "  validate  Validate report JSON files against the v1 schema")
	fmt.Fprintln(os.Stderr, "  process   Extract facts from pending reports and merge them into stories")
	fmt.Fprintln(os.Stderr, "  run-once  Alias for process")
	fmt.Fprintln(os.Stderr, "  stories   List transfer stories")
	fmt.Fprintln(os.Stderr, "  story     Show one story with its facts and merge trail")
	fmt.Fprintln(os.Stderr, "  briefing  List materially updated stories in a recent window")
	fmt.Fprintln(os.Stderr, "  stats     Show pipeline counters")
	fmt.Fprintln(os.Stderr, "  serve     Start Echo API server")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Use \"gaffer <command> -h\" for command-specific flags.")
}
