package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"horse.fit/gaffer/internal/cli"
	"horse.fit/gaffer/internal/globaltime"
)

func runBriefing(args []string) int {
	fs := flag.NewFlagSet("briefing", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 30*time.Second, "Command timeout")
	window := fs.Duration("window", 24*time.Hour, "How far back to look for material updates")
	minImportance := fs.Int("min-importance", 5, "Minimum importance score")
	format := fs.String("format", outputFormatTable, "Output format: table or json")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "briefing does not accept positional arguments")
		return 2
	}
	if *window <= 0 {
		fmt.Fprintln(os.Stderr, "--window must be > 0")
		return 2
	}
	if *minImportance < 1 || *minImportance > 10 {
		fmt.Fprintln(os.Stderr, "--min-importance must be between 1 and 10")
		return 2
	}

	outputFormat, err := parseOutputFormat(*format, outputFormatTable)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid format: %v\n", err)
		return 2
	}

	ctx, cancel, pool, err := connectReadPool(*timeout, envLoader)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer cancel()
	defer pool.Close()

	to := globaltime.UTC()
	from := to.Add(-*window)

	rows, err := pool.ListBriefingStories(ctx, from, to, *minImportance)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load briefing: %v\n", err)
		return 1
	}

	if outputFormat == outputFormatJSON {
		if err := printJSON(rows); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
			return 1
		}
		return 0
	}

	tableRows := make([][]string, 0, len(rows))
	for _, row := range rows {
		tableRows = append(tableRows, []string{
			fmt.Sprintf("%d", row.Importance),
			truncateForTable(row.Player, 28),
			truncateForTable(clubSummary(row.PrimaryClubs), 40),
			row.Status,
			formatUTCTimestamp(row.LastUpdated),
		})
	}
	if err := writeTable([]string{"importance", "player", "clubs", "status", "last_updated"}, tableRows); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to render table: %v\n", err)
		return 1
	}

	return 0
}
