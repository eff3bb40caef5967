package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"horse.fit/gaffer/internal/cli"
	"horse.fit/gaffer/internal/db"
	"horse.fit/gaffer/internal/identity"
)

func runStories(args []string) int {
	fs := flag.NewFlagSet("stories", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 30*time.Second, "Command timeout")
	status := fs.String("status", "", "Filter by lifecycle status")
	player := fs.String("player", "", "Filter by player name")
	minImportance := fs.Int("min-importance", 1, "Minimum importance score")
	from := fs.String("from", defaultUTCDayString(), "Start date in YYYY-MM-DD (UTC)")
	to := fs.String("to", defaultUTCDayString(), "End date in YYYY-MM-DD (UTC)")
	limit := fs.Int("limit", 50, "Maximum stories to return")
	format := fs.String("format", outputFormatTable, "Output format: table or json")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "stories does not accept positional arguments")
		return 2
	}
	if *limit <= 0 {
		fmt.Fprintln(os.Stderr, "--limit must be > 0")
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

	fromStart, toEnd, err := parseUTCDateRange(*from, *to)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid date range: %v\n", err)
		return 2
	}

	ctx, cancel, pool, err := connectReadPool(*timeout, envLoader)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer cancel()
	defer pool.Close()

	rows, err := pool.ListStories(ctx, db.StoryListOptions{
		Status:        *status,
		Player:        identity.NormalizeName(*player),
		MinImportance: *minImportance,
		From:          fromStart,
		To:            toEnd,
		Limit:         *limit,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to list stories: %v\n", err)
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
			row.StoryUUID,
			truncateForTable(row.Player, 28),
			truncateForTable(clubSummary(row.PrimaryClubs), 40),
			row.Status,
			fmt.Sprintf("%d", row.Importance),
			fmt.Sprintf("%d", row.UpdateCount),
			formatUTCTimestamp(row.LastUpdated),
		})
	}
	if err := writeTable([]string{"story_uuid", "player", "clubs", "status", "importance", "updates", "last_updated"}, tableRows); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to render table: %v\n", err)
		return 1
	}

	return 0
}
