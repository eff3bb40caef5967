package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"horse.fit/gaffer/internal/cli"
	"horse.fit/gaffer/internal/db"
)

func runStoryDetail(args []string) int {
	fs := flag.NewFlagSet("story", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 30*time.Second, "Command timeout")
	format := fs.String("format", outputFormatJSON, "Output format: table or json")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "story requires exactly one story UUID argument")
		return 2
	}
	storyUUID := fs.Arg(0)

	outputFormat, err := parseOutputFormat(*format, outputFormatJSON)
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

	detail, err := pool.GetStoryDetail(ctx, storyUUID)
	if err != nil {
		if db.IsNoRows(err) {
			fmt.Fprintf(os.Stderr, "Story %s not found\n", storyUUID)
			return 1
		}
		fmt.Fprintf(os.Stderr, "Failed to load story: %v\n", err)
		return 1
	}

	if outputFormat == outputFormatJSON {
		if err := printJSON(detail); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
			return 1
		}
		return 0
	}

	fmt.Printf("player=%s status=%s importance=%d updates=%d\n",
		detail.Story.Player, detail.Story.Status, detail.Story.Importance, detail.Story.UpdateCount)
	fmt.Printf("identity_key=%s\n", detail.Story.IdentityKey)
	fmt.Printf("clubs=%s\n", clubSummary(detail.Story.PrimaryClubs))
	fmt.Println()

	factRows := make([][]string, 0, len(detail.Facts))
	for _, fact := range detail.Facts {
		factRows = append(factRows, []string{
			fmt.Sprintf("%d", fact.Position),
			truncateForTable(fact.SourceName, 24),
			formatUTCTimestamp(fact.CreatedAt),
		})
	}
	if err := writeTable([]string{"position", "source", "recorded_at"}, factRows); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to render facts table: %v\n", err)
		return 1
	}

	fmt.Println()
	eventRows := make([][]string, 0, len(detail.Events))
	for _, event := range detail.Events {
		material := ""
		if event.Material {
			material = "material"
		}
		eventRows = append(eventRows, []string{
			event.Decision,
			material,
			formatUTCTimestamp(event.CreatedAt),
		})
	}
	if err := writeTable([]string{"decision", "material", "at"}, eventRows); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to render events table: %v\n", err)
		return 1
	}

	return 0
}
