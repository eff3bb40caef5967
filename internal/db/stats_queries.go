package db

import (
	"context"
	"fmt"
	"time"
)

// StatsStatusCount stores per-status story counts.
type StatsStatusCount struct {
	Status  string `json:"status"`
	Stories int64  `json:"stories"`
}

// StatsDecisionCount stores per-decision merge event counts.
type StatsDecisionCount struct {
	Decision string `json:"decision"`
	Events   int64  `json:"events"`
}

// PipelineThroughput stores throughput/backlog counters.
type PipelineThroughput struct {
	ItemsIngestedToday  int64 `json:"items_ingested_today"`
	StoriesCreatedToday int64 `json:"stories_created_today"`
	PendingItems        int64 `json:"pending_items"`
	FailedItems         int64 `json:"failed_items"`
}

// PipelineStats is the read model returned by the stats command.
type PipelineStats struct {
	Day        string               `json:"day"`
	Statuses   []StatsStatusCount   `json:"statuses"`
	Decisions  []StatsDecisionCount `json:"decisions"`
	Stories    int64                `json:"stories"`
	Throughput PipelineThroughput   `json:"throughput"`
}

// QueryPipelineStats returns per-status story counts, merge decision counts
// and daily throughput.
func (p *Pool) QueryPipelineStats(ctx context.Context, dayStart, dayEnd time.Time) (*PipelineStats, error) {
	startUTC := dayStart.UTC()
	endUTC := dayEnd.UTC()
	if !startUTC.Before(endUTC) {
		return nil, fmt.Errorf("dayStart must be before dayEnd")
	}

	stats := &PipelineStats{
		Day:       startUTC.Format("2006-01-02"),
		Statuses:  make([]StatsStatusCount, 0, 8),
		Decisions: make([]StatsDecisionCount, 0, 8),
	}

	const statusQuery = `
SELECT s.status, COUNT(*)::BIGINT AS stories
FROM transfers.stories s
GROUP BY s.status
ORDER BY 1
`
	statusRows, err := p.Query(ctx, statusQuery)
	if err != nil {
		return nil, fmt.Errorf("query stats status counts: %w", err)
	}
	defer statusRows.Close()

	for statusRows.Next() {
		var row StatsStatusCount
		if err := statusRows.Scan(&row.Status, &row.Stories); err != nil {
			return nil, fmt.Errorf("scan stats status row: %w", err)
		}
		stats.Statuses = append(stats.Statuses, row)
		stats.Stories += row.Stories
	}
	if err := statusRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stats status rows: %w", err)
	}

	const decisionQuery = `
SELECT me.decision, COUNT(*)::BIGINT AS events
FROM transfers.merge_events me
WHERE me.created_at >= $1
  AND me.created_at < $2
GROUP BY me.decision
ORDER BY 1
`
	decisionRows, err := p.Query(ctx, decisionQuery, startUTC, endUTC)
	if err != nil {
		return nil, fmt.Errorf("query stats decision counts: %w", err)
	}
	defer decisionRows.Close()

	for decisionRows.Next() {
		var row StatsDecisionCount
		if err := decisionRows.Scan(&row.Decision, &row.Events); err != nil {
			return nil, fmt.Errorf("scan stats decision row: %w", err)
		}
		stats.Decisions = append(stats.Decisions, row)
	}
	if err := decisionRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stats decision rows: %w", err)
	}

	const throughputQuery = `
SELECT
	(SELECT COUNT(*) FROM transfers.raw_items ri WHERE ri.created_at >= $1 AND ri.created_at < $2) AS items_ingested_today,
	(SELECT COUNT(*) FROM transfers.stories s WHERE s.created_at >= $1 AND s.created_at < $2) AS stories_created_today,
	(SELECT COUNT(*) FROM transfers.raw_items ri WHERE ri.process_status = 'pending') AS pending_items,
	(SELECT COUNT(*) FROM transfers.raw_items ri WHERE ri.process_status = 'failed') AS failed_items
`

	if err := p.QueryRow(ctx, throughputQuery, startUTC, endUTC).Scan(
		&stats.Throughput.ItemsIngestedToday,
		&stats.Throughput.StoriesCreatedToday,
		&stats.Throughput.PendingItems,
		&stats.Throughput.FailedItems,
	); err != nil {
		return nil, fmt.Errorf("query stats throughput: %w", err)
	}

	return stats, nil
}
