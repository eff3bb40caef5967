package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// StorySummary is a read model used by list/briefing commands and the API.
type StorySummary struct {
	StoryID      int64           `json:"story_id"`
	StoryUUID    string          `json:"story_uuid"`
	IdentityKey  string          `json:"identity_key"`
	Player       string          `json:"player"`
	Status       string          `json:"status"`
	Importance   int             `json:"importance"`
	PrimaryClubs json.RawMessage `json:"primary_clubs,omitempty"`
	Sources      json.RawMessage `json:"sources,omitempty"`
	UpdateCount  int             `json:"update_count"`
	LastUpdated  time.Time       `json:"last_updated"`
	CreatedAt    time.Time       `json:"created_at"`
}

// StoryListOptions controls story listing queries.
type StoryListOptions struct {
	Status        string
	Player        string
	MinImportance int
	From          time.Time
	To            time.Time
	Limit         int
}

// StoryDetail contains one story, its contributing facts and its merge trail.
type StoryDetail struct {
	Story  StorySummary      `json:"story"`
	Facts  []StoryDetailFact `json:"facts"`
	Events []MergeEventRow   `json:"events"`
}

// StoryDetailFact is one contributed fact within a story.
type StoryDetailFact struct {
	Position   int             `json:"position"`
	Facts      json.RawMessage `json:"facts"`
	SourceName string          `json:"source_name"`
	SourceURL  *string         `json:"source_url,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// MergeEventRow is one audit row in a story's merge trail.
type MergeEventRow struct {
	MergeEventID int64     `json:"merge_event_id"`
	RawItemID    int64     `json:"raw_item_id"`
	Decision     string    `json:"decision"`
	Material     bool      `json:"material"`
	Ambiguous    bool      `json:"ambiguous"`
	StatusBefore *string   `json:"status_before,omitempty"`
	StatusAfter  *string   `json:"status_after,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// ListStories lists stories filtered by status, player and importance,
// most recently updated first.
func (p *Pool) ListStories(ctx context.Context, opts StoryListOptions) ([]StorySummary, error) {
	if opts.Limit <= 0 {
		return nil, fmt.Errorf("limit must be > 0")
	}

	from := opts.From.UTC()
	to := opts.To.UTC()
	if !from.Before(to) {
		return nil, fmt.Errorf("from must be before to")
	}

	const q = `
SELECT
	s.story_id,
	s.story_uuid::text,
	s.identity_key,
	s.player,
	s.status,
	s.importance,
	s.primary_clubs,
	s.sources,
	s.update_count,
	s.last_updated,
	s.created_at
FROM transfers.stories s
WHERE s.last_updated >= $1
  AND s.last_updated < $2
  AND ($3 = '' OR s.status = $3)
  AND ($4 = '' OR s.player_key = $4)
  AND s.importance >= $5
ORDER BY s.importance DESC, s.last_updated DESC, s.story_id DESC
LIMIT $6
`

	rows, err := p.Query(ctx, q,
		from, to,
		strings.TrimSpace(strings.ToLower(opts.Status)),
		strings.TrimSpace(opts.Player),
		opts.MinImportance,
		opts.Limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query stories: %w", err)
	}
	defer rows.Close()

	return scanStorySummaries(rows, opts.Limit)
}

// GetStoryDetail returns one story by UUID with facts and merge trail.
func (p *Pool) GetStoryDetail(ctx context.Context, storyUUID string) (*StoryDetail, error) {
	trimmedUUID := strings.TrimSpace(storyUUID)
	if trimmedUUID == "" {
		return nil, fmt.Errorf("story UUID is required")
	}

	const storyQuery = `
SELECT
	s.story_id,
	s.story_uuid::text,
	s.identity_key,
	s.player,
	s.status,
	s.importance,
	s.primary_clubs,
	s.sources,
	s.update_count,
	s.last_updated,
	s.created_at
FROM transfers.stories s
WHERE s.story_uuid = $1::uuid
`

	var header StorySummary
	if err := scanStorySummary(p.QueryRow(ctx, storyQuery, trimmedUUID), &header); err != nil {
		if errors.Is(err, ErrNoRows) {
			return nil, ErrNoRows
		}
		return nil, fmt.Errorf("query story detail header: %w", err)
	}

	const factsQuery = `
SELECT sf.position, sf.facts, sf.source_name, sf.source_url, sf.created_at
FROM transfers.story_facts sf
WHERE sf.story_id = $1
ORDER BY sf.position ASC
`
	factRows, err := p.Query(ctx, factsQuery, header.StoryID)
	if err != nil {
		return nil, fmt.Errorf("query story detail facts: %w", err)
	}
	defer factRows.Close()

	facts := make([]StoryDetailFact, 0, header.UpdateCount+1)
	for factRows.Next() {
		var fact StoryDetailFact
		if err := factRows.Scan(&fact.Position, &fact.Facts, &fact.SourceName, &fact.SourceURL, &fact.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan story detail fact: %w", err)
		}
		facts = append(facts, fact)
	}
	if err := factRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate story detail facts: %w", err)
	}

	const eventsQuery = `
SELECT
	me.merge_event_id,
	me.raw_item_id,
	me.decision,
	me.material,
	me.ambiguous,
	me.status_before,
	me.status_after,
	me.created_at
FROM transfers.merge_events me
WHERE me.story_id = $1
ORDER BY me.created_at DESC, me.merge_event_id DESC
`
	eventRows, err := p.Query(ctx, eventsQuery, header.StoryID)
	if err != nil {
		return nil, fmt.Errorf("query story detail events: %w", err)
	}
	defer eventRows.Close()

	events := make([]MergeEventRow, 0, len(facts))
	for eventRows.Next() {
		var event MergeEventRow
		if err := eventRows.Scan(
			&event.MergeEventID,
			&event.RawItemID,
			&event.Decision,
			&event.Material,
			&event.Ambiguous,
			&event.StatusBefore,
			&event.StatusAfter,
			&event.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan story detail event: %w", err)
		}
		events = append(events, event)
	}
	if err := eventRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate story detail events: %w", err)
	}

	return &StoryDetail{
		Story:  header,
		Facts:  facts,
		Events: events,
	}, nil
}

// ListBriefingStories lists stories with material merge activity in the
// provided UTC window, highest importance first.
func (p *Pool) ListBriefingStories(ctx context.Context, from, to time.Time, minImportance int) ([]StorySummary, error) {
	fromUTC := from.UTC()
	toUTC := to.UTC()
	if !fromUTC.Before(toUTC) {
		return nil, fmt.Errorf("from must be before to")
	}

	const q = `
SELECT
	s.story_id,
	s.story_uuid::text,
	s.identity_key,
	s.player,
	s.status,
	s.importance,
	s.primary_clubs,
	s.sources,
	s.update_count,
	s.last_updated,
	s.created_at
FROM transfers.stories s
WHERE s.importance >= $3
  AND EXISTS (
	SELECT 1
	FROM transfers.merge_events me
	WHERE me.story_id = s.story_id
	  AND me.material
	  AND me.created_at >= $1
	  AND me.created_at < $2
  )
ORDER BY s.importance DESC, s.last_updated DESC, s.story_id DESC
`

	rows, err := p.Query(ctx, q, fromUTC, toUTC, minImportance)
	if err != nil {
		return nil, fmt.Errorf("query briefing stories: %w", err)
	}
	defer rows.Close()

	return scanStorySummaries(rows, 64)
}

func scanStorySummaries(rows *Rows, capacity int) ([]StorySummary, error) {
	if capacity < 0 {
		capacity = 0
	}

	items := make([]StorySummary, 0, capacity)
	for rows.Next() {
		var row StorySummary
		if err := rows.Scan(
			&row.StoryID,
			&row.StoryUUID,
			&row.IdentityKey,
			&row.Player,
			&row.Status,
			&row.Importance,
			&row.PrimaryClubs,
			&row.Sources,
			&row.UpdateCount,
			&row.LastUpdated,
			&row.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan story summary row: %w", err)
		}
		items = append(items, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate story summary rows: %w", err)
	}
	return items, nil
}

func scanStorySummary(row *Row, dest *StorySummary) error {
	return row.Scan(
		&dest.StoryID,
		&dest.StoryUUID,
		&dest.IdentityKey,
		&dest.Player,
		&dest.Status,
		&dest.Importance,
		&dest.PrimaryClubs,
		&dest.Sources,
		&dest.UpdateCount,
		&dest.LastUpdated,
		&dest.CreatedAt,
	)
}
