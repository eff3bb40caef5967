package db

import (
	"context"
	"fmt"
	"time"
)

// PendingItem is a claimed raw report handed to the processing pipeline.
type PendingItem struct {
	RawItemID   int64
	Source      string
	AuthorName  string
	Text        string
	URL         *string
	Language    string
	PublishedAt *time.Time
	Attempts    int
}

// ClaimPendingItems atomically claims up to limit pending raw items for
// processing. SKIP LOCKED lets concurrent workers share the backlog
// without double-claiming.
func (p *Pool) ClaimPendingItems(ctx context.Context, limit, maxAttempts int) ([]PendingItem, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be > 0")
	}
	if maxAttempts <= 0 {
		return nil, fmt.Errorf("maxAttempts must be > 0")
	}

	const q = `
UPDATE transfers.raw_items ri
SET process_status = 'processing',
    attempts = ri.attempts + 1
FROM (
	SELECT raw_item_id
	FROM transfers.raw_items
	WHERE process_status = 'pending'
	  AND attempts < $2
	ORDER BY COALESCE(published_at, fetched_at) ASC, raw_item_id ASC
	LIMIT $1
	FOR UPDATE SKIP LOCKED
) candidate
WHERE ri.raw_item_id = candidate.raw_item_id
RETURNING
	ri.raw_item_id,
	ri.source,
	ri.author_name,
	ri.text,
	ri.url,
	ri.language,
	ri.published_at,
	ri.attempts
`

	rows, err := p.Query(ctx, q, limit, maxAttempts)
	if err != nil {
		return nil, fmt.Errorf("claim pending items: %w", err)
	}
	defer rows.Close()

	items := make([]PendingItem, 0, limit)
	for rows.Next() {
		var item PendingItem
		if err := rows.Scan(
			&item.RawItemID,
			&item.Source,
			&item.AuthorName,
			&item.Text,
			&item.URL,
			&item.Language,
			&item.PublishedAt,
			&item.Attempts,
		); err != nil {
			return nil, fmt.Errorf("scan pending item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending items: %w", err)
	}
	return items, nil
}

// MarkItemProcessed finalizes a claimed item that produced or joined a story.
func (p *Pool) MarkItemProcessed(ctx context.Context, rawItemID, storyID int64) error {
	const q = `
UPDATE transfers.raw_items
SET process_status = 'processed',
    story_id = $2,
    last_error = NULL,
    processed_at = now()
WHERE raw_item_id = $1
`
	tag, err := p.Exec(ctx, q, rawItemID, storyID)
	if err != nil {
		return fmt.Errorf("mark item processed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("raw item %d not found", rawItemID)
	}
	return nil
}

// MarkItemSkipped finalizes a claimed item that yielded no extractable facts.
func (p *Pool) MarkItemSkipped(ctx context.Context, rawItemID int64, reason string) error {
	const q = `
UPDATE transfers.raw_items
SET process_status = 'skipped',
    last_error = NULLIF($2, ''),
    processed_at = now()
WHERE raw_item_id = $1
`
	tag, err := p.Exec(ctx, q, rawItemID, reason)
	if err != nil {
		return fmt.Errorf("mark item skipped: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("raw item %d not found", rawItemID)
	}
	return nil
}

// RequeueItem returns a claimed item to the backlog after a transient
// failure; once attempts reach maxAttempts the item is parked as failed.
func (p *Pool) RequeueItem(ctx context.Context, rawItemID int64, maxAttempts int, errMsg string) error {
	const q = `
UPDATE transfers.raw_items
SET process_status = CASE WHEN attempts >= $2 THEN 'failed' ELSE 'pending' END,
    last_error = NULLIF($3, '')
WHERE raw_item_id = $1
`
	tag, err := p.Exec(ctx, q, rawItemID, maxAttempts, errMsg)
	if err != nil {
		return fmt.Errorf("requeue item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("raw item %d not found", rawItemID)
	}
	return nil
}

// InsertMergeEvent appends one audit row for a resolve decision.
func (p *Pool) InsertMergeEvent(ctx context.Context, event *MergeEvent) error {
	if event == nil {
		return fmt.Errorf("merge event is nil")
	}

	const q = `
INSERT INTO transfers.merge_events (
	raw_item_id, story_id, decision, identity_key,
	material, ambiguous, status_before, status_after, details
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING merge_event_id, merge_event_uuid::text, created_at
`
	if err := p.QueryRow(ctx, q,
		event.RawItemID,
		event.StoryID,
		event.Decision,
		event.IdentityKey,
		event.Material,
		event.Ambiguous,
		event.StatusBefore,
		event.StatusAfter,
		event.Details,
	).Scan(&event.MergeEventID, &event.MergeEventUUID, &event.CreatedAt); err != nil {
		return fmt.Errorf("insert merge event: %w", err)
	}
	return nil
}
