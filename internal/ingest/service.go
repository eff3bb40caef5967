// Package ingest records arriving reports in the durable ingest ledger:
// one run row per invocation, one raw item per report, plus the per-source
// cursor checkpoint.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"horse.fit/gaffer/internal/db"
	"horse.fit/gaffer/internal/langdetect"
)

// Request is one report to record.
type Request struct {
	Source           string
	SourceItemID     string
	AuthorName       string
	Text             string
	URL              string
	PublishedAt      *time.Time
	RawPayload       json.RawMessage
	CursorCheckpoint json.RawMessage
}

// Result reports what the ledger recorded.
type Result struct {
	RunID          int64
	RunUUID        string
	Status         string
	Inserted       bool
	PayloadHashHex string
	Language       string
	RawItemID      *int64
	RawItemUUID    *string
}

type Service struct {
	pool   *db.Pool
	logger zerolog.Logger
}

func NewService(pool *db.Pool, logger zerolog.Logger) *Service {
	return &Service{pool: pool, logger: logger}
}

// IngestOne records a single report. Re-sending the same (source,
// source_item_id) pair is a no-op for the raw item but still advances the
// checkpoint and closes the run as succeeded.
func (s *Service) IngestOne(ctx context.Context, req Request) (*Result, error) {
	source := strings.TrimSpace(req.Source)
	sourceItemID := strings.TrimSpace(req.SourceItemID)
	if source == "" {
		return nil, fmt.Errorf("source is required")
	}
	if sourceItemID == "" {
		return nil, fmt.Errorf("source item id is required")
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, fmt.Errorf("text is required")
	}
	if len(req.RawPayload) == 0 {
		return nil, fmt.Errorf("raw payload is required")
	}

	hash := sha256.Sum256(req.RawPayload)
	language := langdetect.NormalizeCode(langdetect.DetectISO6391(text))
	if language == "" {
		language = "und"
	}

	tx, err := s.pool.BeginTx(ctx, db.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin ingest tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	result := &Result{
		PayloadHashHex: hex.EncodeToString(hash[:]),
		Language:       language,
	}

	const runQuery = `
INSERT INTO transfers.ingest_runs (source, status, items_fetched)
VALUES ($1, 'running', 1)
RETURNING run_id, ingest_run_uuid::text
`
	if err := tx.QueryRow(ctx, runQuery, source).Scan(&result.RunID, &result.RunUUID); err != nil {
		return nil, fmt.Errorf("insert ingest run: %w", err)
	}

	const itemQuery = `
INSERT INTO transfers.raw_items (
	run_id, source, source_item_id, author_name, text, url,
	language, published_at, raw_payload, payload_hash
) VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8, $9, $10)
ON CONFLICT (source, source_item_id) DO NOTHING
RETURNING raw_item_id, raw_item_uuid::text
`
	var (
		rawItemID   int64
		rawItemUUID string
	)
	err = tx.QueryRow(ctx, itemQuery,
		result.RunID,
		source,
		sourceItemID,
		strings.TrimSpace(req.AuthorName),
		text,
		strings.TrimSpace(req.URL),
		language,
		req.PublishedAt,
		req.RawPayload,
		hash[:],
	).Scan(&rawItemID, &rawItemUUID)
	switch {
	case err == nil:
		result.Inserted = true
		result.RawItemID = &rawItemID
		result.RawItemUUID = &rawItemUUID
	case db.IsNoRows(err):
		// Duplicate delivery; the ledger already has this item.
	default:
		return nil, fmt.Errorf("insert raw item: %w", err)
	}

	if len(req.CursorCheckpoint) > 0 {
		const checkpointQuery = `
INSERT INTO transfers.source_checkpoints (source, cursor_checkpoint, last_successful_run_id, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (source) DO UPDATE SET
	cursor_checkpoint = EXCLUDED.cursor_checkpoint,
	last_successful_run_id = EXCLUDED.last_successful_run_id,
	updated_at = now()
`
		if _, err := tx.Exec(ctx, checkpointQuery, source, req.CursorCheckpoint, result.RunID); err != nil {
			return nil, fmt.Errorf("upsert source checkpoint: %w", err)
		}
	}

	inserted := 0
	if result.Inserted {
		inserted = 1
	}
	const finishQuery = `
UPDATE transfers.ingest_runs
SET status = 'succeeded',
    items_inserted = $2,
    cursor_checkpoint = $3,
    finished_at = now(),
    updated_at = now()
WHERE run_id = $1
`
	if _, err := tx.Exec(ctx, finishQuery, result.RunID, inserted, req.CursorCheckpoint); err != nil {
		return nil, fmt.Errorf("finish ingest run: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit ingest tx: %w", err)
	}

	result.Status = "succeeded"
	s.logger.Debug().
		Str("source", source).
		Str("source_item_id", sourceItemID).
		Bool("inserted", result.Inserted).
		Str("language", language).
		Msg("report ingested")

	return result, nil
}
