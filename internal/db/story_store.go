package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"horse.fit/gaffer/internal/extract"
	"horse.fit/gaffer/internal/globaltime"
	"horse.fit/gaffer/internal/identity"
	"horse.fit/gaffer/internal/story"
)

// StoryStore is the postgres-backed story.Store. Upserts run inside one
// transaction so a story and its fact rows move together.
type StoryStore struct {
	pool *Pool
}

func NewStoryStore(pool *Pool) *StoryStore {
	return &StoryStore{pool: pool}
}

func (s *StoryStore) FindByIdentityKey(ctx context.Context, key string) (*story.Story, error) {
	const q = `
SELECT
	s.story_id,
	s.story_uuid::text,
	s.identity_key,
	s.player,
	s.status,
	s.importance,
	s.update_count,
	s.last_updated,
	s.last_checked_at,
	s.created_at
FROM transfers.stories s
WHERE s.identity_key = $1
`
	loaded, err := s.scanStory(ctx, s.pool.QueryRow(ctx, q, key))
	if err != nil {
		if errors.Is(err, ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return loaded, nil
}

func (s *StoryStore) FindByPlayerAndRecency(ctx context.Context, player string, window time.Duration) ([]*story.Story, error) {
	const q = `
SELECT s.story_id
FROM transfers.stories s
WHERE s.player_key = $1
  AND s.last_updated >= $2
ORDER BY s.last_updated DESC, s.story_id DESC
`
	cutoff := globaltime.UTC().Add(-window)
	rows, err := s.pool.Query(ctx, q, player, cutoff)
	if err != nil {
		return nil, fmt.Errorf("query stories by player: %w", err)
	}
	defer rows.Close()

	ids := make([]int64, 0, 4)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan story id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate story ids: %w", err)
	}

	stories := make([]*story.Story, 0, len(ids))
	for _, id := range ids {
		loaded, err := s.findByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if loaded != nil {
			stories = append(stories, loaded)
		}
	}
	return stories, nil
}

func (s *StoryStore) Upsert(ctx context.Context, st *story.Story) error {
	if st == nil {
		return fmt.Errorf("story is nil")
	}

	primaryClubs, err := json.Marshal(st.PrimaryClubs)
	if err != nil {
		return fmt.Errorf("marshal primary clubs: %w", err)
	}
	sources, err := json.Marshal(st.Sources)
	if err != nil {
		return fmt.Errorf("marshal sources: %w", err)
	}

	tx, err := s.pool.BeginTx(ctx, TxOptions{})
	if err != nil {
		return fmt.Errorf("begin story upsert tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const upsertQuery = `
INSERT INTO transfers.stories (
	identity_key, player, player_key, status, importance,
	primary_clubs, sources, update_count,
	last_updated, last_checked_at, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now())
ON CONFLICT (identity_key) DO UPDATE SET
	player = EXCLUDED.player,
	player_key = EXCLUDED.player_key,
	status = EXCLUDED.status,
	importance = EXCLUDED.importance,
	primary_clubs = EXCLUDED.primary_clubs,
	sources = EXCLUDED.sources,
	update_count = EXCLUDED.update_count,
	last_updated = EXCLUDED.last_updated,
	last_checked_at = EXCLUDED.last_checked_at,
	updated_at = now()
RETURNING story_id, story_uuid::text
`
	if err := tx.QueryRow(ctx, upsertQuery,
		st.IdentityKey,
		st.Player,
		identity.NormalizeName(st.Player),
		string(st.Status),
		st.Importance,
		primaryClubs,
		sources,
		st.UpdateCount,
		st.LastUpdated.UTC(),
		st.LastCheckedAt.UTC(),
		st.CreatedAt.UTC(),
	).Scan(&st.ID, &st.UUID); err != nil {
		return fmt.Errorf("upsert story row: %w", err)
	}

	// Fact rows mirror st.Facts exactly. Overwriting by position and
	// trimming the tail matters when a fresh story reuses the identity
	// key of an idle one: the defunct facts must not survive the upsert.
	const factQuery = `
INSERT INTO transfers.story_facts (story_id, position, facts, source_name, source_url)
VALUES ($1, $2, $3, $4, NULLIF($5, ''))
ON CONFLICT (story_id, position) DO UPDATE SET
	facts = EXCLUDED.facts,
	source_name = EXCLUDED.source_name,
	source_url = EXCLUDED.source_url
`
	for position, fact := range st.Facts {
		payload, err := json.Marshal(fact)
		if err != nil {
			return fmt.Errorf("marshal fact %d: %w", position, err)
		}
		if _, err := tx.Exec(ctx, factQuery, st.ID, position, payload, fact.SourceName, fact.SourceURL); err != nil {
			return fmt.Errorf("insert fact %d: %w", position, err)
		}
	}

	const trimQuery = `
DELETE FROM transfers.story_facts
WHERE story_id = $1 AND position >= $2
`
	if _, err := tx.Exec(ctx, trimQuery, st.ID, len(st.Facts)); err != nil {
		return fmt.Errorf("trim stale facts: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit story upsert: %w", err)
	}
	return nil
}

func (s *StoryStore) findByID(ctx context.Context, id int64) (*story.Story, error) {
	const q = `
SELECT
	s.story_id,
	s.story_uuid::text,
	s.identity_key,
	s.player,
	s.status,
	s.importance,
	s.update_count,
	s.last_updated,
	s.last_checked_at,
	s.created_at
FROM transfers.stories s
WHERE s.story_id = $1
`
	loaded, err := s.scanStory(ctx, s.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return loaded, nil
}

func (s *StoryStore) scanStory(ctx context.Context, row *Row) (*story.Story, error) {
	var (
		st        story.Story
		statusRaw string
	)
	if err := row.Scan(
		&st.ID,
		&st.UUID,
		&st.IdentityKey,
		&st.Player,
		&statusRaw,
		&st.Importance,
		&st.UpdateCount,
		&st.LastUpdated,
		&st.LastCheckedAt,
		&st.CreatedAt,
	); err != nil {
		if errors.Is(err, ErrNoRows) {
			return nil, ErrNoRows
		}
		return nil, fmt.Errorf("scan story row: %w", err)
	}

	status, ok := story.ParseStatus(statusRaw)
	if !ok {
		return nil, fmt.Errorf("story %d has unknown status %q", st.ID, statusRaw)
	}
	st.Status = status

	facts, err := s.loadFacts(ctx, st.ID)
	if err != nil {
		return nil, err
	}
	st.Facts = facts
	st.RecomputeDerived()

	return &st, nil
}

func (s *StoryStore) loadFacts(ctx context.Context, storyID int64) ([]extract.Facts, error) {
	const q = `
SELECT sf.facts
FROM transfers.story_facts sf
WHERE sf.story_id = $1
ORDER BY sf.position ASC
`
	rows, err := s.pool.Query(ctx, q, storyID)
	if err != nil {
		return nil, fmt.Errorf("query story facts: %w", err)
	}
	defer rows.Close()

	facts := make([]extract.Facts, 0, 4)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan story fact row: %w", err)
		}
		var fact extract.Facts
		if err := json.Unmarshal(payload, &fact); err != nil {
			return nil, fmt.Errorf("unmarshal story fact: %w", err)
		}
		facts = append(facts, fact)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate story fact rows: %w", err)
	}
	return facts, nil
}
