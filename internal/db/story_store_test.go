package db

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"horse.fit/gaffer/internal/config"
	"horse.fit/gaffer/internal/extract"
	"horse.fit/gaffer/internal/story"
)

// newTestPool connects to the database named by GAFFER_TEST_DATABASE_URL.
// The store tests exercise real ON CONFLICT behavior, so they skip when no
// database is available.
func newTestPool(t *testing.T) *Pool {
	t.Helper()

	dsn := os.Getenv("GAFFER_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("GAFFER_TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	pool, err := NewPool(ctx, &config.Config{
		Environment: "local",
		LogLevel:    "warn",
		DatabaseURL: dsn,
		DBMinConns:  1,
		DBMaxConns:  2,
	})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = pool.Close() })
	return pool
}

func deleteStoryByKey(t *testing.T, pool *Pool, identityKey string) {
	t.Helper()
	ctx := context.Background()
	if _, err := pool.Exec(ctx, `
DELETE FROM transfers.story_facts
WHERE story_id IN (SELECT story_id FROM transfers.stories WHERE identity_key = $1)
`, identityKey); err != nil {
		t.Fatalf("delete story facts: %v", err)
	}
	if _, err := pool.Exec(ctx, `DELETE FROM transfers.stories WHERE identity_key = $1`, identityKey); err != nil {
		t.Fatalf("delete story: %v", err)
	}
}

// A story that idles past the recency window is replaced by a fresh one
// under the same identity key. The replacement must not inherit the defunct
// story's fact rows, and its own fact must survive the upsert.
func TestUpsertReplacesFactsForReusedIdentityKey(t *testing.T) {
	pool := newTestPool(t)
	store := NewStoryStore(pool)
	ctx := context.Background()

	key := fmt.Sprintf("declan rice %d|west ham united|arsenal|potential-transfer", time.Now().UnixNano())
	t.Cleanup(func() { deleteStoryByKey(t, pool, key) })

	now := time.Now().UTC().Truncate(time.Millisecond)
	idleSince := now.Add(-60 * 24 * time.Hour)

	defunct := &story.Story{
		IdentityKey: key,
		Player:      "Declan Rice",
		Status:      story.StatusInterest,
		Importance:  4,
		Facts: []extract.Facts{
			{Player: "Declan Rice", ToClub: "Arsenal", SourceName: "sky", SourceURL: "https://example.com/a"},
			{Player: "Declan Rice", ToClub: "Arsenal", SourceName: "bbc", SourceURL: "https://example.com/b"},
			{Player: "Declan Rice", ToClub: "Arsenal", SourceName: "athletic", SourceURL: "https://example.com/c"},
		},
		CreatedAt:     idleSince,
		LastUpdated:   idleSince,
		LastCheckedAt: idleSince,
		UpdateCount:   2,
	}
	defunct.RecomputeDerived()
	if err := store.Upsert(ctx, defunct); err != nil {
		t.Fatalf("seed upsert: %v", err)
	}

	fresh := &story.Story{
		IdentityKey: key,
		Player:      "Declan Rice",
		Status:      story.StatusNegotiating,
		Importance:  6,
		Facts: []extract.Facts{
			{Player: "Declan Rice", ToClub: "Arsenal", FeeMillions: 100, SourceName: "romano", SourceURL: "https://example.com/d"},
		},
		CreatedAt:     now,
		LastUpdated:   now,
		LastCheckedAt: now,
	}
	fresh.RecomputeDerived()
	if err := store.Upsert(ctx, fresh); err != nil {
		t.Fatalf("replacement upsert: %v", err)
	}
	if fresh.ID != defunct.ID {
		t.Fatalf("expected the story row to be reused, got ids %d and %d", defunct.ID, fresh.ID)
	}

	loaded, err := store.FindByIdentityKey(ctx, key)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if loaded == nil {
		t.Fatalf("expected story for key %q", key)
	}
	if len(loaded.Facts) != 1 {
		t.Fatalf("expected the defunct facts to be gone, got %d facts: %+v", len(loaded.Facts), loaded.Facts)
	}
	if loaded.Facts[0].SourceURL != "https://example.com/d" {
		t.Fatalf("expected the fresh fact to win, got %+v", loaded.Facts[0])
	}
	if loaded.UpdateCount != 0 {
		t.Fatalf("expected update count 0, got %d", loaded.UpdateCount)
	}
	if len(loaded.Sources) != 1 || loaded.Sources[0] != "romano" {
		t.Fatalf("unexpected sources: %v", loaded.Sources)
	}
}

// A merge grows the fact list in place: existing positions are rewritten,
// new positions appended, and nothing is trimmed.
func TestUpsertAppendsFactsOnMerge(t *testing.T) {
	pool := newTestPool(t)
	store := NewStoryStore(pool)
	ctx := context.Background()

	key := fmt.Sprintf("jude bellingham %d|free-agent|real madrid|potential-transfer", time.Now().UnixNano())
	t.Cleanup(func() { deleteStoryByKey(t, pool, key) })

	now := time.Now().UTC().Truncate(time.Millisecond)
	st := &story.Story{
		IdentityKey: key,
		Player:      "Jude Bellingham",
		Status:      story.StatusInterest,
		Importance:  3,
		Facts: []extract.Facts{
			{Player: "Jude Bellingham", ToClub: "Real Madrid", SourceName: "marca", SourceURL: "https://example.com/m"},
		},
		CreatedAt:     now,
		LastUpdated:   now,
		LastCheckedAt: now,
	}
	st.RecomputeDerived()
	if err := store.Upsert(ctx, st); err != nil {
		t.Fatalf("initial upsert: %v", err)
	}

	st.Facts = append(st.Facts, extract.Facts{
		Player: "Jude Bellingham", ToClub: "Real Madrid", FeeMillions: 103,
		SourceName: "romano", SourceURL: "https://example.com/r",
	})
	st.Status = story.StatusNegotiating
	st.UpdateCount = 1
	st.LastUpdated = now.Add(time.Hour)
	st.RecomputeDerived()
	if err := store.Upsert(ctx, st); err != nil {
		t.Fatalf("merge upsert: %v", err)
	}

	loaded, err := store.FindByIdentityKey(ctx, key)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if loaded == nil || len(loaded.Facts) != 2 {
		t.Fatalf("expected two facts, got %+v", loaded)
	}
	if loaded.Facts[1].SourceURL != "https://example.com/r" {
		t.Fatalf("unexpected appended fact: %+v", loaded.Facts[1])
	}
	if loaded.UpdateCount != 1 {
		t.Fatalf("expected update count 1, got %d", loaded.UpdateCount)
	}
}
