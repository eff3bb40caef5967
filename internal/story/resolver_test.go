package story

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"horse.fit/gaffer/internal/clubs"
	"horse.fit/gaffer/internal/extract"
	"horse.fit/gaffer/internal/globaltime"
	"horse.fit/gaffer/internal/identity"
)

// memStore keeps stories in memory for resolver tests.
type memStore struct {
	byKey  map[string]*Story
	nextID int64
}

func newMemStore() *memStore {
	return &memStore{byKey: make(map[string]*Story), nextID: 1}
}

func (m *memStore) FindByIdentityKey(_ context.Context, key string) (*Story, error) {
	return m.byKey[key], nil
}

func (m *memStore) FindByPlayerAndRecency(_ context.Context, player string, window time.Duration) ([]*Story, error) {
	matched := make([]*Story, 0, 2)
	for _, s := range m.byKey {
		if identity.NormalizeName(s.Player) != player {
			continue
		}
		if globaltime.Since(s.LastUpdated) > window {
			continue
		}
		matched = append(matched, s)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].LastUpdated.After(matched[j].LastUpdated)
	})
	return matched, nil
}

func (m *memStore) Upsert(_ context.Context, s *Story) error {
	if s.ID == 0 {
		s.ID = m.nextID
		m.nextID++
	}
	m.byKey[s.IdentityKey] = s
	return nil
}

// The clock is mocked process-wide, so these tests do not run in parallel.
func newTestResolver(t *testing.T) (*Resolver, *memStore) {
	t.Helper()
	index, err := clubs.Load("")
	if err != nil {
		t.Fatalf("load club data: %v", err)
	}
	store := newMemStore()
	resolver := NewResolver(store, NewScorer(index, testFeeTiers), 7*24*time.Hour, 2*time.Hour, zerolog.Nop())
	return resolver, store
}

func riceFacts(source, url string) extract.Facts {
	return extract.Facts{
		Player:     "Declan Rice",
		FromClub:   "West Ham United",
		ToClub:     "Arsenal",
		SourceName: source,
		SourceURL:  url,
	}
}

func TestResolveCreatesNewStory(t *testing.T) {
	base := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
	globaltime.SetMockTime(base)
	defer globaltime.ResetTime()

	resolver, store := newTestResolver(t)
	res, err := resolver.Resolve(context.Background(), riceFacts("A", "https://a/1"), base.Add(-time.Hour))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if !res.IsNew || res.Decision != DecisionNewStory || !res.MaterialUpdate {
		t.Fatalf("unexpected resolution: %+v", res)
	}
	s := res.Story
	if s.IdentityKey != "declan rice|west ham united|arsenal|potential-transfer" {
		t.Fatalf("unexpected identity key: %q", s.IdentityKey)
	}
	if s.Status != StatusInterest || s.UpdateCount != 0 || len(s.Facts) != 1 {
		t.Fatalf("unexpected new story state: %+v", s)
	}
	if !s.CreatedAt.Equal(base.Add(-time.Hour)) {
		t.Fatalf("creation must honor the published timestamp: %v", s.CreatedAt)
	}
	if store.byKey[s.IdentityKey] == nil {
		t.Fatalf("new story was not persisted")
	}
}

func TestResolveDuplicateSourceIsIdempotent(t *testing.T) {
	base := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
	globaltime.SetMockTime(base)
	defer globaltime.ResetTime()

	resolver, _ := newTestResolver(t)
	ctx := context.Background()
	if _, err := resolver.Resolve(ctx, riceFacts("A", "https://a/1"), base); err != nil {
		t.Fatalf("first resolve: %v", err)
	}

	res, err := resolver.Resolve(ctx, riceFacts("A", "https://a/1"), base)
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if res.Decision != DecisionDuplicate || res.MaterialUpdate {
		t.Fatalf("unexpected resolution: %+v", res)
	}
	if res.Story.UpdateCount != 0 || len(res.Story.Facts) != 1 {
		t.Fatalf("duplicate must not mutate the story: %+v", res.Story)
	}
}

func TestResolveMergesConfirmationIntoPotentialStory(t *testing.T) {
	base := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
	globaltime.SetMockTime(base)
	defer globaltime.ResetTime()

	resolver, _ := newTestResolver(t)
	ctx := context.Background()
	first, err := resolver.Resolve(ctx, riceFacts("A", "https://a/1"), base)
	if err != nil {
		t.Fatalf("first resolve: %v", err)
	}

	globaltime.SetMockTime(base.Add(time.Hour))
	confirmation := riceFacts("B", "https://b/1")
	confirmation.Confirmed = true
	confirmation.FeeMillions = 105
	res, err := resolver.Resolve(ctx, confirmation, base.Add(time.Hour))
	if err != nil {
		t.Fatalf("confirming resolve: %v", err)
	}

	if res.Decision != DecisionMerged || res.IsNew {
		t.Fatalf("confirmation must merge into the existing story: %+v", res)
	}
	if res.Story.IdentityKey != first.Story.IdentityKey {
		t.Fatalf("merge must keep the original identity key")
	}
	if res.StatusBefore != StatusInterest || res.StatusAfter != StatusConfirmed {
		t.Fatalf("unexpected transition: %s -> %s", res.StatusBefore, res.StatusAfter)
	}
	if !res.MaterialUpdate {
		t.Fatalf("status change must be material")
	}
	if res.Story.UpdateCount != 1 || len(res.Story.Facts) != 2 {
		t.Fatalf("unexpected merged state: %+v", res.Story)
	}
	if res.Story.Importance <= first.Story.Importance {
		t.Fatalf("confirmation with a fee must raise importance: %d -> %d",
			first.Story.Importance, res.Story.Importance)
	}
}

func TestResolveConfirmedNeverRegresses(t *testing.T) {
	base := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
	globaltime.SetMockTime(base)
	defer globaltime.ResetTime()

	resolver, _ := newTestResolver(t)
	ctx := context.Background()
	confirmed := riceFacts("A", "https://a/1")
	confirmed.Confirmed = true
	if _, err := resolver.Resolve(ctx, confirmed, base); err != nil {
		t.Fatalf("first resolve: %v", err)
	}

	contradiction := riceFacts("B", "https://b/1")
	contradiction.Rejected = true
	res, err := resolver.Resolve(ctx, contradiction, base)
	if err != nil {
		t.Fatalf("contradicting resolve: %v", err)
	}

	if res.Story.Status != StatusConfirmed {
		t.Fatalf("confirmed story must not downgrade, got %s", res.Story.Status)
	}
	if !res.Ambiguous {
		t.Fatalf("contradiction must flag the merge as ambiguous")
	}
	if res.Decision != DecisionMerged {
		t.Fatalf("unexpected decision: %s", res.Decision)
	}
}

func TestResolveStaleStoryOpensFreshOne(t *testing.T) {
	base := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	globaltime.SetMockTime(base)
	defer globaltime.ResetTime()

	resolver, store := newTestResolver(t)
	ctx := context.Background()
	if _, err := resolver.Resolve(ctx, riceFacts("A", "https://a/1"), base); err != nil {
		t.Fatalf("first resolve: %v", err)
	}

	// Months later the same rumor resurfaces; the idle story must not absorb it.
	later := base.Add(60 * 24 * time.Hour)
	globaltime.SetMockTime(later)
	res, err := resolver.Resolve(ctx, riceFacts("B", "https://b/1"), later)
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}

	if !res.IsNew {
		t.Fatalf("stale story must be treated as absent: %+v", res)
	}
	if len(store.byKey) != 1 {
		// Same identity key: the fresh story replaces the idle record.
		t.Fatalf("unexpected store size: %d", len(store.byKey))
	}
	if res.Story.UpdateCount != 0 || len(res.Story.Facts) != 1 {
		t.Fatalf("fresh story must start over: %+v", res.Story)
	}
}

func TestResolveDestinationConflictOpensNewStory(t *testing.T) {
	base := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
	globaltime.SetMockTime(base)
	defer globaltime.ResetTime()

	resolver, store := newTestResolver(t)
	ctx := context.Background()
	if _, err := resolver.Resolve(ctx, riceFacts("A", "https://a/1"), base); err != nil {
		t.Fatalf("first resolve: %v", err)
	}

	rival := extract.Facts{
		Player:     "Declan Rice",
		ToClub:     "Manchester City",
		SourceName: "B",
		SourceURL:  "https://b/1",
	}
	res, err := resolver.Resolve(ctx, rival, base)
	if err != nil {
		t.Fatalf("rival resolve: %v", err)
	}

	if !res.IsNew {
		t.Fatalf("a different destination must open a new story: %+v", res)
	}
	if len(store.byKey) != 2 {
		t.Fatalf("expected two stories, got %d", len(store.byKey))
	}
}

func TestResolveClublessReportMergesByPlayer(t *testing.T) {
	base := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
	globaltime.SetMockTime(base)
	defer globaltime.ResetTime()

	resolver, _ := newTestResolver(t)
	ctx := context.Background()
	if _, err := resolver.Resolve(ctx, riceFacts("A", "https://a/1"), base); err != nil {
		t.Fatalf("first resolve: %v", err)
	}

	vague := extract.Facts{Player: "Declan Rice", SourceName: "B", SourceURL: "https://b/1"}
	res, err := resolver.Resolve(ctx, vague, base)
	if err != nil {
		t.Fatalf("vague resolve: %v", err)
	}
	if res.Decision != DecisionMerged {
		t.Fatalf("clubless report must merge on the player match: %+v", res)
	}
}

func TestResolveQuietStoryMakesAnyUpdateMaterial(t *testing.T) {
	base := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
	globaltime.SetMockTime(base)
	defer globaltime.ResetTime()

	resolver, _ := newTestResolver(t)
	ctx := context.Background()
	if _, err := resolver.Resolve(ctx, riceFacts("A", "https://a/1"), base); err != nil {
		t.Fatalf("first resolve: %v", err)
	}

	// Within the recency window but past the staleness threshold: even a
	// repeat of known facts is worth surfacing.
	globaltime.SetMockTime(base.Add(3 * time.Hour))
	res, err := resolver.Resolve(ctx, riceFacts("B", "https://b/1"), base.Add(3*time.Hour))
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if res.Decision != DecisionMerged || !res.MaterialUpdate {
		t.Fatalf("expected a material merge after quiet hours: %+v", res)
	}
	if res.StatusBefore != res.StatusAfter {
		t.Fatalf("status must not change: %s -> %s", res.StatusBefore, res.StatusAfter)
	}
}

func TestResolveRepeatWithinStalenessIsNotMaterial(t *testing.T) {
	base := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
	globaltime.SetMockTime(base)
	defer globaltime.ResetTime()

	resolver, _ := newTestResolver(t)
	ctx := context.Background()
	if _, err := resolver.Resolve(ctx, riceFacts("A", "https://a/1"), base); err != nil {
		t.Fatalf("first resolve: %v", err)
	}

	globaltime.SetMockTime(base.Add(30 * time.Minute))
	res, err := resolver.Resolve(ctx, riceFacts("B", "https://b/1"), base.Add(30*time.Minute))
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if res.Decision != DecisionMerged || res.MaterialUpdate {
		t.Fatalf("repeat of known facts must not be material: %+v", res)
	}
}

func TestResolveRejectsMissingPlayer(t *testing.T) {
	resolver, _ := newTestResolver(t)
	if _, err := resolver.Resolve(context.Background(), extract.Facts{}, time.Time{}); err == nil {
		t.Fatalf("expected error for facts without a player")
	}
}
