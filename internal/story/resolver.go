package story

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"horse.fit/gaffer/internal/extract"
	"horse.fit/gaffer/internal/globaltime"
	"horse.fit/gaffer/internal/identity"
)

// Decision labels the outcome of one resolve call for the merge ledger.
type Decision string

const (
	DecisionNewStory  Decision = "new_story"
	DecisionMerged    Decision = "merged"
	DecisionDuplicate Decision = "duplicate"
)

// Resolution is the outcome of matching one fact against the story store.
type Resolution struct {
	Story          *Story
	IsNew          bool
	MaterialUpdate bool
	Decision       Decision
	Ambiguous      bool
	StatusBefore   Status
	StatusAfter    Status
}

// Resolver matches extracted facts to stories and merges new evidence.
type Resolver struct {
	store         Store
	scorer        *Scorer
	recencyWindow time.Duration
	staleness     time.Duration
	logger        zerolog.Logger
}

func NewResolver(store Store, scorer *Scorer, recencyWindow, staleness time.Duration, logger zerolog.Logger) *Resolver {
	return &Resolver{
		store:         store,
		scorer:        scorer,
		recencyWindow: recencyWindow,
		staleness:     staleness,
		logger:        logger,
	}
}

// Resolve finds or creates the story for one fact and merges the evidence.
// The fact itself is never mutated.
func (r *Resolver) Resolve(ctx context.Context, facts extract.Facts, publishedAt time.Time) (Resolution, error) {
	if facts.Player == "" {
		return Resolution{}, fmt.Errorf("facts have no player")
	}

	implied := StatusFromFacts(facts)
	existing, ambiguous, err := r.lookup(ctx, facts, implied)
	if err != nil {
		return Resolution{}, err
	}

	if existing == nil {
		created, err := r.create(ctx, facts, implied, publishedAt)
		if err != nil {
			return Resolution{}, err
		}
		return Resolution{
			Story:          created,
			IsNew:          true,
			MaterialUpdate: true,
			Decision:       DecisionNewStory,
			StatusBefore:   created.Status,
			StatusAfter:    created.Status,
		}, nil
	}

	if ambiguous {
		r.logger.Warn().
			Str("player", facts.Player).
			Str("story_key", existing.IdentityKey).
			Msg("ambiguous merge: multiple candidate stories, using most recently updated")
	}

	return r.merge(ctx, existing, facts, implied, ambiguous)
}

// lookup finds the story a fact belongs to: exact identity key first, then
// the early-lifecycle bucket variant, then the player+recency fallback.
// Stories idle beyond the recency window are treated as absent so a new
// round of interest months later opens a fresh story.
func (r *Resolver) lookup(ctx context.Context, facts extract.Facts, implied Status) (*Story, bool, error) {
	key := identity.DeriveKey(facts.Player, facts.FromClub, facts.ToClub, string(implied))
	found, err := r.store.FindByIdentityKey(ctx, key)
	if err != nil {
		return nil, false, fmt.Errorf("find by identity key: %w", err)
	}
	if r.fresh(found) {
		return found, false, nil
	}

	// A confirming report keys into a different bucket than the interest
	// story it corroborates; retry under the early-lifecycle bucket.
	if identity.StatusBucket(string(implied)) != identity.PotentialBucket {
		earlyKey := identity.DeriveKey(facts.Player, facts.FromClub, facts.ToClub, string(StatusInterest))
		found, err = r.store.FindByIdentityKey(ctx, earlyKey)
		if err != nil {
			return nil, false, fmt.Errorf("find by early identity key: %w", err)
		}
		if r.fresh(found) {
			return found, false, nil
		}
	}

	candidates, err := r.store.FindByPlayerAndRecency(ctx, identity.NormalizeName(facts.Player), r.recencyWindow)
	if err != nil {
		return nil, false, fmt.Errorf("find by player and recency: %w", err)
	}

	matched := make([]*Story, 0, len(candidates))
	for _, candidate := range candidates {
		if !r.fresh(candidate) {
			continue
		}
		if destinationConflict(candidate, facts) {
			// A materially different destination opens a new story.
			continue
		}
		if !clubsIntersect(candidate, facts) {
			continue
		}
		matched = append(matched, candidate)
	}

	if len(matched) == 0 {
		return nil, false, nil
	}
	// Candidates arrive most recently updated first; prefer the freshest.
	return matched[0], len(matched) > 1, nil
}

func (r *Resolver) create(ctx context.Context, facts extract.Facts, implied Status, publishedAt time.Time) (*Story, error) {
	now := globaltime.UTC()
	createdAt := now
	if !publishedAt.IsZero() && publishedAt.Before(now) {
		createdAt = publishedAt.UTC()
	}

	s := &Story{
		IdentityKey:   identity.DeriveKey(facts.Player, facts.FromClub, facts.ToClub, string(implied)),
		Player:        facts.Player,
		Status:        implied,
		Facts:         []extract.Facts{facts},
		CreatedAt:     createdAt,
		LastUpdated:   now,
		LastCheckedAt: now,
		UpdateCount:   0,
	}
	s.RecomputeDerived()
	s.Importance = r.scorer.Score(s)

	if err := r.store.Upsert(ctx, s); err != nil {
		return nil, fmt.Errorf("persist new story: %w", err)
	}
	return s, nil
}

func (r *Resolver) merge(ctx context.Context, s *Story, facts extract.Facts, implied Status, ambiguous bool) (Resolution, error) {
	if s.hasFactFrom(facts) {
		return Resolution{
			Story:        s,
			Decision:     DecisionDuplicate,
			StatusBefore: s.Status,
			StatusAfter:  s.Status,
		}, nil
	}

	now := globaltime.UTC()
	statusBefore := s.Status
	previousFee := s.AgreedFee()
	stale := now.Sub(s.LastCheckedAt) > r.staleness

	s.Facts = append(s.Facts, facts)
	s.UpdateCount = len(s.Facts) - 1
	s.RecomputeDerived()

	if CanTransition(s.Status, implied) {
		s.Status = implied
	} else if s.Status == StatusConfirmed && (implied == StatusRejected || implied == StatusInterest) {
		// Contradiction of a confirmed deal: never downgrade, log for review.
		ambiguous = true
		r.logger.Warn().
			Str("player", s.Player).
			Str("story_key", s.IdentityKey).
			Str("reported_status", string(implied)).
			Msg("ambiguous merge: contradicting report against confirmed story")
	}

	feeChanged := facts.FeeMillions > 0 && facts.FeeMillions != previousFee
	statusChanged := s.Status != statusBefore

	s.Importance = r.scorer.Score(s)
	s.LastUpdated = now
	s.LastCheckedAt = now

	if err := r.store.Upsert(ctx, s); err != nil {
		return Resolution{}, fmt.Errorf("persist merged story: %w", err)
	}

	return Resolution{
		Story:          s,
		MaterialUpdate: statusChanged || feeChanged || stale,
		Decision:       DecisionMerged,
		Ambiguous:      ambiguous,
		StatusBefore:   statusBefore,
		StatusAfter:    s.Status,
	}, nil
}

func (r *Resolver) fresh(s *Story) bool {
	if s == nil {
		return false
	}
	return globaltime.Since(s.LastUpdated) <= r.recencyWindow
}

// destinationConflict reports whether the new fact names a destination
// materially different from the story's recorded one.
func destinationConflict(s *Story, facts extract.Facts) bool {
	recorded := identity.NormalizeClub(s.Destination())
	reported := identity.NormalizeClub(facts.ToClub)
	if recorded == "" || reported == "" {
		return false
	}
	return recorded != reported
}

// clubsIntersect reports whether any club in the new fact matches one of
// the story's clubs; it rescues items where one side was mis-extracted.
func clubsIntersect(s *Story, facts extract.Facts) bool {
	factClubs := make(map[string]struct{}, 2)
	for _, club := range []string{facts.FromClub, facts.ToClub} {
		if key := identity.NormalizeClub(club); key != "" {
			factClubs[key] = struct{}{}
		}
	}
	if len(factClubs) == 0 {
		// No clubs extracted at all: fall back on the player match alone.
		return true
	}
	for _, mention := range s.PrimaryClubs {
		if _, ok := factClubs[identity.NormalizeClub(mention.Club)]; ok {
			return true
		}
	}
	return false
}
