// Package story holds the transfer-story aggregate, its lifecycle state
// machine, the merge engine and the importance scorer.
package story

import (
	"context"
	"sort"
	"strings"
	"time"

	"horse.fit/gaffer/internal/extract"
	"horse.fit/gaffer/internal/identity"
)

// ClubMention is a club involved in a story, ranked by how often the
// contributing facts mention it.
type ClubMention struct {
	Club     string `json:"club"`
	Mentions int    `json:"mentions"`
}

// Story is the durable aggregate for one real-world transfer narrative.
// It is created on first sighting of a new identity key and mutated only
// by the merge engine.
type Story struct {
	ID          int64
	UUID        string
	IdentityKey string
	Player      string

	PrimaryClubs []ClubMention
	Status       Status
	Facts        []extract.Facts
	Importance   int

	CreatedAt     time.Time
	LastUpdated   time.Time
	LastCheckedAt time.Time
	UpdateCount   int
	Sources       []string
}

// Store is the persistence boundary for stories: key-value with one
// secondary lookup. Implementations return (nil, nil) on a clean miss.
type Store interface {
	FindByIdentityKey(ctx context.Context, key string) (*Story, error)
	// FindByPlayerAndRecency returns candidate stories for the player whose
	// last update falls within the window, most recently updated first.
	FindByPlayerAndRecency(ctx context.Context, player string, window time.Duration) ([]*Story, error)
	Upsert(ctx context.Context, s *Story) error
}

// ClubNames returns the ranked club names only.
func (s *Story) ClubNames() []string {
	names := make([]string, 0, len(s.PrimaryClubs))
	for _, mention := range s.PrimaryClubs {
		names = append(names, mention.Club)
	}
	return names
}

// Destination returns the story's recorded destination club, if any.
func (s *Story) Destination() string {
	for i := len(s.Facts) - 1; i >= 0; i-- {
		if s.Facts[i].ToClub != "" {
			return s.Facts[i].ToClub
		}
	}
	return ""
}

// AgreedFee returns the most recently reported fee in millions (0 if none).
func (s *Story) AgreedFee() float64 {
	for i := len(s.Facts) - 1; i >= 0; i-- {
		if s.Facts[i].FeeMillions > 0 {
			return s.Facts[i].FeeMillions
		}
	}
	return 0
}

// BestFee returns the highest fee reported across all contributing facts.
func (s *Story) BestFee() float64 {
	best := 0.0
	for _, fact := range s.Facts {
		if fact.FeeMillions > best {
			best = fact.FeeMillions
		}
	}
	return best
}

// RecomputeDerived rebuilds sources and ranked clubs from the fact list.
// Callers that mutate Facts must invoke it before persisting.
func (s *Story) RecomputeDerived() {
	sourceSeen := make(map[string]struct{}, len(s.Facts))
	sources := make([]string, 0, len(s.Facts))
	clubCounts := make(map[string]int, 4)
	clubDisplay := make(map[string]string, 4)
	clubFirst := make(map[string]int, 4)

	for i, fact := range s.Facts {
		name := strings.TrimSpace(fact.SourceName)
		if name != "" {
			if _, dup := sourceSeen[name]; !dup {
				sourceSeen[name] = struct{}{}
				sources = append(sources, name)
			}
		}
		for _, club := range []string{fact.FromClub, fact.ToClub} {
			if strings.TrimSpace(club) == "" {
				continue
			}
			key := identity.NormalizeClub(club)
			clubCounts[key]++
			if _, seen := clubDisplay[key]; !seen {
				clubDisplay[key] = strings.TrimSpace(club)
				clubFirst[key] = i
			}
		}
	}

	ranked := make([]ClubMention, 0, len(clubCounts))
	for key, count := range clubCounts {
		ranked = append(ranked, ClubMention{Club: clubDisplay[key], Mentions: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Mentions != ranked[j].Mentions {
			return ranked[i].Mentions > ranked[j].Mentions
		}
		return clubFirst[identity.NormalizeClub(ranked[i].Club)] < clubFirst[identity.NormalizeClub(ranked[j].Club)]
	})

	s.Sources = sources
	s.PrimaryClubs = ranked
}

// hasFactFrom reports whether a fact from the same source item is already
// recorded; re-ingesting the same report must not double-count.
func (s *Story) hasFactFrom(fact extract.Facts) bool {
	for _, existing := range s.Facts {
		if existing.SourceURL != "" && existing.SourceURL == fact.SourceURL {
			return true
		}
		if existing.SourceURL == "" && fact.SourceURL == "" &&
			existing.SourceName == fact.SourceName &&
			existing.Player == fact.Player &&
			existing.ToClub == fact.ToClub &&
			existing.Fee == fact.Fee &&
			existing.Confirmed == fact.Confirmed &&
			existing.Rejected == fact.Rejected {
			return true
		}
	}
	return false
}
