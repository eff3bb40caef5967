// Package clubs holds the club prestige/alias data and the known player
// roster. The index is constructed explicitly and injected where needed;
// nothing in this package is reachable through ambient package state.
package clubs

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"horse.fit/gaffer/internal/identity"
)

//go:embed clubs.yaml
var embeddedData []byte

// Tier classifies a club for importance scoring.
type Tier string

const (
	TierMarquee Tier = "marquee"
	TierNotable Tier = "notable"
)

// Club is one canonical club entry.
type Club struct {
	Name string
	Tier Tier
}

type dataFile struct {
	Clubs []struct {
		Name    string   `yaml:"name"`
		Tier    string   `yaml:"tier"`
		Aliases []string `yaml:"aliases"`
	} `yaml:"clubs"`
	Players []string `yaml:"players"`
}

// Index resolves club aliases to canonical entries and exposes the known
// player roster. Safe for concurrent reads; Refresh swaps the data atomically.
type Index struct {
	mu        sync.RWMutex
	byAlias   map[string]Club
	players   []string
	playerSet map[string]struct{}
}

// Load builds an Index from the file at path, or from the embedded data
// when path is empty. An empty marquee tier is a fatal configuration error.
func Load(path string) (*Index, error) {
	ix := &Index{}
	if err := ix.Refresh(path); err != nil {
		return nil, err
	}
	return ix, nil
}

// Refresh reloads the data file, replacing the index contents on success.
func (ix *Index) Refresh(path string) error {
	raw := embeddedData
	if strings.TrimSpace(path) != "" {
		fileData, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read club data %q: %w", path, err)
		}
		raw = fileData
	}

	var parsed dataFile
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("parse club data: %w", err)
	}

	byAlias := make(map[string]Club, len(parsed.Clubs)*3)
	marqueeCount := 0
	for i, entry := range parsed.Clubs {
		name := strings.TrimSpace(entry.Name)
		if name == "" {
			return fmt.Errorf("club entry %d has no name", i)
		}
		tier := Tier(strings.ToLower(strings.TrimSpace(entry.Tier)))
		if tier != TierMarquee && tier != TierNotable {
			return fmt.Errorf("club %q has invalid tier %q", name, entry.Tier)
		}
		if tier == TierMarquee {
			marqueeCount++
		}

		club := Club{Name: name, Tier: tier}
		for _, alias := range append([]string{name}, entry.Aliases...) {
			key := identity.NormalizeClub(alias)
			if key == "" {
				continue
			}
			byAlias[key] = club
		}
	}
	if marqueeCount == 0 {
		return fmt.Errorf("club data defines no marquee clubs")
	}

	players := make([]string, 0, len(parsed.Players))
	playerSet := make(map[string]struct{}, len(parsed.Players))
	for _, player := range parsed.Players {
		name := strings.TrimSpace(player)
		if name == "" {
			continue
		}
		players = append(players, name)
		playerSet[identity.NormalizeName(name)] = struct{}{}
	}
	sort.Strings(players)

	ix.mu.Lock()
	ix.byAlias = byAlias
	ix.players = players
	ix.playerSet = playerSet
	ix.mu.Unlock()
	return nil
}

// Canonical resolves a raw club mention to its canonical entry.
func (ix *Index) Canonical(name string) (Club, bool) {
	key := identity.NormalizeClub(name)
	if key == "" {
		return Club{}, false
	}
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	club, ok := ix.byAlias[key]
	return club, ok
}

// IsClub reports whether the name matches any known club or alias.
func (ix *Index) IsClub(name string) bool {
	_, ok := ix.Canonical(name)
	return ok
}

// TierOf returns the prestige tier for a club mention, or "" when unknown.
func (ix *Index) TierOf(name string) Tier {
	club, ok := ix.Canonical(name)
	if !ok {
		return ""
	}
	return club.Tier
}

// KnownPlayers returns the roster used by the grouping pre-pass, sorted.
func (ix *Index) KnownPlayers() []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	out := make([]string, len(ix.players))
	copy(out, ix.players)
	return out
}

// IsKnownPlayer reports whether the normalized name is on the roster.
func (ix *Index) IsKnownPlayer(name string) bool {
	key := identity.NormalizeName(name)
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	_, ok := ix.playerSet[key]
	return ok
}
