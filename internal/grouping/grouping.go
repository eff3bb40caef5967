// Package grouping buckets a batch of raw reports by topic before
// extraction, so corroborating items are processed adjacently.
package grouping

import (
	"regexp"
	"strconv"
	"strings"

	"horse.fit/gaffer/internal/clubs"
	"horse.fit/gaffer/internal/identity"
)

// Item is one raw report in a batch.
type Item struct {
	ID   int64
	Text string
}

var reTwoCapTokens = regexp.MustCompile(`\b([A-Z][a-zA-Z'\x{00C0}-\x{024F}-]+ [A-Z][a-zA-Z'\x{00C0}-\x{024F}-]+)\b`)

// GroupByTopic partitions a batch by the subject each item talks about.
// Precedence per item: a roster player mention, then the first two-capital
// token name shape, then club co-occurrence, else a singleton group. The
// result maps topic keys to items in batch order.
func GroupByTopic(items []Item, index *clubs.Index) map[string][]Item {
	groups := make(map[string][]Item, len(items))
	for _, item := range items {
		key := topicKey(item, index)
		groups[key] = append(groups[key], item)
	}
	return groups
}

func topicKey(item Item, index *clubs.Index) string {
	text := item.Text

	for _, player := range index.KnownPlayers() {
		if containsName(text, player) {
			return "player:" + identity.NormalizeName(player)
		}
	}

	for _, m := range reTwoCapTokens.FindAllString(text, 6) {
		if index.IsClub(m) {
			continue
		}
		if hasClubToken(m, index) {
			continue
		}
		return "player:" + identity.NormalizeName(m)
	}

	if club := firstClub(text, index); club != "" {
		return "club:" + identity.NormalizeClub(club)
	}

	return "item:" + strconv.FormatInt(item.ID, 10)
}

func containsName(text, name string) bool {
	return strings.Contains(identity.NormalizeName(text), identity.NormalizeName(name))
}

func hasClubToken(candidate string, index *clubs.Index) bool {
	for _, token := range strings.Fields(candidate) {
		if index.IsClub(token) {
			return true
		}
	}
	return false
}

func firstClub(text string, index *clubs.Index) string {
	for _, m := range reTwoCapTokens.FindAllString(text, -1) {
		if club, known := index.Canonical(m); known {
			return club.Name
		}
	}
	for _, token := range strings.Fields(text) {
		cleaned := strings.Trim(token, ".,;:!?'\"()")
		if club, known := index.Canonical(cleaned); known {
			return club.Name
		}
	}
	return ""
}
