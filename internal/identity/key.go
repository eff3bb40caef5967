// Package identity derives stable story identity keys so that differently
// worded reports about the same transfer collapse onto one record.
package identity

import "strings"

const (
	// FreeAgentSentinel stands in for an absent origin club.
	FreeAgentSentinel = "free-agent"
	// UnknownClubSentinel stands in for an absent destination club.
	UnknownClubSentinel = "unknown"

	// PotentialBucket folds the early-lifecycle statuses into one bucket so a
	// story does not fragment as wording shifts from "monitoring" to "in talks".
	PotentialBucket = "potential-transfer"

	keySeparator = "|"
)

// earlyStatuses collapse into PotentialBucket when deriving a key.
var earlyStatuses = map[string]struct{}{
	"":            {},
	"interest":    {},
	"negotiating": {},
}

// DeriveKey builds the deterministic identity key for a transfer report.
// It is pure: identical inputs always produce identical keys.
func DeriveKey(player, fromClub, toClub, status string) string {
	from := NormalizeClub(fromClub)
	if from == "" {
		from = FreeAgentSentinel
	}
	to := NormalizeClub(toClub)
	if to == "" {
		to = UnknownClubSentinel
	}

	return strings.Join([]string{
		NormalizeName(player),
		from,
		to,
		StatusBucket(status),
	}, keySeparator)
}

// StatusBucket maps a story status onto its identity bucket.
func StatusBucket(status string) string {
	normalized := strings.ToLower(strings.TrimSpace(status))
	if _, early := earlyStatuses[normalized]; early {
		return PotentialBucket
	}
	return normalized
}
