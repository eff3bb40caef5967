package story

import (
	"strings"

	"horse.fit/gaffer/internal/extract"
)

// Status is the lifecycle state of a transfer story.
type Status string

const (
	StatusInterest    Status = "interest"
	StatusNegotiating Status = "negotiating"
	StatusRejected    Status = "rejected"
	StatusContract    Status = "contract"
	StatusConfirmed   Status = "confirmed"
)

// ParseStatus normalizes a stored status value.
func ParseStatus(raw string) (Status, bool) {
	switch Status(strings.ToLower(strings.TrimSpace(raw))) {
	case StatusInterest:
		return StatusInterest, true
	case StatusNegotiating:
		return StatusNegotiating, true
	case StatusRejected:
		return StatusRejected, true
	case StatusContract:
		return StatusContract, true
	case StatusConfirmed:
		return StatusConfirmed, true
	default:
		return "", false
	}
}

// CanTransition reports whether a story may move from current to next.
// Transitions are strictly forward: interest → negotiating → {confirmed,
// rejected}; contract is terminal and reachable from interest only (a
// same-club renewal). A later deal with a different destination is a new
// identity key, never a transition, so terminal states accept nothing.
func CanTransition(current, next Status) bool {
	if current == next {
		return false
	}
	switch current {
	case StatusInterest:
		return next == StatusNegotiating || next == StatusConfirmed ||
			next == StatusRejected || next == StatusContract
	case StatusNegotiating:
		return next == StatusConfirmed || next == StatusRejected
	default:
		return false
	}
}

// StatusFromFacts derives the lifecycle state a single report implies.
func StatusFromFacts(facts extract.Facts) Status {
	switch {
	case facts.Confirmed:
		return StatusConfirmed
	case facts.Rejected:
		return StatusRejected
	case facts.Renewal && !movesBetweenClubs(facts):
		return StatusContract
	case facts.NearConfirmed:
		return StatusNegotiating
	default:
		return StatusInterest
	}
}

// movesBetweenClubs reports whether the facts describe a change of club
// rather than a renewal at the current one.
func movesBetweenClubs(facts extract.Facts) bool {
	if facts.ToClub == "" || facts.FromClub == "" {
		return false
	}
	return !strings.EqualFold(strings.TrimSpace(facts.ToClub), strings.TrimSpace(facts.FromClub))
}
