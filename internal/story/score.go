package story

import (
	"horse.fit/gaffer/internal/clubs"
	"horse.fit/gaffer/internal/config"
)

const (
	importanceFloor = 1
	importanceCeil  = 10

	marqueeClubPoints        = 2
	notableClubPoints        = 1
	marqueeConfirmationBonus = 2
	corroborationBonus       = 1
	corroborationThreshold   = 3
	payCutBonus              = 1
)

var statusBasePoints = map[Status]int{
	StatusConfirmed:   4,
	StatusNegotiating: 3,
	StatusRejected:    2,
	StatusContract:    2,
	StatusInterest:    1,
}

// Scorer computes the bounded 1-10 importance ranking. The model is
// additive then clamped: every input moves the score in one direction
// only, and the output never depends on sibling stories.
type Scorer struct {
	index *clubs.Index
	tiers []config.FeeTier
}

func NewScorer(index *clubs.Index, tiers []config.FeeTier) *Scorer {
	return &Scorer{index: index, tiers: tiers}
}

// Score recomputes a story's importance from scratch. Incremental
// accumulation would drift across merges; recomputing keeps the score a
// pure function of the story's current state.
func (sc *Scorer) Score(s *Story) int {
	points := statusBasePoints[s.Status]

	points += sc.feePoints(s.BestFee())

	for _, mention := range s.PrimaryClubs {
		switch sc.index.TierOf(mention.Club) {
		case clubs.TierMarquee:
			points += marqueeClubPoints
		case clubs.TierNotable:
			points += notableClubPoints
		}
	}

	for _, fact := range s.Facts {
		if fact.MarqueeConfirmation {
			points += marqueeConfirmationBonus
			break
		}
	}

	if len(s.Sources) >= corroborationThreshold {
		points += corroborationBonus
	}

	for _, fact := range s.Facts {
		if fact.PayCut {
			points += payCutBonus
			break
		}
	}

	if points < importanceFloor {
		return importanceFloor
	}
	if points > importanceCeil {
		return importanceCeil
	}
	return points
}

func (sc *Scorer) feePoints(feeMillions float64) int {
	if feeMillions <= 0 {
		return 0
	}
	for _, tier := range sc.tiers {
		if feeMillions >= tier.MinMillions {
			return tier.Points
		}
	}
	return 0
}
