package story

import (
	"testing"

	"horse.fit/gaffer/internal/clubs"
	"horse.fit/gaffer/internal/config"
	"horse.fit/gaffer/internal/extract"
)

var testFeeTiers = []config.FeeTier{
	{MinMillions: 100, Points: 5},
	{MinMillions: 70, Points: 4},
	{MinMillions: 50, Points: 3},
	{MinMillions: 30, Points: 2},
	{MinMillions: 10, Points: 1},
}

func newTestScorer(t *testing.T) *Scorer {
	t.Helper()
	index, err := clubs.Load("")
	if err != nil {
		t.Fatalf("load club data: %v", err)
	}
	return NewScorer(index, testFeeTiers)
}

func scoredStory(status Status, facts ...extract.Facts) *Story {
	s := &Story{Status: status, Facts: facts}
	s.RecomputeDerived()
	return s
}

func TestScoreFloor(t *testing.T) {
	t.Parallel()
	sc := newTestScorer(t)

	s := scoredStory(StatusInterest, extract.Facts{Player: "Nobody", SourceName: "A"})
	if got := sc.Score(s); got != 1 {
		t.Fatalf("expected floor score 1, got %d", got)
	}
}

func TestScoreAddsStatusClubsAndFee(t *testing.T) {
	t.Parallel()
	sc := newTestScorer(t)

	s := scoredStory(StatusNegotiating, extract.Facts{
		Player:      "Declan Rice",
		FromClub:    "West Ham United",
		ToClub:      "Arsenal",
		FeeMillions: 35,
		SourceName:  "A",
	})
	// negotiating 3 + marquee 2 + notable 1 + fee tier 2
	if got := sc.Score(s); got != 8 {
		t.Fatalf("unexpected score: %d", got)
	}
}

func TestScoreCorroborationBonusNeedsThreeSources(t *testing.T) {
	t.Parallel()
	sc := newTestScorer(t)

	base := extract.Facts{Player: "Declan Rice", FromClub: "West Ham United", ToClub: "Arsenal", FeeMillions: 35}
	two := base
	two.SourceName = "B"
	s := scoredStory(StatusNegotiating, withSource(base, "A"), two)
	before := sc.Score(s)

	s.Facts = append(s.Facts, withSource(base, "C"))
	s.RecomputeDerived()
	after := sc.Score(s)

	if after != before+1 {
		t.Fatalf("expected third source to add one point: %d -> %d", before, after)
	}
}

func TestScoreClampsAtTen(t *testing.T) {
	t.Parallel()
	sc := newTestScorer(t)

	s := scoredStory(StatusConfirmed,
		withSource(extract.Facts{Player: "Kylian Mbappe", FromClub: "PSG", ToClub: "Real Madrid", FeeMillions: 180, MarqueeConfirmation: true}, "A"),
		withSource(extract.Facts{Player: "Kylian Mbappe", FromClub: "PSG", ToClub: "Real Madrid"}, "B"),
		withSource(extract.Facts{Player: "Kylian Mbappe", FromClub: "PSG", ToClub: "Real Madrid"}, "C"),
	)
	if got := sc.Score(s); got != 10 {
		t.Fatalf("expected score to clamp at 10, got %d", got)
	}
}

func TestScorePayCutBonus(t *testing.T) {
	t.Parallel()
	sc := newTestScorer(t)

	plain := scoredStory(StatusInterest, withSource(extract.Facts{Player: "Nobody"}, "A"))
	cut := scoredStory(StatusInterest, withSource(extract.Facts{Player: "Nobody", PayCut: true}, "A"))
	if sc.Score(cut) != sc.Score(plain)+1 {
		t.Fatalf("expected pay cut to add one point")
	}
}

func withSource(f extract.Facts, source string) extract.Facts {
	f.SourceName = source
	return f
}
