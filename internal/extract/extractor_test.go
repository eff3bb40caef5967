package extract

import (
	"testing"

	"horse.fit/gaffer/internal/clubs"
)

func newTestExtractor(t *testing.T) *PatternExtractor {
	t.Helper()
	index, err := clubs.Load("")
	if err != nil {
		t.Fatalf("load club data: %v", err)
	}
	return NewPatternExtractor(index)
}

func TestExtractAdvancedTalks(t *testing.T) {
	t.Parallel()
	ex := newTestExtractor(t)

	facts, ok := ex.Extract("Declan Rice to Arsenal in advanced talks, £100m fee would be a record", "TransferDesk")
	if !ok {
		t.Fatalf("expected extraction to succeed")
	}
	if facts.Player != "Declan Rice" {
		t.Fatalf("unexpected player: %q", facts.Player)
	}
	if facts.ToClub != "Arsenal" {
		t.Fatalf("unexpected destination: %q", facts.ToClub)
	}
	if facts.Fee != "£100m" || facts.FeeMillions != 100 || facts.Currency != "£" {
		t.Fatalf("unexpected fee: %q / %v / %q", facts.Fee, facts.FeeMillions, facts.Currency)
	}
	if !facts.NearConfirmed || facts.Confirmed || facts.InterestOnly {
		t.Fatalf("expected near-confirmed status, got %+v", facts)
	}
}

func TestExtractHereWeGoConfirmation(t *testing.T) {
	t.Parallel()
	ex := newTestExtractor(t)

	facts, ok := ex.Extract("Here we go! Declan Rice leaves West Ham and joins Arsenal, medical completed.", "Fabrizio Romano")
	if !ok {
		t.Fatalf("expected extraction to succeed")
	}
	if facts.Player != "Declan Rice" {
		t.Fatalf("unexpected player: %q", facts.Player)
	}
	if facts.FromClub != "West Ham United" {
		t.Fatalf("expected canonical selling club, got %q", facts.FromClub)
	}
	if facts.ToClub != "Arsenal" {
		t.Fatalf("unexpected destination: %q", facts.ToClub)
	}
	if !facts.Confirmed || !facts.MarqueeConfirmation {
		t.Fatalf("expected marquee confirmation, got %+v", facts)
	}
	if facts.Rejected || facts.InterestOnly {
		t.Fatalf("confirmed report must not carry other statuses: %+v", facts)
	}
}

func TestExtractHedgedHereWeGoIsNotConfirmation(t *testing.T) {
	t.Parallel()
	ex := newTestExtractor(t)

	facts, ok := ex.Extract("Declan Rice to Arsenal, but no here we go yet from Romano", "TransferDesk")
	if !ok {
		t.Fatalf("expected extraction to succeed")
	}
	if facts.MarqueeConfirmation || facts.Confirmed {
		t.Fatalf("hedged phrase must not confirm: %+v", facts)
	}
}

func TestExtractRejection(t *testing.T) {
	t.Parallel()
	ex := newTestExtractor(t)

	facts, ok := ex.Extract("Rice rejects a move to Chelsea", "TransferDesk")
	if !ok {
		t.Fatalf("expected extraction to succeed")
	}
	if facts.Player != "Rice" {
		t.Fatalf("unexpected player: %q", facts.Player)
	}
	if !facts.Rejected || facts.Confirmed || facts.InterestOnly {
		t.Fatalf("expected rejected status, got %+v", facts)
	}
	if facts.ToClub != "Chelsea" {
		t.Fatalf("rejection must keep the rejected club as destination, got %q", facts.ToClub)
	}
}

func TestExtractSkipsInjuryNews(t *testing.T) {
	t.Parallel()
	ex := newTestExtractor(t)

	if _, ok := ex.Extract("Declan Rice ruled out for six weeks with a hamstring injury", "ClubNews"); ok {
		t.Fatalf("injury report must be rejected")
	}
	if _, ok := ex.Extract("Bukayo Saka undergoes surgery after training knock", "ClubNews"); ok {
		t.Fatalf("surgery report must be rejected")
	}
}

func TestExtractNeverPicksAuthorAsPlayer(t *testing.T) {
	t.Parallel()
	ex := newTestExtractor(t)

	if _, ok := ex.Extract("Fabrizio Romano has confirmed the move is close", "Fabrizio Romano"); ok {
		t.Fatalf("author name must not be extracted as the player")
	}
}

func TestExtractContractAndWageDetails(t *testing.T) {
	t.Parallel()
	ex := newTestExtractor(t)

	text := "Declan Rice agrees personal terms with Arsenal. 5-year deal until 2028 for the " +
		"24-year-old midfielder. £105m fee between the clubs. He will take a pay cut, earning £300,000 a week."
	facts, ok := ex.Extract(text, "TransferDesk")
	if !ok {
		t.Fatalf("expected extraction to succeed")
	}
	if facts.Player != "Declan Rice" {
		t.Fatalf("unexpected player: %q", facts.Player)
	}
	if facts.ContractLength != "5-year" || facts.ContractUntil != "2028" {
		t.Fatalf("unexpected contract details: %q / %q", facts.ContractLength, facts.ContractUntil)
	}
	if facts.Age != 24 || facts.Position != "midfielder" {
		t.Fatalf("unexpected profile details: %d / %q", facts.Age, facts.Position)
	}
	if facts.FeeMillions != 105 {
		t.Fatalf("unexpected fee: %v", facts.FeeMillions)
	}
	if facts.Wages != "£300,000" {
		t.Fatalf("unexpected wages: %q", facts.Wages)
	}
	if !facts.PayCut {
		t.Fatalf("expected pay cut to be detected")
	}
}

func TestExtractStripsEmojiPrefix(t *testing.T) {
	t.Parallel()
	ex := newTestExtractor(t)

	facts, ok := ex.Extract("🚨🚨 Declan Rice to Arsenal, deal agreed", "TransferDesk")
	if !ok {
		t.Fatalf("expected extraction to succeed")
	}
	if facts.Player != "Declan Rice" || facts.ToClub != "Arsenal" {
		t.Fatalf("unexpected extraction: %+v", facts)
	}
	if !facts.Confirmed {
		t.Fatalf("expected confirmed status for agreed deal")
	}
}
