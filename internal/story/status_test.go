package story

import (
	"testing"

	"horse.fit/gaffer/internal/extract"
)

func TestParseStatus(t *testing.T) {
	t.Parallel()

	if got, ok := ParseStatus("  Confirmed "); !ok || got != StatusConfirmed {
		t.Fatalf("unexpected parse result: %q %v", got, ok)
	}
	if _, ok := ParseStatus("done"); ok {
		t.Fatalf("unknown status must not parse")
	}
}

func TestCanTransitionIsForwardOnly(t *testing.T) {
	t.Parallel()

	allowed := [][2]Status{
		{StatusInterest, StatusNegotiating},
		{StatusInterest, StatusConfirmed},
		{StatusInterest, StatusRejected},
		{StatusInterest, StatusContract},
		{StatusNegotiating, StatusConfirmed},
		{StatusNegotiating, StatusRejected},
	}
	for _, pair := range allowed {
		if !CanTransition(pair[0], pair[1]) {
			t.Fatalf("expected %s -> %s to be allowed", pair[0], pair[1])
		}
	}

	denied := [][2]Status{
		{StatusNegotiating, StatusInterest},
		{StatusNegotiating, StatusContract},
		{StatusConfirmed, StatusRejected},
		{StatusConfirmed, StatusNegotiating},
		{StatusRejected, StatusConfirmed},
		{StatusContract, StatusConfirmed},
		{StatusInterest, StatusInterest},
	}
	for _, pair := range denied {
		if CanTransition(pair[0], pair[1]) {
			t.Fatalf("expected %s -> %s to be denied", pair[0], pair[1])
		}
	}
}

func TestStatusFromFacts(t *testing.T) {
	t.Parallel()

	if got := StatusFromFacts(extract.Facts{Confirmed: true, NearConfirmed: true}); got != StatusConfirmed {
		t.Fatalf("confirmed must win: %q", got)
	}
	if got := StatusFromFacts(extract.Facts{Rejected: true}); got != StatusRejected {
		t.Fatalf("unexpected status: %q", got)
	}
	if got := StatusFromFacts(extract.Facts{Renewal: true, FromClub: "Arsenal", ToClub: "Arsenal"}); got != StatusContract {
		t.Fatalf("same-club renewal must map to contract: %q", got)
	}
	if got := StatusFromFacts(extract.Facts{Renewal: true, FromClub: "Arsenal", ToClub: "Chelsea", NearConfirmed: true}); got != StatusNegotiating {
		t.Fatalf("cross-club move must not map to contract: %q", got)
	}
	if got := StatusFromFacts(extract.Facts{NearConfirmed: true}); got != StatusNegotiating {
		t.Fatalf("unexpected status: %q", got)
	}
	if got := StatusFromFacts(extract.Facts{InterestOnly: true}); got != StatusInterest {
		t.Fatalf("unexpected status: %q", got)
	}
}
