package grouping

import (
	"testing"

	"horse.fit/gaffer/internal/clubs"
)

func testIndex(t *testing.T) *clubs.Index {
	t.Helper()
	index, err := clubs.Load("")
	if err != nil {
		t.Fatalf("load club data: %v", err)
	}
	return index
}

func TestGroupByTopicRosterPlayer(t *testing.T) {
	t.Parallel()
	index := testIndex(t)

	groups := GroupByTopic([]Item{
		{ID: 1, Text: "Declan Rice to Arsenal in advanced talks"},
		{ID: 2, Text: "West Ham expect declan rice bids this week"},
		{ID: 3, Text: "Jude Bellingham shines again"},
	}, index)

	rice := groups["player:declan rice"]
	if len(rice) != 2 || rice[0].ID != 1 || rice[1].ID != 2 {
		t.Fatalf("unexpected rice group: %+v", rice)
	}
	if len(groups["player:jude bellingham"]) != 1 {
		t.Fatalf("expected separate bellingham group: %+v", groups)
	}
}

func TestGroupByTopicNameShapeFallback(t *testing.T) {
	t.Parallel()
	index := testIndex(t)

	groups := GroupByTopic([]Item{
		{ID: 1, Text: "Obscure Fellow linked with a summer move"},
		{ID: 2, Text: "Sources say Obscure Fellow wants out"},
	}, index)

	if len(groups["player:obscure fellow"]) != 2 {
		t.Fatalf("expected the name shape to group both items: %+v", groups)
	}
}

func TestGroupByTopicClubCoOccurrence(t *testing.T) {
	t.Parallel()
	index := testIndex(t)

	groups := GroupByTopic([]Item{
		{ID: 1, Text: "Arsenal plan a busy window"},
		{ID: 2, Text: "Arsenal preparing three bids"},
	}, index)

	if len(groups["club:arsenal"]) != 2 {
		t.Fatalf("expected a club group: %+v", groups)
	}
}

func TestGroupByTopicSingleton(t *testing.T) {
	t.Parallel()
	index := testIndex(t)

	groups := GroupByTopic([]Item{{ID: 42, Text: "nothing recognizable here"}}, index)
	if len(groups["item:42"]) != 1 {
		t.Fatalf("expected a singleton group: %+v", groups)
	}
}

func TestTopicKeySkipsClubShapedNames(t *testing.T) {
	t.Parallel()
	index := testIndex(t)

	// "Aston Villa" is two capitalized tokens but a known club; the key must
	// come from the club pass, not the player pass.
	groups := GroupByTopic([]Item{{ID: 7, Text: "Aston Villa eye a new striker"}}, index)
	if len(groups["club:aston villa"]) != 1 {
		t.Fatalf("expected a club key for a club mention: %+v", groups)
	}
}
