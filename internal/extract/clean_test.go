package extract

import "testing"

func TestCleanTextStripsEmojiAndDecoration(t *testing.T) {
	t.Parallel()

	if got := cleanText("🚨🇪🇸 Done deal! Rice signs."); got != "Done deal! Rice signs." {
		t.Fatalf("unexpected cleaned text: %q", got)
	}
	if got := cleanText("— BREAKING: move is off"); got != "BREAKING: move is off" {
		t.Fatalf("unexpected cleaned text: %q", got)
	}
}

func TestCleanTextNormalizesPunctuationAndWhitespace(t *testing.T) {
	t.Parallel()

	if got := cleanText("“Rice’s  move”\tis   close…"); got != `"Rice's move" is close...` {
		t.Fatalf("unexpected cleaned text: %q", got)
	}
	if got := cleanText("   \t  "); got != "" {
		t.Fatalf("whitespace-only input must clean to empty, got %q", got)
	}
}
