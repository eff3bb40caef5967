package identity

import "testing"

func TestNormalizeNameFoldsDiacriticsAndCase(t *testing.T) {
	t.Parallel()

	if got := NormalizeName("  Rúben   Días "); got != "ruben dias" {
		t.Fatalf("unexpected normalized name: %q", got)
	}
	if NormalizeName("Szoboszlai") != NormalizeName("SZOBOSZLAI") {
		t.Fatalf("expected case-insensitive normalization")
	}
	if got := NormalizeName("O'Neil,"); got != "o'neil" {
		t.Fatalf("unexpected punctuation handling: %q", got)
	}
}

func TestNormalizeClubStripsSuffixTokens(t *testing.T) {
	t.Parallel()

	if got := NormalizeClub("Valencia CF"); got != "valencia" {
		t.Fatalf("unexpected normalized club: %q", got)
	}
	if NormalizeClub("Arsenal FC") != NormalizeClub("arsenal") {
		t.Fatalf("expected suffix-insensitive club matching")
	}
	// A name made entirely of suffix tokens must not normalize to "".
	if got := NormalizeClub("FC"); got != "fc" {
		t.Fatalf("unexpected all-suffix club: %q", got)
	}
}

func TestDeriveKeyIsDeterministic(t *testing.T) {
	t.Parallel()

	a := DeriveKey("Declan Rice", "West Ham", "Arsenal FC", "interest")
	b := DeriveKey("  DECLAN   RICE ", "West Ham", "arsenal", "negotiating")
	if a != b {
		t.Fatalf("expected identical keys, got %q and %q", a, b)
	}
	if a != "declan rice|west ham|arsenal|potential-transfer" {
		t.Fatalf("unexpected key: %q", a)
	}
}

func TestDeriveKeySentinels(t *testing.T) {
	t.Parallel()

	key := DeriveKey("Jude Bellingham", "", "", "interest")
	if key != "jude bellingham|free-agent|unknown|potential-transfer" {
		t.Fatalf("unexpected sentinel key: %q", key)
	}
}

func TestDeriveKeyStatusBuckets(t *testing.T) {
	t.Parallel()

	early := DeriveKey("Kylian Mbappe", "PSG", "Real Madrid", "")
	negotiating := DeriveKey("Kylian Mbappe", "PSG", "Real Madrid", "negotiating")
	if early != negotiating {
		t.Fatalf("early statuses must share one bucket: %q vs %q", early, negotiating)
	}

	confirmed := DeriveKey("Kylian Mbappe", "PSG", "Real Madrid", "confirmed")
	if confirmed == early {
		t.Fatalf("confirmed must not share the potential bucket")
	}
	if got := StatusBucket("Confirmed"); got != "confirmed" {
		t.Fatalf("unexpected bucket: %q", got)
	}
}
