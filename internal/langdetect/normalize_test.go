package langdetect

import "testing"

func TestNormalizeTag(t *testing.T) {
	t.Parallel()

	cases := []struct {
		raw  string
		want string
	}{
		{"EN", "en"},
		{" en-US ", "en-us"},
		{"pt_BR", "pt-br"},
		{"en--us", "en-us"},
		{"", ""},
		{"  ", ""},
		{"en us", ""},
		{"es-419", ""},
	}
	for _, tc := range cases {
		if got := NormalizeTag(tc.raw); got != tc.want {
			t.Fatalf("NormalizeTag(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestNormalizeCode(t *testing.T) {
	t.Parallel()

	if got := NormalizeCode("en-US"); got != "en" {
		t.Fatalf("unexpected code: %q", got)
	}
	if got := NormalizeCode("de"); got != "de" {
		t.Fatalf("unexpected code: %q", got)
	}
	if got := NormalizeCode("!!"); got != "" {
		t.Fatalf("invalid tag must normalize to empty, got %q", got)
	}
}
