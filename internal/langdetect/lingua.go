// Package langdetect tags ingested reports with the language of the
// football press that filed them.
package langdetect

import (
	"strings"
	"sync"
	"unicode"

	lingua "github.com/pemistahl/lingua-go"
)

var (
	detectorOnce sync.Once
	detector     lingua.LanguageDetector
)

// pressLanguages is the subset of languages the transfer-rumour press
// actually writes in. Restricting the detector keeps short reports from
// being misread as an unrelated language.
var pressLanguages = []lingua.Language{
	lingua.English,
	lingua.Spanish,
	lingua.Italian,
	lingua.German,
	lingua.French,
	lingua.Portuguese,
	lingua.Dutch,
	lingua.Turkish,
}

// DetectISO6391 returns the two-letter language code of a report, or ""
// when the text is too short to classify reliably.
func DetectISO6391(text string) string {
	sample := strings.TrimSpace(text)
	if sample == "" {
		return ""
	}

	letterCount := 0
	for _, r := range sample {
		if unicode.IsLetter(r) {
			letterCount++
		}
	}
	if letterCount < 6 {
		return ""
	}

	language, exists := getDetector().DetectLanguageOf(sample)
	if !exists {
		return ""
	}

	code := strings.ToLower(language.IsoCode639_1().String())
	if len(code) != 2 {
		return ""
	}
	return code
}

func getDetector() lingua.LanguageDetector {
	detectorOnce.Do(func() {
		detector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(pressLanguages...).
			WithPreloadedLanguageModels().
			Build()
	})
	return detector
}
