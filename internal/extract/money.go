package extract

import (
	"regexp"
	"strconv"
	"strings"
)

// Money amount in millions: "£100m", "€80 million", "$57.5m", "70m euros".
var (
	reSymbolAmount = regexp.MustCompile(`([£€$])\s?(\d+(?:[.,]\d+)?)\s?(m|mln|million)?\b`)
	reAmountUnit   = regexp.MustCompile(`(?i)\b(\d+(?:[.,]\d+)?)\s?(?:m|mln|million)\s?(euros?|pounds?|dollars?)?\b`)
	reWageContext  = regexp.MustCompile(`(?i)\b(?:per[\- ]week|a[\- ]week|weekly|per[\- ]year|per[\- ]annum|wages?|salary|earn(?:s|ing)?)\b`)

	reThousandsGrouped = regexp.MustCompile(`^\d{1,3}(?:,\d{3})+$`)
	reCommaDecimal     = regexp.MustCompile(`^\d+,\d{1,2}$`)
)

const wageContextWindow = 40

type moneyMatch struct {
	display  string
	millions float64
	currency string
	isWage   bool
}

// findMoney returns currency amounts in order of appearance, each classified
// as fee or wage by the vocabulary surrounding it. A transfer fee and a weekly
// wage look identical as bare amounts; only context separates them.
func findMoney(text string) []moneyMatch {
	matches := make([]moneyMatch, 0, 2)

	for _, loc := range reSymbolAmount.FindAllStringSubmatchIndex(text, -1) {
		symbol := text[loc[2]:loc[3]]
		amountRaw := text[loc[4]:loc[5]]
		unit := ""
		if loc[6] >= 0 {
			unit = text[loc[6]:loc[7]]
		}
		millions, ok := parseMillions(amountRaw, unit != "")
		if !ok {
			continue
		}
		matches = append(matches, moneyMatch{
			display:  strings.TrimSpace(text[loc[0]:loc[1]]),
			millions: millions,
			currency: symbol,
			isWage:   hasWageContext(text, loc[0], loc[1]),
		})
	}

	for _, loc := range reAmountUnit.FindAllStringSubmatchIndex(text, -1) {
		if overlapsAny(matches, text, loc[0]) {
			continue
		}
		amountRaw := text[loc[2]:loc[3]]
		currency := ""
		if loc[4] >= 0 {
			currency = currencySymbol(text[loc[4]:loc[5]])
		}
		millions, ok := parseMillions(amountRaw, true)
		if !ok {
			continue
		}
		matches = append(matches, moneyMatch{
			display:  strings.TrimSpace(text[loc[0]:loc[1]]),
			millions: millions,
			currency: currency,
			isWage:   hasWageContext(text, loc[0], loc[1]),
		})
	}

	return matches
}

func parseMillions(raw string, unitPresent bool) (float64, bool) {
	normalized := raw
	if strings.Contains(raw, ",") {
		switch {
		case reThousandsGrouped.MatchString(raw):
			// "250,000" is a raw amount, not 250 million.
			value, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
			if err != nil || value <= 0 {
				return 0, false
			}
			return value / 1_000_000, true
		case reCommaDecimal.MatchString(raw):
			// Continental decimal comma: "57,5".
			normalized = strings.Replace(raw, ",", ".", 1)
		default:
			return 0, false
		}
	}
	value, err := strconv.ParseFloat(normalized, 64)
	if err != nil || value <= 0 {
		return 0, false
	}
	if !unitPresent {
		// "£120000" style raw amounts: scale down only when clearly not
		// already expressed in millions.
		if value >= 10_000 {
			return value / 1_000_000, true
		}
		if value > 500 {
			return 0, false
		}
	}
	return value, true
}

func hasWageContext(text string, start, end int) bool {
	lo := start - wageContextWindow
	if lo < 0 {
		lo = 0
	}
	hi := end + wageContextWindow
	if hi > len(text) {
		hi = len(text)
	}
	return reWageContext.MatchString(text[lo:hi])
}

func overlapsAny(matches []moneyMatch, text string, start int) bool {
	for _, m := range matches {
		idx := strings.Index(text, m.display)
		for idx >= 0 {
			if start >= idx && start < idx+len(m.display) {
				return true
			}
			next := strings.Index(text[idx+1:], m.display)
			if next < 0 {
				break
			}
			idx += 1 + next
		}
	}
	return false
}

func currencySymbol(unit string) string {
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "euro", "euros":
		return "€"
	case "pound", "pounds":
		return "£"
	case "dollar", "dollars":
		return "$"
	default:
		return ""
	}
}
