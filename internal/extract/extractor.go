package extract

import (
	"strings"

	"horse.fit/gaffer/internal/clubs"
	"horse.fit/gaffer/internal/identity"
)

// PatternExtractor is the heuristic implementation of Extractor. The club
// index is injected so behavior is reproducible under test.
type PatternExtractor struct {
	index *clubs.Index
}

func NewPatternExtractor(index *clubs.Index) *PatternExtractor {
	return &PatternExtractor{index: index}
}

// Extract runs the pattern cascade over one raw report. It never panics on
// malformed input; a missing player name is the only rejection surfaced.
func (e *PatternExtractor) Extract(rawText, authorName string) (Facts, bool) {
	text := cleanText(rawText)
	if text == "" {
		return Facts{}, false
	}
	for _, re := range exclusionPatterns {
		if re.MatchString(text) {
			return Facts{}, false
		}
	}

	var facts Facts
	e.extractStatus(text, &facts)
	e.extractClubs(text, &facts)

	player, ok := e.extractPlayer(text, authorName)
	if !ok {
		return Facts{}, false
	}
	facts.Player = player

	e.extractMoney(text, &facts)
	e.extractDetails(text, &facts)

	return facts, true
}

func (e *PatternExtractor) extractStatus(text string, facts *Facts) {
	hereWeGo := reHereWeGo.MatchString(text) && !reHereWeGoHedged.MatchString(text)

	facts.MarqueeConfirmation = hereWeGo
	facts.Rejected = reRejected.MatchString(text)
	facts.Confirmed = !facts.Rejected && (hereWeGo || reConfirmed.MatchString(text))
	facts.NearConfirmed = !facts.Confirmed && !facts.Rejected && reNearConfirmed.MatchString(text)
	facts.Renewal = reRenewal.MatchString(text)
	facts.InterestOnly = !facts.Confirmed && !facts.NearConfirmed && !facts.Rejected && !facts.Renewal
}

func (e *PatternExtractor) extractClubs(text string, facts *Facts) {
	// Explicit direction first: "leaves A and joins B" beats "from A to B".
	if m := reLeavesJoins.FindStringSubmatch(text); m != nil {
		facts.FromClub = e.canonicalClub(m[2])
		facts.ToClub = e.canonicalClub(m[3])
		return
	}
	if m := reFromTo.FindStringSubmatch(text); m != nil {
		facts.FromClub = e.canonicalClub(m[1])
		facts.ToClub = e.canonicalClub(m[2])
		return
	}

	if m := reRejectsClub.FindStringSubmatch(text); m != nil && facts.Rejected {
		if club, known := e.index.Canonical(m[1]); known {
			facts.ToClub = club.Name
		}
	}
	if facts.ToClub == "" {
		if m := reNameTo.FindStringSubmatch(text); m != nil {
			facts.ToClub = e.canonicalClub(m[2])
		}
	}
	if facts.ToClub == "" {
		if m := reJoinsClub.FindStringSubmatch(text); m != nil {
			facts.ToClub = e.canonicalClub(m[1])
		}
	}
	if m := reLeavesClub.FindStringSubmatch(text); m != nil {
		facts.FromClub = e.canonicalClub(m[1])
	}
	// A club named as fee beneficiary is the selling side.
	if facts.FromClub == "" {
		if m := reBeneficiary.FindStringSubmatch(text); m != nil {
			if club, known := e.index.Canonical(m[1]); known {
				facts.FromClub = club.Name
			}
		}
	}

	// A single known club alongside completion language is the destination.
	if facts.ToClub == "" && (facts.Confirmed || facts.NearConfirmed) {
		for _, mention := range e.clubMentions(text) {
			if !sameClub(mention, facts.FromClub) {
				facts.ToClub = mention
				break
			}
		}
	}
}

func (e *PatternExtractor) extractPlayer(text, authorName string) (string, bool) {
	candidates := make([]string, 0, 6)

	if m := reNameTo.FindStringSubmatch(text); m != nil {
		candidates = append(candidates, m[1])
	}
	if m := reNameVerb.FindStringSubmatch(text); m != nil {
		candidates = append(candidates, m[1])
	}
	if m := reNameAccepted.FindStringSubmatch(text); m != nil {
		candidates = append(candidates, m[1])
	}
	if m := reLeavesJoins.FindStringSubmatch(text); m != nil {
		candidates = append(candidates, m[1])
	}
	if m := reNameModal.FindStringSubmatch(text); m != nil {
		candidates = append(candidates, m[1])
	}
	for _, m := range reNameGeneric.FindAllStringSubmatch(text, 4) {
		candidates = append(candidates, m[1])
	}

	for _, candidate := range candidates {
		if e.plausiblePlayer(candidate, authorName) {
			return strings.TrimSpace(candidate), true
		}
	}
	return "", false
}

func (e *PatternExtractor) plausiblePlayer(candidate, authorName string) bool {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return false
	}
	if identity.NormalizeName(trimmed) == identity.NormalizeName(authorName) {
		return false
	}
	if e.index.IsClub(trimmed) {
		return false
	}
	tokens := strings.Fields(trimmed)
	if len(tokens) > 3 {
		return false
	}
	for _, token := range tokens {
		if _, stop := nameStopTokens[strings.ToLower(token)]; stop {
			return false
		}
		if e.index.IsClub(token) {
			return false
		}
	}
	return true
}

func (e *PatternExtractor) extractMoney(text string, facts *Facts) {
	for _, match := range findMoney(text) {
		if match.isWage {
			if facts.Wages == "" {
				facts.Wages = match.display
			}
			continue
		}
		if facts.Fee == "" {
			facts.Fee = match.display
			facts.FeeMillions = match.millions
			facts.Currency = match.currency
		}
	}
	facts.PayCut = rePayCut.MatchString(text)
}

func (e *PatternExtractor) extractDetails(text string, facts *Facts) {
	if m := reContractYears.FindStringSubmatch(text); m != nil {
		facts.ContractLength = m[1] + "-year"
	}
	if m := reContractUntil.FindStringSubmatch(text); m != nil {
		facts.ContractUntil = m[1]
	}
	if m := reAge.FindStringSubmatch(text); m != nil {
		facts.Age = atoiSafe(m[1])
	}
	lowered := strings.ToLower(text)
	for _, position := range positionVocabulary {
		if strings.Contains(lowered, position) {
			facts.Position = position
			break
		}
	}
}

// canonicalClub maps a mention to its canonical club name when known,
// otherwise keeps the raw mention for display.
func (e *PatternExtractor) canonicalClub(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if club, known := e.index.Canonical(trimmed); known {
		return club.Name
	}
	return trimmed
}

// clubMentions lists canonical clubs referenced anywhere in the text,
// in order of first appearance.
func (e *PatternExtractor) clubMentions(text string) []string {
	seen := make(map[string]struct{}, 4)
	mentions := make([]string, 0, 4)
	for _, m := range reNameGeneric.FindAllString(text, -1) {
		e.appendMention(m, seen, &mentions)
	}
	// Single-token mentions ("Arsenal") are not covered by the two-token scan.
	for _, token := range strings.Fields(text) {
		cleaned := strings.Trim(token, ".,;:!?'\"()")
		e.appendMention(cleaned, seen, &mentions)
	}
	return mentions
}

func (e *PatternExtractor) appendMention(raw string, seen map[string]struct{}, mentions *[]string) {
	club, known := e.index.Canonical(raw)
	if !known {
		return
	}
	if _, dup := seen[club.Name]; dup {
		return
	}
	seen[club.Name] = struct{}{}
	*mentions = append(*mentions, club.Name)
}

func sameClub(a, b string) bool {
	return identity.NormalizeClub(a) == identity.NormalizeClub(b)
}

func atoiSafe(raw string) int {
	value := 0
	for _, r := range raw {
		if r < '0' || r > '9' {
			return 0
		}
		value = value*10 + int(r-'0')
	}
	return value
}
