package extract

import "regexp"

// A capitalized token, diacritics included ("Szoboszlai", "N'Golo", "Saint-Maximin").
const capToken = `\p{Lu}[\p{L}'’\-]+`

// One to three capitalized tokens: the shape of a player name.
const nameShape = capToken + `(?: ` + capToken + `){0,2}`

// One or more capitalized tokens: the shape of a club mention.
const clubShape = capToken + `(?: ` + capToken + `){0,3}`

// Non-transfer texts rejected before any extraction is attempted.
var exclusionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\binjur(?:y|ed|ies)\b`),
	regexp.MustCompile(`(?i)\bruled out for\b`),
	regexp.MustCompile(`(?i)\b(?:undergoes|underwent|needs) surgery\b`),
	regexp.MustCompile(`(?i)\bhospitalis|hospitaliz|rushed to hospital\b`),
	regexp.MustCompile(`(?i)\bcollapsed (?:on|during)\b`),
	regexp.MustCompile(`(?i)\b(?:passed away|passes away|dies aged|has died|rest in peace)\b`),
	regexp.MustCompile(`(?i)\bout for the season\b`),
	regexp.MustCompile(`(?i)\bhamstring|acl tear|cruciate\b`),
}

// Player name cascade, in priority order.
var (
	// (a) "Name to Club", "Name joins/signs/agrees …"
	reNameTo   = regexp.MustCompile(`\b(` + nameShape + `) to (` + clubShape + `)`)
	reNameVerb = regexp.MustCompile(`\b(` + nameShape + `) (?:joins|has joined|signs? (?:for|with)|agrees? (?:to join|personal terms)|completes? (?:his |her )?move)`)
	// (b) "Name has accepted/agreed …"
	reNameAccepted = regexp.MustCompile(`\b(` + nameShape + `) has (?:accepted|agreed)`)
	// (c) "Name leaves A and joins B"
	reLeavesJoins = regexp.MustCompile(`\b(` + nameShape + `) leaves (` + clubShape + `)(?:,| and| to)? (?:and )?joins? (` + clubShape + `)`)
	// (d) sentence-initial name before a modal or reporting verb
	reNameModal = regexp.MustCompile(`^(` + nameShape + `) (?:will|would|could|may|might|is|are|has|have|wants?|set to|expected to|rejects?|turns? down|snubs?|extends?|stays?)\b`)
	// (e) generic capitalized-words fallback
	reNameGeneric = regexp.MustCompile(`\b(` + capToken + ` ` + capToken + `(?: ` + capToken + `)?)\b`)
)

// Club direction patterns.
var (
	reFromTo      = regexp.MustCompile(`\bfrom (` + clubShape + `) to (` + clubShape + `)`)
	reJoinsClub   = regexp.MustCompile(`\b(?:joins?|has joined|signs? (?:for|with)|move(?:s)? to|switch(?:es)? to|heading to|deal with) (` + clubShape + `)`)
	reLeavesClub  = regexp.MustCompile(`\bleav(?:es|ing) (` + clubShape + `)`)
	reBeneficiary = regexp.MustCompile(`\b(` + clubShape + `) (?:will|would|to) receive\b`)
	reRejectsClub = regexp.MustCompile(`\b(?:rejects?|turn(?:s|ed)? down|snubs?) (?:a )?(?:move to |offer from |approach from )?(` + clubShape + `)`)
)

// Status vocabulary.
var (
	reHereWeGo       = regexp.MustCompile(`(?i)here we go`)
	reHereWeGoHedged = regexp.MustCompile(`(?i)here we go (?:soon|almost|maybe|perhaps|if|not|\?)|(?:no|not a|waiting for the) here we go`)
	reConfirmed      = regexp.MustCompile(`(?i)\b(?:confirmed|done deal|deal done|deal agreed|agreement reached|official(?:ly)?|medical (?:done|completed|passed)|completed (?:his |her )?(?:move|transfer)|signing (?:is )?complete)\b`)
	reNearConfirmed  = regexp.MustCompile(`(?i)\b(?:total agreement|full agreement|agreement in principle|getting closer|advanced talks|final stages|closing in|verbal agreement|personal terms agreed|being finalised|being finalized|on the verge)\b`)
	reRejected       = regexp.MustCompile(`(?i)\b(?:reject(?:s|ed)?|turn(?:s|ed) down|snub(?:s|bed)?|refus(?:es|ed)|talks (?:have )?collapsed|no agreement|move (?:is )?off)\b`)
	reRenewal        = regexp.MustCompile(`(?i)\b(?:contract extension|extends? (?:his |her )?contract|new (?:deal|contract) (?:at|with|until)|signs? new (?:deal|contract)|renewal|stays? at)\b`)
)

// Supporting detail patterns.
var (
	reContractYears = regexp.MustCompile(`(?i)\b(\d)[\- ]year (?:deal|contract)\b`)
	reContractUntil = regexp.MustCompile(`(?i)\b(?:contract )?until (?:june |summer )?(20\d\d)\b`)
	reAge           = regexp.MustCompile(`(?i)\b(1[6-9]|[2-3]\d)[\- ]year[\- ]old\b`)
	rePayCut        = regexp.MustCompile(`(?i)\b(?:pay ?cut|reduced wages|salary reduction|lower(?:s)? (?:his |her )?(?:wages|salary))\b`)
)

var positionVocabulary = []string{
	"goalkeeper",
	"centre-back",
	"center-back",
	"right-back",
	"left-back",
	"defender",
	"defensive midfielder",
	"attacking midfielder",
	"midfielder",
	"winger",
	"striker",
	"forward",
}

// Capitalized tokens that can never be part of a player name; filters the
// generic fallback away from headline furniture like "Done Deal".
var nameStopTokens = map[string]struct{}{
	"breaking":   {},
	"exclusive":  {},
	"official":   {},
	"update":     {},
	"confirmed":  {},
	"done":       {},
	"deal":       {},
	"transfer":   {},
	"medical":    {},
	"here":       {},
	"news":       {},
	"sources":    {},
	"understand": {},
}
