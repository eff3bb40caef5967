// Package extract turns one raw transfer report into structured facts.
// It is a best-effort heuristic cascade; a statistical extractor can be
// swapped in behind the Extractor interface without touching the merge
// engine or the scorer.
package extract

// Facts is the structured result of parsing a single raw report.
// Values are derived once and never mutated afterwards.
type Facts struct {
	Player   string `json:"player"`
	FromClub string `json:"from_club,omitempty"`
	ToClub   string `json:"to_club,omitempty"`

	Fee         string  `json:"fee,omitempty"` // display form, e.g. "£100m"
	FeeMillions float64 `json:"fee_millions,omitempty"`
	Currency    string  `json:"currency,omitempty"`
	Wages       string  `json:"wages,omitempty"`
	PayCut      bool    `json:"pay_cut,omitempty"`

	ContractLength string `json:"contract_length,omitempty"`
	ContractUntil  string `json:"contract_until,omitempty"`
	Age            int    `json:"age,omitempty"`
	Position       string `json:"position,omitempty"`

	Confirmed           bool `json:"confirmed,omitempty"`
	MarqueeConfirmation bool `json:"marquee_confirmation,omitempty"`
	NearConfirmed       bool `json:"near_confirmed,omitempty"`
	InterestOnly        bool `json:"interest_only,omitempty"`
	Rejected            bool `json:"rejected,omitempty"`
	Renewal             bool `json:"renewal,omitempty"`

	SourceName string `json:"source_name,omitempty"`
	SourceURL  string `json:"source_url,omitempty"`
}

// Extractor isolates the parsing strategy from the rest of the engine.
type Extractor interface {
	// Extract parses one raw report. ok is false when no plausible player
	// name can be isolated or the text matches a non-transfer exclusion.
	Extract(rawText, authorName string) (facts Facts, ok bool)
}
