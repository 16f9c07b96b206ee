package retrieve

import "strings"

// Intent is the classified purpose of a query. It drives default retrieval
// parameters and fusion strategy.
type Intent string

const (
	IntentCharacter  Intent = "character"
	IntentOverview   Intent = "overview"
	IntentDetail     Intent = "detail"
	IntentStructural Intent = "structural"
	IntentGeneral    Intent = "general"
)

// Classification word lists. Checked in fixed priority order: character >
// overview > detail > structural. The classifier has no topical awareness —
// "what is the capital of France" classifies as overview because it matches
// "what is".
var (
	characterNames = []string{
		"odysseus", "penelope", "telemachus", "athena", "poseidon",
		"circe", "calypso", "polyphemus", "nestor", "menelaus",
		"agamemnon", "nausicaa", "eumaeus", "antinous", "eurymachus",
	}

	overviewPhrases = []string{
		"what is", "who is", "describe", "explain", "tell me about",
		"overview", "summary", "summarize", "introduction", "background",
	}

	detailPhrases = []string{
		"how did", "when did", "where did", "why did", "what happened",
		"specific", "exact", "detailed", "specifically",
	}

	structuralKeywords = []string{
		"book", "chapter", "part", "canto", "section",
	}
)

// Classify maps a free-text query to an intent. Pure and deterministic;
// first matching rule wins.
func Classify(query string) Intent {
	q := strings.ToLower(query)

	for _, name := range characterNames {
		if strings.Contains(q, name) {
			return IntentCharacter
		}
	}
	for _, phrase := range overviewPhrases {
		if strings.Contains(q, phrase) {
			return IntentOverview
		}
	}
	for _, phrase := range detailPhrases {
		if strings.Contains(q, phrase) {
			return IntentDetail
		}
	}
	for _, kw := range structuralKeywords {
		if strings.Contains(q, kw) {
			return IntentStructural
		}
	}
	return IntentGeneral
}

// Params are the effective retrieval parameters for one query.
type Params struct {
	K               int
	Threshold       float32
	IncludeParent   bool
	IncludeChildren bool
}

// ParamsFor applies the fixed intent→parameter table to caller defaults.
func ParamsFor(intent Intent, k int, threshold float32) Params {
	p := Params{K: k, Threshold: threshold, IncludeParent: true}

	switch intent {
	case IntentOverview:
		p.K = min(k, 3)
		p.Threshold = threshold * 0.9
	case IntentDetail:
		p.K = min(k, 7)
		p.IncludeChildren = true
	case IntentStructural:
		p.Threshold = threshold * 0.8
		p.IncludeParent = false
		p.IncludeChildren = true
	case IntentCharacter, IntentGeneral:
		// defaults
	}
	return p
}
