package eval

import "sort"

// Confusion is an ordered (expected, observed) phoneme symbol pair.
type Confusion struct {
	Expected string `json:"expected"`
	Observed string `json:"observed"`
}

// ConfusionCount is a confusion pair with its occurrence count.
type ConfusionCount struct {
	Confusion
	Count int `json:"count"`
}

// CategoryCounts tabulates the linguistically motivated error categories that
// Vietnamese learners of English exhibit most often. All four fields are
// always present in the mined output, zero-valued when unobserved, so
// downstream consumers get a stable schema.
type CategoryCounts struct {
	// FinalConsonantDeletion counts ground-truth consonants missing from the
	// tail of a too-short predicted sequence (e.g. "cat" realised as "ca").
	FinalConsonantDeletion int `json:"final_consonant_deletion"`

	// InterdentalSubstitution counts substitutions of the interdental
	// fricatives TH and DH (e.g. "think" realised as "tink").
	InterdentalSubstitution int `json:"interdental_substitution"`

	// LiquidConfusion counts R↔L substitutions (e.g. "red" realised as "led").
	LiquidConfusion int `json:"liquid_confusion"`

	// VowelLengthConfusion counts tense/lax vowel substitutions such as
	// IY↔IH ("sheep" vs "ship") and UW↔UH ("fool" vs "full").
	VowelLengthConfusion int `json:"vowel_length_confusion"`
}

// vowelLengthPairs lists the tense/lax CMU vowel pairs counted as length
// confusions, in both directions.
var vowelLengthPairs = map[Confusion]bool{
	{Expected: "IY", Observed: "IH"}: true,
	{Expected: "IH", Observed: "IY"}: true,
	{Expected: "UW", Observed: "UH"}: true,
	{Expected: "UH", Observed: "UW"}: true,
}

// cmuVowels is the set of CMU phoneme symbols that are vowels; everything
// else is treated as a consonant for final-deletion counting.
var cmuVowels = map[string]bool{
	"AA": true, "AE": true, "AH": true, "AO": true, "AW": true, "AY": true,
	"EH": true, "ER": true, "EY": true, "IH": true, "IY": true, "OW": true,
	"OY": true, "UH": true, "UW": true,
}

// Miner tabulates phoneme confusion frequencies across a corpus of parallel
// phoneme sequences. It is not safe for concurrent use; the evaluation engine
// feeds it from a single goroutine after the parallel map phase.
type Miner struct {
	counts     map[Confusion]int
	order      []Confusion // first-seen order, the tie-break for ranking
	categories CategoryCounts
}

// NewMiner returns an empty Miner.
func NewMiner() *Miner {
	return &Miner{counts: make(map[Confusion]int)}
}

// Observe records the positional mismatches between one predicted and one
// ground-truth phoneme sequence. The same truncation rule as
// [PhonemeAccuracy] applies: only the first min(len) positions are compared.
// Ground-truth consonants beyond a too-short prediction are counted as final
// consonant deletions.
func (m *Miner) Observe(predicted, groundTruth []string) {
	matched := min(len(predicted), len(groundTruth))
	for i := 0; i < matched; i++ {
		p, g := predicted[i], groundTruth[i]
		if p == g {
			continue
		}
		c := Confusion{Expected: g, Observed: p}
		if _, seen := m.counts[c]; !seen {
			m.order = append(m.order, c)
		}
		m.counts[c]++
		m.categorise(c)
	}

	for _, g := range groundTruth[matched:] {
		if !cmuVowels[stripStress(g)] {
			m.categories.FinalConsonantDeletion++
		}
	}
}

// categorise increments the fixed category counter matching c, if any.
func (m *Miner) categorise(c Confusion) {
	g := stripStress(c.Expected)
	p := stripStress(c.Observed)

	switch {
	case g == "TH" || g == "DH":
		m.categories.InterdentalSubstitution++
	case (g == "R" && p == "L") || (g == "L" && p == "R"):
		m.categories.LiquidConfusion++
	case vowelLengthPairs[Confusion{Expected: g, Observed: p}]:
		m.categories.VowelLengthConfusion++
	}
}

// TopConfusions returns the n most frequent confusion pairs in descending
// count order. Equal counts keep first-seen order: the sort is stable over
// the insertion-ordered list, never over the raw map.
func (m *Miner) TopConfusions(n int) []ConfusionCount {
	ranked := make([]ConfusionCount, 0, len(m.order))
	for _, c := range m.order {
		ranked = append(ranked, ConfusionCount{Confusion: c, Count: m.counts[c]})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})

	if n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}

// Categories returns the full fixed-category counts, including zeros.
func (m *Miner) Categories() CategoryCounts {
	return m.categories
}

// stripStress removes a trailing CMU stress digit (AH0 → AH). Symbols without
// stress markers are returned unchanged.
func stripStress(sym string) string {
	if len(sym) > 1 {
		last := sym[len(sym)-1]
		if last >= '0' && last <= '9' {
			return sym[:len(sym)-1]
		}
	}
	return sym
}
