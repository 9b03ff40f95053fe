// Package feedback maps reference text and pronunciation scores to ranked,
// localizable L1-interference feedback via a declarative rule table.
//
// The advisor is a pure function over its inputs: the rule table is validated
// once at construction and never mutated, so an [Advisor] is safe for
// concurrent use.
package feedback

import (
	"sort"
	"strings"

	"github.com/antzucaro/matchr"

	"github.com/vietspeak-ai/vietspeak/internal/score"
)

// Score thresholds for the generic improvement suggestions.
const (
	slowDownThreshold = 70 // overall below this → articulate-clearly tip
	pausingThreshold  = 60 // fluency below this → reduce-pausing tip
)

const (
	slowDownSuggestion = "Hãy nói chậm hơn và rõ ràng hơn."
	pausingSuggestion  = "Cố gắng nói liền mạch, không ngắt quãng giữa các từ."
)

// PhonemeNote is one word-level pronunciation divergence, scored by string
// similarity between what was expected and what was heard.
type PhonemeNote struct {
	// Phoneme is the Double Metaphone code of the expected word, standing in
	// for its dominant phoneme cluster.
	Phoneme string `json:"phoneme"`

	// Score is the Jaro-Winkler similarity between expected and actual,
	// scaled to 0–100.
	Score float64 `json:"score"`

	// Expected and Actual are the reference and hypothesis words.
	Expected string `json:"expected"`
	Actual   string `json:"actual"`

	// Suggestion carries the tip of the first interference rule whose
	// trigger appears in the expected word, when any.
	Suggestion string `json:"suggestion,omitempty"`
}

// Bundle is the per-utterance feedback result.
type Bundle struct {
	// Phonemes holds word-level divergence notes ranked worst-first.
	Phonemes []PhonemeNote `json:"phonemes"`

	// Suggestions are generic improvement tips derived from the score.
	Suggestions []string `json:"suggestions"`

	// VietnameseInterference is nil when no rule triggered — callers must
	// not conflate "no issues found" with "not analyzed". When non-nil it is
	// never empty.
	VietnameseInterference []string `json:"vietnamese_interference"`
}

// Advisor evaluates a fixed interference rule table against reference texts.
type Advisor struct {
	rules []InterferenceRule
}

// NewAdvisor creates an Advisor over the given rule table. A nil or empty
// table falls back to [DefaultRules]. The table order is preserved: triggered
// tips are emitted in declared order, not sorted by relevance.
func NewAdvisor(rules []InterferenceRule) *Advisor {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Advisor{rules: rules}
}

// Rules returns the advisor's rule table in declared order.
func (a *Advisor) Rules() []InterferenceRule {
	return a.rules
}

// Advise produces the feedback bundle for one utterance.
//
// Interference tips are collected by testing each rule's trigger substring
// against the lowercased reference text; rules with an "always" trigger are
// included unconditionally. Suggestions are appended independently in fixed
// order: the slow-down tip when overall < 70, then the pausing tip when
// fluency < 60.
func (a *Advisor) Advise(referenceText string, sc score.PronunciationScore) Bundle {
	b := Bundle{
		Phonemes:    []PhonemeNote{},
		Suggestions: []string{},
	}

	if sc.Overall < slowDownThreshold {
		b.Suggestions = append(b.Suggestions, slowDownSuggestion)
	}
	if sc.Fluency < pausingThreshold {
		b.Suggestions = append(b.Suggestions, pausingSuggestion)
	}

	refLower := strings.ToLower(referenceText)
	for _, r := range a.rules {
		if r.Trigger == TriggerAlways || strings.Contains(refLower, r.Trigger) {
			b.VietnameseInterference = append(b.VietnameseInterference, r.Tip)
		}
	}

	return b
}

// AdviseTranscript is [Advisor.Advise] plus word-level phoneme notes mined
// from the hypothesis transcript.
func (a *Advisor) AdviseTranscript(referenceText, transcript string, sc score.PronunciationScore) Bundle {
	b := a.Advise(referenceText, sc)
	b.Phonemes = a.PhonemeNotes(referenceText, transcript)
	return b
}

// PhonemeNotes compares the reference and hypothesis word by word and returns
// a note for every divergent pair, ranked worst-first (lowest similarity
// before higher; equal scores keep word order).
//
// Comparison is positional over the shorter of the two token sequences; the
// alignment-based word error rate lives in the eval package, this is the
// lightweight per-word view used for learner-facing notes.
func (a *Advisor) PhonemeNotes(referenceText, transcript string) []PhonemeNote {
	refWords := strings.Fields(strings.ToLower(referenceText))
	hypWords := strings.Fields(strings.ToLower(transcript))

	notes := []PhonemeNote{}
	for i := 0; i < min(len(refWords), len(hypWords)); i++ {
		expected, actual := refWords[i], hypWords[i]
		if expected == actual {
			continue
		}

		primary, _ := matchr.DoubleMetaphone(expected)
		similarity := matchr.JaroWinkler(expected, actual, false)

		notes = append(notes, PhonemeNote{
			Phoneme:    primary,
			Score:      similarity * 100,
			Expected:   expected,
			Actual:     actual,
			Suggestion: a.suggestionFor(expected),
		})
	}

	sort.SliceStable(notes, func(i, j int) bool {
		return notes[i].Score < notes[j].Score
	})
	return notes
}

// suggestionFor returns the tip of the first substring rule matching word, or
// "" when none matches. "always" rules are utterance-level and never attach
// to individual words.
func (a *Advisor) suggestionFor(word string) string {
	for _, r := range a.rules {
		if r.Trigger == TriggerAlways {
			continue
		}
		if strings.Contains(word, r.Trigger) {
			return r.Tip
		}
	}
	return ""
}
