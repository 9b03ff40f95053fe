package feedback

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// TriggerAlways marks a rule that applies to every reference text regardless
// of its content.
const TriggerAlways = "always"

// InterferenceRule describes one L1 interference pattern: when the trigger
// matches the reference text, the rule's tip is surfaced to the learner.
// Rules are static configuration data and are never mutated at runtime.
type InterferenceRule struct {
	// Trigger is a lowercase substring tested against the lowercased
	// reference text, or [TriggerAlways] for unconditional rules.
	Trigger string `yaml:"trigger" json:"trigger"`

	// IPA is the target phoneme in IPA notation (e.g. "θ").
	IPA string `yaml:"ipa" json:"ipa"`

	// CommonError describes the typical substitution (e.g. "t or s").
	CommonError string `yaml:"common_error" json:"common_error"`

	// Tip is the localized guidance shown to the learner.
	Tip string `yaml:"tip" json:"tip"`

	// Examples are minimal-pair or error examples illustrating the pattern.
	Examples []string `yaml:"examples" json:"examples"`
}

// ruleFile is the YAML document shape for an external rule table.
type ruleFile struct {
	Rules []InterferenceRule `yaml:"rules"`
}

// LoadRules reads an interference rule table from the YAML file at path.
// The declared order of rules is preserved; it determines emission order.
func LoadRules(path string) ([]InterferenceRule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("feedback: open rules %q: %w", path, err)
	}
	defer f.Close()

	rules, err := LoadRulesFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("feedback: parse rules %q: %w", path, err)
	}
	return rules, nil
}

// LoadRulesFromReader decodes and validates a YAML rule table from r.
func LoadRulesFromReader(r io.Reader) ([]InterferenceRule, error) {
	var file ruleFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if err := validateRules(file.Rules); err != nil {
		return nil, err
	}
	return file.Rules, nil
}

// validateRules checks every rule once at load time so that consumers can
// iterate the table without per-use checks.
func validateRules(rules []InterferenceRule) error {
	if len(rules) == 0 {
		return errors.New("rule table must contain at least one rule")
	}
	var errs []error
	for i, r := range rules {
		if r.Trigger == "" {
			errs = append(errs, fmt.Errorf("rule %d: trigger must not be empty", i))
		}
		if r.IPA == "" {
			errs = append(errs, fmt.Errorf("rule %d (%q): ipa must not be empty", i, r.Trigger))
		}
		if r.Tip == "" {
			errs = append(errs, fmt.Errorf("rule %d (%q): tip must not be empty", i, r.Trigger))
		}
	}
	return errors.Join(errs...)
}

// DefaultRules returns the built-in Vietnamese interference table. It mirrors
// the four patterns Vietnamese learners of English struggle with most:
// interdental fricatives, the English r, final consonants, and vowel length.
//
// The table ships in-process so the engine works with zero configuration;
// deployments localise or extend it via [LoadRules].
func DefaultRules() []InterferenceRule {
	return []InterferenceRule{
		{
			Trigger:     "th",
			IPA:         "θ",
			CommonError: "t or s",
			Tip:         "Âm 'th' không có trong tiếng Việt. Đặt đầu lưỡi giữa hai hàm răng và thổi hơi nhẹ.",
			Examples:    []string{"think → tink (sai)", "three → tree (sai)"},
		},
		{
			Trigger:     "r",
			IPA:         "ɹ",
			CommonError: "l or ɾ",
			Tip:         "Âm 'r' tiếng Anh khác tiếng Việt. Uốn cong lưỡi về phía sau, không chạm vào nơi nào.",
			Examples:    []string{"red → led (sai)", "right → light (sai)"},
		},
		{
			Trigger:     TriggerAlways,
			IPA:         "various",
			CommonError: "dropping",
			Tip:         "Người Việt hay bỏ âm cuối. Hãy phát âm rõ ràng các phụ âm cuối như -t, -d, -s.",
			Examples:    []string{"cat → ca (sai)", "dogs → dog (sai)"},
		},
		{
			Trigger:     "ee",
			IPA:         "ɪ, ʊ, æ",
			CommonError: "lengthening",
			Tip:         "Phân biệt nguyên âm ngắn và dài. 'ship' khác 'sheep'.",
			Examples:    []string{"ship vs sheep", "full vs fool"},
		},
	}
}
