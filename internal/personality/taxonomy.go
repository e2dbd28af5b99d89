// Package personality converts reading-assessment answers into personality
// profiles and looks up authored parent/child compatibility guidance.
//
// Everything here is a pure function of its arguments. Taxonomies are loaded
// by the caller and treated as read-only snapshots.
package personality

import "strings"

// KeySeparator joins two type ids into a compatibility key.
const KeySeparator = "_"

// Audience values for a taxonomy.
const (
	AudienceStudent = "student"
	AudienceParent  = "parent"
)

// AnswerOption is one selectable answer and the trait tags it carries.
type AnswerOption struct {
	Text   string   `json:"text" yaml:"text"`
	Traits []string `json:"traits" yaml:"traits"`
}

// Question is an assessment question. Option index is the selection key.
type Question struct {
	ID       string         `json:"id" yaml:"id"`
	Category string         `json:"category" yaml:"category"`
	Prompt   string         `json:"prompt" yaml:"prompt"`
	Options  []AnswerOption `json:"options" yaml:"options"`
}

// TypeDefinition is a personality type and the traits that count toward it.
type TypeDefinition struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	Traits      []string `json:"traits" yaml:"traits"`
}

// Taxonomy is the authored question/trait/type dataset for one assessment.
type Taxonomy struct {
	ID       string `json:"id" yaml:"id"`
	Version  string `json:"version" yaml:"version"`
	Audience string `json:"audience" yaml:"audience"`
	// MaxTraitsPerOption is the author-declared cap used as the percentage
	// denominator. It is never inferred from the options.
	MaxTraitsPerOption int              `json:"maxTraitsPerOption" yaml:"maxTraitsPerOption"`
	Questions          []Question       `json:"questions" yaml:"questions"`
	Types              []TypeDefinition `json:"types" yaml:"types"`
}

// QuestionCount returns the number of questions.
func (t *Taxonomy) QuestionCount() int {
	return len(t.Questions)
}

// Type returns the type definition with the given id.
func (t *Taxonomy) Type(id string) (TypeDefinition, bool) {
	for _, td := range t.Types {
		if td.ID == id {
			return td, true
		}
	}
	return TypeDefinition{}, false
}

// Validate checks every structural invariant the scorer relies on.
func (t *Taxonomy) Validate() error {
	if t == nil {
		return invalidf("taxonomy is nil")
	}
	if t.ID == "" {
		return invalidf("taxonomy id is empty")
	}
	if t.MaxTraitsPerOption <= 0 {
		return invalidf("taxonomy %s: maxTraitsPerOption must be positive, got %d", t.ID, t.MaxTraitsPerOption)
	}
	if len(t.Questions) == 0 {
		return invalidf("taxonomy %s has no questions", t.ID)
	}
	if len(t.Types) == 0 {
		return invalidf("taxonomy %s has no types", t.ID)
	}

	seenQ := make(map[string]bool, len(t.Questions))
	for qi, q := range t.Questions {
		if q.ID == "" {
			return invalidf("question %d has no id", qi)
		}
		if seenQ[q.ID] {
			return invalidf("duplicate question id %q", q.ID)
		}
		seenQ[q.ID] = true
		if q.Category == "" {
			return invalidf("question %s has no category", q.ID)
		}
		if len(q.Options) == 0 {
			return invalidf("question %s has no options", q.ID)
		}
		tagged := false
		for oi, opt := range q.Options {
			if len(opt.Traits) > t.MaxTraitsPerOption {
				return invalidf("question %s option %d carries %d traits, cap is %d",
					q.ID, oi, len(opt.Traits), t.MaxTraitsPerOption)
			}
			if dup := firstDuplicate(opt.Traits); dup != "" {
				return invalidf("question %s option %d repeats trait %q", q.ID, oi, dup)
			}
			if len(opt.Traits) > 0 {
				tagged = true
			}
		}
		if !tagged {
			return invalidf("question %s has no option with a trait tag", q.ID)
		}
	}

	seenT := make(map[string]bool, len(t.Types))
	for _, td := range t.Types {
		if td.ID == "" {
			return invalidf("type with empty id")
		}
		if strings.Contains(td.ID, KeySeparator) {
			return invalidf("type id %q contains the key separator %q", td.ID, KeySeparator)
		}
		if seenT[td.ID] {
			return invalidf("duplicate type id %q", td.ID)
		}
		seenT[td.ID] = true
		if dup := firstDuplicate(td.Traits); dup != "" {
			return invalidf("type %s repeats trait %q", td.ID, dup)
		}
	}
	return nil
}

func firstDuplicate(values []string) string {
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		if seen[v] {
			return v
		}
		seen[v] = true
	}
	return ""
}
