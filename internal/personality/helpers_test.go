package personality

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// scenarioTaxonomy is three questions with two options each. Type1 counts x,
// Type2 counts y and z.
func scenarioTaxonomy() *Taxonomy {
	return &Taxonomy{
		ID:                 "scenario",
		Version:            "1",
		Audience:           AudienceStudent,
		MaxTraitsPerOption: 2,
		Questions: []Question{
			{ID: "q1", Category: "reading_habits", Prompt: "Where do you read?", Options: []AnswerOption{
				{Text: "Curled up alone", Traits: []string{"x"}},
				{Text: "With friends", Traits: []string{"y"}},
			}},
			{ID: "q2", Category: "motivation", Prompt: "Why do you pick a book?", Options: []AnswerOption{
				{Text: "The cover", Traits: []string{"y", "z"}},
				{Text: "A friend said so", Traits: []string{"x"}},
			}},
			{ID: "q3", Category: "motivation", Prompt: "What do you do after?", Options: []AnswerOption{
				{Text: "Tell someone", Traits: []string{"y"}},
				{Text: "Draw the story", Traits: []string{"z"}},
			}},
		},
		Types: []TypeDefinition{
			{ID: "Type1", Name: "Quiet Explorer", Traits: []string{"x"}},
			{ID: "Type2", Name: "Story Sharer", Traits: []string{"y", "z"}},
		},
	}
}

func answerAll(t *testing.T, tax *Taxonomy, options ...int) *ResponseSet {
	t.Helper()
	rs := NewResponseSet(tax)
	for qi, oi := range options {
		require.NoError(t, rs.Select(qi, oi))
	}
	return rs
}
