package personality

import (
	"math"
	"sort"
)

// ResponseEntry is one recorded selection, tagged with its question's id and
// category when recorded.
type ResponseEntry struct {
	QuestionIndex int    `json:"questionIndex" bson:"questionIndex"`
	OptionIndex   int    `json:"optionIndex" bson:"optionIndex"`
	QuestionID    string `json:"questionId" bson:"questionId"`
	Category      string `json:"category" bson:"category"`
}

// Progress summarises how much of an assessment has been answered.
type Progress struct {
	Answered int   `json:"answered"`
	Total    int   `json:"total"`
	Percent  int   `json:"percent"`
	Missing  []int `json:"missing,omitempty"`
}

// ResponseSet collects one selected option per question for a single taxonomy.
// It is not safe for concurrent mutation.
type ResponseSet struct {
	taxonomyID string
	version    string
	questions  []Question
	entries    map[int]ResponseEntry
}

// NewResponseSet starts an empty response set bound to tax.
func NewResponseSet(tax *Taxonomy) *ResponseSet {
	return &ResponseSet{
		taxonomyID: tax.ID,
		version:    tax.Version,
		questions:  tax.Questions,
		entries:    make(map[int]ResponseEntry, len(tax.Questions)),
	}
}

// RestoreResponseSet rebuilds a response set from persisted entries. Every
// entry is re-checked against tax, including its recorded id and category.
func RestoreResponseSet(tax *Taxonomy, entries []ResponseEntry) (*ResponseSet, error) {
	rs := NewResponseSet(tax)
	for _, e := range entries {
		if err := rs.Select(e.QuestionIndex, e.OptionIndex); err != nil {
			return nil, err
		}
		stored := rs.entries[e.QuestionIndex]
		if e.QuestionID != "" && e.QuestionID != stored.QuestionID {
			return nil, invalidf("entry for question %d recorded id %q, taxonomy has %q",
				e.QuestionIndex, e.QuestionID, stored.QuestionID)
		}
		if e.Category != "" && e.Category != stored.Category {
			return nil, invalidf("entry for question %d recorded category %q, taxonomy has %q",
				e.QuestionIndex, e.Category, stored.Category)
		}
	}
	return rs, nil
}

// TaxonomyID returns the id of the taxonomy the set was built for.
func (rs *ResponseSet) TaxonomyID() string { return rs.taxonomyID }

// Select records or revises the answer to a question.
func (rs *ResponseSet) Select(questionIndex, optionIndex int) error {
	if questionIndex < 0 || questionIndex >= len(rs.questions) {
		return invalidf("question index %d out of range [0, %d)", questionIndex, len(rs.questions))
	}
	q := rs.questions[questionIndex]
	if optionIndex < 0 || optionIndex >= len(q.Options) {
		return invalidf("option index %d out of range [0, %d) for question %s", optionIndex, len(q.Options), q.ID)
	}
	rs.entries[questionIndex] = ResponseEntry{
		QuestionIndex: questionIndex,
		OptionIndex:   optionIndex,
		QuestionID:    q.ID,
		Category:      q.Category,
	}
	return nil
}

// Clear retracts the answer to a question. Clearing an unanswered question is a no-op.
func (rs *ResponseSet) Clear(questionIndex int) error {
	if questionIndex < 0 || questionIndex >= len(rs.questions) {
		return invalidf("question index %d out of range [0, %d)", questionIndex, len(rs.questions))
	}
	delete(rs.entries, questionIndex)
	return nil
}

// Selected returns the option chosen for a question.
func (rs *ResponseSet) Selected(questionIndex int) (int, bool) {
	e, ok := rs.entries[questionIndex]
	return e.OptionIndex, ok
}

// Entries returns the recorded answers ordered by question index.
func (rs *ResponseSet) Entries() []ResponseEntry {
	out := make([]ResponseEntry, 0, len(rs.entries))
	for _, e := range rs.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionIndex < out[j].QuestionIndex })
	return out
}

// Answered returns the number of answered questions.
func (rs *ResponseSet) Answered() int { return len(rs.entries) }

// Missing returns the unanswered question indices in ascending order.
func (rs *ResponseSet) Missing() []int {
	var missing []int
	for i := range rs.questions {
		if _, ok := rs.entries[i]; !ok {
			missing = append(missing, i)
		}
	}
	return missing
}

// Complete reports whether every question has an answer.
func (rs *ResponseSet) Complete() bool {
	return len(rs.entries) == len(rs.questions)
}

// Progress reports answered/total counts for partial-progress feedback.
func (rs *ResponseSet) Progress() Progress {
	p := Progress{Answered: len(rs.entries), Total: len(rs.questions), Missing: rs.Missing()}
	if p.Total > 0 {
		p.Percent = int(math.Round(100 * float64(p.Answered) / float64(p.Total)))
	}
	return p
}

func (rs *ResponseSet) boundTo(tax *Taxonomy) bool {
	return rs.taxonomyID == tax.ID && rs.version == tax.Version && len(rs.questions) == len(tax.Questions)
}
