package personality

import "sort"

// TraitTally maps a trait tag to the number of selected options carrying it.
// Traits never selected are absent.
type TraitTally map[string]int

// Count returns the occurrences of trait, zero when absent.
func (t TraitTally) Count(trait string) int {
	return t[trait]
}

// Traits returns the tallied traits in lexical order.
func (t TraitTally) Traits() []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Total returns the sum of all counts.
func (t TraitTally) Total() int {
	n := 0
	for _, c := range t {
		n += c
	}
	return n
}

// Aggregate turns a complete response set into a trait tally. An incomplete
// set fails with a *ValidationError naming the unanswered questions.
func Aggregate(rs *ResponseSet, tax *Taxonomy) (TraitTally, error) {
	if rs == nil || tax == nil {
		return nil, invalidf("aggregate needs a response set and a taxonomy")
	}
	if !rs.boundTo(tax) {
		return nil, invalidf("response set belongs to taxonomy %s@%s, not %s@%s",
			rs.taxonomyID, rs.version, tax.ID, tax.Version)
	}
	if missing := rs.Missing(); len(missing) > 0 {
		return nil, &ValidationError{Reason: "response set is incomplete", Missing: missing}
	}

	tally := make(TraitTally)
	for qi, q := range tax.Questions {
		e := rs.entries[qi]
		for _, trait := range q.Options[e.OptionIndex].Traits {
			tally[trait]++
		}
	}
	return tally, nil
}
