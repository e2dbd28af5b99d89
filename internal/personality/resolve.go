package personality

import (
	"errors"
	"sort"
	"time"
)

// Profile is the resolved outcome of one completed assessment.
type Profile struct {
	TaxonomyID  string     `json:"taxonomyId"`
	Primary     TypeScore  `json:"primary"`
	Secondary   *TypeScore `json:"secondary,omitempty"`
	Scores      ScoreTable `json:"scores"`
	Traits      TraitTally `json:"traits"`
	CompletedAt time.Time  `json:"completedAt"`
}

// Ranking returns the ranked rows ordered as the resolver ranks them.
func (p *Profile) Ranking() ScoreTable {
	return rank(p.Scores)
}

// rank orders ranked rows by score descending, then by type id ascending.
func rank(table ScoreTable) ScoreTable {
	ranked := make(ScoreTable, 0, len(table))
	for _, s := range table {
		if s.Ranked {
			ranked = append(ranked, s)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].TypeID < ranked[j].TypeID
	})
	return ranked
}

// Resolve picks the primary and secondary types from a score table.
//
// Equal top scores are broken by lexical type id. The secondary type is only
// reported when it scored above zero. A table where no ranked type scored
// above zero fails with *DegenerateProfileError.
func Resolve(table ScoreTable, tally TraitTally, completedAt time.Time) (*Profile, error) {
	ranked := rank(table)
	if len(ranked) == 0 || ranked[0].Score <= 0 {
		return nil, &DegenerateProfileError{}
	}

	p := &Profile{
		Primary:     ranked[0],
		Scores:      append(ScoreTable(nil), table...),
		Traits:      copyTally(tally),
		CompletedAt: completedAt,
	}
	if len(ranked) > 1 && ranked[1].Score > 0 {
		second := ranked[1]
		p.Secondary = &second
	}
	return p, nil
}

// Classify runs aggregation, scoring and resolution for a complete response set.
func Classify(tax *Taxonomy, rs *ResponseSet, completedAt time.Time) (*Profile, error) {
	tally, err := Aggregate(rs, tax)
	if err != nil {
		return nil, err
	}
	table, err := Score(tally, tax.Types, tax.QuestionCount(), tax.MaxTraitsPerOption)
	if err != nil {
		return nil, err
	}
	p, err := Resolve(table, tally, completedAt)
	if err != nil {
		var de *DegenerateProfileError
		if errors.As(err, &de) {
			de.TaxonomyID = tax.ID
		}
		return nil, err
	}
	p.TaxonomyID = tax.ID
	return p, nil
}

func copyTally(t TraitTally) TraitTally {
	out := make(TraitTally, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}
