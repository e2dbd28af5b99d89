package personality

import "math"

// TypeScore is one row of a score table.
type TypeScore struct {
	TypeID  string `json:"typeId" bson:"typeId"`
	Score   int    `json:"score" bson:"score"`
	Percent int    `json:"percent" bson:"percent"`
	// Ranked is false for types with an empty defining trait set.
	Ranked bool `json:"ranked" bson:"ranked"`
}

// ScoreTable holds a score for every defined type, in definition order.
type ScoreTable []TypeScore

// Lookup returns the row for a type id.
func (st ScoreTable) Lookup(typeID string) (TypeScore, bool) {
	for _, s := range st {
		if s.TypeID == typeID {
			return s, true
		}
	}
	return TypeScore{}, false
}

// Score sums, for every type, the tally counts of its defining traits and
// converts them to a percentage of the taxonomy-wide maximum
// totalQuestions*maxTraitsPerOption. Ties are kept as equal scores.
func Score(tally TraitTally, types []TypeDefinition, totalQuestions, maxTraitsPerOption int) (ScoreTable, error) {
	if totalQuestions <= 0 {
		return nil, invalidf("total questions must be positive, got %d", totalQuestions)
	}
	if maxTraitsPerOption <= 0 {
		return nil, invalidf("max traits per option must be positive, got %d", maxTraitsPerOption)
	}
	maxPossible := totalQuestions * maxTraitsPerOption

	table := make(ScoreTable, 0, len(types))
	for _, td := range types {
		row := TypeScore{TypeID: td.ID, Ranked: len(td.Traits) > 0}
		for _, trait := range td.Traits {
			row.Score += tally.Count(trait)
		}
		row.Percent = percentOf(row.Score, maxPossible)
		table = append(table, row)
	}
	return table, nil
}

func percentOf(score, maxPossible int) int {
	p := int(math.Round(100 * float64(score) / float64(maxPossible)))
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}
