package personality

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var completedAt = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func TestAggregateRejectsIncompleteSet(t *testing.T) {
	tax := scenarioTaxonomy()
	rs := NewResponseSet(tax)
	require.NoError(t, rs.Select(1, 0))

	_, err := Aggregate(rs, tax)
	require.Error(t, err)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []int{0, 2}, ve.Missing)
	assert.Contains(t, err.Error(), "missing questions: 0, 2")
}

func TestAggregateRejectsForeignTaxonomy(t *testing.T) {
	tax := scenarioTaxonomy()
	rs := answerAll(t, tax, 0, 0, 0)

	other := scenarioTaxonomy()
	other.Version = "2"
	_, err := Aggregate(rs, other)
	assert.True(t, IsValidation(err))
}

func TestAggregateCountsSelectedTraits(t *testing.T) {
	tax := scenarioTaxonomy()
	rs := answerAll(t, tax, 0, 0, 0)

	tally, err := Aggregate(rs, tax)
	require.NoError(t, err)
	assert.Equal(t, TraitTally{"x": 1, "y": 2, "z": 1}, tally)
	assert.Equal(t, []string{"x", "y", "z"}, tally.Traits())
	assert.Equal(t, 4, tally.Total())
}

func TestAggregateLeavesUnselectedTraitsAbsent(t *testing.T) {
	tax := scenarioTaxonomy()
	rs := answerAll(t, tax, 0, 1, 1)

	tally, err := Aggregate(rs, tax)
	require.NoError(t, err)
	_, present := tally["y"]
	assert.False(t, present)
	assert.Equal(t, 0, tally.Count("y"))
	assert.Equal(t, 2, tally.Count("x"))
	assert.Equal(t, 1, tally.Count("z"))
}

func TestScoreIsAdditiveOverDisjointTraitSets(t *testing.T) {
	types := []TypeDefinition{
		{ID: "Bookworm", Traits: []string{"solitary", "deep"}},
		{ID: "Performer", Traits: []string{"voices", "audience"}},
		{ID: "Collector", Traits: []string{"series"}},
	}
	tally := TraitTally{"solitary": 3, "deep": 1, "voices": 2, "unrelated": 9}

	table, err := Score(tally, types, 5, 3)
	require.NoError(t, err)

	expect := map[string]int{"Bookworm": 4, "Performer": 2, "Collector": 0}
	for id, want := range expect {
		row, ok := table.Lookup(id)
		require.True(t, ok, id)
		assert.Equal(t, want, row.Score, id)
	}
}

func TestScorePercentages(t *testing.T) {
	tax := scenarioTaxonomy()
	tally := TraitTally{"x": 1, "y": 2, "z": 1}

	table, err := Score(tally, tax.Types, 3, 2)
	require.NoError(t, err)

	t1, _ := table.Lookup("Type1")
	t2, _ := table.Lookup("Type2")
	assert.Equal(t, 17, t1.Percent)
	assert.Equal(t, 50, t2.Percent)
}

func TestScoreReachesFullPercentage(t *testing.T) {
	tax := &Taxonomy{
		ID:                 "full",
		MaxTraitsPerOption: 2,
		Types: []TypeDefinition{
			{ID: "Dreamer", Traits: []string{"imagines", "wonders"}},
			{ID: "Planner", Traits: []string{"lists"}},
		},
	}
	for i := 0; i < 4; i++ {
		tax.Questions = append(tax.Questions, Question{
			ID:       fmt.Sprintf("q%d", i),
			Category: "imagination",
			Options: []AnswerOption{
				{Text: "dream", Traits: []string{"imagines", "wonders"}},
				{Text: "plan", Traits: []string{"lists"}},
			},
		})
	}
	require.NoError(t, tax.Validate())

	rs := answerAll(t, tax, 0, 0, 0, 0)
	p, err := Classify(tax, rs, completedAt)
	require.NoError(t, err)

	assert.Equal(t, "Dreamer", p.Primary.TypeID)
	assert.Equal(t, 100, p.Primary.Percent)
	for _, row := range p.Scores {
		assert.GreaterOrEqual(t, row.Percent, 0)
		assert.LessOrEqual(t, row.Percent, 100)
	}
}

func TestScoreRejectsBadDenominator(t *testing.T) {
	_, err := Score(TraitTally{}, nil, 0, 3)
	assert.True(t, IsValidation(err))
	_, err = Score(TraitTally{}, nil, 3, 0)
	assert.True(t, IsValidation(err))
}

func TestScoreExcludesEmptyTypesFromRanking(t *testing.T) {
	types := []TypeDefinition{{ID: "Empty"}, {ID: "Real", Traits: []string{"a"}}}
	table, err := Score(TraitTally{"a": 1}, types, 1, 1)
	require.NoError(t, err)

	empty, _ := table.Lookup("Empty")
	assert.False(t, empty.Ranked)
	assert.Equal(t, 0, empty.Score)

	p, err := Resolve(table, TraitTally{"a": 1}, completedAt)
	require.NoError(t, err)
	assert.Equal(t, "Real", p.Primary.TypeID)
	assert.Nil(t, p.Secondary)
	assert.Len(t, p.Ranking(), 1)
}

func TestResolveTieBreaksByTypeID(t *testing.T) {
	table := ScoreTable{
		{TypeID: "Wanderer", Score: 4, Ranked: true},
		{TypeID: "Anchor", Score: 4, Ranked: true},
		{TypeID: "Mapper", Score: 4, Ranked: true},
		{TypeID: "Lantern", Score: 1, Ranked: true},
	}

	first, err := Resolve(table, nil, completedAt)
	require.NoError(t, err)
	second, err := Resolve(table, nil, completedAt)
	require.NoError(t, err)

	assert.Equal(t, "Anchor", first.Primary.TypeID)
	require.NotNil(t, first.Secondary)
	assert.Equal(t, "Mapper", first.Secondary.TypeID)
	assert.Equal(t, first.Primary, second.Primary)
	assert.Equal(t, *first.Secondary, *second.Secondary)
}

func TestResolveOmitsZeroSecondary(t *testing.T) {
	table := ScoreTable{
		{TypeID: "A", Score: 2, Ranked: true},
		{TypeID: "B", Score: 0, Ranked: true},
	}
	p, err := Resolve(table, TraitTally{"a": 2}, completedAt)
	require.NoError(t, err)
	assert.Equal(t, "A", p.Primary.TypeID)
	assert.Nil(t, p.Secondary)
}

func TestResolveRejectsDegenerateTable(t *testing.T) {
	table := ScoreTable{
		{TypeID: "A", Score: 0, Ranked: true},
		{TypeID: "B", Score: 0, Ranked: true},
	}
	_, err := Resolve(table, TraitTally{}, completedAt)
	require.Error(t, err)
	assert.True(t, IsDegenerate(err))

	_, err = Resolve(nil, nil, completedAt)
	assert.True(t, IsDegenerate(err))
}

func TestClassifyDegenerateWhenOptionsCarryNoMatchingTraits(t *testing.T) {
	tax := scenarioTaxonomy()
	tax.Questions[0].Options[1].Traits = nil
	tax.Questions[1].Options[1].Traits = nil
	tax.Questions[2].Options[1].Traits = nil
	require.NoError(t, tax.Validate())

	rs := answerAll(t, tax, 1, 1, 1)
	p, err := Classify(tax, rs, completedAt)
	assert.Nil(t, p)

	var de *DegenerateProfileError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "scenario", de.TaxonomyID)
}

func TestClassifyEndToEndScenario(t *testing.T) {
	tax := scenarioTaxonomy()
	require.NoError(t, tax.Validate())
	rs := answerAll(t, tax, 0, 0, 0)

	p, err := Classify(tax, rs, completedAt)
	require.NoError(t, err)

	assert.Equal(t, "scenario", p.TaxonomyID)
	assert.Equal(t, TraitTally{"x": 1, "y": 2, "z": 1}, p.Traits)
	assert.Equal(t, "Type2", p.Primary.TypeID)
	assert.Equal(t, 3, p.Primary.Score)
	require.NotNil(t, p.Secondary)
	assert.Equal(t, "Type1", p.Secondary.TypeID)
	assert.Equal(t, 1, p.Secondary.Score)
	assert.Equal(t, completedAt, p.CompletedAt)
	assert.Len(t, p.Scores, 2)
}

func TestClassifyIsDeterministic(t *testing.T) {
	tax := scenarioTaxonomy()

	var encoded [][]byte
	for i := 0; i < 5; i++ {
		rs := answerAll(t, tax, 0, 1, 1)
		p, err := Classify(tax, rs, completedAt)
		require.NoError(t, err)
		b, err := json.Marshal(p)
		require.NoError(t, err)
		encoded = append(encoded, b)
	}
	for _, b := range encoded[1:] {
		assert.Equal(t, string(encoded[0]), string(b))
	}
}

func TestResolveDoesNotAliasInputs(t *testing.T) {
	tally := TraitTally{"a": 1}
	table := ScoreTable{{TypeID: "A", Score: 1, Ranked: true}}

	p, err := Resolve(table, tally, completedAt)
	require.NoError(t, err)

	tally["a"] = 99
	table[0].Score = 99
	assert.Equal(t, 1, p.Traits["a"])
	assert.Equal(t, 1, p.Scores[0].Score)
}
