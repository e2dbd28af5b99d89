package model

import (
	"readingcompass/internal/personality"
	"time"
)

// TaxonomyMeta is the header document of a stored taxonomy.
type TaxonomyMeta struct {
	ID                 string    `json:"id" bson:"_id"`
	Version            string    `json:"version" bson:"version"`
	Audience           string    `json:"audience" bson:"audience"`
	Title              string    `json:"title" bson:"title"`
	MaxTraitsPerOption int       `json:"maxTraitsPerOption" bson:"maxTraitsPerOption"`
	// Revision changes on every publish. Rows carry the revision they were
	// written with so a reader can tell a finished publish from a partial one.
	Revision  string    `json:"revision" bson:"revision"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// QuestionDoc is one question row in the questions collection.
type QuestionDoc struct {
	ID         string                     `json:"id" bson:"_id"` // taxonomyId/questionId
	TaxonomyID string                     `json:"taxonomyId" bson:"taxonomyId"`
	QuestionID string                     `json:"questionId" bson:"questionId"`
	Revision   string                     `json:"revision" bson:"revision"`
	Order      int                        `json:"order" bson:"order"`
	Category   string                     `json:"category" bson:"category"`
	Prompt     string                     `json:"prompt" bson:"prompt"`
	Options    []personality.AnswerOption `json:"options" bson:"options"`
}

// TypeDoc is one personality type row.
type TypeDoc struct {
	ID          string   `json:"id" bson:"_id"`
	TaxonomyID  string   `json:"taxonomyId" bson:"taxonomyId"`
	TypeID      string   `json:"typeId" bson:"typeId"`
	Revision    string   `json:"revision" bson:"revision"`
	Order       int      `json:"order" bson:"order"`
	Name        string   `json:"name" bson:"name"`
	Description string   `json:"description" bson:"description"`
	Traits      []string `json:"traits" bson:"traits"`
}

// CompatibilityDoc stores one authored compatibility profile under its key.
type CompatibilityDoc struct {
	ID         string `json:"id" bson:"_id"`
	TaxonomyID string `json:"taxonomyId" bson:"taxonomyId"`
	Key        string `json:"key" bson:"key"`
	Revision   string `json:"revision" bson:"revision"`

	personality.CompatibilityProfile `bson:",inline" yaml:",inline"`
}

// TaxonomyDocument is the full authored dataset as written by the seed tool.
type TaxonomyDocument struct {
	Title         string                             `json:"title" yaml:"title"`
	Taxonomy      personality.Taxonomy               `json:"taxonomy" yaml:",inline"`
	Compatibility []personality.CompatibilityProfile `json:"compatibility" yaml:"compatibility"`
}

// RowID builds the document id shared by the per-taxonomy collections.
func RowID(taxonomyID, localID string) string {
	return taxonomyID + "/" + localID
}

// RevisionAt derives the publish revision stamped on a taxonomy's rows.
func RevisionAt(version string, at time.Time) string {
	return version + "@" + at.UTC().Format(time.RFC3339Nano)
}

// Split breaks a TaxonomyDocument into the rows stored per collection, all
// stamped with the revision derived from now.
func (d *TaxonomyDocument) Split(now time.Time) (*TaxonomyMeta, []QuestionDoc, []TypeDoc, []CompatibilityDoc) {
	t := &d.Taxonomy
	revision := RevisionAt(t.Version, now)
	meta := &TaxonomyMeta{
		ID:                 t.ID,
		Version:            t.Version,
		Audience:           t.Audience,
		Title:              d.Title,
		MaxTraitsPerOption: t.MaxTraitsPerOption,
		Revision:           revision,
		UpdatedAt:          now,
	}

	questions := make([]QuestionDoc, len(t.Questions))
	for i, q := range t.Questions {
		questions[i] = QuestionDoc{
			ID:         RowID(t.ID, q.ID),
			TaxonomyID: t.ID,
			QuestionID: q.ID,
			Revision:   revision,
			Order:      i,
			Category:   q.Category,
			Prompt:     q.Prompt,
			Options:    q.Options,
		}
	}

	types := make([]TypeDoc, len(t.Types))
	for i, td := range t.Types {
		types[i] = TypeDoc{
			ID:          RowID(t.ID, td.ID),
			TaxonomyID:  t.ID,
			TypeID:      td.ID,
			Revision:    revision,
			Order:       i,
			Name:        td.Name,
			Description: td.Description,
			Traits:      td.Traits,
		}
	}

	compat := make([]CompatibilityDoc, len(d.Compatibility))
	for i, c := range d.Compatibility {
		compat[i] = CompatibilityDoc{
			ID:                   RowID(t.ID, c.Key()),
			TaxonomyID:           t.ID,
			Key:                  c.Key(),
			Revision:             revision,
			CompatibilityProfile: c,
		}
	}
	return meta, questions, types, compat
}

// TornRow names the first stored row whose revision differs from the
// header's, or returns "" when every row belongs to meta's publish.
func TornRow(meta *TaxonomyMeta, questions []QuestionDoc, types []TypeDoc, compat []CompatibilityDoc) string {
	for _, q := range questions {
		if q.Revision != meta.Revision {
			return q.ID
		}
	}
	for _, td := range types {
		if td.Revision != meta.Revision {
			return td.ID
		}
	}
	for _, c := range compat {
		if c.Revision != meta.Revision {
			return c.ID
		}
	}
	return ""
}

// Assemble rebuilds an engine taxonomy from stored rows. Rows must already be
// sorted by Order.
func Assemble(meta *TaxonomyMeta, questions []QuestionDoc, types []TypeDoc) *personality.Taxonomy {
	t := &personality.Taxonomy{
		ID:                 meta.ID,
		Version:            meta.Version,
		Audience:           meta.Audience,
		MaxTraitsPerOption: meta.MaxTraitsPerOption,
		Questions:          make([]personality.Question, len(questions)),
		Types:              make([]personality.TypeDefinition, len(types)),
	}
	for i, q := range questions {
		t.Questions[i] = personality.Question{ID: q.QuestionID, Category: q.Category, Prompt: q.Prompt, Options: q.Options}
	}
	for i, td := range types {
		t.Types[i] = personality.TypeDefinition{ID: td.TypeID, Name: td.Name, Description: td.Description, Traits: td.Traits}
	}
	return t
}
