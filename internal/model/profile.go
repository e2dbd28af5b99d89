package model

import (
	"readingcompass/internal/personality"
	"time"
)

// ProfileRecord is a stored classification. Records are append-only so a
// subject's history survives retakes.
type ProfileRecord struct {
	ID              string                      `json:"id" bson:"_id"`
	SubjectID       string                      `json:"subjectId" bson:"subjectId"`
	TaxonomyID      string                      `json:"taxonomyId" bson:"taxonomyId"`
	TaxonomyVersion string                      `json:"taxonomyVersion" bson:"taxonomyVersion"`
	SessionID       string                      `json:"sessionId" bson:"sessionId"`
	Primary         personality.TypeScore       `json:"primary" bson:"primary"`
	Secondary       *personality.TypeScore      `json:"secondary,omitempty" bson:"secondary,omitempty"`
	Scores          personality.ScoreTable      `json:"scores" bson:"scores"`
	Traits          personality.TraitTally      `json:"traits" bson:"traits"`
	Responses       []personality.ResponseEntry `json:"responses" bson:"responses"`
	CompletedAt     time.Time                   `json:"completedAt" bson:"completedAt"`
}

// NewProfileRecord copies an engine profile into a storable record.
func NewProfileRecord(id, subjectID, version, sessionID string, p *personality.Profile, responses []personality.ResponseEntry) *ProfileRecord {
	return &ProfileRecord{
		ID:              id,
		SubjectID:       subjectID,
		TaxonomyID:      p.TaxonomyID,
		TaxonomyVersion: version,
		SessionID:       sessionID,
		Primary:         p.Primary,
		Secondary:       p.Secondary,
		Scores:          p.Scores,
		Traits:          p.Traits,
		Responses:       responses,
		CompletedAt:     p.CompletedAt,
	}
}

// Profile returns the engine view of the record.
func (r *ProfileRecord) Profile() *personality.Profile {
	return &personality.Profile{
		TaxonomyID:  r.TaxonomyID,
		Primary:     r.Primary,
		Secondary:   r.Secondary,
		Scores:      r.Scores,
		Traits:      r.Traits,
		CompletedAt: r.CompletedAt,
	}
}

// RetakeAdvice reports how long ago a subject last completed a taxonomy.
type RetakeAdvice struct {
	SubjectID     string    `json:"subjectId"`
	TaxonomyID    string    `json:"taxonomyId"`
	HasProfile    bool      `json:"hasProfile"`
	LastCompleted time.Time `json:"lastCompleted,omitempty"`
	ElapsedDays   int       `json:"elapsedDays"`
	IntervalDays  int       `json:"intervalDays"`
	Advisable     bool      `json:"advisable"`
	NextSuggested time.Time `json:"nextSuggested,omitempty"`
}
