package model

import (
	"readingcompass/internal/personality"
	"time"
)

// AssessmentSession is an in-progress assessment held in Redis.
type AssessmentSession struct {
	ID               string                      `json:"id"`
	SubjectID        string                      `json:"subjectId"`
	TaxonomyID       string                      `json:"taxonomyId"`
	TaxonomyVersion  string                      `json:"taxonomyVersion"`
	TaxonomyRevision string                      `json:"taxonomyRevision,omitempty"`
	Responses        []personality.ResponseEntry `json:"responses"`
	StartedAt        time.Time                   `json:"startedAt"`
	UpdatedAt        time.Time                   `json:"updatedAt"`
}

// AssessmentState is what the API returns for a session.
type AssessmentState struct {
	Session  *AssessmentSession   `json:"session"`
	Progress personality.Progress `json:"progress"`
}
