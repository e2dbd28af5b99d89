package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"readingcompass/internal/cache"
	"readingcompass/internal/model"
	"readingcompass/internal/personality"
	"readingcompass/internal/repository"
	"time"

	"github.com/google/uuid"
)

// AssessmentService runs assessments from first answer to stored profile.
type AssessmentService struct {
	taxonomies     TaxonomySource
	sessions       cache.ResponseCache
	profiles       repository.ProfileRepo
	distribution   cache.DistributionCache
	metrics        *Metrics
	log            *slog.Logger
	retakeInterval time.Duration

	now   func() time.Time
	newID func() string
}

// NewAssessmentService creates a new assessment service
func NewAssessmentService(
	taxonomies TaxonomySource,
	sessions cache.ResponseCache,
	profiles repository.ProfileRepo,
	distribution cache.DistributionCache,
	metrics *Metrics,
	log *slog.Logger,
	retakeInterval time.Duration,
) *AssessmentService {
	return &AssessmentService{
		taxonomies:     taxonomies,
		sessions:       sessions,
		profiles:       profiles,
		distribution:   distribution,
		metrics:        metrics,
		log:            log,
		retakeInterval: retakeInterval,
		now:            func() time.Time { return time.Now().UTC() },
		newID:          uuid.NewString,
	}
}

// Start opens a new assessment for subjectID against the current version of
// the taxonomy.
func (s *AssessmentService) Start(ctx context.Context, subjectID, taxonomyID string) (*model.AssessmentSession, error) {
	snap, err := s.taxonomies.Snapshot(ctx, taxonomyID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	session := &model.AssessmentSession{
		ID:               s.newID(),
		SubjectID:        subjectID,
		TaxonomyID:       snap.Taxonomy.ID,
		TaxonomyVersion:  snap.Taxonomy.Version,
		TaxonomyRevision: snap.Meta.Revision,
		Responses:        []personality.ResponseEntry{},
		StartedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.sessions.Set(ctx, session); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	s.log.Info("assessment started", "session_id", session.ID, "subject_id", subjectID, "taxonomy", taxonomyID)
	return session, nil
}

// Answer records or revises the option chosen for one question.
func (s *AssessmentService) Answer(ctx context.Context, sessionID, subjectID string, questionIndex, optionIndex int) (*model.AssessmentState, error) {
	return s.mutate(ctx, sessionID, subjectID, func(rs *personality.ResponseSet) error {
		return rs.Select(questionIndex, optionIndex)
	})
}

// Retract clears the answer to one question.
func (s *AssessmentService) Retract(ctx context.Context, sessionID, subjectID string, questionIndex int) (*model.AssessmentState, error) {
	return s.mutate(ctx, sessionID, subjectID, func(rs *personality.ResponseSet) error {
		return rs.Clear(questionIndex)
	})
}

// Progress returns the session and how much of it has been answered.
func (s *AssessmentService) Progress(ctx context.Context, sessionID, subjectID string) (*model.AssessmentState, error) {
	session, _, rs, err := s.load(ctx, sessionID, subjectID)
	if err != nil {
		return nil, err
	}
	return &model.AssessmentState{Session: session, Progress: rs.Progress()}, nil
}

// mutate applies one change to the stored responses. The read-modify-write
// runs inside a Redis transaction so concurrent answers to the same session
// are all kept.
func (s *AssessmentService) mutate(ctx context.Context, sessionID, subjectID string, apply func(*personality.ResponseSet) error) (*model.AssessmentState, error) {
	_, snap, _, err := s.load(ctx, sessionID, subjectID)
	if err != nil {
		return nil, err
	}

	var progress personality.Progress
	session, err := s.sessions.Update(ctx, sessionID, func(current *model.AssessmentSession) error {
		rs, err := personality.RestoreResponseSet(snap.Taxonomy, current.Responses)
		if err != nil {
			return err
		}
		if err := apply(rs); err != nil {
			return err
		}
		current.Responses = rs.Entries()
		current.UpdatedAt = s.now()
		progress = rs.Progress()
		return nil
	})
	if err != nil {
		if personality.IsValidation(err) {
			return nil, err
		}
		return nil, fmt.Errorf("store session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return &model.AssessmentState{Session: session, Progress: progress}, nil
}

// Finalize classifies a complete session and stores the profile. The session
// is only removed once the profile is stored, so a failed call can be retried.
func (s *AssessmentService) Finalize(ctx context.Context, sessionID, subjectID string) (*model.ProfileRecord, error) {
	session, snap, rs, err := s.load(ctx, sessionID, subjectID)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	profile, err := personality.Classify(snap.Taxonomy, rs, s.now())
	if err != nil {
		outcome := OutcomeError
		switch {
		case personality.IsValidation(err):
			outcome = OutcomeInvalid
		case personality.IsDegenerate(err):
			outcome = OutcomeDegenerate
			s.log.Warn("degenerate profile", "session_id", sessionID, "taxonomy", session.TaxonomyID)
		}
		s.metrics.ObserveClassification(session.TaxonomyID, outcome, time.Since(started))
		return nil, err
	}

	// The session id doubles as the record id so a retried finalize cannot
	// store the same assessment twice.
	record := model.NewProfileRecord(session.ID, subjectID, session.TaxonomyVersion, session.ID, profile, rs.Entries())
	inserted, err := s.profiles.Create(ctx, record)
	if err != nil {
		s.metrics.ObserveClassification(session.TaxonomyID, OutcomeError, time.Since(started))
		return nil, fmt.Errorf("store profile: %w", err)
	}
	s.metrics.ObserveClassification(session.TaxonomyID, OutcomeOK, time.Since(started))

	if inserted {
		s.metrics.ObservePrimary(session.TaxonomyID, record.Primary.TypeID)
		if err := s.distribution.Increment(ctx, session.TaxonomyID, record.Primary.TypeID); err != nil {
			s.log.Warn("failed to update type distribution", "taxonomy", session.TaxonomyID, "error", err)
		}
	} else {
		stored, err := s.profiles.Get(ctx, record.ID)
		if err != nil {
			return nil, fmt.Errorf("load stored profile: %w", err)
		}
		if stored != nil {
			record = stored
		}
		s.log.Info("assessment already finalized", "session_id", session.ID)
	}
	if err := s.sessions.Delete(ctx, session.ID); err != nil {
		s.log.Warn("failed to delete finalized session", "session_id", session.ID, "error", err)
	}

	s.log.Info("assessment finalized",
		"session_id", session.ID,
		"subject_id", subjectID,
		"taxonomy", session.TaxonomyID,
		"primary", record.Primary.TypeID,
	)
	return record, nil
}

// Latest returns the subject's most recent profile for a taxonomy.
func (s *AssessmentService) Latest(ctx context.Context, subjectID, taxonomyID string) (*model.ProfileRecord, error) {
	record, err := s.profiles.Latest(ctx, subjectID, taxonomyID)
	if err != nil {
		return nil, fmt.Errorf("load latest profile: %w", err)
	}
	if record == nil {
		return nil, ErrProfileNotFound
	}
	return record, nil
}

// History returns the subject's profiles for a taxonomy, newest first.
func (s *AssessmentService) History(ctx context.Context, subjectID, taxonomyID string, limit int) ([]*model.ProfileRecord, error) {
	records, err := s.profiles.History(ctx, subjectID, taxonomyID, limit)
	if err != nil {
		return nil, fmt.Errorf("load profile history: %w", err)
	}
	if records == nil {
		records = []*model.ProfileRecord{}
	}
	return records, nil
}

// RetakeAdvice reports whether enough time has passed since the subject's
// last assessment to suggest taking it again.
func (s *AssessmentService) RetakeAdvice(ctx context.Context, subjectID, taxonomyID string) (*model.RetakeAdvice, error) {
	advice := &model.RetakeAdvice{
		SubjectID:    subjectID,
		TaxonomyID:   taxonomyID,
		IntervalDays: int(s.retakeInterval / (24 * time.Hour)),
	}

	record, err := s.profiles.Latest(ctx, subjectID, taxonomyID)
	if err != nil {
		return nil, fmt.Errorf("load latest profile: %w", err)
	}
	if record == nil {
		advice.Advisable = true
		return advice, nil
	}

	elapsed := s.now().Sub(record.CompletedAt)
	if elapsed < 0 {
		elapsed = 0
	}
	advice.HasProfile = true
	advice.LastCompleted = record.CompletedAt
	advice.ElapsedDays = int(elapsed / (24 * time.Hour))
	advice.NextSuggested = record.CompletedAt.Add(s.retakeInterval)
	advice.Advisable = elapsed >= s.retakeInterval
	return advice, nil
}

// Distribution returns the most common primary types for a taxonomy.
func (s *AssessmentService) Distribution(ctx context.Context, taxonomyID string, limit int) ([]cache.DistributionEntry, error) {
	if _, err := s.taxonomies.Snapshot(ctx, taxonomyID); err != nil {
		return nil, err
	}
	entries, err := s.distribution.Top(ctx, taxonomyID, limit)
	if err != nil {
		return nil, fmt.Errorf("load distribution: %w", err)
	}
	return entries, nil
}

func (s *AssessmentService) load(ctx context.Context, sessionID, subjectID string) (*model.AssessmentSession, *Snapshot, *personality.ResponseSet, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load session: %w", err)
	}
	if session == nil {
		return nil, nil, nil, ErrSessionNotFound
	}
	if session.SubjectID != subjectID {
		return nil, nil, nil, ErrSessionForbidden
	}

	snap, err := s.taxonomies.Snapshot(ctx, session.TaxonomyID)
	if errors.Is(err, ErrTaxonomyNotFound) {
		return nil, nil, nil, &personality.ValidationError{
			Reason: fmt.Sprintf("taxonomy %s was removed; start a new assessment", session.TaxonomyID),
		}
	}
	if err != nil {
		return nil, nil, nil, err
	}
	if snap.Taxonomy.Version != session.TaxonomyVersion {
		return nil, nil, nil, &personality.ValidationError{
			Reason: fmt.Sprintf("taxonomy %s changed from version %s to %s; start a new assessment",
				session.TaxonomyID, session.TaxonomyVersion, snap.Taxonomy.Version),
		}
	}

	if session.TaxonomyRevision != "" && snap.Meta.Revision != session.TaxonomyRevision {
		return nil, nil, nil, &personality.ValidationError{
			Reason: fmt.Sprintf("taxonomy %s was republished; start a new assessment", session.TaxonomyID),
		}
	}

	rs, err := personality.RestoreResponseSet(snap.Taxonomy, session.Responses)
	if err != nil {
		return nil, nil, nil, err
	}
	return session, snap, rs, nil
}
