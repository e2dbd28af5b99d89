package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"readingcompass/internal/model"
	"readingcompass/internal/personality"
	"readingcompass/internal/repository"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/errgroup"
)

// Snapshot is a fully loaded, validated taxonomy. It is shared between
// requests and must not be modified.
type Snapshot struct {
	Meta          *model.TaxonomyMeta
	Taxonomy      *personality.Taxonomy
	Compatibility *personality.CompatibilityIndex
	LoadedAt      time.Time
}

// TaxonomySource hands out taxonomy snapshots.
type TaxonomySource interface {
	Snapshot(ctx context.Context, taxonomyID string) (*Snapshot, error)
}

// TaxonomyService loads taxonomies from Mongo and keeps recent snapshots in
// memory.
type TaxonomyService struct {
	repo      repository.TaxonomyRepo
	snapshots *expirable.LRU[string, *Snapshot]
	log       *slog.Logger
}

// NewTaxonomyService creates a taxonomy service caching up to size snapshots
// for ttl each.
func NewTaxonomyService(repo repository.TaxonomyRepo, size int, ttl time.Duration, log *slog.Logger) *TaxonomyService {
	if size <= 0 {
		size = 32
	}
	return &TaxonomyService{
		repo:      repo,
		snapshots: expirable.NewLRU[string, *Snapshot](size, nil, ttl),
		log:       log,
	}
}

// loadAttempts bounds how often Snapshot re-reads a taxonomy caught halfway
// through a publish.
const loadAttempts = 3

// Snapshot returns the taxonomy with every question, type and compatibility
// profile loaded. Nothing is returned until all parts have loaded, belong to
// the same publish and passed validation.
func (s *TaxonomyService) Snapshot(ctx context.Context, taxonomyID string) (*Snapshot, error) {
	if snap, ok := s.snapshots.Get(taxonomyID); ok {
		return snap, nil
	}

	var err error
	for attempt := 1; attempt <= loadAttempts; attempt++ {
		var snap *Snapshot
		snap, err = s.load(ctx, taxonomyID)
		if err == nil {
			s.snapshots.Add(taxonomyID, snap)
			return snap, nil
		}
		if !errors.Is(err, ErrTaxonomyInFlux) {
			return nil, err
		}
		s.log.Debug("taxonomy read during publish, retrying", "taxonomy", taxonomyID, "attempt", attempt)
	}
	return nil, err
}

func (s *TaxonomyService) load(ctx context.Context, taxonomyID string) (*Snapshot, error) {
	var (
		meta      *model.TaxonomyMeta
		questions []model.QuestionDoc
		types     []model.TypeDoc
		compat    []model.CompatibilityDoc
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		meta, err = s.repo.GetMeta(gctx, taxonomyID)
		return err
	})
	g.Go(func() error {
		var err error
		questions, err = s.repo.ListQuestions(gctx, taxonomyID)
		return err
	})
	g.Go(func() error {
		var err error
		types, err = s.repo.ListTypes(gctx, taxonomyID)
		return err
	})
	g.Go(func() error {
		var err error
		compat, err = s.repo.ListCompatibility(gctx, taxonomyID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load taxonomy %s: %w", taxonomyID, err)
	}
	if meta == nil {
		return nil, fmt.Errorf("%w: %s", ErrTaxonomyNotFound, taxonomyID)
	}
	if row := model.TornRow(meta, questions, types, compat); row != "" {
		return nil, fmt.Errorf("%w: %s row %s does not match revision %s", ErrTaxonomyInFlux, taxonomyID, row, meta.Revision)
	}

	profiles := make([]personality.CompatibilityProfile, len(compat))
	for i, c := range compat {
		profiles[i] = c.CompatibilityProfile
	}
	snap, err := buildSnapshot(meta, model.Assemble(meta, questions, types), profiles)
	if err != nil {
		s.log.Error("stored taxonomy failed validation", "taxonomy", taxonomyID, "error", err)
		return nil, err
	}

	s.log.Debug("taxonomy loaded",
		"taxonomy", taxonomyID,
		"revision", meta.Revision,
		"questions", len(questions),
		"types", len(types),
		"compatibility", snap.Compatibility.Len(),
	)
	return snap, nil
}

// Publish validates doc and writes it to the store, replacing any previous
// version of the same taxonomy.
func (s *TaxonomyService) Publish(ctx context.Context, doc *model.TaxonomyDocument) error {
	if err := ValidateDocument(doc); err != nil {
		return err
	}
	if err := s.repo.Upsert(ctx, doc); err != nil {
		return fmt.Errorf("publish taxonomy %s: %w", doc.Taxonomy.ID, err)
	}
	s.Invalidate(doc.Taxonomy.ID)
	s.log.Info("taxonomy published", "taxonomy", doc.Taxonomy.ID, "version", doc.Taxonomy.Version)
	return nil
}

// Invalidate drops a cached snapshot.
func (s *TaxonomyService) Invalidate(taxonomyID string) {
	s.snapshots.Remove(taxonomyID)
}

// ValidateDocument checks an authored taxonomy and its compatibility profiles
// without storing anything.
func ValidateDocument(doc *model.TaxonomyDocument) error {
	meta, _, _, _ := doc.Split(time.Now().UTC())
	_, err := buildSnapshot(meta, &doc.Taxonomy, doc.Compatibility)
	return err
}

func buildSnapshot(meta *model.TaxonomyMeta, tax *personality.Taxonomy, profiles []personality.CompatibilityProfile) (*Snapshot, error) {
	if err := tax.Validate(); err != nil {
		return nil, err
	}
	for _, p := range profiles {
		if _, ok := tax.Type(p.SubjectType); !ok {
			return nil, &personality.ValidationError{
				Reason: fmt.Sprintf("compatibility profile %s: subject type %q is not defined in taxonomy %s", p.Key(), p.SubjectType, tax.ID),
			}
		}
	}
	idx, err := personality.NewCompatibilityIndex(profiles)
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		Meta:          meta,
		Taxonomy:      tax,
		Compatibility: idx,
		LoadedAt:      time.Now().UTC(),
	}, nil
}
