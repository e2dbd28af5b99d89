package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"readingcompass/internal/cache"
	"readingcompass/internal/model"
	"readingcompass/internal/personality"
	"readingcompass/internal/repository"
	"strings"
	"time"
)

// CompatibilityService answers parent/child compatibility questions.
type CompatibilityService struct {
	taxonomies TaxonomySource
	profiles   repository.ProfileRepo
	links      repository.LinkRepo
	codes      cache.LinkCodeCache
	metrics    *Metrics
	log        *slog.Logger

	now func() time.Time
}

// NewCompatibilityService creates a new compatibility service
func NewCompatibilityService(taxonomies TaxonomySource, profiles repository.ProfileRepo, links repository.LinkRepo, codes cache.LinkCodeCache, metrics *Metrics, log *slog.Logger) *CompatibilityService {
	return &CompatibilityService{
		taxonomies: taxonomies,
		profiles:   profiles,
		links:      links,
		codes:      codes,
		metrics:    metrics,
		log:        log,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// IssueLinkCode creates a single-use code childID can hand to a parent.
func (s *CompatibilityService) IssueLinkCode(ctx context.Context, childID string) (*model.LinkCode, error) {
	const chars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	const codeLen = 6

	for attempts := 0; attempts < 10; attempts++ {
		b := make([]byte, codeLen)
		if _, err := rand.Read(b); err != nil {
			return nil, err
		}
		code := make([]byte, codeLen)
		for i := range code {
			code[i] = chars[int(b[i])%len(chars)]
		}

		created, err := s.codes.Create(ctx, string(code), childID)
		if err != nil {
			return nil, fmt.Errorf("store link code: %w", err)
		}
		if created {
			s.log.Info("link code issued", "child_id", childID)
			return &model.LinkCode{
				Code:      string(code),
				ChildID:   childID,
				ExpiresAt: s.now().Add(s.codes.TTL()),
			}, nil
		}
	}
	return nil, fmt.Errorf("failed to generate unique link code")
}

// LinkChild redeems a code issued by the child and lets parentID view that
// child's profiles. It returns the linked child's id.
func (s *CompatibilityService) LinkChild(ctx context.Context, parentID, code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return "", &personality.ValidationError{Reason: "code is required"}
	}
	childID, err := s.codes.Consume(ctx, code)
	if err != nil {
		return "", fmt.Errorf("redeem link code: %w", err)
	}
	if childID == "" {
		return "", ErrLinkCodeInvalid
	}
	if childID == parentID {
		return "", &personality.ValidationError{Reason: "a subject cannot link to itself"}
	}
	if err := s.links.Link(ctx, parentID, childID); err != nil {
		return "", fmt.Errorf("link child: %w", err)
	}
	s.log.Info("child linked", "parent_id", parentID, "child_id", childID)
	return childID, nil
}

// Children lists the subjects linked to parentID.
func (s *CompatibilityService) Children(ctx context.Context, parentID string) ([]string, error) {
	ids, err := s.links.Children(ctx, parentID)
	if err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// ForPair looks up the authored guidance for the parent's primary type facing
// the child's primary type. The parent is always the subject of the lookup.
func (s *CompatibilityService) ForPair(ctx context.Context, parentID, childID, parentTaxonomyID, childTaxonomyID string) (*model.CompatibilityView, error) {
	if parentTaxonomyID == "" || childTaxonomyID == "" {
		return nil, &personality.ValidationError{Reason: "parentTaxonomy and childTaxonomy are required"}
	}
	linked, err := s.links.IsLinked(ctx, parentID, childID)
	if err != nil {
		return nil, fmt.Errorf("check link: %w", err)
	}
	if !linked {
		return nil, ErrSubjectNotLinked
	}

	snap, err := s.taxonomies.Snapshot(ctx, parentTaxonomyID)
	if err != nil {
		return nil, err
	}

	view := &model.CompatibilityView{ParentID: parentID, ChildID: childID}

	parent, err := s.profiles.Latest(ctx, parentID, parentTaxonomyID)
	if err != nil {
		return nil, fmt.Errorf("load parent profile: %w", err)
	}
	child, err := s.profiles.Latest(ctx, childID, childTaxonomyID)
	if err != nil {
		return nil, fmt.Errorf("load child profile: %w", err)
	}
	if parent == nil {
		view.MissingProfile = append(view.MissingProfile, "parent")
	}
	if child == nil {
		view.MissingProfile = append(view.MissingProfile, "child")
	}
	if len(view.MissingProfile) > 0 {
		view.Status = model.CompatibilityPendingProfiles
		s.metrics.ObserveCompatibility("pending")
		return view, nil
	}

	view.ParentType = parent.Primary.TypeID
	view.ChildType = child.Primary.TypeID
	view.Key = personality.CompatibilityKey(view.ParentType, view.ChildType)

	entry, ok, err := snap.Compatibility.Resolve(parent.Profile(), child.Profile())
	if err != nil {
		return nil, err
	}
	if !ok {
		view.Status = model.CompatibilityNotFound
		s.metrics.ObserveCompatibility("miss")
		s.log.Debug("no compatibility profile", "key", view.Key, "taxonomy", parentTaxonomyID)
		return view, nil
	}
	view.Status = model.CompatibilityReady
	view.Profile = &entry
	s.metrics.ObserveCompatibility("hit")
	return view, nil
}
