package service

import (
	"context"
	"fmt"
	"readingcompass/internal/cache"
	"readingcompass/internal/logging"
	"readingcompass/internal/model"
	"readingcompass/internal/personality"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

// studentDoc: q1 [{x},{y}], q2 [{y,z},{x}], q3 [{y},{z}]; Type1={x}, Type2={y,z}.
func studentDoc() *model.TaxonomyDocument {
	return &model.TaxonomyDocument{
		Title: "Students",
		Taxonomy: personality.Taxonomy{
			ID:                 "student_v1",
			Version:            "1",
			Audience:           personality.AudienceStudent,
			MaxTraitsPerOption: 2,
			Questions: []personality.Question{
				{ID: "q1", Category: "reading_habits", Options: []personality.AnswerOption{{Text: "a", Traits: []string{"x"}}, {Text: "b", Traits: []string{"y"}}}},
				{ID: "q2", Category: "imagination", Options: []personality.AnswerOption{{Text: "a", Traits: []string{"y", "z"}}, {Text: "b", Traits: []string{"x"}}}},
				{ID: "q3", Category: "social", Options: []personality.AnswerOption{{Text: "a", Traits: []string{"y"}}, {Text: "b", Traits: []string{"z"}}}},
			},
			Types: []personality.TypeDefinition{
				{ID: "Type1", Traits: []string{"x"}},
				{ID: "Type2", Traits: []string{"y", "z"}},
			},
		},
	}
}

func parentDoc() *model.TaxonomyDocument {
	return &model.TaxonomyDocument{
		Title: "Parents",
		Taxonomy: personality.Taxonomy{
			ID:                 "parent_v1",
			Version:            "1",
			Audience:           personality.AudienceParent,
			MaxTraitsPerOption: 1,
			Questions: []personality.Question{
				{ID: "p1", Category: "family_routine", Options: []personality.AnswerOption{{Text: "quiet", Traits: []string{"calm"}}, {Text: "busy", Traits: []string{"lively"}}}},
			},
			Types: []personality.TypeDefinition{
				{ID: "Guide", Traits: []string{"calm"}},
				{ID: "Spark", Traits: []string{"lively"}},
			},
		},
		Compatibility: []personality.CompatibilityProfile{{
			SubjectType:     "Guide",
			CounterpartType: "Type2",
			MatchLevel:      personality.MatchComplementary,
			TensionPoints:   []string{"Guide plans reading time, Type2 wanders between books"},
			Navigation:      []string{"Offer two books and let the child choose"},
		}},
	}
}

type fakeTaxonomyRepo struct {
	mu        sync.Mutex
	docs      map[string]*model.TaxonomyDocument
	published map[string]time.Time
	metaCalls int
	upserts   int
	err       error
	// tornReads makes the next n question listings look half-published.
	tornReads int
}

func newFakeTaxonomyRepo(docs ...*model.TaxonomyDocument) *fakeTaxonomyRepo {
	r := &fakeTaxonomyRepo{
		docs:      map[string]*model.TaxonomyDocument{},
		published: map[string]time.Time{},
	}
	for _, d := range docs {
		r.docs[d.Taxonomy.ID] = d
	}
	return r
}

func (r *fakeTaxonomyRepo) split(id string) (*model.TaxonomyMeta, []model.QuestionDoc, []model.TypeDoc, []model.CompatibilityDoc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.docs[id]
	if !ok {
		return nil, nil, nil, nil
	}
	return d.Split(r.published[id])
}

func (r *fakeTaxonomyRepo) GetMeta(_ context.Context, id string) (*model.TaxonomyMeta, error) {
	r.mu.Lock()
	r.metaCalls++
	err := r.err
	r.mu.Unlock()
	if err != nil {
		return nil, err
	}
	meta, _, _, _ := r.split(id)
	return meta, nil
}

func (r *fakeTaxonomyRepo) ListQuestions(_ context.Context, id string) ([]model.QuestionDoc, error) {
	_, q, _, _ := r.split(id)
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.tornReads > 0 && len(q) > 0 {
		r.tornReads--
		q[0].Revision = "previous"
	}
	return q, nil
}

func (r *fakeTaxonomyRepo) ListTypes(_ context.Context, id string) ([]model.TypeDoc, error) {
	_, _, t, _ := r.split(id)
	return t, nil
}

func (r *fakeTaxonomyRepo) ListCompatibility(_ context.Context, id string) ([]model.CompatibilityDoc, error) {
	_, _, _, c := r.split(id)
	return c, nil
}

func (r *fakeTaxonomyRepo) Upsert(_ context.Context, doc *model.TaxonomyDocument) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upserts++
	r.docs[doc.Taxonomy.ID] = doc
	r.published[doc.Taxonomy.ID] = time.Unix(int64(r.upserts), 0)
	return nil
}

type fakeProfileRepo struct {
	mu             sync.Mutex
	records        []*model.ProfileRecord
	createErr      error
	// storeBeforeErr keeps the record even when createErr is returned, like a
	// write that succeeded but timed out on the way back.
	storeBeforeErr bool
}

func (r *fakeProfileRepo) Create(_ context.Context, rec *model.ProfileRecord) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		err := r.createErr
		r.createErr = nil
		if r.storeBeforeErr {
			r.records = append(r.records, rec)
		}
		return false, err
	}
	for _, existing := range r.records {
		if existing.ID == rec.ID {
			return false, nil
		}
	}
	r.records = append(r.records, rec)
	return true, nil
}

func (r *fakeProfileRepo) Get(_ context.Context, id string) (*model.ProfileRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return nil, nil
}

func (r *fakeProfileRepo) History(_ context.Context, subjectID, taxonomyID string, limit int) ([]*model.ProfileRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.ProfileRecord
	for _, rec := range r.records {
		if rec.SubjectID == subjectID && rec.TaxonomyID == taxonomyID {
			out = append(out, rec)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CompletedAt.After(out[j].CompletedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeProfileRepo) Latest(ctx context.Context, subjectID, taxonomyID string) (*model.ProfileRecord, error) {
	h, _ := r.History(ctx, subjectID, taxonomyID, 1)
	if len(h) == 0 {
		return nil, nil
	}
	return h[0], nil
}

func (r *fakeProfileRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

type fakeLinkRepo struct {
	mu    sync.Mutex
	links map[string][]string
}

func (r *fakeLinkRepo) Link(_ context.Context, parentID, childID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.links == nil {
		r.links = map[string][]string{}
	}
	for _, c := range r.links[parentID] {
		if c == childID {
			return nil
		}
	}
	r.links[parentID] = append(r.links[parentID], childID)
	return nil
}

func (r *fakeLinkRepo) IsLinked(_ context.Context, parentID, childID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.links[parentID] {
		if c == childID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeLinkRepo) Children(_ context.Context, parentID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.links[parentID]...), nil
}

type harness struct {
	redis        *miniredis.Miniredis
	taxRepo      *fakeTaxonomyRepo
	profiles     *fakeProfileRepo
	links        *fakeLinkRepo
	sessions     cache.ResponseCache
	distribution cache.DistributionCache
	codes        cache.LinkCodeCache
	metrics      *Metrics
	taxonomies   *TaxonomyService
	assessments  *AssessmentService
	compat       *CompatibilityService
	clock        time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	metrics, err := NewMetrics("test", prometheus.NewRegistry())
	require.NoError(t, err)

	h := &harness{
		redis:        mr,
		taxRepo:      newFakeTaxonomyRepo(studentDoc(), parentDoc()),
		profiles:     &fakeProfileRepo{},
		links:        &fakeLinkRepo{},
		sessions:     cache.NewResponseCache(client, time.Hour),
		distribution: cache.NewDistributionCache(client),
		codes:        cache.NewLinkCodeCache(client, 15*time.Minute),
		metrics:      metrics,
		clock:        time.Date(2026, 9, 1, 15, 0, 0, 0, time.UTC),
	}
	log := logging.Nop()
	h.taxonomies = NewTaxonomyService(h.taxRepo, 8, time.Minute, log)
	h.assessments = NewAssessmentService(h.taxonomies, h.sessions, h.profiles, h.distribution, metrics, log, 90*24*time.Hour)
	h.assessments.now = func() time.Time { return h.clock }
	ids := 0
	h.assessments.newID = func() string {
		ids++
		return fmt.Sprintf("session-%d", ids)
	}
	h.compat = NewCompatibilityService(h.taxonomies, h.profiles, h.links, h.codes, metrics, log)
	h.compat.now = func() time.Time { return h.clock }
	return h
}

// complete runs a full assessment for subjectID with the given options.
func (h *harness) complete(t *testing.T, subjectID, taxonomyID string, options ...int) *model.ProfileRecord {
	t.Helper()
	ctx := context.Background()
	session, err := h.assessments.Start(ctx, subjectID, taxonomyID)
	require.NoError(t, err)
	for q, o := range options {
		_, err := h.assessments.Answer(ctx, session.ID, subjectID, q, o)
		require.NoError(t, err)
	}
	rec, err := h.assessments.Finalize(ctx, session.ID, subjectID)
	require.NoError(t, err)
	return rec
}

// link has childID issue a code and parentID redeem it.
func (h *harness) link(t *testing.T, parentID, childID string) {
	t.Helper()
	ctx := context.Background()
	code, err := h.compat.IssueLinkCode(ctx, childID)
	require.NoError(t, err)
	linked, err := h.compat.LinkChild(ctx, parentID, code.Code)
	require.NoError(t, err)
	require.Equal(t, childID, linked)
}
