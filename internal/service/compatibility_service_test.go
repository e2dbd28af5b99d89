package service

import (
	"context"
	"readingcompass/internal/model"
	"readingcompass/internal/personality"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForPairRequiresLink(t *testing.T) {
	h := newHarness(t)
	_, err := h.compat.ForPair(context.Background(), "mum", "kid-1", "parent_v1", "student_v1")
	assert.ErrorIs(t, err, ErrSubjectNotLinked)
}

func TestForPairPendingProfiles(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.link(t, "mum", "kid-1")
	h.complete(t, "mum", "parent_v1", 0)

	view, err := h.compat.ForPair(ctx, "mum", "kid-1", "parent_v1", "student_v1")
	require.NoError(t, err)
	assert.Equal(t, model.CompatibilityPendingProfiles, view.Status)
	assert.Equal(t, []string{"child"}, view.MissingProfile)
	assert.Nil(t, view.Profile)
}

func TestForPairReady(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.link(t, "mum", "kid-1")
	h.complete(t, "mum", "parent_v1", 0)
	h.complete(t, "kid-1", "student_v1", 0, 0, 0)

	view, err := h.compat.ForPair(ctx, "mum", "kid-1", "parent_v1", "student_v1")
	require.NoError(t, err)
	assert.Equal(t, model.CompatibilityReady, view.Status)
	assert.Equal(t, "Guide", view.ParentType)
	assert.Equal(t, "Type2", view.ChildType)
	assert.Equal(t, "Guide_Type2", view.Key)
	require.NotNil(t, view.Profile)
	assert.Equal(t, personality.MatchComplementary, view.Profile.MatchLevel)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.compatLookups.WithLabelValues("hit")))
}

func TestForPairMissingEntryIsNotAnError(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.link(t, "dad", "kid-1")
	h.complete(t, "dad", "parent_v1", 1)
	h.complete(t, "kid-1", "student_v1", 0, 0, 0)

	view, err := h.compat.ForPair(ctx, "dad", "kid-1", "parent_v1", "student_v1")
	require.NoError(t, err)
	assert.Equal(t, model.CompatibilityNotFound, view.Status)
	assert.Equal(t, "Spark_Type2", view.Key)
	assert.Nil(t, view.Profile)
}

func TestLinkChildValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.compat.LinkChild(ctx, "mum", "")
	assert.True(t, personality.IsValidation(err))
	_, err = h.compat.LinkChild(ctx, "mum", "ZZZZZZ")
	assert.ErrorIs(t, err, ErrLinkCodeInvalid)

	own, err := h.compat.IssueLinkCode(ctx, "mum")
	require.NoError(t, err)
	_, err = h.compat.LinkChild(ctx, "mum", own.Code)
	assert.True(t, personality.IsValidation(err))

	h.link(t, "mum", "kid-1")
	h.link(t, "mum", "kid-1")
	children, err := h.compat.Children(ctx, "mum")
	require.NoError(t, err)
	assert.Equal(t, []string{"kid-1"}, children)
}

func TestLinkCodeIsSingleUseAndExpires(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	code, err := h.compat.IssueLinkCode(ctx, "kid-1")
	require.NoError(t, err)
	assert.Len(t, code.Code, 6)
	assert.Equal(t, h.clock.Add(15*time.Minute), code.ExpiresAt)

	childID, err := h.compat.LinkChild(ctx, "mum", " "+strings.ToLower(code.Code)+" ")
	require.NoError(t, err)
	assert.Equal(t, "kid-1", childID)

	_, err = h.compat.LinkChild(ctx, "dad", code.Code)
	assert.ErrorIs(t, err, ErrLinkCodeInvalid)
	linked, err := h.links.IsLinked(ctx, "dad", "kid-1")
	require.NoError(t, err)
	assert.False(t, linked)

	stale, err := h.compat.IssueLinkCode(ctx, "kid-2")
	require.NoError(t, err)
	h.redis.FastForward(16 * time.Minute)
	_, err = h.compat.LinkChild(ctx, "mum", stale.Code)
	assert.ErrorIs(t, err, ErrLinkCodeInvalid)
}

func TestForPairRefusesUnconfirmedLink(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.complete(t, "stranger", "parent_v1", 0)
	h.complete(t, "kid-1", "student_v1", 0, 0, 0)

	_, err := h.compat.LinkChild(ctx, "stranger", "ABC234")
	assert.ErrorIs(t, err, ErrLinkCodeInvalid)
	_, err = h.compat.ForPair(ctx, "stranger", "kid-1", "parent_v1", "student_v1")
	assert.ErrorIs(t, err, ErrSubjectNotLinked)
}

func TestForPairRequiresTaxonomies(t *testing.T) {
	h := newHarness(t)
	_, err := h.compat.ForPair(context.Background(), "mum", "kid-1", "", "student_v1")
	assert.True(t, personality.IsValidation(err))
}
