package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	domainconfig "recall-backend/domain/config"
	"recall-backend/domain/core/entities"
	"recall-backend/domain/scheduling"
	pkgerrors "recall-backend/pkg/errors"
)

type revisionFixture struct {
	svc          *RevisionService
	itemRepo     *fakeItemRepo
	artifactRepo *fakeArtifactRepo
	reviewLog    *fakeReviewLog
}

func newRevisionFixture() *revisionFixture {
	itemRepo := newFakeItemRepo()
	artifactRepo := newFakeArtifactRepo()
	reviewLog := &fakeReviewLog{}

	svc := NewRevisionService(
		itemRepo, artifactRepo, newFakeSettingsRepo(), reviewLog,
		scheduling.NewSeededScheduler(1), domainconfig.DefaultDomainConfig(),
		nil, zap.NewNop(),
	)
	return &revisionFixture{svc: svc, itemRepo: itemRepo, artifactRepo: artifactRepo, reviewLog: reviewLog}
}

func (f *revisionFixture) trackArtifact(t *testing.T, userID string) *entities.TrackedArtifact {
	t.Helper()
	artifact, err := entities.NewTrackedArtifact(userID, "Two Sum", "arrays", entities.ArtifactProblem)
	require.NoError(t, err)
	require.NoError(t, f.artifactRepo.Save(context.Background(), artifact))
	return artifact
}

func TestCreateArtifact(t *testing.T) {
	f := newRevisionFixture()
	ctx := context.Background()

	t.Run("created artifact can be marked for revision", func(t *testing.T) {
		artifact, err := f.svc.CreateArtifact(ctx, "user-1", "Two Sum", "arrays", entities.ArtifactProblem)
		require.NoError(t, err)

		item, err := f.svc.MarkForRevision(ctx, "user-1", artifact.ID().String())
		require.NoError(t, err)
		assert.Equal(t, artifact.ID().String(), item.RefID().String())
	})

	t.Run("invalid type rejected", func(t *testing.T) {
		_, err := f.svc.CreateArtifact(ctx, "user-1", "CAP theorem", "systems", entities.ArtifactType("video"))
		assert.Error(t, err)
	})

	t.Run("overlong title rejected", func(t *testing.T) {
		_, err := f.svc.CreateArtifact(ctx, "user-1", strings.Repeat("x", 201), "", entities.ArtifactLearning)
		require.Error(t, err)
		appErr := pkgerrors.GetAppError(err)
		require.NotNil(t, appErr)
		assert.Equal(t, pkgerrors.ErrorTypeValidation, appErr.Type)
	})

	t.Run("listing is scoped to the owner", func(t *testing.T) {
		_, err := f.svc.CreateArtifact(ctx, "user-2", "Dijkstra", "graphs", entities.ArtifactLearning)
		require.NoError(t, err)

		artifacts, err := f.svc.ListArtifacts(ctx, "user-2")
		require.NoError(t, err)
		require.Len(t, artifacts, 1)
		assert.Equal(t, "Dijkstra", artifacts[0].Title())
	})
}

func TestMarkForRevision(t *testing.T) {
	f := newRevisionFixture()
	ctx := context.Background()

	t.Run("creates item due after lead time", func(t *testing.T) {
		artifact := f.trackArtifact(t, "user-1")

		item, err := f.svc.MarkForRevision(ctx, "user-1", artifact.ID().String())
		require.NoError(t, err)

		assert.Equal(t, 0, item.RevisionCycle())
		assert.WithinDuration(t, time.Now().Add(24*time.Hour), item.NextRevisionDate(), time.Minute)

		stored, err := f.itemRepo.GetByID(ctx, item.ID())
		require.NoError(t, err)
		assert.Equal(t, item.ID(), stored.ID())
	})

	t.Run("unknown artifact fails", func(t *testing.T) {
		_, err := f.svc.MarkForRevision(ctx, "user-1", "not-a-uuid")
		assert.Error(t, err)
	})

	t.Run("another user's artifact is invisible", func(t *testing.T) {
		artifact := f.trackArtifact(t, "user-2")
		_, err := f.svc.MarkForRevision(ctx, "user-1", artifact.ID().String())
		require.Error(t, err)
		appErr := pkgerrors.GetAppError(err)
		require.NotNil(t, appErr)
		assert.Equal(t, pkgerrors.ErrorTypeUnknownSubject, appErr.Type)
	})
}

func TestListItemsRefreshesCompletion(t *testing.T) {
	f := newRevisionFixture()
	ctx := context.Background()

	artifact := f.trackArtifact(t, "user-1")
	item, err := f.svc.MarkForRevision(ctx, "user-1", artifact.ID().String())
	require.NoError(t, err)

	// Complete it as of two days ago; listing today must reset the flag.
	past := time.Now().AddDate(0, 0, -2)
	_, err = item.Complete(4, scheduling.NewSeededScheduler(1), scheduling.DefaultGraphSettings(), past)
	require.NoError(t, err)
	require.NoError(t, f.itemRepo.Save(ctx, item))

	items, err := f.svc.ListItems(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.False(t, items[0].IsCompleted())
}

func TestBulkComplete(t *testing.T) {
	f := newRevisionFixture()
	ctx := context.Background()

	artifact1 := f.trackArtifact(t, "user-1")
	artifact2 := f.trackArtifact(t, "user-1")
	item1, err := f.svc.MarkForRevision(ctx, "user-1", artifact1.ID().String())
	require.NoError(t, err)
	item2, err := f.svc.MarkForRevision(ctx, "user-1", artifact2.ID().String())
	require.NoError(t, err)

	results := f.svc.BulkComplete(ctx, "user-1", []Completion{
		{ItemID: item1.ID().String(), Rating: 4},
		{ItemID: "00000000-0000-0000-0000-00000000dead", Rating: 3},
		{ItemID: item2.ID().String(), Rating: 9}, // invalid rating
	})

	require.Len(t, results, 3)

	assert.True(t, results[0].OK)
	require.NotNil(t, results[0].NewDueDate)

	assert.False(t, results[1].OK)
	assert.Equal(t, string(pkgerrors.ErrorTypeUnknownSubject), results[1].ErrorType)

	assert.False(t, results[2].OK)
	assert.Equal(t, string(pkgerrors.ErrorTypeInvalidRating), results[2].ErrorType)

	// One failure never rolls back the others.
	stored, err := f.itemRepo.GetByID(ctx, item1.ID())
	require.NoError(t, err)
	assert.True(t, stored.IsCompleted())
	assert.Equal(t, 1, stored.RevisionCycle())

	untouched, err := f.itemRepo.GetByID(ctx, item2.ID())
	require.NoError(t, err)
	assert.False(t, untouched.IsCompleted())

	// Only the successful completion reaches the review log.
	assert.Len(t, f.reviewLog.reviews, 1)
	assert.Equal(t, item1.ID().String(), f.reviewLog.reviews[0].SubjectID)
}

func TestBulkCompleteOwnershipCheck(t *testing.T) {
	f := newRevisionFixture()
	ctx := context.Background()

	artifact := f.trackArtifact(t, "user-2")
	item, err := f.svc.MarkForRevision(ctx, "user-2", artifact.ID().String())
	require.NoError(t, err)

	results := f.svc.BulkComplete(ctx, "user-1", []Completion{
		{ItemID: item.ID().String(), Rating: 4},
	})

	require.Len(t, results, 1)
	assert.False(t, results[0].OK)
	assert.Equal(t, string(pkgerrors.ErrorTypeUnknownSubject), results[0].ErrorType)
}
