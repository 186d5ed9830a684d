package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	domainconfig "recall-backend/domain/config"
	"recall-backend/domain/core/aggregates"
	"recall-backend/domain/core/entities"
	"recall-backend/domain/events"
	"recall-backend/domain/scheduling"
)

type reviewFixture struct {
	svc       *ReviewService
	itemRepo  *fakeItemRepo
	graphRepo *fakeGraphRepo
	reviewLog *fakeReviewLog
	eventBus  *fakeEventBus
	domainCfg *domainconfig.DomainConfig
}

func newReviewFixture() *reviewFixture {
	itemRepo := newFakeItemRepo()
	graphRepo := newFakeGraphRepo()
	reviewLog := &fakeReviewLog{}
	eventBus := &fakeEventBus{}
	domainCfg := domainconfig.DefaultDomainConfig()
	logger := zap.NewNop()

	propagation := NewPropagationService(graphRepo, eventBus, domainCfg, nil, logger)
	svc := NewReviewService(
		itemRepo, graphRepo, newFakeSettingsRepo(), reviewLog, eventBus,
		scheduling.NewSeededScheduler(1), propagation, domainCfg, nil, logger,
	)
	return &reviewFixture{
		svc: svc, itemRepo: itemRepo, graphRepo: graphRepo,
		reviewLog: reviewLog, eventBus: eventBus, domainCfg: domainCfg,
	}
}

func (f *reviewFixture) seedItem(t *testing.T, userID string) *entities.RevisionItem {
	t.Helper()
	artifact, err := entities.NewTrackedArtifact(userID, "Merge Sort", "sorting", entities.ArtifactLearning)
	require.NoError(t, err)
	item := entities.NewRevisionItem(userID, artifact, time.Now())
	require.NoError(t, f.itemRepo.Save(context.Background(), item))
	return item
}

func (f *reviewFixture) seedNode(t *testing.T, userID, title string) (*aggregates.Graph, *entities.GraphNode) {
	t.Helper()
	graph, err := f.graphRepo.GetOrCreateDefaultGraph(context.Background(), userID)
	require.NoError(t, err)
	node, err := entities.NewGraphNode(userID, graph.ID().String(), title, entities.NodeConcept)
	require.NoError(t, err)
	require.NoError(t, graph.AddNode(node))
	return graph, node
}

func TestSubmitReviewItem(t *testing.T) {
	f := newReviewFixture()
	ctx := context.Background()
	item := f.seedItem(t, "user-1")

	result, err := f.svc.SubmitReview(ctx, "user-1", item.ID().String(), entities.SubjectItem, 4)
	require.NoError(t, err)

	assert.Equal(t, item.ID().String(), result.SubjectID)
	assert.Equal(t, "item", result.SubjectKind)
	assert.Equal(t, 1, result.RevisionCycle)
	assert.True(t, result.NextDue.After(time.Now()))
	assert.Nil(t, result.NewStrength)
	assert.Empty(t, result.Propagated)

	require.Len(t, f.reviewLog.reviews, 1)
	assert.Equal(t, entities.SubjectItem, f.reviewLog.reviews[0].SubjectKind)
}

func TestSubmitReviewItemErrors(t *testing.T) {
	f := newReviewFixture()
	ctx := context.Background()
	item := f.seedItem(t, "user-1")

	t.Run("invalid rating", func(t *testing.T) {
		_, err := f.svc.SubmitReview(ctx, "user-1", item.ID().String(), entities.SubjectItem, 0)
		assert.Error(t, err)
	})

	t.Run("unknown item", func(t *testing.T) {
		_, err := f.svc.SubmitReview(ctx, "user-1", "00000000-0000-0000-0000-00000000dead", entities.SubjectItem, 3)
		assert.Error(t, err)
	})

	t.Run("unknown subject kind", func(t *testing.T) {
		_, err := f.svc.SubmitReview(ctx, "user-1", item.ID().String(), entities.SubjectKind("deck"), 3)
		assert.Error(t, err)
	})

	t.Run("wrong owner", func(t *testing.T) {
		_, err := f.svc.SubmitReview(ctx, "user-2", item.ID().String(), entities.SubjectItem, 3)
		assert.Error(t, err)
	})
}

func TestSubmitReviewNodePropagates(t *testing.T) {
	f := newReviewFixture()
	ctx := context.Background()

	graph, reviewed := f.seedNode(t, "user-1", "Graphs")
	neighbor, err := entities.NewGraphNode("user-1", graph.ID().String(), "BFS", entities.NodeConcept)
	require.NoError(t, err)
	require.NoError(t, graph.AddNode(neighbor))
	_, err = graph.ConnectNodes(reviewed.ID(), neighbor.ID(), aggregates.RelRelated, 1.0)
	require.NoError(t, err)

	before := neighbor.Strength().Value()

	result, err := f.svc.SubmitReview(ctx, "user-1", reviewed.ID().String(), entities.SubjectNode, 5)
	require.NoError(t, err)

	require.NotNil(t, result.NewStrength)
	assert.InDelta(t, 0.7, *result.NewStrength, 1e-9) // 0.5 default + 0.2

	require.Len(t, result.Propagated, 1)
	assert.Equal(t, neighbor.ID().String(), result.Propagated[0].NodeID)
	assert.InDelta(t, 0.1, result.Propagated[0].StrengthDelta, 1e-9) // 0.2 * 0.5
	assert.InDelta(t, before+0.1, neighbor.Strength().Value(), 1e-9)

	// Direct node plus propagated neighbor were persisted.
	assert.Equal(t, 2, f.graphRepo.savedNodes)

	assert.Len(t, f.eventBus.byType(events.EventTypeReviewRecorded), 1)
	require.Len(t, f.reviewLog.reviews, 1)
	assert.Equal(t, entities.SubjectNode, f.reviewLog.reviews[0].SubjectKind)
}

func TestSubmitReviewNodeAsyncSkipsInlinePropagation(t *testing.T) {
	f := newReviewFixture()
	f.domainCfg.EnableAsyncPropagation = true
	ctx := context.Background()

	graph, reviewed := f.seedNode(t, "user-1", "Graphs")
	neighbor, err := entities.NewGraphNode("user-1", graph.ID().String(), "DFS", entities.NodeConcept)
	require.NoError(t, err)
	require.NoError(t, graph.AddNode(neighbor))
	_, err = graph.ConnectNodes(reviewed.ID(), neighbor.ID(), aggregates.RelRelated, 1.0)
	require.NoError(t, err)

	result, err := f.svc.SubmitReview(ctx, "user-1", reviewed.ID().String(), entities.SubjectNode, 5)
	require.NoError(t, err)

	// The worker picks up the published event instead.
	assert.Empty(t, result.Propagated)
	assert.Equal(t, 1, f.graphRepo.savedNodes)
	assert.Len(t, f.eventBus.byType(events.EventTypeReviewRecorded), 1)
}

func TestSubmitReviewNodeFailureLowersStrength(t *testing.T) {
	f := newReviewFixture()
	ctx := context.Background()

	_, reviewed := f.seedNode(t, "user-1", "Tries")

	result, err := f.svc.SubmitReview(ctx, "user-1", reviewed.ID().String(), entities.SubjectNode, 1)
	require.NoError(t, err)

	require.NotNil(t, result.NewStrength)
	assert.InDelta(t, 0.3, *result.NewStrength, 1e-9) // 0.5 default - 0.2
	assert.InDelta(t, 1, result.NextStability, 1e-9)  // failure resets to a day
}
