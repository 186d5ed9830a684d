package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	domainconfig "recall-backend/domain/config"
	pkgerrors "recall-backend/pkg/errors"
)

type graphFixture struct {
	svc       *GraphService
	graphRepo *fakeGraphRepo
	eventBus  *fakeEventBus
	domainCfg *domainconfig.DomainConfig
}

func newGraphFixture() *graphFixture {
	graphRepo := newFakeGraphRepo()
	eventBus := &fakeEventBus{}
	domainCfg := domainconfig.DefaultDomainConfig()

	svc := NewGraphService(graphRepo, eventBus, domainCfg, zap.NewNop())
	return &graphFixture{svc: svc, graphRepo: graphRepo, eventBus: eventBus, domainCfg: domainCfg}
}

func floatPtr(v float64) *float64 { return &v }

func TestCreateNodeEnforcesLimits(t *testing.T) {
	ctx := context.Background()

	t.Run("overlong title rejected", func(t *testing.T) {
		f := newGraphFixture()
		_, err := f.svc.CreateNode(ctx, "user-1", strings.Repeat("x", 201), "concept")
		require.Error(t, err)
		appErr := pkgerrors.GetAppError(err)
		require.NotNil(t, appErr)
		assert.Equal(t, pkgerrors.ErrorTypeValidation, appErr.Type)
	})

	t.Run("node cap rejected", func(t *testing.T) {
		f := newGraphFixture()
		f.domainCfg.MaxNodesPerGraph = 1

		_, err := f.svc.CreateNode(ctx, "user-1", "Graphs", "concept")
		require.NoError(t, err)

		_, err = f.svc.CreateNode(ctx, "user-1", "Trees", "concept")
		assert.Error(t, err)
	})
}

func TestConnectNodesWeight(t *testing.T) {
	ctx := context.Background()
	f := newGraphFixture()

	a, err := f.svc.CreateNode(ctx, "user-1", "BFS", "concept")
	require.NoError(t, err)
	b, err := f.svc.CreateNode(ctx, "user-1", "DFS", "concept")
	require.NoError(t, err)

	t.Run("missing weight takes the configured default", func(t *testing.T) {
		edge, err := f.svc.ConnectNodes(ctx, "user-1", a.NodeID, b.NodeID, "related", nil)
		require.NoError(t, err)
		assert.Equal(t, f.domainCfg.DefaultEdgeWeight, edge.Weight)
	})

	t.Run("explicit zero weight is kept", func(t *testing.T) {
		edge, err := f.svc.ConnectNodes(ctx, "user-1", a.NodeID, b.NodeID, "related", floatPtr(0))
		require.NoError(t, err)
		assert.Zero(t, edge.Weight)
	})

	t.Run("edge cap rejected", func(t *testing.T) {
		f.domainCfg.MaxEdgesPerGraph = 2
		_, err := f.svc.ConnectNodes(ctx, "user-1", a.NodeID, b.NodeID, "related", nil)
		assert.Error(t, err)
	})
}

func TestConnectNodesDuplicatePolicy(t *testing.T) {
	ctx := context.Background()
	f := newGraphFixture()
	f.domainCfg.AllowDuplicateEdges = false

	a, err := f.svc.CreateNode(ctx, "user-1", "Heaps", "concept")
	require.NoError(t, err)
	b, err := f.svc.CreateNode(ctx, "user-1", "Priority Queues", "concept")
	require.NoError(t, err)

	_, err = f.svc.ConnectNodes(ctx, "user-1", a.NodeID, b.NodeID, "related", nil)
	require.NoError(t, err)

	// Both directions count as the same connection.
	_, err = f.svc.ConnectNodes(ctx, "user-1", a.NodeID, b.NodeID, "prerequisite", nil)
	assert.Error(t, err)
	_, err = f.svc.ConnectNodes(ctx, "user-1", b.NodeID, a.NodeID, "related", nil)
	assert.Error(t, err)
}

func TestRemoveEdge(t *testing.T) {
	ctx := context.Background()
	f := newGraphFixture()

	a, err := f.svc.CreateNode(ctx, "user-1", "Sorting", "concept")
	require.NoError(t, err)
	b, err := f.svc.CreateNode(ctx, "user-1", "Merge Sort", "concept")
	require.NoError(t, err)
	edge, err := f.svc.ConnectNodes(ctx, "user-1", a.NodeID, b.NodeID, "related", nil)
	require.NoError(t, err)

	require.NoError(t, f.svc.RemoveEdge(ctx, "user-1", edge.EdgeID))

	graph, err := f.graphRepo.GetOrCreateDefaultGraph(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 0, graph.EdgeCount())
	assert.Equal(t, []string{edge.EdgeID}, f.graphRepo.deletedEdges)

	t.Run("unknown edge rejected", func(t *testing.T) {
		assert.Error(t, f.svc.RemoveEdge(ctx, "user-1", "no-such-edge"))
	})
}
