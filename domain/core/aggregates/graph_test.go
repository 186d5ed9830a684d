package aggregates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recall-backend/domain/core/entities"
	"recall-backend/domain/core/valueobjects"
)

func newTestGraph(t *testing.T) *Graph {
	t.Helper()
	graph, err := NewGraph("user-1", "Knowledge Graph")
	require.NoError(t, err)
	return graph
}

func addTestNode(t *testing.T, graph *Graph, title string) *entities.GraphNode {
	t.Helper()
	node, err := entities.NewGraphNode("user-1", "", title, entities.NodeConcept)
	require.NoError(t, err)
	require.NoError(t, graph.AddNode(node))
	return node
}

func TestNewGraphValidation(t *testing.T) {
	_, err := NewGraph("", "name")
	assert.Error(t, err)

	_, err = NewGraph("user-1", "")
	assert.Error(t, err)
}

func TestGraphAddNode(t *testing.T) {
	graph := newTestGraph(t)
	node := addTestNode(t, graph, "Binary Search")

	assert.Equal(t, 1, graph.NodeCount())
	assert.Equal(t, graph.ID().String(), node.GraphID())

	t.Run("duplicate node rejected", func(t *testing.T) {
		assert.Error(t, graph.AddNode(node))
	})

	t.Run("nil node rejected", func(t *testing.T) {
		assert.Error(t, graph.AddNode(nil))
	})

	t.Run("lookup", func(t *testing.T) {
		got, err := graph.GetNode(node.ID())
		require.NoError(t, err)
		assert.Equal(t, node, got)

		_, err = graph.GetNode(valueobjects.NewNodeID())
		assert.Error(t, err)
	})
}

func TestGraphConnectNodes(t *testing.T) {
	graph := newTestGraph(t)
	a := addTestNode(t, graph, "Arrays")
	b := addTestNode(t, graph, "Binary Search")

	t.Run("valid edge", func(t *testing.T) {
		edge, err := graph.ConnectNodes(a.ID(), b.ID(), RelPrerequisite, 0.8)
		require.NoError(t, err)
		assert.Equal(t, a.ID(), edge.SourceID)
		assert.Equal(t, b.ID(), edge.TargetID)
		assert.Equal(t, 1, graph.EdgeCount())
	})

	t.Run("self-loop rejected", func(t *testing.T) {
		_, err := graph.ConnectNodes(a.ID(), a.ID(), RelRelated, 0.5)
		assert.Error(t, err)
	})

	t.Run("unknown endpoint rejected", func(t *testing.T) {
		_, err := graph.ConnectNodes(a.ID(), valueobjects.NewNodeID(), RelRelated, 0.5)
		assert.Error(t, err)
	})

	t.Run("invalid relationship rejected", func(t *testing.T) {
		_, err := graph.ConnectNodes(a.ID(), b.ID(), RelationshipType("friends"), 0.5)
		assert.Error(t, err)
	})

	t.Run("out of range weight rejected", func(t *testing.T) {
		_, err := graph.ConnectNodes(a.ID(), b.ID(), RelRelated, 1.5)
		assert.Error(t, err)
		_, err = graph.ConnectNodes(a.ID(), b.ID(), RelRelated, -0.1)
		assert.Error(t, err)
	})

	t.Run("parallel edges allowed", func(t *testing.T) {
		before := graph.EdgeCount()
		_, err := graph.ConnectNodes(a.ID(), b.ID(), RelPrerequisite, 0.8)
		require.NoError(t, err)
		_, err = graph.ConnectNodes(a.ID(), b.ID(), RelRelated, 0.3)
		require.NoError(t, err)
		assert.Equal(t, before+2, graph.EdgeCount())
	})
}

func TestGraphRemoveEdge(t *testing.T) {
	graph := newTestGraph(t)
	a := addTestNode(t, graph, "A")
	b := addTestNode(t, graph, "B")

	kept, err := graph.ConnectNodes(a.ID(), b.ID(), RelRelated, 0.5)
	require.NoError(t, err)
	removed, err := graph.ConnectNodes(a.ID(), b.ID(), RelPrerequisite, 0.8)
	require.NoError(t, err)

	require.NoError(t, graph.RemoveEdge(removed.ID))

	// Only the targeted edge goes; its parallel sibling and both
	// endpoints survive.
	assert.Equal(t, 1, graph.EdgeCount())
	assert.Equal(t, kept.ID, graph.Edges()[0].ID)
	assert.Equal(t, 2, graph.NodeCount())

	t.Run("unknown edge rejected", func(t *testing.T) {
		assert.Error(t, graph.RemoveEdge("no-such-edge"))
	})
}

func TestGraphRemoveNodeCascadesEdges(t *testing.T) {
	graph := newTestGraph(t)
	a := addTestNode(t, graph, "A")
	b := addTestNode(t, graph, "B")
	c := addTestNode(t, graph, "C")

	_, err := graph.ConnectNodes(a.ID(), b.ID(), RelRelated, 0.5)
	require.NoError(t, err)
	_, err = graph.ConnectNodes(b.ID(), c.ID(), RelRelated, 0.5)
	require.NoError(t, err)
	_, err = graph.ConnectNodes(a.ID(), c.ID(), RelRelated, 0.5)
	require.NoError(t, err)

	require.NoError(t, graph.RemoveNode(b.ID()))

	assert.Equal(t, 2, graph.NodeCount())
	assert.Equal(t, 1, graph.EdgeCount()) // only a-c survives
	for _, edge := range graph.Edges() {
		assert.False(t, edge.SourceID.Equals(b.ID()))
		assert.False(t, edge.TargetID.Equals(b.ID()))
	}

	t.Run("unknown node rejected", func(t *testing.T) {
		assert.Error(t, graph.RemoveNode(valueobjects.NewNodeID()))
	})
}

func TestGraphNeighborEdges(t *testing.T) {
	graph := newTestGraph(t)
	a := addTestNode(t, graph, "A")
	b := addTestNode(t, graph, "B")
	c := addTestNode(t, graph, "C")

	_, err := graph.ConnectNodes(a.ID(), b.ID(), RelRelated, 0.5)
	require.NoError(t, err)
	_, err = graph.ConnectNodes(c.ID(), a.ID(), RelRelated, 0.5)
	require.NoError(t, err)

	assert.Len(t, graph.NeighborEdges(a.ID()), 2)
	assert.Len(t, graph.NeighborEdges(b.ID()), 1)
}

func TestGraphComponentCount(t *testing.T) {
	graph := newTestGraph(t)
	assert.Equal(t, 0, graph.ComponentCount())

	a := addTestNode(t, graph, "A")
	b := addTestNode(t, graph, "B")
	c := addTestNode(t, graph, "C")
	assert.Equal(t, 3, graph.ComponentCount())

	_, err := graph.ConnectNodes(a.ID(), b.ID(), RelRelated, 0.5)
	require.NoError(t, err)
	assert.Equal(t, 2, graph.ComponentCount())

	_, err = graph.ConnectNodes(b.ID(), c.ID(), RelRelated, 0.5)
	require.NoError(t, err)
	assert.Equal(t, 1, graph.ComponentCount())

	// Removing the bridge splits the graph again.
	require.NoError(t, graph.RemoveNode(b.ID()))
	assert.Equal(t, 2, graph.ComponentCount())
}

func TestGraphEvents(t *testing.T) {
	graph := newTestGraph(t)
	a := addTestNode(t, graph, "A")
	b := addTestNode(t, graph, "B")

	_, err := graph.ConnectNodes(a.ID(), b.ID(), RelRelated, 0.5)
	require.NoError(t, err)
	require.NoError(t, graph.RemoveNode(b.ID()))

	assert.Len(t, graph.GetUncommittedEvents(), 2)
	graph.MarkEventsAsCommitted()
	assert.Empty(t, graph.GetUncommittedEvents())
}
