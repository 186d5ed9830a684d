package propagation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chainInput(delta float64, depth int) Input {
	// a - b - c in a line
	return Input{
		ReviewedNodeID: "a",
		RatingDelta:    delta,
		NodeIDs:        []string{"a", "b", "c"},
		Edges: []Edge{
			{ID: "e1", SourceID: "a", TargetID: "b", Weight: 1},
			{ID: "e2", SourceID: "b", TargetID: "c", Weight: 1},
		},
		Depth: depth,
	}
}

func deltaByNode(deltas []Delta) map[string]Delta {
	m := make(map[string]Delta, len(deltas))
	for _, d := range deltas {
		m[d.NodeID] = d
	}
	return m
}

func TestPropagateUnknownReviewedNode(t *testing.T) {
	_, err := Propagate(Input{
		ReviewedNodeID: "ghost",
		RatingDelta:    0.1,
		NodeIDs:        []string{"a"},
		Depth:          2,
	})
	assert.Error(t, err)
}

func TestPropagateDepthZero(t *testing.T) {
	deltas, err := Propagate(chainInput(0.1, 0))
	require.NoError(t, err)

	require.Len(t, deltas, 1)
	assert.Equal(t, "a", deltas[0].NodeID)
	assert.InDelta(t, 0.1, deltas[0].StrengthDelta, 1e-9)
	assert.Equal(t, 0, deltas[0].Hops)
}

func TestPropagateChain(t *testing.T) {
	deltas, err := Propagate(chainInput(0.2, 2))
	require.NoError(t, err)
	require.Len(t, deltas, 3)

	byNode := deltaByNode(deltas)
	assert.InDelta(t, 0.2, byNode["a"].StrengthDelta, 1e-9)
	assert.InDelta(t, 0.1, byNode["b"].StrengthDelta, 1e-9) // 0.2 * 0.5^1
	assert.InDelta(t, 0.05, byNode["c"].StrengthDelta, 1e-9) // 0.2 * 0.5^2
	assert.Equal(t, 1, byNode["b"].Hops)
	assert.Equal(t, 2, byNode["c"].Hops)
}

func TestPropagateDepthLimitsReach(t *testing.T) {
	deltas, err := Propagate(chainInput(0.2, 1))
	require.NoError(t, err)

	byNode := deltaByNode(deltas)
	assert.Contains(t, byNode, "b")
	assert.NotContains(t, byNode, "c")
}

func TestPropagateEdgeWeightScales(t *testing.T) {
	deltas, err := Propagate(Input{
		ReviewedNodeID: "a",
		RatingDelta:    0.2,
		NodeIDs:        []string{"a", "b"},
		Edges:          []Edge{{ID: "e1", SourceID: "a", TargetID: "b", Weight: 0.5}},
		Depth:          1,
	})
	require.NoError(t, err)

	byNode := deltaByNode(deltas)
	assert.InDelta(t, 0.05, byNode["b"].StrengthDelta, 1e-9) // 0.2 * 0.5 * 0.5
}

func TestPropagateIsUndirected(t *testing.T) {
	// The edge points at the reviewed node; influence still flows back.
	deltas, err := Propagate(Input{
		ReviewedNodeID: "a",
		RatingDelta:    0.2,
		NodeIDs:        []string{"a", "b"},
		Edges:          []Edge{{ID: "e1", SourceID: "b", TargetID: "a", Weight: 1}},
		Depth:          1,
	})
	require.NoError(t, err)

	byNode := deltaByNode(deltas)
	assert.InDelta(t, 0.1, byNode["b"].StrengthDelta, 1e-9)
}

func TestPropagateParallelEdgesSum(t *testing.T) {
	deltas, err := Propagate(Input{
		ReviewedNodeID: "a",
		RatingDelta:    0.2,
		NodeIDs:        []string{"a", "b"},
		Edges: []Edge{
			{ID: "e1", SourceID: "a", TargetID: "b", Weight: 1},
			{ID: "e2", SourceID: "a", TargetID: "b", Weight: 0.5},
		},
		Depth: 1,
	})
	require.NoError(t, err)

	byNode := deltaByNode(deltas)
	assert.InDelta(t, 0.15, byNode["b"].StrengthDelta, 1e-9) // 0.1 + 0.05
}

func TestPropagateEqualLengthPathsSum(t *testing.T) {
	// a - b - d and a - c - d: d receives both hop-2 contributions.
	deltas, err := Propagate(Input{
		ReviewedNodeID: "a",
		RatingDelta:    0.2,
		NodeIDs:        []string{"a", "b", "c", "d"},
		Edges: []Edge{
			{ID: "e1", SourceID: "a", TargetID: "b", Weight: 1},
			{ID: "e2", SourceID: "a", TargetID: "c", Weight: 1},
			{ID: "e3", SourceID: "b", TargetID: "d", Weight: 1},
			{ID: "e4", SourceID: "c", TargetID: "d", Weight: 1},
		},
		Depth: 2,
	})
	require.NoError(t, err)

	byNode := deltaByNode(deltas)
	assert.InDelta(t, 0.1, byNode["d"].StrengthDelta, 1e-9) // 0.05 + 0.05
	assert.Equal(t, 2, byNode["d"].Hops)
}

func TestPropagateCycleSafety(t *testing.T) {
	// Triangle a-b-c: each node is updated once, at its shortest distance.
	deltas, err := Propagate(Input{
		ReviewedNodeID: "a",
		RatingDelta:    0.2,
		NodeIDs:        []string{"a", "b", "c"},
		Edges: []Edge{
			{ID: "e1", SourceID: "a", TargetID: "b", Weight: 1},
			{ID: "e2", SourceID: "b", TargetID: "c", Weight: 1},
			{ID: "e3", SourceID: "c", TargetID: "a", Weight: 1},
		},
		Depth: 5,
	})
	require.NoError(t, err)
	require.Len(t, deltas, 3)

	byNode := deltaByNode(deltas)
	assert.Equal(t, 1, byNode["b"].Hops)
	assert.Equal(t, 1, byNode["c"].Hops)
	// Back-edges never re-touch the reviewed node.
	assert.Equal(t, 0, byNode["a"].Hops)
	assert.InDelta(t, 0.2, byNode["a"].StrengthDelta, 1e-9)
}

func TestPropagateSkipsSelfLoops(t *testing.T) {
	deltas, err := Propagate(Input{
		ReviewedNodeID: "a",
		RatingDelta:    0.2,
		NodeIDs:        []string{"a"},
		Edges:          []Edge{{ID: "e1", SourceID: "a", TargetID: "a", Weight: 1}},
		Depth:          3,
	})
	require.NoError(t, err)
	require.Len(t, deltas, 1)
	assert.InDelta(t, 0.2, deltas[0].StrengthDelta, 1e-9)
}

func TestPropagateNegativeDelta(t *testing.T) {
	deltas, err := Propagate(chainInput(-0.2, 1))
	require.NoError(t, err)

	byNode := deltaByNode(deltas)
	assert.InDelta(t, -0.1, byNode["b"].StrengthDelta, 1e-9)
}

func TestPropagateFrontierCap(t *testing.T) {
	// Star of four neighbors with a cap of two: only the first two in
	// sorted-id order are updated or expanded.
	deltas, err := Propagate(Input{
		ReviewedNodeID: "a",
		RatingDelta:    0.2,
		NodeIDs:        []string{"a", "b", "c", "d", "e"},
		Edges: []Edge{
			{ID: "e1", SourceID: "a", TargetID: "b", Weight: 1},
			{ID: "e2", SourceID: "a", TargetID: "c", Weight: 1},
			{ID: "e3", SourceID: "a", TargetID: "d", Weight: 1},
			{ID: "e4", SourceID: "a", TargetID: "e", Weight: 1},
		},
		Depth:       1,
		MaxFrontier: 2,
	})
	require.NoError(t, err)
	require.Len(t, deltas, 3)

	byNode := deltaByNode(deltas)
	assert.Contains(t, byNode, "b")
	assert.Contains(t, byNode, "c")
	assert.NotContains(t, byNode, "d")
	assert.NotContains(t, byNode, "e")
}

func TestPropagateDeterministicOrder(t *testing.T) {
	in := Input{
		ReviewedNodeID: "a",
		RatingDelta:    0.2,
		NodeIDs:        []string{"a", "z", "m", "b"},
		Edges: []Edge{
			{ID: "e1", SourceID: "a", TargetID: "z", Weight: 1},
			{ID: "e2", SourceID: "a", TargetID: "m", Weight: 1},
			{ID: "e3", SourceID: "a", TargetID: "b", Weight: 1},
		},
		Depth: 1,
	}

	first, err := Propagate(in)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := Propagate(in)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}

	// Within a hop level, output is sorted by node id.
	require.Len(t, first, 4)
	assert.Equal(t, []string{"a", "b", "m", "z"}, []string{
		first[0].NodeID, first[1].NodeID, first[2].NodeID, first[3].NodeID,
	})
}
