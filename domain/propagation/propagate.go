package propagation

import (
	"math"
	"sort"

	pkgerrors "recall-backend/pkg/errors"
)

// Edge is the minimal edge view the engine traverses. Direction is
// ignored on purpose: propagation models related-knowledge reinforcement,
// not prerequisite ordering.
type Edge struct {
	ID       string
	SourceID string
	TargetID string
	Weight   float64 // 0-1 multiplier
}

// Delta is a strength adjustment for one node
type Delta struct {
	NodeID        string  `json:"node_id"`
	StrengthDelta float64 `json:"strength_delta"`
	Hops          int     `json:"hops"`
}

// Input is a snapshot of the graph plus the review being propagated.
// MaxFrontier caps how many nodes any one hop may update; zero means
// unlimited. Overflow nodes are dropped from that level in sorted-id
// order, so the cap is deterministic.
type Input struct {
	ReviewedNodeID string
	RatingDelta    float64
	NodeIDs        []string
	Edges          []Edge
	Depth          int
	MaxFrontier    int
}

// decay attenuates influence geometrically: each hop halves it
func decay(hops int) float64 {
	return math.Pow(0.5, float64(hops))
}

// Propagate spreads a review's strength delta outward from the reviewed
// node using an iterative breadth-first traversal.
//
// At hop d a neighbor receives ratingDelta * edge.Weight * 0.5^d; multiple
// equal-length paths sum their contributions. A node is only ever updated
// at its first (shortest) hop distance - the per-level visited set keeps
// cycles and back-edges from double counting or looping. Depth <= 0
// returns the reviewed node's own delta only. Self-loops are skipped.
func Propagate(in Input) ([]Delta, error) {
	known := make(map[string]bool, len(in.NodeIDs))
	for _, id := range in.NodeIDs {
		known[id] = true
	}
	if !known[in.ReviewedNodeID] {
		return nil, pkgerrors.NewUnknownSubjectError(in.ReviewedNodeID)
	}

	deltas := []Delta{{
		NodeID:        in.ReviewedNodeID,
		StrengthDelta: in.RatingDelta,
		Hops:          0,
	}}

	if in.Depth <= 0 {
		return deltas, nil
	}

	// Undirected adjacency; the graph is a multigraph so parallel edges
	// each contribute.
	adjacency := make(map[string][]Edge)
	for _, e := range in.Edges {
		if e.SourceID == e.TargetID {
			continue
		}
		if !known[e.SourceID] || !known[e.TargetID] {
			continue
		}
		adjacency[e.SourceID] = append(adjacency[e.SourceID], e)
		adjacency[e.TargetID] = append(adjacency[e.TargetID], Edge{
			ID:       e.ID,
			SourceID: e.TargetID,
			TargetID: e.SourceID,
			Weight:   e.Weight,
		})
	}

	visited := map[string]bool{in.ReviewedNodeID: true}
	frontier := []string{in.ReviewedNodeID}

	for hop := 1; hop <= in.Depth && len(frontier) > 0; hop++ {
		contributions := make(map[string]float64)

		for _, nodeID := range frontier {
			for _, edge := range adjacency[nodeID] {
				if visited[edge.TargetID] {
					continue
				}
				contributions[edge.TargetID] += in.RatingDelta * edge.Weight * decay(hop)
			}
		}

		next := make([]string, 0, len(contributions))
		for nodeID := range contributions {
			next = append(next, nodeID)
		}
		sort.Strings(next)
		if in.MaxFrontier > 0 && len(next) > in.MaxFrontier {
			next = next[:in.MaxFrontier]
		}

		for _, nodeID := range next {
			visited[nodeID] = true
			deltas = append(deltas, Delta{
				NodeID:        nodeID,
				StrengthDelta: contributions[nodeID],
				Hops:          hop,
			})
		}
		frontier = next
	}

	return deltas, nil
}
