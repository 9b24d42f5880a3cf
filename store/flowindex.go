package store

import (
	"github.com/dominikbraun/graph"

	"github.com/hodeiscan/hodeiscan/ir"
)

func factIDHash(id ir.FactId) ir.FactId { return id }

// FlowIndex tracks taint-flow relationships as a directed graph of facts.
// Nodes are facts with flow semantics (TaintSource, TaintSink,
// Sanitization); an edge connects two facts sharing a flow_id, directed
// source -> sanitizer(s) -> sink in that fixed order, mirroring how taint
// actually propagates through a flow regardless of the order facts were
// extracted in.
type FlowIndex struct {
	g            graph.Graph[ir.FactId, ir.FactId]
	flowToFacts  map[ir.FlowId][]ir.FactId
	hasFlowNode  map[ir.FactId]bool
}

type flowRole int

const (
	roleSource flowRole = iota
	roleSanitizer
	roleSink
)

// BuildFlowIndex constructs a FlowIndex over facts.
func BuildFlowIndex(facts []ir.Fact) *FlowIndex {
	g := graph.New(factIDHash, graph.Directed())
	idx := &FlowIndex{g: g, flowToFacts: make(map[ir.FlowId][]ir.FactId), hasFlowNode: make(map[ir.FactId]bool)}

	type flowMember struct {
		id   ir.FactId
		role flowRole
	}
	byFlow := make(map[ir.FlowId][]flowMember)

	for _, f := range facts {
		flowID, ok := f.FactType.FlowID()
		if !ok {
			continue
		}
		var role flowRole
		switch f.FactType.Kind {
		case ir.FactTypeTaintSource:
			role = roleSource
		case ir.FactTypeSanitization:
			role = roleSanitizer
		case ir.FactTypeTaintSink:
			role = roleSink
		default:
			continue
		}

		_ = g.AddVertex(f.ID)
		idx.hasFlowNode[f.ID] = true
		idx.flowToFacts[flowID] = append(idx.flowToFacts[flowID], f.ID)
		byFlow[flowID] = append(byFlow[flowID], flowMember{id: f.ID, role: role})
	}

	for _, members := range byFlow {
		var sources, sanitizers, sinks []ir.FactId
		for _, m := range members {
			switch m.role {
			case roleSource:
				sources = append(sources, m.id)
			case roleSanitizer:
				sanitizers = append(sanitizers, m.id)
			case roleSink:
				sinks = append(sinks, m.id)
			}
		}

		if len(sanitizers) == 0 {
			for _, s := range sources {
				for _, k := range sinks {
					_ = g.AddEdge(s, k)
				}
			}
			continue
		}
		for _, s := range sources {
			for _, san := range sanitizers {
				_ = g.AddEdge(s, san)
			}
		}
		for _, san := range sanitizers {
			for _, k := range sinks {
				_ = g.AddEdge(san, k)
			}
		}
	}

	return idx
}

// ReachableFrom returns every FactId reachable from factID by following
// flow edges, via breadth-first traversal. The starting fact is always
// included. An unknown or non-flow factID returns nil.
func (idx *FlowIndex) ReachableFrom(factID ir.FactId) []ir.FactId {
	if !idx.hasFlowNode[factID] {
		return nil
	}

	reached := []ir.FactId{factID}
	seen := map[ir.FactId]bool{factID: true}

	_ = graph.BFS(idx.g, factID, func(id ir.FactId) bool {
		if !seen[id] {
			seen[id] = true
			reached = append(reached, id)
		}
		return false
	})

	return reached
}

// ShortestPath returns the sequence of FactIds from 'from' to 'to'
// following flow edges, or nil if they are not connected.
func (idx *FlowIndex) ShortestPath(from, to ir.FactId) []ir.FactId {
	if !idx.hasFlowNode[from] || !idx.hasFlowNode[to] {
		return nil
	}
	path, err := graph.ShortestPath(idx.g, from, to)
	if err != nil {
		return nil
	}
	return path
}

// FactsForFlow returns every FactId sharing the given flow_id.
func (idx *FlowIndex) FactsForFlow(flowID ir.FlowId) []ir.FactId {
	return idx.flowToFacts[flowID]
}

// EdgeCount returns the number of edges in the flow graph, for
// diagnostics.
func (idx *FlowIndex) EdgeCount() int {
	am, err := idx.g.AdjacencyMap()
	if err != nil {
		return 0
	}
	count := 0
	for _, edges := range am {
		count += len(edges)
	}
	return count
}
