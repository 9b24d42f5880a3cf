package store

import "github.com/hodeiscan/hodeiscan/ir"

// IndexedFactStore owns a fact set and the type, spatial, and flow indexes
// built over it. Indexes are built once, eagerly, at construction time;
// the store is read-only thereafter, which keeps every index trivially
// consistent with the fact set it was built from (no incremental
// maintenance to get wrong).
type IndexedFactStore struct {
	facts        map[ir.FactId]ir.Fact
	ordered      []ir.FactId
	typeIndex    *TypeIndex
	spatialIndex *SpatialIndex
	flowIndex    *FlowIndex
	stats        IndexStats
}

// New builds an IndexedFactStore from facts, constructing all three
// indexes. Facts are expected to already satisfy the id-uniqueness
// invariant from ir.Fact; a later fact with a repeated id overwrites the
// earlier one in by-id lookups, though both still appear in the indexes
// built from the raw slice.
func New(facts []ir.Fact) *IndexedFactStore {
	factsByID := make(map[ir.FactId]ir.Fact, len(facts))
	ordered := make([]ir.FactId, 0, len(facts))
	for _, f := range facts {
		if _, exists := factsByID[f.ID]; !exists {
			ordered = append(ordered, f.ID)
		}
		factsByID[f.ID] = f
	}

	typeIndex := BuildTypeIndex(facts)
	spatialIndex := BuildSpatialIndex(facts)
	flowIndex := BuildFlowIndex(facts)
	stats := ComputeIndexStats(len(facts), typeIndex)

	return &IndexedFactStore{
		facts:        factsByID,
		ordered:      ordered,
		typeIndex:    typeIndex,
		spatialIndex: spatialIndex,
		flowIndex:    flowIndex,
		stats:        stats,
	}
}

func (s *IndexedFactStore) resolve(ids []ir.FactId) []ir.Fact {
	out := make([]ir.Fact, 0, len(ids))
	for _, id := range ids {
		if f, ok := s.facts[id]; ok {
			out = append(out, f)
		}
	}
	return out
}

// ByKind returns every fact of a given built-in FactTypeKind.
func (s *IndexedFactStore) ByKind(kind ir.FactTypeKind) []ir.Fact {
	return s.resolve(s.typeIndex.ByKind(kind))
}

// ByDiscriminant returns every Custom fact carrying the given
// discriminant.
func (s *IndexedFactStore) ByDiscriminant(discriminant string) []ir.Fact {
	return s.resolve(s.typeIndex.ByDiscriminant(discriminant))
}

// ByLocation returns every fact whose location overlaps [lineStart,
// lineEnd] in file.
func (s *IndexedFactStore) ByLocation(file ir.ProjectPath, lineStart, lineEnd uint32) []ir.Fact {
	return s.resolve(s.spatialIndex.Query(file, lineStart, lineEnd))
}

// ByFile returns every fact located in file.
func (s *IndexedFactStore) ByFile(file ir.ProjectPath) []ir.Fact {
	return s.resolve(s.spatialIndex.ByFile(file))
}

// ByFlow returns every fact sharing the given flow_id.
func (s *IndexedFactStore) ByFlow(flowID ir.FlowId) []ir.Fact {
	return s.resolve(s.flowIndex.FactsForFlow(flowID))
}

// ReachableFrom returns every fact reachable from factID along flow
// edges.
func (s *IndexedFactStore) ReachableFrom(factID ir.FactId) []ir.Fact {
	return s.resolve(s.flowIndex.ReachableFrom(factID))
}

// ShortestPath returns the facts along the shortest flow path from
// `from` to `to`, or nil if there is none.
func (s *IndexedFactStore) ShortestPath(from, to ir.FactId) []ir.Fact {
	ids := s.flowIndex.ShortestPath(from, to)
	if ids == nil {
		return nil
	}
	return s.resolve(ids)
}

// All returns every fact in the store, in insertion order.
func (s *IndexedFactStore) All() []ir.Fact {
	return s.resolve(s.ordered)
}

// Get returns a single fact by id.
func (s *IndexedFactStore) Get(id ir.FactId) (ir.Fact, bool) {
	f, ok := s.facts[id]
	return f, ok
}

// Count returns the total number of distinct facts in the store.
func (s *IndexedFactStore) Count() int {
	return len(s.facts)
}

// Stats returns the IndexStats computed at construction time, for use by
// a query planner.
func (s *IndexedFactStore) Stats() IndexStats {
	return s.stats
}

// Execute runs a QueryPlan against the store.
func (s *IndexedFactStore) Execute(plan QueryPlan) []ir.Fact {
	switch plan.Kind {
	case PlanTypeIndexScan:
		if plan.FactTypeKind == ir.FactTypeCustom {
			return s.ByDiscriminant(plan.CustomDiscriminant)
		}
		return s.ByKind(plan.FactTypeKind)
	case PlanSpatialQuery:
		return s.ByLocation(plan.File, plan.LineStart, plan.LineEnd)
	case PlanFlowQuery:
		return s.ByFlow(plan.FlowID)
	default:
		return s.All()
	}
}
