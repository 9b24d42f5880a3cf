package store

import "github.com/hodeiscan/hodeiscan/ir"

// QueryPlanKind discriminates the strategy a QueryPlan chose.
type QueryPlanKind int

const (
	// PlanFullScan walks every fact; chosen only when no narrower index
	// applies.
	PlanFullScan QueryPlanKind = iota
	// PlanTypeIndexScan resolves via TypeIndex.
	PlanTypeIndexScan
	// PlanSpatialQuery resolves via SpatialIndex.
	PlanSpatialQuery
	// PlanFlowQuery resolves via FlowIndex.
	PlanFlowQuery
)

// QueryPlan is the execution strategy chosen for a query against an
// IndexedFactStore.
type QueryPlan struct {
	Kind QueryPlanKind

	// Populated for PlanTypeIndexScan.
	FactTypeKind        ir.FactTypeKind
	CustomDiscriminant  string

	// Populated for PlanSpatialQuery.
	File               ir.ProjectPath
	LineStart, LineEnd uint32

	// Populated for PlanFlowQuery.
	FlowID ir.FlowId
}

// IndexStats summarizes an IndexedFactStore for planning purposes.
type IndexStats struct {
	TotalFacts       int
	CardinalityByKind [ir.NumFactTypeKinds]int
}

// ComputeIndexStats derives IndexStats from an already-built TypeIndex.
func ComputeIndexStats(totalFacts int, typeIndex *TypeIndex) IndexStats {
	stats := IndexStats{TotalFacts: totalFacts}
	for k := 0; k < ir.NumFactTypeKinds; k++ {
		stats.CardinalityByKind[k] = typeIndex.CardinalityByKind(ir.FactTypeKind(k))
	}
	return stats
}

// Cardinality returns how many facts are indexed under kind.
func (s IndexStats) Cardinality(kind ir.FactTypeKind) int {
	return s.CardinalityByKind[kind]
}

// PlanTypeQuery builds the plan for a by-type lookup. It always prefers
// the type index over a full scan: TypeIndex lookups are O(1) regardless
// of cardinality, so there is never a reason to fall back to FullScan for
// this query shape.
func PlanTypeQuery(kind ir.FactTypeKind) QueryPlan {
	return QueryPlan{Kind: PlanTypeIndexScan, FactTypeKind: kind}
}

// PlanCustomTypeQuery builds the plan for a by-discriminant lookup against
// Custom facts.
func PlanCustomTypeQuery(discriminant string) QueryPlan {
	return QueryPlan{Kind: PlanTypeIndexScan, FactTypeKind: ir.FactTypeCustom, CustomDiscriminant: discriminant}
}

// PlanLocationQuery builds the plan for a by-location lookup.
func PlanLocationQuery(file ir.ProjectPath, lineStart, lineEnd uint32) QueryPlan {
	return QueryPlan{Kind: PlanSpatialQuery, File: file, LineStart: lineStart, LineEnd: lineEnd}
}

// PlanFlowQueryFor builds the plan for a by-flow lookup.
func PlanFlowQueryFor(flowID ir.FlowId) QueryPlan {
	return QueryPlan{Kind: PlanFlowQuery, FlowID: flowID}
}

// LocationConstraint is a location-based restriction extracted from a
// pattern's conditions: the conditions pin the fact's file, optionally
// narrowed to a line range.
type LocationConstraint struct {
	File               ir.ProjectPath
	LineStart, LineEnd uint32
}

// Plan selects an execution strategy for one pattern's initial candidate
// fetch. kind/customDiscriminant describe the type-index scan that always
// applies to the pattern's discriminant; loc and flowID are non-nil when
// the pattern's conditions carry a location or flow constraint
// respectively. A location constraint prefers the spatial index and a
// flow constraint prefers the flow index over a type-index scan, since
// both resolve directly to the narrower candidate set the constraint
// already implies; absent either, the type-index scan is chosen over a
// full scan whenever its cardinality is no larger than the total fact
// count, which holds unconditionally (a type index never holds more
// facts than the store it was built from).
func Plan(kind ir.FactTypeKind, customDiscriminant string, loc *LocationConstraint, flowID *ir.FlowId, stats IndexStats) QueryPlan {
	switch {
	case loc != nil:
		return PlanLocationQuery(loc.File, loc.LineStart, loc.LineEnd)
	case flowID != nil:
		return PlanFlowQueryFor(*flowID)
	case stats.Cardinality(kind) <= stats.TotalFacts:
		if kind == ir.FactTypeCustom {
			return PlanCustomTypeQuery(customDiscriminant)
		}
		return PlanTypeQuery(kind)
	default:
		return QueryPlan{Kind: PlanFullScan}
	}
}
