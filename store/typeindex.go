// Package store provides the IndexedFactStore: a fact set plus the
// specialized indexes (type, spatial, flow) that let the rule engine query
// it without a full scan.
package store

import "github.com/hodeiscan/hodeiscan/ir"

// TypeIndex maps a FactTypeKind to the FactIds carrying it. The closed
// built-in kinds are stored in a fixed-size ordinal-indexed array rather
// than a general hash map, since FactTypeKind is a small, dense enum;
// Custom facts, which carry an arbitrary string discriminant, fall back to
// a secondary hash map keyed by that discriminant.
type TypeIndex struct {
	builtin [ir.NumFactTypeKinds][]ir.FactId
	custom  map[string][]ir.FactId
}

// BuildTypeIndex constructs a TypeIndex over facts.
func BuildTypeIndex(facts []ir.Fact) *TypeIndex {
	idx := &TypeIndex{custom: make(map[string][]ir.FactId)}
	for _, f := range facts {
		idx.insert(f)
	}
	return idx
}

func (idx *TypeIndex) insert(f ir.Fact) {
	if f.FactType.Kind == ir.FactTypeCustom {
		disc, _ := f.FactType.Discriminant()
		idx.custom[disc] = append(idx.custom[disc], f.ID)
		return
	}
	idx.builtin[f.FactType.Kind] = append(idx.builtin[f.FactType.Kind], f.ID)
}

// ByKind returns the FactIds of the given built-in kind. Calling it with
// FactTypeCustom always returns nil; use ByDiscriminant instead.
func (idx *TypeIndex) ByKind(kind ir.FactTypeKind) []ir.FactId {
	if kind == ir.FactTypeCustom {
		return nil
	}
	return idx.builtin[kind]
}

// ByDiscriminant returns the FactIds of Custom facts carrying the given
// discriminant.
func (idx *TypeIndex) ByDiscriminant(discriminant string) []ir.FactId {
	return idx.custom[discriminant]
}

// CardinalityByKind returns the number of facts indexed under kind, used
// by the query planner to decide whether a type-index scan is worthwhile.
func (idx *TypeIndex) CardinalityByKind(kind ir.FactTypeKind) int {
	if kind == ir.FactTypeCustom {
		total := 0
		for _, ids := range idx.custom {
			total += len(ids)
		}
		return total
	}
	return len(idx.builtin[kind])
}
