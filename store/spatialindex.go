package store

import (
	"github.com/dhconnelly/rtreego"

	"github.com/hodeiscan/hodeiscan/ir"
)

// spatialEntry is the rtreego.Spatial wrapper stored in the R-tree: the
// x-axis is the hash of the normalized file path, as a float64 (so
// distinct files overlap only when their hashes collide or round to the
// same float64), and the y-axis is the fact's line range, which makes a
// file+line-range query a single rectangle-intersection lookup.
type spatialEntry struct {
	factID ir.FactId
	rect   *rtreego.Rect
}

func (e *spatialEntry) Bounds() *rtreego.Rect {
	return e.rect
}

// rectEpsilon gives every rectangle a minimal positive extent on both
// axes: rtreego requires strictly positive side lengths, but a fact often
// spans a single line (or is a point lookup for an exact file), which
// would otherwise produce a zero-width rectangle.
const rectEpsilon = 1e-6

func locationRect(fileHash uint64, startLine, endLine uint32) *rtreego.Rect {
	x := float64(fileHash)
	y0 := float64(startLine)
	height := float64(endLine) - y0
	if height < rectEpsilon {
		height = rectEpsilon
	}
	rect, err := rtreego.NewRect(rtreego.Point{x, y0}, []float64{rectEpsilon, height})
	if err != nil {
		rect, _ = rtreego.NewRect(rtreego.Point{x, y0}, []float64{rectEpsilon, rectEpsilon})
	}
	return rect
}

// SpatialIndex answers file+line-range queries in O(log n + k) via an
// R-tree instead of a full scan over all facts.
type SpatialIndex struct {
	tree *rtreego.Rtree
}

// BuildSpatialIndex constructs a SpatialIndex over facts, bulk-inserting
// every fact's location as a rectangle.
func BuildSpatialIndex(facts []ir.Fact) *SpatialIndex {
	tree := rtreego.NewTree(2, 25, 50)
	for _, f := range facts {
		rect := locationRect(f.Location.File.Hash64(), uint32(f.Location.StartLine), uint32(f.Location.EndLine))
		tree.Insert(&spatialEntry{factID: f.ID, rect: rect})
	}
	return &SpatialIndex{tree: tree}
}

// Query returns the FactIds whose location overlaps [lineStart, lineEnd]
// in file.
func (idx *SpatialIndex) Query(file ir.ProjectPath, lineStart, lineEnd uint32) []ir.FactId {
	rect := locationRect(file.Hash64(), lineStart, lineEnd)
	results := idx.tree.SearchIntersect(rect)
	ids := make([]ir.FactId, 0, len(results))
	for _, r := range results {
		ids = append(ids, r.(*spatialEntry).factID)
	}
	return ids
}

// ByFile returns every FactId located in file, regardless of line range.
func (idx *SpatialIndex) ByFile(file ir.ProjectPath) []ir.FactId {
	return idx.Query(file, 0, ^uint32(0))
}

// Size returns the number of entries indexed.
func (idx *SpatialIndex) Size() int {
	return idx.tree.Size()
}
