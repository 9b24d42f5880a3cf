// Package ir defines the Intermediate Representation: the typed, located,
// provenance-stamped facts produced by extractors and adapters, plus the
// envelope that carries them between pipeline stages.
package ir

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// FactId is an opaque, process-unique identifier for a Fact. It has no
// semantic ordering of its own, but implements a total order so that
// iteration over a fact set can be made deterministic.
type FactId uint64

// factIdCounter backs NewFactId. Facts are process-unique, not globally
// unique, so a simple atomic counter is sufficient and avoids the
// allocation cost of a UUID per fact in hot extraction loops.
var factIdCounter uint64

// NewFactId returns the next process-unique FactId.
func NewFactId() FactId {
	return FactId(atomic.AddUint64(&factIdCounter, 1))
}

// Less provides a total order over FactIds for deterministic iteration.
func (id FactId) Less(other FactId) bool {
	return id < other
}

// FlowId identifies a taint flow shared between a TaintSource, any
// Sanitization steps, and a TaintSink.
type FlowId uuid.UUID

// NewFlowId returns a new random FlowId.
func NewFlowId() FlowId {
	return FlowId(uuid.New())
}

// String renders the FlowId in canonical UUID form.
func (f FlowId) String() string {
	return uuid.UUID(f).String()
}

// MarshalText implements encoding.TextMarshaler so FlowId round-trips
// through JSON as a UUID string rather than a byte array.
func (f FlowId) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *FlowId) UnmarshalText(text []byte) error {
	u, err := uuid.Parse(string(text))
	if err != nil {
		return err
	}
	*f = FlowId(u)
	return nil
}
