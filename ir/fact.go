package ir

// Fact is a single typed, located, provenance-stamped observation produced
// by an extractor or adapter.
type Fact struct {
	ID         FactId         `json:"id"`
	FactType   FactType       `json:"fact_type"`
	Location   SourceLocation `json:"location"`
	Provenance Provenance     `json:"provenance"`
}

// NewFact constructs a Fact, assigning it a fresh process-unique FactId.
func NewFact(factType FactType, location SourceLocation, provenance Provenance) Fact {
	return Fact{
		ID:         NewFactId(),
		FactType:   factType,
		Location:   location,
		Provenance: provenance,
	}
}

// Field resolves a dotted path segment against this fact: "location.*"
// and "provenance.*" reach into the envelope fields, anything else is
// delegated to the active FactType variant. This is the single place the
// rule engine's path resolution (e.g. `sink.location.file`) bottoms out,
// once the leading binding name has already been stripped by the caller.
func (f Fact) Field(name string) (FactValue, bool) {
	switch name {
	case "location.file":
		return NewStringValue(f.Location.File.String()), true
	case "location.start_line":
		return NewNumberValue(float64(f.Location.StartLine)), true
	case "location.end_line":
		return NewNumberValue(float64(f.Location.EndLine)), true
	case "provenance.extractor_id":
		return NewStringValue(f.Provenance.ExtractorID), true
	case "provenance.extractor_version":
		return NewStringValue(f.Provenance.ExtractorVersion), true
	case "provenance.confidence":
		return NewNumberValue(f.Provenance.Confidence.Get()), true
	default:
		return f.FactType.Field(name)
	}
}
