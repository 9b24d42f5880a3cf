package ir

// ProjectMetadata identifies the project an analysis run covers.
type ProjectMetadata struct {
	ProjectName    string      `json:"project_name"`
	ProjectVersion string      `json:"project_version"`
	ProjectPath    ProjectPath `json:"project_path"`
}

// NewProjectMetadata constructs a ProjectMetadata.
func NewProjectMetadata(name, version string, path ProjectPath) ProjectMetadata {
	return ProjectMetadata{
		ProjectName:    name,
		ProjectVersion: version,
		ProjectPath:    path,
	}
}

// AnalysisStats summarizes a completed analysis run.
type AnalysisStats struct {
	FactsTotal    uint64 `json:"facts_total"`
	FilesAnalyzed uint64 `json:"files_analyzed"`
	DurationMs    uint64 `json:"duration_ms"`
}

// CurrentSchemaVersion is the schema version produced by this package.
const CurrentSchemaVersion = "3.3.0"

// IntermediateRepresentation is the envelope carrying facts between
// extraction, storage, and rule evaluation.
type IntermediateRepresentation struct {
	SchemaVersion string          `json:"schema_version"`
	Metadata      ProjectMetadata `json:"metadata"`
	Facts         []Fact          `json:"facts"`
	Stats         AnalysisStats   `json:"stats"`
}

// NewIntermediateRepresentation constructs an IR envelope stamped with the
// current schema version.
func NewIntermediateRepresentation(metadata ProjectMetadata) IntermediateRepresentation {
	return IntermediateRepresentation{
		SchemaVersion: CurrentSchemaVersion,
		Metadata:      metadata,
		Facts:         nil,
		Stats:         AnalysisStats{},
	}
}

// AddFact appends a fact and keeps Stats.FactsTotal in sync.
func (r *IntermediateRepresentation) AddFact(f Fact) {
	r.Facts = append(r.Facts, f)
	r.Stats.FactsTotal = uint64(len(r.Facts))
}
