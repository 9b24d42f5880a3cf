// Package sarif adapts SARIF v2.1.0 analyzer output into ir.Fact values.
// It is a pure ingestion adapter: bytes in, facts out, no I/O of its own.
package sarif

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hodeiscan/hodeiscan/ir"
)

// ExtractorID is the provenance.extractor_id stamped on every fact this
// adapter produces.
const ExtractorID = "SarifAdapter"

const extractorVersion = "1.0.0"

// MissingFieldError is returned (or, in lenient mode, logged and the
// offending result skipped) when a SARIF result is missing one of the
// mandatory fields: locations, physicalLocation, artifactLocation.uri,
// region.startLine, region.startColumn.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("sarif adapter: missing field %q", e.Field)
}

// ErrInvalidDocument is returned when the top-level document does not
// have the expected SARIF shape (no "runs" array).
var ErrInvalidDocument = errors.New("sarif adapter: invalid document: runs must be an array")

// Options configures Parse.
type Options struct {
	// Lenient, when true, skips a result that fails to parse (logging a
	// warning) instead of aborting the whole run. Per spec §4.4, a single
	// bad result only avoids aborting the run when lenient mode is
	// explicitly requested.
	Lenient bool

	// MaxResults, when non-nil, caps the number of facts produced; extra
	// results beyond the cap are not processed.
	MaxResults *int

	// Logger receives a Warn for every result skipped in lenient mode. A
	// nil Logger defaults to slog.Default().
	Logger *slog.Logger

	// Interner dedupes ProjectPath storage across the facts this call
	// produces. Pass the same Interner across every adapter call feeding
	// one analysis to dedupe across adapters too; a nil Interner gets a
	// private one scoped to this call, discarded when Parse returns.
	Interner *ir.Interner
}

type sarifDocument struct {
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Results []sarifResult `json:"results"`
}

type sarifResult struct {
	RuleID    *string       `json:"ruleId"`
	Level     *string       `json:"level"`
	Message   sarifMessage  `json:"message"`
	Locations []sarifLocation `json:"locations"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation *sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation *sarifArtifactLocation `json:"artifactLocation"`
	Region           *sarifRegion           `json:"region"`
}

type sarifArtifactLocation struct {
	URI *string `json:"uri"`
}

type sarifRegion struct {
	StartLine   *uint32 `json:"startLine"`
	StartColumn *uint32 `json:"startColumn"`
}

// Parse converts SARIF JSON into facts. Every run's results are
// processed in document order; the resulting facts preserve that order.
func Parse(data []byte, opts Options) ([]ir.Fact, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	interner := opts.Interner
	if interner == nil {
		interner = ir.NewInterner()
	}

	var doc sarifDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("sarif adapter: parsing document: %w", err)
	}
	if doc.Runs == nil {
		return nil, ErrInvalidDocument
	}

	var facts []ir.Fact
	for _, run := range doc.Runs {
		for _, result := range run.Results {
			if opts.MaxResults != nil && len(facts) >= *opts.MaxResults {
				return facts, nil
			}

			f, err := convertResult(result, interner)
			if err != nil {
				if opts.Lenient {
					logger.Warn("sarif adapter: skipping result", "error", err)
					continue
				}
				return nil, err
			}
			facts = append(facts, f)
		}
	}
	return facts, nil
}

func convertResult(r sarifResult, interner *ir.Interner) (ir.Fact, error) {
	if len(r.Locations) == 0 {
		return ir.Fact{}, &MissingFieldError{Field: "locations"}
	}
	phys := r.Locations[0].PhysicalLocation
	if phys == nil {
		return ir.Fact{}, &MissingFieldError{Field: "physicalLocation"}
	}
	if phys.ArtifactLocation == nil || phys.ArtifactLocation.URI == nil {
		return ir.Fact{}, &MissingFieldError{Field: "artifactLocation.uri"}
	}
	if phys.Region == nil || phys.Region.StartLine == nil {
		return ir.Fact{}, &MissingFieldError{Field: "region.startLine"}
	}
	if phys.Region.StartColumn == nil {
		return ir.Fact{}, &MissingFieldError{Field: "region.startColumn"}
	}

	line, err := ir.NewLineNumber(*phys.Region.StartLine)
	if err != nil {
		return ir.Fact{}, fmt.Errorf("sarif adapter: %w", err)
	}
	col, err := ir.NewColumnNumber(*phys.Region.StartColumn)
	if err != nil {
		return ir.Fact{}, fmt.Errorf("sarif adapter: %w", err)
	}

	path, _ := interner.Intern(*phys.ArtifactLocation.URI)
	loc, err := ir.NewSourceLocation(path, line, line, &col, &col)
	if err != nil {
		return ir.Fact{}, fmt.Errorf("sarif adapter: %w", err)
	}

	factType, provConfidence := mapLevel(r)
	prov, err := ir.NewProvenance(ExtractorID, extractorVersion, provConfidence)
	if err != nil {
		return ir.Fact{}, fmt.Errorf("sarif adapter: %w", err)
	}

	return ir.NewFact(factType, loc, prov), nil
}

// mapLevel maps a SARIF result's level to the FactType variant per spec
// §4.4: "error" -> Vulnerability{Critical}, "warning" -> CodeSmell{Major},
// anything else (including "note" and an absent level) ->
// Vulnerability{Minor}, per the §9 open-question decision.
func mapLevel(r sarifResult) (ir.FactType, ir.Confidence) {
	level := ""
	if r.Level != nil {
		level = *r.Level
	}
	msg := r.Message.Text
	if msg == "" {
		msg = "No message"
	}

	switch level {
	case "error":
		conf, _ := ir.NewConfidence(0.9)
		provConf, _ := ir.NewConfidence(0.8)
		return ir.NewVulnerability(ir.VulnerabilityData{
			CWEID:       r.RuleID,
			Severity:    ir.SeverityCritical,
			Description: msg,
			Confidence:  conf,
		}), provConf
	case "warning":
		provConf, _ := ir.NewConfidence(0.8)
		return ir.NewCodeSmell(ir.CodeSmellData{
			SmellType: "warning",
			Severity:  ir.SeverityMajor,
			Message:   msg,
		}), provConf
	default:
		conf, _ := ir.NewConfidence(0.5)
		provConf, _ := ir.NewConfidence(0.8)
		return ir.NewVulnerability(ir.VulnerabilityData{
			CWEID:       r.RuleID,
			Severity:    ir.SeverityMinor,
			Description: msg,
			Confidence:  conf,
		}), provConf
	}
}
