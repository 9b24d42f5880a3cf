// Package linter adapts a flat JSON array of linter findings into
// ir.Fact values.
package linter

import (
	"encoding/json"
	"fmt"

	"github.com/hodeiscan/hodeiscan/ir"
)

// ExtractorID is the provenance.extractor_id stamped on every fact this
// adapter produces.
const ExtractorID = "LinterAdapter"

const extractorVersion = "1.0.0"

// record is a single entry in the flat linter JSON array.
type record struct {
	Filename string `json:"filename"`
	Code     string `json:"code"`
	Rule     string `json:"rule"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
	Line     uint32 `json:"line"`
	Column   uint32 `json:"column"`
}

// Parse converts a flat JSON array of `{filename, code, rule, message,
// severity, line, column}` records into facts. Paths are resolved
// against projectRoot and normalized the same way as every other
// ProjectPath in the system; a relative projectRoot is treated as
// already-relative (the caller is expected to pass a root meaningful to
// its own filesystem, this adapter does no filesystem access). interner
// dedupes ProjectPath storage across the facts this call produces, and
// across any other adapter call fed the same Interner for one analysis;
// a nil interner gets a private one scoped to this call.
func Parse(data []byte, projectRoot string, interner *ir.Interner) ([]ir.Fact, error) {
	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("linter adapter: parsing document: %w", err)
	}
	if interner == nil {
		interner = ir.NewInterner()
	}

	facts := make([]ir.Fact, 0, len(records))
	for i, rec := range records {
		f, err := convertRecord(rec, projectRoot, interner)
		if err != nil {
			return nil, fmt.Errorf("linter adapter: record %d: %w", i, err)
		}
		facts = append(facts, f)
	}
	return facts, nil
}

func convertRecord(rec record, projectRoot string, interner *ir.Interner) (ir.Fact, error) {
	line, err := ir.NewLineNumber(rec.Line)
	if err != nil {
		return ir.Fact{}, fmt.Errorf("line: %w", err)
	}
	col, err := ir.NewColumnNumber(rec.Column)
	if err != nil {
		return ir.Fact{}, fmt.Errorf("column: %w", err)
	}

	resolved := resolveAgainstRoot(projectRoot, rec.Filename)
	path, _ := interner.Intern(resolved)
	loc, err := ir.NewSourceLocation(path, line, line, &col, &col)
	if err != nil {
		return ir.Fact{}, err
	}

	factType, confidence := mapSeverity(rec)
	prov, err := ir.NewProvenance(ExtractorID, extractorVersion, confidence)
	if err != nil {
		return ir.Fact{}, err
	}

	return ir.NewFact(factType, loc, prov), nil
}

// resolveAgainstRoot prefixes filename with projectRoot and a slash
// whenever projectRoot is non-empty; it does not check whether filename
// already starts with projectRoot. ir.NewProjectPath performs the actual
// normalization (removing ".", resolving ".." without escaping).
func resolveAgainstRoot(projectRoot, filename string) string {
	if projectRoot == "" {
		return filename
	}
	return projectRoot + "/" + filename
}

// mapSeverity maps a linter record's severity string to a FactType
// variant, mirroring the SARIF adapter's level mapping per spec §4.4:
// "error" -> Vulnerability{Critical}, "warning" -> CodeSmell{Major},
// "info" (or anything else) -> Vulnerability{Minor}.
func mapSeverity(rec record) (ir.FactType, ir.Confidence) {
	switch rec.Severity {
	case "error":
		conf, _ := ir.NewConfidence(0.9)
		provConf, _ := ir.NewConfidence(0.8)
		cwe := rec.Code
		return ir.NewVulnerability(ir.VulnerabilityData{
			CWEID:       &cwe,
			Severity:    ir.SeverityCritical,
			Description: describeLinterFact(rec),
			Confidence:  conf,
		}), provConf
	case "warning":
		provConf, _ := ir.NewConfidence(0.8)
		return ir.NewCodeSmell(ir.CodeSmellData{
			SmellType: rec.Rule,
			Severity:  ir.SeverityMajor,
			Message:   describeLinterFact(rec),
		}), provConf
	default:
		conf, _ := ir.NewConfidence(0.5)
		provConf, _ := ir.NewConfidence(0.8)
		cwe := rec.Code
		return ir.NewVulnerability(ir.VulnerabilityData{
			CWEID:       &cwe,
			Severity:    ir.SeverityMinor,
			Description: describeLinterFact(rec),
			Confidence:  conf,
		}), provConf
	}
}

func describeLinterFact(rec record) string {
	if rec.Message != "" {
		return rec.Message
	}
	return rec.Rule
}
