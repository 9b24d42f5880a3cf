// Package sarif emits SARIF 2.1.0 reports from engine Findings.
//
// The Static Analysis Results Interchange Format is an OASIS standard for
// the output of static analysis tools. This package produces SARIF v2.1.0
// documents compatible with GitHub Code Scanning and other SARIF
// consumers - the mirror image of adapters/sarif, which ingests SARIF
// produced by third-party extractors rather than emitting it.
package sarif

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/hodeiscan/hodeiscan/engine"
	"github.com/hodeiscan/hodeiscan/ir"
	"github.com/hodeiscan/hodeiscan/rules"
)

const (
	sarifVersion   = "2.1.0"
	sarifSchema    = "https://docs.oasis-open.org/sarif/sarif/v2.1.0/errata01/os/schemas/sarif-schema-2.1.0.json"
	toolName       = "hodeiscan"
	informationURI = "https://github.com/hodeiscan/hodeiscan"
)

// Report is the top-level SARIF document.
type Report struct {
	Version string `json:"version"`
	Schema  string `json:"$schema"`
	Runs    []Run  `json:"runs"`
}

// Run represents a single invocation of an analysis tool.
type Run struct {
	Tool    Tool     `json:"tool"`
	Results []Result `json:"results"`
}

type Tool struct {
	Driver Driver `json:"driver"`
}

type Driver struct {
	Name           string                `json:"name"`
	Version        string                `json:"version"`
	InformationURI string                `json:"informationUri"`
	Rules          []ReportingDescriptor `json:"rules"`
}

type ReportingDescriptor struct {
	ID                   string              `json:"id"`
	Name                 string              `json:"name"`
	ShortDescription     Message             `json:"shortDescription"`
	FullDescription      *Message            `json:"fullDescription,omitempty"`
	Help                 *MultiformatMessage `json:"help,omitempty"`
	DefaultConfiguration Configuration       `json:"defaultConfiguration"`
	Properties           map[string]string   `json:"properties,omitempty"`
}

type MultiformatMessage struct {
	Text     string `json:"text"`
	Markdown string `json:"markdown,omitempty"`
}

type Configuration struct {
	Level string `json:"level"`
}

type Message struct {
	Text string `json:"text"`
}

// Result is a single Finding expressed in SARIF format.
type Result struct {
	RuleID       string            `json:"ruleId"`
	RuleIndex    int               `json:"ruleIndex"`
	Level        string            `json:"level"`
	Message      Message           `json:"message"`
	Locations    []Location        `json:"locations"`
	Fingerprints map[string]string `json:"fingerprints"`
}

type Location struct {
	PhysicalLocation PhysicalLocation `json:"physicalLocation"`
}

type PhysicalLocation struct {
	ArtifactLocation ArtifactLocation `json:"artifactLocation"`
	Region           Region           `json:"region"`
}

type ArtifactLocation struct {
	URI string `json:"uri"`
}

type Region struct {
	StartLine   int `json:"startLine,omitempty"`
	StartColumn int `json:"startColumn,omitempty"`
	EndLine     int `json:"endLine,omitempty"`
}

// Reporter produces SARIF 2.1.0 documents from a slice of engine.Finding.
type Reporter struct {
	// ToolVersion is the version string embedded in the SARIF tool driver.
	ToolVersion string

	// Rules, when non-nil, is used to populate the SARIF rule catalog
	// with every rule's description and severity, not just the ones that
	// happened to fire. When nil, the catalog is derived from the
	// findings themselves.
	Rules *rules.RuleSet
}

// NewReporter returns a Reporter configured with the given tool version
// and optional rule set. ruleSet may be nil.
func NewReporter(version string, ruleSet *rules.RuleSet) *Reporter {
	return &Reporter{ToolVersion: version, Rules: ruleSet}
}

// Generate builds a complete SARIF document from findings. Findings are
// assumed to already be in the deterministic order engine.Evaluate
// produces; Generate does not re-sort them.
func (r *Reporter) Generate(findings []engine.Finding) ([]byte, error) {
	catalog, index := r.buildRuleCatalog(findings)

	results := make([]Result, 0, len(findings))
	for _, f := range findings {
		idx, ok := index[f.RuleName]
		if !ok {
			idx = 0
		}

		endLine := int(f.Location.EndLine)
		startCol := 0
		if f.Location.StartColumn != nil {
			startCol = int(f.Location.StartColumn.Get())
		}

		results = append(results, Result{
			RuleID:    f.RuleName,
			RuleIndex: idx,
			Level:     severityToLevel(f.Severity),
			Message:   Message{Text: f.Message},
			Locations: []Location{
				{
					PhysicalLocation: PhysicalLocation{
						ArtifactLocation: ArtifactLocation{URI: f.Location.File.String()},
						Region: Region{
							StartLine:   int(f.Location.StartLine),
							StartColumn: startCol,
							EndLine:     endLine,
						},
					},
				},
			},
			Fingerprints: map[string]string{"hodeiscan/v1": f.Fingerprint},
		})
	}

	report := Report{
		Version: sarifVersion,
		Schema:  sarifSchema,
		Runs: []Run{{
			Tool: Tool{Driver: Driver{
				Name:           toolName,
				Version:        r.ToolVersion,
				InformationURI: informationURI,
				Rules:          catalog,
			}},
			Results: results,
		}},
	}

	return json.MarshalIndent(report, "", "  ")
}

// WriteToFile generates the SARIF report and writes it to path with 0644
// permissions. Parent directories must already exist.
func (r *Reporter) WriteToFile(findings []engine.Finding, path string) error {
	data, err := r.Generate(findings)
	if err != nil {
		return fmt.Errorf("sarif: generate report: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// severityToLevel maps an ir.Severity to the corresponding SARIF level.
// Critical and Blocker map to "error", Major to "warning", Info and Minor
// to "note" - the mirror image of adapters/sarif's level-to-Severity
// mapping.
func severityToLevel(s ir.Severity) string {
	switch s {
	case ir.SeverityCritical, ir.SeverityBlocker:
		return "error"
	case ir.SeverityMajor:
		return "warning"
	default:
		return "note"
	}
}

func (r *Reporter) buildRuleCatalog(findings []engine.Finding) ([]ReportingDescriptor, map[string]int) {
	if r.Rules != nil {
		return r.buildCatalogFromRuleSet()
	}
	return r.buildCatalogFromFindings(findings)
}

func (r *Reporter) buildCatalogFromRuleSet() ([]ReportingDescriptor, map[string]int) {
	all := r.Rules.Rules()
	sorted := make([]rules.Rule, len(all))
	copy(sorted, all)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	catalog := make([]ReportingDescriptor, 0, len(sorted))
	index := make(map[string]int, len(sorted))
	for _, rule := range sorted {
		idx := len(catalog)
		index[rule.Name] = idx

		desc := ReportingDescriptor{
			ID:                   rule.Name,
			Name:                 rule.Name,
			ShortDescription:     Message{Text: rule.Metadata.Description},
			DefaultConfiguration: Configuration{Level: severityToLevel(rule.Metadata.Severity)},
		}
		if len(rule.Emit.Metadata) > 0 {
			desc.Properties = rule.Emit.Metadata
		}
		catalog = append(catalog, desc)
	}
	return catalog, index
}

func (r *Reporter) buildCatalogFromFindings(findings []engine.Finding) ([]ReportingDescriptor, map[string]int) {
	type ruleInfo struct {
		name     string
		severity ir.Severity
		message  string
	}

	seen := make(map[string]struct{})
	var unique []ruleInfo
	for _, f := range findings {
		if _, ok := seen[f.RuleName]; ok {
			continue
		}
		seen[f.RuleName] = struct{}{}
		unique = append(unique, ruleInfo{name: f.RuleName, severity: f.Severity, message: f.Message})
	}
	sort.Slice(unique, func(i, j int) bool { return unique[i].name < unique[j].name })

	catalog := make([]ReportingDescriptor, 0, len(unique))
	index := make(map[string]int, len(unique))
	for _, ri := range unique {
		idx := len(catalog)
		index[ri.name] = idx
		catalog = append(catalog, ReportingDescriptor{
			ID:                   ri.name,
			Name:                 ri.name,
			ShortDescription:     Message{Text: ri.message},
			DefaultConfiguration: Configuration{Level: severityToLevel(ri.severity)},
		})
	}
	return catalog, index
}
