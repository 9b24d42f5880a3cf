package sarif

import (
	"errors"
	"testing"

	"github.com/hodeiscan/hodeiscan/ir"
)

// TestParse_S1 implements scenario S1: a single error-level SARIF result
// must become one Vulnerability{Critical} fact at a.py:10:5, with
// provenance.extractor_id = SarifAdapter.
func TestParse_S1(t *testing.T) {
	t.Parallel()

	doc := `{ "version":"2.1.0","runs":[{"tool":{"driver":{"name":"t"}},
     "results":[{"ruleId":"R001","level":"error","message":{"text":"x"},
        "locations":[{"physicalLocation":{
          "artifactLocation":{"uri":"a.py"},
          "region":{"startLine":10,"startColumn":5}}}]}]}]}`

	facts, err := Parse([]byte(doc), Options{})
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if len(facts) != 1 {
		t.Fatalf("Parse() produced %d facts, want 1", len(facts))
	}

	f := facts[0]
	if f.FactType.Kind != ir.FactTypeVulnerability {
		t.Fatalf("Kind = %v, want Vulnerability", f.FactType.Kind)
	}
	if f.FactType.Vulnerability.Severity != ir.SeverityCritical {
		t.Errorf("Severity = %v, want Critical", f.FactType.Vulnerability.Severity)
	}
	if f.FactType.Vulnerability.Description != "x" {
		t.Errorf("Description = %q, want %q", f.FactType.Vulnerability.Description, "x")
	}
	if f.Location.File.String() != "a.py" {
		t.Errorf("File = %q, want a.py", f.Location.File.String())
	}
	if f.Location.StartLine != 10 || *f.Location.StartColumn != 5 {
		t.Errorf("Location = %d:%d, want 10:5", f.Location.StartLine, *f.Location.StartColumn)
	}
	if f.Provenance.ExtractorID != ExtractorID {
		t.Errorf("ExtractorID = %q, want %q", f.Provenance.ExtractorID, ExtractorID)
	}
}

func TestParse_WarningMapsToCodeSmell(t *testing.T) {
	t.Parallel()

	doc := `{"runs":[{"results":[{"level":"warning","message":{"text":"y"},
		"locations":[{"physicalLocation":{"artifactLocation":{"uri":"b.py"},
		"region":{"startLine":1,"startColumn":1}}}]}]}]}`

	facts, err := Parse([]byte(doc), Options{})
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if facts[0].FactType.Kind != ir.FactTypeCodeSmell {
		t.Fatalf("Kind = %v, want CodeSmell", facts[0].FactType.Kind)
	}
	if facts[0].FactType.CodeSmell.Severity != ir.SeverityMajor {
		t.Errorf("Severity = %v, want Major", facts[0].FactType.CodeSmell.Severity)
	}
}

func TestParse_NoteMapsToVulnerabilityMinor(t *testing.T) {
	t.Parallel()

	doc := `{"runs":[{"results":[{"level":"note","message":{"text":"z"},
		"locations":[{"physicalLocation":{"artifactLocation":{"uri":"c.py"},
		"region":{"startLine":1,"startColumn":1}}}]}]}]}`

	facts, err := Parse([]byte(doc), Options{})
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if facts[0].FactType.Kind != ir.FactTypeVulnerability {
		t.Fatalf("Kind = %v, want Vulnerability", facts[0].FactType.Kind)
	}
	if facts[0].FactType.Vulnerability.Severity != ir.SeverityMinor {
		t.Errorf("Severity = %v, want Minor", facts[0].FactType.Vulnerability.Severity)
	}
}

func TestParse_MissingFieldAbortsByDefault(t *testing.T) {
	t.Parallel()

	doc := `{"runs":[{"results":[{"level":"error","message":{"text":"x"},"locations":[]}]}]}`

	_, err := Parse([]byte(doc), Options{})
	if err == nil {
		t.Fatal("Parse() = nil error, want MissingFieldError")
	}
	var mfe *MissingFieldError
	if !errors.As(err, &mfe) {
		t.Errorf("Parse() error = %v, want MissingFieldError", err)
	}
}

func TestParse_LenientSkipsBadResult(t *testing.T) {
	t.Parallel()

	doc := `{"runs":[{"results":[
		{"level":"error","message":{"text":"bad"},"locations":[]},
		{"level":"error","message":{"text":"good"},
		 "locations":[{"physicalLocation":{"artifactLocation":{"uri":"d.py"},
		 "region":{"startLine":1,"startColumn":1}}}]}
	]}]}`

	facts, err := Parse([]byte(doc), Options{Lenient: true})
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if len(facts) != 1 {
		t.Fatalf("Parse() produced %d facts, want 1 (bad result skipped)", len(facts))
	}
}

func TestParse_SharedInternerDedupesAcrossRuns(t *testing.T) {
	t.Parallel()

	doc := `{"runs":[{"results":[
		{"level":"error","message":{"text":"a"},"locations":[{"physicalLocation":{"artifactLocation":{"uri":"a.py"},"region":{"startLine":1,"startColumn":1}}}]},
		{"level":"warning","message":{"text":"b"},"locations":[{"physicalLocation":{"artifactLocation":{"uri":"a.py"},"region":{"startLine":2,"startColumn":1}}}]}
	]}]}`

	interner := ir.NewInterner()
	facts, err := Parse([]byte(doc), Options{Interner: interner})
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if interner.Len() != 1 {
		t.Errorf("Interner.Len() = %d, want 1 (both results share a.py)", interner.Len())
	}
	if facts[0].Location.File.String() != facts[1].Location.File.String() {
		t.Errorf("expected both facts to resolve to the same interned path")
	}
}

func TestParse_MaxResultsCaps(t *testing.T) {
	t.Parallel()

	doc := `{"runs":[{"results":[
		{"level":"error","message":{"text":"a"},"locations":[{"physicalLocation":{"artifactLocation":{"uri":"a.py"},"region":{"startLine":1,"startColumn":1}}}]},
		{"level":"error","message":{"text":"b"},"locations":[{"physicalLocation":{"artifactLocation":{"uri":"b.py"},"region":{"startLine":1,"startColumn":1}}}]}
	]}]}`

	max := 1
	facts, err := Parse([]byte(doc), Options{MaxResults: &max})
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if len(facts) != 1 {
		t.Fatalf("Parse() produced %d facts, want 1 (max_results=1)", len(facts))
	}
}
