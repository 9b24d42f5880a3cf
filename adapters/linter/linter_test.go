package linter

import (
	"testing"

	"github.com/hodeiscan/hodeiscan/ir"
)

func TestParse_MapsSeverities(t *testing.T) {
	t.Parallel()

	doc := `[
		{"filename":"a.py","code":"E001","rule":"no-eval","message":"avoid eval","severity":"error","line":3,"column":1},
		{"filename":"b.py","code":"W001","rule":"unused-var","message":"unused","severity":"warning","line":5,"column":2},
		{"filename":"c.py","code":"I001","rule":"style","message":"nit","severity":"info","line":7,"column":3}
	]`

	facts, err := Parse([]byte(doc), "", nil)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if len(facts) != 3 {
		t.Fatalf("Parse() produced %d facts, want 3", len(facts))
	}

	if facts[0].FactType.Kind != ir.FactTypeVulnerability || facts[0].FactType.Vulnerability.Severity != ir.SeverityCritical {
		t.Errorf("facts[0] = %+v, want Vulnerability{Critical}", facts[0].FactType)
	}
	if facts[1].FactType.Kind != ir.FactTypeCodeSmell || facts[1].FactType.CodeSmell.Severity != ir.SeverityMajor {
		t.Errorf("facts[1] = %+v, want CodeSmell{Major}", facts[1].FactType)
	}
	if facts[2].FactType.Kind != ir.FactTypeVulnerability || facts[2].FactType.Vulnerability.Severity != ir.SeverityMinor {
		t.Errorf("facts[2] = %+v, want Vulnerability{Minor}", facts[2].FactType)
	}
	if facts[0].Provenance.ExtractorID != ExtractorID {
		t.Errorf("ExtractorID = %q, want %q", facts[0].Provenance.ExtractorID, ExtractorID)
	}
}

func TestParse_ResolvesAgainstProjectRoot(t *testing.T) {
	t.Parallel()

	doc := `[{"filename":"src/a.py","code":"E001","rule":"r","message":"m","severity":"error","line":1,"column":1}]`

	facts, err := Parse([]byte(doc), "/proj", nil)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	want := ir.NewProjectPath("/proj/src/a.py").String()
	if got := facts[0].Location.File.String(); got != want {
		t.Errorf("File = %q, want %q", got, want)
	}
}

func TestParse_SharesInternerAcrossRecords(t *testing.T) {
	t.Parallel()

	doc := `[
		{"filename":"a.py","code":"E001","rule":"r","message":"m","severity":"error","line":1,"column":1},
		{"filename":"a.py","code":"E002","rule":"r","message":"m","severity":"warning","line":2,"column":1}
	]`

	interner := ir.NewInterner()
	facts, err := Parse([]byte(doc), "", interner)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if interner.Len() != 1 {
		t.Errorf("Interner.Len() = %d, want 1 (both records share a.py)", interner.Len())
	}
	if facts[0].Location.File.String() != facts[1].Location.File.String() {
		t.Errorf("expected both facts to resolve to the same interned path")
	}
}

func TestParse_InvalidLineRejected(t *testing.T) {
	t.Parallel()

	doc := `[{"filename":"a.py","code":"E001","rule":"r","message":"m","severity":"error","line":0,"column":1}]`
	if _, err := Parse([]byte(doc), "", nil); err == nil {
		t.Fatal("Parse() = nil error, want error for line=0")
	}
}
