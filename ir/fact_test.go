package ir

import "testing"

func mustLoc(t *testing.T, file string, line uint32) SourceLocation {
	t.Helper()
	ln, err := NewLineNumber(line)
	if err != nil {
		t.Fatalf("NewLineNumber: %v", err)
	}
	loc, err := NewSourceLocation(NewProjectPath(file), ln, ln, nil, nil)
	if err != nil {
		t.Fatalf("NewSourceLocation: %v", err)
	}
	return loc
}

func mustProvenance(t *testing.T, extractorID string) Provenance {
	t.Helper()
	conf, err := NewConfidence(0.9)
	if err != nil {
		t.Fatalf("NewConfidence: %v", err)
	}
	prov, err := NewProvenance(extractorID, "1.0.0", conf)
	if err != nil {
		t.Fatalf("NewProvenance: %v", err)
	}
	return prov
}

func TestFact_DistinctIDsDespiteEqualFields(t *testing.T) {
	t.Parallel()

	loc := mustLoc(t, "a.py", 10)
	prov := mustProvenance(t, "TestExtractor")
	ft := NewVulnerability(VulnerabilityData{
		Severity:    SeverityCritical,
		Description: "x",
		Confidence:  Confidence(0.9),
	})

	f1 := NewFact(ft, loc, prov)
	f2 := NewFact(ft, loc, prov)

	if f1.ID == f2.ID {
		t.Fatalf("expected distinct FactIds, got equal id %d", f1.ID)
	}
}

func TestFact_Field_LocationAndProvenance(t *testing.T) {
	t.Parallel()

	loc := mustLoc(t, "a.py", 10)
	prov := mustProvenance(t, "TestExtractor")
	f := NewFact(NewVulnerability(VulnerabilityData{
		Severity:    SeverityCritical,
		Description: "x",
	}), loc, prov)

	v, ok := f.Field("location.file")
	if !ok || v.Str != "a.py" {
		t.Fatalf("location.file = %+v, ok=%v", v, ok)
	}

	v, ok = f.Field("provenance.extractor_id")
	if !ok || v.Str != "TestExtractor" {
		t.Fatalf("provenance.extractor_id = %+v, ok=%v", v, ok)
	}

	v, ok = f.Field("description")
	if !ok || v.Str != "x" {
		t.Fatalf("description = %+v, ok=%v", v, ok)
	}

	_, ok = f.Field("nonexistent")
	if ok {
		t.Fatalf("expected nonexistent field to resolve false")
	}
}

func TestFactType_Custom_FieldLookup(t *testing.T) {
	t.Parallel()

	data := map[string]FactValue{
		"bucket_name":   NewStringValue("my-bucket"),
		"public_access": NewBooleanValue(true),
	}
	ft, err := NewCustom("terraform::aws::insecure_s3_bucket", data)
	if err != nil {
		t.Fatalf("NewCustom: %v", err)
	}

	disc, ok := ft.Discriminant()
	if !ok || disc != "terraform::aws::insecure_s3_bucket" {
		t.Fatalf("Discriminant() = %q, ok=%v", disc, ok)
	}

	v, ok := ft.Field("public_access")
	if !ok || v.Bool != true {
		t.Fatalf("Field(public_access) = %+v, ok=%v", v, ok)
	}

	_, ok = ft.Field("missing")
	if ok {
		t.Fatalf("expected missing custom field to resolve false")
	}
}

func TestNewCustom_RejectsEmptyDiscriminant(t *testing.T) {
	t.Parallel()

	if _, err := NewCustom("", nil); err == nil {
		t.Fatalf("expected error for empty discriminant")
	}
}

func TestFactType_Severity(t *testing.T) {
	t.Parallel()

	withSev := NewCodeSmell(CodeSmellData{SmellType: "long_method", Severity: SeverityMinor, Message: "m"})
	sev, ok := withSev.Severity()
	if !ok || sev != SeverityMinor {
		t.Fatalf("Severity() = %v, ok=%v", sev, ok)
	}

	withoutSev := NewFunction(FunctionData{Name: "f"})
	if _, ok := withoutSev.Severity(); ok {
		t.Fatalf("expected Function variant to have no severity")
	}
}
