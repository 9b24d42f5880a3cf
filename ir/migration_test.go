package ir

import "testing"

func TestMigrateToCurrent_V32ToV33_PureBump(t *testing.T) {
	t.Parallel()

	meta := NewProjectMetadata("test-project", "1.0.0", NewProjectPath("/test"))
	loc := mustLoc(t, "/test/file.go", 1)
	prov := mustProvenance(t, "test")
	f := NewFact(NewCodeSmell(CodeSmellData{SmellType: "test_smell", Severity: SeverityMinor, Message: "test message"}), loc, prov)

	irV32 := IntermediateRepresentation{
		SchemaVersion: "3.2.0",
		Metadata:      meta,
		Facts:         []Fact{f},
	}

	migrated, err := MigrateToCurrent(irV32)
	if err != nil {
		t.Fatalf("MigrateToCurrent: %v", err)
	}
	if migrated.SchemaVersion != "3.3.0" {
		t.Fatalf("schema_version = %q, want 3.3.0", migrated.SchemaVersion)
	}
	if len(migrated.Facts) != 1 || migrated.Facts[0].ID != f.ID {
		t.Fatalf("facts changed across migration: %+v", migrated.Facts)
	}
	if migrated.Metadata != meta {
		t.Fatalf("metadata changed across migration")
	}
}

func TestMigrateToCurrent_AlreadyCurrent(t *testing.T) {
	t.Parallel()

	meta := NewProjectMetadata("p", "1.0.0", NewProjectPath("."))
	irV33 := IntermediateRepresentation{SchemaVersion: "3.3.0", Metadata: meta}

	migrated, err := MigrateToCurrent(irV33)
	if err != nil {
		t.Fatalf("MigrateToCurrent: %v", err)
	}
	if migrated.SchemaVersion != "3.3.0" {
		t.Fatalf("schema_version = %q, want 3.3.0", migrated.SchemaVersion)
	}
}

func TestMigrateToCurrent_RejectsUnknownNewerVersion(t *testing.T) {
	t.Parallel()

	meta := NewProjectMetadata("p", "1.0.0", NewProjectPath("."))
	irUnknown := IntermediateRepresentation{SchemaVersion: "4.0.0", Metadata: meta}

	_, err := MigrateToCurrent(irUnknown)
	if err == nil {
		t.Fatalf("expected error for unsupported newer schema version")
	}
	var unsupported *ErrUnsupportedSchema
	if !asUnsupportedSchema(err, &unsupported) {
		t.Fatalf("expected *ErrUnsupportedSchema, got %T: %v", err, err)
	}
	if unsupported.Version != "4.0.0" {
		t.Fatalf("Version = %q, want 4.0.0", unsupported.Version)
	}
}

func TestNeedsMigration(t *testing.T) {
	t.Parallel()

	meta := NewProjectMetadata("p", "1.0.0", NewProjectPath("."))
	if !NeedsMigration(IntermediateRepresentation{SchemaVersion: "3.2.0", Metadata: meta}) {
		t.Fatalf("expected 3.2.0 to need migration")
	}
	if NeedsMigration(IntermediateRepresentation{SchemaVersion: "3.3.0", Metadata: meta}) {
		t.Fatalf("expected 3.3.0 to not need migration")
	}
}

func TestParseSchemaVersion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want SchemaVersion
	}{
		{"3.2.0", SchemaV32},
		{"3.2", SchemaV32},
		{"3.3.0", SchemaV33},
		{"3.3", SchemaV33},
		{"4.0.0", SchemaUnknown},
	}
	for _, tt := range tests {
		if got := ParseSchemaVersion(tt.in); got != tt.want {
			t.Errorf("ParseSchemaVersion(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func asUnsupportedSchema(err error, target **ErrUnsupportedSchema) bool {
	if e, ok := err.(*ErrUnsupportedSchema); ok {
		*target = e
		return true
	}
	return false
}
