package publish

import (
	"context"
	"errors"
	"testing"

	"github.com/hodeiscan/hodeiscan/baseline"
	"github.com/hodeiscan/hodeiscan/engine"
	"github.com/hodeiscan/hodeiscan/ir"
)

type fakeRepository struct {
	saved map[string][]Record
	err   error
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{saved: make(map[string][]Record)}
}

func (f *fakeRepository) SaveRecords(ctx context.Context, scanID string, records []Record) error {
	if f.err != nil {
		return f.err
	}
	f.saved[scanID] = append(f.saved[scanID], records...)
	return nil
}

func (f *fakeRepository) Close() error { return nil }

func sampleFinding(fingerprint string) engine.Finding {
	return engine.Finding{
		RuleName:    "rule-1",
		Fingerprint: fingerprint,
		Severity:    ir.SeverityMajor,
		Location:    ir.SourceLocation{File: ir.NewProjectPath("a.go"), StartLine: 1, EndLine: 1},
	}
}

func TestPipeline_RefusesPublishWithNoSuccessfulExtractors(t *testing.T) {
	t.Parallel()

	repo := newFakeRepository()
	p := NewPipeline(repo, nil)

	_, err := p.Run(context.Background(), "scan-1", "proj", "main", []engine.Finding{sampleFinding("fp1")}, 0)
	if !errors.Is(err, ErrNoSuccessfulExtractors) {
		t.Fatalf("expected ErrNoSuccessfulExtractors, got %v", err)
	}
	if len(repo.saved) != 0 {
		t.Error("expected no records to be saved")
	}
}

func TestPipeline_PublishesAllWhenNoBaseline(t *testing.T) {
	t.Parallel()

	repo := newFakeRepository()
	p := NewPipeline(repo, nil)

	published, err := p.Run(context.Background(), "scan-1", "proj", "main",
		[]engine.Finding{sampleFinding("fp1"), sampleFinding("fp2")}, 1)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(published) != 2 {
		t.Fatalf("expected 2 published findings, got %d", len(published))
	}
	if len(repo.saved["scan-1"]) != 2 {
		t.Fatalf("expected 2 saved records, got %d", len(repo.saved["scan-1"]))
	}
}

func TestPipeline_FiltersBaselinedFindings(t *testing.T) {
	t.Parallel()

	bl := &baseline.Baseline{}
	bl.Add(baseline.Entry{Fingerprint: "fp1"})

	repo := newFakeRepository()
	p := NewPipeline(repo, bl)

	published, err := p.Run(context.Background(), "scan-1", "proj", "main",
		[]engine.Finding{sampleFinding("fp1"), sampleFinding("fp2")}, 1)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(published) != 1 || published[0].Fingerprint != "fp2" {
		t.Fatalf("expected only fp2 to survive baseline filtering, got %+v", published)
	}
}

func TestPipeline_PropagatesRepositoryError(t *testing.T) {
	t.Parallel()

	repo := newFakeRepository()
	repo.err = errors.New("disk full")
	p := NewPipeline(repo, nil)

	_, err := p.Run(context.Background(), "scan-1", "proj", "main", []engine.Finding{sampleFinding("fp1")}, 1)
	if err == nil {
		t.Fatal("expected an error to propagate from the repository")
	}
}
