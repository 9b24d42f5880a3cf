// Package publish turns a completed scan's findings into durable
// records: it baseline-filters them against previously accepted
// findings, then writes what remains through a storage-agnostic
// Repository contract. A scan with zero successful extractors is
// refused outright, since its finding set cannot be trusted as
// complete.
package publish

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hodeiscan/hodeiscan/baseline"
	"github.com/hodeiscan/hodeiscan/engine"
)

// ErrNoSuccessfulExtractors is returned by Pipeline.Run when every
// extractor in the scan failed, per spec §7: a scan with no successful
// extraction cannot produce a publishable finding set.
var ErrNoSuccessfulExtractors = errors.New("publish: refusing to publish, no extractor succeeded")

// Record is a single published finding, scoped to the project/branch/scan
// that produced it.
type Record struct {
	ScanID      string
	ProjectID   string
	Branch      string
	Finding     engine.Finding
	PublishedAt time.Time
}

// Repository is the storage contract a Pipeline writes Records through.
// Implementations decide how (and where) records are persisted; the
// pipeline itself has no storage opinion beyond this interface.
type Repository interface {
	// SaveRecords persists records, scoped to scanID. Implementations
	// should make this idempotent for a given scanID so a retried
	// publish does not duplicate records.
	SaveRecords(ctx context.Context, scanID string, records []Record) error

	// Close releases any resources held by the repository.
	Close() error
}

// Pipeline baseline-filters a scan's findings and writes the survivors
// through a Repository.
type Pipeline struct {
	repo     Repository
	baseline *baseline.Baseline
}

// NewPipeline constructs a Pipeline. baseline may be nil, in which case
// no findings are filtered.
func NewPipeline(repo Repository, bl *baseline.Baseline) *Pipeline {
	return &Pipeline{repo: repo, baseline: bl}
}

// Run baseline-filters findings and publishes the survivors for
// (projectID, branch, scanID). extractorsSucceeded must be the count of
// extractors that completed successfully in the scan that produced
// findings; a zero count refuses to publish. Returns the findings that
// were actually published (post baseline-filtering) for the caller to
// report to the user.
func (p *Pipeline) Run(ctx context.Context, scanID, projectID, branch string, findings []engine.Finding, extractorsSucceeded int) ([]engine.Finding, error) {
	if extractorsSucceeded == 0 {
		return nil, ErrNoSuccessfulExtractors
	}

	fresh := findings
	if p.baseline != nil {
		fresh = p.baseline.New(findings)
	}

	now := time.Now().UTC()
	records := make([]Record, 0, len(fresh))
	for _, f := range fresh {
		records = append(records, Record{
			ScanID:      scanID,
			ProjectID:   projectID,
			Branch:      branch,
			Finding:     f,
			PublishedAt: now,
		})
	}

	if err := p.repo.SaveRecords(ctx, scanID, records); err != nil {
		return nil, fmt.Errorf("publish: saving records: %w", err)
	}
	return fresh, nil
}
