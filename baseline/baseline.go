// Package baseline tracks previously-seen findings, keyed by fingerprint,
// so a scan can tell a genuinely new finding apart from one that has
// already been triaged and accepted. Baselines are stored as JSON files
// with fingerprint-based O(1) lookup, scoped to a (project, branch) pair.
package baseline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hodeiscan/hodeiscan/engine"
	"github.com/hodeiscan/hodeiscan/ir"
)

const schemaVersion = "1.0.0"

// Entry represents a single baselined finding.
type Entry struct {
	Fingerprint string      `json:"fingerprint"`
	RuleName    string      `json:"rule_name"`
	FilePath    string      `json:"file_path"`
	Severity    ir.Severity `json:"severity"`
	Reason      string      `json:"reason,omitempty"`
	Owner       string      `json:"owner,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	ExpiresAt   *time.Time  `json:"expires_at,omitempty"`
}

// Baseline holds a (project_id, branch)-scoped set of baselined finding
// entries with fast fingerprint lookup.
type Baseline struct {
	SchemaVersion string  `json:"schema_version"`
	ProjectID     string  `json:"project_id"`
	Branch        string  `json:"branch"`
	Entries       []Entry `json:"entries"`
	index         map[string]*Entry
}

// Load reads a baseline file from path. If the file does not exist, an
// empty baseline scoped to (projectID, branch) is returned with no error.
func Load(path, projectID, branch string) (*Baseline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Baseline{
				SchemaVersion: schemaVersion,
				ProjectID:     projectID,
				Branch:        branch,
				index:         make(map[string]*Entry),
			}, nil
		}
		return nil, fmt.Errorf("reading baseline %s: %w", path, err)
	}

	var b Baseline
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("parsing baseline %s: %w", path, err)
	}
	b.buildIndex()
	return &b, nil
}

// Save writes the baseline to path using atomic temp-file + rename, the
// same pattern the teacher's core/baseline uses to avoid a reader ever
// observing a half-written file.
func (b *Baseline) Save(path string) error {
	b.SchemaVersion = schemaVersion

	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling baseline: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating baseline directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".baseline-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("renaming baseline file: %w", err)
	}
	return nil
}

// Match returns the matching baseline entry for a finding, keyed by
// fingerprint, or nil if none. Expired entries are not matched, so an
// expired baseline entry causes its finding to resurface.
func (b *Baseline) Match(f engine.Finding) *Entry {
	e, ok := b.index[f.Fingerprint]
	if !ok {
		return nil
	}
	if e.ExpiresAt != nil && time.Now().After(*e.ExpiresAt) {
		return nil
	}
	return e
}

// Add appends an entry to the baseline and updates the index.
func (b *Baseline) Add(e Entry) {
	b.Entries = append(b.Entries, e)
	if b.index == nil {
		b.index = make(map[string]*Entry)
	}
	b.index[e.Fingerprint] = &b.Entries[len(b.Entries)-1]
}

// Prune removes entries whose fingerprints are not present among current.
// Returns the number of entries removed.
func (b *Baseline) Prune(current []engine.Finding) int {
	active := make(map[string]struct{}, len(current))
	for _, f := range current {
		active[f.Fingerprint] = struct{}{}
	}

	kept := make([]Entry, 0, len(b.Entries))
	removed := 0
	for _, entry := range b.Entries {
		if _, ok := active[entry.Fingerprint]; ok {
			kept = append(kept, entry)
		} else {
			removed++
		}
	}
	b.Entries = kept
	b.buildIndex()
	return removed
}

// Len returns the number of entries in the baseline.
func (b *Baseline) Len() int { return len(b.Entries) }

// New reports, filtering out findings that match a non-expired baseline
// entry. Order is preserved.
func (b *Baseline) New(findings []engine.Finding) []engine.Finding {
	out := make([]engine.Finding, 0, len(findings))
	for _, f := range findings {
		if b.Match(f) == nil {
			out = append(out, f)
		}
	}
	return out
}

// DefaultPath returns the conventional baseline file location within a
// project, scoped per branch so each branch tracks its own acceptances.
func DefaultPath(root, branch string) string {
	return filepath.Join(root, ".hodeiscan", "baseline", branch+".json")
}

// FromFindings creates baseline entries from a slice of findings, stamped
// with the current time.
func FromFindings(findings []engine.Finding) []Entry {
	entries := make([]Entry, 0, len(findings))
	now := time.Now().UTC()
	for _, f := range findings {
		entries = append(entries, Entry{
			Fingerprint: f.Fingerprint,
			RuleName:    f.RuleName,
			FilePath:    f.Location.File.String(),
			Severity:    f.Severity,
			CreatedAt:   now,
		})
	}
	return entries
}

func (b *Baseline) buildIndex() {
	b.index = make(map[string]*Entry, len(b.Entries))
	for i := range b.Entries {
		b.index[b.Entries[i].Fingerprint] = &b.Entries[i]
	}
}
