package publish

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/hodeiscan/hodeiscan/ir"
)

// SQLiteRepository is a Repository backed by a local SQLite database via
// modernc.org/sqlite's pure-Go driver, registered under the "sqlite"
// driver name.
type SQLiteRepository struct {
	db *sql.DB
}

// OpenSQLiteRepository opens (creating if necessary) a SQLite database
// at path and ensures its schema exists.
func OpenSQLiteRepository(path string) (*SQLiteRepository, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("publish: creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("publish: opening database: %w", err)
	}

	repo := &SQLiteRepository{db: db}
	if err := repo.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("publish: initializing schema: %w", err)
	}
	return repo, nil
}

func (r *SQLiteRepository) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS findings (
		scan_id       TEXT NOT NULL,
		project_id    TEXT NOT NULL,
		branch        TEXT NOT NULL,
		fingerprint   TEXT NOT NULL,
		rule_name     TEXT NOT NULL,
		message       TEXT NOT NULL,
		severity      TEXT NOT NULL,
		confidence    REAL NOT NULL,
		file_path     TEXT NOT NULL,
		start_line    INTEGER NOT NULL,
		tags_json     TEXT,
		metadata_json TEXT,
		published_at  DATETIME NOT NULL,
		PRIMARY KEY (scan_id, fingerprint)
	);
	CREATE INDEX IF NOT EXISTS idx_findings_project_branch ON findings(project_id, branch);
	CREATE INDEX IF NOT EXISTS idx_findings_fingerprint ON findings(fingerprint);
	`
	_, err := r.db.Exec(schema)
	return err
}

// SaveRecords persists records. Re-saving the same (scan_id, fingerprint)
// pair overwrites the prior row, making a retried publish idempotent.
func (r *SQLiteRepository) SaveRecords(ctx context.Context, scanID string, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO findings (
			scan_id, project_id, branch, fingerprint, rule_name, message,
			severity, confidence, file_path, start_line, tags_json,
			metadata_json, published_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(scan_id, fingerprint) DO UPDATE SET
			message = excluded.message,
			severity = excluded.severity,
			confidence = excluded.confidence,
			published_at = excluded.published_at
	`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		tagsJSON, err := json.Marshal(rec.Finding.Tags)
		if err != nil {
			return fmt.Errorf("marshaling tags: %w", err)
		}
		metaJSON, err := json.Marshal(rec.Finding.Metadata)
		if err != nil {
			return fmt.Errorf("marshaling metadata: %w", err)
		}

		if _, err := stmt.ExecContext(ctx,
			rec.ScanID, rec.ProjectID, rec.Branch, rec.Finding.Fingerprint,
			rec.Finding.RuleName, rec.Finding.Message, rec.Finding.Severity.String(),
			float64(rec.Finding.Confidence.Get()), rec.Finding.Location.File.String(),
			int(rec.Finding.Location.StartLine), string(tagsJSON), string(metaJSON),
			rec.PublishedAt,
		); err != nil {
			return fmt.Errorf("inserting finding %s: %w", rec.Finding.Fingerprint, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// FindingsForScan returns every finding published under scanID, in no
// particular order - a diagnostic/verification query, not part of the
// Repository contract.
func (r *SQLiteRepository) FindingsForScan(ctx context.Context, scanID string) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT project_id, branch, fingerprint, rule_name, message, severity,
			confidence, file_path, start_line, published_at
		FROM findings WHERE scan_id = ?
	`, scanID)
	if err != nil {
		return nil, fmt.Errorf("querying findings: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var severity string
		var confidence float64
		var filePath string
		var startLine int
		rec.ScanID = scanID
		if err := rows.Scan(&rec.ProjectID, &rec.Branch, &rec.Finding.Fingerprint,
			&rec.Finding.RuleName, &rec.Finding.Message, &severity, &confidence,
			&filePath, &startLine, &rec.PublishedAt); err != nil {
			return nil, fmt.Errorf("scanning finding row: %w", err)
		}

		sev, err := ir.ParseSeverity(severity)
		if err != nil {
			return nil, fmt.Errorf("parsing severity: %w", err)
		}
		rec.Finding.Severity = sev

		conf, err := ir.NewConfidence(confidence)
		if err != nil {
			return nil, fmt.Errorf("parsing confidence: %w", err)
		}
		rec.Finding.Confidence = conf

		line, err := ir.NewLineNumber(uint32(startLine))
		if err != nil {
			return nil, fmt.Errorf("parsing start line: %w", err)
		}
		rec.Finding.Location = ir.SourceLocation{
			File:      ir.NewProjectPath(filePath),
			StartLine: line,
			EndLine:   line,
		}

		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating findings: %w", err)
	}
	return out, nil
}

// Close closes the underlying database connection.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

var _ Repository = (*SQLiteRepository)(nil)
