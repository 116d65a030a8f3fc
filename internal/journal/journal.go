// Package journal keeps a SQLite history of correction runs and the change
// records they produced.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/FocuswithJustin/docfix/core/correct"
	"github.com/FocuswithJustin/docfix/core/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	started_at  TEXT NOT NULL,
	command     TEXT NOT NULL,
	input       TEXT NOT NULL,
	input_hash  TEXT NOT NULL,
	output      TEXT NOT NULL DEFAULT '',
	output_hash TEXT NOT NULL DEFAULT '',
	backup      TEXT NOT NULL DEFAULT '',
	rule_files  TEXT NOT NULL DEFAULT '',
	dry_run     INTEGER NOT NULL DEFAULT 0,
	changes     INTEGER NOT NULL DEFAULT 0,
	warnings    INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS records (
	run_id      TEXT NOT NULL REFERENCES runs(id),
	seq         INTEGER NOT NULL,
	rule        TEXT NOT NULL,
	paragraph   INTEGER NOT NULL,
	kind        TEXT NOT NULL,
	description TEXT NOT NULL,
	before      TEXT NOT NULL DEFAULT '',
	after       TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (run_id, seq)
);
CREATE INDEX IF NOT EXISTS runs_started ON runs(started_at);
`

// ErrUnknownRun is returned when no journaled run matches an ID.
var ErrUnknownRun = errors.New("unknown run")

// Run is one journaled correction pass.
type Run struct {
	ID         string
	StartedAt  time.Time
	Command    string
	Input      string
	InputHash  string
	Output     string
	OutputHash string
	Backup     string
	RuleFiles  string
	DryRun     bool
	Changes    int
	Warnings   int
}

// Entry is a stored change record.
type Entry struct {
	Seq         int
	Rule        string
	Paragraph   int
	Kind        string
	Description string
	Before      string
	After       string
}

// Journal is an open history database.
type Journal struct {
	db *sql.DB
}

// Open opens or creates the journal at path, creating parent directories.
func Open(path string) (*Journal, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create journal directory: %w", err)
		}
	}
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize journal %s: %w", path, err)
	}
	return &Journal{db: db}, nil
}

// Close closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Record stores a run and its change log in one transaction.
func (j *Journal) Record(ctx context.Context, run Run, records []correct.Record) (err error) {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `INSERT INTO runs
		(id, started_at, command, input, input_hash, output, output_hash, backup, rule_files, dry_run, changes, warnings)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt.UTC().Format(time.RFC3339Nano), run.Command, run.Input, run.InputHash,
		run.Output, run.OutputHash, run.Backup, run.RuleFiles, boolInt(run.DryRun), run.Changes, run.Warnings)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for i, rec := range records {
		_, err = tx.ExecContext(ctx, `INSERT INTO records
			(run_id, seq, rule, paragraph, kind, description, before, after)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, i, rec.Rule, rec.Paragraph, rec.Kind.String(), rec.Description, rec.Before, rec.After)
		if err != nil {
			return fmt.Errorf("insert record %d: %w", i, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Runs returns the most recent runs first. A limit of zero or less returns
// every run.
func (j *Journal) Runs(ctx context.Context, limit int) ([]Run, error) {
	q := `SELECT id, started_at, command, input, input_hash, output, output_hash, backup, rule_files, dry_run, changes, warnings
		FROM runs ORDER BY started_at DESC, id`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := j.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r       Run
			started string
			dry     int
		)
		if err := rows.Scan(&r.ID, &started, &r.Command, &r.Input, &r.InputHash, &r.Output, &r.OutputHash,
			&r.Backup, &r.RuleFiles, &dry, &r.Changes, &r.Warnings); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		r.DryRun = dry != 0
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Entries returns the change records of a run in order. A run ID prefix is
// accepted when it is unambiguous.
func (j *Journal) Entries(ctx context.Context, runID string) (string, []Entry, error) {
	id, err := j.resolve(ctx, runID)
	if err != nil {
		return "", nil, err
	}

	rows, err := j.db.QueryContext(ctx, `SELECT seq, rule, paragraph, kind, description, before, after
		FROM records WHERE run_id = ? ORDER BY seq`, id)
	if err != nil {
		return "", nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Seq, &e.Rule, &e.Paragraph, &e.Kind, &e.Description, &e.Before, &e.After); err != nil {
			return "", nil, fmt.Errorf("scan record: %w", err)
		}
		out = append(out, e)
	}
	return id, out, rows.Err()
}

func (j *Journal) resolve(ctx context.Context, prefix string) (string, error) {
	rows, err := j.db.QueryContext(ctx, `SELECT id FROM runs WHERE id LIKE ? || '%' LIMIT 2`, prefix)
	if err != nil {
		return "", fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	switch len(ids) {
	case 0:
		return "", fmt.Errorf("run %q: %w", prefix, ErrUnknownRun)
	case 1:
		return ids[0], nil
	default:
		return "", fmt.Errorf("run prefix %q is ambiguous", prefix)
	}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
