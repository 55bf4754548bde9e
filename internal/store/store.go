// Package store handles SQLite persistence of imported attempt logs.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/tunecurve/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for attempt records.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Batch describes one import.
type Batch struct {
	ID         string
	Source     string
	ImportedAt time.Time
	Records    int
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db, now: time.Now}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS batches (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			imported_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS attempts (
			batch_id TEXT NOT NULL,
			id INTEGER NOT NULL,
			param1 INTEGER NOT NULL,
			param2 INTEGER NOT NULL,
			param3 INTEGER NOT NULL,
			param4 INTEGER NOT NULL,
			param5 INTEGER NOT NULL,
			user_skill INTEGER NOT NULL,
			attempts INTEGER NOT NULL,
			level INTEGER NOT NULL,
			PRIMARY KEY (batch_id, id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_attempts_level ON attempts(batch_id, level, attempts);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// ImportRecords stores records under a new batch and returns its id.
func (s *Store) ImportRecords(ctx context.Context, source string, records []model.AttemptRecord) (batchID string, err error) {
	batchID = uuid.NewString()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO batches (id, source, imported_at) VALUES (?, ?, ?)`,
		batchID, source, s.now().UTC().Format(time.RFC3339Nano),
	); err != nil {
		return "", err
	}

	if len(records) > 0 {
		stmt, perr := tx.PrepareContext(ctx,
			`INSERT INTO attempts (batch_id, id, param1, param2, param3, param4, param5, user_skill, attempts, level)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if perr != nil {
			err = perr
			return "", err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for _, r := range records {
			if _, err = stmt.ExecContext(ctx, batchID, r.ID,
				r.Params[0], r.Params[1], r.Params[2], r.Params[3], r.Params[4],
				r.UserSkill, r.Attempts, r.Level); err != nil {
				err = fmt.Errorf("failed to insert record %d: %w", r.ID, err)
				return "", err
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return "", err
	}
	return batchID, nil
}

// ListRecords returns the records of a batch ordered by id. An empty
// batchID selects the most recent batch.
func (s *Store) ListRecords(ctx context.Context, batchID string) ([]model.AttemptRecord, error) {
	if batchID == "" {
		latest, err := s.latestBatchID(ctx)
		if err != nil {
			return nil, err
		}
		batchID = latest
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, param1, param2, param3, param4, param5, user_skill, attempts, level
		 FROM attempts
		 WHERE batch_id = ?
		 ORDER BY id ASC`, batchID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.AttemptRecord
	for rows.Next() {
		var r model.AttemptRecord
		if err := rows.Scan(&r.ID, &r.Params[0], &r.Params[1], &r.Params[2], &r.Params[3], &r.Params[4],
			&r.UserSkill, &r.Attempts, &r.Level); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ListBatches returns imports ordered from oldest to newest.
func (s *Store) ListBatches(ctx context.Context) ([]Batch, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT b.id, b.source, b.imported_at, COUNT(a.id)
		 FROM batches b
		 LEFT JOIN attempts a ON a.batch_id = b.id
		 GROUP BY b.id, b.source, b.imported_at
		 ORDER BY b.imported_at ASC, b.rowid ASC`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var batches []Batch
	for rows.Next() {
		var b Batch
		var importedAt string
		if err := rows.Scan(&b.ID, &b.Source, &importedAt, &b.Records); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, importedAt)
		if err != nil {
			return nil, err
		}
		b.ImportedAt = parsed
		batches = append(batches, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return batches, nil
}

func (s *Store) latestBatchID(ctx context.Context) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM batches ORDER BY imported_at DESC, rowid DESC LIMIT 1`).Scan(&id)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("no imported batches")
	}
	if err != nil {
		return "", err
	}
	return id, nil
}
