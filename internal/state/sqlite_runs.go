package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrRunNotFound is returned by GetRun for an unknown id.
var ErrRunNotFound = errors.New("run not found")

const runColumns = `r.id, r.command, r.document, r.environment, r.status,
	r.started_at, r.completed_at, r.error,
	(SELECT COUNT(*) FROM run_discrepancies d WHERE d.run_id = r.id)`

// RecordRun stores run and its discrepancies in one transaction. An empty
// ID is replaced with a new one.
func (s *SQLiteStore) RecordRun(ctx context.Context, run *Run) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	if run.ID == "" {
		run.ID = generateID()
	}
	if run.CompletedAt.IsZero() {
		run.CompletedAt = time.Now()
	}

	s.logger.Debug("recording run",
		slog.String("id", run.ID),
		slog.String("status", string(run.Status)),
		slog.Int("discrepancies", len(run.Discrepancies)))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var errMsg *string
	if run.Error != "" {
		errMsg = &run.Error
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, command, document, environment, status, started_at, completed_at, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Command, run.Document, run.Environment, string(run.Status),
		run.StartedAt.UTC(), run.CompletedAt.UTC(), errMsg,
	); err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO run_discrepancies (run_id, position, code, tbl, message) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, d := range run.Discrepancies {
		if _, err := stmt.ExecContext(ctx, run.ID, i, d.Code, d.Table, d.Message); err != nil {
			return fmt.Errorf("failed to insert discrepancy: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	run.DiscrepancyCount = len(run.Discrepancies)
	return nil
}

// GetRun retrieves a run by ID together with its discrepancies.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	run, err := scanRun(s.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM runs r WHERE r.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT code, tbl, message FROM run_discrepancies WHERE run_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get discrepancies: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var d RunDiscrepancy
		if err := rows.Scan(&d.Code, &d.Table, &d.Message); err != nil {
			return nil, fmt.Errorf("failed to scan discrepancy: %w", err)
		}
		run.Discrepancies = append(run.Discrepancies, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get discrepancies: %w", err)
	}
	return run, nil
}

// ListRuns retrieves the most recent runs, newest first, up to limit.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs r ORDER BY r.started_at DESC, r.rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// GetLatestRun retrieves the most recent run of document. It returns nil
// without error when the document has no runs.
func (s *SQLiteStore) GetLatestRun(ctx context.Context, document string) (*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	run, err := scanRun(s.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM runs r WHERE r.document = ?
		 ORDER BY r.started_at DESC, r.rowid DESC LIMIT 1`, document))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}
	return run, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	run := &Run{}
	var status string
	var errMsg sql.NullString
	if err := row.Scan(&run.ID, &run.Command, &run.Document, &run.Environment, &status,
		&run.StartedAt, &run.CompletedAt, &errMsg, &run.DiscrepancyCount); err != nil {
		return nil, err
	}
	run.Status = RunStatus(status)
	if errMsg.Valid {
		run.Error = errMsg.String
	}
	return run, nil
}
