package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nhle/wtldr/internal/model"
)

// CreateIngestRun records the start of a pipeline run. If the run has no
// ID, a new UUID is generated.
func (s *SQLiteStore) CreateIngestRun(ctx context.Context, run model.IngestRun) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ingest_runs (id, started_at) VALUES (?, ?)`,
		run.ID, formatTimestamp(run.StartedAt.UTC()),
	)
	if err != nil {
		return fmt.Errorf("creating ingest run %s: %w", run.ID, err)
	}
	return nil
}

// FinishIngestRun stores the outcome of a run created by CreateIngestRun.
func (s *SQLiteStore) FinishIngestRun(ctx context.Context, run model.IngestRun) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE ingest_runs SET
			finished_at = ?, messages_seen = ?, messages_inserted = ?,
			summaries_added = ?, segment_failures = ?, error = ?
		WHERE id = ?`,
		formatTimestamp(run.FinishedAt.UTC()), run.MessagesSeen, run.MessagesInserted,
		run.SummariesAdded, run.SegmentFailures, run.Error,
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("finishing ingest run %s: %w", run.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finishing ingest run %s: run not found", run.ID)
	}
	return nil
}

// GetIngestRuns returns the most recent runs first. A limit of zero or
// less returns every run.
func (s *SQLiteStore) GetIngestRuns(ctx context.Context, limit int) ([]model.IngestRun, error) {
	query := `
		SELECT id, started_at, finished_at, messages_seen, messages_inserted,
			summaries_added, segment_failures, error
		FROM ingest_runs
		ORDER BY started_at DESC, rowid DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying ingest runs: %w", err)
	}
	defer rows.Close()

	var runs []model.IngestRun
	for rows.Next() {
		run, err := scanIngestRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// scanIngestRun scans an ingest run row from a sqlx.Rows result set.
func scanIngestRun(rows *sqlx.Rows) (model.IngestRun, error) {
	var (
		run        model.IngestRun
		startedAt  string
		finishedAt string
	)

	err := rows.Scan(
		&run.ID, &startedAt, &finishedAt,
		&run.MessagesSeen, &run.MessagesInserted,
		&run.SummariesAdded, &run.SegmentFailures, &run.Error,
	)
	if err != nil {
		return model.IngestRun{}, fmt.Errorf("scanning ingest run row: %w", err)
	}

	if run.StartedAt, err = parseTimestamp(startedAt); err != nil {
		return model.IngestRun{}, fmt.Errorf("parsing started_at of run %s: %w", run.ID, err)
	}
	if run.FinishedAt, err = parseTimestamp(finishedAt); err != nil {
		return model.IngestRun{}, fmt.Errorf("parsing finished_at of run %s: %w", run.ID, err)
	}

	return run, nil
}
