package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/nhle/wtldr/internal/model"
)

const insertSummaryQuery = `
	INSERT INTO summaries (source_message_id, text, url, kind, processed)
	VALUES (?, ?, ?, ?, ?)`

// AddSummary inserts a summary. The store assigns the ID; s.ID is ignored.
func (s *SQLiteStore) AddSummary(ctx context.Context, sum model.Summary) error {
	_, err := s.db.ExecContext(ctx, insertSummaryQuery,
		sum.SourceMessageID, sum.Text, sum.URL, string(sum.Kind), boolToInt(sum.Processed),
	)
	if err != nil {
		return fmt.Errorf("adding summary for message %d: %w", sum.SourceMessageID, err)
	}
	return nil
}

// AddSummaries inserts the summaries extracted from one message and marks
// that message processed. Nothing is written if any step fails.
func (s *SQLiteStore) AddSummaries(
	ctx context.Context,
	messageID int64,
	summaries []model.Summary,
) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, insertSummaryQuery)
	if err != nil {
		return fmt.Errorf("preparing summary insert: %w", err)
	}
	defer stmt.Close()

	for i, sum := range summaries {
		_, err := stmt.ExecContext(ctx,
			messageID, sum.Text, sum.URL, string(sum.Kind), boolToInt(sum.Processed),
		)
		if err != nil {
			return fmt.Errorf("adding summary %d of message %d: %w", i, messageID, err)
		}
	}

	res, err := tx.ExecContext(ctx, "UPDATE messages SET processed = 1 WHERE id = ?", messageID)
	if err != nil {
		return fmt.Errorf("marking message %d processed: %w", messageID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("marking message %d processed: message not found", messageID)
	}

	return tx.Commit()
}

// GetUnprocessedSummaries retrieves the summaries of kind that have not
// been marked processed, in insertion order.
func (s *SQLiteStore) GetUnprocessedSummaries(
	ctx context.Context,
	kind model.SummaryKind,
) ([]model.Summary, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT id, source_message_id, text, url, kind, processed
		FROM summaries
		WHERE kind = ? AND processed = 0
		ORDER BY id`,
		string(kind),
	)
	if err != nil {
		return nil, fmt.Errorf("querying unprocessed summaries: %w", err)
	}
	defer rows.Close()

	var summaries []model.Summary
	for rows.Next() {
		sum, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, sum)
	}

	return summaries, rows.Err()
}

// MarkSummariesProcessed flags the given summaries as processed.
func (s *SQLiteStore) MarkSummariesProcessed(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	query, args, err := sqlx.In("UPDATE summaries SET processed = 1 WHERE id IN (?)", ids)
	if err != nil {
		return fmt.Errorf("building summary update: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, s.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("marking summaries processed: %w", err)
	}
	return nil
}

// scanSummary scans a summary row from a sqlx.Rows result set.
func scanSummary(rows *sqlx.Rows) (model.Summary, error) {
	var (
		sum       model.Summary
		kind      string
		processed int
	)

	err := rows.Scan(&sum.ID, &sum.SourceMessageID, &sum.Text, &sum.URL, &kind, &processed)
	if err != nil {
		return model.Summary{}, fmt.Errorf("scanning summary row: %w", err)
	}

	sum.Kind = model.SummaryKind(kind)
	sum.Processed = processed != 0

	return sum, nil
}
