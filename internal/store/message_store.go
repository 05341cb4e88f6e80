package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/nhle/wtldr/internal/model"
)

const messageColumns = "id, sender, subject, body, sent_at, processed"

// InsertMessage stores a message keyed by its mailbox ID. A message that
// is already stored is left untouched and false is returned.
func (s *SQLiteStore) InsertMessage(ctx context.Context, m model.Message) (bool, error) {
	if m.ID == 0 {
		return false, fmt.Errorf("inserting message: missing id")
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO messages (`+messageColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.Sender, m.Subject, m.Body,
		formatTimestamp(m.SentAt), boolToInt(m.Processed),
	)
	if err != nil {
		return false, fmt.Errorf("inserting message %d: %w", m.ID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("inserting message %d: %w", m.ID, err)
	}

	return n == 1, nil
}

// GetMessages retrieves the messages with the given IDs, ordered by ID.
// IDs that are not stored are skipped.
func (s *SQLiteStore) GetMessages(ctx context.Context, ids []int64) ([]model.Message, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(
		"SELECT "+messageColumns+" FROM messages WHERE id IN (?) ORDER BY id", ids,
	)
	if err != nil {
		return nil, fmt.Errorf("building message query: %w", err)
	}

	return s.queryMessages(ctx, s.db.Rebind(query), args...)
}

// GetUnprocessedMessages retrieves every message whose summaries have not
// been extracted yet, ordered by ID.
func (s *SQLiteStore) GetUnprocessedMessages(ctx context.Context) ([]model.Message, error) {
	return s.queryMessages(ctx,
		"SELECT "+messageColumns+" FROM messages WHERE processed = 0 ORDER BY id",
	)
}

func (s *SQLiteStore) queryMessages(ctx context.Context, query string, args ...interface{}) ([]model.Message, error) {
	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	var messages []model.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}

	return messages, rows.Err()
}

// scanMessage scans a message row from a sqlx.Rows result set.
func scanMessage(rows *sqlx.Rows) (model.Message, error) {
	var (
		m         model.Message
		sentAt    string
		processed int
	)

	err := rows.Scan(&m.ID, &m.Sender, &m.Subject, &m.Body, &sentAt, &processed)
	if err != nil {
		return model.Message{}, fmt.Errorf("scanning message row: %w", err)
	}

	m.SentAt, err = parseTimestamp(sentAt)
	if err != nil {
		return model.Message{}, fmt.Errorf("parsing sent_at of message %d: %w", m.ID, err)
	}
	m.Processed = processed != 0

	return m, nil
}
