package store

import (
	"context"

	"github.com/nhle/wtldr/internal/model"
)

// Store defines the persistence interface for newsletter messages, their
// extracted summaries, and ingest run bookkeeping.
type Store interface {
	// === Messages ===

	// InsertMessage stores m under m.ID. It returns false without
	// modifying anything when a message with that ID already exists.
	InsertMessage(ctx context.Context, m model.Message) (bool, error)
	GetMessages(ctx context.Context, ids []int64) ([]model.Message, error)
	GetUnprocessedMessages(ctx context.Context) ([]model.Message, error)

	// === Summaries ===

	// AddSummary inserts s with a store-assigned ID; s.ID is ignored.
	AddSummary(ctx context.Context, s model.Summary) error

	// AddSummaries inserts all summaries for messageID and marks the
	// message processed in a single transaction.
	AddSummaries(ctx context.Context, messageID int64, summaries []model.Summary) error
	GetUnprocessedSummaries(ctx context.Context, kind model.SummaryKind) ([]model.Summary, error)
	MarkSummariesProcessed(ctx context.Context, ids []int64) error

	// === Ingest runs ===

	CreateIngestRun(ctx context.Context, run model.IngestRun) error
	FinishIngestRun(ctx context.Context, run model.IngestRun) error
	GetIngestRuns(ctx context.Context, limit int) ([]model.IngestRun, error)
}
