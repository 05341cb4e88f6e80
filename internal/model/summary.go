package model

import "time"

// SummaryKind identifies the newsletter layout a summary was segmented from.
type SummaryKind string

const (
	SummaryKindTLDR SummaryKind = "tldr"
)

// Summary is one article entry extracted from a Message body.
type Summary struct {
	// ID is assigned by the store; zero until persisted.
	ID int64 `json:"id"`

	// SourceMessageID references the Message this summary came from.
	SourceMessageID int64 `json:"source_message_id"`

	// Text is the title line, metadata and paragraph.
	Text string `json:"text"`

	// URL is the article link resolved from the message's link table.
	URL string `json:"url"`

	Kind      SummaryKind `json:"kind"`
	Processed bool        `json:"processed"`
}

// IngestRun records one pass of the fetch and extract pipeline.
type IngestRun struct {
	ID               string    `json:"id"`
	StartedAt        time.Time `json:"started_at"`
	FinishedAt       time.Time `json:"finished_at,omitempty"`
	MessagesSeen     int       `json:"messages_seen"`
	MessagesInserted int       `json:"messages_inserted"`
	SummariesAdded   int       `json:"summaries_added"`
	SegmentFailures  int       `json:"segment_failures"`
	Error            string    `json:"error,omitempty"`
}
