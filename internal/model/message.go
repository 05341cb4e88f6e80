package model

import "time"

// Message is the normalized representation of one fetched newsletter email.
type Message struct {
	// ID is the mailbox identifier the message was fetched under. It is
	// the primary key once persisted; zero means unset.
	ID int64 `json:"id"`

	// Sender is the decoded From header display string.
	Sender string `json:"sender"`

	// Subject is the decoded Subject header.
	Subject string `json:"subject"`

	// Body is the plaintext body with its original line endings.
	Body string `json:"body"`

	// SentAt is the Date header as a naive timestamp. The source offset
	// is discarded and the value carries the UTC location.
	SentAt time.Time `json:"sent_at"`

	// Processed is set once summaries have been extracted.
	Processed bool `json:"processed"`
}
