package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
	id         INTEGER PRIMARY KEY,
	sender     TEXT NOT NULL,
	subject    TEXT NOT NULL DEFAULT '',
	body       TEXT NOT NULL,
	sent_at    TEXT NOT NULL,
	processed  INTEGER NOT NULL DEFAULT 0 CHECK(processed IN (0, 1)),
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS summaries (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	source_message_id INTEGER NOT NULL REFERENCES messages(id),
	text              TEXT NOT NULL,
	url               TEXT NOT NULL CHECK(url <> ''),
	kind              TEXT NOT NULL DEFAULT 'tldr',
	processed         INTEGER NOT NULL DEFAULT 0 CHECK(processed IN (0, 1)),
	created_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_messages_processed ON messages(processed);
CREATE INDEX IF NOT EXISTS idx_summaries_kind_processed ON summaries(kind, processed);
CREATE INDEX IF NOT EXISTS idx_summaries_source_message_id ON summaries(source_message_id);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE TABLE IF NOT EXISTS ingest_runs (
	id                TEXT PRIMARY KEY,
	started_at        TEXT NOT NULL,
	finished_at       TEXT NOT NULL DEFAULT '',
	messages_seen     INTEGER NOT NULL DEFAULT 0,
	messages_inserted INTEGER NOT NULL DEFAULT 0,
	summaries_added   INTEGER NOT NULL DEFAULT 0,
	segment_failures  INTEGER NOT NULL DEFAULT 0,
	error             TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_ingest_runs_started_at ON ingest_runs(started_at);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
