package telegram

// Schema holds the local snapshot of ingested telegram ideas. The snapshot is
// refreshed by the sync job and exists for operational visibility; the feed
// always queries the live lister.
const Schema = `
CREATE TABLE IF NOT EXISTS telegram_ideas (
    id INTEGER PRIMARY KEY,
    source_type TEXT NOT NULL,
    stock_code TEXT,
    stock_name TEXT,
    sentiment TEXT,
    author TEXT,
    text TEXT NOT NULL DEFAULT '',
    hashtags_json TEXT NOT NULL DEFAULT '[]',
    original_date TEXT NOT NULL,
    synced_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_telegram_ideas_date ON telegram_ideas(original_date);
`
