package feed

// Schema holds the persisted filter snapshot. One row per storage key; the
// feed uses a single fixed key.
const Schema = `
CREATE TABLE IF NOT EXISTS feed_filters (
    storage_key TEXT PRIMARY KEY,
    state_json TEXT NOT NULL,
    updated_at TEXT NOT NULL
);
`
