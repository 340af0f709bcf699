package ideas

// Schema holds the ideas module tables. Positions cascade with their idea;
// exit records cascade with their position.
const Schema = `
CREATE TABLE IF NOT EXISTS ideas (
    id TEXT PRIMARY KEY,
    type TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'watching',
    thesis TEXT NOT NULL DEFAULT '',
    expected_timeframe_days INTEGER NOT NULL DEFAULT 0,
    target_return_pct REAL NOT NULL DEFAULT 0,
    fundamental_health TEXT NOT NULL DEFAULT 'healthy',
    tickers_json TEXT NOT NULL DEFAULT '[]',
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS positions (
    id TEXT PRIMARY KEY,
    idea_id TEXT NOT NULL REFERENCES ideas(id) ON DELETE CASCADE,
    ticker TEXT NOT NULL,
    entry_price REAL NOT NULL,
    quantity REAL NOT NULL,
    entry_date TEXT NOT NULL,
    is_open INTEGER NOT NULL DEFAULT 1,
    exit_price REAL,
    exit_date TEXT,
    exit_reason TEXT,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS position_exits (
    id INTEGER PRIMARY KEY,
    position_id TEXT NOT NULL REFERENCES positions(id) ON DELETE CASCADE,
    quantity REAL NOT NULL,
    exit_price REAL NOT NULL,
    realized_pnl REAL NOT NULL,
    realized_return_pct REAL NOT NULL,
    reason TEXT,
    exit_date TEXT NOT NULL,
    created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_ideas_created ON ideas(created_at);
CREATE INDEX IF NOT EXISTS idx_positions_idea ON positions(idea_id);
CREATE INDEX IF NOT EXISTS idx_position_exits_position ON position_exits(position_id);
`
