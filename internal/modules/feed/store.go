package feed

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// StorageKey is the fixed identifier of the persisted filter snapshot.
const StorageKey = "unified-feed-filters"

// Store persists the filter snapshot
type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewStore creates a new filter store
func NewStore(db *sql.DB, log zerolog.Logger) *Store {
	return &Store{
		db:  db,
		log: log.With().Str("repo", "feed_filters").Logger(),
	}
}

// Save writes the full state under the fixed key.
func (s *Store) Save(f FilterState) error {
	stateJSON, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to marshal filter state: %w", err)
	}

	query := `
		INSERT INTO feed_filters (storage_key, state_json, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(storage_key) DO UPDATE SET
			state_json = excluded.state_json,
			updated_at = excluded.updated_at
	`

	if _, err := s.db.Exec(query, StorageKey, string(stateJSON), time.Now().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("failed to save filter state: %w", err)
	}

	return nil
}

// Load returns the persisted snapshot, or nil when none exists.
func (s *Store) Load() (*FilterState, error) {
	var stateJSON string
	err := s.db.QueryRow("SELECT state_json FROM feed_filters WHERE storage_key = ?", StorageKey).Scan(&stateJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load filter state: %w", err)
	}

	var f FilterState
	if err := json.Unmarshal([]byte(stateJSON), &f); err != nil {
		return nil, fmt.Errorf("failed to unmarshal filter state: %w", err)
	}

	f.Normalize()
	return &f, nil
}
