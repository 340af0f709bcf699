package telegram

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Repository stores the local telegram idea snapshot
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new telegram snapshot repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "telegram").Logger(),
	}
}

// ReplaceAll swaps the snapshot for a fresh set of ideas in one transaction.
func (r *Repository) ReplaceAll(items []Idea) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM telegram_ideas"); err != nil {
		return fmt.Errorf("failed to clear snapshot: %w", err)
	}

	now := time.Now().Format(time.RFC3339)
	query := `
		INSERT INTO telegram_ideas
		(id, source_type, stock_code, stock_name, sentiment, author, text,
		 hashtags_json, original_date, synced_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	for _, item := range items {
		hashtagsJSON, err := json.Marshal(item.Hashtags)
		if err != nil {
			return fmt.Errorf("failed to marshal hashtags: %w", err)
		}

		var sentiment *string
		if item.Sentiment != nil {
			s := string(*item.Sentiment)
			sentiment = &s
		}

		if _, err := tx.Exec(query,
			item.ID,
			string(item.SourceType),
			nullStringPtr(item.StockCode),
			nullStringPtr(item.StockName),
			nullStringPtr(sentiment),
			nullString(item.Author),
			item.Text,
			string(hashtagsJSON),
			item.OriginalDate.Format(time.RFC3339),
			now,
		); err != nil {
			return fmt.Errorf("failed to insert telegram idea: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.log.Info().Int("count", len(items)).Msg("Telegram snapshot replaced")
	return nil
}

// Count returns the number of snapshotted ideas.
func (r *Repository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM telegram_ideas").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count telegram ideas: %w", err)
	}
	return count, nil
}

// LastSyncedAt returns the most recent snapshot time, nil when empty.
func (r *Repository) LastSyncedAt() (*time.Time, error) {
	var synced sql.NullString
	err := r.db.QueryRow("SELECT MAX(synced_at) FROM telegram_ideas").Scan(&synced)
	if err != nil {
		return nil, fmt.Errorf("failed to get last sync time: %w", err)
	}
	if !synced.Valid {
		return nil, nil
	}

	t, err := time.Parse(time.RFC3339, synced.String)
	if err != nil {
		return nil, fmt.Errorf("failed to parse synced_at: %w", err)
	}
	return &t, nil
}

// Helper functions for nullable types

func nullString(val string) sql.NullString {
	if val == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: val, Valid: true}
}

func nullStringPtr(val *string) sql.NullString {
	if val == nil {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: *val, Valid: true}
}
