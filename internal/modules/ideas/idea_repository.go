package ideas

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// IdeaRepository handles idea database operations
type IdeaRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewIdeaRepository creates a new idea repository
func NewIdeaRepository(db *sql.DB, log zerolog.Logger) *IdeaRepository {
	return &IdeaRepository{
		db:  db,
		log: log.With().Str("repo", "idea").Logger(),
	}
}

// Create inserts a new idea record
func (r *IdeaRepository) Create(idea *Idea) error {
	tickersJSON, err := json.Marshal(idea.Tickers)
	if err != nil {
		return fmt.Errorf("failed to marshal tickers: %w", err)
	}

	query := `
		INSERT INTO ideas
		(id, type, status, thesis, expected_timeframe_days, target_return_pct,
		 fundamental_health, tickers_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		idea.ID,
		string(idea.Type),
		string(idea.Status),
		idea.Thesis,
		idea.ExpectedTimeframeDays,
		idea.TargetReturnPct,
		string(idea.FundamentalHealth),
		string(tickersJSON),
		idea.CreatedAt.Format(time.RFC3339),
		idea.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to create idea: %w", err)
	}

	r.log.Info().Str("idea_id", idea.ID).Str("type", string(idea.Type)).Msg("Idea created")
	return nil
}

// Update rewrites the mutable idea fields
func (r *IdeaRepository) Update(idea *Idea) error {
	tickersJSON, err := json.Marshal(idea.Tickers)
	if err != nil {
		return fmt.Errorf("failed to marshal tickers: %w", err)
	}

	query := `
		UPDATE ideas SET
			type = ?,
			status = ?,
			thesis = ?,
			expected_timeframe_days = ?,
			target_return_pct = ?,
			fundamental_health = ?,
			tickers_json = ?,
			updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query,
		string(idea.Type),
		string(idea.Status),
		idea.Thesis,
		idea.ExpectedTimeframeDays,
		idea.TargetReturnPct,
		string(idea.FundamentalHealth),
		string(tickersJSON),
		time.Now().Format(time.RFC3339),
		idea.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update idea: %w", err)
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return ErrIdeaNotFound
	}

	return nil
}

// UpdateStatus stores a recomputed lifecycle status
func (r *IdeaRepository) UpdateStatus(ideaID string, status Status) error {
	query := "UPDATE ideas SET status = ?, updated_at = ? WHERE id = ?"

	result, err := r.db.Exec(query, string(status), time.Now().Format(time.RFC3339), ideaID)
	if err != nil {
		return fmt.Errorf("failed to update idea status: %w", err)
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return ErrIdeaNotFound
	}

	r.log.Debug().Str("idea_id", ideaID).Str("status", string(status)).Msg("Idea status updated")
	return nil
}

// Delete removes an idea; positions cascade
func (r *IdeaRepository) Delete(ideaID string) error {
	result, err := r.db.Exec("DELETE FROM ideas WHERE id = ?", ideaID)
	if err != nil {
		return fmt.Errorf("failed to delete idea: %w", err)
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return ErrIdeaNotFound
	}

	r.log.Info().Str("idea_id", ideaID).Msg("Idea deleted")
	return nil
}

// GetByID returns a single idea without positions attached
func (r *IdeaRepository) GetByID(ideaID string) (*Idea, error) {
	row := r.db.QueryRow("SELECT id, type, status, thesis, expected_timeframe_days, target_return_pct, fundamental_health, tickers_json, created_at, updated_at FROM ideas WHERE id = ?", ideaID)

	idea, err := scanIdea(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrIdeaNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get idea: %w", err)
	}

	return idea, nil
}

// List returns ideas created within the last N days, newest first.
// days <= 0 returns everything.
func (r *IdeaRepository) List(days int) ([]Idea, error) {
	query := `
		SELECT id, type, status, thesis, expected_timeframe_days, target_return_pct,
		       fundamental_health, tickers_json, created_at, updated_at
		FROM ideas
	`
	args := []interface{}{}
	if days > 0 {
		query += " WHERE created_at >= ?"
		cutoff := time.Now().AddDate(0, 0, -days).Format(time.RFC3339)
		args = append(args, cutoff)
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ideas: %w", err)
	}
	defer rows.Close()

	var result []Idea
	for rows.Next() {
		idea, err := scanIdea(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan idea: %w", err)
		}
		result = append(result, *idea)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ideas: %w", err)
	}

	return result, nil
}

// Count returns the total number of ideas created within the last N days.
func (r *IdeaRepository) Count(days int) (int, error) {
	query := "SELECT COUNT(*) FROM ideas"
	args := []interface{}{}
	if days > 0 {
		query += " WHERE created_at >= ?"
		args = append(args, time.Now().AddDate(0, 0, -days).Format(time.RFC3339))
	}

	var count int
	if err := r.db.QueryRow(query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count ideas: %w", err)
	}

	return count, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanIdea(row rowScanner) (*Idea, error) {
	var idea Idea
	var typeStr, statusStr, healthStr, tickersJSON string
	var createdAt, updatedAt string

	err := row.Scan(
		&idea.ID,
		&typeStr,
		&statusStr,
		&idea.Thesis,
		&idea.ExpectedTimeframeDays,
		&idea.TargetReturnPct,
		&healthStr,
		&tickersJSON,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	idea.Type = IdeaType(typeStr)
	idea.Status = Status(statusStr)
	idea.FundamentalHealth = FundamentalHealth(healthStr)

	if err := json.Unmarshal([]byte(tickersJSON), &idea.Tickers); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tickers: %w", err)
	}
	if idea.Tickers == nil {
		idea.Tickers = []string{}
	}

	if idea.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if idea.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return &idea, nil
}
