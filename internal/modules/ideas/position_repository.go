package ideas

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// PositionRepository handles position database operations
type PositionRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewPositionRepository creates a new position repository
func NewPositionRepository(db *sql.DB, log zerolog.Logger) *PositionRepository {
	return &PositionRepository{
		db:  db,
		log: log.With().Str("repo", "position").Logger(),
	}
}

// Create inserts a new position record
func (r *PositionRepository) Create(pos *Position) error {
	query := `
		INSERT INTO positions
		(id, idea_id, ticker, entry_price, quantity, entry_date, is_open,
		 exit_price, exit_date, exit_reason, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		pos.ID,
		pos.IdeaID,
		pos.Ticker,
		pos.EntryPrice,
		pos.Quantity,
		pos.EntryDate.Format(time.RFC3339),
		boolToInt(pos.IsOpen),
		nullFloat64Ptr(pos.ExitPrice),
		nullTimePtr(pos.ExitDate),
		nullStringPtr(pos.ExitReason),
		pos.CreatedAt.Format(time.RFC3339),
		pos.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to create position: %w", err)
	}

	r.log.Info().
		Str("position_id", pos.ID).
		Str("idea_id", pos.IdeaID).
		Str("ticker", pos.Ticker).
		Float64("quantity", pos.Quantity).
		Msg("Position created")

	return nil
}

// Update rewrites the ledger-owned position fields
func (r *PositionRepository) Update(pos *Position) error {
	query := `
		UPDATE positions SET
			entry_price = ?,
			quantity = ?,
			is_open = ?,
			exit_price = ?,
			exit_date = ?,
			exit_reason = ?,
			updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query,
		pos.EntryPrice,
		pos.Quantity,
		boolToInt(pos.IsOpen),
		nullFloat64Ptr(pos.ExitPrice),
		nullTimePtr(pos.ExitDate),
		nullStringPtr(pos.ExitReason),
		time.Now().Format(time.RFC3339),
		pos.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update position: %w", err)
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return ErrPositionNotFound
	}

	return nil
}

// GetByID returns a single position
func (r *PositionRepository) GetByID(positionID string) (*Position, error) {
	row := r.db.QueryRow(selectPositions+" WHERE id = ?", positionID)

	pos, err := scanPosition(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPositionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get position: %w", err)
	}

	return pos, nil
}

// GetByIdea returns all positions of one idea, oldest entry first
func (r *PositionRepository) GetByIdea(ideaID string) ([]Position, error) {
	rows, err := r.db.Query(selectPositions+" WHERE idea_id = ? ORDER BY entry_date ASC", ideaID)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	defer rows.Close()

	var result []Position
	for rows.Next() {
		pos, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		result = append(result, *pos)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating positions: %w", err)
	}

	return result, nil
}

// RecordExit stores one realized exit event
func (r *PositionRepository) RecordExit(rec *ExitRecord) error {
	query := `
		INSERT INTO position_exits
		(position_id, quantity, exit_price, realized_pnl, realized_return_pct,
		 reason, exit_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Exec(query,
		rec.PositionID,
		rec.Quantity,
		rec.ExitPrice,
		rec.RealizedPnL,
		rec.RealizedReturnPct,
		nullString(rec.Reason),
		rec.ExitDate.Format(time.RFC3339),
		time.Now().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to record exit: %w", err)
	}

	rec.ID, _ = result.LastInsertId()
	return nil
}

// GetExits returns the realized exit history of a position, oldest first
func (r *PositionRepository) GetExits(positionID string) ([]ExitRecord, error) {
	query := `
		SELECT id, position_id, quantity, exit_price, realized_pnl,
		       realized_return_pct, reason, exit_date, created_at
		FROM position_exits
		WHERE position_id = ?
		ORDER BY exit_date ASC
	`

	rows, err := r.db.Query(query, positionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query exits: %w", err)
	}
	defer rows.Close()

	var result []ExitRecord
	for rows.Next() {
		var rec ExitRecord
		var reason sql.NullString
		var exitDate, createdAt string

		if err := rows.Scan(
			&rec.ID,
			&rec.PositionID,
			&rec.Quantity,
			&rec.ExitPrice,
			&rec.RealizedPnL,
			&rec.RealizedReturnPct,
			&reason,
			&exitDate,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan exit: %w", err)
		}

		if reason.Valid {
			rec.Reason = reason.String
		}
		if rec.ExitDate, err = time.Parse(time.RFC3339, exitDate); err != nil {
			return nil, fmt.Errorf("failed to parse exit_date: %w", err)
		}
		if rec.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}

		result = append(result, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating exits: %w", err)
	}

	return result, nil
}

// DistinctTickers returns every ticker with at least one open position
func (r *PositionRepository) DistinctTickers() ([]string, error) {
	rows, err := r.db.Query("SELECT DISTINCT ticker FROM positions WHERE is_open = 1 ORDER BY ticker")
	if err != nil {
		return nil, fmt.Errorf("failed to query tickers: %w", err)
	}
	defer rows.Close()

	var tickers []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("failed to scan ticker: %w", err)
		}
		tickers = append(tickers, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tickers: %w", err)
	}

	return tickers, nil
}

const selectPositions = `
	SELECT id, idea_id, ticker, entry_price, quantity, entry_date, is_open,
	       exit_price, exit_date, exit_reason, created_at, updated_at
	FROM positions
`

func scanPosition(row rowScanner) (*Position, error) {
	var pos Position
	var isOpen int
	var entryDate, createdAt, updatedAt string
	var exitPrice sql.NullFloat64
	var exitDate, exitReason sql.NullString

	err := row.Scan(
		&pos.ID,
		&pos.IdeaID,
		&pos.Ticker,
		&pos.EntryPrice,
		&pos.Quantity,
		&entryDate,
		&isOpen,
		&exitPrice,
		&exitDate,
		&exitReason,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	pos.IsOpen = isOpen != 0

	if exitPrice.Valid {
		pos.ExitPrice = &exitPrice.Float64
	}
	if exitDate.Valid {
		t, err := time.Parse(time.RFC3339, exitDate.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse exit_date: %w", err)
		}
		pos.ExitDate = &t
	}
	if exitReason.Valid {
		pos.ExitReason = &exitReason.String
	}

	if pos.EntryDate, err = time.Parse(time.RFC3339, entryDate); err != nil {
		return nil, fmt.Errorf("failed to parse entry_date: %w", err)
	}
	if pos.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if pos.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return &pos, nil
}

// Helper functions for nullable types

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

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

func nullFloat64Ptr(val *float64) sql.NullFloat64 {
	if val == nil {
		return sql.NullFloat64{Valid: false}
	}
	return sql.NullFloat64{Float64: *val, Valid: true}
}

func nullTimePtr(val *time.Time) sql.NullString {
	if val == nil {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: val.Format(time.RFC3339), Valid: true}
}
