package ideas

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// IdeaType distinguishes research-driven theses from chart-driven ones.
type IdeaType string

const (
	IdeaTypeResearch IdeaType = "research"
	IdeaTypeChart    IdeaType = "chart"
)

// IsValid checks if the idea type is valid
func (t IdeaType) IsValid() bool {
	return t == IdeaTypeResearch || t == IdeaTypeChart
}

// Status is the lifecycle state of an idea.
type Status string

const (
	StatusWatching Status = "watching"
	StatusActive   Status = "active"
	StatusExited   Status = "exited"
)

// IsValid checks if the status is valid
func (s Status) IsValid() bool {
	return s == StatusWatching || s == StatusActive || s == StatusExited
}

// FundamentalHealth is an assessment of the underlying business thesis.
type FundamentalHealth string

const (
	HealthHealthy       FundamentalHealth = "healthy"
	HealthDeteriorating FundamentalHealth = "deteriorating"
	HealthBroken        FundamentalHealth = "broken"
)

// IsValid checks if the health value is valid
func (h FundamentalHealth) IsValid() bool {
	return h == HealthHealthy || h == HealthDeteriorating || h == HealthBroken
}

// Sentinel errors for the cost-basis ledger and lookups.
var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrInvalidPrice         = errors.New("price must be positive")
	ErrInvalidQuantity      = errors.New("quantity must be positive")
	ErrInsufficientQuantity = errors.New("quantity sold exceeds open quantity")
	ErrIdeaNotFound         = errors.New("idea not found")
	ErrPositionNotFound     = errors.New("position not found")
)

// Idea is a tracked trading thesis, optionally backed by positions.
type Idea struct {
	ID                    string            `json:"id"`
	Type                  IdeaType          `json:"type"`
	Status                Status            `json:"status"`
	Thesis                string            `json:"thesis"`
	ExpectedTimeframeDays int               `json:"expected_timeframe_days"`
	TargetReturnPct       float64           `json:"target_return_pct"`
	FundamentalHealth     FundamentalHealth `json:"fundamental_health"`
	Tickers               []string          `json:"tickers"`
	CreatedAt             time.Time         `json:"created_at"`
	UpdatedAt             time.Time         `json:"updated_at"`

	// Populated by the service on reads, never stored.
	Positions            []Position `json:"positions,omitempty"`
	CooldownRemainingSec *int64     `json:"cooldown_remaining_seconds,omitempty"`
}

// Validate validates idea data and normalizes tickers.
func (i *Idea) Validate() error {
	if !i.Type.IsValid() {
		return fmt.Errorf("%w: unknown idea type %q", ErrInvalidInput, i.Type)
	}
	if !i.FundamentalHealth.IsValid() {
		return fmt.Errorf("%w: unknown fundamental health %q", ErrInvalidInput, i.FundamentalHealth)
	}
	if i.ExpectedTimeframeDays < 0 {
		return fmt.Errorf("%w: expected timeframe must be non-negative", ErrInvalidInput)
	}

	// Tickers stay ordered and unique within the idea.
	seen := make(map[string]bool, len(i.Tickers))
	normalized := make([]string, 0, len(i.Tickers))
	for _, t := range i.Tickers {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t == "" {
			return fmt.Errorf("%w: ticker cannot be empty", ErrInvalidInput)
		}
		if seen[t] {
			continue
		}
		seen[t] = true
		normalized = append(normalized, t)
	}
	i.Tickers = normalized

	return nil
}

// HasTicker reports whether the idea already references the instrument.
func (i *Idea) HasTicker(ticker string) bool {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	for _, t := range i.Tickers {
		if t == ticker {
			return true
		}
	}
	return false
}

// Position is a tracked holding in one instrument under one idea,
// with a weighted-average cost basis.
type Position struct {
	ID         string     `json:"id"`
	IdeaID     string     `json:"idea_id"`
	Ticker     string     `json:"ticker"`
	EntryPrice float64    `json:"entry_price"` // weighted average across buys
	Quantity   float64    `json:"quantity"`    // current open quantity
	EntryDate  time.Time  `json:"entry_date"`
	IsOpen     bool       `json:"is_open"`
	ExitPrice  *float64   `json:"exit_price,omitempty"`
	ExitDate   *time.Time `json:"exit_date,omitempty"`
	ExitReason *string    `json:"exit_reason,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// ExitRecord captures one realized partial or full exit.
// Kept for rendering history; the ledger never reads it back.
type ExitRecord struct {
	ID                int64     `json:"id"`
	PositionID        string    `json:"position_id"`
	Quantity          float64   `json:"quantity"`
	ExitPrice         float64   `json:"exit_price"`
	RealizedPnL       float64   `json:"realized_pnl"`
	RealizedReturnPct float64   `json:"realized_return_pct"`
	Reason            string    `json:"reason,omitempty"`
	ExitDate          time.Time `json:"exit_date"`
	CreatedAt         time.Time `json:"created_at"`
}
