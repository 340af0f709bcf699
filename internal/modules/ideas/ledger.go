package ideas

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Johnhyeon/stock-tracker-sub001/pkg/formulas"
)

// Cost-basis ledger: pure operations over Position values. Validation always
// precedes any change; callers persist the returned values.

// OpenPosition creates a new open position for an idea.
func OpenPosition(ideaID, ticker string, price, quantity float64, date time.Time) (Position, error) {
	if price <= 0 {
		return Position{}, ErrInvalidPrice
	}
	if quantity <= 0 {
		return Position{}, ErrInvalidQuantity
	}

	now := time.Now()
	return Position{
		ID:         uuid.NewString(),
		IdeaID:     ideaID,
		Ticker:     strings.ToUpper(strings.TrimSpace(ticker)),
		EntryPrice: price,
		Quantity:   quantity,
		EntryDate:  date,
		IsOpen:     true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// AddBuy adds a lot to an open position and recomputes the weighted-average
// entry price. The average retains full precision; only display layers round.
func AddBuy(p Position, price, quantity float64, date time.Time) (Position, error) {
	if price <= 0 {
		return Position{}, ErrInvalidPrice
	}
	if quantity <= 0 {
		return Position{}, ErrInvalidQuantity
	}
	if !p.IsOpen {
		return Position{}, ErrPositionNotFound
	}

	p.EntryPrice = formulas.WeightedAveragePrice(p.EntryPrice, p.Quantity, price, quantity)
	p.Quantity += quantity
	p.UpdatedAt = time.Now()
	return p, nil
}

// ExitResult is the outcome of a partial or full exit.
type ExitResult struct {
	Position          Position
	RealizedPnL       float64
	RealizedReturnPct float64
	Closed            bool
}

// PartialExit sells quantitySold at exitPrice. Realized P&L is computed
// against the average entry price at the moment of exit, not any single lot.
// Selling the entire open quantity closes the position.
func PartialExit(p Position, exitPrice, quantitySold float64, date time.Time, reason string) (ExitResult, error) {
	if quantitySold <= 0 {
		return ExitResult{}, ErrInvalidQuantity
	}
	if quantitySold > p.Quantity {
		return ExitResult{}, ErrInsufficientQuantity
	}
	if !p.IsOpen {
		return ExitResult{}, ErrPositionNotFound
	}

	realizedPnL := (exitPrice - p.EntryPrice) * quantitySold
	realizedPct := 0.0
	if pct := formulas.PercentChange(p.EntryPrice, exitPrice); pct != nil {
		realizedPct = *pct
	}

	p.Quantity -= quantitySold
	p.UpdatedAt = time.Now()

	closed := p.Quantity == 0
	if closed {
		p.IsOpen = false
		p.ExitPrice = &exitPrice
		exitDate := date
		p.ExitDate = &exitDate
		if reason != "" {
			p.ExitReason = &reason
		}
	}

	return ExitResult{
		Position:          p,
		RealizedPnL:       realizedPnL,
		RealizedReturnPct: realizedPct,
		Closed:            closed,
	}, nil
}

// FullExit closes the position entirely at exitPrice.
func FullExit(p Position, exitPrice float64, date time.Time, reason string) (ExitResult, error) {
	return PartialExit(p, exitPrice, p.Quantity, date, reason)
}

// UnrealizedReturnPct returns the open return against currentPrice.
// An unknown price propagates as nil, never coerced to zero.
func UnrealizedReturnPct(p Position, currentPrice *float64) *float64 {
	if currentPrice == nil {
		return nil
	}
	return formulas.PercentChange(p.EntryPrice, *currentPrice)
}
