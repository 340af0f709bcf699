package ideas

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Johnhyeon/stock-tracker-sub001/internal/events"
)

// Service orchestrates idea and position mutations: ledger validation first,
// persistence second, lifecycle status recompute last.
type Service struct {
	ideas     *IdeaRepository
	positions *PositionRepository
	events    *events.Manager
	log       zerolog.Logger
	now       func() time.Time
}

// NewService creates a new ideas service
func NewService(ideas *IdeaRepository, positions *PositionRepository, ev *events.Manager, log zerolog.Logger) *Service {
	return &Service{
		ideas:     ideas,
		positions: positions,
		events:    ev,
		log:       log.With().Str("service", "ideas").Logger(),
		now:       time.Now,
	}
}

// CreateIdeaInput carries the user-entered idea fields.
type CreateIdeaInput struct {
	Type                  IdeaType          `json:"type"`
	Thesis                string            `json:"thesis"`
	ExpectedTimeframeDays int               `json:"expected_timeframe_days"`
	TargetReturnPct       float64           `json:"target_return_pct"`
	FundamentalHealth     FundamentalHealth `json:"fundamental_health"`
	Tickers               []string          `json:"tickers"`
}

// CreateIdea records a new idea in the watching state.
func (s *Service) CreateIdea(input CreateIdeaInput) (*Idea, error) {
	now := s.now()

	if input.FundamentalHealth == "" {
		input.FundamentalHealth = HealthHealthy
	}

	idea := &Idea{
		ID:                    uuid.NewString(),
		Type:                  input.Type,
		Status:                StatusWatching,
		Thesis:                input.Thesis,
		ExpectedTimeframeDays: input.ExpectedTimeframeDays,
		TargetReturnPct:       input.TargetReturnPct,
		FundamentalHealth:     input.FundamentalHealth,
		Tickers:               input.Tickers,
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	if err := idea.Validate(); err != nil {
		return nil, err
	}

	if err := s.ideas.Create(idea); err != nil {
		return nil, err
	}

	s.events.Emit(events.IdeaCreated, "ideas", map[string]interface{}{
		"idea_id": idea.ID,
		"type":    string(idea.Type),
	})

	return s.decorate(idea)
}

// UpdateIdea rewrites the user-editable fields; lifecycle status is owned by
// the machine and never taken from input.
func (s *Service) UpdateIdea(ideaID string, input CreateIdeaInput) (*Idea, error) {
	idea, err := s.ideas.GetByID(ideaID)
	if err != nil {
		return nil, err
	}

	idea.Type = input.Type
	idea.Thesis = input.Thesis
	idea.ExpectedTimeframeDays = input.ExpectedTimeframeDays
	idea.TargetReturnPct = input.TargetReturnPct
	if input.FundamentalHealth != "" {
		idea.FundamentalHealth = input.FundamentalHealth
	}

	// An update can rewrite the ticker list but never lose an instrument the
	// idea has held; positions keep their tickers on the list.
	positions, err := s.positions.GetByIdea(idea.ID)
	if err != nil {
		return nil, err
	}
	idea.Tickers = input.Tickers
	for _, pos := range positions {
		if !idea.HasTicker(pos.Ticker) {
			idea.Tickers = append(idea.Tickers, pos.Ticker)
		}
	}

	if err := idea.Validate(); err != nil {
		return nil, err
	}

	if err := s.ideas.Update(idea); err != nil {
		return nil, err
	}

	s.events.Emit(events.IdeaUpdated, "ideas", map[string]interface{}{"idea_id": idea.ID})

	return s.decorate(idea)
}

// DeleteIdea removes the idea and, through the cascade, its positions.
func (s *Service) DeleteIdea(ideaID string) error {
	if err := s.ideas.Delete(ideaID); err != nil {
		return err
	}

	s.events.Emit(events.IdeaDeleted, "ideas", map[string]interface{}{"idea_id": ideaID})
	return nil
}

// GetIdea returns one idea with positions and cooldown attached.
func (s *Service) GetIdea(ideaID string) (*Idea, error) {
	idea, err := s.ideas.GetByID(ideaID)
	if err != nil {
		return nil, err
	}
	return s.decorate(idea)
}

// ListIdeas returns ideas created within the last N days, positions attached,
// newest first. days <= 0 returns everything.
func (s *Service) ListIdeas(days int) ([]Idea, int, error) {
	list, err := s.ideas.List(days)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.ideas.Count(days)
	if err != nil {
		return nil, 0, err
	}

	result := make([]Idea, 0, len(list))
	for i := range list {
		decorated, err := s.decorate(&list[i])
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *decorated)
	}

	return result, total, nil
}

// PositionSpec carries the fields of one buy event.
type PositionSpec struct {
	Ticker   string    `json:"ticker"`
	Price    float64   `json:"price"`
	Quantity float64   `json:"quantity"`
	Date     time.Time `json:"date"`
}

// OpenPosition opens the first or an additional position under an idea.
// The cooldown is advisory only and never blocks this.
func (s *Service) OpenPosition(ideaID string, spec PositionSpec) (*Position, error) {
	idea, err := s.ideas.GetByID(ideaID)
	if err != nil {
		return nil, err
	}

	// An open position means the idea is active. Refuse before any row
	// changes when the lifecycle forbids moving there.
	if !CanTransition(idea.Status, StatusActive) {
		return nil, fmt.Errorf("%w: idea %s is %s and cannot take new positions", ErrInvalidInput, idea.ID, idea.Status)
	}

	if spec.Date.IsZero() {
		spec.Date = s.now()
	}

	pos, err := OpenPosition(idea.ID, spec.Ticker, spec.Price, spec.Quantity, spec.Date)
	if err != nil {
		return nil, err
	}

	if err := s.positions.Create(&pos); err != nil {
		return nil, err
	}

	// The idea's ticker list tracks every instrument it ever held.
	if !idea.HasTicker(pos.Ticker) {
		idea.Tickers = append(idea.Tickers, pos.Ticker)
		if err := s.ideas.Update(idea); err != nil {
			return nil, err
		}
	}

	if err := s.recomputeStatus(idea); err != nil {
		return nil, err
	}

	s.events.Emit(events.PositionOpened, "ideas", map[string]interface{}{
		"idea_id":     idea.ID,
		"position_id": pos.ID,
		"ticker":      pos.Ticker,
	})

	return &pos, nil
}

// BuySpec carries the fields of an add-buy.
type BuySpec struct {
	Price    float64   `json:"price"`
	Quantity float64   `json:"quantity"`
	Date     time.Time `json:"date"`
}

// AddBuy adds a lot to an open position and persists the new average.
func (s *Service) AddBuy(positionID string, spec BuySpec) (*Position, error) {
	pos, err := s.positions.GetByID(positionID)
	if err != nil {
		return nil, err
	}

	if spec.Date.IsZero() {
		spec.Date = s.now()
	}

	updated, err := AddBuy(*pos, spec.Price, spec.Quantity, spec.Date)
	if err != nil {
		return nil, err
	}

	if err := s.positions.Update(&updated); err != nil {
		return nil, err
	}

	s.events.Emit(events.BuyAdded, "ideas", map[string]interface{}{
		"position_id": updated.ID,
		"entry_price": updated.EntryPrice,
		"quantity":    updated.Quantity,
	})

	return &updated, nil
}

// ExitSpec carries the fields of a partial or full exit.
// A nil Quantity means full exit.
type ExitSpec struct {
	Price    float64   `json:"price"`
	Quantity *float64  `json:"quantity,omitempty"`
	Date     time.Time `json:"date"`
	Reason   string    `json:"reason"`
}

// ExitOutcome is what a partial or full exit produced.
type ExitOutcome struct {
	Position          Position `json:"position"`
	RealizedPnL       float64  `json:"realized_pnl"`
	RealizedReturnPct float64  `json:"realized_return_pct"`
	Closed            bool     `json:"closed"`
	IdeaStatus        Status   `json:"idea_status"`
}

// ExitPosition sells part or all of a position. Ledger validation happens
// before any row changes; the owning idea's status is recomputed afterward.
func (s *Service) ExitPosition(positionID string, spec ExitSpec) (*ExitOutcome, error) {
	pos, err := s.positions.GetByID(positionID)
	if err != nil {
		return nil, err
	}

	if spec.Date.IsZero() {
		spec.Date = s.now()
	}

	var result ExitResult
	if spec.Quantity == nil {
		result, err = FullExit(*pos, spec.Price, spec.Date, spec.Reason)
	} else {
		result, err = PartialExit(*pos, spec.Price, *spec.Quantity, spec.Date, spec.Reason)
	}
	if err != nil {
		return nil, err
	}

	if err := s.positions.Update(&result.Position); err != nil {
		return nil, err
	}

	soldQty := pos.Quantity - result.Position.Quantity
	if err := s.positions.RecordExit(&ExitRecord{
		PositionID:        pos.ID,
		Quantity:          soldQty,
		ExitPrice:         spec.Price,
		RealizedPnL:       result.RealizedPnL,
		RealizedReturnPct: result.RealizedReturnPct,
		Reason:            spec.Reason,
		ExitDate:          spec.Date,
	}); err != nil {
		return nil, err
	}

	idea, err := s.ideas.GetByID(pos.IdeaID)
	if err != nil {
		return nil, err
	}
	if err := s.recomputeStatus(idea); err != nil {
		return nil, err
	}

	eventType := events.PositionPartialExit
	if result.Closed {
		eventType = events.PositionExited
	}
	s.events.Emit(eventType, "ideas", map[string]interface{}{
		"position_id":  pos.ID,
		"idea_id":      pos.IdeaID,
		"realized_pnl": result.RealizedPnL,
	})

	return &ExitOutcome{
		Position:          result.Position,
		RealizedPnL:       result.RealizedPnL,
		RealizedReturnPct: result.RealizedReturnPct,
		Closed:            result.Closed,
		IdeaStatus:        idea.Status,
	}, nil
}

// GetExitHistory returns the realized exits of one position.
func (s *Service) GetExitHistory(positionID string) ([]ExitRecord, error) {
	if _, err := s.positions.GetByID(positionID); err != nil {
		return nil, err
	}
	return s.positions.GetExits(positionID)
}

// recomputeStatus derives the status from positions and stores it when it
// moved, refusing illegal jumps.
func (s *Service) recomputeStatus(idea *Idea) error {
	positions, err := s.positions.GetByIdea(idea.ID)
	if err != nil {
		return err
	}

	next := DeriveStatus(positions)
	if next == idea.Status {
		return nil
	}
	if !CanTransition(idea.Status, next) {
		return fmt.Errorf("illegal status transition %s -> %s for idea %s", idea.Status, next, idea.ID)
	}

	if err := s.ideas.UpdateStatus(idea.ID, next); err != nil {
		return err
	}
	idea.Status = next

	s.log.Info().
		Str("idea_id", idea.ID).
		Str("status", string(next)).
		Msg("Idea status transitioned")

	return nil
}

// decorate attaches positions and the advisory cooldown to an idea.
func (s *Service) decorate(idea *Idea) (*Idea, error) {
	positions, err := s.positions.GetByIdea(idea.ID)
	if err != nil {
		return nil, err
	}
	idea.Positions = positions

	if remaining := CooldownRemaining(*idea, positions, s.now()); remaining > 0 {
		sec := int64(remaining.Seconds())
		idea.CooldownRemainingSec = &sec
	}

	return idea, nil
}
