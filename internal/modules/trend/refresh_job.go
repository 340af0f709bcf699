package trend

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/Johnhyeon/stock-tracker-sub001/internal/events"
)

const refreshTimeout = time.Minute

// TickerSource names the instruments whose sparklines are worth warming.
type TickerSource interface {
	DistinctTickers() ([]string, error)
}

// RefreshJob warms the sparkline cache for every held ticker so feed and
// idea views render without waiting on the analytics service.
type RefreshJob struct {
	service *Service
	tickers TickerSource
	events  *events.Manager
	days    int
	log     zerolog.Logger
}

// NewRefreshJob creates the sparkline refresh job
func NewRefreshJob(service *Service, tickers TickerSource, ev *events.Manager, days int, log zerolog.Logger) *RefreshJob {
	return &RefreshJob{
		service: service,
		tickers: tickers,
		events:  ev,
		days:    days,
		log:     log.With().Str("job", "sparkline_refresh").Logger(),
	}
}

// Name implements scheduler.Job
func (j *RefreshJob) Name() string {
	return "sparkline_refresh"
}

// Run refreshes the cache once.
func (j *RefreshJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	codes, err := j.tickers.DistinctTickers()
	if err != nil {
		return err
	}
	if len(codes) == 0 {
		return nil
	}

	if err := j.service.Warm(ctx, j.days, codes); err != nil {
		j.events.EmitError("trend", err, map[string]interface{}{"codes": len(codes)})
		return err
	}

	j.events.Emit(events.SparklinesRefreshed, "trend", map[string]interface{}{
		"codes": len(codes),
		"days":  j.days,
	})

	return nil
}
