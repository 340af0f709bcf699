package trend

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Johnhyeon/stock-tracker-sub001/internal/clients/analytics"
	"github.com/Johnhyeon/stock-tracker-sub001/pkg/formulas"
)

const (
	cacheTTL  = 10 * time.Minute
	smaPeriod = 5
)

// Sparkline is a rendering-ready series for one stock code.
type Sparkline struct {
	StockCode  string       `json:"stock_code"`
	StockName  string       `json:"stock_name,omitempty"`
	Points     []PricePoint `json:"points"`
	ChangePct  *float64     `json:"change_pct,omitempty"`
	SMA        []float64    `json:"sma,omitempty"`
	Volatility float64      `json:"volatility"`
}

// TrendResult is the "since the idea was recorded" view for one code.
type TrendResult struct {
	StockCode string  `json:"stock_code"`
	StockName string  `json:"stock_name,omitempty"`
	Window    *Window `json:"window,omitempty"`
}

type cachedSeries struct {
	name      string
	points    []PricePoint
	fetchedAt time.Time
}

// Service fetches price history from the analytics service and derives trend
// windows and sparklines. Series are cached per (code, days) with a TTL; the
// refresh job warms the cache for held tickers.
type Service struct {
	client *analytics.Client
	log    zerolog.Logger

	mu    sync.Mutex
	cache map[string]cachedSeries
}

// NewService creates a new trend service
func NewService(client *analytics.Client, log zerolog.Logger) *Service {
	return &Service{
		client: client,
		log:    log.With().Str("service", "trend").Logger(),
		cache:  make(map[string]cachedSeries),
	}
}

// Series returns the cached or freshly fetched price series for one code.
func (s *Service) Series(ctx context.Context, code string, days int) (string, []PricePoint, error) {
	name, points, _, err := s.seriesMulti(ctx, days, []string{code})
	if err != nil {
		return "", nil, err
	}
	return name[code], points[code], nil
}

// TrendSince computes the window from the reference timestamp onward.
// A nil window means no sample exists at or after the reference.
func (s *Service) TrendSince(ctx context.Context, code string, since time.Time, days int) (*TrendResult, error) {
	name, points, err := s.Series(ctx, code, days)
	if err != nil {
		return nil, err
	}

	return &TrendResult{
		StockCode: code,
		StockName: name,
		Window:    ComputeWindow(points, since),
	}, nil
}

// Sparklines returns rendering-ready series for several codes at once.
func (s *Service) Sparklines(ctx context.Context, days int, codes []string) (map[string]Sparkline, error) {
	names, series, _, err := s.seriesMulti(ctx, days, codes)
	if err != nil {
		return nil, err
	}

	result := make(map[string]Sparkline, len(series))
	for code, points := range series {
		closes := make([]float64, len(points))
		for i, p := range points {
			closes[i] = p.Close
		}

		sp := Sparkline{
			StockCode:  code,
			StockName:  names[code],
			Points:     points,
			SMA:        formulas.SMA(closes, smaPeriod),
			Volatility: formulas.AnnualizedVolatility(formulas.CalculateReturns(closes)),
		}
		if len(closes) >= 2 {
			sp.ChangePct = formulas.PercentChange(closes[0], closes[len(closes)-1])
		}
		result[code] = sp
	}

	return result, nil
}

// Warm refreshes the cache for the given codes, used by the cron job.
func (s *Service) Warm(ctx context.Context, days int, codes []string) error {
	if len(codes) == 0 {
		return nil
	}

	sparklines, err := s.client.Sparklines(ctx, days, codes)
	if err != nil {
		return fmt.Errorf("failed to warm sparkline cache: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for code, sp := range sparklines {
		s.cache[cacheKey(code, days)] = cachedSeries{
			name:      sp.Name,
			points:    toPoints(sp),
			fetchedAt: now,
		}
	}

	s.log.Debug().Int("codes", len(sparklines)).Int("days", days).Msg("Sparkline cache warmed")
	return nil
}

// seriesMulti resolves several codes, serving from cache where fresh and
// fetching the rest in one call.
func (s *Service) seriesMulti(ctx context.Context, days int, codes []string) (map[string]string, map[string][]PricePoint, []string, error) {
	names := make(map[string]string, len(codes))
	series := make(map[string][]PricePoint, len(codes))
	var stale []string

	s.mu.Lock()
	now := time.Now()
	for _, code := range codes {
		if cached, ok := s.cache[cacheKey(code, days)]; ok && now.Sub(cached.fetchedAt) < cacheTTL {
			names[code] = cached.name
			series[code] = cached.points
		} else {
			stale = append(stale, code)
		}
	}
	s.mu.Unlock()

	if len(stale) == 0 {
		return names, series, nil, nil
	}

	fetched, err := s.client.Sparklines(ctx, days, stale)
	if err != nil {
		return nil, nil, nil, err
	}

	s.mu.Lock()
	var missing []string
	for _, code := range stale {
		sp, ok := fetched[code]
		if !ok {
			missing = append(missing, code)
			continue
		}
		points := toPoints(sp)
		s.cache[cacheKey(code, days)] = cachedSeries{name: sp.Name, points: points, fetchedAt: now}
		names[code] = sp.Name
		series[code] = points
	}
	s.mu.Unlock()

	return names, series, missing, nil
}

func cacheKey(code string, days int) string {
	return fmt.Sprintf("%s:%d", code, days)
}

// toPoints pairs closes with their dates. When the service omits dates the
// samples are treated as consecutive trading days ending today.
func toPoints(sp analytics.Sparkline) []PricePoint {
	points := make([]PricePoint, len(sp.Closes))

	if len(sp.Dates) == len(sp.Closes) {
		for i, close := range sp.Closes {
			date, err := time.Parse("2006-01-02", sp.Dates[i])
			if err != nil {
				date = time.Time{}
			}
			points[i] = PricePoint{Date: date, Close: close}
		}
		return points
	}

	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	for i, close := range sp.Closes {
		points[i] = PricePoint{
			Date:  today.AddDate(0, 0, i-len(sp.Closes)+1),
			Close: close,
		}
	}
	return points
}
