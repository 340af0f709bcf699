package feed

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/Johnhyeon/stock-tracker-sub001/internal/modules/ideas"
	"github.com/Johnhyeon/stock-tracker-sub001/internal/modules/telegram"
)

// ErrAllSourcesUnavailable means both feed sources failed; the caller may
// retry. A single failed source only degrades its contribution to empty.
var ErrAllSourcesUnavailable = errors.New("all feed sources unavailable")

// ManualLister is the manual idea source collaborator.
type ManualLister interface {
	ListIdeas(days int) ([]ideas.Idea, int, error)
}

// ItemSource tags where a feed item came from.
type ItemSource string

const (
	ItemManual   ItemSource = "manual"
	ItemTelegram ItemSource = "telegram"
)

// Item is one unified feed entry. Exactly one of Manual and Telegram is set;
// Timestamp is the normalized sort key (manual created_at, telegram
// original_date).
type Item struct {
	Source    ItemSource     `json:"source"`
	Timestamp time.Time      `json:"timestamp"`
	Manual    *ideas.Idea    `json:"manual,omitempty"`
	Telegram  *telegram.Idea `json:"telegram,omitempty"`
}

// StockCode returns the item's instrument code, empty when unset.
func (it Item) StockCode() string {
	switch {
	case it.Telegram != nil && it.Telegram.StockCode != nil:
		return *it.Telegram.StockCode
	case it.Manual != nil && len(it.Manual.Tickers) > 0:
		return it.Manual.Tickers[0]
	default:
		return ""
	}
}

// StockName returns the item's instrument name, empty when unknown.
func (it Item) StockName() string {
	if it.Telegram != nil && it.Telegram.StockName != nil {
		return *it.Telegram.StockName
	}
	return ""
}

// Group is one instrument bucket in grouped mode. Items keep their merged
// order; the bucket sorts by its most recent timestamp.
type Group struct {
	StockCode string    `json:"stock_code"` // empty for the unlabeled bucket
	StockName string    `json:"stock_name,omitempty"`
	LatestAt  time.Time `json:"latest_at"`
	Items     []Item    `json:"items"`
}

// Result is a rendering-ready aggregation. Totals reflect the upstream
// (pre-residual-filter) counts, so VisibleCount can legitimately be smaller;
// pagination is driven by the totals.
type Result struct {
	Items         []Item      `json:"items"`
	Groups        []Group     `json:"groups,omitempty"`
	Grouped       bool        `json:"grouped"`
	ManualTotal   int         `json:"manual_total"`
	TelegramTotal int         `json:"telegram_total"`
	Total         int         `json:"total"`
	VisibleCount  int         `json:"visible_count"`
	Degraded      []string    `json:"degraded_sources,omitempty"`
	Filters       FilterState `json:"filters"`
	FetchedAt     time.Time   `json:"fetched_at"`
}

// FetchOptions tweaks one aggregation call.
type FetchOptions struct {
	Group  *bool // override the source=others default
	Limit  int   // upstream telegram page size
	Offset int   // upstream telegram page offset
}

// Aggregator merges the two idea sources into one filtered, time-ordered
// feed. The shared cache only ever accepts the most recently issued fetch,
// so overlapping requests keep last-write-wins ordering.
type Aggregator struct {
	manual ManualLister
	tg     telegram.Lister
	log    zerolog.Logger

	seq   atomic.Uint64
	mu    sync.Mutex
	cache *Result
}

// NewAggregator creates a new feed aggregator
func NewAggregator(manual ManualLister, tg telegram.Lister, log zerolog.Logger) *Aggregator {
	return &Aggregator{
		manual: manual,
		tg:     tg,
		log:    log.With().Str("component", "feed_aggregator").Logger(),
	}
}

const defaultTelegramLimit = 100

// Fetch runs one aggregation: both sources concurrently, residual filters,
// merge, optional grouping, then a token-gated cache commit.
func (a *Aggregator) Fetch(ctx context.Context, f FilterState, opts FetchOptions) (*Result, error) {
	token := a.seq.Add(1)

	limit := opts.Limit
	if limit <= 0 {
		limit = defaultTelegramLimit
	}

	var (
		wg          sync.WaitGroup
		manualItems []ideas.Idea
		manualTotal int
		manualErr   error
		tgPage      *telegram.Page
		tgErr       error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		manualItems, manualTotal, manualErr = a.manual.ListIdeas(f.Period)
	}()
	go func() {
		defer wg.Done()
		tgPage, tgErr = a.tg.List(ctx, telegramQuery(f, limit, opts.Offset))
	}()
	wg.Wait()

	var degraded []string
	if manualErr != nil {
		a.log.Warn().Err(manualErr).Msg("Manual idea source unavailable, degrading to empty")
		manualItems, manualTotal = nil, 0
		degraded = append(degraded, string(ItemManual))
	}
	if tgErr != nil {
		a.log.Warn().Err(tgErr).Msg("Telegram idea source unavailable, degrading to empty")
		tgPage = &telegram.Page{}
		degraded = append(degraded, string(ItemTelegram))
	}
	if manualErr != nil && tgErr != nil {
		return nil, ErrAllSourcesUnavailable
	}

	items := mergeItems(f, manualItems, tgPage.Items)

	result := &Result{
		Items:         items,
		Grouped:       groupingEnabled(f, opts.Group),
		ManualTotal:   manualTotal,
		TelegramTotal: tgPage.Total,
		Total:         manualTotal + tgPage.Total,
		VisibleCount:  len(items),
		Degraded:      degraded,
		Filters:       f,
		FetchedAt:     time.Now(),
	}
	if result.Grouped {
		result.Groups = groupItems(items)
	}

	a.commit(token, result)
	return result, nil
}

// Cached returns the last committed result, nil before the first fetch.
func (a *Aggregator) Cached() *Result {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cache
}

// commit applies the result only when no newer fetch has been issued since;
// stale responses are discarded silently.
func (a *Aggregator) commit(token uint64, result *Result) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if token != a.seq.Load() {
		a.log.Debug().
			Uint64("token", token).
			Uint64("latest", a.seq.Load()).
			Msg("Discarding stale feed response")
		return
	}
	a.cache = result
}

func telegramQuery(f FilterState, limit, offset int) telegram.ListQuery {
	q := telegram.ListQuery{
		Days:   f.Period,
		Limit:  limit,
		Offset: offset,
	}
	switch f.Source {
	case SourceMy:
		q.Source = telegram.SourceMy
	case SourceOthers:
		q.Source = telegram.SourceOthers
	}
	if f.Sentiment != SentimentAll {
		s := telegram.Sentiment(f.Sentiment)
		q.Sentiment = &s
	}
	if f.Author != nil {
		q.Author = *f.Author
	}
	return q
}

// mergeItems applies source inclusion plus the residual client-side filters,
// tags each survivor with its normalized timestamp and stable-sorts the
// combined sequence newest first.
func mergeItems(f FilterState, manual []ideas.Idea, tg []telegram.Idea) []Item {
	items := make([]Item, 0, len(manual)+len(tg))

	// Manual ideas have no "others" concept, so source=others excludes them.
	if f.Source != SourceOthers {
		for i := range manual {
			idea := manual[i]
			item := Item{Source: ItemManual, Timestamp: idea.CreatedAt, Manual: &idea}
			if includeItem(f, item) {
				items = append(items, item)
			}
		}
	}

	for i := range tg {
		idea := tg[i]
		if f.Source == SourceMy && idea.SourceType != telegram.SourceMy {
			continue
		}
		if f.Source == SourceOthers && idea.SourceType != telegram.SourceOthers {
			continue
		}
		item := Item{Source: ItemTelegram, Timestamp: idea.OriginalDate, Telegram: &idea}
		if includeItem(f, item) {
			items = append(items, item)
		}
	}

	// Stable keeps source-fetch order on equal timestamps.
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Timestamp.After(items[j].Timestamp)
	})

	return items
}

// includeItem applies the residual filters not delegated upstream: free-text
// search over instrument name or code, and OR-semantics hashtag selection.
func includeItem(f FilterState, item Item) bool {
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !matchesSearch(item, needle) {
			return false
		}
	}

	if len(f.Hashtags) > 0 {
		if item.Telegram == nil {
			return false
		}
		any := false
		for _, tag := range f.Hashtags {
			if item.Telegram.HasHashtag(tag) {
				any = true
				break
			}
		}
		if !any {
			return false
		}
	}

	return true
}

func matchesSearch(item Item, needle string) bool {
	if strings.Contains(strings.ToLower(item.StockCode()), needle) {
		return true
	}
	if strings.Contains(strings.ToLower(item.StockName()), needle) {
		return true
	}
	// Manual ideas can reference several instruments.
	if item.Manual != nil {
		for _, ticker := range item.Manual.Tickers {
			if strings.Contains(strings.ToLower(ticker), needle) {
				return true
			}
		}
	}
	return false
}

// groupingEnabled defaults grouping on for source=others; the caller can
// override either way.
func groupingEnabled(f FilterState, override *bool) bool {
	if override != nil {
		return *override
	}
	return f.Source == SourceOthers
}

// groupItems buckets the merged sequence by instrument code. Items keep
// their merged order inside a bucket; since the input is already newest
// first, each bucket's first item carries its latest timestamp, and buckets
// sort by that.
func groupItems(items []Item) []Group {
	index := make(map[string]int)
	groups := make([]Group, 0)

	for _, item := range items {
		code := item.StockCode()
		i, ok := index[code]
		if !ok {
			i = len(groups)
			index[code] = i
			groups = append(groups, Group{
				StockCode: code,
				StockName: item.StockName(),
				LatestAt:  item.Timestamp,
			})
		}
		g := &groups[i]
		if g.StockName == "" {
			g.StockName = item.StockName()
		}
		g.Items = append(g.Items, item)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].LatestAt.After(groups[j].LatestAt)
	})

	return groups
}
