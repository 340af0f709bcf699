package feed

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Johnhyeon/stock-tracker-sub001/internal/modules/ideas"
	"github.com/Johnhyeon/stock-tracker-sub001/internal/modules/telegram"
)

type fakeManual struct {
	items []ideas.Idea
	total int
	err   error
}

func (f *fakeManual) ListIdeas(days int) ([]ideas.Idea, int, error) {
	return f.items, f.total, f.err
}

type tgResponse struct {
	page    *telegram.Page
	err     error
	started chan struct{} // closed when the call begins, if set
	release chan struct{} // the call blocks until closed, if set
}

type fakeTelegram struct {
	mu        sync.Mutex
	responses []tgResponse
	calls     int
	lastQuery telegram.ListQuery
}

func (f *fakeTelegram) List(ctx context.Context, q telegram.ListQuery) (*telegram.Page, error) {
	f.mu.Lock()
	resp := f.responses[f.calls]
	f.calls++
	f.lastQuery = q
	f.mu.Unlock()

	if resp.started != nil {
		close(resp.started)
	}
	if resp.release != nil {
		<-resp.release
	}
	return resp.page, resp.err
}

func strPtr(s string) *string { return &s }

func manualIdea(createdAt time.Time, tickers ...string) ideas.Idea {
	return ideas.Idea{
		ID:        "m-" + createdAt.Format("150405"),
		Type:      ideas.IdeaTypeResearch,
		Status:    ideas.StatusWatching,
		Tickers:   tickers,
		CreatedAt: createdAt,
	}
}

func telegramIdea(id int64, source telegram.SourceType, date time.Time, code string, tags ...string) telegram.Idea {
	idea := telegram.Idea{
		ID:           id,
		SourceType:   source,
		OriginalDate: date,
		Hashtags:     tags,
	}
	if code != "" {
		idea.StockCode = &code
	}
	return idea
}

func TestAggregator_MergeSortsNewestFirst(t *testing.T) {
	now := time.Now()
	manual := &fakeManual{
		items: []ideas.Idea{manualIdea(now.Add(-2 * time.Hour), "005930")},
		total: 1,
	}
	tg := &fakeTelegram{responses: []tgResponse{{
		page: &telegram.Page{
			Items: []telegram.Idea{
				telegramIdea(1, telegram.SourceOthers, now.Add(-3*time.Hour), "000660"),
				telegramIdea(2, telegram.SourceOthers, now.Add(-1*time.Hour), "000660"),
			},
			Total: 2,
		},
	}}}

	a := NewAggregator(manual, tg, zerolog.Nop())
	result, err := a.Fetch(context.Background(), DefaultFilters(), FetchOptions{})
	require.NoError(t, err)

	require.Len(t, result.Items, 3)
	for i := 1; i < len(result.Items); i++ {
		assert.False(t, result.Items[i].Timestamp.After(result.Items[i-1].Timestamp),
			"items must be in non-increasing timestamp order")
	}

	assert.Equal(t, 1, result.ManualTotal)
	assert.Equal(t, 2, result.TelegramTotal)
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 3, result.VisibleCount)
	assert.Empty(t, result.Degraded)
	assert.False(t, result.Grouped)
}

func TestAggregator_SingleSourceFailureDegrades(t *testing.T) {
	now := time.Now()
	manual := &fakeManual{items: []ideas.Idea{manualIdea(now, "005930")}, total: 1}
	tg := &fakeTelegram{responses: []tgResponse{{err: errors.New("boom")}}}

	a := NewAggregator(manual, tg, zerolog.Nop())
	result, err := a.Fetch(context.Background(), DefaultFilters(), FetchOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"telegram"}, result.Degraded)
	assert.Len(t, result.Items, 1)
	assert.Equal(t, 0, result.TelegramTotal)
	assert.Equal(t, 1, result.Total)
}

func TestAggregator_BothSourcesFailing(t *testing.T) {
	manual := &fakeManual{err: errors.New("db gone")}
	tg := &fakeTelegram{responses: []tgResponse{{err: errors.New("boom")}}}

	a := NewAggregator(manual, tg, zerolog.Nop())
	_, err := a.Fetch(context.Background(), DefaultFilters(), FetchOptions{})
	assert.ErrorIs(t, err, ErrAllSourcesUnavailable)
	assert.Nil(t, a.Cached())
}

func TestAggregator_SourceOthersExcludesManualAndGroups(t *testing.T) {
	now := time.Now()
	manual := &fakeManual{items: []ideas.Idea{manualIdea(now, "005930")}, total: 1}
	page := &telegram.Page{
		Items: []telegram.Idea{
			telegramIdea(1, telegram.SourceOthers, now.Add(-1*time.Hour), "000660"),
			telegramIdea(2, telegram.SourceOthers, now.Add(-2*time.Hour), "000660"),
			telegramIdea(3, telegram.SourceOthers, now.Add(-30*time.Minute), ""),
		},
		Total: 3,
	}
	tg := &fakeTelegram{responses: []tgResponse{{page: page}, {page: page}}}

	f := DefaultFilters()
	f.Source = SourceOthers

	a := NewAggregator(manual, tg, zerolog.Nop())
	result, err := a.Fetch(context.Background(), f, FetchOptions{})
	require.NoError(t, err)

	for _, item := range result.Items {
		assert.Equal(t, ItemTelegram, item.Source)
	}

	// grouping defaults on for source=others
	assert.True(t, result.Grouped)
	require.Len(t, result.Groups, 2)
	// the unlabeled item is newest, so its bucket sorts first
	assert.Equal(t, "", result.Groups[0].StockCode)
	assert.Equal(t, "000660", result.Groups[1].StockCode)
	assert.Len(t, result.Groups[1].Items, 2)

	// explicit override wins over the default
	off := false
	result, err = a.Fetch(context.Background(), f, FetchOptions{Group: &off})
	require.NoError(t, err)
	assert.False(t, result.Grouped)
	assert.Nil(t, result.Groups)
}

func TestAggregator_HashtagFilterExcludesManual(t *testing.T) {
	now := time.Now()
	manual := &fakeManual{items: []ideas.Idea{manualIdea(now, "005930")}, total: 1}
	tg := &fakeTelegram{responses: []tgResponse{{
		page: &telegram.Page{
			Items: []telegram.Idea{
				telegramIdea(1, telegram.SourceOthers, now, "000660", "semis"),
				telegramIdea(2, telegram.SourceOthers, now, "000660", "banks"),
			},
			Total: 2,
		},
	}}}

	f := DefaultFilters()
	f.Hashtags = []string{"semis", "ai"}

	a := NewAggregator(manual, tg, zerolog.Nop())
	result, err := a.Fetch(context.Background(), f, FetchOptions{})
	require.NoError(t, err)

	// manual items carry no hashtags; OR semantics across selected tags
	require.Len(t, result.Items, 1)
	assert.Equal(t, int64(1), result.Items[0].Telegram.ID)

	// totals still reflect upstream counts
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 1, result.VisibleCount)
}

func TestAggregator_SearchFiltersByCodeAndTicker(t *testing.T) {
	now := time.Now()
	named := telegramIdea(1, telegram.SourceOthers, now, "000660")
	named.StockName = strPtr("SK하이닉스")

	manual := &fakeManual{items: []ideas.Idea{manualIdea(now, "005930")}, total: 1}
	tg := &fakeTelegram{responses: []tgResponse{
		{page: &telegram.Page{Items: []telegram.Idea{named}, Total: 1}},
		{page: &telegram.Page{Items: []telegram.Idea{named}, Total: 1}},
	}}

	a := NewAggregator(manual, tg, zerolog.Nop())

	f := DefaultFilters()
	f.Search = "0066"
	result, err := a.Fetch(context.Background(), f, FetchOptions{})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, ItemTelegram, result.Items[0].Source)

	f.Search = "005930"
	result, err = a.Fetch(context.Background(), f, FetchOptions{})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, ItemManual, result.Items[0].Source)
}

func TestAggregator_DelegatesFiltersUpstream(t *testing.T) {
	manual := &fakeManual{}
	tg := &fakeTelegram{responses: []tgResponse{{page: &telegram.Page{}}}}

	author := "jh"
	f := DefaultFilters()
	f.Period = 30
	f.Source = SourceMy
	f.Sentiment = SentimentPositive
	f.Author = &author

	a := NewAggregator(manual, tg, zerolog.Nop())
	_, err := a.Fetch(context.Background(), f, FetchOptions{Limit: 50, Offset: 100})
	require.NoError(t, err)

	q := tg.lastQuery
	assert.Equal(t, telegram.SourceMy, q.Source)
	assert.Equal(t, 30, q.Days)
	assert.Equal(t, 50, q.Limit)
	assert.Equal(t, 100, q.Offset)
	assert.Equal(t, "jh", q.Author)
	require.NotNil(t, q.Sentiment)
	assert.Equal(t, telegram.SentimentPositive, *q.Sentiment)
}

func TestAggregator_StaleResponseDiscarded(t *testing.T) {
	manual := &fakeManual{}

	started := make(chan struct{})
	release := make(chan struct{})
	tg := &fakeTelegram{responses: []tgResponse{
		{page: &telegram.Page{Total: 1}, started: started, release: release},
		{page: &telegram.Page{Total: 2}},
	}}

	a := NewAggregator(manual, tg, zerolog.Nop())

	var (
		wg    sync.WaitGroup
		first *Result
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		var err error
		first, err = a.Fetch(context.Background(), DefaultFilters(), FetchOptions{})
		assert.NoError(t, err)
	}()

	// wait until the first fetch holds its token and is blocked upstream
	<-started

	second, err := a.Fetch(context.Background(), DefaultFilters(), FetchOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, second.TelegramTotal)

	// let the older fetch finish; its commit must be discarded
	close(release)
	wg.Wait()

	assert.Equal(t, 1, first.TelegramTotal)
	require.NotNil(t, a.Cached())
	assert.Equal(t, 2, a.Cached().TelegramTotal)
}
