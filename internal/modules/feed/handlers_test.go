package feed

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Johnhyeon/stock-tracker-sub001/internal/modules/ideas"
	"github.com/Johnhyeon/stock-tracker-sub001/internal/modules/telegram"
)

func setupFeedRouter(t *testing.T, manual ManualLister, tg telegram.Lister) *chi.Mux {
	t.Helper()

	store, _ := setupTestStore(t)
	handler := NewHandler(
		NewAggregator(manual, tg, zerolog.Nop()),
		NewManager(store, zerolog.Nop()),
		zerolog.Nop(),
	)

	router := chi.NewRouter()
	router.Route("/api/feed", handler.Routes)
	return router
}

func TestHandleGetFeed(t *testing.T) {
	now := time.Now()
	manual := &fakeManual{items: []ideas.Idea{manualIdea(now, "005930")}, total: 1}
	tg := &fakeTelegram{responses: []tgResponse{{page: &telegram.Page{
		Items: []telegram.Idea{telegramIdea(1, telegram.SourceOthers, now.Add(-time.Hour), "000660")},
		Total: 1,
	}}}}

	router := setupFeedRouter(t, manual, tg)

	req := httptest.NewRequest("GET", "/api/feed/", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Feed  Result `json:"feed"`
		Query string `json:"query"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Feed.Items, 2)
	assert.Equal(t, 2, resp.Feed.Total)
	assert.Equal(t, "", resp.Query)
}

func TestHandleGetFeed_URLFiltersBecomeCanonical(t *testing.T) {
	manual := &fakeManual{}
	tg := &fakeTelegram{responses: []tgResponse{
		{page: &telegram.Page{}},
		{page: &telegram.Page{}},
	}}

	router := setupFeedRouter(t, manual, tg)

	req := httptest.NewRequest("GET", "/api/feed/?period=30&source=my", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Query string `json:"query"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Query, "period=30")
	assert.Contains(t, resp.Query, "source=my")

	// a later request without parameters keeps the resolved state
	req = httptest.NewRequest("GET", "/api/feed/", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Query, "period=30")
	assert.Equal(t, 30, tg.lastQuery.Days)
}

func TestHandleGetFeed_AllSourcesDown(t *testing.T) {
	manual := &fakeManual{err: errors.New("db gone")}
	tg := &fakeTelegram{responses: []tgResponse{{err: errors.New("down")}}}

	router := setupFeedRouter(t, manual, tg)

	req := httptest.NewRequest("GET", "/api/feed/", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestHandleGetFeed_InvalidParams(t *testing.T) {
	router := setupFeedRouter(t, &fakeManual{}, &fakeTelegram{})

	for _, query := range []string{"group=maybe", "limit=0", "offset=-1"} {
		req := httptest.NewRequest("GET", "/api/feed/?"+query, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code, query)
	}
}

func TestFilterEndpoints(t *testing.T) {
	router := setupFeedRouter(t, &fakeManual{}, &fakeTelegram{})

	// replace the full state
	body, _ := json.Marshal(FilterState{Period: 14, Source: SourceMy, Sentiment: SentimentAll})
	req := httptest.NewRequest("PUT", "/api/feed/filters/", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Filters FilterState `json:"filters"`
		Query   string      `json:"query"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 14, resp.Filters.Period)
	assert.Contains(t, resp.Query, "period=14")

	// add a hashtag
	req = httptest.NewRequest("POST", "/api/feed/filters/hashtags", bytes.NewReader([]byte(`{"tag":"Semis"}`)))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{"semis"}, resp.Filters.Hashtags)

	// remove it again
	req = httptest.NewRequest("DELETE", "/api/feed/filters/hashtags/semis", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Filters.Hashtags)

	// reset to defaults
	req = httptest.NewRequest("POST", "/api/feed/filters/reset", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Filters.IsDefault())
	assert.Equal(t, "", resp.Query)

	// read back
	req = httptest.NewRequest("GET", "/api/feed/filters/", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Filters.IsDefault())
}
