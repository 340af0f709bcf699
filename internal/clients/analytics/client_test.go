package analytics

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListTelegramIdeas(t *testing.T) {
	var gotQuery map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/telegram/ideas", r.URL.Path)
		gotQuery = map[string]string{
			"days":      r.URL.Query().Get("days"),
			"limit":     r.URL.Query().Get("limit"),
			"source":    r.URL.Query().Get("source"),
			"sentiment": r.URL.Query().Get("sentiment"),
		}
		json.NewEncoder(w).Encode(TelegramIdeasPage{
			Items: []TelegramIdeaDTO{{ID: 1, SourceType: "others", Text: "buy"}},
			Total: 17,
		})
	}))
	defer server.Close()

	c := NewClient(server.URL, zerolog.Nop())
	page, err := c.ListTelegramIdeas(context.Background(), TelegramQuery{
		Days:      7,
		Limit:     100,
		Source:    "others",
		Sentiment: "POSITIVE",
	})
	require.NoError(t, err)

	assert.Equal(t, 17, page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, int64(1), page.Items[0].ID)

	assert.Equal(t, "7", gotQuery["days"])
	assert.Equal(t, "100", gotQuery["limit"])
	assert.Equal(t, "others", gotQuery["source"])
	assert.Equal(t, "POSITIVE", gotQuery["sentiment"])
}

func TestListTelegramIdeas_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal", http.StatusInternalServerError)
	}))
	defer server.Close()

	c := NewClient(server.URL, zerolog.Nop())
	_, err := c.ListTelegramIdeas(context.Background(), TelegramQuery{Days: 7, Limit: 10})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestSparklines(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/sparklines", r.URL.Path)
		assert.Equal(t, "005930,000660", r.URL.Query().Get("codes"))
		json.NewEncoder(w).Encode(map[string]Sparkline{
			"005930": {Name: "삼성전자", Closes: []float64{70000, 71000}},
		})
	}))
	defer server.Close()

	c := NewClient(server.URL, zerolog.Nop())
	result, err := c.Sparklines(context.Background(), 30, []string{"005930", "000660"})
	require.NoError(t, err)

	require.Contains(t, result, "005930")
	assert.Equal(t, []float64{70000, 71000}, result["005930"].Closes)
}

func TestSparklines_EmptyCodes(t *testing.T) {
	c := NewClient("http://localhost:1", zerolog.Nop())
	result, err := c.Sparklines(context.Background(), 30, nil)
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestPing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/health", r.URL.Path)
		w.Write([]byte("{}"))
	}))
	defer server.Close()

	c := NewClient(server.URL, zerolog.Nop())
	assert.NoError(t, c.Ping(context.Background()))

	server.Close()
	assert.Error(t, c.Ping(context.Background()))
}
