package telegram

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Johnhyeon/stock-tracker-sub001/internal/clients/analytics"
)

func TestParseStockLabel(t *testing.T) {
	code, name := ParseStockLabel("005930 삼성전자")
	require.NotNil(t, code)
	require.NotNil(t, name)
	assert.Equal(t, "005930", *code)
	assert.Equal(t, "삼성전자", *name)

	// code only
	code, name = ParseStockLabel("005930")
	require.NotNil(t, code)
	assert.Equal(t, "005930", *code)
	assert.Nil(t, name)

	// name only
	code, name = ParseStockLabel("삼성전자")
	assert.Nil(t, code)
	require.NotNil(t, name)
	assert.Equal(t, "삼성전자", *name)

	// empty
	code, name = ParseStockLabel("  ")
	assert.Nil(t, code)
	assert.Nil(t, name)

	// five digits is not a code
	code, name = ParseStockLabel("12345 something")
	assert.Nil(t, code)
	require.NotNil(t, name)
	assert.Equal(t, "12345 something", *name)
}

func TestParseSentiment(t *testing.T) {
	s := ParseSentiment("positive")
	require.NotNil(t, s)
	assert.Equal(t, SentimentPositive, *s)

	s = ParseSentiment(" NEGATIVE ")
	require.NotNil(t, s)
	assert.Equal(t, SentimentNegative, *s)

	assert.Nil(t, ParseSentiment(""))
	assert.Nil(t, ParseSentiment("bullish"))
}

func TestNormalizeHashtags(t *testing.T) {
	tags := NormalizeHashtags([]string{"#Semis", "semis", " #AI ", "", "ai"})
	assert.Equal(t, []string{"semis", "ai"}, tags)

	assert.Empty(t, NormalizeHashtags(nil))
}

func TestFromDTO(t *testing.T) {
	idea, err := FromDTO(analytics.TelegramIdeaDTO{
		ID:           42,
		SourceType:   "my",
		StockLabel:   "000660 SK하이닉스",
		Sentiment:    "POSITIVE",
		Author:       "jh",
		Text:         "adding on the dip",
		RawHashtags:  []string{"#Semis", "#semis"},
		OriginalDate: "2026-08-20T09:30:00Z",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(42), idea.ID)
	assert.Equal(t, SourceMy, idea.SourceType)
	require.NotNil(t, idea.StockCode)
	assert.Equal(t, "000660", *idea.StockCode)
	require.NotNil(t, idea.Sentiment)
	assert.Equal(t, SentimentPositive, *idea.Sentiment)
	assert.Equal(t, []string{"semis"}, idea.Hashtags)
	assert.Equal(t, time.Date(2026, 8, 20, 9, 30, 0, 0, time.UTC), idea.OriginalDate)
}

func TestFromDTO_UnknownSourceFallsBackToOthers(t *testing.T) {
	idea, err := FromDTO(analytics.TelegramIdeaDTO{
		SourceType:   "channel-7",
		OriginalDate: "2026-08-20T09:30:00Z",
	})
	require.NoError(t, err)
	assert.Equal(t, SourceOthers, idea.SourceType)
}

func TestFromDTO_InvalidDate(t *testing.T) {
	_, err := FromDTO(analytics.TelegramIdeaDTO{OriginalDate: "yesterday"})
	assert.Error(t, err)
}
