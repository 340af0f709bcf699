package feed

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultFilters_EncodeEmpty(t *testing.T) {
	assert.Equal(t, "", DefaultFilters().Encode())
	assert.True(t, DefaultFilters().IsDefault())
}

func TestEncode_OnlyNonDefaultFields(t *testing.T) {
	f := DefaultFilters()
	f.Period = 30
	f.Source = SourceOthers

	query := f.Encode()
	values, err := url.ParseQuery(query)
	require.NoError(t, err)

	assert.Equal(t, "30", values.Get("period"))
	assert.Equal(t, "others", values.Get("source"))
	assert.False(t, values.Has("sentiment"))
	assert.False(t, values.Has("search"))
	assert.False(t, values.Has("hashtags"))
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	author := "jh"
	f := FilterState{
		Period:    14,
		Source:    SourceMy,
		Sentiment: SentimentPositive,
		Search:    "삼성",
		Hashtags:  []string{"semis", "ai"},
		Author:    &author,
	}

	values, err := url.ParseQuery(f.Encode())
	require.NoError(t, err)

	decoded, present := DecodeFilters(values)
	assert.True(t, present)
	assert.Equal(t, f, decoded)
}

func TestDecodeFilters_AbsentParams(t *testing.T) {
	decoded, present := DecodeFilters(url.Values{})
	assert.False(t, present)
	assert.True(t, decoded.IsDefault())

	// unrecognized params do not count as filter input
	decoded, present = DecodeFilters(url.Values{"limit": {"50"}})
	assert.False(t, present)
	assert.True(t, decoded.IsDefault())
}

func TestDecodeFilters_InvalidValuesClampToDefaults(t *testing.T) {
	decoded, present := DecodeFilters(url.Values{
		"period":    {"11"},
		"source":    {"everyone"},
		"sentiment": {"great"},
	})
	assert.True(t, present)
	assert.Equal(t, DefaultPeriod, decoded.Period)
	assert.Equal(t, DefaultSource, decoded.Source)
	assert.Equal(t, DefaultSentiment, decoded.Sentiment)
}

func TestDecodeFilters_HashtagsCommaJoined(t *testing.T) {
	decoded, present := DecodeFilters(url.Values{"hashtags": {"Semis,ai,semis"}})
	assert.True(t, present)
	assert.Equal(t, []string{"semis", "ai"}, decoded.Hashtags)
}

func TestWithHashtag_Idempotent(t *testing.T) {
	f := DefaultFilters()

	f = f.WithHashtag("Semis")
	f = f.WithHashtag("semis")
	f = f.WithHashtag("ai")
	assert.Equal(t, []string{"semis", "ai"}, f.Hashtags)

	f = f.WithoutHashtag("SEMIS")
	assert.Equal(t, []string{"ai"}, f.Hashtags)

	// removing an absent tag is a no-op
	f = f.WithoutHashtag("missing")
	assert.Equal(t, []string{"ai"}, f.Hashtags)
}

func TestNormalize_DropsBlankAuthor(t *testing.T) {
	author := "   "
	f := FilterState{Period: 7, Source: SourceAll, Sentiment: SentimentAll, Author: &author}
	f.Normalize()
	assert.Nil(t, f.Author)
}
