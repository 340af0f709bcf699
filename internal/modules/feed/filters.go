package feed

import (
	"net/url"
	"strconv"
	"strings"
)

// SourceFilter narrows the feed to one origin.
type SourceFilter string

const (
	SourceAll    SourceFilter = "all"
	SourceMy     SourceFilter = "my"
	SourceOthers SourceFilter = "others"
)

// SentimentFilter narrows telegram ideas by classification.
type SentimentFilter string

const (
	SentimentAll      SentimentFilter = "all"
	SentimentPositive SentimentFilter = "POSITIVE"
	SentimentNegative SentimentFilter = "NEGATIVE"
	SentimentNeutral  SentimentFilter = "NEUTRAL"
)

// ValidPeriods is the fixed set of lookback windows, in days.
var ValidPeriods = []int{1, 3, 7, 14, 30, 90}

const (
	DefaultPeriod    = 7
	DefaultSource    = SourceAll
	DefaultSentiment = SentimentAll
)

// FilterState is the canonical filter value set for the unified feed.
type FilterState struct {
	Period    int             `json:"period"`
	Source    SourceFilter    `json:"source"`
	Sentiment SentimentFilter `json:"sentiment"`
	Search    string          `json:"search"`
	Hashtags  []string        `json:"hashtags"`
	Author    *string         `json:"author,omitempty"`
}

// DefaultFilters returns the hard-default state.
func DefaultFilters() FilterState {
	return FilterState{
		Period:    DefaultPeriod,
		Source:    DefaultSource,
		Sentiment: DefaultSentiment,
		Search:    "",
		Hashtags:  []string{},
	}
}

// Normalize clamps unrecognized values back to defaults and deduplicates
// hashtags while keeping order.
func (f *FilterState) Normalize() {
	if !isValidPeriod(f.Period) {
		f.Period = DefaultPeriod
	}
	switch f.Source {
	case SourceAll, SourceMy, SourceOthers:
	default:
		f.Source = DefaultSource
	}
	switch f.Sentiment {
	case SentimentAll, SentimentPositive, SentimentNegative, SentimentNeutral:
	default:
		f.Sentiment = DefaultSentiment
	}

	seen := make(map[string]bool, len(f.Hashtags))
	tags := make([]string, 0, len(f.Hashtags))
	for _, tag := range f.Hashtags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	f.Hashtags = tags

	if f.Author != nil && strings.TrimSpace(*f.Author) == "" {
		f.Author = nil
	}
}

// IsDefault reports whether the state equals the hard defaults.
func (f FilterState) IsDefault() bool {
	return f.Period == DefaultPeriod &&
		f.Source == DefaultSource &&
		f.Sentiment == DefaultSentiment &&
		f.Search == "" &&
		len(f.Hashtags) == 0 &&
		f.Author == nil
}

// HasHashtag reports whether the tag is already selected.
func (f FilterState) HasHashtag(tag string) bool {
	tag = strings.ToLower(strings.TrimSpace(tag))
	for _, t := range f.Hashtags {
		if t == tag {
			return true
		}
	}
	return false
}

// WithHashtag returns the state with the tag added; adding a present tag is
// a no-op.
func (f FilterState) WithHashtag(tag string) FilterState {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag == "" || f.HasHashtag(tag) {
		return f
	}
	tags := make([]string, len(f.Hashtags), len(f.Hashtags)+1)
	copy(tags, f.Hashtags)
	f.Hashtags = append(tags, tag)
	return f
}

// WithoutHashtag returns the state with the tag removed; removing an absent
// tag is a no-op.
func (f FilterState) WithoutHashtag(tag string) FilterState {
	tag = strings.ToLower(strings.TrimSpace(tag))
	tags := make([]string, 0, len(f.Hashtags))
	for _, t := range f.Hashtags {
		if t != tag {
			tags = append(tags, t)
		}
	}
	f.Hashtags = tags
	return f
}

// Encode serializes the state to its canonical query string. Only fields
// differing from the hard default appear; the default state encodes empty.
func (f FilterState) Encode() string {
	params := url.Values{}
	if f.Period != DefaultPeriod {
		params.Set("period", strconv.Itoa(f.Period))
	}
	if f.Source != DefaultSource {
		params.Set("source", string(f.Source))
	}
	if f.Sentiment != DefaultSentiment {
		params.Set("sentiment", string(f.Sentiment))
	}
	if f.Search != "" {
		params.Set("search", f.Search)
	}
	if len(f.Hashtags) > 0 {
		params.Set("hashtags", strings.Join(f.Hashtags, ","))
	}
	if f.Author != nil {
		params.Set("author", *f.Author)
	}
	return params.Encode()
}

// recognized query parameter names
var filterParams = []string{"period", "source", "sentiment", "search", "hashtags", "author"}

// DecodeFilters parses a query-value set into a state. The second return
// value reports whether any recognized parameter was present at all, so the
// caller can fall back to the persisted snapshot when the URL is silent.
func DecodeFilters(values url.Values) (FilterState, bool) {
	present := false
	for _, name := range filterParams {
		if values.Has(name) {
			present = true
			break
		}
	}

	f := DefaultFilters()
	if !present {
		return f, false
	}

	if v := values.Get("period"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			f.Period = parsed
		}
	}
	if v := values.Get("source"); v != "" {
		f.Source = SourceFilter(v)
	}
	if v := values.Get("sentiment"); v != "" {
		f.Sentiment = SentimentFilter(v)
	}
	f.Search = values.Get("search")
	if v := values.Get("hashtags"); v != "" {
		f.Hashtags = strings.Split(v, ",")
	}
	if v := values.Get("author"); v != "" {
		author := v
		f.Author = &author
	}

	f.Normalize()
	return f, true
}

func isValidPeriod(period int) bool {
	for _, p := range ValidPeriods {
		if p == period {
			return true
		}
	}
	return false
}
