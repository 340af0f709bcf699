package telegram

import "time"

// SourceType says whose channel a message came from.
type SourceType string

const (
	SourceMy     SourceType = "my"
	SourceOthers SourceType = "others"
)

// Sentiment is the analytics service's classification of a message.
// It is consumed read-only; a missing classification stays nil.
type Sentiment string

const (
	SentimentPositive Sentiment = "POSITIVE"
	SentimentNegative Sentiment = "NEGATIVE"
	SentimentNeutral  Sentiment = "NEUTRAL"
)

// Idea is one ingested channel message, parsed into typed values at the
// ingestion boundary. Read-only to the rest of the system.
type Idea struct {
	ID           int64      `json:"id"`
	SourceType   SourceType `json:"source_type"`
	StockCode    *string    `json:"stock_code,omitempty"`
	StockName    *string    `json:"stock_name,omitempty"`
	Sentiment    *Sentiment `json:"sentiment,omitempty"`
	Author       string     `json:"author,omitempty"`
	Text         string     `json:"text"`
	Hashtags     []string   `json:"hashtags"`
	OriginalDate time.Time  `json:"original_date"`
}

// HasHashtag reports whether the idea carries the tag.
func (i *Idea) HasHashtag(tag string) bool {
	for _, t := range i.Hashtags {
		if t == tag {
			return true
		}
	}
	return false
}

// Page is one listing page with the server-side total.
type Page struct {
	Items []Idea `json:"items"`
	Total int    `json:"total"`
}
