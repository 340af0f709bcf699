package analytics

// TelegramIdeaDTO is the wire representation of one ingested channel message.
// Sentiment and the stock label arrive as loose strings; parsing into typed
// values happens in the telegram module, not here.
type TelegramIdeaDTO struct {
	ID           int64    `json:"id"`
	SourceType   string   `json:"source_type"` // "my" or "others"
	StockLabel   string   `json:"stock_label"` // e.g. "005930 삼성전자", may be empty
	Sentiment    string   `json:"sentiment"`   // POSITIVE / NEGATIVE / NEUTRAL / ""
	Author       string   `json:"author"`
	Text         string   `json:"text"`
	RawHashtags  []string `json:"raw_hashtags"`
	OriginalDate string   `json:"original_date"` // RFC3339
}

// TelegramIdeasPage is the paged listing response.
type TelegramIdeasPage struct {
	Items []TelegramIdeaDTO `json:"items"`
	Total int               `json:"total"`
}

// Sparkline holds a close-price series for one stock code.
type Sparkline struct {
	Name   string    `json:"name"`
	Closes []float64 `json:"closes"`
	Dates  []string  `json:"dates,omitempty"` // YYYY-MM-DD, parallel to Closes
}
