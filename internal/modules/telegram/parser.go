package telegram

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/Johnhyeon/stock-tracker-sub001/internal/clients/analytics"
)

// The analytics service sends the instrument as one combined label, e.g.
// "005930 삼성전자". Extraction lives here and nowhere else; downstream
// consumers only ever see the parsed code and name.
var stockLabelRe = regexp.MustCompile(`^\s*(\d{6})\s*(.*)$`)

// ParseStockLabel splits a combined label into code and name.
// Either part may be absent; an empty label yields nil for both.
func ParseStockLabel(label string) (code, name *string) {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, nil
	}

	if m := stockLabelRe.FindStringSubmatch(label); m != nil {
		c := m[1]
		code = &c
		if rest := strings.TrimSpace(m[2]); rest != "" {
			name = &rest
		}
		return code, name
	}

	name = &label
	return nil, name
}

// ParseSentiment maps a loose sentiment string onto the typed value.
// Empty or unrecognized input stays nil rather than defaulting.
func ParseSentiment(raw string) *Sentiment {
	switch Sentiment(strings.ToUpper(strings.TrimSpace(raw))) {
	case SentimentPositive:
		s := SentimentPositive
		return &s
	case SentimentNegative:
		s := SentimentNegative
		return &s
	case SentimentNeutral:
		s := SentimentNeutral
		return &s
	default:
		return nil
	}
}

// NormalizeHashtags lowercases, strips a leading '#' and deduplicates while
// keeping first-seen order.
func NormalizeHashtags(raw []string) []string {
	seen := make(map[string]bool, len(raw))
	result := make([]string, 0, len(raw))
	for _, tag := range raw {
		tag = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(tag, "#")))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		result = append(result, tag)
	}
	return result
}

// FromDTO converts one wire row into the typed Idea.
func FromDTO(dto analytics.TelegramIdeaDTO) (Idea, error) {
	originalDate, err := time.Parse(time.RFC3339, dto.OriginalDate)
	if err != nil {
		return Idea{}, fmt.Errorf("invalid original_date %q: %w", dto.OriginalDate, err)
	}

	sourceType := SourceType(dto.SourceType)
	if sourceType != SourceMy {
		sourceType = SourceOthers
	}

	code, name := ParseStockLabel(dto.StockLabel)

	return Idea{
		ID:           dto.ID,
		SourceType:   sourceType,
		StockCode:    code,
		StockName:    name,
		Sentiment:    ParseSentiment(dto.Sentiment),
		Author:       dto.Author,
		Text:         dto.Text,
		Hashtags:     NormalizeHashtags(dto.RawHashtags),
		OriginalDate: originalDate,
	}, nil
}
