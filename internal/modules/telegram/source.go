package telegram

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Johnhyeon/stock-tracker-sub001/internal/clients/analytics"
)

// ListQuery parameterizes a telegram idea listing. Source, sentiment and
// author are delegated server-side; the rest of the filtering happens in
// the feed aggregator.
type ListQuery struct {
	Source    SourceType // empty means all
	Sentiment *Sentiment
	Author    string
	Days      int
	Limit     int
	Offset    int
}

// Lister is the telegram idea source collaborator.
type Lister interface {
	List(ctx context.Context, q ListQuery) (*Page, error)
}

// AnalyticsSource lists telegram ideas from the analytics service, converting
// wire rows through the canonical parser. Rows that fail to parse are skipped
// with a warning rather than failing the page.
type AnalyticsSource struct {
	client *analytics.Client
	log    zerolog.Logger
}

// NewAnalyticsSource creates the analytics-backed lister
func NewAnalyticsSource(client *analytics.Client, log zerolog.Logger) *AnalyticsSource {
	return &AnalyticsSource{
		client: client,
		log:    log.With().Str("source", "telegram").Logger(),
	}
}

// List fetches one page of telegram ideas.
func (s *AnalyticsSource) List(ctx context.Context, q ListQuery) (*Page, error) {
	sentiment := ""
	if q.Sentiment != nil {
		sentiment = string(*q.Sentiment)
	}

	page, err := s.client.ListTelegramIdeas(ctx, analytics.TelegramQuery{
		Source:    string(q.Source),
		Days:      q.Days,
		Limit:     q.Limit,
		Offset:    q.Offset,
		Author:    q.Author,
		Sentiment: sentiment,
	})
	if err != nil {
		return nil, fmt.Errorf("telegram source unavailable: %w", err)
	}

	items := make([]Idea, 0, len(page.Items))
	for _, dto := range page.Items {
		idea, err := FromDTO(dto)
		if err != nil {
			s.log.Warn().Err(err).Int64("id", dto.ID).Msg("Skipping malformed telegram idea")
			continue
		}
		items = append(items, idea)
	}

	return &Page{Items: items, Total: page.Total}, nil
}
