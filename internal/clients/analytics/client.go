package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Client talks to the external analytics service that owns telegram idea
// ingestion, sentiment classification and price-history sparklines.
type Client struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

// NewClient creates a new analytics service client
func NewClient(baseURL string, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log.With().Str("client", "analytics").Logger(),
	}
}

// TelegramQuery parameterizes the server-side telegram idea listing.
type TelegramQuery struct {
	Source    string // "my", "others" or "" for all
	Days      int
	Limit     int
	Offset    int
	Author    string
	Sentiment string // POSITIVE / NEGATIVE / NEUTRAL or "" for all
}

// ListTelegramIdeas fetches a page of telegram ideas.
func (c *Client) ListTelegramIdeas(ctx context.Context, q TelegramQuery) (*TelegramIdeasPage, error) {
	params := url.Values{}
	params.Set("days", strconv.Itoa(q.Days))
	params.Set("limit", strconv.Itoa(q.Limit))
	params.Set("offset", strconv.Itoa(q.Offset))
	if q.Source != "" {
		params.Set("source", q.Source)
	}
	if q.Author != "" {
		params.Set("author", q.Author)
	}
	if q.Sentiment != "" {
		params.Set("sentiment", q.Sentiment)
	}

	var page TelegramIdeasPage
	if err := c.getJSON(ctx, "/api/telegram/ideas", params, &page); err != nil {
		return nil, fmt.Errorf("failed to list telegram ideas: %w", err)
	}

	return &page, nil
}

// Sparklines fetches close-price series for the given stock codes.
func (c *Client) Sparklines(ctx context.Context, days int, codes []string) (map[string]Sparkline, error) {
	if len(codes) == 0 {
		return map[string]Sparkline{}, nil
	}

	params := url.Values{}
	params.Set("days", strconv.Itoa(days))
	params.Set("codes", strings.Join(codes, ","))

	var result map[string]Sparkline
	if err := c.getJSON(ctx, "/api/sparklines", params, &result); err != nil {
		return nil, fmt.Errorf("failed to fetch sparklines: %w", err)
	}

	return result, nil
}

// Ping checks whether the analytics service is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.getJSON(ctx, "/health", nil, &struct{}{})
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out interface{}) error {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.log.Warn().
			Int("status", resp.StatusCode).
			Str("path", path).
			Msg("Analytics service returned non-200")
		return fmt.Errorf("analytics service returned %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
