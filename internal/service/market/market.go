// Package market serves mandi commodity prices. A JSON price feed can be
// configured; without one, or when the feed is unreachable, prices come from
// a deterministic fallback table seeded with typical Jharkhand mandi rates.
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/agrivisor/agrivisor/pkg/cache"
)

// Source labels for PriceReport.Source.
const (
	SourceFeed     = "feed"
	SourceFallback = "fallback"
)

// PriceReport is a commodity price snapshot for one district mandi.
// Prices are rupees per quintal.
type PriceReport struct {
	District   string    `json:"district"`
	Commodity  string    `json:"commodity"`
	Mandi      string    `json:"mandi"`
	MinPrice   float64   `json:"min_price"`
	MaxPrice   float64   `json:"max_price"`
	ModalPrice float64   `json:"modal_price"`
	Unit       string    `json:"unit"`
	Source     string    `json:"source"`
	FetchedAt  time.Time `json:"fetched_at"`
}

// Service reads mandi prices through the shared advisory cache.
type Service struct {
	cache   *cache.Cache[any]
	client  *http.Client
	log     *slog.Logger
	feedURL string
}

// NewService creates a market service. feedURL points at an optional JSON
// price feed; empty means fallback-only operation.
func NewService(c *cache.Cache[any], client *http.Client, feedURL string, log *slog.Logger) *Service {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Service{cache: c, client: client, feedURL: feedURL, log: log}
}

// Prices returns the cached price report for a district/commodity pair,
// fetching on a miss. Concurrent identical requests share one upstream call.
func (s *Service) Prices(ctx context.Context, district, commodity string) (PriceReport, error) {
	commodity = strings.ToLower(strings.TrimSpace(commodity))
	if commodity == "" {
		return PriceReport{}, fmt.Errorf("market: empty commodity")
	}

	v, err := s.cache.GetOrCompute(ctx, priceRequest(district, commodity), func(ctx context.Context) (any, error) {
		return s.fetch(ctx, district, commodity), nil
	})
	if err != nil {
		return PriceReport{}, err
	}
	return v.(PriceReport), nil
}

// WarmEntry returns the warm-up entry for a district/commodity pair.
func (s *Service) WarmEntry(district, commodity string) cache.WarmEntry[any] {
	commodity = strings.ToLower(strings.TrimSpace(commodity))
	return cache.WarmEntry[any]{
		Request: priceRequest(district, commodity),
		Fetch: func(ctx context.Context) (any, error) {
			return s.fetch(ctx, district, commodity), nil
		},
	}
}

// Invalidate drops all cached market prices, forcing the next read of each
// pair to hit the feed. Returns the number of entries removed.
func (s *Service) Invalidate() int {
	return s.cache.InvalidateMatching("market:")
}

func priceRequest(district, commodity string) cache.Request {
	return cache.Request{
		Key:      "market:" + district + ":" + commodity,
		Category: cache.CategoryMarket,
	}
}

// fetch consults the configured feed and degrades to the fallback table on
// any failure.
func (s *Service) fetch(ctx context.Context, district, commodity string) PriceReport {
	if s.feedURL == "" {
		return fallbackPrices(district, commodity, time.Now())
	}

	report, err := s.fetchFeed(ctx, district, commodity)
	if err != nil {
		s.log.WarnContext(ctx, "market feed fetch failed, serving fallback",
			slog.String("district", district),
			slog.String("commodity", commodity),
			slog.String("error", err.Error()),
		)
		return fallbackPrices(district, commodity, time.Now())
	}
	return report
}

func (s *Service) fetchFeed(ctx context.Context, district, commodity string) (PriceReport, error) {
	q := url.Values{}
	q.Set("district", district)
	q.Set("commodity", commodity)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.feedURL+"?"+q.Encode(), nil)
	if err != nil {
		return PriceReport{}, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return PriceReport{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return PriceReport{}, fmt.Errorf("market: feed status %d", resp.StatusCode)
	}

	var payload struct {
		Mandi      string  `json:"mandi"`
		MinPrice   float64 `json:"min_price"`
		MaxPrice   float64 `json:"max_price"`
		ModalPrice float64 `json:"modal_price"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return PriceReport{}, err
	}
	if payload.ModalPrice <= 0 {
		return PriceReport{}, fmt.Errorf("market: feed returned no price")
	}

	return PriceReport{
		District:   district,
		Commodity:  commodity,
		Mandi:      payload.Mandi,
		MinPrice:   payload.MinPrice,
		MaxPrice:   payload.MaxPrice,
		ModalPrice: payload.ModalPrice,
		Unit:       "INR/quintal",
		Source:     SourceFeed,
		FetchedAt:  time.Now(),
	}, nil
}
