// Package weather serves district-level conditions for advisory screens.
// Live data comes from Open-Meteo on a best-effort basis; any fetch or parse
// problem degrades to a synthetic seasonal report so the advisory flow keeps
// working offline.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/agrivisor/agrivisor/pkg/cache"
)

// ErrUnknownDistrict is returned for districts outside the coverage table.
var ErrUnknownDistrict = errors.New("weather: unknown district")

// Source labels for Report.Source.
const (
	SourceOpenMeteo = "open-meteo"
	SourceFallback  = "fallback"
)

const openMeteoURL = "https://api.open-meteo.com/v1/forecast?latitude=%.4f&longitude=%.4f&current=temperature_2m,relative_humidity_2m,precipitation&daily=precipitation_sum&forecast_days=1&timezone=Asia%%2FKolkata"

// Report is the weather snapshot served to advisory consumers.
type Report struct {
	District     string    `json:"district"`
	TemperatureC float64   `json:"temperature_c"`
	Humidity     float64   `json:"humidity_pct"`
	RainfallMM   float64   `json:"rainfall_mm"`
	Condition    string    `json:"condition"`
	Source       string    `json:"source"`
	FetchedAt    time.Time `json:"fetched_at"`
}

// Service reads weather through the shared advisory cache.
type Service struct {
	cache  *cache.Cache[any]
	client *http.Client
	log    *slog.Logger
}

// NewService creates a weather service. A nil client falls back to a default
// with a 10 second timeout; the cache itself never bounds fetch duration.
func NewService(c *cache.Cache[any], client *http.Client, log *slog.Logger) *Service {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Service{cache: c, client: client, log: log}
}

// Current returns the cached weather report for a district, fetching it on
// a miss. Concurrent requests for the same district share one upstream call.
func (s *Service) Current(ctx context.Context, district string) (Report, error) {
	coords, ok := districtCoords[district]
	if !ok {
		return Report{}, fmt.Errorf("%w: %s", ErrUnknownDistrict, district)
	}

	v, err := s.cache.GetOrCompute(ctx, cache.Request{
		Key:      "weather:" + district,
		Category: cache.CategoryWeather,
	}, func(ctx context.Context) (any, error) {
		return s.fetch(ctx, district, coords), nil
	})
	if err != nil {
		return Report{}, err
	}
	return v.(Report), nil
}

// WarmEntry returns the cache warm-up entry for a district, used at startup
// for known-hot districts.
func (s *Service) WarmEntry(district string) (cache.WarmEntry[any], error) {
	coords, ok := districtCoords[district]
	if !ok {
		return cache.WarmEntry[any]{}, fmt.Errorf("%w: %s", ErrUnknownDistrict, district)
	}
	return cache.WarmEntry[any]{
		Request: cache.Request{Key: "weather:" + district, Category: cache.CategoryWeather},
		Fetch: func(ctx context.Context) (any, error) {
			return s.fetch(ctx, district, coords), nil
		},
	}, nil
}

// fetch queries Open-Meteo and degrades to the synthetic fallback on any
// failure, so a cold upstream never breaks the advisory surface.
func (s *Service) fetch(ctx context.Context, district string, coords coordinates) Report {
	report, err := s.fetchOpenMeteo(ctx, district, coords)
	if err != nil {
		s.log.WarnContext(ctx, "weather fetch failed, serving fallback",
			slog.String("district", district),
			slog.String("error", err.Error()),
		)
		return fallbackReport(district, time.Now())
	}
	return report
}

func (s *Service) fetchOpenMeteo(ctx context.Context, district string, coords coordinates) (Report, error) {
	url := fmt.Sprintf(openMeteoURL, coords.lat, coords.lon)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Report{}, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return Report{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Report{}, fmt.Errorf("weather: upstream status %d", resp.StatusCode)
	}

	var payload struct {
		Current struct {
			Temperature   float64 `json:"temperature_2m"`
			Humidity      float64 `json:"relative_humidity_2m"`
			Precipitation float64 `json:"precipitation"`
		} `json:"current"`
		Daily struct {
			PrecipitationSum []float64 `json:"precipitation_sum"`
		} `json:"daily"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Report{}, err
	}

	rainfall := payload.Current.Precipitation
	if len(payload.Daily.PrecipitationSum) > 0 {
		rainfall = payload.Daily.PrecipitationSum[0]
	}

	return Report{
		District:     district,
		TemperatureC: payload.Current.Temperature,
		Humidity:     payload.Current.Humidity,
		RainfallMM:   rainfall,
		Condition:    conditionFor(payload.Current.Temperature, rainfall),
		Source:       SourceOpenMeteo,
		FetchedAt:    time.Now(),
	}, nil
}

func conditionFor(tempC, rainfallMM float64) string {
	switch {
	case rainfallMM > 10:
		return "heavy rain"
	case rainfallMM > 0.5:
		return "light rain"
	case tempC >= 35:
		return "hot"
	case tempC <= 12:
		return "cold"
	default:
		return "clear"
	}
}
