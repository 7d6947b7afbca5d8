package cache

import "time"

// Well-known data categories used by the advisory services.
const (
	CategoryMarket    = "market"
	CategoryWeather   = "weather"
	CategoryAnalytics = "analytics"
)

// fallbackTTL applies when neither the requested category nor the market
// category is configured.
const fallbackTTL = 15 * time.Minute

// TTLDefaults maps a data category to its default time-to-live.
type TTLDefaults map[string]time.Duration

// DefaultTTLs returns the standard category defaults: market data changes
// intraday, weather is refreshed hourly, analytics sit in between.
func DefaultTTLs() TTLDefaults {
	return TTLDefaults{
		CategoryMarket:    15 * time.Minute,
		CategoryWeather:   time.Hour,
		CategoryAnalytics: 30 * time.Minute,
	}
}

// Resolve returns the effective TTL for a request: a non-zero override wins,
// otherwise the category default applies, and an unrecognized category falls
// back to the market default. A negative override passes through unchanged so
// the caller's "compute but do not retain" intent survives resolution.
func (d TTLDefaults) Resolve(category string, override time.Duration) time.Duration {
	if override != 0 {
		return override
	}
	if ttl, ok := d[category]; ok {
		return ttl
	}
	if ttl, ok := d[CategoryMarket]; ok {
		return ttl
	}
	return fallbackTTL
}
