package weather

import (
	"hash/fnv"
	"time"
)

// seasonal holds the plateau climate normals the fallback is built from.
type seasonal struct {
	tempC      float64
	humidity   float64
	rainfallMM float64
}

// monthNormals approximates the Chota Nagpur plateau climate by month.
var monthNormals = [12]seasonal{
	{17, 50, 0.5},  // Jan
	{20, 45, 0.8},  // Feb
	{25, 40, 1.0},  // Mar
	{30, 35, 1.5},  // Apr
	{33, 45, 3.0},  // May
	{30, 70, 8.0},  // Jun
	{27, 85, 12.0}, // Jul
	{26, 85, 11.0}, // Aug
	{26, 80, 7.0},  // Sep
	{24, 65, 2.5},  // Oct
	{20, 55, 0.5},  // Nov
	{17, 50, 0.2},  // Dec
}

// fallbackReport builds a deterministic synthetic report for a district and
// day, so a dead upstream still yields stable, plausible advisory data.
func fallbackReport(district string, now time.Time) Report {
	normal := monthNormals[now.Month()-1]

	// Small per-district, per-day offset keeps neighbouring districts from
	// reporting identical numbers.
	h := fnv.New32a()
	_, _ = h.Write([]byte(district))
	_, _ = h.Write([]byte(now.Format(time.DateOnly)))
	jitter := float64(h.Sum32()%700)/100.0 - 3.5 // [-3.5, +3.5)

	report := Report{
		District:     district,
		TemperatureC: normal.tempC + jitter,
		Humidity:     clamp(normal.humidity+2*jitter, 10, 100),
		RainfallMM:   max(normal.rainfallMM+jitter/2, 0),
		Source:       SourceFallback,
		FetchedAt:    now,
	}
	report.Condition = conditionFor(report.TemperatureC, report.RainfallMM)
	return report
}

func clamp(v, lo, hi float64) float64 {
	return min(max(v, lo), hi)
}
