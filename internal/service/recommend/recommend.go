// Package recommend consumes the pre-trained gradient-boosted crop model
// and turns a farm's soil profile plus current district weather into a
// ranked crop list. The model file is opaque input; without one the service
// ranks with agronomy-table heuristics instead.
package recommend

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/agrivisor/agrivisor/internal/repository"
	"github.com/agrivisor/agrivisor/internal/service/weather"
)

// Source labels for Recommendation.Source.
const (
	SourceModel     = "model"
	SourceHeuristic = "heuristic"
)

// topCrops bounds the ranked list returned to callers.
const topCrops = 5

// CropScore is one ranked crop suggestion.
type CropScore struct {
	Crop        string  `json:"crop"`
	Probability float64 `json:"probability"`
	Rank        int     `json:"rank"`
}

// Recommendation is the ranked result for one farm.
type Recommendation struct {
	FarmID       string      `json:"farm_id"`
	District     string      `json:"district"`
	ModelVersion string      `json:"model_version,omitempty"`
	Source       string      `json:"source"`
	Scores       []CropScore `json:"scores"`
	GeneratedAt  time.Time   `json:"generated_at"`
}

// Service scores farms against the crop model.
type Service struct {
	model   *Model
	store   *ResultStore
	weather *weather.Service
	log     *slog.Logger
}

// NewService creates a recommendation service. model may be nil (heuristic
// ranking) and store may be nil (no persistence).
func NewService(model *Model, store *ResultStore, w *weather.Service, log *slog.Logger) *Service {
	return &Service{model: model, store: store, weather: w, log: log}
}

// Recommend returns the ranked crop list for a farm in its owner's district.
// Results are persisted keyed by farm and soil fingerprint, so an unchanged
// farm is served from the store while edited soil values force re-scoring.
func (s *Service) Recommend(ctx context.Context, farm *repository.Farm, district string) (*Recommendation, error) {
	report, err := s.weather.Current(ctx, district)
	if err != nil {
		return nil, err
	}

	features := Features{
		Nitrogen:     farm.Nitrogen,
		Phosphorus:   farm.Phosphorus,
		Potassium:    farm.Potassium,
		TemperatureC: report.TemperatureC,
		Humidity:     report.Humidity,
		SoilPH:       farm.SoilPH,
		RainfallMM:   report.RainfallMM,
	}

	key := s.resultKey(farm.ID.String(), features)
	if stored, err := s.store.Get(ctx, key); err == nil {
		return stored, nil
	} else if !errors.Is(err, ErrNoStoredResult) {
		s.log.WarnContext(ctx, "recommendation store read failed",
			slog.String("farm_id", farm.ID.String()),
			slog.String("error", err.Error()),
		)
	}

	rec := s.score(farm.ID.String(), district, features)

	if err := s.store.Save(ctx, key, rec); err != nil {
		s.log.WarnContext(ctx, "recommendation store write failed",
			slog.String("farm_id", farm.ID.String()),
			slog.String("error", err.Error()),
		)
	}

	return rec, nil
}

func (s *Service) score(farmID, district string, features Features) *Recommendation {
	rec := &Recommendation{
		FarmID:      farmID,
		District:    district,
		GeneratedAt: time.Now(),
	}

	if s.model == nil {
		rec.Source = SourceHeuristic
		rec.Scores = truncate(heuristicScores(features))
		return rec
	}

	probs := s.model.Score(features)
	scores := make([]CropScore, len(probs))
	for i, p := range probs {
		scores[i] = CropScore{Crop: s.model.Classes[i], Probability: p}
	}
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Probability > scores[j].Probability
	})
	for i := range scores {
		scores[i].Rank = i + 1
	}

	rec.Source = SourceModel
	rec.ModelVersion = s.model.Version
	rec.Scores = truncate(scores)
	return rec
}

// resultKey fingerprints the full feature row plus model version, so any
// change in soil values, weather band, or deployed model re-scores.
func (s *Service) resultKey(farmID string, f Features) string {
	version := ""
	if s.model != nil {
		version = s.model.Version
	}
	sum := sha256.Sum256(fmt.Appendf(nil, "%s|%s|%.2f|%.2f|%.2f|%.2f|%.0f|%.0f|%.0f",
		farmID, version,
		f.Nitrogen, f.Phosphorus, f.Potassium, f.SoilPH,
		f.TemperatureC, f.Humidity, f.RainfallMM,
	))
	return farmID + ":" + hex.EncodeToString(sum[:8])
}

func truncate(scores []CropScore) []CropScore {
	if len(scores) > topCrops {
		return scores[:topCrops]
	}
	return scores
}
