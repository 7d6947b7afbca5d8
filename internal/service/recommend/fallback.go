package recommend

import "sort"

// cropRange bounds the comfortable growing window for one crop, distilled
// from the agronomy tables the model was trained on.
type cropRange struct {
	crop               string
	nLo, nHi           float64
	tempLo, tempHi     float64
	humLo, humHi       float64
	phLo, phHi         float64
	rainLo, rainHi     float64
}

var cropRanges = []cropRange{
	{"rice", 60, 100, 20, 32, 70, 95, 5.0, 7.5, 150, 300},
	{"maize", 60, 100, 18, 30, 50, 75, 5.5, 7.0, 60, 110},
	{"chickpea", 20, 60, 15, 28, 10, 50, 5.5, 8.0, 60, 95},
	{"lentil", 10, 40, 15, 28, 55, 70, 5.5, 7.5, 35, 55},
	{"pigeonpeas", 10, 40, 18, 35, 30, 70, 4.5, 7.5, 90, 200},
	{"mungbean", 10, 40, 25, 35, 80, 90, 6.0, 7.5, 36, 60},
	{"banana", 80, 120, 25, 32, 75, 85, 5.5, 6.5, 90, 120},
	{"mango", 10, 40, 27, 36, 45, 55, 4.5, 7.0, 80, 100},
	{"cotton", 100, 140, 22, 28, 75, 85, 5.8, 8.0, 60, 100},
	{"jute", 60, 100, 23, 27, 70, 90, 6.0, 7.5, 150, 200},
	{"wheat", 50, 100, 12, 25, 50, 70, 6.0, 7.5, 45, 110},
	{"mustard", 40, 80, 10, 25, 50, 70, 6.0, 7.5, 30, 60},
}

// heuristicScores ranks crops by how close the inputs sit to each crop's
// comfortable window. Used when no model file is configured.
func heuristicScores(f Features) []CropScore {
	scores := make([]CropScore, 0, len(cropRanges))
	var total float64
	for _, cr := range cropRanges {
		s := bandScore(f.Nitrogen, cr.nLo, cr.nHi) +
			bandScore(f.TemperatureC, cr.tempLo, cr.tempHi) +
			bandScore(f.Humidity, cr.humLo, cr.humHi) +
			bandScore(f.SoilPH, cr.phLo, cr.phHi) +
			bandScore(f.RainfallMM, cr.rainLo, cr.rainHi)
		scores = append(scores, CropScore{Crop: cr.crop, Probability: s})
		total += s
	}

	// Normalize so heuristic output reads like the model's probabilities.
	if total > 0 {
		for i := range scores {
			scores[i].Probability /= total
		}
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Probability > scores[j].Probability
	})
	for i := range scores {
		scores[i].Rank = i + 1
	}
	return scores
}

// bandScore is 1 inside [lo, hi] and decays linearly to 0 at one band-width
// outside the window.
func bandScore(v, lo, hi float64) float64 {
	if v >= lo && v <= hi {
		return 1
	}
	width := hi - lo
	if width <= 0 {
		return 0
	}
	var dist float64
	if v < lo {
		dist = lo - v
	} else {
		dist = v - hi
	}
	if dist >= width {
		return 0
	}
	return 1 - dist/width
}
