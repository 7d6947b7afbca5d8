package market

import (
	"hash/fnv"
	"time"
)

// basePrices lists typical modal rates in rupees per quintal; unknown
// commodities settle on a generic rate rather than failing the request.
var basePrices = map[string]float64{
	"rice":        2500,
	"paddy":       2180,
	"wheat":       2275,
	"maize":       2090,
	"gram":        5440,
	"arhar":       7000,
	"mustard":     5650,
	"groundnut":   6377,
	"potato":      1400,
	"onion":       2200,
	"tomato":      1800,
	"sugarcane":   340,
	"ragi":        3846,
	"lentil":      6425,
	"soybean":     4600,
	"turmeric":    7500,
	"ginger":      8200,
	"cauliflower": 1600,
}

const genericBasePrice = 2000

// fallbackPrices builds a deterministic synthetic report for a pair and day.
// A small hash-derived spread imitates the min/modal/max structure of mandi
// bulletins without pretending to be live data.
func fallbackPrices(district, commodity string, now time.Time) PriceReport {
	base, ok := basePrices[commodity]
	if !ok {
		base = genericBasePrice
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(district))
	_, _ = h.Write([]byte(commodity))
	_, _ = h.Write([]byte(now.Format(time.DateOnly)))
	jitter := float64(h.Sum32()%11)/100.0 - 0.05 // [-5%, +5%]

	modal := base * (1 + jitter)
	return PriceReport{
		District:   district,
		Commodity:  commodity,
		Mandi:      district + " Krishi Bazar",
		MinPrice:   modal * 0.93,
		MaxPrice:   modal * 1.08,
		ModalPrice: modal,
		Unit:       "INR/quintal",
		Source:     SourceFallback,
		FetchedAt:  now,
	}
}
