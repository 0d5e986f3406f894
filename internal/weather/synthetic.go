package weather

import "time"

// syntheticTemps keys placeholder temperatures off the city so degraded
// responses stay deterministic per query.
var syntheticTemps = map[string]float64{
	"Norfolk":      72,
	"El Paso":      85,
	"Atlanta":      68,
	"Providence":   55,
	"Birmingham":   70,
	"Chesterfield": 65,
	"Seattle":      58,
}

// Synthetic returns the deterministic placeholder reading used when every
// provider in the chain is unconfigured or failed.
func Synthetic(q Query) []Reading {
	temp, ok := syntheticTemps[q.City]
	if !ok {
		temp = 70
	}

	return []Reading{{
		TemperatureF: temp,
		FeelsLikeF:   temp + 2,
		Description:  "Partly Cloudy",
		Icon:         "02d",
		HumidityPct:  65,
		WindMPH:      8,
		City:         q.City,
		State:        q.State,
		Country:      "US",
		Timestamp:    time.Now().UTC(),
		Synthetic:    true,
	}}
}
