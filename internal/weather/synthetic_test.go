package weather

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyntheticKnownCity(t *testing.T) {
	readings := Synthetic(Query{City: "El Paso", State: "TX"})
	require.Len(t, readings, 1)

	r := readings[0]
	assert.Equal(t, float64(85), r.TemperatureF)
	assert.Equal(t, float64(87), r.FeelsLikeF)
	assert.Equal(t, "Partly Cloudy", r.Description)
	assert.Equal(t, "El Paso", r.City)
	assert.Equal(t, "TX", r.State)
	assert.True(t, r.Synthetic)
}

func TestSyntheticUnknownCityDefaults(t *testing.T) {
	readings := Synthetic(Query{City: "Springfield"})
	require.Len(t, readings, 1)
	assert.Equal(t, float64(70), readings[0].TemperatureF)
	assert.True(t, readings[0].Synthetic)
}

func TestQueryKey(t *testing.T) {
	assert.Equal(t, "Norfolk:VA", Query{City: "Norfolk", State: "VA"}.Key())
	assert.Equal(t, "Norfolk:", Query{City: "Norfolk"}.Key())
}
