// Package geo resolves free-form place queries to coordinates.
//
// Lookups run through the same fallback chain machinery as the data
// providers: Azure Maps first, then Google geocoding. There is no synthetic
// fallback for coordinates; an empty resolution means geocoding failed.
package geo

// Coordinates is a resolved latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}
