package enrich

import "strings"

// Category labels what a matched keyword triggers.
type Category string

const (
	CategoryWeather Category = "weather"
	CategoryEvents  Category = "events"
)

// RuleTable maps trigger terms to categories. The table is data so new
// categories can be added without touching the pipeline's control flow.
type RuleTable map[string]Category

// DefaultRules returns the stock trigger terms.
//
// Note "indoor"/"outdoor" are event triggers even in weather-only phrasing
// ("is it good weather for outdoor stuff" fires both lookups). That overlap
// is deliberate: event recommendations are weather-conditioned anyway.
func DefaultRules() RuleTable {
	return RuleTable{
		"weather":            CategoryWeather,
		"temperature":        CategoryWeather,
		"temp":               CategoryWeather,
		"forecast":           CategoryWeather,
		"rain":               CategoryWeather,
		"snow":               CategoryWeather,
		"sunny":              CategoryWeather,
		"cloudy":             CategoryWeather,
		"how hot":            CategoryWeather,
		"how cold":           CategoryWeather,
		"what's the weather": CategoryWeather,

		"event":            CategoryEvents,
		"activities":       CategoryEvents,
		"things to do":     CategoryEvents,
		"what's happening": CategoryEvents,
		"recommendations":  CategoryEvents,
		"suggest":          CategoryEvents,
		"outdoor":          CategoryEvents,
		"indoor":           CategoryEvents,
	}
}

// Classification reports which categories a message matched. A message can
// match both, either, or neither.
type Classification struct {
	Weather bool
	Events  bool
}

// Any reports whether anything matched at all.
func (c Classification) Any() bool {
	return c.Weather || c.Events
}

// Classify tests the lower-cased message against every rule term using
// substring containment.
func (t RuleTable) Classify(message string) Classification {
	lower := strings.ToLower(message)

	var cls Classification
	for term, category := range t {
		if !strings.Contains(lower, term) {
			continue
		}
		switch category {
		case CategoryWeather:
			cls.Weather = true
		case CategoryEvents:
			cls.Events = true
		}
	}
	return cls
}
