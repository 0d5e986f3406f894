// Package store caches normalized weather readings for the dashboard warm
// path. The chat relay never reads from it; relay calls stay stateless.
package store

import (
	"errors"
	"sync"
	"time"

	"github.com/citygrid/concierge/internal/weather"
)

// ErrNotFound is returned when no reading is cached for a query.
var ErrNotFound = errors.New("no weather data for location")

// MemoryStore is a concurrency-safe in-memory cache of weather readings,
// keyed by query, with count and age retention.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]weather.Reading

	maxHistory int           // max readings per location, <=0 is unlimited
	maxAge     time.Duration // max reading age, 0 is unlimited
}

// NewMemoryStore creates a MemoryStore with the given retention limits.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string][]weather.Reading),
		maxHistory: maxHistory,
		maxAge:     maxAge,
	}
}

// Save appends a reading for the query and enforces retention.
func (s *MemoryStore) Save(q weather.Query, r weather.Reading) {
	key := q.Key()

	s.mu.Lock()
	defer s.mu.Unlock()

	readings := append(s.data[key], r)

	if s.maxHistory > 0 && len(readings) > s.maxHistory {
		readings = readings[len(readings)-s.maxHistory:]
	}

	if s.maxAge > 0 {
		cutoff := time.Now().Add(-s.maxAge)
		i := 0
		for ; i < len(readings); i++ {
			if !readings[i].Timestamp.Before(cutoff) {
				break
			}
		}
		readings = readings[i:]
	}

	s.data[key] = readings
}

// Latest returns the most recent cached reading for the query.
func (s *MemoryStore) Latest(q weather.Query) (weather.Reading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	readings := s.data[q.Key()]
	if len(readings) == 0 {
		return weather.Reading{}, ErrNotFound
	}
	return readings[len(readings)-1], nil
}

// Range returns all cached readings for the query between from and to,
// inclusive.
func (s *MemoryStore) Range(q weather.Query, from, to time.Time) ([]weather.Reading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	readings := s.data[q.Key()]
	if len(readings) == 0 {
		return nil, ErrNotFound
	}

	var result []weather.Reading
	for _, r := range readings {
		if !r.Timestamp.Before(from) && !r.Timestamp.After(to) {
			result = append(result, r)
		}
	}
	if len(result) == 0 {
		return nil, ErrNotFound
	}
	return result, nil
}
