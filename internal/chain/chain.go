// Package chain implements the generic multi-provider fallback resolver.
//
// A chain is an ordered slice of providers tried in priority order. Chain
// order is data, not code: tests and callers build chains by slicing
// providers together, and the resolver never reorders or merges results
// across providers.
package chain

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// SyntheticProvider is the provider identifier reported when every entry in
// a chain was unconfigured or failed and the synthetic fallback was used.
const SyntheticProvider = "synthetic"

// Provider is one entry in a fallback chain. Configured is the availability
// predicate: an unconfigured provider is skipped without counting as a
// failure. Fetch returns the provider's normalized records for the query.
type Provider[Q, T any] interface {
	Name() string
	Configured() bool
	Fetch(ctx context.Context, q Q) ([]T, error)
}

// Resolution is the outcome of walking a chain. AllFailed is true only when
// no provider produced data and Records holds the synthetic fallback (or is
// empty, when the chain has no synthetic source).
type Resolution[T any] struct {
	Records   []T
	Provider  string
	AllFailed bool
}

// Resolve walks providers in priority order and returns the first non-empty
// result set. Individual provider errors, timeouts, and empty result sets are
// logged and absorbed here; they never reach the caller. When every provider
// is unconfigured or fails, the synth function (keyed off the query, so the
// output is deterministic) supplies a degraded result set.
func Resolve[Q, T any](
	ctx context.Context,
	logger zerolog.Logger,
	providers []Provider[Q, T],
	timeout time.Duration,
	synth func(Q) []T,
	q Q,
) Resolution[T] {
	for _, p := range providers {
		if !p.Configured() {
			logger.Debug().Str("provider", p.Name()).Msg("provider not configured, skipping")
			continue
		}

		fetchCtx, cancel := context.WithTimeout(ctx, timeout)
		records, err := p.Fetch(fetchCtx, q)
		cancel()

		if err != nil {
			logger.Warn().Err(err).Str("provider", p.Name()).Msg("provider fetch failed, trying next")
			continue
		}
		if len(records) == 0 {
			logger.Debug().Str("provider", p.Name()).Msg("provider returned no records, trying next")
			continue
		}

		logger.Info().Str("provider", p.Name()).Int("records", len(records)).Msg("chain resolved")
		return Resolution[T]{Records: records, Provider: p.Name()}
	}

	logger.Warn().Msg("all providers unconfigured or failed, using synthetic fallback")
	res := Resolution[T]{Provider: SyntheticProvider, AllFailed: true}
	if synth != nil {
		res.Records = synth(q)
	}
	return res
}
