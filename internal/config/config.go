// Package config holds the tunable parameters of the analysis engine.
// The coverage thresholds and score weights are design parameters, not
// contract: the analyzer only promises monotone scoring, so deployments may
// tune these through the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Params are the engine's tunable knobs. Zero values are invalid; use
// Default or Load.
type Params struct {
	// CoverageThreshold is the minimum existing-index coverage (0..1) below
	// which a recommendation is emitted.
	CoverageThreshold float64 `env:"COVERAGE_THRESHOLD" envDefault:"0.80"`
	// ExtendThreshold is the minimum coverage (0..1) an existing prefix
	// index must reach for EXTEND_INDEX to be preferred over CREATE_INDEX.
	ExtendThreshold float64 `env:"EXTEND_THRESHOLD" envDefault:"0.50"`

	// SelectivityWeight scales the selectivity component of the benefit
	// score (its maximum contribution out of 100).
	SelectivityWeight float64 `env:"SELECTIVITY_WEIGHT" envDefault:"70"`
	// NeutralSelectivity is the selectivity component used when statistics
	// are missing; mid-range rather than zero so stale stats never bury a
	// genuinely useful recommendation.
	NeutralSelectivity float64 `env:"NEUTRAL_SELECTIVITY" envDefault:"35"`
	// SortAvoidanceBonus is added when the recommended index also satisfies
	// the query's GROUP BY/ORDER BY for that table.
	SortAvoidanceBonus float64 `env:"SORT_BONUS" envDefault:"18"`
	// CoveringBonus is added when the index would cover the projection.
	CoveringBonus float64 `env:"COVERING_BONUS" envDefault:"12"`
	// RedundantScore is the fixed benefit assigned to DROP_REDUNDANT
	// recommendations.
	RedundantScore float64 `env:"REDUNDANT_SCORE" envDefault:"30"`

	// CacheTTL and CacheCapacity configure the optional metadata cache.
	CacheTTL      time.Duration `env:"CACHE_TTL" envDefault:"5m"`
	CacheCapacity int           `env:"CACHE_CAPACITY" envDefault:"512"`
}

// Default returns the built-in parameter set.
func Default() Params {
	return Params{
		CoverageThreshold:  0.80,
		ExtendThreshold:    0.50,
		SelectivityWeight:  70,
		NeutralSelectivity: 35,
		SortAvoidanceBonus: 18,
		CoveringBonus:      12,
		RedundantScore:     30,
		CacheTTL:           5 * time.Minute,
		CacheCapacity:      512,
	}
}

// Load reads parameters from SQLADVISOR_-prefixed environment variables,
// falling back to the defaults.
func Load() (Params, error) {
	params, err := env.ParseAsWithOptions[Params](env.Options{Prefix: "SQLADVISOR_"})
	if err != nil {
		return Params{}, fmt.Errorf("load analysis parameters: %w", err)
	}
	if err := params.Validate(); err != nil {
		return Params{}, err
	}
	return params, nil
}

// Validate checks the parameter ranges.
func (p Params) Validate() error {
	if p.CoverageThreshold <= 0 || p.CoverageThreshold > 1 {
		return fmt.Errorf("coverage threshold %v outside (0, 1]", p.CoverageThreshold)
	}
	if p.ExtendThreshold <= 0 || p.ExtendThreshold > 1 {
		return fmt.Errorf("extend threshold %v outside (0, 1]", p.ExtendThreshold)
	}
	if p.ExtendThreshold > p.CoverageThreshold {
		return fmt.Errorf("extend threshold %v above coverage threshold %v",
			p.ExtendThreshold, p.CoverageThreshold)
	}
	if p.SelectivityWeight <= 0 || p.NeutralSelectivity < 0 ||
		p.NeutralSelectivity > p.SelectivityWeight {
		return fmt.Errorf("neutral selectivity %v outside [0, %v]",
			p.NeutralSelectivity, p.SelectivityWeight)
	}
	return nil
}
