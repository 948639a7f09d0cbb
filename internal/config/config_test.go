package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	params := Default()
	require.NoError(t, params.Validate())
	assert.Equal(t, 0.80, params.CoverageThreshold)
	assert.Equal(t, 0.50, params.ExtendThreshold)
}

func TestLoadDefaults(t *testing.T) {
	params, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), params)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("SQLADVISOR_COVERAGE_THRESHOLD", "0.9")
	t.Setenv("SQLADVISOR_SORT_BONUS", "25")
	t.Setenv("SQLADVISOR_CACHE_TTL", "90s")

	params, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 0.9, params.CoverageThreshold)
	assert.Equal(t, 25.0, params.SortAvoidanceBonus)
	assert.Equal(t, 90*time.Second, params.CacheTTL)
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("SQLADVISOR_COVERAGE_THRESHOLD", "1.5")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Params)
		wantOK bool
	}{
		{"defaults", func(*Params) {}, true},
		{"zero coverage threshold", func(p *Params) { p.CoverageThreshold = 0 }, false},
		{"coverage above one", func(p *Params) { p.CoverageThreshold = 1.1 }, false},
		{"extend above coverage", func(p *Params) { p.ExtendThreshold = 0.9 }, false},
		{"negative neutral", func(p *Params) { p.NeutralSelectivity = -1 }, false},
		{"neutral above weight", func(p *Params) { p.NeutralSelectivity = 80 }, false},
		{"zero weight", func(p *Params) { p.SelectivityWeight = 0 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := Default()
			tt.mutate(&params)
			err := params.Validate()
			if tt.wantOK {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
