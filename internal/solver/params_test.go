package solver

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"facility-locator/internal/geometry"
)

func TestOnlineParams_Validate(t *testing.T) {
	tests := []struct {
		name   string
		params OnlineParams
		field  string
	}{
		{"defaults", DefaultOnlineParams(), ""},
		{"zero probability", OnlineParams{0, 1, geometry.MetricEuclidean}, ""},
		{"zero opening cost", OnlineParams{1, 0, geometry.MetricManhattan}, ""},
		{"negative probability", OnlineParams{-0.1, 1, geometry.MetricEuclidean}, "probability"},
		{"probability above one", OnlineParams{1.01, 1, geometry.MetricEuclidean}, "probability"},
		{"nan probability", OnlineParams{math.NaN(), 1, geometry.MetricEuclidean}, "probability"},
		{"negative cost", OnlineParams{1, -5, geometry.MetricEuclidean}, "openingCosts"},
		{"infinite cost", OnlineParams{1, math.Inf(1), geometry.MetricEuclidean}, "openingCosts"},
		{"unknown metric", OnlineParams{1, 1, geometry.Metric("hamming")}, "metric"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate()
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var perr *InvalidParamError
			if assert.ErrorAs(t, err, &perr) {
				assert.Equal(t, tt.field, perr.Field)
			}
		})
	}
}

func TestOfflineParams_Validate(t *testing.T) {
	assert.NoError(t, DefaultOfflineParams().Validate())
	assert.NoError(t, OfflineParams{Iterations: 1, Metric: geometry.MetricManhattan}.Validate())

	var perr *InvalidParamError
	assert.ErrorAs(t, OfflineParams{Iterations: -2, Metric: geometry.MetricEuclidean}.Validate(), &perr)
	assert.ErrorAs(t, OfflineParams{Iterations: 3, OpeningCost: math.NaN(), Metric: geometry.MetricEuclidean}.Validate(), &perr)
	assert.Equal(t, "openingCosts", perr.Field)
}

func TestDefaults(t *testing.T) {
	on := DefaultOnlineParams()
	assert.Equal(t, 1.0, on.Probability)
	assert.Equal(t, 100.0, on.OpeningCost)
	assert.Equal(t, geometry.MetricEuclidean, on.Metric)

	off := DefaultOfflineParams()
	assert.Equal(t, 10, off.Iterations)
}

func TestRandomSource_Reproducible(t *testing.T) {
	a := NewRandomSource(99)
	b := NewRandomSource(99)
	for i := 0; i < 20; i++ {
		x := a.Float64()
		assert.Equal(t, x, b.Float64())
		assert.GreaterOrEqual(t, x, 0.0)
		assert.Less(t, x, 1.0)
	}

	locked := NewLockedSource(NewRandomSource(99))
	assert.Equal(t, NewRandomSource(99).Float64(), locked.Float64())
}
