package solver

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"facility-locator/internal/geometry"
	"facility-locator/internal/models"
	"facility-locator/internal/testutil"
)

func onlineParams(probability, openingCost float64) OnlineParams {
	return OnlineParams{
		Probability: probability,
		OpeningCost: openingCost,
		Metric:      geometry.MetricEuclidean,
	}
}

// existingInstance returns one demand at the origin served by a facility
// at the origin with opening cost 10
func existingInstance() ([]*models.Demand, []*models.Facility) {
	demands := testutil.Demands(1, models.Coordinates{0, 0})
	facilities := []*models.Facility{
		testutil.FacilityServing(0, models.Coordinates{0, 0}, 10, demands[0]),
	}
	return demands, facilities
}

func TestOnline_BootstrapOpensFirstFacility(t *testing.T) {
	rnd := testutil.Tails()
	s, err := NewOnlineSolver(nil, nil, onlineParams(1.0, 10.0), WithRandomSource(rnd))
	require.NoError(t, err)
	require.NoError(t, s.Recalculate())

	err = s.Process(models.NewDemand(1, models.Coordinates{0, 0}))
	require.NoError(t, err)

	assert.Len(t, s.Facilities(), 1)
	assert.Len(t, s.Demands(), 1)
	assert.Equal(t, models.CostState{Current: 10, Previous: 0, Delta: 10}, s.Costs())
	assert.Equal(t, DecisionBootstrap, s.LastDecision())
	assert.True(t, s.Coin())
	assert.Equal(t, 0, rnd.Calls, "bootstrap must not consume a random draw")
}

func TestOnline_BootstrapIgnoresProbability(t *testing.T) {
	s, err := NewOnlineSolver(nil, nil, onlineParams(0, 1e9), WithRandomSource(testutil.Tails()))
	require.NoError(t, err)

	require.NoError(t, s.Process(models.NewDemand(5, models.Coordinates{-3, 8})))

	facilities := s.Facilities()
	require.Len(t, facilities, 1)
	assert.Equal(t, models.Coordinates{-3, 8}, facilities[0].Location)
	assert.Equal(t, []int64{5}, facilities[0].ServedIDs())
	assert.Equal(t, 1e9, s.Costs().Current)
}

func TestOnline_ZeroOpeningCostAlwaysOpens(t *testing.T) {
	demands, facilities := existingInstance()
	s, err := NewOnlineSolver(demands, facilities, onlineParams(1.0, 0.0))
	require.NoError(t, err)
	require.NoError(t, s.Recalculate())

	require.NoError(t, s.Process(models.NewDemand(2, models.Coordinates{10, -10})))

	assert.True(t, s.Coin())
	assert.Equal(t, DecisionOpen, s.LastDecision())
	assert.Len(t, s.Facilities(), 2)
	assert.Len(t, s.Demands(), 2)
	assert.Equal(t, models.CostState{Current: 10, Previous: 10, Delta: 0}, s.Costs())

	opened := s.Facilities()[1]
	assert.Equal(t, int64(1), opened.ID)
	assert.Equal(t, 0.0, opened.OpeningCost)
	assert.Equal(t, []int64{2}, opened.ServedIDs())
}

func TestOnline_HighOpeningCostAssignsToNearest(t *testing.T) {
	demands, facilities := existingInstance()
	// Heads would open if the probability were positive at all
	s, err := NewOnlineSolver(demands, facilities, onlineParams(1.0, 1_000_000.0), WithRandomSource(testutil.Heads()))
	require.NoError(t, err)
	require.NoError(t, s.Recalculate())

	require.NoError(t, s.Process(models.NewDemand(2, models.Coordinates{3, 4})))

	assert.False(t, s.Coin())
	assert.Equal(t, DecisionAssign, s.LastDecision())
	assert.Len(t, s.Facilities(), 1)
	assert.Len(t, s.Demands(), 2)
	assert.Equal(t, []int64{1, 2}, s.Facilities()[0].ServedIDs())

	costs := s.Costs()
	assert.InDelta(t, 15.0, costs.Current, 1e-9)
	assert.Equal(t, 10.0, costs.Previous)
	assert.InDelta(t, 5.0, costs.Delta, 1e-9)
}

func TestOnline_ForcedBranches(t *testing.T) {
	// distance 5, opening cost 10, probability 1 -> p = 0.5
	t.Run("heads opens", func(t *testing.T) {
		demands, facilities := existingInstance()
		s, err := NewOnlineSolver(demands, facilities, onlineParams(1.0, 10.0), WithRandomSource(testutil.NewScriptedSource(0.49)))
		require.NoError(t, err)

		require.NoError(t, s.Process(models.NewDemand(2, models.Coordinates{3, 4})))
		assert.True(t, s.Coin())
		assert.Len(t, s.Facilities(), 2)
		assert.Equal(t, 20.0, s.Costs().Current)
	})

	t.Run("tails assigns", func(t *testing.T) {
		demands, facilities := existingInstance()
		s, err := NewOnlineSolver(demands, facilities, onlineParams(1.0, 10.0), WithRandomSource(testutil.NewScriptedSource(0.5)))
		require.NoError(t, err)

		require.NoError(t, s.Process(models.NewDemand(2, models.Coordinates{3, 4})))
		assert.False(t, s.Coin())
		assert.Len(t, s.Facilities(), 1)
		assert.InDelta(t, 15.0, s.Costs().Current, 1e-9)
	})
}

func TestOnline_TieBreakPrefersFirstFacility(t *testing.T) {
	for run := 0; run < 5; run++ {
		facilities := []*models.Facility{
			models.NewFacility(7, models.Coordinates{1, 0}, 10),
			models.NewFacility(3, models.Coordinates{-1, 0}, 10),
			models.NewFacility(9, models.Coordinates{0, 1}, 10),
		}
		s, err := NewOnlineSolver(nil, facilities, onlineParams(1.0, 1e6), WithRandomSource(testutil.Tails()))
		require.NoError(t, err)

		require.NoError(t, s.Process(models.NewDemand(1, models.Coordinates{0, 0})))

		assert.Equal(t, []int64{1}, s.Facilities()[0].ServedIDs(), "run %d", run)
		assert.Empty(t, s.Facilities()[1].ServedIDs())
		assert.Empty(t, s.Facilities()[2].ServedIDs())
	}

	// Reversing the caller order flips the winner
	facilities := []*models.Facility{
		models.NewFacility(3, models.Coordinates{-1, 0}, 10),
		models.NewFacility(7, models.Coordinates{1, 0}, 10),
	}
	s, err := NewOnlineSolver(nil, facilities, onlineParams(1.0, 1e6), WithRandomSource(testutil.Tails()))
	require.NoError(t, err)
	require.NoError(t, s.Process(models.NewDemand(1, models.Coordinates{0, 0})))
	assert.Equal(t, []int64{1}, s.Facilities()[0].ServedIDs())
}

func TestOnline_ManhattanMetric(t *testing.T) {
	demands, facilities := existingInstance()
	params := onlineParams(1.0, 1e6)
	params.Metric = geometry.MetricManhattan
	s, err := NewOnlineSolver(demands, facilities, params, WithRandomSource(testutil.Tails()))
	require.NoError(t, err)

	require.NoError(t, s.Process(models.NewDemand(2, models.Coordinates{3, 4})))
	assert.InDelta(t, 17.0, s.Costs().Current, 1e-9)
}

func TestOnline_DeltaConsistency(t *testing.T) {
	s, err := NewOnlineSolver(nil, nil, onlineParams(1.0, 25.0), WithRandomSource(NewRandomSource(42)))
	require.NoError(t, err)

	points := []models.Coordinates{
		{0, 0}, {5, 5}, {-20, 3}, {40, 40}, {41, 39}, {0, 1}, {-19, 2}, {100, -100},
	}
	for i, p := range points {
		require.NoError(t, s.Process(models.NewDemand(int64(i+1), p)))

		c := s.Costs()
		assert.InDelta(t, c.Current-c.Previous, c.Delta, 1e-9)

		total, err := TotalCost(s.Facilities(), geometry.MetricEuclidean)
		require.NoError(t, err)
		assert.InDelta(t, total, c.Current, 1e-9)
	}
	assert.Len(t, s.Demands(), len(points))
}

func TestOnline_EveryDemandServedExactlyOnce(t *testing.T) {
	s, err := NewOnlineSolver(nil, nil, onlineParams(0.8, 5.0), WithRandomSource(NewRandomSource(7)))
	require.NoError(t, err)

	for i := 0; i < 30; i++ {
		loc := models.Coordinates{float64(i%7) * 3, float64(i%5) * -2}
		require.NoError(t, s.Process(models.NewDemand(int64(i), loc)))
	}

	seen := map[int64]int{}
	for _, f := range s.Facilities() {
		for _, id := range f.ServedIDs() {
			seen[id]++
		}
	}
	assert.Len(t, seen, 30)
	for id, n := range seen {
		assert.Equal(t, 1, n, "demand %d", id)
	}
}

func TestOnline_DuplicateDemandRejected(t *testing.T) {
	demands, facilities := existingInstance()
	s, err := NewOnlineSolver(demands, facilities, onlineParams(1.0, 10.0))
	require.NoError(t, err)
	require.NoError(t, s.Recalculate())

	err = s.Process(models.NewDemand(1, models.Coordinates{3, 4}))
	assert.ErrorIs(t, err, ErrDuplicateDemand)
	assert.Len(t, s.Demands(), 1)
	assert.Equal(t, 10.0, s.Costs().Current)
}

func TestOnline_DimensionMismatchLeavesStateUntouched(t *testing.T) {
	demands, facilities := existingInstance()
	s, err := NewOnlineSolver(demands, facilities, onlineParams(1.0, 10.0), WithRandomSource(testutil.Heads()))
	require.NoError(t, err)

	err = s.Process(models.NewDemand(2, models.Coordinates{1, 2, 3}))
	assert.ErrorIs(t, err, geometry.ErrDimensionMismatch)
	assert.Len(t, s.Demands(), 1)
	assert.Len(t, s.Facilities(), 1)
}

func TestOnline_NewFacilityIDsStayUnique(t *testing.T) {
	facilities := []*models.Facility{models.NewFacility(1, models.Coordinates{0, 0}, 10)}
	s, err := NewOnlineSolver(nil, facilities, onlineParams(1.0, 0), WithRandomSource(testutil.Heads()))
	require.NoError(t, err)

	require.NoError(t, s.Process(models.NewDemand(1, models.Coordinates{4, 4})))
	assert.Equal(t, int64(2), s.Facilities()[1].ID)
}

func TestOnline_InvalidParams(t *testing.T) {
	_, err := NewOnlineSolver(nil, nil, onlineParams(1.5, 10))
	var perr *InvalidParamError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "probability", perr.Field)

	_, err = NewOnlineSolver(nil, nil, onlineParams(1, -1))
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "openingCosts", perr.Field)

	_, err = NewOnlineSolver(nil, nil, OnlineParams{Probability: 1, OpeningCost: 1, Metric: "chebyshev"})
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "metric", perr.Field)
}

func TestOnline_Snapshot(t *testing.T) {
	demands, facilities := existingInstance()
	s, err := NewOnlineSolver(demands, facilities, onlineParams(1.0, 1e6), WithRandomSource(testutil.Tails()))
	require.NoError(t, err)
	require.NoError(t, s.Recalculate())
	require.NoError(t, s.Process(models.NewDemand(2, models.Coordinates{3, 4})))

	snap := s.Snapshot()
	assert.Equal(t, []models.DemandRecord{
		{DemandID: 1, Location: models.Coordinates{0, 0}},
		{DemandID: 2, Location: models.Coordinates{3, 4}},
	}, snap.Demands)
	require.Len(t, snap.Facilities, 1)
	assert.Equal(t, []int64{1, 2}, snap.Facilities[0].Connection)
	assert.False(t, snap.Data.Coin)
	assert.InDelta(t, 15.0, snap.Data.Costs.Current, 1e-9)
}

func TestOpeningProbability(t *testing.T) {
	assert.Equal(t, 0.0, openingProbability(1, 5, 1_000_000))
	assert.Equal(t, 1.0, openingProbability(1, 14.14, 0))
	assert.Equal(t, 0.0, openingProbability(1, 0, 0))
	assert.Equal(t, 0.0, openingProbability(0, 10, 0))
	assert.Equal(t, 1.0, openingProbability(1, 20, 10))
	assert.InDelta(t, 0.5, openingProbability(1, 5, 10), 1e-12)
	assert.InDelta(t, 0.15, openingProbability(0.5, 3, 10), 1e-12)
	assert.InDelta(t, 0.001, openingProbability(1, 1.2345678, 1000), 1e-12)

	// rounding happens before the cap
	assert.Equal(t, 1.0, openingProbability(1, 1.0004, 1))
	assert.False(t, math.IsNaN(openingProbability(1, math.Inf(1), 1)))
}
