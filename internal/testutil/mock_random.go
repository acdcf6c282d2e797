package testutil

import (
	"facility-locator/internal/models"
)

// ScriptedSource is a random source for tests. It replays Values in order
// and then keeps returning Fallback.
type ScriptedSource struct {
	Values   []float64
	Fallback float64
	Calls    int
}

// NewScriptedSource creates a source that replays values
func NewScriptedSource(values ...float64) *ScriptedSource {
	return &ScriptedSource{Values: values}
}

// Heads returns a source whose draws always fall below any positive probability
func Heads() *ScriptedSource {
	return &ScriptedSource{Fallback: 0}
}

// Tails returns a source whose draws never fall below a probability of one
// or less
func Tails() *ScriptedSource {
	return &ScriptedSource{Fallback: 1}
}

// Float64 returns the next scripted value
func (s *ScriptedSource) Float64() float64 {
	s.Calls++
	if len(s.Values) == 0 {
		return s.Fallback
	}
	v := s.Values[0]
	s.Values = s.Values[1:]
	return v
}

// Demands builds demands with IDs starting at firstID from the given points
func Demands(firstID int64, points ...models.Coordinates) []*models.Demand {
	out := make([]*models.Demand, len(points))
	for i, p := range points {
		out[i] = models.NewDemand(firstID+int64(i), p)
	}
	return out
}

// FacilityServing builds a facility that already serves demands
func FacilityServing(id int64, loc models.Coordinates, openingCost float64, demands ...*models.Demand) *models.Facility {
	f := models.NewFacility(id, loc, openingCost)
	for _, d := range demands {
		f.Serve(d)
	}
	return f
}
