package solver

import (
	"fmt"

	"facility-locator/internal/geometry"
	"facility-locator/internal/models"
)

// TotalCost sums opening costs and the distance from every facility to each
// demand it serves. It is always computed from scratch.
func TotalCost(facilities []*models.Facility, metric geometry.Metric) (float64, error) {
	total := 0.0
	for _, f := range facilities {
		total += f.OpeningCost
		for _, d := range f.Served() {
			dist, err := geometry.Distance(f.Location, d.Location, metric)
			if err != nil {
				return 0, fmt.Errorf("facility %d to demand %d: %w", f.ID, d.ID, err)
			}
			total += dist
		}
	}
	return total, nil
}

// CalculateCosts recomputes the total cost and shifts it into state.
// On error state is left untouched.
func CalculateCosts(facilities []*models.Facility, metric geometry.Metric, state *models.CostState) error {
	total, err := TotalCost(facilities, metric)
	if err != nil {
		return err
	}
	state.Update(total)
	return nil
}
