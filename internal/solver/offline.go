package solver

import (
	"fmt"

	"facility-locator/internal/geometry"
	"facility-locator/internal/models"
)

// RoundStat describes one reassign/relocate round of the offline solver
type RoundStat struct {
	Round      int     `json:"round"`
	Reassigned int     `json:"reassigned"`
	Cost       float64 `json:"cost"`
}

// OfflineSolver relocates a fixed set of facilities to the centroids of the
// demands they serve, Lloyd style
type OfflineSolver struct {
	base
	params OfflineParams
	rounds []RoundStat
}

// NewOfflineSolver creates an offline solver that takes ownership of demands
// and facilities
func NewOfflineSolver(demands []*models.Demand, facilities []*models.Facility, params OfflineParams, opts ...Option) (*OfflineSolver, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &OfflineSolver{
		base:   newBase(demands, facilities, opts),
		params: params,
	}, nil
}

// Params returns the solver parameters
func (s *OfflineSolver) Params() OfflineParams {
	return s.params
}

// Rounds returns per-round statistics of the last Run
func (s *OfflineSolver) Rounds() []RoundStat {
	out := make([]RoundStat, len(s.rounds))
	copy(out, s.rounds)
	return out
}

// Recalculate refreshes the cost state from the current assignment
func (s *OfflineSolver) Recalculate() error {
	return CalculateCosts(s.facilities, s.params.Metric, &s.costs)
}

// Snapshot returns the serialized state of the solver. The offline mode does
// not flip coins, so the coin is always reported as heads.
func (s *OfflineSolver) Snapshot() models.Snapshot {
	return s.snapshot(true)
}

// Run performs exactly Iterations rounds of full reassignment followed by
// centroid relocation, then refreshes the cost state once.
func (s *OfflineSolver) Run() error {
	if len(s.facilities) == 0 {
		return ErrEmptyInput
	}
	if err := s.checkDimensions(); err != nil {
		return err
	}

	assigned := s.currentAssignment()
	s.rounds = s.rounds[:0]

	for round := 1; round <= s.params.Iterations; round++ {
		for _, f := range s.facilities {
			f.Reset()
		}

		reassigned := 0
		for i, d := range s.demands {
			idx, distance, err := nearestFacility(s.facilities, d.Location, s.params.Metric)
			if err != nil {
				return err
			}
			s.facilities[idx].Serve(d)
			if assigned[i] != idx {
				reassigned++
				assigned[i] = idx
			}
			s.logger.Debug().
				Int("round", round).
				Int64("demand_id", d.ID).
				Int64("facility_id", s.facilities[idx].ID).
				Float64("distance", distance).
				Msg("assigned demand to nearest facility")
		}

		for _, f := range s.facilities {
			if f.ServedCount() == 0 {
				continue
			}
			points := make([]models.Coordinates, 0, f.ServedCount())
			for _, d := range f.Served() {
				points = append(points, d.Location)
			}
			loc, err := geometry.Centroid(points)
			if err != nil {
				return fmt.Errorf("facility %d: %w", f.ID, err)
			}
			f.Location = loc
		}

		cost, err := TotalCost(s.facilities, s.params.Metric)
		if err != nil {
			return err
		}
		s.rounds = append(s.rounds, RoundStat{Round: round, Reassigned: reassigned, Cost: cost})
		s.logger.Debug().
			Int("round", round).
			Int("reassigned", reassigned).
			Float64("cost", cost).
			Msg("clustering round complete")
	}

	if err := s.Recalculate(); err != nil {
		return err
	}
	s.logger.Info().
		Int("iterations", s.params.Iterations).
		Float64("cost", s.costs.Current).
		Msg("clustering finished")
	return nil
}

// currentAssignment maps each demand position to the index of the facility
// serving it, or -1
func (s *OfflineSolver) currentAssignment() []int {
	assigned := make([]int, len(s.demands))
	for i, d := range s.demands {
		assigned[i] = -1
		for j, f := range s.facilities {
			if f.Serves(d.ID) {
				assigned[i] = j
				break
			}
		}
	}
	return assigned
}

// checkDimensions rejects mixed-dimension input before anything is mutated
func (s *OfflineSolver) checkDimensions() error {
	dim := s.facilities[0].Location.Dim()
	for _, f := range s.facilities {
		if f.Location.Dim() != dim {
			return fmt.Errorf("facility %d: %w", f.ID, geometry.ErrDimensionMismatch)
		}
	}
	for _, d := range s.demands {
		if d.Location.Dim() != dim {
			return fmt.Errorf("demand %d: %w", d.ID, geometry.ErrDimensionMismatch)
		}
	}
	return nil
}
