package solver

import (
	"errors"
	"fmt"
	"math"

	"facility-locator/internal/geometry"
	"facility-locator/internal/models"
)

// Decision records what the online solver did with a demand
type Decision string

const (
	DecisionNone      Decision = ""
	DecisionBootstrap Decision = "bootstrap" // first facility, no coin flip
	DecisionOpen      Decision = "open"      // heads: new facility at the demand
	DecisionAssign    Decision = "assign"    // tails: nearest existing facility
)

// OnlineSolver implements Meyerson's randomized online facility location
type OnlineSolver struct {
	base
	params   OnlineParams
	coin     bool
	decision Decision
}

// NewOnlineSolver creates an online solver that takes ownership of demands
// and facilities
func NewOnlineSolver(demands []*models.Demand, facilities []*models.Facility, params OnlineParams, opts ...Option) (*OnlineSolver, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &OnlineSolver{
		base:   newBase(demands, facilities, opts),
		params: params,
		coin:   true,
	}, nil
}

// Params returns the solver parameters
func (s *OnlineSolver) Params() OnlineParams {
	return s.params
}

// Coin returns the outcome of the most recent coin flip
func (s *OnlineSolver) Coin() bool {
	return s.coin
}

// LastDecision returns what happened to the most recently processed demand
func (s *OnlineSolver) LastDecision() Decision {
	return s.decision
}

// Recalculate refreshes the cost state from the current assignment
func (s *OnlineSolver) Recalculate() error {
	return CalculateCosts(s.facilities, s.params.Metric, &s.costs)
}

// Snapshot returns the serialized state of the solver
func (s *OnlineSolver) Snapshot() models.Snapshot {
	return s.snapshot(s.coin)
}

// Process makes the irrevocable decision for one arriving demand: open a new
// facility at its location or assign it to the nearest existing facility.
func (s *OnlineSolver) Process(demand *models.Demand) error {
	if demand == nil {
		return errors.New("nil demand")
	}
	for _, d := range s.demands {
		if d.ID == demand.ID {
			return fmt.Errorf("%w: %d", ErrDuplicateDemand, demand.ID)
		}
	}

	if len(s.facilities) == 0 {
		s.open(demand)
		s.decision = DecisionBootstrap
		return s.Recalculate()
	}

	idx, distance, err := nearestFacility(s.facilities, demand.Location, s.params.Metric)
	if err != nil {
		return err
	}
	nearest := s.facilities[idx]
	s.logger.Debug().
		Int64("facility_id", nearest.ID).
		Float64("distance", distance).
		Msg("nearest facility")

	probability := openingProbability(s.params.Probability, distance, s.params.OpeningCost)
	s.coin = s.random.Float64() < probability
	s.logger.Debug().
		Float64("probability", probability).
		Bool("coin", s.coin).
		Msg("coin flipped")

	if s.coin {
		s.open(demand)
		s.decision = DecisionOpen
	} else {
		s.assign(nearest, demand)
		s.decision = DecisionAssign
	}

	if err := s.Recalculate(); err != nil {
		return err
	}
	s.logger.Debug().Float64("cost", s.costs.Current).Msg("costs updated")
	return nil
}

func (s *OnlineSolver) open(demand *models.Demand) {
	f := models.NewFacility(s.nextFacilityID(), demand.Location, s.params.OpeningCost)
	f.Serve(demand)
	s.facilities = append(s.facilities, f)
	s.demands = append(s.demands, demand)
	s.logger.Info().
		Int64("demand_id", demand.ID).
		Int64("facility_id", f.ID).
		Msg("opened facility for demand")
}

func (s *OnlineSolver) assign(f *models.Facility, demand *models.Demand) {
	f.Serve(demand)
	s.demands = append(s.demands, demand)
	s.logger.Info().
		Int64("demand_id", demand.ID).
		Int64("facility_id", f.ID).
		Msg("assigned demand to facility")
}

// nextFacilityID numbers facilities by position, skipping past any larger
// ID supplied by the caller so IDs stay unique
func (s *OnlineSolver) nextFacilityID() int64 {
	next := int64(len(s.facilities))
	for _, f := range s.facilities {
		if f.ID >= next {
			next = f.ID + 1
		}
	}
	return next
}

// openingProbability scales the ratio of the nearest distance to the opening
// cost, rounds it to three decimals and caps it at one. Rounding happens
// before the cap. A zero opening cost always opens unless the demand sits on
// an existing facility or the scale is zero.
func openingProbability(scale, distance, openingCost float64) float64 {
	if scale == 0 || distance == 0 {
		return 0
	}
	if openingCost == 0 {
		return 1
	}
	p := scale * (distance / openingCost)
	p = math.RoundToEven(p*1000) / 1000
	return math.Min(p, 1)
}

// nearestFacility returns the index of the closest facility. Ties go to the
// earliest facility in slice order.
func nearestFacility(facilities []*models.Facility, loc models.Coordinates, metric geometry.Metric) (int, float64, error) {
	best := -1
	bestDist := math.Inf(1)
	for i, f := range facilities {
		d, err := geometry.Distance(f.Location, loc, metric)
		if err != nil {
			return -1, 0, fmt.Errorf("facility %d: %w", f.ID, err)
		}
		if best < 0 || d < bestDist {
			best = i
			bestDist = d
		}
	}
	if best < 0 {
		return -1, 0, ErrEmptyInput
	}
	return best, bestDist, nil
}
