package solver

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"facility-locator/internal/models"
)

var (
	// ErrEmptyInput is returned when the offline solver runs without facilities
	ErrEmptyInput = errors.New("no facilities to assign demands to")

	// ErrDuplicateDemand is returned when the online solver receives a demand
	// whose ID it already holds
	ErrDuplicateDemand = errors.New("demand already known to solver")
)

// InvalidParamError is returned when a solver parameter is out of range
type InvalidParamError struct {
	Field  string
	Reason string
}

func (e *InvalidParamError) Error() string {
	return fmt.Sprintf("invalid parameter %s: %s", e.Field, e.Reason)
}

// Solver is the read side shared by both algorithms
type Solver interface {
	Demands() []*models.Demand
	Facilities() []*models.Facility
	Costs() models.CostState
	Snapshot() models.Snapshot
}

// RandomSource yields uniform samples in [0, 1)
type RandomSource interface {
	Float64() float64
}

// Option configures a solver
type Option func(*base)

// WithRandomSource replaces the random source used for coin flips
func WithRandomSource(rnd RandomSource) Option {
	return func(b *base) {
		if rnd != nil {
			b.random = rnd
		}
	}
}

// WithLogger sets the logger used for solver decisions
func WithLogger(logger zerolog.Logger) Option {
	return func(b *base) {
		b.logger = logger
	}
}

// base holds the state both solvers own exclusively for their lifetime
type base struct {
	demands    []*models.Demand
	facilities []*models.Facility
	costs      models.CostState
	random     RandomSource
	logger     zerolog.Logger
}

func newBase(demands []*models.Demand, facilities []*models.Facility, opts []Option) base {
	b := base{
		demands:    demands,
		facilities: facilities,
		logger:     log.Logger,
	}
	if b.demands == nil {
		b.demands = []*models.Demand{}
	}
	if b.facilities == nil {
		b.facilities = []*models.Facility{}
	}
	for _, opt := range opts {
		opt(&b)
	}
	if b.random == nil {
		b.random = SystemRandom()
	}
	return b
}

func (b *base) Demands() []*models.Demand {
	out := make([]*models.Demand, len(b.demands))
	copy(out, b.demands)
	return out
}

func (b *base) Facilities() []*models.Facility {
	out := make([]*models.Facility, len(b.facilities))
	copy(out, b.facilities)
	return out
}

func (b *base) Costs() models.CostState {
	return b.costs
}

func (b *base) snapshot(coin bool) models.Snapshot {
	snap := models.Snapshot{
		Demands:    make([]models.DemandRecord, len(b.demands)),
		Facilities: make([]models.FacilityRecord, len(b.facilities)),
		Data: models.SnapshotData{
			Costs: b.costs,
			Coin:  coin,
		},
	}
	for i, d := range b.demands {
		snap.Demands[i] = d.Record()
	}
	for i, f := range b.facilities {
		snap.Facilities[i] = f.Record()
	}
	return snap
}
