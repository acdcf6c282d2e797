package solver

import (
	"math"

	"facility-locator/internal/geometry"
)

const (
	DefaultProbability = 1.0
	DefaultOpeningCost = 100.0
	DefaultIterations  = 10
)

// OnlineParams configures the online solver
type OnlineParams struct {
	// Probability scales the chance of opening a new facility, in [0, 1]
	Probability float64
	// OpeningCost is charged for every facility the solver opens
	OpeningCost float64
	Metric      geometry.Metric
}

// DefaultOnlineParams returns the online defaults
func DefaultOnlineParams() OnlineParams {
	return OnlineParams{
		Probability: DefaultProbability,
		OpeningCost: DefaultOpeningCost,
		Metric:      geometry.DefaultMetric,
	}
}

// Validate checks every field against its allowed range
func (p OnlineParams) Validate() error {
	if math.IsNaN(p.Probability) || p.Probability < 0 || p.Probability > 1 {
		return &InvalidParamError{Field: "probability", Reason: "must be within [0, 1]"}
	}
	if err := validateOpeningCost(p.OpeningCost); err != nil {
		return err
	}
	return validateMetric(p.Metric)
}

// OfflineParams configures the offline solver
type OfflineParams struct {
	// Iterations is the exact number of reassign/relocate rounds
	Iterations int
	// OpeningCost is accepted for symmetry with the online mode; the offline
	// solver never opens facilities
	OpeningCost float64
	Metric      geometry.Metric
}

// DefaultOfflineParams returns the offline defaults
func DefaultOfflineParams() OfflineParams {
	return OfflineParams{
		Iterations:  DefaultIterations,
		OpeningCost: DefaultOpeningCost,
		Metric:      geometry.DefaultMetric,
	}
}

// Validate checks every field against its allowed range
func (p OfflineParams) Validate() error {
	if p.Iterations < 1 {
		return &InvalidParamError{Field: "iterations", Reason: "must be a positive integer"}
	}
	if err := validateOpeningCost(p.OpeningCost); err != nil {
		return err
	}
	return validateMetric(p.Metric)
}

func validateOpeningCost(cost float64) error {
	if math.IsNaN(cost) || math.IsInf(cost, 0) || cost < 0 {
		return &InvalidParamError{Field: "openingCosts", Reason: "must be a finite non-negative number"}
	}
	return nil
}

func validateMetric(m geometry.Metric) error {
	if !m.Valid() {
		return &InvalidParamError{Field: "metric", Reason: "must be one of euclidean, manhattan"}
	}
	return nil
}
