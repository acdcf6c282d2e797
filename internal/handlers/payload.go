package handlers

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"facility-locator/internal/geometry"
	"facility-locator/internal/models"
	"facility-locator/internal/solver"
)

// ErrDemandAlreadyServed is returned when two facilities in one request claim
// the same demand
var ErrDemandAlreadyServed = errors.New("demand is already served by another facility")

// MissingFieldError is returned when a required payload field is absent
type MissingFieldError struct {
	Entity string
	Field  string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("could not find [%s] in %s data", e.Field, e.Entity)
}

// DemandPayload is the wire form of a demand. Pointer fields distinguish a
// missing key from a zero value.
type DemandPayload struct {
	DemandID *int64    `json:"demandID"`
	Location []float64 `json:"location"`
}

// FacilityPayload is the wire form of a facility
type FacilityPayload struct {
	FacilityID   *int64    `json:"facilityID"`
	Location     []float64 `json:"location"`
	Connection   []int64   `json:"connection"`
	OpeningCosts *float64  `json:"openingCosts" binding:"omitempty,gte=0"`
}

// ParameterPayload carries per-request overrides of the configured defaults
type ParameterPayload struct {
	Probability  *float64 `json:"probability" binding:"omitempty,gte=0,lte=1"`
	OpeningCosts *float64 `json:"openingCosts" binding:"omitempty,gte=0"`
	Metric       *string  `json:"metric" binding:"omitempty,metric"`
	Iterations   *int     `json:"iterations" binding:"omitempty,gte=1"`
	// Costs is accepted for old clients and ignored
	Costs *float64 `json:"costs"`
}

// OnlineRequest is the body of POST /online_facility_location
type OnlineRequest struct {
	Demand     *DemandPayload    `json:"demand"`
	Demands    []DemandPayload   `json:"demands" binding:"dive"`
	Facilities []FacilityPayload `json:"facilities" binding:"dive"`
	Parameter  *ParameterPayload `json:"parameter"`
}

// OfflineRequest is the body of POST /offline_facility_location
type OfflineRequest struct {
	Demands    []DemandPayload   `json:"demands" binding:"dive"`
	Facilities []FacilityPayload `json:"facilities" binding:"dive"`
	Parameter  *ParameterPayload `json:"parameter"`
}

// RegisterValidators installs the custom binding rules used by the payloads
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("unexpected validator engine")
	}
	return v.RegisterValidation("metric", validMetric)
}

var validMetric validator.Func = func(fl validator.FieldLevel) bool {
	name, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	_, err := geometry.ParseMetric(name)
	return err == nil
}

// ToDemand builds a demand entity from the payload
func (p *DemandPayload) ToDemand() (*models.Demand, error) {
	if p.DemandID == nil {
		return nil, &MissingFieldError{Entity: "Demand", Field: "demandID"}
	}
	if len(p.Location) == 0 {
		return nil, &MissingFieldError{Entity: "Demand", Field: "location"}
	}
	return models.NewDemand(*p.DemandID, p.Location), nil
}

// ToFacility builds a facility entity. Connection IDs are resolved against
// demands in demand order; IDs that match no demand are dropped. claimed
// tracks demands already taken by earlier facilities.
func (p *FacilityPayload) ToFacility(demands []*models.Demand, claimed map[int64]int64) (*models.Facility, error) {
	switch {
	case p.FacilityID == nil:
		return nil, &MissingFieldError{Entity: "Facility", Field: "facilityID"}
	case len(p.Location) == 0:
		return nil, &MissingFieldError{Entity: "Facility", Field: "location"}
	case p.Connection == nil:
		return nil, &MissingFieldError{Entity: "Facility", Field: "connection"}
	case p.OpeningCosts == nil:
		return nil, &MissingFieldError{Entity: "Facility", Field: "openingCosts"}
	}

	f := models.NewFacility(*p.FacilityID, p.Location, *p.OpeningCosts)

	wanted := make(map[int64]bool, len(p.Connection))
	for _, id := range p.Connection {
		wanted[id] = true
	}
	for _, d := range demands {
		if !wanted[d.ID] {
			continue
		}
		if owner, ok := claimed[d.ID]; ok {
			return nil, fmt.Errorf("%w: demand %d claimed by facilities %d and %d",
				ErrDemandAlreadyServed, d.ID, owner, f.ID)
		}
		claimed[d.ID] = f.ID
		f.Serve(d)
	}
	return f, nil
}

// buildInstance reconstructs the demand and facility lists of a request
func buildInstance(demandPayloads []DemandPayload, facilityPayloads []FacilityPayload) ([]*models.Demand, []*models.Facility, error) {
	demands := make([]*models.Demand, 0, len(demandPayloads))
	seen := make(map[int64]bool, len(demandPayloads))
	for i := range demandPayloads {
		d, err := demandPayloads[i].ToDemand()
		if err != nil {
			return nil, nil, err
		}
		if seen[d.ID] {
			return nil, nil, fmt.Errorf("%w: %d", solver.ErrDuplicateDemand, d.ID)
		}
		seen[d.ID] = true
		demands = append(demands, d)
	}

	facilities := make([]*models.Facility, 0, len(facilityPayloads))
	claimed := make(map[int64]int64)
	for i := range facilityPayloads {
		f, err := facilityPayloads[i].ToFacility(demands, claimed)
		if err != nil {
			return nil, nil, err
		}
		facilities = append(facilities, f)
	}
	return demands, facilities, nil
}

// onlineParams merges request overrides into defaults
func (p *ParameterPayload) onlineParams(defaults solver.OnlineParams) (solver.OnlineParams, error) {
	params := defaults
	if p == nil {
		return params, nil
	}
	if p.Probability != nil {
		params.Probability = *p.Probability
	}
	if p.OpeningCosts != nil {
		params.OpeningCost = *p.OpeningCosts
	}
	if p.Metric != nil {
		m, err := geometry.ParseMetric(*p.Metric)
		if err != nil {
			return params, err
		}
		params.Metric = m
	}
	return params, nil
}

func (p *ParameterPayload) offlineParams(defaults solver.OfflineParams) (solver.OfflineParams, error) {
	params := defaults
	if p == nil {
		return params, nil
	}
	if p.Iterations != nil {
		params.Iterations = *p.Iterations
	}
	if p.OpeningCosts != nil {
		params.OpeningCost = *p.OpeningCosts
	}
	if p.Metric != nil {
		m, err := geometry.ParseMetric(*p.Metric)
		if err != nil {
			return params, err
		}
		params.Metric = m
	}
	return params, nil
}
