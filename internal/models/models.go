package models

import (
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
)

// Coordinates represents a point in n-dimensional space
type Coordinates []float64

// Dim returns the number of dimensions of the point
func (c Coordinates) Dim() int {
	return len(c)
}

// Clone returns an independent copy of the point
func (c Coordinates) Clone() Coordinates {
	if c == nil {
		return nil
	}
	out := make(Coordinates, len(c))
	copy(out, c)
	return out
}

// Demand represents a point that needs to be served by a facility
type Demand struct {
	ID       int64
	Location Coordinates
}

// NewDemand creates a demand that owns its own copy of loc
func NewDemand(id int64, loc Coordinates) *Demand {
	return &Demand{ID: id, Location: loc.Clone()}
}

// Record returns the wire representation of the demand
func (d *Demand) Record() DemandRecord {
	return DemandRecord{
		DemandID: d.ID,
		Location: d.Location.Clone(),
	}
}

// Facility represents an open facility and the demands it serves.
// The served demands are references into the owning solver's demand list.
type Facility struct {
	ID          int64
	Location    Coordinates
	OpeningCost float64
	served      []*Demand
	servedIDs   map[int64]struct{}
}

// NewFacility creates a facility that serves nothing yet
func NewFacility(id int64, loc Coordinates, openingCost float64) *Facility {
	return &Facility{
		ID:          id,
		Location:    loc.Clone(),
		OpeningCost: openingCost,
		served:      []*Demand{},
		servedIDs:   map[int64]struct{}{},
	}
}

// Serves reports whether a demand with the given ID is served by the facility
func (f *Facility) Serves(demandID int64) bool {
	_, ok := f.servedIDs[demandID]
	return ok
}

// Serve assigns d to the facility. Adding a demand that is already served
// is a no-op and returns false.
func (f *Facility) Serve(d *Demand) bool {
	if f.Serves(d.ID) {
		log.Warn().
			Int64("demand_id", d.ID).
			Int64("facility_id", f.ID).
			Msg("demand already served by facility")
		return false
	}
	if f.servedIDs == nil {
		f.servedIDs = make(map[int64]struct{})
	}
	f.servedIDs[d.ID] = struct{}{}
	f.served = append(f.served, d)
	return true
}

// Served returns the served demands in assignment order
func (f *Facility) Served() []*Demand {
	out := make([]*Demand, len(f.served))
	copy(out, f.served)
	return out
}

// ServedCount returns the number of served demands
func (f *Facility) ServedCount() int {
	return len(f.served)
}

// ServedIDs returns the IDs of the served demands in assignment order
func (f *Facility) ServedIDs() []int64 {
	ids := make([]int64, len(f.served))
	for i, d := range f.served {
		ids[i] = d.ID
	}
	return ids
}

// Reset drops every served demand
func (f *Facility) Reset() {
	f.served = f.served[:0]
	clear(f.servedIDs)
}

// Record returns the wire representation of the facility
func (f *Facility) Record() FacilityRecord {
	return FacilityRecord{
		FacilityID:   f.ID,
		Location:     f.Location.Clone(),
		Connection:   f.ServedIDs(),
		OpeningCosts: f.OpeningCost,
	}
}

// CostState holds the total cost of the current solution and the change
// relative to the previous computation
type CostState struct {
	Current  float64 `json:"current"`
	Previous float64 `json:"previous"`
	Delta    float64 `json:"delta"`
}

// Update shifts the current cost into Previous and stores the new total
func (c *CostState) Update(current float64) {
	c.Previous = c.Current
	c.Current = current
	c.Delta = c.Current - c.Previous
}

// DemandRecord is the serialized form of a demand
type DemandRecord struct {
	DemandID int64       `json:"demandID"`
	Location Coordinates `json:"location"`
}

// FacilityRecord is the serialized form of a facility
type FacilityRecord struct {
	FacilityID   int64       `json:"facilityID"`
	Location     Coordinates `json:"location"`
	Connection   []int64     `json:"connection"`
	OpeningCosts float64     `json:"openingCosts"`
}

// SnapshotData carries the cost state and the last coin flip
type SnapshotData struct {
	Costs CostState `json:"costs"`
	Coin  bool      `json:"coin"`
}

// Snapshot is the read model of a solver after an operation
type Snapshot struct {
	Demands    []DemandRecord   `json:"demands"`
	Facilities []FacilityRecord `json:"facilities"`
	Data       SnapshotData     `json:"data"`
}

// SolveMode identifies which algorithm produced a result
type SolveMode string

const (
	SolveModeOnline  SolveMode = "online"
	SolveModeOffline SolveMode = "offline"
)

// RunRecord is a stored solver run
type RunRecord struct {
	ID            int64           `json:"id"`
	RunID         string          `json:"run_id"`
	Mode          SolveMode       `json:"mode"`
	FacilityCount int             `json:"facility_count"`
	DemandCount   int             `json:"demand_count"`
	CostCurrent   float64         `json:"cost_current"`
	CostPrevious  float64         `json:"cost_previous"`
	CostDelta     float64         `json:"cost_delta"`
	Coin          bool            `json:"coin"`
	Snapshot      json.RawMessage `json:"snapshot"`
	CreatedAt     time.Time       `json:"created_at"`
}
