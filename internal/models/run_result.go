package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type AgentSummary struct {
	ID             string         `json:"id"`
	Kind           string         `json:"kind"`
	Name           string         `json:"name"`
	ActivateAt     time.Time      `json:"activate_at"`
	DistanceMeters float64        `json:"distance_meters"`
	Deliveries     int            `json:"deliveries"`
	TimeInState    StateDurations `json:"time_in_state"`
}

// ActiveHours is the agent's on-shift time in hours, idle included.
func (a AgentSummary) ActiveHours() float64 {
	return a.TimeInState.Total().Hours()
}

type ZoneSamples struct {
	ZoneID     int             `json:"zone_id"`
	CycleTimes []time.Duration `json:"cycle_times"`
}

type FailureCount struct {
	Reason string `json:"reason"`
	Count  int    `json:"count"`
}

// RunResult is the terminal aggregate of one simulation run. It is built once
// when the run finishes and is read-only afterwards.
type RunResult struct {
	SimulationID      string          `json:"simulation_id"`
	Scenario          string          `json:"scenario"`
	RunIndex          int             `json:"run_index"`
	Seed              int64           `json:"seed"`
	ShiftStart        time.Time       `json:"shift_start"`
	ShiftEnd          time.Time       `json:"shift_end"`
	Rounds            int             `json:"rounds"`
	TotalOrders       int             `json:"total_orders"`
	SuccessfulOrders  int             `json:"successful_orders"`
	FailedOrders      int             `json:"failed_orders"`
	TotalGroups       int             `json:"total_groups"`
	Revenue           decimal.Decimal `json:"revenue"`
	Tips              decimal.Decimal `json:"tips"`
	Failures          []FailureCount  `json:"failures"`
	Agents            []AgentSummary  `json:"agents"`
	Groups            []OrderingGroup `json:"groups"`
	Orders            []Order         `json:"orders"`
	DeliveryDistances []float64       `json:"delivery_distances"`
	ZoneServiceTimes  []ZoneSamples   `json:"zone_service_times"`
	EventsProcessed   int             `json:"events_processed"`
}

// ActiveHours sums the on-shift hours of every agent.
func (r *RunResult) ActiveHours() float64 {
	var total time.Duration
	for _, a := range r.Agents {
		total += a.TimeInState.Total()
	}
	return total.Hours()
}

func (r *RunResult) AgentIDs() []string {
	ids := make([]string, len(r.Agents))
	for i, a := range r.Agents {
		ids[i] = a.ID
	}
	return ids
}
