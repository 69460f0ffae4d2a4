package models

import "time"

// StateDurations accumulates how long an agent spent in each on-shift state.
type StateDurations struct {
	Driving   time.Duration `json:"driving"`
	Servicing time.Duration `json:"servicing"`
	Waiting   time.Duration `json:"waiting"`
	Idle      time.Duration `json:"idle"`
}

func (d StateDurations) Total() time.Duration {
	return d.Driving + d.Servicing + d.Waiting + d.Idle
}

func (d StateDurations) Of(status string) time.Duration {
	switch status {
	case AgentStatusDriving:
		return d.Driving
	case AgentStatusServicing:
		return d.Servicing
	case AgentStatusWaiting:
		return d.Waiting
	case AgentStatusIdle:
		return d.Idle
	}
	return 0
}

func (d *StateDurations) add(status string, dur time.Duration) {
	switch status {
	case AgentStatusDriving:
		d.Driving += dur
	case AgentStatusServicing:
		d.Servicing += dur
	case AgentStatusWaiting:
		d.Waiting += dur
	case AgentStatusIdle:
		d.Idle += dur
	}
}

// Agent is a beverage cart or a delivery runner.
type Agent struct {
	ID             string         `json:"id"`
	Kind           string         `json:"kind"`
	Name           string         `json:"name"`
	Speed          float64        `json:"speed"` // meters per second
	ZoneID         int            `json:"zone_id"`
	Status         string         `json:"status"`
	CurrentGroupID string         `json:"current_group_id,omitempty"`
	ActivateAt     time.Time      `json:"activate_at"`
	DistanceMeters float64        `json:"distance_meters"`
	Deliveries     int            `json:"deliveries"`
	TimeInState    StateDurations `json:"time_in_state"`
	LastUpdateTime time.Time      `json:"-"`
}

// SetStatus closes the current state interval at `at` and opens a new one.
func (a *Agent) SetStatus(status string, at time.Time) {
	a.accrue(at)
	a.Status = status
}

// Close accrues the open interval up to `at` and takes the agent off shift.
func (a *Agent) Close(at time.Time) {
	a.accrue(at)
	a.Status = AgentStatusOffShift
	a.CurrentGroupID = ""
}

func (a *Agent) accrue(at time.Time) {
	if a.Status != AgentStatusOffShift && at.After(a.LastUpdateTime) {
		a.TimeInState.add(a.Status, at.Sub(a.LastUpdateTime))
	}
	if at.After(a.LastUpdateTime) {
		a.LastUpdateTime = at
	}
}

func (a *Agent) IsIdle() bool {
	return a.Status == AgentStatusIdle && a.CurrentGroupID == ""
}
