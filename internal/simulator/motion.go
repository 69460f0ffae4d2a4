package simulator

import (
	"fmt"
	"math"
	"time"

	"github.com/chrisdamba/golfsim/internal/models"
)

// travelDuration converts a leg into driving time. Zero-length legs take no time;
// every real leg takes at least service.min_travel.
func (s *Simulator) travelDuration(meters, speed float64) time.Duration {
	if meters <= 0 || speed <= 0 {
		return 0
	}
	seconds := meters / speed * jitterFactor(s.Rng.Travel, s.Config.Service.TravelVariance)
	d := time.Duration(math.Round(seconds)) * time.Second
	if d < s.Config.Service.MinTravel {
		d = s.Config.Service.MinTravel
	}
	return d
}

// serviceDuration is the hand-off time for a group of n orders.
func (s *Simulator) serviceDuration(n int) time.Duration {
	cfg := s.Config.Service
	base := cfg.BaseTime
	if n > 1 {
		base += time.Duration(n-1) * cfg.PerExtraOrder
	}
	seconds := base.Seconds() * jitterFactor(s.Rng.Service, cfg.Variance)
	return time.Duration(math.Round(seconds)) * time.Second
}

// startLeg puts the agent on the road towards zone `to` and schedules `arrivalEvent`.
func (s *Simulator) startLeg(agent *models.Agent, to int, arrivalEvent string) {
	meters := s.Course.Distance(agent.ZoneID, to)
	if t, ok := s.trips[agent.ID]; ok {
		t.LegMeters = meters
	}
	agent.SetStatus(models.AgentStatusDriving, s.CurrentTime)
	s.schedule(s.CurrentTime.Add(s.travelDuration(meters, agent.Speed)), arrivalEvent, agent)
}

// finishLeg books the distance of the leg just driven and moves the agent.
func (s *Simulator) finishLeg(agent *models.Agent, zoneID int) {
	if t, ok := s.trips[agent.ID]; ok {
		agent.DistanceMeters += t.LegMeters
		t.Distance += t.LegMeters
		t.LegMeters = 0
	}
	agent.ZoneID = zoneID
}

func (s *Simulator) startLoading(agent *models.Agent) error {
	agent.SetStatus(models.AgentStatusServicing, s.CurrentTime)
	s.schedule(s.CurrentTime.Add(s.Config.Service.LoadTime), models.EventDepart, agent)
	return nil
}

func (s *Simulator) handleArriveAtBase(agent *models.Agent) error {
	s.finishLeg(agent, models.ClubhouseZoneID)
	s.logger.Printf("Agent %s reached the clubhouse at %s", agent.ID, s.CurrentTime.Format(time.RFC3339))
	return s.startLoading(agent)
}

func (s *Simulator) handleDepart(agent *models.Agent) error {
	group, err := s.currentGroup(agent)
	if err != nil {
		return err
	}
	for _, order := range s.groupOrders(group) {
		if err := order.Transition(models.OrderStatusInTransit, s.CurrentTime); err != nil {
			return err
		}
	}
	group.Status = models.RollupStatus(s.groupOrders(group))

	s.startLeg(agent, group.ZoneID, models.EventTravelComplete)
	s.logger.Printf("Agent %s departed for zone %d with group %s at %s",
		agent.ID, group.ZoneID, group.ID, s.CurrentTime.Format(time.RFC3339))
	return nil
}

func (s *Simulator) handleTravelComplete(agent *models.Agent) error {
	group, err := s.currentGroup(agent)
	if err != nil {
		return err
	}
	s.finishLeg(agent, group.ZoneID)
	return s.arriveAtZone(agent, group)
}

func (s *Simulator) handleBlockCleared(agent *models.Agent) error {
	group, err := s.currentGroup(agent)
	if err != nil {
		return err
	}
	return s.arriveAtZone(agent, group)
}

// arriveAtZone starts service unless the zone is closed right now.
func (s *Simulator) arriveAtZone(agent *models.Agent, group *models.OrderingGroup) error {
	if window, blocked := s.Course.BlockedAt(group.ZoneID, s.CurrentTime); blocked {
		if s.Config.BlockedPolicy == models.BlockedPolicyFail {
			s.logger.Printf("Zone %d blocked, group %s failed at %s", group.ZoneID, group.ID, s.CurrentTime.Format(time.RFC3339))
			if err := s.failGroup(group, models.FailureBlocked); err != nil {
				return err
			}
			return s.releaseAgent(agent)
		}
		agent.SetStatus(models.AgentStatusWaiting, s.CurrentTime)
		s.schedule(window.End, models.EventBlockCleared, agent)
		s.logger.Printf("Agent %s waiting at blocked zone %d until %s", agent.ID, group.ZoneID, window.End.Format(time.RFC3339))
		return nil
	}

	agent.SetStatus(models.AgentStatusServicing, s.CurrentTime)
	s.schedule(s.CurrentTime.Add(s.serviceDuration(len(group.OrderIDs))), models.EventServiceComplete, agent)
	return nil
}

func (s *Simulator) handleServiceComplete(agent *models.Agent) error {
	group, err := s.currentGroup(agent)
	if err != nil {
		return err
	}

	if rate := s.Config.Service.AbandonRate; rate > 0 && s.abandonRolls[group.ID] < rate {
		s.logger.Printf("Group %s abandoned at %s", group.ID, s.CurrentTime.Format(time.RFC3339))
		if err := s.failGroup(group, models.FailureAbandoned); err != nil {
			return err
		}
		return s.releaseAgent(agent)
	}

	if err := s.deliverGroup(agent, group); err != nil {
		return fmt.Errorf("deliver group %s: %w", group.ID, err)
	}
	return s.releaseAgent(agent)
}

// releaseAgent frees the agent and asks for a dispatch decision at the current time.
func (s *Simulator) releaseAgent(agent *models.Agent) error {
	agent.CurrentGroupID = ""
	delete(s.trips, agent.ID)
	agent.SetStatus(models.AgentStatusIdle, s.CurrentTime)
	s.requestDispatch()
	return nil
}
