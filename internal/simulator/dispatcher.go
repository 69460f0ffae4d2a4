package simulator

import (
	"time"

	"github.com/chrisdamba/golfsim/internal/models"
)

// AgentSnapshot is the dispatcher's read-only view of an agent.
type AgentSnapshot struct {
	ID     string
	Kind   string
	ZoneID int
	Idle   bool
}

// QueuedGroup is the dispatcher's read-only view of a waiting group.
type QueuedGroup struct {
	ID     string
	ZoneID int
}

// ApproachDistance is how far an agent must travel to reach zoneID. Runners
// always pick up at the clubhouse first.
func ApproachDistance(agent AgentSnapshot, zoneID int, course *models.Course) float64 {
	if agent.Kind == models.AgentKindRunner {
		return course.Distance(agent.ZoneID, models.ClubhouseZoneID) +
			course.Distance(models.ClubhouseZoneID, zoneID)
	}
	return course.Distance(agent.ZoneID, zoneID)
}

// SelectAgent returns the nearest idle agent for zoneID. Agents are given in
// roster order and equal distances go to the earlier one.
func SelectAgent(agents []AgentSnapshot, zoneID int, course *models.Course) (string, bool) {
	best := -1
	bestDistance := 0.0
	for i, agent := range agents {
		if !agent.Idle {
			continue
		}
		d := ApproachDistance(agent, zoneID, course)
		if best < 0 || d < bestDistance {
			best = i
			bestDistance = d
		}
	}
	if best < 0 {
		return "", false
	}
	return agents[best].ID, true
}

// NextServable returns the index of the first queued group whose zone is open at now.
func NextServable(queue []QueuedGroup, now time.Time, course *models.Course) (int, bool) {
	for i, group := range queue {
		if !course.IsBlocked(group.ZoneID, now) {
			return i, true
		}
	}
	return -1, false
}

func (s *Simulator) agentSnapshots() []AgentSnapshot {
	snapshots := make([]AgentSnapshot, len(s.Agents))
	for i, agent := range s.Agents {
		snapshots[i] = AgentSnapshot{
			ID:     agent.ID,
			Kind:   agent.Kind,
			ZoneID: agent.ZoneID,
			Idle:   agent.IsIdle(),
		}
	}
	return snapshots
}

func (s *Simulator) queueSnapshot() []QueuedGroup {
	queue := make([]QueuedGroup, len(s.Queue))
	for i, id := range s.Queue {
		queue[i] = QueuedGroup{ID: id, ZoneID: s.groupsByID[id].ZoneID}
	}
	return queue
}

// requestDispatch schedules one Dispatch event at the current time. Every state
// change at the same instant is applied before the decision is taken.
func (s *Simulator) requestDispatch() {
	if s.dispatchPending {
		return
	}
	s.dispatchPending = true
	s.schedule(s.CurrentTime, models.EventDispatch, nil)
}

// dispatch pairs waiting groups with idle agents until either runs out.
func (s *Simulator) dispatch() error {
	for len(s.Queue) > 0 {
		idx, ok := NextServable(s.queueSnapshot(), s.CurrentTime, s.Course)
		if !ok {
			return nil
		}
		group := s.groupsByID[s.Queue[idx]]

		agentID, ok := SelectAgent(s.agentSnapshots(), group.ZoneID, s.Course)
		if !ok {
			return nil
		}
		if err := s.assign(s.agentsByID[agentID], group); err != nil {
			return err
		}
	}
	return nil
}

func (s *Simulator) assign(agent *models.Agent, group *models.OrderingGroup) error {
	s.removeFromQueue(group.ID)
	for _, order := range s.groupOrders(group) {
		if err := order.Transition(models.OrderStatusAssigned, s.CurrentTime); err != nil {
			return err
		}
		order.AgentID = agent.ID
	}
	group.Status = models.RollupStatus(s.groupOrders(group))

	agent.CurrentGroupID = group.ID
	s.trips[agent.ID] = &trip{GroupID: group.ID, ZoneID: group.ZoneID}
	s.logger.Printf("dispatch: group %s (zone %d) assigned to %s at %s",
		group.ID, group.ZoneID, agent.ID, s.CurrentTime.Format(time.RFC3339))

	if agent.Kind == models.AgentKindRunner {
		if agent.ZoneID != models.ClubhouseZoneID {
			s.startLeg(agent, models.ClubhouseZoneID, models.EventArriveAtBase)
			return nil
		}
		return s.startLoading(agent)
	}

	agent.SetStatus(models.AgentStatusDriving, s.CurrentTime)
	s.schedule(s.CurrentTime, models.EventDepart, agent)
	return nil
}
