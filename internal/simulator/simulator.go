package simulator

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"time"

	"github.com/chrisdamba/golfsim/internal/factories"
	"github.com/chrisdamba/golfsim/internal/models"
	"github.com/shopspring/decimal"
)

// ErrTimeTravel is returned when the queue yields an event earlier than the clock.
var ErrTimeTravel = errors.New("event scheduled before current simulation time")

// trip tracks the assignment an agent is working on.
type trip struct {
	GroupID   string
	ZoneID    int
	LegMeters float64
	Distance  float64
}

// Simulator runs one scenario once. Every run owns its clock, random streams and
// registry; nothing is shared between simulators, so runs may execute in parallel.
type Simulator struct {
	Config       *models.Config
	Course       *models.Course
	Agents       []*models.Agent
	Groups       []*models.OrderingGroup
	Orders       []*models.Order
	Queue        []string // pending group ids, FIFO
	CurrentTime  time.Time
	Rng          *Streams
	EventQueue   *models.EventQueue
	SimulationID string
	RunIndex     int
	Seed         int64

	ordersByID        map[string]*models.Order
	groupsByID        map[string]*models.OrderingGroup
	agentsByID        map[string]*models.Agent
	trips             map[string]*trip
	abandonRolls      map[string]float64
	deliveryDistances []float64
	shiftEnded        bool
	dispatchPending   bool
	eventsCount       int
	logger            *log.Logger
}

// NewSimulator validates the scenario and prepares run runIndex (1-based).
// Configuration errors are returned before any state is built.
func NewSimulator(config *models.Config, runIndex int) (*Simulator, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario %q: %w", config.Scenario, err)
	}
	course, err := models.NewCourse(config.Course, config.ShiftStart)
	if err != nil {
		return nil, fmt.Errorf("build course: %w", err)
	}

	seed := DeriveSeed(config.Seed, config.SeedKey(), runIndex)
	sim := &Simulator{
		Config:       config,
		Course:       course,
		CurrentTime:  config.ShiftStart,
		Rng:          NewStreams(seed),
		EventQueue:   models.NewEventQueue(),
		SimulationID: fmt.Sprintf("%s_run_%02d", config.Scenario, runIndex),
		RunIndex:     runIndex,
		Seed:         seed,
		ordersByID:   make(map[string]*models.Order),
		groupsByID:   make(map[string]*models.OrderingGroup),
		agentsByID:   make(map[string]*models.Agent),
		trips:        make(map[string]*trip),
		abandonRolls: make(map[string]float64),
	}

	var out io.Writer = io.Discard
	if config.Verbose {
		out = os.Stderr
	}
	sim.logger = log.New(out, fmt.Sprintf("[%s] ", sim.SimulationID), log.LstdFlags)

	sim.initializeData()
	return sim, nil
}

func (s *Simulator) initializeData() {
	agentFactory := factories.NewAgentFactory(s.Rng.NamesSeed())
	s.Agents = agentFactory.CreateRoster(s.Config)
	for _, agent := range s.Agents {
		s.agentsByID[agent.ID] = agent
		s.schedule(agent.ActivateAt, models.EventAgentActivate, agent)
	}

	for _, a := range s.generateArrivals() {
		s.schedule(a.At, models.EventOrderArrival, a)
	}

	for _, t := range s.Course.UnblockTimes() {
		s.schedule(t, models.EventZoneUnblocked, nil)
	}

	s.schedule(s.Config.ShiftEnd(), models.EventShiftEnd, nil)
}

func (s *Simulator) schedule(at time.Time, eventType string, data interface{}) {
	s.EventQueue.Enqueue(&models.Event{
		Time: at,
		Type: eventType,
		Data: data,
	})
}

// Run simulates the configured shift and returns its result.
func (s *Simulator) Run() (*models.RunResult, error) {
	return s.RunUntil(s.Config.ShiftEnd())
}

// RunUntil drives the event loop with a hard horizon. The effective horizon is the
// earlier of horizon and the configured shift end; once it is reached every
// outstanding order is failed with reason shift_end. Later arrivals are still
// materialized, and failed, so no scheduled demand disappears from the totals.
func (s *Simulator) RunUntil(horizon time.Time) (*models.RunResult, error) {
	if shiftEnd := s.Config.ShiftEnd(); shiftEnd.Before(horizon) {
		horizon = shiftEnd
	}

	s.logger.Printf("Simulation starts from %s to %s", s.CurrentTime.Format(time.RFC3339), horizon.Format(time.RFC3339))

	for {
		event := s.EventQueue.Dequeue()
		if event == nil {
			break
		}
		if event.Time.Before(s.CurrentTime) {
			return nil, fmt.Errorf("%w: %s at %s, clock at %s", ErrTimeTravel, event.Type,
				event.Time.Format(time.RFC3339), s.CurrentTime.Format(time.RFC3339))
		}
		if !s.shiftEnded && event.Time.After(horizon) {
			if err := s.endShift(horizon); err != nil {
				return nil, err
			}
		}

		s.CurrentTime = event.Time
		s.eventsCount++

		if s.shiftEnded {
			if err := s.handleAfterShift(event); err != nil {
				return nil, err
			}
			continue
		}
		if err := s.processEvent(event); err != nil {
			return nil, fmt.Errorf("process %s at %s: %w", event.Type, event.Time.Format(time.RFC3339), err)
		}
	}

	if !s.shiftEnded {
		if err := s.endShift(horizon); err != nil {
			return nil, err
		}
	}

	s.logger.Printf("Simulation completed, events processed: %d", s.eventsCount)
	return s.buildResult(), nil
}

func (s *Simulator) processEvent(event *models.Event) error {
	switch event.Type {
	case models.EventOrderArrival:
		return s.handleOrderArrival(event.Data.(*arrival))
	case models.EventDispatch:
		s.dispatchPending = false
		return s.dispatch()
	case models.EventZoneUnblocked:
		s.requestDispatch()
		return nil
	case models.EventAgentActivate:
		return s.handleAgentActivate(event.Data.(*models.Agent))
	case models.EventArriveAtBase:
		return s.handleArriveAtBase(event.Data.(*models.Agent))
	case models.EventDepart:
		return s.handleDepart(event.Data.(*models.Agent))
	case models.EventTravelComplete:
		return s.handleTravelComplete(event.Data.(*models.Agent))
	case models.EventBlockCleared:
		return s.handleBlockCleared(event.Data.(*models.Agent))
	case models.EventServiceComplete:
		return s.handleServiceComplete(event.Data.(*models.Agent))
	case models.EventQueueTimeout:
		return s.handleQueueTimeout(event.Data.(*models.OrderingGroup))
	case models.EventShiftEnd:
		return s.endShift(event.Time)
	}
	return fmt.Errorf("unknown event type: %v", event.Type)
}

// handleAfterShift materializes arrivals past the horizon as failed groups and
// discards every other event.
func (s *Simulator) handleAfterShift(event *models.Event) error {
	if event.Type != models.EventOrderArrival {
		return nil
	}
	group := s.createGroup(event.Data.(*arrival))
	s.logger.Printf("Group %s arrived after shift end at %s", group.ID, s.CurrentTime.Format(time.RFC3339))
	return s.failGroup(group, models.FailureShiftEnd)
}

func (s *Simulator) handleOrderArrival(a *arrival) error {
	group := s.createGroup(a)
	s.logger.Printf("Group %s placed %d order(s) from zone %d at %s",
		group.ID, len(group.OrderIDs), group.ZoneID, s.CurrentTime.Format(time.RFC3339))

	if s.Config.BlockedPolicy == models.BlockedPolicyFail && s.Course.IsBlocked(group.ZoneID, s.CurrentTime) {
		return s.failGroup(group, models.FailureBlocked)
	}

	s.Queue = append(s.Queue, group.ID)
	s.schedule(s.CurrentTime.Add(s.Config.QueueTimeout), models.EventQueueTimeout, group)
	s.requestDispatch()
	return nil
}

func (s *Simulator) handleAgentActivate(agent *models.Agent) error {
	agent.LastUpdateTime = s.CurrentTime
	agent.SetStatus(models.AgentStatusIdle, s.CurrentTime)
	s.logger.Printf("Agent %s (%s, %s) on shift at %s", agent.ID, agent.Kind, agent.Name, s.CurrentTime.Format(time.RFC3339))
	s.requestDispatch()
	return nil
}

func (s *Simulator) handleQueueTimeout(group *models.OrderingGroup) error {
	if group.Status != models.OrderStatusPending {
		return nil
	}
	s.removeFromQueue(group.ID)

	reason := models.FailureNoCapacity
	if s.Course.IsBlocked(group.ZoneID, s.CurrentTime) {
		reason = models.FailureBlocked
	}
	s.logger.Printf("Group %s timed out in queue at %s (%s)", group.ID, s.CurrentTime.Format(time.RFC3339), reason)
	return s.failGroup(group, reason)
}

// endShift closes the run at `at`: outstanding orders fail with shift_end and
// every agent's state interval is closed.
func (s *Simulator) endShift(at time.Time) error {
	if s.shiftEnded {
		return nil
	}
	s.shiftEnded = true
	s.CurrentTime = at
	s.Queue = nil

	for _, group := range s.Groups {
		if err := s.failGroup(group, models.FailureShiftEnd); err != nil {
			return err
		}
	}
	for _, agent := range s.Agents {
		agent.Close(at)
		delete(s.trips, agent.ID)
	}
	s.logger.Printf("Shift ended at %s", at.Format(time.RFC3339))
	return nil
}

func (s *Simulator) createGroup(a *arrival) *models.OrderingGroup {
	group := &models.OrderingGroup{
		ID:        fmt.Sprintf("grp_%04d", len(s.Groups)+1),
		ZoneID:    a.ZoneID,
		CreatedAt: s.CurrentTime,
		Status:    models.OrderStatusPending,
	}
	for _, planned := range a.Orders {
		order := &models.Order{
			ID:        fmt.Sprintf("ord_%04d", len(s.Orders)+1),
			GroupID:   group.ID,
			ZoneID:    a.ZoneID,
			Value:     planned.Value,
			Tip:       planned.Tip,
			Status:    models.OrderStatusPending,
			CreatedAt: s.CurrentTime,
		}
		s.Orders = append(s.Orders, order)
		s.ordersByID[order.ID] = order
		group.OrderIDs = append(group.OrderIDs, order.ID)
	}
	s.Groups = append(s.Groups, group)
	s.groupsByID[group.ID] = group
	s.abandonRolls[group.ID] = a.AbandonRoll
	return group
}

func (s *Simulator) groupOrders(group *models.OrderingGroup) []*models.Order {
	orders := make([]*models.Order, 0, len(group.OrderIDs))
	for _, id := range group.OrderIDs {
		orders = append(orders, s.ordersByID[id])
	}
	return orders
}

func (s *Simulator) currentGroup(agent *models.Agent) (*models.OrderingGroup, error) {
	group, ok := s.groupsByID[agent.CurrentGroupID]
	if !ok {
		return nil, fmt.Errorf("agent %s has no current group", agent.ID)
	}
	return group, nil
}

func (s *Simulator) removeFromQueue(groupID string) {
	for i, id := range s.Queue {
		if id == groupID {
			s.Queue = append(s.Queue[:i], s.Queue[i+1:]...)
			return
		}
	}
}

func (s *Simulator) buildResult() *models.RunResult {
	result := &models.RunResult{
		SimulationID:      s.SimulationID,
		Scenario:          s.Config.Scenario,
		RunIndex:          s.RunIndex,
		Seed:              s.Seed,
		ShiftStart:        s.Config.ShiftStart,
		ShiftEnd:          s.Config.ShiftEnd(),
		Rounds:            s.Config.Rounds,
		TotalGroups:       len(s.Groups),
		Revenue:           decimal.Zero,
		Tips:              decimal.Zero,
		Failures:          []models.FailureCount{},
		Agents:            make([]models.AgentSummary, 0, len(s.Agents)),
		Groups:            make([]models.OrderingGroup, 0, len(s.Groups)),
		Orders:            make([]models.Order, 0, len(s.Orders)),
		DeliveryDistances: append([]float64{}, s.deliveryDistances...),
		ZoneServiceTimes:  []models.ZoneSamples{},
		EventsProcessed:   s.eventsCount,
	}

	failures := make(map[string]int)
	zoneSamples := make(map[int][]time.Duration)
	for _, order := range s.Orders {
		result.TotalOrders++
		switch order.Status {
		case models.OrderStatusDelivered:
			result.SuccessfulOrders++
			result.Revenue = result.Revenue.Add(order.Value)
			result.Tips = result.Tips.Add(order.Tip)
			if cycle, ok := order.CycleTime(); ok {
				zoneSamples[order.ZoneID] = append(zoneSamples[order.ZoneID], cycle)
			}
		case models.OrderStatusFailed:
			result.FailedOrders++
			failures[order.FailureReason]++
		}
		result.Orders = append(result.Orders, *order)
	}

	for reason, count := range failures {
		result.Failures = append(result.Failures, models.FailureCount{Reason: reason, Count: count})
	}
	sort.Slice(result.Failures, func(i, j int) bool { return result.Failures[i].Reason < result.Failures[j].Reason })

	for _, zone := range s.Course.Zones() {
		if samples, ok := zoneSamples[zone.ID]; ok {
			result.ZoneServiceTimes = append(result.ZoneServiceTimes, models.ZoneSamples{ZoneID: zone.ID, CycleTimes: samples})
		}
	}

	for _, group := range s.Groups {
		result.Groups = append(result.Groups, *group)
	}

	for _, agent := range s.Agents {
		result.Agents = append(result.Agents, models.AgentSummary{
			ID:             agent.ID,
			Kind:           agent.Kind,
			Name:           agent.Name,
			ActivateAt:     agent.ActivateAt,
			DistanceMeters: agent.DistanceMeters,
			Deliveries:     agent.Deliveries,
			TimeInState:    agent.TimeInState,
		})
	}

	return result
}
