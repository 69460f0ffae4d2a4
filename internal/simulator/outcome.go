package simulator

import (
	"time"

	"github.com/chrisdamba/golfsim/internal/models"
)

func (s *Simulator) deliverGroup(agent *models.Agent, group *models.OrderingGroup) error {
	for _, order := range s.groupOrders(group) {
		if err := order.Transition(models.OrderStatusDelivered, s.CurrentTime); err != nil {
			return err
		}
		agent.Deliveries++
	}
	group.Status = models.RollupStatus(s.groupOrders(group))

	if t, ok := s.trips[agent.ID]; ok {
		s.deliveryDistances = append(s.deliveryDistances, t.Distance)
	}
	s.logger.Printf("Group %s delivered by %s at %s", group.ID, agent.ID, s.CurrentTime.Format(time.RFC3339))
	return nil
}

// failGroup fails every non-terminal order of the group with reason. Orders that
// already reached a terminal state keep it.
func (s *Simulator) failGroup(group *models.OrderingGroup, reason string) error {
	orders := s.groupOrders(group)
	for _, order := range orders {
		if order.IsTerminal() {
			continue
		}
		if err := order.Fail(reason, s.CurrentTime); err != nil {
			return err
		}
	}
	group.Status = models.RollupStatus(orders)
	return nil
}
