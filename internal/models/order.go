package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInvalidTransition is returned when an order would move back to an earlier state.
var ErrInvalidTransition = errors.New("invalid order status transition")

type Order struct {
	ID            string          `json:"id"`
	GroupID       string          `json:"group_id"`
	ZoneID        int             `json:"zone_id"`
	AgentID       string          `json:"agent_id,omitempty"`
	Value         decimal.Decimal `json:"value"`
	Tip           decimal.Decimal `json:"tip"`
	Status        string          `json:"status"`
	FailureReason string          `json:"failure_reason,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	AssignedAt    *time.Time      `json:"assigned_at,omitempty"`
	InTransitAt   *time.Time      `json:"in_transit_at,omitempty"`
	DeliveredAt   *time.Time      `json:"delivered_at,omitempty"`
	FailedAt      *time.Time      `json:"failed_at,omitempty"`
}

// OrderingGroup is a set of orders placed together from one zone at one time.
type OrderingGroup struct {
	ID        string    `json:"id"`
	ZoneID    int       `json:"zone_id"`
	CreatedAt time.Time `json:"created_at"`
	OrderIDs  []string  `json:"order_ids"`
	Status    string    `json:"status"`
}

func (o *Order) IsTerminal() bool {
	return o.Status == OrderStatusDelivered || o.Status == OrderStatusFailed
}

// Transition moves the order forward along pending→assigned→in_transit→delivered.
// Failed is reachable from every non-terminal state via Fail.
func (o *Order) Transition(to string, at time.Time) error {
	if to == OrderStatusFailed {
		return fmt.Errorf("order %s: use Fail to record a failure: %w", o.ID, ErrInvalidTransition)
	}
	next, ok := orderStatusRank[to]
	if !ok {
		return fmt.Errorf("order %s: unknown status %q: %w", o.ID, to, ErrInvalidTransition)
	}
	if o.IsTerminal() || next != orderStatusRank[o.Status]+1 {
		return fmt.Errorf("order %s: %s -> %s: %w", o.ID, o.Status, to, ErrInvalidTransition)
	}

	stamp := at
	switch to {
	case OrderStatusAssigned:
		o.AssignedAt = &stamp
	case OrderStatusInTransit:
		o.InTransitAt = &stamp
	case OrderStatusDelivered:
		o.DeliveredAt = &stamp
	}
	o.Status = to
	return nil
}

func (o *Order) Fail(reason string, at time.Time) error {
	if o.IsTerminal() {
		return fmt.Errorf("order %s: %s -> failed: %w", o.ID, o.Status, ErrInvalidTransition)
	}
	stamp := at
	o.Status = OrderStatusFailed
	o.FailureReason = reason
	o.FailedAt = &stamp
	return nil
}

// CycleTime is creation to delivery; ok is false for undelivered orders.
func (o *Order) CycleTime() (time.Duration, bool) {
	if o.Status != OrderStatusDelivered || o.DeliveredAt == nil {
		return 0, false
	}
	return o.DeliveredAt.Sub(o.CreatedAt), true
}

// QueueWait is creation to assignment; ok is false for never-assigned orders.
func (o *Order) QueueWait() (time.Duration, bool) {
	if o.AssignedAt == nil {
		return 0, false
	}
	return o.AssignedAt.Sub(o.CreatedAt), true
}

// RollupStatus derives a group status from its orders: the least advanced
// non-terminal status wins, and among terminal orders any failure marks the group failed.
func RollupStatus(orders []*Order) string {
	if len(orders) == 0 {
		return OrderStatusPending
	}
	status := ""
	terminal := true
	failed := false
	for _, o := range orders {
		if !o.IsTerminal() {
			terminal = false
			if status == "" || orderStatusRank[o.Status] < orderStatusRank[status] {
				status = o.Status
			}
			continue
		}
		if o.Status == OrderStatusFailed {
			failed = true
		}
	}
	if !terminal {
		return status
	}
	if failed {
		return OrderStatusFailed
	}
	return OrderStatusDelivered
}
