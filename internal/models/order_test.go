package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOrder(created time.Time) *Order {
	return &Order{
		ID:        "ord_0001",
		GroupID:   "grp_0001",
		ZoneID:    3,
		Value:     decimal.RequireFromString("12.00"),
		Status:    OrderStatusPending,
		CreatedAt: created,
	}
}

func TestOrderSuccessPath(t *testing.T) {
	start := time.Date(2025, 6, 14, 9, 0, 0, 0, time.UTC)
	o := newTestOrder(start)

	require.NoError(t, o.Transition(OrderStatusAssigned, start.Add(2*time.Minute)))
	require.NoError(t, o.Transition(OrderStatusInTransit, start.Add(5*time.Minute)))
	require.NoError(t, o.Transition(OrderStatusDelivered, start.Add(14*time.Minute)))

	assert.True(t, o.IsTerminal())
	cycle, ok := o.CycleTime()
	require.True(t, ok)
	assert.Equal(t, 14*time.Minute, cycle)

	wait, ok := o.QueueWait()
	require.True(t, ok)
	assert.Equal(t, 2*time.Minute, wait)
}

func TestOrderRejectsSkippedAndBackwardTransitions(t *testing.T) {
	start := time.Date(2025, 6, 14, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		setup []string
		to    string
	}{
		{name: "skip assigned", to: OrderStatusInTransit},
		{name: "skip to delivered", to: OrderStatusDelivered},
		{name: "back to pending", setup: []string{OrderStatusAssigned}, to: OrderStatusPending},
		{name: "repeat assigned", setup: []string{OrderStatusAssigned}, to: OrderStatusAssigned},
		{name: "failed via transition", to: OrderStatusFailed},
		{name: "unknown status", to: "lost"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := newTestOrder(start)
			for _, s := range tt.setup {
				require.NoError(t, o.Transition(s, start))
			}
			err := o.Transition(tt.to, start)
			assert.ErrorIs(t, err, ErrInvalidTransition)
		})
	}
}

func TestOrderFail(t *testing.T) {
	start := time.Date(2025, 6, 14, 9, 0, 0, 0, time.UTC)
	o := newTestOrder(start)
	require.NoError(t, o.Transition(OrderStatusAssigned, start))
	require.NoError(t, o.Fail(FailureShiftEnd, start.Add(time.Hour)))

	assert.Equal(t, OrderStatusFailed, o.Status)
	assert.Equal(t, FailureShiftEnd, o.FailureReason)
	require.NotNil(t, o.FailedAt)
	_, ok := o.CycleTime()
	assert.False(t, ok)

	assert.ErrorIs(t, o.Fail(FailureBlocked, start), ErrInvalidTransition)
	assert.ErrorIs(t, o.Transition(OrderStatusInTransit, start), ErrInvalidTransition)
}

func TestRollupStatus(t *testing.T) {
	mk := func(statuses ...string) []*Order {
		orders := make([]*Order, len(statuses))
		for i, s := range statuses {
			orders[i] = &Order{Status: s}
		}
		return orders
	}

	assert.Equal(t, OrderStatusPending, RollupStatus(nil))
	assert.Equal(t, OrderStatusAssigned, RollupStatus(mk(OrderStatusAssigned, OrderStatusInTransit)))
	assert.Equal(t, OrderStatusInTransit, RollupStatus(mk(OrderStatusInTransit, OrderStatusDelivered)))
	assert.Equal(t, OrderStatusDelivered, RollupStatus(mk(OrderStatusDelivered, OrderStatusDelivered)))
	assert.Equal(t, OrderStatusFailed, RollupStatus(mk(OrderStatusDelivered, OrderStatusFailed)))
}
