package metrics

import (
	"testing"
	"time"

	"github.com/chrisdamba/golfsim/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2025, 6, 14, 7, 0, 0, 0, time.UTC)

func deliveredOrder(id string, zone int, value string, created, assigned, delivered time.Duration) models.Order {
	a := start.Add(assigned)
	d := start.Add(delivered)
	return models.Order{
		ID:          id,
		ZoneID:      zone,
		Value:       decimal.RequireFromString(value),
		Status:      models.OrderStatusDelivered,
		CreatedAt:   start.Add(created),
		AssignedAt:  &a,
		InTransitAt: &a,
		DeliveredAt: &d,
	}
}

func failedOrder(id string, reason string) models.Order {
	f := start.Add(time.Hour)
	return models.Order{
		ID:            id,
		Value:         decimal.RequireFromString("10.00"),
		Status:        models.OrderStatusFailed,
		FailureReason: reason,
		CreatedAt:     start,
		FailedAt:      &f,
	}
}

func testParams() Params {
	return Params{SLA: 20 * time.Minute, WagePerHour: 15, VariableCostPerOrder: 4, ShiftHours: 9}
}

func cartFor(d models.StateDurations) models.AgentSummary {
	return models.AgentSummary{ID: "cart_1", Kind: models.AgentKindCart, TimeInState: d}
}

func TestComputeAverageOrderValue(t *testing.T) {
	result := &models.RunResult{
		SimulationID:     "test_run_01",
		TotalOrders:      3,
		SuccessfulOrders: 3,
		TotalGroups:      3,
		Rounds:           4,
		Revenue:          decimal.RequireFromString("36.00"),
		Tips:             decimal.RequireFromString("5.40"),
		Agents:           []models.AgentSummary{cartFor(models.StateDurations{Idle: 9 * time.Hour})},
		Orders: []models.Order{
			deliveredOrder("ord_0001", 1, "10.00", 0, time.Minute, 10*time.Minute),
			deliveredOrder("ord_0002", 2, "12.00", 0, time.Minute, 15*time.Minute),
			deliveredOrder("ord_0003", 3, "14.00", 0, time.Minute, 30*time.Minute),
		},
	}
	report := Compute(result, testParams())

	aov, ok := report.Metric(KeyAverageOrderValue)
	require.True(t, ok)
	assert.Equal(t, "$12.00", aov.Display)
	assert.InDelta(t, 12.0, aov.Value, 1e-9)

	perRound, _ := report.Metric(KeyRevenuePerRound)
	assert.Equal(t, "$9.00", perRound.Display)

	perGroup, _ := report.Metric(KeyRevenuePerGroup)
	assert.Equal(t, "$12.00", perGroup.Display)

	onTime, _ := report.Metric(KeyOnTimeRate)
	assert.Equal(t, "66.7%", onTime.Display)

	// (15 × 9) / (12 − 4) = 16.875
	breakEven, _ := report.Metric(KeyBreakEvenOrders)
	assert.True(t, breakEven.Available)
	assert.Equal(t, "17", breakEven.Display)

	wait, _ := report.Metric(KeyQueueWait)
	assert.Equal(t, "1.0 min", wait.Display)

	assert.Equal(t, "test_run_01", report.Identity.SimulationID)
	assert.Equal(t, []string{"cart_1"}, report.Identity.AgentIDs)
	assert.InDelta(t, 9.0, report.Identity.ActiveHours, 1e-9)
}

func TestOrdersPerAgentHour(t *testing.T) {
	orders := make([]models.Order, 0, 20)
	for i := 0; i < 20; i++ {
		orders = append(orders, failedOrder("ord", models.FailureNoCapacity))
	}
	result := &models.RunResult{
		TotalOrders:  20,
		FailedOrders: 20,
		TotalGroups:  17,
		Orders:       orders,
		Agents: []models.AgentSummary{cartFor(models.StateDurations{
			Driving: 3 * time.Hour, Servicing: 2 * time.Hour, Waiting: 30 * time.Minute, Idle: 3*time.Hour + 30*time.Minute,
		})},
	}
	report := Compute(result, testParams())

	rate, ok := report.Metric(KeyOrdersPerAgentHour)
	require.True(t, ok)
	assert.Equal(t, "2.22", rate.Display)
	assert.InDelta(t, 20.0/9.0, rate.Value, 1e-9)
}

func TestZeroDeliveries(t *testing.T) {
	result := &models.RunResult{
		TotalOrders:  2,
		FailedOrders: 2,
		TotalGroups:  1,
		Revenue:      decimal.Zero,
		Tips:         decimal.Zero,
		Orders:       []models.Order{failedOrder("ord_0001", models.FailureShiftEnd), failedOrder("ord_0002", models.FailureShiftEnd)},
		Failures:     []models.FailureCount{{Reason: models.FailureShiftEnd, Count: 2}},
	}
	report := Compute(result, testParams())

	onTime, _ := report.Metric(KeyOnTimeRate)
	assert.Equal(t, "0.0%", onTime.Display)
	failed, _ := report.Metric(KeyFailedRate)
	assert.Equal(t, "100.0%", failed.Display)
	aov, _ := report.Metric(KeyAverageOrderValue)
	assert.Equal(t, "$0.00", aov.Display)
	breakEven, _ := report.Metric(KeyBreakEvenOrders)
	assert.False(t, breakEven.Available)
	assert.Equal(t, "n/a", breakEven.Display)
	p90, _ := report.Metric(KeyP90CycleTime)
	assert.Equal(t, "0.0 min", p90.Display)
	perHour, _ := report.Metric(KeyOrdersPerAgentHour)
	assert.Equal(t, 0.0, perHour.Value)

	assert.Empty(t, report.Zones)
	for _, share := range report.Utilization {
		assert.Equal(t, 0.0, share.Fraction)
	}
}

func TestEmptyRun(t *testing.T) {
	report := Compute(&models.RunResult{}, testParams())
	for _, m := range report.Metrics {
		assert.Falsef(t, m.Value != 0, "%s should be 0, got %v", m.Key, m.Value)
	}
}

func TestUtilizationSumsToOne(t *testing.T) {
	shares := Utilization([]models.AgentSummary{
		cartFor(models.StateDurations{Driving: time.Hour, Servicing: 30 * time.Minute, Idle: 90 * time.Minute}),
		cartFor(models.StateDurations{Waiting: 20 * time.Minute, Idle: 40 * time.Minute}),
	})
	require.Len(t, shares, 4)

	sum := 0.0
	for _, s := range shares {
		sum += s.Fraction
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.Equal(t, models.AgentStatusDriving, shares[0].State)
	assert.Equal(t, "25.0%", shares[0].Display)
}

func TestZoneRows(t *testing.T) {
	rows := zoneRows([]models.ZoneSamples{
		{ZoneID: 2, CycleTimes: []time.Duration{10 * time.Minute, 20 * time.Minute}},
		{ZoneID: 5},
	})
	require.Len(t, rows, 1)
	assert.Equal(t, 2, rows[0].ZoneID)
	assert.Equal(t, 2, rows[0].Deliveries)
	assert.Equal(t, "15.0 min", rows[0].Display)
}

func TestBreakEvenOrders(t *testing.T) {
	n, ok := BreakEvenOrders(15, 9, 12, 4)
	assert.True(t, ok)
	assert.Equal(t, 17, n)

	n, ok = BreakEvenOrders(15, 8, 19, 4)
	assert.True(t, ok)
	assert.Equal(t, 8, n)

	_, ok = BreakEvenOrders(15, 9, 4, 4)
	assert.False(t, ok)
}

func TestEveryAgentMixSumsToOne(t *testing.T) {
	result := &models.RunResult{Agents: []models.AgentSummary{
		{ID: "cart_1", Kind: models.AgentKindCart, TimeInState: models.StateDurations{Driving: 2 * time.Hour, Servicing: time.Hour, Idle: 6 * time.Hour}},
		{ID: "runner_1", Kind: models.AgentKindRunner, TimeInState: models.StateDurations{Driving: 30 * time.Minute, Waiting: 10 * time.Minute, Idle: 20 * time.Minute}},
		{ID: "runner_2", Kind: models.AgentKindRunner},
	}}
	report := Compute(result, testParams())

	require.Len(t, report.Agents, 3)
	for _, agent := range report.Agents[:2] {
		sum := 0.0
		for _, share := range agent.Shares {
			sum += share.Fraction
		}
		assert.InDeltaf(t, 1.0, sum, 1e-9, "agent %s", agent.AgentID)
	}
	assert.Equal(t, "runner_1", report.Agents[1].AgentID)
	assert.Equal(t, "50.0%", report.Agents[1].Shares[0].Display, "runner_1 drove half its shift")
	for _, share := range report.Agents[2].Shares {
		assert.Zero(t, share.Fraction, "an agent never on shift has an empty mix")
	}
}
