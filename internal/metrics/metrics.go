package metrics

import (
	"fmt"
	"math"
	"time"

	"github.com/chrisdamba/golfsim/internal/models"
	"github.com/shopspring/decimal"
)

const (
	UnitCurrency = "currency"
	UnitPercent  = "percent"
	UnitMinutes  = "minutes"
	UnitMeters   = "meters"
	UnitRate     = "rate"
	UnitCount    = "count"
)

// Metric keys, in report order.
const (
	KeyRevenuePerRound    = "revenue_per_round"
	KeyAverageOrderValue  = "average_order_value"
	KeyOrdersPerAgentHour = "orders_per_agent_hour"
	KeyOnTimeRate         = "on_time_rate"
	KeyP90CycleTime       = "p90_cycle_time"
	KeyFailedRate         = "failed_rate"
	KeyBreakEvenOrders    = "break_even_orders"
	KeyRevenuePerGroup    = "revenue_per_group"
	KeyTotalRevenue       = "total_revenue"
	KeyTotalTips          = "total_tips"
	KeyQueueWait          = "avg_queue_wait"
	KeyAverageOrderTime   = "avg_order_time"
	KeyDistancePerDeliver = "avg_distance_per_delivery"
	KeyTotalDriveMinutes  = "total_drive_minutes"
)

// Params carries the scenario inputs the metric definitions depend on.
type Params struct {
	SLA                  time.Duration
	WagePerHour          float64
	VariableCostPerOrder float64
	ShiftHours           float64
}

func ParamsFromConfig(cfg *models.Config) Params {
	return Params{
		SLA:                  cfg.SLA,
		WagePerHour:          cfg.Staffing.WagePerHour,
		VariableCostPerOrder: cfg.Staffing.VariableCostPerOrder,
		ShiftHours:           cfg.ShiftDuration.Hours(),
	}
}

// Metric is one ranked line of the executive report. Available is false when the
// definition has no meaningful value for the run; Display then reads "n/a".
type Metric struct {
	Key       string  `json:"key"`
	Label     string  `json:"label"`
	Value     float64 `json:"value"`
	Unit      string  `json:"unit"`
	Display   string  `json:"display"`
	Available bool    `json:"available"`
}

type ZoneRow struct {
	ZoneID         int     `json:"zone_id"`
	Deliveries     int     `json:"deliveries"`
	AverageMinutes float64 `json:"average_minutes"`
	Display        string  `json:"display"`
}

type StateShare struct {
	State    string  `json:"state"`
	Fraction float64 `json:"fraction"`
	Display  string  `json:"display"`
}

// AgentUtilization is the state mix of one agent over its own on-shift time.
type AgentUtilization struct {
	AgentID string       `json:"agent_id"`
	Kind    string       `json:"kind"`
	Shares  []StateShare `json:"shares"`
}

// Identity echoes what the run was: who worked it and how much demand it saw.
type Identity struct {
	SimulationID string   `json:"simulation_id"`
	Scenario     string   `json:"scenario"`
	RunIndex     int      `json:"run_index"`
	Seed         int64    `json:"seed"`
	AgentIDs     []string `json:"agent_ids"`
	TotalOrders  int      `json:"total_orders"`
	TotalGroups  int      `json:"total_groups"`
	Rounds       int      `json:"rounds"`
	ActiveHours  float64  `json:"active_hours"`
}

type Report struct {
	Identity    Identity              `json:"identity"`
	Metrics     []Metric              `json:"metrics"`
	Zones       []ZoneRow             `json:"zones"`
	Utilization []StateShare          `json:"utilization"`
	Agents      []AgentUtilization    `json:"agents"`
	Failures    []models.FailureCount `json:"failures"`
}

// Metric looks a metric up by key.
func (r Report) Metric(key string) (Metric, bool) {
	for _, m := range r.Metrics {
		if m.Key == key {
			return m, true
		}
	}
	return Metric{}, false
}

// Compute derives the report of one run. It is a pure function of its inputs.
func Compute(result *models.RunResult, params Params) Report {
	total := float64(result.TotalOrders)
	activeHours := result.ActiveHours()

	var cycleTimes, queueWaits []float64
	onTime := 0
	for i := range result.Orders {
		order := &result.Orders[i]
		if wait, ok := order.QueueWait(); ok {
			queueWaits = append(queueWaits, wait.Minutes())
		}
		if cycle, ok := order.CycleTime(); ok {
			cycleTimes = append(cycleTimes, cycle.Minutes())
			if cycle <= params.SLA {
				onTime++
			}
		}
	}

	aov := decimal.Zero
	if result.SuccessfulOrders > 0 {
		aov = result.Revenue.Div(decimal.NewFromInt(int64(result.SuccessfulOrders)))
	}
	revenuePerRound := decimal.Zero
	if result.Rounds > 0 {
		revenuePerRound = result.Revenue.Div(decimal.NewFromInt(int64(result.Rounds)))
	}
	revenuePerGroup := decimal.Zero
	if result.TotalGroups > 0 {
		revenuePerGroup = result.Revenue.Div(decimal.NewFromInt(int64(result.TotalGroups)))
	}

	var driving time.Duration
	for _, a := range result.Agents {
		driving += a.TimeInState.Driving
	}

	breakEven, breakEvenOK := BreakEvenOrders(params.WagePerHour, params.ShiftHours, aov.InexactFloat64(), params.VariableCostPerOrder)

	return Report{
		Identity: Identity{
			SimulationID: result.SimulationID,
			Scenario:     result.Scenario,
			RunIndex:     result.RunIndex,
			Seed:         result.Seed,
			AgentIDs:     result.AgentIDs(),
			TotalOrders:  result.TotalOrders,
			TotalGroups:  result.TotalGroups,
			Rounds:       result.Rounds,
			ActiveHours:  activeHours,
		},
		Metrics: []Metric{
			currency(KeyRevenuePerRound, "Revenue per round", revenuePerRound),
			currency(KeyAverageOrderValue, "Average order value", aov),
			rate(KeyOrdersPerAgentHour, "Orders per agent-hour", ratio(total, activeHours)),
			percent(KeyOnTimeRate, "On-time rate", ratio(float64(onTime), total)),
			minutesMetric(KeyP90CycleTime, "P90 cycle time", Percentile(cycleTimes, 90)),
			percent(KeyFailedRate, "Failed rate", ratio(float64(result.FailedOrders), total)),
			count(KeyBreakEvenOrders, "Break-even orders", breakEven, breakEvenOK),
			currency(KeyRevenuePerGroup, "Revenue per group", revenuePerGroup),
			currency(KeyTotalRevenue, "Total revenue", result.Revenue),
			currency(KeyTotalTips, "Total tips", result.Tips),
			minutesMetric(KeyQueueWait, "Average queue wait", Mean(queueWaits)),
			minutesMetric(KeyAverageOrderTime, "Average order time", Mean(cycleTimes)),
			meters(KeyDistancePerDeliver, "Average distance per delivery", Mean(result.DeliveryDistances)),
			minutesMetric(KeyTotalDriveMinutes, "Total drive time", driving.Minutes()),
		},
		Zones:       zoneRows(result.ZoneServiceTimes),
		Utilization: Utilization(result.Agents),
		Agents:      agentUtilization(result.Agents),
		Failures:    result.Failures,
	}
}

// BreakEvenOrders is the number of orders whose margin covers the labour cost
// of one agent over the shift. ok is false when each order loses money.
func BreakEvenOrders(wagePerHour, shiftHours, averageOrderValue, variableCost float64) (int, bool) {
	margin := averageOrderValue - variableCost
	if margin <= 0 {
		return 0, false
	}
	return int(math.Ceil(wagePerHour * shiftHours / margin)), true
}

// Utilization splits total on-shift time across agent states. The fractions sum
// to 1 whenever any agent was on shift.
func Utilization(agents []models.AgentSummary) []StateShare {
	var total time.Duration
	for _, a := range agents {
		total += a.TimeInState.Total()
	}
	shares := make([]StateShare, 0, len(models.AgentStates))
	for _, state := range models.AgentStates {
		var inState time.Duration
		for _, a := range agents {
			inState += a.TimeInState.Of(state)
		}
		f := ratio(float64(inState), float64(total))
		shares = append(shares, StateShare{State: state, Fraction: f, Display: formatPercent(f)})
	}
	return shares
}

func agentUtilization(agents []models.AgentSummary) []AgentUtilization {
	mixes := make([]AgentUtilization, 0, len(agents))
	for _, a := range agents {
		mixes = append(mixes, AgentUtilization{
			AgentID: a.ID,
			Kind:    a.Kind,
			Shares:  Utilization([]models.AgentSummary{a}),
		})
	}
	return mixes
}

func zoneRows(samples []models.ZoneSamples) []ZoneRow {
	rows := make([]ZoneRow, 0, len(samples))
	for _, zs := range samples {
		if len(zs.CycleTimes) == 0 {
			continue
		}
		avg := Mean(minutes(zs.CycleTimes))
		rows = append(rows, ZoneRow{
			ZoneID:         zs.ZoneID,
			Deliveries:     len(zs.CycleTimes),
			AverageMinutes: avg,
			Display:        formatMinutes(avg),
		})
	}
	return rows
}

func currency(key, label string, v decimal.Decimal) Metric {
	return Metric{Key: key, Label: label, Value: v.Round(2).InexactFloat64(), Unit: UnitCurrency, Display: "$" + v.StringFixed(2), Available: true}
}

func percent(key, label string, fraction float64) Metric {
	return Metric{Key: key, Label: label, Value: fraction, Unit: UnitPercent, Display: formatPercent(fraction), Available: true}
}

func rate(key, label string, v float64) Metric {
	return Metric{Key: key, Label: label, Value: v, Unit: UnitRate, Display: fmt.Sprintf("%.2f", v), Available: true}
}

func minutesMetric(key, label string, v float64) Metric {
	return Metric{Key: key, Label: label, Value: v, Unit: UnitMinutes, Display: formatMinutes(v), Available: true}
}

func meters(key, label string, v float64) Metric {
	return Metric{Key: key, Label: label, Value: v, Unit: UnitMeters, Display: fmt.Sprintf("%.1f m", v), Available: true}
}

func count(key, label string, v int, ok bool) Metric {
	m := Metric{Key: key, Label: label, Value: float64(v), Unit: UnitCount, Display: fmt.Sprintf("%d", v), Available: ok}
	if !ok {
		m.Display = "n/a"
	}
	return m
}

func formatPercent(fraction float64) string {
	return fmt.Sprintf("%.1f%%", fraction*100)
}

func formatMinutes(v float64) string {
	return fmt.Sprintf("%.1f min", v)
}
