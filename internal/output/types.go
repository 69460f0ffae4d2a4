package output

import (
	"time"

	"github.com/chrisdamba/golfsim/internal/metrics"
	"github.com/chrisdamba/golfsim/internal/models"
)

// OrderRecord is one row of the per-order log. Timestamps are unix milliseconds,
// 0 when the order never reached that state.
type OrderRecord struct {
	SimulationID  string  `json:"simulationId" parquet:"name=simulationId,type=BYTE_ARRAY,convertedtype=UTF8"`
	OrderID       string  `json:"orderId" parquet:"name=orderId,type=BYTE_ARRAY,convertedtype=UTF8"`
	GroupID       string  `json:"groupId" parquet:"name=groupId,type=BYTE_ARRAY,convertedtype=UTF8"`
	ZoneID        int32   `json:"zoneId" parquet:"name=zoneId,type=INT32"`
	AgentID       string  `json:"agentId" parquet:"name=agentId,type=BYTE_ARRAY,convertedtype=UTF8"`
	Status        string  `json:"status" parquet:"name=status,type=BYTE_ARRAY,convertedtype=UTF8"`
	FailureReason string  `json:"failureReason" parquet:"name=failureReason,type=BYTE_ARRAY,convertedtype=UTF8"`
	Value         float64 `json:"value" parquet:"name=value,type=DOUBLE"`
	Tip           float64 `json:"tip" parquet:"name=tip,type=DOUBLE"`
	CreatedAt     int64   `json:"createdAt" parquet:"name=createdAt,type=INT64"`
	AssignedAt    int64   `json:"assignedAt" parquet:"name=assignedAt,type=INT64"`
	InTransitAt   int64   `json:"inTransitAt" parquet:"name=inTransitAt,type=INT64"`
	DeliveredAt   int64   `json:"deliveredAt" parquet:"name=deliveredAt,type=INT64"`
	FailedAt      int64   `json:"failedAt" parquet:"name=failedAt,type=INT64"`
	CycleMinutes  float64 `json:"cycleMinutes" parquet:"name=cycleMinutes,type=DOUBLE"`
}

// MetricRecord is one ranked metric of a run.
type MetricRecord struct {
	SimulationID string  `json:"simulationId" parquet:"name=simulationId,type=BYTE_ARRAY,convertedtype=UTF8"`
	Rank         int32   `json:"rank" parquet:"name=rank,type=INT32"`
	Key          string  `json:"key" parquet:"name=key,type=BYTE_ARRAY,convertedtype=UTF8"`
	Label        string  `json:"label" parquet:"name=label,type=BYTE_ARRAY,convertedtype=UTF8"`
	Value        float64 `json:"value" parquet:"name=value,type=DOUBLE"`
	Unit         string  `json:"unit" parquet:"name=unit,type=BYTE_ARRAY,convertedtype=UTF8"`
	Display      string  `json:"display" parquet:"name=display,type=BYTE_ARRAY,convertedtype=UTF8"`
}

var orderHeaders = []string{
	"simulation_id", "order_id", "group_id", "zone_id", "agent_id", "status", "failure_reason",
	"value", "tip", "created_at", "assigned_at", "in_transit_at", "delivered_at", "failed_at", "cycle_minutes",
}

var metricHeaders = []string{"simulation_id", "rank", "key", "label", "value", "unit", "display"}

func orderRecords(result *models.RunResult) []OrderRecord {
	records := make([]OrderRecord, 0, len(result.Orders))
	for i := range result.Orders {
		o := &result.Orders[i]
		cycle, _ := o.CycleTime()
		records = append(records, OrderRecord{
			SimulationID:  result.SimulationID,
			OrderID:       o.ID,
			GroupID:       o.GroupID,
			ZoneID:        int32(o.ZoneID),
			AgentID:       o.AgentID,
			Status:        o.Status,
			FailureReason: o.FailureReason,
			Value:         o.Value.InexactFloat64(),
			Tip:           o.Tip.InexactFloat64(),
			CreatedAt:     o.CreatedAt.UnixMilli(),
			AssignedAt:    unixMilli(o.AssignedAt),
			InTransitAt:   unixMilli(o.InTransitAt),
			DeliveredAt:   unixMilli(o.DeliveredAt),
			FailedAt:      unixMilli(o.FailedAt),
			CycleMinutes:  cycle.Minutes(),
		})
	}
	return records
}

func metricRecords(simulationID string, report metrics.Report) []MetricRecord {
	records := make([]MetricRecord, 0, len(report.Metrics))
	for i, m := range report.Metrics {
		records = append(records, MetricRecord{
			SimulationID: simulationID,
			Rank:         int32(i + 1),
			Key:          m.Key,
			Label:        m.Label,
			Value:        m.Value,
			Unit:         m.Unit,
			Display:      m.Display,
		})
	}
	return records
}

func unixMilli(t *time.Time) int64 {
	if t == nil {
		return 0
	}
	return t.UnixMilli()
}
