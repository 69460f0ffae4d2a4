package simulator

import (
	"sort"
	"time"

	"github.com/chrisdamba/golfsim/internal/models"
	"github.com/shopspring/decimal"
)

type plannedOrder struct {
	Value decimal.Decimal
	Tip   decimal.Decimal
}

// arrival is the payload of an OrderArrival event: one ordering group to create.
type arrival struct {
	At     time.Time
	ZoneID int
	Orders []plannedOrder
	// AbandonRoll is compared with service.abandon_rate when the group is served.
	AbandonRoll float64
}

// generateArrivals produces the full demand of the shift from the arrival stream.
// Abandon rolls come from the noise stream but are drawn here, one per group, so
// whether a group walks away does not depend on who serves it.
func (s *Simulator) generateArrivals() []*arrival {
	var arrivals []*arrival
	switch s.Config.Arrivals.Process {
	case models.ArrivalProcessSchedule:
		arrivals = s.scheduledArrivals()
	default:
		arrivals = s.poissonArrivals()
	}
	for _, a := range arrivals {
		a.AbandonRoll = s.Rng.Noise.Float64()
	}
	return arrivals
}

func (s *Simulator) poissonArrivals() []*arrival {
	cfg := s.Config.Arrivals
	if cfg.GroupsPerHour <= 0 {
		return nil
	}

	zones := s.Course.Zones()
	weights := make([]float64, len(zones))
	for i, z := range zones {
		weights[i] = z.Weight
	}

	cutoff := s.Config.ShiftEnd().Add(-cfg.LastCall)
	var arrivals []*arrival
	t := s.Config.ShiftStart
	for {
		t = t.Add(exponentialGap(s.Rng.Arrivals, cfg.GroupsPerHour))
		if !t.Before(cutoff) {
			break
		}
		zone := zones[weightedIndex(s.Rng.Arrivals, weights)]
		size := weightedIndex(s.Rng.Arrivals, cfg.GroupSizeWeights) + 1
		arrivals = append(arrivals, &arrival{
			At:     t,
			ZoneID: zone.ID,
			Orders: s.planOrders(size),
		})
	}
	return arrivals
}

func (s *Simulator) scheduledArrivals() []*arrival {
	schedule := append([]models.ScheduledArrival(nil), s.Config.Arrivals.Schedule...)
	sort.SliceStable(schedule, func(i, j int) bool { return schedule[i].At < schedule[j].At })

	arrivals := make([]*arrival, 0, len(schedule))
	for _, entry := range schedule {
		arrivals = append(arrivals, &arrival{
			At:     s.Config.ShiftStart.Add(entry.At),
			ZoneID: entry.Zone,
			Orders: s.planOrders(entry.Orders),
		})
	}
	return arrivals
}

func (s *Simulator) planOrders(n int) []plannedOrder {
	dist := s.Config.Money.OrderValue
	tipRate := decimal.NewFromFloat(s.Config.Money.TipRate)
	orders := make([]plannedOrder, n)
	for i := range orders {
		value := decimal.NewFromFloat(normalClamped(s.Rng.Arrivals, dist.Mean, dist.Std, dist.Min, dist.Max)).Round(2)
		orders[i] = plannedOrder{
			Value: value,
			Tip:   value.Mul(tipRate).Round(2),
		}
	}
	return orders
}
