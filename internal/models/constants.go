package models

const (
	OrderStatusPending   = "pending"
	OrderStatusAssigned  = "assigned"
	OrderStatusInTransit = "in_transit"
	OrderStatusDelivered = "delivered"
	OrderStatusFailed    = "failed"

	FailureNoCapacity = "no_capacity"
	FailureBlocked    = "blocked"
	FailureShiftEnd   = "shift_end"
	FailureAbandoned  = "abandoned"

	AgentStatusOffShift  = "off_shift"
	AgentStatusIdle      = "idle"
	AgentStatusDriving   = "driving"
	AgentStatusServicing = "servicing"
	AgentStatusWaiting   = "waiting"

	AgentKindCart   = "cart"
	AgentKindRunner = "runner"

	BlockedPolicyDefer = "defer"
	BlockedPolicyFail  = "fail"

	ArrivalProcessPoisson  = "poisson"
	ArrivalProcessSchedule = "schedule"

	// ClubhouseZoneID is the base every runner loads at and every agent starts from.
	ClubhouseZoneID = 0
)

// orderStatusRank orders statuses along the lifecycle; terminal statuses share the top rank.
var orderStatusRank = map[string]int{
	OrderStatusPending:   0,
	OrderStatusAssigned:  1,
	OrderStatusInTransit: 2,
	OrderStatusDelivered: 3,
	OrderStatusFailed:    3,
}

// AgentStates lists the time-accounted agent states in report order.
var AgentStates = []string{
	AgentStatusDriving,
	AgentStatusServicing,
	AgentStatusWaiting,
	AgentStatusIdle,
}
