package models

import (
	"container/heap"
	"time"
)

const (
	EventOrderArrival    = "OrderArrival"
	EventDispatch        = "Dispatch"
	EventAgentActivate   = "AgentActivate"
	EventArriveAtBase    = "ArriveAtBase"
	EventDepart          = "Depart"
	EventTravelComplete  = "TravelComplete"
	EventBlockCleared    = "BlockCleared"
	EventServiceComplete = "ServiceComplete"
	EventQueueTimeout    = "QueueTimeout"
	EventZoneUnblocked   = "ZoneUnblocked"
	EventShiftEnd        = "ShiftEnd"
)

// Event represents a simulation event. Seq is assigned by the queue on insert.
type Event struct {
	Time time.Time
	Seq  uint64
	Type string
	Data interface{}
}

// EventQueue is a priority queue of events ordered by (Time, Seq). Events with
// the same timestamp pop in insertion order, which keeps replays deterministic.
// It is owned by a single run and is not safe for concurrent use.
type EventQueue struct {
	events  eventHeap
	nextSeq uint64
}

// eventHeap implements heap.Interface and holds Events
type eventHeap []*Event

func (h eventHeap) Len() int { return len(h) }
func (h eventHeap) Less(i, j int) bool {
	if h[i].Time.Equal(h[j].Time) {
		return h[i].Seq < h[j].Seq
	}
	return h[i].Time.Before(h[j].Time)
}
func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x interface{}) {
	*h = append(*h, x.(*Event))
}

func (h *eventHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	old[n-1] = nil
	*h = old[0 : n-1]
	return x
}

// NewEventQueue creates a new EventQueue
func NewEventQueue() *EventQueue {
	return &EventQueue{events: make(eventHeap, 0)}
}

// Enqueue adds an event to the queue
func (eq *EventQueue) Enqueue(event *Event) {
	event.Seq = eq.nextSeq
	eq.nextSeq++
	heap.Push(&eq.events, event)
}

// Dequeue removes and returns the earliest event from the queue
func (eq *EventQueue) Dequeue() *Event {
	if len(eq.events) == 0 {
		return nil
	}
	return heap.Pop(&eq.events).(*Event)
}

// Peek returns the earliest event without removing it
func (eq *EventQueue) Peek() *Event {
	if len(eq.events) == 0 {
		return nil
	}
	return eq.events[0]
}

// IsEmpty returns true if the queue is empty
func (eq *EventQueue) IsEmpty() bool {
	return len(eq.events) == 0
}

// Len returns the number of events in the queue
func (eq *EventQueue) Len() int {
	return len(eq.events)
}
