package simulator

import (
	"errors"
	"sort"
	"time"
)

// ErrBatchEmpty is returned by PopBatch on an empty queue. Hitting it is
// a programmer error: callers must check NextTimestamp first.
var ErrBatchEmpty = errors.New("event queue: pop batch on empty queue")

// EventQueue is a time-ordered multimap of pending events. Events that
// share a timestamp form a batch: they are retrieved together, in the
// order they were scheduled, so a whole batch applies before any
// observer runs.
type EventQueue struct {
	buckets map[int64][]Event
	keys    []int64 // sorted ascending
}

// NewEventQueue creates an empty queue.
func NewEventQueue() *EventQueue {
	return &EventQueue{buckets: make(map[int64][]Event)}
}

// Schedule inserts an event keyed by its timestamp. Insertion into an
// existing batch is O(1); a new timestamp costs O(log n) to locate plus
// the slice insert.
func (eq *EventQueue) Schedule(e Event) {
	key := e.Timestamp().UnixNano()
	if _, ok := eq.buckets[key]; !ok {
		i := sort.Search(len(eq.keys), func(i int) bool { return eq.keys[i] >= key })
		eq.keys = append(eq.keys, 0)
		copy(eq.keys[i+1:], eq.keys[i:])
		eq.keys[i] = key
	}
	eq.buckets[key] = append(eq.buckets[key], e)
}

// NextTimestamp returns the earliest pending timestamp, or false when
// the queue is empty.
func (eq *EventQueue) NextTimestamp() (time.Time, bool) {
	if len(eq.keys) == 0 {
		return time.Time{}, false
	}
	return time.Unix(0, eq.keys[0]), true
}

// PopBatch removes and returns all events at the earliest timestamp,
// preserving their insertion order.
func (eq *EventQueue) PopBatch() ([]Event, error) {
	if len(eq.keys) == 0 {
		return nil, ErrBatchEmpty
	}
	key := eq.keys[0]
	batch := eq.buckets[key]
	delete(eq.buckets, key)
	eq.keys = eq.keys[1:]
	return batch, nil
}

// Len is the number of pending events across all batches.
func (eq *EventQueue) Len() int {
	n := 0
	for _, b := range eq.buckets {
		n += len(b)
	}
	return n
}

// Clear drops all pending events.
func (eq *EventQueue) Clear() {
	eq.buckets = make(map[int64][]Event)
	eq.keys = nil
}

// Clone deep-copies the queue, cloning every event so a forecast run
// can consume its copy without touching the live timeline.
func (eq *EventQueue) Clone() *EventQueue {
	c := &EventQueue{
		buckets: make(map[int64][]Event, len(eq.buckets)),
		keys:    append([]int64(nil), eq.keys...),
	}
	for key, batch := range eq.buckets {
		events := make([]Event, len(batch))
		for i, e := range batch {
			events[i] = e.Clone()
		}
		c.buckets[key] = events
	}
	return c
}
