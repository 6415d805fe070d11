package ether

import "time"

// FrameID identifies a requested frame callback.
type FrameID uint64

// Scheduler delivers at most one callback per requested frame, on the
// host's refresh cadence. Cancel must guarantee the callback never runs.
type Scheduler interface {
	RequestFrame(fn func(now time.Time)) FrameID
	Cancel(id FrameID)
}

type frameRequest struct {
	id FrameID
	fn func(time.Time)
}

// FrameQueue is a Scheduler driven by the host calling Flush once per
// display refresh.
type FrameQueue struct {
	next     FrameID
	pending  []frameRequest
	flushing []frameRequest
}

func NewFrameQueue() *FrameQueue {
	return &FrameQueue{}
}

func (q *FrameQueue) RequestFrame(fn func(now time.Time)) FrameID {
	q.next++
	q.pending = append(q.pending, frameRequest{id: q.next, fn: fn})
	return q.next
}

func (q *FrameQueue) Cancel(id FrameID) {
	for i, r := range q.pending {
		if r.id == id {
			q.pending = append(q.pending[:i], q.pending[i+1:]...)
			return
		}
	}
	for i := range q.flushing {
		if q.flushing[i].id == id {
			q.flushing[i].fn = nil
			return
		}
	}
}

// Pending returns the number of outstanding callbacks.
func (q *FrameQueue) Pending() int { return len(q.pending) }

// Flush runs every callback requested before the call and returns how many
// ran. Callbacks requested while flushing wait for the next Flush;
// callbacks cancelled while flushing are skipped.
func (q *FrameQueue) Flush(now time.Time) int {
	q.flushing = q.pending
	q.pending = nil
	ran := 0
	for i := range q.flushing {
		fn := q.flushing[i].fn
		if fn == nil {
			continue
		}
		q.flushing[i].fn = nil
		fn(now)
		ran++
	}
	q.flushing = nil
	return ran
}
