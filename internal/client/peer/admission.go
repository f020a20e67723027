package peer

import "sync"

// JoinRequest is one prospective joiner waiting on the owner's decision.
type JoinRequest struct {
	Room      string
	Requester string
	Name      string
}

// AdmissionQueue is the owner-side queue of join requests. Exactly one
// prompt is surfaced at a time; the rest wait in arrival order until the
// current one is resolved.
type AdmissionQueue struct {
	mu     sync.Mutex
	queue  []JoinRequest
	active bool
	prompt func(JoinRequest)
}

func NewAdmissionQueue(prompt func(JoinRequest)) *AdmissionQueue {
	return &AdmissionQueue{prompt: prompt}
}

// Enqueue adds a request. If no prompt is up, this one surfaces immediately.
func (q *AdmissionQueue) Enqueue(req JoinRequest) {
	q.mu.Lock()
	q.queue = append(q.queue, req)
	surface := !q.active
	if surface {
		q.active = true
	}
	q.mu.Unlock()

	if surface && q.prompt != nil {
		q.prompt(req)
	}
}

// Resolve pops the surfaced request and, if another is waiting, surfaces it.
// Returns the resolved request; ok is false when nothing was surfaced.
func (q *AdmissionQueue) Resolve() (JoinRequest, bool) {
	q.mu.Lock()
	if !q.active || len(q.queue) == 0 {
		q.mu.Unlock()
		return JoinRequest{}, false
	}
	req := q.queue[0]
	q.queue = q.queue[1:]
	var next *JoinRequest
	if len(q.queue) > 0 {
		next = &q.queue[0]
	} else {
		q.active = false
	}
	q.mu.Unlock()

	if next != nil && q.prompt != nil {
		q.prompt(*next)
	}
	return req, true
}

// Pending reports how many requests wait, the surfaced one included.
func (q *AdmissionQueue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.queue)
}
