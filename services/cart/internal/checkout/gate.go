// Package checkout submits a priced cart to the order service and keeps a
// session from submitting twice at once.
package checkout

import "sync"

type Status string

const (
	StatusIdle       Status = "idle"
	StatusSubmitting Status = "submitting"
)

// Gate is the Idle -> Submitting -> Idle state machine around an order
// submission. The zero value is idle.
type Gate struct {
	mu     sync.Mutex
	status Status
}

// Begin moves the gate to Submitting. It returns false when a submission is
// already in flight.
func (g *Gate) Begin() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.status == StatusSubmitting {
		return false
	}
	g.status = StatusSubmitting
	return true
}

// End returns the gate to Idle whatever the submission's outcome.
func (g *Gate) End() {
	g.mu.Lock()
	g.status = StatusIdle
	g.mu.Unlock()
}

func (g *Gate) Status() Status {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.status == "" {
		return StatusIdle
	}
	return g.status
}

func (g *Gate) Submitting() bool {
	return g.Status() == StatusSubmitting
}
