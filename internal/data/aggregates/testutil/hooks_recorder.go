// Package testutil holds fakes for exercising the enrollment aggregate.
package testutil

import (
	"sync"
	"time"

	"github.com/openacademy/trilhas-backend/internal/data/aggregates"
	"github.com/openacademy/trilhas-backend/internal/domain/enrollment"
)

// HooksRecorder keeps every aggregate signal for assertions.
type HooksRecorder struct {
	mu sync.Mutex

	Operations  []Operation
	Conflicts   []string
	Retries     []string
	Transitions []Transition
}

type Operation struct {
	Name   string
	Status string
}

type Transition struct {
	From enrollment.Status
	To   enrollment.Status
}

var _ aggregates.Hooks = (*HooksRecorder)(nil)

func (h *HooksRecorder) ObserveOperation(op, status string, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Operations = append(h.Operations, Operation{Name: op, Status: status})
}

func (h *HooksRecorder) IncConflict(op string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Conflicts = append(h.Conflicts, op)
}

func (h *HooksRecorder) IncRetry(op string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Retries = append(h.Retries, op)
}

func (h *HooksRecorder) IncTransition(from, to enrollment.Status) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Transitions = append(h.Transitions, Transition{From: from, To: to})
}

// TransitionsTo counts recorded moves into status.
func (h *HooksRecorder) TransitionsTo(status enrollment.Status) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, tr := range h.Transitions {
		if tr.To == status {
			n++
		}
	}
	return n
}
