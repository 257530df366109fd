package enrollment

import (
	"errors"
	"fmt"
	"strings"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// SeatStatuses are the statuses that occupy a seat in a turma.
var SeatStatuses = []Status{StatusPending, StatusApproved, StatusActive, StatusCompleted}

// SeatStatusStrings is SeatStatuses as plain strings for SQL IN clauses.
func SeatStatusStrings() []string {
	out := make([]string, 0, len(SeatStatuses))
	for _, s := range SeatStatuses {
		out = append(out, string(s))
	}
	return out
}

func (s Status) OccupiesSeat() bool {
	for _, seat := range SeatStatuses {
		if s == seat {
			return true
		}
	}
	return false
}

func (s Status) Known() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusActive, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

type Event string

const (
	EventApprove  Event = "approve"
	EventReject   Event = "reject"
	EventActivate Event = "activate"
	EventComplete Event = "complete"
	EventCancel   Event = "cancel"
)

var ErrInvalidTransition = errors.New("invalid inscription transition")

// ParseEvent accepts an event name in any case.
func ParseEvent(raw string) (Event, bool) {
	ev := Event(strings.ToLower(strings.TrimSpace(raw)))
	switch ev {
	case EventApprove, EventReject, EventActivate, EventComplete, EventCancel:
		return ev, true
	default:
		return "", false
	}
}

// Transition is the single source of truth for inscription status changes.
func Transition(current Status, ev Event) (Status, error) {
	var next Status
	switch {
	case current == StatusPending && ev == EventApprove:
		next = StatusApproved
	case current == StatusPending && ev == EventReject:
		next = StatusRejected
	case current == StatusApproved && ev == EventActivate:
		next = StatusActive
	case current == StatusActive && ev == EventComplete:
		next = StatusCompleted
	case ev == EventCancel && (current == StatusPending || current == StatusApproved || current == StatusActive):
		next = StatusCancelled
	default:
		return current, fmt.Errorf("%w: %s from %s", ErrInvalidTransition, ev, current)
	}
	return next, nil
}

// SourcesFor lists the statuses from which ev is allowed.
func SourcesFor(ev Event) []Status {
	var out []Status
	for _, s := range []Status{StatusPending, StatusApproved, StatusRejected, StatusActive, StatusCompleted, StatusCancelled} {
		if _, err := Transition(s, ev); err == nil {
			out = append(out, s)
		}
	}
	return out
}

// EventTo returns the event that moves an inscription into target, if any.
func EventTo(target Status) (Event, bool) {
	switch target {
	case StatusApproved:
		return EventApprove, true
	case StatusRejected:
		return EventReject, true
	case StatusActive:
		return EventActivate, true
	case StatusCompleted:
		return EventComplete, true
	case StatusCancelled:
		return EventCancel, true
	default:
		return "", false
	}
}
