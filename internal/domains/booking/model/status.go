package model

import (
	"fmt"
	"slices"
)

// Status is the lifecycle state of a booking.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
)

var validTransitions = map[Status][]Status{
	StatusPending:   {StatusApproved, StatusRejected, StatusCancelled},
	StatusApproved:  {StatusCancelled},
	StatusRejected:  {},
	StatusCancelled: {},
}

// ReservingStatuses hold their slot for conflict checks.
var ReservingStatuses = []Status{StatusPending, StatusApproved}

func (s Status) IsValid() bool {
	_, ok := validTransitions[s]

	return ok
}

// CanTransitionTo reports whether moving from s to target is part of the lifecycle.
func (s Status) CanTransitionTo(target Status) bool {
	return slices.Contains(validTransitions[s], target)
}

func (s Status) IsTerminal() bool {
	return len(validTransitions[s]) == 0
}

func (s Status) Reserves() bool {
	return slices.Contains(ReservingStatuses, s)
}

// Editable reports whether the booking fields may still be changed by the owner.
func (s Status) Editable() bool {
	return s == StatusPending
}

// Sources lists every status from which target is reachable, used to guard
// conditional updates.
func Sources(target Status) []Status {
	sources := []Status{}

	for _, from := range []Status{StatusPending, StatusApproved, StatusRejected, StatusCancelled} {
		if from.CanTransitionTo(target) {
			sources = append(sources, from)
		}
	}

	return sources
}

func (s Status) String() string {
	return string(s)
}

func ParseStatus(s string) (Status, error) {
	status := Status(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid booking status: %s", s)
	}

	return status, nil
}
