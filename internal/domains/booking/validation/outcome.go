// Package validation decides whether a proposed booking is admissible against the
// resource it targets and the reservations already holding that resource.
package validation

import (
	"campusbook/internal/domains/booking/model"
	"campusbook/shared/failure"
	"fmt"
)

type Kind string

const (
	KindAdmissible       Kind = "admissible"
	KindCapacityExceeded Kind = "capacity_exceeded"
	KindSlotConflict     Kind = "slot_conflict"
	KindValidationError  Kind = "validation_error"
)

const (
	RuleResourceExists    = "resource_exists"
	RuleResourceAvailable = "resource_available"
	RuleDateNotPast       = "date_not_past"
	RuleTimeOrder         = "time_order"
	RuleAttendeesPositive = "attendees_positive"
	RuleReasonRequired    = "reason_required"
	RuleDateFormat        = "date_format"
	RuleTimeFormat        = "time_format"
)

// Violation names the input rule that failed and the offending field.
type Violation struct {
	Rule  string `json:"rule"`
	Field string `json:"field"`
}

type Suggestion struct {
	ResourceID string `json:"resource_id"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	Capacity   int    `json:"capacity"`
	Surplus    int    `json:"surplus"`
}

// Conflict describes the reservation that already holds the requested slot.
type Conflict struct {
	BookingID  string      `json:"booking_id"`
	ResourceID string      `json:"resource_id"`
	Date       string      `json:"date"`
	StartTime  model.Clock `json:"start_time"`
	EndTime    model.Clock `json:"end_time"`
	Status     string      `json:"status"`
}

// Outcome is the result of a check. Exactly one of the payload fields is set,
// matching Kind; an admissible outcome carries none.
type Outcome struct {
	Kind        Kind         `json:"kind"`
	Violation   *Violation   `json:"violation,omitempty"`
	Suggestions []Suggestion `json:"suggestions,omitempty"`
	Conflict    *Conflict    `json:"conflict,omitempty"`
}

func Admissible() Outcome {
	return Outcome{Kind: KindAdmissible}
}

func Invalid(rule, field string) Outcome {
	return Outcome{Kind: KindValidationError, Violation: &Violation{Rule: rule, Field: field}}
}

func OverCapacity(suggestions []Suggestion) Outcome {
	if suggestions == nil {
		suggestions = []Suggestion{}
	}

	return Outcome{Kind: KindCapacityExceeded, Suggestions: suggestions}
}

func Conflicting(conflict Conflict) Outcome {
	return Outcome{Kind: KindSlotConflict, Conflict: &conflict}
}

func (o Outcome) IsAdmissible() bool {
	return o.Kind == KindAdmissible
}

// Err renders a rejected outcome as a failure carrying its payload; nil when admissible.
func (o Outcome) Err() error {
	switch o.Kind {
	case KindAdmissible:
		return nil
	case KindValidationError:
		return failure.Validation(fmt.Sprintf("%s is invalid (%s)", o.Violation.Field, o.Violation.Rule), o.Violation) // nolint:wrapcheck
	case KindCapacityExceeded:
		return failure.CapacityExceeded("attendee count exceeds resource capacity", o.Suggestions) // nolint:wrapcheck
	case KindSlotConflict:
		return failure.SlotConflict(
			fmt.Sprintf("resource is already reserved on %s from %s to %s", o.Conflict.Date, o.Conflict.StartTime, o.Conflict.EndTime),
			o.Conflict,
		) // nolint:wrapcheck
	default:
		return failure.InternalError(fmt.Errorf("unknown validation outcome %q", o.Kind)) // nolint:wrapcheck
	}
}
