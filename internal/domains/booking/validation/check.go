package validation

import (
	"campusbook/internal/domains/booking/model"
	resourceModel "campusbook/internal/domains/resource/model"
	"campusbook/shared/constant"
	"cmp"
	"slices"
	"strings"
	"time"
)

const (
	fieldResourceID    = "resource_id"
	fieldBookingDate   = "booking_date"
	fieldEndTime       = "end_time"
	fieldAttendeeCount = "attendee_count"
	fieldReason        = "reason"
)

// Request is a candidate booking. BookingID is set when an existing booking is
// being edited so that its own reservation is not counted against it.
type Request struct {
	BookingID     string
	ResourceID    string
	Window        model.Window
	AttendeeCount int
	Reason        string
}

// Input bundles everything Check needs. Resource is nil when it does not exist.
type Input struct {
	Request    Request
	Resource   *resourceModel.Resource
	Reserved   []model.Booking
	Candidates []resourceModel.Resource
	Today      time.Time
}

// Check runs input validation, then capacity, then temporal conflict, and
// reports the first rule the request breaks.
func Check(in Input) Outcome {
	req := in.Request

	switch {
	case in.Resource == nil:
		return Invalid(RuleResourceExists, fieldResourceID)
	case !in.Resource.Bookable():
		return Invalid(RuleResourceAvailable, fieldResourceID)
	}

	if outcome := CheckInput(req, in.Today); !outcome.IsAdmissible() {
		return outcome
	}

	if !in.Resource.Fits(req.AttendeeCount) {
		return OverCapacity(Suggest(in.Candidates, req.AttendeeCount, in.Resource.ID))
	}

	if conflict, ok := FindConflict(req, in.Reserved); ok {
		return Conflicting(conflict)
	}

	return Admissible()
}

// CheckInput applies the rules that need neither the resource nor other bookings.
func CheckInput(req Request, today time.Time) Outcome {
	switch {
	case before(req.Window.Date, today):
		return Invalid(RuleDateNotPast, fieldBookingDate)
	case !req.Window.WellOrdered():
		return Invalid(RuleTimeOrder, fieldEndTime)
	case req.AttendeeCount <= 0:
		return Invalid(RuleAttendeesPositive, fieldAttendeeCount)
	case strings.TrimSpace(req.Reason) == constant.Empty:
		return Invalid(RuleReasonRequired, fieldReason)
	}

	return Admissible()
}

// FindConflict returns the first reserving booking on the same resource whose
// window overlaps the request.
func FindConflict(req Request, reserved []model.Booking) (Conflict, bool) {
	for _, other := range reserved {
		if other.ID == req.BookingID || other.ResourceID != req.ResourceID || !other.Status.Reserves() {
			continue
		}

		if req.Window.Overlaps(other.Window()) {
			return conflictOf(other), true
		}
	}

	return Conflict{}, false
}

func conflictOf(other model.Booking) Conflict {
	return Conflict{
		BookingID:  other.ID,
		ResourceID: other.ResourceID,
		Date:       other.BookingDate.Format(constant.DayFormat),
		StartTime:  other.StartTime,
		EndTime:    other.EndTime,
		Status:     other.Status.String(),
	}
}

// Suggest lists available resources that can hold attendees, smallest surplus
// first and ties by name. The excluded resource never appears.
func Suggest(candidates []resourceModel.Resource, attendees int, exclude string) []Suggestion {
	suggestions := []Suggestion{}

	for _, res := range candidates {
		if res.ID == exclude || !res.Bookable() || !res.Fits(attendees) {
			continue
		}

		suggestions = append(suggestions, Suggestion{
			ResourceID: res.ID,
			Name:       res.Name,
			Type:       string(res.Type),
			Capacity:   res.Capacity,
			Surplus:    res.Capacity - attendees,
		})
	}

	slices.SortFunc(suggestions, func(a, b Suggestion) int {
		return cmp.Or(cmp.Compare(a.Surplus, b.Surplus), strings.Compare(a.Name, b.Name))
	})

	return suggestions
}

// before compares calendar days only.
func before(date, today time.Time) bool {
	y1, m1, d1 := date.Date()
	y2, m2, d2 := today.Date()

	return time.Date(y1, m1, d1, 0, 0, 0, 0, time.UTC).Before(time.Date(y2, m2, d2, 0, 0, 0, 0, time.UTC))
}
