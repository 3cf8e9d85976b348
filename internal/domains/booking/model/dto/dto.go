package dto

import (
	"campusbook/internal/domains/booking/model"
	"campusbook/internal/domains/booking/validation"
	"campusbook/shared"
	"campusbook/shared/constant"
	gDto "campusbook/shared/dto"
	"campusbook/shared/failure"
	gModel "campusbook/shared/model"
	"campusbook/shared/timezone"
	"errors"
	"time"

	"github.com/google/uuid"
)

type CreateBookingRequest struct {
	ResourceID    string `json:"resource_id"    validate:"required"`
	BookingDate   string `json:"booking_date"   validate:"required"`
	StartTime     string `json:"start_time"     validate:"required"`
	EndTime       string `json:"end_time"       validate:"required"`
	AttendeeCount int    `json:"attendee_count" validate:"required,min=1"`
	Reason        string `json:"reason"         validate:"required,max=500"`
}

// Window parses the date and times. A malformed value yields the violation to report.
func (c *CreateBookingRequest) Window() (model.Window, *validation.Violation) {
	return parseWindow(c.BookingDate, c.StartTime, c.EndTime)
}

func (c *CreateBookingRequest) ToModel(id, owner string, window model.Window, status model.Status, now time.Time) model.Booking {
	booking := model.Booking{
		ID:            id,
		UserID:        owner,
		ResourceID:    c.ResourceID,
		BookingDate:   window.Date,
		StartTime:     window.Start,
		EndTime:       window.End,
		AttendeeCount: c.AttendeeCount,
		Reason:        c.Reason,
		Status:        status,
		Metadata:      gModel.NewMetadata(now, owner),
	}

	if status == model.StatusApproved {
		booking.DecidedBy = owner
		booking.DecidedAt = &now
	}

	return booking
}

// NewBookingID returns a fresh booking identifier.
func NewBookingID() string {
	return uuid.NewString()
}

// UpdateBookingRequest holds the fields an owner may change. Empty fields keep
// their current value.
type UpdateBookingRequest struct {
	ResourceID    string `json:"resource_id"    validate:"omitempty"`
	BookingDate   string `json:"booking_date"   validate:"omitempty"`
	StartTime     string `json:"start_time"     validate:"omitempty"`
	EndTime       string `json:"end_time"       validate:"omitempty"`
	AttendeeCount *int   `json:"attendee_count" validate:"omitempty,min=1"`
	Reason        string `json:"reason"         validate:"omitempty,max=500"`
}

func (u *UpdateBookingRequest) IsEmpty() bool {
	return *u == (UpdateBookingRequest{})
}

// Apply overlays the request on current and returns the edited copy.
func (u *UpdateBookingRequest) Apply(current model.Booking) (model.Booking, *validation.Violation) {
	edited := current

	if u.ResourceID != constant.Empty {
		edited.ResourceID = u.ResourceID
	}

	if u.AttendeeCount != nil {
		edited.AttendeeCount = *u.AttendeeCount
	}

	if u.Reason != constant.Empty {
		edited.Reason = u.Reason
	}

	date := current.BookingDate.Format(constant.DayFormat)
	if u.BookingDate != constant.Empty {
		date = u.BookingDate
	}

	start := current.StartTime.String()
	if u.StartTime != constant.Empty {
		start = u.StartTime
	}

	end := current.EndTime.String()
	if u.EndTime != constant.Empty {
		end = u.EndTime
	}

	window, violation := parseWindow(date, start, end)
	if violation != nil {
		return current, violation
	}

	edited.BookingDate = window.Date
	edited.StartTime = window.Start
	edited.EndTime = window.End

	return edited, nil
}

// Fields lists the columns written by an edit.
func Fields(edited model.Booking, actor string, now time.Time) map[string]any {
	return map[string]any{
		model.FieldResourceID:    edited.ResourceID,
		model.FieldBookingDate:   edited.BookingDate,
		model.FieldStartTime:     edited.StartTime,
		model.FieldEndTime:       edited.EndTime,
		model.FieldAttendeeCount: edited.AttendeeCount,
		model.FieldReason:        edited.Reason,
		constant.FieldModifiedAt: now,
		constant.FieldModifiedBy: actor,
	}
}

type RejectBookingRequest struct {
	Remarks string `json:"remarks" validate:"required,max=500"`
}

type CancelBookingRequest struct {
	Remarks string `json:"remarks" validate:"omitempty,max=500"`
}

type BulkApproveRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,max=100,dive,required"`
}

type BookingResponse struct {
	ID            string      `json:"id"`
	UserID        string      `json:"user_id"`
	UserName      string      `json:"user_name,omitempty"`
	UserEmail     string      `json:"user_email,omitempty"`
	ResourceID    string      `json:"resource_id"`
	ResourceName  string      `json:"resource_name,omitempty"`
	BookingDate   string      `json:"booking_date"`
	StartTime     model.Clock `json:"start_time"`
	EndTime       model.Clock `json:"end_time"`
	AttendeeCount int         `json:"attendee_count"`
	Reason        string      `json:"reason"`
	Status        string      `json:"status"`
	Remarks       string      `json:"remarks,omitempty"`
	DecidedBy     string      `json:"decided_by,omitempty"`
	DecidedAt     *time.Time  `json:"decided_at,omitempty"`
	CancelledAt   *time.Time  `json:"cancelled_at,omitempty"`
	gDto.Metadata
}

func (r *BookingResponse) FromModel(model model.Booking) {
	r.ID = model.ID
	r.UserID = model.UserID
	r.UserName = model.UserName
	r.UserEmail = model.UserEmail
	r.ResourceID = model.ResourceID
	r.ResourceName = model.ResourceName
	r.BookingDate = model.BookingDate.Format(constant.DayFormat)
	r.StartTime = model.StartTime
	r.EndTime = model.EndTime
	r.AttendeeCount = model.AttendeeCount
	r.Reason = model.Reason
	r.Status = model.Status.String()
	r.Remarks = model.Remarks
	r.DecidedBy = model.DecidedBy
	r.DecidedAt = model.DecidedAt
	r.CancelledAt = model.CancelledAt
	r.Metadata.FromModel(model.Metadata)
}

type GetBookingsResponse struct {
	Bookings  []BookingResponse `json:"bookings"`
	TotalPage int               `json:"total_page"`
	TotalData int               `json:"total_data"`
}

func (r *GetBookingsResponse) FromModels(models []model.Booking, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Bookings = make([]BookingResponse, len(models))
	for i, mod := range models {
		r.Bookings[i].FromModel(mod)
	}
}

var errEmptyResult = errors.New("booking result carries no outcome")

const (
	OutcomeCreated = "created"
	OutcomeUpdated = "updated"
)

// BookingResult is the answer to a create or edit: either the stored booking or
// the validation outcome that prevented it.
type BookingResult struct {
	Outcome     string                  `json:"outcome"`
	Booking     *BookingResponse        `json:"booking,omitempty"`
	Violation   *validation.Violation   `json:"violation,omitempty"`
	Suggestions []validation.Suggestion `json:"suggestions,omitempty"`
	Conflict    *validation.Conflict    `json:"conflict,omitempty"`
	rejection   validation.Outcome
}

func Stored(outcome string, booking model.Booking) BookingResult {
	res := BookingResponse{}
	res.FromModel(booking)

	return BookingResult{Outcome: outcome, Booking: &res}
}

func Rejected(outcome validation.Outcome) BookingResult {
	return BookingResult{
		Outcome:     string(outcome.Kind),
		Violation:   outcome.Violation,
		Suggestions: outcome.Suggestions,
		Conflict:    outcome.Conflict,
		rejection:   outcome,
	}
}

func (r BookingResult) Accepted() bool {
	return r.Booking != nil
}

// Err is the failure to render for a rejected result, nil when accepted.
func (r BookingResult) Err() error {
	if r.Accepted() {
		return nil
	}

	if r.rejection.Kind == constant.Empty {
		return failure.InternalError(errEmptyResult) // nolint:wrapcheck
	}

	return r.rejection.Err() // nolint:wrapcheck
}

const (
	BulkItemApproved = "approved"
	BulkItemFailed   = "failed"
)

type BulkItemResult struct {
	ID      string `json:"id"`
	Result  string `json:"result"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message,omitempty"`
}

type BulkApproveResponse struct {
	Items    []BulkItemResult `json:"items"`
	Approved int              `json:"approved"`
	Failed   int              `json:"failed"`
}

func parseWindow(date, start, end string) (model.Window, *validation.Violation) {
	day, err := timezone.Parse(constant.DayFormat, date)
	if err != nil {
		return model.Window{}, &validation.Violation{Rule: validation.RuleDateFormat, Field: "booking_date"}
	}

	startClock, err := model.ParseClock(start)
	if err != nil {
		return model.Window{}, &validation.Violation{Rule: validation.RuleTimeFormat, Field: "start_time"}
	}

	endClock, err := model.ParseClock(end)
	if err != nil {
		return model.Window{}, &validation.Violation{Rule: validation.RuleTimeFormat, Field: "end_time"}
	}

	return model.Window{Date: day, Start: startClock, End: endClock}, nil
}
