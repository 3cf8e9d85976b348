package dto_test

import (
	"campusbook/internal/domains/booking/model"
	"campusbook/internal/domains/booking/model/dto"
	"campusbook/internal/domains/booking/validation"
	"campusbook/shared/failure"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pending() model.Booking {
	return model.Booking{
		ID:            "b-1",
		UserID:        "student-1",
		ResourceID:    "r-1",
		BookingDate:   time.Date(2030, time.January, 15, 0, 0, 0, 0, time.UTC),
		StartTime:     model.NewClock(10, 0),
		EndTime:       model.NewClock(11, 0),
		AttendeeCount: 10,
		Reason:        "study group",
		Status:        model.StatusPending,
	}
}

func TestCreateBookingRequest_Window(t *testing.T) {
	tests := []struct {
		name  string
		req   dto.CreateBookingRequest
		rule  string
		field string
	}{
		{"bad date", dto.CreateBookingRequest{BookingDate: "15/01/2030", StartTime: "10:00", EndTime: "11:00"}, validation.RuleDateFormat, "booking_date"},
		{"bad start", dto.CreateBookingRequest{BookingDate: "2030-01-15", StartTime: "ten", EndTime: "11:00"}, validation.RuleTimeFormat, "start_time"},
		{"bad end", dto.CreateBookingRequest{BookingDate: "2030-01-15", StartTime: "10:00", EndTime: "24:30"}, validation.RuleTimeFormat, "end_time"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, violation := tt.req.Window()

			require.NotNil(t, violation)
			assert.Equal(t, tt.rule, violation.Rule)
			assert.Equal(t, tt.field, violation.Field)
		})
	}

	t.Run("valid", func(t *testing.T) {
		req := dto.CreateBookingRequest{BookingDate: "2030-01-15", StartTime: "10:00", EndTime: "11:30:00"}

		window, violation := req.Window()

		assert.Nil(t, violation)
		assert.Equal(t, 15, window.Date.Day())
		assert.Equal(t, model.NewClock(10, 0), window.Start)
		assert.Equal(t, model.NewClock(11, 30), window.End)
	})
}

func TestCreateBookingRequest_ToModel(t *testing.T) {
	req := dto.CreateBookingRequest{ResourceID: "r-1", AttendeeCount: 5, Reason: "lab session"}
	window := pending().Window()
	now := time.Date(2029, time.December, 1, 8, 0, 0, 0, time.UTC)

	t.Run("pending has no decision", func(t *testing.T) {
		booking := req.ToModel("b-1", "staff-1", window, model.StatusPending, now)

		assert.Equal(t, model.StatusPending, booking.Status)
		assert.Empty(t, booking.DecidedBy)
		assert.Nil(t, booking.DecidedAt)
		assert.Equal(t, "staff-1", booking.CreatedBy)
	})

	t.Run("auto approved is decided by the creator", func(t *testing.T) {
		booking := req.ToModel("b-1", "staff-1", window, model.StatusApproved, now)

		assert.Equal(t, "staff-1", booking.DecidedBy)
		require.NotNil(t, booking.DecidedAt)
		assert.Equal(t, now, *booking.DecidedAt)
	})
}

func TestUpdateBookingRequest_Apply(t *testing.T) {
	t.Run("keeps unset fields", func(t *testing.T) {
		req := dto.UpdateBookingRequest{Reason: "exam prep"}

		edited, violation := req.Apply(pending())

		assert.Nil(t, violation)
		assert.Equal(t, "exam prep", edited.Reason)
		assert.Equal(t, "r-1", edited.ResourceID)
		assert.Equal(t, 10, edited.AttendeeCount)
		assert.Equal(t, model.NewClock(10, 0), edited.StartTime)
		assert.Equal(t, model.NewClock(11, 0), edited.EndTime)
		assert.Equal(t, 15, edited.BookingDate.Day())
	})

	t.Run("moves the window", func(t *testing.T) {
		attendees := 12
		req := dto.UpdateBookingRequest{BookingDate: "2030-01-16", EndTime: "12:00", AttendeeCount: &attendees}

		edited, violation := req.Apply(pending())

		assert.Nil(t, violation)
		assert.Equal(t, 16, edited.BookingDate.Day())
		assert.Equal(t, model.NewClock(10, 0), edited.StartTime)
		assert.Equal(t, model.NewClock(12, 0), edited.EndTime)
		assert.Equal(t, 12, edited.AttendeeCount)
	})

	t.Run("malformed time leaves the booking unchanged", func(t *testing.T) {
		req := dto.UpdateBookingRequest{StartTime: "noon"}
		current := pending()

		edited, violation := req.Apply(current)

		require.NotNil(t, violation)
		assert.Equal(t, validation.RuleTimeFormat, violation.Rule)
		assert.Equal(t, current, edited)
	})

	t.Run("empty request", func(t *testing.T) {
		assert.True(t, (&dto.UpdateBookingRequest{}).IsEmpty())
		assert.False(t, (&dto.UpdateBookingRequest{Reason: "x"}).IsEmpty())
	})
}

func TestBookingResult(t *testing.T) {
	t.Run("stored", func(t *testing.T) {
		res := dto.Stored(dto.OutcomeCreated, pending())

		assert.True(t, res.Accepted())
		assert.NoError(t, res.Err())
		assert.Equal(t, "2030-01-15", res.Booking.BookingDate)
		assert.Equal(t, "pending", res.Booking.Status)
	})

	t.Run("rejected keeps the outcome payload", func(t *testing.T) {
		res := dto.Rejected(validation.OverCapacity([]validation.Suggestion{{ResourceID: "r-2", Name: "R2"}}))

		assert.False(t, res.Accepted())
		assert.Equal(t, string(validation.KindCapacityExceeded), res.Outcome)
		assert.Len(t, res.Suggestions, 1)
		assert.True(t, failure.Is(res.Err(), failure.KindCapacityExceeded))
	})

	t.Run("zero value is an internal error", func(t *testing.T) {
		assert.True(t, failure.Is(dto.BookingResult{}.Err(), failure.KindInternal))
	})
}
