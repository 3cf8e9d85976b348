package model

import (
	"campusbook/shared/model"
	"time"
)

const (
	TableName  = "bookings"
	EntityName = "booking"

	FieldID            = "id"
	FieldUserID        = "user_id"
	FieldResourceID    = "resource_id"
	FieldBookingDate   = "booking_date"
	FieldStartTime     = "start_time"
	FieldEndTime       = "end_time"
	FieldAttendeeCount = "attendee_count"
	FieldReason        = "reason"
	FieldStatus        = "status"
	FieldRemarks       = "remarks"
	FieldDecidedBy     = "decided_by"
	FieldDecidedAt     = "decided_at"
	FieldCancelledAt   = "cancelled_at"
	FieldCreatedAt     = "created_at"
)

type Booking struct {
	ID            string     `db:"id"`
	UserID        string     `db:"user_id"`
	ResourceID    string     `db:"resource_id"`
	BookingDate   time.Time  `db:"booking_date"`
	StartTime     Clock      `db:"start_time"`
	EndTime       Clock      `db:"end_time"`
	AttendeeCount int        `db:"attendee_count"`
	Reason        string     `db:"reason"`
	Status        Status     `db:"status"`
	Remarks       string     `db:"remarks"`
	DecidedBy     string     `db:"decided_by"`
	DecidedAt     *time.Time `db:"decided_at"`
	CancelledAt   *time.Time `db:"cancelled_at"`
	ResourceName  string     `column:"name"  db:"resource_name" table:"resources"`
	UserName      string     `column:"name"  db:"user_name"     table:"users"`
	UserEmail     string     `column:"email" db:"user_email"    table:"users"`
	model.Metadata
}

func (Booking) GetJoinQuery() string {
	return "JOIN resources ON resources.id = bookings.resource_id JOIN users ON users.id = bookings.user_id"
}

// Window is the reserved interval of a booking on its date.
func (b Booking) Window() Window {
	return Window{Date: b.BookingDate, Start: b.StartTime, End: b.EndTime}
}

func (b Booking) OwnedBy(userID string) bool {
	return userID != "" && b.UserID == userID
}
