package model

import (
	bookingModel "campusbook/internal/domains/booking/model"
	"time"
)

const (
	TableName  = "audit_logs"
	EntityName = "audit_log"

	FieldID         = "id"
	FieldBookingID  = "booking_id"
	FieldActorID    = "actor_id"
	FieldAction     = "action"
	FieldOccurredAt = "occurred_at"
)

// AuditLog is the persisted trail of one booking lifecycle event.
type AuditLog struct {
	ID         string    `db:"id"`
	BookingID  string    `db:"booking_id"`
	ResourceID string    `db:"resource_id"`
	OwnerID    string    `db:"owner_id"`
	ActorID    string    `db:"actor_id"`
	ActorRole  string    `db:"actor_role"`
	Action     string    `db:"action"`
	FromStatus string    `db:"from_status"`
	ToStatus   string    `db:"to_status"`
	Remarks    string    `db:"remarks"`
	OccurredAt time.Time `db:"occurred_at"`
	CreatedAt  time.Time `db:"created_at"`
}

func FromEvent(event bookingModel.Event, now time.Time) AuditLog {
	return AuditLog{
		ID:         event.ID,
		BookingID:  event.BookingID,
		ResourceID: event.ResourceID,
		OwnerID:    event.OwnerID,
		ActorID:    event.ActorID,
		ActorRole:  event.ActorRole,
		Action:     string(event.Action),
		FromStatus: event.From.String(),
		ToStatus:   event.To.String(),
		Remarks:    event.Remarks,
		OccurredAt: event.OccurredAt,
		CreatedAt:  now,
	}
}
