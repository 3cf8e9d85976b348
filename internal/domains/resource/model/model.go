package model

import "campusbook/shared/model"

const (
	TableName  = "resources"
	EntityName = "resource"

	FieldID       = "id"
	FieldName     = "name"
	FieldType     = "type"
	FieldLocation = "location"
	FieldCapacity = "capacity"
	FieldStatus   = "status"
)

type Type string

const (
	TypeLab       Type = "lab"
	TypeClassroom Type = "classroom"
	TypeEventHall Type = "event_hall"
	TypeComputer  Type = "computer"
)

type Status string

const (
	StatusAvailable   Status = "available"
	StatusMaintenance Status = "maintenance"
	StatusBlocked     Status = "blocked"
)

type Resource struct {
	ID       string `db:"id"`
	Name     string `db:"name"`
	Type     Type   `db:"type"`
	Location string `db:"location"`
	Capacity int    `db:"capacity"`
	Status   Status `db:"status"`
	model.Metadata
}

// Bookable reports whether new bookings may be placed on the resource.
func (r Resource) Bookable() bool {
	return r.Status == StatusAvailable
}

// Fits reports whether attendees fit within capacity.
func (r Resource) Fits(attendees int) bool {
	return attendees > 0 && attendees <= r.Capacity
}
