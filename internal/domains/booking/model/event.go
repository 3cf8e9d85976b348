package model

import "time"

type Action string

const (
	ActionCreated   Action = "created"
	ActionUpdated   Action = "updated"
	ActionApproved  Action = "approved"
	ActionRejected  Action = "rejected"
	ActionCancelled Action = "cancelled"
)

// Event records one committed lifecycle change. From is empty on creation.
type Event struct {
	ID         string    `json:"id"`
	BookingID  string    `json:"booking_id"`
	ResourceID string    `json:"resource_id"`
	OwnerID    string    `json:"owner_id"`
	ActorID    string    `json:"actor_id"`
	ActorRole  string    `json:"actor_role"`
	Action     Action    `json:"action"`
	From       Status    `json:"from,omitempty"`
	To         Status    `json:"to"`
	Remarks    string    `json:"remarks,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ActionFor maps a target status to the action that produced it.
func ActionFor(target Status) Action {
	switch target {
	case StatusApproved:
		return ActionApproved
	case StatusRejected:
		return ActionRejected
	case StatusCancelled:
		return ActionCancelled
	default:
		return ActionUpdated
	}
}
