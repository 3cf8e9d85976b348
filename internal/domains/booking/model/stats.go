package model

// StatusCount is the number of bookings in one status.
type StatusCount struct {
	Status Status `db:"status"`
	Total  int    `db:"total"`
}

// ResourceUsage counts reserving bookings placed on a resource.
type ResourceUsage struct {
	ResourceID string `db:"resource_id"`
	Name       string `db:"name"`
	Total      int    `db:"total"`
}
