package dto

import (
	bookingModel "campusbook/internal/domains/booking/model"
)

type MostUsedResource struct {
	ResourceID string `json:"resource_id"`
	Name       string `json:"name"`
	Bookings   int    `json:"bookings"`
}

type StatsResponse struct {
	Total            int               `json:"total"`
	Pending          int               `json:"pending"`
	Approved         int               `json:"approved"`
	Rejected         int               `json:"rejected"`
	Cancelled        int               `json:"cancelled"`
	MostUsedResource *MostUsedResource `json:"most_used_resource"`
}

func (r *StatsResponse) FromModels(counts []bookingModel.StatusCount, usage bookingModel.ResourceUsage) {
	for _, count := range counts {
		r.Total += count.Total

		switch count.Status {
		case bookingModel.StatusPending:
			r.Pending = count.Total
		case bookingModel.StatusApproved:
			r.Approved = count.Total
		case bookingModel.StatusRejected:
			r.Rejected = count.Total
		case bookingModel.StatusCancelled:
			r.Cancelled = count.Total
		}
	}

	if usage.ResourceID != "" {
		r.MostUsedResource = &MostUsedResource{ResourceID: usage.ResourceID, Name: usage.Name, Bookings: usage.Total}
	}
}

type ExportRequest struct {
	From   string `json:"from"   validate:"omitempty,datetime=2006-01-02"`
	To     string `json:"to"     validate:"omitempty,datetime=2006-01-02"`
	Status string `json:"status" validate:"omitempty,oneof=pending approved rejected cancelled"`
}

type ExportResponse struct {
	URL       string `json:"url"`
	Key       string `json:"key"`
	Rows      int    `json:"rows"`
	ExpiresAt string `json:"expires_at"`
}
