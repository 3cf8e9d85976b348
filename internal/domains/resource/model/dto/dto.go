package dto

import (
	bookingModel "campusbook/internal/domains/booking/model"
	"campusbook/internal/domains/resource/model"
	"campusbook/shared"
	"campusbook/shared/constant"
	gDto "campusbook/shared/dto"
	gModel "campusbook/shared/model"
	"campusbook/shared/timezone"
	"fmt"

	"github.com/google/uuid"
)

type CreateResourceRequest struct {
	Name     string `json:"name"     validate:"required,max=100"`
	Type     string `json:"type"     validate:"required,oneof=lab classroom event_hall computer"`
	Location string `json:"location" validate:"omitempty,max=100"`
	Capacity int    `json:"capacity" validate:"required,min=1"`
	Status   string `json:"status"   validate:"omitempty,oneof=available maintenance blocked"`
}

func (c *CreateResourceRequest) ToModel(user string) model.Resource {
	status := model.StatusAvailable
	if c.Status != "" {
		status = model.Status(c.Status)
	}

	return model.Resource{
		ID:       uuid.NewString(),
		Name:     c.Name,
		Type:     model.Type(c.Type),
		Location: c.Location,
		Capacity: c.Capacity,
		Status:   status,
		Metadata: gModel.NewMetadata(timezone.Now(), user),
	}
}

type UpdateResourceRequest struct {
	Name     string `db:"name"     json:"name"     validate:"omitempty,max=100"`
	Type     string `db:"type"     json:"type"     validate:"omitempty,oneof=lab classroom event_hall computer"`
	Location string `db:"location" json:"location" validate:"omitempty,max=100"`
	Capacity *int   `db:"capacity" json:"capacity" validate:"omitempty,min=1"`
}

type SetResourceStatusRequest struct {
	Status string `db:"status" json:"status" validate:"required,oneof=available maintenance blocked"`
}

type ResourceResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Location string `json:"location"`
	Capacity int    `json:"capacity"`
	Status   string `json:"status"`
	gDto.Metadata
}

func (r *ResourceResponse) FromModel(model model.Resource) {
	r.ID = model.ID
	r.Name = model.Name
	r.Type = string(model.Type)
	r.Location = model.Location
	r.Capacity = model.Capacity
	r.Status = string(model.Status)
	r.Metadata.FromModel(model.Metadata)
}

type GetResourcesResponse struct {
	Resources []ResourceResponse `json:"resources"`
	TotalPage int                `json:"total_page"`
	TotalData int                `json:"total_data"`
}

func (r *GetResourcesResponse) FromModels(models []model.Resource, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Resources = make([]ResourceResponse, len(models))
	for i, mod := range models {
		r.Resources[i].FromModel(mod)
	}
}

// AvailabilityQuery is the time range asked about on the availability endpoint.
type AvailabilityQuery struct {
	Date      string `json:"date"       validate:"required,datetime=2006-01-02"`
	StartTime string `json:"start_time" validate:"required,clock"`
	EndTime   string `json:"end_time"   validate:"required,clock"`
}

// Window converts a validated query into a booking window.
func (q *AvailabilityQuery) Window() (bookingModel.Window, error) {
	date, err := timezone.Parse(constant.DayFormat, q.Date)
	if err != nil {
		return bookingModel.Window{}, fmt.Errorf("failed to parse date: %w", err)
	}

	start, err := bookingModel.ParseClock(q.StartTime)
	if err != nil {
		return bookingModel.Window{}, fmt.Errorf("failed to parse start time: %w", err)
	}

	end, err := bookingModel.ParseClock(q.EndTime)
	if err != nil {
		return bookingModel.Window{}, fmt.Errorf("failed to parse end time: %w", err)
	}

	return bookingModel.Window{Date: date, Start: start, End: end}, nil
}
