package dto

import (
	"campusbook/internal/domains/audit/model"
	"campusbook/shared"
	"campusbook/shared/constant"
	"campusbook/shared/timezone"
)

type AuditLogResponse struct {
	ID         string `json:"id"`
	BookingID  string `json:"booking_id"`
	ResourceID string `json:"resource_id"`
	OwnerID    string `json:"owner_id"`
	ActorID    string `json:"actor_id"`
	ActorRole  string `json:"actor_role"`
	Action     string `json:"action"`
	FromStatus string `json:"from_status,omitempty"`
	ToStatus   string `json:"to_status"`
	Remarks    string `json:"remarks,omitempty"`
	OccurredAt string `json:"occurred_at"`
}

func (r *AuditLogResponse) FromModel(model model.AuditLog) {
	r.ID = model.ID
	r.BookingID = model.BookingID
	r.ResourceID = model.ResourceID
	r.OwnerID = model.OwnerID
	r.ActorID = model.ActorID
	r.ActorRole = model.ActorRole
	r.Action = model.Action
	r.FromStatus = model.FromStatus
	r.ToStatus = model.ToStatus
	r.Remarks = model.Remarks
	r.OccurredAt = timezone.Format(model.OccurredAt, constant.DateFormat)
}

type GetAuditLogsResponse struct {
	AuditLogs []AuditLogResponse `json:"audit_logs"`
	TotalPage int                `json:"total_page"`
	TotalData int                `json:"total_data"`
}

func (r *GetAuditLogsResponse) FromModels(models []model.AuditLog, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.AuditLogs = make([]AuditLogResponse, len(models))
	for i, mod := range models {
		r.AuditLogs[i].FromModel(mod)
	}
}
