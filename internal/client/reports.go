package client

import (
	auditDto "campusbook/internal/domains/audit/model/dto"
	"campusbook/internal/domains/policy"
	"campusbook/internal/domains/report/model/dto"
	"campusbook/shared/validator"
	"context"
	"net/http"
)

func (c *Client) Stats(ctx context.Context, sess *Session) (dto.StatsResponse, error) {
	if err := sess.require(policy.ViewReports); err != nil {
		return dto.StatsResponse{}, err
	}

	return call[dto.StatsResponse](ctx, c, sess, request{method: http.MethodGet, path: "/reports/stats"})
}

// Export asks the server for a CSV of bookings and returns where to download it.
func (c *Client) Export(ctx context.Context, sess *Session, req dto.ExportRequest) (dto.ExportResponse, error) {
	if err := sess.require(policy.ViewReports); err != nil {
		return dto.ExportResponse{}, err
	}

	if err := validator.ValidateStruct(&req); err != nil {
		return dto.ExportResponse{}, err // nolint:wrapcheck
	}

	return call[dto.ExportResponse](ctx, c, sess, request{method: http.MethodPost, path: "/reports/export", body: req})
}

func (c *Client) AuditLog(ctx context.Context, sess *Session, opts ListOptions) (auditDto.GetAuditLogsResponse, error) {
	if err := sess.require(policy.ViewAuditLog); err != nil {
		return auditDto.GetAuditLogsResponse{}, err
	}

	return call[auditDto.GetAuditLogsResponse](ctx, c, sess, request{method: http.MethodGet, path: "/audit-logs", query: opts.values()})
}
