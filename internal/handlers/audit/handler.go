package audit

import (
	"campusbook/infras/otel"
	"campusbook/internal/domains/audit/model"
	"campusbook/internal/domains/audit/service"
	"campusbook/shared/constant"
	gDto "campusbook/shared/dto"
	"campusbook/shared/session"
	"campusbook/transport/http/response"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

var sortColumns = gDto.SortColumns{
	model.FieldOccurredAt: model.TableName + "." + model.FieldOccurredAt,
	model.FieldAction:     model.TableName + "." + model.FieldAction,
}

type Handler struct {
	service service.AuditLog
	otel    otel.Otel
}

func New(service service.AuditLog, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Get("/audit-logs", handler.GetAuditLogs)
}

// GetAuditLogs lists recorded booking transitions, newest first by default.
// @Summary Get audit logs
// @Tags Audit
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Param booking_id query string false "Filter by booking"
// @Param actor_id query string false "Filter by actor"
// @Param action query string false "Filter by action"
// @Success 200 {object} response.Data[dto.GetAuditLogsResponse] "List of audit logs"
// @Failure 403 {object} response.Error
// @Router /v1/audit-logs [get]
// @Security BearerAuth
func (handler *Handler) GetAuditLogs(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetAuditLogs")
	defer scope.End()

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(r, true)

	if err := queryParams.ResolveSort(sortColumns); err != nil {
		response.WithError(w, err)

		return
	}

	if queryParams.SortBy == "" {
		queryParams.SortBy = model.TableName + "." + model.FieldOccurredAt
		queryParams.SortDir = gDto.SortDirDesc
	}

	query := r.URL.Query()
	filterGroup := gDto.FilterGroup{Operator: gDto.FilterGroupOperatorAnd}

	for _, field := range []string{model.FieldBookingID, model.FieldActorID, model.FieldAction} {
		if value := query.Get(field); value != "" {
			filterGroup.Filters = append(filterGroup.Filters, gDto.Filter{
				Field:    field,
				Operator: gDto.FilterOperatorEq,
				Value:    value,
				Table:    model.TableName,
			})
		}
	}

	actor, _ := session.FromContext(ctx)

	logs, err := handler.service.GetAll(ctx, actor, queryParams, filterGroup)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get audit logs")

		response.WithError(w, err)

		return
	}

	response.WithJSON(w, http.StatusOK, logs)
}
