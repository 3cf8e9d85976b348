package report

import (
	"campusbook/infras/otel"
	"campusbook/internal/domains/report/model/dto"
	"campusbook/internal/domains/report/service"
	"campusbook/shared/constant"
	"campusbook/shared/session"
	"campusbook/shared/validator"
	"campusbook/transport/http/response"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

type Handler struct {
	service service.Report
	otel    otel.Otel
}

func New(service service.Report, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/reports", func(routerGroup chi.Router) {
		routerGroup.Get("/stats", handler.GetStats)
		routerGroup.Post("/export", handler.Export)
	})
}

// GetStats returns booking totals per status and the most used resource.
// @Summary Booking statistics
// @Tags Report
// @Produce json
// @Success 200 {object} response.Data[dto.StatsResponse] "Statistics"
// @Failure 403 {object} response.Error
// @Router /v1/reports/stats [get]
// @Security BearerAuth
func (handler *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetStats")
	defer scope.End()

	actor, _ := session.FromContext(ctx)

	stats, err := handler.service.Stats(ctx, actor)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get booking stats")

		response.WithError(w, err)

		return
	}

	response.WithJSON(w, http.StatusOK, stats)
}

// Export writes bookings to a CSV file in object storage.
// @Summary Export bookings
// @Tags Report
// @Accept json
// @Produce json
// @Param request body dto.ExportRequest true "Export Request"
// @Success 201 {object} response.Data[dto.ExportResponse] "Download link"
// @Failure 400 {object} response.Error
// @Failure 403 {object} response.Error
// @Router /v1/reports/export [post]
// @Security BearerAuth
func (handler *Handler) Export(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".Export")
	defer scope.End()

	req := dto.ExportRequest{}

	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	actor, _ := session.FromContext(ctx)

	res, err := handler.service.Export(ctx, actor, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to export bookings")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Bookings exported by user " + actor.UserID)

	response.WithJSON(w, http.StatusCreated, res)
}
