package booking

import (
	"campusbook/infras/otel"
	"campusbook/internal/domains/booking/model"
	"campusbook/internal/domains/booking/model/dto"
	"campusbook/internal/domains/booking/service"
	"campusbook/shared/constant"
	gDto "campusbook/shared/dto"
	"campusbook/shared/failure"
	"campusbook/shared/session"
	"campusbook/shared/timezone"
	"campusbook/shared/validator"
	"campusbook/transport/http/response"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// sortColumns are the booking listing columns callers may sort by.
var sortColumns = gDto.SortColumns{
	model.FieldBookingDate:   model.TableName + "." + model.FieldBookingDate,
	model.FieldStartTime:     model.TableName + "." + model.FieldStartTime,
	model.FieldStatus:        model.TableName + "." + model.FieldStatus,
	model.FieldAttendeeCount: model.TableName + "." + model.FieldAttendeeCount,
	model.FieldCreatedAt:     model.TableName + "." + model.FieldCreatedAt,
}

type Handler struct {
	service service.Booking
	otel    otel.Otel
}

func New(service service.Booking, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/bookings", func(routerGroup chi.Router) {
		routerGroup.Post("/", handler.CreateBooking)
		routerGroup.Get("/", handler.GetBookings)
		routerGroup.Get("/mine", handler.GetMyBookings)
		routerGroup.Post("/approve", handler.BulkApprove)
		routerGroup.Get("/{id}", handler.GetBookingByID)
		routerGroup.Patch("/{id}", handler.UpdateBooking)
		routerGroup.Post("/{id}/approve", handler.ApproveBooking)
		routerGroup.Post("/{id}/reject", handler.RejectBooking)
		routerGroup.Post("/{id}/cancel", handler.CancelBooking)
	})

	router.Get("/users/{id}/bookings", handler.GetUserBookings)
}

func writeResult(w http.ResponseWriter, res dto.BookingResult, code int) {
	if !res.Accepted() {
		response.WithError(w, res.Err())

		return
	}

	response.WithJSON(w, code, res)
}

// CreateBooking requests a resource for a time range.
// @Summary Create a booking
// @Description Validates capacity and conflicts; the booking starts pending unless the caller may auto-approve.
// @Tags Booking
// @Accept json
// @Produce json
// @Param request body dto.CreateBookingRequest true "Create Booking Request"
// @Success 201 {object} response.Data[dto.BookingResult] "Booking created"
// @Failure 400 {object} response.Error
// @Failure 403 {object} response.Error
// @Failure 409 {object} response.Error "slot_conflict"
// @Failure 422 {object} response.Error "capacity_exceeded"
// @Router /v1/bookings [post]
// @Security BearerAuth
func (handler *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CreateBooking")
	defer scope.End()

	req := dto.CreateBookingRequest{}

	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	actor, _ := session.FromContext(ctx)

	res, err := handler.service.Create(ctx, actor, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to create booking")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Booking request finished with outcome " + res.Outcome)

	writeResult(w, res, http.StatusCreated)
}

// GetBookings lists bookings; callers without the view-all capability only see their own.
// @Summary Get bookings
// @Tags Booking
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Param status query string false "Filter by status"
// @Param resource_id query string false "Filter by resource"
// @Param date_from query string false "Earliest booking date (YYYY-MM-DD)"
// @Param date_to query string false "Latest booking date (YYYY-MM-DD)"
// @Success 200 {object} response.Data[dto.GetBookingsResponse] "List of bookings"
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings [get]
// @Security BearerAuth
func (handler *Handler) GetBookings(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetBookings")
	defer scope.End()

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(r, true)

	if err := queryParams.ResolveSort(sortColumns); err != nil {
		response.WithError(w, err)

		return
	}

	filterGroup, err := listFilter(r)
	if err != nil {
		scope.TraceError(err)

		response.WithError(w, err)

		return
	}

	actor, _ := session.FromContext(ctx)

	bookings, err := handler.service.GetAll(ctx, actor, queryParams, filterGroup)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get bookings")

		response.WithError(w, err)

		return
	}

	response.WithJSON(w, http.StatusOK, bookings)
}

// GetMyBookings lists the caller's own bookings.
// @Summary Get my bookings
// @Tags Booking
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Param status query string false "Filter by status"
// @Success 200 {object} response.Data[dto.GetBookingsResponse] "List of bookings"
// @Failure 401 {object} response.Error
// @Router /v1/bookings/mine [get]
// @Security BearerAuth
func (handler *Handler) GetMyBookings(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetMyBookings")
	defer scope.End()

	actor, _ := session.FromContext(ctx)
	handler.byUser(w, r, actor, actor.UserID)
}

// GetUserBookings lists the bookings of one user.
// @Summary Get a user's bookings
// @Tags Booking
// @Produce json
// @Param id path string true "User ID"
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Success 200 {object} response.Data[dto.GetBookingsResponse] "List of bookings"
// @Failure 403 {object} response.Error
// @Router /v1/users/{id}/bookings [get]
// @Security BearerAuth
func (handler *Handler) GetUserBookings(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetUserBookings")
	defer scope.End()

	actor, _ := session.FromContext(ctx)
	handler.byUser(w, r, actor, chi.URLParam(r, constant.RequestParamID))
}

func (handler *Handler) byUser(w http.ResponseWriter, r *http.Request, actor session.Actor, userID string) {
	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(r, true)

	if err := queryParams.ResolveSort(sortColumns); err != nil {
		response.WithError(w, err)

		return
	}

	filterGroup, err := listFilter(r)
	if err != nil {
		response.WithError(w, err)

		return
	}

	bookings, err := handler.service.GetByUser(r.Context(), actor, userID, queryParams, filterGroup)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("failed to get user bookings")

		response.WithError(w, err)

		return
	}

	response.WithJSON(w, http.StatusOK, bookings)
}

func listFilter(r *http.Request) (gDto.FilterGroup, error) {
	query := r.URL.Query()
	filterGroup := gDto.FilterGroup{Operator: gDto.FilterGroupOperatorAnd}

	if value := query.Get(model.FieldStatus); value != "" {
		status, err := model.ParseStatus(value)
		if err != nil {
			return filterGroup, failure.BadRequest(err) // nolint:wrapcheck
		}

		filterGroup.Filters = append(filterGroup.Filters, gDto.Filter{
			Field:    model.FieldStatus,
			Operator: gDto.FilterOperatorEq,
			Value:    status,
			Table:    model.TableName,
		})
	}

	if value := query.Get(model.FieldResourceID); value != "" {
		filterGroup.Filters = append(filterGroup.Filters, gDto.Filter{
			Field:    model.FieldResourceID,
			Operator: gDto.FilterOperatorEq,
			Value:    value,
			Table:    model.TableName,
		})
	}

	bounds := []struct {
		param    string
		operator string
	}{
		{"date_from", gDto.FilterOperatorGreaterEq},
		{"date_to", gDto.FilterOperatorLessEq},
	}

	for _, bound := range bounds {
		value := query.Get(bound.param)
		if value == "" {
			continue
		}

		if _, err := timezone.Parse(constant.DayFormat, value); err != nil {
			return filterGroup, failure.BadRequestFromString(bound.param + " must be formatted as YYYY-MM-DD") // nolint:wrapcheck
		}

		filterGroup.Filters = append(filterGroup.Filters, gDto.Filter{
			ArgName:  bound.param,
			Field:    model.FieldBookingDate,
			Operator: bound.operator,
			Value:    value,
			Table:    model.TableName,
		})
	}

	return filterGroup, nil
}

// GetBookingByID retrieves a booking visible to the caller.
// @Summary Get a booking by ID
// @Tags Booking
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Data[dto.BookingResponse] "Booking details"
// @Failure 404 {object} response.Error
// @Router /v1/bookings/{id} [get]
// @Security BearerAuth
func (handler *Handler) GetBookingByID(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetBookingByID")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)
	actor, _ := session.FromContext(ctx)

	booking, err := handler.service.Get(ctx, actor, id)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get booking by ID")

		response.WithError(w, err)

		return
	}

	response.WithJSON(w, http.StatusOK, booking)
}

// UpdateBooking edits a pending booking and re-validates it.
// @Summary Update a pending booking
// @Tags Booking
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param request body dto.UpdateBookingRequest true "Update Booking Request"
// @Success 200 {object} response.Data[dto.BookingResult] "Booking updated"
// @Failure 400 {object} response.Error
// @Failure 403 {object} response.Error
// @Failure 409 {object} response.Error
// @Failure 422 {object} response.Error
// @Router /v1/bookings/{id} [patch]
// @Security BearerAuth
func (handler *Handler) UpdateBooking(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".UpdateBooking")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)
	req := dto.UpdateBookingRequest{}

	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	actor, _ := session.FromContext(ctx)

	res, err := handler.service.Update(ctx, actor, req, id)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to update booking")

		response.WithError(w, err)

		return
	}

	writeResult(w, res, http.StatusOK)
}

// ApproveBooking approves a pending booking.
// @Summary Approve a booking
// @Tags Booking
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Data[dto.BookingResponse] "Booking approved"
// @Failure 403 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error "invalid_transition"
// @Router /v1/bookings/{id}/approve [post]
// @Security BearerAuth
func (handler *Handler) ApproveBooking(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".ApproveBooking")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)
	actor, _ := session.FromContext(ctx)

	booking, err := handler.service.Approve(ctx, actor, id)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Str("booking_id", id).Msg("failed to approve booking")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Booking approved by user " + actor.UserID)

	response.WithJSON(w, http.StatusOK, booking)
}

// RejectBooking rejects a pending booking with remarks.
// @Summary Reject a booking
// @Tags Booking
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param request body dto.RejectBookingRequest true "Reject Booking Request"
// @Success 200 {object} response.Data[dto.BookingResponse] "Booking rejected"
// @Failure 400 {object} response.Error
// @Failure 403 {object} response.Error
// @Failure 409 {object} response.Error "invalid_transition"
// @Router /v1/bookings/{id}/reject [post]
// @Security BearerAuth
func (handler *Handler) RejectBooking(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".RejectBooking")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)
	req := dto.RejectBookingRequest{}

	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	actor, _ := session.FromContext(ctx)

	booking, err := handler.service.Reject(ctx, actor, req, id)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Str("booking_id", id).Msg("failed to reject booking")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Booking rejected by user " + actor.UserID)

	response.WithJSON(w, http.StatusOK, booking)
}

// CancelBooking cancels a pending or approved booking; the body is optional.
// @Summary Cancel a booking
// @Tags Booking
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param request body dto.CancelBookingRequest false "Cancel Booking Request"
// @Success 200 {object} response.Data[dto.BookingResponse] "Booking cancelled"
// @Failure 403 {object} response.Error
// @Failure 409 {object} response.Error "invalid_transition"
// @Router /v1/bookings/{id}/cancel [post]
// @Security BearerAuth
func (handler *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CancelBooking")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)
	req := dto.CancelBookingRequest{}

	if r.ContentLength != 0 {
		if err := validator.Validate(r.Body, &req); err != nil {
			scope.TraceError(err)
			log.Error().Err(err).Msg("failed to validate request body")

			response.WithError(w, err)

			return
		}
	}

	actor, _ := session.FromContext(ctx)

	booking, err := handler.service.Cancel(ctx, actor, req, id)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Str("booking_id", id).Msg("failed to cancel booking")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Booking cancelled by user " + actor.UserID)

	response.WithJSON(w, http.StatusOK, booking)
}

// BulkApprove approves several bookings; each item succeeds or fails on its own.
// @Summary Approve bookings in bulk
// @Tags Booking
// @Accept json
// @Produce json
// @Param request body dto.BulkApproveRequest true "Bulk Approve Request"
// @Success 200 {object} response.Data[dto.BulkApproveResponse] "Per-item results"
// @Failure 400 {object} response.Error
// @Failure 403 {object} response.Error
// @Router /v1/bookings/approve [post]
// @Security BearerAuth
func (handler *Handler) BulkApprove(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".BulkApprove")
	defer scope.End()

	req := dto.BulkApproveRequest{}

	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	actor, _ := session.FromContext(ctx)

	res, err := handler.service.BulkApprove(ctx, actor, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to approve bookings")

		response.WithError(w, err)

		return
	}

	response.WithJSON(w, http.StatusOK, res)
}
