package resource

import (
	"campusbook/infras/otel"
	bookingModel "campusbook/internal/domains/booking/model"
	"campusbook/internal/domains/booking/validation"
	"campusbook/internal/domains/resource/model"
	"campusbook/internal/domains/resource/model/dto"
	"campusbook/internal/domains/resource/service"
	"campusbook/shared"
	"campusbook/shared/constant"
	gDto "campusbook/shared/dto"
	"campusbook/shared/failure"
	"campusbook/shared/session"
	"campusbook/shared/validator"
	"campusbook/transport/http/response"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

var sortColumns = gDto.SortColumns{
	model.FieldName:         model.TableName + "." + model.FieldName,
	model.FieldType:         model.TableName + "." + model.FieldType,
	model.FieldLocation:     model.TableName + "." + model.FieldLocation,
	model.FieldCapacity:     model.TableName + "." + model.FieldCapacity,
	model.FieldStatus:       model.TableName + "." + model.FieldStatus,
	constant.FieldCreatedAt: model.TableName + "." + constant.FieldCreatedAt,
}

type Handler struct {
	service   service.Resource
	validator validation.Validator
	otel      otel.Otel
}

func New(service service.Resource, validator validation.Validator, otel otel.Otel) Handler {
	return Handler{
		service:   service,
		validator: validator,
		otel:      otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/resources", func(routerGroup chi.Router) {
		routerGroup.Post("/", handler.CreateResource)
		routerGroup.Get("/", handler.GetResources)
		routerGroup.Get("/suggestions", handler.GetSuggestions)
		routerGroup.Get("/{id}", handler.GetResourceByID)
		routerGroup.Get("/{id}/availability", handler.GetAvailability)
		routerGroup.Patch("/{id}", handler.UpdateResource)
		routerGroup.Patch("/{id}/status", handler.SetResourceStatus)
		routerGroup.Delete("/{id}", handler.DeleteResource)
	})
}

// CreateResource handles the creation of a new bookable resource.
// @Summary Create a new resource
// @Description Register a lab, classroom, event hall or computer that can be booked.
// @Tags Resource
// @Accept json
// @Produce json
// @Param request body dto.CreateResourceRequest true "Create Resource Request"
// @Success 201 {object} response.Data[dto.ResourceResponse] "Resource created successfully"
// @Failure 400 {object} response.Error
// @Failure 403 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/resources [post]
// @Security BearerAuth
func (handler *Handler) CreateResource(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CreateResource")
	defer scope.End()

	req := dto.CreateResourceRequest{}

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
		log.Error().Err(err).Msg("failed to create resource")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Resource created successfully by user " + actor.UserID)

	response.WithJSON(w, http.StatusCreated, res)
}

// GetResources retrieves resources visible to the caller.
// @Summary Get all resources
// @Description Students only see available resources; staff and admins see all of them.
// @Tags Resource
// @Accept json
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Param name query string false "Filter by name"
// @Param type query string false "Filter by type"
// @Param location query string false "Filter by location"
// @Param status query string false "Filter by status"
// @Param min_capacity query integer false "Minimum capacity"
// @Success 200 {object} response.Data[dto.GetResourcesResponse] "List of resources"
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/resources [get]
// @Security BearerAuth
func (handler *Handler) GetResources(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetResources")
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

	resources, err := handler.service.GetAll(ctx, actor, queryParams, filterGroup)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get resources")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Resources retrieved successfully")

	response.WithJSON(w, http.StatusOK, resources)
}

func listFilter(r *http.Request) (gDto.FilterGroup, error) {
	query := r.URL.Query()
	filterGroup := gDto.FilterGroup{Operator: gDto.FilterGroupOperatorAnd}

	for _, field := range []string{model.FieldName, model.FieldLocation} {
		if value := query.Get(field); value != "" {
			filterGroup.Filters = append(filterGroup.Filters, gDto.Filter{
				Field:    field,
				Operator: gDto.FilterOperatorLike,
				Value:    value,
				Table:    model.TableName,
			})
		}
	}

	for _, field := range []string{model.FieldType, model.FieldStatus} {
		if value := query.Get(field); value != "" {
			filterGroup.Filters = append(filterGroup.Filters, gDto.Filter{
				Field:    field,
				Operator: gDto.FilterOperatorEq,
				Value:    value,
				Table:    model.TableName,
			})
		}
	}

	if value := query.Get("min_capacity"); value != "" {
		capacity, err := shared.ConvertStringToInt(value)
		if err != nil || capacity < 0 {
			return filterGroup, failure.BadRequestFromString("min_capacity must be a non-negative integer") // nolint:wrapcheck
		}

		filterGroup.Filters = append(filterGroup.Filters, gDto.Filter{
			ArgName:  "min_capacity",
			Field:    model.FieldCapacity,
			Operator: gDto.FilterOperatorGreaterEq,
			Value:    capacity,
			Table:    model.TableName,
		})
	}

	return filterGroup, nil
}

// GetSuggestions lists available resources that can hold the given number of attendees.
// @Summary Suggest alternative resources
// @Description Available resources with enough capacity, tightest fit first.
// @Tags Resource
// @Produce json
// @Param attendees query integer true "Attendee count"
// @Param exclude query string false "Resource ID to leave out"
// @Success 200 {object} response.Data[[]validation.Suggestion] "Suggested resources"
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/resources/suggestions [get]
// @Security BearerAuth
func (handler *Handler) GetSuggestions(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetSuggestions")
	defer scope.End()

	attendees, err := shared.ConvertStringToInt(r.URL.Query().Get("attendees"))
	if err != nil || attendees < 1 {
		err = failure.BadRequestFromString("attendees must be a positive integer")
		scope.TraceError(err)

		response.WithError(w, err)

		return
	}

	suggestions, err := handler.validator.Suggest(ctx, attendees, r.URL.Query().Get("exclude"))
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to suggest resources")

		response.WithError(w, err)

		return
	}

	response.WithJSON(w, http.StatusOK, suggestions)
}

// GetResourceByID retrieves a resource by its ID.
// @Summary Get a resource by ID
// @Tags Resource
// @Produce json
// @Param id path string true "Resource ID"
// @Success 200 {object} response.Data[dto.ResourceResponse] "Resource details"
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/resources/{id} [get]
// @Security BearerAuth
func (handler *Handler) GetResourceByID(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetResourceByID")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	resource, err := handler.service.Get(ctx, id)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get resource by ID")

		response.WithError(w, err)

		return
	}

	response.WithJSON(w, http.StatusOK, resource)
}

// GetAvailability reports whether a resource is free for a time range.
// @Summary Check resource availability
// @Description Lists reservations overlapping the requested range on the given date.
// @Tags Resource
// @Produce json
// @Param id path string true "Resource ID"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Param start_time query string true "Start time (HH:MM)"
// @Param end_time query string true "End time (HH:MM)"
// @Success 200 {object} response.Data[validation.Availability] "Availability"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Router /v1/resources/{id}/availability [get]
// @Security BearerAuth
func (handler *Handler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetAvailability")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	window, err := windowFromQuery(r)
	if err != nil {
		scope.TraceError(err)

		response.WithError(w, err)

		return
	}

	availability, err := handler.validator.Availability(ctx, id, window)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to check availability")

		response.WithError(w, err)

		return
	}

	response.WithJSON(w, http.StatusOK, availability)
}

func windowFromQuery(r *http.Request) (bookingModel.Window, error) {
	query := r.URL.Query()
	req := dto.AvailabilityQuery{
		Date:      query.Get("date"),
		StartTime: query.Get("start_time"),
		EndTime:   query.Get("end_time"),
	}

	if err := validator.ValidateStruct(&req); err != nil {
		return bookingModel.Window{}, err // nolint:wrapcheck
	}

	window, err := req.Window()
	if err != nil {
		return bookingModel.Window{}, failure.BadRequest(err) // nolint:wrapcheck
	}

	return window, nil
}

// UpdateResource updates the descriptive fields of a resource.
// @Summary Update a resource by ID
// @Tags Resource
// @Accept json
// @Produce json
// @Param id path string true "Resource ID"
// @Param request body dto.UpdateResourceRequest true "Update Resource Request"
// @Success 200 {object} response.Message "Resource updated successfully"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/resources/{id} [patch]
// @Security BearerAuth
func (handler *Handler) UpdateResource(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".UpdateResource")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)
	req := dto.UpdateResourceRequest{}

	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	actor, _ := session.FromContext(ctx)

	if err := handler.service.Update(ctx, actor, req, id); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to update resource")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Resource updated successfully by user " + actor.UserID)

	response.WithMessage(w, http.StatusOK, "Resource updated successfully")
}

// SetResourceStatus marks a resource available, under maintenance or blocked.
// @Summary Change resource availability
// @Tags Resource
// @Accept json
// @Produce json
// @Param id path string true "Resource ID"
// @Param request body dto.SetResourceStatusRequest true "Status Request"
// @Success 200 {object} response.Message "Resource status updated successfully"
// @Failure 400 {object} response.Error
// @Failure 403 {object} response.Error
// @Failure 404 {object} response.Error
// @Router /v1/resources/{id}/status [patch]
// @Security BearerAuth
func (handler *Handler) SetResourceStatus(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".SetResourceStatus")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)
	req := dto.SetResourceStatusRequest{}

	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	actor, _ := session.FromContext(ctx)

	if err := handler.service.SetStatus(ctx, actor, req, id); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to set resource status")

		response.WithError(w, err)

		return
	}

	response.WithMessage(w, http.StatusOK, "Resource status updated successfully")
}

// DeleteResource deletes a resource and, with it, its bookings.
// @Summary Delete a resource by ID
// @Tags Resource
// @Produce json
// @Param id path string true "Resource ID"
// @Success 200 {object} response.Message "Resource deleted successfully"
// @Failure 403 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/resources/{id} [delete]
// @Security BearerAuth
func (handler *Handler) DeleteResource(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".DeleteResource")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)
	actor, _ := session.FromContext(ctx)

	if err := handler.service.Delete(ctx, actor, id); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to delete resource")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Resource deleted successfully by user " + actor.UserID)

	response.WithMessage(w, http.StatusOK, "Resource deleted successfully")
}
