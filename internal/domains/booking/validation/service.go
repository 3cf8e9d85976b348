package validation

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=./mocks/service_mock.go -package=mocks

import (
	"campusbook/infras/otel"
	"campusbook/internal/domains/booking/model"
	bookingRepo "campusbook/internal/domains/booking/repository"
	resourceModel "campusbook/internal/domains/resource/model"
	resourceRepo "campusbook/internal/domains/resource/repository"
	"campusbook/shared"
	"campusbook/shared/constant"
	gDto "campusbook/shared/dto"
	"campusbook/shared/failure"
	"campusbook/shared/timezone"
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// Availability answers whether a slot on a resource is free, listing what holds it otherwise.
type Availability struct {
	ResourceID string     `json:"resource_id"`
	Date       string     `json:"date"`
	Available  bool       `json:"available"`
	Reserved   []Conflict `json:"reserved"`
}

type Validator interface {
	Validate(ctx context.Context, req Request) (Outcome, error)
	Suggest(ctx context.Context, attendees int, exclude string) ([]Suggestion, error)
	Availability(ctx context.Context, resourceID string, window model.Window) (Availability, error)
}

type validatorImpl struct {
	bookings  bookingRepo.Booking
	resources resourceRepo.Resource
	otel      otel.Otel
	now       func() time.Time
}

func New(bookings bookingRepo.Booking, resources resourceRepo.Resource, otel otel.Otel) Validator {
	return &validatorImpl{
		bookings:  bookings,
		resources: resources,
		otel:      otel,
		now:       timezone.Now,
	}
}

// NewWithClock is New with a fixed notion of today.
func NewWithClock(bookings bookingRepo.Booking, resources resourceRepo.Resource, otel otel.Otel, now func() time.Time) Validator {
	return &validatorImpl{
		bookings:  bookings,
		resources: resources,
		otel:      otel,
		now:       now,
	}
}

// Validate loads the resource, the reservations on the requested day and, only when
// capacity is exceeded, the alternative resources, then runs Check.
func (v *validatorImpl) Validate(ctx context.Context, req Request) (res Outcome, err error) {
	ctx, scope := v.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".validation.Validate")
	defer scope.End()
	defer scope.TraceIfError(err)

	in := Input{Request: req, Today: v.now()}

	if req.ResourceID != constant.Empty {
		resource, err := v.resources.Get(ctx, shared.FilterByID(req.ResourceID, resourceModel.FieldID, resourceModel.TableName))
		if err != nil {
			log.Error().Err(err).Msg("failed to get resource for validation")

			return res, fmt.Errorf("failed to get resource: %w", err)
		}

		if resource.ID != constant.Empty {
			in.Resource = &resource
		}
	}

	if in.Resource != nil && in.Resource.Bookable() && !in.Resource.Fits(req.AttendeeCount) && req.AttendeeCount > 0 {
		in.Candidates, err = v.candidates(ctx, req.AttendeeCount)
		if err != nil {
			return res, err
		}
	}

	if in.Resource != nil {
		in.Reserved, err = v.bookings.GetReserved(ctx, req.ResourceID, req.Window.Date, req.BookingID)
		if err != nil {
			log.Error().Err(err).Msg("failed to get reserved bookings")

			return res, fmt.Errorf("failed to get reserved bookings: %w", err)
		}
	}

	return Check(in), nil
}

func (v *validatorImpl) Suggest(ctx context.Context, attendees int, exclude string) (res []Suggestion, err error) {
	ctx, scope := v.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".validation.Suggest")
	defer scope.End()
	defer scope.TraceIfError(err)

	if attendees <= 0 {
		return nil, failure.Validation("attendees must be a positive integer", Violation{Rule: RuleAttendeesPositive, Field: "attendees"}) // nolint:wrapcheck
	}

	candidates, err := v.candidates(ctx, attendees)
	if err != nil {
		return nil, err
	}

	return Suggest(candidates, attendees, exclude), nil
}

func (v *validatorImpl) Availability(ctx context.Context, resourceID string, window model.Window) (res Availability, err error) {
	ctx, scope := v.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".validation.Availability")
	defer scope.End()
	defer scope.TraceIfError(err)

	if !window.WellOrdered() {
		return res, failure.Validation("start time must be before end time", Violation{Rule: RuleTimeOrder, Field: fieldEndTime}) // nolint:wrapcheck
	}

	exist, err := v.resources.Exist(ctx, shared.FilterByID(resourceID, resourceModel.FieldID, resourceModel.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to check if resource exists")

		return res, fmt.Errorf("failed to check if resource exists: %w", err)
	}

	if !exist {
		return res, failure.NotFound("resource not found") // nolint:wrapcheck
	}

	reserved, err := v.bookings.GetReserved(ctx, resourceID, window.Date, constant.Empty)
	if err != nil {
		log.Error().Err(err).Msg("failed to get reserved bookings")

		return res, fmt.Errorf("failed to get reserved bookings: %w", err)
	}

	res = Availability{
		ResourceID: resourceID,
		Date:       window.Date.Format(constant.DayFormat),
		Reserved:   []Conflict{},
	}

	for _, other := range reserved {
		if window.Overlaps(other.Window()) {
			res.Reserved = append(res.Reserved, conflictOf(other))
		}
	}

	res.Available = len(res.Reserved) == 0

	return res, nil
}

// candidates fetches available resources large enough for attendees.
func (v *validatorImpl) candidates(ctx context.Context, attendees int) ([]resourceModel.Resource, error) {
	filter := gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{Field: resourceModel.FieldStatus, Value: resourceModel.StatusAvailable, Operator: gDto.FilterOperatorEq, Table: resourceModel.TableName},
			gDto.Filter{Field: resourceModel.FieldCapacity, Value: attendees, Operator: gDto.FilterOperatorGreaterEq, Table: resourceModel.TableName},
		},
	}

	params := gDto.QueryParams{SortBy: resourceModel.FieldCapacity, SortDir: "ASC"}

	candidates, err := v.resources.GetAll(ctx, params, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get candidate resources")

		return nil, fmt.Errorf("failed to get candidate resources: %w", err)
	}

	return candidates, nil
}
