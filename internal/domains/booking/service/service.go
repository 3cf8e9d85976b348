package service

import (
	"campusbook/config"
	"campusbook/infras/kafka"
	"campusbook/infras/otel"
	"campusbook/internal/domains/booking/model"
	"campusbook/internal/domains/booking/model/dto"
	"campusbook/internal/domains/booking/repository"
	"campusbook/internal/domains/booking/validation"
	"campusbook/internal/domains/policy"
	userModel "campusbook/internal/domains/user/model"
	userRepo "campusbook/internal/domains/user/repository"
	"campusbook/shared"
	"campusbook/shared/cache"
	"campusbook/shared/constant"
	gDto "campusbook/shared/dto"
	"campusbook/shared/failure"
	"campusbook/shared/session"
	"campusbook/shared/timezone"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	cacheGetBooking    = constant.CachePrefixBooking + "get"
	cacheGetAllBooking = constant.CachePrefixBooking + "gets"
	cacheCountBooking  = constant.CachePrefixBooking + "count"

	guardStatusArg = "guard_status"
	guardOwnerArg  = "guard_owner"
)

const defaultBulkConcurrency = 4

type Booking interface {
	Create(ctx context.Context, actor session.Actor, req dto.CreateBookingRequest) (dto.BookingResult, error)
	Update(ctx context.Context, actor session.Actor, req dto.UpdateBookingRequest, id string) (dto.BookingResult, error)
	Approve(ctx context.Context, actor session.Actor, id string) (dto.BookingResponse, error)
	Reject(ctx context.Context, actor session.Actor, req dto.RejectBookingRequest, id string) (dto.BookingResponse, error)
	Cancel(ctx context.Context, actor session.Actor, req dto.CancelBookingRequest, id string) (dto.BookingResponse, error)
	BulkApprove(ctx context.Context, actor session.Actor, req dto.BulkApproveRequest) (dto.BulkApproveResponse, error)
	GetAll(ctx context.Context, actor session.Actor, req gDto.QueryParams, filter gDto.FilterGroup) (dto.GetBookingsResponse, error)
	GetByUser(ctx context.Context, actor session.Actor, userID string, req gDto.QueryParams, filter gDto.FilterGroup) (dto.GetBookingsResponse, error)
	Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (int, error)
	Get(ctx context.Context, actor session.Actor, id string) (dto.BookingResponse, error)
}

type serviceImpl struct {
	repo      repository.Booking
	users     userRepo.User
	validator validation.Validator
	policy    policy.Policy
	kafka     kafka.Client
	cfg       *config.Config
	cache     cache.RedisCache
	otel      otel.Otel
}

func New(
	repo repository.Booking,
	users userRepo.User,
	validator validation.Validator,
	policy policy.Policy,
	kafka kafka.Client,
	cfg *config.Config,
	cache cache.RedisCache,
	otel otel.Otel,
) Booking {
	return &serviceImpl{
		repo:      repo,
		users:     users,
		validator: validator,
		policy:    policy,
		kafka:     kafka,
		cfg:       cfg,
		cache:     cache,
		otel:      otel,
	}
}

// Create validates the request and stores the booking in the initial status the
// actor's capabilities allow. Domain rejections come back in the result, not as errors.
func (s *serviceImpl) Create(ctx context.Context, actor session.Actor, req dto.CreateBookingRequest) (res dto.BookingResult, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Create")
	defer scope.End()
	defer scope.TraceIfError(err)

	caps := s.policy.Resolve(actor)
	if !caps.Has(policy.CreateBooking) {
		return res, failure.Forbidden("you are not allowed to create bookings") // nolint:wrapcheck
	}

	if err = s.ensureActive(ctx, actor.UserID); err != nil {
		return res, err
	}

	window, violation := req.Window()
	if violation != nil {
		return dto.Rejected(validation.Invalid(violation.Rule, violation.Field)), nil
	}

	request := validation.Request{
		ResourceID:    req.ResourceID,
		Window:        window,
		AttendeeCount: req.AttendeeCount,
		Reason:        req.Reason,
	}

	outcome, err := s.validator.Validate(ctx, request)
	if err != nil {
		log.Error().Err(err).Msg("failed to validate booking")

		return res, fmt.Errorf("failed to validate booking: %w", err)
	}

	if !outcome.IsAdmissible() {
		return dto.Rejected(outcome), nil
	}

	booking := req.ToModel(dto.NewBookingID(), actor.UserID, window, caps.InitialStatus(), timezone.Now())

	if err = s.repo.Insert(ctx, booking); err != nil {
		if isExclusionViolation(err) {
			return dto.Rejected(validation.Conflicting(racedConflict(request))), nil
		}

		log.Error().Err(err).Msg("failed to create booking")

		return res, fmt.Errorf("failed to create booking: %w", err)
	}

	s.publish(ctx, actor, booking, model.ActionCreated, constant.Empty, constant.Empty)
	s.invalidate(ctx, booking.ID)

	return dto.Stored(dto.OutcomeCreated, booking), nil
}

// Update lets the owner change a pending booking. The edit is re-validated with the
// booking's own reservation excluded and committed only if it is still pending.
func (s *serviceImpl) Update(ctx context.Context, actor session.Actor, req dto.UpdateBookingRequest, id string) (res dto.BookingResult, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Update")
	defer scope.End()
	defer scope.TraceIfError(err)

	if req.IsEmpty() {
		return res, failure.BadRequestFromString("update request cannot be empty") // nolint:wrapcheck
	}

	current, err := s.load(ctx, id)
	if err != nil {
		return res, err
	}

	caps := s.policy.Resolve(actor)

	if !current.OwnedBy(actor.UserID) {
		return res, failure.Forbidden("only the owner can edit a booking") // nolint:wrapcheck
	}

	if !caps.CanEdit(current) {
		return res, failure.InvalidTransition(fmt.Sprintf("a %s booking can no longer be edited", current.Status)) // nolint:wrapcheck
	}

	edited, violation := req.Apply(current)
	if violation != nil {
		return dto.Rejected(validation.Invalid(violation.Rule, violation.Field)), nil
	}

	request := validation.Request{
		BookingID:     current.ID,
		ResourceID:    edited.ResourceID,
		Window:        edited.Window(),
		AttendeeCount: edited.AttendeeCount,
		Reason:        edited.Reason,
	}

	outcome, err := s.validator.Validate(ctx, request)
	if err != nil {
		log.Error().Err(err).Msg("failed to validate booking edit")

		return res, fmt.Errorf("failed to validate booking edit: %w", err)
	}

	if !outcome.IsAdmissible() {
		return dto.Rejected(outcome), nil
	}

	now := timezone.Now()

	filter := guarded(id, model.StatusPending)
	filter.Filters = append(filter.Filters, gDto.Filter{
		ArgName:  guardOwnerArg,
		Field:    model.FieldUserID,
		Value:    actor.UserID,
		Operator: gDto.FilterOperatorEq,
		Table:    model.TableName,
	})

	affected, err := s.repo.UpdateAffected(ctx, dto.Fields(edited, actor.UserID, now), filter)
	if err != nil {
		if isExclusionViolation(err) {
			return dto.Rejected(validation.Conflicting(racedConflict(request))), nil
		}

		log.Error().Err(err).Msg("failed to update booking")

		return res, fmt.Errorf("failed to update booking: %w", err)
	}

	if affected == 0 {
		return res, failure.InvalidTransition("booking state changed, please refresh") // nolint:wrapcheck
	}

	edited.ModifiedAt = now
	edited.ModifiedBy = actor.UserID

	s.publish(ctx, actor, edited, model.ActionUpdated, current.Status, constant.Empty)
	s.invalidate(ctx, id)

	return dto.Stored(dto.OutcomeUpdated, edited), nil
}

func (s *serviceImpl) Approve(ctx context.Context, actor session.Actor, id string) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Approve")
	defer scope.End()
	defer scope.TraceIfError(err)

	return s.transition(ctx, actor, id, model.StatusApproved, constant.Empty)
}

func (s *serviceImpl) Reject(ctx context.Context, actor session.Actor, req dto.RejectBookingRequest, id string) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Reject")
	defer scope.End()
	defer scope.TraceIfError(err)

	if isBlank(req.Remarks) {
		return res, failure.Validation("remarks are required to reject a booking", validation.Violation{Rule: "remarks_required", Field: "remarks"}) // nolint:wrapcheck
	}

	return s.transition(ctx, actor, id, model.StatusRejected, req.Remarks)
}

func (s *serviceImpl) Cancel(ctx context.Context, actor session.Actor, req dto.CancelBookingRequest, id string) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Cancel")
	defer scope.End()
	defer scope.TraceIfError(err)

	return s.transition(ctx, actor, id, model.StatusCancelled, req.Remarks)
}

// BulkApprove approves every id independently. Items run concurrently with a bounded
// fan-out and each failure is reported against its own id.
func (s *serviceImpl) BulkApprove(ctx context.Context, actor session.Actor, req dto.BulkApproveRequest) (res dto.BulkApproveResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".BulkApprove")
	defer scope.End()
	defer scope.TraceIfError(err)

	if !s.policy.Resolve(actor).Has(policy.ApproveBooking) {
		return res, failure.Forbidden("you are not allowed to approve bookings") // nolint:wrapcheck
	}

	limit := s.cfg.Booking.BulkConcurrency
	if limit <= 0 {
		limit = defaultBulkConcurrency
	}

	items := make([]dto.BulkItemResult, len(req.IDs))

	var group errgroup.Group
	group.SetLimit(limit)

	for i, id := range req.IDs {
		group.Go(func() error {
			item := dto.BulkItemResult{ID: id, Result: dto.BulkItemApproved}

			if _, err := s.transition(ctx, actor, id, model.StatusApproved, constant.Empty); err != nil {
				item.Result = dto.BulkItemFailed
				item.Kind = failure.GetKind(err)
				item.Message = err.Error()
			}

			items[i] = item

			return nil
		})
	}

	_ = group.Wait()

	res.Items = items

	for _, item := range items {
		if item.Result == dto.BulkItemApproved {
			res.Approved++
		} else {
			res.Failed++
		}
	}

	log.Info().Int("approved", res.Approved).Int("failed", res.Failed).Msg("bulk approval finished")

	return res, nil
}

// GetAll lists every booking for actors that may view all; others only get their own.
func (s *serviceImpl) GetAll(ctx context.Context, actor session.Actor, req gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetBookingsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetAll")
	defer scope.End()
	defer scope.TraceIfError(err)

	if !s.policy.Resolve(actor).Has(policy.ViewAllBookings) {
		filter = ownedBy(actor.UserID).With(filter)
	}

	return s.list(ctx, req, filter)
}

func (s *serviceImpl) GetByUser(ctx context.Context, actor session.Actor, userID string, req gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetBookingsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetByUser")
	defer scope.End()
	defer scope.TraceIfError(err)

	if actor.UserID != userID && !s.policy.Resolve(actor).Has(policy.ViewAllBookings) {
		return res, failure.Forbidden("you can only list your own bookings") // nolint:wrapcheck
	}

	return s.list(ctx, req, ownedBy(userID).With(filter))
}

func (s *serviceImpl) list(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetBookingsResponse, err error) {
	cacheKey := shared.BuildCacheKeyWithQuery(cacheGetAllBooking, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for bookings")

		return res, nil
	}

	total, err := s.Count(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count bookings")

		return res, fmt.Errorf("failed to count bookings: %w", err)
	}

	models, err := s.repo.GetAll(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get bookings")

		return res, fmt.Errorf("failed to get bookings: %w", err)
	}

	res.FromModels(models, total, req.Limit)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save bookings to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res int, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Count")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheCountBooking, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for booking count")

		return res, nil
	}

	res, err = s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count bookings")

		return res, fmt.Errorf("failed to count bookings: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save booking count to cache")
		}
	}()

	return res, nil
}

// Get hides bookings the actor may not view behind NotFound.
func (s *serviceImpl) Get(ctx context.Context, actor session.Actor, id string) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Get")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKey(cacheGetBooking, id)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err != nil {
		var booking model.Booking

		booking, err = s.load(ctx, id)
		if err != nil {
			return res, err
		}

		res.FromModel(booking)

		go func() {
			c := context.WithoutCancel(ctx)

			if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
				log.Error().Err(err).Msg("failed to save booking to cache")
			}
		}()
	}

	if res.UserID != actor.UserID && !s.policy.Resolve(actor).Has(policy.ViewAllBookings) {
		return dto.BookingResponse{}, failure.NotFound("booking not found") // nolint:wrapcheck
	}

	return res, nil
}

// transition moves a booking to target with a compare-and-set on its current status.
// Losing a race to another actor is reported as an invalid transition.
func (s *serviceImpl) transition(ctx context.Context, actor session.Actor, id string, target model.Status, remarks string) (res dto.BookingResponse, err error) {
	booking, err := s.load(ctx, id)
	if err != nil {
		return res, err
	}

	caps := s.policy.Resolve(actor)

	if !caps.Permits(booking, target) {
		if !caps.CanView(booking) {
			return res, failure.NotFound("booking not found") // nolint:wrapcheck
		}

		return res, failure.Forbidden(fmt.Sprintf("you are not allowed to mark this booking %s", target)) // nolint:wrapcheck
	}

	if !caps.CanTransition(booking, target) {
		return res, failure.InvalidTransition(fmt.Sprintf("cannot move a %s booking to %s", booking.Status, target)) // nolint:wrapcheck
	}

	now := timezone.Now()
	fields := map[string]any{
		model.FieldStatus:        target,
		constant.FieldModifiedAt: now,
		constant.FieldModifiedBy: actor.UserID,
	}

	switch target {
	case model.StatusApproved, model.StatusRejected:
		fields[model.FieldDecidedBy] = actor.UserID
		fields[model.FieldDecidedAt] = now
		booking.DecidedBy = actor.UserID
		booking.DecidedAt = &now
	case model.StatusCancelled:
		fields[model.FieldCancelledAt] = now
		booking.CancelledAt = &now
	}

	if remarks != constant.Empty {
		fields[model.FieldRemarks] = remarks
		booking.Remarks = remarks
	}

	affected, err := s.repo.UpdateAffected(ctx, fields, guarded(id, model.Sources(target)...))
	if err != nil {
		log.Error().Err(err).Str("booking", id).Str("target", target.String()).Msg("failed to change booking status")

		return res, fmt.Errorf("failed to change booking status: %w", err)
	}

	if affected == 0 {
		return res, failure.InvalidTransition("booking state changed, please refresh") // nolint:wrapcheck
	}

	from := booking.Status
	booking.Status = target
	booking.ModifiedAt = now
	booking.ModifiedBy = actor.UserID

	s.publish(ctx, actor, booking, model.ActionFor(target), from, remarks)
	s.invalidate(ctx, id)

	res.FromModel(booking)

	return res, nil
}

func (s *serviceImpl) load(ctx context.Context, id string) (model.Booking, error) {
	booking, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get booking")

		return booking, fmt.Errorf("failed to get booking: %w", err)
	}

	if booking.ID == constant.Empty {
		return booking, failure.NotFound("booking not found") // nolint:wrapcheck
	}

	return booking, nil
}

func (s *serviceImpl) ensureActive(ctx context.Context, userID string) error {
	user, err := s.users.Get(ctx, shared.FilterByID(userID, userModel.FieldID, userModel.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get booking owner")

		return fmt.Errorf("failed to get booking owner: %w", err)
	}

	if user.ID == constant.Empty {
		return failure.Unauthorized("account no longer exists") // nolint:wrapcheck
	}

	if !user.Active() {
		return failure.Forbidden("inactive accounts cannot create bookings") // nolint:wrapcheck
	}

	return nil
}

// publish emits the lifecycle event after commit. Delivery failures are logged only.
func (s *serviceImpl) publish(ctx context.Context, actor session.Actor, booking model.Booking, action model.Action, from model.Status, remarks string) {
	event := model.Event{
		ID:         uuid.NewString(),
		BookingID:  booking.ID,
		ResourceID: booking.ResourceID,
		OwnerID:    booking.UserID,
		ActorID:    actor.UserID,
		ActorRole:  actor.Role,
		Action:     action,
		From:       from,
		To:         booking.Status,
		Remarks:    remarks,
		OccurredAt: timezone.Now(),
	}

	go func() {
		c := context.WithoutCancel(ctx)

		err := s.kafka.SendMessages(c, s.cfg.Kafka.Topics.BookingEvents, kafka.Message{Key: booking.ID, Value: event})
		if err != nil {
			log.Error().Err(err).Str("booking", booking.ID).Str("action", string(action)).Msg("failed to publish booking event")
		}
	}()
}

// invalidate drops every cached booking read, report stats included, before the caller
// answers so that a re-fetch sees the committed state.
func (s *serviceImpl) invalidate(ctx context.Context, id string) {
	c := context.WithoutCancel(ctx)

	if err := s.cache.Delete(c, shared.BuildCacheKey(cacheGetBooking, id)); err != nil {
		log.Error().Err(err).Msg("failed to delete booking from cache")
	}

	shared.InvalidateCaches(c, s.cache, constant.CachePrefixBooking)
}

func guarded(id string, from ...model.Status) gDto.FilterGroup {
	return gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{Field: model.FieldID, Value: id, Operator: gDto.FilterOperatorEq, Table: model.TableName},
			gDto.Filter{ArgName: guardStatusArg, Field: model.FieldStatus, Value: from, Operator: gDto.FilterOperatorIn, Table: model.TableName},
		},
	}
}

func ownedBy(userID string) gDto.FilterGroup {
	return gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{ArgName: "owner_id", Field: model.FieldUserID, Value: userID, Operator: gDto.FilterOperatorEq, Table: model.TableName},
		},
	}
}

// racedConflict describes a slot lost to a concurrent insert caught by the database.
func racedConflict(req validation.Request) validation.Conflict {
	return validation.Conflict{
		ResourceID: req.ResourceID,
		Date:       req.Window.Date.Format(constant.DayFormat),
		StartTime:  req.Window.Start,
		EndTime:    req.Window.End,
	}
}

func isExclusionViolation(err error) bool {
	var pqErr *pq.Error

	return errors.As(err, &pqErr) && string(pqErr.Code) == constant.PqErrorCodeExclusionViolation
}

func isBlank(value string) bool {
	return strings.TrimSpace(value) == constant.Empty
}
