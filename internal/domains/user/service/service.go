package service

import (
	"campusbook/config"
	"campusbook/infras/otel"
	"campusbook/internal/domains/policy"
	"campusbook/internal/domains/user/model"
	"campusbook/internal/domains/user/model/dto"
	"campusbook/internal/domains/user/repository"
	"campusbook/shared"
	"campusbook/shared/cache"
	"campusbook/shared/constant"
	gDto "campusbook/shared/dto"
	"campusbook/shared/failure"
	"campusbook/shared/password"
	"campusbook/shared/session"
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

const (
	cacheGetUser    = constant.CachePrefixUser + "get"
	cacheGetAllUser = constant.CachePrefixUser + "gets"
	cacheCountUser  = constant.CachePrefixUser + "count"
)

type User interface {
	Create(ctx context.Context, actor session.Actor, req dto.CreateUserRequest) (dto.UserResponse, error)
	GetAll(ctx context.Context, actor session.Actor, req gDto.QueryParams, filter gDto.FilterGroup) (dto.GetUsersResponse, error)
	Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (int, error)
	Get(ctx context.Context, actor session.Actor, id string) (dto.UserResponse, error)
	SetStatus(ctx context.Context, actor session.Actor, req dto.SetUserStatusRequest, id string) error
	Delete(ctx context.Context, actor session.Actor, id string) error
}

type serviceImpl struct {
	repo   repository.User
	policy policy.Policy
	cfg    *config.Config
	cache  cache.RedisCache
	otel   otel.Otel
}

func New(repo repository.User, policy policy.Policy, cfg *config.Config, cache cache.RedisCache, otel otel.Otel) User {
	return &serviceImpl{
		repo:   repo,
		policy: policy,
		cfg:    cfg,
		cache:  cache,
		otel:   otel,
	}
}

// DisabledKey is the cache key that makes every outstanding access token of a user
// fail authentication. It is set when the account is deactivated or deleted.
func DisabledKey(userID string) string {
	return shared.BuildCacheKey(constant.CacheKeyAuthDisabled, userID)
}

// EmailFilter matches a user by e-mail, case-insensitively stored as lower case.
func EmailFilter(email string) gDto.FilterGroup {
	return gDto.FilterGroup{
		Filters: []any{
			gDto.Filter{
				Field:    model.FieldEmail,
				Operator: gDto.FilterOperatorEq,
				Value:    strings.ToLower(email),
				Table:    model.TableName,
			},
		},
	}
}

func (s *serviceImpl) Create(ctx context.Context, actor session.Actor, req dto.CreateUserRequest) (res dto.UserResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Create")
	defer scope.End()
	defer scope.TraceIfError(err)

	if !s.policy.Resolve(actor).Has(policy.ManageUsers) {
		return res, failure.Forbidden("only administrators can create users") // nolint:wrapcheck
	}

	exists, err := s.repo.Exist(ctx, EmailFilter(req.Email))
	if err != nil {
		log.Error().Err(err).Msg("failed to check if user exists")

		return res, fmt.Errorf("failed to check if user exists: %w", err)
	}

	if exists {
		return res, failure.Conflict("email already registered") // nolint:wrapcheck
	}

	hashedPassword, err := password.Hash(req.Password)
	if err != nil {
		log.Error().Err(err).Msg("failed to hash password")

		return res, fmt.Errorf("failed to hash password: %w", err)
	}

	user := req.ToModel(actor.UserID, hashedPassword)

	if err = s.repo.Insert(ctx, user); err != nil {
		log.Error().Err(err).Msg("failed to create user")

		return res, fmt.Errorf("failed to create user: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		shared.InvalidateCaches(c, s.cache, cacheGetAllUser)
		shared.InvalidateCaches(c, s.cache, cacheCountUser)
	}()

	res.FromModel(user)

	return res, nil
}

func (s *serviceImpl) GetAll(ctx context.Context, actor session.Actor, req gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetUsersResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetAll")
	defer scope.End()
	defer scope.TraceIfError(err)

	if !s.policy.Resolve(actor).Has(policy.ManageUsers) {
		return res, failure.Forbidden("only administrators can list users") // nolint:wrapcheck
	}

	cacheKey := shared.BuildCacheKeyWithQuery(cacheGetAllUser, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for users")

		return res, nil
	}

	total, err := s.Count(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count users")

		return res, fmt.Errorf("failed to count users: %w", err)
	}

	models, err := s.repo.GetAll(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get users")

		return res, fmt.Errorf("failed to get users: %w", err)
	}

	res.FromModels(models, total, req.Limit)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save users to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res int, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Count")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheCountUser, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for user count")

		return res, nil
	}

	res, err = s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count users")

		return res, fmt.Errorf("failed to count users: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save user count to cache")
		}
	}()

	return res, nil
}

// Get returns a user to themself or to an actor allowed to manage users.
func (s *serviceImpl) Get(ctx context.Context, actor session.Actor, id string) (res dto.UserResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Get")
	defer scope.End()
	defer scope.TraceIfError(err)

	if actor.UserID != id && !s.policy.Resolve(actor).Has(policy.ManageUsers) {
		return res, failure.Forbidden("you can only view your own account") // nolint:wrapcheck
	}

	cacheKey := shared.BuildCacheKey(cacheGetUser, id)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for user")

		return res, nil
	}

	user, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get user")

		return res, fmt.Errorf("failed to get user: %w", err)
	}

	if user.ID == constant.Empty {
		return res, failure.NotFound("user not found") // nolint:wrapcheck
	}

	res.FromModel(user)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save user to cache")
		}
	}()

	return res, nil
}

// SetStatus activates or deactivates an account. Inactive users can neither log in
// nor create bookings; an administrator cannot deactivate themself.
func (s *serviceImpl) SetStatus(ctx context.Context, actor session.Actor, req dto.SetUserStatusRequest, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".SetStatus")
	defer scope.End()
	defer scope.TraceIfError(err)

	if !s.policy.Resolve(actor).Has(policy.ManageUsers) {
		return failure.Forbidden("only administrators can change user status") // nolint:wrapcheck
	}

	if actor.UserID == id && req.Status != constant.UserStatusActive {
		return failure.BadRequestFromString("you cannot deactivate your own account") // nolint:wrapcheck
	}

	filter := shared.FilterByID(id, model.FieldID, model.TableName)

	if err = s.mustExist(ctx, filter); err != nil {
		return err
	}

	if err = s.repo.Update(ctx, shared.TransformFields(req, actor.UserID), filter); err != nil {
		log.Error().Err(err).Msg("failed to update user status")

		return fmt.Errorf("failed to update user status: %w", err)
	}

	s.invalidate(ctx, id, false)

	if req.Status == constant.UserStatusActive {
		if err = s.cache.Delete(ctx, DisabledKey(id)); err != nil {
			log.Error().Err(err).Str("user_id", id).Msg("failed to lift session lockout")

			return fmt.Errorf("failed to lift session lockout: %w", err)
		}

		return nil
	}

	return s.lockOut(ctx, id)
}

// Delete removes the user. Their bookings go with them through the database cascade.
func (s *serviceImpl) Delete(ctx context.Context, actor session.Actor, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Delete")
	defer scope.End()
	defer scope.TraceIfError(err)

	if !s.policy.Resolve(actor).Has(policy.ManageUsers) {
		return failure.Forbidden("only administrators can delete users") // nolint:wrapcheck
	}

	if actor.UserID == id {
		return failure.BadRequestFromString("you cannot delete your own account") // nolint:wrapcheck
	}

	filter := shared.FilterByID(id, model.FieldID, model.TableName)

	if err = s.mustExist(ctx, filter); err != nil {
		return err
	}

	if err = s.repo.Delete(ctx, filter); err != nil {
		log.Error().Err(err).Msg("failed to delete user")

		return fmt.Errorf("failed to delete user: %w", err)
	}

	s.invalidate(ctx, id, true)

	return s.lockOut(ctx, id)
}

// lockOut rejects the user's access tokens for as long as any of them can still be valid.
// Refresh tokens are already refused by the account status check.
func (s *serviceImpl) lockOut(ctx context.Context, id string) error {
	ttl := s.cfg.JWT.AccessExpireMin * 60

	if err := s.cache.Save(ctx, DisabledKey(id), true, ttl); err != nil {
		log.Error().Err(err).Str("user_id", id).Msg("failed to lock out user sessions")

		return fmt.Errorf("failed to lock out user sessions: %w", err)
	}

	return nil
}

func (s *serviceImpl) mustExist(ctx context.Context, filter gDto.FilterGroup) error {
	exist, err := s.repo.Exist(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to check if user exists")

		return fmt.Errorf("failed to check if user exists: %w", err)
	}

	if !exist {
		return failure.NotFound("user not found") // nolint:wrapcheck
	}

	return nil
}

func (s *serviceImpl) invalidate(ctx context.Context, id string, bookings bool) {
	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Delete(c, shared.BuildCacheKey(cacheGetUser, id)); err != nil {
			log.Error().Err(err).Msg("failed to delete user from cache")
		}

		shared.InvalidateCaches(c, s.cache, cacheGetAllUser)
		shared.InvalidateCaches(c, s.cache, cacheCountUser)

		if bookings {
			shared.InvalidateCaches(c, s.cache, constant.CachePrefixBooking)
		}
	}()
}
