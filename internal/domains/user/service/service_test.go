package service_test

import (
	"campusbook/config"
	"campusbook/infras/otel/mocks"
	"campusbook/internal/domains/policy"
	userMocks "campusbook/internal/domains/user/mocks"
	"campusbook/internal/domains/user/model"
	"campusbook/internal/domains/user/model/dto"
	"campusbook/internal/domains/user/service"
	cacheMocks "campusbook/shared/cache/mocks"
	"campusbook/shared/constant"
	"campusbook/shared/failure"
	"campusbook/shared/session"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var (
	admin   = session.Actor{UserID: "admin-1", Role: constant.RoleAdmin}
	student = session.Actor{UserID: "student-1", Role: constant.RoleStudent}
)

func setup(t *testing.T) (*userMocks.MockUser, *cacheMocks.MockRedisCache, service.User) {
	t.Helper()

	repo, cache, svc := setupStrict(t)

	cache.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	cache.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	return repo, cache, svc
}

// setupStrict leaves Save and Delete to the test's own expectations.
func setupStrict(t *testing.T) (*userMocks.MockUser, *cacheMocks.MockRedisCache, service.User) {
	t.Helper()

	ctrl := gomock.NewController(t)

	cfg := &config.Config{}
	cfg.Cache.TTL = 3600
	cfg.JWT.AccessExpireMin = 15

	pol, err := policy.New(cfg)
	require.NoError(t, err)

	repo := userMocks.NewMockUser(ctrl)
	cache := cacheMocks.NewMockRedisCache(ctrl)

	return repo, cache, service.New(repo, pol, cfg, cache, mocks.NewOtel())
}

func TestUserService_Create(t *testing.T) {
	req := dto.CreateUserRequest{Name: "Dana", Email: "Dana@Campus.edu", Password: "secret123", Role: constant.RoleStaff}

	tests := []struct {
		name      string
		actor     session.Actor
		setupMock func(repo *userMocks.MockUser, cache *cacheMocks.MockRedisCache)
		wantKind  string
	}{
		{
			name:  "admin creates user",
			actor: admin,
			setupMock: func(repo *userMocks.MockUser, cache *cacheMocks.MockRedisCache) {
				repo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(false, nil)
				repo.EXPECT().
					Insert(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, user model.User) error {
						assert.Equal(t, "dana@campus.edu", user.Email)
						assert.Equal(t, constant.UserStatusActive, user.Status)
						assert.NotEqual(t, req.Password, user.Password)

						return nil
					})
				cache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
			},
		},
		{
			name:  "duplicate email",
			actor: admin,
			setupMock: func(repo *userMocks.MockUser, _ *cacheMocks.MockRedisCache) {
				repo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)
			},
			wantKind: failure.KindConflict,
		},
		{
			name:      "student is forbidden",
			actor:     student,
			setupMock: func(*userMocks.MockUser, *cacheMocks.MockRedisCache) {},
			wantKind:  failure.KindForbidden,
		},
		{
			name:  "repository error",
			actor: admin,
			setupMock: func(repo *userMocks.MockUser, _ *cacheMocks.MockRedisCache) {
				repo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(false, errors.New("database error"))
			},
			wantKind: failure.KindInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, cache, svc := setup(t)
			tt.setupMock(repo, cache)

			res, err := svc.Create(context.Background(), tt.actor, req)
			time.Sleep(10 * time.Millisecond)

			if tt.wantKind == "" {
				require.NoError(t, err)
				assert.Equal(t, "Dana", res.Name)

				return
			}

			assert.Equal(t, tt.wantKind, failure.GetKind(err))
		})
	}
}

func TestUserService_Get(t *testing.T) {
	t.Run("self lookup", func(t *testing.T) {
		repo, cache, svc := setup(t)

		cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("cache miss"))
		repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.User{ID: student.UserID, Name: "Sam", Role: constant.RoleStudent}, nil)

		res, err := svc.Get(context.Background(), student, student.UserID)
		time.Sleep(10 * time.Millisecond)

		require.NoError(t, err)
		assert.Equal(t, "Sam", res.Name)
	})

	t.Run("other user is forbidden for students", func(t *testing.T) {
		_, _, svc := setup(t)

		_, err := svc.Get(context.Background(), student, "someone-else")

		assert.Equal(t, failure.KindForbidden, failure.GetKind(err))
	})
}

func TestUserService_SetStatus(t *testing.T) {
	t.Run("deactivates user", func(t *testing.T) {
		repo, cache, svc := setup(t)

		cache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
		repo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)
		repo.EXPECT().
			Update(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, fields map[string]any, _ any) error {
				assert.Equal(t, constant.UserStatusInactive, fields[model.FieldStatus])

				return nil
			})

		err := svc.SetStatus(context.Background(), admin, dto.SetUserStatusRequest{Status: constant.UserStatusInactive}, "student-1")
		time.Sleep(10 * time.Millisecond)

		assert.NoError(t, err)
	})

	t.Run("deactivation locks out live sessions", func(t *testing.T) {
		repo, cache, svc := setupStrict(t)

		repo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)
		repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
		cache.EXPECT().Save(gomock.Any(), service.DisabledKey("student-1"), true, 15*60).Return(nil)
		cache.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
		cache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

		err := svc.SetStatus(context.Background(), admin, dto.SetUserStatusRequest{Status: constant.UserStatusInactive}, "student-1")
		time.Sleep(10 * time.Millisecond)

		assert.NoError(t, err)
	})

	t.Run("reactivation lifts the lockout", func(t *testing.T) {
		repo, cache, svc := setupStrict(t)

		repo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)
		repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
		cache.EXPECT().Delete(gomock.Any(), service.DisabledKey("student-1")).Return(nil)
		cache.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
		cache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

		err := svc.SetStatus(context.Background(), admin, dto.SetUserStatusRequest{Status: constant.UserStatusActive}, "student-1")
		time.Sleep(10 * time.Millisecond)

		assert.NoError(t, err)
	})

	t.Run("lockout failure is reported", func(t *testing.T) {
		repo, cache, svc := setupStrict(t)

		repo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)
		repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
		cache.EXPECT().Save(gomock.Any(), service.DisabledKey("student-1"), true, 15*60).Return(errors.New("redis down"))
		cache.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
		cache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

		err := svc.SetStatus(context.Background(), admin, dto.SetUserStatusRequest{Status: constant.UserStatusInactive}, "student-1")
		time.Sleep(10 * time.Millisecond)

		assert.Error(t, err)
	})

	t.Run("cannot deactivate self", func(t *testing.T) {
		_, _, svc := setup(t)

		err := svc.SetStatus(context.Background(), admin, dto.SetUserStatusRequest{Status: constant.UserStatusInactive}, admin.UserID)

		assert.Equal(t, failure.KindValidation, failure.GetKind(err))
	})
}

func TestUserService_Delete(t *testing.T) {
	t.Run("cascades to booking caches", func(t *testing.T) {
		repo, cache, svc := setup(t)

		repo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)
		repo.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil)
		cache.EXPECT().Clear(gomock.Any(), constant.CachePrefixBooking+"*").Return(nil)
		cache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

		err := svc.Delete(context.Background(), admin, "student-1")
		time.Sleep(20 * time.Millisecond)

		assert.NoError(t, err)
	})

	t.Run("deleted user's sessions are locked out", func(t *testing.T) {
		repo, cache, svc := setupStrict(t)

		repo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)
		repo.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil)
		cache.EXPECT().Save(gomock.Any(), service.DisabledKey("student-1"), true, 15*60).Return(nil)
		cache.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
		cache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

		err := svc.Delete(context.Background(), admin, "student-1")
		time.Sleep(10 * time.Millisecond)

		assert.NoError(t, err)
	})

	t.Run("admin cannot delete self", func(t *testing.T) {
		_, _, svc := setup(t)

		err := svc.Delete(context.Background(), admin, admin.UserID)

		assert.Equal(t, failure.KindValidation, failure.GetKind(err))
	})

	t.Run("missing user", func(t *testing.T) {
		repo, _, svc := setup(t)

		repo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(false, nil)

		err := svc.Delete(context.Background(), admin, "ghost")

		assert.Equal(t, failure.KindNotFound, failure.GetKind(err))
	})
}
