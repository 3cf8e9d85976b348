package middleware_test

import (
	"campusbook/config"
	"campusbook/infras/jwt"
	"campusbook/infras/otel/mocks"
	authMocks "campusbook/internal/domains/auth/mocks"
	"campusbook/internal/domains/policy"
	"campusbook/permissions"
	cacheMocks "campusbook/shared/cache/mocks"
	"campusbook/shared/constant"
	"campusbook/shared/session"
	"campusbook/transport/http/middleware"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const apiKey = "internal-key"

type fixture struct {
	router http.Handler
	jwt    jwt.JWT
	auth   *authMocks.MockAuth
	actor  *session.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	ctrl := gomock.NewController(t)

	cfg := &config.Config{}
	cfg.App.Name = "campusbook"
	cfg.App.APIKey = apiKey
	cfg.JWT.AccessSecret = "access-secret"
	cfg.JWT.RefreshSecret = "refresh-secret"
	cfg.JWT.AccessExpireMin = 15
	cfg.JWT.RefreshExpireMin = 60

	pol, err := policy.New(cfg)
	require.NoError(t, err)

	perms := &permissions.PermissionData{Endpoints: []permissions.Permission{
		{Path: "/v1/auth/login", Method: http.MethodPost, Skip: true},
		{Path: "/v1/bookings/{id}/approve", Method: http.MethodPost, Permissions: []string{"approve_booking"}},
	}}

	f := &fixture{
		jwt:   jwt.New(cfg, mocks.NewOtel()),
		auth:  authMocks.NewMockAuth(ctrl),
		actor: &session.Actor{},
	}

	authRole := middleware.NewAuthRoleMiddleware(f.jwt, f.auth, pol, mocks.NewOtel(), perms, cfg)

	record := func(w http.ResponseWriter, r *http.Request) {
		*f.actor, _ = session.FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}

	router := chi.NewRouter()
	router.Route("/v1", func(r chi.Router) {
		r.Use(authRole.APIKey)
		r.Use(authRole.Auth)
		r.Use(authRole.RBAC)

		r.Post("/auth/login", record)
		r.Get("/bookings/mine", record)
		r.Post("/bookings/{id}/approve", record)
	})
	f.router = router

	return f
}

func (f *fixture) token(t *testing.T, userID, role string) string {
	t.Helper()

	pair, err := f.jwt.GenerateTokenPair(context.Background(), userID, userID+"@campus.edu", role)
	require.NoError(t, err)

	return pair.AccessToken
}

func (f *fixture) serve(method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	return rec
}

func bearer(token string) map[string]string {
	return map[string]string{constant.RequestHeaderAuthorization: "Bearer " + token}
}

func TestAuth(t *testing.T) {
	t.Run("skipped route needs no token", func(t *testing.T) {
		f := newFixture(t)

		rec := f.serve(http.MethodPost, "/v1/auth/login", nil)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing header", func(t *testing.T) {
		f := newFixture(t)

		rec := f.serve(http.MethodGet, "/v1/bookings/mine", nil)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), `"kind":"unauthorized"`)
	})

	t.Run("garbage token", func(t *testing.T) {
		f := newFixture(t)

		rec := f.serve(http.MethodGet, "/v1/bookings/mine", bearer("not-a-token"))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token places the actor", func(t *testing.T) {
		f := newFixture(t)
		f.auth.EXPECT().IsRevoked(gomock.Any(), gomock.Any(), gomock.Any()).Return(false, nil)

		rec := f.serve(http.MethodGet, "/v1/bookings/mine", bearer(f.token(t, "student-1", constant.RoleStudent)))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "student-1", f.actor.UserID)
		assert.Equal(t, constant.RoleStudent, f.actor.Role)
		assert.NotEmpty(t, f.actor.TokenID)
	})

	t.Run("revoked token", func(t *testing.T) {
		f := newFixture(t)
		f.auth.EXPECT().IsRevoked(gomock.Any(), gomock.Any(), gomock.Any()).Return(true, nil)

		rec := f.serve(http.MethodGet, "/v1/bookings/mine", bearer(f.token(t, "student-1", constant.RoleStudent)))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "revoked")
	})

	t.Run("revocation store down fails open", func(t *testing.T) {
		f := newFixture(t)
		f.auth.EXPECT().IsRevoked(gomock.Any(), gomock.Any(), gomock.Any()).Return(false, errors.New("redis down"))

		rec := f.serve(http.MethodGet, "/v1/bookings/mine", bearer(f.token(t, "student-1", constant.RoleStudent)))

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestRBAC(t *testing.T) {
	t.Run("student cannot approve", func(t *testing.T) {
		f := newFixture(t)
		f.auth.EXPECT().IsRevoked(gomock.Any(), gomock.Any(), gomock.Any()).Return(false, nil)

		rec := f.serve(http.MethodPost, "/v1/bookings/b-1/approve", bearer(f.token(t, "student-1", constant.RoleStudent)))

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Contains(t, rec.Body.String(), `"kind":"forbidden"`)
	})

	t.Run("staff cannot approve without the grant", func(t *testing.T) {
		f := newFixture(t)
		f.auth.EXPECT().IsRevoked(gomock.Any(), gomock.Any(), gomock.Any()).Return(false, nil)

		rec := f.serve(http.MethodPost, "/v1/bookings/b-1/approve", bearer(f.token(t, "staff-1", constant.RoleStaff)))

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("admin approves", func(t *testing.T) {
		f := newFixture(t)
		f.auth.EXPECT().IsRevoked(gomock.Any(), gomock.Any(), gomock.Any()).Return(false, nil)

		rec := f.serve(http.MethodPost, "/v1/bookings/b-1/approve", bearer(f.token(t, "admin-1", constant.RoleAdmin)))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "admin-1", f.actor.UserID)
	})
}

func TestAPIKey(t *testing.T) {
	t.Run("valid key acts as the system", func(t *testing.T) {
		f := newFixture(t)

		rec := f.serve(http.MethodPost, "/v1/bookings/b-1/approve", map[string]string{constant.RequestHeaderAPIKey: apiKey})

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, middleware.SystemActor, *f.actor)
	})

	t.Run("wrong key", func(t *testing.T) {
		f := newFixture(t)

		rec := f.serve(http.MethodGet, "/v1/bookings/mine", map[string]string{constant.RequestHeaderAPIKey: "guess"})

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestRateLimit(t *testing.T) {
	newLimited := func(t *testing.T, count int64, err error) *httptest.ResponseRecorder {
		t.Helper()

		ctrl := gomock.NewController(t)
		cache := cacheMocks.NewMockRedisCache(ctrl)
		cache.EXPECT().Incr(gomock.Any(), "limiter:10.0.0.1:bookctl", 60*time.Second).Return(count, err)

		cfg := &config.Config{}
		cfg.App.RateLimiter.Enable = true
		cfg.App.RateLimiter.MaxRequests = 5
		cfg.App.RateLimiter.WindowSeconds = 60

		app := middleware.NewAppMiddleware(mocks.NewOtel(), cfg, cache)
		handler := app.RateLimit()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/v1/resources", nil)
		req.Header.Set(constant.RequestHeaderForwardedFor, "10.0.0.1, 172.16.0.1")
		req.Header.Set(constant.RequestHeaderUserAgent, "bookctl")

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		return rec
	}

	t.Run("within the window", func(t *testing.T) {
		rec := newLimited(t, 2, nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "3", rec.Header().Get(constant.RequestHeaderRateLimitRemaining))
	})

	t.Run("over the limit", func(t *testing.T) {
		rec := newLimited(t, 6, nil)

		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "0", rec.Header().Get(constant.RequestHeaderRateLimitRemaining))
	})

	t.Run("cache failure lets the request through", func(t *testing.T) {
		rec := newLimited(t, 0, errors.New("redis down"))

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
