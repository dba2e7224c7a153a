package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/oseayemenre/bookshelf/internal/jwt"
	"github.com/oseayemenre/bookshelf/internal/models"
	"github.com/oseayemenre/bookshelf/internal/ratelimit"
	"github.com/oseayemenre/bookshelf/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthenticate(t *testing.T) {
	userId := uuid.New()

	expired, err := jwt.CreateJWTToken(userId.String(), "jane@example.com", models.RoleUser, testSecret, -time.Minute)
	require.NoError(t, err)

	reset, _, err := jwt.CreateResetToken(userId.String(), "jane@example.com", testSecret)
	require.NoError(t, err)

	foreign, err := jwt.CreateJWTToken(userId.String(), "jane@example.com", models.RoleUser, "another-secret", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name         string
		header       string
		expectedCode int
	}{
		{name: "should return 401 if header is missing", header: "", expectedCode: http.StatusUnauthorized},
		{name: "should return 401 if scheme is not bearer", header: "Basic " + sessionToken(t, userId, models.RoleUser), expectedCode: http.StatusUnauthorized},
		{name: "should return 401 if token is garbage", header: "Bearer garbage", expectedCode: http.StatusUnauthorized},
		{name: "should return 401 if token is expired", header: "Bearer " + expired, expectedCode: http.StatusUnauthorized},
		{name: "should return 401 if token is a reset token", header: "Bearer " + reset, expectedCode: http.StatusUnauthorized},
		{name: "should return 401 if token is signed with another secret", header: "Bearer " + foreign, expectedCode: http.StatusUnauthorized},
		{name: "should accept a lowercase scheme", header: "bearer " + sessionToken(t, userId, models.RoleUser), expectedCode: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &Api{logger: &testLogger{}, config: testConfig()}

			var got *models.User
			handler := a.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = userFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			require.Equal(t, tt.expectedCode, rr.Code)

			if tt.expectedCode == http.StatusOK {
				require.NotNil(t, got)
				assert.Equal(t, userId, got.Id)
				assert.Equal(t, models.RoleUser, got.Role)
			} else {
				assert.Equal(t, "Unauthorized", decodeError(t, rr).Error)
			}
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	userId := uuid.New()
	a := &Api{logger: &testLogger{}, config: testConfig()}

	var got *models.User
	handler := a.OptionalAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = userFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.Nil(t, got)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+sessionToken(t, userId, models.RoleUser))
	handler.ServeHTTP(httptest.NewRecorder(), req)
	require.NotNil(t, got)
	assert.Equal(t, userId, got.Id)
}

func TestRequireAdmin(t *testing.T) {
	tests := []struct {
		name            string
		tokenRole       string
		getUserRoleFunc func(ctx context.Context, id uuid.UUID) (string, error)
		expectedCode    int
	}{
		{
			name:      "should return 401 if the user no longer exists",
			tokenRole: models.RoleAdmin,
			getUserRoleFunc: func(ctx context.Context, id uuid.UUID) (string, error) {
				return "", store.ErrUserNotFound
			},
			expectedCode: http.StatusUnauthorized,
		},
		{
			name:      "should return 500 if the role lookup fails",
			tokenRole: models.RoleAdmin,
			getUserRoleFunc: func(ctx context.Context, id uuid.UUID) (string, error) {
				return "", errors.New("connection reset")
			},
			expectedCode: http.StatusInternalServerError,
		},
		{
			name:      "should return 403 after a demotion even with an admin token",
			tokenRole: models.RoleAdmin,
			getUserRoleFunc: func(ctx context.Context, id uuid.UUID) (string, error) {
				return models.RoleUser, nil
			},
			expectedCode: http.StatusForbidden,
		},
		{
			name:      "should allow a promotion before the token is refreshed",
			tokenRole: models.RoleUser,
			getUserRoleFunc: func(ctx context.Context, id uuid.UUID) (string, error) {
				return models.RoleAdmin, nil
			},
			expectedCode: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &Api{
				logger: &testLogger{},
				config: testConfig(),
				store:  &testStore{getUserRoleFunc: tt.getUserRoleFunc},
			}

			var got *models.User
			handler := a.Authenticate(a.RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = userFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", "Bearer "+sessionToken(t, uuid.New(), tt.tokenRole))
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			require.Equal(t, tt.expectedCode, rr.Code)

			if tt.expectedCode == http.StatusOK {
				require.NotNil(t, got)
				assert.Equal(t, models.RoleAdmin, got.Role)
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	limiter := ratelimit.New(2, time.Hour, 2)
	defer limiter.Stop()

	a := &Api{logger: &testLogger{}}
	handler := a.RateLimit(limiter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(remoteAddr string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
		req.RemoteAddr = remoteAddr
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr.Code
	}

	assert.Equal(t, http.StatusOK, send("192.0.2.1:1000"))
	assert.Equal(t, http.StatusOK, send("192.0.2.1:1001"))
	assert.Equal(t, http.StatusTooManyRequests, send("192.0.2.1:1002"))
	assert.Equal(t, http.StatusOK, send("192.0.2.2:1000"))
}

func TestAuthRoutesAreRateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.AuthRateLimit = 1

	a := newTestApi(t, testApiOptions{config: cfg})

	rr := serve(a, http.MethodPost, "/api/v1/auth/logout", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = serve(a, http.MethodPost, "/api/v1/auth/logout", "", nil)
	require.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "Too Many Requests", decodeError(t, rr).Error)

	rr = serve(a, http.MethodGet, "/api/v1/shelves", sessionToken(t, uuid.New(), models.RoleUser), nil)
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		expected   string
	}{
		{name: "remote addr", remoteAddr: "192.0.2.1:1234", expected: "192.0.2.1"},
		{name: "remote addr without port", remoteAddr: "192.0.2.1", expected: "192.0.2.1"},
		{name: "x-real-ip", headers: map[string]string{"X-Real-IP": "198.51.100.7"}, remoteAddr: "10.0.0.1:1", expected: "198.51.100.7"},
		{name: "first forwarded hop", headers: map[string]string{"X-Forwarded-For": "203.0.113.9, 10.0.0.2"}, remoteAddr: "10.0.0.1:1", expected: "203.0.113.9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}

			assert.Equal(t, tt.expected, getClientIP(req))
		})
	}
}
