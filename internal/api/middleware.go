package api

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/oseayemenre/bookshelf/internal/jwt"
	"github.com/oseayemenre/bookshelf/internal/models"
	"github.com/oseayemenre/bookshelf/internal/ratelimit"
	"github.com/oseayemenre/bookshelf/internal/store"
)

type contextKey string

const userContextKey contextKey = "user"

func withUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// userFromContext returns the authenticated caller, or nil.
func userFromContext(ctx context.Context) *models.User {
	user, _ := ctx.Value(userContextKey).(*models.User)
	return user
}

type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode int
}

func newResponseWriterWrapper(w http.ResponseWriter) *responseWriterWrapper {
	return &responseWriterWrapper{ResponseWriter: w, statusCode: http.StatusOK}
}

func (w *responseWriterWrapper) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

func (a *Api) LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := newResponseWriterWrapper(w)

		next.ServeHTTP(ww, r)

		duration := time.Since(start)

		a.logger.Info(
			"request",
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.statusCode),
			slog.String("duration", duration.String()),
			slog.String("remote_addr", r.RemoteAddr),
			slog.String("user_agent", r.UserAgent()),
		)
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")

	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)
	return token, token != ""
}

// userFromToken verifies a session token and returns the caller it names.
func (a *Api) userFromToken(r *http.Request) (*models.User, error) {
	token, ok := bearerToken(r)

	if !ok {
		return nil, errors.New("missing or invalid token")
	}

	claims, err := jwt.DecodeJWTToken(token, a.config.JWTSecret)

	if err != nil {
		return nil, err
	}

	id, err := uuid.Parse(claims.Id)

	if err != nil {
		return nil, jwt.ErrInvalidToken
	}

	return &models.User{Id: id, Email: claims.Email, Role: claims.Role}, nil
}

func (a *Api) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := a.userFromToken(r)

		if err != nil {
			a.logger.Warn(err.Error(), "status", "authentication failed")
			respondWithError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
	})
}

// OptionalAuth attaches the caller when a valid token is present and
// otherwise continues anonymously.
func (a *Api) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := a.userFromToken(r)

		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
	})
}

// RequireAdmin must run after Authenticate. The role claim is only a hint,
// the stored role decides.
func (a *Api) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := userFromContext(r.Context())

		if user == nil {
			respondWithError(w, http.StatusUnauthorized, "Authentication required")
			return
		}

		role, err := a.store.GetUserRole(r.Context(), user.Id)

		if err != nil {
			if errors.Is(err, store.ErrUserNotFound) {
				a.logger.Warn("token for deleted user", "user_id", user.Id, "status", "permission denied")
				respondWithError(w, http.StatusUnauthorized, "Invalid user")
				return
			}
			a.respondWithAppError(w, err, "RequireAdmin")
			return
		}

		if role != models.RoleAdmin {
			a.logger.Warn("role does not have permission to access this route", "user_id", user.Id, "status", "permission denied")
			respondWithError(w, http.StatusForbidden, "Insufficient permissions")
			return
		}

		admin := *user
		admin.Role = role

		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), &admin)))
	})
}

func (a *Api) RateLimit(limiter *ratelimit.KeyedRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := getClientIP(r)

			if !limiter.Allow(ip) {
				a.logger.Warn("rate limit exceeded", "ip", ip, "path", r.URL.Path)
				w.Header().Set("Retry-After", "60")
				respondWithError(w, http.StatusTooManyRequests, "Too many attempts, please try again later.")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// getClientIP prefers proxy headers. The server is expected to sit behind a
// single trusted proxy, as chi's RealIP middleware assumes.
func getClientIP(r *http.Request) string {
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}

	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return host
}
