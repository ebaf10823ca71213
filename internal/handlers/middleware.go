package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/lithammer/shortuuid/v4"

	"vocabflow/internal/gateway"
	"vocabflow/internal/models"
	"vocabflow/internal/security"
	"vocabflow/internal/service"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	SessionContextKey   ContextKey = "web_session"
	RequestIDContextKey ContextKey = "request_id"
)

// Middleware holds dependencies for middleware functions
type Middleware struct {
	authService  *service.AuthService
	studyService *service.StudyService
	csrf         *security.CSRFGenerator
	limiter      *security.RateLimiter
	logger       *slog.Logger
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(authService *service.AuthService, studyService *service.StudyService, csrf *security.CSRFGenerator, limiter *security.RateLimiter, logger *slog.Logger) *Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return &Middleware{
		authService:  authService,
		studyService: studyService,
		csrf:         csrf,
		limiter:      limiter,
		logger:       logger,
	}
}

// RequireAuth is middleware that requires a valid session
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(security.SessionCookieName)
		if err != nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		ws, err := m.authService.Authenticate(r.Context(), cookie.Value)
		if err != nil {
			if !errors.Is(err, service.ErrSessionNotFound) && !errors.Is(err, service.ErrSessionExpired) {
				m.logger.Error("session lookup failed", "error", err)
			}
			http.SetCookie(w, security.CreateDeleteCookie(r))
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		ctx := context.WithValue(r.Context(), SessionContextKey, ws)
		next(w, r.WithContext(ctx))
	}
}

// CSRFProtect rejects state-changing requests without a valid token. It
// must run inside RequireAuth since tokens are bound to the web session.
func (m *Middleware) CSRFProtect(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws := GetSessionFromContext(r.Context())
		if ws == nil {
			http.Error(w, ErrUnauthorized, http.StatusUnauthorized)
			return
		}
		if !m.csrf.ValidateToken(ws.ID, security.TokenFromRequest(r)) {
			m.logger.Warn("rejected request with invalid CSRF token", "path", r.URL.Path, "username", ws.Username)
			http.Error(w, ErrForbidden, http.StatusForbidden)
			return
		}
		next(w, r)
	}
}

// RateLimit limits requests per client IP
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := security.GetClientIP(r)
		if !m.limiter.Allow(ip) {
			m.logger.Warn("rate limit exceeded", "ip", ip, "path", r.URL.Path)
			w.Header().Set("Retry-After", "5")
			http.Error(w, ErrTooManyRequests, http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}

// Page builds the shared page data for the current session
func (m *Middleware) Page(r *http.Request, title string) PageData {
	page := PageData{Title: title + " - vocabflow"}
	ws := GetSessionFromContext(r.Context())
	if ws == nil {
		return page
	}
	page.Username = ws.Username
	token, err := m.csrf.GenerateToken(ws.ID)
	if err != nil {
		m.logger.Error("failed to generate CSRF token", "error", err)
		return page
	}
	page.CSRFToken = token
	return page
}

// Backend returns the backend client for the current session
func (m *Middleware) Backend(r *http.Request) (service.Backend, error) {
	ws := GetSessionFromContext(r.Context())
	if ws == nil {
		return nil, service.ErrSessionNotFound
	}
	return m.authService.Backend(ws)
}

// SyncCredentials stores backend cookies rotated while serving the request
func (m *Middleware) SyncCredentials(r *http.Request, b service.Backend) {
	ws := GetSessionFromContext(r.Context())
	if ws == nil || b == nil {
		return
	}
	if err := m.authService.SyncCredentials(r.Context(), ws, b.Credentials()); err != nil {
		m.logger.Warn("failed to store rotated backend credentials", "error", err)
	}
}

// BackendFailed answers a failed backend call. When the backend no longer
// accepts the stored credentials the web session is ended and the user
// sent back to the login page.
func (m *Middleware) BackendFailed(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, gateway.ErrUnauthorized) {
		if ws := GetSessionFromContext(r.Context()); ws != nil {
			m.logger.Info("backend session expired", "username", ws.Username)
			m.endSession(w, r, ws)
		}
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	respondWithError(w, http.StatusBadGateway, ErrBackendUnavailable, "Backend request failed", err)
}

func (m *Middleware) endSession(w http.ResponseWriter, r *http.Request, ws *models.WebSession) {
	m.studyService.Evict(ws.ID)
	if err := m.authService.Logout(r.Context(), ws); err != nil {
		m.logger.Error("failed to end session", "error", err)
	}
	http.SetCookie(w, security.CreateDeleteCookie(r))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Logging middleware logs HTTP requests and tags each with a request ID
func Logging(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		id := r.Header.Get(requestIDHeader)
		if id == "" || len(id) > 64 {
			id = shortuuid.New()
		}
		w.Header().Set(requestIDHeader, id)
		ctx := context.WithValue(r.Context(), RequestIDContextKey, id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))

		logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
			"request_id", id,
		)
	})
}

// GetSessionFromContext retrieves the web session from the request context
func GetSessionFromContext(ctx context.Context) *models.WebSession {
	ws, ok := ctx.Value(SessionContextKey).(*models.WebSession)
	if !ok {
		return nil
	}
	return ws
}

// GetRequestID returns the request ID assigned by Logging
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDContextKey).(string)
	return id
}
