package handlers

import (
	"errors"
	"html/template"
	"net/http"

	"vocabflow/internal/gateway"
	"vocabflow/internal/security"
	"vocabflow/internal/service"
	"vocabflow/internal/validation"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	authService *service.AuthService
	middleware  *Middleware
	templates   *template.Template
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, middleware *Middleware, templates *template.Template) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		middleware:  middleware,
		templates:   templates,
	}
}

// ShowLogin renders the login page
func (h *AuthHandler) ShowLogin(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(security.SessionCookieName); err == nil {
		if _, err := h.authService.Authenticate(r.Context(), cookie.Value); err == nil {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
	}

	render(w, h.templates, http.StatusOK, "login.tmpl", LoginViewData{
		PageData: PageData{Title: "Login - vocabflow"},
	})
}

// Login handles login form submission
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, ErrInvalidFormData, http.StatusBadRequest)
		return
	}

	username := r.FormValue("username")
	password := r.FormValue("password")

	ws, token, err := h.authService.Login(r.Context(), username, password)
	if err != nil {
		data := LoginViewData{
			PageData:  PageData{Title: "Login - vocabflow"},
			LoginName: username,
		}
		status := http.StatusUnauthorized
		var verr validation.ValidationError
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			data.Error = ErrInvalidLogin
		case errors.As(err, &verr):
			data.Error = verr.Message
			status = http.StatusBadRequest
		case gateway.IsNetwork(err):
			data.Error = ErrBackendUnavailable
			status = http.StatusBadGateway
			h.middleware.logger.Error("login failed", "error", err)
		default:
			data.Error = ErrInternalServerError
			status = http.StatusInternalServerError
			h.middleware.logger.Error("login failed", "error", err)
		}
		render(w, h.templates, status, "login.tmpl", data)
		return
	}

	http.SetCookie(w, security.CreateSessionCookie(r, token, ws.ExpiresAt))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout ends the web session and the backend session behind it
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if ws := GetSessionFromContext(r.Context()); ws != nil {
		h.middleware.endSession(w, r, ws)
	} else {
		http.SetCookie(w, security.CreateDeleteCookie(r))
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
