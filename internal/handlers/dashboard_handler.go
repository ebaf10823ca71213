package handlers

import (
	"errors"
	"html/template"
	"net/http"

	"vocabflow/internal/gateway"
	"vocabflow/internal/presenter"
	"vocabflow/internal/service"
)

// DashboardHandler serves the topic list and the stats dashboard
type DashboardHandler struct {
	statsService *service.StatsService
	studyService *service.StudyService
	digest       service.DigestSender
	presenter    *presenter.Presenter
	middleware   *Middleware
	templates    *template.Template
}

// NewDashboardHandler creates a new dashboard handler. digest may be nil.
func NewDashboardHandler(statsService *service.StatsService, studyService *service.StudyService, digest service.DigestSender, p *presenter.Presenter, middleware *Middleware, templates *template.Template) *DashboardHandler {
	return &DashboardHandler{
		statsService: statsService,
		studyService: studyService,
		digest:       digest,
		presenter:    p,
		middleware:   middleware,
		templates:    templates,
	}
}

func isUnauthorized(err error) bool {
	return errors.Is(err, gateway.ErrUnauthorized)
}

// Home lists topics and the sessions the user can resume
func (h *DashboardHandler) Home(w http.ResponseWriter, r *http.Request) {
	backend, err := h.middleware.Backend(r)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "", err)
		return
	}
	topics, err := h.statsService.Topics(r.Context(), backend)
	if err != nil {
		h.middleware.BackendFailed(w, r, err)
		return
	}
	h.middleware.SyncCredentials(r, backend)

	ws := GetSessionFromContext(r.Context())
	resume, err := h.studyService.ActiveScopes(r.Context(), ws)
	if err != nil {
		// the topic list is still useful without it
		h.middleware.logger.Error("failed to list study sessions", "error", err)
	}

	render(w, h.templates, http.StatusOK, "topics.tmpl", TopicsViewData{
		PageData: h.middleware.Page(r, "Topics"),
		Topics:   h.presenter.Topics(topics),
		Resume:   resume,
	})
}

// ShowDashboard renders the stats page
func (h *DashboardHandler) ShowDashboard(w http.ResponseWriter, r *http.Request) {
	backend, err := h.middleware.Backend(r)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "", err)
		return
	}
	d, err := h.statsService.Dashboard(r.Context(), backend)
	if err != nil {
		h.middleware.BackendFailed(w, r, err)
		return
	}
	h.middleware.SyncCredentials(r, backend)

	data := DashboardViewData{
		PageData:      h.middleware.Page(r, "Dashboard"),
		Dashboard:     presenter.Dashboard(*d.Stats),
		Email:         d.Profile.Email,
		DigestEnabled: h.digest != nil && h.digest.IsEnabled(),
	}
	switch r.URL.Query().Get("digest") {
	case flashDigestSent:
		data.Notice = NoticeDigestSent
	case flashDigestFailed:
		data.Error = ErrDigestNotSent
	}
	render(w, h.templates, http.StatusOK, "dashboard.tmpl", data)
}

// SendDigest emails the stats summary to the user
func (h *DashboardHandler) SendDigest(w http.ResponseWriter, r *http.Request) {
	backend, err := h.middleware.Backend(r)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "", err)
		return
	}
	if err := h.statsService.SendDigest(r.Context(), backend); err != nil {
		if isUnauthorized(err) {
			h.middleware.BackendFailed(w, r, err)
			return
		}
		h.middleware.logger.Warn("stats digest failed", "error", err)
		http.Redirect(w, r, "/dashboard?digest="+flashDigestFailed, http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/dashboard?digest="+flashDigestSent, http.StatusSeeOther)
}
