package handlers

import (
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"vocabflow/internal/gateway"
	"vocabflow/internal/models"
	"vocabflow/internal/presenter"
	"vocabflow/internal/service"
	"vocabflow/internal/session"
	"vocabflow/internal/templates"
)

// StudyHandler serves the study and review pages. Every action is a form
// POST that redirects back to the page, which renders the whole state.
type StudyHandler struct {
	studyService *service.StudyService
	presenter    *presenter.Presenter
	middleware   *Middleware
	templates    *template.Template
}

// NewStudyHandler creates a new study handler
func NewStudyHandler(studyService *service.StudyService, p *presenter.Presenter, middleware *Middleware, templates *template.Template) *StudyHandler {
	return &StudyHandler{
		studyService: studyService,
		presenter:    p,
		middleware:   middleware,
		templates:    templates,
	}
}

// scopeFromRequest reads the scope from the route. Topic routes carry a
// topicID; everything else is the notebook.
func scopeFromRequest(r *http.Request) (models.Scope, bool) {
	raw := r.PathValue("topicID")
	if raw == "" {
		return models.NotebookScope(), true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return models.Scope{}, false
	}
	return models.TopicScope(id), true
}

// Show renders the current screen, starting a session if there is none.
// Restarting goes through POST .../start so it stays behind the CSRF check.
func (h *StudyHandler) Show(w http.ResponseWriter, r *http.Request) {
	ws := GetSessionFromContext(r.Context())
	scope, ok := scopeFromRequest(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	path := templates.StudyPath(scope)

	state, err := h.studyService.Open(r.Context(), ws, scope, false)
	if err != nil {
		if state == nil || errors.Is(err, gateway.ErrUnauthorized) {
			h.middleware.BackendFailed(w, r, err)
			return
		}
		h.middleware.logger.Warn("study fetch failed", "scope", scope.Key(), "error", err)
	}

	view := h.presenter.Screen(state)
	if r.URL.Query().Get("error") == flashSaveFailed && view.Result != nil {
		view.Error = ErrSaveToNotebookFailed
	}
	render(w, h.templates, http.StatusOK, "study.tmpl", StudyViewData{
		PageData: h.middleware.Page(r, scopeTitle(scope)),
		Scope:    scope,
		Path:     path,
		Screen:   view,
	})
}

func scopeTitle(s models.Scope) string {
	if s.Kind == models.ScopeNotebook {
		return "Notebook review"
	}
	return "Study"
}

// answerFromForm reads a choice (option_id) or typed answer (answer). The
// second result is false when the form carries neither.
func answerFromForm(r *http.Request) (models.Answer, bool) {
	if raw := r.FormValue("option_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return models.Answer{}, false
		}
		return models.ChoiceAnswer(id), true
	}
	if _, ok := r.Form["answer"]; ok {
		return models.TextAnswer(r.FormValue("answer")), true
	}
	return models.Answer{}, false
}

// Action applies one user event to the session and redirects back
func (h *StudyHandler) Action(w http.ResponseWriter, r *http.Request) {
	ws := GetSessionFromContext(r.Context())
	scope, ok := scopeFromRequest(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, ErrInvalidFormData, http.StatusBadRequest)
		return
	}
	ctx := r.Context()
	path := templates.StudyPath(scope)

	var err error
	switch action := strings.ToLower(r.PathValue("action")); action {
	case "start":
		_, err = h.studyService.Open(ctx, ws, scope, true)
	case "quiz":
		_, err = h.studyService.StartQuiz(ctx, ws, scope)
	case "select":
		answer, ok := answerFromForm(r)
		if !ok {
			http.Redirect(w, r, path, http.StatusSeeOther)
			return
		}
		_, err = h.studyService.Select(ctx, ws, scope, answer)
	case "answer":
		var answer *models.Answer
		if a, ok := answerFromForm(r); ok {
			answer = &a
		}
		_, err = h.studyService.Submit(ctx, ws, scope, answer)
	case "next":
		_, err = h.studyService.Next(ctx, ws, scope)
	case "skip":
		_, err = h.studyService.Skip(ctx, ws, scope)
	case "retry":
		_, err = h.studyService.Retry(ctx, ws, scope)
	case "save":
		_, err = h.studyService.Save(ctx, ws, scope)
		if err != nil && !isInertStudyError(err) && !errors.Is(err, gateway.ErrUnauthorized) {
			h.middleware.logger.Warn("save to notebook failed", "scope", scope.Key(), "error", err)
			http.Redirect(w, r, path+"?error="+flashSaveFailed, http.StatusSeeOther)
			return
		}
	default:
		http.NotFound(w, r)
		return
	}

	switch {
	case err == nil, isInertStudyError(err):
	case errors.Is(err, gateway.ErrUnauthorized):
		h.middleware.BackendFailed(w, r, err)
		return
	default:
		// The state already records the failure for the page to show.
		h.middleware.logger.Warn("study action failed", "scope", scope.Key(), "action", r.PathValue("action"), "error", err)
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}

// isInertStudyError reports errors that leave the session unchanged and
// need no message: the page simply shows the current screen again.
func isInertStudyError(err error) bool {
	return errors.Is(err, session.ErrInvalidTransition) ||
		errors.Is(err, session.ErrInvalidAnswer) ||
		errors.Is(err, session.ErrSubmissionInFlight) ||
		errors.Is(err, session.ErrFinished) ||
		errors.Is(err, service.ErrCannotSave) ||
		errors.Is(err, service.ErrNoStudySession)
}
