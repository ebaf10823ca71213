package handlers

import (
	"errors"
	"html/template"
	"net/http"
	"strconv"

	"vocabflow/internal/presenter"
	"vocabflow/internal/service"
	"vocabflow/internal/validation"
)

// NotebookHandler serves the notebook page
type NotebookHandler struct {
	notebookService *service.NotebookService
	presenter       *presenter.Presenter
	middleware      *Middleware
	templates       *template.Template
}

// NewNotebookHandler creates a new notebook handler
func NewNotebookHandler(notebookService *service.NotebookService, p *presenter.Presenter, middleware *Middleware, templates *template.Template) *NotebookHandler {
	return &NotebookHandler{
		notebookService: notebookService,
		presenter:       p,
		middleware:      middleware,
		templates:       templates,
	}
}

// ShowNotebook lists the saved words
func (h *NotebookHandler) ShowNotebook(w http.ResponseWriter, r *http.Request) {
	backend, err := h.middleware.Backend(r)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "", err)
		return
	}
	entries, err := h.notebookService.List(r.Context(), backend)
	if err != nil {
		h.middleware.BackendFailed(w, r, err)
		return
	}
	h.middleware.SyncCredentials(r, backend)

	data := NotebookViewData{
		PageData: h.middleware.Page(r, "Notebook"),
		Entries:  h.presenter.Notebook(entries),
	}
	switch r.URL.Query().Get("error") {
	case flashNoteInvalid:
		data.Error = "Notes can be at most " + strconv.Itoa(validation.MaxNoteLength) + " characters"
	case flashNotebookUnavailable:
		data.Error = ErrBackendUnavailable
	case flashEntryNotFound:
		data.Error = ErrEntryNotFound
	}
	render(w, h.templates, http.StatusOK, "notebook.tmpl", data)
}

func entryIDFromRequest(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

// UpdateNote saves the note of one entry
func (h *NotebookHandler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	id, ok := entryIDFromRequest(r)
	if !ok {
		http.Error(w, "Invalid entry ID", http.StatusBadRequest)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, ErrInvalidFormData, http.StatusBadRequest)
		return
	}
	backend, err := h.middleware.Backend(r)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "", err)
		return
	}

	_, err = h.notebookService.UpdateNote(r.Context(), backend, id, r.FormValue("note"))
	var verr validation.ValidationError
	switch {
	case err == nil:
		h.middleware.SyncCredentials(r, backend)
		http.Redirect(w, r, "/notebook#entry-"+strconv.FormatInt(id, 10), http.StatusSeeOther)
	case errors.As(err, &verr):
		http.Redirect(w, r, "/notebook?error="+flashNoteInvalid, http.StatusSeeOther)
	default:
		h.notebookFailed(w, r, err)
	}
}

// DeleteEntry removes one entry
func (h *NotebookHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := entryIDFromRequest(r)
	if !ok {
		http.Error(w, "Invalid entry ID", http.StatusBadRequest)
		return
	}
	backend, err := h.middleware.Backend(r)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "", err)
		return
	}
	if err := h.notebookService.Delete(r.Context(), backend, id); err != nil {
		h.notebookFailed(w, r, err)
		return
	}
	h.middleware.SyncCredentials(r, backend)
	http.Redirect(w, r, "/notebook", http.StatusSeeOther)
}

func (h *NotebookHandler) notebookFailed(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, service.ErrEntryNotFound) {
		http.Redirect(w, r, "/notebook?error="+flashEntryNotFound, http.StatusSeeOther)
		return
	}
	h.middleware.logger.Warn("notebook change failed", "path", r.URL.Path, "error", err)
	if isUnauthorized(err) {
		h.middleware.BackendFailed(w, r, err)
		return
	}
	http.Redirect(w, r, "/notebook?error="+flashNotebookUnavailable, http.StatusSeeOther)
}
