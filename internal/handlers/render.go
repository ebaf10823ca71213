package handlers

import (
	"bytes"
	"html/template"
	"net/http"
)

// render executes a page into a buffer first so a template error never
// leaves a half-written page behind
func render(w http.ResponseWriter, templates *template.Template, status int, name string, data any) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error rendering "+name, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
