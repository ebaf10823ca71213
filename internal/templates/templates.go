// Package templates holds the server's HTML templates. They are embedded in
// the binary; a directory on disk can replace them during development.
package templates

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"strings"
	"time"

	"vocabflow/internal/models"
)

//go:embed *.tmpl
var embedded embed.FS

// Load parses every page template. With an empty dir the embedded copies
// are used.
func Load(dir string) (*template.Template, error) {
	var fsys fs.FS = embedded
	if dir != "" {
		fsys = os.DirFS(dir)
	}
	tmpl, err := template.New("").Funcs(FuncMap()).ParseFS(fsys, "*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return tmpl, nil
}

// FuncMap returns the helpers available to every template
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"formatDate": func(t time.Time) string {
			return t.Format("Jan 2, 2006")
		},
		"studyPath": StudyPath,
		"scopeTitle": func(s models.Scope) string {
			if s.Kind == models.ScopeNotebook {
				return "Notebook review"
			}
			return fmt.Sprintf("Topic %d", s.TopicID)
		},
		"upper": strings.ToUpper,
	}
}

// StudyPath is the page URL of a study scope
func StudyPath(s models.Scope) string {
	if s.Kind == models.ScopeTopic {
		return fmt.Sprintf("/study/topics/%d", s.TopicID)
	}
	return "/study/notebook"
}
