// Package presenter turns session state into view models. Every function
// here is pure: the same state always renders the same view.
package presenter

import (
	"net/url"
	"strings"
)

// Modality is the one way the user can interact with an item
type Modality string

const (
	ModalityNone   Modality = ""
	ModalityFace   Modality = "face"
	ModalityChoice Modality = "choice"
	ModalityText   Modality = "text"
)

// Presenter renders views. Media paths from the backend are resolved
// against MediaBase so they load from the backend host.
type Presenter struct {
	mediaBase *url.URL
}

// New creates a presenter. An empty mediaBase leaves media paths as-is.
func New(mediaBase string) *Presenter {
	p := &Presenter{}
	if mediaBase == "" {
		return p
	}
	if u, err := url.Parse(strings.TrimRight(mediaBase, "/") + "/"); err == nil && u.IsAbs() {
		p.mediaBase = u
	}
	return p
}

// mediaURL resolves a backend media path. Empty stays empty so the template
// never renders an element pointing at nothing.
func (p *Presenter) mediaURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if ref.IsAbs() || p.mediaBase == nil {
		return ref.String()
	}
	if strings.HasPrefix(raw, "/") {
		return p.mediaBase.ResolveReference(ref).String()
	}
	return p.mediaBase.JoinPath(ref.Path).String()
}
