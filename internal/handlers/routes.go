package handlers

import "net/http"

// Routes bundles the handlers served by the web front end
type Routes struct {
	Middleware *Middleware
	Auth       *AuthHandler
	Study      *StudyHandler
	Notebook   *NotebookHandler
	Dashboard  *DashboardHandler
	Health     http.HandlerFunc
}

// Register adds every route to mux
func (rt *Routes) Register(mux *http.ServeMux) {
	m := rt.Middleware
	protect := func(h http.HandlerFunc) http.HandlerFunc {
		return m.RequireAuth(m.CSRFProtect(h))
	}

	mux.HandleFunc("GET /healthz", rt.Health)

	// Public routes
	mux.HandleFunc("GET /login", rt.Auth.ShowLogin)
	mux.HandleFunc("POST /login", m.RateLimit(rt.Auth.Login))
	mux.HandleFunc("POST /logout", protect(rt.Auth.Logout))

	// Topics and stats
	mux.HandleFunc("GET /{$}", m.RequireAuth(rt.Dashboard.Home))
	mux.HandleFunc("GET /dashboard", m.RequireAuth(rt.Dashboard.ShowDashboard))
	mux.HandleFunc("POST /dashboard/digest", protect(rt.Dashboard.SendDigest))

	// Study sessions
	mux.HandleFunc("GET /study/topics/{topicID}", m.RequireAuth(rt.Study.Show))
	mux.HandleFunc("POST /study/topics/{topicID}/{action}", protect(rt.Study.Action))
	mux.HandleFunc("GET /study/notebook", m.RequireAuth(rt.Study.Show))
	mux.HandleFunc("POST /study/notebook/{action}", protect(rt.Study.Action))

	// Notebook
	mux.HandleFunc("GET /notebook", m.RequireAuth(rt.Notebook.ShowNotebook))
	mux.HandleFunc("POST /notebook/{id}/note", protect(rt.Notebook.UpdateNote))
	mux.HandleFunc("POST /notebook/{id}/delete", protect(rt.Notebook.DeleteEntry))
}
