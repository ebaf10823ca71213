package handlers

import (
	"vocabflow/internal/models"
	"vocabflow/internal/presenter"
)

// PageData is shared by every page that renders the navigation bar
type PageData struct {
	Title     string
	Username  string
	CSRFToken string
}

type LoginViewData struct {
	PageData
	Error     string
	LoginName string
}

type TopicsViewData struct {
	PageData
	Topics []presenter.TopicView
	Resume []models.Scope
}

type StudyViewData struct {
	PageData
	Scope  models.Scope
	Path   string
	Screen presenter.ScreenView
}

type NotebookViewData struct {
	PageData
	Entries []presenter.NotebookEntryView
	Error   string
}

type DashboardViewData struct {
	PageData
	Dashboard     presenter.DashboardView
	Email         string
	DigestEnabled bool
	Notice        string
	Error         string
}
