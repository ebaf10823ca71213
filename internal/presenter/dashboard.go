package presenter

import (
	"fmt"
	"strings"
	"time"

	"vocabflow/internal/models"
)

// DayBar is one day of the study chart, scaled against the busiest day
type DayBar struct {
	Label          string
	Total          int
	Correct        int
	Wrong          int
	TotalPercent   int
	CorrectPercent int
}

// WrongWordView is one row of the most-missed list
type WrongWordView struct {
	Word    string
	Meaning string
	Count   int
}

// DashboardView is the stats page
type DashboardView struct {
	TotalWords    int
	MasteredCount int
	// Remaining is words learned but not yet mastered, never negative.
	Remaining int
	Streak    int
	Accuracy  int
	Days      []DayBar
	MostWrong []WrongWordView
	// NoMistakes is true when there is nothing to show in MostWrong.
	NoMistakes bool
}

// Dashboard renders backend stats
func Dashboard(stats models.Stats) DashboardView {
	v := DashboardView{
		TotalWords:    max(stats.TotalWords, 0),
		MasteredCount: max(stats.MasteredCount, 0),
		Streak:        max(stats.Streak, 0),
		Accuracy:      min(max(stats.Accuracy, 0), 100),
	}
	v.Remaining = max(v.TotalWords-v.MasteredCount, 0)

	peak := 0
	for _, d := range stats.DailyStats {
		peak = max(peak, d.Total, d.Correct)
	}
	for _, d := range stats.DailyStats {
		v.Days = append(v.Days, DayBar{
			Label:          DayLabel(d.StudyDate),
			Total:          d.Total,
			Correct:        d.Correct,
			Wrong:          max(d.Total-d.Correct, 0),
			TotalPercent:   percent(d.Total, peak),
			CorrectPercent: percent(d.Correct, peak),
		})
	}

	for _, w := range stats.MostWrong {
		v.MostWrong = append(v.MostWrong, WrongWordView{Word: w.Word, Meaning: w.MeaningSentence, Count: w.WrongCount})
	}
	v.NoMistakes = len(v.MostWrong) == 0
	return v
}

// DayLabel formats a YYYY-MM-DD date as D/M. Anything else is returned as-is.
func DayLabel(date string) string {
	date = strings.TrimSpace(date)
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, date); err == nil {
			return fmt.Sprintf("%d/%d", t.Day(), int(t.Month()))
		}
	}
	return date
}

func percent(n, of int) int {
	if of <= 0 || n <= 0 {
		return 0
	}
	return min(n*100/of, 100)
}

// TopicView is one card on the topic list
type TopicView struct {
	ID          int64
	Title       string
	Description string
	ImageURL    string
	Progress    int
	Done        bool
}

// Topics renders the topic list
func (p *Presenter) Topics(topics []models.Topic) []TopicView {
	views := make([]TopicView, 0, len(topics))
	for _, t := range topics {
		progress := t.ClampedProgress()
		views = append(views, TopicView{
			ID:          t.ID,
			Title:       t.Title,
			Description: t.Description,
			ImageURL:    p.mediaURL(t.Image),
			Progress:    progress,
			Done:        progress == 100,
		})
	}
	return views
}

// NotebookEntryView is one saved word on the notebook page
type NotebookEntryView struct {
	ID         int64
	Word       string
	Phonetic   string
	Meaning    string
	TopicTitle string
	AudioURL   string
	Note       string
}

// Notebook renders notebook entries
func (p *Presenter) Notebook(entries []models.NotebookEntry) []NotebookEntryView {
	views := make([]NotebookEntryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, NotebookEntryView{
			ID:         e.ID,
			Word:       e.Vocabulary.Word,
			Phonetic:   e.Vocabulary.Phonetic,
			Meaning:    e.Vocabulary.MeaningSentence,
			TopicTitle: e.Vocabulary.TopicTitle,
			AudioURL:   p.mediaURL(e.Vocabulary.Audio),
			Note:       e.Note,
		})
	}
	return views
}
