// Package terminal renders study screens and pages for the command line
// client and runs an interactive session loop.
package terminal

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"vocabflow/internal/presenter"
)

// Renderer turns presenter views into styled text. Colors are dropped
// automatically when the output is not a terminal.
type Renderer struct {
	title   lipgloss.Style
	subtle  lipgloss.Style
	good    lipgloss.Style
	bad     lipgloss.Style
	errText lipgloss.Style
	card    lipgloss.Style
	option  lipgloss.Style
	chosen  lipgloss.Style
	bar     lipgloss.Style
}

// NewRenderer creates a renderer for output written to w
func NewRenderer(w io.Writer) *Renderer {
	r := lipgloss.NewRenderer(w)
	return &Renderer{
		title:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		subtle:  r.NewStyle().Foreground(lipgloss.Color("245")).Italic(true),
		good:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		bad:     r.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		errText: r.NewStyle().Foreground(lipgloss.Color("203")),
		card:    r.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("39")).Padding(0, 1),
		option:  r.NewStyle().PaddingLeft(2),
		chosen:  r.NewStyle().PaddingLeft(2).Bold(true).Foreground(lipgloss.Color("39")),
		bar:     r.NewStyle().Foreground(lipgloss.Color("39")),
	}
}

// Screen renders the one visible section of a study screen
func (r *Renderer) Screen(v presenter.ScreenView) string {
	var b strings.Builder
	switch {
	case v.Item != nil:
		b.WriteString(r.item(*v.Item))
		if v.Error != "" {
			b.WriteString("\n" + r.errText.Render(v.Error))
		}
	case v.Result != nil:
		b.WriteString(r.result(*v.Result))
		if v.Error != "" {
			b.WriteString("\n" + r.errText.Render(v.Error))
		}
	case v.Finished:
		b.WriteString(r.card.Render(r.good.Render("All done!") + "\nThere is nothing left to study here right now."))
	default:
		if v.Error != "" {
			b.WriteString(r.errText.Render("Could not reach the vocabulary server: " + v.Error))
			b.WriteString("\n" + r.subtle.Render("press enter to try again, :quit to leave"))
		} else {
			b.WriteString(r.subtle.Render("Loading..."))
		}
	}
	return b.String()
}

func (r *Renderer) item(v presenter.ItemView) string {
	var lines []string
	switch v.Modality {
	case presenter.ModalityFace:
		lines = append(lines, r.title.Render(v.Word))
		for _, s := range []string{v.Phonetic, v.Definition, v.Meaning} {
			if s != "" {
				lines = append(lines, s)
			}
		}
		if v.HasAudio() {
			lines = append(lines, r.subtle.Render("audio: "+v.AudioURL))
		}
		if v.HasImage() {
			lines = append(lines, r.subtle.Render("image: "+v.ImageURL))
		}
		lines = append(lines, "", r.subtle.Render("press enter to start the quiz"))
	case presenter.ModalityChoice:
		if v.Instruction != "" {
			lines = append(lines, r.subtle.Render(v.Instruction))
		}
		if v.Prompt != "" {
			lines = append(lines, r.title.Render(v.Prompt))
		}
		if v.HasAudio() {
			lines = append(lines, r.subtle.Render("audio: "+v.AudioURL))
		}
		for i, o := range v.Options {
			style := r.option
			marker := " "
			if o.Selected {
				style = r.chosen
				marker = ">"
			}
			lines = append(lines, style.Render(fmt.Sprintf("%s %d) %s", marker, i+1, o.Label)))
		}
		lines = append(lines, "", r.subtle.Render("type an option number, :skip or :quit"))
	default:
		if v.Instruction != "" {
			lines = append(lines, r.subtle.Render(v.Instruction))
		}
		lines = append(lines, r.title.Render(v.Prompt))
		lines = append(lines, "", r.subtle.Render("type your answer, :skip or :quit"))
	}
	return r.card.Render(strings.Join(lines, "\n"))
}

func (r *Renderer) result(v presenter.ResultView) string {
	var head string
	switch {
	case v.Correct:
		head = r.good.Render("Correct!")
	case v.Skipped:
		head = r.bad.Render("Skipped")
	default:
		head = r.bad.Render("Not quite")
	}
	lines := []string{head, r.title.Render(v.Word)}
	if v.Phonetic != "" {
		lines = append(lines, v.Phonetic)
	}
	if v.Meaning != "" {
		lines = append(lines, v.Meaning)
	}
	if v.HasLevel {
		lines = append(lines, fmt.Sprintf("Level %d", v.NewLevel))
	}
	if v.Saved {
		lines = append(lines, r.good.Render("Saved to your notebook"))
	}
	hint := "press enter for the next word"
	if v.CanSave {
		hint += ", :save to keep it in your notebook"
	}
	lines = append(lines, "", r.subtle.Render(hint))
	return r.card.Render(strings.Join(lines, "\n"))
}

// Topics renders the topic list with progress bars
func (r *Renderer) Topics(topics []presenter.TopicView) string {
	if len(topics) == 0 {
		return r.subtle.Render("No topics yet.")
	}
	var b strings.Builder
	b.WriteString(r.title.Render("Topics") + "\n")
	for _, t := range topics {
		fmt.Fprintf(&b, "%4d  %-24s %s %3d%%\n", t.ID, t.Title, r.progress(t.Progress), t.Progress)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (r *Renderer) progress(percent int) string {
	const cells = 20
	filled := min(max(percent, 0), 100) * cells / 100
	empty := strings.Repeat("░", cells-filled)
	if filled == 0 {
		return empty
	}
	return r.bar.Render(strings.Repeat("█", filled)) + empty
}

// Notebook renders saved words with their notes
func (r *Renderer) Notebook(entries []presenter.NotebookEntryView) string {
	if len(entries) == 0 {
		return r.subtle.Render("Your notebook is empty.")
	}
	var b strings.Builder
	b.WriteString(r.title.Render("Notebook") + "\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "%4d  %s", e.ID, e.Word)
		if e.Phonetic != "" {
			fmt.Fprintf(&b, " %s", e.Phonetic)
		}
		if e.Meaning != "" {
			fmt.Fprintf(&b, "  %s", e.Meaning)
		}
		b.WriteString("\n")
		if e.Note != "" {
			b.WriteString("      " + r.subtle.Render("note: "+e.Note) + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// Dashboard renders the stats overview, daily bars and most-missed words
func (r *Renderer) Dashboard(v presenter.DashboardView) string {
	var b strings.Builder
	b.WriteString(r.title.Render("Dashboard") + "\n")
	fmt.Fprintf(&b, "Words learned %d   Mastered %d (%d to go)   Streak %d days   Accuracy %d%%\n",
		v.TotalWords, v.MasteredCount, v.Remaining, v.Streak, v.Accuracy)

	if len(v.Days) > 0 {
		b.WriteString("\n")
		for _, d := range v.Days {
			fmt.Fprintf(&b, "%6s %s %d/%d %s\n", d.Label, r.progress(d.TotalPercent), d.Correct, d.Total,
				r.bad.Render(fmt.Sprintf("%d wrong", d.Wrong)))
		}
	}

	b.WriteString("\n" + r.title.Render("Most missed") + "\n")
	if v.NoMistakes {
		b.WriteString(r.subtle.Render("No mistakes yet. Keep it up!"))
	} else {
		for _, w := range v.MostWrong {
			fmt.Fprintf(&b, "  %s  %s (%d)\n", w.Word, w.Meaning, w.Count)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
