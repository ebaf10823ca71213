package presenter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vocabflow/internal/models"
)

func itemState(it *models.Item) *models.SessionState {
	st := models.NewSessionState(models.NotebookScope())
	st.Screen = models.ScreenItem
	st.CurrentItem = it
	return st
}

func TestItemFillBlankShowsOnlyInput(t *testing.T) {
	p := New("http://backend.test")
	st := itemState(&models.Item{ID: 7, VocabularyID: 7, Kind: models.KindFillBlank, Content: "The ___ is red.", Audio: "/media/car.mp3"})

	v := p.Item(st)
	assert.Equal(t, ModalityText, v.Modality)
	assert.Equal(t, "The ___ is red.", v.Prompt)
	assert.Empty(t, v.Options)
	assert.False(t, v.HasAudio(), "fill-blank questions never play audio")
	assert.False(t, v.HasImage())
	assert.False(t, v.CanSubmit)

	st.Selected = &models.Answer{Text: "car"}
	v = p.Item(st)
	assert.Equal(t, "car", v.Text)
	assert.True(t, v.CanSubmit)

	st.InFlight = true
	v = p.Item(st)
	assert.False(t, v.CanSubmit)
	assert.True(t, v.Submitting)
}

func TestItemListeningShowsOptionsAndAudio(t *testing.T) {
	p := New("http://backend.test/")
	st := itemState(&models.Item{ID: 1, Kind: models.KindListening, Audio: "/media/cat.mp3",
		Options: []models.Option{{ID: 1, Label: "cat"}, {ID: 2, Label: "dog"}}})
	st.Selected = &models.Answer{OptionID: 2}

	v := p.Item(st)
	assert.Equal(t, ModalityChoice, v.Modality)
	assert.Equal(t, "http://backend.test/media/cat.mp3", v.AudioURL)
	require.Len(t, v.Options, 2)
	assert.False(t, v.Options[0].Selected)
	assert.True(t, v.Options[1].Selected)
	assert.Empty(t, v.Word, "the answer is not shown on a question")
	assert.True(t, v.CanSubmit)
}

func TestItemFlashcardFaceThenQuiz(t *testing.T) {
	p := New("")
	card := &models.Item{ID: 11, CardID: 11, Kind: models.KindFlashcard, QuizType: models.KindFillBlank,
		Word: "apple", Phonetic: "/ˈæp.əl/", Meaning: "a round fruit", Image: "/media/apple.png"}
	st := models.NewSessionState(models.TopicScope(3))
	st.Screen = models.ScreenItem
	st.CurrentItem = card

	face := p.Item(st)
	assert.Equal(t, ModalityFace, face.Modality)
	assert.Equal(t, "apple", face.Word)
	assert.Equal(t, "/media/apple.png", face.ImageURL)
	assert.False(t, face.HasAudio())
	assert.False(t, face.CanSubmit)

	st.QuizStarted = true
	quiz := p.Item(st)
	assert.Equal(t, ModalityText, quiz.Modality)
	assert.Empty(t, quiz.Word)
	assert.Empty(t, quiz.ImageURL)
	assert.Equal(t, "a round fruit", quiz.Prompt)
}

func TestItemMediaNeverStale(t *testing.T) {
	p := New("http://backend.test")
	withAudio := itemState(&models.Item{ID: 1, Kind: models.KindListening, Audio: "/media/a.mp3",
		Options: []models.Option{{ID: 1, Label: "a"}}})
	without := itemState(&models.Item{ID: 2, Kind: models.KindListening,
		Options: []models.Option{{ID: 2, Label: "b"}}})

	assert.True(t, p.Item(withAudio).HasAudio())
	v := p.Item(without)
	assert.False(t, v.HasAudio())
	assert.Empty(t, v.AudioURL)
}

func TestItemOffScreenIsEmpty(t *testing.T) {
	st := models.NewSessionState(models.NotebookScope())
	assert.Equal(t, ItemView{}, New("").Item(st))
	assert.Equal(t, ItemView{}, New("").Item(nil))
}

func TestResultReadsAnsweredSnapshot(t *testing.T) {
	p := New("")
	st := models.NewSessionState(models.NotebookScope())
	st.Screen = models.ScreenWrong
	st.Answered = &models.Item{ID: 1, VocabularyID: 1, Word: "cat", Meaning: "a small feline"}
	st.CurrentItem = &models.Item{ID: 2, Word: "dog", Meaning: "a loyal animal"}
	st.Result = &models.SubmissionResult{IsCorrect: false, Word: "cat", Meaning: "a small feline"}

	v := p.Result(st)
	assert.False(t, v.Correct)
	assert.Equal(t, "cat", v.Word)
	assert.Equal(t, "a small feline", v.Meaning)
	assert.False(t, v.CanSave, "notebook words are already saved")

	// review verdicts carry only is_correct
	st.Result = &models.SubmissionResult{IsCorrect: false}
	v = p.Result(st)
	assert.Equal(t, "cat", v.Word)
	assert.Equal(t, "a small feline", v.Meaning)
}

func TestResultSaveAndLevel(t *testing.T) {
	level := 3
	st := models.NewSessionState(models.TopicScope(1))
	st.Screen = models.ScreenCorrect
	st.Answered = &models.Item{ID: 11, CardID: 11, VocabularyID: 70, Word: "apple"}
	st.Result = &models.SubmissionResult{IsCorrect: true, NewLevel: &level}

	v := New("").Result(st)
	assert.True(t, v.Correct)
	assert.True(t, v.HasLevel)
	assert.Equal(t, 3, v.NewLevel)
	assert.True(t, v.CanSave)
	assert.Equal(t, int64(70), v.VocabularyID)

	st.Saved = true
	v = New("").Result(st)
	assert.True(t, v.Saved)
	assert.False(t, v.CanSave)
}

func TestResultSkipped(t *testing.T) {
	st := models.NewSessionState(models.NotebookScope())
	st.Screen = models.ScreenWrong
	st.Answered = &models.Item{ID: 4, Word: "pear"}
	st.Result = &models.SubmissionResult{IsCorrect: true, Skipped: true, Word: "pear"}

	v := New("").Result(st)
	assert.True(t, v.Skipped)
	assert.False(t, v.Correct)
}

func TestScreenExactlyOneVisible(t *testing.T) {
	p := New("")
	answered := &models.Item{ID: 1, Word: "cat"}
	current := &models.Item{ID: 1, Kind: models.KindFillBlank}

	tests := []struct {
		name   string
		mutate func(st *models.SessionState)
		want   models.Screen
	}{
		{"loading", func(st *models.SessionState) {}, models.ScreenLoading},
		{"item", func(st *models.SessionState) {
			st.Screen = models.ScreenItem
			st.CurrentItem = current
		}, models.ScreenItem},
		{"correct", func(st *models.SessionState) {
			st.Screen = models.ScreenCorrect
			st.Answered = answered
			st.Result = &models.SubmissionResult{IsCorrect: true}
		}, models.ScreenCorrect},
		{"wrong", func(st *models.SessionState) {
			st.Screen = models.ScreenWrong
			st.Answered = answered
			st.Result = &models.SubmissionResult{}
		}, models.ScreenWrong},
		{"finished", func(st *models.SessionState) { st.Screen = models.ScreenFinished }, models.ScreenFinished},
		{"item without item falls back to loading", func(st *models.SessionState) {
			st.Screen = models.ScreenItem
		}, models.ScreenLoading},
		{"result without verdict falls back to loading", func(st *models.SessionState) {
			st.Screen = models.ScreenWrong
		}, models.ScreenLoading},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := models.NewSessionState(models.NotebookScope())
			tt.mutate(st)
			v := p.Screen(st)
			assert.Equal(t, tt.want, v.Screen)
			assert.Equal(t, 1, v.Visible())
		})
	}
}

func TestScreenFinishedRendersNoItemFields(t *testing.T) {
	st := models.NewSessionState(models.TopicScope(2))
	st.Screen = models.ScreenFinished

	v := New("").Screen(st)
	assert.True(t, v.Finished)
	assert.Nil(t, v.Item)
	assert.Nil(t, v.Result)
	assert.Equal(t, int64(2), v.TopicID)
}

func TestScreenBlockingErrorOffersRetry(t *testing.T) {
	st := models.NewSessionState(models.NotebookScope())
	st.LastError = "connection refused"

	v := New("").Screen(st)
	assert.True(t, v.Loading)
	assert.True(t, v.CanRetry)
	assert.Equal(t, "connection refused", v.Error)
}

func TestDashboard(t *testing.T) {
	v := Dashboard(models.Stats{
		TotalWords:    40,
		MasteredCount: 12,
		Streak:        3,
		Accuracy:      140,
		DailyStats: []models.DailyStat{
			{StudyDate: "2026-03-09", Total: 10, Correct: 5},
			{StudyDate: "2026-03-10", Total: 20, Correct: 20},
			{StudyDate: "yesterday", Total: 0, Correct: 0},
		},
	})

	assert.Equal(t, 100, v.Accuracy)
	assert.Equal(t, 28, v.Remaining)
	require.Len(t, v.Days, 3)
	assert.Equal(t, DayBar{Label: "9/3", Total: 10, Correct: 5, Wrong: 5, TotalPercent: 50, CorrectPercent: 25}, v.Days[0])
	assert.Equal(t, 0, v.Days[1].Wrong)
	assert.Equal(t, 100, v.Days[1].TotalPercent)
	assert.Equal(t, "yesterday", v.Days[2].Label)
	assert.Equal(t, 0, v.Days[2].TotalPercent)
	assert.True(t, v.NoMistakes)
}

func TestDashboardClampsRemainingAndWrong(t *testing.T) {
	v := Dashboard(models.Stats{
		TotalWords:    5,
		MasteredCount: 8,
		DailyStats:    []models.DailyStat{{StudyDate: "2026-03-09", Total: 3, Correct: 4}},
	})
	assert.Equal(t, 0, v.Remaining)
	require.Len(t, v.Days, 1)
	assert.Equal(t, 0, v.Days[0].Wrong)
}

func TestDashboardMostWrong(t *testing.T) {
	v := Dashboard(models.Stats{MostWrong: []models.WrongWord{{Word: "though", MeaningSentence: "despite", WrongCount: 4}}})
	assert.False(t, v.NoMistakes)
	assert.Equal(t, []WrongWordView{{Word: "though", Meaning: "despite", Count: 4}}, v.MostWrong)
}

func TestDayLabel(t *testing.T) {
	assert.Equal(t, "1/12", DayLabel("2025-12-01"))
	assert.Equal(t, "31/1", DayLabel("2026-01-31T10:00:00Z"))
	assert.Equal(t, "", DayLabel(""))
}

func TestTopicsClampProgress(t *testing.T) {
	views := New("http://backend.test").Topics([]models.Topic{
		{ID: 1, Title: "Fruit", Progress: 130, Image: "topics/fruit.png"},
		{ID: 2, Title: "Travel", Progress: -5},
	})
	require.Len(t, views, 2)
	assert.Equal(t, 100, views[0].Progress)
	assert.True(t, views[0].Done)
	assert.Equal(t, "http://backend.test/topics/fruit.png", views[0].ImageURL)
	assert.Equal(t, 0, views[1].Progress)
	assert.Empty(t, views[1].ImageURL)
}

func TestNotebookKeepsNoteVerbatim(t *testing.T) {
	views := New("").Notebook([]models.NotebookEntry{
		{ID: 5, Note: "test note", Vocabulary: models.Vocabulary{Word: "apple", MeaningSentence: "a fruit"}},
		{ID: 6, Note: "<b>bold</b>", Vocabulary: models.Vocabulary{Word: "pear"}},
	})
	require.Len(t, views, 2)
	assert.Equal(t, "test note", views[0].Note)
	assert.Equal(t, "<b>bold</b>", views[1].Note, "escaping is left to the template")
}
