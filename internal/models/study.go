package models

// Topic is a themed group of vocabulary
type Topic struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
	Progress    int    `json:"progress,omitempty"`
}

// ClampedProgress returns Progress limited to 0..100
func (t Topic) ClampedProgress() int {
	return min(max(t.Progress, 0), 100)
}

// DailyStat is one day of answers
type DailyStat struct {
	StudyDate string `json:"study_date"`
	Total     int    `json:"total"`
	Correct   int    `json:"correct"`
}

// WrongWord is a frequently missed word
type WrongWord struct {
	Word            string `json:"word"`
	MeaningSentence string `json:"meaning_sentence"`
	WrongCount      int    `json:"wrong_count"`
}

// Stats is the study overview returned by the backend
type Stats struct {
	TotalWords    int         `json:"total_words"`
	MasteredCount int         `json:"mastered_count"`
	Streak        int         `json:"streak"`
	Accuracy      int         `json:"accuracy"`
	DailyStats    []DailyStat `json:"daily_stats"`
	MostWrong     []WrongWord `json:"most_wrong"`
}

// Vocabulary is the word part of a notebook entry
type Vocabulary struct {
	ID              int64  `json:"id"`
	Word            string `json:"word"`
	Phonetic        string `json:"phonetic"`
	Audio           string `json:"audio"`
	MeaningSentence string `json:"meaning_sentence"`
	TopicTitle      string `json:"topic_title"`
}

// NotebookEntry is a saved word with the user's note
type NotebookEntry struct {
	ID         int64      `json:"id"`
	Note       string     `json:"note"`
	Vocabulary Vocabulary `json:"vocabulary"`
}
