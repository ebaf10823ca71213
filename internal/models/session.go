package models

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Screen names the single visible screen of a study session
type Screen string

const (
	ScreenLoading  Screen = "loading"
	ScreenItem     Screen = "item"
	ScreenCorrect  Screen = "correct"
	ScreenWrong    Screen = "wrong"
	ScreenFinished Screen = "finished"
)

// Screens lists every screen in display order
var Screens = []Screen{ScreenLoading, ScreenItem, ScreenCorrect, ScreenWrong, ScreenFinished}

// ScopeKind selects which backend flow a session runs against
type ScopeKind string

const (
	ScopeTopic    ScopeKind = "topic"
	ScopeNotebook ScopeKind = "notebook"
)

// Scope identifies what a session studies
type Scope struct {
	Kind    ScopeKind `json:"kind"`
	TopicID int64     `json:"topic_id,omitempty"`
}

// TopicScope returns the study scope for one topic
func TopicScope(topicID int64) Scope {
	return Scope{Kind: ScopeTopic, TopicID: topicID}
}

// NotebookScope returns the notebook review scope
func NotebookScope() Scope {
	return Scope{Kind: ScopeNotebook}
}

// Key is a stable string form used to index stored sessions
func (s Scope) Key() string {
	if s.Kind == ScopeTopic {
		return fmt.Sprintf("topic:%d", s.TopicID)
	}
	return string(s.Kind)
}

// ParseScopeKey is the inverse of Scope.Key
func ParseScopeKey(key string) (Scope, error) {
	if key == string(ScopeNotebook) {
		return NotebookScope(), nil
	}
	rest, ok := strings.CutPrefix(key, "topic:")
	if !ok {
		return Scope{}, fmt.Errorf("unknown scope key %q", key)
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || id <= 0 {
		return Scope{}, fmt.Errorf("invalid topic in scope key %q", key)
	}
	return TopicScope(id), nil
}

// IDSet is the set of item IDs already shown in a session
type IDSet map[int64]struct{}

// NewIDSet creates a set holding ids
func NewIDSet(ids ...int64) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add inserts id into the set
func (s IDSet) Add(id int64) {
	s[id] = struct{}{}
}

// Has reports whether id is in the set
func (s IDSet) Has(id int64) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the members in ascending order
func (s IDSet) Sorted() []int64 {
	ids := make([]int64, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// CSV renders the set the way the backend's excluded_ids parameter expects
func (s IDSet) CSV() string {
	parts := make([]string, 0, len(s))
	for _, id := range s.Sorted() {
		parts = append(parts, strconv.FormatInt(id, 10))
	}
	return strings.Join(parts, ",")
}

// Clone returns an independent copy
func (s IDSet) Clone() IDSet {
	c := make(IDSet, len(s))
	for id := range s {
		c[id] = struct{}{}
	}
	return c
}

func (s IDSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

func (s *IDSet) UnmarshalJSON(data []byte) error {
	var ids []int64
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*s = NewIDSet(ids...)
	return nil
}

// SessionState is everything a session controller knows about one session
type SessionState struct {
	Scope       Scope   `json:"scope"`
	Screen      Screen  `json:"screen"`
	CurrentItem *Item   `json:"current_item,omitempty"`
	Excluded    IDSet   `json:"excluded"`
	Selected    *Answer `json:"selected,omitempty"`
	QuizStarted bool    `json:"quiz_started,omitempty"`
	// Answered is the item the current result belongs to.
	Answered *Item             `json:"answered,omitempty"`
	Result   *SubmissionResult `json:"result,omitempty"`
	// Saved marks the answered word as added to the notebook.
	Saved      bool   `json:"saved,omitempty"`
	InFlight   bool   `json:"in_flight,omitempty"`
	Generation uint64 `json:"generation"`
	LastError  string `json:"last_error,omitempty"`
}

// NewSessionState returns the state of a session that has not fetched anything yet
func NewSessionState(scope Scope) *SessionState {
	return &SessionState{
		Scope:    scope,
		Screen:   ScreenLoading,
		Excluded: NewIDSet(),
	}
}

// Clone returns a deep copy safe to hand to presenters
func (s *SessionState) Clone() *SessionState {
	c := *s
	c.Excluded = s.Excluded.Clone()
	c.CurrentItem = cloneItem(s.CurrentItem)
	c.Answered = cloneItem(s.Answered)
	if s.Selected != nil {
		a := *s.Selected
		c.Selected = &a
	}
	if s.Result != nil {
		r := *s.Result
		c.Result = &r
	}
	return &c
}

func cloneItem(i *Item) *Item {
	if i == nil {
		return nil
	}
	c := *i
	c.Options = slices.Clone(i.Options)
	return &c
}
