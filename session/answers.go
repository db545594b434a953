package session

import (
	"github.com/formwiz/form-wizard/model"
	"github.com/formwiz/form-wizard/schema"
)

// AnswerStore holds the respondent's current answer per question for one
// form-filling session. It survives page navigation and is only discarded
// with the session itself.
type AnswerStore struct {
	values map[int]string
}

func NewAnswerStore() *AnswerStore {
	return &AnswerStore{values: make(map[int]string)}
}

// Set overwrites or inserts the answer for a question. An empty value clears
// the stored answer.
func (s *AnswerStore) Set(questionID int, value string) {
	if value == "" {
		delete(s.values, questionID)
		return
	}
	s.values[questionID] = value
}

// Get returns the current answer and whether one is set.
func (s *AnswerStore) Get(questionID int) (string, bool) {
	v, ok := s.values[questionID]
	return v, ok
}

func (s *AnswerStore) Len() int {
	return len(s.values)
}

// ForPage returns the answers for the questions shown on page n, in the
// page's display order. Unanswered questions are skipped.
func (s *AnswerStore) ForPage(form model.Form, n int) []model.Answer {
	var answers []model.Answer
	for _, q := range schema.QuestionsForPage(form, n) {
		if v, ok := s.values[q.ID]; ok {
			answers = append(answers, model.Answer{QuestionID: q.ID, Value: v})
		}
	}
	return answers
}

// All serializes the store in form display order, page by page.
func (s *AnswerStore) All(form model.Form) []model.Answer {
	var answers []model.Answer
	for n := 1; n <= schema.PageCount(form); n++ {
		answers = append(answers, s.ForPage(form, n)...)
	}
	return answers
}
