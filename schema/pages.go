package schema

import (
	"strings"

	"github.com/formwiz/form-wizard/model"
)

// PageCount returns the number of pages of a form, i.e. the highest page any
// question belongs to. A form without questions still has one page.
func PageCount(form model.Form) int {
	last := 1
	for _, s := range form.Sections {
		for _, q := range s.Questions {
			if q.Page > last {
				last = q.Page
			}
		}
	}
	return last
}

// QuestionsForPage returns the questions shown on page n, preserving section
// order and, within a section, merged id order.
func QuestionsForPage(form model.Form, n int) []model.Question {
	var questions []model.Question
	for _, s := range form.Sections {
		for _, q := range s.Questions {
			if q.Page == n {
				questions = append(questions, q)
			}
		}
	}
	return questions
}

// AnswerSatisfies reports whether value is a qualifying answer for q:
// free text must be non-empty after trimming, dropdown and radio answers
// must name one of the question's choices.
func AnswerSatisfies(q model.Question, value string) bool {
	if q.Kind.HasChoices() {
		for _, c := range q.Choices {
			if value == c {
				return true
			}
		}
		return false
	}
	return strings.TrimSpace(value) != ""
}
