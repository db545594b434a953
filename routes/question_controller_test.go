package routes

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/formwiz/form-wizard/model"
)

func TestCreateQuestion_Validation(t *testing.T) {
	h := testHandler(newTestApp(t))
	formId := createTestForm(t, h, "Feedback")

	cases := []struct {
		name string
		rec  model.QuestionRecord
	}{
		{"empty prompt", model.QuestionRecord{FormID: formId, NewInputType: "text", Page: 1}},
		{"unknown kind", model.QuestionRecord{FormID: formId, NewQuestion: "Q?", NewInputType: "checkbox", Page: 1}},
		{"bad page", model.QuestionRecord{FormID: formId, NewQuestion: "Q?", NewInputType: "text", Page: 0}},
		{"dropdown without choices", model.QuestionRecord{FormID: formId, NewQuestion: "Q?", NewInputType: "dropdown", Page: 1}},
		{"blank-only choices", model.QuestionRecord{FormID: formId, NewQuestion: "Q?", NewInputType: "radio button", NewDropdownChoices: []string{" ", ""}, Page: 1}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			w := doJSON(t, h, http.MethodPost, "/question/create", c.rec)
			if w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", w.Code)
			}
		})
	}
}

func TestCreateQuestion_UnknownForm(t *testing.T) {
	h := testHandler(newTestApp(t))

	w := doJSON(t, h, http.MethodPost, "/question/create", model.QuestionRecord{
		FormID: 99, NewQuestion: "Q?", NewInputType: "text", Page: 1,
	})
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestCreateQuestion_LazySectionPerPage(t *testing.T) {
	h := testHandler(newTestApp(t))
	formId := createTestForm(t, h, "Feedback")

	createTestQuestion(t, h, model.QuestionRecord{
		FormID: formId, NewQuestion: "Q1?", NewInputType: "text", Page: 1,
	})
	// page 3 has no section yet, one gets created on the fly
	createTestQuestion(t, h, model.QuestionRecord{
		FormID: formId, NewQuestion: "Q2?", NewInputType: "text", Page: 3,
	})

	w := doJSON(t, h, http.MethodGet, fmt.Sprintf("/form/getFormWithQuestions/%d", formId), nil)
	form := decode[model.FormRecord](t, w)
	if len(form.Sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(form.Sections))
	}
	if form.Sections[1].Title != "Page 3" {
		t.Errorf("expected a lazily created section named after the page, got %q", form.Sections[1].Title)
	}
}

func TestUpdateQuestion_ReplacesChoices(t *testing.T) {
	h := testHandler(newTestApp(t))
	formId := createTestForm(t, h, "Feedback")
	questionId := createTestQuestion(t, h, model.QuestionRecord{
		FormID: formId, NewQuestion: "Pick one", NewInputType: "dropdown",
		NewDropdownChoices: []string{"A", "B"}, Page: 1,
	})

	w := doJSON(t, h, http.MethodPut, "/question/update", model.QuestionRecord{
		ID: questionId, FormID: formId, NewQuestion: "Pick one, reworded",
		NewInputType: "dropdown", NewDropdownChoices: []string{"X", "Y", "Z"}, Page: 1,
	})
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", w.Code, w.Body)
	}

	w = doJSON(t, h, http.MethodGet, fmt.Sprintf("/question/getByForm/%d", formId), nil)
	questions := decode[[]model.QuestionRecord](t, w)
	if len(questions) != 1 {
		t.Fatalf("expected 1 question, got %d", len(questions))
	}
	q := questions[0]
	if q.NewQuestion != "Pick one, reworded" {
		t.Errorf("unexpected prompt: %q", q.NewQuestion)
	}
	if len(q.NewDropdownChoices) != 3 || q.NewDropdownChoices[0] != "X" {
		t.Errorf("expected the old choices to be replaced, got %v", q.NewDropdownChoices)
	}
}

func TestUpdateQuestion_NotFound(t *testing.T) {
	h := testHandler(newTestApp(t))

	w := doJSON(t, h, http.MethodPut, "/question/update", model.QuestionRecord{
		ID: 99, NewQuestion: "Q?", NewInputType: "text", Page: 1,
	})
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestGetQuestionsByForm_OrderedById(t *testing.T) {
	h := testHandler(newTestApp(t))
	formId := createTestForm(t, h, "Feedback")

	for _, prompt := range []string{"first", "second", "third"} {
		createTestQuestion(t, h, model.QuestionRecord{
			FormID: formId, NewQuestion: prompt, NewInputType: "text", Page: 1,
		})
	}

	w := doJSON(t, h, http.MethodGet, fmt.Sprintf("/question/getByForm/%d", formId), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	questions := decode[[]model.QuestionRecord](t, w)
	if len(questions) != 3 {
		t.Fatalf("expected 3 questions, got %d", len(questions))
	}
	for i := 1; i < len(questions); i++ {
		if questions[i].ID <= questions[i-1].ID {
			t.Errorf("questions out of id order: %+v", questions)
		}
	}
}

func TestSubmitAllQuestions_Upserts(t *testing.T) {
	h := testHandler(newTestApp(t))
	formId := createTestForm(t, h, "Feedback")
	existingId := createTestQuestion(t, h, model.QuestionRecord{
		FormID: formId, NewQuestion: "old prompt", NewInputType: "text", Page: 1,
	})

	w := doJSON(t, h, http.MethodPost, "/question/submitAll", []model.QuestionRecord{
		{ID: existingId, FormID: formId, NewQuestion: "new prompt", NewInputType: "text", Page: 1},
		{FormID: formId, NewQuestion: "brand new", NewInputType: "dropdown", NewDropdownChoices: []string{"A"}, Page: 2},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body)
	}
	ids := decode[struct {
		IDs []int `json:"ids"`
	}](t, w).IDs
	if len(ids) != 2 || ids[0] != existingId || ids[1] <= existingId {
		t.Errorf("unexpected ids: %v", ids)
	}

	w = doJSON(t, h, http.MethodGet, fmt.Sprintf("/question/getByForm/%d", formId), nil)
	questions := decode[[]model.QuestionRecord](t, w)
	if len(questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(questions))
	}
	if questions[0].NewQuestion != "new prompt" {
		t.Errorf("expected the existing question to be updated, got %q", questions[0].NewQuestion)
	}
}
