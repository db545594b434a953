package builder

import (
	"context"
	"testing"

	"github.com/pkg/errors"

	"github.com/formwiz/form-wizard/model"
)

type fakeQuestionAPI struct {
	nextID    int
	questions []model.QuestionRecord
	deleteErr error
	submitted []model.QuestionRecord
}

func (f *fakeQuestionAPI) CreateQuestion(ctx context.Context, rec model.QuestionRecord) (int, error) {
	f.nextID++
	rec.ID = f.nextID
	f.questions = append(f.questions, rec)
	return rec.ID, nil
}

func (f *fakeQuestionAPI) UpdateQuestion(ctx context.Context, rec model.QuestionRecord) error {
	for i, q := range f.questions {
		if q.ID == rec.ID {
			f.questions[i] = rec
			return nil
		}
	}
	return errors.New("no such question")
}

func (f *fakeQuestionAPI) DeleteQuestion(ctx context.Context, id int) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for i, q := range f.questions {
		if q.ID == id {
			f.questions = append(f.questions[:i], f.questions[i+1:]...)
			return nil
		}
	}
	return errors.New("no such question")
}

func (f *fakeQuestionAPI) QuestionsByForm(ctx context.Context, formID int) ([]model.QuestionRecord, error) {
	return f.questions, nil
}

func (f *fakeQuestionAPI) SubmitAllQuestions(ctx context.Context, recs []model.QuestionRecord) error {
	f.submitted = recs
	return nil
}

func draftText(prompt string) Draft {
	return Draft{Prompt: prompt, Kind: model.KindText}
}

func TestAddQuestion_AssignsIdAndResetsDraft(t *testing.T) {
	b := New(&fakeQuestionAPI{}, 7)

	b.SetPrompt("How was your day?")
	b.SetKind(model.KindText)

	rec, err := b.AddQuestion(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.ID != 1 {
		t.Errorf("expected assigned id 1, got %d", rec.ID)
	}
	if rec.Page != 1 || rec.FormID != 7 {
		t.Errorf("unexpected record: %+v", rec)
	}
	if d := b.Draft(); d.Prompt != "" || d.Kind != "" || len(d.Choices) != 0 {
		t.Errorf("draft should be reset after a successful add, got %+v", d)
	}
	if len(b.QuestionsForPage()) != 1 {
		t.Errorf("expected the new question on the current page")
	}
}

func TestAddQuestion_ValidatesDraft(t *testing.T) {
	b := New(&fakeQuestionAPI{}, 7)

	if _, err := b.AddQuestion(context.Background()); !errors.Is(err, ErrEmptyPrompt) {
		t.Errorf("expected ErrEmptyPrompt, got %v", err)
	}

	b.SetPrompt("Pick one")
	if _, err := b.AddQuestion(context.Background()); !errors.Is(err, ErrNoKind) {
		t.Errorf("expected ErrNoKind, got %v", err)
	}

	b.SetKind(model.KindDropdown)
	if _, err := b.AddQuestion(context.Background()); !errors.Is(err, ErrNoChoices) {
		t.Errorf("expected ErrNoChoices, got %v", err)
	}

	// blank slots alone do not count
	b.AddChoice()
	if _, err := b.AddQuestion(context.Background()); !errors.Is(err, ErrNoChoices) {
		t.Errorf("expected ErrNoChoices for blank-only choices, got %v", err)
	}

	b.SetChoice(0, "yes")
	if _, err := b.AddQuestion(context.Background()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestChangePage_FiltersAndResetsDraft(t *testing.T) {
	b := New(&fakeQuestionAPI{}, 7)

	b.SetPrompt("Page one question")
	b.SetKind(model.KindText)
	if _, err := b.AddQuestion(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	b.SetPrompt("half-typed")
	b.ChangePage(2)
	if d := b.Draft(); d.Prompt != "" || d.Kind != "" || len(d.Choices) != 0 {
		t.Errorf("draft should not leak across pages, got %+v", d)
	}
	if len(b.QuestionsForPage()) != 0 {
		t.Errorf("page 2 should be empty, got %+v", b.QuestionsForPage())
	}

	b.SetPrompt("Page two question")
	b.SetKind(model.KindText)
	if _, err := b.AddQuestion(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	b.ChangePage(1)
	page1 := b.QuestionsForPage()
	if len(page1) != 1 || page1[0].NewQuestion != "Page one question" {
		t.Errorf("unexpected page 1 questions: %+v", page1)
	}
}

func TestEditQuestion_InPlace(t *testing.T) {
	b := New(&fakeQuestionAPI{}, 7)

	for _, prompt := range []string{"first", "second", "third"} {
		b.SetPrompt(prompt)
		b.SetKind(model.KindText)
		if _, err := b.AddQuestion(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	err := b.EditQuestion(context.Background(), 2, Draft{
		Prompt:  "second, reworded",
		Kind:    model.KindRadio,
		Choices: []string{"yes", "no"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	questions := b.Questions()
	if questions[1].ID != 2 || questions[1].NewQuestion != "second, reworded" {
		t.Errorf("expected in-place edit at position 1, got %+v", questions[1])
	}
	if questions[0].NewQuestion != "first" || questions[2].NewQuestion != "third" {
		t.Errorf("neighbors must be untouched: %+v", questions)
	}
	if questions[1].Page != 1 {
		t.Errorf("edit must keep the original page, got %d", questions[1].Page)
	}
}

func TestEditQuestion_UnknownId(t *testing.T) {
	b := New(&fakeQuestionAPI{}, 7)
	if err := b.EditQuestion(context.Background(), 42, draftText("x")); !errors.Is(err, ErrUnknownID) {
		t.Errorf("expected ErrUnknownID, got %v", err)
	}
}

func TestRemoveQuestion_RemoteFirst(t *testing.T) {
	api := &fakeQuestionAPI{}
	b := New(api, 7)

	b.SetPrompt("doomed")
	b.SetKind(model.KindText)
	rec, err := b.AddQuestion(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	api.deleteErr = errors.New("responses reference this question")
	if err := b.RemoveQuestion(context.Background(), rec.ID); err == nil {
		t.Fatalf("expected error")
	}
	if len(b.Questions()) != 1 {
		t.Errorf("a refused deletion must leave the local list untouched")
	}

	api.deleteErr = nil
	if err := b.RemoveQuestion(context.Background(), rec.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(b.Questions()) != 0 {
		t.Errorf("expected the question to be gone, got %+v", b.Questions())
	}
}

func TestRemoveQuestion_UnknownId(t *testing.T) {
	b := New(&fakeQuestionAPI{}, 7)
	if err := b.RemoveQuestion(context.Background(), 42); !errors.Is(err, ErrUnknownID) {
		t.Errorf("expected ErrUnknownID, got %v", err)
	}
}

func TestSubmitAll_SendsWholeSet(t *testing.T) {
	api := &fakeQuestionAPI{}
	b := New(api, 7)

	b.SetPrompt("one")
	b.SetKind(model.KindText)
	b.AddQuestion(context.Background())

	b.ChangePage(2)
	b.SetPrompt("two")
	b.SetKind(model.KindText)
	b.AddQuestion(context.Background())

	if err := b.SubmitAll(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(api.submitted) != 2 {
		t.Errorf("expected both pages' questions to be submitted, got %d", len(api.submitted))
	}
}

func TestLoad_PopulatesLocalList(t *testing.T) {
	api := &fakeQuestionAPI{
		questions: []model.QuestionRecord{
			{ID: 1, FormID: 7, NewQuestion: "existing", NewInputType: "text", Page: 1},
		},
	}
	b := New(api, 7)

	if err := b.Load(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(b.Questions()) != 1 || b.Questions()[0].NewQuestion != "existing" {
		t.Errorf("unexpected questions after load: %+v", b.Questions())
	}
}
