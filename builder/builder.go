// Package builder implements the admin workflow that assembles a form's
// question set, one page and one question at a time. The builder keeps a
// local copy of the question list and mutates it only after the storage
// collaborator has confirmed the corresponding remote change.
package builder

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/formwiz/form-wizard/model"
)

// QuestionAPI is the slice of the storage collaborator the builder needs.
type QuestionAPI interface {
	CreateQuestion(ctx context.Context, rec model.QuestionRecord) (int, error)
	UpdateQuestion(ctx context.Context, rec model.QuestionRecord) error
	DeleteQuestion(ctx context.Context, id int) error
	QuestionsByForm(ctx context.Context, formID int) ([]model.QuestionRecord, error)
	SubmitAllQuestions(ctx context.Context, recs []model.QuestionRecord) error
}

var (
	ErrEmptyPrompt   = errors.New("question prompt must not be empty")
	ErrNoKind        = errors.New("question kind must be selected")
	ErrNoChoices     = errors.New("choice question needs at least one choice")
	ErrUnknownID     = errors.New("no question with that id")
	ErrDeleteRefused = errors.New("question is referenced by existing responses")
)

// Draft is the question being composed. It has no id until the storage
// collaborator assigns one on creation. Empty-choice drafts are allowed
// mid-edit; validation happens when the draft is submitted.
type Draft struct {
	Prompt  string
	Kind    model.QuestionKind
	Choices []string
}

// Builder edits the question set of one form.
type Builder struct {
	api       QuestionAPI
	formID    int
	page      int
	questions []model.QuestionRecord
	draft     Draft
}

func New(api QuestionAPI, formID int) *Builder {
	return &Builder{
		api:    api,
		formID: formID,
		page:   1,
	}
}

// Load fetches the form's current question set.
func (b *Builder) Load(ctx context.Context) error {
	questions, err := b.api.QuestionsByForm(ctx, b.formID)
	if err != nil {
		return errors.Wrap(err, "builder.load")
	}
	b.questions = questions
	return nil
}

func (b *Builder) Page() int { return b.page }

func (b *Builder) FormID() int { return b.formID }

func (b *Builder) Draft() Draft { return b.draft }

// Questions returns the full local question list, all pages.
func (b *Builder) Questions() []model.QuestionRecord { return b.questions }

// QuestionsForPage returns exactly the questions belonging to the page being
// edited, in creation order.
func (b *Builder) QuestionsForPage() []model.QuestionRecord {
	var filtered []model.QuestionRecord
	for _, q := range b.questions {
		if q.Page == b.page {
			filtered = append(filtered, q)
		}
	}
	return filtered
}

// ChangePage switches which page's questions are being edited and resets the
// in-progress draft; a draft never leaks across pages.
func (b *Builder) ChangePage(n int) {
	b.page = n
	b.draft = Draft{}
}

func (b *Builder) SetPrompt(prompt string) { b.draft.Prompt = prompt }

func (b *Builder) SetKind(kind model.QuestionKind) { b.draft.Kind = kind }

// AddChoice appends an empty choice slot to the draft.
func (b *Builder) AddChoice() {
	b.draft.Choices = append(b.draft.Choices, "")
}

func (b *Builder) SetChoice(i int, value string) {
	if i >= 0 && i < len(b.draft.Choices) {
		b.draft.Choices[i] = value
	}
}

func (b *Builder) RemoveChoice(i int) {
	if i >= 0 && i < len(b.draft.Choices) {
		b.draft.Choices = append(b.draft.Choices[:i], b.draft.Choices[i+1:]...)
	}
}

func validateDraft(d Draft) error {
	if strings.TrimSpace(d.Prompt) == "" {
		return ErrEmptyPrompt
	}
	if !d.Kind.Valid() {
		return ErrNoKind
	}
	if d.Kind.HasChoices() {
		filled := 0
		for _, c := range d.Choices {
			if strings.TrimSpace(c) != "" {
				filled++
			}
		}
		if filled == 0 {
			return ErrNoChoices
		}
	}
	return nil
}

func (d Draft) record(formID, page int) model.QuestionRecord {
	choices := d.Choices
	if !d.Kind.HasChoices() {
		choices = nil
	}
	return model.QuestionRecord{
		FormID:             formID,
		NewQuestion:        d.Prompt,
		NewInputType:       string(d.Kind),
		NewDropdownChoices: choices,
		Page:               page,
	}
}

// AddQuestion validates the draft, sends it to the storage collaborator and
// appends it, with the assigned id, to the local list of the current page.
// On success the draft is reset.
func (b *Builder) AddQuestion(ctx context.Context) (model.QuestionRecord, error) {
	if err := validateDraft(b.draft); err != nil {
		return model.QuestionRecord{}, err
	}

	rec := b.draft.record(b.formID, b.page)
	id, err := b.api.CreateQuestion(ctx, rec)
	if err != nil {
		return model.QuestionRecord{}, errors.Wrap(err, "builder.add_question")
	}
	rec.ID = id

	b.questions = append(b.questions, rec)
	b.draft = Draft{}
	return rec, nil
}

func (b *Builder) indexOf(id int) int {
	for i, q := range b.questions {
		if q.ID == id {
			return i
		}
	}
	return -1
}

// EditQuestion replaces the stored question in place. The local list entry
// keeps its position, so the id-based display order is not disturbed.
func (b *Builder) EditQuestion(ctx context.Context, id int, updated Draft) error {
	i := b.indexOf(id)
	if i < 0 {
		return errors.Wrapf(ErrUnknownID, "id %d", id)
	}
	if err := validateDraft(updated); err != nil {
		return err
	}

	rec := updated.record(b.formID, b.questions[i].Page)
	rec.ID = id
	if err := b.api.UpdateQuestion(ctx, rec); err != nil {
		return errors.Wrap(err, "builder.edit_question")
	}

	b.questions[i] = rec
	b.draft = Draft{}
	return nil
}

// RemoveQuestion deletes remotely first and drops the local entry only after
// the storage collaborator has confirmed. A refused deletion leaves the
// local list untouched.
func (b *Builder) RemoveQuestion(ctx context.Context, id int) error {
	i := b.indexOf(id)
	if i < 0 {
		return errors.Wrapf(ErrUnknownID, "id %d", id)
	}
	if err := b.api.DeleteQuestion(ctx, id); err != nil {
		return errors.Wrap(err, "builder.remove_question")
	}
	b.questions = append(b.questions[:i], b.questions[i+1:]...)
	return nil
}

// SubmitAll sends the assembled question set to the storage collaborator at
// the end of the builder flow.
func (b *Builder) SubmitAll(ctx context.Context) error {
	if err := b.api.SubmitAllQuestions(ctx, b.questions); err != nil {
		return errors.Wrap(err, "builder.submit_all")
	}
	return nil
}
