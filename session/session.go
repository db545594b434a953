// Package session drives one respondent's pass through a form: which page is
// visible, whether Next/Submit are allowed, and what has been answered so far.
// A FormSession is owned by a single logical flow and is not safe for
// concurrent use; late results of an overtaken fetch are discarded by an
// epoch check rather than cancelled at the transport layer.
package session

import (
	"context"

	"github.com/gofrs/uuid"
	"github.com/pkg/errors"

	"github.com/formwiz/form-wizard/model"
	"github.com/formwiz/form-wizard/schema"
)

// FormAPI is the slice of the storage collaborator the renderer needs.
type FormAPI interface {
	FormWithQuestions(ctx context.Context, formID int) (model.FormRecord, error)
	SubmitAnswers(ctx context.Context, sub model.SubmissionRecord) error
}

type State int

const (
	StateLoading State = iota
	StateNotVisible
	StateReady
	StateSubmitting
	StateSubmitted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateNotVisible:
		return "not visible"
	case StateReady:
		return "ready"
	case StateSubmitting:
		return "submitting"
	case StateSubmitted:
		return "submitted"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

var (
	ErrNotReady        = errors.New("session is not accepting input")
	ErrPageIncomplete  = errors.New("current page has unanswered questions")
	ErrFirstPage       = errors.New("already on the first page")
	ErrLastPage        = errors.New("already on the last page")
	ErrNotLastPage     = errors.New("submit is only allowed on the last page")
	ErrUnknownQuestion = errors.New("question is not on the current page")
	ErrInvalidChoice   = errors.New("answer is not one of the question's choices")
	ErrStaleResult     = errors.New("stale result discarded after navigation")
)

// FormSession is the pagination/validation state machine plus the answer
// store it gates on.
type FormSession struct {
	ID uuid.UUID

	api      FormAPI
	state    State
	form     model.Form
	page     int
	lastPage int
	answers  *AnswerStore
	errMsg   string
	epoch    uint64
}

func NewFormSession(api FormAPI) *FormSession {
	return &FormSession{
		ID:      uuid.Must(uuid.NewV4()),
		api:     api,
		state:   StateLoading,
		answers: NewAnswerStore(),
	}
}

func (s *FormSession) State() State { return s.state }

func (s *FormSession) Form() model.Form { return s.form }

func (s *FormSession) Page() int { return s.page }

func (s *FormSession) LastPage() int { return s.lastPage }

// ErrorMessage is the user-visible message of the last failure, if any.
func (s *FormSession) ErrorMessage() string { return s.errMsg }

// Answers exposes the session's answer store.
func (s *FormSession) Answers() *AnswerStore { return s.answers }

// Load fetches the form schema and moves the session to Ready on page 1.
// A form whose visible flag is off never reaches Ready. If the session was
// abandoned while the fetch was in flight, the result is discarded.
func (s *FormSession) Load(ctx context.Context, formID int) error {
	epoch := s.epoch

	rec, err := s.api.FormWithQuestions(ctx, formID)
	if epoch != s.epoch {
		return ErrStaleResult
	}
	if err != nil {
		s.state = StateFailed
		s.errMsg = "could not load the form"
		return errors.Wrap(err, "session.load")
	}

	form, err := schema.BuildForm(rec)
	if err != nil {
		s.state = StateFailed
		s.errMsg = "the form data is inconsistent"
		return errors.Wrap(err, "session.load")
	}

	if !form.Visible {
		s.state = StateNotVisible
		return nil
	}

	s.form = form
	s.page = 1
	s.lastPage = schema.PageCount(form)
	s.state = StateReady
	s.errMsg = ""
	return nil
}

// Abandon drops the session's state. Any in-flight fetch or submission
// result arriving afterwards is ignored. There is no resume point.
func (s *FormSession) Abandon() {
	s.epoch++
	s.state = StateLoading
	s.form = model.Form{}
	s.page = 0
	s.lastPage = 0
	s.answers = NewAnswerStore()
	s.errMsg = ""
}

func (s *FormSession) questionOnCurrentPage(questionID int) (model.Question, bool) {
	for _, q := range schema.QuestionsForPage(s.form, s.page) {
		if q.ID == questionID {
			return q, true
		}
	}
	return model.Question{}, false
}

// SetAnswer records the answer for a question on the current page. Only the
// visible page is editable. Choice answers must name one of the question's
// choices; an empty value clears the stored answer.
func (s *FormSession) SetAnswer(questionID int, value string) error {
	if s.state != StateReady {
		return ErrNotReady
	}
	q, ok := s.questionOnCurrentPage(questionID)
	if !ok {
		return errors.Wrapf(ErrUnknownQuestion, "question %d", questionID)
	}
	if value != "" && q.Kind.HasChoices() && !schema.AnswerSatisfies(q, value) {
		return errors.Wrapf(ErrInvalidChoice, "question %d: %q", questionID, value)
	}
	s.answers.Set(questionID, value)
	return nil
}

// PageComplete reports whether every question on page n has a qualifying
// answer in the store.
func (s *FormSession) PageComplete(n int) bool {
	for _, q := range schema.QuestionsForPage(s.form, n) {
		v, ok := s.answers.Get(q.ID)
		if !ok || !schema.AnswerSatisfies(q, v) {
			return false
		}
	}
	return true
}

// NextEnabled mirrors the gating of the Next control.
func (s *FormSession) NextEnabled() bool {
	return s.state == StateReady && s.page < s.lastPage && s.PageComplete(s.page)
}

// SubmitEnabled mirrors the gating of the Submit control.
func (s *FormSession) SubmitEnabled() bool {
	return s.state == StateReady && s.page == s.lastPage && s.PageComplete(s.page)
}

// Next advances to the following page. It is refused while the current page
// is incomplete.
func (s *FormSession) Next() error {
	if s.state != StateReady {
		return ErrNotReady
	}
	if s.page >= s.lastPage {
		return ErrLastPage
	}
	if !s.PageComplete(s.page) {
		return ErrPageIncomplete
	}
	s.page++
	return nil
}

// Previous goes back one page. Backward navigation is never blocked by
// validation.
func (s *FormSession) Previous() error {
	if s.state != StateReady {
		return ErrNotReady
	}
	if s.page <= 1 {
		return ErrFirstPage
	}
	s.page--
	return nil
}

// Submit serializes the answer store and hands it to the storage
// collaborator. On failure the session returns to Ready on the last page
// with the answers intact, so a retry re-sends the same data.
func (s *FormSession) Submit(ctx context.Context) error {
	if s.state != StateReady {
		return ErrNotReady
	}
	if s.page != s.lastPage {
		return ErrNotLastPage
	}
	if !s.PageComplete(s.page) {
		return ErrPageIncomplete
	}

	epoch := s.epoch
	s.state = StateSubmitting

	err := s.api.SubmitAnswers(ctx, model.SubmissionRecord{
		SessionID: s.ID.String(),
		FormID:    s.form.ID,
		Answers:   s.answers.All(s.form),
	})
	if epoch != s.epoch {
		return ErrStaleResult
	}
	if err != nil {
		s.state = StateReady
		s.errMsg = "submission failed, please try again"
		return errors.Wrap(err, "session.submit")
	}

	s.state = StateSubmitted
	s.errMsg = ""
	return nil
}
