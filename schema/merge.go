// Package schema turns the two-collection wire layout of a fetched form into
// the single ordered question sequence the renderer works with, and defines
// the per-kind answer completeness policy.
package schema

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/formwiz/form-wizard/model"
)

// Integrity errors. These are defects in upstream data: the render is
// rejected, nothing is silently dropped or resolved.
var (
	ErrDuplicateID    = errors.New("duplicate question id")
	ErrUnknownKind    = errors.New("unknown question kind")
	ErrMissingChoices = errors.New("choice question without choices")
	ErrBadPage        = errors.New("question page must be positive")
)

// MergeQuestions combines the plain and dropdown-typed sub-collections of a
// section into one sequence ordered ascending by id. Identifiers are assigned
// monotonically at creation time, so id order is creation order. The sort is
// stable; a duplicate id across the two inputs is an integrity error.
func MergeQuestions(plain, dropdowns []model.Question) ([]model.Question, error) {
	merged := make([]model.Question, 0, len(plain)+len(dropdowns))
	merged = append(merged, plain...)
	merged = append(merged, dropdowns...)

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].ID < merged[j].ID
	})

	for i := 1; i < len(merged); i++ {
		if merged[i].ID == merged[i-1].ID {
			return nil, errors.Wrapf(ErrDuplicateID, "id %d", merged[i].ID)
		}
	}
	return merged, nil
}

func toQuestions(records []model.QuestionRecord) []model.Question {
	questions := make([]model.Question, len(records))
	for i, r := range records {
		questions[i] = r.Question()
	}
	return questions
}

// MergeSection merges one wire section and validates every question in it.
func MergeSection(rec model.SectionRecord) (model.Section, error) {
	merged, err := MergeQuestions(toQuestions(rec.Questions), toQuestions(rec.Dropdowns))
	if err != nil {
		return model.Section{}, errors.Wrapf(err, "section %q", rec.Title)
	}

	for i, q := range merged {
		if !q.Kind.Valid() {
			return model.Section{}, errors.Wrapf(ErrUnknownKind, "question %d: %q", q.ID, q.Kind)
		}
		if q.Page < 1 {
			return model.Section{}, errors.Wrapf(ErrBadPage, "question %d", q.ID)
		}
		if q.Kind.HasChoices() {
			if len(q.Choices) == 0 {
				return model.Section{}, errors.Wrapf(ErrMissingChoices, "question %d", q.ID)
			}
		} else {
			// choices are ignored for free-text questions
			merged[i].Choices = nil
		}
	}

	return model.Section{
		ID:        rec.ID,
		Title:     rec.Title,
		Questions: merged,
	}, nil
}

// BuildForm is the adapter at the storage boundary: it converts a fetched
// wire form into the internal model, merging each section's split question
// collections. Duplicate ids are also rejected across sections, since the
// identifier space is form-wide.
func BuildForm(rec model.FormRecord) (model.Form, error) {
	form := model.Form{
		ID:          rec.ID,
		Title:       rec.Title,
		Description: rec.Description,
		ImageSource: rec.ImageSource,
		Visible:     rec.Visible,
	}

	seen := make(map[int]bool)
	for _, sr := range rec.Sections {
		section, err := MergeSection(sr)
		if err != nil {
			return model.Form{}, err
		}
		for _, q := range section.Questions {
			if seen[q.ID] {
				return model.Form{}, errors.Wrapf(ErrDuplicateID, "id %d across sections", q.ID)
			}
			seen[q.ID] = true
		}
		form.Sections = append(form.Sections, section)
	}
	return form, nil
}
