package model

// QuestionKind tags the answer input of a question. The values double as the
// wire encoding of the `newInputType` field.
type QuestionKind string

const (
	KindText     QuestionKind = "text"
	KindDropdown QuestionKind = "dropdown"
	KindRadio    QuestionKind = "radio button"
)

func (k QuestionKind) Valid() bool {
	switch k {
	case KindText, KindDropdown, KindRadio:
		return true
	}
	return false
}

// HasChoices reports whether questions of this kind carry a choice list.
func (k QuestionKind) HasChoices() bool {
	return k == KindDropdown || k == KindRadio
}

type Question struct {
	ID      int          `json:"id,omitempty"`
	FormID  int          `json:"formId,omitempty"`
	Prompt  string       `json:"prompt"`
	Kind    QuestionKind `json:"kind"`
	Choices []string     `json:"choices,omitempty"`
	Page    int          `json:"page"`
}

type Section struct {
	ID        int        `json:"id,omitempty"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
}

type Form struct {
	ID          int       `json:"id,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ImageSource string    `json:"imageSource"`
	Visible     bool      `json:"visible"`
	Sections    []Section `json:"sections,omitempty"`
}

type Answer struct {
	QuestionID int    `json:"questionId"`
	Value      string `json:"value"`
}
