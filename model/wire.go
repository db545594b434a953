package model

// Wire shapes of the REST boundary. Questions travel in the builder's record
// layout (newQuestion/newInputType/newDropdownChoices); a fetched form keeps
// plain and dropdown-typed questions in two separate per-section arrays that
// share one identifier space.

type QuestionRecord struct {
	ID                 int      `json:"id,omitempty"`
	FormID             int      `json:"formId,omitempty"`
	NewQuestion        string   `json:"newQuestion"`
	NewInputType       string   `json:"newInputType"`
	NewDropdownChoices []string `json:"newDropdownChoices"`
	Page               int      `json:"page"`
}

type SectionRecord struct {
	ID        int              `json:"id,omitempty"`
	Title     string           `json:"title"`
	Questions []QuestionRecord `json:"questions"`
	Dropdowns []QuestionRecord `json:"dropdowns"`
}

type FormRecord struct {
	ID          int             `json:"id,omitempty"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	ImageSource string          `json:"imageSource"`
	Visible     bool            `json:"visible"`
	Sections    []SectionRecord `json:"sections"`
}

type SubmissionRecord struct {
	SessionID string   `json:"sessionId,omitempty"`
	FormID    int      `json:"formId"`
	Answers   []Answer `json:"answers"`
}

// Question converts a wire record into the internal tagged representation.
// No validation happens here; see schema.BuildForm.
func (r QuestionRecord) Question() Question {
	return Question{
		ID:      r.ID,
		FormID:  r.FormID,
		Prompt:  r.NewQuestion,
		Kind:    QuestionKind(r.NewInputType),
		Choices: r.NewDropdownChoices,
		Page:    r.Page,
	}
}

// Record converts an internal question back into its wire layout.
func (q Question) Record() QuestionRecord {
	return QuestionRecord{
		ID:                 q.ID,
		FormID:             q.FormID,
		NewQuestion:        q.Prompt,
		NewInputType:       string(q.Kind),
		NewDropdownChoices: q.Choices,
		Page:               q.Page,
	}
}
