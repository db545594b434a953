package routes

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/formwiz/form-wizard/app"
	"github.com/formwiz/form-wizard/httpx"
	"github.com/formwiz/form-wizard/log"
	"github.com/formwiz/form-wizard/model"
)

func CreateForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form := model.FormRecord{}
		err := render.DecodeJSON(r.Body, &form)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		if strings.TrimSpace(form.Title) == "" {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "request.validate", "form title must not be empty")
			return
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		var formId int
		err = tx.QueryRowContext(r.Context(), `
			INSERT INTO form (title, description, image_source, visible)
			VALUES (?, ?, ?, ?)
			RETURNING id`,
			form.Title,
			form.Description,
			form.ImageSource,
			form.Visible,
		).Scan(&formId)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_form", err)
			return
		}

		sections := form.Sections
		if len(sections) == 0 {
			// a fresh form starts with one section named after it
			sections = []model.SectionRecord{{Title: form.Title}}
		}
		for i, s := range sections {
			_, err = tx.ExecContext(r.Context(), `
				INSERT INTO section (form_id, title, position)
				VALUES (?, ?, ?)`,
				formId, s.Title, i+1,
			)
			if err != nil {
				httpx.LogInternalError(w, "db.insert_form.sections", err)
				return
			}
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, "db.insert_form.commit", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id": formId,
		})
	}
}

func ListForms(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := app.QueryContext(r.Context(), `
			SELECT f.id, f.title, f.description, f.image_source, f.visible
			FROM form f
			ORDER BY f.id`)
		if err != nil {
			httpx.LogInternalError(w, "db.get_forms", err)
			return
		}
		defer rows.Close()

		forms := []model.FormRecord{}
		for rows.Next() {
			f := model.FormRecord{}
			err = rows.Scan(&f.ID, &f.Title, &f.Description, &f.ImageSource, &f.Visible)
			if err != nil {
				httpx.LogInternalError(w, "db.get_forms.scan", err)
				return
			}

			forms = append(forms, f)
		}

		render.JSON(w, r, forms)
	}
}

// GetFormWithQuestions returns a form with every section's questions split
// into the plain and dropdown-typed collections the client merges back by id.
func GetFormWithQuestions(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formId, err := strconv.Atoi(chi.URLParam(r, "formId"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.formId")
			return
		}

		form := model.FormRecord{ID: formId}
		err = app.QueryRowContext(r.Context(), `
			SELECT f.title, f.description, f.image_source, f.visible
			FROM form f
			WHERE f.id = ?`,
			formId,
		).Scan(&form.Title, &form.Description, &form.ImageSource, &form.Visible)
		if errors.Is(err, sql.ErrNoRows) {
			httpx.LogNotFound(w, "get_form", formId)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.get_form", err)
			return
		}

		sectionRows, err := app.QueryContext(r.Context(), `
			SELECT s.id, s.title
			FROM section s
			WHERE s.form_id = ?
			ORDER BY s.position`,
			formId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.get_form.sections", err)
			return
		}
		defer sectionRows.Close()

		sectionIdx := map[int]int{}
		for sectionRows.Next() {
			s := model.SectionRecord{
				Questions: []model.QuestionRecord{},
				Dropdowns: []model.QuestionRecord{},
			}
			err = sectionRows.Scan(&s.ID, &s.Title)
			if err != nil {
				httpx.LogInternalError(w, "db.get_form.sections.scan", err)
				return
			}
			sectionIdx[s.ID] = len(form.Sections)
			form.Sections = append(form.Sections, s)
		}

		questions, sectionOf, err := queryFormQuestions(app, r, formId)
		if err != nil {
			httpx.LogInternalError(w, "db.get_form.questions", err)
			return
		}

		for _, q := range questions {
			i, ok := sectionIdx[sectionOf[q.ID]]
			if !ok {
				httpx.LogInternalError(w, "db.get_form.questions.section", errors.New("question references unknown section"))
				return
			}
			if q.NewInputType == string(model.KindDropdown) {
				form.Sections[i].Dropdowns = append(form.Sections[i].Dropdowns, q)
			} else {
				form.Sections[i].Questions = append(form.Sections[i].Questions, q)
			}
		}

		render.JSON(w, r, form)
	}
}

func UpdateForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form := model.FormRecord{}
		err := render.DecodeJSON(r.Body, &form)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		res, err := app.ExecContext(r.Context(), `
			UPDATE form
			SET
				title = ?,
				description = ?,
				image_source = ?,
				visible = ?
			WHERE id = ?`,
			form.Title,
			form.Description,
			form.ImageSource,
			form.Visible,
			form.ID,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.update_form", err)
			return
		}
		n, err := res.RowsAffected()
		if err != nil {
			httpx.LogInternalError(w, "db.update_form.verify", err)
			return
		}
		if n < 1 {
			httpx.LogNotFound(w, "update_form", form.ID)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// SetFormVisibility backs both /form/hide/{id} and /form/show/{id}.
func SetFormVisibility(app app.App, visible bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		res, err := app.ExecContext(r.Context(), `
			UPDATE form SET visible = ? WHERE id = ?`,
			visible, formId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.update_form.visibility", err)
			return
		}
		n, err := res.RowsAffected()
		if err != nil {
			httpx.LogInternalError(w, "db.update_form.visibility.verify", err)
			return
		}
		if n < 1 {
			httpx.LogNotFound(w, "update_form.visibility", formId)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// DeleteForm refuses to destroy a form that still owns questions; the caller
// must delete all questions first.
func DeleteForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		var questionCount int
		err = app.QueryRowContext(r.Context(), `
			SELECT COUNT(*) FROM question WHERE form_id = ?`,
			formId,
		).Scan(&questionCount)
		if err != nil {
			httpx.LogInternalError(w, "db.delete_form.count_questions", err)
			return
		}
		if questionCount > 0 {
			httpx.LogStatusMsg(w, http.StatusConflict, log.DebugLevel,
				"db.delete_form.conflict", "form still owns %d questions", questionCount)
			return
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		_, err = tx.ExecContext(r.Context(), `
			DELETE FROM submission WHERE form_id = ?`,
			formId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.delete_form.submissions", err)
			return
		}

		_, err = tx.ExecContext(r.Context(), `
			DELETE FROM section WHERE form_id = ?`,
			formId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.delete_form.sections", err)
			return
		}

		res, err := tx.ExecContext(r.Context(), `
			DELETE FROM form WHERE id = ?`,
			formId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.delete_form", err)
			return
		}
		n, err := res.RowsAffected()
		if err != nil {
			httpx.LogInternalError(w, "db.delete_form.verify", err)
			return
		}
		if n < 1 {
			httpx.LogNotFound(w, "delete_form", formId)
			return
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, "db.delete_form.commit", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// queryFormQuestions loads all questions of a form in id order, with their
// choice lists, and reports which section each belongs to.
func queryFormQuestions(app app.App, r *http.Request, formId int) ([]model.QuestionRecord, map[int]int, error) {
	rows, err := app.QueryContext(r.Context(), `
		SELECT q.id, q.section_id, q.prompt, q.input_type, q.page
		FROM question q
		WHERE q.form_id = ?
		ORDER BY q.id`,
		formId,
	)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	questions := []model.QuestionRecord{}
	sectionOf := map[int]int{}
	idx := map[int]int{}
	for rows.Next() {
		q := model.QuestionRecord{NewDropdownChoices: []string{}, FormID: formId}
		var sectionId int
		err = rows.Scan(&q.ID, &sectionId, &q.NewQuestion, &q.NewInputType, &q.Page)
		if err != nil {
			return nil, nil, err
		}
		sectionOf[q.ID] = sectionId
		idx[q.ID] = len(questions)
		questions = append(questions, q)
	}

	choiceRows, err := app.QueryContext(r.Context(), `
		SELECT c.question_id, c.choice
		FROM question_choice c
		INNER JOIN question q ON (q.id = c.question_id)
		WHERE q.form_id = ?
		ORDER BY c.question_id, c.position`,
		formId,
	)
	if err != nil {
		return nil, nil, err
	}
	defer choiceRows.Close()

	for choiceRows.Next() {
		var questionId int
		var choice string
		err = choiceRows.Scan(&questionId, &choice)
		if err != nil {
			return nil, nil, err
		}
		if i, ok := idx[questionId]; ok {
			questions[i].NewDropdownChoices = append(questions[i].NewDropdownChoices, choice)
		}
	}

	return questions, sectionOf, nil
}
