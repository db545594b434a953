package routes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
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

func validateQuestion(q model.QuestionRecord) error {
	if strings.TrimSpace(q.NewQuestion) == "" {
		return errors.New("question prompt must not be empty")
	}
	kind := model.QuestionKind(q.NewInputType)
	if !kind.Valid() {
		return fmt.Errorf("unknown input type %q", q.NewInputType)
	}
	if q.Page < 1 {
		return errors.New("page must be a positive number")
	}
	if kind.HasChoices() {
		filled := 0
		for _, c := range q.NewDropdownChoices {
			if strings.TrimSpace(c) != "" {
				filled++
			}
		}
		if filled == 0 {
			return errors.New("choice question needs at least one choice")
		}
	}
	return nil
}

// resolveSectionId maps a question's page to the form section at that
// position, creating the section lazily so questions can be authored for a
// page before the form has one.
func resolveSectionId(ctx context.Context, tx *sql.Tx, formId, page int) (int, error) {
	var sectionId int
	err := tx.QueryRowContext(ctx, `
		SELECT s.id FROM section s
		WHERE s.form_id = ? AND s.position = ?`,
		formId, page,
	).Scan(&sectionId)
	if errors.Is(err, sql.ErrNoRows) {
		err = tx.QueryRowContext(ctx, `
			INSERT INTO section (form_id, title, position)
			VALUES (?, ?, ?)
			RETURNING id`,
			formId, fmt.Sprintf("Page %d", page), page,
		).Scan(&sectionId)
	}
	return sectionId, err
}

func insertChoices(ctx context.Context, tx *sql.Tx, questionId int, choices []string) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO question_choice (question_id, choice, position)
		VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	position := 0
	for _, c := range choices {
		if strings.TrimSpace(c) == "" {
			continue
		}
		position++
		if _, err := stmt.ExecContext(ctx, questionId, c, position); err != nil {
			return err
		}
	}
	return nil
}

func CreateQuestion(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		question := model.QuestionRecord{}
		err := render.DecodeJSON(r.Body, &question)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		if err := validateQuestion(question); err != nil {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "request.validate", "%s", err)
			return
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		var exists bool
		err = tx.QueryRowContext(r.Context(), `
			SELECT 1 FROM form WHERE id = ?`,
			question.FormID,
		).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			httpx.LogNotFound(w, "insert_question.form", question.FormID)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.insert_question.form", err)
			return
		}

		sectionId, err := resolveSectionId(r.Context(), tx, question.FormID, question.Page)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_question.section", err)
			return
		}

		var questionId int
		err = tx.QueryRowContext(r.Context(), `
			INSERT INTO question (form_id, section_id, prompt, input_type, page)
			VALUES (?, ?, ?, ?, ?)
			RETURNING id`,
			question.FormID,
			sectionId,
			question.NewQuestion,
			question.NewInputType,
			question.Page,
		).Scan(&questionId)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_question", err)
			return
		}

		err = insertChoices(r.Context(), tx, questionId, question.NewDropdownChoices)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_question.choices", err)
			return
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, "db.insert_question.commit", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id": questionId,
		})
	}
}

func UpdateQuestion(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		question := model.QuestionRecord{}
		err := render.DecodeJSON(r.Body, &question)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		if err := validateQuestion(question); err != nil {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "request.validate", "%s", err)
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
			SELECT q.form_id FROM question q WHERE q.id = ?`,
			question.ID,
		).Scan(&formId)
		if errors.Is(err, sql.ErrNoRows) {
			httpx.LogNotFound(w, "update_question", question.ID)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.update_question.lookup", err)
			return
		}

		sectionId, err := resolveSectionId(r.Context(), tx, formId, question.Page)
		if err != nil {
			httpx.LogInternalError(w, "db.update_question.section", err)
			return
		}

		_, err = tx.ExecContext(r.Context(), `
			UPDATE question
			SET
				prompt = ?,
				input_type = ?,
				page = ?,
				section_id = ?
			WHERE id = ?`,
			question.NewQuestion,
			question.NewInputType,
			question.Page,
			sectionId,
			question.ID,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.update_question", err)
			return
		}

		// recreate the choice list
		_, err = tx.ExecContext(r.Context(), `
			DELETE FROM question_choice WHERE question_id = ?`,
			question.ID,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.update_question.delete_choices", err)
			return
		}
		err = insertChoices(r.Context(), tx, question.ID, question.NewDropdownChoices)
		if err != nil {
			httpx.LogInternalError(w, "db.update_question.choices", err)
			return
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, "db.update_question.commit", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// DeleteQuestion refuses to delete a question that existing responses still
// reference.
func DeleteQuestion(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		questionId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		var answerCount int
		err = app.QueryRowContext(r.Context(), `
			SELECT COUNT(*) FROM submission_answer WHERE question_id = ?`,
			questionId,
		).Scan(&answerCount)
		if err != nil {
			httpx.LogInternalError(w, "db.delete_question.count_answers", err)
			return
		}
		if answerCount > 0 {
			httpx.LogStatusMsg(w, http.StatusConflict, log.DebugLevel,
				"db.delete_question.conflict", "question is referenced by %d answers", answerCount)
			return
		}

		res, err := app.ExecContext(r.Context(), `
			DELETE FROM question WHERE id = ?`,
			questionId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.delete_question", err)
			return
		}
		n, err := res.RowsAffected()
		if err != nil {
			httpx.LogInternalError(w, "db.delete_question.verify", err)
			return
		}
		if n < 1 {
			httpx.LogNotFound(w, "delete_question", questionId)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func GetQuestionsByForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formId, err := strconv.Atoi(chi.URLParam(r, "formId"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.formId")
			return
		}

		var exists bool
		err = app.QueryRowContext(r.Context(), `
			SELECT 1 FROM form WHERE id = ?`,
			formId,
		).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			httpx.LogNotFound(w, "get_questions.form", formId)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.get_questions.form", err)
			return
		}

		questions, _, err := queryFormQuestions(app, r, formId)
		if err != nil {
			httpx.LogInternalError(w, "db.get_questions", err)
			return
		}

		render.JSON(w, r, questions)
	}
}

// SubmitAllQuestions bulk-upserts the assembled question set at the end of
// the builder flow: records with an id are updated, the rest are created.
func SubmitAllQuestions(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		questions := []model.QuestionRecord{}
		err := render.DecodeJSON(r.Body, &questions)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		for _, q := range questions {
			if err := validateQuestion(q); err != nil {
				httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "request.validate", "%s", err)
				return
			}
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		ids := make([]int, 0, len(questions))
		for _, q := range questions {
			sectionId, err := resolveSectionId(r.Context(), tx, q.FormID, q.Page)
			if err != nil {
				httpx.LogInternalError(w, "db.submit_questions.section", err)
				return
			}

			if q.ID > 0 {
				_, err = tx.ExecContext(r.Context(), `
					UPDATE question
					SET prompt = ?, input_type = ?, page = ?, section_id = ?
					WHERE id = ?`,
					q.NewQuestion, q.NewInputType, q.Page, sectionId, q.ID,
				)
				if err != nil {
					httpx.LogInternalError(w, "db.submit_questions.update", err)
					return
				}
				_, err = tx.ExecContext(r.Context(), `
					DELETE FROM question_choice WHERE question_id = ?`,
					q.ID,
				)
				if err != nil {
					httpx.LogInternalError(w, "db.submit_questions.delete_choices", err)
					return
				}
			} else {
				err = tx.QueryRowContext(r.Context(), `
					INSERT INTO question (form_id, section_id, prompt, input_type, page)
					VALUES (?, ?, ?, ?, ?)
					RETURNING id`,
					q.FormID, sectionId, q.NewQuestion, q.NewInputType, q.Page,
				).Scan(&q.ID)
				if err != nil {
					httpx.LogInternalError(w, "db.submit_questions.insert", err)
					return
				}
			}

			err = insertChoices(r.Context(), tx, q.ID, q.NewDropdownChoices)
			if err != nil {
				httpx.LogInternalError(w, "db.submit_questions.choices", err)
				return
			}
			ids = append(ids, q.ID)
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, "db.submit_questions.commit", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"ids": ids,
		})
	}
}
