package routes

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/gofrs/uuid"

	"github.com/formwiz/form-wizard/app"
	"github.com/formwiz/form-wizard/httpx"
	"github.com/formwiz/form-wizard/log"
	"github.com/formwiz/form-wizard/model"
	"github.com/formwiz/form-wizard/schema"
)

// SubmitAnswers persists one completed form-filling session. The answer set
// is checked against the form's schema: every answer must belong to the form
// and choice answers must name a configured choice.
func SubmitAnswers(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formId, err := strconv.Atoi(chi.URLParam(r, "formId"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.formId")
			return
		}

		submission := model.SubmissionRecord{}
		err = render.DecodeJSON(r.Body, &submission)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		var exists bool
		err = app.QueryRowContext(r.Context(), `
			SELECT 1 FROM form WHERE id = ?`,
			formId,
		).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			httpx.LogNotFound(w, "submit_answers.form", formId)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.submit_answers.form", err)
			return
		}

		questions, _, err := queryFormQuestions(app, r, formId)
		if err != nil {
			httpx.LogInternalError(w, "db.submit_answers.questions", err)
			return
		}

		byId := map[int]model.Question{}
		for _, q := range questions {
			byId[q.ID] = q.Question()
		}
		for _, a := range submission.Answers {
			q, ok := byId[a.QuestionID]
			if !ok {
				httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel,
					"submit_answers.validate", "question %d does not belong to form %d", a.QuestionID, formId)
				return
			}
			if !schema.AnswerSatisfies(q, a.Value) {
				httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel,
					"submit_answers.validate", "answer for question %d is not acceptable", a.QuestionID)
				return
			}
		}

		sessionId := submission.SessionID
		if sessionId == "" {
			sessionId = uuid.Must(uuid.NewV4()).String()
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		var submissionId int
		err = tx.QueryRowContext(r.Context(), `
			INSERT INTO submission (form_id, session_id, time)
			VALUES (?, ?, ?)
			RETURNING id`,
			formId,
			sessionId,
			time.Now(),
		).Scan(&submissionId)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_submission", err)
			return
		}

		stmt, err := tx.PrepareContext(r.Context(), `
			INSERT INTO submission_answer (submission_id, question_id, value)
			VALUES (?, ?, ?)`)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_submission.answers.prepare", err)
			return
		}
		defer stmt.Close()

		for _, a := range submission.Answers {
			_, err := stmt.ExecContext(r.Context(), submissionId, a.QuestionID, a.Value)
			if err != nil {
				httpx.LogInternalError(w, "db.insert_submission.answers.insert", err)
				return
			}
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, "db.insert_submission.commit", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id": submissionId,
		})
	}
}

type submissionView struct {
	ID        int            `json:"id"`
	SessionID string         `json:"sessionId"`
	Time      time.Time      `json:"time"`
	Answers   []model.Answer `json:"answers"`
}

// GetFormSubmissions lists the collected responses of a form for the admin
// dashboard.
func GetFormSubmissions(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formId, err := strconv.Atoi(chi.URLParam(r, "formId"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.formId")
			return
		}

		rows, err := app.QueryContext(r.Context(), `
			SELECT s.id, s.session_id, s.time, a.question_id, a.value
			FROM submission s
			LEFT OUTER JOIN submission_answer a ON (s.id = a.submission_id)
			WHERE s.form_id = ?
			ORDER BY s.id, a.question_id`,
			formId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.get_submissions", err)
			return
		}
		defer rows.Close()

		submissions := []submissionView{}
		for rows.Next() {
			var s submissionView
			var questionId *int
			var value *string
			err = rows.Scan(&s.ID, &s.SessionID, &s.Time, &questionId, &value)
			if err != nil {
				httpx.LogInternalError(w, "db.get_submissions.scan", err)
				return
			}

			lastIdx := len(submissions) - 1
			if lastIdx < 0 || submissions[lastIdx].ID != s.ID {
				s.Answers = []model.Answer{}
				submissions = append(submissions, s)
				lastIdx++
			}
			if questionId != nil && value != nil {
				submissions[lastIdx].Answers = append(submissions[lastIdx].Answers,
					model.Answer{QuestionID: *questionId, Value: *value})
			}
		}

		render.JSON(w, r, map[string]any{
			"submissions": submissions,
		})
	}
}
