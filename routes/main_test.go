package routes

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	_ "github.com/mattn/go-sqlite3"

	"github.com/formwiz/form-wizard/app"
	"github.com/formwiz/form-wizard/database"
	"github.com/formwiz/form-wizard/model"
)

// newTestApp opens a fresh in-memory database with the full schema applied.
// A single connection keeps the in-memory database alive for the whole test.
func newTestApp(t *testing.T) app.App {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if err := database.MigrateDB(db); err != nil {
		t.Fatalf("migrate db: %v", err)
	}

	return app.App{DB: db}
}

// testHandler wires the controllers without the admin token middleware.
func testHandler(app app.App) http.Handler {
	r := chi.NewRouter()

	r.Route("/form", func(r chi.Router) {
		r.Get("/getAll", ListForms(app))
		r.Get(`/getFormWithQuestions/{formId:^\d+$}`, GetFormWithQuestions(app))
		r.Post(`/submitAnswers/{formId:^\d+$}`, SubmitAnswers(app))
		r.Post("/create", CreateForm(app))
		r.Put("/update", UpdateForm(app))
		r.Put(`/hide/{id:^\d+$}`, SetFormVisibility(app, false))
		r.Put(`/show/{id:^\d+$}`, SetFormVisibility(app, true))
		r.Delete(`/delete/{id:^\d+$}`, DeleteForm(app))
		r.Get(`/getSubmissions/{formId:^\d+$}`, GetFormSubmissions(app))
	})
	r.Route("/question", func(r chi.Router) {
		r.Post("/create", CreateQuestion(app))
		r.Put("/update", UpdateQuestion(app))
		r.Delete(`/delete/{id:^\d+$}`, DeleteQuestion(app))
		r.Get(`/getByForm/{formId:^\d+$}`, GetQuestionsByForm(app))
		r.Post("/submitAll", SubmitAllQuestions(app))
	})

	return r
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func createTestForm(t *testing.T, h http.Handler, title string) int {
	t.Helper()

	w := doJSON(t, h, http.MethodPost, "/form/create", model.FormRecord{Title: title, Visible: true})
	if w.Code != http.StatusCreated {
		t.Fatalf("create form: expected 201, got %d: %s", w.Code, w.Body)
	}
	return decode[struct {
		ID int `json:"id"`
	}](t, w).ID
}

func createTestQuestion(t *testing.T, h http.Handler, rec model.QuestionRecord) int {
	t.Helper()

	w := doJSON(t, h, http.MethodPost, "/question/create", rec)
	if w.Code != http.StatusCreated {
		t.Fatalf("create question: expected 201, got %d: %s", w.Code, w.Body)
	}
	return decode[struct {
		ID int `json:"id"`
	}](t, w).ID
}
