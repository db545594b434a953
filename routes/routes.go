package routes

import (
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"

	"github.com/formwiz/form-wizard/app"
	"github.com/formwiz/form-wizard/routes/middlewares"
)

func Wire(app app.App) http.Handler {
	admin := middlewares.Admin(app.TokenSecret)

	root := chi.NewRouter()
	root.Use(middleware.Logger, middleware.Recoverer)

	root.Route("/form", func(r chi.Router) {
		r.Get("/getAll", ListForms(app))
		r.Get(`/getFormWithQuestions/{formId:^\d+$}`, GetFormWithQuestions(app))
		r.Post(`/submitAnswers/{formId:^\d+$}`, SubmitAnswers(app))

		r.Group(func(r chi.Router) {
			r.Use(admin)

			r.Post("/create", CreateForm(app))
			r.Put("/update", UpdateForm(app))
			r.Put(`/hide/{id:^\d+$}`, SetFormVisibility(app, false))
			r.Put(`/show/{id:^\d+$}`, SetFormVisibility(app, true))
			r.Delete(`/delete/{id:^\d+$}`, DeleteForm(app))
			r.Get(`/getSubmissions/{formId:^\d+$}`, GetFormSubmissions(app))
		})
	})

	root.Route("/question", func(r chi.Router) {
		r.Use(admin)

		r.Post("/create", CreateQuestion(app))
		r.Put("/update", UpdateQuestion(app))
		r.Delete(`/delete/{id:^\d+$}`, DeleteQuestion(app))
		r.Get(`/getByForm/{formId:^\d+$}`, GetQuestionsByForm(app))
		r.Post("/submitAll", SubmitAllQuestions(app))
	})

	root.Post("/auth/register", Register(app))
	root.Post("/auth/login", Login(app))
	root.Post("/auth/refresh", Refresh(app))

	return root
}
