package routes

import (
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"

	"github.com/yokan/rollcall/app"
	"github.com/yokan/rollcall/routes/middlewares"
)

func Wire(app app.App) http.Handler {
	root := chi.NewRouter()
	root.Use(middleware.Logger, middleware.Recoverer)

	root.Mount("/api", apiRouter(app))

	root.
		With(middlewares.CookieAuth(app.BearerServer), middlewares.Admin(app.TokenSecret)).
		Mount("/admin", servePrivateFiles("/admin"))
	root.Mount("/", servePublicFiles())

	return root
}

func apiRouter(app app.App) http.Handler {
	api := chi.NewRouter()

	// student-facing, anonymous
	api.Get(`/courses/{id:^\d+$}/form`, PublicGetCourseForm(app))
	api.Post(`/courses/{id:^\d+$}/submissions`, PublicSubmitAttendance(app))

	api.Route("/admin", func(r chi.Router) {
		r.Use(middlewares.Admin(app.TokenSecret))

		r.Post("/courses", CreateCourse(app))
		r.Get("/courses", ListCourses(app))
		r.Get(`/courses/{id:^\d+$}`, GetCourseById(app))

		// form configuration
		r.Get(`/courses/{id:^\d+$}/form`, GetFormConfig(app))
		r.Put(`/courses/{id:^\d+$}/form`, ReplaceFormConfig(app))
		r.Post(`/courses/{id:^\d+$}/form/fields`, AddFormField(app))
		r.Put(`/courses/{id:^\d+$}/form/fields/{key}`, UpdateFormField(app))
		r.Delete(`/courses/{id:^\d+$}/form/fields/{key}`, DeleteFormField(app))
		r.Put(`/courses/{id:^\d+$}/form/builtins/{key}`, ToggleBuiltinField(app))
		r.Put(`/courses/{id:^\d+$}/form/order`, ReorderFormFields(app))

		// geofence zones
		r.Get("/zone", GetGlobalZone(app))
		r.Put("/zone", PutGlobalZone(app))
		r.Get(`/courses/{id:^\d+$}/zone`, GetCourseZone(app))
		r.Put(`/courses/{id:^\d+$}/zone`, PutCourseZone(app))
		r.Delete(`/courses/{id:^\d+$}/zone`, DeleteCourseZone(app))

		r.Get(`/courses/{id:^\d+$}/submissions`, GetCourseSubmissions(app))
	})

	api.Post("/login", Login(app))
	api.Post("/refresh", Refresh(app))

	return api
}

func servePublicFiles() http.Handler {
	return http.FileServer(http.Dir("public"))
}

func servePrivateFiles(path string) http.Handler {
	return http.StripPrefix(path, http.FileServer(http.Dir("private")))
}
