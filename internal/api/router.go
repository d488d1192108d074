package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter mounts the API under /api and metricsHandler at /metrics.
func NewRouter(apiHandler *APIHandler, metricsHandler http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)       // Basic request logging
	r.Use(middleware.Recoverer)    // Recover from panics
	r.Use(middleware.StripSlashes) // Ensure consistent path handling

	r.Handle("/metrics", metricsHandler)

	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Post("/signup", apiHandler.SignupHandler)
		r.Post("/login", apiHandler.LoginHandler)
		r.Get("/health", apiHandler.HealthHandler)

		// User-authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(apiHandler.JWTAuthMiddleware)

			r.Route("/chat/messages", func(r chi.Router) {
				r.Get("/", apiHandler.ListMessagesHandler)
				r.Post("/", apiHandler.PostMessageHandler)
				r.Delete("/", apiHandler.ClearMessagesHandler)
			})

			r.Get("/courses", apiHandler.ListCoursesHandler)
			r.Route("/courses/{courseID}", func(r chi.Router) {
				r.Get("/", apiHandler.GetCourseHandler)
				r.Post("/enroll", apiHandler.EnrollHandler)
				r.Get("/progress", apiHandler.CourseProgressHandler)
			})

			r.Route("/lessons/{lessonID}", func(r chi.Router) {
				r.Post("/open", apiHandler.OpenLessonHandler)
				r.Post("/position", apiHandler.VideoPositionHandler)
				r.Post("/complete", apiHandler.CompleteLessonHandler)
			})

			r.Get("/ebooks", apiHandler.ListEbooksHandler)
			r.Route("/ebooks/{ebookID}", func(r chi.Router) {
				r.Post("/open", apiHandler.OpenEbookHandler)
				r.Post("/page", apiHandler.TurnPageHandler)
				r.Post("/complete", apiHandler.CompleteEbookHandler)
			})

			r.Post("/checkout", apiHandler.CheckoutHandler)

			// Back office
			r.Route("/admin", func(r chi.Router) {
				r.Use(apiHandler.RequireAdmin)
				r.Post("/courses", apiHandler.CreateCourseHandler)
				r.Post("/courses/{courseID}/lessons", apiHandler.CreateLessonHandler)
				r.Post("/ebooks", apiHandler.CreateEbookHandler)
			})
		})
	})

	return r
}
