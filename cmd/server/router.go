package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/learnloop/learnloop-api/internal/api"
	apiMiddleware "github.com/learnloop/learnloop-api/internal/api/middleware"
)

// setupRouter creates the router with every route and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.Trace(app.logger))

	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)
	studyHandler := api.NewStudyHandler(app.studyService, app.logger)

	r.Route("/api/study", func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)
		studyHandler.Routes(r)
	})

	r.Method(http.MethodGet, "/health", api.NewHealthHandler(app.db))

	return r
}
