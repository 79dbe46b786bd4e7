package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(app *App) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(app.corsOptions()))

	r.Get("/ping", PingHandler)

	r.Route("/api", func(r chi.Router) {
		r.Get("/", RootHandler)
		r.Post("/upload-video", app.UploadVideoHandler)
		r.Post("/generate-story", app.GenerateStoryHandler)
		r.Get("/analysis/{video_id}", app.GetAnalysisHandler)
		r.Get("/analyses", app.ListAnalysesHandler)
	})

	return r
}
