package router

import (
	"net/http"

	"course-media/internal/http-server/handler/media"
	"course-media/internal/http-server/middleware"

	"github.com/go-chi/chi/v5"
	chi_mw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/wb-go/wbf/zlog"
)

type Handler struct {
	MediaHandler *media.MediaHandler
}

func SetupRouter(h *Handler, allowedOrigins []string, logger *zlog.Zerolog) http.Handler {
	r := chi.NewRouter()

	r.Use(chi_mw.RequestID)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logging(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", media.UserIDHeader, "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/courses/{courseId}/images", func(r chi.Router) {
			r.Post("/", h.MediaHandler.UploadImage)
			r.Get("/", h.MediaHandler.ListImages)
		})

		r.Route("/images", func(r chi.Router) {
			r.Get("/{id}", h.MediaHandler.GetImage)
			r.Delete("/{id}", h.MediaHandler.DeleteImage)
		})

		r.Get("/storage/status", h.MediaHandler.StorageStatus)
		r.Get("/health", h.MediaHandler.Health)
	})

	return r
}
