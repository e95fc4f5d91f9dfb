// Package httpapi exposes kitchens, recipes and profiles over HTTP.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/gustalya/gustalya/internal/domain"
	"github.com/gustalya/gustalya/internal/logging"
	"github.com/gustalya/gustalya/internal/runner"
	"github.com/gustalya/gustalya/internal/storage"
)

// Extractor reads recipes out of pictures and web pages.
type Extractor interface {
	FromImage(ctx context.Context, data []byte, mime string) (*domain.Recipe, error)
	FromURL(ctx context.Context, url string) (*domain.Recipe, error)
}

// Deps are the services the handlers call. Extractor may be nil.
type Deps struct {
	Manager   *runner.Manager
	Repo      storage.Repository
	Extractor Extractor
	Logger    *slog.Logger
	// DevUser is assumed when no auth header is present.
	DevUser string
}

type Server struct {
	manager   *runner.Manager
	repo      storage.Repository
	extractor Extractor
	logger    *slog.Logger
	devUser   string
}

func NewServer(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Server{
		manager:   deps.Manager,
		repo:      deps.Repo,
		extractor: deps.Extractor,
		logger:    logger,
		devUser:   deps.DevUser,
	}
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, map[string]any{"status": "ok", "kitchens": s.manager.Count()}, http.StatusOK)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.extractUser)

		r.Post("/sessions", s.openKitchen)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", s.getKitchen)
			r.Delete("/", s.closeKitchen)
			r.Get("/events", s.streamKitchenEvents)

			r.Post("/cook", s.cook)
			r.Get("/recipes", s.listCooking)
			r.Delete("/recipes/{recipeId}", s.removeRecipe)
			r.Post("/recipes/{recipeId}/next", s.advance)
			r.Post("/recipes/{recipeId}/previous", s.previous)
			r.Post("/recipes/{recipeId}/timer", s.startStepTimer)
			r.Post("/recipes/{recipeId}/voice", s.voice)

			r.Get("/timers", s.listTimers)
			r.Post("/timers", s.addTimer)
			r.Delete("/timers", s.clearTimers)
			r.Post("/timers/{timerId}/toggle", s.toggleTimer)
			r.Post("/timers/{timerId}/reset", s.resetTimer)
			r.Delete("/timers/{timerId}", s.removeTimer)
		})

		r.Get("/recipes", s.listRecipes)
		r.Post("/recipes", s.createRecipe)
		r.Post("/recipes/extract/url", s.extractURL)
		r.Post("/recipes/extract/image", s.extractImage)
		r.Get("/recipes/{recipeId}", s.getRecipe)
		r.Put("/recipes/{recipeId}", s.updateRecipe)
		r.Delete("/recipes/{recipeId}", s.deleteRecipe)

		r.Get("/profile/stats", s.profileStats)
		r.Get("/profile/history", s.profileHistory)
	})

	return r
}
