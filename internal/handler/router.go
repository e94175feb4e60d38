package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/kielo-labs/kielo/internal/handler/bot"
	middlewarePkg "github.com/kielo-labs/kielo/internal/middleware"
	"github.com/kielo-labs/kielo/internal/service/session"
	"github.com/kielo-labs/kielo/pkg/utils"
)

// NewRouter wires HTTP routes to the dialogue orchestrator.
func NewRouter(dispatcher bot.Dispatcher, sessions *session.Store) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	botHandler := bot.New(dispatcher, sessions)
	wsHandler := bot.NewWebSocketHandler(dispatcher)

	r.Route("/api", func(api chi.Router) {
		botHandler.RegisterRoutes(api)
		wsHandler.RegisterWebSocketRoutes(api)

		api.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})
	})

	return r
}
