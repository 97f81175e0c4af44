package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/freshpick/smartshop/backend/internal/handler/chat"
	middlewarePkg "github.com/freshpick/smartshop/backend/internal/middleware"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(chatHandler *chat.Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	chatHandler.RegisterRoutes(r)

	return r
}
