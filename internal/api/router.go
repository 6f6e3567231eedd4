package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/weekboard/internal/boardservice"
)

// NewRouter creates a chi router with all API routes mounted.
// sseHandler, if non-nil, is mounted at GET /events.
func NewRouter(svc *boardservice.Service, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(BodyLimit(maxBodyBytes))

	// Board.
	r.Get("/weeks", h.ListWeeks)
	r.Get("/weeks/{index}", h.GetWeek)

	// Edit session.
	r.Get("/session", h.GetSession)
	r.Post("/session", h.OpenSession)
	r.Put("/session", h.SaveSession)
	r.Post("/session/delete", h.DeleteSession)
	r.Delete("/session", h.CancelSession)

	// Whole-collection transfer.
	r.Get("/export", h.Export)
	r.Put("/import", h.Import)

	// Navigation.
	r.Get("/nav", h.GetNav)
	r.Put("/nav/{page}", h.SetNav)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
