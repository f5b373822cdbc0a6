package geo

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func SetupRoutes(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Get("/resolve", h.ResolveCoordinates)
	r.Get("/resolve-ip", h.ResolveIP)

	return r
}
