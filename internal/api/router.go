package api

import (
	"net/http"

	"github.com/hlsb07/roadtrip-route-planner-sub000/internal/api/handlers"
	"github.com/hlsb07/roadtrip-route-planner-sub000/internal/ports"
)

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(svc ports.ItineraryService) http.Handler {
	mux := http.NewServeMux()

	itineraryHandler := &handlers.ItineraryHandler{Service: svc}
	scheduleHandler := &handlers.ScheduleHandler{Service: svc}

	mux.HandleFunc("/health", handlers.Health)
	mux.HandleFunc("GET /routes/{id}/itinerary", itineraryHandler.Get)
	mux.HandleFunc("PATCH /routes/{id}/stops/{routePlaceId}/schedule", scheduleHandler.UpdateStop)
	mux.HandleFunc("PATCH /routes/{id}/legs/{legId}/schedule", scheduleHandler.UpdateLeg)
	mux.HandleFunc("POST /routes/{id}/reorder-by-timeline", scheduleHandler.Reorder)
	mux.HandleFunc("POST /routes/{id}/legs/rebuild", scheduleHandler.RebuildLegs)

	return loggingMiddleware(mux)
}
