package api

import (
	"net/http"

	"fleet-dispatch-service/internal/api/handlers"
	"fleet-dispatch-service/internal/ports"
	"fleet-dispatch-service/internal/services"
)

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(skims ports.SkimEvaluator, geo ports.ZoneGeography, source ports.RequestSource,
	writer ports.TripWriter, defaults services.RunConfig) http.Handler {
	mux := http.NewServeMux()

	reqHandler := &handlers.RequestHandler{Source: source}
	simHandler := &handlers.SimulationHandler{
		Skims:    skims,
		Geo:      geo,
		Source:   source,
		Writer:   writer,
		Defaults: defaults,
	}

	mux.HandleFunc("/health", handlers.Health)
	mux.HandleFunc("/requests", reqHandler.List)
	mux.HandleFunc("/simulations", simHandler.Run)

	return loggingMiddleware(mux)
}
