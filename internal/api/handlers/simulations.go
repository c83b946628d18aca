package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"fleet-dispatch-service/internal/api/dto"
	"fleet-dispatch-service/internal/ports"
	"fleet-dispatch-service/internal/services"
)

// SimulationHandler runs a full-day fleet simulation against the seeded
// scenario and returns the run summary.
type SimulationHandler struct {
	Skims    ports.SkimEvaluator
	Geo      ports.ZoneGeography
	Source   ports.RequestSource
	Writer   ports.TripWriter
	Defaults services.RunConfig
}

func (h *SimulationHandler) Run(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req dto.SimulationRequest

	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil && err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}

	cfg := h.Defaults
	if req.Seed != nil {
		cfg.Seed = *req.Seed
	}
	if req.MinutesPerPeriod != 0 {
		cfg.MinutesPerPeriod = req.MinutesPerPeriod
	}
	if req.MaxPickupDistance != nil {
		cfg.MaxPickupDistance = *req.MaxPickupDistance
	}
	if req.MaxDiversionTime != nil {
		cfg.MaxDiversionTime = *req.MaxDiversionTime
	}
	if req.VehicleCapacity != 0 {
		cfg.VehicleCapacity = req.VehicleCapacity
	}
	if req.MaxDistanceBeforeRefuel != nil {
		cfg.MaxDistanceBeforeRefuel = *req.MaxDistanceBeforeRefuel
	}
	if req.RefuelMinutes != 0 {
		cfg.RefuelMinutes = req.RefuelMinutes
	}
	if req.MaxFleet != 0 {
		cfg.MaxFleet = req.MaxFleet
	}
	if req.TraceVehicleID != 0 {
		cfg.TraceVehicleID = req.TraceVehicleID
	}

	summary, err := services.RunSimulation(r.Context(), cfg, h.Skims, h.Geo, h.Source, h.Writer)
	if err != nil {
		if errors.Is(err, services.ErrConfiguration) {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		log.Printf("run simulation failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, r, http.StatusOK, dto.SimulationResponse{
		Periods:           summary.Periods,
		Requests:          summary.Requests,
		RoutedRequests:    summary.RoutedRequests,
		UnmatchedRequests: summary.UnmatchedRequests,
		FleetSize:         summary.FleetSize,
		TripsWritten:      summary.TripsWritten,
		RevenueMiles:      summary.RevenueMiles,
		DeadheadMiles:     summary.DeadheadMiles,
	})
}
