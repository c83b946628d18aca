package services

import (
	"context"
	"fmt"
	"log"

	"fleet-dispatch-service/internal/domain"
	"fleet-dispatch-service/internal/ports"
)

// RunConfig carries every knob a simulation run consumes.
type RunConfig struct {
	MaxZone     int
	SkimPeriods int
	// MinutesPerPeriod derives the number of simulation periods (1440/len).
	MinutesPerPeriod int

	MaxPickupDistance float64
	MaxDiversionTime  float64

	VehicleCapacity         int
	MaxDistanceBeforeRefuel float64
	// RefuelMinutes is converted to whole waiting periods, rounded up.
	RefuelMinutes int

	Seed           int64
	TraceVehicleID int
	// MaxFleet caps fleet growth; zero means elastic (unbounded) growth.
	MaxFleet int

	TieBreak TieBreak
}

// Periods is the number of simulation periods in a day.
func (c RunConfig) Periods() int { return 1440 / c.MinutesPerPeriod }

func (c RunConfig) validate() error {
	if c.MinutesPerPeriod <= 0 || 1440%c.MinutesPerPeriod != 0 {
		return fmt.Errorf("%w: minutes per period %d must divide 1440", ErrConfiguration, c.MinutesPerPeriod)
	}
	if c.SkimPeriods < 1 {
		return fmt.Errorf("%w: skim periods %d", ErrConfiguration, c.SkimPeriods)
	}
	if c.MaxZone < 1 {
		return fmt.Errorf("%w: max zone %d", ErrConfiguration, c.MaxZone)
	}
	if c.RefuelMinutes < 1 {
		return fmt.Errorf("%w: refuel minutes %d", ErrConfiguration, c.RefuelMinutes)
	}
	return nil
}

// skimPeriodFor maps a simulation period onto the coarser skim period scale.
func (c RunConfig) skimPeriodFor(simulationPeriod int) int {
	return simulationPeriod * c.SkimPeriods / c.Periods()
}

// RunSummary aggregates the outputs of one simulation run.
type RunSummary struct {
	Periods           int     `json:"periods"`
	Requests          int     `json:"requests"`
	RoutedRequests    int     `json:"routed_requests"`
	UnmatchedRequests int     `json:"unmatched_requests"`
	FleetSize         int     `json:"fleet_size"`
	TripsWritten      int     `json:"trips_written"`
	RevenueMiles      float64 `json:"revenue_miles"`
	DeadheadMiles     float64 `json:"deadhead_miles"`
}

// RunSimulation executes a full simulated day: precomputes the transport
// cost tables, loads and buckets the trip requests, steps the dispatcher
// through every period, and writes the resulting vehicle trips.
func RunSimulation(ctx context.Context, cfg RunConfig, skims ports.SkimEvaluator, geo ports.ZoneGeography,
	source ports.RequestSource, writer ports.TripWriter) (RunSummary, error) {
	var summary RunSummary

	if err := cfg.validate(); err != nil {
		return summary, err
	}

	costs, err := NewTransportCostManager(cfg.SkimPeriods, cfg.MaxZone, cfg.MaxDiversionTime, cfg.MaxPickupDistance,
		WithTieBreak(cfg.TieBreak))
	if err != nil {
		return summary, err
	}
	if err := costs.Initialize(ctx, skims); err != nil {
		return summary, err
	}
	costs.BuildZonesByTimeFromOrigin()
	costs.BuildZonesWithinDiversionTime()
	costs.BuildNearestRefuelZones(geo)

	minutes := float64(cfg.MinutesPerPeriod)
	var growth ports.FleetGrowthPolicy = ports.ElasticGrowth{}
	if cfg.MaxFleet > 0 {
		growth = ports.CappedGrowth{MaxVehicles: cfg.MaxFleet}
	}
	fleet, err := NewFleetRegistry(costs, geo, growth, FleetConfig{
		VehicleCapacity:         cfg.VehicleCapacity,
		MinutesPerPeriod:        minutes,
		MaxDistanceBeforeRefuel: cfg.MaxDistanceBeforeRefuel,
		PeriodsPerRefuel:        (cfg.RefuelMinutes + cfg.MinutesPerPeriod - 1) / cfg.MinutesPerPeriod,
	})
	if err != nil {
		return summary, err
	}

	streams := NewStreams(cfg.Seed)

	requests := NewTripRequestManager(cfg.Periods(), minutes)
	all, err := source.ListRequests(ctx)
	if err != nil {
		return summary, fmt.Errorf("%w: list trip requests: %v", ErrConfiguration, err)
	}
	if err := requests.Load(all, geo, streams.DepartureTime); err != nil {
		return summary, err
	}

	engine := NewDispatchEngine(costs, fleet, requests, geo, streams, minutes, cfg.TraceVehicleID)

	for p := 0; p < cfg.Periods(); p++ {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if err := engine.RunPeriod(cfg.skimPeriodFor(p), p); err != nil {
			return summary, err
		}
	}

	// Flush every itinerary and tally the mileage split.
	var trips []*domain.VehicleTrip
	for _, v := range fleet.AllVehicles() {
		for _, t := range v.Trips {
			trips = append(trips, t)
			if t.Passengers > 0 {
				summary.RevenueMiles += t.DistanceMiles
			} else {
				summary.DeadheadMiles += t.DistanceMiles
			}
		}
	}
	if writer != nil && len(trips) > 0 {
		if err := writer.WriteTrips(ctx, trips); err != nil {
			return summary, fmt.Errorf("write vehicle trips: %w", err)
		}
	}

	summary.Periods = cfg.Periods()
	summary.Requests = requests.Loaded()
	summary.RoutedRequests = engine.RoutedRequests()
	summary.UnmatchedRequests = engine.UnmatchedRequests() + requests.Dropped()
	summary.FleetSize = fleet.FleetSize()
	summary.TripsWritten = len(trips)

	log.Printf("simulation: complete periods=%d requests=%d routed=%d unmatched=%d fleet_size=%d trips=%d",
		summary.Periods, summary.Requests, summary.RoutedRequests, summary.UnmatchedRequests,
		summary.FleetSize, summary.TripsWritten)
	return summary, nil
}
