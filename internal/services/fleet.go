package services

import (
	"fmt"
	"log"
	"math/rand"

	"fleet-dispatch-service/internal/domain"
	"fleet-dispatch-service/internal/ports"
)

// FleetRegistry owns every vehicle in the simulation. A vehicle is referenced
// by exactly one of the registry's sets at any time:
//
//	empty pools (per zone)  idle, available for dispatch
//	to-route queue          assigned passengers, itinerary not yet built
//	active list             en route with passengers
//	refueling list          traveling to or waiting at a station
//
// The registry is mutated only by the single dispatch goroutine, in the
// fixed per-period order: free, refuel, match, route.
type FleetRegistry struct {
	costs  *TransportCostManager
	geo    ports.ZoneGeography
	growth ports.FleetGrowthPolicy

	capacity          int
	minutesPerPeriod  float64
	maxDistanceRefuel float64
	periodsPerRefuel  int

	nextID int

	// empty pools indexed by zone; created lazily as vehicles park.
	empty     map[domain.Zone][]*domain.Vehicle
	toRoute   []*domain.Vehicle
	active    []*domain.Vehicle
	refueling []*domain.Vehicle

	fleetSize int
}

// FleetConfig carries the vehicle-level knobs.
type FleetConfig struct {
	VehicleCapacity         int
	MinutesPerPeriod        float64
	MaxDistanceBeforeRefuel float64
	PeriodsPerRefuel        int
}

func NewFleetRegistry(costs *TransportCostManager, geo ports.ZoneGeography, growth ports.FleetGrowthPolicy, cfg FleetConfig) (*FleetRegistry, error) {
	if cfg.VehicleCapacity < 1 {
		return nil, fmt.Errorf("%w: fleet: vehicle capacity %d", ErrConfiguration, cfg.VehicleCapacity)
	}
	if cfg.MinutesPerPeriod <= 0 {
		return nil, fmt.Errorf("%w: fleet: minutes per period %v", ErrConfiguration, cfg.MinutesPerPeriod)
	}
	if cfg.MaxDistanceBeforeRefuel <= 0 || cfg.PeriodsPerRefuel < 1 {
		return nil, fmt.Errorf("%w: fleet: refuel knobs distance=%v periods=%d",
			ErrConfiguration, cfg.MaxDistanceBeforeRefuel, cfg.PeriodsPerRefuel)
	}
	if growth == nil {
		growth = ports.ElasticGrowth{}
	}
	return &FleetRegistry{
		costs:             costs,
		geo:               geo,
		growth:            growth,
		capacity:          cfg.VehicleCapacity,
		minutesPerPeriod:  cfg.MinutesPerPeriod,
		maxDistanceRefuel: cfg.MaxDistanceBeforeRefuel,
		periodsPerRefuel:  cfg.PeriodsPerRefuel,
		empty:             make(map[domain.Zone][]*domain.Vehicle),
	}, nil
}

// FleetSize is the total number of vehicles ever generated.
func (f *FleetRegistry) FleetSize() int { return f.fleetSize }

// Counts reports the size of each registry set, in the order
// empty, to-route, active, refueling.
func (f *FleetRegistry) Counts() (int, int, int, int) {
	idle := 0
	for _, pool := range f.empty {
		idle += len(pool)
	}
	return idle, len(f.toRoute), len(f.active), len(f.refueling)
}

// AllVehicles returns every vehicle across all registry sets. Used for
// end-of-run output and partition checks.
func (f *FleetRegistry) AllVehicles() []*domain.Vehicle {
	out := make([]*domain.Vehicle, 0, f.fleetSize)
	for _, pool := range f.empty {
		out = append(out, pool...)
	}
	out = append(out, f.toRoute...)
	out = append(out, f.active...)
	out = append(out, f.refueling...)
	return out
}

// StoreEmptyVehicle parks a vehicle in its zone's pool.
func (f *FleetRegistry) StoreEmptyVehicle(v *domain.Vehicle, zone domain.Zone) {
	v.Location.Zone = zone
	f.empty[zone] = append(f.empty[zone], v)
}

// generateVehicle manufactures a brand-new vehicle at the departure zone.
func (f *FleetRegistry) generateVehicle(simulationPeriod int, zone domain.Zone) *domain.Vehicle {
	f.nextID++
	f.fleetSize++
	maz := domain.Maz(0)
	if mazs := f.geo.MazsInZone(zone); len(mazs) > 0 {
		maz = mazs[0]
	}
	return &domain.Vehicle{
		ID:               f.nextID,
		Location:         domain.Location{Zone: zone, Maz: maz},
		MaxPassengers:    f.capacity,
		GenerationPeriod: simulationPeriod,
		GenerationZone:   zone,
	}
}

// takeRandomFromPool removes a uniformly random vehicle from a zone's pool.
func (f *FleetRegistry) takeRandomFromPool(zone domain.Zone, rng *rand.Rand) *domain.Vehicle {
	pool := f.empty[zone]
	if len(pool) == 0 {
		return nil
	}
	i := rng.Intn(len(pool))
	v := pool[i]
	pool[i] = pool[len(pool)-1]
	pool = pool[:len(pool)-1]
	if len(pool) == 0 {
		delete(f.empty, zone)
	} else {
		f.empty[zone] = pool
	}
	return v
}

// ClosestEmptyVehicle finds an idle vehicle for a request departing from the
// given zone. Zones are visited in ascending travel-time order from the
// departure zone; the first non-empty pool yields a random vehicle. When the
// vehicle is pulled from a different zone, an empty repositioning leg to the
// departure zone is appended. When no pool within the pickup threshold has a
// vehicle, a new one is generated at the departure zone, unless the growth
// policy refuses, in which case nil is returned and the caller drops the
// request.
func (f *FleetRegistry) ClosestEmptyVehicle(skimPeriod, simulationPeriod int, departure domain.Zone, rng *rand.Rand) *domain.Vehicle {
	for _, zone := range f.costs.ZonesSortedByTime(skimPeriod, departure) {
		v := f.takeRandomFromPool(zone, rng)
		if v == nil {
			continue
		}
		if zone != departure {
			f.appendDeadhead(v, skimPeriod, simulationPeriod, departure)
		}
		return v
	}

	if !f.growth.AllowGrowth(f.fleetSize) {
		log.Printf("fleet: growth refused size=%d zone=%d period=%d", f.fleetSize, departure, simulationPeriod)
		return nil
	}
	v := f.generateVehicle(simulationPeriod, departure)
	log.Printf("fleet: generated vehicle id=%d zone=%d period=%d fleet_size=%d",
		v.ID, departure, simulationPeriod, f.fleetSize)
	return v
}

// appendDeadhead synthesizes the empty repositioning leg a pulled vehicle
// drives from its pool zone to the departure zone. Vehicles in the refueling
// set are never pulled, so a deadhead is always a plain empty leg.
func (f *FleetRegistry) appendDeadhead(v *domain.Vehicle, skimPeriod, simulationPeriod int, departure domain.Zone) {
	from := v.Location
	to := domain.Location{Zone: departure}
	if mazs := f.geo.MazsInZone(departure); len(mazs) > 0 {
		to.Maz = mazs[0]
	}

	travel := f.costs.Time(skimPeriod, from.Zone, departure)
	dist := f.costs.Distance(skimPeriod, from.Zone, departure)

	leg := &domain.VehicleTrip{
		Origin:        from,
		Destination:   to,
		StartPeriod:   simulationPeriod,
		EndPeriod:     simulationPeriod + int(travel/f.minutesPerPeriod),
		Passengers:    0,
		DistanceMiles: dist,
	}
	v.DistanceSinceRefuel += dist
	v.AppendTrip(leg)
}

// AddVehicleToRoute queues a vehicle whose passengers have been assigned.
// Queuing a vehicle with no payload is an invariant violation.
func (f *FleetRegistry) AddVehicleToRoute(v *domain.Vehicle) error {
	if len(v.Requests) == 0 {
		return fmt.Errorf("%w: vehicle %d queued to route with no assigned passengers", ErrDataIntegrity, v.ID)
	}
	f.toRoute = append(f.toRoute, v)
	return nil
}

// ToRoute returns the current routing queue.
func (f *FleetRegistry) ToRoute() []*domain.Vehicle { return f.toRoute }

// AddActiveVehicle moves a routed vehicle into the active list and clears it
// from the routing queue.
func (f *FleetRegistry) AddActiveVehicle(v *domain.Vehicle) {
	for i, q := range f.toRoute {
		if q == v {
			f.toRoute = append(f.toRoute[:i], f.toRoute[i+1:]...)
			break
		}
	}
	f.active = append(f.active, v)
}

// FreeVehicles returns to the empty pools every active vehicle whose final
// itinerary leg ends at or before the given period. Calling with no active
// vehicles is expected early in the day and only logged.
func (f *FleetRegistry) FreeVehicles(simulationPeriod int) int {
	if len(f.active) == 0 {
		log.Printf("fleet: no active vehicles to free period=%d", simulationPeriod)
		return 0
	}

	freed := 0
	remaining := f.active[:0]
	for _, v := range f.active {
		last := v.LastTrip()
		if last != nil && last.EndPeriod <= simulationPeriod {
			f.StoreEmptyVehicle(v, last.Destination.Zone)
			freed++
			continue
		}
		remaining = append(remaining, v)
	}
	f.active = remaining
	return freed
}

// CheckForRefuelingVehicles advances the refuel state machine. Vehicles in
// the refueling set whose travel leg has arrived accumulate waiting periods;
// after PeriodsPerRefuel waits the odometer resets and the vehicle returns to
// the empty pool at the station zone. Then every idle vehicle over the
// odometer threshold gets a refuel leg to its nearest station and moves to
// the refueling set. Active vehicles are never scanned.
func (f *FleetRegistry) CheckForRefuelingVehicles(skimPeriod, simulationPeriod int) {
	remaining := f.refueling[:0]
	for _, v := range f.refueling {
		last := v.LastTrip()
		if last.EndPeriod > simulationPeriod {
			// Still driving to the station.
			remaining = append(remaining, v)
			continue
		}
		if v.RefuelPeriodsWaited >= f.periodsPerRefuel {
			v.DistanceSinceRefuel = 0
			v.RefuelPeriodsWaited = 0
			f.StoreEmptyVehicle(v, last.Destination.Zone)
			continue
		}
		v.RefuelPeriodsWaited++
		remaining = append(remaining, v)
	}
	f.refueling = remaining

	for zone, pool := range f.empty {
		kept := pool[:0]
		for _, v := range pool {
			if v.DistanceSinceRefuel < f.maxDistanceRefuel {
				kept = append(kept, v)
				continue
			}
			f.sendToRefuel(v, skimPeriod, simulationPeriod)
		}
		if len(kept) == 0 {
			delete(f.empty, zone)
		} else {
			f.empty[zone] = kept
		}
	}
}

// sendToRefuel appends a refuel leg to the nearest station zone and moves
// the vehicle to the refueling set. With no reachable station the vehicle
// refuels in place.
func (f *FleetRegistry) sendToRefuel(v *domain.Vehicle, skimPeriod, simulationPeriod int) {
	station := f.costs.NearestRefuelZone(skimPeriod, v.Location.Zone)
	if station == domain.NoZone {
		log.Printf("fleet: vehicle %d refueling in place, no station reachable from zone=%d", v.ID, v.Location.Zone)
		station = v.Location.Zone
	}

	to := domain.Location{Zone: station}
	if mazs := f.geo.MazsInZone(station); len(mazs) > 0 {
		to.Maz = mazs[0]
	}

	travel := f.costs.Time(skimPeriod, v.Location.Zone, station)
	dist := f.costs.Distance(skimPeriod, v.Location.Zone, station)
	leg := &domain.VehicleTrip{
		Origin:        v.Location,
		Destination:   to,
		StartPeriod:   simulationPeriod,
		EndPeriod:     simulationPeriod + int(travel/f.minutesPerPeriod),
		Passengers:    0,
		DistanceMiles: dist,
		Refuel:        true,
	}
	v.DistanceSinceRefuel += dist
	v.RefuelPeriodsWaited = 0
	v.AppendTrip(leg)
	f.refueling = append(f.refueling, v)
}
