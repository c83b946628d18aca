package services

import (
	"fmt"
	"log"
	"sort"

	"fleet-dispatch-service/internal/domain"
	"fleet-dispatch-service/internal/ports"
)

// DispatchEngine runs the period-stepped simulation: for each simulated
// period it frees arriving vehicles, advances refueling, matches waiting
// requests to the closest empty vehicles, and builds multi-stop itineraries
// for the newly assigned vehicles. All four phases must complete for period N
// before period N+1 starts, because vehicle availability at N+1 depends on
// exactly which vehicles were freed at N.
type DispatchEngine struct {
	costs    *TransportCostManager
	fleet    *FleetRegistry
	requests *TripRequestManager
	geo      ports.ZoneGeography
	streams  *Streams

	minutesPerPeriod float64
	// traceVehicleID enables step-by-step routing logs for one vehicle.
	traceVehicleID int

	routed    int
	unmatched int
}

func NewDispatchEngine(costs *TransportCostManager, fleet *FleetRegistry, requests *TripRequestManager,
	geo ports.ZoneGeography, streams *Streams, minutesPerPeriod float64, traceVehicleID int) *DispatchEngine {
	return &DispatchEngine{
		costs:            costs,
		fleet:            fleet,
		requests:         requests,
		geo:              geo,
		streams:          streams,
		minutesPerPeriod: minutesPerPeriod,
		traceVehicleID:   traceVehicleID,
	}
}

// RoutedRequests is the number of requests matched and routed so far.
func (e *DispatchEngine) RoutedRequests() int { return e.routed }

// UnmatchedRequests is the number of requests dropped for lack of supply
// (only possible under a capped growth policy).
func (e *DispatchEngine) UnmatchedRequests() int { return e.unmatched }

// RunPeriod executes the four dispatch phases for one simulation period in
// their required order: free, refuel, match, route.
func (e *DispatchEngine) RunPeriod(skimPeriod, simulationPeriod int) error {
	e.fleet.FreeVehicles(simulationPeriod)
	e.fleet.CheckForRefuelingVehicles(skimPeriod, simulationPeriod)
	if err := e.MatchRequests(skimPeriod, simulationPeriod); err != nil {
		return err
	}
	if err := e.RouteQueuedVehicles(skimPeriod, simulationPeriod); err != nil {
		return err
	}
	e.requests.DropRemaining(simulationPeriod)
	return nil
}

// MatchRequests drains the period's request bucket in random order. Requests
// departing from a zone where a queued vehicle still has seats pool onto
// that vehicle if their dropoff is servable on its anchor path; otherwise
// the closest empty vehicle is claimed (or a new one generated). A nil
// vehicle under a capped growth policy drops the request.
func (e *DispatchEngine) MatchRequests(skimPeriod, simulationPeriod int) error {
	open := make(map[domain.Zone]*domain.Vehicle)

	for {
		r := e.requests.Sample(simulationPeriod, e.streams.RequestSample)
		if r == nil {
			return nil
		}

		if v, ok := open[r.Origin.Zone]; ok && v.AssignedSeats()+r.Occupants <= v.MaxPassengers &&
			e.canPool(v, r, skimPeriod) {
			v.Requests = append(v.Requests, r)
			continue
		}

		v := e.fleet.ClosestEmptyVehicle(skimPeriod, simulationPeriod, r.Origin.Zone, e.streams.VehicleChoice)
		if v == nil {
			e.unmatched++
			continue
		}
		v.Requests = append(v.Requests, r)
		if err := e.fleet.AddVehicleToRoute(v); err != nil {
			return err
		}
		open[r.Origin.Zone] = v
	}
}

// canPool reports whether a request may share an already-open vehicle from
// its origin zone. Seats aside, the dropoff must be servable on the
// vehicle's anchor path: the anchor destination itself or a zone on the
// anchor pair's diversion candidate list. Anything further afield gets its
// own vehicle rather than a ride to the wrong zone.
func (e *DispatchEngine) canPool(v *domain.Vehicle, r *domain.TripRequest, skimPeriod int) bool {
	anchor := v.Requests[0]
	if r.Destination.Zone == anchor.Destination.Zone {
		return true
	}
	for _, k := range e.costs.ZonesWithinDiversionTime(skimPeriod, anchor.Origin.Zone, anchor.Destination.Zone) {
		// The router never stops at the anchor origin itself.
		if k == r.Destination.Zone && k != anchor.Origin.Zone {
			return true
		}
	}
	return false
}

// RouteQueuedVehicles builds an itinerary for every vehicle in the routing
// queue and moves each to the active list.
func (e *DispatchEngine) RouteQueuedVehicles(skimPeriod, simulationPeriod int) error {
	queue := append([]*domain.Vehicle(nil), e.fleet.ToRoute()...)
	for _, v := range queue {
		if err := e.routeVehicle(v, skimPeriod, simulationPeriod); err != nil {
			return err
		}
	}
	return nil
}

// routeVehicle sequences pickups and dropoffs along the diversion-bounded
// candidate path anchored on the first-listed passenger's origin and
// destination. Leg arrival periods are measured as travel time from the
// anchor origin to the stop zone, not cumulative leg-by-leg time; this is a
// deliberate modeling approximation carried over from the reference model.
func (e *DispatchEngine) routeVehicle(v *domain.Vehicle, skimPeriod, simulationPeriod int) error {
	if len(v.Requests) == 0 {
		return fmt.Errorf("%w: vehicle %d in routing queue with no passengers", ErrDataIntegrity, v.ID)
	}

	trace := e.traceVehicleID != 0 && v.ID == e.traceVehicleID
	first := v.Requests[0]
	anchorO := first.Origin.Zone
	anchorD := first.Destination.Zone

	// Stop maps for the other passengers. The anchor destination is seeded
	// into the dropoff map: it is the leg endpoint, not a diversion stop.
	boarding := []*domain.TripRequest{first}
	pickupsAt := make(map[domain.Zone][]*domain.TripRequest)
	dropoffsAt := make(map[domain.Zone][]*domain.TripRequest)
	dropoffsAt[anchorD] = append(dropoffsAt[anchorD], first)
	for _, r := range v.Requests[1:] {
		if r.Origin.Zone == anchorO {
			boarding = append(boarding, r)
		} else {
			pickupsAt[r.Origin.Zone] = append(pickupsAt[r.Origin.Zone], r)
		}
		dropoffsAt[r.Destination.Zone] = append(dropoffsAt[r.Destination.Zone], r)
	}

	// Occupancy counts boarded requests, matching the pickup/dropoff id
	// lists leg by leg. Seat capacity for multi-occupant parties is
	// enforced at matching time via AssignedSeats.
	onboard := make(map[int]*domain.TripRequest, len(v.Requests))
	occupancy := 0
	for _, r := range boarding {
		onboard[r.ID] = r
		occupancy++
	}
	if occupancy > v.MaxPassengers {
		return fmt.Errorf("%w: vehicle %d occupancy %d exceeds capacity %d at origin zone %d",
			ErrDataIntegrity, v.ID, occupancy, v.MaxPassengers, anchorO)
	}

	if trace {
		log.Printf("dispatch: trace vehicle=%d route start origin=%d destination=%d passengers=%d requests=%d",
			v.ID, anchorO, anchorD, occupancy, len(v.Requests))
	}

	current := &domain.VehicleTrip{
		Origin:        first.Origin,
		StartPeriod:   simulationPeriod,
		Passengers:    occupancy,
		OriginPickups: requestIDs(boarding),
	}
	var legs []*domain.VehicleTrip
	prevZone := anchorO
	picked := len(boarding)

	candidates := e.costs.ZonesWithinDiversionTime(skimPeriod, anchorO, anchorD)
	if len(v.Requests) > 1 {
		for _, k := range candidates {
			if k == anchorO || k == anchorD {
				continue
			}
			// A zone with no micro-zone mapping is external and cannot
			// host a stop.
			if len(e.geo.MazsInZone(k)) == 0 {
				continue
			}

			pickups := pickupsAt[k]
			var dropoffs []*domain.TripRequest
			for _, r := range dropoffsAt[k] {
				if _, ok := onboard[r.ID]; ok {
					dropoffs = append(dropoffs, r)
				}
			}
			if len(pickups) == 0 && len(dropoffs) == 0 {
				continue
			}

			stop := e.stopLocation(k, pickups, dropoffs)
			arrival := simulationPeriod + int(e.costs.Time(skimPeriod, anchorO, k)/e.minutesPerPeriod)

			current.Destination = stop
			current.EndPeriod = arrival
			current.DistanceMiles = e.costs.Distance(skimPeriod, prevZone, k)
			current.DestinationPickups = requestIDs(pickups)
			current.DestinationDropoffs = requestIDs(dropoffs)
			legs = append(legs, current)
			v.DistanceSinceRefuel += current.DistanceMiles

			for _, r := range pickups {
				onboard[r.ID] = r
				occupancy++
			}
			picked += len(pickups)
			for _, r := range dropoffs {
				delete(onboard, r.ID)
				occupancy--
			}
			if occupancy < 0 || occupancy > v.MaxPassengers {
				return fmt.Errorf("%w: vehicle %d occupancy %d out of [0,%d] at zone %d",
					ErrDataIntegrity, v.ID, occupancy, v.MaxPassengers, k)
			}

			if trace {
				log.Printf("dispatch: trace vehicle=%d stop zone=%d pickups=%d dropoffs=%d occupancy=%d arrival=%d",
					v.ID, k, len(pickups), len(dropoffs), occupancy, arrival)
			}

			current = &domain.VehicleTrip{
				Origin:         stop,
				StartPeriod:    arrival,
				Passengers:     occupancy,
				OriginPickups:  requestIDs(pickups),
				OriginDropoffs: requestIDs(dropoffs),
			}
			prevZone = k
		}
	}

	if picked != len(v.Requests) {
		return fmt.Errorf("%w: vehicle %d: %d assigned passengers not reachable on diversion path %d->%d",
			ErrDataIntegrity, v.ID, len(v.Requests)-picked, anchorO, anchorD)
	}

	// Close with the anchor-destination leg. Only passengers destined for
	// the anchor zone may still be aboard here; anyone else would alight at
	// the wrong zone.
	final := make([]*domain.TripRequest, 0, len(onboard))
	for _, r := range dropoffsAt[anchorD] {
		if _, ok := onboard[r.ID]; ok {
			final = append(final, r)
			delete(onboard, r.ID)
		}
	}
	if len(onboard) > 0 {
		stranded := make([]int, 0, len(onboard))
		for id := range onboard {
			stranded = append(stranded, id)
		}
		sort.Ints(stranded)
		return fmt.Errorf("%w: vehicle %d: passengers %v aboard at final zone %d with other destinations",
			ErrDataIntegrity, v.ID, stranded, anchorD)
	}
	current.Destination = first.Destination
	current.EndPeriod = simulationPeriod + int(e.costs.Time(skimPeriod, anchorO, anchorD)/e.minutesPerPeriod)
	current.DistanceMiles = e.costs.Distance(skimPeriod, prevZone, anchorD)
	current.DestinationDropoffs = requestIDs(final)
	legs = append(legs, current)
	v.DistanceSinceRefuel += current.DistanceMiles

	for _, leg := range legs {
		v.AppendTrip(leg)
	}
	if got := v.ArrivalOccupancy(); got != 0 {
		return fmt.Errorf("%w: vehicle %d itinerary ends with occupancy %d", ErrDataIntegrity, v.ID, got)
	}

	if trace {
		log.Printf("dispatch: trace vehicle=%d route complete legs=%d end_period=%d",
			v.ID, len(legs), current.EndPeriod)
	}

	e.routed += len(v.Requests)
	v.Requests = nil
	e.fleet.AddActiveVehicle(v)
	return nil
}

// stopLocation picks the micro-zone for an intermediate stop from the
// passengers served there.
func (e *DispatchEngine) stopLocation(zone domain.Zone, pickups, dropoffs []*domain.TripRequest) domain.Location {
	if len(pickups) > 0 {
		return domain.Location{Zone: zone, Maz: pickups[0].Origin.Maz}
	}
	if len(dropoffs) > 0 {
		return domain.Location{Zone: zone, Maz: dropoffs[0].Destination.Maz}
	}
	loc := domain.Location{Zone: zone}
	if mazs := e.geo.MazsInZone(zone); len(mazs) > 0 {
		loc.Maz = mazs[0]
	}
	return loc
}

func requestIDs(requests []*domain.TripRequest) []int {
	if len(requests) == 0 {
		return nil
	}
	ids := make([]int, len(requests))
	for i, r := range requests {
		ids[i] = r.ID
	}
	return ids
}
