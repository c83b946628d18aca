package services

import (
	"errors"
	"reflect"
	"testing"

	"fleet-dispatch-service/internal/adapters/geography"
	"fleet-dispatch-service/internal/adapters/skims"
	"fleet-dispatch-service/internal/domain"
	"fleet-dispatch-service/internal/ports"
)

// dispatchFixture is a four-zone corridor. Zones 2 and 3 both lie within the
// diversion budget of the 1->4 pair, zone 2 closer to the origin.
func dispatchFixture(t *testing.T) (*DispatchEngine, *FleetRegistry, *TripRequestManager) {
	t.Helper()

	var cells []skims.MatrixCell
	cells = append(cells, symmetricCells(0, 1, 2, 4, 2)...)
	cells = append(cells, symmetricCells(0, 1, 3, 7, 3.5)...)
	cells = append(cells, symmetricCells(0, 1, 4, 10, 5)...)
	cells = append(cells, symmetricCells(0, 2, 3, 4, 2)...)
	cells = append(cells, symmetricCells(0, 2, 4, 8, 4)...)
	cells = append(cells, symmetricCells(0, 3, 4, 5, 2.5)...)

	costs := newTestCosts(t, 4, 5, 10, cells)
	geo := geography.NewStaticGeography([]geography.ZoneRow{
		{Maz: 101, Zone: 1},
		{Maz: 102, Zone: 1},
		{Maz: 201, Zone: 2},
		{Maz: 301, Zone: 3},
		{Maz: 401, Zone: 4},
	})

	fleet, err := NewFleetRegistry(costs, geo, ports.ElasticGrowth{}, FleetConfig{
		VehicleCapacity:         6,
		MinutesPerPeriod:        5,
		MaxDistanceBeforeRefuel: 250,
		PeriodsPerRefuel:        1,
	})
	if err != nil {
		t.Fatalf("build fleet: %v", err)
	}

	requests := NewTripRequestManager(288, 5)
	engine := NewDispatchEngine(costs, fleet, requests, geo, NewStreams(1), 5, 0)
	return engine, fleet, requests
}

func TestRouteVehicleMultiStop(t *testing.T) {
	engine, fleet, _ := dispatchFixture(t)

	r1 := &domain.TripRequest{ID: 1, Origin: domain.Location{Zone: 1, Maz: 101}, Destination: domain.Location{Zone: 4, Maz: 401}, Occupants: 1}
	r2 := &domain.TripRequest{ID: 2, Origin: domain.Location{Zone: 2, Maz: 201}, Destination: domain.Location{Zone: 4, Maz: 401}, Occupants: 1}
	r3 := &domain.TripRequest{ID: 3, Origin: domain.Location{Zone: 1, Maz: 102}, Destination: domain.Location{Zone: 3, Maz: 301}, Occupants: 1}

	v := &domain.Vehicle{ID: 7, Location: domain.Location{Zone: 1, Maz: 101}, MaxPassengers: 6}
	v.Requests = []*domain.TripRequest{r1, r2, r3}
	fleet.fleetSize++
	if err := fleet.AddVehicleToRoute(v); err != nil {
		t.Fatalf("queue vehicle: %v", err)
	}

	if err := engine.routeVehicle(v, 0, 10); err != nil {
		t.Fatalf("route vehicle: %v", err)
	}

	if len(v.Trips) != 3 {
		t.Fatalf("itinerary has %d legs, want 3", len(v.Trips))
	}

	leg1, leg2, leg3 := v.Trips[0], v.Trips[1], v.Trips[2]

	// Leg 1: both anchor-zone passengers board, diversion to zone 2 for the
	// third pickup.
	if leg1.Origin.Zone != 1 || leg1.Destination.Zone != 2 {
		t.Fatalf("leg 1 is %d->%d, want 1->2", leg1.Origin.Zone, leg1.Destination.Zone)
	}
	if leg1.Passengers != 2 {
		t.Fatalf("leg 1 passengers = %d, want 2", leg1.Passengers)
	}
	if !reflect.DeepEqual(leg1.OriginPickups, []int{1, 3}) {
		t.Fatalf("leg 1 origin pickups = %v, want [1 3]", leg1.OriginPickups)
	}
	if !reflect.DeepEqual(leg1.DestinationPickups, []int{2}) {
		t.Fatalf("leg 1 destination pickups = %v, want [2]", leg1.DestinationPickups)
	}
	if leg1.EndPeriod != 10 {
		t.Fatalf("leg 1 end period = %d, want 10 (4 min from anchor origin)", leg1.EndPeriod)
	}

	// Leg 2: three aboard, zone 3 dropoff for the short-hop passenger.
	if leg2.Origin.Zone != 2 || leg2.Destination.Zone != 3 {
		t.Fatalf("leg 2 is %d->%d, want 2->3", leg2.Origin.Zone, leg2.Destination.Zone)
	}
	if leg2.Passengers != 3 {
		t.Fatalf("leg 2 passengers = %d, want 3", leg2.Passengers)
	}
	if !reflect.DeepEqual(leg2.DestinationDropoffs, []int{3}) {
		t.Fatalf("leg 2 destination dropoffs = %v, want [3]", leg2.DestinationDropoffs)
	}
	if leg2.EndPeriod != 11 {
		t.Fatalf("leg 2 end period = %d, want 11 (7 min from anchor origin)", leg2.EndPeriod)
	}
	if leg2.DistanceMiles != 2 {
		t.Fatalf("leg 2 distance = %v, want 2 (zone 2 to zone 3)", leg2.DistanceMiles)
	}

	// Leg 3: final leg to the anchor destination, everyone alights.
	if leg3.Origin.Zone != 3 || leg3.Destination.Zone != 4 {
		t.Fatalf("leg 3 is %d->%d, want 3->4", leg3.Origin.Zone, leg3.Destination.Zone)
	}
	if leg3.Passengers != 2 {
		t.Fatalf("leg 3 passengers = %d, want 2", leg3.Passengers)
	}
	if len(leg3.DestinationDropoffs) != 2 {
		t.Fatalf("leg 3 destination dropoffs = %v, want ids 1 and 2", leg3.DestinationDropoffs)
	}
	if leg3.EndPeriod != 12 {
		t.Fatalf("leg 3 end period = %d, want 12 (10 min from anchor origin)", leg3.EndPeriod)
	}

	if got := v.ArrivalOccupancy(); got != 0 {
		t.Fatalf("final occupancy = %d, want 0", got)
	}
	for _, leg := range v.Trips {
		if leg.Passengers < 0 || leg.Passengers > v.MaxPassengers {
			t.Fatalf("leg %d->%d passengers %d outside [0,%d]",
				leg.Origin.Zone, leg.Destination.Zone, leg.Passengers, v.MaxPassengers)
		}
	}

	if engine.RoutedRequests() != 3 {
		t.Fatalf("routed = %d, want 3", engine.RoutedRequests())
	}
	_, toRoute, active, _ := fleet.Counts()
	if toRoute != 0 || active != 1 {
		t.Fatalf("counts after routing = toRoute %d active %d, want 0/1", toRoute, active)
	}
}

func TestRouteVehicleSingleRequest(t *testing.T) {
	engine, fleet, _ := dispatchFixture(t)

	r := &domain.TripRequest{ID: 5, Origin: domain.Location{Zone: 1, Maz: 101}, Destination: domain.Location{Zone: 4, Maz: 401}, Occupants: 2}
	v := &domain.Vehicle{ID: 1, Location: domain.Location{Zone: 1, Maz: 101}, MaxPassengers: 6}
	v.Requests = []*domain.TripRequest{r}
	fleet.fleetSize++
	if err := fleet.AddVehicleToRoute(v); err != nil {
		t.Fatalf("queue vehicle: %v", err)
	}

	if err := engine.routeVehicle(v, 0, 0); err != nil {
		t.Fatalf("route vehicle: %v", err)
	}
	if len(v.Trips) != 1 {
		t.Fatalf("single-request itinerary has %d legs, want 1", len(v.Trips))
	}
	leg := v.Trips[0]
	if leg.Passengers != 1 {
		t.Fatalf("leg passengers = %d, want 1 (one request aboard)", leg.Passengers)
	}
	if !reflect.DeepEqual(leg.DestinationDropoffs, []int{5}) {
		t.Fatalf("destination dropoffs = %v, want [5]", leg.DestinationDropoffs)
	}
	if leg.EndPeriod != 2 {
		t.Fatalf("end period = %d, want 2", leg.EndPeriod)
	}
}

func TestRouteVehicleUnreachablePassenger(t *testing.T) {
	engine, fleet, _ := dispatchFixture(t)

	// Zone 4 is far off the diversion path for the anchor pair 1->2
	// (detour 10+8-4 = 14 minutes against a budget of 5). A passenger whose
	// pickup zone is never visited must fail the routing invariant.
	r1 := &domain.TripRequest{ID: 1, Origin: domain.Location{Zone: 1, Maz: 101}, Destination: domain.Location{Zone: 2, Maz: 201}, Occupants: 1}
	r2 := &domain.TripRequest{ID: 2, Origin: domain.Location{Zone: 4, Maz: 401}, Destination: domain.Location{Zone: 2, Maz: 201}, Occupants: 1}
	v := &domain.Vehicle{ID: 3, Location: domain.Location{Zone: 1, Maz: 101}, MaxPassengers: 6}
	v.Requests = []*domain.TripRequest{r1, r2}
	fleet.fleetSize++
	if err := fleet.AddVehicleToRoute(v); err != nil {
		t.Fatalf("queue vehicle: %v", err)
	}

	err := engine.routeVehicle(v, 0, 0)
	if err == nil {
		t.Fatal("expected data integrity error for unreachable passenger")
	}
}

func TestMatchRequestsPoolsSameZone(t *testing.T) {
	engine, fleet, requests := dispatchFixture(t)
	geo := geography.NewStaticGeography([]geography.ZoneRow{
		{Maz: 101, Zone: 1},
		{Maz: 401, Zone: 4},
	})

	batch := []*domain.TripRequest{
		{ID: 1, Origin: domain.Location{Maz: 101}, Destination: domain.Location{Maz: 401}, DeparturePeriod: 0, Occupants: 2},
		{ID: 2, Origin: domain.Location{Maz: 101}, Destination: domain.Location{Maz: 401}, DeparturePeriod: 0, Occupants: 2},
		{ID: 3, Origin: domain.Location{Maz: 101}, Destination: domain.Location{Maz: 401}, DeparturePeriod: 0, Occupants: 2},
	}
	if err := requests.Load(batch, geo, engine.streams.DepartureTime); err != nil {
		t.Fatalf("load requests: %v", err)
	}

	if err := engine.MatchRequests(0, 0); err != nil {
		t.Fatalf("match: %v", err)
	}

	// Three two-person parties fit in one six-seat vehicle.
	if fleet.FleetSize() != 1 {
		t.Fatalf("fleet size = %d, want 1 (all parties pooled)", fleet.FleetSize())
	}
	_, toRoute, _, _ := fleet.Counts()
	if toRoute != 1 {
		t.Fatalf("toRoute = %d, want 1", toRoute)
	}
	v := fleet.ToRoute()[0]
	if len(v.Requests) != 3 {
		t.Fatalf("pooled vehicle carries %d requests, want 3", len(v.Requests))
	}
	if v.AssignedSeats() != 6 {
		t.Fatalf("assigned seats = %d, want 6", v.AssignedSeats())
	}
}

func TestRouteVehicleOffPathDropoff(t *testing.T) {
	engine, fleet, _ := dispatchFixture(t)

	// Zone 4 is far off the diversion path for the anchor pair 1->2
	// (detour 10+8-4 = 14 minutes against a budget of 5). A passenger bound
	// there must not silently alight at the anchor destination.
	r1 := &domain.TripRequest{ID: 1, Origin: domain.Location{Zone: 1, Maz: 101}, Destination: domain.Location{Zone: 2, Maz: 201}, Occupants: 1}
	r2 := &domain.TripRequest{ID: 2, Origin: domain.Location{Zone: 1, Maz: 102}, Destination: domain.Location{Zone: 4, Maz: 401}, Occupants: 1}
	v := &domain.Vehicle{ID: 8, Location: domain.Location{Zone: 1, Maz: 101}, MaxPassengers: 6}
	v.Requests = []*domain.TripRequest{r1, r2}
	fleet.fleetSize++
	if err := fleet.AddVehicleToRoute(v); err != nil {
		t.Fatalf("queue vehicle: %v", err)
	}

	err := engine.routeVehicle(v, 0, 0)
	if !errors.Is(err, ErrDataIntegrity) {
		t.Fatalf("route with off-path dropoff: err = %v, want ErrDataIntegrity", err)
	}
}

func TestMatchRequestsRefusesOffPathDestination(t *testing.T) {
	engine, fleet, requests := dispatchFixture(t)
	geo := geography.NewStaticGeography([]geography.ZoneRow{
		{Maz: 101, Zone: 1},
		{Maz: 201, Zone: 2},
		{Maz: 401, Zone: 4},
	})

	// Same origin zone, destinations that cannot both ride one anchor path:
	// zone 4 is 14 detour minutes off the 1->2 pair. Whichever request anchors
	// first, both must alight in their own destination zone.
	batch := []*domain.TripRequest{
		{ID: 1, Origin: domain.Location{Maz: 101}, Destination: domain.Location{Maz: 201}, DeparturePeriod: 0, Occupants: 1},
		{ID: 2, Origin: domain.Location{Maz: 101}, Destination: domain.Location{Maz: 401}, DeparturePeriod: 0, Occupants: 1},
	}
	if err := requests.Load(batch, geo, engine.streams.DepartureTime); err != nil {
		t.Fatalf("load requests: %v", err)
	}

	if err := engine.MatchRequests(0, 0); err != nil {
		t.Fatalf("match: %v", err)
	}
	if err := engine.RouteQueuedVehicles(0, 0); err != nil {
		t.Fatalf("route: %v", err)
	}

	if engine.RoutedRequests() != 2 {
		t.Fatalf("routed = %d, want 2", engine.RoutedRequests())
	}
	want := map[int]domain.Zone{1: 2, 2: 4}
	for id, zone := range want {
		if got := dropoffZone(t, fleet, id); got != zone {
			t.Fatalf("request %d alighted at zone %d, want %d", id, got, zone)
		}
	}
}

// dropoffZone finds the zone where a request left its vehicle.
func dropoffZone(t *testing.T, fleet *FleetRegistry, requestID int) domain.Zone {
	t.Helper()
	for _, v := range fleet.AllVehicles() {
		for _, leg := range v.Trips {
			for _, id := range leg.DestinationDropoffs {
				if id == requestID {
					return leg.Destination.Zone
				}
			}
		}
	}
	t.Fatalf("request %d never dropped off", requestID)
	return 0
}

func TestMatchRequestsOverflowsToSecondVehicle(t *testing.T) {
	engine, fleet, requests := dispatchFixture(t)
	geo := geography.NewStaticGeography([]geography.ZoneRow{
		{Maz: 101, Zone: 1},
		{Maz: 401, Zone: 4},
	})

	batch := []*domain.TripRequest{
		{ID: 1, Origin: domain.Location{Maz: 101}, Destination: domain.Location{Maz: 401}, DeparturePeriod: 0, Occupants: 4},
		{ID: 2, Origin: domain.Location{Maz: 101}, Destination: domain.Location{Maz: 401}, DeparturePeriod: 0, Occupants: 4},
	}
	if err := requests.Load(batch, geo, engine.streams.DepartureTime); err != nil {
		t.Fatalf("load requests: %v", err)
	}

	if err := engine.MatchRequests(0, 0); err != nil {
		t.Fatalf("match: %v", err)
	}
	if fleet.FleetSize() != 2 {
		t.Fatalf("fleet size = %d, want 2 (4+4 exceeds capacity 6)", fleet.FleetSize())
	}
}

func TestMatchRequestsDropsWhenGrowthCapped(t *testing.T) {
	var cells []skims.MatrixCell
	cells = append(cells, symmetricCells(0, 1, 2, 4, 2)...)
	costs := newTestCosts(t, 2, 5, 10, cells)
	geo := geography.NewStaticGeography([]geography.ZoneRow{
		{Maz: 101, Zone: 1},
		{Maz: 201, Zone: 2},
	})
	fleet, err := NewFleetRegistry(costs, geo, ports.CappedGrowth{MaxVehicles: 0}, FleetConfig{
		VehicleCapacity:         6,
		MinutesPerPeriod:        5,
		MaxDistanceBeforeRefuel: 250,
		PeriodsPerRefuel:        1,
	})
	if err != nil {
		t.Fatalf("build fleet: %v", err)
	}
	requests := NewTripRequestManager(288, 5)
	engine := NewDispatchEngine(costs, fleet, requests, geo, NewStreams(1), 5, 0)

	batch := []*domain.TripRequest{
		{ID: 1, Origin: domain.Location{Maz: 101}, Destination: domain.Location{Maz: 201}, DeparturePeriod: 0, Occupants: 1},
	}
	if err := requests.Load(batch, geo, engine.streams.DepartureTime); err != nil {
		t.Fatalf("load requests: %v", err)
	}

	if err := engine.MatchRequests(0, 0); err != nil {
		t.Fatalf("match: %v", err)
	}
	if engine.UnmatchedRequests() != 1 {
		t.Fatalf("unmatched = %d, want 1", engine.UnmatchedRequests())
	}
	if fleet.FleetSize() != 0 {
		t.Fatalf("fleet size = %d, want 0 under a zero cap", fleet.FleetSize())
	}
}

func TestRunPeriodFullCycle(t *testing.T) {
	engine, fleet, requests := dispatchFixture(t)
	geo := geography.NewStaticGeography([]geography.ZoneRow{
		{Maz: 101, Zone: 1},
		{Maz: 401, Zone: 4},
	})

	batch := []*domain.TripRequest{
		{ID: 1, Origin: domain.Location{Maz: 101}, Destination: domain.Location{Maz: 401}, DeparturePeriod: 2, Occupants: 1},
	}
	if err := requests.Load(batch, geo, engine.streams.DepartureTime); err != nil {
		t.Fatalf("load requests: %v", err)
	}

	for p := 0; p < 6; p++ {
		if err := engine.RunPeriod(0, p); err != nil {
			t.Fatalf("period %d: %v", p, err)
		}
	}

	if engine.RoutedRequests() != 1 {
		t.Fatalf("routed = %d, want 1", engine.RoutedRequests())
	}
	if requests.Dropped() != 0 {
		t.Fatalf("dropped = %d, want 0", requests.Dropped())
	}

	// The 10-minute trip departing at period 2 ends at period 4; by the
	// period 5 free pass the vehicle is idle again at the destination.
	idle, toRoute, active, _ := fleet.Counts()
	if idle != 1 || toRoute != 0 || active != 0 {
		t.Fatalf("end counts = idle %d toRoute %d active %d, want 1/0/0", idle, toRoute, active)
	}
	v := fleet.AllVehicles()[0]
	if v.Location.Zone != 4 {
		t.Fatalf("vehicle parked at zone %d, want 4", v.Location.Zone)
	}
}
