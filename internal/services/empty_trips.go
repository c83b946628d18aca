package services

import (
	"fleet-dispatch-service/internal/domain"
)

// ParkingPolicy decides where a household vehicle waits after dropping its
// passengers at a zone. ok false means the vehicle parks curbside and no
// repositioning leg is needed. Implementations typically resolve the nearest
// zone with parking capacity from the precomputed cost tables.
type ParkingPolicy func(zone domain.Zone) (domain.Zone, bool)

// InsertConnectorTrips walks a household vehicle's completed passenger legs
// in order and inserts the empty legs needed to make the chain physically
// consistent:
//
//   - a home-to-first-origin leg when the vehicle starts the day away from
//     the first passenger's origin;
//   - a destination-to-parking leg when the parking policy sends the vehicle
//     to a remote zone between servings, plus the leg back out to the next
//     passenger's origin;
//   - a connector leg wherever consecutive passenger legs have a
//     destination/next-origin mismatch;
//   - a final return-home leg when returnHome is set and the last leg does
//     not already end at home.
//
// Unlike the fleet router this is a single pass with direct lookups; no
// diversion-time search is involved. The input slice is not modified.
func InsertConnectorTrips(costs *TransportCostManager, skimPeriod int, legs []*domain.VehicleTrip,
	home domain.Location, minutesPerPeriod float64, returnHome bool, park ParkingPolicy) []*domain.VehicleTrip {
	if len(legs) == 0 {
		return nil
	}

	out := make([]*domain.VehicleTrip, 0, 2*len(legs)+1)

	if first := legs[0]; first.Origin.Zone != home.Zone {
		out = append(out, connectorLeg(costs, skimPeriod, home, first.Origin, first.StartPeriod, minutesPerPeriod))
	}

	for i, leg := range legs {
		out = append(out, leg)
		if i+1 >= len(legs) {
			break
		}
		next := legs[i+1]

		// The vehicle waits between servings; the policy may send it to a
		// remote parking zone first.
		cursor := leg.Destination
		when := leg.EndPeriod
		if park != nil {
			if pz, ok := park(leg.Destination.Zone); ok && pz != leg.Destination.Zone {
				lot := connectorLeg(costs, skimPeriod, cursor, domain.Location{Zone: pz}, when, minutesPerPeriod)
				out = append(out, lot)
				cursor = lot.Destination
				when = lot.EndPeriod
			}
		}
		if cursor.Zone != next.Origin.Zone {
			out = append(out, connectorLeg(costs, skimPeriod, cursor, next.Origin, when, minutesPerPeriod))
		}
	}

	if returnHome {
		last := legs[len(legs)-1]
		if last.Destination.Zone != home.Zone {
			out = append(out, connectorLeg(costs, skimPeriod, last.Destination, home, last.EndPeriod, minutesPerPeriod))
		}
	}

	return out
}

func connectorLeg(costs *TransportCostManager, skimPeriod int, from, to domain.Location,
	startPeriod int, minutesPerPeriod float64) *domain.VehicleTrip {
	travel := costs.Time(skimPeriod, from.Zone, to.Zone)
	return &domain.VehicleTrip{
		Origin:        from,
		Destination:   to,
		StartPeriod:   startPeriod,
		EndPeriod:     startPeriod + int(travel/minutesPerPeriod),
		Passengers:    0,
		DistanceMiles: costs.Distance(skimPeriod, from.Zone, to.Zone),
	}
}
