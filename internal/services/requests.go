package services

import (
	"fmt"
	"log"
	"math/rand"

	"fleet-dispatch-service/internal/domain"
	"fleet-dispatch-service/internal/ports"
)

// TripRequestManager indexes pending trip requests by departure period and
// origin zone. Requests enter once from the request source and leave exactly
// once: either sampled by the dispatcher when matched to a vehicle, or
// dropped explicitly at the end of their period.
type TripRequestManager struct {
	periods          int
	minutesPerPeriod float64

	// buckets[period] holds the requests not yet consumed for that period.
	buckets [][]*domain.TripRequest

	loaded  int
	dropped int
}

func NewTripRequestManager(periods int, minutesPerPeriod float64) *TripRequestManager {
	return &TripRequestManager{
		periods:          periods,
		minutesPerPeriod: minutesPerPeriod,
		buckets:          make([][]*domain.TripRequest, periods),
	}
}

// Load resolves zones for every request, samples an exact departure minute
// within the request's period window, and buckets the request. A request
// naming a micro-zone outside the geography is a data integrity failure.
func (m *TripRequestManager) Load(requests []*domain.TripRequest, geo ports.ZoneGeography, departures *rand.Rand) error {
	for _, r := range requests {
		oz, ok := geo.ZoneForMaz(r.Origin.Maz)
		if !ok {
			return fmt.Errorf("%w: trip request %d: origin maz %d has no zone", ErrDataIntegrity, r.ID, r.Origin.Maz)
		}
		dz, ok := geo.ZoneForMaz(r.Destination.Maz)
		if !ok {
			return fmt.Errorf("%w: trip request %d: destination maz %d has no zone", ErrDataIntegrity, r.ID, r.Destination.Maz)
		}
		if r.DeparturePeriod < 0 || r.DeparturePeriod >= m.periods {
			return fmt.Errorf("%w: trip request %d: departure period %d outside 0..%d",
				ErrDataIntegrity, r.ID, r.DeparturePeriod, m.periods-1)
		}
		if r.Occupants < 1 {
			return fmt.Errorf("%w: trip request %d: occupants=%d", ErrDataIntegrity, r.ID, r.Occupants)
		}

		r.Origin.Zone = oz
		r.Destination.Zone = dz
		r.DepartureMinute = (float64(r.DeparturePeriod) + departures.Float64()) * m.minutesPerPeriod

		m.buckets[r.DeparturePeriod] = append(m.buckets[r.DeparturePeriod], r)
		m.loaded++
	}
	return nil
}

// Pending reports how many requests wait in a period's bucket.
func (m *TripRequestManager) Pending(period int) int {
	return len(m.buckets[period])
}

// Sample removes and returns a uniformly random request from the period's
// bucket, or nil when the bucket is empty.
func (m *TripRequestManager) Sample(period int, rng *rand.Rand) *domain.TripRequest {
	bucket := m.buckets[period]
	if len(bucket) == 0 {
		return nil
	}
	i := rng.Intn(len(bucket))
	r := bucket[i]
	bucket[i] = bucket[len(bucket)-1]
	m.buckets[period] = bucket[:len(bucket)-1]
	return r
}

// DropRemaining discards any requests still waiting for a period after the
// dispatcher has finished matching it. Returns the number dropped.
func (m *TripRequestManager) DropRemaining(period int) int {
	n := len(m.buckets[period])
	if n > 0 {
		log.Printf("requests: dropping %d unmatched requests period=%d", n, period)
		m.buckets[period] = nil
		m.dropped += n
	}
	return n
}

// Loaded is the total number of requests accepted by Load.
func (m *TripRequestManager) Loaded() int { return m.loaded }

// Dropped is the total number of requests discarded unmatched.
func (m *TripRequestManager) Dropped() int { return m.dropped }
