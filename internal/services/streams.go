package services

import "math/rand"

// Streams holds one named pseudo-random stream per sampling purpose, each
// seeded deterministically from a single master seed. Keeping the streams
// separate makes a subsystem's draws independent of how often the others
// sample, which keeps runs reproducible if phases are ever reordered.
type Streams struct {
	// VehicleChoice picks a random vehicle from a zone pool.
	VehicleChoice *rand.Rand
	// RequestSample picks the next waiting request from a period bucket.
	RequestSample *rand.Rand
	// DepartureTime samples exact departure minutes within a period window.
	DepartureTime *rand.Rand
}

// Fixed offsets keep the derived seeds distinct without depending on draw
// order against a shared stream.
const (
	vehicleChoiceOffset = 1
	requestSampleOffset = 2
	departureTimeOffset = 3
)

func NewStreams(masterSeed int64) *Streams {
	return &Streams{
		VehicleChoice: rand.New(rand.NewSource(masterSeed + vehicleChoiceOffset)),
		RequestSample: rand.New(rand.NewSource(masterSeed + requestSampleOffset)),
		DepartureTime: rand.New(rand.NewSource(masterSeed + departureTimeOffset)),
	}
}
