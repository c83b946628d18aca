package ports

// FleetGrowthPolicy decides whether the registry may manufacture a new
// vehicle when no empty vehicle is reachable. The default policy is elastic:
// supply is created on demand and total fleet size is a run output rather
// than an input.
type FleetGrowthPolicy interface {
	// AllowGrowth reports whether a fleet of the given size may add a vehicle.
	AllowGrowth(fleetSize int) bool
}

// ElasticGrowth never refuses vehicle generation.
type ElasticGrowth struct{}

func (ElasticGrowth) AllowGrowth(int) bool { return true }

// CappedGrowth refuses generation once the fleet reaches MaxVehicles;
// requests that cannot be served are dropped by the dispatcher.
type CappedGrowth struct {
	MaxVehicles int
}

func (c CappedGrowth) AllowGrowth(fleetSize int) bool {
	return fleetSize < c.MaxVehicles
}
