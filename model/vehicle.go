package model

// VehicleProfile bundles the operational constants of one cleaning vehicle.
// Values are fixed for a mission; a scenario file may override individual
// fields before the mission starts.
type VehicleProfile struct {
	CruiseSpeed     float64 // m/s
	CleaningRate    float64 // m²/min; part of the vehicle datasheet, not used by path math
	MaxAltitude     float64 // metres
	CameraFOVH      float64 // degrees, horizontal; informational
	CameraFOVV      float64 // degrees, vertical; informational
	TakeoffAltitude float64 // metres climbed on takeoff

	CoverageSpacing    float64 // metres between coverage rows
	ProximityThreshold float64 // metres from a window centre that counts as cleaned
	ApproachStandoff   float64 // metres kept before contacting a window

	SegmentThreshold float64 // moves longer than this are split (metres)
	SubStepLength    float64 // nominal sub-step length when splitting (metres)

	DetectionProbability float64 // chance of a detection event per scan tick
	ScanBatteryPerTick   float64 // battery % per scan tick
	CleanBatteryPerStop  float64 // battery % per executed waypoint
	CleanFluidPerStop    float64 // fluid % per executed waypoint
}

// DefaultVehicleProfile returns the stock profile.
func DefaultVehicleProfile() VehicleProfile {
	return VehicleProfile{
		CruiseSpeed:     1.0,
		CleaningRate:    0.5,
		MaxAltitude:     50.0,
		CameraFOVH:      60,
		CameraFOVV:      40,
		TakeoffAltitude: 5.0,

		CoverageSpacing:    0.3,
		ProximityThreshold: 1.0,
		ApproachStandoff:   0.5,

		SegmentThreshold: 10.0,
		SubStepLength:    5.0,

		DetectionProbability: 0.1,
		ScanBatteryPerTick:   0.05,
		CleanBatteryPerStop:  0.1,
		CleanFluidPerStop:    0.2,
	}
}
