package model

import "time"

// MissionSummary is the end-of-run report for one mission. It is plain data;
// rendering is left to the caller.
type MissionSummary struct {
	FinalState        MissionState
	WindowsDetected   int // raw detections before deduplication
	WindowsUnique     int
	WindowsCleaned    int
	WaypointsExecuted int
	BatteryRemaining  float64
	FluidRemaining    float64
	DistanceFlown     float64 // metres
	SimElapsed        time.Duration
}
