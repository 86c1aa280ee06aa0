package model

// MissionState is the phase of the cleaning mission state machine.
type MissionState int

const (
	StateIdle MissionState = iota
	StateScanning
	StateMapping
	StatePathPlanning
	StateCleaning
	StateReturning
	StateEmergency
)

var stateNames = map[MissionState]string{
	StateIdle:         "IDLE",
	StateScanning:     "SCANNING",
	StateMapping:      "MAPPING",
	StatePathPlanning: "PATH_PLANNING",
	StateCleaning:     "CLEANING",
	StateReturning:    "RETURNING",
	StateEmergency:    "EMERGENCY",
}

func (s MissionState) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}
