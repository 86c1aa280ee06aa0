package core

import "github.com/signalsfoundry/skywash-simulator/model"

// MissionRecorder receives mission lifecycle events. Implementations render,
// persist, or aggregate them; the controller never depends on what a recorder
// does with an event, only that the call returns.
type MissionRecorder interface {
	StateChanged(from, to model.MissionState)
	WindowDetected(w *model.Window)
	WaypointReached(index int, position Vec3, battery, fluid float64)
	WindowCleaned(windowID int)
	EmergencyTriggered(reason string)
	MissionEnded(summary model.MissionSummary)
}

// NopRecorder drops every event.
type NopRecorder struct{}

func (NopRecorder) StateChanged(from, to model.MissionState)    {}
func (NopRecorder) WindowDetected(w *model.Window)              {}
func (NopRecorder) WaypointReached(int, Vec3, float64, float64) {}
func (NopRecorder) WindowCleaned(windowID int)                  {}
func (NopRecorder) EmergencyTriggered(reason string)            {}
func (NopRecorder) MissionEnded(summary model.MissionSummary)   {}

// MultiRecorder fans each event out to several recorders in order.
func MultiRecorder(recorders ...MissionRecorder) MissionRecorder {
	return multiRecorder(recorders)
}

type multiRecorder []MissionRecorder

func (m multiRecorder) StateChanged(from, to model.MissionState) {
	for _, r := range m {
		r.StateChanged(from, to)
	}
}

func (m multiRecorder) WindowDetected(w *model.Window) {
	for _, r := range m {
		r.WindowDetected(w)
	}
}

func (m multiRecorder) WaypointReached(index int, position Vec3, battery, fluid float64) {
	for _, r := range m {
		r.WaypointReached(index, position, battery, fluid)
	}
}

func (m multiRecorder) WindowCleaned(windowID int) {
	for _, r := range m {
		r.WindowCleaned(windowID)
	}
}

func (m multiRecorder) EmergencyTriggered(reason string) {
	for _, r := range m {
		r.EmergencyTriggered(reason)
	}
}

func (m multiRecorder) MissionEnded(summary model.MissionSummary) {
	for _, r := range m {
		r.MissionEnded(summary)
	}
}
