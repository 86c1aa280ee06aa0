package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/signalsfoundry/skywash-simulator/core"
	"github.com/signalsfoundry/skywash-simulator/model"
)

// MissionCollector bundles Prometheus metrics for a mission run. It
// implements core.MissionRecorder so the controller drives the metrics
// directly through its event stream.
type MissionCollector struct {
	gatherer prometheus.Gatherer

	Battery      prometheus.Gauge
	Fluid        prometheus.Gauge
	MissionState prometheus.Gauge

	WindowsDetected prometheus.Gauge
	WindowsCleaned  prometheus.Gauge

	StateTransitions *prometheus.CounterVec
	Waypoints        prometheus.Counter
	Emergencies      prometheus.Counter
}

// NewMissionCollector registers mission metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
// Re-registering against the same registry returns the existing collectors.
func NewMissionCollector(reg prometheus.Registerer) (*MissionCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	battery, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "mission_battery_percent",
		Help: "Current battery level of the vehicle.",
	}), "mission_battery_percent")
	if err != nil {
		return nil, err
	}
	fluid, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "mission_fluid_percent",
		Help: "Current cleaning-fluid level of the vehicle.",
	}), "mission_fluid_percent")
	if err != nil {
		return nil, err
	}
	state, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "mission_state",
		Help: "Current mission state as its enum value (0=IDLE .. 6=EMERGENCY).",
	}), "mission_state")
	if err != nil {
		return nil, err
	}
	detected, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "mission_windows_detected",
		Help: "Number of window observations recorded so far.",
	}), "mission_windows_detected")
	if err != nil {
		return nil, err
	}
	cleaned, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "mission_windows_cleaned",
		Help: "Number of windows marked cleaned so far.",
	}), "mission_windows_cleaned")
	if err != nil {
		return nil, err
	}

	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mission_state_transitions_total",
		Help: "Mission state transitions, labeled by source and target state.",
	}, []string{"from", "to"})
	transitions, err = registerCounterVec(reg, transitions, "mission_state_transitions_total")
	if err != nil {
		return nil, err
	}

	waypoints, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mission_waypoints_executed_total",
		Help: "Waypoints successfully executed across the mission.",
	}), "mission_waypoints_executed_total")
	if err != nil {
		return nil, err
	}
	emergencies, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mission_emergencies_total",
		Help: "Emergency transitions triggered across the mission.",
	}), "mission_emergencies_total")
	if err != nil {
		return nil, err
	}

	return &MissionCollector{
		gatherer:         gatherer,
		Battery:          battery,
		Fluid:            fluid,
		MissionState:     state,
		WindowsDetected:  detected,
		WindowsCleaned:   cleaned,
		StateTransitions: transitions,
		Waypoints:        waypoints,
		Emergencies:      emergencies,
	}, nil
}

// Handler exposes a ready-to-use /metrics handler.
func (c *MissionCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// StateChanged implements core.MissionRecorder.
func (c *MissionCollector) StateChanged(from, to model.MissionState) {
	if c == nil {
		return
	}
	c.StateTransitions.WithLabelValues(from.String(), to.String()).Inc()
	c.MissionState.Set(float64(to))
}

// WindowDetected implements core.MissionRecorder.
func (c *MissionCollector) WindowDetected(w *model.Window) {
	if c == nil {
		return
	}
	c.WindowsDetected.Inc()
}

// WaypointReached implements core.MissionRecorder.
func (c *MissionCollector) WaypointReached(index int, position core.Vec3, battery, fluid float64) {
	if c == nil {
		return
	}
	c.Waypoints.Inc()
	c.Battery.Set(battery)
	c.Fluid.Set(fluid)
}

// WindowCleaned implements core.MissionRecorder.
func (c *MissionCollector) WindowCleaned(windowID int) {
	if c == nil {
		return
	}
	c.WindowsCleaned.Inc()
}

// EmergencyTriggered implements core.MissionRecorder.
func (c *MissionCollector) EmergencyTriggered(reason string) {
	if c == nil {
		return
	}
	c.Emergencies.Inc()
}

// MissionEnded implements core.MissionRecorder.
func (c *MissionCollector) MissionEnded(summary model.MissionSummary) {
	if c == nil {
		return
	}
	c.Battery.Set(summary.BatteryRemaining)
	c.Fluid.Set(summary.FluidRemaining)
	c.WindowsCleaned.Set(float64(summary.WindowsCleaned))
	c.MissionState.Set(float64(summary.FinalState))
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
