package core

import (
	"errors"
	"math/rand"
	"time"

	"github.com/signalsfoundry/skywash-simulator/internal/logging"
	"github.com/signalsfoundry/skywash-simulator/model"
	"github.com/signalsfoundry/skywash-simulator/timectrl"
)

// Precondition and abort errors reported by mission operations. A failed
// precondition leaves the mission state unchanged; the caller may correct it
// and retry.
var (
	ErrNotIdle         = errors.New("vehicle not idle")
	ErrNotScanning     = errors.New("vehicle not in scanning mode")
	ErrNoWindows       = errors.New("no windows detected")
	ErrNoPath          = errors.New("no cleaning path planned")
	ErrEmergency       = errors.New("vehicle in emergency state")
	ErrBatteryCritical = errors.New("battery critically low")
)

// Fixed durations of the ground and air actions, simulation time.
const (
	takeoffTime  = 2 * time.Second
	scanTickTime = 1 * time.Second
	rechargeTime = 2 * time.Second
	refillTime   = 1500 * time.Millisecond
)

// MissionController is the top-level mission state machine. It owns the
// vehicle's state, position, resources, window registry and cleaning path,
// and is the only mutator of all of them. The mission runs as one linear
// sequence of blocking operations; the controller is not safe for concurrent
// use.
type MissionController struct {
	profile model.VehicleProfile

	state    model.MissionState
	position Vec3
	home     Vec3

	resources *ResourceManager
	registry  *WindowRegistry
	planner   *PathPlanner
	motion    *MotionExecutor
	effector  Effector
	detector  DetectionSource

	rng   *rand.Rand
	clock timectrl.SimClock
	log   logging.Logger
	rec   MissionRecorder

	path              []Vec3
	waypointsExecuted int
	distanceFlown     float64
}

// Option configures a MissionController.
type Option func(*MissionController)

// WithHome sets the home (launch and landing) position.
func WithHome(home Vec3) Option {
	return func(mc *MissionController) { mc.home = home; mc.position = home }
}

// WithClock sets the simulation clock.
func WithClock(clock timectrl.SimClock) Option {
	return func(mc *MissionController) { mc.clock = clock }
}

// WithLogger sets the structured logger.
func WithLogger(log logging.Logger) Option {
	return func(mc *MissionController) { mc.log = log }
}

// WithRecorder sets the mission event recorder.
func WithRecorder(rec MissionRecorder) Option {
	return func(mc *MissionController) { mc.rec = rec }
}

// WithDetectionSource sets the window detection collaborator.
func WithDetectionSource(src DetectionSource) Option {
	return func(mc *MissionController) { mc.detector = src }
}

// WithRand sets the generator used for the per-tick detection roll. Inject a
// seeded generator for reproducible scans.
func WithRand(rng *rand.Rand) Option {
	return func(mc *MissionController) { mc.rng = rng }
}

// WithEffector sets the physical effector.
func WithEffector(e Effector) Option {
	return func(mc *MissionController) { mc.effector = e }
}

// NewMissionController constructs a controller in the IDLE state at the home
// position with full resources.
func NewMissionController(profile model.VehicleProfile, opts ...Option) *MissionController {
	mc := &MissionController{
		profile:   profile,
		state:     model.StateIdle,
		resources: NewResourceManager(),
		registry:  NewWindowRegistry(),
		planner:   NewPathPlanner(profile),
	}
	for _, opt := range opts {
		opt(mc)
	}

	if mc.clock == nil {
		mc.clock = timectrl.NewTimeController(time.Now().UTC(), timectrl.Accelerated)
	}
	if mc.log == nil {
		mc.log = logging.Noop()
	}
	if mc.rec == nil {
		mc.rec = NopRecorder{}
	}
	if mc.rng == nil {
		mc.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if mc.detector == nil {
		mc.detector = NewRandomDetectionSource(mc.rng)
	}
	if mc.effector == nil {
		mc.effector = NewSimEffector(mc.clock)
	}
	mc.motion = NewMotionExecutor(profile, mc.effector, mc.log)
	return mc
}

// Takeoff lifts the vehicle to scanning altitude. Requires IDLE; fails with
// no state change otherwise.
func (mc *MissionController) Takeoff() error {
	if mc.state != model.StateIdle {
		return ErrNotIdle
	}
	mc.setState(model.StateScanning)
	mc.position = Vec3{X: mc.home.X, Y: mc.home.Y, Z: mc.home.Z + mc.profile.TakeoffAltitude}
	mc.clock.Sleep(takeoffTime)
	mc.log.Info("takeoff complete", logging.Float64("altitude", mc.position.Z))
	return nil
}

// Land descends vertically from the current position. Landing always
// succeeds; unless the vehicle is in EMERGENCY (which is terminal for the
// mission), the state returns to IDLE.
func (mc *MissionController) Land() error {
	descent := mc.position.Z
	if descent > 0 {
		mc.clock.Sleep(time.Duration(descent / mc.profile.CruiseSpeed * float64(time.Second)))
	}
	mc.position.Z = 0
	if mc.state != model.StateEmergency {
		mc.setState(model.StateIdle)
	}
	mc.log.Info("landed",
		logging.Float64("x", mc.position.X),
		logging.Float64("y", mc.position.Y))
	return nil
}

// ScanBuilding runs a time-bounded scan of the facade, one logical second
// per tick. Each tick rolls the detection probability and, on a hit, records
// the detector's observation; battery drains every tick regardless. A
// low-battery reading aborts the scan and triggers an immediate
// return-to-home. On either completion the state becomes MAPPING and the
// registry is deduplicated.
func (mc *MissionController) ScanBuilding(ticks int) error {
	if mc.state != model.StateScanning {
		return ErrNotScanning
	}
	mc.log.Info("scanning building", logging.Int("ticks", ticks))

	for t := 0; t < ticks; t++ {
		if mc.rng.Float64() < mc.profile.DetectionProbability {
			if w := mc.detector.Detect(mc.position); w != nil {
				mc.registry.Add(w)
				mc.rec.WindowDetected(w)
				mc.log.Info("window detected",
					logging.Int("id", w.ID),
					logging.Float64("x", w.Center.X),
					logging.Float64("y", w.Center.Y),
					logging.Float64("z", w.Center.Z))
			}
		}
		mc.resources.DepleteBattery(mc.profile.ScanBatteryPerTick)
		if mc.resources.IsBatteryLow() {
			mc.log.Warn("low battery during scan", logging.Float64("battery", mc.resources.Battery()))
			mc.triggerLowBattery()
			break
		}
		mc.clock.Sleep(scanTickTime)
	}

	mc.setState(model.StateMapping)
	unique := mc.registry.Deduplicate()
	mc.log.Info("scan complete",
		logging.Int("observed", mc.registry.TotalObserved()),
		logging.Int("unique", unique))
	return nil
}

// PlanCleaningPath generates the cleaning path over all registered windows.
// Requires at least one window; fails with no state change otherwise.
func (mc *MissionController) PlanCleaningPath() error {
	if mc.registry.Count() == 0 {
		return ErrNoWindows
	}
	mc.setState(model.StatePathPlanning)
	mc.path = mc.planner.Plan(mc.registry.Windows())
	mc.log.Info("cleaning path planned", logging.Int("waypoints", len(mc.path)))
	return nil
}

// ExecuteCleaning flies the planned path, activating the cleaning system and
// draining resources per waypoint. Fluid exhaustion ends the run early and
// returns home; a critical battery reading or a motion failure escalates to
// EMERGENCY and lands on the spot. Requires a non-empty path.
func (mc *MissionController) ExecuteCleaning() error {
	if len(mc.path) == 0 {
		return ErrNoPath
	}
	mc.setState(model.StateCleaning)

	for i, waypoint := range mc.path {
		if mc.resources.IsBatteryCritical() {
			mc.triggerEmergency("battery critical during cleaning")
			return ErrBatteryCritical
		}
		if mc.resources.IsFluidLow() {
			mc.log.Warn("cleaning fluid exhausted", logging.Float64("fluid", mc.resources.Fluid()))
			mc.setState(model.StateReturning)
			break
		}

		if err := mc.moveVehicle(waypoint); err != nil {
			mc.triggerEmergency("movement failed during cleaning")
			return err
		}

		// The first two waypoints of each block of ten are repositioning
		// legs (approach and first edge); the rest run the cleaner.
		if i%10 > 1 {
			if err := mc.effector.ActivateCleaning(); err != nil {
				mc.triggerEmergency("cleaning activation failed")
				return err
			}
		}

		mc.resources.DepleteBattery(mc.profile.CleanBatteryPerStop)
		mc.resources.DepleteFluid(mc.profile.CleanFluidPerStop)
		mc.waypointsExecuted++
		mc.rec.WaypointReached(i, waypoint, mc.resources.Battery(), mc.resources.Fluid())

		for _, id := range mc.registry.MarkCleanedWithin(waypoint, mc.profile.ProximityThreshold) {
			mc.rec.WindowCleaned(id)
			mc.log.Info("window cleaned", logging.Int("id", id))
		}
	}

	mc.log.Info("cleaning sequence complete",
		logging.Int("waypoints", mc.waypointsExecuted),
		logging.Int("cleaned", mc.registry.CleanedCount()))
	mc.setState(model.StateReturning)
	return mc.ReturnToHome()
}

// ReturnToHome flies back to the home position and lands. It is a no-op
// failure in EMERGENCY, where return-to-home is skipped and only the landing
// attempt proceeds. A motion failure on the way home is reported as-is and
// leaves the vehicle in RETURNING wherever it stopped.
func (mc *MissionController) ReturnToHome() error {
	if mc.state == model.StateEmergency {
		return ErrEmergency
	}
	mc.setState(model.StateReturning)
	mc.log.Info("returning to home position")
	if err := mc.moveVehicle(mc.home); err != nil {
		return err
	}
	return mc.Land()
}

// Recharge resets the battery to full. Ground-service action, callable in
// any state.
func (mc *MissionController) Recharge() {
	mc.resources.Recharge()
	mc.clock.Sleep(rechargeTime)
	mc.log.Info("battery recharged")
}

// RefillFluid resets the cleaning fluid to full. Ground-service action,
// callable in any state.
func (mc *MissionController) RefillFluid() {
	mc.resources.Refill()
	mc.clock.Sleep(refillTime)
	mc.log.Info("cleaning fluid refilled")
}

// triggerLowBattery starts the return-to-home sequence. A motion failure on
// the way back is logged but does not fail the triggering operation.
func (mc *MissionController) triggerLowBattery() {
	mc.setState(model.StateReturning)
	if err := mc.ReturnToHome(); err != nil {
		mc.log.Error("return-to-home after low battery failed", logging.Any("error", err))
	}
}

// triggerEmergency stops the mission and lands immediately from the current
// position, not home. EMERGENCY is terminal for the mission.
func (mc *MissionController) triggerEmergency(reason string) {
	mc.log.Error("emergency", logging.String("reason", reason))
	mc.rec.EmergencyTriggered(reason)
	mc.setState(model.StateEmergency)
	mc.Land()
}

// moveVehicle delegates to the motion executor and keeps position and
// distance accounting in sync, including partial progress on failure.
func (mc *MissionController) moveVehicle(target Vec3) error {
	reached, err := mc.motion.MoveTo(mc.position, target)
	mc.distanceFlown += mc.position.DistanceTo(reached)
	mc.position = reached
	return err
}

func (mc *MissionController) setState(to model.MissionState) {
	if mc.state == to {
		return
	}
	from := mc.state
	mc.state = to
	mc.log.Info("state changed",
		logging.String("from", from.String()),
		logging.String("to", to.String()))
	mc.rec.StateChanged(from, to)
}

// State returns the current mission state.
func (mc *MissionController) State() model.MissionState { return mc.state }

// Position returns the vehicle's current position.
func (mc *MissionController) Position() Vec3 { return mc.position }

// Home returns the home position.
func (mc *MissionController) Home() Vec3 { return mc.home }

// Battery returns the battery level in percent.
func (mc *MissionController) Battery() float64 { return mc.resources.Battery() }

// Fluid returns the cleaning-fluid level in percent.
func (mc *MissionController) Fluid() float64 { return mc.resources.Fluid() }

// Resources exposes the resource manager for ground-service tooling. The
// controller remains the only mutator during flight.
func (mc *MissionController) Resources() *ResourceManager { return mc.resources }

// Registry returns the window registry. Callers may pre-seed it from a
// scenario before planning.
func (mc *MissionController) Registry() *WindowRegistry { return mc.registry }

// Path returns a copy of the planned cleaning path.
func (mc *MissionController) Path() []Vec3 {
	out := make([]Vec3, len(mc.path))
	copy(out, mc.path)
	return out
}

// Summary reports the mission's outcome so far.
func (mc *MissionController) Summary() model.MissionSummary {
	return model.MissionSummary{
		FinalState:        mc.state,
		WindowsDetected:   mc.registry.TotalObserved(),
		WindowsUnique:     mc.registry.Count(),
		WindowsCleaned:    mc.registry.CleanedCount(),
		WaypointsExecuted: mc.waypointsExecuted,
		BatteryRemaining:  mc.resources.Battery(),
		FluidRemaining:    mc.resources.Fluid(),
		DistanceFlown:     mc.distanceFlown,
		SimElapsed:        mc.clock.Elapsed(),
	}
}
