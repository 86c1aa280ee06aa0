package core

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/signalsfoundry/skywash-simulator/model"
)

// rollSource is a rand.Source whose Float64 outcomes follow a script. Values
// below the detection probability fire a detection event; once the script is
// exhausted every roll is 0.5.
type rollSource struct {
	rolls []float64
	next  int
}

func (s *rollSource) Int63() int64 {
	v := 0.5
	if s.next < len(s.rolls) {
		v = s.rolls[s.next]
		s.next++
	}
	return int64(v * (1 << 63))
}

func (s *rollSource) Seed(int64) {}

// missionEventRecorder captures the controller's event stream for assertions.
type missionEventRecorder struct {
	NopRecorder
	transitions  []model.MissionState
	emergencies  []string
	batteryTrace []float64
	fluidTrace   []float64
	cleaned      []int
}

func (r *missionEventRecorder) StateChanged(from, to model.MissionState) {
	r.transitions = append(r.transitions, to)
}

func (r *missionEventRecorder) WaypointReached(index int, position Vec3, battery, fluid float64) {
	r.batteryTrace = append(r.batteryTrace, battery)
	r.fluidTrace = append(r.fluidTrace, fluid)
}

func (r *missionEventRecorder) WindowCleaned(windowID int) {
	r.cleaned = append(r.cleaned, windowID)
}

func (r *missionEventRecorder) EmergencyTriggered(reason string) {
	r.emergencies = append(r.emergencies, reason)
}

func (r *missionEventRecorder) sawState(s model.MissionState) bool {
	for _, st := range r.transitions {
		if st == s {
			return true
		}
	}
	return false
}

func TestTakeoff_RequiresIdle(t *testing.T) {
	mc := NewMissionController(model.DefaultVehicleProfile())
	if err := mc.Takeoff(); err != nil {
		t.Fatalf("first takeoff: %v", err)
	}
	if mc.State() != model.StateScanning {
		t.Fatalf("state after takeoff = %v, want SCANNING", mc.State())
	}
	want := Vec3{X: 0, Y: 0, Z: 5}
	if mc.Position() != want {
		t.Errorf("position after takeoff = %+v, want %+v", mc.Position(), want)
	}

	if err := mc.Takeoff(); !errors.Is(err, ErrNotIdle) {
		t.Errorf("second takeoff err = %v, want ErrNotIdle", err)
	}
	if mc.State() != model.StateScanning {
		t.Errorf("failed takeoff must not change state, got %v", mc.State())
	}
}

func TestScanBuilding_RequiresScanningState(t *testing.T) {
	mc := NewMissionController(model.DefaultVehicleProfile())
	if err := mc.ScanBuilding(10); !errors.Is(err, ErrNotScanning) {
		t.Errorf("scan while idle err = %v, want ErrNotScanning", err)
	}
	if mc.State() != model.StateIdle {
		t.Errorf("failed scan must not change state, got %v", mc.State())
	}
}

// Scan for 10 logical seconds with detections scripted at ticks 2 and 7:
// exactly two windows are registered, the state ends in MAPPING and the
// battery is 100 - 10*0.05 = 99.5.
func TestScanBuilding_DetectsAtScriptedTicks(t *testing.T) {
	rolls := []float64{0.5, 0.5, 0.05, 0.5, 0.5, 0.5, 0.5, 0.05, 0.5, 0.5}
	detector := NewScriptedDetectionSource(
		model.NewWindowAt(model.Position{X: 2, Y: 6, Z: 5}, 1.5, 1.0),
		model.NewWindowAt(model.Position{X: 6, Y: 7, Z: 5}, 1.2, 0.9),
	)
	rec := &missionEventRecorder{}
	mc := NewMissionController(model.DefaultVehicleProfile(),
		WithRand(rand.New(&rollSource{rolls: rolls})),
		WithDetectionSource(detector),
		WithRecorder(rec),
	)

	if err := mc.Takeoff(); err != nil {
		t.Fatalf("takeoff: %v", err)
	}
	if err := mc.ScanBuilding(10); err != nil {
		t.Fatalf("scan: %v", err)
	}

	if mc.State() != model.StateMapping {
		t.Errorf("state after scan = %v, want MAPPING", mc.State())
	}
	if got := mc.Registry().Count(); got != 2 {
		t.Errorf("registered windows = %d, want 2", got)
	}
	if math.Abs(mc.Battery()-99.5) > 1e-9 {
		t.Errorf("battery after scan = %v, want 99.5", mc.Battery())
	}
}

func TestScanBuilding_LowBatteryAbortsAndReturnsHome(t *testing.T) {
	rec := &missionEventRecorder{}
	mc := NewMissionController(model.DefaultVehicleProfile(),
		WithRand(rand.New(&rollSource{})), // no detections
		WithRecorder(rec),
	)
	if err := mc.Takeoff(); err != nil {
		t.Fatalf("takeoff: %v", err)
	}
	mc.Resources().DepleteBattery(84.98) // 15.02: first scan tick crosses the low threshold

	if err := mc.ScanBuilding(60); err != nil {
		t.Fatalf("scan: %v", err)
	}

	if !rec.sawState(model.StateReturning) {
		t.Errorf("low battery should have triggered a return, transitions %v", rec.transitions)
	}
	if mc.State() != model.StateMapping {
		t.Errorf("state after aborted scan = %v, want MAPPING", mc.State())
	}
	home := mc.Home()
	if mc.Position() != (Vec3{X: home.X, Y: home.Y, Z: 0}) {
		t.Errorf("vehicle should be back on the ground at home, got %+v", mc.Position())
	}
}

func TestPlanCleaningPath_RequiresWindows(t *testing.T) {
	mc := NewMissionController(model.DefaultVehicleProfile())
	if err := mc.PlanCleaningPath(); !errors.Is(err, ErrNoWindows) {
		t.Errorf("plan with no windows err = %v, want ErrNoWindows", err)
	}
	if mc.State() != model.StateIdle {
		t.Errorf("failed plan must not change state, got %v", mc.State())
	}
}

func TestPlanCleaningPath_ClosesLoop(t *testing.T) {
	mc := NewMissionController(model.DefaultVehicleProfile())
	mc.Registry().Add(model.NewWindowAt(model.Position{X: 5, Y: 5, Z: 5}, 2.0, 1.0))

	if err := mc.PlanCleaningPath(); err != nil {
		t.Fatalf("plan: %v", err)
	}
	if mc.State() != model.StatePathPlanning {
		t.Errorf("state = %v, want PATH_PLANNING", mc.State())
	}
	path := mc.Path()
	if len(path) != 10 {
		t.Fatalf("path length = %d, want 10", len(path))
	}
	if path[0] != path[len(path)-1] {
		t.Errorf("path must close back to its first waypoint")
	}
}

func TestExecuteCleaning_RequiresPath(t *testing.T) {
	mc := NewMissionController(model.DefaultVehicleProfile())
	if err := mc.ExecuteCleaning(); !errors.Is(err, ErrNoPath) {
		t.Errorf("execute with no path err = %v, want ErrNoPath", err)
	}
	if mc.State() != model.StateIdle {
		t.Errorf("failed execute must not change state, got %v", mc.State())
	}
}

func TestExecuteCleaning_FluidExhaustionReturnsHome(t *testing.T) {
	rec := &missionEventRecorder{}
	mc := NewMissionController(model.DefaultVehicleProfile(), WithRecorder(rec))
	mc.Registry().Add(model.NewWindowAt(model.Position{X: 5, Y: 5, Z: 5}, 2.0, 1.0))
	if err := mc.PlanCleaningPath(); err != nil {
		t.Fatalf("plan: %v", err)
	}
	mc.Resources().DepleteFluid(96) // 4%, below the fluid-low threshold

	if err := mc.ExecuteCleaning(); err != nil {
		t.Fatalf("fluid exhaustion should end the run cleanly, got %v", err)
	}

	if rec.sawState(model.StateEmergency) {
		t.Errorf("fluid exhaustion must not escalate to EMERGENCY, transitions %v", rec.transitions)
	}
	if !rec.sawState(model.StateReturning) {
		t.Errorf("expected a RETURNING transition, got %v", rec.transitions)
	}
	if mc.State() != model.StateIdle {
		t.Errorf("final state = %v, want IDLE after landing at home", mc.State())
	}
	if got := mc.Summary().WaypointsExecuted; got != 0 {
		t.Errorf("waypoints executed = %d, want 0 (stopped before the first move)", got)
	}
}

func TestExecuteCleaning_CriticalBatteryTriggersEmergency(t *testing.T) {
	rec := &missionEventRecorder{}
	mc := NewMissionController(model.DefaultVehicleProfile(), WithRecorder(rec))
	mc.Registry().Add(model.NewWindowAt(model.Position{X: 5, Y: 5, Z: 5}, 2.0, 1.0))
	if err := mc.PlanCleaningPath(); err != nil {
		t.Fatalf("plan: %v", err)
	}
	mc.Resources().DepleteBattery(91) // 9%, critical

	if err := mc.ExecuteCleaning(); !errors.Is(err, ErrBatteryCritical) {
		t.Fatalf("err = %v, want ErrBatteryCritical", err)
	}
	if mc.State() != model.StateEmergency {
		t.Errorf("state = %v, want EMERGENCY", mc.State())
	}
	if len(rec.emergencies) != 1 {
		t.Errorf("emergencies recorded = %v, want exactly one", rec.emergencies)
	}
	// Emergency lands on the spot, not at home.
	if mc.Position().Z != 0 {
		t.Errorf("vehicle should have landed, z = %v", mc.Position().Z)
	}
}

func TestExecuteCleaning_MotionFailureTriggersEmergency(t *testing.T) {
	rec := &missionEventRecorder{}
	eff := &capturingEffector{failAfter: 2}
	mc := NewMissionController(model.DefaultVehicleProfile(),
		WithRecorder(rec),
		WithEffector(eff),
	)
	mc.Registry().Add(model.NewWindowAt(model.Position{X: 5, Y: 5, Z: 5}, 2.0, 1.0))
	if err := mc.PlanCleaningPath(); err != nil {
		t.Fatalf("plan: %v", err)
	}

	err := mc.ExecuteCleaning()
	if !errors.Is(err, errEffectorFault) {
		t.Fatalf("err = %v, want the effector fault", err)
	}
	if mc.State() != model.StateEmergency {
		t.Errorf("state = %v, want EMERGENCY", mc.State())
	}
	if len(rec.emergencies) != 1 {
		t.Errorf("emergencies recorded = %v, want exactly one", rec.emergencies)
	}
}

func TestReturnToHome_NoOpInEmergency(t *testing.T) {
	mc := NewMissionController(model.DefaultVehicleProfile())
	mc.Registry().Add(model.NewWindowAt(model.Position{X: 5, Y: 5, Z: 5}, 2.0, 1.0))
	if err := mc.PlanCleaningPath(); err != nil {
		t.Fatalf("plan: %v", err)
	}
	mc.Resources().DepleteBattery(95)
	if err := mc.ExecuteCleaning(); !errors.Is(err, ErrBatteryCritical) {
		t.Fatalf("expected emergency abort, got %v", err)
	}

	if err := mc.ReturnToHome(); !errors.Is(err, ErrEmergency) {
		t.Errorf("return-to-home in EMERGENCY err = %v, want ErrEmergency", err)
	}
	if mc.State() != model.StateEmergency {
		t.Errorf("EMERGENCY is terminal, state = %v", mc.State())
	}
}

func TestRechargeAndRefill_AnyState(t *testing.T) {
	mc := NewMissionController(model.DefaultVehicleProfile())
	mc.Resources().DepleteBattery(40)
	mc.Resources().DepleteFluid(70)

	mc.Recharge()
	mc.RefillFluid()
	if mc.Battery() != 100 || mc.Fluid() != 100 {
		t.Errorf("levels = %v/%v, want 100/100", mc.Battery(), mc.Fluid())
	}
	if mc.State() != model.StateIdle {
		t.Errorf("ground service must not change state, got %v", mc.State())
	}
}

// Full happy path: takeoff, scan with one scripted detection, plan, clean,
// return. Resources only ever decrease until ground service.
func TestMission_FullRun(t *testing.T) {
	rolls := []float64{0.05} // detection on the first scan tick
	detector := NewScriptedDetectionSource(
		model.NewWindowAt(model.Position{X: 2, Y: 6, Z: 5}, 2.0, 1.0),
	)
	rec := &missionEventRecorder{}
	mc := NewMissionController(model.DefaultVehicleProfile(),
		WithRand(rand.New(&rollSource{rolls: rolls})),
		WithDetectionSource(detector),
		WithRecorder(rec),
	)

	if err := mc.Takeoff(); err != nil {
		t.Fatalf("takeoff: %v", err)
	}
	if err := mc.ScanBuilding(5); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if err := mc.PlanCleaningPath(); err != nil {
		t.Fatalf("plan: %v", err)
	}
	if err := mc.ExecuteCleaning(); err != nil {
		t.Fatalf("execute: %v", err)
	}

	summary := mc.Summary()
	if summary.FinalState != model.StateIdle {
		t.Errorf("final state = %v, want IDLE", summary.FinalState)
	}
	if summary.WindowsUnique != 1 || summary.WindowsCleaned != 1 {
		t.Errorf("windows unique/cleaned = %d/%d, want 1/1", summary.WindowsUnique, summary.WindowsCleaned)
	}
	if summary.WaypointsExecuted != 10 {
		t.Errorf("waypoints executed = %d, want 10", summary.WaypointsExecuted)
	}
	if summary.DistanceFlown <= 0 {
		t.Errorf("distance flown = %v, want > 0", summary.DistanceFlown)
	}

	for i := 1; i < len(rec.batteryTrace); i++ {
		if rec.batteryTrace[i] > rec.batteryTrace[i-1] {
			t.Fatalf("battery increased mid-mission: %v", rec.batteryTrace)
		}
		if rec.fluidTrace[i] > rec.fluidTrace[i-1] {
			t.Fatalf("fluid increased mid-mission: %v", rec.fluidTrace)
		}
	}
	if len(rec.cleaned) != 1 {
		t.Errorf("cleaned events = %v, want one window", rec.cleaned)
	}
}
