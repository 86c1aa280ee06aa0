package core

import (
	"errors"
	"fmt"
	"time"

	"github.com/signalsfoundry/skywash-simulator/internal/logging"
	"github.com/signalsfoundry/skywash-simulator/model"
	"github.com/signalsfoundry/skywash-simulator/timectrl"
)

// ErrAltitudeExceeded is returned when a move targets a point beyond the
// vehicle's altitude ceiling. The position is left unchanged.
var ErrAltitudeExceeded = errors.New("target exceeds maximum altitude")

// cleaningActivationTime is how long one spray-and-wipe activation takes.
const cleaningActivationTime = 500 * time.Millisecond

// Effector performs the vehicle's physical actions: flying a leg of the path
// and running the spray-and-wipe cycle. Each call blocks for the action's
// duration and reports whether the action succeeded.
type Effector interface {
	PerformMove(target Vec3, travel time.Duration) error
	ActivateCleaning() error
}

// SimEffector is the simulated effector: actions always succeed and their
// duration is spent on the simulation clock.
type SimEffector struct {
	clock timectrl.SimClock
}

// NewSimEffector constructs an effector spending action time on clock.
func NewSimEffector(clock timectrl.SimClock) *SimEffector {
	return &SimEffector{clock: clock}
}

// PerformMove flies the leg, consuming its travel time.
func (e *SimEffector) PerformMove(target Vec3, travel time.Duration) error {
	e.clock.Sleep(travel)
	return nil
}

// ActivateCleaning runs one spray-and-wipe cycle.
func (e *SimEffector) ActivateCleaning() error {
	e.clock.Sleep(cleaningActivationTime)
	return nil
}

// MotionExecutor moves the vehicle toward target positions. Long moves are
// split into equal sub-steps executed sequentially; every direct move is
// checked against the altitude ceiling before the effector is engaged.
//
// The ceiling check compares the target's Y coordinate against MaxAltitude.
// That axis is part of the executor's interface contract and is relied on by
// the mission scenarios; see DESIGN.md before touching it.
type MotionExecutor struct {
	profile  model.VehicleProfile
	effector Effector
	log      logging.Logger
}

// NewMotionExecutor constructs an executor for the given profile.
func NewMotionExecutor(profile model.VehicleProfile, effector Effector, log logging.Logger) *MotionExecutor {
	if log == nil {
		log = logging.Noop()
	}
	return &MotionExecutor{profile: profile, effector: effector, log: log}
}

// MoveTo moves from current toward target and returns the position actually
// reached. On success that is target; on failure it is wherever the vehicle
// stopped — the start position for a direct move, or the last completed
// sub-step of a segmented one.
//
// Moves longer than the segmentation threshold are split into
// floor(distance/subStepLength)+1 equal sub-steps along the straight line.
// Splitting is a plain loop: sub-steps are always below the threshold, so no
// nesting can occur and stack depth stays bounded for any distance.
func (m *MotionExecutor) MoveTo(current, target Vec3) (Vec3, error) {
	distance := current.DistanceTo(target)
	if distance <= m.profile.SegmentThreshold {
		return m.directMove(current, target)
	}

	steps := int(distance/m.profile.SubStepLength) + 1
	m.log.Debug("segmenting long move",
		logging.Float64("distance", distance),
		logging.Int("steps", steps))

	reached := current
	for i := 1; i <= steps; i++ {
		waypoint := current.Lerp(target, float64(i)/float64(steps))
		next, err := m.directMove(reached, waypoint)
		if err != nil {
			return reached, fmt.Errorf("sub-step %d/%d: %w", i, steps, err)
		}
		reached = next
	}
	return reached, nil
}

// directMove executes a single unsegmented leg.
func (m *MotionExecutor) directMove(current, target Vec3) (Vec3, error) {
	if target.Y > m.profile.MaxAltitude {
		return current, fmt.Errorf("%w: %.1f > %.1f", ErrAltitudeExceeded, target.Y, m.profile.MaxAltitude)
	}

	distance := current.DistanceTo(target)
	travel := time.Duration(distance / m.profile.CruiseSpeed * float64(time.Second))
	if err := m.effector.PerformMove(target, travel); err != nil {
		return current, err
	}
	return target, nil
}
