package missionlog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/signalsfoundry/skywash-simulator/core"
	"github.com/signalsfoundry/skywash-simulator/internal/logging"
	"github.com/signalsfoundry/skywash-simulator/model"
)

// ErrNotFound is returned when a mission row does not exist.
var ErrNotFound = errors.New("not found")

// Event kinds written to the mission_events table.
const (
	KindState     = "state"
	KindDetection = "detection"
	KindWaypoint  = "waypoint"
	KindCleaned   = "cleaned"
	KindEmergency = "emergency"
)

// Store writes one mission's event stream to the database. It implements
// core.MissionRecorder; write failures are logged and do not interrupt the
// mission.
type Store struct {
	db        *sql.DB
	log       logging.Logger
	missionID string
	seq       int
}

// Begin inserts a new mission row and returns a Store recording against it.
func Begin(db *sql.DB, log logging.Logger) (*Store, error) {
	if log == nil {
		log = logging.Noop()
	}
	id := uuid.NewString()
	_, err := db.ExecContext(context.Background(),
		`INSERT INTO missions(id, started_at) VALUES (?, ?)`,
		id, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("missionlog begin: %w", err)
	}
	return &Store{db: db, log: log, missionID: id}, nil
}

// MissionID returns the run's identifier.
func (s *Store) MissionID() string { return s.missionID }

func (s *Store) event(kind, detail string, battery, fluid sql.NullFloat64) {
	s.seq++
	_, err := s.db.ExecContext(context.Background(),
		`INSERT INTO mission_events(mission_id, seq, kind, detail, battery, fluid) VALUES (?,?,?,?,?,?)`,
		s.missionID, s.seq, kind, detail, battery, fluid)
	if err != nil {
		s.log.Warn("mission event write failed",
			logging.String("kind", kind),
			logging.String("error", err.Error()))
	}
}

// StateChanged implements core.MissionRecorder.
func (s *Store) StateChanged(from, to model.MissionState) {
	s.event(KindState, fmt.Sprintf("%s -> %s", from, to), sql.NullFloat64{}, sql.NullFloat64{})
}

// WindowDetected implements core.MissionRecorder.
func (s *Store) WindowDetected(w *model.Window) {
	_, err := s.db.ExecContext(context.Background(),
		`INSERT OR IGNORE INTO mission_windows(mission_id, window_id, cx, cy, cz, width, height) VALUES (?,?,?,?,?,?,?)`,
		s.missionID, w.ID, w.Center.X, w.Center.Y, w.Center.Z, w.Width, w.Height)
	if err != nil {
		s.log.Warn("mission window write failed",
			logging.Int("window", w.ID),
			logging.String("error", err.Error()))
	}
	s.event(KindDetection,
		fmt.Sprintf("window %d at (%.2f, %.2f, %.2f)", w.ID, w.Center.X, w.Center.Y, w.Center.Z),
		sql.NullFloat64{}, sql.NullFloat64{})
}

// WaypointReached implements core.MissionRecorder.
func (s *Store) WaypointReached(index int, position core.Vec3, battery, fluid float64) {
	s.event(KindWaypoint,
		fmt.Sprintf("waypoint %d at (%.2f, %.2f, %.2f)", index, position.X, position.Y, position.Z),
		sql.NullFloat64{Float64: battery, Valid: true},
		sql.NullFloat64{Float64: fluid, Valid: true})
}

// WindowCleaned implements core.MissionRecorder.
func (s *Store) WindowCleaned(windowID int) {
	_, err := s.db.ExecContext(context.Background(),
		`UPDATE mission_windows SET cleaned = 1 WHERE mission_id = ? AND window_id = ?`,
		s.missionID, windowID)
	if err != nil {
		s.log.Warn("mission window update failed",
			logging.Int("window", windowID),
			logging.String("error", err.Error()))
	}
	s.event(KindCleaned, fmt.Sprintf("window %d", windowID), sql.NullFloat64{}, sql.NullFloat64{})
}

// EmergencyTriggered implements core.MissionRecorder.
func (s *Store) EmergencyTriggered(reason string) {
	s.event(KindEmergency, reason, sql.NullFloat64{}, sql.NullFloat64{})
}

// MissionEnded implements core.MissionRecorder. It finalises the mission row.
func (s *Store) MissionEnded(summary model.MissionSummary) {
	_, err := s.db.ExecContext(context.Background(),
		`UPDATE missions SET finished_at = ?, final_state = ?, windows_detected = ?, windows_unique = ?,
			windows_cleaned = ?, waypoints = ?, battery = ?, fluid = ?, distance_m = ?, sim_elapsed_ms = ?
		 WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339),
		summary.FinalState.String(),
		summary.WindowsDetected,
		summary.WindowsUnique,
		summary.WindowsCleaned,
		summary.WaypointsExecuted,
		summary.BatteryRemaining,
		summary.FluidRemaining,
		summary.DistanceFlown,
		summary.SimElapsed.Milliseconds(),
		s.missionID)
	if err != nil {
		s.log.Warn("mission finalise failed", logging.String("error", err.Error()))
	}
}

// MissionRow is one persisted mission with its final figures.
type MissionRow struct {
	ID              string
	StartedAt       string
	FinishedAt      string
	FinalState      string
	WindowsDetected int
	WindowsUnique   int
	WindowsCleaned  int
	Waypoints       int
	Battery         float64
	Fluid           float64
	DistanceM       float64
	SimElapsedMS    int64
}

// GetMission fetches a finalised mission row.
func GetMission(ctx context.Context, db *sql.DB, id string) (MissionRow, error) {
	var m MissionRow
	var finished, finalState sql.NullString
	var battery, fluid, distance sql.NullFloat64
	var elapsed sql.NullInt64
	err := db.QueryRowContext(ctx,
		`SELECT id, started_at, finished_at, final_state, windows_detected, windows_unique,
			windows_cleaned, waypoints, battery, fluid, distance_m, sim_elapsed_ms
		 FROM missions WHERE id = ?`, id).
		Scan(&m.ID, &m.StartedAt, &finished, &finalState, &m.WindowsDetected, &m.WindowsUnique,
			&m.WindowsCleaned, &m.Waypoints, &battery, &fluid, &distance, &elapsed)
	if err == sql.ErrNoRows {
		return m, ErrNotFound
	}
	if err != nil {
		return m, err
	}
	m.FinishedAt = finished.String
	m.FinalState = finalState.String
	m.Battery = battery.Float64
	m.Fluid = fluid.Float64
	m.DistanceM = distance.Float64
	m.SimElapsedMS = elapsed.Int64
	return m, nil
}

// CountEvents returns how many events of the given kind a mission recorded.
// An empty kind counts all events.
func CountEvents(ctx context.Context, db *sql.DB, missionID, kind string) (int, error) {
	query := `SELECT COUNT(*) FROM mission_events WHERE mission_id = ?`
	args := []any{missionID}
	if kind != "" {
		query += ` AND kind = ?`
		args = append(args, kind)
	}
	var n int
	err := db.QueryRowContext(ctx, query, args...).Scan(&n)
	return n, err
}
