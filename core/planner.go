package core

import (
	"sort"

	"github.com/signalsfoundry/skywash-simulator/model"
)

// PathPlanner turns the registry's window set into an ordered cleaning path:
// an approach waypoint plus a boustrophedon coverage grid per window, closed
// back to the first waypoint at the end.
type PathPlanner struct {
	// Spacing is the vertical distance between coverage rows, metres.
	Spacing float64
	// Standoff is the distance kept in front of the window plane before
	// contact, metres. The approach point sits this far off the centre
	// along Z.
	Standoff float64
}

// NewPathPlanner constructs a planner from the vehicle profile.
func NewPathPlanner(profile model.VehicleProfile) *PathPlanner {
	return &PathPlanner{
		Spacing:  profile.CoverageSpacing,
		Standoff: profile.ApproachStandoff,
	}
}

// Plan produces the cleaning path for the given windows. Windows are swept in
// ascending order of their centre's Y coordinate, a proxy for a bottom-up
// facade sweep. The input slice is not modified. If the result is non-empty,
// its last waypoint is a copy of the first, closing the loop.
func (p *PathPlanner) Plan(windows []*model.Window) []Vec3 {
	ordered := make([]*model.Window, len(windows))
	copy(ordered, windows)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Center.Y < ordered[j].Center.Y
	})

	var path []Vec3
	for _, w := range ordered {
		approach := vec(w.Center)
		approach.Z -= p.Standoff
		path = append(path, approach)
		path = append(path, p.coveragePattern(w.Corners)...)
	}
	if len(path) > 0 {
		path = append(path, path[0])
	}
	return path
}

// coveragePattern generates the boustrophedon rows over one window. Every row
// is swept the same direction, left edge then right edge; the loop condition
// is row <= maxY, so the final row may land at or just under the top edge
// depending on floating-point accumulation.
func (p *PathPlanner) coveragePattern(corners [4]model.Position) []Vec3 {
	b := boundsOf(corners)
	z := corners[0].Z

	var points []Vec3
	for row := b.MinY; row <= b.MaxY; row += p.Spacing {
		points = append(points,
			Vec3{X: b.MinX, Y: row, Z: z},
			Vec3{X: b.MaxX, Y: row, Z: z},
		)
	}
	return points
}
