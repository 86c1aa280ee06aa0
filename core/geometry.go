package core

import (
	"math"

	"github.com/signalsfoundry/skywash-simulator/model"
)

// Vec3 is a point or displacement in the building frame, metres.
type Vec3 struct {
	X, Y, Z float64
}

// DistanceTo returns the straight-line distance between two points.
func (v Vec3) DistanceTo(other Vec3) float64 {
	dx := v.X - other.X
	dy := v.Y - other.Y
	dz := v.Z - other.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Sub returns v - other.
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{X: v.X - other.X, Y: v.Y - other.Y, Z: v.Z - other.Z}
}

// Add returns v + other.
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{X: v.X + other.X, Y: v.Y + other.Y, Z: v.Z + other.Z}
}

// Norm returns the Euclidean norm of the vector.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Lerp returns the point a fraction t of the way from v to other.
// t=0 yields v, t=1 yields other exactly.
func (v Vec3) Lerp(other Vec3, t float64) Vec3 {
	return Vec3{
		X: v.X + (other.X-v.X)*t,
		Y: v.Y + (other.Y-v.Y)*t,
		Z: v.Z + (other.Z-v.Z)*t,
	}
}

// Bounds2D is an axis-aligned bounding box in the X/Y plane.
type Bounds2D struct {
	MinX, MaxX float64
	MinY, MaxY float64
}

// boundsOf computes the X/Y bounding box of a window's corners.
func boundsOf(corners [4]model.Position) Bounds2D {
	b := Bounds2D{
		MinX: corners[0].X, MaxX: corners[0].X,
		MinY: corners[0].Y, MaxY: corners[0].Y,
	}
	for _, c := range corners[1:] {
		b.MinX = math.Min(b.MinX, c.X)
		b.MaxX = math.Max(b.MaxX, c.X)
		b.MinY = math.Min(b.MinY, c.Y)
		b.MaxY = math.Max(b.MaxY, c.Y)
	}
	return b
}

// vec converts a model position to a Vec3.
func vec(p model.Position) Vec3 {
	return Vec3{X: p.X, Y: p.Y, Z: p.Z}
}

// pos converts a Vec3 to a model position.
func pos(v Vec3) model.Position {
	return model.Position{X: v.X, Y: v.Y, Z: v.Z}
}
