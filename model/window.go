package model

// Position is a point in the building frame, metres.
// X runs along the facade, Y away from it, Z is height above ground.
type Position struct {
	X float64
	Y float64
	Z float64
}

// Window is one detected window pane. Corners are ordered and all share the
// same Z coordinate: detection always yields an axis-aligned rectangle in a
// single scanning plane.
type Window struct {
	ID      int // assigned in detection order, starting at 1
	Corners [4]Position
	Center  Position
	Width   float64
	Height  float64
	Cleaned bool
}

// NewWindowAt builds a window from its centre and size, deriving the four
// corners in the centre's Z plane. The ID is left unset; the registry assigns
// it on insertion.
func NewWindowAt(center Position, width, height float64) *Window {
	halfW := width / 2
	halfH := height / 2
	return &Window{
		Corners: [4]Position{
			{X: center.X - halfW, Y: center.Y - halfH, Z: center.Z},
			{X: center.X + halfW, Y: center.Y - halfH, Z: center.Z},
			{X: center.X + halfW, Y: center.Y + halfH, Z: center.Z},
			{X: center.X - halfW, Y: center.Y + halfH, Z: center.Z},
		},
		Center: center,
		Width:  width,
		Height: height,
	}
}
