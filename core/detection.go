package core

import (
	"math/rand"

	"github.com/signalsfoundry/skywash-simulator/model"
)

// DetectionSource produces candidate window observations. The controller
// decides when to invoke it (once per scan tick on a probability roll); the
// source only synthesises the observation for the vehicle's current position.
type DetectionSource interface {
	Detect(at Vec3) *model.Window
}

// Detection geometry envelope, metres: where a synthesised window may appear
// relative to the vehicle, and how big it may be.
const (
	detectMinWidth  = 0.8
	detectMaxWidth  = 2.5
	detectMinHeight = 0.8
	detectMaxHeight = 1.8
	detectSpreadX   = 5.0 // ± along the facade
	detectMinAhead  = 2.0 // away from the vehicle
	detectMaxAhead  = 10.0
	detectSpreadZ   = 2.0 // ± in height
)

// RandomDetectionSource synthesises axis-aligned rectangular windows in the
// scanning plane ahead of the vehicle. It draws from an injected generator so
// runs are reproducible under a fixed seed.
type RandomDetectionSource struct {
	rng *rand.Rand
}

// NewRandomDetectionSource constructs a source backed by rng.
func NewRandomDetectionSource(rng *rand.Rand) *RandomDetectionSource {
	return &RandomDetectionSource{rng: rng}
}

// Detect returns one synthetic window observation near the given position.
// All four corners share the window's Z plane.
func (s *RandomDetectionSource) Detect(at Vec3) *model.Window {
	uniform := func(lo, hi float64) float64 {
		return lo + s.rng.Float64()*(hi-lo)
	}

	width := uniform(detectMinWidth, detectMaxWidth)
	height := uniform(detectMinHeight, detectMaxHeight)
	x := at.X + uniform(-detectSpreadX, detectSpreadX)
	y := at.Y + uniform(detectMinAhead, detectMaxAhead)
	z := at.Z + uniform(-detectSpreadZ, detectSpreadZ)

	return &model.Window{
		Corners: [4]model.Position{
			{X: x, Y: y, Z: z},
			{X: x + width, Y: y, Z: z},
			{X: x + width, Y: y + height, Z: z},
			{X: x, Y: y + height, Z: z},
		},
		Center: model.Position{X: x + width/2, Y: y + height/2, Z: z},
		Width:  width,
		Height: height,
	}
}

// ScriptedDetectionSource replays a fixed sequence of windows, then reports
// nothing. Used by tests and by scenario playback.
type ScriptedDetectionSource struct {
	script []*model.Window
	next   int
}

// NewScriptedDetectionSource constructs a source replaying the given windows.
func NewScriptedDetectionSource(windows ...*model.Window) *ScriptedDetectionSource {
	return &ScriptedDetectionSource{script: windows}
}

// Detect returns the next scripted window, or nil once the script is exhausted.
func (s *ScriptedDetectionSource) Detect(at Vec3) *model.Window {
	if s.next >= len(s.script) {
		return nil
	}
	w := s.script[s.next]
	s.next++
	return w
}
