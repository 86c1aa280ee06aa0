package core

import (
	"strings"
	"testing"
)

const scenarioYAML = `
name: office-block-east
home:
  x: 1
  y: 2
  z: 0
vehicle:
  max_altitude: 40
  coverage_spacing: 0.5
windows:
  - center: { x: 5.0, y: 5.0, z: 6.0 }
    width: 2.0
    height: 1.0
  - center: { x: 8.0, y: 6.5, z: 6.0 }
    width: 1.2
    height: 1.4
`

func TestLoadBuildingScenario(t *testing.T) {
	s, err := LoadBuildingScenario(strings.NewReader(scenarioYAML))
	if err != nil {
		t.Fatalf("LoadBuildingScenario: %v", err)
	}

	if s.Name != "office-block-east" {
		t.Errorf("name = %q", s.Name)
	}
	if s.Home != (Vec3{X: 1, Y: 2, Z: 0}) {
		t.Errorf("home = %+v", s.Home)
	}

	// Overrides applied on top of the defaults.
	if s.Profile.MaxAltitude != 40 {
		t.Errorf("max altitude = %v, want 40", s.Profile.MaxAltitude)
	}
	if s.Profile.CoverageSpacing != 0.5 {
		t.Errorf("coverage spacing = %v, want 0.5", s.Profile.CoverageSpacing)
	}
	if s.Profile.CruiseSpeed != 1.0 {
		t.Errorf("cruise speed = %v, want untouched default 1.0", s.Profile.CruiseSpeed)
	}

	if len(s.Windows) != 2 {
		t.Fatalf("windows = %d, want 2", len(s.Windows))
	}
	w := s.Windows[0]
	if w.Center != (pos(Vec3{X: 5, Y: 5, Z: 6})) {
		t.Errorf("centre = %+v", w.Center)
	}
	// Corners derived from centre and size, all in the centre's z plane.
	for _, c := range w.Corners {
		if c.Z != 6 {
			t.Fatalf("corner z = %v, want 6", c.Z)
		}
	}
	if w.Corners[0].X != 4 || w.Corners[2].X != 6 {
		t.Errorf("corner span x = [%v, %v], want [4, 6]", w.Corners[0].X, w.Corners[2].X)
	}
}

func TestLoadBuildingScenario_Seed(t *testing.T) {
	s, err := LoadBuildingScenario(strings.NewReader(scenarioYAML))
	if err != nil {
		t.Fatalf("LoadBuildingScenario: %v", err)
	}

	registry := NewWindowRegistry()
	if unique := s.Seed(registry); unique != 2 {
		t.Errorf("Seed = %d unique, want 2", unique)
	}
	if registry.Windows()[0].ID != 1 {
		t.Errorf("seeded windows should get detection-order IDs")
	}
}

func TestLoadBuildingScenario_RejectsBadInput(t *testing.T) {
	if _, err := LoadBuildingScenario(strings.NewReader("windows: [")); err == nil {
		t.Errorf("malformed YAML should fail")
	}

	bad := `
windows:
  - center: { x: 1, y: 1, z: 1 }
    width: 0
    height: 1
`
	if _, err := LoadBuildingScenario(strings.NewReader(bad)); err == nil {
		t.Errorf("zero-width window should fail")
	}
}
