package core

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/signalsfoundry/skywash-simulator/model"
)

// BuildingScenario is a pre-surveyed building: a deterministic window list
// plus optional vehicle profile and home overrides. Missions run from a
// scenario skip the probabilistic scan and go straight to planning.
type BuildingScenario struct {
	Name    string
	Home    Vec3
	Profile model.VehicleProfile
	Windows []*model.Window
}

// internal YAML shapes - kept unexported so the file format can evolve
// independently of the exported types.
type buildingScenarioYAML struct {
	Name    string                `yaml:"name"`
	Home    *positionYAML         `yaml:"home"`
	Vehicle *vehicleOverridesYAML `yaml:"vehicle"`
	Windows []windowYAML          `yaml:"windows"`
}

type positionYAML struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

type windowYAML struct {
	Center positionYAML `yaml:"center"`
	Width  float64      `yaml:"width"`
	Height float64      `yaml:"height"`
}

// vehicleOverridesYAML carries optional per-scenario profile overrides.
// Pointer fields distinguish "absent" from zero.
type vehicleOverridesYAML struct {
	CruiseSpeed      *float64 `yaml:"cruise_speed"`
	MaxAltitude      *float64 `yaml:"max_altitude"`
	CoverageSpacing  *float64 `yaml:"coverage_spacing"`
	ApproachStandoff *float64 `yaml:"approach_standoff"`
	TakeoffAltitude  *float64 `yaml:"takeoff_altitude"`
}

// LoadBuildingScenario reads a YAML scenario from r. The returned scenario
// always carries a complete vehicle profile: the defaults with any overrides
// applied. Windows with non-positive dimensions are rejected.
func LoadBuildingScenario(r io.Reader) (*BuildingScenario, error) {
	var payload buildingScenarioYAML
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("LoadBuildingScenario: decode failed: %w", err)
	}

	scenario := &BuildingScenario{
		Name:    payload.Name,
		Profile: model.DefaultVehicleProfile(),
	}
	if payload.Home != nil {
		scenario.Home = Vec3{X: payload.Home.X, Y: payload.Home.Y, Z: payload.Home.Z}
	}
	if v := payload.Vehicle; v != nil {
		applyOverride(&scenario.Profile.CruiseSpeed, v.CruiseSpeed)
		applyOverride(&scenario.Profile.MaxAltitude, v.MaxAltitude)
		applyOverride(&scenario.Profile.CoverageSpacing, v.CoverageSpacing)
		applyOverride(&scenario.Profile.ApproachStandoff, v.ApproachStandoff)
		applyOverride(&scenario.Profile.TakeoffAltitude, v.TakeoffAltitude)
	}

	for i, w := range payload.Windows {
		if w.Width <= 0 || w.Height <= 0 {
			return nil, fmt.Errorf("LoadBuildingScenario: window %d has non-positive size %gx%g", i, w.Width, w.Height)
		}
		center := model.Position{X: w.Center.X, Y: w.Center.Y, Z: w.Center.Z}
		scenario.Windows = append(scenario.Windows, model.NewWindowAt(center, w.Width, w.Height))
	}
	return scenario, nil
}

// Seed loads the scenario's windows into the registry and deduplicates, as
// if a scan had just completed.
func (s *BuildingScenario) Seed(registry *WindowRegistry) int {
	for _, w := range s.Windows {
		registry.Add(w)
	}
	return registry.Deduplicate()
}

func applyOverride(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}
