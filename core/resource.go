package core

// Threshold levels for the resource predicates, percent.
const (
	batteryCriticalLevel = 10.0
	batteryLowLevel      = 15.0
	fluidLowLevel        = 5.0
)

// ResourceManager tracks the vehicle's battery and cleaning-fluid levels as
// percentages in [0,100]. It is owned by the MissionController and is not
// safe for concurrent use; readers outside the mission loop should go through
// the controller's accessors.
type ResourceManager struct {
	battery float64
	fluid   float64
}

// NewResourceManager starts with both reservoirs full.
func NewResourceManager() *ResourceManager {
	return &ResourceManager{battery: 100, fluid: 100}
}

// Battery returns the battery level in percent.
func (r *ResourceManager) Battery() float64 { return r.battery }

// Fluid returns the cleaning-fluid level in percent.
func (r *ResourceManager) Fluid() float64 { return r.fluid }

// DepleteBattery lowers the battery level, clamped to zero.
func (r *ResourceManager) DepleteBattery(amount float64) {
	r.battery = clampLevel(r.battery - amount)
}

// DepleteFluid lowers the fluid level, clamped to zero.
func (r *ResourceManager) DepleteFluid(amount float64) {
	r.fluid = clampLevel(r.fluid - amount)
}

// Recharge resets the battery to full. Ground-service action, valid any time.
func (r *ResourceManager) Recharge() { r.battery = 100 }

// Refill resets the cleaning fluid to full. Ground-service action, valid any time.
func (r *ResourceManager) Refill() { r.fluid = 100 }

// IsBatteryCritical reports whether battery is below the emergency-landing threshold.
func (r *ResourceManager) IsBatteryCritical() bool { return r.battery < batteryCriticalLevel }

// IsBatteryLow reports whether battery is below the return-to-home threshold.
func (r *ResourceManager) IsBatteryLow() bool { return r.battery < batteryLowLevel }

// IsFluidLow reports whether cleaning fluid is effectively exhausted.
func (r *ResourceManager) IsFluidLow() bool { return r.fluid < fluidLowLevel }

func clampLevel(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
