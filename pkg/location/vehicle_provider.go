package location

import "sync"

// VehicleProvider serves the latest position reported by the vehicle.
type VehicleProvider struct {
	mu       sync.RWMutex
	location Location
	hasFix   bool
}

// NewVehicleProvider creates an empty VehicleProvider.
func NewVehicleProvider() *VehicleProvider {
	return &VehicleProvider{}
}

// Update stores loc as the latest position.
func (v *VehicleProvider) Update(loc Location) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.location = loc
	v.hasFix = true
}

// GetLocation returns the latest position, or ErrNoFix if none arrived yet.
func (v *VehicleProvider) GetLocation() (Location, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if !v.hasFix {
		return Location{}, ErrNoFix
	}
	return v.location, nil
}
