package location

import "errors"

// ErrNoFix is returned while no position has been received yet.
var ErrNoFix = errors.New("no position fix yet")

// Provider interface defines the methods for location providers
type Provider interface {
	GetLocation() (Location, error)
}
