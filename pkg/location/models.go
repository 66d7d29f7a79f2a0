package location

import "time"

// Location represents a global position fix of the vehicle
type Location struct {
	Latitude          float64
	Longitude         float64
	AltitudeM         float64 // above mean sea level
	RelativeAltitudeM float64 // above the home position
	Timestamp         time.Time
}
