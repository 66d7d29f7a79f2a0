package models

import (
	"time"
)

// Position is the vehicle position published by the position publisher.
type Position struct {
	FlightID          string    `json:"flight_id"`
	SystemID          uint8     `json:"system_id"`
	Timestamp         time.Time `json:"timestamp"`
	Latitude          float64   `json:"latitude"`
	Longitude         float64   `json:"longitude"`
	AbsoluteAltitudeM float64   `json:"absolute_altitude_m"`
	RelativeAltitudeM float64   `json:"relative_altitude_m"`
}
