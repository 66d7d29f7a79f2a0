package constants

import "time"

const (
	// DiscoveryTimeout is how long a program waits for the first heartbeat.
	DiscoveryTimeout = 2 * time.Second

	// PositionRateHz is the requested GLOBAL_POSITION_INT rate.
	PositionRateHz = 1.0

	// PollInterval paces every "wait until" loop (health, landing, mission).
	PollInterval = 1 * time.Second

	// TakeoffHoverDuration is how long takeoff_land hovers before landing.
	TakeoffHoverDuration = 10 * time.Second

	// PreLandHoverDuration is how long rotate_vehicle hovers after offboard.
	PreLandHoverDuration = 10 * time.Second

	// FinishDelay is waited after touchdown before the program exits.
	FinishDelay = 3 * time.Second
)

// Offboard log prefix used by rotate_vehicle.
const OffboardModeBody = "BODY"

// Ground service defaults.
const (
	DefaultMQTTTopic    = "drone/position"
	DefaultMQTTInterval = 1 * time.Second
	DefaultNMEABaudRate = 4800
	DefaultNMEAInterval = 1 * time.Second
)
