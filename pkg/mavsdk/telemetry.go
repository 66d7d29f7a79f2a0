package mavsdk

import (
	"context"
	"sync"

	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"
	"github.com/bluenviron/gomavlib/v3/pkg/message"
)

// Position is a global position fix.
type Position struct {
	LatitudeDeg       float64
	LongitudeDeg      float64
	AbsoluteAltitudeM float32
	RelativeAltitudeM float32
}

// Health summarises the pre-flight checks reported by the vehicle.
type Health struct {
	IsGyrometerCalibrationOk     bool
	IsAccelerometerCalibrationOk bool
	IsMagnetometerCalibrationOk  bool
	IsLocalPositionOk            bool
	IsGlobalPositionOk           bool
	IsHomePositionOk             bool
	IsArmable                    bool
}

// AllOk reports whether every check passed.
func (h Health) AllOk() bool {
	return h.IsGyrometerCalibrationOk &&
		h.IsAccelerometerCalibrationOk &&
		h.IsMagnetometerCalibrationOk &&
		h.IsLocalPositionOk &&
		h.IsGlobalPositionOk &&
		h.IsHomePositionOk &&
		h.IsArmable
}

// Telemetry tracks the vehicle state streamed by the autopilot.
type Telemetry struct {
	system *System

	mu           sync.RWMutex
	position     Position
	health       Health
	landedKnown  bool
	inAir        bool
	positionSubs []func(Position)
}

// NewTelemetry creates the telemetry plugin for system.
func NewTelemetry(system *System) *Telemetry {
	t := &Telemetry{system: system}

	system.subscribe(messageID(&common.MessageGlobalPositionInt{}), t.handleGlobalPosition)
	system.subscribe(messageID(&common.MessageLocalPositionNed{}), t.handleLocalPosition)
	system.subscribe(messageID(&common.MessageHomePosition{}), t.handleHomePosition)
	system.subscribe(messageID(&common.MessageSysStatus{}), t.handleSysStatus)
	system.subscribe(messageID(&common.MessageExtendedSysState{}), t.handleExtendedSysState)

	return t
}

func messageID(msg message.Message) uint32 {
	return msg.GetID()
}

// SetRatePosition asks the vehicle to stream GLOBAL_POSITION_INT at hz.
// A rate of 0 stops the stream.
func (t *Telemetry) SetRatePosition(ctx context.Context, hz float64) error {
	if hz < 0 {
		return newError("set rate position", ResultInvalidArgument)
	}
	intervalUs := float32(-1)
	if hz > 0 {
		intervalUs = float32(1e6 / hz)
	}
	return t.system.SendCommand(ctx, "set rate position", Command{
		Command: common.MAV_CMD_SET_MESSAGE_INTERVAL,
		Params:  [7]float32{float32(messageID(&common.MessageGlobalPositionInt{})), intervalUs},
	})
}

// SubscribePosition calls cb with every position update. Passing nil
// removes all position subscribers.
func (t *Telemetry) SubscribePosition(cb func(Position)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if cb == nil {
		t.positionSubs = nil
		return
	}
	t.positionSubs = append(t.positionSubs, cb)
}

// Position returns the latest position.
func (t *Telemetry) Position() Position {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.position
}

// Health returns the latest health summary.
func (t *Telemetry) Health() Health {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.health
}

// HealthAllOk reports whether the vehicle is ready to arm.
func (t *Telemetry) HealthAllOk() bool {
	return t.Health().AllOk()
}

// InAir reports whether the vehicle is flying. Without EXTENDED_SYS_STATE
// the armed flag is used instead.
func (t *Telemetry) InAir() bool {
	t.mu.RLock()
	landedKnown, inAir := t.landedKnown, t.inAir
	t.mu.RUnlock()
	if landedKnown {
		return inAir
	}
	return t.system.Armed()
}

// Armed reports whether the vehicle is armed.
func (t *Telemetry) Armed() bool {
	return t.system.Armed()
}

func (t *Telemetry) handleGlobalPosition(msg message.Message) {
	m := msg.(*common.MessageGlobalPositionInt)
	position := Position{
		LatitudeDeg:       float64(m.Lat) / 1e7,
		LongitudeDeg:      float64(m.Lon) / 1e7,
		AbsoluteAltitudeM: float32(m.Alt) / 1e3,
		RelativeAltitudeM: float32(m.RelativeAlt) / 1e3,
	}

	t.mu.Lock()
	t.position = position
	t.health.IsGlobalPositionOk = m.Lat != 0 || m.Lon != 0
	subs := append([]func(Position){}, t.positionSubs...)
	t.mu.Unlock()

	for _, cb := range subs {
		cb := cb
		t.system.enqueue(func() { cb(position) })
	}
}

func (t *Telemetry) handleLocalPosition(message.Message) {
	t.mu.Lock()
	t.health.IsLocalPositionOk = true
	t.mu.Unlock()
}

func (t *Telemetry) handleHomePosition(message.Message) {
	t.mu.Lock()
	t.health.IsHomePositionOk = true
	t.mu.Unlock()
}

func (t *Telemetry) handleSysStatus(msg message.Message) {
	m := msg.(*common.MessageSysStatus)

	ok := func(sensor common.MAV_SYS_STATUS_SENSOR) bool {
		if m.OnboardControlSensorsPresent&sensor == 0 {
			return true
		}
		return m.OnboardControlSensorsHealth&sensor != 0
	}

	t.mu.Lock()
	t.health.IsGyrometerCalibrationOk = ok(common.MAV_SYS_STATUS_SENSOR_3D_GYRO)
	t.health.IsAccelerometerCalibrationOk = ok(common.MAV_SYS_STATUS_SENSOR_3D_ACCEL)
	t.health.IsMagnetometerCalibrationOk = ok(common.MAV_SYS_STATUS_SENSOR_3D_MAG)
	t.health.IsArmable = ok(common.MAV_SYS_STATUS_PREARM_CHECK)
	t.mu.Unlock()
}

func (t *Telemetry) handleExtendedSysState(msg message.Message) {
	m := msg.(*common.MessageExtendedSysState)

	t.mu.Lock()
	defer t.mu.Unlock()
	switch m.LandedState {
	case common.MAV_LANDED_STATE_UNDEFINED:
		t.landedKnown = false
	case common.MAV_LANDED_STATE_ON_GROUND:
		t.landedKnown, t.inAir = true, false
	default:
		t.landedKnown, t.inAir = true, true
	}
}
