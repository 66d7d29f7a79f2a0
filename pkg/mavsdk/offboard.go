package mavsdk

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"
)

// offboardSetpointPeriod keeps PX4 above its 2 Hz offboard timeout with margin.
const offboardSetpointPeriod = 50 * time.Millisecond

const velocityOnlyTypeMask = common.POSITION_TARGET_TYPEMASK_X_IGNORE |
	common.POSITION_TARGET_TYPEMASK_Y_IGNORE |
	common.POSITION_TARGET_TYPEMASK_Z_IGNORE |
	common.POSITION_TARGET_TYPEMASK_AX_IGNORE |
	common.POSITION_TARGET_TYPEMASK_AY_IGNORE |
	common.POSITION_TARGET_TYPEMASK_AZ_IGNORE |
	common.POSITION_TARGET_TYPEMASK_YAW_IGNORE

// VelocityBodyYawspeed is a body-frame velocity setpoint.
type VelocityBodyYawspeed struct {
	ForwardMS    float32 // positive forward
	RightMS      float32 // positive right
	DownMS       float32 // positive down
	YawspeedDegS float32 // positive clockwise
}

// Offboard streams velocity setpoints and switches the vehicle in and out of
// offboard mode. Streaming starts with the first setpoint and continues
// until Stop, since PX4 rejects offboard mode without a live stream.
type Offboard struct {
	system *System
	start  time.Time

	mu        sync.Mutex
	setpoint  *VelocityBodyYawspeed
	active    bool
	stopCh    chan struct{}
	streamEnd chan struct{}
}

// NewOffboard creates the offboard plugin for system.
func NewOffboard(system *System) *Offboard {
	return &Offboard{system: system, start: system.clock.Now()}
}

// SetVelocityBody replaces the streamed setpoint.
func (o *Offboard) SetVelocityBody(v VelocityBodyYawspeed) error {
	if !o.system.IsConnected() {
		return newError("set velocity body", ResultNoSystem)
	}

	o.mu.Lock()
	o.setpoint = &v
	startStream := o.stopCh == nil
	if startStream {
		o.stopCh = make(chan struct{})
		o.streamEnd = make(chan struct{})
	}
	stopCh, streamEnd := o.stopCh, o.streamEnd
	o.mu.Unlock()

	o.sendSetpoint(v)
	if startStream {
		go o.stream(stopCh, streamEnd)
	}
	return nil
}

// Start switches the vehicle into offboard mode. A setpoint must be set first.
func (o *Offboard) Start(ctx context.Context) error {
	o.mu.Lock()
	hasSetpoint := o.setpoint != nil
	o.mu.Unlock()
	if !hasSetpoint {
		return newError("offboard start", ResultNoSetpointSet)
	}

	if err := o.system.SendCommand(ctx, "offboard start", setModeCommand(px4MainModeOffboard, 0)); err != nil {
		return err
	}

	o.mu.Lock()
	o.active = true
	o.mu.Unlock()
	return nil
}

// Stop switches the vehicle to hold and stops the setpoint stream.
func (o *Offboard) Stop(ctx context.Context) error {
	if err := o.system.SendCommand(ctx, "offboard stop", setModeCommand(px4MainModeAuto, px4SubModeAutoLoiter)); err != nil {
		return err
	}

	o.mu.Lock()
	o.active = false
	o.mu.Unlock()
	o.stopStream()
	return nil
}

// IsActive reports whether offboard was started and the vehicle still
// reports offboard mode.
func (o *Offboard) IsActive() bool {
	o.mu.Lock()
	active := o.active
	o.mu.Unlock()
	if !active {
		return false
	}
	mainMode, _ := px4Mode(o.system.CustomMode())
	return mainMode == px4MainModeOffboard
}

// Close stops the setpoint stream without changing the flight mode. It is
// safe to call when no stream is running.
func (o *Offboard) Close() {
	o.stopStream()
}

func (o *Offboard) stopStream() {
	o.mu.Lock()
	stopCh, streamEnd := o.stopCh, o.streamEnd
	o.stopCh, o.streamEnd = nil, nil
	o.setpoint = nil
	o.mu.Unlock()

	if stopCh != nil {
		close(stopCh)
		<-streamEnd
	}
}

func (o *Offboard) stream(stopCh <-chan struct{}, streamEnd chan<- struct{}) {
	defer close(streamEnd)

	ticker := o.system.clock.NewTicker(offboardSetpointPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C():
			o.mu.Lock()
			sp := o.setpoint
			o.mu.Unlock()
			if sp != nil {
				o.sendSetpoint(*sp)
			}
		case <-stopCh:
			return
		}
	}
}

func (o *Offboard) sendSetpoint(v VelocityBodyYawspeed) {
	o.system.sendMessage(&common.MessageSetPositionTargetLocalNed{
		TimeBootMs:      uint32(o.system.clock.Since(o.start).Milliseconds()),
		TargetSystem:    o.system.systemID,
		TargetComponent: autopilotComponentID,
		CoordinateFrame: common.MAV_FRAME_BODY_NED,
		TypeMask:        velocityOnlyTypeMask,
		Vx:              v.ForwardMS,
		Vy:              v.RightMS,
		Vz:              v.DownMS,
		YawRate:         v.YawspeedDegS * math.Pi / 180,
	})
}
