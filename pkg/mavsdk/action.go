package mavsdk

import (
	"context"
	"math"

	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"
)

// Action sends one-shot vehicle commands.
type Action struct {
	system *System
}

// NewAction creates the action plugin for system.
func NewAction(system *System) *Action {
	return &Action{system: system}
}

// Arm arms the vehicle.
func (a *Action) Arm(ctx context.Context) error {
	return a.system.SendCommand(ctx, "arm", Command{
		Command: common.MAV_CMD_COMPONENT_ARM_DISARM,
		Params:  [7]float32{1},
	})
}

// Disarm disarms the vehicle.
func (a *Action) Disarm(ctx context.Context) error {
	return a.system.SendCommand(ctx, "disarm", Command{
		Command: common.MAV_CMD_COMPONENT_ARM_DISARM,
		Params:  [7]float32{0},
	})
}

// Takeoff climbs to the autopilot's configured takeoff altitude.
func (a *Action) Takeoff(ctx context.Context) error {
	return a.system.SendCommand(ctx, "takeoff", Command{
		Command: common.MAV_CMD_NAV_TAKEOFF,
		Params:  unsetParams(),
	})
}

// Land lands at the current position.
func (a *Action) Land(ctx context.Context) error {
	return a.system.SendCommand(ctx, "land", Command{
		Command: common.MAV_CMD_NAV_LAND,
		Params:  unsetParams(),
	})
}

// ReturnToLaunch flies home and lands.
func (a *Action) ReturnToLaunch(ctx context.Context) error {
	return a.system.SendCommand(ctx, "return to launch", Command{
		Command: common.MAV_CMD_NAV_RETURN_TO_LAUNCH,
	})
}

// unsetParams marks every parameter as "use the vehicle default".
func unsetParams() [7]float32 {
	nan := float32(math.NaN())
	return [7]float32{nan, nan, nan, nan, nan, nan, nan}
}
