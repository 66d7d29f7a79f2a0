package mavsdk

import (
	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"
	"github.com/bluenviron/gomavlib/v3/pkg/dialects/minimal"
)

// PX4 custom main modes.
const (
	px4MainModeAuto     = 4
	px4MainModeOffboard = 6
)

// PX4 AUTO sub modes.
const (
	px4SubModeAutoLoiter  = 3
	px4SubModeAutoMission = 4
)

// px4Mode decodes the main and sub mode packed in a PX4 heartbeat custom mode.
func px4Mode(customMode uint32) (mainMode, subMode uint8) {
	return uint8(customMode >> 16), uint8(customMode >> 24)
}

func setModeCommand(mainMode, subMode uint8) Command {
	return Command{
		Command: common.MAV_CMD_DO_SET_MODE,
		Params: [7]float32{
			float32(minimal.MAV_MODE_FLAG_CUSTOM_MODE_ENABLED),
			float32(mainMode),
			float32(subMode),
		},
	}
}
