package mavsdk

import (
	"context"
	"math"
	"testing"

	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benmeehan/drone-examples/pkg/timeutil"
)

func TestAction_Commands(t *testing.T) {
	v := newFakeVehicle(t, timeutil.RealClock{})
	v.onSend(ackAll(common.MAV_RESULT_ACCEPTED))
	action := NewAction(v.system)
	ctx := context.Background()

	require.NoError(t, action.Arm(ctx))
	require.NoError(t, action.Takeoff(ctx))
	require.NoError(t, action.Land(ctx))
	require.NoError(t, action.ReturnToLaunch(ctx))
	require.NoError(t, action.Disarm(ctx))

	cmds := v.sentCommands()
	require.Len(t, cmds, 5)

	assert.Equal(t, common.MAV_CMD_COMPONENT_ARM_DISARM, cmds[0].Command)
	assert.Equal(t, float32(1), cmds[0].Param1)

	assert.Equal(t, common.MAV_CMD_NAV_TAKEOFF, cmds[1].Command)
	assert.True(t, math.IsNaN(float64(cmds[1].Param7)), "takeoff altitude is left to the vehicle")

	assert.Equal(t, common.MAV_CMD_NAV_LAND, cmds[2].Command)
	assert.Equal(t, common.MAV_CMD_NAV_RETURN_TO_LAUNCH, cmds[3].Command)

	assert.Equal(t, common.MAV_CMD_COMPONENT_ARM_DISARM, cmds[4].Command)
	assert.Equal(t, float32(0), cmds[4].Param1)
}

func TestAction_ArmDenied(t *testing.T) {
	v := newFakeVehicle(t, timeutil.RealClock{})
	v.onSend(ackAll(common.MAV_RESULT_DENIED))
	action := NewAction(v.system)

	err := action.Arm(context.Background())

	require.Error(t, err)
	assert.Equal(t, ResultCommandDenied, ResultOf(err))
	assert.Equal(t, "arm: Command Denied", err.Error())
}
