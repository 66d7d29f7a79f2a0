package mavsdk

import (
	"sync"
	"testing"
	"time"

	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"
	"github.com/bluenviron/gomavlib/v3/pkg/message"
	"github.com/rs/zerolog"

	"github.com/benmeehan/drone-examples/pkg/timeutil"
)

// fakeVehicle records everything the SDK sends and lets a test reply to it.
type fakeVehicle struct {
	t      *testing.T
	system *System

	mu      sync.Mutex
	sent    []message.Message
	respond func(v *fakeVehicle, msg message.Message)
}

func newFakeVehicle(t *testing.T, clock timeutil.Clock) *fakeVehicle {
	t.Helper()

	config := DefaultConfiguration()
	config.CommandTimeout = 50 * time.Millisecond
	config.CommandRetries = 1

	v := &fakeVehicle{t: t}
	v.system = newSystem(1, v.receive, clock, config, zerolog.Nop())
	t.Cleanup(v.system.close)
	return v
}

func (v *fakeVehicle) receive(msg message.Message) {
	v.mu.Lock()
	v.sent = append(v.sent, msg)
	respond := v.respond
	v.mu.Unlock()

	if respond != nil {
		respond(v, msg)
	}
}

func (v *fakeVehicle) onSend(respond func(v *fakeVehicle, msg message.Message)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.respond = respond
}

// reply delivers msg to the SDK as if the autopilot had sent it.
func (v *fakeVehicle) reply(msg message.Message) {
	v.system.handleMessage(autopilotComponentID, msg)
}

func (v *fakeVehicle) heartbeat(baseMode common.MAV_MODE_FLAG, customMode uint32) {
	v.reply(&common.MessageHeartbeat{
		Type:         common.MAV_TYPE_QUADROTOR,
		Autopilot:    common.MAV_AUTOPILOT_PX4,
		BaseMode:     baseMode,
		CustomMode:   customMode,
		SystemStatus: common.MAV_STATE_STANDBY,
	})
}

func (v *fakeVehicle) sentMessages() []message.Message {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]message.Message(nil), v.sent...)
}

func (v *fakeVehicle) sentCommands() []*common.MessageCommandLong {
	var cmds []*common.MessageCommandLong
	for _, msg := range v.sentMessages() {
		if cmd, ok := msg.(*common.MessageCommandLong); ok {
			cmds = append(cmds, cmd)
		}
	}
	return cmds
}

// ackAll accepts every command with result.
func ackAll(result common.MAV_RESULT) func(v *fakeVehicle, msg message.Message) {
	return func(v *fakeVehicle, msg message.Message) {
		if cmd, ok := msg.(*common.MessageCommandLong); ok {
			v.reply(&common.MessageCommandAck{Command: cmd.Command, Result: result})
		}
	}
}

// manualTickClock runs on real time but only ticks when a test triggers it.
type manualTickClock struct {
	timeutil.RealClock
	ticks *timeutil.MockClock
}

func newManualTickClock() manualTickClock {
	return manualTickClock{ticks: timeutil.NewMockClock(time.Unix(1700000000, 0))}
}

func (c manualTickClock) NewTicker(d time.Duration) timeutil.Ticker {
	return c.ticks.NewTicker(d)
}

func px4CustomMode(mainMode, subMode uint8) uint32 {
	return uint32(mainMode)<<16 | uint32(subMode)<<24
}
