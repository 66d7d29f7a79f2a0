package mavsdk

import (
	"context"
	"sync"

	"github.com/Masterminds/semver/v3"
	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"
	"github.com/bluenviron/gomavlib/v3/pkg/message"
)

// Info queries static information about the vehicle.
type Info struct {
	system *System

	mu      sync.Mutex
	version *semver.Version
	waiters []chan *semver.Version
}

// NewInfo creates the info plugin for system.
func NewInfo(system *System) *Info {
	i := &Info{system: system}
	system.subscribe(messageID(&common.MessageAutopilotVersion{}), i.handleAutopilotVersion)
	return i
}

// FlightSoftwareVersion returns the autopilot firmware version, requesting
// AUTOPILOT_VERSION from the vehicle if it has not been received yet.
func (i *Info) FlightSoftwareVersion(ctx context.Context) (*semver.Version, error) {
	const op = "flight software version"

	i.mu.Lock()
	if i.version != nil {
		v := i.version
		i.mu.Unlock()
		return v, nil
	}
	ch := make(chan *semver.Version, 1)
	i.waiters = append(i.waiters, ch)
	i.mu.Unlock()

	err := i.system.SendCommand(ctx, op, Command{
		Command: common.MAV_CMD_REQUEST_MESSAGE,
		Params:  [7]float32{float32(messageID(&common.MessageAutopilotVersion{}))},
	})
	if err != nil {
		return nil, err
	}

	select {
	case v := <-ch:
		return v, nil
	case <-i.system.clock.After(i.system.config.CommandTimeout):
		return nil, newError(op, ResultTimeout)
	case <-ctx.Done():
		return nil, &Error{Op: op, Result: ResultCancelled, Err: ctx.Err()}
	}
}

func (i *Info) handleAutopilotVersion(msg message.Message) {
	m := msg.(*common.MessageAutopilotVersion)
	v := decodeFlightSwVersion(m.FlightSwVersion)

	i.mu.Lock()
	i.version = v
	waiters := i.waiters
	i.waiters = nil
	i.mu.Unlock()

	for _, ch := range waiters {
		ch <- v
	}
}

// decodeFlightSwVersion unpacks the major.minor.patch.type layout PX4 uses
// for flight_sw_version.
func decodeFlightSwVersion(raw uint32) *semver.Version {
	major := uint64(raw >> 24)
	minor := uint64(raw >> 16 & 0xff)
	patch := uint64(raw >> 8 & 0xff)

	var pre string
	switch typ := raw & 0xff; {
	case typ == 255:
	case typ >= 192:
		pre = "rc"
	case typ >= 128:
		pre = "beta"
	case typ >= 64:
		pre = "alpha"
	default:
		pre = "dev"
	}
	return semver.New(major, minor, patch, pre, "")
}
