package mavsdk

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"
	"github.com/bluenviron/gomavlib/v3/pkg/dialects/minimal"
	"github.com/bluenviron/gomavlib/v3/pkg/message"
	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/rs/zerolog"

	"github.com/benmeehan/drone-examples/pkg/timeutil"
)

// autopilotComponentID is MAV_COMP_ID_AUTOPILOT1.
const autopilotComponentID = 1

// ComponentType classifies a component discovered on a system.
type ComponentType int

const (
	ComponentTypeUnknown ComponentType = iota
	ComponentTypeAutopilot
	ComponentTypeCamera
	ComponentTypeGimbal
)

func (c ComponentType) String() string {
	switch c {
	case ComponentTypeAutopilot:
		return "autopilot"
	case ComponentTypeCamera:
		return "camera"
	case ComponentTypeGimbal:
		return "gimbal"
	default:
		return "unknown"
	}
}

func componentTypeOf(componentID uint8) ComponentType {
	switch {
	case componentID == autopilotComponentID:
		return ComponentTypeAutopilot
	case componentID >= 100 && componentID <= 105:
		return ComponentTypeCamera
	case componentID == 154 || (componentID >= 171 && componentID <= 175):
		return ComponentTypeGimbal
	default:
		return ComponentTypeUnknown
	}
}

// Command is a COMMAND_LONG request addressed to the autopilot.
type Command struct {
	Command common.MAV_CMD
	Params  [7]float32
}

// System is a vehicle discovered on the connection.
type System struct {
	systemID uint8
	send     func(message.Message)
	clock    timeutil.Clock
	config   Configuration
	logger   zerolog.Logger

	mu            sync.RWMutex
	lastHeartbeat time.Time
	heartbeat     common.MessageHeartbeat
	handlers      map[uint32][]func(message.Message)
	compCallbacks []func(ComponentType)

	components  cmap.ConcurrentMap[string, ComponentType]
	pendingAcks cmap.ConcurrentMap[string, chan *common.MessageCommandAck]
	callbacks   *callbackQueue
}

func newSystem(systemID uint8, send func(message.Message), clock timeutil.Clock, config Configuration, logger zerolog.Logger) *System {
	return &System{
		systemID:    systemID,
		send:        send,
		clock:       clock,
		config:      config,
		logger:      logger.With().Uint8("system_id", systemID).Logger(),
		handlers:    make(map[uint32][]func(message.Message)),
		components:  cmap.New[ComponentType](),
		pendingAcks: cmap.New[chan *common.MessageCommandAck](),
		callbacks:   newCallbackQueue(64),
	}
}

// SystemID returns the MAVLink system id of the vehicle.
func (s *System) SystemID() uint8 {
	return s.systemID
}

// IsConnected reports whether a heartbeat arrived within the heartbeat timeout.
func (s *System) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastHeartbeat.IsZero() {
		return false
	}
	return s.clock.Since(s.lastHeartbeat) < s.config.HeartbeatTimeout
}

// Armed reports the armed flag of the latest autopilot heartbeat.
func (s *System) Armed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return uint64(s.heartbeat.BaseMode)&uint64(minimal.MAV_MODE_FLAG_SAFETY_ARMED) != 0
}

// CustomMode returns the custom mode of the latest autopilot heartbeat.
func (s *System) CustomMode() uint32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.heartbeat.CustomMode
}

// RegisterComponentDiscoveredCallback calls cb for every component seen so
// far and for every component discovered later.
func (s *System) RegisterComponentDiscoveredCallback(cb func(ComponentType)) {
	s.mu.Lock()
	s.compCallbacks = append(s.compCallbacks, cb)
	s.mu.Unlock()

	for item := range s.components.IterBuffered() {
		componentType := item.Val
		s.enqueue(func() { cb(componentType) })
	}
}

// subscribe registers fn for every incoming message with the given id.
// fn runs on the receive loop and must not block.
func (s *System) subscribe(messageID uint32, fn func(message.Message)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[messageID] = append(s.handlers[messageID], fn)
}

// enqueue schedules a user callback.
func (s *System) enqueue(fn func()) {
	s.callbacks.push(fn)
}

func (s *System) close() {
	s.callbacks.close()
}

func (s *System) handleMessage(componentID uint8, msg message.Message) {
	switch m := msg.(type) {
	case *common.MessageHeartbeat:
		s.handleHeartbeat(componentID, m)
	case *common.MessageCommandAck:
		if ch, ok := s.pendingAcks.Get(ackKey(m.Command)); ok {
			select {
			case ch <- m:
			default:
			}
		}
	}

	s.mu.RLock()
	handlers := s.handlers[msg.GetID()]
	s.mu.RUnlock()
	for _, h := range handlers {
		h(msg)
	}
}

func (s *System) handleHeartbeat(componentID uint8, hb *common.MessageHeartbeat) {
	key := strconv.Itoa(int(componentID))
	isNew := s.components.SetIfAbsent(key, componentTypeOf(componentID))

	s.mu.Lock()
	if componentID == autopilotComponentID || s.lastHeartbeat.IsZero() {
		s.heartbeat = *hb
	}
	s.lastHeartbeat = s.clock.Now()
	callbacks := append([]func(ComponentType){}, s.compCallbacks...)
	s.mu.Unlock()

	if isNew {
		componentType := componentTypeOf(componentID)
		s.logger.Debug().
			Uint8("component_id", componentID).
			Str("component_type", componentType.String()).
			Msg("Discovered component")
		for _, cb := range callbacks {
			cb := cb
			s.enqueue(func() { cb(componentType) })
		}
	}
}

func ackKey(cmd common.MAV_CMD) string {
	return strconv.FormatUint(uint64(cmd), 10)
}

// SendCommand sends cmd as COMMAND_LONG to the autopilot and waits for its
// COMMAND_ACK. The command is resent on timeout up to the configured number
// of retries; an IN_PROGRESS ack restarts the timeout.
func (s *System) SendCommand(ctx context.Context, op string, cmd Command) error {
	key := ackKey(cmd.Command)
	ackCh := make(chan *common.MessageCommandAck, 4)
	if !s.pendingAcks.SetIfAbsent(key, ackCh) {
		return newError(op, ResultBusy)
	}
	defer s.pendingAcks.Remove(key)

	for attempt := 0; attempt <= s.config.CommandRetries; attempt++ {
		s.send(&common.MessageCommandLong{
			TargetSystem:    s.systemID,
			TargetComponent: autopilotComponentID,
			Command:         cmd.Command,
			Confirmation:    uint8(attempt),
			Param1:          cmd.Params[0],
			Param2:          cmd.Params[1],
			Param3:          cmd.Params[2],
			Param4:          cmd.Params[3],
			Param5:          cmd.Params[4],
			Param6:          cmd.Params[5],
			Param7:          cmd.Params[6],
		})

		timeout := s.clock.After(s.config.CommandTimeout)
	wait:
		for {
			select {
			case ack := <-ackCh:
				if ack.Result == common.MAV_RESULT_IN_PROGRESS {
					timeout = s.clock.After(s.config.CommandTimeout)
					continue
				}
				result := resultFromCommandAck(ack.Result)
				if result != ResultSuccess {
					s.logger.Debug().Str("op", op).Str("result", result.String()).Msg("Command rejected")
					return newError(op, result)
				}
				return nil
			case <-timeout:
				s.logger.Debug().Str("op", op).Int("attempt", attempt+1).Msg("Command ack timed out")
				break wait
			case <-ctx.Done():
				return &Error{Op: op, Result: ResultCancelled, Err: ctx.Err()}
			}
		}
	}

	return newError(op, ResultTimeout)
}

// sendMessage writes msg to the vehicle without waiting for a response.
func (s *System) sendMessage(msg message.Message) {
	s.send(msg)
}
