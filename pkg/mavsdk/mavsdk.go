// Package mavsdk is a small MAVLink client for PX4 vehicles built on
// gomavlib. It covers what the flight programs need: connecting, system
// discovery, telemetry, basic actions, missions and offboard velocity
// control.
package mavsdk

import (
	"sync"
	"time"

	"github.com/bluenviron/gomavlib/v3"
	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"
	"github.com/bluenviron/gomavlib/v3/pkg/dialects/minimal"
	"github.com/bluenviron/gomavlib/v3/pkg/message"
	"github.com/rs/zerolog"

	"github.com/benmeehan/drone-examples/pkg/timeutil"
)

// Configuration controls how this ground station identifies itself and how
// long it waits for the vehicle.
type Configuration struct {
	SystemID         uint8
	ComponentID      uint8
	CommandTimeout   time.Duration
	CommandRetries   int
	HeartbeatTimeout time.Duration
}

// DefaultConfiguration returns the settings of a ground station
// (system 245, component 190 = MAV_COMP_ID_MISSIONPLANNER).
func DefaultConfiguration() Configuration {
	return Configuration{
		SystemID:         245,
		ComponentID:      190,
		CommandTimeout:   500 * time.Millisecond,
		CommandRetries:   3,
		HeartbeatTimeout: 3 * time.Second,
	}
}

// Mavsdk owns the MAVLink connection and the systems discovered on it.
type Mavsdk struct {
	config Configuration
	clock  timeutil.Clock
	logger zerolog.Logger

	mu                sync.Mutex
	node              *gomavlib.Node
	systems           []*System
	systemsByID       map[uint8]*System
	newSystemHandlers []func()
	callbacks         *callbackQueue
	readerDone        chan struct{}
}

// New creates an unconnected Mavsdk instance.
func New(config Configuration, logger zerolog.Logger) *Mavsdk {
	return newWithClock(config, timeutil.RealClock{}, logger)
}

func newWithClock(config Configuration, clock timeutil.Clock, logger zerolog.Logger) *Mavsdk {
	return &Mavsdk{
		config:      config,
		clock:       clock,
		logger:      logger,
		systemsByID: make(map[uint8]*System),
		callbacks:   newCallbackQueue(16),
	}
}

// AddAnyConnection opens the endpoint described by url and starts reading
// from it. Only one connection per instance is supported.
func (m *Mavsdk) AddAnyConnection(url string) error {
	endpoint, err := ParseConnectionURL(url)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.node != nil {
		return newError("add connection", ResultBusy)
	}

	node, err := gomavlib.NewNode(gomavlib.NodeConf{
		Endpoints:      []gomavlib.EndpointConf{endpoint},
		Dialect:        common.Dialect,
		OutVersion:     gomavlib.V2,
		OutSystemID:    m.config.SystemID,
		OutComponentID: m.config.ComponentID,
	})
	if err != nil {
		m.logger.Error().Err(err).Str("url", url).Msg("Failed to open MAVLink connection")
		return &Error{Op: "add connection", Result: ResultConnectionError, Err: err}
	}
	m.node = node
	m.readerDone = make(chan struct{})

	go func() {
		defer close(m.readerDone)
		for evt := range node.Events() {
			m.handleEvent(evt)
		}
	}()

	m.logger.Info().Str("url", url).Msg("MAVLink connection opened")
	return nil
}

// SubscribeOnNewSystem registers cb to be called whenever a new system is
// discovered.
func (m *Mavsdk) SubscribeOnNewSystem(cb func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.newSystemHandlers = append(m.newSystemHandlers, cb)
}

// Systems returns the systems discovered so far, in discovery order.
func (m *Mavsdk) Systems() []*System {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*System(nil), m.systems...)
}

// Close shuts down the connection and all callback workers.
func (m *Mavsdk) Close() {
	m.mu.Lock()
	node, done := m.node, m.readerDone
	systems := append([]*System(nil), m.systems...)
	m.node = nil
	m.mu.Unlock()

	if node != nil {
		node.Close()
		<-done
	}
	for _, s := range systems {
		s.close()
	}
	m.callbacks.close()
}

func (m *Mavsdk) handleEvent(evt gomavlib.Event) {
	switch e := evt.(type) {
	case *gomavlib.EventFrame:
		m.handleFrame(e.SystemID(), e.ComponentID(), e.Message())
	case *gomavlib.EventChannelOpen:
		m.logger.Debug().Msg("MAVLink channel opened")
	case *gomavlib.EventChannelClose:
		m.logger.Debug().Msg("MAVLink channel closed")
	case *gomavlib.EventParseError:
		m.logger.Debug().Err(e.Error).Msg("MAVLink parse error")
	}
}

func (m *Mavsdk) handleFrame(systemID, componentID uint8, msg message.Message) {
	if systemID == m.config.SystemID {
		return
	}

	m.mu.Lock()
	system, ok := m.systemsByID[systemID]
	var handlers []func()
	if !ok {
		hb, isHeartbeat := msg.(*common.MessageHeartbeat)
		if !isHeartbeat || uint64(hb.Type) == uint64(minimal.MAV_TYPE_GCS) {
			m.mu.Unlock()
			return
		}
		system = newSystem(systemID, m.write, m.clock, m.config, m.logger)
		m.systemsByID[systemID] = system
		m.systems = append(m.systems, system)
		handlers = append(handlers, m.newSystemHandlers...)
	}
	m.mu.Unlock()

	system.handleMessage(componentID, msg)

	if !ok {
		m.logger.Debug().Uint8("system_id", systemID).Msg("New system discovered")
		for _, h := range handlers {
			m.callbacks.push(h)
		}
	}
}

func (m *Mavsdk) write(msg message.Message) {
	m.mu.Lock()
	node := m.node
	m.mu.Unlock()
	if node == nil {
		return
	}
	node.WriteMessageAll(msg)
}
