package service_registry

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/benmeehan/drone-examples/internal/mocks"
	"github.com/benmeehan/drone-examples/internal/utils"
	"github.com/benmeehan/drone-examples/pkg/location"
	"github.com/benmeehan/drone-examples/pkg/timeutil"
)

func noPort(string, int) (io.WriteCloser, error) {
	return nil, errors.New("no serial port in tests")
}

func newTestRegistry(client *mocks.MockMQTTClient) *ServiceRegistry {
	sr := NewServiceRegistry(nil, noPort, timeutil.NewMockClock(time.Unix(0, 0)), zerolog.Nop())
	if client != nil {
		sr.mqttClient = client
	}
	return sr
}

// TestServiceRegistry_StartStopOrder tests that services start in registration order and stop in reverse.
func TestServiceRegistry_StartStopOrder(t *testing.T) {
	// Setup
	var calls []string
	first := new(mocks.MockService)
	first.On("Start").Run(func(mock.Arguments) { calls = append(calls, "first.Start") }).Return(nil)
	first.On("Stop").Run(func(mock.Arguments) { calls = append(calls, "first.Stop") }).Return(nil)
	second := new(mocks.MockService)
	second.On("Start").Run(func(mock.Arguments) { calls = append(calls, "second.Start") }).Return(nil)
	second.On("Stop").Run(func(mock.Arguments) { calls = append(calls, "second.Stop") }).Return(nil)

	sr := newTestRegistry(nil)
	sr.RegisterService("first", first)
	sr.RegisterService("second", second)
	sr.RegisterService("first", second)

	// Execute
	require.NoError(t, sr.StartServices())
	require.NoError(t, sr.StopServices())

	// Assert
	assert.Equal(t, []string{"first", "second"}, sr.Services())
	assert.Equal(t, []string{"first.Start", "second.Start", "second.Stop", "first.Stop"}, calls)
}

// TestServiceRegistry_StartFailureRollsBack tests that a failed start stops the services already started.
func TestServiceRegistry_StartFailureRollsBack(t *testing.T) {
	// Setup
	first := new(mocks.MockService)
	first.On("Start").Return(nil)
	first.On("Stop").Return(nil)
	second := new(mocks.MockService)
	second.On("Start").Return(errors.New("port busy"))

	sr := newTestRegistry(nil)
	sr.RegisterService("first", first)
	sr.RegisterService("second", second)

	// Execute
	err := sr.StartServices()

	// Assert
	assert.EqualError(t, err, "failed to start second: port busy")
	first.AssertExpectations(t)
	second.AssertNotCalled(t, "Stop")
}

// TestServiceRegistry_StopServicesJoinsErrors tests that every stop error is reported.
func TestServiceRegistry_StopServicesJoinsErrors(t *testing.T) {
	// Setup
	first := new(mocks.MockService)
	first.On("Stop").Return(errors.New("a"))
	second := new(mocks.MockService)
	second.On("Stop").Return(errors.New("b"))

	sr := newTestRegistry(nil)
	sr.RegisterService("first", first)
	sr.RegisterService("second", second)

	// Execute
	err := sr.StopServices()

	// Assert
	assert.EqualError(t, err, "failed to stop second: b\nfailed to stop first: a")
}

// TestServiceRegistry_RegisterServices tests that only enabled services are registered, in order.
func TestServiceRegistry_RegisterServices(t *testing.T) {
	tests := []struct {
		name     string
		mqtt     bool
		nmea     bool
		expected []string
	}{
		{name: "none", expected: nil},
		{name: "mqtt only", mqtt: true, expected: []string{"position_publisher"}},
		{name: "nmea only", nmea: true, expected: []string{"nmea_output"}},
		{name: "both", mqtt: true, nmea: true, expected: []string{"position_publisher", "nmea_output"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Setup
			config := utils.DefaultConfig()
			config.MQTT.Enabled = tt.mqtt
			config.NMEA.Enabled = tt.nmea
			config.NMEA.Port = "/dev/ttyUSB1"
			sr := newTestRegistry(new(mocks.MockMQTTClient))

			// Execute
			err := sr.RegisterServices(config, location.NewVehicleProvider(), "flight-1", 1)

			// Assert
			require.NoError(t, err)
			assert.Equal(t, tt.expected, sr.Services())
		})
	}
}

// TestServiceRegistry_RegisterServicesWithoutClient tests that MQTT cannot be enabled without a connected client.
func TestServiceRegistry_RegisterServicesWithoutClient(t *testing.T) {
	// Setup
	config := utils.DefaultConfig()
	config.MQTT.Enabled = true
	sr := newTestRegistry(nil)

	// Execute
	err := sr.RegisterServices(config, location.NewVehicleProvider(), "flight-1", 1)

	// Assert
	assert.EqualError(t, err, "mqtt is enabled but no client is connected")
	assert.Empty(t, sr.Services())
}
