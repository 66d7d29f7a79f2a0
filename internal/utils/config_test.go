package utils

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/benmeehan/drone-examples/internal/mocks"
	"github.com/benmeehan/drone-examples/pkg/file"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	require.NoError(t, config.Validate())
	assert.Equal(t, 2*time.Second, config.Connection.DiscoveryTimeout)
	assert.Equal(t, 1.0, config.Telemetry.PositionRateHz)
	assert.False(t, config.MQTT.Enabled)
	assert.False(t, config.NMEA.Enabled)

	sdk := config.SDKConfiguration()
	assert.Equal(t, uint8(245), sdk.SystemID)
	assert.Equal(t, uint8(190), sdk.ComponentID)
}

func TestLoadConfig_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	doc := `
log:
  level: debug
  format: json
connection:
  discovery_timeout: 5s
  command_retries: 5
firmware:
  min_version: ">= 1.13"
mqtt:
  enabled: true
  broker: tcp://localhost:1883
  qos: 1
nmea:
  enabled: true
  port: /dev/ttyUSB1
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0600))

	config, err := LoadConfig(path, file.NewFileService())

	require.NoError(t, err)
	assert.Equal(t, "debug", config.Log.Level)
	assert.Equal(t, 5*time.Second, config.Connection.DiscoveryTimeout)
	assert.Equal(t, 5, config.Connection.CommandRetries)
	assert.Equal(t, 500*time.Millisecond, config.Connection.CommandTimeout, "unset keys keep their defaults")
	assert.Equal(t, "drone/position", config.MQTT.Topic)
	assert.Equal(t, 4800, config.NMEA.BaudRate)
}

func TestLoadConfig_ReadError(t *testing.T) {
	fileClient := new(mocks.MockFileOperations)
	fileClient.On("ReadYamlFile", "config.yaml", mock.Anything).Return(errors.New("permission denied"))

	config, err := LoadConfig("config.yaml", fileClient)

	assert.Nil(t, config)
	assert.ErrorContains(t, err, "permission denied")
	fileClient.AssertExpectations(t)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Config)
		want   string
	}{
		{"discovery timeout", func(c *Config) { c.Connection.DiscoveryTimeout = 0 }, "discovery_timeout"},
		{"negative retries", func(c *Config) { c.Connection.CommandRetries = -1 }, "command_retries"},
		{"bad firmware constraint", func(c *Config) { c.Firmware.MinVersion = "newest" }, "firmware.min_version"},
		{"mqtt without broker", func(c *Config) { c.MQTT.Enabled = true }, "mqtt.broker"},
		{"mqtt qos", func(c *Config) { c.MQTT.Enabled, c.MQTT.Broker, c.MQTT.QOS = true, "tcp://b:1883", 3 }, "mqtt.qos"},
		{"nmea without port", func(c *Config) { c.NMEA.Enabled = true }, "nmea.port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.modify(config)
			assert.ErrorContains(t, config.Validate(), tt.want)
		})
	}
}

func TestNewLogger(t *testing.T) {
	var out bytes.Buffer

	logger, err := NewLogger(LogConfig{Level: "info", Format: "json"}, &out, "flight-1")
	require.NoError(t, err)

	logger.Debug().Msg("hidden")
	logger.Info().Msg("shown")

	assert.NotContains(t, out.String(), "hidden")
	assert.Contains(t, out.String(), `"flight_id":"flight-1"`)
	assert.Contains(t, out.String(), `"message":"shown"`)
}

func TestNewLogger_Invalid(t *testing.T) {
	_, err := NewLogger(LogConfig{Level: "loud"}, &bytes.Buffer{}, "x")
	assert.Error(t, err)

	_, err = NewLogger(LogConfig{Format: "xml"}, &bytes.Buffer{}, "x")
	assert.Error(t, err)
}

func TestLoadConfig_ShippedConfigMatchesDefaults(t *testing.T) {
	config, err := LoadConfig("../../configs/config.yaml", file.NewFileService())
	require.NoError(t, err)

	expected := DefaultConfig()
	expected.MQTT.Broker = "tcp://localhost:1883"
	expected.MQTT.QOS = 1
	expected.NMEA.Port = "/dev/ttyUSB1"
	assert.Equal(t, expected, config)
}
