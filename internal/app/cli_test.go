package app

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected Args
	}{
		{"url only", []string{"udp://:14540"}, Args{ConnectionURL: "udp://:14540"}},
		{"config flag", []string{"-config", "configs/config.yaml", "serial:///dev/ttyUSB0:57600"},
			Args{ConfigFile: "configs/config.yaml", ConnectionURL: "serial:///dev/ttyUSB0:57600"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stderr bytes.Buffer

			got, err := ParseArgs("takeoff_land", tt.args, &stderr)

			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
			assert.Empty(t, stderr.String())
		})
	}
}

func TestParseArgs_Usage(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no arguments", nil},
		{"two urls", []string{"udp://:14540", "udp://:14541"}},
		{"flag without url", []string{"-config", "config.yaml"}},
		{"unknown flag", []string{"-speed", "5", "udp://:14540"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stderr bytes.Buffer

			_, err := ParseArgs("fly_mission", tt.args, &stderr)

			assert.ErrorIs(t, err, ErrUsage)
			assert.Contains(t, stderr.String(), "Usage: fly_mission [-config file] <connection_url>")
			assert.Contains(t, stderr.String(), "udp://:14540")
		})
	}
}
