package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_Arguments(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no arguments", nil},
		{"too many arguments", []string{"udp://:14540", "udp://:14541"}},
		{"invalid url", []string{"ftp://example.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer

			code := run(tt.args, &stdout, &stderr)

			assert.Equal(t, 1, code)
		})
	}
}

func TestRun_InvalidPlanFile(t *testing.T) {
	dir := t.TempDir()
	planPath := filepath.Join(dir, "mission.yaml")
	require.NoError(t, os.WriteFile(planPath, []byte("items: []\n"), 0600))
	configPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("mission:\n  plan_file: "+planPath+"\n"), 0600))
	var stdout, stderr bytes.Buffer

	code := run([]string{"-config", configPath, "udp://127.0.0.1:24552"}, &stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.Contains(t, stdout.String(), "mission plan has no items")
	assert.NotContains(t, stdout.String(), "Waiting to discover system...")
}
