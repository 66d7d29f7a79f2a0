package services_test

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/adrianmo/go-nmea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benmeehan/drone-examples/internal/services"
	"github.com/benmeehan/drone-examples/pkg/location"
	"github.com/benmeehan/drone-examples/pkg/timeutil"
)

// fakePort records everything written to it.
type fakePort struct {
	mu      sync.Mutex
	buf     bytes.Buffer
	writes  chan struct{}
	closed  bool
	onClose error
}

func newFakePort() *fakePort {
	return &fakePort{writes: make(chan struct{}, 4)}
}

func (f *fakePort) Write(p []byte) (int, error) {
	f.mu.Lock()
	n, err := f.buf.Write(p)
	f.mu.Unlock()
	f.writes <- struct{}{}
	return n, err
}

func (f *fakePort) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return f.onClose
}

func (f *fakePort) String() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.buf.String()
}

func openerFor(port *fakePort, gotName *string, gotBaud *int) services.PortOpener {
	return func(name string, baud int) (io.WriteCloser, error) {
		*gotName = name
		*gotBaud = baud
		return port, nil
	}
}

// TestNMEAOutputService_WritesGGA tests that every tick writes a GGA sentence for the latest position.
func TestNMEAOutputService_WritesGGA(t *testing.T) {
	// Setup
	clock := timeutil.NewMockClock(fixTime)
	provider := location.NewVehicleProvider()
	provider.Update(location.Location{Latitude: 47.3977, Longitude: 8.5456, AltitudeM: 498.1, Timestamp: fixTime})

	port := newFakePort()
	var name string
	var baud int
	n := services.NewNMEAOutputService("/dev/ttyUSB1", 4800, time.Second, openerFor(port, &name, &baud), provider, clock, zerolog.Nop())

	// Execute
	require.NoError(t, n.Start())
	clock.Tickers()[0].Trigger(fixTime)
	select {
	case <-port.writes:
	case <-time.After(time.Second):
		t.Fatal("no sentence written")
	}
	require.NoError(t, n.Stop())

	// Assert
	assert.Equal(t, "/dev/ttyUSB1", name)
	assert.Equal(t, 4800, baud)
	assert.True(t, port.closed)

	parsed, err := nmea.Parse(strings.TrimSpace(port.String()))
	require.NoError(t, err)
	gga, ok := parsed.(nmea.GGA)
	require.True(t, ok)
	assert.InDelta(t, 47.3977, gga.Latitude, 1e-6)
	assert.InDelta(t, 8.5456, gga.Longitude, 1e-6)
}

// TestNMEAOutputService_OpenFails tests that Start reports a port that cannot be opened.
func TestNMEAOutputService_OpenFails(t *testing.T) {
	// Setup
	opener := func(string, int) (io.WriteCloser, error) {
		return nil, errors.New("no such device")
	}
	n := services.NewNMEAOutputService("/dev/ttyUSB9", 4800, time.Second, opener,
		location.NewVehicleProvider(), timeutil.NewMockClock(fixTime), zerolog.Nop())

	// Execute
	err := n.Start()

	// Assert
	assert.EqualError(t, err, "failed to open /dev/ttyUSB9: no such device")
	assert.EqualError(t, n.Stop(), "nmea output service is not running")
}

// TestNMEAOutputService_StartTwice tests the running state check of Start.
func TestNMEAOutputService_StartTwice(t *testing.T) {
	// Setup
	port := newFakePort()
	var name string
	var baud int
	n := services.NewNMEAOutputService("/dev/ttyUSB1", 4800, time.Second, openerFor(port, &name, &baud),
		location.NewVehicleProvider(), timeutil.NewMockClock(fixTime), zerolog.Nop())
	require.NoError(t, n.Start())

	// Execute
	err := n.Start()

	// Assert
	assert.EqualError(t, err, "nmea output service is already running")
	assert.NoError(t, n.Stop())
	assert.Empty(t, port.String())
}

// TestNMEAOutputService_CloseError tests that a failing close is returned from Stop.
func TestNMEAOutputService_CloseError(t *testing.T) {
	// Setup
	port := newFakePort()
	port.onClose = errors.New("device busy")
	var name string
	var baud int
	n := services.NewNMEAOutputService("/dev/ttyUSB1", 4800, time.Second, openerFor(port, &name, &baud),
		location.NewVehicleProvider(), timeutil.NewMockClock(fixTime), zerolog.Nop())
	require.NoError(t, n.Start())

	// Execute
	err := n.Stop()

	// Assert
	assert.EqualError(t, err, "device busy")
}
