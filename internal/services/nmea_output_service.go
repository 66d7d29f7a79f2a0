package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/tarm/serial"

	"github.com/benmeehan/drone-examples/pkg/location"
	"github.com/benmeehan/drone-examples/pkg/timeutil"
)

// PortOpener opens the serial device the sentences are written to.
type PortOpener func(name string, baud int) (io.WriteCloser, error)

// OpenSerialPort opens a serial device with tarm/serial.
func OpenSerialPort(name string, baud int) (io.WriteCloser, error) {
	return serial.OpenPort(&serial.Config{
		Name:        name,
		Baud:        baud,
		ReadTimeout: time.Second,
	})
}

// NMEAOutputService writes the vehicle position as GGA sentences to a
// serial port, for moving-map displays and antenna trackers.
type NMEAOutputService struct {
	portName string
	baudRate int
	interval time.Duration

	openPort         PortOpener
	locationProvider location.Provider
	clock            timeutil.Clock
	logger           zerolog.Logger

	mu      sync.Mutex
	port    io.WriteCloser
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// NewNMEAOutputService creates a new NMEAOutputService.
func NewNMEAOutputService(portName string, baudRate int, interval time.Duration, openPort PortOpener,
	locationProvider location.Provider, clock timeutil.Clock, logger zerolog.Logger) *NMEAOutputService {
	return &NMEAOutputService{
		portName:         portName,
		baudRate:         baudRate,
		interval:         interval,
		openPort:         openPort,
		locationProvider: locationProvider,
		clock:            clock,
		logger:           logger,
	}
}

// Start opens the port and begins writing a sentence every interval.
func (n *NMEAOutputService) Start() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.running {
		n.logger.Warn().Msg("NMEAOutputService is already running")
		return errors.New("nmea output service is already running")
	}

	port, err := n.openPort(n.portName, n.baudRate)
	if err != nil {
		n.logger.Error().Err(err).Str("port", n.portName).Msg("Failed to open serial port")
		return fmt.Errorf("failed to open %s: %w", n.portName, err)
	}
	n.port = port

	n.ctx, n.cancel = context.WithCancel(context.Background())
	n.running = true

	ticker := n.clock.NewTicker(n.interval)

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C():
				if err := n.writeCurrentPosition(port); err != nil {
					if errors.Is(err, location.ErrNoFix) {
						continue
					}
					n.logger.Error().Err(err).Msg("Failed to write NMEA sentence")
				}
			case <-n.ctx.Done():
				return
			}
		}
	}()

	n.logger.Info().
		Str("port", n.portName).
		Int("baud_rate", n.baudRate).
		Dur("interval_ms", n.interval).
		Msg("NMEAOutputService started")
	return nil
}

// Stop stops writing and closes the port.
func (n *NMEAOutputService) Stop() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if !n.running {
		n.logger.Warn().Msg("NMEAOutputService is not running")
		return errors.New("nmea output service is not running")
	}

	n.cancel()
	n.wg.Wait()
	n.running = false

	if err := n.port.Close(); err != nil {
		n.logger.Error().Err(err).Msg("Failed to close serial port")
		return err
	}

	n.logger.Info().Msg("NMEAOutputService stopped")
	return nil
}

func (n *NMEAOutputService) writeCurrentPosition(w io.Writer) error {
	loc, err := n.locationProvider.GetLocation()
	if err != nil {
		return err
	}

	sentence := location.FormatGGA(loc)
	if _, err := io.WriteString(w, sentence); err != nil {
		return err
	}
	n.logger.Trace().Str("sentence", sentence).Msg("NMEA sentence written")
	return nil
}
