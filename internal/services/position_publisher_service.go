package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/benmeehan/drone-examples/internal/models"
	"github.com/benmeehan/drone-examples/pkg/location"
	"github.com/benmeehan/drone-examples/pkg/mqtt"
	"github.com/benmeehan/drone-examples/pkg/timeutil"
)

// publishTimeout bounds how long a single publish may wait for the broker.
const publishTimeout = 5 * time.Second

// PositionPublisherService periodically publishes the vehicle position to an MQTT broker.
type PositionPublisherService struct {
	// Configuration fields
	topic    string
	interval time.Duration
	qos      int
	flightID string
	systemID uint8

	// Dependencies
	mqttClient       mqtt.MQTTClient
	locationProvider location.Provider
	clock            timeutil.Clock
	logger           zerolog.Logger

	// Internal state management
	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// NewPositionPublisherService creates a new PositionPublisherService instance with the provided configuration.
func NewPositionPublisherService(topic string, interval time.Duration, qos int, flightID string, systemID uint8,
	mqttClient mqtt.MQTTClient, locationProvider location.Provider, clock timeutil.Clock, logger zerolog.Logger) *PositionPublisherService {
	return &PositionPublisherService{
		topic:            topic,
		interval:         interval,
		qos:              qos,
		flightID:         flightID,
		systemID:         systemID,
		mqttClient:       mqttClient,
		locationProvider: locationProvider,
		clock:            clock,
		logger:           logger,
	}
}

// Start initiates the PositionPublisherService, publishing the position every interval.
func (p *PositionPublisherService) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		p.logger.Warn().Msg("PositionPublisherService is already running")
		return errors.New("position publisher service is already running")
	}

	p.ctx, p.cancel = context.WithCancel(context.Background())
	p.running = true

	// Create the ticker before returning so the first tick is never missed
	ticker := p.clock.NewTicker(p.interval)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C():
				if err := p.publishCurrentPosition(); err != nil {
					if errors.Is(err, location.ErrNoFix) {
						p.logger.Debug().Msg("No position fix yet, skipping publish")
						continue
					}
					p.logger.Error().
						Err(err).
						Msg("Failed to publish current position")
				}
			case <-p.ctx.Done():
				p.logger.Info().Msg("PositionPublisherService is stopping")
				return
			}
		}
	}()

	p.logger.Info().
		Str("topic", p.topic).
		Dur("interval_ms", p.interval).
		Int("qos", p.qos).
		Msg("PositionPublisherService started")
	return nil
}

// Stop gracefully stops the PositionPublisherService, ensuring all goroutines are terminated.
func (p *PositionPublisherService) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		p.logger.Warn().Msg("PositionPublisherService is not running")
		return errors.New("position publisher service is not running")
	}

	// Signal cancellation and wait for the goroutine to exit
	p.cancel()
	p.wg.Wait()

	p.running = false
	p.logger.Info().Msg("PositionPublisherService stopped")
	return nil
}

// publishCurrentPosition fetches the latest position and publishes it to the MQTT broker.
func (p *PositionPublisherService) publishCurrentPosition() error {
	loc, err := p.locationProvider.GetLocation()
	if err != nil {
		return err
	}

	message := models.Position{
		FlightID:          p.flightID,
		SystemID:          p.systemID,
		Timestamp:         loc.Timestamp,
		Latitude:          loc.Latitude,
		Longitude:         loc.Longitude,
		AbsoluteAltitudeM: loc.AltitudeM,
		RelativeAltitudeM: loc.RelativeAltitudeM,
	}

	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to serialize position message: %w", err)
	}

	token := p.mqttClient.Publish(p.topic, byte(p.qos), false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("timed out publishing to %s", p.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", p.topic, err)
	}

	p.logger.Debug().
		Interface("message", message).
		Str("topic", p.topic).
		Msg("Position published successfully")
	return nil
}
