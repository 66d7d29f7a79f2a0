package service_registry

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/benmeehan/drone-examples/internal/registry"
	"github.com/benmeehan/drone-examples/internal/services"
	"github.com/benmeehan/drone-examples/internal/utils"
	"github.com/benmeehan/drone-examples/pkg/location"
	"github.com/benmeehan/drone-examples/pkg/mqtt"
	"github.com/benmeehan/drone-examples/pkg/timeutil"
)

// ServiceRegistry manages the lifecycle of the ground services of a flight.
type ServiceRegistry struct {
	services    map[string]registry.Service // Stores registered services
	serviceKeys []string                    // Maintains order of service registration
	mqttClient  mqtt.MQTTClient
	openPort    services.PortOpener
	clock       timeutil.Clock
	Logger      zerolog.Logger
}

// NewServiceRegistry initializes a new service registry with dependencies.
// mqttClient may be nil when MQTT is disabled.
func NewServiceRegistry(mqttClient mqtt.MQTTClient, openPort services.PortOpener, clock timeutil.Clock,
	logger zerolog.Logger) *ServiceRegistry {
	return &ServiceRegistry{
		services:   make(map[string]registry.Service),
		mqttClient: mqttClient,
		openPort:   openPort,
		clock:      clock,
		Logger:     logger,
	}
}

// RegisterService adds a new service to the registry.
func (sr *ServiceRegistry) RegisterService(name string, svc registry.Service) {
	if _, exists := sr.services[name]; exists {
		sr.Logger.Warn().Msgf("Service %s is already registered", name)
		return
	}
	sr.services[name] = svc
	sr.serviceKeys = append(sr.serviceKeys, name)
	sr.Logger.Info().Msgf("Registered service: %s", name)
}

// Services returns the names of the registered services in start order.
func (sr *ServiceRegistry) Services() []string {
	return append([]string(nil), sr.serviceKeys...)
}

// StartServices initiates all registered services in order.
// If a service fails to start, it stops already started services.
func (sr *ServiceRegistry) StartServices() error {
	startedServices := []string{}

	for _, name := range sr.serviceKeys {
		svc := sr.services[name]
		sr.Logger.Info().Msgf("Starting service: %s", name)
		if err := svc.Start(); err != nil {
			sr.Logger.Error().Err(err).Msgf("Failed to start service: %s", name)

			// Stop already started services before returning
			sr.Logger.Warn().Msg("Stopping already started services due to startup failure...")
			for i := len(startedServices) - 1; i >= 0; i-- {
				_ = sr.services[startedServices[i]].Stop()
			}
			return fmt.Errorf("failed to start %s: %w", name, err)
		}
		startedServices = append(startedServices, name)
	}

	return nil
}

// StopServices stops all services in reverse order.
func (sr *ServiceRegistry) StopServices() error {
	var stopErrors []error
	for i := len(sr.serviceKeys) - 1; i >= 0; i-- {
		name := sr.serviceKeys[i]
		if err := sr.services[name].Stop(); err != nil {
			stopErrors = append(stopErrors, fmt.Errorf("failed to stop %s: %w", name, err))
		}
	}
	if len(stopErrors) > 0 {
		for _, e := range stopErrors {
			sr.Logger.Error().Err(e).Msg("Service stop failure")
		}
		return errors.Join(stopErrors...)
	}
	return nil
}

// RegisterServices initializes and registers enabled services based on configuration.
func (sr *ServiceRegistry) RegisterServices(config *utils.Config, provider location.Provider, flightID string, systemID uint8) error {
	// Ordered service definitions with inline constructors
	servicesInOrder := []struct {
		name        string
		enabled     bool
		constructor func() (registry.Service, error)
	}{
		{
			name:    "position_publisher",
			enabled: config.MQTT.Enabled,
			constructor: func() (registry.Service, error) {
				if sr.mqttClient == nil {
					return nil, errors.New("mqtt is enabled but no client is connected")
				}
				return services.NewPositionPublisherService(
					config.MQTT.Topic,
					config.MQTT.Interval,
					config.MQTT.QOS,
					flightID,
					systemID,
					sr.mqttClient,
					provider,
					sr.clock,
					sr.Logger,
				), nil
			},
		},
		{
			name:    "nmea_output",
			enabled: config.NMEA.Enabled,
			constructor: func() (registry.Service, error) {
				return services.NewNMEAOutputService(
					config.NMEA.Port,
					config.NMEA.BaudRate,
					config.NMEA.Interval,
					sr.openPort,
					provider,
					sr.clock,
					sr.Logger,
				), nil
			},
		},
	}

	// Register services in the predefined order
	registeredServices := []string{}
	for _, svc := range servicesInOrder {
		if svc.enabled {
			serviceInstance, err := svc.constructor()
			if err != nil {
				sr.Logger.Error().Err(err).Msgf("Failed to create %s service", svc.name)
				return err
			}
			sr.RegisterService(svc.name, serviceInstance)
			registeredServices = append(registeredServices, svc.name)
		}
	}

	sr.Logger.Info().Msgf("Registered services in order: %v", registeredServices)
	return nil
}
