// Package app wires a flight program together: command line, configuration,
// logging, the MAVLink connection, system discovery and the optional ground
// services around the scripted procedure.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/benmeehan/drone-examples/internal/flight"
	"github.com/benmeehan/drone-examples/internal/service_registry"
	"github.com/benmeehan/drone-examples/internal/services"
	"github.com/benmeehan/drone-examples/internal/utils"
	"github.com/benmeehan/drone-examples/pkg/file"
	"github.com/benmeehan/drone-examples/pkg/location"
	"github.com/benmeehan/drone-examples/pkg/mavsdk"
	"github.com/benmeehan/drone-examples/pkg/mqtt"
	"github.com/benmeehan/drone-examples/pkg/timeutil"
)

// mqttQuiesceMs is how long the MQTT client may finish in-flight work on disconnect.
const mqttQuiesceMs = 250

// Procedure is the scripted part of a flight program.
type Procedure func(ctx context.Context, runner *flight.Runner) error

// Program describes one flight program.
type Program struct {
	Name string

	// Load builds the procedure from the configuration. It runs before the
	// connection is opened so bad input fails without touching the vehicle.
	Load func(config *utils.Config, fileClient file.FileOperations) (Procedure, error)
}

// Static returns a Load function for a procedure that needs no configuration.
func Static(p Procedure) func(*utils.Config, file.FileOperations) (Procedure, error) {
	return func(*utils.Config, file.FileOperations) (Procedure, error) {
		return p, nil
	}
}

// Run executes program with the given command line and returns the process
// exit code: 0 on completion, 1 on any failure.
func Run(program Program, args []string, stdout, stderr io.Writer) int {
	parsed, err := ParseArgs(program.Name, args, stderr)
	if err != nil {
		return 1
	}

	fileClient := file.NewFileService()
	config := utils.DefaultConfig()
	if parsed.ConfigFile != "" {
		config, err = utils.LoadConfig(parsed.ConfigFile, fileClient)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
	}

	flightID := uuid.NewString()
	logger, err := utils.NewLogger(config.Log, stdout, flightID)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	procedure, err := program.Load(config, fileClient)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to prepare flight")
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	f := &flightSession{
		config:     config,
		fileClient: fileClient,
		flightID:   flightID,
		clock:      timeutil.RealClock{},
		logger:     logger,
	}
	if err := f.fly(ctx, parsed.ConnectionURL, procedure); err != nil {
		logger.Error().
			Err(err).
			Str("result", mavsdk.ResultOf(err).String()).
			Msg("Flight failed")
		return 1
	}
	return 0
}

type flightSession struct {
	config     *utils.Config
	fileClient file.FileOperations
	flightID   string
	clock      timeutil.Clock
	logger     zerolog.Logger
}

func (f *flightSession) fly(ctx context.Context, url string, procedure Procedure) error {
	sdk := mavsdk.New(f.config.SDKConfiguration(), f.logger)
	defer sdk.Close()

	if err := sdk.AddAnyConnection(url); err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}

	system, err := discoverSystem(ctx, sdk, f.config.Connection.DiscoveryTimeout, f.clock, f.logger)
	if err != nil {
		return err
	}

	// Components such as cameras and gimbals show up after the autopilot.
	system.RegisterComponentDiscoveredCallback(func(componentType mavsdk.ComponentType) {
		f.logger.Info().
			Str("component", componentType.String()).
			Msgf("Discovered a component with type %d", int(componentType))
	})

	if f.config.Firmware.MinVersion != "" {
		if err := checkFirmware(ctx, mavsdk.NewInfo(system), f.config.Firmware.MinVersion, f.logger); err != nil {
			return err
		}
	}

	vehicle := flight.NewVehicle(system)
	provider := location.NewVehicleProvider()
	vehicle.Telemetry.SubscribePosition(feedProvider(provider, f.clock))

	stopServices, err := f.startGroundServices(provider, system.SystemID())
	if err != nil {
		return err
	}
	defer stopServices()

	params := flight.DefaultParams()
	params.PositionRateHz = f.config.Telemetry.PositionRateHz
	runner := flight.NewRunner(vehicle, params, f.clock, f.logger)

	return procedure(ctx, runner)
}

// discoverSystem waits up to timeout for the first vehicle heartbeat.
func discoverSystem(ctx context.Context, sdk *mavsdk.Mavsdk, timeout time.Duration, clock timeutil.Clock,
	logger zerolog.Logger) (*mavsdk.System, error) {
	logger.Info().Msg("Waiting to discover system...")

	found := make(chan struct{}, 1)
	sdk.SubscribeOnNewSystem(func() {
		select {
		case found <- struct{}{}:
		default:
		}
	})

	if len(sdk.Systems()) == 0 {
		select {
		case <-found:
		case <-clock.After(timeout):
		case <-ctx.Done():
			return nil, &mavsdk.Error{Op: "discover system", Result: mavsdk.ResultCancelled, Err: ctx.Err()}
		}
	}

	systems := sdk.Systems()
	if len(systems) == 0 || !systems[0].IsConnected() {
		logger.Info().Msg("No system found, exiting.")
		return nil, &mavsdk.Error{Op: "discover system", Result: mavsdk.ResultNoSystem}
	}

	logger.Info().Uint8("system_id", systems[0].SystemID()).Msg("Discovered system")
	return systems[0], nil
}

type versionReader interface {
	FlightSoftwareVersion(ctx context.Context) (*semver.Version, error)
}

// checkFirmware refuses to fly when the autopilot version does not satisfy
// the constraint.
func checkFirmware(ctx context.Context, info versionReader, constraint string, logger zerolog.Logger) error {
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return fmt.Errorf("invalid firmware constraint %q: %w", constraint, err)
	}

	version, err := info.FlightSoftwareVersion(ctx)
	if err != nil {
		return fmt.Errorf("reading flight software version failed: %w", err)
	}
	logger.Info().Str("version", version.String()).Msg("Flight software version")

	if ok, reasons := c.Validate(version); !ok {
		return fmt.Errorf("flight software %s does not satisfy %q: %w", version, constraint, errors.Join(reasons...))
	}
	return nil
}

// feedProvider returns a position callback that keeps provider current.
func feedProvider(provider *location.VehicleProvider, clock timeutil.Clock) func(mavsdk.Position) {
	return func(p mavsdk.Position) {
		provider.Update(location.Location{
			Latitude:          p.LatitudeDeg,
			Longitude:         p.LongitudeDeg,
			AltitudeM:         float64(p.AbsoluteAltitudeM),
			RelativeAltitudeM: float64(p.RelativeAltitudeM),
			Timestamp:         clock.Now(),
		})
	}
}

// startGroundServices connects to MQTT if needed and starts the enabled
// services. The returned function stops them again.
func (f *flightSession) startGroundServices(provider location.Provider, systemID uint8) (func(), error) {
	if !f.config.MQTT.Enabled && !f.config.NMEA.Enabled {
		return func() {}, nil
	}

	var mqttClient mqtt.MQTTClient
	var mqttService *mqtt.MqttService
	if f.config.MQTT.Enabled {
		mqttService = mqtt.NewMqttService(f.fileClient)
		clientID := f.config.MQTT.ClientID + "-" + f.flightID
		if err := mqttService.Initialize(f.config.MQTT.Broker, clientID, f.config.MQTT.CACertificate); err != nil {
			return nil, fmt.Errorf("mqtt initialization failed: %w", err)
		}
		f.logger.Info().Str("client_id", clientID).Msg("Connected to MQTT broker")
		mqttClient = mqttService
	}

	disconnect := func() {
		if mqttService != nil {
			mqttService.Disconnect(mqttQuiesceMs)
		}
	}

	serviceRegistry := service_registry.NewServiceRegistry(mqttClient, services.OpenSerialPort, f.clock, f.logger)
	if err := serviceRegistry.RegisterServices(f.config, provider, f.flightID, systemID); err != nil {
		disconnect()
		return nil, err
	}
	if err := serviceRegistry.StartServices(); err != nil {
		disconnect()
		return nil, err
	}

	return func() {
		if err := serviceRegistry.StopServices(); err != nil {
			f.logger.Warn().Err(err).Msg("Ground services did not stop cleanly")
		}
		disconnect()
	}, nil
}
