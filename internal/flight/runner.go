// Package flight holds the scripted flight procedures. Each procedure runs
// its steps in order and returns on the first failure without attempting
// anything after it.
package flight

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/benmeehan/drone-examples/internal/constants"
	"github.com/benmeehan/drone-examples/pkg/mavsdk"
	"github.com/benmeehan/drone-examples/pkg/timeutil"
)

// Params holds the timings of the procedures.
type Params struct {
	PositionRateHz       float64
	PollInterval         time.Duration
	TakeoffHoverDuration time.Duration
	PreLandHoverDuration time.Duration
	FinishDelay          time.Duration
	OffboardScript       []OffboardStep
}

// DefaultParams returns the canned timings of the demonstration programs.
func DefaultParams() Params {
	return Params{
		PositionRateHz:       constants.PositionRateHz,
		PollInterval:         constants.PollInterval,
		TakeoffHoverDuration: constants.TakeoffHoverDuration,
		PreLandHoverDuration: constants.PreLandHoverDuration,
		FinishDelay:          constants.FinishDelay,
		OffboardScript:       DefaultOffboardScript(),
	}
}

// Runner executes flight procedures against one vehicle.
type Runner struct {
	vehicle Vehicle
	params  Params
	clock   timeutil.Clock
	logger  zerolog.Logger
}

// NewRunner creates a Runner.
func NewRunner(vehicle Vehicle, params Params, clock timeutil.Clock, logger zerolog.Logger) *Runner {
	return &Runner{
		vehicle: vehicle,
		params:  params,
		clock:   clock,
		logger:  logger,
	}
}

// TakeoffLand arms, takes off, hovers and lands.
func (r *Runner) TakeoffLand(ctx context.Context) error {
	if err := r.prepare(ctx); err != nil {
		return err
	}
	if err := r.armAndTakeoff(ctx); err != nil {
		return err
	}

	if err := r.sleep(ctx, r.params.TakeoffHoverDuration); err != nil {
		return err
	}

	return r.landAndFinish(ctx)
}

// RotateVehicle arms, takes off, flies the offboard velocity script and lands.
func (r *Runner) RotateVehicle(ctx context.Context) error {
	if err := r.prepare(ctx); err != nil {
		return err
	}
	if err := r.armAndTakeoff(ctx); err != nil {
		return err
	}
	if err := r.flyOffboardBody(ctx); err != nil {
		return err
	}

	// Let it hover for a bit before landing again.
	if err := r.sleep(ctx, r.params.PreLandHoverDuration); err != nil {
		return err
	}

	return r.landAndFinish(ctx)
}

// FlyMission uploads plan, arms, flies it and returns to launch.
func (r *Runner) FlyMission(ctx context.Context, plan mavsdk.MissionPlan) error {
	if err := r.prepare(ctx); err != nil {
		return err
	}

	r.logger.Info().Msg("System ready")
	r.logger.Info().Msg("Creating and uploading mission")
	r.logger.Info().Int("items", len(plan.MissionItems)).Msg("Uploading mission...")
	if err := r.await(ctx, r.vehicle.Mission.UploadMissionAsync(ctx, plan)); err != nil {
		return fmt.Errorf("mission upload failed: %w", err)
	}
	r.logger.Info().Msg("Mission uploaded.")

	r.logger.Info().Msg("Arming...")
	if err := r.vehicle.Action.Arm(ctx); err != nil {
		return fmt.Errorf("arming failed: %w", err)
	}
	r.logger.Info().Msg("Armed.")

	r.vehicle.Mission.SubscribeMissionProgress(func(p mavsdk.MissionProgress) {
		r.logger.Info().
			Int("current", p.Current).
			Int("total", p.Total).
			Msgf("Mission status update: %d / %d", p.Current, p.Total)
	})

	r.logger.Info().Msg("Starting mission.")
	if err := r.await(ctx, r.vehicle.Mission.StartMissionAsync(ctx)); err != nil {
		return fmt.Errorf("mission start failed: %w", err)
	}
	r.logger.Info().Msg("Started mission.")

	for {
		finished, err := r.vehicle.Mission.IsMissionFinished()
		if err != nil {
			return fmt.Errorf("mission progress unavailable: %w", err)
		}
		if finished {
			break
		}
		r.logger.Info().Msg("Not finished mission.")
		if err := r.sleep(ctx, r.params.PollInterval); err != nil {
			return err
		}
	}

	r.logger.Info().Msg("Commanding RTL...")
	if err := r.vehicle.Action.ReturnToLaunch(ctx); err != nil {
		return fmt.Errorf("failed to command RTL: %w", err)
	}
	r.logger.Info().Msg("Commanded RTL.")

	return r.waitLandedAndFinish(ctx)
}

// prepare sets the position rate, prints altitude updates and waits until
// the vehicle passes its pre-arm checks.
func (r *Runner) prepare(ctx context.Context) error {
	telemetry := r.vehicle.Telemetry

	if err := telemetry.SetRatePosition(ctx, r.params.PositionRateHz); err != nil {
		return fmt.Errorf("setting rate failed: %w", err)
	}

	telemetry.SubscribePosition(func(p mavsdk.Position) {
		r.logger.Info().
			Float32("relative_altitude_m", p.RelativeAltitudeM).
			Msgf("Altitude: %g m", p.RelativeAltitudeM)
	})

	for !telemetry.HealthAllOk() {
		r.logger.Info().Msg("Vehicle is getting ready to arm")
		if err := r.sleep(ctx, r.params.PollInterval); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) armAndTakeoff(ctx context.Context) error {
	r.logger.Info().Msg("Arming...")
	if err := r.vehicle.Action.Arm(ctx); err != nil {
		return fmt.Errorf("arming failed: %w", err)
	}

	r.logger.Info().Msg("Taking off...")
	if err := r.vehicle.Action.Takeoff(ctx); err != nil {
		return fmt.Errorf("takeoff failed: %w", err)
	}
	return nil
}

func (r *Runner) landAndFinish(ctx context.Context) error {
	r.logger.Info().Msg("Landing...")
	if err := r.vehicle.Action.Land(ctx); err != nil {
		return fmt.Errorf("land failed: %w", err)
	}
	return r.waitLandedAndFinish(ctx)
}

func (r *Runner) waitLandedAndFinish(ctx context.Context) error {
	for r.vehicle.Telemetry.InAir() {
		r.logger.Info().Msg("Vehicle is landing...")
		if err := r.sleep(ctx, r.params.PollInterval); err != nil {
			return err
		}
	}
	r.logger.Info().Msg("Landed!")

	// Keep receiving telemetry for a moment after touchdown.
	if err := r.sleep(ctx, r.params.FinishDelay); err != nil {
		return err
	}
	r.logger.Info().Msg("Finished...")
	return nil
}

func (r *Runner) sleep(ctx context.Context, d time.Duration) error {
	if err := timeutil.SleepContext(ctx, r.clock, d); err != nil {
		return fmt.Errorf("interrupted: %w", err)
	}
	return nil
}

// await blocks until an async SDK request reports its result.
func (r *Runner) await(ctx context.Context, result <-chan error) error {
	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return fmt.Errorf("interrupted: %w", ctx.Err())
	}
}
