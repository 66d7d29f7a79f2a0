package flight

import (
	"context"
	"fmt"
	"time"

	"github.com/benmeehan/drone-examples/internal/constants"
	"github.com/benmeehan/drone-examples/pkg/mavsdk"
)

// OffboardStep holds a body velocity setpoint for a fixed time.
type OffboardStep struct {
	Message  string
	Setpoint mavsdk.VelocityBodyYawspeed
	Duration time.Duration
}

// DefaultOffboardScript climbs while turning both ways, then flies a circle
// forward and a circle sideways, pausing in between.
func DefaultOffboardScript() []OffboardStep {
	stay := mavsdk.VelocityBodyYawspeed{}
	climbCW := mavsdk.VelocityBodyYawspeed{DownMS: -1, YawspeedDegS: 60}
	climbCCW := mavsdk.VelocityBodyYawspeed{DownMS: -1, YawspeedDegS: -60}
	circle := mavsdk.VelocityBodyYawspeed{ForwardMS: 5, YawspeedDegS: 30}
	circleSideways := mavsdk.VelocityBodyYawspeed{ForwardMS: 5, RightMS: -5, YawspeedDegS: 30}

	return []OffboardStep{
		{"Turn clock-wise and climb", climbCW, 5 * time.Second},
		{"Turn back anti-clockwise", climbCCW, 5 * time.Second},
		{"Turn back anti-clockwise", climbCCW, 5 * time.Second},
		{"Wait for a bit", stay, 2 * time.Second},
		{"Fly a circle", circle, 15 * time.Second},
		{"Wait for a bit", stay, 5 * time.Second},
		{"Fly a circle sideways", circleSideways, 15 * time.Second},
		{"Wait for a bit", stay, 8 * time.Second},
	}
}

// flyOffboardBody runs the offboard script in body frame. A zero setpoint
// is sent before starting since offboard mode is rejected without one.
// The setpoint stream is closed on every return before a successful Stop.
func (r *Runner) flyOffboardBody(ctx context.Context) error {
	offboard := r.vehicle.Offboard
	logger := r.logger.With().Str("offboard_mode", constants.OffboardModeBody).Logger()
	prefix := "[" + constants.OffboardModeBody + "] "

	stopped := false
	defer func() {
		if !stopped {
			offboard.Close()
		}
	}()

	if err := offboard.SetVelocityBody(mavsdk.VelocityBodyYawspeed{}); err != nil {
		return fmt.Errorf("offboard setpoint failed: %w", err)
	}
	if err := offboard.Start(ctx); err != nil {
		return fmt.Errorf("offboard start failed: %w", err)
	}
	logger.Info().Msg(prefix + "Offboard started")

	for _, step := range r.params.OffboardScript {
		logger.Info().Msg(prefix + step.Message)
		if err := offboard.SetVelocityBody(step.Setpoint); err != nil {
			return fmt.Errorf("offboard setpoint failed: %w", err)
		}
		if err := r.sleep(ctx, step.Duration); err != nil {
			return err
		}
	}

	if err := offboard.Stop(ctx); err != nil {
		return fmt.Errorf("offboard stop failed: %w", err)
	}
	stopped = true
	logger.Info().Msg(prefix + "Offboard stopped")
	return nil
}
