package flight

import (
	"context"

	"github.com/benmeehan/drone-examples/pkg/mavsdk"
)

// Telemetry is the part of the telemetry plugin the procedures read.
type Telemetry interface {
	SetRatePosition(ctx context.Context, hz float64) error
	SubscribePosition(cb func(mavsdk.Position))
	HealthAllOk() bool
	InAir() bool
}

// Action is the part of the action plugin the procedures command.
type Action interface {
	Arm(ctx context.Context) error
	Takeoff(ctx context.Context) error
	Land(ctx context.Context) error
	ReturnToLaunch(ctx context.Context) error
}

// Offboard is the part of the offboard plugin used for velocity control.
type Offboard interface {
	SetVelocityBody(v mavsdk.VelocityBodyYawspeed) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Close()
}

// Mission is the part of the mission plugin used by fly_mission.
type Mission interface {
	UploadMissionAsync(ctx context.Context, plan mavsdk.MissionPlan) <-chan error
	StartMissionAsync(ctx context.Context) <-chan error
	SubscribeMissionProgress(cb func(mavsdk.MissionProgress))
	IsMissionFinished() (bool, error)
}

// Vehicle bundles the plugins of one connected system. Procedures that do
// not need a plugin leave it nil.
type Vehicle struct {
	Telemetry Telemetry
	Action    Action
	Offboard  Offboard
	Mission   Mission
}

// NewVehicle creates every plugin for system.
func NewVehicle(system *mavsdk.System) Vehicle {
	return Vehicle{
		Telemetry: mavsdk.NewTelemetry(system),
		Action:    mavsdk.NewAction(system),
		Offboard:  mavsdk.NewOffboard(system),
		Mission:   mavsdk.NewMission(system),
	}
}
