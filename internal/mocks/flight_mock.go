package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/benmeehan/drone-examples/pkg/mavsdk"
)

// MockTelemetry is a mock implementation of the flight.Telemetry interface
type MockTelemetry struct {
	mock.Mock
}

func (m *MockTelemetry) SetRatePosition(ctx context.Context, hz float64) error {
	args := m.Called(ctx, hz)
	return args.Error(0)
}

func (m *MockTelemetry) SubscribePosition(cb func(mavsdk.Position)) {
	m.Called(cb)
}

func (m *MockTelemetry) HealthAllOk() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockTelemetry) InAir() bool {
	args := m.Called()
	return args.Bool(0)
}

// MockAction is a mock implementation of the flight.Action interface
type MockAction struct {
	mock.Mock
}

func (m *MockAction) Arm(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockAction) Takeoff(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockAction) Land(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockAction) ReturnToLaunch(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockOffboard is a mock implementation of the flight.Offboard interface
type MockOffboard struct {
	mock.Mock
}

func (m *MockOffboard) SetVelocityBody(v mavsdk.VelocityBodyYawspeed) error {
	args := m.Called(v)
	return args.Error(0)
}

func (m *MockOffboard) Start(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockOffboard) Stop(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockOffboard) Close() {
	m.Called()
}

// MockMission is a mock implementation of the flight.Mission interface.
// The async methods take the result to deliver; use Resolved to build it.
type MockMission struct {
	mock.Mock
}

func (m *MockMission) UploadMissionAsync(ctx context.Context, plan mavsdk.MissionPlan) <-chan error {
	args := m.Called(ctx, plan)
	return Resolved(args.Error(0))
}

func (m *MockMission) StartMissionAsync(ctx context.Context) <-chan error {
	args := m.Called(ctx)
	return Resolved(args.Error(0))
}

func (m *MockMission) SubscribeMissionProgress(cb func(mavsdk.MissionProgress)) {
	m.Called(cb)
}

func (m *MockMission) IsMissionFinished() (bool, error) {
	args := m.Called()
	return args.Bool(0), args.Error(1)
}

// Resolved returns a channel that already holds err.
func Resolved(err error) <-chan error {
	ch := make(chan error, 1)
	ch <- err
	return ch
}
