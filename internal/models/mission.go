package models

import (
	"fmt"
	"math"

	"github.com/benmeehan/drone-examples/pkg/mavsdk"
)

// MissionPlan is the on-disk form of a mission.
type MissionPlan struct {
	Items []MissionItem `yaml:"items"`
}

// MissionItem is one waypoint of a MissionPlan. Optional fields left out of
// the file are left to the vehicle's defaults.
type MissionItem struct {
	Latitude          float64  `yaml:"latitude"`
	Longitude         float64  `yaml:"longitude"`
	RelativeAltitudeM float32  `yaml:"relative_altitude_m"`
	SpeedMS           *float32 `yaml:"speed_m_s,omitempty"`
	FlyThrough        bool     `yaml:"fly_through"`
	GimbalPitchDeg    *float32 `yaml:"gimbal_pitch_deg,omitempty"`
	GimbalYawDeg      *float32 `yaml:"gimbal_yaw_deg,omitempty"`
	CameraAction      string   `yaml:"camera_action,omitempty"` // take_photo, start_video, ...
	PhotoIntervalS    *float32 `yaml:"photo_interval_s,omitempty"`
	AcceptanceRadiusM *float32 `yaml:"acceptance_radius_m,omitempty"`
}

// DefaultMissionPlan returns the two-waypoint demonstration mission.
func DefaultMissionPlan() MissionPlan {
	f := func(v float32) *float32 { return &v }
	return MissionPlan{Items: []MissionItem{
		{
			Latitude:          47.398170327054473,
			Longitude:         8.5456490218639658,
			RelativeAltitudeM: 10,
			SpeedMS:           f(5),
			FlyThrough:        false,
			GimbalPitchDeg:    f(20),
			GimbalYawDeg:      f(60),
			CameraAction:      mavsdk.CameraActionTakePhoto.String(),
		},
		{
			Latitude:          47.398139363821485,
			Longitude:         8.5453846156597137,
			RelativeAltitudeM: 10,
			SpeedMS:           f(5),
			FlyThrough:        true,
			GimbalPitchDeg:    f(-45),
			GimbalYawDeg:      f(0),
			CameraAction:      mavsdk.CameraActionStartVideo.String(),
		},
	}}
}

// ToSDK converts the plan into the SDK's mission plan.
func (p MissionPlan) ToSDK() (mavsdk.MissionPlan, error) {
	if len(p.Items) == 0 {
		return mavsdk.MissionPlan{}, fmt.Errorf("mission plan has no items")
	}

	plan := mavsdk.MissionPlan{MissionItems: make([]mavsdk.MissionItem, 0, len(p.Items))}
	for i, it := range p.Items {
		if math.Abs(it.Latitude) > 90 || math.Abs(it.Longitude) > 180 {
			return mavsdk.MissionPlan{}, fmt.Errorf("mission item %d: coordinates out of range", i)
		}

		item := mavsdk.NewMissionItem(it.Latitude, it.Longitude, it.RelativeAltitudeM)
		item.IsFlyThrough = it.FlyThrough
		setIfPresent(&item.SpeedMS, it.SpeedMS)
		setIfPresent(&item.GimbalPitchDeg, it.GimbalPitchDeg)
		setIfPresent(&item.GimbalYawDeg, it.GimbalYawDeg)
		setIfPresent(&item.CameraPhotoIntervalS, it.PhotoIntervalS)
		setIfPresent(&item.AcceptanceRadiusM, it.AcceptanceRadiusM)

		if it.CameraAction != "" {
			action, ok := mavsdk.ParseCameraAction(it.CameraAction)
			if !ok {
				return mavsdk.MissionPlan{}, fmt.Errorf("mission item %d: unknown camera action %q", i, it.CameraAction)
			}
			item.CameraAction = action
		}

		plan.MissionItems = append(plan.MissionItems, item)
	}
	return plan, nil
}

func setIfPresent(dst *float32, v *float32) {
	if v != nil {
		*dst = *v
	}
}
