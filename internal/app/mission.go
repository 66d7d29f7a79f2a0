package app

import (
	"fmt"

	"github.com/benmeehan/drone-examples/internal/models"
	"github.com/benmeehan/drone-examples/pkg/file"
	"github.com/benmeehan/drone-examples/pkg/mavsdk"
)

// LoadMissionPlan reads the mission plan at path, or returns the built-in
// demonstration plan when path is empty.
func LoadMissionPlan(path string, fileClient file.FileOperations) (mavsdk.MissionPlan, error) {
	plan := models.DefaultMissionPlan()
	if path != "" {
		exists, err := fileClient.IsFileExists(path)
		if err != nil {
			return mavsdk.MissionPlan{}, fmt.Errorf("failed to check mission plan %s: %w", path, err)
		}
		if !exists {
			return mavsdk.MissionPlan{}, fmt.Errorf("mission plan %s does not exist", path)
		}

		plan = models.MissionPlan{}
		if err := fileClient.ReadYamlFile(path, &plan); err != nil {
			return mavsdk.MissionPlan{}, fmt.Errorf("failed to read mission plan %s: %w", path, err)
		}
	}

	sdkPlan, err := plan.ToSDK()
	if err != nil {
		return mavsdk.MissionPlan{}, fmt.Errorf("invalid mission plan %s: %w", path, err)
	}
	return sdkPlan, nil
}
