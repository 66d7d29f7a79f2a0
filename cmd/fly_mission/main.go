// Command fly_mission uploads a mission, flies it and returns to launch.
// The mission comes from mission.plan_file or, if unset, is the built-in
// two-waypoint plan.
package main

import (
	"context"
	"io"
	"os"

	"github.com/benmeehan/drone-examples/internal/app"
	"github.com/benmeehan/drone-examples/internal/flight"
	"github.com/benmeehan/drone-examples/internal/utils"
	"github.com/benmeehan/drone-examples/pkg/file"
)

var program = app.Program{
	Name: "fly_mission",
	Load: func(config *utils.Config, fileClient file.FileOperations) (app.Procedure, error) {
		plan, err := app.LoadMissionPlan(config.Mission.PlanFile, fileClient)
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, runner *flight.Runner) error {
			return runner.FlyMission(ctx, plan)
		}, nil
	},
}

func run(args []string, stdout, stderr io.Writer) int {
	return app.Run(program, args, stdout, stderr)
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
