// Command rotate_vehicle takes off and flies a scripted sequence of body
// frame velocity setpoints in offboard mode before landing.
package main

import (
	"context"
	"io"
	"os"

	"github.com/benmeehan/drone-examples/internal/app"
	"github.com/benmeehan/drone-examples/internal/flight"
)

var program = app.Program{
	Name: "rotate_vehicle",
	Load: app.Static(func(ctx context.Context, runner *flight.Runner) error {
		return runner.RotateVehicle(ctx)
	}),
}

func run(args []string, stdout, stderr io.Writer) int {
	return app.Run(program, args, stdout, stderr)
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
