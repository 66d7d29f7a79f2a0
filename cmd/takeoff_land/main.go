// Command takeoff_land arms the vehicle, takes off, hovers for a while and
// lands again.
package main

import (
	"context"
	"io"
	"os"

	"github.com/benmeehan/drone-examples/internal/app"
	"github.com/benmeehan/drone-examples/internal/flight"
)

var program = app.Program{
	Name: "takeoff_land",
	Load: app.Static(func(ctx context.Context, runner *flight.Runner) error {
		return runner.TakeoffLand(ctx)
	}),
}

func run(args []string, stdout, stderr io.Writer) int {
	return app.Run(program, args, stdout, stderr)
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
