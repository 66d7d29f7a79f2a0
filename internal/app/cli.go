package app

import (
	"errors"
	"flag"
	"fmt"
	"io"
)

// ErrUsage is returned when the command line is not "[flags] <connection_url>".
var ErrUsage = errors.New("invalid arguments")

// Args holds the parsed command line of a flight program.
type Args struct {
	ConfigFile    string
	ConnectionURL string
}

// ParseArgs parses args, which must hold exactly one positional argument.
// The usage message is written to stderr on failure.
func ParseArgs(program string, args []string, stderr io.Writer) (Args, error) {
	var parsed Args

	fs := flag.NewFlagSet(program, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&parsed.ConfigFile, "config", "", "path to a YAML configuration file")
	fs.Usage = func() { printUsage(stderr, program, fs) }

	if err := fs.Parse(args); err != nil {
		return Args{}, ErrUsage
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return Args{}, ErrUsage
	}

	parsed.ConnectionURL = fs.Arg(0)
	return parsed, nil
}

func printUsage(w io.Writer, program string, fs *flag.FlagSet) {
	fmt.Fprintf(w, "Usage: %s [-config file] <connection_url>\n", program)
	fmt.Fprintln(w, "Connection URL format should be:")
	fmt.Fprintln(w, "  For TCP: tcp://[server_host][:server_port]")
	fmt.Fprintln(w, "  For UDP: udp://[bind_host][:bind_port]")
	fmt.Fprintln(w, "  For Serial: serial:///path/to/serial/dev[:baudrate]")
	fmt.Fprintln(w, "For example, to connect to the simulator use URL: udp://:14540")
	fmt.Fprintln(w, "Flags:")
	fs.PrintDefaults()
}
