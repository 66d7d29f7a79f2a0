package mavsdk

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/bluenviron/gomavlib/v3"
)

const (
	defaultUDPPort    = 14540
	defaultSerialBaud = 57600
)

// ParseConnectionURL turns a connection URL into a gomavlib endpoint.
//
// Supported forms:
//
//	udp://[host][:port]      listen for UDP (same as udpin://)
//	udpin://[host][:port]
//	udpout://host:port       send UDP to a remote
//	tcp://host:port          connect to a TCP server (same as tcpout://)
//	tcpin://[host]:port      accept TCP connections
//	serial://device[:baud]   serial port, e.g. serial:///dev/ttyUSB0:57600
func ParseConnectionURL(url string) (gomavlib.EndpointConf, error) {
	scheme, rest, ok := strings.Cut(url, "://")
	if !ok {
		return nil, invalidURL(url, errors.New("missing scheme"))
	}

	switch strings.ToLower(scheme) {
	case "udp", "udpin":
		addr, err := hostPort(rest, "0.0.0.0", false)
		if err != nil {
			return nil, invalidURL(url, err)
		}
		return gomavlib.EndpointUDPServer{Address: addr}, nil

	case "udpout":
		addr, err := hostPort(rest, "", true)
		if err != nil {
			return nil, invalidURL(url, err)
		}
		return gomavlib.EndpointUDPClient{Address: addr}, nil

	case "tcp", "tcpout":
		addr, err := hostPort(rest, "", true)
		if err != nil {
			return nil, invalidURL(url, err)
		}
		return gomavlib.EndpointTCPClient{Address: addr}, nil

	case "tcpin":
		addr, err := hostPort(rest, "0.0.0.0", true)
		if err != nil {
			return nil, invalidURL(url, err)
		}
		return gomavlib.EndpointTCPServer{Address: addr}, nil

	case "serial", "serial_flowcontrol":
		device, baud, err := serialDevice(rest)
		if err != nil {
			return nil, invalidURL(url, err)
		}
		return gomavlib.EndpointSerial{Device: device, Baud: baud}, nil

	default:
		return nil, invalidURL(url, fmt.Errorf("unsupported scheme %q", scheme))
	}
}

func invalidURL(url string, err error) error {
	return &Error{Op: fmt.Sprintf("parse connection url %q", url), Result: ResultConnectionURLInvalid, Err: err}
}

// hostPort normalises "host:port", ":port", "host" and "" into host:port.
// An empty host is replaced by defaultHost, or rejected when defaultHost is
// empty. A missing port falls back to the default UDP port unless requirePort.
func hostPort(s, defaultHost string, requirePort bool) (string, error) {
	host, port := s, ""
	if strings.Contains(s, ":") {
		var err error
		host, port, err = net.SplitHostPort(s)
		if err != nil {
			return "", err
		}
	}

	if host == "" {
		if defaultHost == "" {
			return "", errors.New("host is required")
		}
		host = defaultHost
	}

	if port == "" {
		if requirePort {
			return "", errors.New("port is required")
		}
		port = strconv.Itoa(defaultUDPPort)
	}
	n, err := strconv.Atoi(port)
	if err != nil || n <= 0 || n > 65535 {
		return "", fmt.Errorf("invalid port %q", port)
	}

	return net.JoinHostPort(host, port), nil
}

func serialDevice(s string) (string, int, error) {
	device, baud := s, defaultSerialBaud
	if i := strings.LastIndex(s, ":"); i >= 0 {
		n, err := strconv.Atoi(s[i+1:])
		if err != nil || n <= 0 {
			return "", 0, fmt.Errorf("invalid baud rate %q", s[i+1:])
		}
		device, baud = s[:i], n
	}
	if device == "" {
		return "", 0, errors.New("serial device is required")
	}
	return device, baud, nil
}
