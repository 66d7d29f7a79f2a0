package mavsdk

import (
	"testing"

	"github.com/bluenviron/gomavlib/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConnectionURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want gomavlib.EndpointConf
	}{
		{"udp default", "udp://", gomavlib.EndpointUDPServer{Address: "0.0.0.0:14540"}},
		{"udp port only", "udp://:14540", gomavlib.EndpointUDPServer{Address: "0.0.0.0:14540"}},
		{"udp host and port", "udp://127.0.0.1:14550", gomavlib.EndpointUDPServer{Address: "127.0.0.1:14550"}},
		{"udpin", "udpin://0.0.0.0:14541", gomavlib.EndpointUDPServer{Address: "0.0.0.0:14541"}},
		{"udpout", "udpout://192.168.1.12:14550", gomavlib.EndpointUDPClient{Address: "192.168.1.12:14550"}},
		{"tcp", "tcp://localhost:5760", gomavlib.EndpointTCPClient{Address: "localhost:5760"}},
		{"tcpout", "tcpout://10.0.0.2:5760", gomavlib.EndpointTCPClient{Address: "10.0.0.2:5760"}},
		{"tcpin", "tcpin://:5760", gomavlib.EndpointTCPServer{Address: "0.0.0.0:5760"}},
		{"serial default baud", "serial:///dev/ttyUSB0", gomavlib.EndpointSerial{Device: "/dev/ttyUSB0", Baud: 57600}},
		{"serial with baud", "serial:///dev/ttyACM0:921600", gomavlib.EndpointSerial{Device: "/dev/ttyACM0", Baud: 921600}},
		{"scheme is case insensitive", "UDP://:14540", gomavlib.EndpointUDPServer{Address: "0.0.0.0:14540"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseConnectionURL(tt.url)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseConnectionURL_Invalid(t *testing.T) {
	urls := []string{
		"",
		"localhost:14540",
		"http://localhost:14540",
		"udp://:notaport",
		"udp://:70000",
		"udpout://:14550",
		"udpout://host",
		"tcp://localhost",
		"serial://",
		"serial:///dev/ttyUSB0:fast",
	}

	for _, url := range urls {
		t.Run(url, func(t *testing.T) {
			_, err := ParseConnectionURL(url)
			require.Error(t, err)
			assert.Equal(t, ResultConnectionURLInvalid, ResultOf(err))
		})
	}
}
