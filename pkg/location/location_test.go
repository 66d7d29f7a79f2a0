package location

import (
	"strings"
	"testing"
	"time"

	"github.com/adrianmo/go-nmea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVehicleProvider(t *testing.T) {
	provider := NewVehicleProvider()

	_, err := provider.GetLocation()
	assert.ErrorIs(t, err, ErrNoFix)

	want := Location{Latitude: 47.3977, Longitude: 8.5456, AltitudeM: 488.1}
	provider.Update(want)

	got, err := provider.GetLocation()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestFormatGGA(t *testing.T) {
	loc := Location{
		Latitude:  47.398170327054473,
		Longitude: 8.5456490218639658,
		AltitudeM: 498.3,
		Timestamp: time.Date(2024, 5, 1, 12, 34, 56, 780000000, time.UTC),
	}

	sentence := FormatGGA(loc)

	assert.True(t, strings.HasPrefix(sentence, "$GPGGA,123456.78,4723.89022,N,00832.73894,E,1,"))
	assert.True(t, strings.HasSuffix(sentence, "\r\n"))

	parsed, err := nmea.Parse(strings.TrimSpace(sentence))
	require.NoError(t, err)
	gga, ok := parsed.(nmea.GGA)
	require.True(t, ok)
	assert.InDelta(t, loc.Latitude, gga.Latitude, 1e-6)
	assert.InDelta(t, loc.Longitude, gga.Longitude, 1e-6)
	assert.InDelta(t, 498.3, gga.Altitude, 1e-9)
	assert.Equal(t, nmea.GPS, gga.FixQuality)
}

func TestFormatGGA_SouthWest(t *testing.T) {
	loc := Location{
		Latitude:  -33.8568,
		Longitude: -151.2153,
		Timestamp: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	}

	parsed, err := nmea.Parse(strings.TrimSpace(FormatGGA(loc)))
	require.NoError(t, err)
	gga := parsed.(nmea.GGA)
	assert.InDelta(t, -33.8568, gga.Latitude, 1e-6)
	assert.InDelta(t, -151.2153, gga.Longitude, 1e-6)
}
