package location

import (
	"fmt"
	"math"
	"strings"

	"github.com/adrianmo/go-nmea"
)

// FormatGGA renders loc as a GPGGA sentence including checksum and CRLF.
// Satellite count and HDOP are not known from vehicle telemetry and are left
// empty.
func FormatGGA(loc Location) string {
	t := loc.Timestamp.UTC()
	lat, latDir := nmeaCoordinate(loc.Latitude, 2, nmea.North, nmea.South)
	lon, lonDir := nmeaCoordinate(loc.Longitude, 3, nmea.East, nmea.West)

	fields := []string{
		"GPGGA",
		fmt.Sprintf("%02d%02d%02d.%02d", t.Hour(), t.Minute(), t.Second(), t.Nanosecond()/1e7),
		lat, latDir,
		lon, lonDir,
		nmea.GPS,
		"",
		"",
		fmt.Sprintf("%.1f", loc.AltitudeM), "M",
		"", "M",
		"",
		"",
	}
	body := strings.Join(fields, ",")
	return fmt.Sprintf("$%s*%s\r\n", body, nmea.Checksum(body))
}

// nmeaCoordinate formats an angle as (d)ddmm.mmmmm with its hemisphere.
func nmeaCoordinate(v float64, degreeDigits int, positive, negative string) (string, string) {
	dir := positive
	if v < 0 {
		dir = negative
		v = -v
	}
	degrees := math.Floor(v)
	minutes := (v - degrees) * 60
	// Rounding may carry into the next degree.
	if math.Round(minutes*1e5) >= 60*1e5 {
		degrees++
		minutes = 0
	}
	return fmt.Sprintf("%0*d%08.5f", degreeDigits, int(degrees), minutes), dir
}
