// Package hum infers the local electrical mains frequency from the
// system timezone, so tonal noise in nominally silent audio can be
// attributed to 50/60 Hz hum in diagnostics.
package hum

import (
	"strings"

	tz "github.com/medama-io/go-timezone-country"
	"github.com/thlib/go-timezone-local/tzlocal"
)

// Frequency returns the local mains frequency in Hz (50 or 60).
// Falls back to 50 Hz whenever detection fails.
func Frequency() int {
	timezone, err := tzlocal.RuntimeTZ()
	if err != nil {
		return 50
	}
	return FrequencyForTimezone(timezone)
}

// FrequencyForTimezone returns the mains frequency for an IANA timezone.
func FrequencyForTimezone(timezone string) int {
	if timezone == "UTC" || timezone == "GMT" || strings.HasPrefix(timezone, "Etc/") {
		return 50
	}
	tzMap, err := tz.NewTimezoneCountryMap()
	if err != nil {
		return 50
	}
	country, err := tzMap.GetCountry(timezone)
	if err != nil {
		return 50
	}
	if sixtyHzCountries[country] {
		return 60
	}
	return 50
}

// sixtyHzCountries lists countries on 60 Hz mains; everywhere else is
// treated as 50 Hz, which is the more common grid frequency.
var sixtyHzCountries = map[string]bool{
	"United States":      true,
	"Canada":             true,
	"Mexico":             true,
	"Belize":             true,
	"Costa Rica":         true,
	"El Salvador":        true,
	"Guatemala":          true,
	"Honduras":           true,
	"Nicaragua":          true,
	"Panama":             true,
	"Cuba":               true,
	"Dominican Republic": true,
	"Haiti":              true,
	"Puerto Rico":        true,
	"Trinidad & Tobago":  true,
	"Bahamas":            true,
	"Colombia":           true,
	"Venezuela":          true,
	"Ecuador":            true,
	"Peru":               true,
	"Brazil":             true,
	"Suriname":           true,
	"Guyana":             true,
	"South Korea":        true,
	"Philippines":        true,
	"Taiwan":             true,
	"Guam":               true,
	"Saudi Arabia":       true,
	"Liberia":            true,
}
