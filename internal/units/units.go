// Package units converts the simulator's native metres-per-second speeds
// into display units for CLI output.
package units

import "fmt"

const (
	MPS  = "mps"
	MPH  = "mph"
	KPH  = "kph"
	KMPH = "kmph"
)

const (
	metersPerMile  = 1609.344
	secondsPerHour = 3600.0
	mpsToMPH       = secondsPerHour / metersPerMile
	mpsToKPH       = secondsPerHour / 1000.0
)

// ValidUnits lists the accepted unit names, KMPH being an alias for KPH.
var ValidUnits = []string{MPS, MPH, KPH, KMPH}

// IsValid reports whether unit names a supported speed unit.
func IsValid(unit string) bool {
	switch unit {
	case MPS, MPH, KPH, KMPH:
		return true
	}
	return false
}

// Convert converts a speed in metres per second into the target unit.
func Convert(speedMPS float64, unit string) (float64, error) {
	switch unit {
	case MPS:
		return speedMPS, nil
	case MPH:
		return speedMPS * mpsToMPH, nil
	case KPH, KMPH:
		return speedMPS * mpsToKPH, nil
	}
	return 0, fmt.Errorf("unsupported speed unit %q (valid: %v)", unit, ValidUnits)
}

// Label returns the display suffix for a unit ("m/s", "mph", "km/h").
func Label(unit string) string {
	switch unit {
	case MPS:
		return "m/s"
	case MPH:
		return "mph"
	case KPH, KMPH:
		return "km/h"
	}
	return unit
}
