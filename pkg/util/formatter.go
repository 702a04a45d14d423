package util

import (
	"fmt"
	"math"
)

var siPrefixes = []struct {
	factor float64
	prefix string
}{
	{1e9, "G"},
	{1e6, "M"},
	{1e3, "k"},
	{1, ""},
	{1e-3, "m"},
	{1e-6, "u"},
	{1e-9, "n"},
}

// FormatValue renders a value with an SI prefix, e.g. 1530.0, "W" -> "1.530 kW".
func FormatValue(value float64, unit string) string {
	absValue := math.Abs(value)
	if absValue == 0 {
		return fmt.Sprintf("0.000 %s", unit)
	}
	for _, p := range siPrefixes {
		if absValue >= p.factor {
			return fmt.Sprintf("%.3f %s%s", value/p.factor, p.prefix, unit)
		}
	}
	return fmt.Sprintf("%.3e %s", value, unit)
}

func FormatPower(watts float64) string { return FormatValue(watts, "W") }

func FormatTorque(newtonMeters float64) string { return FormatValue(newtonMeters, "N·m") }

// FormatSpeed renders rad/s without prefix scaling; prefixed radians read badly.
func FormatSpeed(radPerSec float64) string {
	return fmt.Sprintf("%.3f rad/s", radPerSec)
}
