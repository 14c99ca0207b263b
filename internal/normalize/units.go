package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// cmPerInchFactor converts centimeters to inches.
const cmPerInchFactor = 0.3937

var magnitudePattern = regexp.MustCompile(`^(\d+(?:[.,]\d+)*)\s*([a-z]+|["”″])?`)

type unitField struct {
	native string
	units  map[string]string
	// toNative converts magnitudes given in these units into the native unit.
	toNative map[string]func(float64) float64
	// precision is the number of decimals kept after conversion.
	precision int
}

var displaySizeField = unitField{
	native: "Inch",
	units: map[string]string{
		`"`: "Inch", "”": "Inch", "″": "Inch",
		"in": "Inch", "inch": "Inch", "inches": "Inch",
	},
	toNative: map[string]func(float64) float64{
		"cm":          cmToInch,
		"cms":         cmToInch,
		"centimeter":  cmToInch,
		"centimeters": cmToInch,
		"centimetre":  cmToInch,
		"centimetres": cmToInch,
	},
	precision: 1,
}

var storageField = unitField{
	native: "GB",
	units: map[string]string{
		"mb": "MB", "megabyte": "MB", "megabytes": "MB",
		"g": "GB", "gb": "GB", "gig": "GB", "gigs": "GB", "gigabyte": "GB", "gigabytes": "GB",
		"tb": "TB", "terabyte": "TB", "terabytes": "TB",
	},
	precision: 2,
}

func cmToInch(v float64) float64 { return v * cmPerInchFactor }

func displaySize(clean string) string { return displaySizeField.canonical(clean) }
func storageSize(clean string) string { return storageField.canonical(clean) }

// canonical extracts the leading magnitude and unit of clean and renders
// "<magnitude> <Unit>". Values without a leading magnitude fall back to Title.
func (f unitField) canonical(clean string) string {
	m := magnitudePattern.FindStringSubmatch(strings.ToLower(clean))
	if m == nil {
		return Title(clean)
	}
	value, ok := parseMagnitude(m[1])
	if !ok {
		return Title(clean)
	}

	unit := f.native
	if label, ok := f.units[m[2]]; ok {
		unit = label
	} else if convert, ok := f.toNative[m[2]]; ok {
		value = convert(value)
	}
	return formatMagnitude(value, f.precision) + " " + unit
}

// parseMagnitude accepts "15.6", "15,6" and "1,024" (thousands separator).
func parseMagnitude(s string) (float64, bool) {
	if strings.Contains(s, ",") {
		parts := strings.Split(s, ",")
		thousands := len(parts) > 1
		for _, p := range parts[1:] {
			if len(p) != 3 || strings.Contains(p, ".") {
				thousands = false
			}
		}
		if thousands {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.ReplaceAll(s, ",", ".")
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// formatMagnitude rounds v to precision decimals. Magnitudes at or beyond
// 2^53 have no fractional part and are rendered as they are.
func formatMagnitude(v float64, precision int) string {
	if math.Abs(v) >= 1<<53 {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	scale := math.Pow(10, float64(precision))
	return strconv.FormatFloat(math.Round(v*scale)/scale, 'f', -1, 64)
}
