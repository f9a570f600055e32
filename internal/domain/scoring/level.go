package scoring

import "strings"

// WarningLevel buckets a score for display.
type WarningLevel string

// Warning levels.
const (
	LevelSafe     WarningLevel = "safe"
	LevelWarning  WarningLevel = "warning"
	LevelCritical WarningLevel = "critical"
)

// Level boundaries; a score equal to a boundary stays in the lower bucket.
const (
	criticalAbove = 0.7
	warningAbove  = 0.4
)

// LevelFor maps a score to its warning level.
func LevelFor(score float64) WarningLevel {
	switch {
	case score > criticalAbove:
		return LevelCritical
	case score > warningAbove:
		return LevelWarning
	default:
		return LevelSafe
	}
}

// String implements fmt.Stringer.
func (l WarningLevel) String() string { return string(l) }

// Status is the overlay label, e.g. "Status: WARNING".
func (l WarningLevel) Status() string {
	return "Status: " + strings.ToUpper(string(l))
}

// RGB is an overlay colour.
type RGB struct {
	R, G, B uint8
}

// Hex renders the colour as #rrggbb.
func (c RGB) Hex() string {
	const digits = "0123456789abcdef"
	b := []byte{'#', 0, 0, 0, 0, 0, 0}
	for i, v := range []uint8{c.R, c.G, c.B} {
		b[1+2*i] = digits[v>>4]
		b[2+2*i] = digits[v&0x0f]
	}
	return string(b)
}

// Color returns the overlay colour for the level: green, orange or red.
func (l WarningLevel) Color() RGB {
	switch l {
	case LevelCritical:
		return RGB{R: 255}
	case LevelWarning:
		return RGB{R: 255, G: 165}
	default:
		return RGB{G: 255}
	}
}
