package styling

import (
	"math"
	"strings"
)

// NoIconName is the sprite name used when a symbol layer has no icon. It is always present in a sprite sheet, with zero size.
const NoIconName = "no_icon"

type OutputUnit string

const (
	OutputUnitPixel   OutputUnit = "Pixel"
	OutputUnitMM      OutputUnit = "MM"
	OutputUnitMapUnit OutputUnit = "MapUnit"
	OutputUnitPoint   OutputUnit = "Point"
	OutputUnitInch    OutputUnit = "Inch"
)

func (u OutputUnit) IsPixel() bool {
	// the host writes an empty unit for layers created before units existed; those are pixels
	return u == OutputUnitPixel || u == ""
}

const zoomScaleConstant = 1000000000

// ToZoomLevel maps a host scale denominator onto a Mapbox GL zoom level
func ToZoomLevel(scale float64) int {
	return int(math.Floor(math.Log2(zoomScaleConstant / scale)))
}

// ToScale is the inverse of ToZoomLevel
func ToScale(zoomLevel float64) float64 {
	return zoomScaleConstant / math.Pow(2, zoomLevel)
}

const emptySafeName = "layer"

// SafeName turns a display name into an identifier: only [A-Za-z0-9_] are kept, and the result is lower case.
// A name with no such characters at all becomes "layer".
func SafeName(name string) string {
	var sb strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			sb.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			sb.WriteRune(r + ('a' - 'A'))
		}
	}

	if sb.Len() == 0 {
		return emptySafeName
	}

	return sb.String()
}
