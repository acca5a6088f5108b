package styling

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/jamesrr39/goutil/errorsx"
)

const DefaultRGBString = "rgb(0,0,0)"

// ParseColor parses either a comma separated tuple ("255,0,0" or "255,0,0,128") or a hex string ("#ff0000" or "#f00").
// Any alpha component is ignored; opacity is carried separately.
func ParseColor(s string) (color.RGBA, errorsx.Error) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, ",") {
		return parseColorTuple(s)
	}

	return parseHexColor(s)
}

func parseColorTuple(s string) (color.RGBA, errorsx.Error) {
	fragments := strings.Split(s, ",")
	if len(fragments) != 3 && len(fragments) != 4 {
		return color.RGBA{}, errorsx.Errorf("expected 3 or 4 color components but found %d", len(fragments))
	}

	var components [3]uint8
	for i := 0; i < 3; i++ {
		val, err := strconv.ParseUint(strings.TrimSpace(fragments[i]), 10, 8)
		if err != nil {
			return color.RGBA{}, errorsx.Wrap(err, "color", s)
		}
		components[i] = uint8(val)
	}

	return color.RGBA{components[0], components[1], components[2], 0xff}, nil
}

func parseHexColor(s string) (color.RGBA, errorsx.Error) {
	hex := strings.TrimPrefix(s, "#")
	var step int
	switch len(hex) {
	case 3:
		step = 1
	case 6:
		step = 2
	default:
		return color.RGBA{}, errorsx.Errorf("unrecognised color: %q", s)
	}

	var components [3]uint8
	for i := 0; i < 3; i++ {
		fragment := hex[i*step : i*step+step]
		val, err := strconv.ParseUint(fragment, 16, 8)
		if err != nil {
			return color.RGBA{}, errorsx.Wrap(err, "color", s)
		}
		// "#f00" is the same as "#ff0000"
		if step == 1 {
			val = val*16 + val
		}
		components[i] = uint8(val)
	}

	return color.RGBA{components[0], components[1], components[2], 0xff}, nil
}

func RGBString(c color.RGBA) string {
	return fmt.Sprintf("rgb(%d,%d,%d)", c.R, c.G, c.B)
}

func RGBAString(c color.RGBA) string {
	return fmt.Sprintf("rgba(%d, %d, %d, 255)", c.R, c.G, c.B)
}

// ToRGBString normalises a host color string into the "rgb(r,g,b)" form used in style documents.
func ToRGBString(s string) (string, errorsx.Error) {
	c, err := ParseColor(s)
	if err != nil {
		return "", err
	}

	return RGBString(c), nil
}

// ParseRGBString reads a color back out of a style document. Everything except digits and commas is dropped,
// so "rgb(1,2,3)", "rgba(1, 2, 3, 255)" and "1,2,3" are all accepted.
func ParseRGBString(s string) (color.RGBA, errorsx.Error) {
	var sb strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == ',' {
			sb.WriteRune(r)
		}
	}

	return parseColorTuple(sb.String())
}

// HostColorString is the "r,g,b,a" form the host application stores in symbol layer properties.
func HostColorString(c color.RGBA) string {
	return fmt.Sprintf("%d,%d,%d,%d", c.R, c.G, c.B, c.A)
}
