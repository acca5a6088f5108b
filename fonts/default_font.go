package fonts

import (
	"sync"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"github.com/jamesrr39/goutil/errorsx"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

var (
	defaultFont     *truetype.Font
	defaultFontErr  errorsx.Error
	defaultFontOnce sync.Once
)

func loadDefaultFont() {
	f, err := freetype.ParseFont(goregular.TTF)
	if err != nil {
		defaultFontErr = errorsx.Wrap(err)
		return
	}

	defaultFont = f
}

// DefaultFont is the font font markers are drawn with. It is parsed on first use.
func DefaultFont() (*truetype.Font, errorsx.Error) {
	defaultFontOnce.Do(loadDefaultFont)
	return defaultFont, defaultFontErr
}

// MeasureString gives the advance width, in pixels, of s drawn at size pixels with the default font
func MeasureString(s string, size float64) (float64, errorsx.Error) {
	f, err := DefaultFont()
	if err != nil {
		return 0, err
	}

	face := truetype.NewFace(f, &truetype.Options{Size: size, DPI: 72})
	defer face.Close()

	advance := font.MeasureString(face, s)
	return float64(advance) / 64, nil
}
