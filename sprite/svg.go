package sprite

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"
	"path/filepath"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/gofs"
)

const svgTemplate = `<?xml version="1.0" encoding="UTF-8" standalone="no"?>
<!DOCTYPE svg PUBLIC "-//W3C//DTD SVG 1.1//EN" "http://www.w3.org/Graphics/SVG/1.1/DTD/svg11.dtd">
<svg version="1.1" xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" width="%[1]dpx" height="%[2]dpx" viewBox="0 0 %[1]d %[2]d">
<image xlink:href="data:image/png;base64,%[3]s" width="%[1]d" height="%[2]d" x="0" y="0" />
</svg>
`

// WriteSpriteSVG cuts a sprite out of the sheet and writes it to dir as <name>.png, and as <name>.svg,
// an SVG wrapping the PNG data. It returns the SVG path and the larger of the sprite's width and height.
func WriteSpriteSVG(fs gofs.Fs, sheet *Sheet, name, dir string) (string, int, errorsx.Error) {
	img, err := sheet.Slice(name)
	if err != nil {
		return "", 0, errorsx.Wrap(err)
	}

	buf := bytes.NewBuffer(nil)
	encodeErr := png.Encode(buf, img)
	if encodeErr != nil {
		return "", 0, errorsx.Wrap(encodeErr, "name", name)
	}

	pngPath := filepath.Join(dir, name+".png")
	writeErr := fs.WriteFile(pngPath, buf.Bytes(), 0644)
	if writeErr != nil {
		return "", 0, errorsx.Wrap(writeErr, "path", pngPath)
	}

	width := img.Bounds().Dx()
	height := img.Bounds().Dy()

	svg := fmt.Sprintf(svgTemplate, width, height, base64.StdEncoding.EncodeToString(buf.Bytes()))

	svgPath := filepath.Join(dir, name+".svg")
	writeErr = fs.WriteFile(svgPath, []byte(svg), 0644)
	if writeErr != nil {
		return "", 0, errorsx.Wrap(writeErr, "path", svgPath)
	}

	size := width
	if height > size {
		size = height
	}

	return svgPath, size, nil
}
