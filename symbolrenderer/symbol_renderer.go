package symbolrenderer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"strings"

	"github.com/golang/freetype"
	"github.com/jamesrr39/glstyle-bridge/fonts"
	"github.com/jamesrr39/glstyle-bridge/gisproject"
	"github.com/jamesrr39/glstyle-bridge/styling"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/gofs"
	"github.com/llgcode/draw2d/draw2dimg"
	"github.com/llgcode/draw2d/draw2dkit"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// SymbolLayerRenderer draws a single symbol layer as an icon
type SymbolLayerRenderer interface {
	RenderSymbolLayer(sl gisproject.SymbolLayer, pixelRatio float64) (image.Image, bool, errorsx.Error)
}

type Renderer struct {
	fs gofs.Fs
}

func NewRenderer(fs gofs.Fs) *Renderer {
	return &Renderer{fs}
}

// RenderSymbolLayer draws the symbol layer as a square icon of its size multiplied by pixelRatio.
// Layers with no size (fills, lines and unknown kinds) can't be drawn as an icon; for them ok is false.
// SVG fills are drawn as a single tile of their pattern.
func (r *Renderer) RenderSymbolLayer(sl gisproject.SymbolLayer, pixelRatio float64) (image.Image, bool, errorsx.Error) {
	switch symbolLayer := sl.(type) {
	case *gisproject.SVGMarkerSymbolLayer:
		img, err := r.renderSVGMarker(symbolLayer, pixelRatio)
		if err != nil {
			return nil, false, errorsx.Wrap(err)
		}
		return img, true, nil
	case *gisproject.SVGFillSymbolLayer:
		marker := &gisproject.SVGMarkerSymbolLayer{
			Path:         symbolLayer.SVGFilePath,
			Size:         symbolLayer.PatternWidth,
			FillColor:    symbolLayer.FillColor,
			OutlineColor: symbolLayer.OutlineColor,
			Unit:         styling.OutputUnitPixel,
		}
		img, err := r.renderSVGMarker(marker, pixelRatio)
		if err != nil {
			return nil, false, errorsx.Wrap(err)
		}
		return img, true, nil
	case *gisproject.SimpleMarkerSymbolLayer:
		img, err := drawSimpleMarker(symbolLayer, pixelRatio)
		if err != nil {
			return nil, false, errorsx.Wrap(err)
		}
		return img, true, nil
	case *gisproject.FontMarkerSymbolLayer:
		img, err := drawFontMarker(symbolLayer, pixelRatio)
		if err != nil {
			return nil, false, errorsx.Wrap(err)
		}
		return img, true, nil
	default:
		return nil, false, nil
	}
}

func iconSize(size, pixelRatio float64) int {
	px := int(size * pixelRatio)
	if px < 1 {
		return 1
	}
	return px
}

func (r *Renderer) renderSVGMarker(sl *gisproject.SVGMarkerSymbolLayer, pixelRatio float64) (image.Image, errorsx.Error) {
	data, err := r.fs.ReadFile(sl.Path)
	if err != nil {
		return nil, errorsx.Wrap(err, "path", sl.Path)
	}

	// parameterised SVGs take their colors from the symbol layer
	replacer := strings.NewReplacer(
		"param(fill)", hexColor(sl.FillColor),
		"param(outline)", hexColor(sl.OutlineColor),
	)

	icon, err := oksvg.ReadIconStream(bytes.NewBufferString(replacer.Replace(string(data))))
	if err != nil {
		return nil, errorsx.Wrap(err, "path", sl.Path)
	}

	size := iconSize(sl.Size, pixelRatio)
	icon.SetTarget(0, 0, float64(size), float64(size))

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	dasher := rasterx.NewDasher(size, size, scanner)
	icon.Draw(dasher, 1)

	return img, nil
}

func hexColor(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Point is a position in a marker, relative to its size
type Point struct {
	X float64 // between 0 and 1. 0 = left of image, 1 = right of image
	Y float64 // between 0 and 1. 0 = top of image, 1 = bottom of image
}

var markerShapes = map[gisproject.MarkerShape][]*Point{
	gisproject.MarkerShapeDiamond:  {{X: 0.5, Y: 0}, {X: 1, Y: 0.5}, {X: 0.5, Y: 1}, {X: 0, Y: 0.5}},
	gisproject.MarkerShapeTriangle: {{X: 0.5, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}},
}

func drawSimpleMarker(sl *gisproject.SimpleMarkerSymbolLayer, pixelRatio float64) (*image.RGBA, errorsx.Error) {
	size := iconSize(sl.Size, pixelRatio)
	img := NewImageWithBackground(image.Rect(0, 0, size, size), color.Transparent)

	gc := draw2dimg.NewGraphicContext(img)
	gc.SetFillColor(sl.Color)
	gc.SetStrokeColor(sl.OutlineColor)

	// the outline is drawn inside the icon, so it isn't clipped
	lineWidth := sl.OutlineWidth * pixelRatio
	gc.SetLineWidth(lineWidth)
	inset := lineWidth / 2
	extent := float64(size) - lineWidth

	switch sl.Shape {
	case gisproject.MarkerShapeCircle, "":
		gc.BeginPath()
		draw2dkit.Circle(gc, float64(size)/2, float64(size)/2, math.Max(extent/2, 0))
	case gisproject.MarkerShapeSquare:
		gc.BeginPath()
		draw2dkit.Rectangle(gc, inset, inset, inset+extent, inset+extent)
	default:
		points, ok := markerShapes[sl.Shape]
		if !ok {
			return nil, errorsx.Errorf("unsupported marker shape: %q", sl.Shape)
		}
		drawPolygon(gc, points, inset, extent)
	}

	if sl.OutlineWidth > 0 {
		gc.FillStroke()
	} else {
		gc.Fill()
	}

	return img, nil
}

// drawFontMarker draws the character centred in the icon. The layer's font family is not looked up; the bundled font is always used.
func drawFontMarker(sl *gisproject.FontMarkerSymbolLayer, pixelRatio float64) (*image.RGBA, errorsx.Error) {
	size := iconSize(sl.Size, pixelRatio)
	img := NewImageWithBackground(image.Rect(0, 0, size, size), color.Transparent)
	if sl.Character == "" {
		return img, nil
	}

	font, err := fonts.DefaultFont()
	if err != nil {
		return nil, err
	}

	fontSize := float64(size)
	advance, err := fonts.MeasureString(sl.Character, fontSize)
	if err != nil {
		return nil, err
	}

	ctx := freetype.NewContext()
	ctx.SetDPI(72)
	ctx.SetFont(font)
	ctx.SetFontSize(fontSize)
	ctx.SetClip(img.Bounds())
	ctx.SetDst(img)
	ctx.SetSrc(image.NewUniform(sl.Color))

	// baseline at 80% of the height leaves room for the descent
	x := int((float64(size) - advance) / 2)
	y := int(float64(size) * 0.8)
	_, drawErr := ctx.DrawString(sl.Character, freetype.Pt(x, y))
	if drawErr != nil {
		return nil, errorsx.Wrap(drawErr, "character", sl.Character)
	}

	return img, nil
}

func drawPolygon(gc *draw2dimg.GraphicContext, points []*Point, offset, extent float64) {
	gc.BeginPath()
	for i, point := range points {
		pointX := offset + point.X*extent
		pointY := offset + point.Y*extent

		if i == 0 {
			gc.MoveTo(pointX, pointY)
		} else {
			gc.LineTo(pointX, pointY)
		}
	}
	gc.Close()
}

func NewImageWithBackground(r image.Rectangle, c color.Color) *image.RGBA {
	img := image.NewRGBA(r)

	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)

	return img
}
