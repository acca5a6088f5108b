package importer

import (
	"errors"
	"fmt"
	"image/color"

	"github.com/jamesrr39/glstyle-bridge/gisproject"
	"github.com/jamesrr39/glstyle-bridge/styling"
	"github.com/jamesrr39/glstyle-bridge/styling/mapboxglstyle"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/logpkg"
)

// Mode says what to do with a layer's existing renderer
type Mode int

const (
	// ModeReplace installs a new renderer built only from the style layer
	ModeReplace Mode = iota
	// ModeAugment appends the style layer's symbol layers to the matching classes of the existing renderer
	ModeAugment
)

func (m Mode) String() string {
	if m == ModeAugment {
		return "augment"
	}
	return "replace"
}

// ErrMisalignedStops is returned when a stop function has fewer stops than the property it is read alongside
var ErrMisalignedStops = errors.New("misaligned stops")

// lastRangeUpperBound is the upper bound given to the last range of an interval function, which has no next stop
const lastRangeUpperBound = 100000000000

var styleTypesByGeometry = map[gisproject.GeometryType][]mapboxglstyle.LayerType{
	gisproject.GeometryTypePoint:   {mapboxglstyle.LayerTypeCircle, mapboxglstyle.LayerTypeSymbol},
	gisproject.GeometryTypeLine:    {mapboxglstyle.LayerTypeLine},
	gisproject.GeometryTypePolygon: {mapboxglstyle.LayerTypeFill},
}

func styleTypeFitsGeometry(styleType mapboxglstyle.LayerType, geometryType gisproject.GeometryType) bool {
	for _, t := range styleTypesByGeometry[geometryType] {
		if t == styleType {
			return true
		}
	}
	return false
}

type Importer struct {
	logger  *logpkg.Logger
	sprites SpriteSource
}

func NewImporter(logger *logpkg.Logger, sprites SpriteSource) *Importer {
	return &Importer{logger, sprites}
}

// symbolLayerBuilder builds the symbol layer for one stop (or the scalar case), along with the symbol's opacity.
// A nil symbol layer means there is nothing to draw.
type symbolLayerBuilder func(r stopReader) (gisproject.SymbolLayer, float64, errorsx.Error)

// ApplySymbology sets the layer's renderer from a style layer. Style layers of a type that doesn't fit the
// layer's geometry are ignored.
func (im *Importer) ApplySymbology(layer gisproject.Layer, style *mapboxglstyle.Layer, mode Mode) errorsx.Error {
	if !styleTypeFitsGeometry(style.Type, layer.GeometryType()) {
		im.logger.Debug("style layer %q of type %q doesn't fit %s layer %q, skipping", style.ID, style.Type, layer.GeometryType(), layer.Name())
		return nil
	}

	var discriminator string
	var build symbolLayerBuilder

	switch style.Type {
	case mapboxglstyle.LayerTypeLine:
		discriminator = mapboxglstyle.PropertyLineColor
		build = im.buildLineSymbolLayer
	case mapboxglstyle.LayerTypeFill:
		discriminator = mapboxglstyle.PropertyFillColor
		if !style.Paint.Has(discriminator) {
			discriminator = mapboxglstyle.PropertyFillPattern
		}
		build = im.buildFillSymbolLayer
	case mapboxglstyle.LayerTypeSymbol:
		discriminator = mapboxglstyle.PropertyIconImage
		build = im.buildSVGMarkerSymbolLayer
	default:
		im.logger.Warn("style layer %q: importing %q layers is not supported", style.ID, style.Type)
		return nil
	}

	err := im.applyRenderer(layer, style, discriminator, build, mode)
	if err != nil {
		return errorsx.Wrap(err, "style layer", style.ID, "mode", mode.String())
	}

	layer.RefreshSymbology()
	layer.TriggerRepaint()

	return nil
}

func (im *Importer) applyRenderer(layer gisproject.Layer, style *mapboxglstyle.Layer, discriminator string, build symbolLayerBuilder, mode Mode) errorsx.Error {
	value, ok := style.Paint[discriminator]
	if !ok {
		return errorsx.Errorf("style layer has no %q paint property", discriminator)
	}

	switch v := value.(type) {
	case mapboxglstyle.ScalarValue:
		return im.applySingleSymbol(layer, stopReader{style.Paint, -1}, build, mode)
	case *mapboxglstyle.StopFunction:
		switch v.Type {
		case mapboxglstyle.FunctionTypeCategorical:
			return im.applyCategories(layer, style.Paint, v, build, mode)
		case mapboxglstyle.FunctionTypeInterval:
			return im.applyRanges(layer, style.Paint, v, build, mode)
		default:
			return errorsx.Errorf("unsupported stop function type %q on %q", v.Type, discriminator)
		}
	default:
		return errorsx.Errorf("unexpected value for %q: %T", discriminator, value)
	}
}

func newSymbol(sl gisproject.SymbolLayer, alpha float64) *gisproject.Symbol {
	if sl == nil {
		return gisproject.NewSymbol(alpha)
	}
	return gisproject.NewSymbol(alpha, sl)
}

// addSymbolLayer appends sl to a copy of symbol. A class with no symbol gets a new one.
func addSymbolLayer(symbol *gisproject.Symbol, sl gisproject.SymbolLayer, alpha float64) *gisproject.Symbol {
	if symbol == nil {
		return newSymbol(sl, alpha)
	}
	return symbol.WithSymbolLayer(sl)
}

func (im *Importer) applySingleSymbol(layer gisproject.Layer, r stopReader, build symbolLayerBuilder, mode Mode) errorsx.Error {
	sl, alpha, err := build(r)
	if err != nil {
		return errorsx.Wrap(err)
	}

	if mode == ModeReplace {
		layer.SetRenderer(&gisproject.SingleSymbolRenderer{Symbol: newSymbol(sl, alpha)})
		return nil
	}

	current, ok := layer.Renderer().(*gisproject.SingleSymbolRenderer)
	if !ok || current.Symbol == nil {
		im.logger.Warn("layer %q: can't add a symbol layer to a %q renderer, expected a single symbol renderer", layer.Name(), rendererType(layer.Renderer()))
		return nil
	}

	if sl == nil {
		return nil
	}

	layer.SetRenderer(&gisproject.SingleSymbolRenderer{Symbol: current.Symbol.WithSymbolLayer(sl)})
	return nil
}

func (im *Importer) applyCategories(layer gisproject.Layer, paint mapboxglstyle.Properties, fn *mapboxglstyle.StopFunction, build symbolLayerBuilder, mode Mode) errorsx.Error {
	if mode == ModeReplace {
		renderer := &gisproject.CategorizedRenderer{Attribute: fn.Property}
		for i, stop := range fn.Stops {
			sl, alpha, err := build(stopReader{paint, i})
			if err != nil {
				return errorsx.Wrap(err, "stop", i)
			}

			renderer.Categories = append(renderer.Categories, &gisproject.Category{
				Value:  stop.Key,
				Label:  mapboxglstyle.KeyString(stop.Key),
				Symbol: newSymbol(sl, alpha),
			})
		}
		layer.SetRenderer(renderer)
		return nil
	}

	current, ok := layer.Renderer().(*gisproject.CategorizedRenderer)
	if !ok {
		im.logger.Warn("layer %q: can't add categories to a %q renderer", layer.Name(), rendererType(layer.Renderer()))
		return nil
	}

	categories := append([]*gisproject.Category(nil), current.Categories...)
	for i, stop := range fn.Stops {
		label := mapboxglstyle.KeyString(stop.Key)
		idx := current.CategoryByLabel(label)
		if idx == -1 {
			im.logger.Warn("layer %q: no category with label %q, skipping it", layer.Name(), label)
			continue
		}

		sl, alpha, err := build(stopReader{paint, i})
		if err != nil {
			return errorsx.Wrap(err, "stop", i)
		}
		if sl == nil {
			continue
		}

		category := categories[idx]
		categories[idx] = &gisproject.Category{
			Value:  category.Value,
			Label:  category.Label,
			Symbol: addSymbolLayer(category.Symbol, sl, alpha),
		}
	}

	layer.SetRenderer(&gisproject.CategorizedRenderer{Attribute: current.Attribute, Categories: categories})
	return nil
}

// rangeBounds gives the bounds and label of the range starting at stop i. Each range ends where the next one starts.
func rangeBounds(fn *mapboxglstyle.StopFunction, i int) (float64, float64, string, errorsx.Error) {
	lower, ok := mapboxglstyle.ToFloat(fn.Stops[i].Key)
	if !ok {
		return 0, 0, "", errorsx.Errorf("interval stop key %v is not a number", fn.Stops[i].Key)
	}

	upper := float64(lastRangeUpperBound)
	if i+1 < len(fn.Stops) {
		upper, ok = mapboxglstyle.ToFloat(fn.Stops[i+1].Key)
		if !ok {
			return 0, 0, "", errorsx.Errorf("interval stop key %v is not a number", fn.Stops[i+1].Key)
		}
	}

	label := fmt.Sprintf("%s-%s", mapboxglstyle.KeyString(lower), mapboxglstyle.KeyString(upper))
	return lower, upper, label, nil
}

func (im *Importer) applyRanges(layer gisproject.Layer, paint mapboxglstyle.Properties, fn *mapboxglstyle.StopFunction, build symbolLayerBuilder, mode Mode) errorsx.Error {
	if mode == ModeReplace {
		renderer := &gisproject.GraduatedRenderer{Attribute: fn.Property}
		for i := range fn.Stops {
			lower, upper, label, err := rangeBounds(fn, i)
			if err != nil {
				return errorsx.Wrap(err, "stop", i)
			}

			sl, alpha, err := build(stopReader{paint, i})
			if err != nil {
				return errorsx.Wrap(err, "stop", i)
			}

			renderer.Ranges = append(renderer.Ranges, &gisproject.Range{
				Lower:  lower,
				Upper:  upper,
				Label:  label,
				Symbol: newSymbol(sl, alpha),
			})
		}
		layer.SetRenderer(renderer)
		return nil
	}

	current, ok := layer.Renderer().(*gisproject.GraduatedRenderer)
	if !ok {
		im.logger.Warn("layer %q: can't add ranges to a %q renderer", layer.Name(), rendererType(layer.Renderer()))
		return nil
	}

	ranges := append([]*gisproject.Range(nil), current.Ranges...)
	for i := range fn.Stops {
		_, _, label, err := rangeBounds(fn, i)
		if err != nil {
			return errorsx.Wrap(err, "stop", i)
		}

		idx := current.RangeByLabel(label)
		if idx == -1 {
			im.logger.Warn("layer %q: no range with label %q, skipping it", layer.Name(), label)
			continue
		}

		sl, alpha, err := build(stopReader{paint, i})
		if err != nil {
			return errorsx.Wrap(err, "stop", i)
		}
		if sl == nil {
			continue
		}

		rang := ranges[idx]
		ranges[idx] = &gisproject.Range{
			Lower:  rang.Lower,
			Upper:  rang.Upper,
			Label:  rang.Label,
			Symbol: addSymbolLayer(rang.Symbol, sl, alpha),
		}
	}

	layer.SetRenderer(&gisproject.GraduatedRenderer{Attribute: current.Attribute, Ranges: ranges})
	return nil
}

func rendererType(renderer gisproject.Renderer) string {
	if renderer == nil {
		return "<none>"
	}
	return string(renderer.Type())
}

func (im *Importer) buildLineSymbolLayer(r stopReader) (gisproject.SymbolLayer, float64, errorsx.Error) {
	lineColor, err := r.color(mapboxglstyle.PropertyLineColor)
	if err != nil {
		return nil, 0, errorsx.Wrap(err)
	}

	width, err := r.float(mapboxglstyle.PropertyLineWidth, 1)
	if err != nil {
		return nil, 0, errorsx.Wrap(err)
	}

	dash, err := r.floats(mapboxglstyle.PropertyLineDashArray)
	if err != nil {
		return nil, 0, errorsx.Wrap(err)
	}

	offset, err := r.float(mapboxglstyle.PropertyLineOffset, 0)
	if err != nil {
		return nil, 0, errorsx.Wrap(err)
	}

	opacity, err := r.float(mapboxglstyle.PropertyLineOpacity, 1)
	if err != nil {
		return nil, 0, errorsx.Wrap(err)
	}

	return newLineSymbolLayer(lineColor, width, dash, offset), opacity, nil
}

func newLineSymbolLayer(lineColor color.RGBA, width float64, dash []float64, offset float64) *gisproject.SimpleLineSymbolLayer {
	sl := &gisproject.SimpleLineSymbolLayer{
		Color:     lineColor,
		Width:     width,
		WidthUnit: styling.OutputUnitPixel,
		Offset:    offset,
		PenStyle:  gisproject.LineStyleSolid,
	}

	if isDashed(dash) {
		sl.PenStyle = "dash"
		sl.UseCustomDash = true
		sl.CustomDash = dash
	}

	return sl
}

// isDashed is false for [0], the dash array written for solid lines
func isDashed(dash []float64) bool {
	for _, d := range dash {
		if d != 0 {
			return true
		}
	}
	return false
}

func (im *Importer) buildFillSymbolLayer(r stopReader) (gisproject.SymbolLayer, float64, errorsx.Error) {
	outlineColor, err := r.color(mapboxglstyle.PropertyFillOutlineColor)
	if err != nil {
		return nil, 0, errorsx.Wrap(err)
	}

	opacity, err := r.float(mapboxglstyle.PropertyFillOpacity, 1)
	if err != nil {
		return nil, 0, errorsx.Wrap(err)
	}

	pattern, err := r.string(mapboxglstyle.PropertyFillPattern)
	if err != nil {
		return nil, 0, errorsx.Wrap(err)
	}

	if pattern != "" && pattern != styling.NoIconName {
		svgPath, size, err := im.sprites.SpriteSVG(pattern)
		if err != nil {
			return nil, 0, errorsx.Wrap(err)
		}

		return &gisproject.SVGFillSymbolLayer{
			SVGFilePath:  svgPath,
			PatternWidth: float64(size),
			FillColor:    color.RGBA{0, 0, 0, 0xff},
			OutlineColor: outlineColor,
			SubSymbol:    gisproject.NewSymbol(1, newLineSymbolLayer(outlineColor, 1, nil, 0)),
			Unit:         styling.OutputUnitPixel,
		}, opacity, nil
	}

	fillColor, err := r.color(mapboxglstyle.PropertyFillColor)
	if err != nil {
		return nil, 0, errorsx.Wrap(err)
	}

	translate, err := r.floats(mapboxglstyle.PropertyFillTranslate)
	if err != nil {
		return nil, 0, errorsx.Wrap(err)
	}

	var offset [2]float64
	switch len(translate) {
	case 0:
	case 1:
		offset = [2]float64{translate[0], translate[0]}
	default:
		offset = [2]float64{translate[0], translate[1]}
	}

	return &gisproject.SimpleFillSymbolLayer{
		Color:        fillColor,
		OutlineColor: outlineColor,
		Offset:       offset,
		Unit:         styling.OutputUnitPixel,
	}, opacity, nil
}

func (im *Importer) buildSVGMarkerSymbolLayer(r stopReader) (gisproject.SymbolLayer, float64, errorsx.Error) {
	name, err := r.string(mapboxglstyle.PropertyIconImage)
	if err != nil {
		return nil, 0, errorsx.Wrap(err)
	}

	if name == "" || name == styling.NoIconName {
		return nil, 1, nil
	}

	svgPath, size, err := im.sprites.SpriteSVG(name)
	if err != nil {
		return nil, 0, errorsx.Wrap(err)
	}

	return &gisproject.SVGMarkerSymbolLayer{
		Path:         svgPath,
		Size:         float64(size),
		FillColor:    color.RGBA{0, 0, 0, 0xff},
		OutlineColor: color.RGBA{0, 0, 0, 0xff},
		Unit:         styling.OutputUnitPixel,
	}, 1, nil
}
