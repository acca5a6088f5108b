package exporter

import (
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/jamesrr39/glstyle-bridge/gisproject"
	"github.com/jamesrr39/glstyle-bridge/styling"
	"github.com/jamesrr39/glstyle-bridge/styling/mapboxglstyle"
)

// classes is a renderer flattened into keyed symbols.
// A single symbol renderer has no function type and exactly one symbol.
type classes struct {
	functionType mapboxglstyle.FunctionType
	attribute    string
	keys         []interface{}
	labels       []string
	symbols      []*gisproject.Symbol
}

func (c *classes) isStopFunction() bool {
	return c.functionType != ""
}

func (c *classes) maxSymbolLayerCount() int {
	count := 0
	for _, symbol := range c.symbols {
		if symbol.SymbolLayerCount() > count {
			count = symbol.SymbolLayerCount()
		}
	}
	return count
}

// classify flattens a renderer. It returns false for renderers that can't be expressed in a style document.
func classify(renderer gisproject.Renderer) (*classes, bool) {
	switch r := renderer.(type) {
	case *gisproject.SingleSymbolRenderer:
		if r.Symbol == nil {
			return nil, false
		}
		return &classes{
			labels:  []string{"singlesymbol"},
			symbols: []*gisproject.Symbol{r.Symbol},
		}, true
	case *gisproject.CategorizedRenderer:
		c := &classes{functionType: mapboxglstyle.FunctionTypeCategorical, attribute: r.Attribute}
		for _, category := range r.Categories {
			if category.Symbol == nil {
				continue
			}
			c.keys = append(c.keys, category.Value)
			c.labels = append(c.labels, category.Label)
			c.symbols = append(c.symbols, category.Symbol)
		}
		return c, true
	case *gisproject.GraduatedRenderer:
		c := &classes{functionType: mapboxglstyle.FunctionTypeInterval, attribute: r.Attribute}
		for _, rang := range r.Ranges {
			if rang.Symbol == nil {
				continue
			}
			c.keys = append(c.keys, rang.Lower)
			c.labels = append(c.labels, rang.Label)
			c.symbols = append(c.symbols, rang.Symbol)
		}
		return c, true
	default:
		return nil, false
	}
}

func rendererTypeName(renderer gisproject.Renderer) string {
	if renderer == nil {
		return "<none>"
	}
	return string(renderer.Type())
}

// ProcessLayer translates one layer into style layers, collecting any sprites its symbols need.
// A layer that fails part way through contributes nothing, and the failure is logged.
func (s *Session) ProcessLayer(layer gisproject.Layer) (styleLayers []*mapboxglstyle.Layer) {
	ls := s.newLayerState(layer)

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("failed to export layer %q: %v\n%s", layer.Name(), r, debug.Stack())
			styleLayers = nil
		}
	}()

	styleLayers = ls.process()
	ls.commit()
	return styleLayers
}

func (ls *layerState) process() []*mapboxglstyle.Layer {
	layer := ls.layer
	safeName := styling.SafeName(layer.Name())

	if layer.Kind() == gisproject.LayerKindRaster {
		return []*mapboxglstyle.Layer{
			mapboxglstyle.NewLayer(safeName, mapboxglstyle.LayerTypeRaster, safeName),
		}
	}

	c, ok := classify(layer.Renderer())
	if !ok {
		ls.session.logger.Warn("layer %q: unsupported renderer %q, the layer will not be exported", layer.Name(), rendererTypeName(layer.Renderer()))
		return nil
	}

	styleLayers := ls.convertSymbology(c)
	for i, styleLayer := range styleLayers {
		styleLayer.ID = fmt.Sprintf("%s:%d", safeName, i)
		styleLayer.Source = safeName
		ls.setZoomRange(styleLayer)
	}

	labelSettings := gisproject.ReadLabelSettings(layer)
	if labelSettings.Enabled {
		styleLayers = append(styleLayers, processLabeling(layer, labelSettings, safeName))
	}

	return styleLayers
}

func (ls *layerState) setZoomRange(styleLayer *mapboxglstyle.Layer) {
	minScale, maxScale, ok := ls.layer.ScaleVisibility()
	if !ok {
		return
	}

	styleLayer.SetZoomRange(scaleToZoom(minScale), scaleToZoom(maxScale))
}

// scaleToZoom treats a scale of 0, which the host uses for "no limit", as the most zoomed in level
func scaleToZoom(scale float64) float64 {
	if scale <= 0 {
		return mapboxglstyle.MaxZoom
	}
	return float64(styling.ToZoomLevel(scale))
}

func styleLayerType(geometryType gisproject.GeometryType) mapboxglstyle.LayerType {
	switch geometryType {
	case gisproject.GeometryTypeLine:
		return mapboxglstyle.LayerTypeLine
	case gisproject.GeometryTypePolygon:
		return mapboxglstyle.LayerTypeFill
	default:
		return mapboxglstyle.LayerTypeSymbol
	}
}

// convertSymbology emits one style layer for every symbol layer index, up to the largest symbol in the renderer
func (ls *layerState) convertSymbology(c *classes) []*mapboxglstyle.Layer {
	layerType := styleLayerType(ls.layer.GeometryType())

	var styleLayers []*mapboxglstyle.Layer
	for i := 0; i < c.maxSymbolLayerCount(); i++ {
		styleLayer := mapboxglstyle.NewLayer("", layerType, "")
		paint := styleLayer.Paint

		switch layerType {
		case mapboxglstyle.LayerTypeSymbol:
			ls.collectSprites(c, i)
			ls.warnNonPixelUnits(c, i)
			ls.setPaintProperty(paint, mapboxglstyle.PropertyIconImage, c, ls.iconName(i))
		case mapboxglstyle.LayerTypeLine:
			ls.warnNonPixelLineWidths(c, i)
			ls.setPaintProperty(paint, mapboxglstyle.PropertyLineWidth, c, ls.numberProperty(gisproject.PropLineWidth, i, 1.0))
			ls.setPaintProperty(paint, mapboxglstyle.PropertyLineOpacity, c, ls.alpha(i))
			ls.setPaintProperty(paint, mapboxglstyle.PropertyLineColor, c, ls.colorProperty(gisproject.PropLineColor, i))
			ls.setPaintProperty(paint, mapboxglstyle.PropertyLineOffset, c, ls.numberProperty(gisproject.PropOffset, i, 0.0))
			ls.setPaintProperty(paint, mapboxglstyle.PropertyLineDashArray, c, ls.lineDash(i))
		case mapboxglstyle.LayerTypeFill:
			ls.collectSprites(c, i)
			ls.setPaintProperty(paint, mapboxglstyle.PropertyFillColor, c, ls.fillColor(i))
			ls.setPaintProperty(paint, mapboxglstyle.PropertyFillOutlineColor, c, ls.fillOutlineColor(i))
			ls.setPaintProperty(paint, mapboxglstyle.PropertyFillPattern, c, ls.fillPatternIcon(i))
			ls.setPaintProperty(paint, mapboxglstyle.PropertyFillOpacity, c, ls.alpha(i))
			ls.setPaintProperty(paint, mapboxglstyle.PropertyFillTranslate, c, ls.fillTranslate(i))
		}

		styleLayers = append(styleLayers, styleLayer)
	}

	return styleLayers
}

func (ls *layerState) collectSprites(c *classes, index int) {
	for _, symbol := range c.symbols {
		sl := symbol.SymbolLayer(index)
		if sl == nil {
			continue
		}
		ls.collectSprite(sl)
	}
}

func (ls *layerState) warnNonPixelUnits(c *classes, index int) {
	for classIndex, symbol := range c.symbols {
		sl := symbol.SymbolLayer(index)
		if sl == nil || sl.OutputUnit().IsPixel() {
			continue
		}
		ls.session.logger.Warn("layer %q, class %q, symbol layer %d: size unit is %q. Only pixel sizes are exported correctly.",
			ls.layer.Name(), c.labels[classIndex], index+1, sl.OutputUnit())
	}
}

func (ls *layerState) warnNonPixelLineWidths(c *classes, index int) {
	for classIndex, symbol := range c.symbols {
		sl := symbol.SymbolLayer(index)
		if sl == nil {
			continue
		}
		unit, ok := sl.Properties()[gisproject.PropLineWidthUnit]
		if !ok || styling.OutputUnit(unit).IsPixel() {
			continue
		}
		ls.session.logger.Warn("layer %q, class %q, symbol layer %d: line width unit is %q. Only pixel widths are exported correctly.",
			ls.layer.Name(), c.labels[classIndex], index+1, unit)
	}
}

// setPaintProperty sets a scalar for single symbol renderers and a stop function otherwise.
// Properties without any real value (nothing, or only no_icon) are left out.
func (ls *layerState) setPaintProperty(paint mapboxglstyle.Properties, name string, c *classes, fn extractor) {
	if !c.isStopFunction() {
		value := fn(c.symbols[0])
		if isEmptyValue(value) {
			return
		}
		paint.Set(name, value)
		return
	}

	stopFunction := &mapboxglstyle.StopFunction{
		Property: c.attribute,
		Type:     c.functionType,
	}

	hasValue := false
	for i, symbol := range c.symbols {
		value := fn(symbol)
		if !isEmptyValue(value) {
			hasValue = true
		}
		stopFunction.Stops = append(stopFunction.Stops, mapboxglstyle.Stop{Key: c.keys[i], Value: value})
	}

	if !hasValue {
		return
	}

	paint[name] = stopFunction
}

func isEmptyValue(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == styling.NoIconName
	default:
		return false
	}
}

const labelFont = "Arial Normal"

// LabelLayerPrefix starts the id of the label layer written for a layer: "txt_<safe name>"
const LabelLayerPrefix = "txt_"

func processLabeling(layer gisproject.Layer, settings *gisproject.LabelSettings, safeName string) *mapboxglstyle.Layer {
	styleLayer := mapboxglstyle.NewLayer(LabelLayerPrefix+safeName, mapboxglstyle.LayerTypeSymbol, safeName)

	rotation := -settings.AngleOffset
	if rotation == 0 {
		// avoid writing -0
		rotation = 0
	}

	styleLayer.Layout = mapboxglstyle.Properties{}
	styleLayer.Layout.Set(mapboxglstyle.PropertyTextField, "{"+settings.FieldName+"}")
	styleLayer.Layout.Set(mapboxglstyle.PropertyTextSize, settings.FontSize)
	styleLayer.Layout.Set(mapboxglstyle.PropertyTextFont, []string{labelFont})
	styleLayer.Layout.Set(mapboxglstyle.PropertyTextRotate, rotation)
	styleLayer.Layout.Set(mapboxglstyle.PropertyTextOffset, []float64{settings.XOffset, settings.YOffset})

	styleLayer.Paint.Set(mapboxglstyle.PropertyTextColor, styling.RGBAString(settings.TextColor))
	if settings.BufferDraw {
		styleLayer.Paint.Set(mapboxglstyle.PropertyTextHaloColor, styling.RGBAString(settings.BufferColor))
		styleLayer.Paint.Set(mapboxglstyle.PropertyTextHaloWidth, settings.BufferSize)
	}
	styleLayer.Paint.Set(mapboxglstyle.PropertyTextOpacity, float64(255-layer.Transparency())/255)

	if settings.ScaleVisibility {
		styleLayer.SetZoomRange(scaleToZoom(settings.ScaleMin), scaleToZoom(settings.ScaleMax))
	}

	return styleLayer
}

// CheckCompatibility reports whether the layer's renderer can be exported, along with any warnings about
// symbol layer units, which are exported as if they were pixels.
func CheckCompatibility(layer gisproject.Layer) (bool, string) {
	if layer.Kind() == gisproject.LayerKindRaster {
		return true, ""
	}

	c, ok := classify(layer.Renderer())
	if !ok {
		return false, fmt.Sprintf("unsupported renderer: %s", rendererTypeName(layer.Renderer()))
	}

	var messages []string
	for classIndex, symbol := range c.symbols {
		for i, sl := range symbol.Layers {
			if sl.OutputUnit().IsPixel() {
				continue
			}
			messages = append(messages, fmt.Sprintf("class %q, symbol layer %d: unit is %q, only pixels are supported",
				c.labels[classIndex], i+1, sl.OutputUnit()))
		}
	}

	return true, strings.Join(messages, "\n")
}
