package exporter

import (
	"strconv"
	"strings"

	"github.com/jamesrr39/glstyle-bridge/gisproject"
	"github.com/jamesrr39/glstyle-bridge/styling"
)

// extractor reads one style property value out of the symbol layer at a fixed index of a symbol.
// Extractors never fail; anything missing or unreadable gives the extractor's default.
type extractor func(symbol *gisproject.Symbol) interface{}

func (ls *layerState) numberProperty(name string, index int, defaultVal interface{}) extractor {
	return func(symbol *gisproject.Symbol) interface{} {
		sl := symbol.SymbolLayer(index)
		if sl == nil {
			return defaultVal
		}

		val, ok := sl.Properties()[name]
		if !ok {
			ls.session.logger.Warn("layer %q: symbol layer %d (%s) has no property %q, using default value %v",
				ls.layer.Name(), index+1, sl.Kind(), name, defaultVal)
			return defaultVal
		}

		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return val
		}
		return f
	}
}

func (ls *layerState) colorProperty(name string, index int) extractor {
	return func(symbol *gisproject.Symbol) interface{} {
		sl := symbol.SymbolLayer(index)
		if sl == nil {
			return styling.DefaultRGBString
		}

		return toRGBStringOrDefault(sl.Properties()[name])
	}
}

func (ls *layerState) fillColor(index int) extractor {
	return func(symbol *gisproject.Symbol) interface{} {
		sl := symbol.SymbolLayer(index)
		if sl == nil {
			return styling.DefaultRGBString
		}

		// the pattern is the fill of an SVG fill
		if sl.Kind() == gisproject.SymbolLayerKindSVGFill {
			return styling.DefaultRGBString
		}

		return toRGBStringOrDefault(sl.Properties()[gisproject.PropColor])
	}
}

func (ls *layerState) fillOutlineColor(index int) extractor {
	return func(symbol *gisproject.Symbol) interface{} {
		sl := symbol.SymbolLayer(index)
		if sl == nil {
			return styling.DefaultRGBString
		}

		svgFill, ok := sl.(*gisproject.SVGFillSymbolLayer)
		if !ok {
			return toRGBStringOrDefault(sl.Properties()[gisproject.PropOutlineColor])
		}

		if svgFill.SubSymbol == nil {
			return styling.DefaultRGBString
		}

		outline := svgFill.SubSymbol.SymbolLayer(0)
		if outline == nil {
			return styling.DefaultRGBString
		}

		return toRGBStringOrDefault(outline.Properties()[gisproject.PropLineColor])
	}
}

func (ls *layerState) fillPatternIcon(index int) extractor {
	return func(symbol *gisproject.Symbol) interface{} {
		sl := symbol.SymbolLayer(index)
		if sl == nil || sl.Kind() != gisproject.SymbolLayerKindSVGFill {
			return styling.NoIconName
		}

		return ls.iconNameOf(sl)
	}
}

func (ls *layerState) alpha(index int) extractor {
	return func(symbol *gisproject.Symbol) interface{} {
		if symbol.SymbolLayer(index) == nil {
			return 0.0
		}
		return symbol.Alpha
	}
}

func (ls *layerState) lineDash(index int) extractor {
	solid := []float64{0}

	return func(symbol *gisproject.Symbol) interface{} {
		sl := symbol.SymbolLayer(index)
		if sl == nil {
			return solid
		}

		props := sl.Properties()
		penStyle, ok := props[gisproject.PropLineStyle]
		if !ok {
			return solid
		}

		if props[gisproject.PropUseCustomDash] == "1" {
			dashes := parseDashVector(props[gisproject.PropCustomDash])
			if len(dashes) != 0 {
				return dashes
			}
		}

		if penStyle == gisproject.LineStyleSolid || penStyle == "" {
			return solid
		}

		return []float64{3, 3}
	}
}

func (ls *layerState) iconName(index int) extractor {
	return func(symbol *gisproject.Symbol) interface{} {
		sl := symbol.SymbolLayer(index)
		if sl == nil {
			return styling.NoIconName
		}

		return ls.iconNameOf(sl)
	}
}

// iconNameOf is the name of the sprite drawn for the symbol layer, or no_icon when none could be drawn
func (ls *layerState) iconNameOf(sl gisproject.SymbolLayer) string {
	name := ls.spriteName(sl)
	if name == "" {
		return styling.NoIconName
	}
	return name
}

func (ls *layerState) fillTranslate(index int) extractor {
	return func(symbol *gisproject.Symbol) interface{} {
		sl := symbol.SymbolLayer(index)
		if sl == nil {
			return []float64{0, 0}
		}

		val, ok := sl.Properties()[gisproject.PropOffset]
		if !ok {
			return []float64{0, 0}
		}

		x, y, err := gisproject.ParsePoint(val)
		if err != nil {
			ls.session.logger.Warn("layer %q: couldn't read offset of symbol layer %d: %s", ls.layer.Name(), index+1, err.Error())
			return []float64{0, 0}
		}

		return []float64{x, y}
	}
}

func toRGBStringOrDefault(s string) string {
	rgb, err := styling.ToRGBString(s)
	if err != nil {
		return styling.DefaultRGBString
	}
	return rgb
}

func parseDashVector(s string) []float64 {
	var dashes []float64
	for _, fragment := range strings.Split(s, ";") {
		f, err := strconv.ParseFloat(strings.TrimSpace(fragment), 64)
		if err != nil {
			return nil
		}
		dashes = append(dashes, f)
	}
	return dashes
}
