package importer

import (
	"strings"

	"github.com/jamesrr39/glstyle-bridge/gisproject"
	"github.com/jamesrr39/glstyle-bridge/styling"
	"github.com/jamesrr39/glstyle-bridge/styling/mapboxglstyle"
	"github.com/jamesrr39/goutil/errorsx"
)

// ApplyLabeling turns on labels for the layer, configured from a text symbol style layer
func ApplyLabeling(layer gisproject.Layer, style *mapboxglstyle.Layer) errorsx.Error {
	settings := gisproject.ReadLabelSettings(layer)
	settings.Enabled = true

	field, _ := style.Layout.String(mapboxglstyle.PropertyTextField)
	settings.FieldName = strings.NewReplacer("{", "", "}", "").Replace(field)

	if offsetValue, ok := style.Layout.Scalar(mapboxglstyle.PropertyTextOffset); ok {
		offsets, ok := mapboxglstyle.ToFloatSlice(offsetValue)
		if !ok {
			return errorsx.Errorf("style layer %q: couldn't read text offset %v", style.ID, offsetValue)
		}
		if len(offsets) > 0 {
			settings.XOffset = offsets[0]
		}
		if len(offsets) > 1 {
			settings.YOffset = offsets[1]
		}
	}

	if size, ok := style.Layout.Float(mapboxglstyle.PropertyTextSize); ok {
		settings.FontSize = size
	}

	if rotation, ok := style.Layout.Float(mapboxglstyle.PropertyTextRotate); ok && rotation != 0 {
		settings.AngleOffset = -rotation
	}

	if textColor, ok := style.Paint.String(mapboxglstyle.PropertyTextColor); ok {
		c, err := styling.ParseRGBString(textColor)
		if err != nil {
			return errorsx.Wrap(err, "style layer", style.ID, "property", mapboxglstyle.PropertyTextColor)
		}
		settings.TextColor = c
	}

	if haloColor, ok := paintOrLayoutString(style, mapboxglstyle.PropertyTextHaloColor); ok {
		c, err := styling.ParseRGBString(haloColor)
		if err != nil {
			return errorsx.Wrap(err, "style layer", style.ID, "property", mapboxglstyle.PropertyTextHaloColor)
		}
		settings.BufferDraw = true
		settings.BufferColor = c
	}

	if haloWidth, ok := style.Paint.Float(mapboxglstyle.PropertyTextHaloWidth); ok {
		settings.BufferSize = haloWidth
	} else if haloWidth, ok := style.Layout.Float(mapboxglstyle.PropertyTextHaloWidth); ok {
		settings.BufferSize = haloWidth
	}

	if style.MinZoom != nil {
		maxZoom := float64(mapboxglstyle.MaxZoom)
		if style.MaxZoom != nil {
			maxZoom = *style.MaxZoom
		}
		// the most zoomed in level has the smallest scale
		settings.ScaleMin = styling.ToScale(maxZoom)
		settings.ScaleMax = styling.ToScale(*style.MinZoom)
		settings.ScaleVisibility = true
		settings.Placement = gisproject.PlacementOverPoint
	}

	settings.WriteToLayer(layer)
	return nil
}

func paintOrLayoutString(style *mapboxglstyle.Layer, name string) (string, bool) {
	if s, ok := style.Paint.String(name); ok {
		return s, true
	}
	return style.Layout.String(name)
}
