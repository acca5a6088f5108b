package mapboxglstyle

import (
	"github.com/jamesrr39/goutil/errorsx"
)

type LayerType string

const (
	LayerTypeBackground    LayerType = "background"
	LayerTypeFill          LayerType = "fill"
	LayerTypeLine          LayerType = "line"
	LayerTypeSymbol        LayerType = "symbol"
	LayerTypeRaster        LayerType = "raster"
	LayerTypeCircle        LayerType = "circle"
	LayerTypeFillExtrusion LayerType = "fill-extrusion"
	LayerTypeHeatmap       LayerType = "heatmap"
	LayerTypeHillshade     LayerType = "hillshade"
)

const (
	MinZoom = 0
	MaxZoom = 24
)

type Layer struct {
	ID      string     `json:"id"`
	Type    LayerType  `json:"type"`
	Source  string     `json:"source"`
	Layout  Properties `json:"layout,omitempty"`
	Paint   Properties `json:"paint"`
	MinZoom *float64   `json:"minzoom,omitempty"`
	MaxZoom *float64   `json:"maxzoom,omitempty"`
}

func NewLayer(id string, layerType LayerType, source string) *Layer {
	return &Layer{
		ID:     id,
		Type:   layerType,
		Source: source,
		Paint:  make(Properties),
	}
}

// SetZoomRange sets minzoom and maxzoom, in that order regardless of the order they are given in.
// Zoom levels are clamped to what Mapbox GL accepts.
func (l *Layer) SetZoomRange(a, b float64) {
	if b < a {
		a, b = b, a
	}
	a = clampZoom(a)
	b = clampZoom(b)
	l.MinZoom = &a
	l.MaxZoom = &b
}

func clampZoom(z float64) float64 {
	if z < MinZoom {
		return MinZoom
	}
	if z > MaxZoom {
		return MaxZoom
	}
	return z
}

func (l *Layer) Validate() errorsx.Error {
	if l.MaxZoom != nil && l.MinZoom != nil {
		if *l.MaxZoom < *l.MinZoom {
			return errorsx.Errorf("max zoom is smaller than min zoom")
		}
	}

	if l.MaxZoom != nil && (*l.MaxZoom < MinZoom || *l.MaxZoom > MaxZoom) {
		return errorsx.Errorf("max zoom must be between 0 and 24 (inclusive) but was %f", *l.MaxZoom)
	}

	if l.MinZoom != nil && (*l.MinZoom < MinZoom || *l.MinZoom > MaxZoom) {
		return errorsx.Errorf("min zoom must be between 0 and 24 (inclusive) but was %f", *l.MinZoom)
	}

	return nil
}
