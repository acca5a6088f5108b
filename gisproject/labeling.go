package gisproject

import (
	"image/color"
	"strconv"
	"strings"
)

// custom property keys the host stores its label settings under
const (
	LabelingEnabled         = "labeling/enabled"
	LabelingFieldName       = "labeling/fieldName"
	LabelingFontSize        = "labeling/fontSize"
	LabelingTextColorR      = "labeling/textColorR"
	LabelingTextColorG      = "labeling/textColorG"
	LabelingTextColorB      = "labeling/textColorB"
	LabelingBufferDraw      = "labeling/bufferDraw"
	LabelingBufferColorR    = "labeling/bufferColorR"
	LabelingBufferColorG    = "labeling/bufferColorG"
	LabelingBufferColorB    = "labeling/bufferColorB"
	LabelingBufferSize      = "labeling/bufferSize"
	LabelingAngleOffset     = "labeling/angleOffset"
	LabelingXOffset         = "labeling/xOffset"
	LabelingYOffset         = "labeling/yOffset"
	LabelingScaleVisibility = "labeling/scaleVisibility"
	LabelingScaleMin        = "labeling/scaleMin"
	LabelingScaleMax        = "labeling/scaleMax"
	LabelingPlacement       = "labeling/placement"
)

const (
	PlacementOverPoint = "over_point"

	DefaultLabelFontSize = 1
)

type LabelSettings struct {
	Enabled         bool
	FieldName       string
	FontSize        float64
	TextColor       color.RGBA
	BufferDraw      bool
	BufferColor     color.RGBA
	BufferSize      float64
	AngleOffset     float64
	XOffset         float64
	YOffset         float64
	ScaleVisibility bool
	ScaleMin        float64
	ScaleMax        float64
	Placement       string
}

// ReadLabelSettings reads the label settings from a layer's custom properties.
// Missing or unreadable values are left at their zero value, except the font size, which defaults to DefaultLabelFontSize.
func ReadLabelSettings(layer Layer) *LabelSettings {
	r := labelPropertyReader{layer}

	settings := &LabelSettings{
		Enabled:         r.bool(LabelingEnabled),
		FontSize:        r.float(LabelingFontSize, DefaultLabelFontSize),
		TextColor:       r.color(LabelingTextColorR, LabelingTextColorG, LabelingTextColorB),
		BufferDraw:      r.bool(LabelingBufferDraw),
		BufferColor:     r.color(LabelingBufferColorR, LabelingBufferColorG, LabelingBufferColorB),
		BufferSize:      r.float(LabelingBufferSize, 0),
		AngleOffset:     r.float(LabelingAngleOffset, 0),
		XOffset:         r.float(LabelingXOffset, 0),
		YOffset:         r.float(LabelingYOffset, 0),
		ScaleVisibility: r.bool(LabelingScaleVisibility),
		ScaleMin:        r.float(LabelingScaleMin, 0),
		ScaleMax:        r.float(LabelingScaleMax, 0),
	}
	settings.FieldName, _ = layer.CustomProperty(LabelingFieldName)
	settings.Placement, _ = layer.CustomProperty(LabelingPlacement)

	return settings
}

// WriteToLayer stores the settings as custom properties on the layer
func (s *LabelSettings) WriteToLayer(layer Layer) {
	setBool := func(key string, val bool) {
		layer.SetCustomProperty(key, strconv.FormatBool(val))
	}
	setFloat := func(key string, val float64) {
		layer.SetCustomProperty(key, formatFloat(val))
	}
	setColor := func(keyR, keyG, keyB string, c color.RGBA) {
		layer.SetCustomProperty(keyR, strconv.Itoa(int(c.R)))
		layer.SetCustomProperty(keyG, strconv.Itoa(int(c.G)))
		layer.SetCustomProperty(keyB, strconv.Itoa(int(c.B)))
	}

	setBool(LabelingEnabled, s.Enabled)
	layer.SetCustomProperty(LabelingFieldName, s.FieldName)
	setFloat(LabelingFontSize, s.FontSize)
	setColor(LabelingTextColorR, LabelingTextColorG, LabelingTextColorB, s.TextColor)
	setBool(LabelingBufferDraw, s.BufferDraw)
	setColor(LabelingBufferColorR, LabelingBufferColorG, LabelingBufferColorB, s.BufferColor)
	setFloat(LabelingBufferSize, s.BufferSize)
	setFloat(LabelingAngleOffset, s.AngleOffset)
	setFloat(LabelingXOffset, s.XOffset)
	setFloat(LabelingYOffset, s.YOffset)
	setBool(LabelingScaleVisibility, s.ScaleVisibility)
	setFloat(LabelingScaleMin, s.ScaleMin)
	setFloat(LabelingScaleMax, s.ScaleMax)
	if s.Placement != "" {
		layer.SetCustomProperty(LabelingPlacement, s.Placement)
	}
}

type labelPropertyReader struct {
	layer Layer
}

func (r labelPropertyReader) bool(key string) bool {
	val, _ := r.layer.CustomProperty(key)
	return strings.ToLower(strings.TrimSpace(val)) == "true"
}

func (r labelPropertyReader) float(key string, defaultVal float64) float64 {
	val, ok := r.layer.CustomProperty(key)
	if !ok {
		return defaultVal
	}

	f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func (r labelPropertyReader) color(keyR, keyG, keyB string) color.RGBA {
	component := func(key string) uint8 {
		val, _ := r.layer.CustomProperty(key)
		i, err := strconv.ParseUint(strings.TrimSpace(val), 10, 8)
		if err != nil {
			return 0
		}
		return uint8(i)
	}

	return color.RGBA{component(keyR), component(keyG), component(keyB), 0xff}
}
