package gisproject

import (
	"image/color"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSymbol_WithSymbolLayer(t *testing.T) {
	symbol := NewSymbol(1, &SimpleLineSymbolLayer{Width: 1, CustomDash: []float64{1, 2}})

	updated := symbol.WithSymbolLayer(&SimpleLineSymbolLayer{Width: 2})

	assert.Equal(t, 1, symbol.SymbolLayerCount())
	assert.Equal(t, 2, updated.SymbolLayerCount())

	updated.Layers[0].(*SimpleLineSymbolLayer).CustomDash[0] = 100
	assert.Equal(t, 1.0, symbol.Layers[0].(*SimpleLineSymbolLayer).CustomDash[0])

	assert.Nil(t, symbol.SymbolLayer(1))
	assert.Nil(t, symbol.SymbolLayer(-1))
}

func TestCategorizedRenderer_CloneRenderer(t *testing.T) {
	renderer := &CategorizedRenderer{
		Attribute: "class",
		Categories: []*Category{
			{"A", "A", NewSymbol(1, &SimpleFillSymbolLayer{Color: color.RGBA{255, 0, 0, 255}})},
		},
	}

	clone := renderer.CloneRenderer().(*CategorizedRenderer)
	clone.Categories[0].Symbol.Layers[0].(*SimpleFillSymbolLayer).Color = color.RGBA{0, 0, 255, 255}
	clone.Categories[0].Label = "changed"

	assert.Equal(t, color.RGBA{255, 0, 0, 255}, renderer.Categories[0].Symbol.Layers[0].(*SimpleFillSymbolLayer).Color)
	assert.Equal(t, 0, renderer.CategoryByLabel("A"))
	assert.Equal(t, -1, renderer.CategoryByLabel("a"))
}

func TestNewSymbolLayerFromProperties(t *testing.T) {
	layers := []SymbolLayer{
		&SimpleFillSymbolLayer{Color: color.RGBA{1, 2, 3, 255}, OutlineColor: color.RGBA{4, 5, 6, 255}, OutlineWidth: 0.5, Offset: [2]float64{1, -1}, Unit: "MM"},
		&SVGFillSymbolLayer{SVGFilePath: "/svg/grass.svg", PatternWidth: 12, FillColor: color.RGBA{0, 0, 0, 255}, OutlineColor: color.RGBA{0, 0, 0, 255}, Unit: "Pixel"},
		&SimpleLineSymbolLayer{Color: color.RGBA{9, 9, 9, 255}, Width: 1.5, WidthUnit: "Pixel", Offset: 2, PenStyle: "dash", UseCustomDash: true, CustomDash: []float64{4, 2}},
		&SVGMarkerSymbolLayer{Path: "/svg/tree.svg", Size: 8, FillColor: color.RGBA{0, 255, 0, 255}, OutlineColor: color.RGBA{0, 0, 0, 255}, Unit: "Pixel"},
		&SimpleMarkerSymbolLayer{Shape: MarkerShapeDiamond, Size: 6, Color: color.RGBA{255, 0, 0, 255}, OutlineColor: color.RGBA{0, 0, 0, 255}, OutlineWidth: 1, Unit: "Pixel"},
		&FontMarkerSymbolLayer{Character: "A", FontFamily: "DejaVu Sans", Size: 10, Color: color.RGBA{0, 0, 255, 255}, Unit: "Pixel"},
		&OtherSymbolLayer{ClassName: "CentroidFill", Props: map[string]string{"point_on_surface": "0"}},
	}

	for _, sl := range layers {
		t.Run(string(sl.Kind()), func(t *testing.T) {
			rebuilt, err := NewSymbolLayerFromProperties(sl.Kind(), sl.Properties(), nil)
			require.NoError(t, err)
			assert.Equal(t, sl, rebuilt)
		})
	}
}

func TestSVGNames(t *testing.T) {
	assert.Equal(t, "grass", (&SVGFillSymbolLayer{SVGFilePath: "/usr/share/svg/grass.svg"}).SVGName())
	assert.Equal(t, "tree", (&SVGMarkerSymbolLayer{Path: "tree.svg"}).SVGName())
	assert.Equal(t, "", (&SVGMarkerSymbolLayer{}).SVGName())
}

func TestLabelSettings(t *testing.T) {
	layer := NewVectorLayer("places", GeometryTypePoint, nil)

	settings := ReadLabelSettings(layer)
	assert.False(t, settings.Enabled)
	assert.Equal(t, float64(DefaultLabelFontSize), settings.FontSize)

	settings.Enabled = true
	settings.FieldName = "name"
	settings.FontSize = 12
	settings.TextColor = color.RGBA{10, 20, 30, 255}
	settings.XOffset = 1
	settings.YOffset = -2
	settings.ScaleVisibility = true
	settings.ScaleMin = 1000
	settings.ScaleMax = 100000
	settings.Placement = PlacementOverPoint
	settings.WriteToLayer(layer)

	val, ok := layer.CustomProperty(LabelingTextColorG)
	require.True(t, ok)
	assert.Equal(t, "20", val)

	assert.Equal(t, settings, ReadLabelSettings(layer))
}

func TestGeometryTypeOf(t *testing.T) {
	tests := []struct {
		geometry     orb.Geometry
		expected     GeometryType
		isMultiPoint bool
	}{
		{orb.Point{1, 2}, GeometryTypePoint, false},
		{orb.MultiPoint{{1, 2}}, GeometryTypePoint, true},
		{orb.LineString{{1, 2}, {3, 4}}, GeometryTypeLine, false},
		{orb.MultiPolygon{}, GeometryTypePolygon, false},
		{orb.Collection{orb.LineString{}}, GeometryTypeLine, false},
		{orb.Collection{}, GeometryTypeUnknown, false},
	}
	for _, tt := range tests {
		geometryType, isMultiPoint := GeometryTypeOf(tt.geometry)
		assert.Equal(t, tt.expected, geometryType)
		assert.Equal(t, tt.isMultiPoint, isMultiPoint)
	}
}
