package exporter

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/jamesrr39/glstyle-bridge/gisproject"
	"github.com/jamesrr39/glstyle-bridge/styling"
	"github.com/jamesrr39/glstyle-bridge/styling/mapboxglstyle"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRenderer draws every marker as a square of its size, and panics for one chosen symbol layer
type fakeRenderer struct {
	panicOn gisproject.SymbolLayer
	calls   int
}

func (r *fakeRenderer) RenderSymbolLayer(sl gisproject.SymbolLayer, pixelRatio float64) (image.Image, bool, errorsx.Error) {
	if r.panicOn != nil && sl == r.panicOn {
		panic("cannot draw")
	}

	var size float64
	switch symbolLayer := sl.(type) {
	case *gisproject.SVGMarkerSymbolLayer:
		size = symbolLayer.Size
	case *gisproject.SimpleMarkerSymbolLayer:
		size = symbolLayer.Size
	case *gisproject.SVGFillSymbolLayer:
		size = symbolLayer.PatternWidth
	default:
		return nil, false, nil
	}

	r.calls++
	s := int(size * pixelRatio)
	return image.NewRGBA(image.Rect(0, 0, s, s)), true, nil
}

func newTestSession(renderer *fakeRenderer) (*Session, *bytes.Buffer) {
	buf := bytes.NewBuffer(nil)
	return NewSession(logpkg.NewLogger(buf, logpkg.LogLevelDebug), renderer), buf
}

func scalar(v interface{}) mapboxglstyle.ScalarValue {
	return mapboxglstyle.ScalarValue{Value: v}
}

func TestProcessLayer_singleSymbolPolygon(t *testing.T) {
	layer := gisproject.NewVectorLayer("Parks 2020", gisproject.GeometryTypePolygon, nil)
	layer.SetRenderer(&gisproject.SingleSymbolRenderer{
		Symbol: gisproject.NewSymbol(1, &gisproject.SimpleFillSymbolLayer{
			Color:        color.RGBA{0, 128, 0, 255},
			OutlineColor: color.RGBA{0, 0, 0, 255},
			Unit:         styling.OutputUnitPixel,
		}),
	})

	session, _ := newTestSession(&fakeRenderer{})
	styleLayers := session.ProcessLayer(layer)
	require.Len(t, styleLayers, 1)

	styleLayer := styleLayers[0]
	assert.Equal(t, "parks2020:0", styleLayer.ID)
	assert.Equal(t, mapboxglstyle.LayerTypeFill, styleLayer.Type)
	assert.Equal(t, "parks2020", styleLayer.Source)
	assert.Nil(t, styleLayer.MinZoom)
	assert.Nil(t, styleLayer.MaxZoom)

	assert.Equal(t, mapboxglstyle.Properties{
		mapboxglstyle.PropertyFillColor:        scalar("rgb(0,128,0)"),
		mapboxglstyle.PropertyFillOutlineColor: scalar("rgb(0,0,0)"),
		mapboxglstyle.PropertyFillOpacity:      scalar(1.0),
		mapboxglstyle.PropertyFillTranslate:    scalar([]float64{0, 0}),
	}, styleLayer.Paint)

	assert.Equal(t, 0, session.Sprites().Len())
}

func TestProcessLayer_categorizedLine(t *testing.T) {
	layer := gisproject.NewVectorLayer("Roads", gisproject.GeometryTypeLine, nil)
	layer.SetRenderer(&gisproject.CategorizedRenderer{
		Attribute: "class",
		Categories: []*gisproject.Category{
			{Value: "A", Label: "A", Symbol: gisproject.NewSymbol(1, &gisproject.SimpleLineSymbolLayer{
				Color: color.RGBA{255, 0, 0, 255}, Width: 1, WidthUnit: styling.OutputUnitPixel, PenStyle: gisproject.LineStyleSolid,
			})},
			{Value: "B", Label: "B", Symbol: gisproject.NewSymbol(0.5, &gisproject.SimpleLineSymbolLayer{
				Color: color.RGBA{0, 0, 255, 255}, Width: 2, WidthUnit: styling.OutputUnitMM, PenStyle: "dash",
			})},
		},
	})

	session, logBuf := newTestSession(&fakeRenderer{})
	styleLayers := session.ProcessLayer(layer)
	require.Len(t, styleLayers, 1)

	paint := styleLayers[0].Paint
	assert.Equal(t, mapboxglstyle.LayerTypeLine, styleLayers[0].Type)

	lineColor, ok := paint.StopFunction(mapboxglstyle.PropertyLineColor)
	require.True(t, ok)
	assert.Equal(t, &mapboxglstyle.StopFunction{
		Property: "class",
		Type:     mapboxglstyle.FunctionTypeCategorical,
		Stops:    []mapboxglstyle.Stop{{Key: "A", Value: "rgb(255,0,0)"}, {Key: "B", Value: "rgb(0,0,255)"}},
	}, lineColor)

	lineWidth, ok := paint.StopFunction(mapboxglstyle.PropertyLineWidth)
	require.True(t, ok)
	assert.Equal(t, []mapboxglstyle.Stop{{Key: "A", Value: 1.0}, {Key: "B", Value: 2.0}}, lineWidth.Stops)

	opacity, ok := paint.StopFunction(mapboxglstyle.PropertyLineOpacity)
	require.True(t, ok)
	assert.Equal(t, []mapboxglstyle.Stop{{Key: "A", Value: 1.0}, {Key: "B", Value: 0.5}}, opacity.Stops)

	dashes, ok := paint.StopFunction(mapboxglstyle.PropertyLineDashArray)
	require.True(t, ok)
	assert.Equal(t, []mapboxglstyle.Stop{{Key: "A", Value: []float64{0}}, {Key: "B", Value: []float64{3, 3}}}, dashes.Stops)

	assert.Contains(t, logBuf.String(), `line width unit is "MM"`)
}

func TestProcessLayer_graduatedPoints(t *testing.T) {
	small := &gisproject.SimpleMarkerSymbolLayer{Shape: gisproject.MarkerShapeCircle, Size: 4}
	large := &gisproject.SVGMarkerSymbolLayer{Path: "/icons/tree.svg", Size: 8}

	layer := gisproject.NewVectorLayer("Trees", gisproject.GeometryTypePoint, nil)
	layer.SetRenderer(&gisproject.GraduatedRenderer{
		Attribute: "height",
		Ranges: []*gisproject.Range{
			{Lower: 0, Upper: 10, Label: "0-10", Symbol: gisproject.NewSymbol(1, small)},
			{Lower: 10, Upper: 20, Label: "10-20", Symbol: gisproject.NewSymbol(1, large)},
		},
	})
	layer.SetScaleVisibility(0, 1000000)

	session, _ := newTestSession(&fakeRenderer{})
	styleLayers := session.ProcessLayer(layer)
	require.Len(t, styleLayers, 1)

	iconImage, ok := styleLayers[0].Paint.StopFunction(mapboxglstyle.PropertyIconImage)
	require.True(t, ok)
	assert.Equal(t, mapboxglstyle.FunctionTypeInterval, iconImage.Type)
	assert.Equal(t, []mapboxglstyle.Stop{{Key: 0.0, Value: "nonsvg_0"}, {Key: 10.0, Value: "tree"}}, iconImage.Stops)

	require.NotNil(t, styleLayers[0].MinZoom)
	assert.Equal(t, 9.0, *styleLayers[0].MinZoom)
	assert.Equal(t, 24.0, *styleLayers[0].MaxZoom)

	require.Equal(t, 2, session.Sprites().Len())
	assert.Equal(t, "nonsvg_0", session.Sprites().Sprites()[0].Name)
	assert.Equal(t, 8, session.Sprites().Sprites()[0].Image2x.Bounds().Dx())
}

func TestProcessLayer_nonSVGNamesReused(t *testing.T) {
	marker := &gisproject.SimpleMarkerSymbolLayer{Shape: gisproject.MarkerShapeSquare, Size: 4}

	renderer := &fakeRenderer{}
	session, _ := newTestSession(renderer)

	for _, name := range []string{"first", "second"} {
		layer := gisproject.NewVectorLayer(name, gisproject.GeometryTypePoint, nil)
		layer.SetRenderer(&gisproject.SingleSymbolRenderer{Symbol: gisproject.NewSymbol(1, marker)})

		styleLayers := session.ProcessLayer(layer)
		require.Len(t, styleLayers, 1)
		iconImage, ok := styleLayers[0].Paint.String(mapboxglstyle.PropertyIconImage)
		require.True(t, ok)
		assert.Equal(t, "nonsvg_0", iconImage)
	}

	other := gisproject.NewVectorLayer("third", gisproject.GeometryTypePoint, nil)
	other.SetRenderer(&gisproject.SingleSymbolRenderer{Symbol: gisproject.NewSymbol(1, &gisproject.SimpleMarkerSymbolLayer{Size: 2})})
	styleLayers := session.ProcessLayer(other)
	iconImage, _ := styleLayers[0].Paint.String(mapboxglstyle.PropertyIconImage)
	assert.Equal(t, "nonsvg_1", iconImage)

	assert.Equal(t, 2, session.Sprites().Len())
	// 1x and 2x, once per distinct symbol layer
	assert.Equal(t, 4, renderer.calls)
}

func TestProcessLayer_noSpriteFallsBackToNoIcon(t *testing.T) {
	layer := gisproject.NewVectorLayer("Points", gisproject.GeometryTypePoint, nil)
	layer.SetRenderer(&gisproject.SingleSymbolRenderer{
		Symbol: gisproject.NewSymbol(1, &gisproject.OtherSymbolLayer{ClassName: "EllipseMarker"}),
	})

	session, _ := newTestSession(&fakeRenderer{})
	styleLayers := session.ProcessLayer(layer)
	require.Len(t, styleLayers, 1)
	assert.False(t, styleLayers[0].Paint.Has(mapboxglstyle.PropertyIconImage))
	assert.Equal(t, 0, session.Sprites().Len())
}

func TestProcessLayer_svgFill(t *testing.T) {
	outline := gisproject.NewSymbol(1, &gisproject.SimpleLineSymbolLayer{Color: color.RGBA{10, 20, 30, 255}, Width: 1})
	layer := gisproject.NewVectorLayer("Forest", gisproject.GeometryTypePolygon, nil)
	layer.SetRenderer(&gisproject.SingleSymbolRenderer{
		Symbol: gisproject.NewSymbol(0.8, &gisproject.SVGFillSymbolLayer{
			SVGFilePath:  "/patterns/trees.svg",
			PatternWidth: 12,
			SubSymbol:    outline,
		}),
	})

	session, _ := newTestSession(&fakeRenderer{})
	styleLayers := session.ProcessLayer(layer)
	require.Len(t, styleLayers, 1)

	paint := styleLayers[0].Paint
	assert.Equal(t, scalar("trees"), paint[mapboxglstyle.PropertyFillPattern])
	assert.Equal(t, scalar(styling.DefaultRGBString), paint[mapboxglstyle.PropertyFillColor])
	assert.Equal(t, scalar("rgb(10,20,30)"), paint[mapboxglstyle.PropertyFillOutlineColor])
	assert.Equal(t, scalar(0.8), paint[mapboxglstyle.PropertyFillOpacity])
	assert.True(t, session.Sprites().Has("trees"))
}

func TestProcessLayer_multipleSymbolLayers(t *testing.T) {
	layer := gisproject.NewVectorLayer("Rivers", gisproject.GeometryTypeLine, nil)
	layer.SetRenderer(&gisproject.CategorizedRenderer{
		Attribute: "kind",
		Categories: []*gisproject.Category{
			{Value: "big", Label: "big", Symbol: gisproject.NewSymbol(1,
				&gisproject.SimpleLineSymbolLayer{Color: color.RGBA{0, 0, 255, 255}, Width: 3},
				&gisproject.SimpleLineSymbolLayer{Color: color.RGBA{255, 255, 255, 255}, Width: 1, UseCustomDash: true, CustomDash: []float64{2, 1}, PenStyle: "dash"},
			)},
			{Value: "small", Label: "small", Symbol: gisproject.NewSymbol(1,
				&gisproject.SimpleLineSymbolLayer{Color: color.RGBA{0, 0, 128, 255}, Width: 1},
			)},
		},
	})

	session, _ := newTestSession(&fakeRenderer{})
	styleLayers := session.ProcessLayer(layer)
	require.Len(t, styleLayers, 2)
	assert.Equal(t, "rivers:0", styleLayers[0].ID)
	assert.Equal(t, "rivers:1", styleLayers[1].ID)

	// the small class has no second symbol layer, so it gets the defaults
	width, ok := styleLayers[1].Paint.StopFunction(mapboxglstyle.PropertyLineWidth)
	require.True(t, ok)
	assert.Equal(t, []mapboxglstyle.Stop{{Key: "big", Value: 1.0}, {Key: "small", Value: 1.0}}, width.Stops)

	opacity, ok := styleLayers[1].Paint.StopFunction(mapboxglstyle.PropertyLineOpacity)
	require.True(t, ok)
	assert.Equal(t, []mapboxglstyle.Stop{{Key: "big", Value: 1.0}, {Key: "small", Value: 0.0}}, opacity.Stops)

	dashes, ok := styleLayers[1].Paint.StopFunction(mapboxglstyle.PropertyLineDashArray)
	require.True(t, ok)
	assert.Equal(t, []mapboxglstyle.Stop{{Key: "big", Value: []float64{2, 1}}, {Key: "small", Value: []float64{0}}}, dashes.Stops)
}

func TestProcessLayer_unsupportedRenderer(t *testing.T) {
	layer := gisproject.NewVectorLayer("Heat", gisproject.GeometryTypePoint, nil)
	layer.SetRenderer(&gisproject.UnsupportedRenderer{Kind: "heatmapRenderer"})
	layer.SetCustomProperty(gisproject.LabelingEnabled, "true")

	session, logBuf := newTestSession(&fakeRenderer{})
	assert.Empty(t, session.ProcessLayer(layer))
	assert.Contains(t, logBuf.String(), `unsupported renderer "heatmapRenderer"`)
}

func TestProcessLayer_raster(t *testing.T) {
	layer := gisproject.NewRasterLayer("OSM Tiles", "url=http://example.com/wms&layers=osm", gisproject.CRSWebMercator)

	session, _ := newTestSession(&fakeRenderer{})
	styleLayers := session.ProcessLayer(layer)
	require.Len(t, styleLayers, 1)
	assert.Equal(t, &mapboxglstyle.Layer{
		ID:     "osmtiles",
		Type:   mapboxglstyle.LayerTypeRaster,
		Source: "osmtiles",
		Paint:  mapboxglstyle.Properties{},
	}, styleLayers[0])
}

func TestProcessLayer_panicIsolated(t *testing.T) {
	good := &gisproject.SimpleMarkerSymbolLayer{Size: 4}
	bad := &gisproject.SimpleMarkerSymbolLayer{Size: 6}

	layer := gisproject.NewVectorLayer("Broken", gisproject.GeometryTypePoint, nil)
	layer.SetRenderer(&gisproject.CategorizedRenderer{
		Attribute: "kind",
		Categories: []*gisproject.Category{
			{Value: "a", Label: "a", Symbol: gisproject.NewSymbol(1, good)},
			{Value: "b", Label: "b", Symbol: gisproject.NewSymbol(1, bad)},
		},
	})

	session, logBuf := newTestSession(&fakeRenderer{panicOn: bad})
	assert.Nil(t, session.ProcessLayer(layer))
	assert.Contains(t, logBuf.String(), `failed to export layer "Broken": cannot draw`)

	// sprites drawn before the failure are not kept
	assert.Equal(t, 0, session.Sprites().Len())

	// the session can still be used for other layers
	okLayer := gisproject.NewVectorLayer("Fine", gisproject.GeometryTypePoint, nil)
	okLayer.SetRenderer(&gisproject.SingleSymbolRenderer{Symbol: gisproject.NewSymbol(1, good)})
	require.Len(t, session.ProcessLayer(okLayer), 1)
	assert.Equal(t, 1, session.Sprites().Len())
}

func TestProcessLayer_labeling(t *testing.T) {
	layer := gisproject.NewVectorLayer("Cities", gisproject.GeometryTypePoint, nil)
	layer.SetRenderer(&gisproject.SingleSymbolRenderer{Symbol: gisproject.NewSymbol(1, &gisproject.SimpleMarkerSymbolLayer{Size: 4})})
	layer.SetTransparency(51)

	settings := &gisproject.LabelSettings{
		Enabled:         true,
		FieldName:       "name",
		FontSize:        12,
		TextColor:       color.RGBA{10, 20, 30, 255},
		BufferDraw:      true,
		BufferColor:     color.RGBA{255, 255, 255, 255},
		BufferSize:      1.5,
		AngleOffset:     45,
		XOffset:         1,
		YOffset:         -2,
		ScaleVisibility: true,
		ScaleMin:        1000000,
		ScaleMax:        10000000,
	}
	settings.WriteToLayer(layer)

	session, _ := newTestSession(&fakeRenderer{})
	styleLayers := session.ProcessLayer(layer)
	require.Len(t, styleLayers, 2)

	label := styleLayers[1]
	assert.Equal(t, "txt_cities", label.ID)
	assert.Equal(t, "cities", label.Source)
	assert.Equal(t, mapboxglstyle.LayerTypeSymbol, label.Type)

	assert.Equal(t, mapboxglstyle.Properties{
		mapboxglstyle.PropertyTextField:  scalar("{name}"),
		mapboxglstyle.PropertyTextSize:   scalar(12.0),
		mapboxglstyle.PropertyTextFont:   scalar([]string{"Arial Normal"}),
		mapboxglstyle.PropertyTextRotate: scalar(-45.0),
		mapboxglstyle.PropertyTextOffset: scalar([]float64{1, -2}),
	}, label.Layout)

	assert.Equal(t, mapboxglstyle.Properties{
		mapboxglstyle.PropertyTextColor:     scalar("rgba(10, 20, 30, 255)"),
		mapboxglstyle.PropertyTextHaloColor: scalar("rgba(255, 255, 255, 255)"),
		mapboxglstyle.PropertyTextHaloWidth: scalar(1.5),
		mapboxglstyle.PropertyTextOpacity:   scalar(0.8),
	}, label.Paint)

	require.NotNil(t, label.MinZoom)
	assert.Equal(t, 6.0, *label.MinZoom)
	assert.Equal(t, 9.0, *label.MaxZoom)
}

func TestCheckCompatibility(t *testing.T) {
	supported := gisproject.NewVectorLayer("Parks", gisproject.GeometryTypePolygon, nil)
	supported.SetRenderer(&gisproject.SingleSymbolRenderer{Symbol: gisproject.NewSymbol(1,
		&gisproject.SimpleFillSymbolLayer{Unit: styling.OutputUnitMM},
	)})

	compatible, message := CheckCompatibility(supported)
	assert.True(t, compatible)
	assert.Contains(t, message, `unit is "MM"`)

	unsupported := gisproject.NewVectorLayer("Heat", gisproject.GeometryTypePoint, nil)
	unsupported.SetRenderer(&gisproject.UnsupportedRenderer{Kind: "heatmapRenderer"})
	compatible, message = CheckCompatibility(unsupported)
	assert.False(t, compatible)
	assert.Equal(t, "unsupported renderer: heatmapRenderer", message)

	compatible, message = CheckCompatibility(gisproject.NewRasterLayer("OSM", "", gisproject.CRSWebMercator))
	assert.True(t, compatible)
	assert.Empty(t, message)
}
