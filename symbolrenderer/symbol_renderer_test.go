package symbolrenderer

import (
	"image"
	"image/color"
	"testing"

	"github.com/jamesrr39/glstyle-bridge/gisproject"
	"github.com/jamesrr39/glstyle-bridge/styling"
	"github.com/jamesrr39/goutil/gofs/mockfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSquareSVG = `<svg xmlns="http://www.w3.org/2000/svg" width="10" height="10" viewBox="0 0 10 10">
<rect x="0" y="0" width="10" height="10" fill="param(fill)"/>
</svg>`

func TestRenderSymbolLayer_svgMarker(t *testing.T) {
	fs := mockfs.NewMockFs()
	require.NoError(t, fs.WriteFile("/svg/square.svg", []byte(testSquareSVG), 0644))

	renderer := NewRenderer(fs)
	sl := &gisproject.SVGMarkerSymbolLayer{
		Path:      "/svg/square.svg",
		Size:      8,
		FillColor: color.RGBA{255, 0, 0, 255},
		Unit:      styling.OutputUnitPixel,
	}

	img, ok, err := renderer.RenderSymbolLayer(sl, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, image.Rect(0, 0, 8, 8), img.Bounds())

	r, g, b, a := img.At(4, 4).RGBA()
	assert.Equal(t, []uint32{0xffff, 0, 0, 0xffff}, []uint32{r, g, b, a})

	img2x, ok, err := renderer.RenderSymbolLayer(sl, 2)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, image.Rect(0, 0, 16, 16), img2x.Bounds())
}

func TestRenderSymbolLayer_svgFill(t *testing.T) {
	fs := mockfs.NewMockFs()
	require.NoError(t, fs.WriteFile("/svg/square.svg", []byte(testSquareSVG), 0644))

	sl := &gisproject.SVGFillSymbolLayer{
		SVGFilePath:  "/svg/square.svg",
		PatternWidth: 6,
		FillColor:    color.RGBA{0, 0, 255, 255},
	}

	img, ok, err := NewRenderer(fs).RenderSymbolLayer(sl, 2)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, image.Rect(0, 0, 12, 12), img.Bounds())
}

func TestRenderSymbolLayer_missingSVG(t *testing.T) {
	_, ok, err := NewRenderer(mockfs.NewMockFs()).RenderSymbolLayer(&gisproject.SVGMarkerSymbolLayer{Path: "/svg/missing.svg", Size: 4}, 1)
	require.Error(t, err)
	assert.False(t, ok)
}

func TestRenderSymbolLayer_simpleMarker(t *testing.T) {
	shapes := []gisproject.MarkerShape{
		gisproject.MarkerShapeCircle,
		gisproject.MarkerShapeSquare,
		gisproject.MarkerShapeDiamond,
		gisproject.MarkerShapeTriangle,
	}

	for _, shape := range shapes {
		t.Run(string(shape), func(t *testing.T) {
			sl := &gisproject.SimpleMarkerSymbolLayer{
				Shape: shape,
				Size:  10,
				Color: color.RGBA{0, 255, 0, 255},
			}

			img, ok, err := NewRenderer(mockfs.NewMockFs()).RenderSymbolLayer(sl, 2)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, image.Rect(0, 0, 20, 20), img.Bounds())

			// the middle is always inside the shape; the corner never is, except for squares
			_, g, _, _ := img.At(10, 12).RGBA()
			assert.Equal(t, uint32(0xffff), g)
			if shape != gisproject.MarkerShapeSquare {
				_, _, _, a := img.At(0, 0).RGBA()
				assert.Equal(t, uint32(0), a)
			}
		})
	}
}

func TestRenderSymbolLayer_unknownMarkerShape(t *testing.T) {
	_, _, err := NewRenderer(mockfs.NewMockFs()).RenderSymbolLayer(&gisproject.SimpleMarkerSymbolLayer{Shape: "star", Size: 4}, 1)
	require.Error(t, err)
}

func TestRenderSymbolLayer_notResizable(t *testing.T) {
	layers := []gisproject.SymbolLayer{
		&gisproject.SimpleFillSymbolLayer{},
		&gisproject.SimpleLineSymbolLayer{Width: 2},
		&gisproject.OtherSymbolLayer{ClassName: "GradientFill"},
	}

	for _, sl := range layers {
		img, ok, err := NewRenderer(mockfs.NewMockFs()).RenderSymbolLayer(sl, 1)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, img)
	}
}

func TestRenderSymbolLayer_fontMarker(t *testing.T) {
	sl := &gisproject.FontMarkerSymbolLayer{
		Character: "W",
		Size:      16,
		Color:     color.RGBA{0, 0, 255, 255},
		Unit:      styling.OutputUnitPixel,
	}

	img, ok, err := NewRenderer(mockfs.NewMockFs()).RenderSymbolLayer(sl, 2)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, image.Rect(0, 0, 32, 32), img.Bounds())

	var drawnPixels int
	for x := 0; x < 32; x++ {
		for y := 0; y < 32; y++ {
			_, _, b, a := img.At(x, y).RGBA()
			if a == 0 {
				continue
			}
			drawnPixels++
			assert.Equal(t, a, b)
		}
	}
	assert.True(t, drawnPixels > 0)
}

func TestRenderSymbolLayer_fontMarkerNoCharacter(t *testing.T) {
	img, ok, err := NewRenderer(mockfs.NewMockFs()).RenderSymbolLayer(&gisproject.FontMarkerSymbolLayer{Size: 4}, 1)
	require.NoError(t, err)
	require.True(t, ok)

	_, _, _, a := img.At(2, 2).RGBA()
	assert.Equal(t, uint32(0), a)
}
