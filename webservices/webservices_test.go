package webservices

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	tracing "github.com/jamesrr39/go-tracing"
	"github.com/jamesrr39/glstyle-bridge/glproject"
	"github.com/jamesrr39/glstyle-bridge/sprite"
	"github.com/jamesrr39/glstyle-bridge/styling/mapboxglstyle"
	"github.com/jamesrr39/goutil/gofs"
	"github.com/jamesrr39/goutil/gofs/mockfs"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSquare(size int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for x := 0; x < size; x++ {
		for y := 0; y < size; y++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func writeTestFolder(t *testing.T, fs gofs.Fs, folder string, withSprites bool) *glproject.PathsConfig {
	pathsConfig := glproject.NewPathsConfig(folder)
	require.Nil(t, pathsConfig.EnsurePaths(fs))

	doc := mapboxglstyle.NewStyleDocument("Test project")
	doc.Sources["parks"] = &mapboxglstyle.GeoJSONSource{Data: pathsConfig.DataFileReference("parks")}
	doc.Sources["osm"] = &mapboxglstyle.RasterSource{Tiles: []string{"http://example.com/wms?bbox={bbox-epsg-3857}"}, TileSize: 256}
	doc.Layers = append(doc.Layers,
		mapboxglstyle.NewLayer("osm", mapboxglstyle.LayerTypeRaster, "osm"),
		mapboxglstyle.NewLayer("parks:0", mapboxglstyle.LayerTypeFill, "parks"),
	)
	doc.Center = [2]float64{10, 50}
	doc.Zoom = 9

	if withSprites {
		collection := sprite.NewCollection()
		collection.Add("tree", newSquare(4, color.RGBA{0, 255, 0, 255}), newSquare(8, color.RGBA{0, 255, 0, 255}))
		collection.Add("nonsvg_0", newSquare(6, color.RGBA{255, 0, 0, 255}), newSquare(12, color.RGBA{255, 0, 0, 255}))
		require.Nil(t, sprite.BuildSheet(collection).Write(fs, folder, sprite.DefaultSheetName))
		doc.Sprite = sprite.DefaultSheetName
	}

	buf := bytes.NewBuffer(nil)
	require.Nil(t, doc.Write(buf))
	require.NoError(t, fs.WriteFile(pathsConfig.StyleFilePath(), buf.Bytes(), 0644))

	return pathsConfig
}

func newTestLogger() *logpkg.Logger {
	return logpkg.NewLogger(bytes.NewBuffer(nil), logpkg.LogLevelInfo)
}

func TestStyleInfoService(t *testing.T) {
	fs := mockfs.NewMockFs()
	pathsConfig := writeTestFolder(t, fs, "/export", true)

	ws := NewStyleInfoService(newTestLogger(), fs, pathsConfig)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	ws.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)

	var info styleInfoType
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))

	assert.Equal(t, "Test project", info.Name)
	assert.Equal(t, 9.0, info.Zoom)
	require.Len(t, info.Layers, 2)
	assert.Equal(t, "parks:0", info.Layers[1].ID)
	assert.Equal(t, mapboxglstyle.LayerTypeFill, info.Layers[1].Type)
	assert.Equal(t, []sourceInfoType{
		{"osm", mapboxglstyle.SourceTypeRaster},
		{"parks", mapboxglstyle.SourceTypeGeoJSON},
	}, info.Sources)
	assert.Equal(t, []string{"nonsvg_0", "tree"}, info.Sprites)
}

func TestStyleInfoService_noStyleFile(t *testing.T) {
	fs := mockfs.NewMockFs()

	ws := NewStyleInfoService(newTestLogger(), fs, glproject.NewPathsConfig("/missing"))

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	ws.ServeHTTP(w, r)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func newTracedSpriteService(t *testing.T, fs gofs.Fs, pathsConfig *glproject.PathsConfig) http.Handler {
	ws, err := NewSpriteService(newTestLogger(), fs, pathsConfig)
	require.Nil(t, err)

	return tracing.Middleware(tracing.NewTracer(bytes.NewBuffer(nil)))(ws)
}

func TestSpriteService(t *testing.T) {
	fs := mockfs.NewMockFs()
	pathsConfig := writeTestFolder(t, fs, "/export", true)

	handler := newTracedSpriteService(t, fs, pathsConfig)

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/nonsvg_0.png", nil)
		handler.ServeHTTP(w, r)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "image/png", w.Header().Get("Content-Type"))

		img, err := png.Decode(w.Body)
		require.NoError(t, err)
		assert.Equal(t, image.Rect(0, 0, 6, 6), img.Bounds())

		red, _, _, _ := img.At(3, 3).RGBA()
		assert.Equal(t, uint32(0xffff), red)
	}
}

func TestSpriteService_notFound(t *testing.T) {
	fs := mockfs.NewMockFs()
	pathsConfig := writeTestFolder(t, fs, "/export", true)

	handler := newTracedSpriteService(t, fs, pathsConfig)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/bench.png", nil)
	handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSpriteService_noSpriteSheet(t *testing.T) {
	fs := mockfs.NewMockFs()
	pathsConfig := writeTestFolder(t, fs, "/export", false)

	handler := newTracedSpriteService(t, fs, pathsConfig)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/tree.png", nil)
	handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNewPreviewRouter(t *testing.T) {
	fs := gofs.NewOsFs()
	folder := t.TempDir()
	writeTestFolder(t, fs, folder, true)

	router, err := NewPreviewRouter(newTestLogger(), fs, folder, bytes.NewBuffer(nil))
	require.Nil(t, err)

	server := httptest.NewServer(router)
	defer server.Close()

	t.Run("style document", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/" + glproject.StyleFileName)
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)

		doc, parseErr := mapboxglstyle.Parse(resp.Body)
		require.Nil(t, parseErr)
		assert.Equal(t, "Test project", doc.Name)
	})

	t.Run("style info", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/api/style")
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)

		var info styleInfoType
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&info))
		assert.Len(t, info.Layers, 2)
	})

	t.Run("sprite", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/api/sprites/tree.png")
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)

		img, err := png.Decode(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, image.Rect(0, 0, 4, 4), img.Bounds())
	})
}
