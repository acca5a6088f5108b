package glproject

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/jamesrr39/glstyle-bridge/exporter"
	"github.com/jamesrr39/glstyle-bridge/gisproject"
	"github.com/jamesrr39/glstyle-bridge/importer"
	"github.com/jamesrr39/glstyle-bridge/sprite"
	"github.com/jamesrr39/glstyle-bridge/styling"
	"github.com/jamesrr39/glstyle-bridge/styling/mapboxglstyle"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/gofs"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/paulmach/orb"
)

// LayerLoader loads the data file of a GeoJSON source into a new layer
type LayerLoader func(fs gofs.Fs, path, name string) (gisproject.Layer, errorsx.Error)

func GeoJSONLayerLoader(fs gofs.Fs, path, name string) (gisproject.Layer, errorsx.Error) {
	layer, err := gisproject.LoadGeoJSONLayer(fs, path, name)
	if err != nil {
		return nil, err
	}
	return layer, nil
}

// OpenStyleFile builds a new project from a style document.
// Each GeoJSON source becomes one layer: its first style layer replaces the layer's symbology and the following ones are added on.
// Label layers are applied once all the symbology is in place.
// Layers using a source type other than geojson or raster are skipped with a warning.
func OpenStyleFile(logger *logpkg.Logger, fs gofs.Fs, path string, loader LayerLoader) (*gisproject.MemoryProject, errorsx.Error) {
	if loader == nil {
		loader = GeoJSONLayerLoader
	}

	data, readErr := fs.ReadFile(path)
	if readErr != nil {
		return nil, errorsx.Wrap(readErr, "path", path)
	}

	doc, err := mapboxglstyle.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, errorsx.Wrap(err, "path", path)
	}

	err = doc.Validate()
	if err != nil {
		return nil, errorsx.Wrap(err, "path", path)
	}

	dir := filepath.Dir(path)

	var sheet *sprite.Sheet
	if doc.Sprite != "" {
		sheet, err = sprite.LoadSheet(fs, filepath.Join(dir, doc.Sprite))
		if err != nil {
			return nil, errorsx.Wrap(err)
		}
	}

	imp := importer.NewImporter(logger, importer.NewSheetSpriteSource(fs, sheet, dir))

	scale := styling.ToScale(doc.Zoom)
	center := orb.Point{doc.Center[0], doc.Center[1]}
	proj := gisproject.NewMemoryProject(doc.Name, gisproject.CRSWGS84, scale, orb.Bound{Min: center, Max: center})

	layersBySource := make(map[string]gisproject.Layer)
	var labelLayers []*mapboxglstyle.Layer

	for _, styleLayer := range doc.Layers {
		source, err := doc.GetSource(styleLayer.Source)
		if err != nil {
			return nil, errorsx.Wrap(err, "style layer", styleLayer.ID)
		}

		switch s := source.(type) {
		case *mapboxglstyle.GeoJSONSource:
			if isLabelLayer(styleLayer) {
				labelLayers = append(labelLayers, styleLayer)
				continue
			}

			mode := importer.ModeAugment
			layer, ok := layersBySource[styleLayer.Source]
			if !ok {
				mode = importer.ModeReplace
				layer, err = loader(fs, filepath.Join(dir, filepath.FromSlash(s.Data)), styleLayer.Source)
				if err != nil {
					return nil, errorsx.Wrap(err, "style layer", styleLayer.ID)
				}
				layersBySource[styleLayer.Source] = layer
				proj.AddLayer(layer)
			}

			err = imp.ApplySymbology(layer, styleLayer, mode)
			if err != nil {
				return nil, errorsx.Wrap(err)
			}
		case *mapboxglstyle.RasterSource:
			if len(s.Tiles) == 0 {
				return nil, errorsx.Errorf("raster source %q has no tiles", styleLayer.Source)
			}
			provider, crs := rasterProviderString(s.Tiles[0])
			proj.AddLayer(gisproject.NewRasterLayer(styleLayer.ID, provider, crs))
		default:
			logger.Warn("style layer %q uses source %q of type %q, which can't be imported. Skipping it.", styleLayer.ID, styleLayer.Source, source.SourceType())
		}
	}

	for _, labelLayer := range labelLayers {
		layer, ok := layersBySource[labelLayer.Source]
		if !ok {
			logger.Warn("label layer %q refers to source %q, which has no symbology layer. Skipping it.", labelLayer.ID, labelLayer.Source)
			continue
		}

		err = importer.ApplyLabeling(layer, labelLayer)
		if err != nil {
			return nil, errorsx.Wrap(err)
		}
	}

	logger.Info("opened %q: %d layers", path, len(proj.Layers()))

	return proj, nil
}

// isLabelLayer tells apart the label layers written on export ("txt_<source>", with a text field) from
// symbology layers whose names happen to start with "txt"
func isLabelLayer(styleLayer *mapboxglstyle.Layer) bool {
	if styleLayer.Type != mapboxglstyle.LayerTypeSymbol || !strings.HasPrefix(styleLayer.ID, exporter.LabelLayerPrefix) {
		return false
	}

	_, ok := styleLayer.Layout[mapboxglstyle.PropertyTextField]
	return ok
}
