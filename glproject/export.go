package glproject

import (
	"bytes"
	_ "embed"

	"github.com/jamesrr39/glstyle-bridge/exporter"
	"github.com/jamesrr39/glstyle-bridge/gisproject"
	"github.com/jamesrr39/glstyle-bridge/sprite"
	"github.com/jamesrr39/glstyle-bridge/styling"
	"github.com/jamesrr39/glstyle-bridge/styling/mapboxglstyle"
	"github.com/jamesrr39/glstyle-bridge/symbolrenderer"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/gofs"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

//go:embed sampleapp/index.html
var sampleAppHTML []byte

type ExportOptions struct {
	// Precision is the number of decimal places kept in GeoJSON coordinates
	Precision int
	// IncludeApp writes a web page that shows the style
	IncludeApp bool
	// Rasteriser draws symbol layers into sprites. Defaults to a symbolrenderer.Renderer reading from the export file system.
	Rasteriser symbolrenderer.SymbolLayerRenderer
}

func DefaultExportOptions() ExportOptions {
	return ExportOptions{Precision: DefaultPrecision}
}

// Export writes the project's layers into folder as a Mapbox GL style document, along with its data files and sprite sheet
func Export(logger *logpkg.Logger, fs gofs.Fs, proj gisproject.Project, folder string, options ExportOptions) (*mapboxglstyle.StyleDocument, errorsx.Error) {
	pathsConfig := NewPathsConfig(folder)
	err := pathsConfig.EnsurePaths(fs)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	rasteriser := options.Rasteriser
	if rasteriser == nil {
		rasteriser = symbolrenderer.NewRenderer(fs)
	}

	doc := mapboxglstyle.NewStyleDocument(proj.Name())
	session := exporter.NewSession(logger, rasteriser)

	for _, layer := range proj.Layers() {
		sourceName := styling.SafeName(layer.Name())

		switch layer.Kind() {
		case gisproject.LayerKindRaster:
			rasterSource, ok := CreateRasterSource(logger, layer)
			if !ok {
				continue
			}
			doc.Sources[sourceName] = rasterSource
		default:
			err = WriteGeoJSONData(fs, layer, pathsConfig.DataFilePath(sourceName), options.Precision)
			if err != nil {
				return nil, errorsx.Wrap(err)
			}
			doc.Sources[sourceName] = &mapboxglstyle.GeoJSONSource{Data: pathsConfig.DataFileReference(sourceName)}
		}

		doc.Layers = append(doc.Layers, session.ProcessLayer(layer)...)
	}

	if session.Sprites().Len() > 0 {
		sheet := sprite.BuildSheet(session.Sprites())
		err = sheet.Write(fs, folder, sprite.DefaultSheetName)
		if err != nil {
			return nil, errorsx.Wrap(err)
		}
		doc.Sprite = sprite.DefaultSheetName
	}

	doc.Center, doc.Zoom = viewOf(logger, proj)

	err = doc.Validate()
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	buf := bytes.NewBuffer(nil)
	err = doc.Write(buf)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	writeErr := fs.WriteFile(pathsConfig.StyleFilePath(), buf.Bytes(), 0644)
	if writeErr != nil {
		return nil, errorsx.Wrap(writeErr, "path", pathsConfig.StyleFilePath())
	}

	if options.IncludeApp {
		writeErr = fs.WriteFile(pathsConfig.AppFilePath(), sampleAppHTML, 0644)
		if writeErr != nil {
			return nil, errorsx.Wrap(writeErr, "path", pathsConfig.AppFilePath())
		}
	}

	logger.Info("exported %d layers (%d style layers, %d sprites) to %q", len(proj.Layers()), len(doc.Layers), session.Sprites().Len(), folder)

	return doc, nil
}

// viewOf gives the centre of the project's view as longitude and latitude, and the zoom level of its scale
func viewOf(logger *logpkg.Logger, proj gisproject.Project) ([2]float64, float64) {
	extent := proj.ViewExtent()

	switch proj.CRS() {
	case gisproject.CRSWebMercator:
		extent = orb.Bound{
			Min: project.Mercator.ToWGS84(extent.Min),
			Max: project.Mercator.ToWGS84(extent.Max),
		}
	case gisproject.CRSWGS84, "":
	default:
		logger.Warn("project CRS %q can't be converted, using the view extent as longitude and latitude", proj.CRS())
	}

	center := extent.Center()

	zoom := 0.0
	if proj.Scale() > 0 {
		zoom = float64(styling.ToZoomLevel(proj.Scale()))
	}

	return [2]float64{center[0], center[1]}, zoom
}
