package glproject

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/jamesrr39/glstyle-bridge/gisproject"
	"github.com/jamesrr39/glstyle-bridge/styling/mapboxglstyle"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/gofs"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/project"
)

const (
	DefaultPrecision = 6

	rasterTileSize = 256
	wmsParams      = "bbox={bbox-epsg-3857}&format=image/png&service=WMS&version=1.1.1&request=GetMap&srs=EPSG:3857&width=256&height=256"
)

// WriteGeoJSONData writes the layer's features as compact GeoJSON, with coordinates truncated to `precision` decimal places.
// Multi point geometries holding a single point are written as points.
func WriteGeoJSONData(fs gofs.Fs, layer gisproject.Layer, path string, precision int) errorsx.Error {
	fc := geojson.NewFeatureCollection()

	features := layer.Features()
	if features != nil {
		truncate := truncateProjection(precision)
		for _, feature := range features.Features {
			outFeature := geojson.NewFeature(nil)
			outFeature.ID = feature.ID
			outFeature.Properties = feature.Properties

			if feature.Geometry != nil {
				geometry := project.Geometry(orb.Clone(feature.Geometry), truncate)
				outFeature.Geometry = flattenMultiPoint(geometry)
			}

			fc.Append(outFeature)
		}
	}

	data, err := json.Marshal(fc)
	if err != nil {
		return errorsx.Wrap(err, "layer", layer.Name())
	}

	err = fs.WriteFile(path, data, 0644)
	if err != nil {
		return errorsx.Wrap(err, "path", path)
	}

	return nil
}

func truncateProjection(precision int) orb.Projection {
	return func(p orb.Point) orb.Point {
		return orb.Point{truncateDecimals(p[0], precision), truncateDecimals(p[1], precision)}
	}
}

// truncateDecimals cuts the decimal representation of v, so 50.9 stays 50.9 rather than becoming 50.899999
func truncateDecimals(v float64, precision int) float64 {
	s := strconv.FormatFloat(v, 'f', -1, 64)

	idx := strings.IndexByte(s, '.')
	if idx == -1 {
		return v
	}

	end := idx + 1 + precision
	if precision <= 0 {
		end = idx
	}
	if end >= len(s) {
		return v
	}

	truncated, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return v
	}
	return truncated
}

func flattenMultiPoint(geometry orb.Geometry) orb.Geometry {
	multiPoint, ok := geometry.(orb.MultiPoint)
	if !ok || len(multiPoint) != 1 {
		return geometry
	}
	return multiPoint[0]
}

// wmsSourceParams are the parts of a WMS provider string needed to build a tile URL
type wmsSourceParams struct {
	URL    string
	Layers string
	Styles string
	XYZ    bool // the url is already a tile template
}

// parseWMSSource reads a provider string such as "crs=EPSG:3857&layers=osm&styles=&url=http://example.com/wms".
// Repeated layers and styles are joined with commas, as in a GetMap request.
func parseWMSSource(source string) (*wmsSourceParams, bool) {
	var url string
	var hasURL, xyz bool
	var layers, styles []string

	for _, fragment := range strings.Split(source, "&") {
		idx := strings.Index(fragment, "=")
		if idx == -1 {
			continue
		}

		key, value := fragment[:idx], fragment[idx+1:]
		switch key {
		case "url":
			if !hasURL {
				url = value
				hasURL = true
			}
		case "layers":
			layers = append(layers, value)
		case "styles":
			styles = append(styles, value)
		case "type":
			xyz = value == "xyz"
		}
	}

	if !hasURL || url == "" {
		return nil, false
	}

	return &wmsSourceParams{
		URL:    url,
		Layers: strings.Join(layers, ","),
		Styles: strings.Join(styles, ","),
		XYZ:    xyz,
	}, true
}

// CreateRasterSource builds a raster tile source from a WMS or XYZ layer. It returns false, after logging a warning,
// when the layer's provider string has no url.
func CreateRasterSource(logger *logpkg.Logger, layer gisproject.Layer) (*mapboxglstyle.RasterSource, bool) {
	params, ok := parseWMSSource(layer.Source())
	if !ok {
		logger.Warn("raster layer %q has no url in its source %q, the layer will not be exported", layer.Name(), layer.Source())
		return nil, false
	}

	if layer.CRS() != gisproject.CRSWebMercator {
		logger.Warn("WMS layer %q uses %q. Only %s is supported for WMS layers", layer.Name(), layer.CRS(), gisproject.CRSWebMercator)
	}

	tileURL := params.URL + "?" + wmsParams + "&LAYERS=" + params.Layers + "&STYLES=" + params.Styles
	if params.XYZ {
		tileURL = params.URL
	}

	return &mapboxglstyle.RasterSource{
		Tiles:    []string{tileURL},
		TileSize: rasterTileSize,
	}, true
}

// rasterProviderString turns a tile URL back into a provider string that CreateRasterSource can export again.
// GetMap URLs give "crs=...&format=...&layers=...&styles=...&url=<base url>"; URLs with no query string are
// taken as XYZ templates. The CRS of the layer is returned alongside.
func rasterProviderString(tileURL string) (string, string) {
	idx := strings.IndexByte(tileURL, '?')
	if idx == -1 {
		return "type=xyz&url=" + tileURL, gisproject.CRSWebMercator
	}

	base, query := tileURL[:idx], tileURL[idx+1:]
	crs := gisproject.CRSWebMercator
	format := "image/png"
	var layers, styles string

	for _, fragment := range strings.Split(query, "&") {
		eqIdx := strings.Index(fragment, "=")
		if eqIdx == -1 {
			continue
		}

		key, value := strings.ToLower(fragment[:eqIdx]), fragment[eqIdx+1:]
		switch key {
		case "layers":
			layers = value
		case "styles":
			styles = value
		case "format":
			format = value
		case "srs", "crs":
			crs = value
		}
	}

	provider := strings.Join([]string{
		"crs=" + crs,
		"format=" + format,
		"layers=" + layers,
		"styles=" + styles,
		"url=" + base,
	}, "&")

	return provider, crs
}
