package gisproject

import (
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/gofs"
	"github.com/paulmach/orb/geojson"
)

// LoadGeoJSONLayer reads a GeoJSON feature collection into a new vector layer.
// The geometry type is taken from the first feature that has a geometry.
func LoadGeoJSONLayer(fs gofs.Fs, path, name string) (*MemoryLayer, errorsx.Error) {
	data, err := fs.ReadFile(path)
	if err != nil {
		return nil, errorsx.Wrap(err, "path", path)
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, errorsx.Wrap(err, "path", path)
	}

	geometryType, isMultiPoint := DetectGeometryType(fc)

	layer := NewVectorLayer(name, geometryType, fc)
	layer.SetIsMultiPoint(isMultiPoint)
	layer.SetDataPath(path)

	return layer, nil
}

func DetectGeometryType(fc *geojson.FeatureCollection) (GeometryType, bool) {
	for _, feature := range fc.Features {
		if feature.Geometry == nil {
			continue
		}
		return GeometryTypeOf(feature.Geometry)
	}

	return GeometryTypeUnknown, false
}
