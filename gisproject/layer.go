package gisproject

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

type GeometryType string

const (
	GeometryTypeUnknown GeometryType = "unknown"
	GeometryTypePoint   GeometryType = "point"
	GeometryTypeLine    GeometryType = "line"
	GeometryTypePolygon GeometryType = "polygon"
)

type LayerKind string

const (
	LayerKindVector LayerKind = "vector"
	LayerKindRaster LayerKind = "raster"
)

const (
	CRSWebMercator = "EPSG:3857"
	CRSWGS84       = "EPSG:4326"
)

// Layer is the view of a host map layer that style translation needs
type Layer interface {
	Name() string
	Kind() LayerKind
	GeometryType() GeometryType
	// IsMultiPoint is true when the layer's features are multi point geometries
	IsMultiPoint() bool
	CRS() string
	// Source is the provider connection string of a raster layer
	Source() string
	Renderer() Renderer
	SetRenderer(renderer Renderer)
	CustomProperty(key string) (string, bool)
	SetCustomProperty(key, value string)
	// Transparency is 0 (opaque) to 255
	Transparency() int
	Features() *geojson.FeatureCollection
	// ScaleVisibility is the scale range the layer is drawn in, when it is restricted
	ScaleVisibility() (minScale, maxScale float64, ok bool)
	RefreshSymbology()
	TriggerRepaint()
}

type Project interface {
	Name() string
	Layers() []Layer
	AddLayer(layer Layer)
	// Scale is the scale denominator of the current view
	Scale() float64
	ViewExtent() orb.Bound
	CRS() string
}

type scaleRange struct {
	Min, Max float64
}

// MemoryLayer is a Layer held completely in memory
type MemoryLayer struct {
	name             string
	kind             LayerKind
	geometryType     GeometryType
	isMultiPoint     bool
	crs              string
	source           string
	dataPath         string
	renderer         Renderer
	customProperties map[string]string
	transparency     int
	features         *geojson.FeatureCollection
	scaleVisibility  *scaleRange
	revision         int
}

func NewVectorLayer(name string, geometryType GeometryType, features *geojson.FeatureCollection) *MemoryLayer {
	if features == nil {
		features = geojson.NewFeatureCollection()
	}

	return &MemoryLayer{
		name:             name,
		kind:             LayerKindVector,
		geometryType:     geometryType,
		crs:              CRSWGS84,
		customProperties: make(map[string]string),
		features:         features,
	}
}

func NewRasterLayer(name, source, crs string) *MemoryLayer {
	return &MemoryLayer{
		name:             name,
		kind:             LayerKindRaster,
		geometryType:     GeometryTypeUnknown,
		crs:              crs,
		source:           source,
		customProperties: make(map[string]string),
	}
}

func (l *MemoryLayer) Name() string {
	return l.name
}

func (l *MemoryLayer) Kind() LayerKind {
	return l.kind
}

func (l *MemoryLayer) GeometryType() GeometryType {
	return l.geometryType
}

func (l *MemoryLayer) IsMultiPoint() bool {
	return l.isMultiPoint
}

func (l *MemoryLayer) SetIsMultiPoint(isMultiPoint bool) {
	l.isMultiPoint = isMultiPoint
}

func (l *MemoryLayer) CRS() string {
	return l.crs
}

func (l *MemoryLayer) SetCRS(crs string) {
	l.crs = crs
}

func (l *MemoryLayer) Source() string {
	return l.source
}

// DataPath is the file the layer's features were loaded from, if any
func (l *MemoryLayer) DataPath() string {
	return l.dataPath
}

func (l *MemoryLayer) SetDataPath(dataPath string) {
	l.dataPath = dataPath
}

func (l *MemoryLayer) Renderer() Renderer {
	return l.renderer
}

func (l *MemoryLayer) SetRenderer(renderer Renderer) {
	l.renderer = renderer
}

func (l *MemoryLayer) CustomProperty(key string) (string, bool) {
	val, ok := l.customProperties[key]
	return val, ok
}

func (l *MemoryLayer) SetCustomProperty(key, value string) {
	l.customProperties[key] = value
}

func (l *MemoryLayer) CustomProperties() map[string]string {
	return l.customProperties
}

func (l *MemoryLayer) Transparency() int {
	return l.transparency
}

func (l *MemoryLayer) SetTransparency(transparency int) {
	l.transparency = transparency
}

func (l *MemoryLayer) Features() *geojson.FeatureCollection {
	return l.features
}

func (l *MemoryLayer) ScaleVisibility() (float64, float64, bool) {
	if l.scaleVisibility == nil {
		return 0, 0, false
	}
	return l.scaleVisibility.Min, l.scaleVisibility.Max, true
}

func (l *MemoryLayer) SetScaleVisibility(minScale, maxScale float64) {
	l.scaleVisibility = &scaleRange{minScale, maxScale}
}

// RefreshSymbology marks the symbology as changed
func (l *MemoryLayer) RefreshSymbology() {
	l.revision++
}

// TriggerRepaint is a no-op; there is no canvas to draw to
func (l *MemoryLayer) TriggerRepaint() {}

// Revision counts how many times the symbology has been refreshed
func (l *MemoryLayer) Revision() int {
	return l.revision
}

type MemoryProject struct {
	name   string
	crs    string
	scale  float64
	extent orb.Bound
	layers []Layer
}

func NewMemoryProject(name, crs string, scale float64, extent orb.Bound) *MemoryProject {
	return &MemoryProject{name: name, crs: crs, scale: scale, extent: extent}
}

func (p *MemoryProject) Name() string {
	return p.name
}

func (p *MemoryProject) Layers() []Layer {
	return p.layers
}

func (p *MemoryProject) AddLayer(layer Layer) {
	p.layers = append(p.layers, layer)
}

func (p *MemoryProject) Scale() float64 {
	return p.scale
}

func (p *MemoryProject) ViewExtent() orb.Bound {
	return p.extent
}

func (p *MemoryProject) CRS() string {
	return p.crs
}

// SetView sets the extent and scale, for example to fit a newly imported style document
func (p *MemoryProject) SetView(extent orb.Bound, scale float64) {
	p.extent = extent
	p.scale = scale
}

// GeometryTypeOf classifies an orb geometry. Collections take the type of their first member.
func GeometryTypeOf(g orb.Geometry) (GeometryType, bool) {
	switch g := g.(type) {
	case orb.Point:
		return GeometryTypePoint, false
	case orb.MultiPoint:
		return GeometryTypePoint, true
	case orb.LineString, orb.MultiLineString:
		return GeometryTypeLine, false
	case orb.Polygon, orb.MultiPolygon, orb.Ring:
		return GeometryTypePolygon, false
	case orb.Collection:
		if len(g) > 0 {
			return GeometryTypeOf(g[0])
		}
	}

	return GeometryTypeUnknown, false
}
