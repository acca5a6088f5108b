package mapboxglstyle

import (
	"encoding/json"
	"errors"
	"io"

	"github.com/jamesrr39/goutil/errorsx"
)

const (
	StyleVersion = 8
	GlyphsURL    = "mapbox://fonts/mapbox/{fontstack}/{range}.pbf"
)

var ErrSourceNotFound = errors.New("source not found")

type SourceType string

const (
	SourceTypeGeoJSON SourceType = "geojson"
	SourceTypeRaster  SourceType = "raster"
)

// Source is a *GeoJSONSource, a *RasterSource or an *UnsupportedSource
type Source interface {
	SourceType() SourceType
}

type GeoJSONSource struct {
	Data string // path relative to the style document
}

func (s *GeoJSONSource) SourceType() SourceType {
	return SourceTypeGeoJSON
}

func (s *GeoJSONSource) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type SourceType `json:"type"`
		Data string     `json:"data"`
	}{SourceTypeGeoJSON, s.Data})
}

type RasterSource struct {
	Tiles    []string
	TileSize int
}

func (s *RasterSource) SourceType() SourceType {
	return SourceTypeRaster
}

func (s *RasterSource) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type     SourceType `json:"type"`
		Tiles    []string   `json:"tiles"`
		TileSize int        `json:"tileSize"`
	}{SourceTypeRaster, s.Tiles, s.TileSize})
}

// UnsupportedSource is a source of a type this package can't translate (vector, image, video...).
// It is kept so that the document still parses; layers using it are skipped on import.
type UnsupportedSource struct {
	Type SourceType
}

func (s *UnsupportedSource) SourceType() SourceType {
	return s.Type
}

func (s *UnsupportedSource) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type SourceType `json:"type"`
	}{s.Type})
}

type rawSource struct {
	Type     SourceType `json:"type"`
	Data     string     `json:"data"`
	Tiles    []string   `json:"tiles"`
	TileSize int        `json:"tileSize"`
}

type Sources map[string]Source

func (s *Sources) UnmarshalJSON(b []byte) error {
	var rawSources map[string]rawSource
	err := json.Unmarshal(b, &rawSources)
	if err != nil {
		return err
	}

	sources := make(Sources)
	for name, raw := range rawSources {
		switch raw.Type {
		case SourceTypeGeoJSON:
			sources[name] = &GeoJSONSource{Data: raw.Data}
		case SourceTypeRaster:
			sources[name] = &RasterSource{Tiles: raw.Tiles, TileSize: raw.TileSize}
		default:
			sources[name] = &UnsupportedSource{Type: raw.Type}
		}
	}

	*s = sources
	return nil
}

type StyleDocument struct {
	Version int        `json:"version"`
	Name    string     `json:"name"`
	Glyphs  string     `json:"glyphs"`
	Sources Sources    `json:"sources"`
	Layers  []*Layer   `json:"layers"`
	Sprite  string     `json:"sprite,omitempty"`
	Center  [2]float64 `json:"center"`
	Zoom    float64    `json:"zoom"`
}

func NewStyleDocument(name string) *StyleDocument {
	return &StyleDocument{
		Version: StyleVersion,
		Name:    name,
		Glyphs:  GlyphsURL,
		Sources: make(Sources),
		Layers:  []*Layer{},
	}
}

// GetSource looks up the source a layer refers to
func (d *StyleDocument) GetSource(name string) (Source, errorsx.Error) {
	source, ok := d.Sources[name]
	if !ok {
		return nil, errorsx.Wrap(ErrSourceNotFound, "source", name)
	}
	return source, nil
}

func (d *StyleDocument) Validate() errorsx.Error {
	if d.Version != StyleVersion {
		return errorsx.Errorf("unsupported style version: %d", d.Version)
	}

	layerIDs := make(map[string]bool)
	for _, layer := range d.Layers {
		if layerIDs[layer.ID] {
			return errorsx.Errorf("duplicate layer ID found: %q", layer.ID)
		}
		layerIDs[layer.ID] = true

		_, err := d.GetSource(layer.Source)
		if err != nil {
			return errorsx.Wrap(err, "layer", layer.ID)
		}

		err = layer.Validate()
		if err != nil {
			return errorsx.Wrap(err, "layer", layer.ID)
		}
	}

	return nil
}

func Parse(reader io.Reader) (*StyleDocument, errorsx.Error) {
	doc := new(StyleDocument)
	err := json.NewDecoder(reader).Decode(doc)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	if doc.Sources == nil {
		doc.Sources = make(Sources)
	}

	for _, layer := range doc.Layers {
		if layer.Paint == nil {
			layer.Paint = make(Properties)
		}
		if layer.Layout == nil {
			layer.Layout = make(Properties)
		}
	}

	return doc, nil
}

func (d *StyleDocument) Write(writer io.Writer) errorsx.Error {
	enc := json.NewEncoder(writer)
	// tile URLs hold query strings; keep their '&' readable
	enc.SetEscapeHTML(false)
	err := enc.Encode(d)
	if err != nil {
		return errorsx.Wrap(err)
	}
	return nil
}
