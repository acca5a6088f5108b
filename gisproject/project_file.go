package gisproject

import (
	"bytes"
	"path/filepath"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/gofs"
	"github.com/paulmach/orb"
	"gopkg.in/yaml.v3"
)

// The project file is a YAML description of a project. Vector layer features live in GeoJSON files,
// referenced relative to the project file.
//
//	name: My project
//	crs: EPSG:3857
//	scale: 25000
//	extent: [1110000, 8350000, 1130000, 8370000]
//	layers:
//	  - name: Parks 2020
//	    kind: vector
//	    data: data/parks.geojson
//	    renderer:
//	      type: singleSymbol
//	      symbol:
//	        alpha: 1
//	        layers:
//	          - class: SimpleFill
//	            properties: {color: "0,128,0,255", outline_color: "0,0,0,255"}
type projectFile struct {
	Name   string       `yaml:"name"`
	CRS    string       `yaml:"crs"`
	Scale  float64      `yaml:"scale"`
	Extent [4]float64   `yaml:"extent"`
	Layers []*layerFile `yaml:"layers"`
}

type layerFile struct {
	Name             string            `yaml:"name"`
	Kind             LayerKind         `yaml:"kind"`
	Data             string            `yaml:"data,omitempty"`
	Source           string            `yaml:"source,omitempty"`
	CRS              string            `yaml:"crs,omitempty"`
	GeometryType     GeometryType      `yaml:"geometryType,omitempty"`
	Transparency     int               `yaml:"transparency,omitempty"`
	ScaleVisibility  *scaleRangeFile   `yaml:"scaleVisibility,omitempty"`
	CustomProperties map[string]string `yaml:"customProperties,omitempty"`
	Renderer         *rendererFile     `yaml:"renderer,omitempty"`
}

type scaleRangeFile struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

type rendererFile struct {
	Type       RendererType    `yaml:"type"`
	Attribute  string          `yaml:"attribute,omitempty"`
	Symbol     *symbolFile     `yaml:"symbol,omitempty"`
	Categories []*categoryFile `yaml:"categories,omitempty"`
	Ranges     []*rangeFile    `yaml:"ranges,omitempty"`
}

type categoryFile struct {
	Value  interface{} `yaml:"value"`
	Label  string      `yaml:"label"`
	Symbol *symbolFile `yaml:"symbol"`
}

type rangeFile struct {
	Lower  float64     `yaml:"lower"`
	Upper  float64     `yaml:"upper"`
	Label  string      `yaml:"label"`
	Symbol *symbolFile `yaml:"symbol"`
}

type symbolFile struct {
	Alpha  *float64           `yaml:"alpha,omitempty"`
	Layers []*symbolLayerFile `yaml:"layers"`
}

type symbolLayerFile struct {
	Class      SymbolLayerKind   `yaml:"class"`
	Properties map[string]string `yaml:"properties"`
	SubSymbol  *symbolFile       `yaml:"subSymbol,omitempty"`
}

func LoadProjectFile(fs gofs.Fs, path string) (*MemoryProject, errorsx.Error) {
	data, err := fs.ReadFile(path)
	if err != nil {
		return nil, errorsx.Wrap(err, "path", path)
	}

	pf := new(projectFile)
	err = yaml.Unmarshal(data, pf)
	if err != nil {
		return nil, errorsx.Wrap(err, "path", path)
	}

	crs := pf.CRS
	if crs == "" {
		crs = CRSWGS84
	}

	extent := orb.Bound{
		Min: orb.Point{pf.Extent[0], pf.Extent[1]},
		Max: orb.Point{pf.Extent[2], pf.Extent[3]},
	}

	project := NewMemoryProject(pf.Name, crs, pf.Scale, extent)

	projectDir := filepath.Dir(path)
	for _, lf := range pf.Layers {
		layer, err := lf.toLayer(fs, projectDir)
		if err != nil {
			return nil, errorsx.Wrap(err, "layer", lf.Name)
		}
		project.AddLayer(layer)
	}

	return project, nil
}

func (lf *layerFile) toLayer(fs gofs.Fs, projectDir string) (*MemoryLayer, errorsx.Error) {
	var layer *MemoryLayer
	switch lf.Kind {
	case LayerKindRaster:
		crs := lf.CRS
		if crs == "" {
			crs = CRSWebMercator
		}
		layer = NewRasterLayer(lf.Name, lf.Source, crs)
	case LayerKindVector, "":
		if lf.Data == "" {
			return nil, errorsx.Errorf("vector layer %q has no data file", lf.Name)
		}

		dataPath := lf.Data
		if !filepath.IsAbs(dataPath) {
			dataPath = filepath.Join(projectDir, dataPath)
		}

		var err errorsx.Error
		layer, err = LoadGeoJSONLayer(fs, dataPath, lf.Name)
		if err != nil {
			return nil, errorsx.Wrap(err)
		}

		if lf.GeometryType != "" {
			layer.geometryType = lf.GeometryType
		}
		if lf.CRS != "" {
			layer.SetCRS(lf.CRS)
		}
	default:
		return nil, errorsx.Errorf("unknown layer kind: %q", lf.Kind)
	}

	layer.SetTransparency(lf.Transparency)
	if lf.ScaleVisibility != nil {
		layer.SetScaleVisibility(lf.ScaleVisibility.Min, lf.ScaleVisibility.Max)
	}
	for k, v := range lf.CustomProperties {
		layer.SetCustomProperty(k, v)
	}

	if lf.Renderer != nil {
		renderer, err := lf.Renderer.toRenderer()
		if err != nil {
			return nil, errorsx.Wrap(err)
		}
		layer.SetRenderer(renderer)
	}

	return layer, nil
}

func (rf *rendererFile) toRenderer() (Renderer, errorsx.Error) {
	switch rf.Type {
	case RendererTypeSingleSymbol:
		symbol, err := rf.Symbol.toSymbol()
		if err != nil {
			return nil, errorsx.Wrap(err)
		}
		return &SingleSymbolRenderer{symbol}, nil
	case RendererTypeCategorized:
		renderer := &CategorizedRenderer{Attribute: rf.Attribute}
		for _, cf := range rf.Categories {
			symbol, err := cf.Symbol.toSymbol()
			if err != nil {
				return nil, errorsx.Wrap(err, "category", cf.Label)
			}
			renderer.Categories = append(renderer.Categories, &Category{cf.Value, cf.Label, symbol})
		}
		return renderer, nil
	case RendererTypeGraduated:
		renderer := &GraduatedRenderer{Attribute: rf.Attribute}
		for _, rangeF := range rf.Ranges {
			symbol, err := rangeF.Symbol.toSymbol()
			if err != nil {
				return nil, errorsx.Wrap(err, "range", rangeF.Label)
			}
			renderer.Ranges = append(renderer.Ranges, &Range{rangeF.Lower, rangeF.Upper, rangeF.Label, symbol})
		}
		return renderer, nil
	default:
		return &UnsupportedRenderer{string(rf.Type)}, nil
	}
}

func (sf *symbolFile) toSymbol() (*Symbol, errorsx.Error) {
	if sf == nil {
		return nil, errorsx.Errorf("missing symbol")
	}

	symbol := &Symbol{Alpha: 1}
	if sf.Alpha != nil {
		symbol.Alpha = *sf.Alpha
	}

	for _, slf := range sf.Layers {
		var subSymbol *Symbol
		if slf.SubSymbol != nil {
			var err errorsx.Error
			subSymbol, err = slf.SubSymbol.toSymbol()
			if err != nil {
				return nil, errorsx.Wrap(err)
			}
		}

		sl, err := NewSymbolLayerFromProperties(slf.Class, slf.Properties, subSymbol)
		if err != nil {
			return nil, errorsx.Wrap(err)
		}
		symbol.Layers = append(symbol.Layers, sl)
	}

	return symbol, nil
}

// SaveProjectFile writes the project as YAML. Data file paths are written relative to the project file where possible.
func SaveProjectFile(fs gofs.Fs, path string, project Project) errorsx.Error {
	projectDir := filepath.Dir(path)

	extent := project.ViewExtent()
	pf := &projectFile{
		Name:   project.Name(),
		CRS:    project.CRS(),
		Scale:  project.Scale(),
		Extent: [4]float64{extent.Min[0], extent.Min[1], extent.Max[0], extent.Max[1]},
	}

	for _, layer := range project.Layers() {
		memoryLayer, ok := layer.(*MemoryLayer)
		if !ok {
			return errorsx.Errorf("layer %q can't be saved to a project file (type %T)", layer.Name(), layer)
		}

		lf := &layerFile{
			Name:         memoryLayer.Name(),
			Kind:         memoryLayer.Kind(),
			Source:       memoryLayer.Source(),
			CRS:          memoryLayer.CRS(),
			Transparency: memoryLayer.Transparency(),
		}

		if memoryLayer.Kind() == LayerKindVector {
			lf.GeometryType = memoryLayer.GeometryType()
			lf.Data = memoryLayer.DataPath()
			relPath, err := filepath.Rel(projectDir, lf.Data)
			if err == nil {
				lf.Data = relPath
			}
		}

		if minScale, maxScale, ok := memoryLayer.ScaleVisibility(); ok {
			lf.ScaleVisibility = &scaleRangeFile{minScale, maxScale}
		}

		if len(memoryLayer.CustomProperties()) > 0 {
			lf.CustomProperties = memoryLayer.CustomProperties()
		}

		if memoryLayer.Renderer() != nil {
			lf.Renderer = newRendererFile(memoryLayer.Renderer())
		}

		pf.Layers = append(pf.Layers, lf)
	}

	buf := bytes.NewBuffer(nil)
	encoder := yaml.NewEncoder(buf)
	encoder.SetIndent(2)
	err := encoder.Encode(pf)
	if err != nil {
		return errorsx.Wrap(err)
	}

	err = encoder.Close()
	if err != nil {
		return errorsx.Wrap(err)
	}

	err = fs.WriteFile(path, buf.Bytes(), 0644)
	if err != nil {
		return errorsx.Wrap(err, "path", path)
	}

	return nil
}

func newRendererFile(renderer Renderer) *rendererFile {
	switch r := renderer.(type) {
	case *SingleSymbolRenderer:
		return &rendererFile{Type: r.Type(), Symbol: newSymbolFile(r.Symbol)}
	case *CategorizedRenderer:
		rf := &rendererFile{Type: r.Type(), Attribute: r.Attribute}
		for _, c := range r.Categories {
			rf.Categories = append(rf.Categories, &categoryFile{c.Value, c.Label, newSymbolFile(c.Symbol)})
		}
		return rf
	case *GraduatedRenderer:
		rf := &rendererFile{Type: r.Type(), Attribute: r.Attribute}
		for _, rang := range r.Ranges {
			rf.Ranges = append(rf.Ranges, &rangeFile{rang.Lower, rang.Upper, rang.Label, newSymbolFile(rang.Symbol)})
		}
		return rf
	default:
		return &rendererFile{Type: renderer.Type()}
	}
}

func newSymbolFile(symbol *Symbol) *symbolFile {
	alpha := symbol.Alpha
	sf := &symbolFile{Alpha: &alpha}
	for _, sl := range symbol.Layers {
		slf := &symbolLayerFile{Class: sl.Kind(), Properties: sl.Properties()}
		if svgFill, ok := sl.(*SVGFillSymbolLayer); ok && svgFill.SubSymbol != nil {
			slf.SubSymbol = newSymbolFile(svgFill.SubSymbol)
		}
		sf.Layers = append(sf.Layers, slf)
	}
	return sf
}
