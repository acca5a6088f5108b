package gisproject

import (
	"fmt"
	"image/color"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/jamesrr39/glstyle-bridge/styling"
	"github.com/jamesrr39/goutil/errorsx"
)

type SymbolLayerKind string

const (
	SymbolLayerKindSimpleFill   SymbolLayerKind = "SimpleFill"
	SymbolLayerKindSVGFill      SymbolLayerKind = "SVGFill"
	SymbolLayerKindSimpleLine   SymbolLayerKind = "SimpleLine"
	SymbolLayerKindSVGMarker    SymbolLayerKind = "SvgMarker"
	SymbolLayerKindSimpleMarker SymbolLayerKind = "SimpleMarker"
	SymbolLayerKindFontMarker   SymbolLayerKind = "FontMarker"
)

// names of the host's symbol layer properties
const (
	PropColor         = "color"
	PropOutlineColor  = "outline_color"
	PropOutlineWidth  = "outline_width"
	PropOffset        = "offset"
	PropLineColor     = "line_color"
	PropLineWidth     = "line_width"
	PropLineWidthUnit = "line_width_unit"
	PropLineStyle     = "line_style"
	PropUseCustomDash = "use_custom_dash"
	PropCustomDash    = "customdash"
	PropSize          = "size"
	PropSizeUnit      = "size_unit"
	PropName          = "name"
	PropSVGFile       = "svgFile"
	PropWidth         = "width"
	PropOutputUnit    = "output_unit"
	PropChr           = "chr"
	PropFont          = "font"
)

const LineStyleSolid = "solid"

// SymbolLayer is one rendering pass of a Symbol. Implementations:
// *SimpleFillSymbolLayer, *SVGFillSymbolLayer, *SimpleLineSymbolLayer,
// *SVGMarkerSymbolLayer, *SimpleMarkerSymbolLayer, *FontMarkerSymbolLayer, *OtherSymbolLayer
type SymbolLayer interface {
	Kind() SymbolLayerKind
	OutputUnit() styling.OutputUnit
	// Properties is the host's string property map for the layer
	Properties() map[string]string
	CloneSymbolLayer() SymbolLayer
	isSymbolLayer()
}

type SimpleFillSymbolLayer struct {
	Color        color.RGBA
	OutlineColor color.RGBA
	OutlineWidth float64
	Offset       [2]float64
	Unit         styling.OutputUnit
}

func (*SimpleFillSymbolLayer) isSymbolLayer() {}

func (sl *SimpleFillSymbolLayer) Kind() SymbolLayerKind {
	return SymbolLayerKindSimpleFill
}

func (sl *SimpleFillSymbolLayer) OutputUnit() styling.OutputUnit {
	return sl.Unit
}

func (sl *SimpleFillSymbolLayer) Properties() map[string]string {
	return map[string]string{
		PropColor:        styling.HostColorString(sl.Color),
		PropOutlineColor: styling.HostColorString(sl.OutlineColor),
		PropOutlineWidth: formatFloat(sl.OutlineWidth),
		PropOffset:       formatPoint(sl.Offset),
		PropOutputUnit:   string(sl.Unit),
	}
}

func (sl *SimpleFillSymbolLayer) CloneSymbolLayer() SymbolLayer {
	clone := *sl
	return &clone
}

// SVGFillSymbolLayer fills a polygon with a repeated SVG pattern. The outline is drawn by SubSymbol.
type SVGFillSymbolLayer struct {
	SVGFilePath  string
	PatternWidth float64
	FillColor    color.RGBA
	OutlineColor color.RGBA
	SubSymbol    *Symbol
	Unit         styling.OutputUnit
}

func (*SVGFillSymbolLayer) isSymbolLayer() {}

func (sl *SVGFillSymbolLayer) Kind() SymbolLayerKind {
	return SymbolLayerKindSVGFill
}

func (sl *SVGFillSymbolLayer) OutputUnit() styling.OutputUnit {
	return sl.Unit
}

func (sl *SVGFillSymbolLayer) Properties() map[string]string {
	return map[string]string{
		PropSVGFile:      sl.SVGFilePath,
		PropWidth:        formatFloat(sl.PatternWidth),
		PropColor:        styling.HostColorString(sl.FillColor),
		PropOutlineColor: styling.HostColorString(sl.OutlineColor),
		PropOutputUnit:   string(sl.Unit),
	}
}

func (sl *SVGFillSymbolLayer) CloneSymbolLayer() SymbolLayer {
	clone := *sl
	if sl.SubSymbol != nil {
		clone.SubSymbol = sl.SubSymbol.Clone()
	}
	return &clone
}

// SVGName is the file stem of the pattern, which is also its sprite name
func (sl *SVGFillSymbolLayer) SVGName() string {
	return fileStem(sl.SVGFilePath)
}

type SimpleLineSymbolLayer struct {
	Color         color.RGBA
	Width         float64
	WidthUnit     styling.OutputUnit
	Offset        float64
	PenStyle      string
	UseCustomDash bool
	CustomDash    []float64
}

func (*SimpleLineSymbolLayer) isSymbolLayer() {}

func (sl *SimpleLineSymbolLayer) Kind() SymbolLayerKind {
	return SymbolLayerKindSimpleLine
}

func (sl *SimpleLineSymbolLayer) OutputUnit() styling.OutputUnit {
	return sl.WidthUnit
}

func (sl *SimpleLineSymbolLayer) Properties() map[string]string {
	useCustomDash := "0"
	if sl.UseCustomDash {
		useCustomDash = "1"
	}

	var dashFragments []string
	for _, d := range sl.CustomDash {
		dashFragments = append(dashFragments, formatFloat(d))
	}

	return map[string]string{
		PropLineColor:     styling.HostColorString(sl.Color),
		PropLineWidth:     formatFloat(sl.Width),
		PropLineWidthUnit: string(sl.WidthUnit),
		PropOffset:        formatFloat(sl.Offset),
		PropLineStyle:     sl.PenStyle,
		PropUseCustomDash: useCustomDash,
		PropCustomDash:    strings.Join(dashFragments, ";"),
	}
}

func (sl *SimpleLineSymbolLayer) CloneSymbolLayer() SymbolLayer {
	clone := *sl
	clone.CustomDash = append([]float64(nil), sl.CustomDash...)
	return &clone
}

type SVGMarkerSymbolLayer struct {
	Path         string
	Size         float64
	FillColor    color.RGBA
	OutlineColor color.RGBA
	Unit         styling.OutputUnit
}

func (*SVGMarkerSymbolLayer) isSymbolLayer() {}

func (sl *SVGMarkerSymbolLayer) Kind() SymbolLayerKind {
	return SymbolLayerKindSVGMarker
}

func (sl *SVGMarkerSymbolLayer) OutputUnit() styling.OutputUnit {
	return sl.Unit
}

func (sl *SVGMarkerSymbolLayer) Properties() map[string]string {
	return map[string]string{
		PropName:         sl.Path,
		PropSize:         formatFloat(sl.Size),
		PropSizeUnit:     string(sl.Unit),
		PropColor:        styling.HostColorString(sl.FillColor),
		PropOutlineColor: styling.HostColorString(sl.OutlineColor),
	}
}

func (sl *SVGMarkerSymbolLayer) CloneSymbolLayer() SymbolLayer {
	clone := *sl
	return &clone
}

func (sl *SVGMarkerSymbolLayer) SVGName() string {
	return fileStem(sl.Path)
}

type MarkerShape string

const (
	MarkerShapeCircle   MarkerShape = "circle"
	MarkerShapeSquare   MarkerShape = "square"
	MarkerShapeDiamond  MarkerShape = "diamond"
	MarkerShapeTriangle MarkerShape = "triangle"
)

type SimpleMarkerSymbolLayer struct {
	Shape        MarkerShape
	Size         float64
	Color        color.RGBA
	OutlineColor color.RGBA
	OutlineWidth float64
	Unit         styling.OutputUnit
}

func (*SimpleMarkerSymbolLayer) isSymbolLayer() {}

func (sl *SimpleMarkerSymbolLayer) Kind() SymbolLayerKind {
	return SymbolLayerKindSimpleMarker
}

func (sl *SimpleMarkerSymbolLayer) OutputUnit() styling.OutputUnit {
	return sl.Unit
}

func (sl *SimpleMarkerSymbolLayer) Properties() map[string]string {
	return map[string]string{
		PropName:         string(sl.Shape),
		PropSize:         formatFloat(sl.Size),
		PropSizeUnit:     string(sl.Unit),
		PropColor:        styling.HostColorString(sl.Color),
		PropOutlineColor: styling.HostColorString(sl.OutlineColor),
		PropOutlineWidth: formatFloat(sl.OutlineWidth),
	}
}

func (sl *SimpleMarkerSymbolLayer) CloneSymbolLayer() SymbolLayer {
	clone := *sl
	return &clone
}

// FontMarkerSymbolLayer draws a single character as a marker
type FontMarkerSymbolLayer struct {
	Character  string
	FontFamily string
	Size       float64
	Color      color.RGBA
	Unit       styling.OutputUnit
}

func (*FontMarkerSymbolLayer) isSymbolLayer() {}

func (sl *FontMarkerSymbolLayer) Kind() SymbolLayerKind {
	return SymbolLayerKindFontMarker
}

func (sl *FontMarkerSymbolLayer) OutputUnit() styling.OutputUnit {
	return sl.Unit
}

func (sl *FontMarkerSymbolLayer) Properties() map[string]string {
	return map[string]string{
		PropChr:      sl.Character,
		PropFont:     sl.FontFamily,
		PropSize:     formatFloat(sl.Size),
		PropSizeUnit: string(sl.Unit),
		PropColor:    styling.HostColorString(sl.Color),
	}
}

func (sl *FontMarkerSymbolLayer) CloneSymbolLayer() SymbolLayer {
	clone := *sl
	return &clone
}

// OtherSymbolLayer is any host symbol layer kind without a dedicated type.
// Its properties are kept as-is; it can't be resized, so it never produces a sprite.
type OtherSymbolLayer struct {
	ClassName string
	Props     map[string]string
}

func (*OtherSymbolLayer) isSymbolLayer() {}

func (sl *OtherSymbolLayer) Kind() SymbolLayerKind {
	return SymbolLayerKind(sl.ClassName)
}

func (sl *OtherSymbolLayer) OutputUnit() styling.OutputUnit {
	return styling.OutputUnit(sl.Props[PropOutputUnit])
}

func (sl *OtherSymbolLayer) Properties() map[string]string {
	props := make(map[string]string, len(sl.Props))
	for k, v := range sl.Props {
		props[k] = v
	}
	return props
}

func (sl *OtherSymbolLayer) CloneSymbolLayer() SymbolLayer {
	return &OtherSymbolLayer{sl.ClassName, sl.Properties()}
}

// NewSymbolLayerFromProperties rebuilds a symbol layer from its kind and host property map.
// Unknown kinds become an *OtherSymbolLayer. A sub symbol is only used by SVG fills.
func NewSymbolLayerFromProperties(kind SymbolLayerKind, props map[string]string, subSymbol *Symbol) (SymbolLayer, errorsx.Error) {
	p := propertyReader{props: props}

	var sl SymbolLayer
	switch kind {
	case SymbolLayerKindSimpleFill:
		sl = &SimpleFillSymbolLayer{
			Color:        p.color(PropColor),
			OutlineColor: p.color(PropOutlineColor),
			OutlineWidth: p.float(PropOutlineWidth, 0),
			Offset:       p.point(PropOffset),
			Unit:         styling.OutputUnit(props[PropOutputUnit]),
		}
	case SymbolLayerKindSVGFill:
		sl = &SVGFillSymbolLayer{
			SVGFilePath:  props[PropSVGFile],
			PatternWidth: p.float(PropWidth, 0),
			FillColor:    p.color(PropColor),
			OutlineColor: p.color(PropOutlineColor),
			SubSymbol:    subSymbol,
			Unit:         styling.OutputUnit(props[PropOutputUnit]),
		}
	case SymbolLayerKindSimpleLine:
		sl = &SimpleLineSymbolLayer{
			Color:         p.color(PropLineColor),
			Width:         p.float(PropLineWidth, 0),
			WidthUnit:     styling.OutputUnit(props[PropLineWidthUnit]),
			Offset:        p.float(PropOffset, 0),
			PenStyle:      props[PropLineStyle],
			UseCustomDash: props[PropUseCustomDash] == "1",
			CustomDash:    p.floats(PropCustomDash),
		}
	case SymbolLayerKindSVGMarker:
		sl = &SVGMarkerSymbolLayer{
			Path:         props[PropName],
			Size:         p.float(PropSize, 0),
			FillColor:    p.color(PropColor),
			OutlineColor: p.color(PropOutlineColor),
			Unit:         styling.OutputUnit(props[PropSizeUnit]),
		}
	case SymbolLayerKindSimpleMarker:
		sl = &SimpleMarkerSymbolLayer{
			Shape:        MarkerShape(props[PropName]),
			Size:         p.float(PropSize, 0),
			Color:        p.color(PropColor),
			OutlineColor: p.color(PropOutlineColor),
			OutlineWidth: p.float(PropOutlineWidth, 0),
			Unit:         styling.OutputUnit(props[PropSizeUnit]),
		}
	case SymbolLayerKindFontMarker:
		sl = &FontMarkerSymbolLayer{
			Character:  props[PropChr],
			FontFamily: props[PropFont],
			Size:       p.float(PropSize, 0),
			Color:      p.color(PropColor),
			Unit:       styling.OutputUnit(props[PropSizeUnit]),
		}
	default:
		copied := make(map[string]string, len(props))
		for k, v := range props {
			copied[k] = v
		}
		sl = &OtherSymbolLayer{ClassName: string(kind), Props: copied}
	}

	if p.err != nil {
		return nil, errorsx.Wrap(p.err, "kind", kind)
	}

	return sl, nil
}

// propertyReader remembers the first parse failure, so a whole layer can be read before checking for errors
type propertyReader struct {
	props map[string]string
	err   errorsx.Error
}

func (p *propertyReader) color(name string) color.RGBA {
	val, ok := p.props[name]
	if !ok || val == "" {
		return color.RGBA{0, 0, 0, 0xff}
	}

	c, err := styling.ParseColor(val)
	if err != nil && p.err == nil {
		p.err = errorsx.Wrap(err, "property", name)
	}
	return c
}

func (p *propertyReader) float(name string, defaultVal float64) float64 {
	val, ok := p.props[name]
	if !ok || val == "" {
		return defaultVal
	}

	f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
	if err != nil {
		if p.err == nil {
			p.err = errorsx.Wrap(err, "property", name)
		}
		return defaultVal
	}
	return f
}

func (p *propertyReader) point(name string) [2]float64 {
	val, ok := p.props[name]
	if !ok || val == "" {
		return [2]float64{}
	}

	x, y, err := ParsePoint(val)
	if err != nil && p.err == nil {
		p.err = errorsx.Wrap(err, "property", name)
	}
	return [2]float64{x, y}
}

func (p *propertyReader) floats(name string) []float64 {
	val, ok := p.props[name]
	if !ok || val == "" {
		return nil
	}

	var floats []float64
	for _, fragment := range strings.Split(val, ";") {
		f, err := strconv.ParseFloat(strings.TrimSpace(fragment), 64)
		if err != nil {
			if p.err == nil {
				p.err = errorsx.Wrap(err, "property", name)
			}
			return nil
		}
		floats = append(floats, f)
	}
	return floats
}

// ParsePoint reads an "x,y" pair, the host's format for offsets
func ParsePoint(s string) (float64, float64, errorsx.Error) {
	fragments := strings.Split(s, ",")
	if len(fragments) != 2 {
		return 0, 0, errorsx.Errorf("expected a point in the form 'x,y' but got %q", s)
	}

	x, err := strconv.ParseFloat(strings.TrimSpace(fragments[0]), 64)
	if err != nil {
		return 0, 0, errorsx.Wrap(err)
	}

	y, err := strconv.ParseFloat(strings.TrimSpace(fragments[1]), 64)
	if err != nil {
		return 0, 0, errorsx.Wrap(err)
	}

	return x, y, nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatPoint(p [2]float64) string {
	return fmt.Sprintf("%s,%s", formatFloat(p[0]), formatFloat(p[1]))
}

func fileStem(path string) string {
	if path == "" {
		return ""
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// sortedKeys gives properties a stable order for printing and saving
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
