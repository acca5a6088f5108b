package gisproject

type RendererType string

const (
	RendererTypeSingleSymbol RendererType = "singleSymbol"
	RendererTypeCategorized  RendererType = "categorizedSymbol"
	RendererTypeGraduated    RendererType = "graduatedSymbol"
)

// Renderer maps the features of a vector layer onto symbols. Implementations:
// *SingleSymbolRenderer, *CategorizedRenderer, *GraduatedRenderer, *UnsupportedRenderer
type Renderer interface {
	Type() RendererType
	CloneRenderer() Renderer
	isRenderer()
}

type SingleSymbolRenderer struct {
	Symbol *Symbol
}

func (*SingleSymbolRenderer) isRenderer() {}

func (r *SingleSymbolRenderer) Type() RendererType {
	return RendererTypeSingleSymbol
}

func (r *SingleSymbolRenderer) CloneRenderer() Renderer {
	return &SingleSymbolRenderer{r.Symbol.Clone()}
}

type Category struct {
	Value  interface{}
	Label  string
	Symbol *Symbol
}

type CategorizedRenderer struct {
	Attribute  string
	Categories []*Category
}

func (*CategorizedRenderer) isRenderer() {}

func (r *CategorizedRenderer) Type() RendererType {
	return RendererTypeCategorized
}

func (r *CategorizedRenderer) CloneRenderer() Renderer {
	categories := make([]*Category, len(r.Categories))
	for i, c := range r.Categories {
		categories[i] = &Category{c.Value, c.Label, c.Symbol.Clone()}
	}
	return &CategorizedRenderer{r.Attribute, categories}
}

// CategoryByLabel returns the index of the category with exactly this label, or -1
func (r *CategorizedRenderer) CategoryByLabel(label string) int {
	for i, c := range r.Categories {
		if c.Label == label {
			return i
		}
	}
	return -1
}

type Range struct {
	Lower  float64
	Upper  float64
	Label  string
	Symbol *Symbol
}

type GraduatedRenderer struct {
	Attribute string
	Ranges    []*Range
}

func (*GraduatedRenderer) isRenderer() {}

func (r *GraduatedRenderer) Type() RendererType {
	return RendererTypeGraduated
}

func (r *GraduatedRenderer) CloneRenderer() Renderer {
	ranges := make([]*Range, len(r.Ranges))
	for i, rang := range r.Ranges {
		ranges[i] = &Range{rang.Lower, rang.Upper, rang.Label, rang.Symbol.Clone()}
	}
	return &GraduatedRenderer{r.Attribute, ranges}
}

func (r *GraduatedRenderer) RangeByLabel(label string) int {
	for i, rang := range r.Ranges {
		if rang.Label == label {
			return i
		}
	}
	return -1
}

// UnsupportedRenderer stands in for host renderers that can't be expressed in a style document (heatmaps, rule based, ...)
type UnsupportedRenderer struct {
	Kind string
}

func (*UnsupportedRenderer) isRenderer() {}

func (r *UnsupportedRenderer) Type() RendererType {
	return RendererType(r.Kind)
}

func (r *UnsupportedRenderer) CloneRenderer() Renderer {
	return &UnsupportedRenderer{r.Kind}
}
