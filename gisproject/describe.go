package gisproject

import (
	"fmt"

	"github.com/xlab/treeprint"
)

// DescribeProject prints the project's layers, renderers and symbol layers as a tree
func DescribeProject(project Project) string {
	tree := treeprint.New()
	tree.SetValue(fmt.Sprintf("%s (%s, scale 1:%.0f)", project.Name(), project.CRS(), project.Scale()))

	for _, layer := range project.Layers() {
		layerBranch := tree.AddMetaBranch(layer.Kind(), layer.Name())
		if layer.Kind() == LayerKindRaster {
			layerBranch.AddNode(layer.Source())
			continue
		}

		layerBranch.AddMetaNode("geometry", layer.GeometryType())
		if layer.Renderer() == nil {
			layerBranch.AddNode("(no renderer)")
			continue
		}
		describeRenderer(layerBranch, layer.Renderer())
	}

	return tree.String()
}

func describeRenderer(tree treeprint.Tree, renderer Renderer) {
	switch r := renderer.(type) {
	case *SingleSymbolRenderer:
		describeSymbol(tree.AddMetaBranch(r.Type(), "symbol"), r.Symbol)
	case *CategorizedRenderer:
		branch := tree.AddMetaBranch(r.Type(), r.Attribute)
		for _, c := range r.Categories {
			describeSymbol(branch.AddMetaBranch(c.Value, c.Label), c.Symbol)
		}
	case *GraduatedRenderer:
		branch := tree.AddMetaBranch(r.Type(), r.Attribute)
		for _, rang := range r.Ranges {
			describeSymbol(branch.AddMetaBranch(fmt.Sprintf("%v - %v", rang.Lower, rang.Upper), rang.Label), rang.Symbol)
		}
	default:
		tree.AddMetaNode(renderer.Type(), "(unsupported renderer)")
	}
}

func describeSymbol(tree treeprint.Tree, symbol *Symbol) {
	tree.AddMetaNode("alpha", symbol.Alpha)
	for i, sl := range symbol.Layers {
		branch := tree.AddMetaBranch(i, sl.Kind())
		props := sl.Properties()
		for _, key := range sortedKeys(props) {
			branch.AddMetaNode(key, props[key])
		}
	}
}
