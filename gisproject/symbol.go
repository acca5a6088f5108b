package gisproject

// Symbol is an ordered stack of symbol layers, drawn first to last, with an overall opacity
type Symbol struct {
	Alpha  float64
	Layers []SymbolLayer
}

func NewSymbol(alpha float64, layers ...SymbolLayer) *Symbol {
	return &Symbol{alpha, layers}
}

func (s *Symbol) SymbolLayerCount() int {
	return len(s.Layers)
}

// SymbolLayer returns the layer at index i, or nil if the symbol doesn't have that many layers
func (s *Symbol) SymbolLayer(i int) SymbolLayer {
	if i < 0 || i >= len(s.Layers) {
		return nil
	}
	return s.Layers[i]
}

func (s *Symbol) Clone() *Symbol {
	layers := make([]SymbolLayer, len(s.Layers))
	for i, sl := range s.Layers {
		layers[i] = sl.CloneSymbolLayer()
	}
	return &Symbol{s.Alpha, layers}
}

// WithSymbolLayer returns a copy of the symbol with sl appended. The receiver is not changed.
func (s *Symbol) WithSymbolLayer(sl SymbolLayer) *Symbol {
	clone := s.Clone()
	clone.Layers = append(clone.Layers, sl)
	return clone
}
