package exporter

import (
	"fmt"

	"github.com/jamesrr39/glstyle-bridge/gisproject"
	"github.com/jamesrr39/glstyle-bridge/sprite"
	"github.com/jamesrr39/glstyle-bridge/symbolrenderer"
	"github.com/jamesrr39/goutil/logpkg"
)

// Session is the state of one export run. Sprite names given to non-SVG symbol layers are only stable within a session.
type Session struct {
	logger   *logpkg.Logger
	renderer symbolrenderer.SymbolLayerRenderer

	sprites       *sprite.Collection
	spriteNames   map[gisproject.SymbolLayer]string
	nonSVGCounter int
}

func NewSession(logger *logpkg.Logger, renderer symbolrenderer.SymbolLayerRenderer) *Session {
	return &Session{
		logger:      logger,
		renderer:    renderer,
		sprites:     sprite.NewCollection(),
		spriteNames: make(map[gisproject.SymbolLayer]string),
	}
}

// Sprites are the sprites collected from all layers processed so far
func (s *Session) Sprites() *sprite.Collection {
	return s.sprites
}

// layerState holds what one layer adds to the session until the layer has been processed without failing
type layerState struct {
	session     *Session
	layer       gisproject.Layer
	spriteNames map[gisproject.SymbolLayer]string
	sprites     []*sprite.Sprite
}

func (s *Session) newLayerState(layer gisproject.Layer) *layerState {
	return &layerState{
		session:     s,
		layer:       layer,
		spriteNames: make(map[gisproject.SymbolLayer]string),
	}
}

func (ls *layerState) commit() {
	for sl, name := range ls.spriteNames {
		ls.session.spriteNames[sl] = name
	}
	for _, s := range ls.sprites {
		ls.session.sprites.Add(s.Name, s.Image1x, s.Image2x)
	}
}

// spriteName is the name of the sprite drawn for the symbol layer, or "" if it has none
func (ls *layerState) spriteName(sl gisproject.SymbolLayer) string {
	if name, ok := ls.spriteNames[sl]; ok {
		return name
	}
	return ls.session.spriteNames[sl]
}

func (ls *layerState) newSpriteName(sl gisproject.SymbolLayer) string {
	switch symbolLayer := sl.(type) {
	case *gisproject.SVGMarkerSymbolLayer:
		if name := symbolLayer.SVGName(); name != "" {
			return name
		}
	case *gisproject.SVGFillSymbolLayer:
		if name := symbolLayer.SVGName(); name != "" {
			return name
		}
	}

	name := fmt.Sprintf("nonsvg_%d", ls.session.nonSVGCounter)
	ls.session.nonSVGCounter++
	return name
}

// collectSprite draws the symbol layer at 1x and 2x. Symbol layers that can't be drawn are skipped.
func (ls *layerState) collectSprite(sl gisproject.SymbolLayer) {
	if ls.spriteName(sl) != "" {
		return
	}

	img, ok, err := ls.session.renderer.RenderSymbolLayer(sl, 1)
	if err != nil {
		ls.session.logger.Warn("couldn't draw sprite for layer %q (symbol layer kind %q): %s", ls.layer.Name(), sl.Kind(), err.Error())
		return
	}
	if !ok {
		return
	}

	img2x, ok, err := ls.session.renderer.RenderSymbolLayer(sl, 2)
	if err != nil {
		ls.session.logger.Warn("couldn't draw 2x sprite for layer %q (symbol layer kind %q): %s", ls.layer.Name(), sl.Kind(), err.Error())
		return
	}
	if !ok {
		return
	}

	name := ls.newSpriteName(sl)
	ls.spriteNames[sl] = name
	ls.sprites = append(ls.sprites, &sprite.Sprite{Name: name, Image1x: img, Image2x: img2x})
}
