package importer

import (
	"errors"

	"github.com/jamesrr39/glstyle-bridge/sprite"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/gofs"
)

var ErrNoSpriteSheet = errors.New("the style document references a sprite but has no sprite sheet")

// SpriteSource turns a sprite name from a style document into an SVG file the host can use as a marker or pattern
type SpriteSource interface {
	SpriteSVG(name string) (svgPath string, size int, err errorsx.Error)
}

type spriteSVG struct {
	path string
	size int
}

// SheetSpriteSource cuts sprites out of a sprite sheet, writing each one out once
type SheetSpriteSource struct {
	fs      gofs.Fs
	sheet   *sprite.Sheet
	dir     string
	written map[string]spriteSVG
}

// NewSheetSpriteSource creates a source for the sheet. The sprite PNG and SVG files are written into dir.
// A nil sheet is allowed, for documents without sprites; looking up any sprite then fails.
func NewSheetSpriteSource(fs gofs.Fs, sheet *sprite.Sheet, dir string) *SheetSpriteSource {
	return &SheetSpriteSource{
		fs:      fs,
		sheet:   sheet,
		dir:     dir,
		written: make(map[string]spriteSVG),
	}
}

func (s *SheetSpriteSource) SpriteSVG(name string) (string, int, errorsx.Error) {
	if s.sheet == nil {
		return "", 0, errorsx.Wrap(ErrNoSpriteSheet, "name", name)
	}

	if svg, ok := s.written[name]; ok {
		return svg.path, svg.size, nil
	}

	path, size, err := sprite.WriteSpriteSVG(s.fs, s.sheet, name, s.dir)
	if err != nil {
		return "", 0, errorsx.Wrap(err)
	}

	s.written[name] = spriteSVG{path, size}
	return path, size, nil
}
