package sprite

import (
	"bytes"
	"encoding/json"
	"errors"
	"image"
	"image/draw"
	"image/png"
	"path/filepath"
	"sort"

	"github.com/jamesrr39/glstyle-bridge/styling"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/gofs"
)

const DefaultSheetName = "spriteSheet"

var ErrSpriteNotFound = errors.New("sprite not found")

type Entry struct {
	Width      int `json:"width"`
	Height     int `json:"height"`
	X          int `json:"x"`
	Y          int `json:"y"`
	PixelRatio int `json:"pixelRatio"`
}

// Index maps sprite names to their position in a sheet image
type Index map[string]Entry

type Sprite struct {
	Name    string
	Image1x image.Image
	Image2x image.Image
}

// Collection holds sprites in the order they were first added
type Collection struct {
	sprites []*Sprite
	byName  map[string]*Sprite
}

func NewCollection() *Collection {
	return &Collection{byName: make(map[string]*Sprite)}
}

// Add adds a sprite. Adding a name again replaces the images but keeps the original position.
func (c *Collection) Add(name string, img1x, img2x image.Image) {
	existing, ok := c.byName[name]
	if ok {
		existing.Image1x = img1x
		existing.Image2x = img2x
		return
	}

	s := &Sprite{name, img1x, img2x}
	c.sprites = append(c.sprites, s)
	c.byName[name] = s
}

func (c *Collection) Has(name string) bool {
	_, ok := c.byName[name]
	return ok
}

func (c *Collection) Len() int {
	return len(c.sprites)
}

func (c *Collection) Sprites() []*Sprite {
	return c.sprites
}

type Sheet struct {
	Index1x Index
	Index2x Index
	Image1x image.Image
	Image2x image.Image
}

// BuildSheet packs the sprites left to right, in collection order.
// The sheet is as high as the highest sprite and as wide as all the sprites together; the 2x sheet is double both.
func BuildSheet(collection *Collection) *Sheet {
	var width, height int
	for _, s := range collection.Sprites() {
		bounds := s.Image1x.Bounds()
		width += bounds.Dx()
		if bounds.Dy() > height {
			height = bounds.Dy()
		}
	}

	img1x := image.NewRGBA(image.Rect(0, 0, width, height))
	img2x := image.NewRGBA(image.Rect(0, 0, width*2, height*2))

	index1x := Index{styling.NoIconName: {PixelRatio: 1}}
	index2x := Index{styling.NoIconName: {PixelRatio: 2}}

	x := 0
	for _, s := range collection.Sprites() {
		bounds1x := s.Image1x.Bounds()
		bounds2x := s.Image2x.Bounds()

		draw.Draw(img1x, image.Rect(x, 0, x+bounds1x.Dx(), bounds1x.Dy()), s.Image1x, bounds1x.Min, draw.Over)
		draw.Draw(img2x, image.Rect(x*2, 0, x*2+bounds2x.Dx(), bounds2x.Dy()), s.Image2x, bounds2x.Min, draw.Over)

		index1x[s.Name] = Entry{
			Width:      bounds1x.Dx(),
			Height:     bounds1x.Dy(),
			X:          x,
			Y:          0,
			PixelRatio: 1,
		}
		index2x[s.Name] = Entry{
			Width:      bounds2x.Dx(),
			Height:     bounds2x.Dy(),
			X:          x * 2,
			Y:          0,
			PixelRatio: 2,
		}

		x += bounds1x.Dx()
	}

	return &Sheet{index1x, index2x, img1x, img2x}
}

// Names lists the sprites in the sheet, not including no_icon
func (s *Sheet) Names() []string {
	var names []string
	for name := range s.Index1x {
		if name == styling.NoIconName {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Write writes <baseName>.png, <baseName>@2x.png, <baseName>.json and <baseName>@2x.json into dir
func (s *Sheet) Write(fs gofs.Fs, dir, baseName string) errorsx.Error {
	basePath := filepath.Join(dir, baseName)

	files := []struct {
		path string
		img  image.Image
		idx  Index
	}{
		{basePath, s.Image1x, s.Index1x},
		{basePath + "@2x", s.Image2x, s.Index2x},
	}

	for _, file := range files {
		err := writePNG(fs, file.path+".png", file.img)
		if err != nil {
			return errorsx.Wrap(err)
		}

		err = writeIndex(fs, file.path+".json", file.idx)
		if err != nil {
			return errorsx.Wrap(err)
		}
	}

	return nil
}

func writePNG(fs gofs.Fs, path string, img image.Image) errorsx.Error {
	buf := bytes.NewBuffer(nil)
	err := png.Encode(buf, img)
	if err != nil {
		return errorsx.Wrap(err, "path", path)
	}

	err = fs.WriteFile(path, buf.Bytes(), 0644)
	if err != nil {
		return errorsx.Wrap(err, "path", path)
	}

	return nil
}

func writeIndex(fs gofs.Fs, path string, idx Index) errorsx.Error {
	buf := bytes.NewBuffer(nil)
	encoder := json.NewEncoder(buf)
	encoder.SetIndent("", "  ")
	err := encoder.Encode(idx)
	if err != nil {
		return errorsx.Wrap(err, "path", path)
	}

	err = fs.WriteFile(path, buf.Bytes(), 0644)
	if err != nil {
		return errorsx.Wrap(err, "path", path)
	}

	return nil
}

// LoadSheet reads the 1x index and image of a sheet written by Sheet.Write.
// basePath is the sheet path without extension, as referenced by a style document.
func LoadSheet(fs gofs.Fs, basePath string) (*Sheet, errorsx.Error) {
	indexPath := basePath + ".json"
	data, err := fs.ReadFile(indexPath)
	if err != nil {
		return nil, errorsx.Wrap(err, "path", indexPath)
	}

	idx := make(Index)
	err = json.Unmarshal(data, &idx)
	if err != nil {
		return nil, errorsx.Wrap(err, "path", indexPath)
	}

	imagePath := basePath + ".png"
	file, err := fs.Open(imagePath)
	if err != nil {
		return nil, errorsx.Wrap(err, "path", imagePath)
	}
	defer file.Close()

	img, err := png.Decode(file)
	if err != nil {
		return nil, errorsx.Wrap(err, "path", imagePath)
	}

	return &Sheet{Index1x: idx, Image1x: img}, nil
}

// Slice copies a single sprite out of the 1x sheet image
func (s *Sheet) Slice(name string) (*image.RGBA, errorsx.Error) {
	entry, ok := s.Index1x[name]
	if !ok {
		return nil, errorsx.Wrap(ErrSpriteNotFound, "name", name)
	}

	rect := image.Rect(entry.X, entry.Y, entry.X+entry.Width, entry.Y+entry.Height)
	if !rect.In(s.Image1x.Bounds()) {
		return nil, errorsx.Errorf("sprite %q (%v) is outside of the sheet image (%v)", name, rect, s.Image1x.Bounds())
	}

	img := image.NewRGBA(image.Rect(0, 0, entry.Width, entry.Height))
	draw.Draw(img, img.Bounds(), s.Image1x, rect.Min, draw.Src)

	return img, nil
}
