package webservices

import (
	"bytes"
	"net/http"
	"path/filepath"
	"sort"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"
	"github.com/jamesrr39/glstyle-bridge/glproject"
	"github.com/jamesrr39/glstyle-bridge/sprite"
	"github.com/jamesrr39/glstyle-bridge/styling/mapboxglstyle"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/gofs"
	"github.com/jamesrr39/goutil/logpkg"
)

func NewStyleInfoService(logger *logpkg.Logger, fs gofs.Fs, pathsConfig *glproject.PathsConfig) *StyleInfoService {
	ws := &StyleInfoService{logger, fs, pathsConfig, chi.NewRouter()}
	ws.Get("/", ws.handleGet)

	return ws
}

type StyleInfoService struct {
	logger      *logpkg.Logger
	fs          gofs.Fs
	pathsConfig *glproject.PathsConfig
	chi.Router
}

type layerInfoType struct {
	ID      string                  `json:"id"`
	Type    mapboxglstyle.LayerType `json:"type"`
	Source  string                  `json:"source"`
	MinZoom *float64                `json:"minzoom,omitempty"`
	MaxZoom *float64                `json:"maxzoom,omitempty"`
}

type sourceInfoType struct {
	Name string                   `json:"name"`
	Type mapboxglstyle.SourceType `json:"type"`
}

type styleInfoType struct {
	Name    string           `json:"name"`
	Center  [2]float64       `json:"center"`
	Zoom    float64          `json:"zoom"`
	Layers  []layerInfoType  `json:"layers"`
	Sources []sourceInfoType `json:"sources"`
	Sprites []string         `json:"sprites"`
}

func (ws *StyleInfoService) handleGet(w http.ResponseWriter, r *http.Request) {
	doc, err := loadStyleDocument(ws.fs, ws.pathsConfig)
	if err != nil {
		errorsx.HTTPError(w, ws.logger, err, http.StatusInternalServerError)
		return
	}

	info := styleInfoType{
		Name:    doc.Name,
		Center:  doc.Center,
		Zoom:    doc.Zoom,
		Layers:  []layerInfoType{},
		Sources: []sourceInfoType{},
		Sprites: []string{},
	}

	for _, layer := range doc.Layers {
		info.Layers = append(info.Layers, layerInfoType{layer.ID, layer.Type, layer.Source, layer.MinZoom, layer.MaxZoom})
	}

	for name, source := range doc.Sources {
		info.Sources = append(info.Sources, sourceInfoType{name, source.SourceType()})
	}

	// make deterministic
	sort.Slice(info.Sources, func(a, b int) bool {
		return info.Sources[a].Name < info.Sources[b].Name
	})

	if doc.Sprite != "" {
		sheet, err := sprite.LoadSheet(ws.fs, filepath.Join(ws.pathsConfig.Folder, doc.Sprite))
		if err != nil {
			errorsx.HTTPError(w, ws.logger, err, http.StatusInternalServerError)
			return
		}
		info.Sprites = append(info.Sprites, sheet.Names()...)
	}

	render.JSON(w, r, info)
}

func loadStyleDocument(fs gofs.Fs, pathsConfig *glproject.PathsConfig) (*mapboxglstyle.StyleDocument, errorsx.Error) {
	data, err := fs.ReadFile(pathsConfig.StyleFilePath())
	if err != nil {
		return nil, errorsx.Wrap(err, "path", pathsConfig.StyleFilePath())
	}

	doc, parseErr := mapboxglstyle.Parse(bytes.NewReader(data))
	if parseErr != nil {
		return nil, errorsx.Wrap(parseErr, "path", pathsConfig.StyleFilePath())
	}

	return doc, nil
}
