package webservices

import (
	"bytes"
	"image/png"
	"net"
	"net/http"
	"path/filepath"

	"github.com/dgraph-io/ristretto"
	"github.com/go-chi/chi"
	tracing "github.com/jamesrr39/go-tracing"
	"github.com/jamesrr39/glstyle-bridge/glproject"
	"github.com/jamesrr39/glstyle-bridge/sprite"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/gofs"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jamesrr39/semaphore"
)

const maxConcurrentSlices = 4

// SpriteService serves single sprites cut out of the sheet of an exported folder, as PNG images
type SpriteService struct {
	logger      *logpkg.Logger
	fs          gofs.Fs
	pathsConfig *glproject.PathsConfig
	sema        *semaphore.Semaphore
	cache       *ristretto.Cache
	chi.Router
}

func NewSpriteService(logger *logpkg.Logger, fs gofs.Fs, pathsConfig *glproject.PathsConfig) (*SpriteService, errorsx.Error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e4,
		MaxCost:     32 << 20, // 32MB of encoded PNGs
		BufferItems: 64,
	})
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	ws := &SpriteService{logger, fs, pathsConfig, semaphore.NewSemaphore(maxConcurrentSlices), cache, chi.NewRouter()}
	ws.Get("/{name}.png", ws.handleGetSprite)

	return ws, nil
}

func (ws *SpriteService) handleGetSprite(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	data, ok := ws.getCached(name)
	if !ok {
		ws.sema.Add()
		defer ws.sema.Done()

		span := tracing.StartSpan(r.Context(), "slice sprite "+name)

		var err errorsx.Error
		data, err = ws.slice(name)
		span.End(r.Context())
		if err != nil {
			if errorsx.Cause(err) == sprite.ErrSpriteNotFound {
				errorsx.HTTPError(w, ws.logger, err, http.StatusNotFound)
				return
			}
			errorsx.HTTPError(w, ws.logger, err, http.StatusInternalServerError)
			return
		}

		ws.cache.Set(name, data, int64(len(data)))
	}

	w.Header().Set("Content-Type", "image/png")
	_, writeErr := w.Write(data)
	if writeErr != nil {
		switch writeErr.(type) {
		case *net.OpError:
			// broken pipe (request cancelled). Do nothing
		default:
			ws.logger.Error("failed to write sprite %q: %q", name, writeErr)
		}
	}
}

func (ws *SpriteService) getCached(name string) ([]byte, bool) {
	cached, ok := ws.cache.Get(name)
	if !ok {
		return nil, false
	}

	data, ok := cached.([]byte)
	return data, ok
}

func (ws *SpriteService) slice(name string) ([]byte, errorsx.Error) {
	doc, err := loadStyleDocument(ws.fs, ws.pathsConfig)
	if err != nil {
		return nil, err
	}

	if doc.Sprite == "" {
		return nil, errorsx.Wrap(sprite.ErrSpriteNotFound, "name", name, "reason", "style has no sprite sheet")
	}

	sheet, err := sprite.LoadSheet(ws.fs, filepath.Join(ws.pathsConfig.Folder, doc.Sprite))
	if err != nil {
		return nil, err
	}

	img, err := sheet.Slice(name)
	if err != nil {
		return nil, err
	}

	buf := bytes.NewBuffer(nil)
	encodeErr := png.Encode(buf, img)
	if encodeErr != nil {
		return nil, errorsx.Wrap(encodeErr, "name", name)
	}

	return buf.Bytes(), nil
}
