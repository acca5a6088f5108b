package webservices

import (
	"io"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	tracing "github.com/jamesrr39/go-tracing"
	"github.com/jamesrr39/glstyle-bridge/glproject"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/gofs"
	"github.com/jamesrr39/goutil/logpkg"
)

// NewPreviewRouter serves an exported folder: the API under /api/, and the folder's files (style document, data, sprite sheet, web page) from the root.
// Request traces are written to traceWriter.
func NewPreviewRouter(logger *logpkg.Logger, fs gofs.Fs, folder string, traceWriter io.Writer) (chi.Router, errorsx.Error) {
	pathsConfig := glproject.NewPathsConfig(folder)

	spriteService, err := NewSpriteService(logger, fs, pathsConfig)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	tracer := tracing.NewTracer(traceWriter)

	router := chi.NewRouter()
	router.Use(middleware.DefaultLogger)
	router.Use(tracing.Middleware(tracer))
	router.Route("/api/", func(r chi.Router) {
		r.Mount("/style", NewStyleInfoService(logger, fs, pathsConfig))
		r.Mount("/sprites/", spriteService)
	})

	router.Mount("/", http.FileServer(http.Dir(folder)))

	return router, nil
}
