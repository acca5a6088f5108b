package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/jamesrr39/glstyle-bridge/exporter"
	"github.com/jamesrr39/glstyle-bridge/gisproject"
	"github.com/jamesrr39/glstyle-bridge/glproject"
	"github.com/jamesrr39/glstyle-bridge/webservices"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/gofs"
	"github.com/jamesrr39/goutil/httpextra"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jamesrr39/goutil/open"
	"github.com/jamesrr39/goutil/userextra"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/pkg/profile"
)

const (
	DEFAULT_PORT                = 9000
	MAX_SERVER_RUNNING_ATTEMPTS = 50
)

var logger *logpkg.Logger

func main() {
	verbose := kingpin.Flag("v", "verbose logging").Bool()

	setupExport()
	setupImport()
	setupCheck()
	setupInspect()
	setupServe()

	// the logger is needed by the command actions, which run inside Parse, so the level is picked up in a PreAction
	kingpin.CommandLine.PreAction(func(ctx *kingpin.ParseContext) error {
		logLevel := logpkg.LogLevelInfo
		if *verbose {
			logLevel = logpkg.LogLevelDebug
		}
		logger = logpkg.NewLogger(os.Stderr, logLevel)
		return nil
	})

	kingpin.Parse()
}

func runAction(run func() errorsx.Error) kingpin.Action {
	return func(ctx *kingpin.ParseContext) error {
		err := run()
		if err != nil {
			return fmt.Errorf("error: %q\nStack trace:\n%s", err.Error(), err.Stack())
		}
		return nil
	}
}

func expandPaths(paths ...*string) errorsx.Error {
	for _, path := range paths {
		expanded, err := userextra.ExpandUser(*path)
		if err != nil {
			return errorsx.Wrap(err, "path", *path)
		}
		*path = expanded
	}
	return nil
}

func setupExport() {
	cmd := kingpin.Command("export", "export a project to a folder holding a Mapbox GL style, its GeoJSON data and a sprite sheet")
	projectFilePath := cmd.Arg("project-file", "project file (YAML) to export").Required().String()
	folder := cmd.Arg("folder", "folder to export into. It is created if it doesn't exist").Required().String()
	includeApp := cmd.Flag("include-app", "also write a web page that shows the exported style").Bool()
	precision := cmd.Flag("precision", "decimal places kept in GeoJSON coordinates").Default(fmt.Sprintf("%d", glproject.DefaultPrecision)).Int()
	shouldProfile := cmd.Flag("profile", "profile the export performance").Bool()
	cmd.Action(runAction(func() errorsx.Error {
		err := expandPaths(projectFilePath, folder)
		if err != nil {
			return err
		}

		if *shouldProfile {
			defer profile.Start(profile.ProfilePath(*folder), profile.CPUProfile).Stop()
		}

		fs := gofs.NewOsFs()

		startTime := time.Now()

		proj, err := gisproject.LoadProjectFile(fs, *projectFilePath)
		if err != nil {
			return errorsx.Wrap(err)
		}

		options := glproject.DefaultExportOptions()
		options.Precision = *precision
		options.IncludeApp = *includeApp

		_, err = glproject.Export(logger, fs, proj, *folder, options)
		if err != nil {
			return errorsx.Wrap(err)
		}

		logger.Info("export finished in %v", time.Since(startTime))
		return nil
	}))
}

func setupImport() {
	cmd := kingpin.Command("import", "import a Mapbox GL style document into a new project file")
	styleFilePath := cmd.Arg("style-file", "style document (mapbox.json) to import").Required().String()
	projectFilePath := cmd.Arg("project-file", "project file (YAML) to write").Required().String()
	cmd.Action(runAction(func() errorsx.Error {
		err := expandPaths(styleFilePath, projectFilePath)
		if err != nil {
			return err
		}

		fs := gofs.NewOsFs()

		proj, err := glproject.OpenStyleFile(logger, fs, *styleFilePath, nil)
		if err != nil {
			return errorsx.Wrap(err)
		}

		err = gisproject.SaveProjectFile(fs, *projectFilePath, proj)
		if err != nil {
			return errorsx.Wrap(err)
		}

		logger.Info("wrote project %q to %q", proj.Name(), *projectFilePath)
		return nil
	}))
}

func setupCheck() {
	cmd := kingpin.Command("check", "check which layers of a project can be exported without loss")
	projectFilePath := cmd.Arg("project-file", "project file (YAML) to check").Required().String()
	cmd.Action(runAction(func() errorsx.Error {
		err := expandPaths(projectFilePath)
		if err != nil {
			return err
		}

		proj, err := gisproject.LoadProjectFile(gofs.NewOsFs(), *projectFilePath)
		if err != nil {
			return errorsx.Wrap(err)
		}

		incompatibleCount := 0
		for _, layer := range proj.Layers() {
			ok, message := exporter.CheckCompatibility(layer)
			switch {
			case !ok:
				incompatibleCount++
				fmt.Printf("%s: %s\n", layer.Name(), message)
			case message != "":
				fmt.Printf("%s: OK, with warnings:\n%s\n", layer.Name(), message)
			default:
				fmt.Printf("%s: OK\n", layer.Name())
			}
		}

		if incompatibleCount != 0 {
			return errorsx.Errorf("%d of %d layers can't be fully exported", incompatibleCount, len(proj.Layers()))
		}
		return nil
	}))
}

func setupInspect() {
	cmd := kingpin.Command("inspect", "print the layers and symbology of a project")
	projectFilePath := cmd.Arg("project-file", "project file (YAML) to inspect").Required().String()
	cmd.Action(runAction(func() errorsx.Error {
		err := expandPaths(projectFilePath)
		if err != nil {
			return err
		}

		proj, err := gisproject.LoadProjectFile(gofs.NewOsFs(), *projectFilePath)
		if err != nil {
			return errorsx.Wrap(err)
		}

		fmt.Println(gisproject.DescribeProject(proj))
		return nil
	}))
}

var addrHelp = fmt.Sprintf(
	`address to serve on. Ex: ':%d' listen on port %d to traffic from anywhere. 'localhost:%d' listen on port %d to traffic from localhost`,
	DEFAULT_PORT, DEFAULT_PORT, DEFAULT_PORT, DEFAULT_PORT,
)

func setupServe() {
	cmd := kingpin.Command("serve", "serve an exported folder, to preview the style in a browser")
	folder := cmd.Arg("folder", "exported folder to serve").Required().String()
	addr := cmd.Flag("addr", addrHelp).Default(fmt.Sprintf("localhost:%d", DEFAULT_PORT)).String()
	shouldOpen := cmd.Flag("open", "open the preview in the default browser").Bool()
	cmd.Action(runAction(func() errorsx.Error {
		err := expandPaths(folder)
		if err != nil {
			return err
		}

		traceFilePath := filepath.Join(os.TempDir(), fmt.Sprintf("glstyle-bridge_trace_%s.pbf", time.Now().Format("2006-01-02__03_04_05")))
		logger.Info("tracing at %q", traceFilePath)

		traceFile, createErr := os.Create(traceFilePath)
		if createErr != nil {
			return errorsx.Wrap(createErr)
		}
		defer traceFile.Close()

		router, err := webservices.NewPreviewRouter(logger, gofs.NewOsFs(), *folder, traceFile)
		if err != nil {
			return errorsx.Wrap(err)
		}

		server := httpextra.NewServerWithTimeouts()
		server.Addr = *addr
		server.Handler = router

		errChan := make(chan errorsx.Error)

		go func() {
			logger.Info("about to start serving %q on %q", *folder, *addr)
			listenErr := server.ListenAndServe()
			errChan <- errorsx.Wrap(listenErr)
		}()

		if *shouldOpen {
			err = waitForServer(server.Addr)
			if err != nil {
				return errorsx.Wrap(err)
			}

			openErr := open.OpenURL(fmt.Sprintf("http://%s/%s", server.Addr, glproject.AppFileName))
			if openErr != nil {
				return errorsx.Wrap(openErr)
			}
		}

		return <-errChan
	}))
}

func waitForServer(addr string) errorsx.Error {
	client := http.Client{
		Timeout: time.Second * 10,
	}

	for i := 0; i < MAX_SERVER_RUNNING_ATTEMPTS; i++ {
		resp, err := client.Get(fmt.Sprintf("http://%s/api/style", addr))
		if err != nil {
			// retry after wait
			time.Sleep(time.Millisecond * 500)
			continue
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return errorsx.Errorf("expected response code %d from /api/style call, but got %d", http.StatusOK, resp.StatusCode)
		}

		return nil
	}

	return errorsx.Errorf("server did not start after %d attempts", MAX_SERVER_RUNNING_ATTEMPTS)
}
