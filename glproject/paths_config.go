package glproject

import (
	"path/filepath"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/gofs"
)

const (
	StyleFileName = "mapbox.json"
	AppFileName   = "index.html"
	dataDirName   = "data"
)

// PathsConfig is the layout of an exported style folder
type PathsConfig struct {
	Folder  string
	DataDir string
}

func NewPathsConfig(folder string) *PathsConfig {
	return &PathsConfig{
		Folder:  folder,
		DataDir: filepath.Join(folder, dataDirName),
	}
}

func (pc *PathsConfig) EnsurePaths(fs gofs.Fs) errorsx.Error {
	for _, dirPath := range []string{pc.Folder, pc.DataDir} {
		err := fs.MkdirAll(dirPath, 0755)
		if err != nil {
			return errorsx.Wrap(err, "path", dirPath)
		}
	}

	return nil
}

func (pc *PathsConfig) StyleFilePath() string {
	return filepath.Join(pc.Folder, StyleFileName)
}

func (pc *PathsConfig) AppFilePath() string {
	return filepath.Join(pc.Folder, AppFileName)
}

func (pc *PathsConfig) DataFilePath(sourceName string) string {
	return filepath.Join(pc.DataDir, dataFileName(sourceName))
}

// DataFileReference is how the style document refers to a data file: relative to the folder, with forward slashes
func (pc *PathsConfig) DataFileReference(sourceName string) string {
	return dataDirName + "/" + dataFileName(sourceName)
}

func dataFileName(sourceName string) string {
	return sourceName + ".geojson"
}
