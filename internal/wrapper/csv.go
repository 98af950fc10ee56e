package wrapper

import (
	"fmt"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/crossviz/go-viewer-backend/internal/serve"
)

// CSVConfig configures a CSVWrapper. Exactly one of Path and URL must be
// set; DataType is required.
type CSVConfig struct {
	Path string
	URL  string

	// DataType tags the information in the file (e.g. "obs"); the file
	// definition's fileType becomes "{DataType}.csv".
	DataType string

	Options            any
	CoordinationValues map[string]string
	RequestInit        *RequestInit

	// OutDir overrides the wrapper-owned output directory (a temp
	// directory by default).
	OutDir string
}

// CSVWrapper adapts a tabular CSV file.
type CSVWrapper struct {
	base

	csvPath  string
	csvURL   string
	dataType string

	options            any
	coordinationValues map[string]string
	requestInit        *RequestInit

	localCSVUID string
}

// NewCSVWrapper validates and constructs a CSV wrapper.
func NewCSVWrapper(cfg CSVConfig) (*CSVWrapper, error) {
	if cfg.DataType == "" {
		return nil, fmt.Errorf("expected a data type for the csv file")
	}
	if err := validateSource(cfg.Path, cfg.URL, "csv"); err != nil {
		return nil, err
	}
	return &CSVWrapper{
		base:               base{outDir: cfg.OutDir, isRemote: cfg.URL != ""},
		csvPath:            cfg.Path,
		csvURL:             cfg.URL,
		dataType:           cfg.DataType,
		options:            cfg.Options,
		coordinationValues: cfg.CoordinationValues,
		requestInit:        cfg.RequestInit,
		localCSVUID:        uuid.NewString(),
	}, nil
}

// ConvertAndSave records identity and populates the file route for local
// sources.
func (w *CSVWrapper) ConvertAndSave(datasetUID string, objI int, baseDir string) error {
	if !w.isRemote {
		if err := w.ensureOutDir(datasetUID, objI); err != nil {
			return err
		}
	}
	if err := w.markConverted(datasetUID, objI, baseDir); err != nil {
		return err
	}
	w.routes = w.makeRoutes()
	return nil
}

func (w *CSVWrapper) makeRoutes() []serve.Route {
	if w.isRemote {
		return nil
	}
	localPath := w.csvPath
	routePath := indexedPath(w.datasetUID, w.objI, w.localCSVUID)
	if w.baseDir != "" {
		routePath, localPath = w.mirroredPaths(w.csvPath)
	}
	return []serve.Route{serve.FileRoute{
		RoutePath:    routePath,
		FilePath:     localPath,
		DownloadName: filepath.Base(w.csvPath),
	}}
}

// FileDefs resolves the CSV file definition against the base URL.
func (w *CSVWrapper) FileDefs(baseURL string) []FileDefinition {
	def := FileDefinition{
		FileType:           fmt.Sprintf("%s.csv", w.dataType),
		URL:                w.CSVURL(baseURL, w.datasetUID, w.objI),
		Options:            w.options,
		CoordinationValues: w.coordinationValues,
		RequestInit:        w.requestInit,
	}
	return []FileDefinition{def}
}

// CSVURL returns the URL the front-end fetches the CSV from, under the
// routing policy in effect.
func (w *CSVWrapper) CSVURL(baseURL, datasetUID string, objI int) string {
	if w.isRemote {
		return w.csvURL
	}
	if w.baseDir != "" {
		return w.mirroredURL(baseURL, w.csvPath)
	}
	return indexedURL(baseURL, datasetUID, objI, w.localCSVUID)
}

// SetRequestInit attaches fetch options (e.g. an Authorization header) to
// the produced file definition.
func (w *CSVWrapper) SetRequestInit(ri *RequestInit) { w.requestInit = ri }
