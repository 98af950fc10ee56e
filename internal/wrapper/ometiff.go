package wrapper

import (
	"path/filepath"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/crossviz/go-viewer-backend/internal/serve"
)

// ImageDef is one image entry inside a raster file definition.
type ImageDef struct {
	Name     string         `json:"name"`
	Type     string         `json:"type"`
	URL      string         `json:"url"`
	Metadata *ImageMetadata `json:"metadata,omitempty"`
}

// ImageMetadata carries per-image rendering hints.
type ImageMetadata struct {
	OmeTiffOffsetsURL string     `json:"omeTiffOffsetsUrl,omitempty"`
	Transform         *Transform `json:"transform,omitempty"`
	IsBitmask         bool       `json:"isBitmask"`
}

// Transform is a column-major linear transform applied to an image.
type Transform struct {
	Matrix []float64 `json:"matrix"`
}

type singleRasterJSON struct {
	SchemaVersion string     `json:"schemaVersion"`
	Images        []ImageDef `json:"images"`
}

// rasterSchemaVersion is the raster.json schema the front-end understands.
const rasterSchemaVersion = "0.0.2"

// OmeTiffConfig configures an OmeTiffWrapper. Exactly one of Path and URL
// must be set.
type OmeTiffConfig struct {
	Path string
	URL  string

	// OffsetsURL points at a precomputed offsets index for remote images.
	// For local images the index is computed and served automatically.
	OffsetsURL string

	// Name is the display name of the image layer.
	Name string

	// TransformationMatrix, when non-nil, is passed through into the
	// image metadata.
	TransformationMatrix []float64

	// IsBitmask marks the image as a segmentation bitmask.
	IsBitmask bool

	OutDir string
}

// OmeTiffWrapper adapts a single OME-TIFF image. In indexed mode a
// companion byte-offset index is computed from the file's IFD chain and
// served next to the pixels; in mirrored (base-directory) mode the offsets
// route is suppressed, matching the upstream behavior for that layout.
type OmeTiffWrapper struct {
	base

	imgPath    string
	imgURL     string
	offsetsURL string
	name       string

	transformationMatrix []float64
	isBitmask            bool

	localImgUID     string
	localOffsetsUID string
}

// NewOmeTiffWrapper validates and constructs an OME-TIFF wrapper.
func NewOmeTiffWrapper(cfg OmeTiffConfig) (*OmeTiffWrapper, error) {
	if err := validateSource(cfg.Path, cfg.URL, "image"); err != nil {
		return nil, err
	}
	return &OmeTiffWrapper{
		base:                 base{outDir: cfg.OutDir, isRemote: cfg.URL != ""},
		imgPath:              cfg.Path,
		imgURL:               cfg.URL,
		offsetsURL:           cfg.OffsetsURL,
		name:                 cfg.Name,
		transformationMatrix: cfg.TransformationMatrix,
		isBitmask:            cfg.IsBitmask,
		localImgUID:          uuid.NewString(),
		localOffsetsUID:      uuid.NewString(),
	}, nil
}

// Name returns the display name of the image layer.
func (w *OmeTiffWrapper) Name() string { return w.name }

// ConvertAndSave computes the offsets index for local images and populates
// the pixel and offsets routes.
func (w *OmeTiffWrapper) ConvertAndSave(datasetUID string, objI int, baseDir string) error {
	if !w.isRemote {
		if err := w.ensureOutDir(datasetUID, objI); err != nil {
			return err
		}
	}
	if err := w.markConverted(datasetUID, objI, baseDir); err != nil {
		return err
	}
	routes, err := w.makeRoutes()
	if err != nil {
		return err
	}
	w.routes = routes
	return nil
}

func (w *OmeTiffWrapper) makeRoutes() ([]serve.Route, error) {
	if w.isRemote {
		return nil, nil
	}

	localImgPath := w.imgPath
	imgRoutePath := indexedPath(w.datasetUID, w.objI, w.localImgUID)
	serveOffsets := true
	if w.baseDir != "" {
		imgRoutePath, localImgPath = w.mirroredPaths(w.imgPath)
		// Offsets are not meaningful relative to an arbitrary mirrored
		// layout, so the index route is omitted in base-directory mode.
		serveOffsets = false
	}

	routes := []serve.Route{serve.FileRoute{
		RoutePath:    imgRoutePath,
		FilePath:     localImgPath,
		DownloadName: filepath.Base(w.imgPath),
	}}

	if serveOffsets {
		offsets, err := ReadIFDOffsets(localImgPath)
		if err != nil {
			return nil, err
		}
		payload, err := json.Marshal(offsets)
		if err != nil {
			return nil, err
		}
		routes = append(routes, serve.JSONRoute{
			RoutePath: indexedPath(w.datasetUID, w.objI, w.localOffsetsUID),
			Payload:   payload,
		})
	}
	return routes, nil
}

// ImageDef builds the image entry referencing the resolved pixel and
// offsets URLs. Used both for this wrapper's own raster definition and by
// MultiImageWrapper aggregation.
func (w *OmeTiffWrapper) ImageDef(datasetUID string, objI int, baseURL string) ImageDef {
	img := ImageDef{
		Name: w.name,
		Type: "ome-tiff",
		URL:  w.ImgURL(baseURL, datasetUID, objI),
	}
	meta := &ImageMetadata{IsBitmask: w.isBitmask}
	if offsetsURL := w.OffsetsURL(baseURL, datasetUID, objI); offsetsURL != "" && w.baseDir == "" {
		meta.OmeTiffOffsetsURL = offsetsURL
	}
	if w.transformationMatrix != nil {
		meta.Transform = &Transform{Matrix: w.transformationMatrix}
	}
	img.Metadata = meta
	return img
}

// FileDefs resolves the single-image raster definition against the base
// URL.
func (w *OmeTiffWrapper) FileDefs(baseURL string) []FileDefinition {
	return []FileDefinition{{
		FileType: "raster.json",
		Options: singleRasterJSON{
			SchemaVersion: rasterSchemaVersion,
			Images:        []ImageDef{w.ImageDef(w.datasetUID, w.objI, baseURL)},
		},
	}}
}

// ImgURL returns the URL the front-end fetches pixel data from.
func (w *OmeTiffWrapper) ImgURL(baseURL, datasetUID string, objI int) string {
	if w.isRemote {
		return w.imgURL
	}
	if w.baseDir != "" {
		return w.mirroredURL(baseURL, w.imgPath)
	}
	return indexedURL(baseURL, datasetUID, objI, w.localImgUID)
}

// OffsetsURL returns the URL of the byte-offset index, or "" when none is
// served.
func (w *OmeTiffWrapper) OffsetsURL(baseURL, datasetUID string, objI int) string {
	if w.offsetsURL != "" || w.isRemote {
		return w.offsetsURL
	}
	return indexedURL(baseURL, datasetUID, objI, w.localOffsetsUID)
}
