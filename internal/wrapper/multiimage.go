package wrapper

import (
	"github.com/crossviz/go-viewer-backend/internal/serve"
)

type multiRasterJSON struct {
	SchemaVersion          string     `json:"schemaVersion"`
	UsePhysicalSizeScaling bool       `json:"usePhysicalSizeScaling"`
	Images                 []ImageDef `json:"images"`
	RenderLayers           []string   `json:"renderLayers"`
}

// MultiImageWrapper combines an ordered list of image wrappers into one
// raster definition. The images and renderLayers lists stay index-aligned
// with the input order.
type MultiImageWrapper struct {
	base

	images                 []*OmeTiffWrapper
	usePhysicalSizeScaling bool
}

// MultiImageConfig configures a MultiImageWrapper.
type MultiImageConfig struct {
	Images                 []*OmeTiffWrapper
	UsePhysicalSizeScaling bool
	OutDir                 string
}

// NewMultiImageWrapper constructs a multiplexed image wrapper.
func NewMultiImageWrapper(cfg MultiImageConfig) *MultiImageWrapper {
	return &MultiImageWrapper{
		base:                   base{outDir: cfg.OutDir},
		images:                 cfg.Images,
		usePhysicalSizeScaling: cfg.UsePhysicalSizeScaling,
	}
}

// ConvertAndSave converts each child image in order and adopts their
// routes.
func (w *MultiImageWrapper) ConvertAndSave(datasetUID string, objI int, baseDir string) error {
	for _, img := range w.images {
		if err := img.ConvertAndSave(datasetUID, objI, baseDir); err != nil {
			return err
		}
	}
	if err := w.markConverted(datasetUID, objI, baseDir); err != nil {
		return err
	}
	var routes []serve.Route
	for _, img := range w.images {
		routes = append(routes, img.Routes()...)
	}
	w.routes = routes
	return nil
}

// FileDefs aggregates the child image definitions into one raster
// definition with a parallel layer-name list.
func (w *MultiImageWrapper) FileDefs(baseURL string) []FileDefinition {
	raster := multiRasterJSON{
		SchemaVersion:          rasterSchemaVersion,
		UsePhysicalSizeScaling: w.usePhysicalSizeScaling,
		Images:                 make([]ImageDef, 0, len(w.images)),
		RenderLayers:           make([]string, 0, len(w.images)),
	}
	for _, img := range w.images {
		raster.Images = append(raster.Images, img.ImageDef(w.datasetUID, w.objI, baseURL))
		raster.RenderLayers = append(raster.RenderLayers, img.Name())
	}
	return []FileDefinition{{
		FileType: "raster.json",
		Options:  raster,
	}}
}
