package wrapper

import (
	"github.com/google/uuid"
)

// ZarrConfig configures a Zarr-store wrapper. Exactly one of Path and URL
// must be set; Path names the root of the store directory.
type ZarrConfig struct {
	Path   string
	URL    string
	OutDir string
}

// OmeZarrWrapper adapts an OME-NGFF image pyramid stored as a Zarr
// directory. The whole store is served as a static mount.
type OmeZarrWrapper struct {
	base

	imgPath     string
	imgURL      string
	localDirUID string
}

// NewOmeZarrWrapper validates and constructs an OME-Zarr wrapper.
func NewOmeZarrWrapper(cfg ZarrConfig) (*OmeZarrWrapper, error) {
	if err := validateSource(cfg.Path, cfg.URL, "image"); err != nil {
		return nil, err
	}
	return &OmeZarrWrapper{
		base:        base{outDir: cfg.OutDir, isRemote: cfg.URL != ""},
		imgPath:     cfg.Path,
		imgURL:      cfg.URL,
		localDirUID: uuid.NewString(),
	}, nil
}

func (w *OmeZarrWrapper) ConvertAndSave(datasetUID string, objI int, baseDir string) error {
	if !w.isRemote {
		if err := w.ensureOutDir(datasetUID, objI); err != nil {
			return err
		}
	}
	if err := w.markConverted(datasetUID, objI, baseDir); err != nil {
		return err
	}
	w.routes = w.localDirRoute(w.imgPath, w.localDirUID)
	return nil
}

// ImgURL returns the URL of the store root.
func (w *OmeZarrWrapper) ImgURL(baseURL, datasetUID string, objI int) string {
	if w.isRemote {
		return w.imgURL
	}
	return w.localDirURL(baseURL, datasetUID, objI, w.imgPath, w.localDirUID)
}

func (w *OmeZarrWrapper) FileDefs(baseURL string) []FileDefinition {
	return []FileDefinition{{
		FileType: "image.ome-zarr",
		URL:      w.ImgURL(baseURL, w.datasetUID, w.objI),
	}}
}

// MultivecZarrWrapper adapts a multivec genomic-profiles Zarr store.
type MultivecZarrWrapper struct {
	base

	zarrPath    string
	zarrURL     string
	localDirUID string
}

// NewMultivecZarrWrapper validates and constructs a multivec wrapper.
func NewMultivecZarrWrapper(cfg ZarrConfig) (*MultivecZarrWrapper, error) {
	if err := validateSource(cfg.Path, cfg.URL, "zarr"); err != nil {
		return nil, err
	}
	return &MultivecZarrWrapper{
		base:        base{outDir: cfg.OutDir, isRemote: cfg.URL != ""},
		zarrPath:    cfg.Path,
		zarrURL:     cfg.URL,
		localDirUID: uuid.NewString(),
	}, nil
}

func (w *MultivecZarrWrapper) ConvertAndSave(datasetUID string, objI int, baseDir string) error {
	if !w.isRemote {
		if err := w.ensureOutDir(datasetUID, objI); err != nil {
			return err
		}
	}
	if err := w.markConverted(datasetUID, objI, baseDir); err != nil {
		return err
	}
	w.routes = w.localDirRoute(w.zarrPath, w.localDirUID)
	return nil
}

// ZarrURL returns the URL of the store root.
func (w *MultivecZarrWrapper) ZarrURL(baseURL, datasetUID string, objI int) string {
	if w.isRemote {
		return w.zarrURL
	}
	return w.localDirURL(baseURL, datasetUID, objI, w.zarrPath, w.localDirUID)
}

func (w *MultivecZarrWrapper) FileDefs(baseURL string) []FileDefinition {
	return []FileDefinition{{
		FileType: "genomic-profiles.zarr",
		URL:      w.ZarrURL(baseURL, w.datasetUID, w.objI),
	}}
}

var (
	_ Wrapper = (*CSVWrapper)(nil)
	_ Wrapper = (*OmeTiffWrapper)(nil)
	_ Wrapper = (*MultiImageWrapper)(nil)
	_ Wrapper = (*OmeZarrWrapper)(nil)
	_ Wrapper = (*MultivecZarrWrapper)(nil)
	_ Wrapper = (*AnnDataWrapper)(nil)
)
