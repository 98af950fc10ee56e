package wrapper

import (
	"strings"

	"github.com/google/uuid"
)

// AnnDataConfig configures an AnnDataWrapper. Exactly one of Path and URL
// must be set; every data axis is optional.
type AnnDataConfig struct {
	Path string
	URL  string

	// ObsFeatureMatrixPath locates the cell-by-feature expression
	// matrix, like "X" or "obsm/highly_variable_genes_subset".
	ObsFeatureMatrixPath string

	// FeatureFilterPath and InitialFeatureFilterPath subset the feature
	// list when the matrix covers only part of it.
	FeatureFilterPath        string
	InitialFeatureFilterPath string

	// ObsSetPaths are column paths like "obs/louvain" used for cell
	// sets; ObsSetNames override their display names.
	ObsSetPaths []string
	ObsSetNames []string

	// ObsLocationsPath and ObsSegmentationsPath locate spatial centroids
	// and polygon outlines.
	ObsLocationsPath     string
	ObsSegmentationsPath string

	// ObsEmbeddingPaths are scatterplot mappings like "obsm/X_umap";
	// names and per-mapping dims are optional overrides.
	ObsEmbeddingPaths []string
	ObsEmbeddingNames []string
	ObsEmbeddingDims  [][]int

	// FeatureLabelsPath names a column of display labels replacing the
	// default feature index.
	FeatureLabelsPath string

	RequestInit        *RequestInit
	CoordinationValues map[string]string

	OutDir string
}

// AnnDataWrapper adapts a Zarr-backed single-cell matrix store. Its file
// definition is conditional: when no data axis is configured at all, no
// definition is produced, which keeps an empty options object out of the
// emitted config.
type AnnDataWrapper struct {
	base

	adataPath string
	adataURL  string

	cfg AnnDataConfig

	localDirUID string
}

type pathOption struct {
	Path string `json:"path"`
}

type embeddingOption struct {
	Path          string `json:"path"`
	Dims          []int  `json:"dims"`
	EmbeddingType string `json:"embeddingType"`
}

type setOption struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

type featureMatrixOption struct {
	Path                     string `json:"path"`
	FeatureFilterPath        string `json:"featureFilterPath,omitempty"`
	InitialFeatureFilterPath string `json:"initialFeatureFilterPath,omitempty"`
}

type annDataOptions struct {
	ObsLocations     *pathOption          `json:"obsLocations,omitempty"`
	ObsSegmentations *pathOption          `json:"obsSegmentations,omitempty"`
	ObsEmbedding     []embeddingOption    `json:"obsEmbedding,omitempty"`
	ObsSets          []setOption          `json:"obsSets,omitempty"`
	ObsFeatureMatrix *featureMatrixOption `json:"obsFeatureMatrix,omitempty"`
	FeatureLabels    *pathOption          `json:"featureLabels,omitempty"`
}

func (o annDataOptions) empty() bool {
	return o.ObsLocations == nil && o.ObsSegmentations == nil &&
		len(o.ObsEmbedding) == 0 && len(o.ObsSets) == 0 &&
		o.ObsFeatureMatrix == nil && o.FeatureLabels == nil
}

// NewAnnDataWrapper validates and constructs an AnnData wrapper.
func NewAnnDataWrapper(cfg AnnDataConfig) (*AnnDataWrapper, error) {
	if err := validateSource(cfg.Path, cfg.URL, "anndata"); err != nil {
		return nil, err
	}
	return &AnnDataWrapper{
		base:        base{outDir: cfg.OutDir, isRemote: cfg.URL != ""},
		adataPath:   cfg.Path,
		adataURL:    cfg.URL,
		cfg:         cfg,
		localDirUID: uuid.NewString(),
	}, nil
}

func (w *AnnDataWrapper) ConvertAndSave(datasetUID string, objI int, baseDir string) error {
	if !w.isRemote {
		if err := w.ensureOutDir(datasetUID, objI); err != nil {
			return err
		}
	}
	if err := w.markConverted(datasetUID, objI, baseDir); err != nil {
		return err
	}
	w.routes = w.localDirRoute(w.adataPath, w.localDirUID)
	return nil
}

// ZarrURL returns the URL of the store root.
func (w *AnnDataWrapper) ZarrURL(baseURL, datasetUID string, objI int) string {
	if w.isRemote {
		return w.adataURL
	}
	return w.localDirURL(baseURL, datasetUID, objI, w.adataPath, w.localDirUID)
}

// FileDefs assembles the anndata.zarr definition from the configured data
// axes, or nothing when none were configured.
func (w *AnnDataWrapper) FileDefs(baseURL string) []FileDefinition {
	opts := w.buildOptions()
	if opts.empty() {
		return nil
	}
	def := FileDefinition{
		FileType:           "anndata.zarr",
		URL:                w.ZarrURL(baseURL, w.datasetUID, w.objI),
		Options:            opts,
		RequestInit:        w.cfg.RequestInit,
		CoordinationValues: w.cfg.CoordinationValues,
	}
	return []FileDefinition{def}
}

func (w *AnnDataWrapper) buildOptions() annDataOptions {
	var opts annDataOptions
	c := w.cfg

	if c.ObsLocationsPath != "" {
		opts.ObsLocations = &pathOption{Path: c.ObsLocationsPath}
	}
	if c.ObsSegmentationsPath != "" {
		opts.ObsSegmentations = &pathOption{Path: c.ObsSegmentationsPath}
	}

	for i, mapping := range c.ObsEmbeddingPaths {
		name := lastPathSegment(mapping)
		if i < len(c.ObsEmbeddingNames) {
			name = c.ObsEmbeddingNames[i]
		}
		dims := []int{0, 1}
		if i < len(c.ObsEmbeddingDims) && c.ObsEmbeddingDims[i] != nil {
			dims = c.ObsEmbeddingDims[i]
		}
		opts.ObsEmbedding = append(opts.ObsEmbedding, embeddingOption{
			Path:          mapping,
			Dims:          dims,
			EmbeddingType: name,
		})
	}

	for i, set := range c.ObsSetPaths {
		name := lastPathSegment(set)
		if i < len(c.ObsSetNames) {
			name = c.ObsSetNames[i]
		}
		opts.ObsSets = append(opts.ObsSets, setOption{Name: name, Path: set})
	}

	if c.ObsFeatureMatrixPath != "" {
		opts.ObsFeatureMatrix = &featureMatrixOption{
			Path:                     c.ObsFeatureMatrixPath,
			FeatureFilterPath:        c.FeatureFilterPath,
			InitialFeatureFilterPath: c.InitialFeatureFilterPath,
		}
		if c.FeatureLabelsPath != "" {
			opts.FeatureLabels = &pathOption{Path: c.FeatureLabelsPath}
		}
	}

	return opts
}

// SetRequestInit attaches fetch options (e.g. an Authorization header) to
// the produced file definition.
func (w *AnnDataWrapper) SetRequestInit(ri *RequestInit) { w.cfg.RequestInit = ri }

// HasSpatial reports whether a spatial axis (centroids or segmentations)
// is configured; the auto view layout adds a spatial view when it is.
func (w *AnnDataWrapper) HasSpatial() bool {
	return w.cfg.ObsLocationsPath != "" || w.cfg.ObsSegmentationsPath != ""
}

// FirstEmbeddingName returns the display name of the first configured
// embedding, or "".
func (w *AnnDataWrapper) FirstEmbeddingName() string {
	if len(w.cfg.ObsEmbeddingNames) > 0 {
		return w.cfg.ObsEmbeddingNames[0]
	}
	if len(w.cfg.ObsEmbeddingPaths) > 0 {
		return lastPathSegment(w.cfg.ObsEmbeddingPaths[0])
	}
	return ""
}

func lastPathSegment(p string) string {
	if i := strings.LastIndex(p, "/"); i >= 0 {
		return p[i+1:]
	}
	return p
}
