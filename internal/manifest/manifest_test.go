package manifest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crossviz/go-viewer-backend/internal/token"
	"github.com/crossviz/go-viewer-backend/pkg/config"
)

func baseConfig() *config.Config {
	return &config.Config{
		Data: config.DataConfig{
			Name: "kidney",
			Objects: []config.DataObject{
				{Kind: "csv", URL: "https://example.org/cells.csv", DataType: "obs"},
				{Kind: "ome-tiff", URL: "https://example.org/image.ome.tif", Name: "Kidney"},
			},
		},
	}
}

func TestBuildAssemblesConfig(t *testing.T) {
	vc, err := Build(baseConfig())
	require.NoError(t, err)

	doc := vc.ToDict("http://localhost:8000")
	assert.Equal(t, "kidney", doc.Name)
	require.Len(t, doc.Datasets, 1)
	require.Len(t, doc.Datasets[0].Files, 2)
	assert.Equal(t, "obs.csv", doc.Datasets[0].Files[0].FileType)
	assert.Equal(t, "raster.json", doc.Datasets[0].Files[1].FileType)
}

func TestBuildAttachesAccessToken(t *testing.T) {
	cfg := baseConfig()
	cfg.Auth = config.AuthConfig{Enabled: true, Secret: "s3cret", ExpiryMinutes: 60}

	vc, err := Build(cfg)
	require.NoError(t, err)

	doc := vc.ToDict("http://localhost:8000")
	csv := doc.Datasets[0].Files[0]
	require.NotNil(t, csv.RequestInit)

	header := csv.RequestInit.Headers["Authorization"]
	require.True(t, strings.HasPrefix(header, "Bearer "))

	uid, err := token.Verify("s3cret", strings.TrimPrefix(header, "Bearer "))
	require.NoError(t, err)
	assert.Equal(t, "kidney", uid)
}

func TestBuildAuthWithoutSecretFails(t *testing.T) {
	cfg := baseConfig()
	cfg.Auth = config.AuthConfig{Enabled: true}

	_, err := Build(cfg)
	assert.Error(t, err)
}

func TestBuildRejectsInvalidObject(t *testing.T) {
	cfg := baseConfig()
	cfg.Data.Objects = []config.DataObject{{Kind: "csv", DataType: "obs"}}

	_, err := Build(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "data object 0 (csv)")
}

func TestBuildRejectsUnknownKind(t *testing.T) {
	cfg := baseConfig()
	cfg.Data.Objects = []config.DataObject{{Kind: "parquet"}}

	_, err := Build(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown kind "parquet"`)
}

func TestBuildAnnDataAxes(t *testing.T) {
	cfg := &config.Config{
		Data: config.DataConfig{
			Name: "sc",
			Objects: []config.DataObject{{
				Kind: "anndata-zarr",
				URL:  "https://example.org/adata.zarr",
				AnnData: config.AnnDataObject{
					ObsFeatureMatrixPath: "X",
					ObsEmbeddingPaths:    []string{"obsm/X_umap"},
				},
			}},
		},
	}

	vc, err := Build(cfg)
	require.NoError(t, err)

	doc := vc.ToDict("http://localhost:8000")
	require.Len(t, doc.Datasets[0].Files, 1)
	assert.Equal(t, "anndata.zarr", doc.Datasets[0].Files[0].FileType)
}
