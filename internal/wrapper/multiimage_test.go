package wrapper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMultiImageWrapperPreservesOrder(t *testing.T) {
	a, err := NewOmeTiffWrapper(OmeTiffConfig{URL: "https://example.org/a.ome.tif", Name: "Alpha"})
	require.NoError(t, err)
	b, err := NewOmeTiffWrapper(OmeTiffConfig{URL: "https://example.org/b.ome.tif", Name: "Beta"})
	require.NoError(t, err)

	w := NewMultiImageWrapper(MultiImageConfig{Images: []*OmeTiffWrapper{a, b}})
	require.NoError(t, w.ConvertAndSave("A", 0, ""))

	defs := w.FileDefs("http://localhost:8000")
	require.Len(t, defs, 1)
	assert.Equal(t, "raster.json", defs[0].FileType)

	raster, ok := defs[0].Options.(multiRasterJSON)
	require.True(t, ok)
	assert.Equal(t, "0.0.2", raster.SchemaVersion)
	require.Len(t, raster.Images, 2)
	assert.Equal(t, "Alpha", raster.Images[0].Name)
	assert.Equal(t, "Beta", raster.Images[1].Name)
	assert.Equal(t, []string{"Alpha", "Beta"}, raster.RenderLayers)
}

func TestMultiImageWrapperAdoptsChildRoutes(t *testing.T) {
	dir := t.TempDir()
	img := writeTestTIFF(t, dir)

	local, err := NewOmeTiffWrapper(OmeTiffConfig{Path: img, Name: "Local", OutDir: t.TempDir()})
	require.NoError(t, err)
	remote, err := NewOmeTiffWrapper(OmeTiffConfig{URL: "https://example.org/r.ome.tif", Name: "Remote"})
	require.NoError(t, err)

	w := NewMultiImageWrapper(MultiImageConfig{Images: []*OmeTiffWrapper{local, remote}})
	require.NoError(t, w.ConvertAndSave("A", 0, ""))

	// Pixels plus offsets for the local child, nothing for the remote one.
	assert.Len(t, w.Routes(), 2)
}

func TestMultiImageWrapperPhysicalSizeScaling(t *testing.T) {
	a, err := NewOmeTiffWrapper(OmeTiffConfig{URL: "https://example.org/a.ome.tif", Name: "Alpha"})
	require.NoError(t, err)

	w := NewMultiImageWrapper(MultiImageConfig{
		Images:                 []*OmeTiffWrapper{a},
		UsePhysicalSizeScaling: true,
	})
	require.NoError(t, w.ConvertAndSave("A", 0, ""))

	raster := w.FileDefs("http://x")[0].Options.(multiRasterJSON)
	assert.True(t, raster.UsePhysicalSizeScaling)
}
