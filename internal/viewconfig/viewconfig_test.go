package viewconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crossviz/go-viewer-backend/internal/wrapper"
)

func TestScopeNameSequence(t *testing.T) {
	assert.Equal(t, "A", scopeName(0))
	assert.Equal(t, "B", scopeName(1))
	assert.Equal(t, "Z", scopeName(25))
	assert.Equal(t, "AA", scopeName(26))
	assert.Equal(t, "AB", scopeName(27))
	assert.Equal(t, "AZ", scopeName(51))
	assert.Equal(t, "BA", scopeName(52))
}

func TestNextScopeNameSkipsUsed(t *testing.T) {
	assert.Equal(t, "A", nextScopeName(nil))
	assert.Equal(t, "C", nextScopeName([]string{"A", "B"}))
	assert.Equal(t, "B", nextScopeName([]string{"A", "C"}))
}

func TestAddDatasetMintsUIDs(t *testing.T) {
	c := New("My Config")
	a := c.AddDataset("First")
	b := c.AddDataset("Second")
	assert.Equal(t, "A", a.UID())
	assert.Equal(t, "B", b.UID())

	custom := c.AddDataset("Third", "special")
	assert.Equal(t, "special", custom.UID())

	// Each dataset lands in the coordination space as a dataset scope.
	value, err := c.CoordinationValue("dataset", "A")
	require.NoError(t, err)
	assert.Equal(t, "A", value)
}

func TestCoordinationValueLookup(t *testing.T) {
	c := New("cfg")

	_, err := c.CoordinationValue("spatialZoom", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no coordination scopes were found for the coordination type "spatialZoom"`)

	scope := c.AddCoordination("spatialZoom", -3.0)
	assert.Equal(t, "A", scope)

	// Single scope resolves without naming it.
	value, err := c.CoordinationValue("spatialZoom", "")
	require.NoError(t, err)
	assert.Equal(t, -3.0, value)

	_, err = c.CoordinationValue("spatialZoom", "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `could not be found`)
	assert.Contains(t, err.Error(), "[A]")

	c.AddCoordination("spatialZoom", -5.0)
	_, err = c.CoordinationValue("spatialZoom", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "multiple scopes exist")
	assert.Contains(t, err.Error(), "[A B]")

	value, err = c.CoordinationValue("spatialZoom", "B")
	require.NoError(t, err)
	assert.Equal(t, -5.0, value)
}

func TestLinkViewsSharesFreshScopes(t *testing.T) {
	c := New("cfg")
	d := c.AddDataset("data")
	v1 := c.AddView(ComponentScatterplot, d)
	v2 := c.AddView(ComponentSpatial, d)

	require.NoError(t, c.LinkViews(
		[]*View{v1, v2},
		[]string{"spatialZoom", "spatialTargetX"},
		[]any{-3.0, 500.0},
	))

	assert.Equal(t, v1.coordinationScopes["spatialZoom"], v2.coordinationScopes["spatialZoom"])
	value, err := c.CoordinationValue("spatialZoom", v1.coordinationScopes["spatialZoom"])
	require.NoError(t, err)
	assert.Equal(t, -3.0, value)

	assert.Error(t, c.LinkViews([]*View{v1}, []string{"a", "b"}, []any{1}))
}

func TestToDictShape(t *testing.T) {
	c := New("My Config", WithDescription("example"))
	d := c.AddDataset("Cells")

	w, err := wrapper.NewCSVWrapper(wrapper.CSVConfig{
		DataType: "obs",
		URL:      "https://example.org/cells.csv",
	})
	require.NoError(t, err)
	require.NoError(t, d.AddObject(w))

	v := c.AddView(ComponentScatterplot, d)
	c.Layout(v)

	doc := c.ToDict("http://localhost:8000")
	assert.Equal(t, SchemaVersion, doc.Version)
	assert.Equal(t, "My Config", doc.Name)
	assert.Equal(t, "example", doc.Description)
	assert.Equal(t, "auto", doc.InitStrategy)

	require.Len(t, doc.Datasets, 1)
	assert.Equal(t, "A", doc.Datasets[0].UID)
	require.Len(t, doc.Datasets[0].Files, 1)
	assert.Equal(t, "obs.csv", doc.Datasets[0].Files[0].FileType)

	require.Len(t, doc.Layout, 1)
	assert.Equal(t, ComponentScatterplot, doc.Layout[0].Component)
	assert.Equal(t, "A", doc.Layout[0].CoordinationScopes["dataset"])
	assert.Equal(t, 12, doc.Layout[0].W)
	assert.Equal(t, 12, doc.Layout[0].H)
}

func TestToDictResolvesFreshPerBaseURL(t *testing.T) {
	c := New("cfg")
	d := c.AddDataset("Cells")
	w, err := wrapper.NewCSVWrapper(wrapper.CSVConfig{
		DataType: "obs",
		Path:     "/data/cells.csv",
		OutDir:   t.TempDir(),
	})
	require.NoError(t, err)
	require.NoError(t, d.AddObject(w))

	first := c.ToDict("http://localhost:8000").Datasets[0].Files[0].URL
	second := c.ToDict("http://localhost:9000").Datasets[0].Files[0].URL
	assert.Contains(t, first, "http://localhost:8000/")
	assert.Contains(t, second, "http://localhost:9000/")
	assert.Equal(t, first[len("http://localhost:8000"):], second[len("http://localhost:9000"):])
}

func TestAddFileLiteralDefinition(t *testing.T) {
	c := New("cfg")
	d := c.AddDataset("Cells")
	d.AddFile(wrapper.FileDefinition{
		FileType: "cells.json",
		URL:      "https://example.org/cells.json",
	})

	doc := c.ToDict("http://localhost:8000")
	require.Len(t, doc.Datasets[0].Files, 1)
	assert.Equal(t, "https://example.org/cells.json", doc.Datasets[0].Files[0].URL)
}

func TestRoutesAggregation(t *testing.T) {
	c := New("cfg")
	d := c.AddDataset("Cells")

	local, err := wrapper.NewCSVWrapper(wrapper.CSVConfig{
		DataType: "obs",
		Path:     "/data/cells.csv",
		OutDir:   t.TempDir(),
	})
	require.NoError(t, err)
	remote, err := wrapper.NewCSVWrapper(wrapper.CSVConfig{
		DataType: "obs",
		URL:      "https://example.org/other.csv",
	})
	require.NoError(t, err)

	require.NoError(t, d.AddObject(local))
	require.NoError(t, d.AddObject(remote))

	// Only the local object contributes a route.
	assert.Len(t, c.Routes(), 1)
}

func TestBaseDirPropagatesToWrappers(t *testing.T) {
	c := New("cfg", WithBaseDir("/data"))
	d := c.AddDataset("Cells")

	w, err := wrapper.NewCSVWrapper(wrapper.CSVConfig{
		DataType: "obs",
		Path:     "/data/cells.csv",
		OutDir:   t.TempDir(),
	})
	require.NoError(t, err)
	require.NoError(t, d.AddObject(w))

	doc := c.ToDict("http://localhost:8000")
	assert.Equal(t, "http://localhost:8000/cells.csv", doc.Datasets[0].Files[0].URL)
}
