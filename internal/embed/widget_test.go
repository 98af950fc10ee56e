package embed

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crossviz/go-viewer-backend/internal/serve"
	"github.com/crossviz/go-viewer-backend/internal/viewconfig"
	"github.com/crossviz/go-viewer-backend/internal/wrapper"
)

func TestUIDString(t *testing.T) {
	assert.Equal(t, "abc123", UIDString("abc123"))
	assert.Equal(t, "A1", UIDString("A1"))

	// Non-alphanumeric and empty uids are replaced with a short fresh id.
	for _, bad := range []string{"", "has space", "semi;colon", "<script>"} {
		got := UIDString(bad)
		assert.Len(t, got, 4)
		assert.NotEqual(t, bad, got)
	}

	// Fresh ids are effectively unique.
	assert.NotEqual(t, UIDString(""), UIDString(""))
}

func testConfig(t *testing.T, dir string) *viewconfig.Config {
	t.Helper()
	file := filepath.Join(dir, "cells.csv")
	require.NoError(t, os.WriteFile(file, []byte("cell_id,x,y\n1,2,3\n"), 0o644))

	c := viewconfig.New("Widget Test")
	d := c.AddDataset("Cells")
	w, err := wrapper.NewCSVWrapper(wrapper.CSVConfig{
		DataType: "obs",
		Path:     file,
		OutDir:   t.TempDir(),
	})
	require.NoError(t, err)
	require.NoError(t, d.AddObject(w))
	return c
}

func TestNewWidgetServesAndRendersHTML(t *testing.T) {
	cfg := testConfig(t, t.TempDir())
	resolver := serve.NewPortResolver(0)
	pool := serve.NewServerPool(nil)
	defer pool.StopAll()

	w, err := NewWidget(cfg, resolver, pool, nil,
		WithUID("myview"),
		WithHeight(700),
		WithTheme("dark"),
	)
	require.NoError(t, err)

	assert.Equal(t, "myview", w.UID())
	assert.Equal(t, 700, w.Get("height"))
	assert.Equal(t, "dark", w.Get("theme"))
	assert.Equal(t, false, w.Get("proxy"))
	assert.Equal(t, false, w.Get("has_host_name"))
	assert.Equal(t, DefaultJSPackageVersion, w.Get("js_package_version"))

	// The dataset file must be fetchable at the resolved port.
	doc, ok := w.Get("config").(viewconfig.ConfigJSON)
	require.True(t, ok)
	require.Len(t, doc.Datasets, 1)
	require.Len(t, doc.Datasets[0].Files, 1)

	resp, err := http.Get(doc.Datasets[0].Files[0].URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "cell_id,x,y\n1,2,3\n", string(body))

	html, err := w.HTML()
	require.NoError(t, err)
	assert.Contains(t, html, `<div id="viewermyview"></div>`)
	assert.Contains(t, html, `"js_package_version":"`+DefaultJSPackageVersion+`"`)
	assert.Contains(t, html, "document.getElementById")
}

func TestNewWidgetReusesServerForSameConfig(t *testing.T) {
	cfg := testConfig(t, t.TempDir())
	resolver := serve.NewPortResolver(0)
	pool := serve.NewServerPool(nil)
	defer pool.StopAll()

	a, err := NewWidget(cfg, resolver, pool, nil)
	require.NoError(t, err)

	// Pinning the port of the first widget reuses its server.
	b, err := NewWidget(cfg, resolver, pool, nil, WithPort(a.Port()))
	require.NoError(t, err)
	assert.Equal(t, a.Port(), b.Port())
	assert.Equal(t, 1, pool.Len())
}

func TestWidgetCloseStopsServer(t *testing.T) {
	cfg := testConfig(t, t.TempDir())
	resolver := serve.NewPortResolver(0)
	pool := serve.NewServerPool(nil)
	defer pool.StopAll()

	w, err := NewWidget(cfg, resolver, pool, nil)
	require.NoError(t, err)
	port := w.Port()
	require.True(t, cfg.HasServer(port))

	w.Close()
	assert.False(t, cfg.HasServer(port))
}

func TestLaunchURLEncodesConfig(t *testing.T) {
	cfg := testConfig(t, t.TempDir())
	resolver := serve.NewPortResolver(0)
	pool := serve.NewServerPool(nil)
	defer pool.StopAll()

	launch, err := LaunchURL(cfg, "", resolver, pool, nil)
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(launch, "http://vitessce.io/#?theme=light&url=data:,"), launch)

	encoded := strings.TrimPrefix(launch, "http://vitessce.io/#?theme=light&url=data:,")
	decoded, err := url.QueryUnescape(encoded)
	require.NoError(t, err)
	assert.Contains(t, decoded, `"version":"`+viewconfig.SchemaVersion+`"`)
	assert.Contains(t, decoded, `"name":"Widget Test"`)
	// No raw spaces or quotes survive the escaping.
	assert.NotContains(t, encoded, `"`)
	assert.NotContains(t, encoded, " ")
}

func TestLaunchURLHonorsTheme(t *testing.T) {
	cfg := testConfig(t, t.TempDir())
	resolver := serve.NewPortResolver(0)
	pool := serve.NewServerPool(nil)
	defer pool.StopAll()

	launch, err := LaunchURL(cfg, "dark", resolver, pool, nil)
	require.NoError(t, err)
	assert.Contains(t, launch, "#?theme=dark&url=data:,")
}

func TestNewWidgetProxyValues(t *testing.T) {
	cfg := testConfig(t, t.TempDir())
	resolver := serve.NewPortResolver(0, serve.WithProxyAvailable(true))
	pool := serve.NewServerPool(nil)
	defer pool.StopAll()

	w, err := NewWidget(cfg, resolver, pool, nil, WithProxy("https://hub.example.org/user/a"))
	require.NoError(t, err)
	assert.Equal(t, true, w.Get("proxy"))
	assert.Equal(t, true, w.Get("has_host_name"))

	doc := w.Get("config").(viewconfig.ConfigJSON)
	assert.Contains(t, doc.Datasets[0].Files[0].URL,
		fmt.Sprintf("https://hub.example.org/user/a/proxy/%d/", w.Port()))
}
