package integration

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/crossviz/go-viewer-backend/internal/serve"
	"github.com/crossviz/go-viewer-backend/internal/viewconfig"
	"github.com/crossviz/go-viewer-backend/internal/wrapper"
)

// TestHarness provides a complete serving environment: a port resolver, a
// server pool, and helper methods for serving view configs and fetching
// the files they reference.
type TestHarness struct {
	T        *testing.T
	Resolver *serve.PortResolver
	Pool     *serve.ServerPool
	Logger   *zap.Logger

	// Client is a pre-configured HTTP client for making requests.
	Client *http.Client

	// DataDir is a per-test directory for source files.
	DataDir string
}

// NewTestHarness creates a harness whose servers are all stopped when the
// test ends.
func NewTestHarness(t *testing.T) *TestHarness {
	t.Helper()

	logger, _ := zap.NewDevelopment()

	h := &TestHarness{
		T:        t,
		Resolver: serve.NewPortResolver(0),
		Pool:     serve.NewServerPool(logger),
		Logger:   logger,
		Client:   &http.Client{},
		DataDir:  t.TempDir(),
	}
	t.Cleanup(h.Pool.StopAll)
	return h
}

// WriteFile puts content into the harness data directory and returns the
// absolute path.
func (h *TestHarness) WriteFile(name string, content []byte) string {
	h.T.Helper()
	path := filepath.Join(h.DataDir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		h.T.Fatalf("mkdir for %s: %v", name, err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		h.T.Fatalf("write %s: %v", name, err)
	}
	return path
}

// NewCSVWrapper wraps a local CSV file, failing the test on error.
func (h *TestHarness) NewCSVWrapper(path, dataType string) *wrapper.CSVWrapper {
	h.T.Helper()
	w, err := wrapper.NewCSVWrapper(wrapper.CSVConfig{
		Path:     path,
		DataType: dataType,
		OutDir:   h.T.TempDir(),
	})
	if err != nil {
		h.T.Fatalf("csv wrapper: %v", err)
	}
	return w
}

// Serve resolves a port for the config, serves its routes, and returns
// the serialized document together with the base URL it was resolved
// against.
func (h *TestHarness) Serve(cfg *viewconfig.Config) (viewconfig.ConfigJSON, string) {
	h.T.Helper()
	baseURL, port, err := h.Resolver.Resolve(serve.ResolveOptions{})
	if err != nil {
		h.T.Fatalf("resolve: %v", err)
	}
	doc := cfg.ToDict(baseURL)
	if err := serve.ServeRoutes(h.Pool, cfg, cfg.Routes(), port, h.Logger); err != nil {
		h.T.Fatalf("serve routes: %v", err)
	}
	return doc, baseURL
}

// Get fetches a URL and returns the status code and body.
func (h *TestHarness) Get(url string) (int, []byte) {
	h.T.Helper()
	resp, err := h.Client.Get(url)
	if err != nil {
		h.T.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		h.T.Fatalf("read body of %s: %v", url, err)
	}
	return resp.StatusCode, body
}
