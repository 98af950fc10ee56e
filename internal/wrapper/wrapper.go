// Package wrapper adapts heterogeneous local or remote dataset objects
// into HTTP routes and JSON file definitions for the visualization
// front-end. Each wrapper validates its source at construction, derives
// any on-disk artifacts during ConvertAndSave, and resolves file
// definitions late against a base URL so the same wrapper can be
// re-serialized under different base URLs without re-conversion.
package wrapper

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/crossviz/go-viewer-backend/internal/serve"
)

// Wrapper is the contract every dataset adapter satisfies.
type Wrapper interface {
	// ConvertAndSave is called exactly once per (dataset, object-index)
	// pair. It materializes derived artifacts, records the optional base
	// directory, and populates the wrapper's routes and pending file
	// definitions. baseDir == "" means indexed routing.
	ConvertAndSave(datasetUID string, objI int, baseDir string) error

	// Routes returns the HTTP routes needed to serve the underlying
	// data. Empty for remote sources.
	Routes() []serve.Route

	// FileDefs resolves the wrapper's pending file definitions against
	// the given base URL. Definitions are produced fresh on every call.
	FileDefs(baseURL string) []FileDefinition
}

// FileDefinition tells the front-end how to fetch and interpret one data
// source.
type FileDefinition struct {
	FileType           string            `json:"fileType"`
	URL                string            `json:"url,omitempty"`
	Options            any               `json:"options,omitempty"`
	CoordinationValues map[string]string `json:"coordinationValues,omitempty"`
	RequestInit        *RequestInit      `json:"requestInit,omitempty"`
}

// RequestInit carries fetch options the browser attaches to every request
// for the file, e.g. an Authorization header.
type RequestInit struct {
	Headers map[string]string `json:"headers,omitempty"`
}

// FileToURLPath normalizes a local file path (including Windows-style
// separators) to a POSIX URL path, optionally forcing a leading slash.
func FileToURLPath(local string, prependSlash bool) string {
	p := path.Clean(strings.ReplaceAll(local, "\\", "/"))
	if prependSlash && !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

// base carries the state shared by all wrapper variants.
type base struct {
	outDir   string
	isRemote bool
	baseDir  string

	converted  bool
	datasetUID string
	objI       int

	routes []serve.Route
}

// markConverted records conversion-time identity. baseDir, once set here,
// never changes for the wrapper's remaining lifetime.
func (b *base) markConverted(datasetUID string, objI int, baseDir string) error {
	if b.converted {
		return fmt.Errorf("wrapper already converted for dataset %q object %d", b.datasetUID, b.objI)
	}
	b.converted = true
	b.datasetUID = datasetUID
	b.objI = objI
	b.baseDir = baseDir
	return nil
}

// ensureOutDir lazily creates the wrapper-owned output directory for the
// given dataset/object pair. Only local wrappers need it.
func (b *base) ensureOutDir(datasetUID string, objI int) error {
	if b.outDir == "" {
		dir, err := os.MkdirTemp("", "viewer-data-")
		if err != nil {
			return err
		}
		b.outDir = dir
	}
	return os.MkdirAll(filepath.Join(b.outDir, datasetUID, fmt.Sprintf("%d", objI)), 0o755)
}

// IsRemote reports whether the wrapper was constructed from a remote URL.
func (b *base) IsRemote() bool { return b.isRemote }

// BaseDir returns the base directory recorded at conversion time, or ""
// when indexed routing is in effect.
func (b *base) BaseDir() string { return b.baseDir }

// Routes returns the routes populated by ConvertAndSave.
func (b *base) Routes() []serve.Route { return b.routes }

// indexedPath builds the per-object route path
// /{datasetUID}/{objI}/{suffix...}.
func indexedPath(datasetUID string, objI int, suffix ...string) string {
	parts := append([]string{datasetUID, fmt.Sprintf("%d", objI)}, suffix...)
	return "/" + strings.Join(parts, "/")
}

// indexedURL joins a base URL with an indexed route path.
func indexedURL(baseURL, datasetUID string, objI int, suffix ...string) string {
	return baseURL + indexedPath(datasetUID, objI, suffix...)
}

// relToBase rewrites an absolute source path under baseDir to its
// relative form; already-relative paths pass through.
func relToBase(baseDir, p string) string {
	if baseDir == "" || !filepath.IsAbs(p) {
		return p
	}
	rel, err := filepath.Rel(baseDir, p)
	if err != nil || strings.HasPrefix(rel, "..") {
		return p
	}
	return rel
}

// mirroredPaths derives the served route path and the on-disk path for a
// source file under base-directory mode. A source outside the base
// directory keeps its absolute path on disk, so the file still resolves;
// the route mirrors that absolute path.
func (b *base) mirroredPaths(src string) (routePath, filePath string) {
	rel := relToBase(b.baseDir, src)
	filePath = rel
	if !filepath.IsAbs(filePath) {
		filePath = filepath.Join(b.baseDir, rel)
	}
	return FileToURLPath(rel, true), filePath
}

// mirroredURL joins a base URL with the POSIX form of a source path
// relative to the base directory.
func (b *base) mirroredURL(baseURL, src string) string {
	return baseURL + FileToURLPath(relToBase(b.baseDir, src), true)
}

// validateSource enforces the exactly-one-of-{local path, remote URL}
// construction invariant. what names the source kind for the message.
func validateSource(localPath, remoteURL, what string) error {
	if localPath != "" && remoteURL != "" {
		return fmt.Errorf("did not expect both a local %s path and a remote %s url", what, what)
	}
	if localPath == "" && remoteURL == "" {
		return fmt.Errorf("expected either a local %s path or a remote %s url", what, what)
	}
	return nil
}

// localDirRoute mounts a local directory at either the indexed path or its
// mirrored path under baseDir.
func (b *base) localDirRoute(localDirPath, localDirUID string) []serve.Route {
	if b.isRemote {
		return nil
	}
	routePath := indexedPath(b.datasetUID, b.objI, localDirUID)
	dir := localDirPath
	if b.baseDir != "" {
		routePath, dir = b.mirroredPaths(localDirPath)
	}
	return []serve.Route{serve.Mount{RoutePath: routePath, Dir: dir}}
}

// localDirURL resolves the served URL for a mounted local directory under
// the active routing policy.
func (b *base) localDirURL(baseURL, datasetUID string, objI int, localDirPath, localDirUID string) string {
	if !b.isRemote && b.baseDir != "" {
		return b.mirroredURL(baseURL, localDirPath)
	}
	return indexedURL(baseURL, datasetUID, objI, localDirUID)
}
