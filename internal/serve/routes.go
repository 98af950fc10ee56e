// Package serve provides the local data-serving core: route descriptors,
// a CORS-enabled background HTTP server, port/base-URL resolution, and the
// process-level pool used to stop every server attached to a view config.
package serve

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Route is one server-relative path the background server must answer.
// Concrete kinds are FileRoute, JSONRoute and Mount; each knows how to
// register itself on a gin engine.
type Route interface {
	// Path returns the server-relative path (or path prefix for mounts),
	// always beginning with "/".
	Path() string

	// Register adds the route's handler(s) to the engine.
	Register(r *gin.Engine)
}

// FileRoute serves a single local file. Responses honor Range requests and
// carry a Content-Disposition naming the original file.
type FileRoute struct {
	RoutePath    string
	FilePath     string
	DownloadName string
}

func (f FileRoute) Path() string { return f.RoutePath }

func (f FileRoute) Register(r *gin.Engine) {
	r.GET(f.RoutePath, func(c *gin.Context) {
		c.FileAttachment(f.FilePath, f.DownloadName)
	})
}

// JSONRoute serves a precomputed JSON payload.
type JSONRoute struct {
	RoutePath string
	Payload   []byte
}

func (j JSONRoute) Path() string { return j.RoutePath }

func (j JSONRoute) Register(r *gin.Engine) {
	r.GET(j.RoutePath, func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json", j.Payload)
	})
}

// Mount serves a whole directory below a path prefix. Directory listings
// are disabled; only the files inside the tree are reachable.
type Mount struct {
	RoutePath string
	Dir       string
}

func (m Mount) Path() string { return m.RoutePath }

func (m Mount) Register(r *gin.Engine) {
	r.StaticFS(m.RoutePath, gin.Dir(m.Dir, false))
}

// HandlerRoute attaches an arbitrary gin handler, for routes that are
// neither files nor directories (e.g. the config-sync WebSocket upgrade).
type HandlerRoute struct {
	RoutePath string
	Handler   gin.HandlerFunc
}

func (h HandlerRoute) Path() string { return h.RoutePath }

func (h HandlerRoute) Register(r *gin.Engine) {
	r.GET(h.RoutePath, h.Handler)
}
