// Package embed renders the view config as an embeddable HTML/script
// fragment and computes hosted-viewer launch URLs. The fragment inlines a
// model value map and a loader script that fetches the front-end bundle
// by version, mirroring the stateful widget surface without a notebook
// kernel.
package embed

import (
	_ "embed"
	"fmt"
	"net/url"
	"strings"
	"text/template"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/crossviz/go-viewer-backend/internal/serve"
	"github.com/crossviz/go-viewer-backend/internal/viewconfig"
)

//go:embed loader.js
var loaderJS string

// DefaultJSPackageVersion pins the front-end bundle loaded by the widget.
const DefaultJSPackageVersion = "2.0.3"

// hostedViewerURL is the public viewer the launch URL points at.
const hostedViewerURL = "http://vitessce.io"

var fragmentTemplate = template.Must(template.New("widget").Parse(`<div id="{{.UID}}"></div>

<script type="module">
{{.Loader}}
render({
    model: {
        get: (key) => {
            const vals = {{.ModelJSON}};
            return vals[key];
        },
        set: () => {},
        save_changes: () => {}
    },
    el: document.getElementById("{{.UID}}"),
});
</script>
`))

// Widget is the embeddable viewer: a served config plus the synced model
// values the loader script reads.
type Widget struct {
	cfg    *viewconfig.Config
	port   int
	uid    string
	values map[string]any
}

type widgetOptions struct {
	height           int
	theme            string
	uid              string
	port             int
	baseURL          string
	proxy            bool
	hostName         string
	jsPackageVersion string
	customJSURL      string
	serverOpts       []serve.ServerOption
	extraRoutes      []serve.Route
}

// Option configures a Widget.
type Option func(*widgetOptions)

// WithHeight sets the widget height in pixels.
func WithHeight(h int) Option { return func(o *widgetOptions) { o.height = h } }

// WithTheme sets the theme: light, dark, or auto.
func WithTheme(t string) Option { return func(o *widgetOptions) { o.theme = t } }

// WithUID fixes the widget uid instead of minting one.
func WithUID(uid string) Option { return func(o *widgetOptions) { o.uid = uid } }

// WithPort fixes the serving port instead of probing.
func WithPort(p int) Option { return func(o *widgetOptions) { o.port = p } }

// WithBaseURL overrides the derived base URL.
func WithBaseURL(u string) Option { return func(o *widgetOptions) { o.baseURL = u } }

// WithProxy requests reverse-proxy base URLs.
func WithProxy(hostName string) Option {
	return func(o *widgetOptions) {
		o.proxy = true
		o.hostName = hostName
	}
}

// WithJSPackageVersion overrides the front-end bundle version.
func WithJSPackageVersion(v string) Option {
	return func(o *widgetOptions) { o.jsPackageVersion = v }
}

// WithCustomJSURL loads the front-end bundle from an explicit URL.
func WithCustomJSURL(u string) Option { return func(o *widgetOptions) { o.customJSURL = u } }

// WithServerOptions forwards options (middleware, keep-alive) to the
// background server.
func WithServerOptions(opts ...serve.ServerOption) Option {
	return func(o *widgetOptions) { o.serverOpts = append(o.serverOpts, opts...) }
}

// WithExtraRoutes serves additional routes (e.g. the config-sync hub)
// alongside the dataset routes.
func WithExtraRoutes(routes ...serve.Route) Option {
	return func(o *widgetOptions) { o.extraRoutes = append(o.extraRoutes, routes...) }
}

// NewWidget resolves a base URL and port for the config, serves its
// routes, and captures the model values the loader script needs.
func NewWidget(cfg *viewconfig.Config, resolver *serve.PortResolver, pool *serve.ServerPool, logger *zap.Logger, opts ...Option) (*Widget, error) {
	o := widgetOptions{
		height:           600,
		theme:            "auto",
		jsPackageVersion: DefaultJSPackageVersion,
	}
	for _, opt := range opts {
		opt(&o)
	}

	baseURL, port, err := resolver.Resolve(serve.ResolveOptions{
		Port:     o.port,
		BaseURL:  o.baseURL,
		Proxy:    o.proxy,
		HostName: o.hostName,
	})
	if err != nil {
		return nil, err
	}

	configDict := cfg.ToDict(baseURL)
	routes := append(cfg.Routes(), o.extraRoutes...)
	if err := serve.ServeRoutes(pool, cfg, routes, port, logger, o.serverOpts...); err != nil {
		return nil, err
	}

	uid := UIDString(o.uid)
	return &Widget{
		cfg:  cfg,
		port: port,
		uid:  uid,
		values: map[string]any{
			"uid":                uid,
			"config":             configDict,
			"height":             o.height,
			"theme":              o.theme,
			"proxy":              o.proxy,
			"has_host_name":      o.hostName != "",
			"js_package_version": o.jsPackageVersion,
			"custom_js_url":      o.customJSURL,
		},
	}, nil
}

// Get returns one synced model value, like the front-end's model.get.
func (w *Widget) Get(key string) any { return w.values[key] }

// UID returns the widget uid.
func (w *Widget) UID() string { return w.uid }

// Port returns the data-serving port.
func (w *Widget) Port() int { return w.port }

// HTML renders the embeddable fragment with the model values inlined.
func (w *Widget) HTML() (string, error) {
	modelJSON, err := json.Marshal(w.values)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	err = fragmentTemplate.Execute(&b, struct {
		UID       string
		Loader    string
		ModelJSON string
	}{
		UID:       "viewer" + w.uid,
		Loader:    loaderJS,
		ModelJSON: string(modelJSON),
	})
	if err != nil {
		return "", err
	}
	return b.String(), nil
}

// CellSelection returns the cellSelection coordination value, resolving
// the scope automatically when exactly one exists.
func (w *Widget) CellSelection(scope string) (any, error) {
	return w.cfg.CoordinationValue("cellSelection", scope)
}

// Close stops the server the widget started.
func (w *Widget) Close() {
	w.cfg.StopServer(w.port)
}

// UIDString returns the uid when it is non-empty and alphanumeric,
// otherwise a fresh 4-character id.
func UIDString(uid string) string {
	if uid != "" && isAlnum(uid) {
		return uid
	}
	return uuid.NewString()[:4]
}

func isAlnum(s string) bool {
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		default:
			return false
		}
	}
	return true
}

// LaunchURL serves the config's routes and returns a hosted-viewer URL
// with the whole config document inlined as a data URL.
func LaunchURL(cfg *viewconfig.Config, theme string, resolver *serve.PortResolver, pool *serve.ServerPool, logger *zap.Logger, opts ...Option) (string, error) {
	o := widgetOptions{theme: "light"}
	if theme != "" {
		o.theme = theme
	}
	for _, opt := range opts {
		opt(&o)
	}

	baseURL, port, err := resolver.Resolve(serve.ResolveOptions{
		Port:     o.port,
		BaseURL:  o.baseURL,
		Proxy:    o.proxy,
		HostName: o.hostName,
	})
	if err != nil {
		return "", err
	}

	configJSON, err := json.Marshal(cfg.ToDict(baseURL))
	if err != nil {
		return "", err
	}
	if err := serve.ServeRoutes(pool, cfg, cfg.Routes(), port, logger, o.serverOpts...); err != nil {
		return "", err
	}

	return fmt.Sprintf("%s/#?theme=%s&url=data:,%s",
		hostedViewerURL, o.theme, url.QueryEscape(string(configJSON))), nil
}
