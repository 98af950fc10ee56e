// Package viewconfig builds the JSON view-configuration document consumed
// by the visualization front-end: datasets with file definitions, a
// coordination space, and a grid layout of views. File URLs are resolved
// late, when the document is serialized against a base URL.
package viewconfig

import (
	"fmt"
	"sort"
	"strings"

	"github.com/crossviz/go-viewer-backend/internal/serve"
	"github.com/crossviz/go-viewer-backend/internal/wrapper"
)

// SchemaVersion is the view-config schema the front-end understands.
const SchemaVersion = "1.0.15"

// Config is one view-configuration document under construction.
type Config struct {
	version     string
	name        string
	description string

	datasets          []*Dataset
	coordinationSpace map[string]map[string]any
	layout            []*View
	initStrategy      string

	// baseDir, when set, switches every wrapper to mirrored routing.
	baseDir string

	servers serverTable
}

// Option configures a Config.
type Option func(*Config)

// WithDescription sets the document description.
func WithDescription(d string) Option {
	return func(c *Config) { c.description = d }
}

// WithBaseDir serves files under their paths relative to dir instead of
// index-derived paths.
func WithBaseDir(dir string) Option {
	return func(c *Config) { c.baseDir = dir }
}

// New creates an empty view config.
func New(name string, opts ...Option) *Config {
	c := &Config{
		version:           SchemaVersion,
		name:              name,
		coordinationSpace: make(map[string]map[string]any),
		initStrategy:      "auto",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the document name.
func (c *Config) Name() string { return c.name }

// Dataset is one named dataset inside a config.
type Dataset struct {
	cfg  *Config
	uid  string
	name string

	objects []wrapper.Wrapper
	files   []wrapper.FileDefinition
}

// UID returns the dataset's unique identifier within the config.
func (d *Dataset) UID() string { return d.uid }

// AddDataset appends a dataset; its uid is minted from the next free
// scope name (A, B, …) unless explicitly given.
func (c *Config) AddDataset(name string, uid ...string) *Dataset {
	datasetUID := ""
	if len(uid) > 0 {
		datasetUID = uid[0]
	}
	if datasetUID == "" {
		used := make([]string, 0, len(c.datasets))
		for _, d := range c.datasets {
			used = append(used, d.uid)
		}
		datasetUID = nextScopeName(used)
	}
	d := &Dataset{cfg: c, uid: datasetUID, name: name}
	c.datasets = append(c.datasets, d)

	// The dataset coordination type tracks dataset scopes.
	c.SetCoordinationValue("dataset", datasetUID, datasetUID)
	return d
}

// AddObject converts the wrapper under this dataset's uid and the next
// object index, honoring the config-level base directory.
func (d *Dataset) AddObject(w wrapper.Wrapper) error {
	objI := len(d.objects)
	if err := w.ConvertAndSave(d.uid, objI, d.cfg.baseDir); err != nil {
		return err
	}
	d.objects = append(d.objects, w)
	return nil
}

// AddFile appends a literal file definition (e.g. a fully remote file
// needing no serving).
func (d *Dataset) AddFile(def wrapper.FileDefinition) *Dataset {
	d.files = append(d.files, def)
	return d
}

// View is one visualization component placed on the layout grid.
type View struct {
	component          string
	coordinationScopes map[string]string
	x, y, w, h         int
}

// AddView appends a view bound to the given dataset.
func (c *Config) AddView(component string, dataset *Dataset) *View {
	v := &View{
		component:          component,
		coordinationScopes: map[string]string{"dataset": dataset.uid},
		w:                  1,
		h:                  1,
	}
	c.layout = append(c.layout, v)
	return v
}

// UseCoordination binds the view to a coordination scope.
func (v *View) UseCoordination(ctype, scope string) *View {
	v.coordinationScopes[ctype] = scope
	return v
}

// SetCoordinationValue records a value under (type, scope) in the
// coordination space.
func (c *Config) SetCoordinationValue(ctype, scope string, value any) {
	scopes, ok := c.coordinationSpace[ctype]
	if !ok {
		scopes = make(map[string]any)
		c.coordinationSpace[ctype] = scopes
	}
	scopes[scope] = value
}

// AddCoordination mints a fresh scope for the coordination type, stores
// the value, and returns the scope name.
func (c *Config) AddCoordination(ctype string, value any) string {
	used := make([]string, 0)
	for scope := range c.coordinationSpace[ctype] {
		used = append(used, scope)
	}
	scope := nextScopeName(used)
	c.SetCoordinationValue(ctype, scope, value)
	return scope
}

// LinkViews mints one scope per coordination type, seeds the values, and
// binds every view to the new scopes.
func (c *Config) LinkViews(views []*View, ctypes []string, values []any) error {
	if len(ctypes) != len(values) {
		return fmt.Errorf("expected %d values for %d coordination types", len(ctypes), len(ctypes))
	}
	for i, ctype := range ctypes {
		scope := c.AddCoordination(ctype, values[i])
		for _, v := range views {
			v.UseCoordination(ctype, scope)
		}
	}
	return nil
}

// CoordinationValue looks up a value by coordination type and scope. With
// scope == "" the single existing scope is used; zero or several scopes
// make the lookup ambiguous and fail with the known scopes enumerated.
func (c *Config) CoordinationValue(ctype, scope string) (any, error) {
	scopes, ok := c.coordinationSpace[ctype]
	if !ok || len(scopes) == 0 {
		return nil, fmt.Errorf("no coordination scopes were found for the coordination type %q", ctype)
	}
	known := make([]string, 0, len(scopes))
	for s := range scopes {
		known = append(known, s)
	}
	sort.Strings(known)

	if scope != "" {
		value, ok := scopes[scope]
		if !ok {
			return nil, fmt.Errorf("the coordination scope %q could not be found for the coordination type %q; known scopes are %v", scope, ctype, known)
		}
		return value, nil
	}
	if len(known) > 1 {
		return nil, fmt.Errorf("the coordination scope could not be determined because multiple scopes exist for the coordination type %q; specify one of %v", ctype, known)
	}
	return scopes[known[0]], nil
}

// Routes concatenates the routes of every wrapper in every dataset.
func (c *Config) Routes() []serve.Route {
	var routes []serve.Route
	for _, d := range c.datasets {
		for _, obj := range d.objects {
			routes = append(routes, obj.Routes()...)
		}
	}
	return routes
}

// ConfigJSON is the serialized document shape.
type ConfigJSON struct {
	Version           string                    `json:"version"`
	Name              string                    `json:"name"`
	Description       string                    `json:"description"`
	Datasets          []DatasetJSON             `json:"datasets"`
	CoordinationSpace map[string]map[string]any `json:"coordinationSpace"`
	Layout            []ViewJSON                `json:"layout"`
	InitStrategy      string                    `json:"initStrategy"`
}

// DatasetJSON is the serialized dataset shape.
type DatasetJSON struct {
	UID   string                   `json:"uid"`
	Name  string                   `json:"name"`
	Files []wrapper.FileDefinition `json:"files"`
}

// ViewJSON is the serialized view shape.
type ViewJSON struct {
	Component          string            `json:"component"`
	CoordinationScopes map[string]string `json:"coordinationScopes,omitempty"`
	X                  int               `json:"x"`
	Y                  int               `json:"y"`
	W                  int               `json:"w"`
	H                  int               `json:"h"`
}

// ToDict serializes the document, resolving every file definition against
// the given base URL. Definitions are produced fresh on every call, so the
// same config can be re-serialized under different base URLs.
func (c *Config) ToDict(baseURL string) ConfigJSON {
	out := ConfigJSON{
		Version:           c.version,
		Name:              c.name,
		Description:       c.description,
		Datasets:          make([]DatasetJSON, 0, len(c.datasets)),
		CoordinationSpace: c.coordinationSpace,
		Layout:            make([]ViewJSON, 0, len(c.layout)),
		InitStrategy:      c.initStrategy,
	}
	for _, d := range c.datasets {
		files := make([]wrapper.FileDefinition, 0, len(d.files))
		files = append(files, d.files...)
		for _, obj := range d.objects {
			files = append(files, obj.FileDefs(baseURL)...)
		}
		out.Datasets = append(out.Datasets, DatasetJSON{UID: d.uid, Name: d.name, Files: files})
	}
	for _, v := range c.layout {
		out.Layout = append(out.Layout, ViewJSON{
			Component:          v.component,
			CoordinationScopes: v.coordinationScopes,
			X:                  v.x,
			Y:                  v.y,
			W:                  v.w,
			H:                  v.h,
		})
	}
	return out
}

// nextScopeName returns the first name in A, B, …, Z, AA, AB, … not
// already used.
func nextScopeName(used []string) string {
	taken := make(map[string]bool, len(used))
	for _, u := range used {
		taken[u] = true
	}
	for i := 0; ; i++ {
		name := scopeName(i)
		if !taken[name] {
			return name
		}
	}
}

func scopeName(i int) string {
	var b strings.Builder
	for {
		b.WriteByte(byte('A' + i%26))
		i = i/26 - 1
		if i < 0 {
			break
		}
	}
	// Digits accumulate least-significant first.
	s := []byte(b.String())
	for l, r := 0, len(s)-1; l < r; l, r = l+1, r-1 {
		s[l], s[r] = s[r], s[l]
	}
	return string(s)
}
