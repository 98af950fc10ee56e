// Package config loads the viewer-backend application configuration from
// a YAML file with environment-variable overrides.
package config

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/crossviz/go-viewer-backend/pkg/logging"
)

// Config represents the application configuration.
type Config struct {
	Server  ServerConfig   `yaml:"server" envconfig:"SERVER"`
	Logging logging.Config `yaml:"logging" envconfig:"LOGGING"`
	Viewer  ViewerConfig   `yaml:"viewer" envconfig:"VIEWER"`
	Auth    AuthConfig     `yaml:"auth" envconfig:"AUTH"`
	Data    DataConfig     `yaml:"data"`
}

// ServerConfig controls how the data server is exposed.
type ServerConfig struct {
	// Port, when non-zero, is used verbatim without probing.
	Port int `yaml:"port" envconfig:"PORT"`
	// StartPort is where port probing begins when Port is zero.
	StartPort int `yaml:"start_port" envconfig:"START_PORT"`
	// BaseURL overrides the derived base URL entirely.
	BaseURL string `yaml:"base_url" envconfig:"BASE_URL"`
	// Proxy derives reverse-proxy style base URLs (proxy/{port}).
	Proxy bool `yaml:"proxy" envconfig:"PROXY"`
	// ProxyAvailable declares that a reverse proxy actually fronts the
	// process; Proxy without it is a configuration error.
	ProxyAvailable bool `yaml:"proxy_available" envconfig:"PROXY_AVAILABLE"`
	// HostName prefixes proxy base URLs.
	HostName string `yaml:"host_name" envconfig:"HOST_NAME"`
}

// ViewerConfig controls the embedded front-end.
type ViewerConfig struct {
	JSPackageVersion string `yaml:"js_package_version" envconfig:"JS_PACKAGE_VERSION"`
	CustomJSURL      string `yaml:"custom_js_url" envconfig:"CUSTOM_JS_URL"`
	Theme            string `yaml:"theme" envconfig:"THEME"`
	Height           int    `yaml:"height" envconfig:"HEIGHT"`
}

// AuthConfig controls data-access tokens on served files.
type AuthConfig struct {
	Enabled       bool   `yaml:"enabled" envconfig:"ENABLED"`
	Secret        string `yaml:"secret" envconfig:"SECRET"`
	ExpiryMinutes int    `yaml:"expiry_minutes" envconfig:"EXPIRY_MINUTES"`
}

// DataConfig is the declarative dataset manifest.
type DataConfig struct {
	// Name names the generated view config.
	Name string `yaml:"name"`
	// BaseDir switches served URLs to mirror the on-disk layout below
	// this directory.
	BaseDir string `yaml:"base_dir"`
	// Objects lists the dataset objects to wrap and serve.
	Objects []DataObject `yaml:"objects"`
}

// DataObject describes one dataset object in the manifest.
type DataObject struct {
	// Kind selects the wrapper: csv, ome-tiff, ome-zarr, anndata-zarr,
	// multivec-zarr.
	Kind string `yaml:"kind"`
	// Path and URL are mutually exclusive.
	Path string `yaml:"path"`
	URL  string `yaml:"url"`
	// Name is the display name (image layers).
	Name string `yaml:"name"`
	// DataType tags csv objects.
	DataType string `yaml:"data_type"`
	// AnnData holds the optional axes for anndata-zarr objects.
	AnnData AnnDataObject `yaml:"anndata"`
}

// AnnDataObject selects the data axes of an anndata-zarr object.
type AnnDataObject struct {
	ObsFeatureMatrixPath string   `yaml:"obs_feature_matrix_path"`
	ObsSetPaths          []string `yaml:"obs_set_paths"`
	ObsSetNames          []string `yaml:"obs_set_names"`
	ObsLocationsPath     string   `yaml:"obs_locations_path"`
	ObsSegmentationsPath string   `yaml:"obs_segmentations_path"`
	ObsEmbeddingPaths    []string `yaml:"obs_embedding_paths"`
	ObsEmbeddingNames    []string `yaml:"obs_embedding_names"`
	FeatureLabelsPath    string   `yaml:"feature_labels_path"`
}

// Load loads configuration from file and environment variables.
func Load(configFile string) (*Config, error) {
	cfg := defaultConfig()

	if configFile != "" {
		data, err := os.ReadFile(configFile)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
			// Missing file falls back to defaults and env vars.
		} else {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	if err := envconfig.Process("VIEWER", cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			StartPort: 8000,
		},
		Logging: logging.DefaultConfig(),
		Viewer: ViewerConfig{
			JSPackageVersion: "2.0.3",
			Theme:            "auto",
			Height:           600,
		},
		Auth: AuthConfig{
			ExpiryMinutes: 12 * 60,
		},
		Data: DataConfig{
			Name: "viewer",
		},
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.Proxy && !c.Server.ProxyAvailable && c.Server.BaseURL == "" {
		return fmt.Errorf("proxy mode requires proxy_available or an explicit base_url")
	}
	switch c.Viewer.Theme {
	case "auto", "light", "dark":
	default:
		return fmt.Errorf("invalid viewer theme: %s (must be auto, light, or dark)", c.Viewer.Theme)
	}
	if c.Auth.Enabled && c.Auth.Secret == "" {
		return fmt.Errorf("auth secret is required when auth is enabled")
	}
	for i, obj := range c.Data.Objects {
		switch obj.Kind {
		case "csv", "ome-tiff", "ome-zarr", "anndata-zarr", "multivec-zarr":
		default:
			return fmt.Errorf("data object %d: unknown kind %q", i, obj.Kind)
		}
	}
	return nil
}
