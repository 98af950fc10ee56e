// Package manifest turns the declarative dataset manifest from the
// application config into a view config with wrapped objects.
package manifest

import (
	"fmt"
	"time"

	"github.com/crossviz/go-viewer-backend/internal/token"
	"github.com/crossviz/go-viewer-backend/internal/viewconfig"
	"github.com/crossviz/go-viewer-backend/internal/wrapper"
	"github.com/crossviz/go-viewer-backend/pkg/config"
)

// Build wraps every manifest object and assembles a view config. When
// auth is enabled, a data-access token scoped to the config name is
// minted and attached to every wrapper that supports request options.
func Build(cfg *config.Config) (*viewconfig.Config, error) {
	var opts []viewconfig.Option
	if cfg.Data.BaseDir != "" {
		opts = append(opts, viewconfig.WithBaseDir(cfg.Data.BaseDir))
	}
	vc := viewconfig.New(cfg.Data.Name, opts...)
	dataset := vc.AddDataset(cfg.Data.Name)

	var requestInit *wrapper.RequestInit
	if cfg.Auth.Enabled {
		tok, err := token.Mint(cfg.Auth.Secret, cfg.Data.Name,
			time.Duration(cfg.Auth.ExpiryMinutes)*time.Minute)
		if err != nil {
			return nil, fmt.Errorf("mint data-access token: %w", err)
		}
		requestInit = &wrapper.RequestInit{
			Headers: map[string]string{"Authorization": "Bearer " + tok},
		}
	}

	for i, obj := range cfg.Data.Objects {
		w, err := buildWrapper(obj, requestInit)
		if err != nil {
			return nil, fmt.Errorf("data object %d (%s): %w", i, obj.Kind, err)
		}
		if err := dataset.AddObject(w); err != nil {
			return nil, fmt.Errorf("data object %d (%s): %w", i, obj.Kind, err)
		}
	}
	return vc, nil
}

func buildWrapper(obj config.DataObject, requestInit *wrapper.RequestInit) (wrapper.Wrapper, error) {
	switch obj.Kind {
	case "csv":
		return wrapper.NewCSVWrapper(wrapper.CSVConfig{
			Path:        obj.Path,
			URL:         obj.URL,
			DataType:    obj.DataType,
			RequestInit: requestInit,
		})
	case "ome-tiff":
		return wrapper.NewOmeTiffWrapper(wrapper.OmeTiffConfig{
			Path: obj.Path,
			URL:  obj.URL,
			Name: obj.Name,
		})
	case "ome-zarr":
		return wrapper.NewOmeZarrWrapper(wrapper.ZarrConfig{
			Path: obj.Path,
			URL:  obj.URL,
		})
	case "multivec-zarr":
		return wrapper.NewMultivecZarrWrapper(wrapper.ZarrConfig{
			Path: obj.Path,
			URL:  obj.URL,
		})
	case "anndata-zarr":
		return wrapper.NewAnnDataWrapper(wrapper.AnnDataConfig{
			Path:                 obj.Path,
			URL:                  obj.URL,
			ObsFeatureMatrixPath: obj.AnnData.ObsFeatureMatrixPath,
			ObsSetPaths:          obj.AnnData.ObsSetPaths,
			ObsSetNames:          obj.AnnData.ObsSetNames,
			ObsLocationsPath:     obj.AnnData.ObsLocationsPath,
			ObsSegmentationsPath: obj.AnnData.ObsSegmentationsPath,
			ObsEmbeddingPaths:    obj.AnnData.ObsEmbeddingPaths,
			ObsEmbeddingNames:    obj.AnnData.ObsEmbeddingNames,
			FeatureLabelsPath:    obj.AnnData.FeatureLabelsPath,
			RequestInit:          requestInit,
		})
	default:
		return nil, fmt.Errorf("unknown kind %q", obj.Kind)
	}
}
