package viewconfig

import (
	"fmt"

	"github.com/crossviz/go-viewer-backend/internal/wrapper"
)

// Standard view component names.
const (
	ComponentScatterplot = "scatterplot"
	ComponentSpatial     = "spatial"
	ComponentHeatmap     = "heatmap"
	ComponentObsSets     = "obsSets"
	ComponentFeatureList = "featureList"
)

// FromObject builds an opinionated default view config around a single
// wrapper. Only wrappers with an inferable use case support this;
// currently that is the AnnData wrapper.
func FromObject(w wrapper.Wrapper, name string) (*Config, error) {
	adata, ok := w.(*wrapper.AnnDataWrapper)
	if !ok {
		return nil, fmt.Errorf("auto view configuration is not supported for %T", w)
	}

	c := New(name)
	dataset := c.AddDataset(name)
	if err := dataset.AddObject(adata); err != nil {
		return nil, err
	}

	scatterplot := c.AddView(ComponentScatterplot, dataset)
	if mapping := adata.FirstEmbeddingName(); mapping != "" {
		scope := c.AddCoordination("embeddingType", mapping)
		scatterplot.UseCoordination("embeddingType", scope)
	}
	sets := c.AddView(ComponentObsSets, dataset)
	features := c.AddView(ComponentFeatureList, dataset)
	heatmap := c.AddView(ComponentHeatmap, dataset)

	if adata.HasSpatial() {
		spatial := c.AddView(ComponentSpatial, dataset)
		c.Layout(VConcat(
			HConcat(scatterplot, spatial),
			HConcat(heatmap, VConcat(sets, features)),
		))
	} else {
		c.Layout(VConcat(
			HConcat(scatterplot, VConcat(sets, features)),
			heatmap,
		))
	}
	return c, nil
}
