package export

import (
	"context"
	"iter"

	domexport "github.com/kailas-cloud/kmlfilter/internal/domain/export"
	"github.com/kailas-cloud/kmlfilter/internal/domain/filter"
	"github.com/kailas-cloud/kmlfilter/internal/domain/placemark"
	"github.com/kailas-cloud/kmlfilter/internal/kml"
)

// Placemarks is the query side the renderers read from.
type Placemarks interface {
	Export(ctx context.Context, set filter.Set) (*kml.Document, error)
	Entries(ctx context.Context, set filter.Set) iter.Seq2[*kml.Placemark, placemark.Record]
}

// Repository stores rendered artifacts for later download.
type Repository interface {
	Save(ctx context.Context, a domexport.Artifact) (domexport.Handle, error)
	Get(ctx context.Context, id string) (domexport.Artifact, error)
	Delete(ctx context.Context, id string) error
}
