package health

import (
	"context"

	"github.com/kailas-cloud/kmlfilter/internal/kml"
)

// DocumentSource provides the current placemark document.
type DocumentSource interface {
	Document() *kml.Document
}

// StorePinger checks export store availability.
type StorePinger interface {
	Ping(ctx context.Context) error
}
