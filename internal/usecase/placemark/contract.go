package placemark

import "github.com/kailas-cloud/kmlfilter/internal/kml"

// DocumentSource provides the current immutable document.
type DocumentSource interface {
	Document() *kml.Document
}
