package export

import (
	"archive/zip"
	"bytes"
	"fmt"

	"github.com/kailas-cloud/kmlfilter/internal/kml"
)

func renderKML(doc *kml.Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := kml.Encode(&buf, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// renderKMZ zips the KML as doc.kml, the entry name Earth clients open first.
func renderKMZ(doc *kml.Document) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("doc.kml")
	if err != nil {
		return nil, fmt.Errorf("kmz entry: %w", err)
	}
	if err := kml.Encode(w, doc); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("kmz close: %w", err)
	}
	return buf.Bytes(), nil
}
