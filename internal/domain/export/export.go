// Package export describes rendered exports of filtered placemarks.
package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/kmlfilter/internal/domain"
)

// Format is the file format of an export.
type Format string

// Export format constants.
const (
	KML  Format = "kml"
	KMZ  Format = "kmz"
	XLSX Format = "xlsx"
	// SHP is a zipped ESRI shapefile point layer.
	SHP Format = "shp"
)

// Formats lists the supported formats.
var Formats = []Format{KML, KMZ, XLSX, SHP}

// IsValid checks if the format is one of the supported values.
func (f Format) IsValid() bool {
	return f == KML || f == KMZ || f == XLSX || f == SHP
}

// ParseFormat parses a case-insensitive format name. Empty means KML.
func ParseFormat(s string) (Format, error) {
	if s == "" {
		return KML, nil
	}
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if !f.IsValid() {
		return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, s)
	}
	return f, nil
}

// ContentType returns the MIME type served for f.
func (f Format) ContentType() string {
	switch f {
	case KMZ:
		return "application/vnd.google-earth.kmz"
	case XLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case SHP:
		return "application/zip"
	default:
		return "application/vnd.google-earth.kml+xml"
	}
}

// Filename returns the download name for f.
func (f Format) Filename() string {
	if f == SHP {
		return "filtered.shp.zip"
	}
	return "filtered." + string(f)
}

// Artifact is a rendered export held in memory.
type Artifact struct {
	Format Format
	Data   []byte
	// Count is the number of placemarks in the export.
	Count int
}

// Handle identifies a stored artifact.
type Handle struct {
	ID        string
	Format    Format
	Count     int
	ExpiresAt time.Time
}
