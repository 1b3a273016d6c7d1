package export

import (
	"errors"
	"testing"

	"github.com/kailas-cloud/kmlfilter/internal/domain"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", KML, false},
		{"kml", KML, false},
		{"KMZ", KMZ, false},
		{" xlsx ", XLSX, false},
		{"shp", SHP, false},
		{"gpx", "", true},
		{"csv", "", true},
	}
	for _, tc := range tests {
		got, err := ParseFormat(tc.in)
		if tc.wantErr {
			if !errors.Is(err, domain.ErrUnsupportedFormat) {
				t.Errorf("ParseFormat(%q) error = %v, want ErrUnsupportedFormat", tc.in, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Errorf("ParseFormat(%q) = %q, %v; want %q", tc.in, got, err, tc.want)
		}
	}
}

func TestFormat_Delivery(t *testing.T) {
	tests := []struct {
		f           Format
		contentType string
		filename    string
	}{
		{KML, "application/vnd.google-earth.kml+xml", "filtered.kml"},
		{KMZ, "application/vnd.google-earth.kmz", "filtered.kmz"},
		{XLSX, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "filtered.xlsx"},
		{SHP, "application/zip", "filtered.shp.zip"},
	}
	for _, tc := range tests {
		if got := tc.f.ContentType(); got != tc.contentType {
			t.Errorf("%s.ContentType() = %q", tc.f, got)
		}
		if got := tc.f.Filename(); got != tc.filename {
			t.Errorf("%s.Filename() = %q", tc.f, got)
		}
	}
}
