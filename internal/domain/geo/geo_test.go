package geo

import (
	"testing"

	"github.com/twpayne/go-geom"
)

func almost(a, b, eps float64) bool {
	if a > b {
		return a-b < eps
	}
	return b-a < eps
}

func TestValidateCoordinates(t *testing.T) {
	tests := []struct {
		lat, lon float64
		want     bool
	}{
		{0, 0, true},
		{-23.55, -46.63, true},
		{90, 180, true},
		{-90, -180, true},
		{90.0001, 0, false},
		{0, -180.5, false},
		{-46.63, -123.55, true},
		{-123.55, -46.63, false},
	}
	for _, tc := range tests {
		if got := ValidateCoordinates(tc.lat, tc.lon); got != tc.want {
			t.Errorf("ValidateCoordinates(%v, %v) = %v, want %v", tc.lat, tc.lon, got, tc.want)
		}
	}
}

func TestRepresentative_Point(t *testing.T) {
	p := geom.NewPointFlat(geom.XY, []float64{-46.63, -23.55})
	lon, lat, ok := Representative(p)
	if !ok {
		t.Fatal("expected ok")
	}
	if lon != -46.63 || lat != -23.55 {
		t.Errorf("got (%v, %v)", lon, lat)
	}
}

func TestRepresentative_LineStringCenter(t *testing.T) {
	ls := geom.NewLineStringFlat(geom.XY, []float64{0, 0, 10, 4})
	lon, lat, ok := Representative(ls)
	if !ok {
		t.Fatal("expected ok")
	}
	if !almost(lon, 5, 1e-9) || !almost(lat, 2, 1e-9) {
		t.Errorf("got (%v, %v), want (5, 2)", lon, lat)
	}
}

func TestRepresentative_Nil(t *testing.T) {
	if _, _, ok := Representative(nil); ok {
		t.Error("nil geometry should not be ok")
	}
}

func TestRepresentative_EmptyCollection(t *testing.T) {
	if _, _, ok := Representative(geom.NewGeometryCollection()); ok {
		t.Error("empty collection should not be ok")
	}
}
