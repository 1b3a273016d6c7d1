// Package geo holds coordinate helpers shared by the KML reader and the
// tabular export formats.
package geo

import "github.com/twpayne/go-geom"

// ValidateCoordinates checks that latitude is in [-90,90] and longitude in [-180,180].
func ValidateCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// Representative returns one lon/lat pair standing in for g: the point
// itself for a point, the bounding box center for anything else.
// ok is false for nil or empty geometries.
func Representative(g geom.T) (lon, lat float64, ok bool) {
	if g == nil || g.Empty() {
		return 0, 0, false
	}
	if pt, isPoint := g.(*geom.Point); isPoint {
		return pt.X(), pt.Y(), true
	}
	b := g.Bounds()
	return (b.Min(0) + b.Max(0)) / 2, (b.Min(1) + b.Max(1)) / 2, true
}
