// Package kmlfilter embeds the placemark filter service in a Go program.
//
// A Client loads one KML document, reads five attributes of every placemark
// from its ExtendedData (client, status, district, reference and
// street/intersection) and answers catalog, validation, query and export
// calls against it without an HTTP hop.
//
//	c, err := kmlfilter.Open(ctx, kmlfilter.WithFile("sites.kml"))
//	if err != nil { ... }
//	cat, _ := c.AvailableFilters(ctx)
//	recs, err := c.Query(ctx, kmlfilter.Filters{Client: cat.Clients[0]})
//	if errors.Is(err, kmlfilter.ErrValidation) { ... }
//	_ = c.WriteKML(ctx, w, kmlfilter.Filters{Status: "Active"})
package kmlfilter
