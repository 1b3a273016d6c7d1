package export

import (
	"context"
	"iter"

	"github.com/kailas-cloud/kmlfilter/internal/domain/geo"
	"github.com/kailas-cloud/kmlfilter/internal/domain/placemark"
	"github.com/kailas-cloud/kmlfilter/internal/kml"
)

// row is one tabular export line.
type row struct {
	name     string
	record   placemark.Record
	lon, lat float64
	// located is false when the placemark has no usable geometry.
	located bool
}

var columns = []string{
	"Name", "Client", "Status", "District", "Reference", "Street/Intersection", "Longitude", "Latitude",
}

func collectRows(ctx context.Context, entries iter.Seq2[*kml.Placemark, placemark.Record]) ([]row, error) {
	var rows []row
	for pm, r := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		lon, lat, ok := geo.Representative(pm.Geometry())
		rows = append(rows, row{name: pm.Name(), record: r, lon: lon, lat: lat, located: ok})
	}
	return rows, nil
}

// values returns the row cells in column order. Coordinates are nil when
// the placemark has no geometry.
func (r row) values() []any {
	out := make([]any, 0, len(columns))
	out = append(out, r.name)
	for _, f := range placemark.Fields {
		out = append(out, r.record.Value(f))
	}
	if r.located {
		out = append(out, r.lon, r.lat)
	} else {
		out = append(out, nil, nil)
	}
	return out
}
