package kml

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/twpayne/go-geom"
	"golang.org/x/text/encoding/ianaindex"

	"github.com/kailas-cloud/kmlfilter/internal/domain/geo"
)

// ParseError reports malformed KML input.
type ParseError struct {
	Line   int
	Column int
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("kml: line %d, column %d: %v", e.Line, e.Column, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Load parses a KML stream. Placemarks are collected from any depth of
// Document/Folder nesting, in the order they appear in the markup.
func Load(r io.Reader) (*Document, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charsetReader

	fail := func(err error) (*Document, error) {
		line, col := dec.InputPos()
		return nil, &ParseError{Line: line, Column: col, Err: err}
	}

	doc := &Document{}
	var stack []string
	root := false
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fail(err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if !root {
				if t.Name.Local != "kml" {
					return fail(fmt.Errorf("unexpected root element <%s>", t.Name.Local))
				}
				root = true
			} else if len(stack) == 0 {
				return fail(fmt.Errorf("unexpected element <%s> after root", t.Name.Local))
			}
			switch {
			case t.Name.Local == "Placemark":
				var raw rawPlacemark
				if err := dec.DecodeElement(&raw, &t); err != nil {
					return fail(err)
				}
				pm, err := raw.placemark()
				if err != nil {
					return fail(err)
				}
				doc.placemarks = append(doc.placemarks, pm)
			case t.Name.Local == "name" && doc.name == "" && len(stack) > 0 && stack[len(stack)-1] == "Document":
				var name string
				if err := dec.DecodeElement(&name, &t); err != nil {
					return fail(err)
				}
				doc.name = strings.TrimSpace(name)
			default:
				stack = append(stack, t.Name.Local)
			}
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}

	if !root {
		return fail(errors.New("missing <kml> root element"))
	}
	return doc, nil
}

func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := ianaindex.IANA.Encoding(label)
	if err != nil {
		return nil, fmt.Errorf("unknown charset %q: %w", label, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("unsupported charset %q", label)
	}
	return enc.NewDecoder().Reader(input), nil
}

type rawPlacemark struct {
	ID           string           `xml:"id,attr"`
	Name         string           `xml:"name"`
	Description  string           `xml:"description"`
	ExtendedData *rawExtendedData `xml:"ExtendedData"`
	rawGeometries
}

type rawExtendedData struct {
	Data       []rawData       `xml:"Data"`
	SchemaData []rawSchemaData `xml:"SchemaData"`
}

type rawData struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value"`
}

type rawSchemaData struct {
	SimpleData []rawSimpleData `xml:"SimpleData"`
}

type rawSimpleData struct {
	Name  string `xml:"name,attr"`
	Value string `xml:",chardata"`
}

type rawGeometries struct {
	Points        []rawCoordinates `xml:"Point"`
	LineStrings   []rawCoordinates `xml:"LineString"`
	Polygons      []rawPolygon     `xml:"Polygon"`
	MultiGeometry []rawGeometries  `xml:"MultiGeometry"`
}

type rawCoordinates struct {
	Coordinates string `xml:"coordinates"`
}

type rawPolygon struct {
	Outer rawCoordinates   `xml:"outerBoundaryIs>LinearRing"`
	Inner []rawCoordinates `xml:"innerBoundaryIs>LinearRing"`
}

func (r *rawPlacemark) placemark() (*Placemark, error) {
	var data []Data
	if r.ExtendedData != nil {
		for _, d := range r.ExtendedData.Data {
			data = append(data, Data{Name: d.Name, Value: d.Value})
		}
		for _, sd := range r.ExtendedData.SchemaData {
			for _, d := range sd.SimpleData {
				data = append(data, Data{Name: d.Name, Value: d.Value})
			}
		}
	}

	g, err := r.geometry()
	if err != nil {
		return nil, fmt.Errorf("placemark %q: %w", strings.TrimSpace(r.Name), err)
	}

	// Descriptions are kept verbatim so Encode output reads back unchanged.
	pm := NewPlacemark(strings.TrimSpace(r.Name), r.Description, g, data...)
	pm.id = r.ID
	return pm, nil
}

// geometry collapses a single geometry to itself and anything else to a
// geometry collection. A placemark without coordinates has no geometry.
func (g *rawGeometries) geometry() (geom.T, error) {
	gs, err := g.collect()
	if err != nil {
		return nil, err
	}
	switch {
	case len(gs) == 0:
		return nil, nil
	case len(gs) == 1 && len(g.MultiGeometry) == 0:
		return gs[0], nil
	}
	coll := geom.NewGeometryCollection()
	if err := coll.Push(gs...); err != nil {
		return nil, fmt.Errorf("multi geometry: %w", err)
	}
	return coll, nil
}

func (g *rawGeometries) collect() ([]geom.T, error) {
	var gs []geom.T
	for _, p := range g.Points {
		layout, flat, err := parseCoordinates(p.Coordinates)
		if err != nil {
			return nil, fmt.Errorf("point: %w", err)
		}
		if len(flat) == 0 {
			continue
		}
		if len(flat) > layout.Stride() {
			return nil, fmt.Errorf("point: %d coordinate tuples, want 1", len(flat)/layout.Stride())
		}
		gs = append(gs, geom.NewPointFlat(layout, flat))
	}
	for _, ls := range g.LineStrings {
		layout, flat, err := parseCoordinates(ls.Coordinates)
		if err != nil {
			return nil, fmt.Errorf("line string: %w", err)
		}
		if len(flat) == 0 {
			continue
		}
		gs = append(gs, geom.NewLineStringFlat(layout, flat))
	}
	for _, pg := range g.Polygons {
		poly, err := pg.polygon()
		if err != nil {
			return nil, fmt.Errorf("polygon: %w", err)
		}
		if poly != nil {
			gs = append(gs, poly)
		}
	}
	for i := range g.MultiGeometry {
		inner, err := g.MultiGeometry[i].collect()
		if err != nil {
			return nil, err
		}
		gs = append(gs, inner...)
	}
	return gs, nil
}

func (p *rawPolygon) polygon() (*geom.Polygon, error) {
	rings := append([]rawCoordinates{p.Outer}, p.Inner...)
	layout := geom.XY
	layouts := make([]geom.Layout, 0, len(rings))
	parsed := make([][]float64, 0, len(rings))
	for _, ring := range rings {
		l, flat, err := parseCoordinates(ring.Coordinates)
		if err != nil {
			return nil, err
		}
		if l == geom.XYZ {
			layout = geom.XYZ
		}
		layouts = append(layouts, l)
		parsed = append(parsed, flat)
	}
	if len(parsed[0]) == 0 {
		return nil, nil
	}

	var flat []float64
	var ends []int
	for i, ring := range parsed {
		if layouts[i] == geom.XY && layout == geom.XYZ {
			ring = withZeroAltitude(ring)
		}
		flat = append(flat, ring...)
		ends = append(ends, len(flat))
	}
	return geom.NewPolygonFlat(layout, flat, ends), nil
}

// parseCoordinates parses a KML coordinates string: whitespace separated
// "lon,lat[,alt]" tuples. The layout is XYZ if any tuple carries altitude.
func parseCoordinates(s string) (geom.Layout, []float64, error) {
	tuples := strings.Fields(s)
	layout := geom.XY
	coords := make([][3]float64, 0, len(tuples))
	for _, tuple := range tuples {
		parts := strings.Split(tuple, ",")
		if len(parts) < 2 || len(parts) > 3 {
			return geom.NoLayout, nil, fmt.Errorf("invalid coordinate tuple %q", tuple)
		}
		var c [3]float64
		for i, part := range parts {
			v, err := strconv.ParseFloat(part, 64)
			if err != nil {
				return geom.NoLayout, nil, fmt.Errorf("invalid coordinate tuple %q: %w", tuple, err)
			}
			c[i] = v
		}
		if !geo.ValidateCoordinates(c[1], c[0]) {
			return geom.NoLayout, nil, fmt.Errorf("coordinate %q out of range", tuple)
		}
		if len(parts) == 3 {
			layout = geom.XYZ
		}
		coords = append(coords, c)
	}

	flat := make([]float64, 0, len(coords)*layout.Stride())
	for _, c := range coords {
		flat = append(flat, c[:layout.Stride()]...)
	}
	return layout, flat, nil
}

// withZeroAltitude widens XY flat coordinates to XYZ.
func withZeroAltitude(flat []float64) []float64 {
	out := make([]float64, 0, len(flat)/2*3)
	for i := 0; i+1 < len(flat); i += 2 {
		out = append(out, flat[i], flat[i+1], 0)
	}
	return out
}
