// Package kml reads and writes the part of KML the service works with:
// placemarks, their ExtendedData entries and their geometry.
//
// A Document is immutable once built. Load parses one from markup,
// NewDocument assembles one from synthesized placemarks, and Encode
// serializes either kind back to markup.
package kml

import (
	"iter"
	"slices"

	"github.com/twpayne/go-geom"
	"golang.org/x/text/unicode/norm"
)

// Data is a single named ExtendedData entry.
type Data struct {
	Name  string
	Value string
}

// Placemark is a read-only view of one KML Placemark.
type Placemark struct {
	id          string
	name        string
	description string
	data        []Data
	geometry    geom.T
}

// NewPlacemark creates a placemark. g may be nil.
func NewPlacemark(name, description string, g geom.T, data ...Data) *Placemark {
	return &Placemark{
		name:        name,
		description: description,
		data:        normalizeData(data),
		geometry:    g,
	}
}

// ID returns the placemark id attribute, if any.
func (p *Placemark) ID() string { return p.id }

// Name returns the placemark name.
func (p *Placemark) Name() string { return p.name }

// Description returns the placemark description.
func (p *Placemark) Description() string { return p.description }

// Geometry returns the placemark geometry or nil.
func (p *Placemark) Geometry() geom.T { return p.geometry }

// Data returns the value of the first ExtendedData entry named key.
// Names are compared after NFC normalization, so "SITUAÇÃO" written
// with a combining cedilla still matches the precomposed form.
func (p *Placemark) Data(key string) (string, bool) {
	key = norm.NFC.String(key)
	for _, d := range p.data {
		if d.Name == key {
			return d.Value, true
		}
	}
	return "", false
}

// Keys returns the ExtendedData entry names in document order.
func (p *Placemark) Keys() []string {
	keys := make([]string, len(p.data))
	for i, d := range p.data {
		keys[i] = d.Name
	}
	return keys
}

func normalizeData(data []Data) []Data {
	out := make([]Data, len(data))
	for i, d := range data {
		out[i] = Data{Name: norm.NFC.String(d.Name), Value: d.Value}
	}
	return out
}

// Document is an ordered, immutable collection of placemarks.
type Document struct {
	name       string
	placemarks []*Placemark
}

// NewDocument creates a document holding the given placemarks in order.
func NewDocument(name string, placemarks ...*Placemark) *Document {
	return &Document{name: name, placemarks: slices.Clone(placemarks)}
}

// Name returns the document name.
func (d *Document) Name() string { return d.name }

// Len returns the number of placemarks.
func (d *Document) Len() int { return len(d.placemarks) }

// Placemarks yields every placemark in document order.
func (d *Document) Placemarks() iter.Seq[*Placemark] {
	return func(yield func(*Placemark) bool) {
		for _, p := range d.placemarks {
			if !yield(p) {
				return
			}
		}
	}
}
