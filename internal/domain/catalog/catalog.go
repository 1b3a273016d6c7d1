// Package catalog collects the distinct values of the categorical record
// fields. The catalog is what filter values are validated against.
package catalog

import (
	"encoding/json"
	"iter"
	"slices"

	"github.com/kailas-cloud/kmlfilter/internal/domain/placemark"
)

// Catalog holds sorted distinct values per categorical field.
// Absent and empty values are not collected.
type Catalog struct {
	values map[placemark.Field][]string
	index  map[placemark.Field]map[string]struct{}
}

// Build scans records once and returns their catalog.
func Build(records iter.Seq[placemark.Record]) Catalog {
	c := Catalog{
		values: make(map[placemark.Field][]string, len(placemark.CategoricalFields)),
		index:  make(map[placemark.Field]map[string]struct{}, len(placemark.CategoricalFields)),
	}
	for _, f := range placemark.CategoricalFields {
		c.index[f] = make(map[string]struct{})
	}

	for r := range records {
		for _, f := range placemark.CategoricalFields {
			v, ok := r.Get(f)
			if !ok || v == "" {
				continue
			}
			c.index[f][v] = struct{}{}
		}
	}

	for f, set := range c.index {
		vals := make([]string, 0, len(set))
		for v := range set {
			vals = append(vals, v)
		}
		slices.Sort(vals)
		c.values[f] = vals
	}
	return c
}

// Values returns a copy of the sorted values of f.
// Free-text fields always return an empty slice.
func (c Catalog) Values(f placemark.Field) []string {
	return slices.Clone(c.values[f])
}

// Contains reports whether v is an exact member of f's values.
func (c Catalog) Contains(f placemark.Field, v string) bool {
	_, ok := c.index[f][v]
	return ok
}

func (c Catalog) Clients() []string   { return c.Values(placemark.FieldClient) }
func (c Catalog) Statuses() []string  { return c.Values(placemark.FieldStatus) }
func (c Catalog) Districts() []string { return c.Values(placemark.FieldDistrict) }

// MarshalJSON renders the catalog as {"clients","statuses","districts"},
// each an array even when empty.
func (c Catalog) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Clients   []string `json:"clients"`
		Statuses  []string `json:"statuses"`
		Districts []string `json:"districts"`
	}{
		Clients:   nonNil(c.Clients()),
		Statuses:  nonNil(c.Statuses()),
		Districts: nonNil(c.Districts()),
	})
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
