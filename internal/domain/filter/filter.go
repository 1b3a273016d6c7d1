// Package filter implements filter sets over placemark records: validation
// against a catalog and record matching.
package filter

import (
	"strings"

	"github.com/kailas-cloud/kmlfilter/internal/domain/placemark"
)

// Set is a filter over records. An empty field places no constraint.
type Set struct {
	Client               string `json:"client,omitempty"`
	Status               string `json:"status,omitempty"`
	District             string `json:"district,omitempty"`
	Reference            string `json:"reference,omitempty"`
	StreetOrIntersection string `json:"streetOrIntersection,omitempty"`
}

// Get returns the constraint on field f.
func (s Set) Get(f placemark.Field) string {
	switch f {
	case placemark.FieldClient:
		return s.Client
	case placemark.FieldStatus:
		return s.Status
	case placemark.FieldDistrict:
		return s.District
	case placemark.FieldReference:
		return s.Reference
	case placemark.FieldStreetOrIntersection:
		return s.StreetOrIntersection
	default:
		return ""
	}
}

// IsEmpty reports whether s matches every record.
func (s Set) IsEmpty() bool {
	return s == Set{}
}

// Match reports whether r satisfies every constraint of s. Categorical
// fields match by equality, free-text fields by case-sensitive substring.
// A record lacking a constrained field never matches.
func (s Set) Match(r placemark.Record) bool {
	for _, f := range placemark.Fields {
		want := s.Get(f)
		if want == "" {
			continue
		}
		got, ok := r.Get(f)
		if !ok {
			return false
		}
		if f.Categorical() {
			if got != want {
				return false
			}
		} else if !strings.Contains(got, want) {
			return false
		}
	}
	return true
}
