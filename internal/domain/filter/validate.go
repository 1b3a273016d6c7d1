package filter

import (
	"unicode/utf8"

	"github.com/kailas-cloud/kmlfilter/internal/domain"
	"github.com/kailas-cloud/kmlfilter/internal/domain/catalog"
	"github.com/kailas-cloud/kmlfilter/internal/domain/placemark"
)

// MinFreeTextLength is the shortest accepted free-text constraint, in characters.
const MinFreeTextLength = 3

// Reason enumerates why a filter value was rejected.
type Reason int

const (
	ReasonInvalidClient Reason = iota + 1
	ReasonInvalidStatus
	ReasonInvalidDistrict
	ReasonReferenceTooShort
	ReasonStreetTooShort
)

func (r Reason) String() string {
	switch r {
	case ReasonInvalidClient:
		return "invalid client value"
	case ReasonInvalidStatus:
		return "invalid status value"
	case ReasonInvalidDistrict:
		return "invalid district value"
	case ReasonReferenceTooShort:
		return "reference too short"
	case ReasonStreetTooShort:
		return "street/intersection too short"
	default:
		return "unknown reason"
	}
}

// Code is a stable machine-readable form of r, used as a metric label.
func (r Reason) Code() string {
	switch r {
	case ReasonInvalidClient:
		return "invalid_client"
	case ReasonInvalidStatus:
		return "invalid_status"
	case ReasonInvalidDistrict:
		return "invalid_district"
	case ReasonReferenceTooShort:
		return "reference_too_short"
	case ReasonStreetTooShort:
		return "street_too_short"
	default:
		return "unknown"
	}
}

// ValidationError describes one rejected filter value.
type ValidationError struct {
	Field  placemark.Field
	Reason Reason
	Value  string
}

func (e *ValidationError) Error() string { return e.Reason.String() }

func (e *ValidationError) Unwrap() error { return domain.ErrValidation }

func reasonFor(f placemark.Field) Reason {
	switch f {
	case placemark.FieldClient:
		return ReasonInvalidClient
	case placemark.FieldStatus:
		return ReasonInvalidStatus
	case placemark.FieldDistrict:
		return ReasonInvalidDistrict
	case placemark.FieldReference:
		return ReasonReferenceTooShort
	default:
		return ReasonStreetTooShort
	}
}

// Check runs every rule against c and returns all failures in rule order:
// client, status, district, reference, street/intersection.
// A nil result means s is valid.
func (s Set) Check(c catalog.Catalog) []*ValidationError {
	var errs []*ValidationError
	for _, f := range placemark.Fields {
		v := s.Get(f)
		if v == "" {
			continue
		}
		var bad bool
		if f.Categorical() {
			bad = !c.Contains(f, v)
		} else {
			bad = utf8.RuneCountInString(v) < MinFreeTextLength
		}
		if bad {
			errs = append(errs, &ValidationError{Field: f, Reason: reasonFor(f), Value: v})
		}
	}
	return errs
}

// Validate returns the first failure reported by Check, or nil.
func (s Set) Validate(c catalog.Catalog) error {
	if errs := s.Check(c); len(errs) > 0 {
		return errs[0]
	}
	return nil
}
