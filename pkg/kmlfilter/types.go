package kmlfilter

import (
	"strings"

	"github.com/kailas-cloud/kmlfilter/internal/domain/catalog"
	domexport "github.com/kailas-cloud/kmlfilter/internal/domain/export"
	"github.com/kailas-cloud/kmlfilter/internal/domain/filter"
	"github.com/kailas-cloud/kmlfilter/internal/domain/placemark"
)

// Filters constrains a query. Empty fields impose no constraint.
// Client, Status and District match exactly; Reference and
// StreetOrIntersection match as substrings of at least three characters.
type Filters struct {
	Client               string
	Status               string
	District             string
	Reference            string
	StreetOrIntersection string
}

// Record holds the attributes of one placemark. Nil means the placemark
// has no such attribute.
type Record struct {
	Client               *string `json:"client"`
	Status               *string `json:"status"`
	District             *string `json:"district"`
	Reference            *string `json:"reference"`
	StreetOrIntersection *string `json:"streetOrIntersection"`
}

// Catalog lists the distinct values accepted for the categorical filters.
type Catalog struct {
	Clients   []string `json:"clients"`
	Statuses  []string `json:"statuses"`
	Districts []string `json:"districts"`
}

// Keys names the ExtendedData entries the five attributes are read from.
type Keys struct {
	Client               string
	Status               string
	District             string
	Reference            string
	StreetOrIntersection string
}

// Format is an export file format: "kml", "kmz", "xlsx" or "shp".
type Format string

// Supported export formats.
const (
	FormatKML  Format = "kml"
	FormatKMZ  Format = "kmz"
	FormatXLSX Format = "xlsx"
	FormatSHP  Format = "shp"
)

// Export is a rendered export file.
type Export struct {
	Format      Format
	Filename    string
	ContentType string
	Data        []byte
	Count       int
}

// FieldError is one failed filter rule.
type FieldError struct {
	Field  string
	Reason string // e.g. "invalid client value"
	Code   string // e.g. "invalid_client"
}

// ValidationErrors lists every failed rule in field order.
// It matches ErrValidation with errors.Is.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ErrValidation.Error()
	}
	reasons := make([]string, len(v))
	for i, fe := range v {
		reasons[i] = fe.Reason
	}
	return strings.Join(reasons, "; ")
}

func (v ValidationErrors) Unwrap() error { return ErrValidation }

func filtersToSet(f Filters) filter.Set {
	return filter.Set{
		Client:               f.Client,
		Status:               f.Status,
		District:             f.District,
		Reference:            f.Reference,
		StreetOrIntersection: f.StreetOrIntersection,
	}
}

func keysToDomain(k Keys) placemark.Keys {
	return placemark.Keys{
		Client:               k.Client,
		Status:               k.Status,
		District:             k.District,
		Reference:            k.Reference,
		StreetOrIntersection: k.StreetOrIntersection,
	}.WithDefaults()
}

func recordFromDomain(r placemark.Record) Record {
	return Record{
		Client:               r.Client,
		Status:               r.Status,
		District:             r.District,
		Reference:            r.Reference,
		StreetOrIntersection: r.StreetOrIntersection,
	}
}

func catalogFromDomain(c catalog.Catalog) Catalog {
	return Catalog{
		Clients:   c.Clients(),
		Statuses:  c.Statuses(),
		Districts: c.Districts(),
	}
}

func validationErrorsFromDomain(errs []*filter.ValidationError) ValidationErrors {
	if len(errs) == 0 {
		return nil
	}
	out := make(ValidationErrors, len(errs))
	for i, e := range errs {
		out[i] = FieldError{Field: string(e.Field), Reason: e.Error(), Code: e.Reason.Code()}
	}
	return out
}

func exportFromDomain(a domexport.Artifact) Export {
	return Export{
		Format:      Format(a.Format),
		Filename:    a.Format.Filename(),
		ContentType: a.Format.ContentType(),
		Data:        a.Data,
		Count:       a.Count,
	}
}
