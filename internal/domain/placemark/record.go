// Package placemark defines the flattened attribute view of a KML
// placemark and how it is extracted from ExtendedData.
package placemark

// Field identifies one of the record attributes.
type Field string

// Record fields, named as they appear in query parameters and JSON.
const (
	FieldClient               Field = "client"
	FieldStatus               Field = "status"
	FieldDistrict             Field = "district"
	FieldReference            Field = "reference"
	FieldStreetOrIntersection Field = "streetOrIntersection"
)

// Fields lists every record field in declaration order.
var Fields = []Field{
	FieldClient,
	FieldStatus,
	FieldDistrict,
	FieldReference,
	FieldStreetOrIntersection,
}

// CategoricalFields lists the fields validated against the catalog.
var CategoricalFields = []Field{FieldClient, FieldStatus, FieldDistrict}

// Categorical reports whether f is matched by equality and validated
// against the catalog. The other fields are free text.
func (f Field) Categorical() bool {
	switch f {
	case FieldClient, FieldStatus, FieldDistrict:
		return true
	default:
		return false
	}
}

// Record holds the attributes of one placemark. A nil field means the
// placemark has no ExtendedData entry for it.
type Record struct {
	Client               *string `json:"client"`
	Status               *string `json:"status"`
	District             *string `json:"district"`
	Reference            *string `json:"reference"`
	StreetOrIntersection *string `json:"streetOrIntersection"`
}

// Get returns the value of field f and whether it is present.
func (r Record) Get(f Field) (string, bool) {
	var p *string
	switch f {
	case FieldClient:
		p = r.Client
	case FieldStatus:
		p = r.Status
	case FieldDistrict:
		p = r.District
	case FieldReference:
		p = r.Reference
	case FieldStreetOrIntersection:
		p = r.StreetOrIntersection
	}
	if p == nil {
		return "", false
	}
	return *p, true
}

// Value returns the value of field f, or "" when absent.
func (r Record) Value(f Field) string {
	v, _ := r.Get(f)
	return v
}

func (r *Record) set(f Field, v *string) {
	switch f {
	case FieldClient:
		r.Client = v
	case FieldStatus:
		r.Status = v
	case FieldDistrict:
		r.District = v
	case FieldReference:
		r.Reference = v
	case FieldStreetOrIntersection:
		r.StreetOrIntersection = v
	}
}
