package placemark

import (
	"errors"
	"fmt"

	"golang.org/x/text/unicode/norm"

	"github.com/kailas-cloud/kmlfilter/internal/kml"
)

// Keys maps record fields to the ExtendedData entry names they are read from.
type Keys struct {
	Client               string `yaml:"client"`
	Status               string `yaml:"status"`
	District             string `yaml:"district"`
	Reference            string `yaml:"reference"`
	StreetOrIntersection string `yaml:"street_or_intersection"`
}

// DefaultKeys returns the default ExtendedData entry names.
func DefaultKeys() Keys {
	return Keys{
		Client:               "CLIENT",
		Status:               "STATUS",
		District:             "DISTRICT",
		Reference:            "REFERENCE",
		StreetOrIntersection: "STREET/INTERSECTION",
	}
}

// Key returns the ExtendedData entry name for field f.
func (k Keys) Key(f Field) string {
	switch f {
	case FieldClient:
		return k.Client
	case FieldStatus:
		return k.Status
	case FieldDistrict:
		return k.District
	case FieldReference:
		return k.Reference
	case FieldStreetOrIntersection:
		return k.StreetOrIntersection
	default:
		return ""
	}
}

// WithDefaults fills empty names from DefaultKeys.
func (k Keys) WithDefaults() Keys {
	d := DefaultKeys()
	if k.Client == "" {
		k.Client = d.Client
	}
	if k.Status == "" {
		k.Status = d.Status
	}
	if k.District == "" {
		k.District = d.District
	}
	if k.Reference == "" {
		k.Reference = d.Reference
	}
	if k.StreetOrIntersection == "" {
		k.StreetOrIntersection = d.StreetOrIntersection
	}
	return k
}

// Validate checks that every field has a name and no two fields share one.
func (k Keys) Validate() error {
	seen := make(map[string]Field, len(Fields))
	for _, f := range Fields {
		name := norm.NFC.String(k.Key(f))
		if name == "" {
			return fmt.Errorf("key for %s is required", f)
		}
		if other, ok := seen[name]; ok {
			return fmt.Errorf("key %q is used by both %s and %s", name, other, f)
		}
		seen[name] = f
	}
	return nil
}

// Extract returns the value of the ExtendedData entry named key, or nil
// when the placemark has no such entry.
func Extract(pm *kml.Placemark, key string) *string {
	v, ok := pm.Data(key)
	if !ok {
		return nil
	}
	return &v
}

// Extractor turns placemarks into records.
type Extractor struct {
	keys Keys
}

// NewExtractor creates an Extractor reading the given keys.
func NewExtractor(keys Keys) (Extractor, error) {
	if err := keys.Validate(); err != nil {
		return Extractor{}, errors.Join(errors.New("invalid attribute keys"), err)
	}
	return Extractor{keys: keys}, nil
}

// Keys returns the configured entry names.
func (e Extractor) Keys() Keys { return e.keys }

// Record extracts all record fields from pm.
func (e Extractor) Record(pm *kml.Placemark) Record {
	var r Record
	for _, f := range Fields {
		r.set(f, Extract(pm, e.keys.Key(f)))
	}
	return r
}
