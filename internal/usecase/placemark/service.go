package placemark

import (
	"context"
	"fmt"
	"iter"

	"go.uber.org/zap"

	"github.com/kailas-cloud/kmlfilter/internal/domain/catalog"
	"github.com/kailas-cloud/kmlfilter/internal/domain/filter"
	domplacemark "github.com/kailas-cloud/kmlfilter/internal/domain/placemark"
	"github.com/kailas-cloud/kmlfilter/internal/kml"
	"github.com/kailas-cloud/kmlfilter/internal/logger"
	"github.com/kailas-cloud/kmlfilter/internal/metrics"
)

// DefaultExportName names exported documents unless overridden.
const DefaultExportName = "Filtered placemarks"

// Service answers catalog, validation, query and export requests against
// the current document. Nothing is cached: every call recomputes from the
// document snapshot it starts with.
type Service struct {
	source     DocumentSource
	extractor  domplacemark.Extractor
	exportName string
}

// New creates a placemark service.
func New(src DocumentSource, extractor domplacemark.Extractor) *Service {
	return &Service{source: src, extractor: extractor, exportName: DefaultExportName}
}

// WithExportName sets the name of exported documents.
func (s *Service) WithExportName(name string) *Service {
	if name != "" {
		s.exportName = name
	}
	return s
}

// AvailableFilters builds the catalog of the current document.
func (s *Service) AvailableFilters(_ context.Context) catalog.Catalog {
	doc := s.source.Document()
	return catalog.Build(func(yield func(domplacemark.Record) bool) {
		for pm := range doc.Placemarks() {
			if !yield(s.extractor.Record(pm)) {
				return
			}
		}
	})
}

// CheckFilters runs every validation rule and returns all failures.
func (s *Service) CheckFilters(ctx context.Context, set filter.Set) []*filter.ValidationError {
	if set.IsEmpty() {
		return nil
	}
	errs := set.Check(s.AvailableFilters(ctx))
	for _, e := range errs {
		metrics.ValidationFailuresTotal.WithLabelValues(e.Reason.Code()).Inc()
	}
	if len(errs) > 0 {
		logger.FromContext(ctx).Debug("Filter rejected",
			zap.Int("failures", len(errs)),
			zap.String("first_reason", errs[0].Reason.String()),
		)
	}
	return errs
}

// ValidateFilters returns the first validation failure, or nil.
// Query and Export do not validate; callers must call this first.
func (s *Service) ValidateFilters(ctx context.Context, set filter.Set) error {
	if errs := s.CheckFilters(ctx, set); len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// Entries yields each matching placemark with its record, in document order.
func (s *Service) Entries(_ context.Context, set filter.Set) iter.Seq2[*kml.Placemark, domplacemark.Record] {
	doc := s.source.Document()
	return func(yield func(*kml.Placemark, domplacemark.Record) bool) {
		for pm := range doc.Placemarks() {
			r := s.extractor.Record(pm)
			if !set.Match(r) {
				continue
			}
			if !yield(pm, r) {
				return
			}
		}
	}
}

// Query yields the records matching set, in document order. The sequence
// is restartable and always reads the document current at call time.
func (s *Service) Query(ctx context.Context, set filter.Set) iter.Seq[domplacemark.Record] {
	entries := s.Entries(ctx, set)
	return func(yield func(domplacemark.Record) bool) {
		for _, r := range entries {
			if !yield(r) {
				return
			}
		}
	}
}

// Count returns the number of records matching set.
func (s *Service) Count(ctx context.Context, set filter.Set) int {
	n := 0
	for range s.Entries(ctx, set) {
		n++
	}
	return n
}

// Export builds a new document with one placemark per matching record.
// Each placemark is named after the client, described by status and
// district, and keeps the source geometry.
func (s *Service) Export(ctx context.Context, set filter.Set) (*kml.Document, error) {
	var out []*kml.Placemark
	for pm, r := range s.Entries(ctx, set) {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("export: %w", err)
		}
		out = append(out, kml.NewPlacemark(
			r.Value(domplacemark.FieldClient),
			Describe(r),
			pm.Geometry(),
		))
	}

	logger.FromContext(ctx).Debug("Export built", zap.Int("placemarks", len(out)))
	return kml.NewDocument(s.exportName, out...), nil
}

// Describe renders the export description of r.
func Describe(r domplacemark.Record) string {
	return fmt.Sprintf("Status: %s, District: %s",
		r.Value(domplacemark.FieldStatus),
		r.Value(domplacemark.FieldDistrict),
	)
}
