package export

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/kmlfilter/internal/domain"
	domexport "github.com/kailas-cloud/kmlfilter/internal/domain/export"
	"github.com/kailas-cloud/kmlfilter/internal/domain/filter"
	"github.com/kailas-cloud/kmlfilter/internal/logger"
	"github.com/kailas-cloud/kmlfilter/internal/metrics"
)

// ErrStoreDisabled is returned by Store and Fetch when no repository is configured.
var ErrStoreDisabled = errors.New("export store disabled")

// Service renders filtered placemarks into downloadable files.
// Filters must be validated before calling Render or Store.
type Service struct {
	placemarks Placemarks
	repo       Repository
}

// New creates an export service. repo may be nil, which disables Store and Fetch.
func New(placemarks Placemarks, repo Repository) *Service {
	return &Service{placemarks: placemarks, repo: repo}
}

// Render builds the export of set in the given format, in memory.
func (s *Service) Render(ctx context.Context, set filter.Set, format domexport.Format) (domexport.Artifact, error) {
	a, err := s.render(ctx, set, format)
	metrics.ExportsTotal.WithLabelValues(string(format), metrics.Status(err)).Inc()
	if err != nil {
		return domexport.Artifact{}, fmt.Errorf("render %s: %w", format, err)
	}

	logger.FromContext(ctx).Debug("Export rendered",
		zap.String("format", string(format)),
		zap.Int("placemarks", a.Count),
		zap.Int("bytes", len(a.Data)),
	)
	return a, nil
}

func (s *Service) render(ctx context.Context, set filter.Set, format domexport.Format) (domexport.Artifact, error) {
	switch format {
	case domexport.KML, domexport.KMZ:
		doc, err := s.placemarks.Export(ctx, set)
		if err != nil {
			return domexport.Artifact{}, err
		}
		var data []byte
		if format == domexport.KMZ {
			data, err = renderKMZ(doc)
		} else {
			data, err = renderKML(doc)
		}
		if err != nil {
			return domexport.Artifact{}, err
		}
		return domexport.Artifact{Format: format, Data: data, Count: doc.Len()}, nil

	case domexport.XLSX, domexport.SHP:
		rows, err := collectRows(ctx, s.placemarks.Entries(ctx, set))
		if err != nil {
			return domexport.Artifact{}, err
		}
		var data []byte
		if format == domexport.XLSX {
			data, err = renderXLSX(rows)
		} else {
			data, err = renderSHP(rows)
		}
		if err != nil {
			return domexport.Artifact{}, err
		}
		return domexport.Artifact{Format: format, Data: data, Count: len(rows)}, nil

	default:
		return domexport.Artifact{}, fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, format)
	}
}

// Store renders the export and keeps it for later download.
func (s *Service) Store(ctx context.Context, set filter.Set, format domexport.Format) (domexport.Handle, error) {
	if s.repo == nil {
		return domexport.Handle{}, ErrStoreDisabled
	}
	a, err := s.Render(ctx, set, format)
	if err != nil {
		return domexport.Handle{}, err
	}
	h, err := s.repo.Save(ctx, a)
	if err != nil {
		return domexport.Handle{}, fmt.Errorf("store export: %w", err)
	}

	logger.FromContext(ctx).Info("Export stored",
		zap.String("id", h.ID),
		zap.String("format", string(h.Format)),
		zap.Time("expires_at", h.ExpiresAt),
	)
	return h, nil
}

// Fetch returns a stored export. Unknown and expired ids wrap domain.ErrNotFound.
func (s *Service) Fetch(ctx context.Context, id string) (domexport.Artifact, error) {
	if s.repo == nil {
		return domexport.Artifact{}, ErrStoreDisabled
	}
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return domexport.Artifact{}, fmt.Errorf("fetch export %s: %w", id, err)
	}
	return a, nil
}

// Discard removes a stored export before its TTL runs out.
func (s *Service) Discard(ctx context.Context, id string) error {
	if s.repo == nil {
		return ErrStoreDisabled
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("discard export %s: %w", id, err)
	}
	return nil
}
