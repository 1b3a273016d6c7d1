// Package source owns the current placemark document. The document is
// immutable; reloading replaces the whole reference atomically.
package source

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/kailas-cloud/kmlfilter/internal/domain"
	"github.com/kailas-cloud/kmlfilter/internal/kml"
	"github.com/kailas-cloud/kmlfilter/internal/metrics"
)

// Loader produces a freshly parsed document.
type Loader interface {
	Load(ctx context.Context) (*kml.Document, error)
}

// FileLoader loads a KML file from disk.
type FileLoader struct {
	Path string
}

// Load opens and parses the file. Open failures wrap domain.ErrSourceUnavailable.
func (l FileLoader) Load(ctx context.Context) (*kml.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("load %s: %w", l.Path, err)
	}
	f, err := os.Open(l.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, err)
	}
	defer func() { _ = f.Close() }()

	doc, err := kml.Load(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", l.Path, err)
	}
	return doc, nil
}

// Holder serves the current document to concurrent readers.
type Holder struct {
	loader Loader
	logger *zap.Logger
	doc    atomic.Pointer[kml.Document]
	// reloads are serialized; readers never block.
	mu sync.Mutex
}

// NewHolder loads the initial document. A load failure is returned as-is
// and is meant to be fatal for the caller.
func NewHolder(ctx context.Context, loader Loader, logger *zap.Logger) (*Holder, error) {
	if loader == nil {
		return nil, errors.New("source loader is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Holder{loader: loader, logger: logger}

	doc, err := loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("initial load: %w", err)
	}
	h.store(doc)
	return h, nil
}

// NewHolderFromDocument wraps an already loaded document. Reload fails
// with domain.ErrSourceUnavailable since there is nothing to reload from.
func NewHolderFromDocument(doc *kml.Document) *Holder {
	if doc == nil {
		doc = kml.NewDocument("")
	}
	h := &Holder{logger: zap.NewNop()}
	h.store(doc)
	return h
}

// Document returns the current document.
func (h *Holder) Document() *kml.Document {
	return h.doc.Load()
}

// Reload re-reads the source and swaps the document in on success. On
// failure the previous document keeps serving.
func (h *Holder) Reload(ctx context.Context) error {
	if h.loader == nil {
		return fmt.Errorf("reload: %w", domain.ErrSourceUnavailable)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	doc, err := h.loader.Load(ctx)
	metrics.SourceReloadsTotal.WithLabelValues(metrics.Status(err)).Inc()
	if err != nil {
		h.logger.Error("Source reload failed, keeping previous document", zap.Error(err))
		return fmt.Errorf("reload: %w", err)
	}

	prev := h.Document()
	h.store(doc)
	h.logger.Info("Source reloaded",
		zap.Int("previous_placemarks", prev.Len()),
		zap.Int("placemarks", doc.Len()),
	)
	return nil
}

func (h *Holder) store(doc *kml.Document) {
	h.doc.Store(doc)
	metrics.PlacemarksLoaded.Set(float64(doc.Len()))
}
