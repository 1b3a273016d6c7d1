package kmlfilter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/kmlfilter/internal/domain/catalog"
	domexport "github.com/kailas-cloud/kmlfilter/internal/domain/export"
	"github.com/kailas-cloud/kmlfilter/internal/domain/filter"
	"github.com/kailas-cloud/kmlfilter/internal/domain/placemark"
	"github.com/kailas-cloud/kmlfilter/internal/kml"
	"github.com/kailas-cloud/kmlfilter/internal/source"
	exportuc "github.com/kailas-cloud/kmlfilter/internal/usecase/export"
	placemarkuc "github.com/kailas-cloud/kmlfilter/internal/usecase/placemark"
)

// Internal interfaces for substitution in tests.
type placemarkUseCase interface {
	AvailableFilters(ctx context.Context) catalog.Catalog
	CheckFilters(ctx context.Context, set filter.Set) []*filter.ValidationError
	Query(ctx context.Context, set filter.Set) iter.Seq[placemark.Record]
	Export(ctx context.Context, set filter.Set) (*kml.Document, error)
}

type exportUseCase interface {
	Render(ctx context.Context, set filter.Set, format domexport.Format) (domexport.Artifact, error)
}

type documentHolder interface {
	Document() *kml.Document
	Reload(ctx context.Context) error
}

// Client is the kmlfilter entry point.
type Client struct {
	holder     documentHolder
	placemarks placemarkUseCase
	exports    exportUseCase
	obs        *observer
}

// Open loads the document and builds a Client over it.
// The provided context bounds the initial load.
func Open(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	extractor, err := placemark.NewExtractor(keysToDomain(cfg.keys))
	if err != nil {
		return nil, fmt.Errorf("kmlfilter: %w", err)
	}

	holder, err := createHolder(ctx, cfg)
	if err != nil {
		return nil, err
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	placemarks := placemarkuc.New(holder, extractor).WithExportName(cfg.exportName)
	return &Client{
		holder:     holder,
		placemarks: placemarks,
		exports:    exportuc.New(placemarks, nil),
		obs:        obs,
	}, nil
}

func createHolder(ctx context.Context, cfg *clientConfig) (*source.Holder, error) {
	switch {
	case cfg.path != "":
		h, err := source.NewHolder(ctx, source.FileLoader{Path: cfg.path}, zap.NewNop())
		if err != nil {
			return nil, fmt.Errorf("kmlfilter: %w", err)
		}
		return h, nil
	case cfg.reader != nil:
		doc, err := kml.Load(cfg.reader)
		if err != nil {
			return nil, fmt.Errorf("kmlfilter: %w", err)
		}
		return source.NewHolderFromDocument(doc), nil
	default:
		return nil, errors.New("kmlfilter: document source required (use WithFile or WithReader)")
	}
}

// Len returns the number of placemarks in the current document.
func (c *Client) Len() int {
	return c.holder.Document().Len()
}

// AvailableFilters returns the distinct client, status and district values.
func (c *Client) AvailableFilters(ctx context.Context) (Catalog, error) {
	start := time.Now()
	defer c.obs.finish("available_filters", start, nil)

	return catalogFromDomain(c.placemarks.AvailableFilters(ctx)), nil
}

// Validate checks f against the current catalog.
// It returns nil or a ValidationErrors listing every failed rule.
func (c *Client) Validate(ctx context.Context, f Filters) (err error) {
	start := time.Now()
	defer func() { c.obs.finish("validate", start, err) }()

	if errs := validationErrorsFromDomain(c.placemarks.CheckFilters(ctx, filtersToSet(f))); errs != nil {
		return errs
	}
	return nil
}

// Query validates f and returns the matching records in document order.
func (c *Client) Query(ctx context.Context, f Filters) (_ []Record, err error) {
	start := time.Now()
	defer func() { c.obs.finish("query", start, err) }()

	set := filtersToSet(f)
	if errs := validationErrorsFromDomain(c.placemarks.CheckFilters(ctx, set)); errs != nil {
		return nil, errs
	}

	records := make([]Record, 0)
	for r := range c.placemarks.Query(ctx, set) {
		records = append(records, recordFromDomain(r))
	}
	c.obs.matched("query", len(records))
	return records, nil
}

// Export validates f and renders the matching placemarks in the given format.
// An empty format means KML.
func (c *Client) Export(ctx context.Context, f Filters, format Format) (_ Export, err error) {
	start := time.Now()
	defer func() { c.obs.finish("export", start, err, "format", format) }()

	df, err := domexport.ParseFormat(string(format))
	if err != nil {
		return Export{}, fmt.Errorf("kmlfilter: %w", err)
	}
	set := filtersToSet(f)
	if errs := validationErrorsFromDomain(c.placemarks.CheckFilters(ctx, set)); errs != nil {
		return Export{}, errs
	}

	a, err := c.exports.Render(ctx, set, df)
	if err != nil {
		return Export{}, fmt.Errorf("kmlfilter: %w", err)
	}
	e := exportFromDomain(a)
	c.obs.matched("export", e.Count)
	c.obs.exported(e)
	return e, nil
}

// WriteKML validates f and writes the filtered KML document to w.
func (c *Client) WriteKML(ctx context.Context, w io.Writer, f Filters) (err error) {
	start := time.Now()
	defer func() { c.obs.finish("write_kml", start, err) }()

	set := filtersToSet(f)
	if errs := validationErrorsFromDomain(c.placemarks.CheckFilters(ctx, set)); errs != nil {
		return errs
	}

	doc, err := c.placemarks.Export(ctx, set)
	if err != nil {
		return fmt.Errorf("kmlfilter: %w", err)
	}
	c.obs.matched("write_kml", doc.Len())
	if err := kml.Encode(w, doc); err != nil {
		return fmt.Errorf("kmlfilter: write kml: %w", err)
	}
	return nil
}

// Reload re-reads the file given to WithFile. On failure the previous
// document stays in use. Clients opened WithReader return ErrSourceUnavailable.
func (c *Client) Reload(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.finish("reload", start, err) }()

	if err := c.holder.Reload(ctx); err != nil {
		return fmt.Errorf("kmlfilter: %w", err)
	}
	return nil
}
