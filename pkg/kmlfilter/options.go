package kmlfilter

import (
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	path   string
	reader io.Reader

	keys       Keys
	exportName string

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithFile loads the document from a KML file. Reload re-reads it.
func WithFile(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.path = path
		c.reader = nil
	})
}

// WithReader loads the document once from r. Reload is not available.
func WithReader(r io.Reader) Option {
	return optionFunc(func(c *clientConfig) {
		c.reader = r
		c.path = ""
	})
}

// WithKeys overrides the ExtendedData names of the five attributes.
// Empty names keep their defaults (CLIENT, STATUS, DISTRICT, REFERENCE,
// STREET/INTERSECTION).
func WithKeys(k Keys) Option {
	return optionFunc(func(c *clientConfig) {
		c.keys = k
	})
}

// WithExportName sets the <name> of exported documents.
func WithExportName(name string) Option {
	return optionFunc(func(c *clientConfig) {
		c.exportName = name
	})
}

// WithLogger enables structured logging for client operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers client metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
