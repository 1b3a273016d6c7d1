package kmlfilter

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for client calls.
const (
	outcomeOK       = "ok"
	outcomeRejected = "rejected"
	outcomeFailed   = "failed"
)

const codeUnsupportedFormat = "unsupported_format"

// clientMetrics is registered under kmlfilter_client_*.
type clientMetrics struct {
	calls     *prometheus.CounterVec   // operation, outcome
	latency   *prometheus.HistogramVec // operation
	rejected  *prometheus.CounterVec   // code
	matches   *prometheus.HistogramVec // operation
	exportLen *prometheus.HistogramVec // format
}

func newClientMetrics(reg prometheus.Registerer) (*clientMetrics, error) {
	opts := func(name, help string) prometheus.Opts {
		return prometheus.Opts{Namespace: "kmlfilter", Subsystem: "client", Name: name, Help: help}
	}
	hist := func(name, help string, buckets []float64) prometheus.HistogramOpts {
		return prometheus.HistogramOpts{Namespace: "kmlfilter", Subsystem: "client", Name: name, Help: help, Buckets: buckets}
	}

	m := &clientMetrics{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts(opts("calls_total",
			"Client calls by operation and outcome (ok, rejected, failed).")), []string{"operation", "outcome"}),
		latency: prometheus.NewHistogramVec(hist("call_duration_seconds",
			"Client call duration in seconds.", prometheus.DefBuckets), []string{"operation"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts(opts("rejected_filters_total",
			"Filter rules or formats rejected by the client, by reason code.")), []string{"code"}),
		matches: prometheus.NewHistogramVec(hist("matched_placemarks",
			"Placemarks selected per query or export.", prometheus.ExponentialBuckets(1, 4, 8)), []string{"operation"}),
		exportLen: prometheus.NewHistogramVec(hist("export_bytes",
			"Rendered export size by format.", prometheus.ExponentialBuckets(256, 4, 8)), []string{"format"}),
	}
	for _, err := range []error{
		registerOrReuse(reg, &m.calls),
		registerOrReuse(reg, &m.latency),
		registerOrReuse(reg, &m.rejected),
		registerOrReuse(reg, &m.matches),
		registerOrReuse(reg, &m.exportLen),
	} {
		if err != nil {
			return nil, err
		}
	}
	return m, nil
}

// registerOrReuse registers c, or points it at the collector already
// registered under the same name so several clients can share a registry.
func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	err := reg.Register(*c)
	var are prometheus.AlreadyRegisteredError
	switch {
	case err == nil:
		return nil
	case !errors.As(err, &are):
		return fmt.Errorf("kmlfilter: register metric: %w", err)
	}
	existing, ok := are.ExistingCollector.(T)
	if !ok {
		return fmt.Errorf("kmlfilter: metric already registered with incompatible type: %T", are.ExistingCollector)
	}
	*c = existing
	return nil
}

// rejectionCodes returns the reason codes carried by a caller error, or nil
// when err is not a filter or format rejection.
func rejectionCodes(err error) []string {
	var ve ValidationErrors
	if errors.As(err, &ve) {
		codes := make([]string, len(ve))
		for i, fe := range ve {
			codes[i] = fe.Code
		}
		return codes
	}
	if errors.Is(err, ErrUnsupportedFormat) {
		return []string{codeUnsupportedFormat}
	}
	return nil
}

type observer struct {
	logger  *slog.Logger
	metrics *clientMetrics
}

func newObserver(logger *slog.Logger, reg prometheus.Registerer) (*observer, error) {
	o := &observer{logger: logger}
	if reg != nil {
		m, err := newClientMetrics(reg)
		if err != nil {
			return nil, err
		}
		o.metrics = m
	}
	return o, nil
}

// finish records a completed call. Rejected filters are the caller's
// mistake: they log at info and count per reason code, not as failures.
func (o *observer) finish(op string, start time.Time, err error, attrs ...any) {
	if o == nil {
		return
	}
	dur := time.Since(start)
	codes := rejectionCodes(err)

	outcome := outcomeOK
	switch {
	case codes != nil:
		outcome = outcomeRejected
	case err != nil:
		outcome = outcomeFailed
	}

	if m := o.metrics; m != nil {
		m.calls.WithLabelValues(op, outcome).Inc()
		m.latency.WithLabelValues(op).Observe(dur.Seconds())
		for _, code := range codes {
			m.rejected.WithLabelValues(code).Inc()
		}
	}

	if o.logger == nil {
		return
	}
	attrs = append(attrs, "op", op, "duration", dur)
	switch outcome {
	case outcomeRejected:
		o.logger.Info("filters rejected", append(attrs, "codes", codes)...)
	case outcomeFailed:
		o.logger.Warn("call failed", append(attrs, "error", err)...)
	default:
		o.logger.Debug("call completed", attrs...)
	}
}

func (o *observer) matched(op string, n int) {
	if o == nil || o.metrics == nil {
		return
	}
	o.metrics.matches.WithLabelValues(op).Observe(float64(n))
}

func (o *observer) exported(e Export) {
	if o == nil || o.metrics == nil {
		return
	}
	o.metrics.exportLen.WithLabelValues(string(e.Format)).Observe(float64(len(e.Data)))
}
