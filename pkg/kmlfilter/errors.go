package kmlfilter

import "github.com/kailas-cloud/kmlfilter/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrValidation        = domain.ErrValidation
	ErrUnsupportedFormat = domain.ErrUnsupportedFormat
	ErrSourceUnavailable = domain.ErrSourceUnavailable
)
