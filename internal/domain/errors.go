package domain

import "errors"

var (
	// ErrValidation signals a filter value rejected by validation.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound signals a missing resource, such as an expired export.
	ErrNotFound = errors.New("not found")
	// ErrExportExpired is returned for export handles past their TTL.
	// Stores cannot tell expired from unknown, so it matches ErrNotFound.
	ErrExportExpired = ErrNotFound
	// ErrUnsupportedFormat signals an unknown export format.
	ErrUnsupportedFormat = errors.New("unsupported export format")
	// ErrSourceUnavailable signals that the placemark source could not be read.
	ErrSourceUnavailable = errors.New("placemark source unavailable")
)
