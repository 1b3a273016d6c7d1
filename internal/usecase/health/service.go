package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded means queries work but stored exports do not.
	Degraded Status = "degraded"
	// Unhealthy means no document is being served.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	CheckOK    CheckResult = "ok"
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status     Status
	Checks     map[string]CheckResult
	Placemarks int
}

// Service coordinates health checks.
type Service struct {
	source DocumentSource
	store  StorePinger
}

// New creates a Service. store can be nil when exports are not stored.
func New(source DocumentSource, store StorePinger) *Service {
	return &Service{source: source, store: store}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)
	var placemarks int

	if doc := s.source.Document(); doc != nil {
		checks["source"] = CheckOK
		placemarks = doc.Len()
	} else {
		checks["source"] = CheckError
	}

	if s.store != nil {
		if err := s.store.Ping(ctx); err != nil {
			checks["export_store"] = CheckError
		} else {
			checks["export_store"] = CheckOK
		}
	}

	status := Healthy
	switch {
	case checks["source"] == CheckError:
		status = Unhealthy
	case checks["export_store"] == CheckError:
		status = Degraded
	}

	return Report{Status: status, Checks: checks, Placemarks: placemarks}
}
