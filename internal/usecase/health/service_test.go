package health

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/kmlfilter/internal/kml"
)

// --- Mocks ---

type mockSource struct {
	doc *kml.Document
}

func (m *mockSource) Document() *kml.Document { return m.doc }

type mockStorePinger struct {
	err error
}

func (m *mockStorePinger) Ping(_ context.Context) error { return m.err }

func loaded() *mockSource {
	return &mockSource{doc: kml.NewDocument("d", kml.NewPlacemark("a", "", nil), kml.NewPlacemark("b", "", nil))}
}

// --- Tests ---

func TestCheck_AllHealthy(t *testing.T) {
	svc := New(loaded(), &mockStorePinger{})
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if r.Checks["source"] != CheckOK {
		t.Errorf("expected source %q, got %q", CheckOK, r.Checks["source"])
	}
	if r.Checks["export_store"] != CheckOK {
		t.Errorf("expected export_store %q, got %q", CheckOK, r.Checks["export_store"])
	}
	if r.Placemarks != 2 {
		t.Errorf("expected 2 placemarks, got %d", r.Placemarks)
	}
}

func TestCheck_StoreError(t *testing.T) {
	svc := New(loaded(), &mockStorePinger{err: errors.New("conn refused")})
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["export_store"] != CheckError {
		t.Errorf("expected export_store %q, got %q", CheckError, r.Checks["export_store"])
	}
}

func TestCheck_NoDocument(t *testing.T) {
	svc := New(&mockSource{}, &mockStorePinger{err: errors.New("down")})
	r := svc.Check(context.Background())

	if r.Status != Unhealthy {
		t.Errorf("expected %q, got %q", Unhealthy, r.Status)
	}
}

func TestCheck_NoStore(t *testing.T) {
	svc := New(loaded(), nil)
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if _, ok := r.Checks["export_store"]; ok {
		t.Error("export_store should not be reported without a store")
	}
}
