package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/kmlfilter/internal/domain"
	"github.com/kailas-cloud/kmlfilter/internal/kml"
)

// --- Mocks ---

type mockLoader struct {
	docs []*kml.Document
	errs []error
	call int
}

func (m *mockLoader) Load(_ context.Context) (*kml.Document, error) {
	i := m.call
	m.call++
	if i < len(m.errs) && m.errs[i] != nil {
		return nil, m.errs[i]
	}
	return m.docs[i], nil
}

func doc(names ...string) *kml.Document {
	pms := make([]*kml.Placemark, len(names))
	for i, n := range names {
		pms[i] = kml.NewPlacemark(n, "", nil)
	}
	return kml.NewDocument("test", pms...)
}

// --- Tests ---

func TestNewHolder_InitialLoad(t *testing.T) {
	d := doc("a", "b")
	h, err := NewHolder(context.Background(), &mockLoader{docs: []*kml.Document{d}}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewHolder: %v", err)
	}
	if h.Document() != d {
		t.Error("expected the loaded document")
	}
}

func TestNewHolder_LoadErrorIsReturned(t *testing.T) {
	loadErr := errors.New("boom")
	_, err := NewHolder(context.Background(), &mockLoader{errs: []error{loadErr}}, nil)
	if !errors.Is(err, loadErr) {
		t.Fatalf("expected wrapped load error, got %v", err)
	}
}

func TestNewHolder_NilLoader(t *testing.T) {
	if _, err := NewHolder(context.Background(), nil, nil); err == nil {
		t.Fatal("expected error")
	}
}

func TestReload_SwapsOnSuccess(t *testing.T) {
	first, second := doc("a"), doc("a", "b")
	h, err := NewHolder(context.Background(), &mockLoader{docs: []*kml.Document{first, second}}, nil)
	if err != nil {
		t.Fatal(err)
	}

	if err := h.Reload(context.Background()); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if h.Document() != second {
		t.Error("expected the reloaded document")
	}
	if first.Len() != 1 {
		t.Error("previous document must not be mutated")
	}
}

func TestReload_KeepsPreviousOnFailure(t *testing.T) {
	first := doc("a")
	h, err := NewHolder(context.Background(), &mockLoader{
		docs: []*kml.Document{first, nil},
		errs: []error{nil, errors.New("parse failed")},
	}, nil)
	if err != nil {
		t.Fatal(err)
	}

	if err := h.Reload(context.Background()); err == nil {
		t.Fatal("expected reload error")
	}
	if h.Document() != first {
		t.Error("previous document should keep serving")
	}
}

func TestReload_WithoutLoader(t *testing.T) {
	h := NewHolderFromDocument(doc("a"))
	if err := h.Reload(context.Background()); !errors.Is(err, domain.ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}
	if h.Document().Len() != 1 {
		t.Error("document lost")
	}
}

func TestNewHolderFromDocument_Nil(t *testing.T) {
	if NewHolderFromDocument(nil).Document().Len() != 0 {
		t.Error("expected empty document")
	}
}

func TestHolder_ConcurrentReadsDuringReload(t *testing.T) {
	docs := make([]*kml.Document, 51)
	for i := range docs {
		docs[i] = doc("a")
	}
	h, err := NewHolder(context.Background(), &mockLoader{docs: docs}, nil)
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 200 {
				if h.Document() == nil {
					t.Error("nil document observed")
					return
				}
			}
		}()
	}
	for range 50 {
		if err := h.Reload(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	wg.Wait()
}

func TestFileLoader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "points.kml")
	src := `<kml><Document><Placemark><name>A</name></Placemark></Document></kml>`
	if err := os.WriteFile(path, []byte(src), 0o600); err != nil {
		t.Fatal(err)
	}

	d, err := FileLoader{Path: path}.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if d.Len() != 1 {
		t.Errorf("Len() = %d", d.Len())
	}
}

func TestFileLoader_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := FileLoader{Path: filepath.Join(dir, "missing.kml")}.Load(context.Background())
	if !errors.Is(err, domain.ErrSourceUnavailable) {
		t.Errorf("missing file: expected ErrSourceUnavailable, got %v", err)
	}

	bad := filepath.Join(dir, "bad.kml")
	if err := os.WriteFile(bad, []byte("<gpx/>"), 0o600); err != nil {
		t.Fatal(err)
	}
	_, err = FileLoader{Path: bad}.Load(context.Background())
	var pe *kml.ParseError
	if !errors.As(err, &pe) {
		t.Errorf("bad file: expected *kml.ParseError, got %v", err)
	}
}
