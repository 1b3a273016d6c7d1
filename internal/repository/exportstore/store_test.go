package exportstore

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/kmlfilter/internal/db"
	"github.com/kailas-cloud/kmlfilter/internal/db/memory"
	"github.com/kailas-cloud/kmlfilter/internal/domain"
	domexport "github.com/kailas-cloud/kmlfilter/internal/domain/export"
)

// --- Mocks ---

type mockKVStore struct {
	getFn func(ctx context.Context, key string) ([]byte, error)
	setFn func(ctx context.Context, key string, value []byte, ttl time.Duration) error
	delFn func(ctx context.Context, key string) error
}

func (m *mockKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockKVStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value, ttl)
	}
	return nil
}

func (m *mockKVStore) Del(ctx context.Context, key string) error {
	if m.delFn != nil {
		return m.delFn(ctx, key)
	}
	return nil
}

var artifact = domexport.Artifact{Format: domexport.KMZ, Data: []byte{0x50, 0x4b, 0x03, 0x04}, Count: 7}

// --- Tests ---

func TestSaveGet_RoundTrip(t *testing.T) {
	s := New(memory.NewStore(0), time.Hour)
	ctx := context.Background()

	before := time.Now()
	h, err := s.Save(ctx, artifact)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := uuid.Validate(h.ID); err != nil {
		t.Errorf("id %q is not a uuid", h.ID)
	}
	if h.Format != domexport.KMZ || h.Count != 7 {
		t.Errorf("handle = %+v", h)
	}
	if h.ExpiresAt.Before(before.Add(time.Hour)) {
		t.Errorf("expiresAt %v earlier than ttl", h.ExpiresAt)
	}

	got, err := s.Get(ctx, h.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Format != artifact.Format || got.Count != artifact.Count || string(got.Data) != string(artifact.Data) {
		t.Errorf("got %+v", got)
	}
}

func TestSave_UniqueIDs(t *testing.T) {
	s := New(memory.NewStore(0), time.Hour)
	seen := map[string]bool{}
	for range 20 {
		h, err := s.Save(context.Background(), artifact)
		if err != nil {
			t.Fatal(err)
		}
		if seen[h.ID] {
			t.Fatalf("duplicate id %s", h.ID)
		}
		seen[h.ID] = true
	}
}

func TestSave_PassesTTLAndPrefix(t *testing.T) {
	var gotKey string
	var gotTTL time.Duration
	s := New(&mockKVStore{setFn: func(_ context.Context, key string, _ []byte, ttl time.Duration) error {
		gotKey, gotTTL = key, ttl
		return nil
	}}, 15*time.Minute)

	h, err := s.Save(context.Background(), artifact)
	if err != nil {
		t.Fatal(err)
	}
	if gotKey != "kmlfilter:export:"+h.ID {
		t.Errorf("key = %q", gotKey)
	}
	if gotTTL != 15*time.Minute {
		t.Errorf("ttl = %v", gotTTL)
	}
}

func TestSave_StoreError(t *testing.T) {
	storeErr := errors.New("connection reset")
	s := New(&mockKVStore{setFn: func(context.Context, string, []byte, time.Duration) error {
		return storeErr
	}}, time.Hour)

	if _, err := s.Save(context.Background(), artifact); !errors.Is(err, storeErr) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestGet_NotFound(t *testing.T) {
	s := New(&mockKVStore{}, time.Hour)

	tests := []struct {
		name string
		id   string
	}{
		{"malformed id", "../../etc/passwd"},
		{"unknown id", uuid.NewString()},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.Get(context.Background(), tc.id)
			if !errors.Is(err, domain.ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestGet_StoreErrorIsNotNotFound(t *testing.T) {
	s := New(&mockKVStore{getFn: func(context.Context, string) ([]byte, error) {
		return nil, &db.Error{Op: db.OpGet, Err: errors.New("timeout")}
	}}, time.Hour)

	_, err := s.Get(context.Background(), uuid.NewString())
	if err == nil || errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected opaque store error, got %v", err)
	}
}

func TestGet_CorruptPayload(t *testing.T) {
	s := New(&mockKVStore{getFn: func(context.Context, string) ([]byte, error) {
		return []byte("{not json"), nil
	}}, time.Hour)

	_, err := s.Get(context.Background(), uuid.NewString())
	if err == nil || !strings.Contains(err.Error(), "decode") {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestGet_Expired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mem := memory.NewStore(0).WithClock(func() time.Time { return now })
	s := New(mem, time.Minute)

	h, err := s.Save(context.Background(), artifact)
	if err != nil {
		t.Fatal(err)
	}
	now = now.Add(2 * time.Minute)

	if _, err := s.Get(context.Background(), h.ID); !errors.Is(err, domain.ErrExportExpired) {
		t.Fatalf("expected ErrExportExpired, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	s := New(memory.NewStore(0), time.Hour)
	ctx := context.Background()

	h, _ := s.Save(ctx, artifact)
	if err := s.Delete(ctx, h.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, h.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := s.Delete(ctx, "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("malformed id: expected ErrNotFound, got %v", err)
	}
}
