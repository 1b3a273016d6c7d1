package exportstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/kmlfilter/internal/db"
	"github.com/kailas-cloud/kmlfilter/internal/domain"
	domexport "github.com/kailas-cloud/kmlfilter/internal/domain/export"
)

var keyPrefix = domain.KeyPrefix + "export:"

// store is the consumer interface for export storage (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// record is the stored envelope. Data is base64 in JSON.
type record struct {
	Format    domexport.Format `json:"format"`
	Count     int              `json:"count"`
	CreatedAt time.Time        `json:"created_at"`
	Data      []byte           `json:"data"`
}

// Store keeps rendered exports under random ids for a fixed TTL.
type Store struct {
	store store
	ttl   time.Duration
	now   func() time.Time
	newID func() string
}

// New creates an export store.
func New(s store, ttl time.Duration) *Store {
	return &Store{
		store: s,
		ttl:   ttl,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// TTL returns how long stored exports stay downloadable.
func (s *Store) TTL() time.Duration { return s.ttl }

// Save stores a under a fresh id.
func (s *Store) Save(ctx context.Context, a domexport.Artifact) (domexport.Handle, error) {
	id := s.newID()
	now := s.now()

	payload, err := json.Marshal(record{Format: a.Format, Count: a.Count, CreatedAt: now, Data: a.Data})
	if err != nil {
		return domexport.Handle{}, fmt.Errorf("export marshal: %w", err)
	}
	if err := s.store.SetWithTTL(ctx, keyPrefix+id, payload, s.ttl); err != nil {
		return domexport.Handle{}, fmt.Errorf("export SET %s: %w", id, err)
	}

	return domexport.Handle{
		ID:        id,
		Format:    a.Format,
		Count:     a.Count,
		ExpiresAt: now.Add(s.ttl),
	}, nil
}

// Get returns the artifact stored under id. Malformed ids, unknown ids and
// expired exports all wrap domain.ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (domexport.Artifact, error) {
	if err := uuid.Validate(id); err != nil {
		return domexport.Artifact{}, fmt.Errorf("export %q: %w", id, domain.ErrNotFound)
	}

	data, err := s.store.Get(ctx, keyPrefix+id)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domexport.Artifact{}, fmt.Errorf("export %s: %w", id, domain.ErrExportExpired)
		}
		return domexport.Artifact{}, fmt.Errorf("export GET %s: %w", id, err)
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return domexport.Artifact{}, fmt.Errorf("export GET %s decode: %w", id, err)
	}
	return domexport.Artifact{Format: rec.Format, Data: rec.Data, Count: rec.Count}, nil
}

// Delete removes a stored export. Unknown ids are not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := uuid.Validate(id); err != nil {
		return fmt.Errorf("export %q: %w", id, domain.ErrNotFound)
	}
	if err := s.store.Del(ctx, keyPrefix+id); err != nil {
		return fmt.Errorf("export DEL %s: %w", id, err)
	}
	return nil
}
