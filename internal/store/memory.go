package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jeefy/llmmoe/internal/models"
)

// memoryStore is the in-memory implementation of Store used for testing and
// local development.
type memoryStore struct {
	mu      sync.RWMutex
	records map[int64]*models.ResponseRecord
	ids     []int64
	nextID  int64
}

// NewMemory returns a Store that keeps records in process memory.
func NewMemory() Store {
	return &memoryStore{
		records: make(map[int64]*models.ResponseRecord),
		ids:     []int64{},
		nextID:  1,
	}
}

func (s *memoryStore) Init(ctx context.Context) error { return nil }

func (s *memoryStore) InsertResponse(ctx context.Context, r *models.ResponseRecord) (int64, error) {
	if r == nil {
		return 0, errors.New("nil record")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	r.ID = id
	r.Timestamp = time.Now().UTC()
	s.records[id] = cloneRecord(r)
	s.ids = append(s.ids, id)
	return id, nil
}

func (s *memoryStore) GetResponse(ctx context.Context, id int64) (*models.ResponseRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneRecord(r), nil
}

func (s *memoryStore) ListResponses(ctx context.Context, limit int) ([]*models.ResponseRecord, error) {
	limit = clampLimit(limit)
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.ResponseRecord, 0, limit)
	for i := len(s.ids) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, cloneRecord(s.records[s.ids[i]]))
	}
	return out, nil
}

func (s *memoryStore) Close() error { return nil }

func cloneRecord(r *models.ResponseRecord) *models.ResponseRecord {
	if r == nil {
		return nil
	}
	copy := *r
	copy.Expert1Response = cloneText(r.Expert1Response)
	copy.Expert2Response = cloneText(r.Expert2Response)
	copy.Expert3Response = cloneText(r.Expert3Response)
	return &copy
}

func cloneText(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
