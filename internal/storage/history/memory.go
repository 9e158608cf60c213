// internal/storage/history/memory.go
package history

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/newthinker/relay/internal/core"
)

// MemoryStore is an in-memory completion history with bounded capacity.
type MemoryStore struct {
	records []core.Record
	maxSize int
	mu      sync.RWMutex
}

// NewMemoryStore creates a new in-memory store with max capacity.
func NewMemoryStore(maxSize int) *MemoryStore {
	if maxSize <= 0 {
		maxSize = 1000
	}
	return &MemoryStore{
		records: make([]core.Record, 0, maxSize),
		maxSize: maxSize,
	}
}

// Save adds a record to the store.
func (m *MemoryStore) Save(ctx context.Context, rec core.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if rec.ID == "" {
		rec.ID = "cmpl_" + uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	m.records = append(m.records, rec)

	// Trim if over capacity (remove oldest)
	if len(m.records) > m.maxSize {
		m.records = m.records[len(m.records)-m.maxSize:]
	}

	return nil
}

// GetByID retrieves a record by ID.
func (m *MemoryStore) GetByID(ctx context.Context, id string) (*core.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := range m.records {
		if m.records[i].ID == id {
			rec := m.records[i]
			return &rec, nil
		}
	}
	return nil, core.ErrRecordNotFound
}

// List returns records matching the filter, newest first.
func (m *MemoryStore) List(ctx context.Context, filter ListFilter) ([]core.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []core.Record
	for i := len(m.records) - 1; i >= 0; i-- {
		if m.matches(m.records[i], filter) {
			result = append(result, m.records[i])
		}
	}

	// Apply offset and limit
	if filter.Offset > 0 && filter.Offset < len(result) {
		result = result[filter.Offset:]
	} else if filter.Offset >= len(result) && filter.Offset > 0 {
		return []core.Record{}, nil
	}

	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}

	return result, nil
}

// Count returns the count of matching records.
func (m *MemoryStore) Count(ctx context.Context, filter ListFilter) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, rec := range m.records {
		if m.matches(rec, filter) {
			count++
		}
	}
	return count, nil
}

func (m *MemoryStore) matches(rec core.Record, filter ListFilter) bool {
	if filter.Vendor != "" && rec.Vendor != filter.Vendor {
		return false
	}
	if filter.Model != "" && rec.Model != filter.Model {
		return false
	}
	if !filter.From.IsZero() && rec.CreatedAt.Before(filter.From) {
		return false
	}
	if !filter.To.IsZero() && rec.CreatedAt.After(filter.To) {
		return false
	}
	return true
}
