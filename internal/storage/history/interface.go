// internal/storage/history/interface.go
package history

import (
	"context"
	"time"

	"github.com/newthinker/relay/internal/core"
)

// Store defines the interface for completion history persistence.
type Store interface {
	// Save persists a completion record, assigning an ID if missing.
	Save(ctx context.Context, rec core.Record) error

	// GetByID retrieves a record by its ID.
	GetByID(ctx context.Context, id string) (*core.Record, error)

	// List retrieves records matching the filter, newest first.
	List(ctx context.Context, filter ListFilter) ([]core.Record, error)

	// Count returns the number of records matching the filter.
	Count(ctx context.Context, filter ListFilter) (int, error)
}

// ListFilter defines criteria for listing completion records.
type ListFilter struct {
	Vendor core.Vendor
	Model  string
	From   time.Time
	To     time.Time
	Limit  int
	Offset int
}
