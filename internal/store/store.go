package store

import (
	"context"
	"errors"

	"github.com/jeefy/llmmoe/internal/models"
)

// ErrNotFound is returned when a record id does not exist.
var ErrNotFound = errors.New("not found")

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// Store is the persistence contract for response records. Records are only
// ever inserted; nothing in this service updates or deletes them.
type Store interface {
	// Init creates the storage location and schema. It is idempotent.
	Init(ctx context.Context) error
	// InsertResponse stores r in a single atomic insert and fills in the
	// store-owned ID and Timestamp fields.
	InsertResponse(ctx context.Context, r *models.ResponseRecord) (int64, error)
	GetResponse(ctx context.Context, id int64) (*models.ResponseRecord, error)
	// ListResponses returns the newest records first.
	ListResponses(ctx context.Context, limit int) ([]*models.ResponseRecord, error)
	Close() error
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}
