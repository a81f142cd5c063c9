package repository

import (
	"context"

	"github.com/m-mizutani/digitnote/pkg/model"
)

// Repository is the per-user append-only record store
type Repository interface {
	// PutRecord appends a record. ID and CreatedAt are assigned by the store
	// and written back to the given record.
	PutRecord(ctx context.Context, record *model.Record) error

	// ListRecords returns the owner's records, newest Timestamp first
	ListRecords(ctx context.Context, ownerID string) ([]*model.Record, error)
}
