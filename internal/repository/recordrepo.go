// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/and161185/stickercache/internal/model"
	"github.com/gofrs/uuid/v5"
)

// RecordRepository stores encoded cache records per account.
type RecordRepository interface {
	// Put writes blob under key and returns the record's new version.
	Put(ctx context.Context, accountID uuid.UUID, key string, blob []byte) (int64, error)

	// Get loads a record. It fails with ErrNotFound on a miss and with
	// ErrCorruptRecord when the stored digest no longer matches the blob.
	Get(ctx context.Context, accountID uuid.UUID, key string) (*model.Record, error)

	// Delete removes a record.
	Delete(ctx context.Context, accountID uuid.UUID, key string) error

	// ListKeys returns the account's keys starting with prefix, in order.
	ListKeys(ctx context.Context, accountID uuid.UUID, prefix string) ([]string, error)
}
