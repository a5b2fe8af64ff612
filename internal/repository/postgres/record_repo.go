package postgres

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/and161185/stickercache/internal/errs"
	"github.com/and161185/stickercache/internal/model"
	"github.com/and161185/stickercache/internal/repository"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/blake2b"
)

// RecordRepo implements RecordRepository using PostgreSQL.
type RecordRepo struct{ db *DB }

var _ repository.RecordRepository = (*RecordRepo)(nil)

// NewRecordRepo constructs a record repository.
func NewRecordRepo(db *DB) *RecordRepo { return &RecordRepo{db: db} }

// Digest is the integrity checksum stored next to every blob.
func Digest(blob []byte) []byte {
	sum := blake2b.Sum256(blob)
	return sum[:]
}

// Put creates or overwrites a record, bumping its version.
func (r *RecordRepo) Put(
	ctx context.Context, accountID uuid.UUID, key string, blob []byte,
) (ver int64, err error) {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = e
		}
	}()

	const sel = `SELECT ver FROM cache_records WHERE account_id=$1 AND key=$2 FOR UPDATE`
	const ins = `INSERT INTO cache_records (account_id, key, blob, digest, ver) VALUES ($1,$2,$3,$4,$5)`
	const upd = `UPDATE cache_records SET blob=$3, digest=$4, ver=$5, updated_at=now() WHERE account_id=$1 AND key=$2`

	digest := Digest(blob)
	var curVer int64
	scanErr := tx.QueryRow(ctx, sel, accountID, key).Scan(&curVer)
	switch {
	case scanErr == nil:
		ver = curVer + 1
		if _, err = tx.Exec(ctx, upd, accountID, key, blob, digest, ver); err != nil {
			return 0, err
		}
	case errors.Is(scanErr, pgx.ErrNoRows):
		ver = 1
		if _, err = tx.Exec(ctx, ins, accountID, key, blob, digest, ver); err != nil {
			if isUniqueViolation(err) {
				err = fmt.Errorf("put %s: %w", key, errs.ErrVersionConflict)
			}
			return 0, err
		}
	default:
		err = scanErr
		return 0, err
	}
	return ver, nil
}

// Get loads a record and verifies its digest.
func (r *RecordRepo) Get(ctx context.Context, accountID uuid.UUID, key string) (*model.Record, error) {
	const q = `
SELECT blob, digest, ver, updated_at
FROM cache_records WHERE account_id=$1 AND key=$2`
	rec := model.Record{AccountID: accountID, Key: key}
	var digest []byte
	row := r.db.Pool.QueryRow(ctx, q, accountID, key)
	if err := row.Scan(&rec.Blob, &digest, &rec.Ver, &rec.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get %s: %w", key, errs.ErrNotFound)
		}
		return nil, err
	}
	if !bytes.Equal(digest, Digest(rec.Blob)) {
		return nil, fmt.Errorf("get %s: %w", key, errs.ErrCorruptRecord)
	}
	return &rec, nil
}

// Delete removes a record.
func (r *RecordRepo) Delete(ctx context.Context, accountID uuid.UUID, key string) error {
	const q = `DELETE FROM cache_records WHERE account_id=$1 AND key=$2`
	tag, err := r.db.Pool.Exec(ctx, q, accountID, key)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete %s: %w", key, errs.ErrNotFound)
	}
	return nil
}

// ListKeys returns keys starting with prefix in ascending order.
func (r *RecordRepo) ListKeys(ctx context.Context, accountID uuid.UUID, prefix string) ([]string, error) {
	const q = `
SELECT key FROM cache_records
WHERE account_id=$1 AND starts_with(key, $2)
ORDER BY key ASC`
	rows, err := r.db.Pool.Query(ctx, q, accountID, prefix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var k string
		if err = rows.Scan(&k); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}
