// Package transfers implements the transfer metadata store over PostgreSQL.
package transfers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/encryptshare/encryptshare/internal/common"
	"github.com/encryptshare/encryptshare/internal/dbx"
	"github.com/encryptshare/encryptshare/internal/server/models"
)

// PostgresRepository implements Repository over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, t *models.Transfer) error {
	query := `
		INSERT INTO transfers (id, owner_id, storage_key, display_name, extension, verifier, size, created_at, expires_at, state)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	res, err := r.db.ExecContext(ctx, query,
		t.ID, t.OwnerID, t.StorageKey, t.DisplayName, t.Extension, t.Verifier, t.Size,
		t.CreatedAt, t.ExpiresAt, string(t.State))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Transfer, error) {
	query := `
		SELECT id, owner_id, storage_key, display_name, extension, verifier, size, created_at, expires_at, state, terminal_at
		FROM transfers WHERE id=$1
	`
	t, err := scanTransfer(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("failed to select transfer: %w", err)
	}
	return t, nil
}

func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.Transfer, error) {
	query := `
		SELECT id, owner_id, storage_key, display_name, extension, verifier, size, created_at, expires_at, state, terminal_at
		FROM transfers WHERE owner_id=$1 ORDER BY created_at DESC
	`
	return r.selectMany(ctx, query, ownerID)
}

func (r *PostgresRepository) SelectOverdue(ctx context.Context, now time.Time) ([]*models.Transfer, error) {
	query := `
		SELECT id, owner_id, storage_key, display_name, extension, verifier, size, created_at, expires_at, state, terminal_at
		FROM transfers WHERE state='live' AND expires_at IS NOT NULL AND expires_at<=$1
	`
	return r.selectMany(ctx, query, now)
}

// Finish is the single-winner transition out of the live state. The WHERE
// clause makes it a conditional update: once a record is terminal, every
// further Finish affects zero rows and reports ErrAlreadyFinished.
func (r *PostgresRepository) Finish(ctx context.Context, id string, state models.TransferState, terminalAt time.Time) error {
	if !state.Terminal() {
		return fmt.Errorf("state %q is not terminal", state)
	}
	query := `UPDATE transfers SET state=$1, terminal_at=$2 WHERE id=$3 AND state='live'`
	res, err := r.db.ExecContext(ctx, query, string(state), terminalAt, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrAlreadyFinished
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}

func (r *PostgresRepository) selectMany(ctx context.Context, query string, args ...any) ([]*models.Transfer, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select transfers: %w", err)
	}
	defer rows.Close()

	var result []*models.Transfer
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransfer(row rowScanner) (*models.Transfer, error) {
	var (
		t          models.Transfer
		state      string
		expiresAt  sql.NullTime
		terminalAt sql.NullTime
	)
	if err := row.Scan(&t.ID, &t.OwnerID, &t.StorageKey, &t.DisplayName, &t.Extension,
		&t.Verifier, &t.Size, &t.CreatedAt, &expiresAt, &state, &terminalAt); err != nil {
		return nil, err
	}
	t.State = models.TransferState(state)
	if expiresAt.Valid {
		t.ExpiresAt = &expiresAt.Time
	}
	if terminalAt.Valid {
		t.TerminalAt = &terminalAt.Time
	}
	return &t, nil
}
