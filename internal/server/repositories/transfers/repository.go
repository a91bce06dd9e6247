package transfers

import (
	"context"
	"time"

	"github.com/encryptshare/encryptshare/internal/server/models"
)

// Repository is the metadata-store surface for transfer records. Records
// are never deleted: terminal transfers stay around for history listing,
// only the referenced ciphertext object is removed.
type Repository interface {
	// Create persists a new record with state=live.
	Create(ctx context.Context, t *models.Transfer) error

	// GetByID returns the record or common.ErrNotFound.
	GetByID(ctx context.Context, id string) (*models.Transfer, error)

	// ListByOwner returns all records for the owner, newest first,
	// terminal ones included.
	ListByOwner(ctx context.Context, ownerID string) ([]*models.Transfer, error)

	// SelectOverdue returns live records whose deadline is at or before now.
	SelectOverdue(ctx context.Context, now time.Time) ([]*models.Transfer, error)

	// Finish conditionally moves a live record into the given terminal
	// state, setting terminal_at. The update is keyed on state='live', so
	// exactly one concurrent caller can win; losers get
	// common.ErrAlreadyFinished.
	Finish(ctx context.Context, id string, state models.TransferState, terminalAt time.Time) error
}
