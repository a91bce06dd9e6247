package repomanager

import (
	"context"
	"database/sql"

	"github.com/encryptshare/encryptshare/internal/dbx"
	"github.com/encryptshare/encryptshare/internal/server/repositories/transfers"
)

// RepositoryManager vends repository implementations bound to a DBTX, so
// services can run repository calls either directly or inside a
// transaction, and exposes a schema migration hook.
type RepositoryManager interface {
	Transfers(db dbx.DBTX) transfers.Repository
	RunMigrations(ctx context.Context, db *sql.DB) error
}
