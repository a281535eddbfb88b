// Package repomanager wires repository constructors together and exposes a
// schema migration hook, so services depend on one seam instead of four
// concrete repositories.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/stringshare/ordervault/internal/dbx"
	"github.com/stringshare/ordervault/internal/server/repositories/attachments"
	"github.com/stringshare/ordervault/internal/server/repositories/keys"
	"github.com/stringshare/ordervault/internal/server/repositories/orders"
	"github.com/stringshare/ordervault/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, which may be either
// the root *sql.DB or an open transaction.
type RepositoryManager interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Keys(db dbx.DBTX) keys.Repository
	Orders(db dbx.DBTX) orders.Repository
	Attachments(db dbx.DBTX) attachments.Repository
}
