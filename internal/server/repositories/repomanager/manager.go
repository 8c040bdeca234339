package repomanager

import (
	"context"
	"database/sql"

	"github.com/minangbatik/batikhub/internal/dbx"
	"github.com/minangbatik/batikhub/internal/server/repositories/accesstokens"
	"github.com/minangbatik/batikhub/internal/server/repositories/batiks"
	"github.com/minangbatik/batikhub/internal/server/repositories/comments"
	"github.com/minangbatik/batikhub/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so one service call
// can run several of them inside a single transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	AccessTokens(db dbx.DBTX) accesstokens.Repository
	Batiks(db dbx.DBTX) batiks.Repository
	Comments(db dbx.DBTX) comments.Repository
}
