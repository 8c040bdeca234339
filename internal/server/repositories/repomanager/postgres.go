// Package repomanager provides a concrete RepositoryManager for PostgreSQL,
// wiring together repository constructors and database migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/minangbatik/batikhub/internal/dbx"
	"github.com/minangbatik/batikhub/internal/server/migrations"
	"github.com/minangbatik/batikhub/internal/server/repositories/accesstokens"
	"github.com/minangbatik/batikhub/internal/server/repositories/batiks"
	"github.com/minangbatik/batikhub/internal/server/repositories/comments"
	"github.com/minangbatik/batikhub/internal/server/repositories/users"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repository implementations
// and exposes a schema migration hook.
type PostgresRepositoryManager struct{}

// Users returns a users.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

// AccessTokens returns an accesstokens.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) AccessTokens(db dbx.DBTX) accesstokens.Repository {
	return accesstokens.NewPostgresRepository(db)
}

// Batiks returns a batiks.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Batiks(db dbx.DBTX) batiks.Repository {
	return batiks.NewPostgresRepository(db)
}

// Comments returns a comments.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Comments(db dbx.DBTX) comments.Repository {
	return comments.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the provided database connection.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return err
	}
	return nil
}

// NewPostgresRepositoryManager constructs a PostgreSQL-backed RepositoryManager.
func NewPostgresRepositoryManager() RepositoryManager {
	return &PostgresRepositoryManager{}
}
