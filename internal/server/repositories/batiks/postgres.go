package batiks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/minangbatik/batikhub/internal/common"
	"github.com/minangbatik/batikhub/internal/dbx"
	"github.com/minangbatik/batikhub/internal/server/models"
)

const selectColumns = `id, user_id, filename, path, original_name, is_minangkabau_batik,
		batik_name, description, origin, created_at, updated_at`

// PostgresRepository implements entry storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBatik(s scanner) (*models.Batik, error) {
	var b models.Batik
	if err := s.Scan(
		&b.ID, &b.UserID, &b.Filename, &b.Path, &b.OriginalName, &b.IsMinangkabauBatik,
		&b.BatikName, &b.Description, &b.Origin, &b.CreatedAt, &b.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *PostgresRepository) Create(ctx context.Context, batik *models.Batik) (*models.Batik, error) {
	query := `
		INSERT INTO batiks (user_id, filename, path, original_name, is_minangkabau_batik,
			batik_name, description, origin)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		batik.UserID, batik.Filename, batik.Path, batik.OriginalName, batik.IsMinangkabauBatik,
		batik.BatikName, batik.Description, batik.Origin,
	).Scan(&batik.ID, &batik.CreatedAt, &batik.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return batik, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Batik, error) {
	query := `SELECT ` + selectColumns + `
		FROM batiks
		WHERE id = $1
	`
	b, err := scanBatik(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return b, nil
}

func (r *PostgresRepository) GetByIDAndOwner(ctx context.Context, id, userID int64) (*models.Batik, error) {
	query := `SELECT ` + selectColumns + `
		FROM batiks
		WHERE id = $1 AND user_id = $2
	`
	b, err := scanBatik(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return b, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.Batik, error) {
	query := `SELECT ` + selectColumns + `
		FROM batiks
		ORDER BY created_at DESC, id DESC
	`
	return r.selectMany(ctx, query)
}

func (r *PostgresRepository) ListByOwner(ctx context.Context, userID int64) ([]*models.Batik, error) {
	query := `SELECT ` + selectColumns + `
		FROM batiks
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`
	return r.selectMany(ctx, query, userID)
}

func (r *PostgresRepository) selectMany(ctx context.Context, query string, args ...any) ([]*models.Batik, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select batiks: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Batik, 0)
	for rows.Next() {
		b, err := scanBatik(rows)
		if err != nil {
			return nil, fmt.Errorf("scan batik: %w", err)
		}
		result = append(result, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate batiks: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Update(ctx context.Context, batik *models.Batik) error {
	query := `
		UPDATE batiks SET
			filename = $1,
			path = $2,
			original_name = $3,
			is_minangkabau_batik = $4,
			batik_name = $5,
			description = $6,
			origin = $7,
			updated_at = NOW()
		WHERE id = $8
		RETURNING updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		batik.Filename, batik.Path, batik.OriginalName, batik.IsMinangkabauBatik,
		batik.BatikName, batik.Description, batik.Origin, batik.ID,
	).Scan(&batik.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	query := `
		DELETE FROM batiks
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) DeleteByOwner(ctx context.Context, userID int64) (int64, error) {
	query := `
		DELETE FROM batiks
		WHERE user_id = $1
	`
	res, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}
