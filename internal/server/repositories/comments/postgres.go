package comments

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/minangbatik/batikhub/internal/common"
	"github.com/minangbatik/batikhub/internal/dbx"
	"github.com/minangbatik/batikhub/internal/server/models"
)

// foreignKeyViolation is the PostgreSQL SQLSTATE for foreign_key_violation.
const foreignKeyViolation = "23503"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, comment *models.Comment) (*models.Comment, error) {
	query := `
		INSERT INTO comments (batik_id, user_id, content)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query, comment.BatikID, comment.UserID, comment.Content).
		Scan(&comment.ID, &comment.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return comment, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Comment, error) {
	query := `
		SELECT id, batik_id, user_id, content, created_at
		FROM comments
		WHERE id = $1
	`
	c := &models.Comment{}
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&c.ID, &c.BatikID, &c.UserID, &c.Content, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) ListByBatik(ctx context.Context, batikID int64) ([]*models.Comment, error) {
	query := `
		SELECT c.id, c.batik_id, c.user_id, c.content, c.created_at, u.name, u.email
		FROM comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.batik_id = $1
		ORDER BY c.created_at, c.id
	`
	rows, err := r.db.QueryContext(ctx, query, batikID)
	if err != nil {
		return nil, fmt.Errorf("failed to select comments: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Comment, 0)
	for rows.Next() {
		c := &models.Comment{Author: &models.User{}}
		if err := rows.Scan(&c.ID, &c.BatikID, &c.UserID, &c.Content, &c.CreatedAt,
			&c.Author.Name, &c.Author.Email); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		c.Author.ID = c.UserID
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	query := `
		DELETE FROM comments
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
