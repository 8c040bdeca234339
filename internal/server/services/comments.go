package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/minangbatik/batikhub/internal/common"
	"github.com/minangbatik/batikhub/internal/logging"
	"github.com/minangbatik/batikhub/internal/server/models"
	"github.com/minangbatik/batikhub/internal/server/repositories/repomanager"
)

// MaxCommentLength bounds comment content, in characters.
const MaxCommentLength = 1000

// CommentService attaches comments to entries. Only the author may remove one.
type CommentService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	log         logging.Logger
}

func NewCommentService(db *sql.DB, m repomanager.RepositoryManager, log logging.Logger) *CommentService {
	return &CommentService{db: db, repomanager: m, log: log.With("module", "comments")}
}

func (s *CommentService) Add(ctx context.Context, caller *Caller, batikID int64, content string) (*models.Comment, error) {
	content = strings.TrimSpace(content)

	v := common.NewValidationError()
	switch {
	case content == "":
		v.Add("content", "The content field is required.")
	case utf8.RuneCountInString(content) > MaxCommentLength:
		v.Add("content", fmt.Sprintf("The content must not be greater than %d characters.", MaxCommentLength))
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}
	if caller == nil {
		return nil, common.ErrorUnauthorized
	}

	if err := s.ensureBatik(ctx, "add_comment", batikID); err != nil {
		return nil, err
	}

	comment, err := s.repomanager.Comments(s.db).Create(ctx, &models.Comment{
		BatikID: batikID,
		UserID:  caller.UserID,
		Content: content,
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
		s.log.Error(ctx, "comment insert failed", "op", "add_comment", "batik_id", batikID, "error", err)
		return nil, storageError("add comment", err)
	}
	comment.Author = &models.User{ID: caller.UserID, Name: caller.Name, Email: caller.Email}
	return comment, nil
}

// List returns the comments of an entry, oldest first.
func (s *CommentService) List(ctx context.Context, batikID int64) ([]*models.Comment, error) {
	if err := s.ensureBatik(ctx, "list_comments", batikID); err != nil {
		return nil, err
	}
	list, err := s.repomanager.Comments(s.db).ListByBatik(ctx, batikID)
	if err != nil {
		s.log.Error(ctx, "comment list failed", "op", "list_comments", "batik_id", batikID, "error", err)
		return nil, storageError("list comments", err)
	}
	return list, nil
}

func (s *CommentService) Remove(ctx context.Context, caller *Caller, commentID int64) error {
	if caller == nil {
		return common.ErrorUnauthorized
	}
	repo := s.repomanager.Comments(s.db)

	comment, err := repo.GetByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return err
		}
		s.log.Error(ctx, "comment lookup failed", "op", "remove_comment", "id", commentID, "error", err)
		return storageError("remove comment", err)
	}
	if comment.UserID != caller.UserID {
		return common.ErrorForbidden
	}

	if err := repo.Delete(ctx, commentID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return err
		}
		s.log.Error(ctx, "comment delete failed", "op", "remove_comment", "id", commentID, "error", err)
		return storageError("remove comment", err)
	}
	return nil
}

func (s *CommentService) ensureBatik(ctx context.Context, op string, batikID int64) error {
	if _, err := s.repomanager.Batiks(s.db).GetByID(ctx, batikID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return err
		}
		s.log.Error(ctx, "batik lookup failed", "op", op, "batik_id", batikID, "error", err)
		return storageError(op, err)
	}
	return nil
}
