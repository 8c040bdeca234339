package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/minangbatik/batikhub/internal/common"
	"github.com/minangbatik/batikhub/internal/dbx"
	"github.com/minangbatik/batikhub/internal/logging"
	"github.com/minangbatik/batikhub/internal/server/auth"
	"github.com/minangbatik/batikhub/internal/server/config"
	"github.com/minangbatik/batikhub/internal/server/models"
	"github.com/minangbatik/batikhub/internal/server/repositories/repomanager"
)

const maxNameLength = 255

type RegisterInput struct {
	Name                 string
	Email                string
	Password             string
	PasswordConfirmation string
}

type LoginInput struct {
	Email    string
	Password string
}

// AuthResult is what register and login hand back to the client.
type AuthResult struct {
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
	User        *models.User
}

// UserService handles registration, login, logout and bearer token checks.
// Issued tokens are JWTs whose jti must have a live access_tokens row.
type UserService struct {
	db                          *sql.DB
	repomanager                 repomanager.RepositoryManager
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
	log                         logging.Logger
	now                         func() time.Time
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, log logging.Logger) *UserService {
	return &UserService{
		db:                          db,
		repomanager:                 m,
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
		log:                         log.With("module", "users"),
		now:                         time.Now,
	}
}

// Register validates the input, creates the user and its first token in one
// transaction.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)

	v := common.NewValidationError()
	validateName(v, in.Name)
	validateEmail(v, in.Email)
	switch {
	case in.Password == "":
		v.Add("password", "The password field is required.")
	case len(in.Password) < auth.MinPasswordLength:
		v.Add("password", fmt.Sprintf("The password must be at least %d characters.", auth.MinPasswordLength))
	case in.Password != in.PasswordConfirmation:
		v.Add("password", "The password confirmation does not match.")
	}

	if !v.Has("email") {
		_, err := s.repomanager.Users(s.db).GetByEmail(ctx, in.Email)
		switch {
		case err == nil:
			v.Add("email", "The email has already been taken.")
		case !errors.Is(err, common.ErrorNotFound):
			s.log.Error(ctx, "email lookup failed", "op", "register", "error", err)
			return nil, storageError("register", err)
		}
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}

	var result *AuthResult
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		user, err := s.repomanager.Users(tx).Create(ctx, &models.User{
			Name:         in.Name,
			Email:        in.Email,
			PasswordHash: hash,
		})
		if err != nil {
			return err
		}
		result, err = s.issueToken(ctx, tx, user)
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			v.Add("email", "The email has already been taken.")
			return nil, v
		}
		s.log.Error(ctx, "register failed", "op", "register", "email", in.Email, "error", err)
		return nil, storageError("register", err)
	}

	s.log.Info(ctx, "user registered", "user_id", result.User.ID)
	return result, nil
}

// Login checks credentials. Unknown email and wrong password are
// indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	in.Email = strings.TrimSpace(in.Email)

	v := common.NewValidationError()
	if in.Email == "" {
		v.Add("email", "The email field is required.")
	} else if !isEmail(in.Email) {
		v.Add("email", "The email must be a valid email address.")
	}
	if in.Password == "" {
		v.Add("password", "The password field is required.")
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		s.log.Error(ctx, "user lookup failed", "op", "login", "error", err)
		return nil, storageError("login", err)
	}
	if !auth.VerifyPassword(user.PasswordHash, in.Password) {
		return nil, common.ErrorUnauthorized
	}

	result, err := s.issueToken(ctx, s.db, user)
	if err != nil {
		s.log.Error(ctx, "token issue failed", "op", "login", "user_id", user.ID, "error", err)
		return nil, storageError("login", err)
	}
	return result, nil
}

// Logout revokes the token the caller authenticated with.
func (s *UserService) Logout(ctx context.Context, caller *Caller) error {
	if caller == nil {
		return common.ErrorUnauthorized
	}
	if err := s.repomanager.AccessTokens(s.db).Delete(ctx, caller.TokenID); err != nil {
		s.log.Error(ctx, "token revoke failed", "op", "logout", "user_id", caller.UserID, "error", err)
		return storageError("logout", err)
	}
	return nil
}

// Authenticate resolves a raw bearer token into a Caller. Every failure,
// including store errors, is reported as common.ErrorUnauthorized.
func (s *UserService) Authenticate(ctx context.Context, bearer string) (*Caller, error) {
	bearer = strings.TrimSpace(bearer)
	if bearer == "" {
		return nil, common.ErrorUnauthorized
	}
	claims, err := auth.ParseToken(bearer, s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorUnauthorized, err)
	}

	token, err := s.repomanager.AccessTokens(s.db).Find(ctx, claims.TokenID())
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			s.log.Error(ctx, "token lookup failed", "op", "authenticate", "token_id", claims.TokenID(), "error", err)
		}
		return nil, common.ErrorUnauthorized
	}
	if token.UserID != claims.UserID || !token.ExpiresAt.After(s.now()) {
		return nil, common.ErrorUnauthorized
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, claims.UserID)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			s.log.Error(ctx, "user lookup failed", "op", "authenticate", "user_id", claims.UserID, "error", err)
		}
		return nil, common.ErrorUnauthorized
	}

	return &Caller{UserID: user.ID, TokenID: token.ID, Name: user.Name, Email: user.Email}, nil
}

// Me returns the account behind caller.
func (s *UserService) Me(ctx context.Context, caller *Caller) (*models.User, error) {
	if caller == nil {
		return nil, common.ErrorUnauthorized
	}
	user, err := s.repomanager.Users(s.db).GetByID(ctx, caller.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, storageError("me", err)
	}
	return user, nil
}

func (s *UserService) issueToken(ctx context.Context, db dbx.DBTX, user *models.User) (*AuthResult, error) {
	expires := s.now().Add(s.accessTokenValidityDuration)
	row := &models.AccessToken{ID: uuid.NewString(), UserID: user.ID, ExpiresAt: expires}

	signed, err := auth.GenerateToken(user.ID, row.ID, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, err
	}
	if err := s.repomanager.AccessTokens(db).Create(ctx, row); err != nil {
		return nil, err
	}
	return &AuthResult{
		AccessToken: signed,
		TokenType:   common.BearerScheme,
		ExpiresAt:   expires,
		User:        user,
	}, nil
}

func validateName(v *common.ValidationError, name string) {
	switch {
	case name == "":
		v.Add("name", "The name field is required.")
	case utf8.RuneCountInString(name) > maxNameLength:
		v.Add("name", fmt.Sprintf("The name must not be greater than %d characters.", maxNameLength))
	}
}

func validateEmail(v *common.ValidationError, email string) {
	switch {
	case email == "":
		v.Add("email", "The email field is required.")
	case utf8.RuneCountInString(email) > maxNameLength:
		v.Add("email", fmt.Sprintf("The email must not be greater than %d characters.", maxNameLength))
	case !isEmail(email):
		v.Add("email", "The email must be a valid email address.")
	}
}

// isEmail accepts a bare addr-spec; display names are rejected.
func isEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}
