// Package services contains server-side business logic. UserService handles
// registration, login and the account operations behind the auth gate.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/idkeeper/internal/common"
	"github.com/dmitrijs2005/idkeeper/internal/dbx"
	"github.com/dmitrijs2005/idkeeper/internal/logging"
	"github.com/dmitrijs2005/idkeeper/internal/server/auth"
	"github.com/dmitrijs2005/idkeeper/internal/server/config"
	"github.com/dmitrijs2005/idkeeper/internal/server/models"
	"github.com/dmitrijs2005/idkeeper/internal/server/repositories/repomanager"
)

// RegisterInput carries a registration request. Password is plaintext and
// is dropped as soon as it has been hashed.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// UpdateInput carries a partial account update; nil fields are unchanged.
type UpdateInput struct {
	Name     *string
	Email    *string
	Password *string
}

// UserService composes the hasher pool, the token issuer and the users
// repository.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      *auth.Hasher
	issuer      *auth.Issuer
	tokenTTL    time.Duration
	log         logging.Logger
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, h *auth.Hasher, iss *auth.Issuer, cfg *config.Config, log logging.Logger) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		hasher:      h,
		issuer:      iss,
		tokenTTL:    cfg.TokenTTL,
		log:         log.With("module", "users"),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register hashes the password and stores a new account. A taken email is
// reported by the store's unique constraint as common.ErrDuplicateIdentifier.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.Account, error) {
	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)
	if name == "" || email == "" || in.Password == "" {
		return nil, common.ErrMissingField
	}

	digest, err := s.hasher.Hash(ctx, in.Password)
	if err != nil {
		return nil, err
	}

	u, err := s.repomanager.Users(s.db).Create(ctx, &models.User{Name: name, Email: email, PasswordHash: digest})
	if err != nil {
		if errors.Is(err, common.ErrDuplicateIdentifier) {
			s.log.Info(ctx, "registration rejected", "email", email, "reason", "duplicate")
			return nil, common.ErrDuplicateIdentifier
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.log.Info(ctx, "user registered", "user_id", u.ID)
	return u.Account(), nil
}

// Login checks the credentials and returns a signed token. Unknown email and
// wrong password are indistinguishable to the caller: same error, and both
// spend one bcrypt comparison.
func (s *UserService) Login(ctx context.Context, email, password string) (string, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return "", common.ErrMissingField
	}

	u, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			return "", fmt.Errorf("error loading user: %w", err)
		}
		if err := s.hasher.VerifyAbsent(ctx, password); err != nil {
			return "", err
		}
		s.log.Warn(ctx, "login failed", "email", email, "reason", "unknown_email")
		return "", common.ErrInvalidCredentials
	}

	ok, err := s.hasher.Verify(ctx, password, u.PasswordHash)
	if err != nil {
		return "", err
	}
	if !ok {
		s.log.Warn(ctx, "login failed", "email", email, "reason", "wrong_password")
		return "", common.ErrInvalidCredentials
	}

	token, err := s.issuer.Issue(auth.Claims{SubjectID: u.ID, Identifier: u.Email}, s.tokenTTL)
	if err != nil {
		return "", fmt.Errorf("error issuing token: %w: %w", common.ErrorInternal, err)
	}

	s.log.Info(ctx, "login succeeded", "user_id", u.ID)
	return token, nil
}

// List returns every account ordered by id.
func (s *UserService) List(ctx context.Context) ([]*models.Account, error) {
	us, err := s.repomanager.Users(s.db).List(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing users: %w", err)
	}
	return models.Accounts(us), nil
}

// Get returns one account or common.ErrorNotFound.
func (s *UserService) Get(ctx context.Context, id int64) (*models.Account, error) {
	u, err := s.repomanager.Users(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return u.Account(), nil
}

// Update changes the caller's own account. A new password is hashed before
// the transaction starts so no row lock is held during bcrypt.
func (s *UserService) Update(ctx context.Context, callerID, id int64, in UpdateInput) (*models.Account, error) {
	if callerID != id {
		return nil, common.ErrForbidden
	}
	if in.Name == nil && in.Email == nil && in.Password == nil {
		return nil, common.ErrMissingField
	}

	var name, email, digest string
	if in.Name != nil {
		if name = strings.TrimSpace(*in.Name); name == "" {
			return nil, common.ErrMissingField
		}
	}
	if in.Email != nil {
		if email = normalizeEmail(*in.Email); email == "" {
			return nil, common.ErrMissingField
		}
	}
	if in.Password != nil {
		var err error
		if digest, err = s.hasher.Hash(ctx, *in.Password); err != nil {
			return nil, err
		}
	}

	var updated *models.User
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		u, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if name != "" {
			u.Name = name
		}
		if email != "" {
			u.Email = email
		}
		if digest != "" {
			u.PasswordHash = digest
		}

		updated, err = repo.Update(ctx, u)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "user updated", "user_id", id, "password_changed", digest != "")
	return updated.Account(), nil
}

// Delete removes the caller's own account and returns it as it was.
func (s *UserService) Delete(ctx context.Context, callerID, id int64) (*models.Account, error) {
	if callerID != id {
		return nil, common.ErrForbidden
	}

	var deleted *models.User
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		u, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := repo.Delete(ctx, id); err != nil {
			return err
		}
		deleted = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "user deleted", "user_id", id)
	return deleted.Account(), nil
}
