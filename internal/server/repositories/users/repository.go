// Package users persists accounts. Both implementations report a duplicate
// email as common.ErrDuplicateIdentifier and a missing row as
// common.ErrorNotFound.
package users

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/idkeeper/internal/common"
	"github.com/dmitrijs2005/idkeeper/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	Update(ctx context.Context, user *models.User) (*models.User, error)
	Delete(ctx context.Context, id int64) error
}

func dbError(err error) error {
	return fmt.Errorf("db error: %w: %w", common.ErrStoreUnavailable, err)
}
