package repository

import (
	"context"
	"errors"

	"github.com/pankaj085/lotuslynx/internal/domain"
)

// Conflict sentinels surfaced by Create when a unique constraint fires.
// Services translate them into user-facing "already taken" errors.
var (
	ErrUsernameTaken = errors.New("username already taken")
	ErrEmailTaken    = errors.New("email already taken")
)

// UserRepository exposes persistence for accounts. Absent rows surface
// pgx.ErrNoRows wrapped, so callers classify with errors.Is.
type UserRepository interface {
	GetByUsername(ctx context.Context, username string) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	GetByID(ctx context.Context, id int64) (domain.User, error)
	Create(ctx context.Context, user domain.User) (domain.User, error)
	SetRole(ctx context.Context, id int64, role domain.Role) error
	SetDisabled(ctx context.Context, id int64, disabled bool) error
}

// ProductFilter narrows and pages catalog listings.
type ProductFilter struct {
	Category string
	MinPrice *float64
	MaxPrice *float64
	Offset   int
	Limit    int
}

// ProductRepository exposes persistence for catalog entries. Update
// applies only the non-nil fields of the patch.
type ProductRepository interface {
	List(ctx context.Context, filter ProductFilter) ([]domain.Product, error)
	GetByID(ctx context.Context, id int64) (domain.Product, error)
	Create(ctx context.Context, product domain.Product) (domain.Product, error)
	Update(ctx context.Context, id int64, patch domain.ProductUpdate) (domain.Product, error)
	SetImageURL(ctx context.Context, id int64, imageURL string) error
	Delete(ctx context.Context, id int64) error
}
