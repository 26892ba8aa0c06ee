package repository

import (
	"context"

	"sm-portal/internal/domain"
)

// AdminRepository defines persistence operations for Admin accounts.
type AdminRepository interface {
	Create(ctx context.Context, admin *domain.Admin) (int64, error)
	GetByUsername(ctx context.Context, username string) (*domain.Admin, error)
	GetByID(ctx context.Context, id int64) (*domain.Admin, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	List(ctx context.Context) ([]domain.Admin, error)
	UpdatePasswordHash(ctx context.Context, id int64, hash string) error
	UpdateName(ctx context.Context, id int64, name string) error
	Delete(ctx context.Context, id int64) error
}
