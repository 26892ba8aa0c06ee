package repository

import (
	"context"

	"sm-portal/internal/domain"
)

// ReferenceCategoryRepository manages reference categories ordered by sort order.
type ReferenceCategoryRepository interface {
	Create(ctx context.Context, category *domain.ReferenceCategory) (int64, error)
	Get(ctx context.Context, id int64) (*domain.ReferenceCategory, error)
	List(ctx context.Context) ([]domain.ReferenceCategory, error)
	Update(ctx context.Context, category *domain.ReferenceCategory) error
	Delete(ctx context.Context, id int64) error
}

// ReferenceRepository persists references together with their files and images.
// Listings are ordered newest first.
type ReferenceRepository interface {
	Create(ctx context.Context, ref *domain.Reference) (int64, error)
	Get(ctx context.Context, id int64) (*domain.Reference, error)
	List(ctx context.Context, page domain.PageRequest) ([]domain.Reference, int64, error)
	Search(ctx context.Context, keyword string, page domain.PageRequest) ([]domain.Reference, int64, error)
	ListByCategory(ctx context.Context, categoryID int64, page domain.PageRequest) ([]domain.Reference, int64, error)
	Update(ctx context.Context, ref *domain.Reference) error
	IncrementDownloadCount(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error

	GetFile(ctx context.Context, fileID int64) (*domain.ReferenceFile, error)
	GetImage(ctx context.Context, imageID int64) (*domain.ReferenceImage, error)
}
