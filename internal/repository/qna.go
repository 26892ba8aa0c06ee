package repository

import (
	"context"

	"sm-portal/internal/domain"
)

// QnaPostRepository exposes persistence operations for Q&A posts.
// Listings are ordered notice first, then newest first.
type QnaPostRepository interface {
	Create(ctx context.Context, post *domain.QnaPost) (int64, error)
	Get(ctx context.Context, id int64) (*domain.QnaPost, error)
	List(ctx context.Context, page domain.PageRequest) ([]domain.QnaPost, int64, error)
	Search(ctx context.Context, keyword string, page domain.PageRequest) ([]domain.QnaPost, int64, error)
	Update(ctx context.Context, post *domain.QnaPost) error
	IncrementViewCount(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
}

// QnaCommentRepository manages comments attached to posts.
type QnaCommentRepository interface {
	Create(ctx context.Context, comment *domain.QnaComment) (int64, error)
	Get(ctx context.Context, id int64) (*domain.QnaComment, error)
	ListByPost(ctx context.Context, postID int64) ([]domain.QnaComment, error)
	UpdateContent(ctx context.Context, id int64, content string) error
	Delete(ctx context.Context, id int64) error
}
