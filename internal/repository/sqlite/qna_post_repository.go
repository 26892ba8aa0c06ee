package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"sm-portal/internal/domain"
	"sm-portal/internal/repository"
)

const selectQnaPost = `
SELECT p.id, p.author_name, p.password_hash, p.title, p.content, p.is_notice, p.view_count,
	(SELECT COUNT(1) FROM qna_comments c WHERE c.post_id = p.id),
	p.created_at, p.updated_at
FROM qna_posts p`

type QnaPostRepository struct {
	db *sql.DB
}

func NewQnaPostRepository(db *sql.DB) repository.QnaPostRepository {
	return &QnaPostRepository{db: db}
}

func (r *QnaPostRepository) Create(ctx context.Context, post *domain.QnaPost) (int64, error) {
	now := time.Now().UTC()
	post.CreatedAt = now
	post.UpdatedAt = now

	res, err := r.db.ExecContext(ctx, `
INSERT INTO qna_posts (author_name, password_hash, title, content, is_notice, view_count, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		post.AuthorName,
		post.PasswordHash,
		post.Title,
		post.Content,
		post.IsNotice,
		post.ViewCount,
		post.CreatedAt,
		post.UpdatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert qna post: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("qna post last insert id: %w", err)
	}
	post.ID = id
	return id, nil
}

func (r *QnaPostRepository) Get(ctx context.Context, id int64) (*domain.QnaPost, error) {
	row := r.db.QueryRowContext(ctx, selectQnaPost+`
WHERE p.id = ?`, id)
	return scanQnaPost(row)
}

func (r *QnaPostRepository) List(ctx context.Context, page domain.PageRequest) ([]domain.QnaPost, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM qna_posts`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count qna posts: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, selectQnaPost+`
ORDER BY p.is_notice DESC, p.created_at DESC, p.id DESC
LIMIT ? OFFSET ?`, page.Size, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("query qna posts: %w", err)
	}
	posts, err := collectQnaPosts(rows)
	return posts, total, err
}

func (r *QnaPostRepository) Search(ctx context.Context, keyword string, page domain.PageRequest) ([]domain.QnaPost, int64, error) {
	pattern := likePattern(keyword)

	var total int64
	if err := r.db.QueryRowContext(ctx, `
SELECT COUNT(1) FROM qna_posts
WHERE title LIKE ? ESCAPE '\' OR content LIKE ? ESCAPE '\'`, pattern, pattern).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count qna posts: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, selectQnaPost+`
WHERE p.title LIKE ? ESCAPE '\' OR p.content LIKE ? ESCAPE '\'
ORDER BY p.is_notice DESC, p.created_at DESC, p.id DESC
LIMIT ? OFFSET ?`, pattern, pattern, page.Size, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("search qna posts: %w", err)
	}
	posts, err := collectQnaPosts(rows)
	return posts, total, err
}

func (r *QnaPostRepository) Update(ctx context.Context, post *domain.QnaPost) error {
	post.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
UPDATE qna_posts
SET title=?, content=?, is_notice=?, updated_at=?
WHERE id=?`,
		post.Title,
		post.Content,
		post.IsNotice,
		post.UpdatedAt,
		post.ID,
	)
	if err != nil {
		return fmt.Errorf("update qna post: %w", err)
	}
	return checkAffected(res, "qna post")
}

func (r *QnaPostRepository) IncrementViewCount(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE qna_posts SET view_count = view_count + 1 WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("increment view count: %w", err)
	}
	return checkAffected(res, "qna post")
}

func (r *QnaPostRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM qna_posts WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete qna post: %w", err)
	}
	return checkAffected(res, "qna post")
}

func collectQnaPosts(rows *sql.Rows) ([]domain.QnaPost, error) {
	defer rows.Close()

	var posts []domain.QnaPost
	for rows.Next() {
		post, err := scanQnaPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *post)
	}
	return posts, rows.Err()
}

func scanQnaPost(row rowScanner) (*domain.QnaPost, error) {
	var post domain.QnaPost
	if err := row.Scan(
		&post.ID,
		&post.AuthorName,
		&post.PasswordHash,
		&post.Title,
		&post.Content,
		&post.IsNotice,
		&post.ViewCount,
		&post.CommentCount,
		&post.CreatedAt,
		&post.UpdatedAt,
	); err != nil {
		return nil, mapNotFound(err, "qna post")
	}
	return &post, nil
}
