package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"sm-portal/internal/domain"
	"sm-portal/internal/repository"
)

const selectQnaComment = `
SELECT id, post_id, parent_id, author_name, password_hash, content, is_admin, created_at, updated_at
FROM qna_comments`

type QnaCommentRepository struct {
	db *sql.DB
}

func NewQnaCommentRepository(db *sql.DB) repository.QnaCommentRepository {
	return &QnaCommentRepository{db: db}
}

func (r *QnaCommentRepository) Create(ctx context.Context, comment *domain.QnaComment) (int64, error) {
	now := time.Now().UTC()
	comment.CreatedAt = now
	comment.UpdatedAt = now

	res, err := r.db.ExecContext(ctx, `
INSERT INTO qna_comments (post_id, parent_id, author_name, password_hash, content, is_admin, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		comment.PostID,
		nullInt64(comment.ParentID),
		comment.AuthorName,
		comment.PasswordHash,
		comment.Content,
		comment.IsAdmin,
		comment.CreatedAt,
		comment.UpdatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert qna comment: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("qna comment last insert id: %w", err)
	}
	comment.ID = id
	return id, nil
}

func (r *QnaCommentRepository) Get(ctx context.Context, id int64) (*domain.QnaComment, error) {
	row := r.db.QueryRowContext(ctx, selectQnaComment+`
WHERE id = ?`, id)
	return scanQnaComment(row)
}

// ListByPost returns every comment of a post, oldest first, as a flat list.
func (r *QnaCommentRepository) ListByPost(ctx context.Context, postID int64) ([]domain.QnaComment, error) {
	rows, err := r.db.QueryContext(ctx, selectQnaComment+`
WHERE post_id = ?
ORDER BY created_at ASC, id ASC`, postID)
	if err != nil {
		return nil, fmt.Errorf("query qna comments: %w", err)
	}
	defer rows.Close()

	var comments []domain.QnaComment
	for rows.Next() {
		comment, err := scanQnaComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, *comment)
	}
	return comments, rows.Err()
}

func (r *QnaCommentRepository) UpdateContent(ctx context.Context, id int64, content string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE qna_comments
SET content=?, updated_at=?
WHERE id=?`,
		content,
		time.Now().UTC(),
		id,
	)
	if err != nil {
		return fmt.Errorf("update qna comment: %w", err)
	}
	return checkAffected(res, "qna comment")
}

func (r *QnaCommentRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM qna_comments WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete qna comment: %w", err)
	}
	return checkAffected(res, "qna comment")
}

func scanQnaComment(row rowScanner) (*domain.QnaComment, error) {
	var (
		comment  domain.QnaComment
		parentID sql.NullInt64
	)
	if err := row.Scan(
		&comment.ID,
		&comment.PostID,
		&parentID,
		&comment.AuthorName,
		&comment.PasswordHash,
		&comment.Content,
		&comment.IsAdmin,
		&comment.CreatedAt,
		&comment.UpdatedAt,
	); err != nil {
		return nil, mapNotFound(err, "qna comment")
	}
	comment.ParentID = int64Ptr(parentID)
	return &comment, nil
}
