package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"sm-portal/internal/domain"
	"sm-portal/internal/repository"
)

type ReferenceCategoryRepository struct {
	db *sql.DB
}

func NewReferenceCategoryRepository(db *sql.DB) repository.ReferenceCategoryRepository {
	return &ReferenceCategoryRepository{db: db}
}

func (r *ReferenceCategoryRepository) Create(ctx context.Context, category *domain.ReferenceCategory) (int64, error) {
	category.CreatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx, `
INSERT INTO reference_categories (name, sort_order, created_at)
VALUES (?, ?, ?)`,
		category.Name,
		category.SortOrder,
		category.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert reference category: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reference category last insert id: %w", err)
	}
	category.ID = id
	return id, nil
}

func (r *ReferenceCategoryRepository) Get(ctx context.Context, id int64) (*domain.ReferenceCategory, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, name, sort_order, created_at
FROM reference_categories
WHERE id = ?`, id)
	return scanReferenceCategory(row)
}

func (r *ReferenceCategoryRepository) List(ctx context.Context) ([]domain.ReferenceCategory, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, name, sort_order, created_at
FROM reference_categories
ORDER BY sort_order ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query reference categories: %w", err)
	}
	defer rows.Close()

	var categories []domain.ReferenceCategory
	for rows.Next() {
		category, err := scanReferenceCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, *category)
	}
	return categories, rows.Err()
}

func (r *ReferenceCategoryRepository) Update(ctx context.Context, category *domain.ReferenceCategory) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE reference_categories
SET name=?, sort_order=?
WHERE id=?`,
		category.Name,
		category.SortOrder,
		category.ID,
	)
	if err != nil {
		return fmt.Errorf("update reference category: %w", err)
	}
	return checkAffected(res, "reference category")
}

func (r *ReferenceCategoryRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reference_categories WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete reference category: %w", err)
	}
	return checkAffected(res, "reference category")
}

func scanReferenceCategory(row rowScanner) (*domain.ReferenceCategory, error) {
	var category domain.ReferenceCategory
	if err := row.Scan(&category.ID, &category.Name, &category.SortOrder, &category.CreatedAt); err != nil {
		return nil, mapNotFound(err, "reference category")
	}
	return &category, nil
}
