package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"sm-portal/internal/domain"
	"sm-portal/internal/repository"
)

const selectReference = `
SELECT r.id, r.category_id, COALESCE(c.name, ''), r.title, r.description, r.file_name, r.file_key,
	r.thumbnail_key, r.download_count, r.created_at, r.updated_at
FROM reference_items r
LEFT JOIN reference_categories c ON c.id = r.category_id`

type ReferenceRepository struct {
	db *sql.DB
}

func NewReferenceRepository(db *sql.DB) repository.ReferenceRepository {
	return &ReferenceRepository{db: db}
}

// Create inserts the reference and its files and images in one transaction.
func (r *ReferenceRepository) Create(ctx context.Context, ref *domain.Reference) (int64, error) {
	now := time.Now().UTC()
	ref.CreatedAt = now
	ref.UpdatedAt = now

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() // safe no-op on commit

	res, err := tx.ExecContext(ctx, `
INSERT INTO reference_items (category_id, title, description, file_name, file_key, thumbnail_key, download_count, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		nullInt64(ref.CategoryID),
		ref.Title,
		ref.Description,
		ref.FileName,
		ref.FileKey,
		ref.ThumbnailKey,
		ref.DownloadCount,
		ref.CreatedAt,
		ref.UpdatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert reference: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reference last insert id: %w", err)
	}

	for i := range ref.Files {
		file := &ref.Files[i]
		file.ReferenceID = id
		res, err := tx.ExecContext(ctx, `
INSERT INTO reference_files (reference_id, file_name, file_key, sort_order)
VALUES (?, ?, ?, ?)`,
			id,
			file.FileName,
			file.FileKey,
			file.SortOrder,
		)
		if err != nil {
			return 0, fmt.Errorf("insert reference file: %w", err)
		}
		if file.ID, err = res.LastInsertId(); err != nil {
			return 0, fmt.Errorf("reference file last insert id: %w", err)
		}
	}

	for i := range ref.Images {
		img := &ref.Images[i]
		img.ReferenceID = id
		res, err := tx.ExecContext(ctx, `
INSERT INTO reference_images (reference_id, file_name, file_key, sort_order)
VALUES (?, ?, ?, ?)`,
			id,
			img.FileName,
			img.FileKey,
			img.SortOrder,
		)
		if err != nil {
			return 0, fmt.Errorf("insert reference image: %w", err)
		}
		if img.ID, err = res.LastInsertId(); err != nil {
			return 0, fmt.Errorf("reference image last insert id: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}
	ref.ID = id
	return id, nil
}

// Get returns the reference with its files and images.
func (r *ReferenceRepository) Get(ctx context.Context, id int64) (*domain.Reference, error) {
	row := r.db.QueryRowContext(ctx, selectReference+`
WHERE r.id = ?`, id)
	ref, err := scanReference(row)
	if err != nil {
		return nil, err
	}
	if err := r.loadAttachments(ctx, ref); err != nil {
		return nil, err
	}
	return ref, nil
}

func (r *ReferenceRepository) List(ctx context.Context, page domain.PageRequest) ([]domain.Reference, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM reference_items`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count references: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, selectReference+`
ORDER BY r.created_at DESC, r.id DESC
LIMIT ? OFFSET ?`, page.Size, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("query references: %w", err)
	}
	refs, err := r.collect(ctx, rows)
	return refs, total, err
}

func (r *ReferenceRepository) Search(ctx context.Context, keyword string, page domain.PageRequest) ([]domain.Reference, int64, error) {
	pattern := likePattern(keyword)

	var total int64
	if err := r.db.QueryRowContext(ctx, `
SELECT COUNT(1) FROM reference_items
WHERE title LIKE ? ESCAPE '\' OR description LIKE ? ESCAPE '\'`, pattern, pattern).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count references: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, selectReference+`
WHERE r.title LIKE ? ESCAPE '\' OR r.description LIKE ? ESCAPE '\'
ORDER BY r.created_at DESC, r.id DESC
LIMIT ? OFFSET ?`, pattern, pattern, page.Size, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("search references: %w", err)
	}
	refs, err := r.collect(ctx, rows)
	return refs, total, err
}

func (r *ReferenceRepository) ListByCategory(ctx context.Context, categoryID int64, page domain.PageRequest) ([]domain.Reference, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM reference_items WHERE category_id = ?`, categoryID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count references: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, selectReference+`
WHERE r.category_id = ?
ORDER BY r.created_at DESC, r.id DESC
LIMIT ? OFFSET ?`, categoryID, page.Size, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("query references by category: %w", err)
	}
	refs, err := r.collect(ctx, rows)
	return refs, total, err
}

func (r *ReferenceRepository) Update(ctx context.Context, ref *domain.Reference) error {
	ref.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
UPDATE reference_items
SET category_id=?, title=?, description=?, updated_at=?
WHERE id=?`,
		nullInt64(ref.CategoryID),
		ref.Title,
		ref.Description,
		ref.UpdatedAt,
		ref.ID,
	)
	if err != nil {
		return fmt.Errorf("update reference: %w", err)
	}
	return checkAffected(res, "reference")
}

func (r *ReferenceRepository) IncrementDownloadCount(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE reference_items SET download_count = download_count + 1 WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("increment download count: %w", err)
	}
	return checkAffected(res, "reference")
}

// Delete removes the reference row; files and images follow by cascade.
func (r *ReferenceRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reference_items WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete reference: %w", err)
	}
	return checkAffected(res, "reference")
}

func (r *ReferenceRepository) GetFile(ctx context.Context, fileID int64) (*domain.ReferenceFile, error) {
	var file domain.ReferenceFile
	err := r.db.QueryRowContext(ctx, `
SELECT id, reference_id, file_name, file_key, sort_order
FROM reference_files
WHERE id = ?`, fileID).Scan(&file.ID, &file.ReferenceID, &file.FileName, &file.FileKey, &file.SortOrder)
	if err != nil {
		return nil, mapNotFound(err, "reference file")
	}
	return &file, nil
}

func (r *ReferenceRepository) GetImage(ctx context.Context, imageID int64) (*domain.ReferenceImage, error) {
	var img domain.ReferenceImage
	err := r.db.QueryRowContext(ctx, `
SELECT id, reference_id, file_name, file_key, sort_order
FROM reference_images
WHERE id = ?`, imageID).Scan(&img.ID, &img.ReferenceID, &img.FileName, &img.FileKey, &img.SortOrder)
	if err != nil {
		return nil, mapNotFound(err, "reference image")
	}
	return &img, nil
}

// collect drains rows before loading attachments; the pool holds a single connection.
func (r *ReferenceRepository) collect(ctx context.Context, rows *sql.Rows) ([]domain.Reference, error) {
	var refs []domain.Reference
	for rows.Next() {
		ref, err := scanReference(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		refs = append(refs, *ref)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range refs {
		if err := r.loadAttachments(ctx, &refs[i]); err != nil {
			return nil, err
		}
	}
	return refs, nil
}

func (r *ReferenceRepository) loadAttachments(ctx context.Context, ref *domain.Reference) error {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, reference_id, file_name, file_key, sort_order
FROM reference_files
WHERE reference_id = ?
ORDER BY sort_order ASC, id ASC`, ref.ID)
	if err != nil {
		return fmt.Errorf("query reference files: %w", err)
	}
	ref.Files = []domain.ReferenceFile{}
	for rows.Next() {
		var file domain.ReferenceFile
		if err := rows.Scan(&file.ID, &file.ReferenceID, &file.FileName, &file.FileKey, &file.SortOrder); err != nil {
			rows.Close()
			return fmt.Errorf("scan reference file: %w", err)
		}
		ref.Files = append(ref.Files, file)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = r.db.QueryContext(ctx, `
SELECT id, reference_id, file_name, file_key, sort_order
FROM reference_images
WHERE reference_id = ?
ORDER BY sort_order ASC, id ASC`, ref.ID)
	if err != nil {
		return fmt.Errorf("query reference images: %w", err)
	}
	defer rows.Close()
	ref.Images = []domain.ReferenceImage{}
	for rows.Next() {
		var img domain.ReferenceImage
		if err := rows.Scan(&img.ID, &img.ReferenceID, &img.FileName, &img.FileKey, &img.SortOrder); err != nil {
			return fmt.Errorf("scan reference image: %w", err)
		}
		ref.Images = append(ref.Images, img)
	}
	return rows.Err()
}

func scanReference(row rowScanner) (*domain.Reference, error) {
	var (
		ref        domain.Reference
		categoryID sql.NullInt64
	)
	if err := row.Scan(
		&ref.ID,
		&categoryID,
		&ref.CategoryName,
		&ref.Title,
		&ref.Description,
		&ref.FileName,
		&ref.FileKey,
		&ref.ThumbnailKey,
		&ref.DownloadCount,
		&ref.CreatedAt,
		&ref.UpdatedAt,
	); err != nil {
		return nil, mapNotFound(err, "reference")
	}
	ref.CategoryID = int64Ptr(categoryID)
	return &ref, nil
}
