package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"sm-portal/internal/domain"
	"sm-portal/internal/repository"
)

type AdminRepository struct {
	db *sql.DB
}

func NewAdminRepository(db *sql.DB) repository.AdminRepository {
	return &AdminRepository{db: db}
}

func (r *AdminRepository) Create(ctx context.Context, admin *domain.Admin) (int64, error) {
	now := time.Now().UTC()
	admin.CreatedAt = now
	admin.UpdatedAt = now

	res, err := r.db.ExecContext(ctx, `
INSERT INTO admins (username, password_hash, name, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)`,
		admin.Username,
		admin.PasswordHash,
		admin.Name,
		admin.CreatedAt,
		admin.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("admin %q: %w", admin.Username, repository.ErrAlreadyExists)
		}
		return 0, fmt.Errorf("insert admin: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("admin last insert id: %w", err)
	}
	admin.ID = id
	return id, nil
}

func (r *AdminRepository) GetByUsername(ctx context.Context, username string) (*domain.Admin, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, username, password_hash, name, created_at, updated_at
FROM admins
WHERE username = ?`,
		username,
	)
	return scanAdmin(row)
}

func (r *AdminRepository) GetByID(ctx context.Context, id int64) (*domain.Admin, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, username, password_hash, name, created_at, updated_at
FROM admins
WHERE id = ?`,
		id,
	)
	return scanAdmin(row)
}

func (r *AdminRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM admins WHERE username = ?`, username).Scan(&n); err != nil {
		return false, fmt.Errorf("count admins: %w", err)
	}
	return n > 0, nil
}

func (r *AdminRepository) List(ctx context.Context) ([]domain.Admin, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, username, password_hash, name, created_at, updated_at
FROM admins
ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query admins: %w", err)
	}
	defer rows.Close()

	var admins []domain.Admin
	for rows.Next() {
		admin, err := scanAdmin(rows)
		if err != nil {
			return nil, err
		}
		admins = append(admins, *admin)
	}
	return admins, rows.Err()
}

func (r *AdminRepository) UpdatePasswordHash(ctx context.Context, id int64, hash string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE admins
SET password_hash=?, updated_at=?
WHERE id=?`,
		hash,
		time.Now().UTC(),
		id,
	)
	if err != nil {
		return fmt.Errorf("update admin password: %w", err)
	}
	return checkAffected(res, "admin")
}

func (r *AdminRepository) UpdateName(ctx context.Context, id int64, name string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE admins
SET name=?, updated_at=?
WHERE id=?`,
		name,
		time.Now().UTC(),
		id,
	)
	if err != nil {
		return fmt.Errorf("update admin name: %w", err)
	}
	return checkAffected(res, "admin")
}

func (r *AdminRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM admins WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete admin: %w", err)
	}
	return checkAffected(res, "admin")
}

func scanAdmin(row rowScanner) (*domain.Admin, error) {
	var admin domain.Admin
	if err := row.Scan(
		&admin.ID,
		&admin.Username,
		&admin.PasswordHash,
		&admin.Name,
		&admin.CreatedAt,
		&admin.UpdatedAt,
	); err != nil {
		return nil, mapNotFound(err, "admin")
	}
	return &admin, nil
}
