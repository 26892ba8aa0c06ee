package domain

import "time"

// Admin represents an administrator account.
type Admin struct {
	ID           int64
	Username     string
	PasswordHash string
	Name         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
