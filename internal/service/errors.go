package service

import (
	"errors"
	"fmt"
	"strings"

	"sm-portal/internal/repository"
)

var (
	// ErrInvalidCredentials indicates that provided login credentials are incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrDuplicateUsername is returned when registering a username that is taken.
	ErrDuplicateUsername = errors.New("username already exists")
	ErrNotFound          = errors.New("not found")
	// ErrSelfDeletion is returned when an admin tries to delete their own account.
	ErrSelfDeletion = errors.New("cannot delete your own account")
	// ErrForbidden indicates a failed ownership password check.
	ErrForbidden       = errors.New("password does not match")
	ErrStorage         = errors.New("file storage failure")
	ErrUnauthenticated = errors.New("not logged in")
	ErrInvalidInput    = errors.New("invalid input")
)

func notFound(err error, what string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return err
}

func invalidInput(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, msg)
}

type field struct {
	name  string
	value string
}

// requireFields reports the first blank field.
func requireFields(fields ...field) error {
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return invalidInput(f.name + " is required")
		}
	}
	return nil
}
