package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"sm-portal/internal/auth"
	"sm-portal/internal/domain"
	"sm-portal/internal/repository"
)

// LoginResult is returned by a successful login.
type LoginResult struct {
	Admin   *domain.Admin
	Session auth.Session
	Token   string
}

// AdminService describes admin account and session operations.
type AdminService interface {
	Authenticate(ctx context.Context, username, password string) (*domain.Admin, error)
	Login(ctx context.Context, username, password string) (*LoginResult, error)
	Logout(ctx context.Context, handle auth.Handle)
	ResolveSession(ctx context.Context, handle auth.Handle) (*auth.Session, error)
	ResolveToken(ctx context.Context, token string) (*auth.Session, error)
	RenewToken(ctx context.Context, token string) (string, bool)
	ListAdmins(ctx context.Context) ([]domain.Admin, error)
	CreateAdmin(ctx context.Context, username, password, name string) (*domain.Admin, error)
	DeleteAdmin(ctx context.Context, callerID, id int64) error
	ChangePassword(ctx context.Context, username, currentPassword, newPassword string) error
	UpdateProfile(ctx context.Context, username, name string) (*domain.Admin, error)
	Bootstrap(ctx context.Context, username, password, name string) error
}

type adminService struct {
	admins   repository.AdminRepository
	verifier *auth.PasswordVerifier
	registry *auth.Registry
	sessions auth.SessionStore
	tokens   *auth.TokenIssuer
	logger   *logrus.Logger

	dummyOnce sync.Once
	dummyHash string
}

func NewAdminService(
	admins repository.AdminRepository,
	verifier *auth.PasswordVerifier,
	registry *auth.Registry,
	sessions auth.SessionStore,
	tokens *auth.TokenIssuer,
	logger *logrus.Logger,
) AdminService {
	return &adminService{
		admins:   admins,
		verifier: verifier,
		registry: registry,
		sessions: sessions,
		tokens:   tokens,
		logger:   logger,
	}
}

func (s *adminService) Authenticate(ctx context.Context, username, password string) (*domain.Admin, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	admin, err := s.admins.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// burn a comparison so unknown users cost the same as wrong passwords
			s.verifier.Matches(password, s.placeholderHash())
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !s.verifier.Matches(password, admin.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return sanitizeAdmin(admin), nil
}

func (s *adminService) placeholderHash() string {
	s.dummyOnce.Do(func() {
		hash, err := s.verifier.Hash("placeholder-password")
		if err == nil {
			s.dummyHash = hash
		}
	})
	return s.dummyHash
}

func (s *adminService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	admin, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}

	handle := s.sessions.Create(auth.Session{
		AdminID:  admin.ID,
		Username: admin.Username,
		Name:     admin.Name,
	})
	session, err := s.sessions.Get(handle)
	if err != nil {
		return nil, fmt.Errorf("load new session: %w", err)
	}

	if prev, replaced := s.registry.Register(admin.Username, handle); replaced {
		if err := s.sessions.Invalidate(prev); err != nil {
			s.logger.WithError(err).WithField("username", admin.Username).Debug("previous session already gone")
		}
		s.logger.WithField("username", admin.Username).Info("replaced existing admin session")
	}

	token, err := s.tokens.Issue(session)
	if err != nil {
		s.registry.RemoveIf(admin.Username, handle)
		_ = s.sessions.Invalidate(handle)
		return nil, err
	}

	s.logger.WithField("username", admin.Username).Info("admin logged in")
	return &LoginResult{Admin: admin, Session: session, Token: token}, nil
}

func (s *adminService) Logout(ctx context.Context, handle auth.Handle) {
	session, err := s.sessions.Get(handle)
	if err != nil {
		return
	}
	_ = s.sessions.Invalidate(handle)
	s.registry.RemoveIf(session.Username, handle)
	s.logger.WithField("username", session.Username).Info("admin logged out")
}

func (s *adminService) ResolveSession(ctx context.Context, handle auth.Handle) (*auth.Session, error) {
	if handle == "" {
		return nil, ErrUnauthenticated
	}
	session, err := s.sessions.Get(handle)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	if current, ok := s.registry.Current(session.Username); !ok || current != handle {
		_ = s.sessions.Invalidate(handle)
		return nil, ErrUnauthenticated
	}
	return &session, nil
}

func (s *adminService) ResolveToken(ctx context.Context, token string) (*auth.Session, error) {
	handle, err := s.tokens.Parse(token)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	return s.ResolveSession(ctx, handle)
}

// RenewToken re-signs the token of a live session once it nears expiry.
func (s *adminService) RenewToken(ctx context.Context, token string) (string, bool) {
	if _, err := s.ResolveToken(ctx, token); err != nil {
		return "", false
	}
	renewed, ok, err := s.tokens.Renew(token)
	if err != nil {
		s.logger.WithError(err).Warn("failed to renew session token")
		return "", false
	}
	return renewed, ok
}

func (s *adminService) ListAdmins(ctx context.Context) ([]domain.Admin, error) {
	admins, err := s.admins.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Admin, 0, len(admins))
	for i := range admins {
		out = append(out, *sanitizeAdmin(&admins[i]))
	}
	return out, nil
}

func (s *adminService) CreateAdmin(ctx context.Context, username, password, name string) (*domain.Admin, error) {
	username = strings.TrimSpace(username)
	name = strings.TrimSpace(name)

	if username == "" {
		return nil, invalidInput("username is required")
	}
	if strings.TrimSpace(password) == "" {
		return nil, invalidInput("password is required")
	}
	if name == "" {
		return nil, invalidInput("name is required")
	}

	exists, err := s.admins.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateUsername
	}

	hash, err := s.verifier.Hash(password)
	if err != nil {
		return nil, err
	}
	admin := &domain.Admin{
		Username:     username,
		PasswordHash: hash,
		Name:         name,
	}
	if _, err := s.admins.Create(ctx, admin); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return nil, ErrDuplicateUsername
		}
		return nil, err
	}

	s.logger.WithField("username", username).Info("admin account created")
	return sanitizeAdmin(admin), nil
}

func (s *adminService) DeleteAdmin(ctx context.Context, callerID, id int64) error {
	if callerID == id {
		return ErrSelfDeletion
	}
	admin, err := s.admins.GetByID(ctx, id)
	if err != nil {
		return notFound(err, fmt.Sprintf("admin %d", id))
	}
	if err := s.admins.Delete(ctx, id); err != nil {
		return notFound(err, fmt.Sprintf("admin %d", id))
	}

	if handle, ok := s.registry.Current(admin.Username); ok {
		s.registry.RemoveIf(admin.Username, handle)
		_ = s.sessions.Invalidate(handle)
	}
	s.logger.WithFields(logrus.Fields{"username": admin.Username, "by": callerID}).Info("admin account deleted")
	return nil
}

func (s *adminService) ChangePassword(ctx context.Context, username, currentPassword, newPassword string) error {
	if strings.TrimSpace(newPassword) == "" {
		return invalidInput("new password is required")
	}
	admin, err := s.admins.GetByUsername(ctx, username)
	if err != nil {
		return notFound(err, fmt.Sprintf("admin %q", username))
	}
	if !s.verifier.Matches(currentPassword, admin.PasswordHash) {
		return ErrInvalidCredentials
	}

	hash, err := s.verifier.Hash(newPassword)
	if err != nil {
		return err
	}
	if err := s.admins.UpdatePasswordHash(ctx, admin.ID, hash); err != nil {
		return notFound(err, fmt.Sprintf("admin %q", username))
	}
	s.logger.WithField("username", username).Info("admin password changed")
	return nil
}

func (s *adminService) UpdateProfile(ctx context.Context, username, name string) (*domain.Admin, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalidInput("name is required")
	}
	admin, err := s.admins.GetByUsername(ctx, username)
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("admin %q", username))
	}
	if err := s.admins.UpdateName(ctx, admin.ID, name); err != nil {
		return nil, notFound(err, fmt.Sprintf("admin %q", username))
	}
	admin.Name = name

	if handle, ok := s.registry.Current(username); ok {
		_ = s.sessions.Rename(handle, name)
	}
	return sanitizeAdmin(admin), nil
}

// Bootstrap creates the configured default admin unless the username already exists.
func (s *adminService) Bootstrap(ctx context.Context, username, password, name string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		s.logger.Warn("no default admin configured")
		return nil
	}

	exists, err := s.admins.ExistsByUsername(ctx, username)
	if err != nil {
		return err
	}
	if exists {
		s.logger.WithField("username", username).Debug("default admin already present")
		return nil
	}
	if strings.TrimSpace(name) == "" {
		name = username
	}

	_, err = s.CreateAdmin(ctx, username, password, name)
	if errors.Is(err, ErrDuplicateUsername) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("create default admin: %w", err)
	}
	return nil
}

func sanitizeAdmin(admin *domain.Admin) *domain.Admin {
	if admin == nil {
		return nil
	}
	return &domain.Admin{
		ID:        admin.ID,
		Username:  admin.Username,
		Name:      admin.Name,
		CreatedAt: admin.CreatedAt,
		UpdatedAt: admin.UpdatedAt,
	}
}
