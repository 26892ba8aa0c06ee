package service

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"sm-portal/internal/auth"
	"sm-portal/internal/repository/sqlite"
	"sm-portal/internal/storage"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "portal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, sqlite.Migrate(db))
	return db
}

func newTestLogger() (*logrus.Logger, *test.Hook) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return logger, hook
}

func newTestVerifier() *auth.PasswordVerifier {
	return auth.NewPasswordVerifier(bcrypt.MinCost)
}

type adminFixture struct {
	svc      AdminService
	registry *auth.Registry
	sessions *auth.MemorySessionStore
	hook     *test.Hook
}

func newAdminFixture(t *testing.T) adminFixture {
	t.Helper()

	db := newTestDB(t)
	logger, hook := newTestLogger()
	registry := auth.NewRegistry()
	sessions := auth.NewMemorySessionStore(time.Hour)
	svc := NewAdminService(
		sqlite.NewAdminRepository(db),
		newTestVerifier(),
		registry,
		sessions,
		auth.NewTokenIssuer("test-secret", time.Hour),
		logger,
	)
	return adminFixture{svc: svc, registry: registry, sessions: sessions, hook: hook}
}

func newMemBlobs() *storage.LocalService {
	return storage.NewLocalServiceFs(afero.NewBasePathFs(afero.NewMemMapFs(), "/blobs"))
}
