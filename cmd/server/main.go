package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"sm-portal/internal/auth"
	"sm-portal/internal/config"
	apphttp "sm-portal/internal/http"
	"sm-portal/internal/repository/sqlite"
	"sm-portal/internal/service"
	"sm-portal/internal/storage"
)

const sessionSweepInterval = time.Minute

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if level, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		logger.SetLevel(level)
	} else {
		logger.Warnf("unknown log level %q, using info", cfg.Log.Level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()

	if err := sqlite.Migrate(db); err != nil {
		logger.Fatalf("migrate database: %v", err)
	}

	storageSvc, err := buildStorage(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("setup storage: %v", err)
	}

	verifier := auth.NewPasswordVerifier(bcrypt.DefaultCost)
	registry := auth.NewRegistry()
	sessions := auth.NewMemorySessionStore(cfg.SessionTTL())
	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.SessionTTL())

	categoryRepo := sqlite.NewReferenceCategoryRepository(db)
	adminService := service.NewAdminService(sqlite.NewAdminRepository(db), verifier, registry, sessions, tokens, logger)
	qnaService := service.NewQnaService(sqlite.NewQnaPostRepository(db), sqlite.NewQnaCommentRepository(db), verifier, logger)
	categoryService := service.NewCategoryService(categoryRepo)
	referenceService := service.NewReferenceService(sqlite.NewReferenceRepository(db), categoryRepo, storageSvc, logger)

	if cfg.Admin.Password == "" {
		logger.Warn("PORTAL_ADMIN_PASSWORD not set, skipping default admin bootstrap")
	} else if err := adminService.Bootstrap(ctx, cfg.Admin.Username, cfg.Admin.Password, cfg.Admin.Name); err != nil {
		logger.Fatalf("bootstrap admin: %v", err)
	}

	go sweepSessions(ctx, sessions, logger)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler := apphttp.NewHandler(
		adminService,
		qnaService,
		categoryService,
		referenceService,
		logger,
		apphttp.Options{
			CookieName:         cfg.Auth.CookieName,
			CookieSecure:       cfg.Auth.CookieSecure,
			SessionTTL:         cfg.SessionTTL(),
			LoginRatePerMinute: cfg.Auth.LoginRatePerMinute,
			LoginBurst:         cfg.Auth.LoginBurst,
			MaxUploadBytes:     cfg.Storage.MaxUploadMB << 20,
		},
	)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}

	logger.Info("bye")
}

func sweepSessions(ctx context.Context, sessions *auth.MemorySessionStore, logger *logrus.Logger) {
	ticker := time.NewTicker(sessionSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := sessions.Sweep(); n > 0 {
				logger.Debugf("expired %d admin sessions", n)
			}
		}
	}
}

func buildStorage(ctx context.Context, cfg config.Config, logger *logrus.Logger) (storage.Service, error) {
	if cfg.Storage.Driver == "local" {
		logger.Infof("storing uploads in %s", cfg.Storage.Local.Dir)
		return storage.NewLocalService(cfg.Storage.Local.Dir)
	}

	loadOpts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(cfg.Storage.Region),
	}
	if cfg.AWS.Profile != "" {
		loadOpts = append(loadOpts, awscfg.WithSharedConfigProfile(cfg.AWS.Profile))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Storage.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Storage.Endpoint)
			o.UsePathStyle = true
		}
	})
	logger.Infof("using s3 bucket %s (region %s)", cfg.Storage.Bucket, cfg.Storage.Region)
	return storage.NewS3Service(client, cfg.Storage.Bucket, cfg.Storage.KeyPrefix)
}
