package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"github.com/OssamaKing555/Beatrix-Media-Hub-sub001/data"
	"github.com/OssamaKing555/Beatrix-Media-Hub-sub001/internal/app"
	"github.com/OssamaKing555/Beatrix-Media-Hub-sub001/internal/auth"
	"github.com/OssamaKing555/Beatrix-Media-Hub-sub001/internal/content"
	"github.com/OssamaKing555/Beatrix-Media-Hub-sub001/internal/observability"
	"github.com/OssamaKing555/Beatrix-Media-Hub-sub001/internal/platform/cache"
	"github.com/OssamaKing555/Beatrix-Media-Hub-sub001/internal/security"
	"github.com/OssamaKing555/Beatrix-Media-Hub-sub001/internal/upload"
	"github.com/OssamaKing555/Beatrix-Media-Hub-sub001/internal/view"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	seed, err := adminSeed(cfg)
	if err != nil {
		logger.Error("seed accounts", slog.Any("error", err))
		os.Exit(1)
	}

	sec := security.NewService(security.Config{
		SigningKey:       cfg.JWTSecret,
		AuthTokenTTL:     cfg.AuthTokenTTL,
		RateLimitWindow:  cfg.RateLimitWindow,
		RateLimitMax:     cfg.RateLimitMax,
		EventLogCapacity: cfg.SecurityLogCapacity,
	})

	store, err := content.NewStore(data.Fixtures)
	if err != nil {
		logger.Error("load fixtures", slog.Any("error", err))
		os.Exit(1)
	}

	redisClient := cache.NewOptional(ctx, cfg.RedisAddr, logger)
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}
	contentCache := content.NewCache(redisClient, cfg.ContentCacheTTL, logger)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		Security:       sec,
		Metrics:        metrics,
		Templates:      templates,
		AuthHandler:    auth.NewHandler(logger, auth.NewService(auth.NewMemoryRepository(seed)), sec, cfg.IsProduction()),
		ContentHandler: content.NewHandler(logger, store, contentCache, sec),
		ContentStore:   store,
		UploadHandler:  upload.NewHandler(logger, cfg.UploadMaxBytes),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("starting beatrix media hub", slog.String("addr", cfg.AppAddr), slog.String("env", cfg.AppEnv))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		sec.RunSweeper(groupCtx, cfg.SweepInterval, logger)
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		logger.Error("server error", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

// adminSeed builds the back-office account list from configuration. In
// production a bcrypt hash must be supplied; in development a plaintext
// password (or the documented default) is hashed at startup.
func adminSeed(cfg *app.Config) ([]auth.User, error) {
	hash := cfg.AdminPasswordHash
	if hash == "" {
		password := cfg.AdminPassword
		if password == "" {
			if cfg.IsProduction() {
				return nil, errors.New("admin credentials not configured")
			}
			password = "beatrix-dev-password"
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		hash = string(hashed)
	}
	return []auth.User{
		{
			ID:           "user-admin",
			Email:        cfg.AdminEmail,
			Name:         "Site Administrator",
			Role:         auth.RoleAdmin,
			PasswordHash: hash,
			IsActive:     true,
		},
	}, nil
}
