package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/simp-lee/logger"
	"gorm.io/gorm"

	"github.com/mahabub-bd/purepac-admin/internal/backend"
	"github.com/mahabub-bd/purepac-admin/internal/config"
	"github.com/mahabub-bd/purepac-admin/internal/domain"
	"github.com/mahabub-bd/purepac-admin/internal/listing"
	"github.com/mahabub-bd/purepac-admin/internal/metrics"
	"github.com/mahabub-bd/purepac-admin/internal/middleware"
	"github.com/mahabub-bd/purepac-admin/internal/module/activity"
	"github.com/mahabub-bd/purepac-admin/internal/module/admin"
	"github.com/mahabub-bd/purepac-admin/internal/resource"
	"github.com/mahabub-bd/purepac-admin/internal/validation"
	"github.com/mahabub-bd/purepac-admin/web"
)

// App holds the core application dependencies and the HTTP server.
type App struct {
	engine *gin.Engine
	db     *gorm.DB
	logger *logger.Logger
	cfg    *config.Config
}

type httpServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

var newHTTPServer = func(addr string, handler http.Handler, writeTimeout time.Duration) httpServer {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       120 * time.Second,
	}
}

var notifyContext = func(parent context.Context, signals ...os.Signal) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, signals...)
}

const defaultWriteTimeout = 60 * time.Second

// New creates and wires a fully configured App from the given Config.
//
// It sets up logging, the activity database, the backend client, metrics,
// validation, the admin and activity modules, middleware, template rendering
// and routes.
func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	success := false

	// 1. Setup logger.
	log, err := config.SetupLogger(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	if cfg.Server.Mode == gin.DebugMode && cfg.Server.Host == "0.0.0.0" {
		log.Warn("insecure server config: debug mode on 0.0.0.0 exposes template hot reload and debug routes")
	}
	defer func() {
		if success {
			return
		}
		if err := log.Close(); err != nil {
			slog.Error("logger close error", slog.Any("error", err))
		}
	}()

	// 2. Setup database for the activity log.
	db, err := config.SetupDatabase(&cfg.Database, log.Logger)
	if err != nil {
		return nil, fmt.Errorf("setup database: %w", err)
	}
	defer func() {
		if success {
			return
		}
		sqlDB, err := db.DB()
		if err != nil {
			return
		}
		if err := sqlDB.Close(); err != nil {
			slog.Error("database close error", slog.Any("error", err))
		}
	}()

	// 3. The activity table is owned by the console, so it is migrated in
	// every mode.
	if err := config.Migrate(db, log.Logger, &domain.ActivityEntry{}); err != nil {
		return nil, err
	}

	// 4. Metrics and the backend client.
	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}
	backendCfg := backend.Config{
		BaseURL:    cfg.Backend.BaseURL,
		Token:      cfg.Backend.Token,
		Timeout:    cfg.Backend.BackendTimeout(),
		UploadPath: cfg.Backend.UploadPath,
		Logger:     log.Logger,
		RequestID:  middleware.RequestIDFromContext,
	}
	if m != nil {
		backendCfg.Observer = m
	}
	client, err := backend.New(backendCfg)
	if err != nil {
		return nil, fmt.Errorf("setup backend client: %w", err)
	}

	// 5. Register the form predicates on gin's binding validator too, so
	// bound API payloads share the console's rules.
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := validation.Register(v); err != nil {
			return nil, fmt.Errorf("register validators: %w", err)
		}
	}

	// 6. Manual dependency injection: repository → service → handler.
	activityRepo := activity.NewActivityRepository(db)
	activitySvc := activity.NewActivityService(activityRepo, activity.ServiceConfig{
		Keep:      cfg.Activity.Keep,
		RequestID: middleware.RequestIDFromContext,
		Logger:    log.Logger,
	})
	activityModule := activity.NewModule(activity.NewActivityHandler(activitySvc))

	adminHandler := admin.NewHandler(adminDeps(cfg, client, activitySvc, m, log.Logger))
	adminModule := admin.NewModule(adminHandler)

	// 7. Create Gin engine with custom middleware (not gin.Default()).
	if err := validateGinMode(cfg.Server.Mode); err != nil {
		return nil, err
	}
	gin.SetMode(cfg.Server.Mode)
	engine := gin.New()

	chain := []gin.HandlerFunc{
		middleware.Recovery(log.Logger),
		middleware.RequestIDWithConfig(middleware.RequestIDConfig{
			TrustUpstream: false,
		}),
		middleware.Logger(log.Logger),
	}
	if m != nil {
		chain = append(chain, m.Middleware())
	}
	engine.Use(chain...)

	// 8. Determine filesystem mode and set up template renderer.
	var fsys fs.FS
	if cfg.Server.Mode == gin.DebugMode {
		fsys, err = resolveDebugWebFS()
		if err != nil {
			return nil, fmt.Errorf("resolve debug template fs: %w", err)
		}
	} else {
		fsys = web.EmbeddedFS
	}

	renderer, err := NewTemplateRenderer(fsys, cfg.Server.Mode == gin.DebugMode)
	if err != nil {
		return nil, fmt.Errorf("setup template renderer: %w", err)
	}
	engine.HTMLRender = renderer

	// 9. Resolve CSRF secret.
	csrfSecret := cfg.Server.CSRFSecret
	if isPlaceholderCSRFSecret(csrfSecret) {
		if cfg.Server.Mode == gin.ReleaseMode {
			return nil, errors.New("csrf_secret must be a non-placeholder value in release mode")
		}

		b := make([]byte, 32)
		if _, err := rand.Read(b); err != nil {
			return nil, fmt.Errorf("generate csrf secret: %w", err)
		}
		csrfSecret = hex.EncodeToString(b)
		log.Warn("no csrf_secret configured, using random secret in non-release mode (will change on restart)")
	}

	// 10. Register all routes.
	deps := &RouteDeps{
		Modules:    []Module{adminModule, activityModule},
		DB:         db,
		Backend:    client,
		Mode:       cfg.Server.Mode,
		CSRFSecret: csrfSecret,
		BodyLimit:  adminHandler.BodyLimit,
	}
	if m != nil {
		deps.Metrics = m.Handler()
		deps.MetricsPath = cfg.Metrics.Path
	}
	if err := RegisterRoutes(engine, deps); err != nil {
		return nil, fmt.Errorf("register routes: %w", err)
	}

	success = true
	return &App{
		engine: engine,
		db:     db,
		logger: log,
		cfg:    cfg,
	}, nil
}

// adminDeps assembles the admin handler: the backend catalog plus the local
// activity log screen.
func adminDeps(cfg *config.Config, client *backend.Client, svc domain.ActivityService, m *metrics.Metrics, log *slog.Logger) admin.Deps {
	defs := resource.Default().All()
	defs = append(defs, activity.Definition(activity.ResourceOptions(defs)))

	d := admin.Deps{
		Backend:     client,
		Validator:   validation.New(),
		Definitions: defs,
		Sources: map[string]listing.Source[backend.Record]{
			activity.Key: activity.NewSource(svc),
		},
		Activity: svc,
		Logger:   log,
		Config: admin.Config{
			DefaultLimit:   cfg.Listing.DefaultLimit,
			MaxLimit:       cfg.Listing.MaxLimit,
			PagerWindow:    cfg.Listing.PagerWindow,
			MaxUploadBytes: cfg.Backend.MaxUploadBytes(),
		},
	}
	if m != nil {
		d.Metrics = m
	}
	return d
}

func isPlaceholderCSRFSecret(secret string) bool {
	trimmed := strings.TrimSpace(secret)
	if trimmed == "" {
		return true
	}

	switch strings.ToLower(trimmed) {
	case "change-me-to-a-random-secret", "change-me-in-env":
		return true
	default:
		return false
	}
}

func validateGinMode(mode string) error {
	switch mode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
		return nil
	default:
		return fmt.Errorf("invalid server.mode %q: must be one of %q, %q, %q", mode, gin.DebugMode, gin.ReleaseMode, gin.TestMode)
	}
}

// writeTimeout returns server.timeout when set, else the default.
func writeTimeout(raw string) time.Duration {
	if d, err := time.ParseDuration(strings.TrimSpace(raw)); err == nil && d > 0 {
		return d
	}
	return defaultWriteTimeout
}

func resolveDebugWebFS() (fs.FS, error) {
	if _, file, _, ok := runtime.Caller(0); ok {
		webDir := filepath.Clean(filepath.Join(filepath.Dir(file), "..", "..", "web"))
		if stat, err := os.Stat(webDir); err == nil && stat.IsDir() {
			return os.DirFS(webDir), nil
		}
	}

	exePath, err := os.Executable()
	if err == nil {
		webDir := filepath.Join(filepath.Dir(exePath), "web")
		if stat, err := os.Stat(webDir); err == nil && stat.IsDir() {
			return os.DirFS(webDir), nil
		}
	}

	return nil, errors.New("debug web directory not found")
}

// Run starts the HTTP server and blocks until a shutdown signal is received.
// It performs graceful shutdown with a 5-second timeout and closes the
// activity database.
func (a *App) Run() error {
	if a == nil {
		return errors.New("app is nil")
	}
	if a.cfg == nil {
		return errors.New("app config is nil")
	}
	if a.engine == nil {
		return errors.New("app engine is nil")
	}

	log := slog.Default()
	if a.logger != nil {
		log = a.logger.Logger
	}

	addr := fmt.Sprintf("%s:%d", a.cfg.Server.Host, a.cfg.Server.Port)
	srv := newHTTPServer(addr, a.engine, writeTimeout(a.cfg.Server.Timeout))

	// Listen for SIGINT / SIGTERM.
	ctx, stop := notifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("server started", slog.String("addr", addr), slog.String("backend", a.cfg.Backend.BaseURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var runErr error

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		runErr = fmt.Errorf("server error: %w", err)
	}

	if runErr == nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown error", slog.Any("error", err))
		}
	}

	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				log.Error("database close error", slog.Any("error", err))
			} else {
				log.Info("database connection closed")
			}
		}
	}

	log.Info("server stopped")
	if a.logger != nil {
		if err := a.logger.Close(); err != nil {
			slog.Error("logger close error", slog.Any("error", err))
		}
	}

	return runErr
}

// Handler exposes the configured engine, e.g. for httptest.
func (a *App) Handler() http.Handler {
	return a.engine
}
