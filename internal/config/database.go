package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// SQLiteMemory is the sqlite path of a private in-memory database.
const SQLiteMemory = ":memory:"

const (
	defaultMaxIdleConns    = 10
	defaultMaxOpenConns    = 100
	defaultConnMaxLifetime = time.Hour
)

// dbPool is a PoolConfig with defaults applied and the lifetime parsed.
type dbPool struct {
	maxIdle  int
	maxOpen  int
	lifetime time.Duration
}

// SetupDatabase opens the activity store. SQL statements are logged by gorm
// only when logger has debug enabled; otherwise just slow queries and errors.
func SetupDatabase(cfg *DatabaseConfig, logger *slog.Logger) (*gorm.DB, error) {
	if cfg == nil {
		return nil, errors.New("database config is nil")
	}
	if logger == nil {
		return nil, errors.New("logger is nil")
	}

	dialector, err := openDialector(cfg)
	if err != nil {
		return nil, err
	}
	pool, err := resolvePool(cfg)
	if err != nil {
		return nil, err
	}

	mode := gormlogger.Warn
	if logger.Enabled(context.Background(), slog.LevelDebug) {
		mode = gormlogger.Info
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Default.LogMode(mode)})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(pool.maxIdle)
	sqlDB.SetMaxOpenConns(pool.maxOpen)
	sqlDB.SetConnMaxLifetime(pool.lifetime)

	logger.Info("database connected",
		slog.String("driver", cfg.Driver),
		slog.Int("max_idle_conns", pool.maxIdle),
		slog.Int("max_open_conns", pool.maxOpen),
		slog.Duration("conn_max_lifetime", pool.lifetime),
	)
	return db, nil
}

// Migrate creates or updates the tables of models.
func Migrate(db *gorm.DB, logger *slog.Logger, models ...any) error {
	if db == nil {
		return errors.New("database is nil")
	}
	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	if logger != nil {
		logger.Info("database migrated", slog.Int("models", len(models)))
	}
	return nil
}

func openDialector(cfg *DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "sqlite":
		path := cfg.SQLite.Path
		if dir := filepath.Dir(path); dir != "." && !isSQLiteMemory(path) {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create sqlite directory %q: %w", dir, err)
			}
		}
		return sqlite.Open(path), nil
	case "postgres":
		return postgres.Open(buildPostgresDSN(&cfg.Postgres)), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
}

// resolvePool fills zero pool values with defaults. Every connection to a
// private in-memory sqlite database sees its own empty database, so those
// are pinned to a single connection.
func resolvePool(cfg *DatabaseConfig) (dbPool, error) {
	p := dbPool{
		maxIdle:  cfg.Pool.MaxIdleConns,
		maxOpen:  cfg.Pool.MaxOpenConns,
		lifetime: defaultConnMaxLifetime,
	}
	if p.maxIdle <= 0 {
		p.maxIdle = defaultMaxIdleConns
	}
	if p.maxOpen <= 0 {
		p.maxOpen = defaultMaxOpenConns
	}
	if s := strings.TrimSpace(cfg.Pool.ConnMaxLifetime); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			return dbPool{}, fmt.Errorf("invalid pool.conn_max_lifetime %q: %w", cfg.Pool.ConnMaxLifetime, err)
		}
		p.lifetime = d
	}
	if cfg.Driver == "sqlite" && isSQLiteMemory(cfg.SQLite.Path) {
		p.maxIdle, p.maxOpen = 1, 1
	}
	return p, nil
}

func isSQLiteMemory(path string) bool {
	return path == SQLiteMemory || strings.HasPrefix(path, "file::memory:")
}

func buildPostgresDSN(cfg *PostgresConfig) string {
	if cfg == nil {
		return ""
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:   cfg.DBName,
	}
	if cfg.User != "" || cfg.Password != "" {
		u.User = url.UserPassword(cfg.User, cfg.Password)
	}
	if cfg.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {cfg.SSLMode}}.Encode()
	}
	return u.String()
}
