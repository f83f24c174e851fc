package database

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Engine identifies the SQL engine behind a Context.
type Engine string

// Supported engines.
const (
	EngineSQLite   Engine = "sqlite"
	EnginePostgres Engine = "postgres"
)

const (
	// connectionTimeout bounds the ping performed when opening a connection.
	connectionTimeout = 5 * time.Second

	// dirPermissions is the permission mode for a created SQLite directory.
	dirPermissions = 0o750

	// sqlitePragmas are appended to every SQLite file DSN.
	sqlitePragmas = "_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL&_synchronous=NORMAL"

	// slowQueryThreshold is the duration above which gorm logs a query as slow.
	slowQueryThreshold = 200 * time.Millisecond
)

// Context is one independently configured ORM connection, the unit of
// separation between application data and identity data.
type Context struct {
	Name   string
	Engine Engine
	DB     *gorm.DB
	logger *slog.Logger
}

// Target is a parsed connection string.
type Target struct {
	Engine Engine
	// DSN is what is handed to the driver.
	DSN string
	// Path is the SQLite file path, empty for PostgreSQL and in-memory databases.
	Path string
}

// ParseConnectionString resolves a configured connection string into a driver target.
func ParseConnectionString(connStr string) (Target, error) {
	s := strings.TrimSpace(connStr)
	if s == "" {
		return Target{}, fmt.Errorf("connection string is empty")
	}

	lower := strings.ToLower(s)
	switch {
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return Target{Engine: EnginePostgres, DSN: s}, nil
	case strings.Contains(lower, "host="):
		return Target{Engine: EnginePostgres, DSN: s}, nil
	}

	path := s
	if strings.HasPrefix(lower, "data source=") {
		path = s[len("data source="):]
		if i := strings.Index(path, ";"); i >= 0 {
			path = path[:i]
		}
		path = strings.TrimSpace(path)
	} else if strings.HasPrefix(lower, "file:") {
		path = s[len("file:"):]
		if i := strings.Index(path, "?"); i >= 0 {
			path = path[:i]
		}
	}

	if path == "" {
		return Target{}, fmt.Errorf("sqlite connection string has no data source")
	}
	if path == ":memory:" {
		return Target{Engine: EngineSQLite, DSN: "file::memory:?_foreign_keys=on"}, nil
	}

	return Target{
		Engine: EngineSQLite,
		DSN:    fmt.Sprintf("file:%s?%s", path, sqlitePragmas),
		Path:   path,
	}, nil
}

// Open connects a named context to the database described by connStr, verifies
// connectivity, and configures the connection pool for the engine.
func Open(name, connStr string, logger *slog.Logger) (*Context, error) {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("context", name)

	target, err := ParseConnectionString(connStr)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	var dialector gorm.Dialector
	switch target.Engine {
	case EnginePostgres:
		dialector = postgres.Open(target.DSN)
	default:
		if target.Path != "" {
			if err := os.MkdirAll(filepath.Dir(target.Path), dirPermissions); err != nil {
				return nil, fmt.Errorf("%s: creating database directory: %w", name, err)
			}
		}
		dialector = sqlite.Open(target.DSN)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger: gormlogger.NewSlogLogger(log, gormlogger.Config{
			SlowThreshold:             slowQueryThreshold,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: open %s: %w", name, target.Engine, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("%s: resolve sql db handle: %w", name, err)
	}

	switch target.Engine {
	case EnginePostgres:
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(5 * time.Minute)
	default:
		// SQLite supports a single writer.
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("%s: ping %s: %w", name, target.Engine, err)
	}

	log.Info("database connection established", "engine", target.Engine)

	return &Context{
		Name:   name,
		Engine: target.Engine,
		DB:     db,
		logger: log,
	}, nil
}

// EnsureCreated creates every table in models that does not exist yet,
// together with its indexes. Existing tables are left untouched: there is no
// diffing and no migration. It reports whether any table was created.
func (c *Context) EnsureCreated(ctx context.Context, models ...any) (bool, error) {
	migrator := c.DB.WithContext(ctx).Migrator()

	created := false
	for _, model := range models {
		if migrator.HasTable(model) {
			continue
		}
		if err := migrator.CreateTable(model); err != nil {
			return created, fmt.Errorf("%s: create table for %T: %w", c.Name, model, err)
		}
		created = true
	}

	c.logger.Info("schema ensured", "created", created, "tables", len(models))
	return created, nil
}

// Ping verifies the connection is still usable.
func (c *Context) Ping(ctx context.Context) error {
	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the underlying connection pool.
func (c *Context) Close() error {
	if c == nil || c.DB == nil {
		return nil
	}
	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
