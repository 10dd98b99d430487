package bootstrap

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/nstonic/Fish-bot/core/config"
	coredatabase "github.com/nstonic/Fish-bot/core/database"
	"github.com/nstonic/Fish-bot/core/logger"
)

// Migrations points at an embedded migration set.
type Migrations struct {
	FS  fs.FS
	Dir string
}

// Options control the generic bootstrap pipeline.
type Options struct {
	Config *coreconfig.Config
	// Database is optional; nil skips the connection and migrations.
	Database   *coredatabase.Config
	Migrations Migrations

	LoggerInit func(*coreconfig.Config) error
	Connect    func(context.Context, coredatabase.Config) (*sqlx.DB, error)
	Migrate    func(context.Context, coredatabase.Config, fs.FS, string) error
}

// Result exposes infrastructure initialized by the bootstrap pipeline.
type Result struct {
	DB *sqlx.DB
}

// Run initializes the logger and, when configured, connects to PostgreSQL
// and applies pending migrations.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}

	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = logger.InitLogger
	}
	if err := loggerInit(opts.Config); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	if opts.Database == nil {
		return &Result{}, nil
	}

	migrate := opts.Migrate
	if migrate == nil {
		migrate = coredatabase.RunMigrations
	}
	if opts.Migrations.FS != nil {
		if err := migrate(ctx, *opts.Database, opts.Migrations.FS, opts.Migrations.Dir); err != nil {
			return nil, fmt.Errorf("bootstrap: migrations failed: %w", err)
		}
	}

	connect := opts.Connect
	if connect == nil {
		connect = coredatabase.Connect
	}
	db, err := connect(ctx, *opts.Database)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: database initialization failed: %w", err)
	}
	return &Result{DB: db}, nil
}
