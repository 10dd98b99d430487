// Package app wires configuration, storage, the commerce client and the
// Telegram transport into a runnable shop bot.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nstonic/Fish-bot/core/bootstrap"
	coreconfig "github.com/nstonic/Fish-bot/core/config"
	"github.com/nstonic/Fish-bot/core/logger"
	"github.com/nstonic/Fish-bot/core/netutil"
	coretelegram "github.com/nstonic/Fish-bot/core/telegram"
	"github.com/nstonic/Fish-bot/core/telegram/router"
	"github.com/nstonic/Fish-bot/core/telegram/sender"
	"github.com/nstonic/Fish-bot/shop/bot"
	"github.com/nstonic/Fish-bot/shop/cart"
	"github.com/nstonic/Fish-bot/shop/moltin"
	"github.com/nstonic/Fish-bot/shop/storage"
	"github.com/nstonic/Fish-bot/shop/storage/pgstore"
	"github.com/nstonic/Fish-bot/shop/storage/redisstore"
	shoptelegram "github.com/nstonic/Fish-bot/shop/telegram"

	tele "gopkg.in/telebot.v4"
)

// App owns the long-lived dependencies of the bot.
type App struct {
	cfg      *Config
	store    storage.Store
	commerce *moltin.Client
	carts    *cart.Resolver

	dispatcher *bot.Dispatcher
}

// Bootstrap initializes logging, applies migrations when PostgreSQL is the
// session store and opens the store.
func Bootstrap(ctx context.Context, cfg *Config) (*App, error) {
	return bootstrapWith(ctx, cfg, nil)
}

func bootstrapWith(ctx context.Context, cfg *Config, loggerInit func(*coreconfig.Config) error) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: nil config")
	}
	opts := bootstrap.Options{Config: &cfg.Config, LoggerInit: loggerInit}
	if cfg.Storage.Driver == DriverPostgres {
		opts.Database = &cfg.Database
		opts.Migrations = bootstrap.Migrations{FS: pgstore.Migrations, Dir: pgstore.MigrationsDir}
	}
	res, err := bootstrap.Run(ctx, opts)
	if err != nil {
		return nil, err
	}

	var store storage.Store
	switch cfg.Storage.Driver {
	case DriverPostgres:
		store = pgstore.New(res.DB)
	case DriverMemory:
		store = storage.NewMemory()
	default:
		client, err := redisstore.Connect(ctx, cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("app: %w", err)
		}
		store = redisstore.New(client, cfg.Redis.Prefix)
	}
	logger.Info(ctx, logger.CompApp, "store.ready", slog.String("driver", cfg.Storage.Driver))

	commerce := moltin.New(moltin.Config{
		BaseURL:      cfg.Commerce.BaseURL,
		ClientID:     cfg.Commerce.ClientID,
		ClientSecret: cfg.Commerce.ClientSecret,
		PriceBookID:  cfg.Commerce.PriceBookID,
		Currency:     cfg.Commerce.Currency,
		TokenMargin:  time.Duration(cfg.Commerce.TokenMarginSeconds) * time.Second,
		HTTPClient: netutil.BuildHTTPClient(netutil.ClientOptions{
			Timeout: cfg.Commerce.Timeout(),
			Retries: cfg.Commerce.Retries,
		}),
	})

	return &App{
		cfg:      cfg,
		store:    store,
		commerce: commerce,
		carts:    cart.NewResolver(commerce),
	}, nil
}

// TelegramRunOptions builds the run options. The messenger and dispatcher
// are created in OnStart because they need the live bot.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	cfg := &a.cfg.Config
	return coretelegram.RunOptions{
		Config:   cfg,
		Registry: coretelegram.NewRegistry(),
		DispatcherOptions: sender.Options{
			Workers:    cfg.Workers.Sender,
			QueueSize:  cfg.Workers.SenderQueue,
			MaxRetries: cfg.Workers.SenderRetry,
		},
		Middlewares: coretelegram.DefaultMiddlewares(cfg, nil),
		OnStart:     a.start,
		OnStop:      a.stop,
	}, nil
}

func (a *App) start(ctx context.Context, rt coretelegram.Runtime) error {
	if rt.Bot == nil || rt.Dispatcher == nil || rt.Registry == nil {
		return errors.New("app: incomplete telegram runtime")
	}
	return a.wire(ctx, rt.Bot, rt.Dispatcher, rt.Registry)
}

func (a *App) wire(ctx context.Context, b *tele.Bot, out *sender.Dispatcher, reg *coretelegram.Registry) error {
	messenger := shoptelegram.NewMessenger(b, out, a.cfg.Telegram.AdminID)
	machine := bot.NewMachine(messenger, a.commerce, a.carts, a.store)
	a.dispatcher = bot.NewDispatcher(machine, a.store, messenger, messenger, bot.DispatcherOptions{
		Workers:   a.cfg.Workers.Events,
		QueueSize: a.cfg.Workers.EventQueue,
	})

	shoptelegram.NewHandler(a.dispatcher).Register(reg)
	reg.AddRoutes(router.CommandRoutes(reg)...)

	logger.Info(ctx, logger.CompApp, "wired",
		slog.Int("event_workers", a.cfg.Workers.Events),
		slog.Bool("alerts", a.cfg.Telegram.AdminID != 0),
	)
	return nil
}

func (a *App) stop(ctx context.Context, _ coretelegram.Runtime) error {
	if a.dispatcher != nil {
		a.dispatcher.Close()
		logger.Info(ctx, logger.CompApp, "events.drained")
	}
	return nil
}

// Close releases the session store.
func (a *App) Close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}
