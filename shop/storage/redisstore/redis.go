// Package redisstore keeps sessions and customer identities in Redis.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nstonic/Fish-bot/core/logger"
	"github.com/nstonic/Fish-bot/shop/storage"
)

const (
	fieldState  = "state"
	fieldResume = "resume_product_id"
	fieldView   = "view_message_id"
)

// Config holds Redis connection settings.
type Config struct {
	URL          string `yaml:"url" envconfig:"REDIS_URL"`
	Prefix       string `yaml:"prefix" envconfig:"REDIS_PREFIX"`
	ReadTimeout  int    `yaml:"read_timeout_seconds" envconfig:"REDIS_READ_TIMEOUT"`
	WriteTimeout int    `yaml:"write_timeout_seconds" envconfig:"REDIS_WRITE_TIMEOUT"`
	DialTimeout  int    `yaml:"dial_timeout_seconds" envconfig:"REDIS_DIAL_TIMEOUT"`
}

// Connect parses the URL, applies timeouts and pings the server.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("redis url: %w", err)
	}
	if cfg.ReadTimeout > 0 {
		opts.ReadTimeout = time.Duration(cfg.ReadTimeout) * time.Second
	}
	if cfg.WriteTimeout > 0 {
		opts.WriteTimeout = time.Duration(cfg.WriteTimeout) * time.Second
	}
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = time.Duration(cfg.DialTimeout) * time.Second
	}

	client := redis.NewClient(opts)
	start := time.Now()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		logger.Error(ctx, logger.CompStore, "store.connect",
			slog.String("driver", "redis"),
			slog.Duration("duration", logger.Took(start)),
			slog.Any("err", err),
		)
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	logger.Info(ctx, logger.CompStore, "store.connect",
		slog.String("driver", "redis"),
		slog.String("status", "ok"),
		slog.Duration("duration", logger.Took(start)),
	)
	return client, nil
}

// Store implements storage.Store on a redis.Cmdable.
type Store struct {
	rdb    redis.Cmdable
	prefix string
	closer func() error
}

// New wraps rdb. When rdb is a *redis.Client, Close closes it.
func New(rdb redis.Cmdable, prefix string) *Store {
	if prefix == "" {
		prefix = "fishbot"
	}
	s := &Store{rdb: rdb, prefix: prefix, closer: func() error { return nil }}
	if c, ok := rdb.(*redis.Client); ok {
		s.closer = c.Close
	}
	return s
}

func (s *Store) sessionKey(chatID int64) string {
	return s.prefix + ":session:" + strconv.FormatInt(chatID, 10)
}

func (s *Store) customerKey(userID int64) string {
	return s.prefix + ":customer:" + strconv.FormatInt(userID, 10)
}

func (s *Store) GetState(ctx context.Context, chatID int64) (storage.State, bool, error) {
	label, err := s.rdb.HGet(ctx, s.sessionKey(chatID), fieldState).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get state: %w", err)
	}
	state, ok := storage.ParseState(label)
	if !ok {
		s.logCorrupt(ctx, chatID, label)
		return "", false, nil
	}
	return state, true, nil
}

func (s *Store) SetState(ctx context.Context, chatID int64, state storage.State) error {
	if err := storage.ValidateSession(storage.Session{State: state}); err != nil {
		return err
	}
	if err := s.rdb.HSet(ctx, s.sessionKey(chatID), fieldState, string(state)).Err(); err != nil {
		return fmt.Errorf("redis set state: %w", err)
	}
	return nil
}

func (s *Store) GetSession(ctx context.Context, chatID int64) (storage.Session, bool, error) {
	fields, err := s.rdb.HGetAll(ctx, s.sessionKey(chatID)).Result()
	if err != nil {
		return storage.Session{}, false, fmt.Errorf("redis get session: %w", err)
	}
	label, ok := fields[fieldState]
	if !ok {
		return storage.Session{}, false, nil
	}
	state, ok := storage.ParseState(label)
	if !ok {
		s.logCorrupt(ctx, chatID, label)
		return storage.Session{}, false, nil
	}
	sess := storage.Session{State: state, ResumeProductID: fields[fieldResume]}
	if v := fields[fieldView]; v != "" {
		if id, err := strconv.Atoi(v); err == nil {
			sess.ViewMessageID = id
		}
	}
	return sess, true, nil
}

func (s *Store) SetSession(ctx context.Context, chatID int64, sess storage.Session) error {
	if err := storage.ValidateSession(sess); err != nil {
		return err
	}
	err := s.rdb.HSet(ctx, s.sessionKey(chatID),
		fieldState, string(sess.State),
		fieldResume, sess.ResumeProductID,
		fieldView, strconv.Itoa(sess.ViewMessageID),
	).Err()
	if err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}
	return nil
}

func (s *Store) GetCustomerID(ctx context.Context, userID int64) (string, bool, error) {
	id, err := s.rdb.Get(ctx, s.customerKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get customer: %w", err)
	}
	return id, true, nil
}

func (s *Store) SetCustomerID(ctx context.Context, userID int64, customerID string) error {
	created, err := s.rdb.SetNX(ctx, s.customerKey(userID), customerID, 0).Result()
	if err != nil {
		return fmt.Errorf("redis set customer: %w", err)
	}
	if !created {
		logger.Debug(ctx, logger.CompStore, "store.customer.exists", slog.String("driver", "redis"))
	}
	return nil
}

func (s *Store) Close() error { return s.closer() }

func (s *Store) logCorrupt(ctx context.Context, chatID int64, label string) {
	logger.Warn(ctx, logger.CompStore, "store.state.invalid",
		slog.String("driver", "redis"),
		slog.Int64("chat_id", chatID),
		slog.String("state", logger.SanitizeLimit(label, 64)),
	)
}

var _ storage.Store = (*Store)(nil)
