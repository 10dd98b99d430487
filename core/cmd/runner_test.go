package cmd

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/nstonic/Fish-bot/core/config"
	coretelegram "github.com/nstonic/Fish-bot/core/telegram"
)

type carrier struct{ cfg *coreconfig.Config }

func (c carrier) CoreConfig() *coreconfig.Config { return c.cfg }

type fakeApp struct {
	closed bool
}

func (a *fakeApp) TelegramRunOptions() (coretelegram.RunOptions, error) {
	return coretelegram.RunOptions{Config: &coreconfig.Config{}}, nil
}

func (a *fakeApp) Close() error {
	a.closed = true
	return nil
}

func TestRunWiresLifecycle(t *testing.T) {
	t.Setenv("FISHBOT_TEST_CONFIG", "config.yaml")
	app := &fakeApp{}
	var loaded string
	var hooks []string

	err := Run(Options{
		ConfigEnvVar: "FISHBOT_TEST_CONFIG",
		LoadConfig: func(path string) (ConfigCarrier, error) {
			loaded = path
			return carrier{cfg: &coreconfig.Config{}}, nil
		},
		Bootstrap: func(context.Context, ConfigCarrier) (TelegramApp, error) { return app, nil },
		ShutdownLogger: func() error { return nil },
		RunTelegram: func(ctx context.Context, opts coretelegram.RunOptions) error {
			require.NoError(t, opts.OnStart(ctx, coretelegram.Runtime{}))
			hooks = append(hooks, "start")
			require.NoError(t, opts.OnStop(ctx, coretelegram.Runtime{}))
			hooks = append(hooks, "stop")
			return nil
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "config.yaml", loaded)
	assert.Equal(t, []string{"start", "stop"}, hooks)
	assert.True(t, app.closed)
}

func TestRunRequiresConfigPath(t *testing.T) {
	t.Setenv("FISHBOT_TEST_CONFIG", "")
	err := Run(Options{
		ConfigEnvVar: "FISHBOT_TEST_CONFIG",
		LoadConfig:   func(string) (ConfigCarrier, error) { return nil, nil },
		Bootstrap:    func(context.Context, ConfigCarrier) (TelegramApp, error) { return nil, nil },
	})
	assert.ErrorContains(t, err, "config path not provided")
}

func TestRunBootstrapFailure(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	err := Run(Options{
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(string) (ConfigCarrier, error) {
			return carrier{cfg: &coreconfig.Config{}}, nil
		},
		Bootstrap: func(context.Context, ConfigCarrier) (TelegramApp, error) {
			return nil, errors.New("redis down")
		},
		ShutdownLogger: func() error { return nil },
	})
	assert.ErrorContains(t, err, "redis down")
}
