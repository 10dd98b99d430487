package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseYAML = `
telegram:
  token: tg-token
  admin_id: 77
commerce:
  client_id: id
  client_secret: secret
  pricebook_id: pb
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, baseYAML+"redis:\n  url: redis://localhost:6379/0\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "tg-token", cfg.Telegram.Token)
	assert.EqualValues(t, 77, cfg.CoreConfig().Telegram.AdminID)
	assert.Equal(t, DriverRedis, cfg.Storage.Driver)
	assert.Equal(t, 10, cfg.Commerce.TimeoutSeconds)
	assert.Equal(t, 300, cfg.Commerce.TokenMarginSeconds)
	assert.Equal(t, 8, cfg.Workers.Events)
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, baseYAML)
	t.Setenv("STORAGE_DRIVER", "Postgres")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_NAME", "fish")
	t.Setenv("MOLTIN_CLIENT_SECRET", "env-secret")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DriverPostgres, cfg.Storage.Driver)
	assert.Equal(t, "5432", cfg.Database.Port)
	assert.Equal(t, "env-secret", cfg.Commerce.ClientSecret)
}

func TestNormalizeRejects(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{}
		cfg.Telegram.Token = "t"
		cfg.Commerce = CommerceConfig{ClientID: "id", ClientSecret: "s", PriceBookID: "pb"}
		cfg.Storage.Driver = DriverMemory
		return cfg
	}
	require.NoError(t, Normalize(valid()))

	cases := map[string]func(*Config){
		"no client":       func(c *Config) { c.Commerce.ClientID = "" },
		"no pricebook":    func(c *Config) { c.Commerce.PriceBookID = " " },
		"redis no url":    func(c *Config) { c.Storage.Driver = "" },
		"postgres no db":  func(c *Config) { c.Storage.Driver = DriverPostgres },
		"unknown driver":  func(c *Config) { c.Storage.Driver = "etcd" },
		"no telegram key": func(c *Config) { c.Telegram.Token = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := valid()
			mutate(cfg)
			assert.Error(t, Normalize(cfg))
		})
	}
}

func TestTokenMarginFloor(t *testing.T) {
	cfg := &Config{}
	cfg.Telegram.Token = "t"
	cfg.Commerce = CommerceConfig{ClientID: "id", ClientSecret: "s", PriceBookID: "pb", TokenMarginSeconds: 60}
	cfg.Storage.Driver = DriverMemory
	require.NoError(t, Normalize(cfg))
	assert.Equal(t, 300, cfg.Commerce.TokenMarginSeconds)
}
