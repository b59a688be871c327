package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load(viper.New())
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Empty(t, cfg.User)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("SNOWBEAT_USER", "PROBE_USER")
	t.Setenv("SNOWBEAT_ACCOUNT", "ACME-XY12345")
	t.Setenv("SNOWBEAT_WAREHOUSE", "WH1")
	t.Setenv("SNOWBEAT_SF_KEYPAIR", "/etc/keys/probe.p8")
	t.Setenv("SNOWBEAT_SQL_QUERY", "sql_check_version")
	t.Setenv("SNOWBEAT_LOGGING_LEVEL", "debug")

	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "PROBE_USER", cfg.User)
	assert.Equal(t, "ACME-XY12345", cfg.Account)
	assert.Equal(t, "WH1", cfg.Warehouse)
	assert.Equal(t, "/etc/keys/probe.p8", cfg.KeypairPath)
	assert.Equal(t, "sql_check_version", cfg.Query)
	assert.Equal(t, "debug", cfg.Logging.Level)
	require.NoError(t, cfg.Validate())
}

func TestResolvePassphrasePrefersExplicitValue(t *testing.T) {
	cfg := Config{User: "PROBE_USER", Passphrase: "from-flag"}
	assert.Equal(t, "from-flag", ResolvePassphrase(cfg))
}

func TestResolvePassphraseEmptyWithoutUser(t *testing.T) {
	assert.Empty(t, ResolvePassphrase(Config{}))
}

func TestResolvePassphraseFromKeyring(t *testing.T) {
	keyring.MockInit()
	require.NoError(t, keyring.Set(keyringService, "PROBE_USER", "from-keyring"))

	assert.Equal(t, "from-keyring", ResolvePassphrase(Config{User: "PROBE_USER"}))
}
