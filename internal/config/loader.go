package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"github.com/zalando/go-keyring"
)

const (
	configDir  = ".snowbeat"
	configFile = "config"
	configType = "yaml"
	envPrefix  = "SNOWBEAT"

	keyringService = "snowbeat"
)

// Load reads the optional ~/.snowbeat/config.yaml and SNOWBEAT_*
// environment variables into v. Flag values bound to v by the caller take
// precedence over both.
func Load(v *viper.Viper) (Config, error) {
	dir, err := configDirPath()
	if err != nil {
		return Config{}, fmt.Errorf("config dir: %w", err)
	}

	v.SetConfigName(configFile)
	v.SetConfigType(configType)
	v.AddConfigPath(dir)

	v.SetDefault("logging.level", "info")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	bindEnvironment(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	return cfg, nil
}

// bindEnvironment registers every key so env-only values survive Unmarshal.
func bindEnvironment(v *viper.Viper) {
	for key, envVar := range map[string]string{
		"user":          "SNOWBEAT_USER",
		"account":       "SNOWBEAT_ACCOUNT",
		"warehouse":     "SNOWBEAT_WAREHOUSE",
		"sf_keypair":    "SNOWBEAT_SF_KEYPAIR",
		"passphrase":    "SNOWBEAT_PASSPHRASE",
		"sql_query":     "SNOWBEAT_SQL_QUERY",
		"logging.level": "SNOWBEAT_LOGGING_LEVEL",
	} {
		_ = v.BindEnv(key, envVar)
	}
}

// ResolvePassphrase returns the configured passphrase, falling back to the
// OS keyring entry for the user. A missing entry is not an error: most
// probe keys are unencrypted.
func ResolvePassphrase(cfg Config) string {
	if cfg.Passphrase != "" {
		return cfg.Passphrase
	}
	if cfg.User == "" {
		return ""
	}

	secret, err := keyring.Get(keyringService, cfg.User)
	if err != nil {
		return ""
	}
	return secret
}

func configDirPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, configDir), nil
}
