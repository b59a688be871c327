package config

import (
	"fmt"
	"strings"
)

// Config holds everything one probe run needs.
type Config struct {
	User        string  `mapstructure:"user"`
	Account     string  `mapstructure:"account"`
	Warehouse   string  `mapstructure:"warehouse"`
	KeypairPath string  `mapstructure:"sf_keypair"`
	Passphrase  string  `mapstructure:"passphrase"`
	Query       string  `mapstructure:"sql_query"`
	Logging     Logging `mapstructure:"logging"`
}

// Logging holds the log settings.
type Logging struct {
	Level string `mapstructure:"level"`
}

// Validate checks that every required field is present.
func (c Config) Validate() error {
	var missing []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{"user", c.User},
		{"account", c.Account},
		{"warehouse", c.Warehouse},
		{"sf_keypair", c.KeypairPath},
		{"sql_query", c.Query},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required settings: %s", strings.Join(missing, ", "))
	}
	return nil
}

// String returns a loggable representation without the passphrase.
func (c Config) String() string {
	return fmt.Sprintf("Config{User: %s, Account: %s, Warehouse: %s, Keypair: %s, Query: %s, Passphrase: [HIDDEN]}",
		c.User, c.Account, c.Warehouse, c.KeypairPath, c.Query)
}
