package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"

	"sqlbridge/internal/core"
	"sqlbridge/internal/registry"
)

// DBConfig is one entry of the databases list. Either DSN or the discrete
// connection fields are given.
type DBConfig struct {
	Name     string            `mapstructure:"name"`
	Dialect  string            `mapstructure:"dialect"`
	DSN      string            `mapstructure:"dsn"`
	Host     string            `mapstructure:"host"`
	Port     int               `mapstructure:"port"`
	User     string            `mapstructure:"user"`
	Password string            `mapstructure:"password"`
	Database string            `mapstructure:"database"`
	File     string            `mapstructure:"file"`
	Params   map[string]string `mapstructure:"params"`
	Active   bool              `mapstructure:"active"`
}

// ConnConfig converts the entry for the registry.
func (c DBConfig) ConnConfig() core.ConnConfig {
	return core.ConnConfig{
		Dialect:  registry.Synonym(c.Dialect),
		DSN:      c.DSN,
		Host:     c.Host,
		Port:     c.Port,
		User:     c.User,
		Password: c.Password,
		Database: c.Database,
		File:     c.File,
		Params:   c.Params,
	}
}

var errNoActive = errors.New("no active database found in config (set active: true)")

// GetActiveDBConfig returns the currently active database configuration.
func GetActiveDBConfig() (*DBConfig, error) {
	var configs []DBConfig
	if err := viper.UnmarshalKey("databases", &configs); err != nil {
		return nil, fmt.Errorf("failed to parse databases config: %w", err)
	}

	var active *DBConfig
	for i := range configs {
		if !configs[i].Active {
			continue
		}
		if active != nil {
			return nil, fmt.Errorf("multiple active databases found (only one can be active)")
		}
		active = &configs[i]
	}
	if active == nil {
		return nil, errNoActive
	}
	return active, nil
}

// connectionSource picks the connection: --dsn or database.dsn first, then
// the active databases entry.
func connectionSource() (any, core.Dialect, error) {
	fallback := registry.Synonym(viper.GetString("database.dialect"))
	if s := viper.GetString("database.dsn"); s != "" {
		return s, fallback, nil
	}
	active, err := GetActiveDBConfig()
	if err != nil {
		if errors.Is(err, errNoActive) {
			return nil, fallback, fmt.Errorf("database.dsn is required (via --dsn, SQLBRIDGE_DATABASE_DSN or config)")
		}
		return nil, fallback, err
	}
	Logger.Info("using configured database", "name", active.Name)
	return active.ConnConfig(), fallback, nil
}
