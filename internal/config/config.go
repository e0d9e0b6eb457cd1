// Package config resolves the logger settings from flags, environment and an
// optional YAML file.
package config

import (
	"fmt"
	"strings"
	"time"

	"obdlog/internal/session"
	"obdlog/internal/transport"

	"github.com/spf13/viper"
)

const EnvPrefix = "OBDLOG"

type Config struct {
	Debug    bool          `mapstructure:"debug"`
	Mock     bool          `mapstructure:"mock"`
	Echo     bool          `mapstructure:"echo"`
	NoTUI    bool          `mapstructure:"no-tui"`
	Address  string        `mapstructure:"address"`
	Backend  string        `mapstructure:"backend"`
	Baud     int           `mapstructure:"baud"`
	Period   time.Duration `mapstructure:"period"`
	Duration time.Duration `mapstructure:"duration"`
	Output   string        `mapstructure:"output"`
	HTTP     string        `mapstructure:"http"`
}

// SetDefaults registers the default of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("debug", false)
	v.SetDefault("mock", false)
	v.SetDefault("echo", false)
	v.SetDefault("no-tui", false)
	v.SetDefault("address", transport.DefaultAddress())
	v.SetDefault("backend", transport.BackendTarm)
	v.SetDefault("baud", transport.DefaultBaud)
	v.SetDefault("period", session.DefaultPeriod)
	v.SetDefault("duration", time.Duration(0))
	v.SetDefault("output", "")
	v.SetDefault("http", "")
}

// Load reads the configuration from v. Environment variables use the OBDLOG_
// prefix with dashes replaced by underscores (OBDLOG_NO_TUI). When the
// "config" key names a file it is read as YAML before unmarshalling.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) Validate() error {
	if c.Period <= 0 {
		return fmt.Errorf("invalid period %s: must be > 0", c.Period)
	}
	if c.Duration < 0 {
		return fmt.Errorf("invalid duration %s: must be >= 0", c.Duration)
	}
	if c.Baud <= 0 {
		return fmt.Errorf("invalid baud rate %d", c.Baud)
	}
	switch c.Backend {
	case transport.BackendTarm, transport.BackendBugst:
	default:
		return fmt.Errorf("%w: %q", transport.ErrUnknownBackend, c.Backend)
	}
	if !c.Mock && c.Address == "" {
		return fmt.Errorf("no adapter address configured")
	}
	return nil
}

// OutputPath returns the CSV path for the session with the given id.
func (c *Config) OutputPath(sessionID string) string {
	if c.Output != "" {
		return c.Output
	}
	return fmt.Sprintf("session-%s.csv", sessionID)
}
