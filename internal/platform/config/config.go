package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Tokens    TokensConfig    `mapstructure:"tokens"`
	Groups    []GroupConfig   `mapstructure:"groups"`
	Options   OptionsConfig   `mapstructure:"options"`
	Admin     AdminConfig     `mapstructure:"admin"`
	Workers   WorkersConfig   `mapstructure:"workers"`
	Console   ConsoleConfig   `mapstructure:"console"`
}

type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

type DatabaseConfig struct {
	URL            string `mapstructure:"url"`
	MaxConnections int    `mapstructure:"max_connections"`
	MigrationsPath string `mapstructure:"migrations_path"`
}

type JWTConfig struct {
	Secret         string        `mapstructure:"secret"`
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`
}

type RateLimitConfig struct {
	APIReadPerMinute  int `mapstructure:"api_read_per_minute"`
	APIWritePerMinute int `mapstructure:"api_write_per_minute"`
	KeyPerMinute      int `mapstructure:"key_per_minute"`
}

type LoggingConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	Output   string `mapstructure:"output"`
	FilePath string `mapstructure:"file_path"`
}

type TokensConfig struct {
	ItemsPerPage int `mapstructure:"items_per_page"`
	MaxNameLen   int `mapstructure:"max_name_length"`
	// MaxDuration caps first-use lifetimes.
	MaxDuration time.Duration `mapstructure:"max_duration"`
}

// GroupConfig describes a billing group. Selectable groups may be chosen by
// regular users; the rest are reserved for admins.
type GroupConfig struct {
	Name       string   `mapstructure:"name"`
	Ratio      float64  `mapstructure:"ratio"`
	Selectable bool     `mapstructure:"selectable"`
	Models     []string `mapstructure:"models"`
}

// OptionsConfig seeds the options table on first start.
type OptionsConfig struct {
	ModelRatioEnabled       bool `mapstructure:"model_ratio_enabled"`
	BillingByRequestEnabled bool `mapstructure:"billing_by_request_enabled"`
	UserGroupEnabled        bool `mapstructure:"user_group_enabled"`
}

type AdminConfig struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Group    string `mapstructure:"group"`
}

type WorkersConfig struct {
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// ConsoleConfig is read by tokenctl.
type ConsoleConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	AccessToken string        `mapstructure:"access_token"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("database.url", "file:data/keyring.db")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.migrations_path", "migrations")
	v.SetDefault("jwt.access_token_ttl", 24*time.Hour)
	v.SetDefault("rate_limit.api_read_per_minute", 1000)
	v.SetDefault("rate_limit.api_write_per_minute", 100)
	v.SetDefault("rate_limit.key_per_minute", 600)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("tokens.items_per_page", 10)
	v.SetDefault("tokens.max_name_length", 30)
	v.SetDefault("tokens.max_duration", 8760*time.Hour)
	v.SetDefault("workers.sweep_interval", time.Minute)
	v.SetDefault("console.base_url", "http://localhost:3000")
	v.SetDefault("console.timeout", 30*time.Second)
}

func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// Group returns the named group, or false when it is not configured.
func (c *Config) Group(name string) (GroupConfig, bool) {
	for _, g := range c.Groups {
		if g.Name == name {
			return g, true
		}
	}
	return GroupConfig{}, false
}
