package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration (file + env overrides)
type Config struct {
	Server struct {
		Addr           string        `mapstructure:"addr"`
		LogLevel       string        `mapstructure:"log_level"`
		LogFormat      string        `mapstructure:"log_format"`
		RequestTimeout time.Duration `mapstructure:"request_timeout"`
	} `mapstructure:"server"`

	Database struct {
		URL          string `mapstructure:"url"`
		MaxOpenConns int    `mapstructure:"max_open_conns"`
		MinConns     int    `mapstructure:"min_conns"`
		AutoMigrate  bool   `mapstructure:"auto_migrate"`
	} `mapstructure:"database"`

	Redis struct {
		Enabled  bool   `mapstructure:"enabled"`
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`

	Auth struct {
		JWTSecret string `mapstructure:"jwt_secret"`
		AdminKey  string `mapstructure:"admin_key"`
		AdminRole string `mapstructure:"admin_role"`
	} `mapstructure:"auth"`

	Banners struct {
		DefaultPage string `mapstructure:"default_page"`
	} `mapstructure:"banners"`
}

// Load reads configs/application.yaml (or path when given), then .env, then
// APP_* environment variables, e.g. APP_DATABASE_URL.
func Load(path string) (Config, error) {
	_ = godotenv.Load() // optional

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("application")
		v.SetConfigType("yaml")
		v.AddConfigPath("configs")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unable to decode config: %w", err)
	}
	validate(&cfg)
	return cfg, nil
}

// setDefaults also registers every key so AutomaticEnv can override it.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.log_format", "console")
	v.SetDefault("server.request_timeout", "2s")
	v.SetDefault("database.url", "memory://")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.admin_key", "")
	v.SetDefault("auth.admin_role", "admin")
	v.SetDefault("banners.default_page", "home")
}

func validate(c *Config) {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.RequestTimeout <= 0 {
		c.Server.RequestTimeout = 2 * time.Second
	}
	if c.Database.URL == "" {
		c.Database.URL = "memory://"
	}
	if c.Database.MaxOpenConns <= 0 {
		c.Database.MaxOpenConns = 10
	}
	// min_conns is the number of warm postgres connections the pool keeps
	if c.Database.MinConns < 0 {
		c.Database.MinConns = 0
	}
	if c.Database.MinConns > c.Database.MaxOpenConns {
		c.Database.MinConns = c.Database.MaxOpenConns
	}
	if c.Auth.AdminRole == "" {
		c.Auth.AdminRole = "admin"
	}
	if c.Banners.DefaultPage == "" {
		c.Banners.DefaultPage = "home"
	}
}

// DSNRedacted is safe to log.
func (c Config) DSNRedacted() string {
	if i := strings.Index(c.Database.URL, "://"); i >= 0 {
		return c.Database.URL[:i] + "://***"
	}
	return "***"
}
