package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

const (
	defaultEnv      = "dev"
	defaultDBPath   = "./dev.db"
	defaultPort     = "8080"
	defaultLogLevel = "info"
)

// Config holds application configuration sourced from the environment and an
// optional config file.
type Config struct {
	Env            string `mapstructure:"env"`
	Port           string `mapstructure:"port"`
	DBPath         string `mapstructure:"db_path"`
	LogLevel       string `mapstructure:"log_level"`
	MetricsEnabled bool   `mapstructure:"metrics_enabled"`
	SeedOnStart    bool   `mapstructure:"seed_on_start"`
}

// IsDev reports whether the app runs in the development environment.
func (c Config) IsDev() bool {
	return c.Env == defaultEnv
}

// Load reads configuration. A local .env file is applied first without
// overriding variables that are already set; CONFIG_FILE, when set, names a
// YAML file whose values sit below the environment.
func Load() (Config, error) {
	// Missing .env is normal outside local development.
	_ = gotenv.Load(".env")

	v := viper.New()
	v.SetDefault("env", defaultEnv)
	v.SetDefault("port", defaultPort)
	v.SetDefault("db_path", defaultDBPath)
	v.SetDefault("log_level", defaultLogLevel)
	v.SetDefault("metrics_enabled", true)
	_ = v.BindEnv("seed_on_start")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path := v.GetString("config_file"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.Env = strings.ToLower(strings.TrimSpace(cfg.Env))

	if !v.IsSet("seed_on_start") {
		cfg.SeedOnStart = cfg.IsDev()
	}
	if cfg.DBPath == defaultDBPath && !cfg.IsDev() {
		slog.Warn("DB_PATH is not set outside dev; using default", "db_path", cfg.DBPath)
	}

	return cfg, nil
}
