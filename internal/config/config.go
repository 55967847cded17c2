package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/samvad-hq/samvad-request/pkg/request"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName             string        `mapstructure:"app_name"`
	Env                 string        `mapstructure:"app_env"`
	LogLevel            string        `mapstructure:"log_level"`
	RequestsFile        string        `mapstructure:"requests_file"`
	PublishersFile      string        `mapstructure:"publishers_file"`
	RunIntervalSeconds  int64         `mapstructure:"run_interval"`
	RunInterval         time.Duration `mapstructure:"-"`
	RequestTimeoutMs    int64         `mapstructure:"request_timeout_ms"`
	RequestTimeout      time.Duration `mapstructure:"-"`
	UserAgent           string        `mapstructure:"user_agent"`
	DefaultCharset      string        `mapstructure:"default_charset"`
	SaveBodiesDirectory string        `mapstructure:"save_bodies_dir"`
	RatePerSecond       float64       `mapstructure:"rate_limit_per_second"`

	StorageType            string        `mapstructure:"storage_type"`
	BBoltPath              string        `mapstructure:"bbolt_path"`
	StorageTTLSeconds      int64         `mapstructure:"storage_ttl_seconds"`
	StorageCleanupSeconds  int64         `mapstructure:"storage_cleanup_interval_seconds"`
	StorageTTL             time.Duration `mapstructure:"-"`
	StorageCleanupInterval time.Duration `mapstructure:"-"`
}

var defaults = map[string]any{
	"app_name":                         "samvad-request",
	"app_env":                          "development",
	"log_level":                        "info",
	"requests_file":                    "./configs/requests.yaml",
	"publishers_file":                  "./configs/publishers.yaml",
	"run_interval":                     0, // seconds, 0 runs once
	"request_timeout_ms":               15000,
	"user_agent":                       "samvad-request/1.0",
	"default_charset":                  "utf-8",
	"save_bodies_dir":                  "",
	"rate_limit_per_second":            0.0, // 0 disables the run-wide cap
	"storage_type":                     "bbolt",
	"bbolt_path":                       "./data/history.db",
	"storage_ttl_seconds":              int64((7 * 24 * time.Hour) / time.Second),
	"storage_cleanup_interval_seconds": int64((6 * time.Hour) / time.Second),
}

// Load reads configs/.env when present, then environment variables, on top
// of the defaults above.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.finalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) finalize() error {
	if cfg.RunIntervalSeconds < 0 {
		return fmt.Errorf("invalid run_interval (must be zero or positive seconds)")
	}
	cfg.RunInterval = time.Duration(cfg.RunIntervalSeconds) * time.Second

	var err error
	if cfg.RequestTimeout, err = positive("request_timeout_ms", cfg.RequestTimeoutMs, time.Millisecond); err != nil {
		return err
	}
	if cfg.StorageTTL, err = positive("storage_ttl_seconds", cfg.StorageTTLSeconds, time.Second); err != nil {
		return err
	}
	if cfg.StorageCleanupInterval, err = positive("storage_cleanup_interval_seconds", cfg.StorageCleanupSeconds, time.Second); err != nil {
		return err
	}

	if cfg.RatePerSecond < 0 {
		return fmt.Errorf("invalid rate_limit_per_second (must be zero or positive)")
	}

	cfg.DefaultCharset = strings.TrimSpace(cfg.DefaultCharset)
	if cfg.DefaultCharset == "" {
		return fmt.Errorf("default_charset must not be empty")
	}
	if err := request.ValidateCharset(cfg.DefaultCharset); err != nil {
		return fmt.Errorf("invalid default_charset: %w", err)
	}
	return nil
}

func positive(key string, n int64, unit time.Duration) (time.Duration, error) {
	if n <= 0 {
		return 0, fmt.Errorf("invalid %s (must be positive, got %d)", key, n)
	}
	return time.Duration(n) * unit, nil
}
