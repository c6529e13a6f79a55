package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Database DatabaseConfig `mapstructure:"database"`
	Engine   EngineConfig   `mapstructure:"engine"`
}

type ServerConfig struct {
	Host        string `mapstructure:"host"`
	ProxyPort   int    `mapstructure:"proxy_port"`
	AdminPort   int    `mapstructure:"admin_port"`
	MetricsPort int    `mapstructure:"metrics_port"`
	LogLevel    string `mapstructure:"log_level"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	TLS      bool   `mapstructure:"tls"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

// EngineConfig is the admission engine configuration. It is loaded once at
// startup and treated as immutable; operator mutations go through Manager,
// which swaps a fresh snapshot instead of mutating a shared one.
type EngineConfig struct {
	// FailMode selects behavior when the threat store is unreachable:
	// "open" admits with zero counts, "closed" denies outright.
	FailMode  string            `mapstructure:"fail_mode"`
	Rules     map[string]bool   `mapstructure:"rules"`
	RateLimit RateLimitConfig   `mapstructure:"rate_limit"`
	Bot       BotConfig         `mapstructure:"bot"`
	Behavior  BehaviorConfig    `mapstructure:"behavior"`
	Email     EmailConfig       `mapstructure:"email"`
	Suspicion SuspicionConfig   `mapstructure:"suspicion"`
}

type RateLimitConfig struct {
	WindowSeconds         int `mapstructure:"window_seconds"`
	LoginAttemptsLimit    int `mapstructure:"login_attempts_limit"`
	IPDailyLimit          int `mapstructure:"ip_daily_limit"`
	UserDailyLimit        int `mapstructure:"user_daily_limit"`
	EndpointLimit         int `mapstructure:"endpoint_limit"`
	EndpointWindowSeconds int `mapstructure:"endpoint_window_seconds"`
	BlacklistSeconds      int `mapstructure:"blacklist_seconds"`
}

type BotConfig struct {
	BlockEnabled bool     `mapstructure:"block_enabled"`
	Keywords     []string `mapstructure:"keywords"`
}

type BehaviorConfig struct {
	SessionWindowSeconds   int `mapstructure:"session_window_seconds"`
	FrequencyWindowSeconds int `mapstructure:"frequency_window_seconds"`
	MaxConcurrentSessions  int `mapstructure:"max_concurrent_sessions"`
	MaxFrequency           int `mapstructure:"max_frequency"`
}

type EmailConfig struct {
	DisposableDomains []string `mapstructure:"disposable_domains"`
}

type SuspicionConfig struct {
	Threshold       float64 `mapstructure:"threshold"`
	HalfLifeSeconds int     `mapstructure:"half_life_seconds"`
}

const (
	FailModeOpen   = "open"
	FailModeClosed = "closed"
)

// Load reads config.yaml from the given path (plus environment overrides)
// and returns a Manager over the parsed configuration.
func Load(configPath string) (*Manager, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No file is fine, defaults plus environment apply.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Engine.Validate(); err != nil {
		return nil, err
	}
	return NewManagerWithViper(v, &cfg), nil
}

func (e EngineConfig) Validate() error {
	if e.FailMode != FailModeOpen && e.FailMode != FailModeClosed {
		return fmt.Errorf("engine.fail_mode must be %q or %q", FailModeOpen, FailModeClosed)
	}
	if e.Suspicion.HalfLifeSeconds <= 0 {
		return fmt.Errorf("engine.suspicion.half_life_seconds must be positive")
	}
	return nil
}

// RuleEnabled reports whether the named detector is enabled. Detectors not
// mentioned in the rules map default to enabled.
func (e EngineConfig) RuleEnabled(name string) bool {
	enabled, ok := e.Rules[name]
	if !ok {
		return true
	}
	return enabled
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.proxy_port", 8080)
	v.SetDefault("server.admin_port", 8081)
	v.SetDefault("server.metrics_port", 9090)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.name", "vigil")
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("engine.fail_mode", FailModeOpen)
	v.SetDefault("engine.rate_limit.window_seconds", 900)
	v.SetDefault("engine.rate_limit.login_attempts_limit", 5)
	v.SetDefault("engine.rate_limit.ip_daily_limit", 100)
	v.SetDefault("engine.rate_limit.user_daily_limit", 50)
	v.SetDefault("engine.rate_limit.endpoint_limit", 20)
	v.SetDefault("engine.rate_limit.endpoint_window_seconds", 60)
	v.SetDefault("engine.rate_limit.blacklist_seconds", 3600)
	v.SetDefault("engine.bot.block_enabled", true)
	v.SetDefault("engine.behavior.session_window_seconds", 300)
	v.SetDefault("engine.behavior.frequency_window_seconds", 60)
	v.SetDefault("engine.behavior.max_concurrent_sessions", 5)
	v.SetDefault("engine.behavior.max_frequency", 10)
	v.SetDefault("engine.suspicion.threshold", 10)
	v.SetDefault("engine.suspicion.half_life_seconds", 3600)
}
