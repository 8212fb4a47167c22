package runtimeconfig

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrStorageProviderUnknown = errors.New("layouts config: storage provider is invalid")
	ErrStorageDialectUnknown  = errors.New("layouts config: storage dialect is invalid")
	ErrStorageDSNRequired     = errors.New("layouts config: storage dsn is required for the bun provider")
	ErrCacheTTLInvalid        = errors.New("layouts config: cache ttl must be positive when cache is enabled")
	ErrDefaultLocaleRequired  = errors.New("layouts config: default locale is required")
	ErrLoggingProviderUnknown = errors.New("layouts config: logging provider is invalid")
	ErrLoggingLevelInvalid    = errors.New("layouts config: logging level is invalid")
	ErrLoggingFormatInvalid   = errors.New("layouts config: logging format is invalid")
	ErrCommandTimeoutInvalid  = errors.New("layouts config: command timeout must be zero or positive")
)

const (
	ProviderBun    = "bun"
	ProviderMemory = "memory"

	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
)

// Config aggregates the runtime settings of the layouts engine. Struct tags
// drive LoadEnv; every variable carries the LAYOUTS_ prefix.
type Config struct {
	Storage  StorageConfig  `envPrefix:"STORAGE_"`
	Cache    CacheConfig    `envPrefix:"CACHE_"`
	I18N     I18NConfig     `envPrefix:"I18N_"`
	Logging  LoggingConfig  `envPrefix:"LOG_"`
	Commands CommandsConfig `envPrefix:"COMMANDS_"`
}

// StorageConfig selects the backend behind the engine.
type StorageConfig struct {
	Provider    string `env:"PROVIDER"`
	Dialect     string `env:"DIALECT"`
	DSN         string `env:"DSN"`
	AutoMigrate bool   `env:"AUTO_MIGRATE"`
}

// CacheConfig toggles the read-side layout finder cache.
type CacheConfig struct {
	Enabled    bool          `env:"ENABLED"`
	DefaultTTL time.Duration `env:"TTL"`
}

// I18NConfig lists the locales new layouts start with.
type I18NConfig struct {
	DefaultLocale string   `env:"DEFAULT_LOCALE"`
	Locales       []string `env:"LOCALES" envSeparator:","`
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string   `env:"PROVIDER"`
	Level     string   `env:"LEVEL"`
	Format    string   `env:"FORMAT"`
	AddSource bool     `env:"ADD_SOURCE"`
	Focus     []string `env:"FOCUS" envSeparator:","`
}

// CommandsConfig captures command-layer behaviour.
type CommandsConfig struct {
	Timeout                time.Duration `env:"TIMEOUT"`
	AutoRegisterDispatcher bool          `env:"AUTO_REGISTER_DISPATCHER"`
}

// DefaultConfig returns a sqlite backed configuration suitable for local use.
func DefaultConfig() Config {
	return Config{
		Storage: StorageConfig{
			Provider:    ProviderBun,
			Dialect:     DialectSQLite,
			DSN:         "file:layouts.db?cache=shared&_fk=1",
			AutoMigrate: true,
		},
		Cache: CacheConfig{
			Enabled:    true,
			DefaultTTL: time.Minute,
		},
		I18N: I18NConfig{
			DefaultLocale: "en",
			Locales:       []string{"en"},
		},
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
		},
		Commands: CommandsConfig{
			Timeout: 30 * time.Second,
		},
	}
}

// Validate performs high-level consistency checks.
func (cfg Config) Validate() error {
	switch normalize(cfg.Storage.Provider) {
	case ProviderMemory:
	case ProviderBun:
		if !isSupportedDialect(normalize(cfg.Storage.Dialect)) {
			return fmt.Errorf("%w: %s", ErrStorageDialectUnknown, cfg.Storage.Dialect)
		}
		if strings.TrimSpace(cfg.Storage.DSN) == "" {
			return ErrStorageDSNRequired
		}
	default:
		return fmt.Errorf("%w: %s", ErrStorageProviderUnknown, cfg.Storage.Provider)
	}
	if cfg.Cache.Enabled && cfg.Cache.DefaultTTL <= 0 {
		return ErrCacheTTLInvalid
	}
	if strings.TrimSpace(cfg.I18N.DefaultLocale) == "" {
		return ErrDefaultLocaleRequired
	}
	provider := normalize(cfg.Logging.Provider)
	if !isSupportedProvider(provider) {
		return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
	}
	if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
		return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
	}
	if provider == "gologger" {
		if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
			return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
		}
	}
	if cfg.Commands.Timeout < 0 {
		return ErrCommandTimeoutInvalid
	}
	return nil
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func isSupportedDialect(dialect string) bool {
	return dialect == DialectSQLite || dialect == DialectPostgres
}

func isSupportedProvider(provider string) bool {
	switch provider {
	case "console", "gologger":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch normalize(level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch normalize(format) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}
