package runtimeconfig_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goliatone/go-layouts/internal/runtimeconfig"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := runtimeconfig.DefaultConfig().Validate(); err != nil {
		t.Fatalf("Validate() returned unexpected error: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*runtimeconfig.Config)
		want   error
	}{
		{"unknown storage provider", func(c *runtimeconfig.Config) { c.Storage.Provider = "mongo" }, runtimeconfig.ErrStorageProviderUnknown},
		{"unknown dialect", func(c *runtimeconfig.Config) { c.Storage.Dialect = "mysql" }, runtimeconfig.ErrStorageDialectUnknown},
		{"missing dsn", func(c *runtimeconfig.Config) { c.Storage.DSN = " " }, runtimeconfig.ErrStorageDSNRequired},
		{"cache without ttl", func(c *runtimeconfig.Config) { c.Cache.DefaultTTL = 0 }, runtimeconfig.ErrCacheTTLInvalid},
		{"missing locale", func(c *runtimeconfig.Config) { c.I18N.DefaultLocale = "" }, runtimeconfig.ErrDefaultLocaleRequired},
		{"unknown logging provider", func(c *runtimeconfig.Config) { c.Logging.Provider = "syslog" }, runtimeconfig.ErrLoggingProviderUnknown},
		{"invalid level", func(c *runtimeconfig.Config) { c.Logging.Level = "loud" }, runtimeconfig.ErrLoggingLevelInvalid},
		{"invalid format", func(c *runtimeconfig.Config) {
			c.Logging.Provider = "gologger"
			c.Logging.Format = "xml"
		}, runtimeconfig.ErrLoggingFormatInvalid},
		{"negative timeout", func(c *runtimeconfig.Config) { c.Commands.Timeout = -time.Second }, runtimeconfig.ErrCommandTimeoutInvalid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := runtimeconfig.DefaultConfig()
			tc.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestConfigValidateMemoryProviderIgnoresDSN(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Storage.Provider = runtimeconfig.ProviderMemory
	cfg.Storage.DSN = ""
	cfg.Cache.Enabled = false
	cfg.Cache.DefaultTTL = 0

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() returned unexpected error: %v", err)
	}
}

func TestLoadEnvOverlaysDefaults(t *testing.T) {
	t.Setenv("LAYOUTS_STORAGE_PROVIDER", "memory")
	t.Setenv("LAYOUTS_CACHE_TTL", "5m")
	t.Setenv("LAYOUTS_I18N_LOCALES", "en,hr,de")
	t.Setenv("LAYOUTS_LOG_PROVIDER", "gologger")
	t.Setenv("LAYOUTS_LOG_FORMAT", "json")

	cfg, err := runtimeconfig.LoadEnv(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("LoadEnv: %v", err)
	}
	if cfg.Storage.Provider != "memory" {
		t.Fatalf("expected memory provider, got %q", cfg.Storage.Provider)
	}
	if cfg.Cache.DefaultTTL != 5*time.Minute {
		t.Fatalf("expected 5m ttl, got %s", cfg.Cache.DefaultTTL)
	}
	if len(cfg.I18N.Locales) != 3 || cfg.I18N.Locales[2] != "de" {
		t.Fatalf("unexpected locales %v", cfg.I18N.Locales)
	}
	if cfg.I18N.DefaultLocale != "en" {
		t.Fatalf("expected default locale to survive, got %q", cfg.I18N.DefaultLocale)
	}
	if cfg.Commands.Timeout != 30*time.Second {
		t.Fatalf("expected default timeout to survive, got %s", cfg.Commands.Timeout)
	}
}

func TestLoadEnvReadsDotenvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layouts.env")
	content := "LAYOUTS_STORAGE_DIALECT=postgres\nLAYOUTS_STORAGE_DSN=postgres://localhost/layouts\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Cleanup(func() {
		os.Unsetenv("LAYOUTS_STORAGE_DIALECT")
		os.Unsetenv("LAYOUTS_STORAGE_DSN")
	})

	cfg, err := runtimeconfig.LoadEnv(path)
	if err != nil {
		t.Fatalf("LoadEnv: %v", err)
	}
	if cfg.Storage.Dialect != "postgres" || cfg.Storage.DSN != "postgres://localhost/layouts" {
		t.Fatalf("unexpected storage config %+v", cfg.Storage)
	}
}

func TestLoadEnvRejectsInvalidValues(t *testing.T) {
	t.Setenv("LAYOUTS_COMMANDS_TIMEOUT", "soon")

	if _, err := runtimeconfig.LoadEnv(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Fatal("expected parse error for invalid duration")
	}
}
