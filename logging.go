package layouts

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-layouts/internal/logging/console"
	"github.com/goliatone/go-layouts/internal/logging/gologger"
	"github.com/goliatone/go-layouts/pkg/interfaces"
)

// NewLoggerProvider builds the logger provider selected by cfg.
func NewLoggerProvider(cfg LoggingConfig) (interfaces.LoggerProvider, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "console":
		level := console.ParseLevel(cfg.Level)
		return console.NewProvider(console.Options{
			MinLevel: &level,
			Format:   console.ParseFormat(cfg.Format),
			Focus:    cfg.Focus,
		}), nil
	case "gologger":
		provider, err := gologger.NewProvider(gologger.Config{
			Level:     cfg.Level,
			Format:    cfg.Format,
			AddSource: cfg.AddSource,
			Focus:     cfg.Focus,
		})
		if err != nil {
			return nil, err
		}
		return provider, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, cfg.Provider)
	}
}
